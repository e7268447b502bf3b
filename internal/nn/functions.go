package nn

// Rectify is the rectified linear activation max(x, 0).
func Rectify(x float64) float64 {
	if x < 0 {
		return 0
	}
	return x
}

// Dot returns the sum of pairwise products over the shorter of the two slices.
func Dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	total := 0.0
	for i := 0; i < n; i++ {
		total += a[i] * b[i]
	}
	return total
}

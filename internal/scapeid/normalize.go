// Package scapeid canonicalizes user supplied scape names.
package scapeid

import "strings"

// Normalize lowercases a scape name, folds separators to "-", drops a
// "scape" prefix or "sim" suffix when that reveals a known truth table, and
// resolves the long-form aliases of the built-in tables.
func Normalize(name string) string {
	normalized := strings.TrimSpace(strings.ToLower(name))
	normalized = strings.NewReplacer("_", "-", " ", "-").Replace(normalized)
	normalized = strings.Trim(normalized, "-")
	if normalized == "" {
		return ""
	}
	for _, candidate := range candidates(normalized) {
		if canonical, ok := canonicalTable(candidate); ok {
			return canonical
		}
	}
	return normalized
}

func candidates(normalized string) []string {
	out := []string{normalized}
	stripped := strings.Trim(strings.TrimPrefix(normalized, "scape"), "-")
	if stripped != "" && stripped != normalized {
		out = append(out, stripped)
	}
	for _, c := range out {
		if trimmed := strings.Trim(strings.TrimSuffix(c, "sim"), "-"); trimmed != "" && trimmed != c {
			out = append(out, trimmed)
		}
	}
	return out
}

func canonicalTable(alias string) (string, bool) {
	switch strings.ReplaceAll(alias, "-", "") {
	case "xor", "exclusiveor":
		return "xor", true
	case "and", "conjunction":
		return "and", true
	case "or", "disjunction":
		return "or", true
	case "nand", "notand":
		return "nand", true
	default:
		return "", false
	}
}

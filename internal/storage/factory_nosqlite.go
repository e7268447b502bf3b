//go:build !sqlite

package storage

import "github.com/pkg/errors"

func DefaultStoreKind() string {
	return "memory"
}

func newSQLiteStore(_ string) (Store, error) {
	return nil, errors.New("sqlite backend unavailable in this build; rebuild with -tags sqlite")
}

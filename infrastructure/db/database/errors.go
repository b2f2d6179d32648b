package database

import "github.com/pkg/errors"

// ErrNotFound denotes that the requested key does not exist in the
// database. A missing key is an expected condition and is never reported
// as a storage failure.
var ErrNotFound = errors.New("not found")

// IsNotFoundError checks whether an error is an ErrNotFound.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

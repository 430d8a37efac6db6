package storage

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("storage unavailable")
)

// IsUnavailable reports whether err stems from an unreadable or unwritable
// storage medium, as opposed to a plain absent value.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

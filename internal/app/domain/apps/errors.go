package apps

import "errors"

// IDLength is the length of the textual form of a storage identifier.
const IDLength = 24

var (
	// ErrInvalidID is returned for identifiers that are not IDLength characters long.
	ErrInvalidID = errors.New("invalid id")
	// ErrNotFound is returned when no record carries the requested identifier.
	ErrNotFound = errors.New("app not found")
	// ErrStorage wraps every failure reported by the storage collaborator.
	ErrStorage = errors.New("storage failure")
)

// ValidateID checks the identifier length only. The character set is left to
// the store.
func ValidateID(id string) error {
	if len(id) != IDLength {
		return ErrInvalidID
	}
	return nil
}

package state

import (
	"errors"
	"fmt"
)

// StateErrorCode is a stable machine-readable state failure code.
type StateErrorCode string

const (
	// ErrCodeDeserialize indicates a state buffer too short to load.
	ErrCodeDeserialize StateErrorCode = "STATE_DESERIALIZE"

	// ErrCodeSerialize indicates a state buffer too short to store
	// into.
	ErrCodeSerialize StateErrorCode = "STATE_SERIALIZE"
)

// StateError is a structured state serialization failure.
type StateError struct {
	Code    StateErrorCode
	Message string
	Len     int
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewDeserializationError builds the failure for a load from a buffer
// of the given length.
func NewDeserializationError(length int) *StateError {
	return &StateError{
		Code:    ErrCodeDeserialize,
		Message: fmt.Sprintf("state buffer holds %d bytes, need %d", length, Size),
		Len:     length,
	}
}

// NewSerializationError builds the failure for a store into a buffer
// of the given length.
func NewSerializationError(length int) *StateError {
	return &StateError{
		Code:    ErrCodeSerialize,
		Message: fmt.Sprintf("state buffer holds %d bytes, need %d", length, Size),
		Len:     length,
	}
}

// IsDeserializationError reports whether err is a state load failure.
func IsDeserializationError(err error) bool {
	var se *StateError
	return errors.As(err, &se) && se.Code == ErrCodeDeserialize
}

// IsSerializationError reports whether err is a state store failure.
func IsSerializationError(err error) bool {
	var se *StateError
	return errors.As(err, &se) && se.Code == ErrCodeSerialize
}

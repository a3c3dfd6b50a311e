package instruction

import (
	"errors"
	"fmt"
)

// DecodeErrorCode is a stable machine-readable rejection code.
type DecodeErrorCode string

const (
	// ErrCodeUnknownOpcode indicates an opcode byte outside the defined
	// range.
	ErrCodeUnknownOpcode DecodeErrorCode = "UNKNOWN_OPCODE"

	// ErrCodeTruncatedPayload indicates a buffer too short for its
	// opcode's operand.
	ErrCodeTruncatedPayload DecodeErrorCode = "TRUNCATED_PAYLOAD"
)

// DecodeError is a structured instruction rejection.
//
// Code is stable across releases; Message is for humans and may
// change. Opcode is set for unknown-opcode rejections, Got/Want for
// truncation.
type DecodeError struct {
	Code    DecodeErrorCode
	Message string
	Opcode  uint8
	Got     int
	Want    int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewUnknownOpcodeError builds the rejection for an undefined opcode
// byte.
func NewUnknownOpcodeError(opcode uint8) *DecodeError {
	return &DecodeError{
		Code:    ErrCodeUnknownOpcode,
		Message: fmt.Sprintf("opcode %d is not defined", opcode),
		Opcode:  opcode,
	}
}

// NewTruncatedPayloadError builds the rejection for a buffer shorter
// than its opcode requires.
func NewTruncatedPayloadError(got, want int) *DecodeError {
	return &DecodeError{
		Code:    ErrCodeTruncatedPayload,
		Message: fmt.Sprintf("buffer holds %d bytes, need %d", got, want),
		Got:     got,
		Want:    want,
	}
}

// IsUnknownOpcode reports whether err is an unknown-opcode rejection.
func IsUnknownOpcode(err error) bool {
	var de *DecodeError
	return errors.As(err, &de) && de.Code == ErrCodeUnknownOpcode
}

// IsTruncatedPayload reports whether err is a truncated-payload
// rejection.
func IsTruncatedPayload(err error) bool {
	var de *DecodeError
	return errors.As(err, &de) && de.Code == ErrCodeTruncatedPayload
}

package protocol

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of a codec failure
type ErrorType int

const (
	// ErrTypeTruncated indicates fewer bytes remain than a fixed-length field needs
	ErrTypeTruncated ErrorType = iota
	// ErrTypeMalformed indicates a variable-length field without its terminator
	ErrTypeMalformed
	// ErrTypeUnknownCommand indicates a command id missing from the command table
	ErrTypeUnknownCommand
	// ErrTypeEncode indicates a value that cannot be represented on the wire
	ErrTypeEncode
	// ErrTypeUnsupportedPacket indicates an envelope with an unknown packet type
	ErrTypeUnsupportedPacket
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeTruncated:
		return "Truncated"
	case ErrTypeMalformed:
		return "Malformed"
	case ErrTypeUnknownCommand:
		return "Unknown Command"
	case ErrTypeEncode:
		return "Encode Error"
	case ErrTypeUnsupportedPacket:
		return "Unsupported Packet"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Sentinel errors for errors.Is checks. Any *Error with the same Type matches.
var (
	ErrTruncated         = &Error{Type: ErrTypeTruncated}
	ErrMalformed         = &Error{Type: ErrTypeMalformed}
	ErrUnknownCommand    = &Error{Type: ErrTypeUnknownCommand}
	ErrEncode            = &Error{Type: ErrTypeEncode}
	ErrUnsupportedPacket = &Error{Type: ErrTypeUnsupportedPacket}
)

// Error describes a failure while decoding or encoding S-Touch data
type Error struct {
	Type    ErrorType // Category of error
	Command CommandID // Command being processed (if known)
	Offset  int       // Byte offset into the buffer where the failure was detected
	Message string    // Human-readable detail
	Err     error     // Underlying error (if any)
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Type.String()
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += fmt.Sprintf(" (caused by: %v)", e.Err)
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same type
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Type == e.Type
}

func truncated(offset, need, have int) error {
	return &Error{
		Type:    ErrTypeTruncated,
		Offset:  offset,
		Message: fmt.Sprintf("need %d bytes, %d remaining", need, have),
	}
}

// IsTruncated reports whether err is a truncation error
func IsTruncated(err error) bool {
	return errors.Is(err, ErrTruncated)
}

// IsMalformed reports whether err is a malformed-data error
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformed)
}

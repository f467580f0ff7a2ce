package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrMalformed     = errors.New("malformed message")
	ErrMissingTag    = errors.New("missing message type")
	ErrUnknownTag    = errors.New("unknown message type")
	ErrUnknownAction = errors.New("unknown action kind")
)

// DecodeError describes a payload that could not be turned into a Message.
type DecodeError struct {
	Tag string // discriminant as read from the payload, if any
	Err error
}

func (e *DecodeError) Error() string {
	if e.Tag != "" {
		return fmt.Sprintf("decode %s: %v", e.Tag, e.Err)
	}
	return fmt.Sprintf("decode: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

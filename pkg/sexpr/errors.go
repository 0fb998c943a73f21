package sexpr

import (
	"fmt"
	"reflect"
)

// SyntaxError describes malformed or truncated input.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("sexpr: syntax error at offset %d: %s", e.Offset, e.Msg)
}

func syntaxError(offset int, msg string) *SyntaxError {
	return &SyntaxError{Offset: offset, Msg: msg}
}

// EncodeError is returned when a Go value cannot be represented.
type EncodeError struct {
	Field string
	Type  reflect.Type
}

func (e *EncodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("sexpr: unsupported type %s", e.Type)
	}
	return fmt.Sprintf("sexpr: unsupported type %s for field %s", e.Type, e.Field)
}

// DecodeError is returned when well-formed input does not fit the target type.
type DecodeError struct {
	Field string
	Msg   string
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return "sexpr: " + e.Msg
	}
	return fmt.Sprintf("sexpr: field %s: %s", e.Field, e.Msg)
}

package octosql

import (
	"fmt"

	"github.com/pkg/errors"
)

type ErrorKind int

const (
	// IOError means the source document or the cache couldn't be read or written.
	IOError ErrorKind = iota + 1
	// ParseError means malformed input data: dates, geometry shapes, documents.
	ParseError
	// SchemaError means an unknown column or a type mismatch found while resolving a plan.
	SchemaError
)

func (k ErrorKind) String() string {
	switch k {
	case IOError:
		return "io error"
	case ParseError:
		return "parse error"
	case SchemaError:
		return "schema error"
	}
	return "unknown error"
}

// Error is a fatal, query-terminating failure. Row-local problems are never reported this way.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Err)
}

func (e *Error) Cause() error {
	return e.Err
}

func (e *Error) Unwrap() error {
	return e.Err
}

func SchemaErrorf(format string, args ...interface{}) error {
	return &Error{Kind: SchemaError, Err: errors.Errorf(format, args...)}
}

func ParseErrorf(format string, args ...interface{}) error {
	return &Error{Kind: ParseError, Err: errors.Errorf(format, args...)}
}

func WrapIOError(err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: IOError, Err: errors.Wrap(err, message)}
}

func WrapParseError(err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: ParseError, Err: errors.Wrap(err, message)}
}

// KindOf returns the kind of the outermost *Error in the chain, or 0.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func IsIOError(err error) bool     { return KindOf(err) == IOError }
func IsParseError(err error) bool  { return KindOf(err) == ParseError }
func IsSchemaError(err error) bool { return KindOf(err) == SchemaError }

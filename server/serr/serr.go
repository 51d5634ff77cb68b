// Package serr holds the typed error the hover daemon's server layer
// returns, plus the sentinel values endpoints branch on. An Error carries a
// message and one or more causes; errors.Is sees through to every cause, so
// a handler can test a DAO failure against ErrNotFound or ErrDB without
// typecasting.
package serr

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound marks a lookup whose key has no stored entry.
	ErrNotFound = errors.New("the requested entity could not be found")

	// ErrDB marks a failure inside the cache's database layer.
	ErrDB = errors.New("an error occurred with the DB")

	// ErrBodyUnmarshal marks a request body that could not be decoded.
	ErrBodyUnmarshal = errors.New("malformed data in request")
)

// Error is a message plus the causes it wraps. Construct one with New or
// WrapDB rather than directly.
type Error struct {
	msg   string
	cause []error
}

// Error returns the message followed by the first cause's own message, or
// whichever of the two exists when only one does.
func (e Error) Error() string {
	parts := make([]string, 0, 2)
	if e.msg != "" {
		parts = append(parts, e.msg)
	}
	if len(e.cause) > 0 {
		parts = append(parts, e.cause[0].Error())
	}
	return strings.Join(parts, ": ")
}

// Unwrap exposes every cause to the errors package, so
// errors.Is(err, sentinel) matches any of them.
func (e Error) Unwrap() []error {
	if len(e.cause) == 0 {
		return nil
	}
	return e.cause
}

// WrapDB wraps a database-layer failure, adding ErrDB as a cause so
// callers can branch on the failure's origin without knowing the driver.
func WrapDB(msg string, err error) Error {
	return Error{
		msg:   msg,
		cause: []error{err, ErrDB},
	}
}

// New creates an Error with the given message and causes. Causes are
// optional; each one provided will match errors.Is on the result.
func New(msg string, causes ...error) Error {
	err := Error{msg: msg}
	if len(causes) > 0 {
		err.cause = make([]error, len(causes))
		copy(err.cause, causes)
	}
	return err
}

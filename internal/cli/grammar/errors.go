// Package grammar implements the lsmdb shell command language.
package grammar

import (
	"errors"
	"fmt"
)

// ErrRejected is matched by every error returned from Parse.
var ErrRejected = errors.New("unrecognized command")

// Rejection reasons.
var (
	ErrEmpty           = errors.New("empty token stream")
	ErrUnknownKeyword  = errors.New("unknown keyword")
	ErrArity           = errors.New("wrong number of arguments")
	ErrInvalidArgument = errors.New("invalid numeric argument")
	ErrNotRegularFile  = errors.New("not a regular file")
)

// RejectError reports why a token stream was rejected.
type RejectError struct {
	Keyword string
	Token   string
	Reason  error
}

// Error implements the error interface.
func (e *RejectError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("%s: %s: %q", e.Keyword, e.Reason, e.Token)
	}
	if e.Keyword != "" {
		return fmt.Sprintf("%s: %s", e.Keyword, e.Reason)
	}
	return e.Reason.Error()
}

// Unwrap exposes both ErrRejected and the specific reason.
func (e *RejectError) Unwrap() []error {
	return []error{ErrRejected, e.Reason}
}

func reject(keyword, token string, reason error) error {
	return &RejectError{Keyword: keyword, Token: token, Reason: reason}
}

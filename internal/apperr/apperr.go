// Package apperr carries the error taxonomy shared by the catalog and
// ordering components. Every error that crosses a component boundary is an
// *Error with a Kind; storage errors are translated into one before leaving
// the persistence layer.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

type Kind uint8

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindTxAbort
	KindCollaborator
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindTxAbort:
		return "transaction_abort"
	case KindCollaborator:
		return "collaborator_failure"
	default:
		return "internal"
	}
}

// Error is the error type returned across component boundaries.
type Error struct {
	Kind Kind
	// Op names the operation that failed, e.g. "orders.Create".
	Op  string
	Msg string
	Err error
}

var _ error = (*Error)(nil)

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	switch {
	case e.Msg != "" && e.Err != nil:
		b.WriteString(e.Msg)
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	case e.Msg != "":
		b.WriteString(e.Msg)
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	default:
		b.WriteString(e.Kind.String())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New returns an error of the given kind with a message and no cause.
func New(kind Kind, op, msg string) error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

func Newf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and operation to err. A nil err stays nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether any *Error in err's chain has the given kind, so a
// transaction abort wrapping a stock conflict matches both kinds.
func Is(err error, kind Kind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}

// KindOf returns the kind of the outermost *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the innermost human readable text of err, skipping the
// operation prefixes added while the error travelled up the stack.
func Message(err error) string {
	for err != nil {
		e, ok := err.(*Error)
		if !ok {
			return err.Error()
		}
		if e.Msg != "" {
			if e.Err != nil {
				return e.Msg + ": " + e.Err.Error()
			}
			return e.Msg
		}
		if e.Err == nil {
			return e.Kind.String()
		}
		err = e.Err
	}
	return ""
}

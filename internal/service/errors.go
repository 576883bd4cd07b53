package service

import (
	"strings"

	"github.com/go-faster/errors"

	"bakery-shop-backend/internal/model"
)

// Kind classifies business errors so the HTTP layer can map them to a status.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindForbidden
	KindConflict
	KindInvalidState
	KindInsufficientPoints
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindInvalidState:
		return "invalid_state"
	case KindInsufficientPoints:
		return "insufficient_points"
	default:
		return "unknown"
	}
}

// Error is returned for every expected failure of a service operation.
// Reasons is only set for validation failures and lists every problem found.
type Error struct {
	Kind    Kind
	Message string
	Reasons []string
}

func (e *Error) Error() string {
	if len(e.Reasons) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Reasons, "; ")
}

// IsKind reports whether err carries a service error of kind k.
func IsKind(err error, k Kind) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == k
}

func validationError(reasons ...string) *Error {
	return &Error{Kind: KindValidation, Message: "Validation failed", Reasons: reasons}
}

func notFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func invalidState(msg string) *Error {
	return &Error{Kind: KindInvalidState, Message: msg}
}

var (
	errDuplicate          = &Error{Kind: KindConflict, Message: "Duplicate field value entered"}
	errInsufficientPoints = &Error{Kind: KindInsufficientPoints, Message: "Insufficient reward points"}
)

// storeErr translates repository sentinels into service errors. Anything
// else is an infrastructure failure and is wrapped with the operation name.
func storeErr(err error, notFoundMsg, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, model.ErrNotFound):
		return notFound(notFoundMsg)
	case errors.Is(err, model.ErrDuplicate):
		return errDuplicate
	default:
		var se *Error
		if errors.As(err, &se) {
			return err
		}
		return errors.Wrap(err, op)
	}
}

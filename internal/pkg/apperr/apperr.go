// Package apperr defines the recoverable error taxonomy returned by the
// service layer. Handlers translate these into HTTP status codes; anything
// that is not one of these kinds is treated as an internal error.
package apperr

import (
	"errors"
	"fmt"
)

// NotFoundError indicates that a referenced entity id does not exist.
type NotFoundError struct {
	Entity string
	ID     any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.ID)
}

func NotFound(entity string, id any) error {
	return &NotFoundError{Entity: entity, ID: id}
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// InvalidTransitionError indicates a workflow action that is not legal from
// the application's current status. It always names both.
type InvalidTransitionError struct {
	Current string
	Action  string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("action %q is not allowed from status %q", e.Action, e.Current)
}

func InvalidTransition(current, action string) error {
	return &InvalidTransitionError{Current: current, Action: action}
}

func IsInvalidTransition(err error) bool {
	var it *InvalidTransitionError
	return errors.As(err, &it)
}

// ValidationError indicates a field value that violates a domain constraint.
type ValidationError struct {
	Field string
	Rule  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Rule)
}

func Validation(field, rule string) error {
	return &ValidationError{Field: field, Rule: rule}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ErrConflict is returned when an optimistic-lock check fails, i.e. another
// writer committed between our read and our update.
var ErrConflict = errors.New("conflicting concurrent update")

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrUnauthorized        = errors.New("authentication required")
	ErrForbidden           = errors.New("operation not permitted")
	ErrMatchCompleted      = errors.New("match is already completed")
	ErrInsufficientPlayers = errors.New("not enough qualified players")
	ErrInvalidCredentials  = errors.New("invalid nickname or password")
	ErrDownstreamPlayed    = errors.New("a later match fed by this result is already completed")
)

// ValidationError rejects input before any state is touched. Field names the
// offending input; Err, when set, is the underlying domain error.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Err}
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func invalidErr(field string, err error) error {
	return &ValidationError{Field: field, Message: err.Error(), Err: err}
}

// InsufficientPlayersError reports how many ranked players a bracket needs.
type InsufficientPlayersError struct {
	Need int
	Have int
}

func (e *InsufficientPlayersError) Error() string {
	return fmt.Sprintf("need at least %d qualified players, have %d", e.Need, e.Have)
}

func (e *InsufficientPlayersError) Unwrap() error {
	return ErrInsufficientPlayers
}

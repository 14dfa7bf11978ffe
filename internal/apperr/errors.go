// Package apperr holds the error kinds shared by every layer of the console.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrTurnInFlight is returned when a session already has a turn awaiting a response.
	ErrTurnInFlight = errors.New("a turn is already in progress for this session")
	ErrUnknownModel = errors.New("unknown model")
	// ErrSessionReset is returned for a reply that finished after its session was reset.
	ErrSessionReset = errors.New("session was reset while the reply was streaming")
)

// ConfigurationError is fatal: the process must not issue any model call.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Key == "" {
		return "configuration: " + e.Reason
	}
	return fmt.Sprintf("configuration: %s: %s", e.Key, e.Reason)
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// TransportError wraps failures talking to the hosted model API.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Transport wraps err as a TransportError unless it already is one.
func Transport(op string, err error) error {
	if err == nil {
		return nil
	}
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	return &TransportError{Op: op, Err: err}
}

type EmptyResultError struct {
	What string
}

func (e *EmptyResultError) Error() string {
	return "no " + e.What + " was produced"
}

func IsConfiguration(err error) bool {
	var e *ConfigurationError
	return errors.As(err, &e)
}

func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

func IsTransport(err error) bool {
	var e *TransportError
	return errors.As(err, &e)
}

func IsEmptyResult(err error) bool {
	var e *EmptyResultError
	return errors.As(err, &e)
}

// HTTPStatus maps an error kind to the status code surfaced to clients.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsValidation(err), errors.Is(err, ErrUnknownModel):
		return http.StatusBadRequest
	case errors.Is(err, ErrTurnInFlight), errors.Is(err, ErrSessionReset):
		return http.StatusConflict
	case IsEmptyResult(err):
		return http.StatusUnprocessableEntity
	case IsTransport(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage is the notice shown in the browser for err.
func UserMessage(err error) string {
	switch {
	case IsTransport(err):
		return "The model service could not complete the request. Please try again."
	case errors.Is(err, ErrTurnInFlight):
		return "Please wait for the current reply to finish."
	default:
		return err.Error()
	}
}

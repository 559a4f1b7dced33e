package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jonathan/company-lookup/internal/ingestion"
	"github.com/jonathan/company-lookup/internal/llm"
	"github.com/jonathan/company-lookup/internal/search"
)

// ErrSessionNotFound indicates the session ID is unknown
type ErrSessionNotFound struct {
	SessionID uuid.UUID
}

func (e *ErrSessionNotFound) Error() string {
	return fmt.Sprintf("session not found: %s", e.SessionID)
}

// ErrSessionBusy indicates another request is already working on the session
type ErrSessionBusy struct {
	SessionID uuid.UUID
}

func (e *ErrSessionBusy) Error() string {
	return fmt.Sprintf("session %s is busy with another request", e.SessionID)
}

// ErrTooManySessions indicates the session limit is reached and every session is busy
type ErrTooManySessions struct {
	Limit int
}

func (e *ErrTooManySessions) Error() string {
	return fmt.Sprintf("session limit of %d reached", e.Limit)
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error.
// Wrapped errors are matched through their chain.
func HTTPStatus(err error) int {
	var (
		notFound   *ErrSessionNotFound
		busy       *ErrSessionBusy
		tooMany    *ErrTooManySessions
		validation *ErrValidation
		fields     validator.ValidationErrors
		parseErr   *ingestion.ParseError
		searchErr  *search.Error
		streamErr  *llm.StreamError
	)

	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &busy):
		return http.StatusConflict
	case errors.As(err, &tooMany):
		return http.StatusServiceUnavailable
	case errors.As(err, &validation), errors.As(err, &fields):
		return http.StatusBadRequest
	case errors.As(err, &parseErr), errors.Is(err, ingestion.ErrUnsupportedEncoding):
		return http.StatusUnprocessableEntity
	case errors.As(err, &searchErr), errors.As(err, &streamErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// validationMessage flattens validator errors into a single line.
func validationMessage(err error) string {
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) || len(fields) == 0 {
		return err.Error()
	}
	fe := fields[0]
	if fe.Param() != "" {
		return fmt.Sprintf("validation error: %s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("validation error: %s failed %s", fe.Namespace(), fe.Tag())
}

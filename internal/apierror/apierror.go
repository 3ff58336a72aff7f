// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Fields: fields}
}

// LockedError is the body returned when an account is temporarily locked.
type LockedError struct {
	Detail           string     `json:"detail"`
	MinutosRestantes *int       `json:"minutos_restantes,omitempty"`
	BloqueadoHasta   *time.Time `json:"bloqueado_hasta,omitempty"`
}

// ── Domain errors ─────────────────────────────────────────────────────────────

// Kind classifies a domain error; it decides the HTTP status.
type Kind int

const (
	KindInvalidCredentials Kind = iota + 1
	KindAccountLocked
	KindAccountDisabled
	KindUnauthenticated
	KindNotFound
	KindConflict
	KindValidation
	KindForbidden
)

// Error is a domain error raised by services. Handlers map it to a status code
// with HTTPStatus and render it with Body.
type Error struct {
	Kind    Kind
	Message string

	// Entity is set for NotFound.
	Entity string
	// Field is set for Validation.
	Field string
	// MinutosRestantes is set for AccountLocked.
	MinutosRestantes int
	// BloqueadoHasta is set for Forbidden when the account is locked.
	BloqueadoHasta *time.Time
}

func (e *Error) Error() string { return e.Message }

func InvalidCredentials() *Error {
	return &Error{Kind: KindInvalidCredentials, Message: "Credenciales incorrectas"}
}

func AccountLocked(minutos int) *Error {
	return &Error{
		Kind:             KindAccountLocked,
		Message:          fmt.Sprintf("Usuario bloqueado. Intente nuevamente en %d minutos", minutos),
		MinutosRestantes: minutos,
	}
}

func AccountDisabled() *Error {
	return &Error{Kind: KindAccountDisabled, Message: "Usuario inactivo o eliminado"}
}

func Unauthenticated(msg string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: msg}
}

// NotFound builds the "<entity> no encontrado" error.
func NotFound(entity string) *Error {
	return &Error{Kind: KindNotFound, Entity: entity, Message: entity + " no encontrado"}
}

// NotFoundMsg is NotFound with a custom message (e.g. gender agreement).
func NotFoundMsg(entity, msg string) *Error {
	return &Error{Kind: KindNotFound, Entity: entity, Message: msg}
}

func Conflict(reason string) *Error {
	return &Error{Kind: KindConflict, Message: reason}
}

func Validation(field, reason string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: reason}
}

func Forbidden(reason string) *Error {
	return &Error{Kind: KindForbidden, Message: reason}
}

// ForbiddenLocked is Forbidden carrying the lock expiry.
func ForbiddenLocked(hasta time.Time) *Error {
	return &Error{
		Kind:           KindForbidden,
		Message:        "Usuario bloqueado hasta " + hasta.UTC().Format(time.RFC3339),
		BloqueadoHasta: &hasta,
	}
}

// As extracts a domain error from err.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Is reports whether err is a domain error of the given kind.
func Is(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == kind
}

// HTTPStatus maps a domain error kind to its HTTP status.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindInvalidCredentials, KindUnauthenticated:
		return http.StatusUnauthorized
	case KindAccountLocked, KindAccountDisabled, KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Body renders the response envelope for a domain error.
func Body(e *Error) any {
	switch e.Kind {
	case KindValidation:
		v := NewValidation(map[string]string{e.Field: e.Message})
		v.Detail = e.Message
		return v
	case KindAccountLocked:
		m := e.MinutosRestantes
		return &LockedError{Detail: e.Message, MinutosRestantes: &m}
	case KindForbidden:
		if e.BloqueadoHasta != nil {
			return &LockedError{Detail: e.Message, BloqueadoHasta: e.BloqueadoHasta}
		}
	}
	return New(e.Message)
}

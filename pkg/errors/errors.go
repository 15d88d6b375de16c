package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors shared by the stores, services and HTTP layer.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrAlreadyExists  = errors.New("resource already exists")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInternal       = errors.New("internal error")
	ErrConflict       = errors.New("conflict")
	ErrServiceUnavail = errors.New("service unavailable")
)

type kind struct {
	sentinel error
	code     string
	status   int
}

// kinds is ordered; the first sentinel matched by errors.Is wins.
var kinds = []kind{
	{ErrNotFound, "NOT_FOUND", http.StatusNotFound},
	{ErrAlreadyExists, "ALREADY_EXISTS", http.StatusConflict},
	{ErrConflict, "CONFLICT", http.StatusConflict},
	{ErrInvalidInput, "INVALID_INPUT", http.StatusBadRequest},
	{ErrUnauthorized, "UNAUTHORIZED", http.StatusUnauthorized},
	{ErrForbidden, "FORBIDDEN", http.StatusForbidden},
	{ErrServiceUnavail, "SERVICE_UNAVAILABLE", http.StatusServiceUnavailable},
	{ErrInternal, "INTERNAL_ERROR", http.StatusInternalServerError},
}

// AppError is an error the HTTP layer can render: Code and Message go to the
// client, Err stays server side.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newAppError(sentinel error, message string) *AppError {
	k := lookup(sentinel)
	return &AppError{Code: k.code, Message: message, Status: k.status, Err: sentinel}
}

func NotFound(resource, id string) *AppError {
	return newAppError(ErrNotFound, fmt.Sprintf("%s with id %s not found", resource, id))
}

func AlreadyExists(resource, field, value string) *AppError {
	return newAppError(ErrAlreadyExists, fmt.Sprintf("%s with %s %q already exists", resource, field, value))
}

// Conflict is for state conflicts that are not a duplicate key.
func Conflict(message string) *AppError {
	return newAppError(ErrConflict, message)
}

func InvalidInput(message string) *AppError {
	return newAppError(ErrInvalidInput, message)
}

func InvalidInputf(format string, args ...any) *AppError {
	return InvalidInput(fmt.Sprintf(format, args...))
}

func Unauthorized(message string) *AppError {
	return newAppError(ErrUnauthorized, message)
}

func Forbidden(message string) *AppError {
	return newAppError(ErrForbidden, message)
}

// Unavailable reports a downstream dependency (store, mail relay) that
// cannot be reached. The cause is kept for logging.
func Unavailable(message string, err error) *AppError {
	e := newAppError(ErrServiceUnavail, message)
	e.Err = errors.Join(ErrServiceUnavail, err)
	return e
}

// Internal hides err behind a generic message.
func Internal(err error) *AppError {
	e := newAppError(ErrInternal, "an internal error occurred")
	e.Err = err
	return e
}

// HTTPStatus maps err to a status code. AppErrors carry their own status;
// bare or wrapped sentinels are looked up; anything else is a 500.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return lookup(err).status
}

// Code returns the machine-readable code for err, as rendered to clients.
func Code(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return lookup(err).code
}

func lookup(err error) kind {
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			return k
		}
	}
	return kinds[len(kinds)-1]
}

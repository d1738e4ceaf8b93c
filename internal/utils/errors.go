package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ErrorKind classifies failures for the HTTP layer.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindInput
	KindExtraction
	KindNotFound
	KindPersistence
)

// Status returns the HTTP status code for the kind.
func (k ErrorKind) Status() int {
	switch k {
	case KindInput:
		return http.StatusBadRequest
	case KindExtraction:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// AppError is an error with a kind and a message safe to show to clients.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func InputError(message string) error {
	return &AppError{Kind: KindInput, Message: message}
}

func ExtractionError(message string, err error) error {
	return &AppError{Kind: KindExtraction, Message: message, Err: err}
}

func NotFoundError(message string) error {
	return &AppError{Kind: KindNotFound, Message: message}
}

func PersistenceError(message string, err error) error {
	return &AppError{Kind: KindPersistence, Message: message, Err: err}
}

// RespondError writes err using the standard response envelope. Errors without a kind
// and persistence failures are logged and reported with a generic message.
func RespondError(c *gin.Context, err error) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "Resource not found")
			return
		}
		appErr = &AppError{Kind: KindInternal, Message: "Internal server error", Err: err}
	}

	status := appErr.Kind.Status()
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		message := appErr.Message
		if appErr.Kind == KindInternal {
			message = "Internal server error"
		}
		Error(c, status, message)
		return
	}
	Error(c, status, appErr.Message)
}

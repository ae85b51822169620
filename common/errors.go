package common

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"vidstream-api/logger"

	"github.com/sirupsen/logrus"
)

// Sentinel error kinds returned by the service/repository layers.
// Callers match them with errors.Is and translate to HTTP at the boundary.
var (
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("already exists")
	ErrUnauthorized = errors.New("unauthorized")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("invalid token")
	ErrNotFound     = errors.New("not found")
	ErrUpload       = errors.New("upload failed")
)

type AppError struct {
	Code    int    `json:"statusCode"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// MapError translates a sentinel-wrapped error into an AppError with the
// matching HTTP status. The sentinel suffix is stripped from the client-facing
// message; the original error is kept for logging.
func MapError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	code := http.StatusInternalServerError
	var sentinel error
	switch {
	case errors.Is(err, ErrValidation):
		code, sentinel = http.StatusBadRequest, ErrValidation
	case errors.Is(err, ErrConflict):
		code, sentinel = http.StatusConflict, ErrConflict
	case errors.Is(err, ErrTokenExpired):
		code, sentinel = http.StatusUnauthorized, ErrTokenExpired
	case errors.Is(err, ErrTokenInvalid):
		code, sentinel = http.StatusUnauthorized, ErrTokenInvalid
	case errors.Is(err, ErrUnauthorized):
		code, sentinel = http.StatusUnauthorized, ErrUnauthorized
	case errors.Is(err, ErrNotFound):
		code, sentinel = http.StatusNotFound, ErrNotFound
	case errors.Is(err, ErrUpload):
		code, sentinel = http.StatusInternalServerError, ErrUpload
	default:
		return NewAppError(code, "Internal server error", err)
	}

	msg := err.Error()
	if sentinel != nil {
		msg = strings.TrimSuffix(msg, ": "+sentinel.Error())
	}
	return NewAppError(code, msg, err)
}

// Send writes the error envelope. Internal errors are logged, never exposed.
func (e *AppError) Send(w http.ResponseWriter) {
	if e.Err != nil {
		logger.Log.WithFields(logrus.Fields{
			"status_code":    e.Code,
			"internal_error": e.Err.Error(),
		}).Error(e.Message)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(e.Code)
	json.NewEncoder(w).Encode(ApiResponse{
		StatusCode: e.Code,
		Data:       nil,
		Message:    e.Message,
		Success:    false,
	})
}

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/npezzotti/tvdash/internal/assets"
	"github.com/npezzotti/tvdash/internal/registry"
)

type ApiError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Err        error  `json:"-"`
}

func (e *ApiError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
	}

	return e.Message
}

func (e *ApiError) Unwrap() error {
	return e.Err
}

func lower(s string) string {
	return strings.ToLower(s)
}

// NewBadRequestError uses msg as the message, or the status text when msg
// is empty.
func NewBadRequestError(msg string) *ApiError {
	if msg == "" {
		msg = lower(http.StatusText(http.StatusBadRequest))
	}
	return &ApiError{
		StatusCode: http.StatusBadRequest,
		Message:    msg,
	}
}

func NewNotFoundError() *ApiError {
	return &ApiError{
		StatusCode: http.StatusNotFound,
		Message:    lower(http.StatusText(http.StatusNotFound)),
	}
}

func NewRequestTooLargeError(maxBytes int64) *ApiError {
	return &ApiError{
		StatusCode: http.StatusRequestEntityTooLarge,
		Message:    "file too large, max " + formatSize(maxBytes),
	}
}

func NewInternalServerError(err error) *ApiError {
	return &ApiError{
		StatusCode: http.StatusInternalServerError,
		Message:    lower(http.StatusText(http.StatusInternalServerError)),
		Err:        err,
	}
}

// toApiError maps registry and asset errors onto responses. Anything it
// does not recognize is an internal error.
func toApiError(err error, maxBytes int64) *ApiError {
	var apiErr *ApiError
	var verr *registry.ValidationError
	var maxErr *http.MaxBytesError

	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.As(err, &verr):
		return NewBadRequestError(verr.Message)
	case errors.Is(err, registry.ErrNotFound):
		return NewNotFoundError()
	case errors.Is(err, assets.ErrTooLarge), errors.As(err, &maxErr):
		return NewRequestTooLargeError(maxBytes)
	case errors.Is(err, assets.ErrUnsupportedType):
		return NewBadRequestError("only jpeg, png, gif and webp images are allowed")
	default:
		return NewInternalServerError(err)
	}
}

func formatSize(n int64) string {
	if n >= 1<<20 && n%(1<<20) == 0 {
		return fmt.Sprintf("%dMB", n>>20)
	}
	return fmt.Sprintf("%d bytes", n)
}

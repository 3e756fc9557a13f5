package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-rawan/internal/service"
)

// ErrorBody is the JSON error shape clients rely on: a status plus an
// optional human-readable message.
type ErrorBody struct {
	Status  int      `json:"status" doc:"HTTP status code" example:"400"`
	Message string   `json:"message,omitempty" doc:"Human-readable error message" example:"namaLokasi: name is required"`
	Errors  []string `json:"errors,omitempty" doc:"Individual field problems"`
}

// Error implements error.
func (e *ErrorBody) Error() string { return e.Message }

// GetStatus implements huma.StatusError.
func (e *ErrorBody) GetStatus() int { return e.Status }

func init() {
	huma.NewError = NewError
}

// NewError builds every error huma returns. Schema validation failures
// (422 in huma) are reported as 400 so clients see a single validation
// status. Details of 5xx errors are not exposed.
func NewError(status int, msg string, errs ...error) huma.StatusError {
	if status == http.StatusUnprocessableEntity {
		status = http.StatusBadRequest
	}
	body := &ErrorBody{Status: status, Message: msg}
	if status >= 500 {
		return body
	}

	for _, err := range errs {
		if err == nil {
			continue
		}
		var detail *huma.ErrorDetail
		if errors.As(err, &detail) && detail.Location != "" {
			body.Errors = append(body.Errors, detail.Location+": "+detail.Message)
		} else {
			body.Errors = append(body.Errors, err.Error())
		}
	}
	if status == http.StatusBadRequest && len(body.Errors) > 0 {
		body.Message = msg + ": " + strings.Join(body.Errors, "; ")
	}
	return body
}

// toHTTPError maps service errors onto API errors.
func toHTTPError(err error) error {
	var verr *service.ValidationError
	switch {
	case errors.Is(err, service.ErrNotFound):
		return huma.Error404NotFound("hazard location not found")
	case errors.As(err, &verr):
		return huma.Error400BadRequest(verr.Error())
	default:
		return huma.Error500InternalServerError("internal error", err)
	}
}

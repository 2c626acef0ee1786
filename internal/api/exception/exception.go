// Package exception turns errors returned by API handlers into problem
// responses and logs every error that produced one.
package exception

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/healthmonitor/healthmonitor/internal/api/middleware"
	"github.com/healthmonitor/healthmonitor/internal/api/models"
)

// Sentinel errors understood by DefaultHandler.
var (
	ErrNotFound         = errors.New("not found")
	ErrMethodNotAllowed = errors.New("method not allowed")
	ErrPermissionDenied = errors.New("you do not have permission to perform this action")
)

// APIError is an error that carries its own HTTP status.
type APIError struct {
	Status int
	Detail string
	Err    error
}

// Error implements error.
func (e *APIError) Error() string {
	if e.Err != nil {
		return e.Detail + ": " + e.Err.Error()
	}
	return e.Detail
}

// Unwrap returns the underlying error.
func (e *APIError) Unwrap() error {
	return e.Err
}

// NewAPIError creates an APIError.
func NewAPIError(status int, detail string, err error) *APIError {
	return &APIError{Status: status, Detail: detail, Err: err}
}

// MethodNotAllowed returns the error for an unsupported method.
func MethodNotAllowed(method string) error {
	return fmt.Errorf("%w: method %q not allowed", ErrMethodNotAllowed, method)
}

// DefaultHandler maps known API errors to a problem response. It returns nil
// for any other error, leaving it to the unhandled-error path.
func DefaultHandler(err error, r *http.Request) *models.Problem {
	traceID := middleware.GetRequestID(r.Context())

	var problem *models.Problem

	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		problem = problemForStatus(apiErr.Status, traceID, apiErr.Detail)
	case errors.Is(err, ErrNotFound):
		problem = models.NewNotFound(traceID, err.Error())
	case errors.Is(err, ErrMethodNotAllowed):
		problem = models.NewMethodNotAllowed(traceID, err.Error())
	case errors.Is(err, ErrPermissionDenied):
		problem = models.NewForbidden(traceID, err.Error())
	default:
		return nil
	}

	problem.Instance = r.URL.Path
	return problem
}

func problemForStatus(status int, traceID, detail string) *models.Problem {
	switch status {
	case http.StatusBadRequest:
		return models.NewBadRequest(traceID, detail)
	case http.StatusForbidden:
		return models.NewForbidden(traceID, detail)
	case http.StatusNotFound:
		return models.NewNotFound(traceID, detail)
	case http.StatusMethodNotAllowed:
		return models.NewMethodNotAllowed(traceID, detail)
	case http.StatusTooManyRequests:
		return models.NewTooManyRequests(traceID, detail)
	case http.StatusServiceUnavailable:
		return models.NewServiceUnavailable(traceID, detail)
	case http.StatusInternalServerError:
		return models.NewInternalError(traceID, detail)
	default:
		return models.NewProblem(models.ProblemTypeInternal, http.StatusText(status), status, traceID).WithDetail(detail)
	}
}

// HandlerFunc is an HTTP handler that may fail.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Handler runs error-returning handlers and reports their failures.
type Handler struct {
	log zerolog.Logger
}

// NewHandler creates a Handler that logs to log.
func NewHandler(log zerolog.Logger) *Handler {
	return &Handler{log: log}
}

// Wrap adapts fn to http.HandlerFunc.
func (h *Handler) Wrap(fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			h.Handle(w, r, err)
		}
	}
}

// Handle writes the response for err. When DefaultHandler produces a
// response it is logged together with the error and written unchanged.
// Anything else becomes a generic 500.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())

	if problem := DefaultHandler(err, r); problem != nil {
		h.log.Error().
			Str("request_id", requestID).
			Str("error_type", fmt.Sprintf("%T", err)).
			Str("error", err.Error()).
			Interface("response", problem).
			Msg("api error")
		problem.Write(w)
		return
	}

	h.log.Error().
		Str("request_id", requestID).
		Str("error_type", fmt.Sprintf("%T", err)).
		Err(err).
		Str("path", r.URL.Path).
		Msg("unhandled error")

	problem := models.NewInternalError(requestID, "an unexpected error occurred")
	problem.Instance = r.URL.Path
	problem.Write(w)
}

// NotFound is a chi NotFound handler.
func (h *Handler) NotFound() http.HandlerFunc {
	return h.Wrap(func(_ http.ResponseWriter, _ *http.Request) error {
		return ErrNotFound
	})
}

// MethodNotAllowed is a chi MethodNotAllowed handler.
func (h *Handler) MethodNotAllowed() http.HandlerFunc {
	return h.Wrap(func(_ http.ResponseWriter, r *http.Request) error {
		return MethodNotAllowed(r.Method)
	})
}

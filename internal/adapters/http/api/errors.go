package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/tubesense/internal/adapters/repository"
	service "github.com/okian/tubesense/internal/app"
	"github.com/okian/tubesense/internal/domain/cutoff"
	"github.com/okian/tubesense/internal/domain/pipeline"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest  = errors.New("bad request")
	ErrRateLimited = errors.New("rate limited")
)

// Error carries the failing operation and the error kind callers match on.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Kind != nil:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *Error) Unwrap() []error {
	var out []error
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewKind returns an error of kind for op.
func NewKind(op string, kind error) error { return &Error{Op: op, Kind: kind} }

// WrapKind wraps err as kind for op.
func WrapKind(op string, kind, err error) error { return &Error{Op: op, Kind: kind, Err: err} }

// Wrap wraps err for op.
func Wrap(op string, err error) error { return &Error{Op: op, Err: err} }

// statusFor maps an error to an HTTP status and an error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, pipeline.ErrInvalidRequest),
		errors.Is(err, cutoff.ErrInvalidCutoff),
		errors.Is(err, repository.ErrInvalidChannel):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, pipeline.ErrChannelNotFound):
		return http.StatusNotFound, "channel_not_found"
	case errors.Is(err, service.ErrRunNotFound):
		return http.StatusNotFound, "run_not_found"
	case errors.Is(err, service.ErrNoSummary):
		return http.StatusNotFound, "summary_not_found"
	case errors.Is(err, service.ErrChannelBusy):
		return http.StatusConflict, "channel_busy"
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeErrorFor(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeError(w, status, code, err)
}

package api

import (
	"context"
	"errors"
	"net/http"

	service "github.com/okian/campaignboard/internal/app"
	"github.com/okian/campaignboard/internal/adapters/render"
	"github.com/okian/campaignboard/internal/domain/chart"
	"github.com/okian/campaignboard/internal/domain/dataset"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
	ErrNotFound   = errors.New("not found")
)

// Error is a failure tagged with the handler operation that produced it.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Kind != nil:
		return e.Op + ": " + e.Kind.Error() + ": " + e.Err.Error()
	case e.Err != nil:
		return e.Op + ": " + e.Err.Error()
	case e.Kind != nil:
		return e.Op + ": " + e.Kind.Error()
	}
	return e.Op
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

// NewKind returns an error of kind raised by op.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// Invalid returns a bad request raised by op with cause err.
func Invalid(op string, err error) error {
	return &Error{Op: op, Kind: ErrBadRequest, Err: err}
}

// Wrap tags err with op.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// abandoned reports whether err only says the request context ended.
func abandoned(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// classify maps an error to its HTTP status and response code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrPageNotFound), errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "page_not_found"
	case errors.Is(err, chart.ErrUnknownMetric):
		return http.StatusBadRequest, "unknown_metric"
	case errors.Is(err, ErrBadRequest), errors.Is(err, render.ErrUnknownFormat):
		return http.StatusBadRequest, "bad_request"
	case dataset.IsUnavailable(err):
		return http.StatusServiceUnavailable, "dataset_unavailable"
	case errors.Is(err, dataset.ErrMissingDateColumn),
		errors.Is(err, dataset.ErrEmptySource),
		errors.Is(err, dataset.ErrMalformedSource):
		return http.StatusServiceUnavailable, "dataset_invalid"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "service_unavailable"
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest, "request_canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "timeout"
	}
	return http.StatusInternalServerError, "internal_error"
}

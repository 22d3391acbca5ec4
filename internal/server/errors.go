package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/YuminosukeSato/tabfit/pkg/errors"
	"github.com/YuminosukeSato/tabfit/pkg/log"
)

// errResponse is the body of every failed request.
type errResponse struct {
	HTTPStatus int    `json:"-"`
	Message    string `json:"error"`
	Hint       string `json:"hint,omitempty"`
}

// Render implements render.Renderer.
func (e *errResponse) Render(_ http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatus)
	return nil
}

// statusFor maps an operation error kind to an HTTP status.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	var invalid validator.ValidationErrors
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	switch errors.KindOf(err) {
	case errors.KindParse, errors.KindSchema, errors.KindShape:
		return http.StatusBadRequest
	case errors.KindFit:
		return http.StatusUnprocessableEntity
	case errors.KindState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// renderError writes err as JSON. prefix, when set, is prepended to the
// message shown to the user.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error, prefix string) {
	status := statusFor(err)
	msg := err.Error()
	if prefix != "" {
		msg = prefix + ": " + msg
	}

	if status >= http.StatusInternalServerError {
		slog.Default().ErrorContext(r.Context(), "request failed",
			log.ErrAttr(err),
			slog.String(log.RequestIDKey, middleware.GetReqID(r.Context())),
		)
	} else {
		s.logger.Warn("Request rejected",
			"error", err,
			log.ErrorTypeKey, errors.KindOf(err),
			log.RequestIDKey, middleware.GetReqID(r.Context()),
		)
	}

	_ = render.Render(w, r, &errResponse{
		HTTPStatus: status,
		Message:    msg,
		Hint:       errors.Hints(err),
	})
}

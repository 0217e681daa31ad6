package httputil

import (
	"context"
	"errors"
	"net/http"

	"github.com/bissquit/statuspage/internal/domain"
	"github.com/bissquit/statuspage/internal/pkg/ctxlog"
)

// ErrorMapping defines how a domain error maps to an HTTP response.
type ErrorMapping struct {
	Error   error
	Status  int
	Message string // if empty, uses err.Error()
}

// DomainErrorMappings maps the shared domain error classes.
var DomainErrorMappings = []ErrorMapping{
	{Error: domain.ErrNotFound, Status: http.StatusNotFound},
	{Error: domain.ErrConflict, Status: http.StatusConflict},
}

// HandleError maps a domain error to an HTTP response using provided mappings.
// If no mapping matches, logs the error and returns 500 Internal Server Error.
func HandleError(ctx context.Context, w http.ResponseWriter, err error, mappings []ErrorMapping) {
	for _, m := range mappings {
		if errors.Is(err, m.Error) {
			msg := m.Message
			if msg == "" {
				msg = err.Error()
			}
			Error(w, m.Status, msg)
			return
		}
	}
	ctxlog.FromContext(ctx).Error("internal error", "error", err)
	Error(w, http.StatusInternalServerError, "internal error")
}

// HandleDomainError writes validation errors with field details and maps
// everything else through DomainErrorMappings.
func HandleDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrValidation) {
		ValidationError(w, err)
		return
	}
	HandleError(ctx, w, err, DomainErrorMappings)
}

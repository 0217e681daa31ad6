package statuspage

import (
	"net/http"

	"github.com/bissquit/statuspage/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
)

// Handler handles public status page requests.
type Handler struct {
	service *Service
}

// NewHandler creates a new status page handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the public status route behind limiter.
// No authorization: knowing the slug is enough.
func (h *Handler) RegisterRoutes(r chi.Router, limiter func(http.Handler) http.Handler) {
	r.With(limiter).Get("/public/status/{slug}", h.GetPublicStatus)
}

// GetPublicStatus handles GET /public/status/{slug} request.
func (h *Handler) GetPublicStatus(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.GetPublicStatus(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httputil.HandleDomainError(r.Context(), w, err)
		return
	}

	httputil.Success(w, http.StatusOK, snapshot)
}

package organizations

import (
	"encoding/json"
	"net/http"

	"github.com/bissquit/statuspage/internal/identity"
	"github.com/bissquit/statuspage/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Handler handles HTTP requests for organizations.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new organization handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: httputil.NewValidator(),
	}
}

// RegisterRoutes registers organization routes.
// The identity middleware only guards the current organization lookup.
func (h *Handler) RegisterRoutes(r chi.Router, identityMiddleware func(http.Handler) http.Handler) {
	r.Route("/organizations", func(r chi.Router) {
		r.Post("/", h.CreateOrganization)
		r.Get("/slug-suggestion", h.SuggestSlug)
		r.Get("/slug/{slug}", h.GetOrganizationBySlug)
		r.With(identityMiddleware).Get("/current", h.GetCurrentOrganization)
		r.Get("/{orgID}", h.GetOrganization)
	})
}

// CreateOrganizationRequest represents the request body for creating an organization.
type CreateOrganizationRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=255"`
	Slug        string `json:"slug" validate:"required,min=1,max=63"`
	ExternalRef string `json:"external_ref" validate:"required,min=1,max=255"`
}

// CreateOrganization handles POST /organizations request.
func (h *Handler) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	var req CreateOrganizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	org, err := h.service.Create(r.Context(), CreateInput(req))
	if err != nil {
		httputil.HandleDomainError(r.Context(), w, err)
		return
	}

	httputil.Success(w, http.StatusCreated, org)
}

// GetOrganization handles GET /organizations/{orgID} request.
func (h *Handler) GetOrganization(w http.ResponseWriter, r *http.Request) {
	org, err := h.service.GetByID(r.Context(), chi.URLParam(r, "orgID"))
	if err != nil {
		httputil.HandleDomainError(r.Context(), w, err)
		return
	}

	httputil.Success(w, http.StatusOK, org)
}

// GetOrganizationBySlug handles GET /organizations/slug/{slug} request.
func (h *Handler) GetOrganizationBySlug(w http.ResponseWriter, r *http.Request) {
	org, err := h.service.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httputil.HandleDomainError(r.Context(), w, err)
		return
	}

	httputil.Success(w, http.StatusOK, org)
}

// GetCurrentOrganization handles GET /organizations/current request.
// The external ref comes from the identity provider token.
func (h *Handler) GetCurrentOrganization(w http.ResponseWriter, r *http.Request) {
	ref := identity.ExternalRef(r.Context())
	if ref == "" {
		httputil.Error(w, http.StatusUnauthorized, "missing organization claim")
		return
	}

	org, err := h.service.GetByExternalRef(r.Context(), ref)
	if err != nil {
		httputil.HandleDomainError(r.Context(), w, err)
		return
	}

	httputil.Success(w, http.StatusOK, org)
}

// SuggestSlug handles GET /organizations/slug-suggestion?name= request.
func (h *Handler) SuggestSlug(w http.ResponseWriter, r *http.Request) {
	suggestion, err := h.service.SuggestSlug(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		httputil.HandleDomainError(r.Context(), w, err)
		return
	}

	httputil.Success(w, http.StatusOK, suggestion)
}

// Package catalog provides HTTP handlers and business logic for managing services.
package catalog

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/bissquit/statuspage/internal/domain"
	"github.com/bissquit/statuspage/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Handler handles HTTP requests for the catalog module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new catalog handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: httputil.NewValidator(),
	}
}

// RegisterRoutes registers all HTTP routes for the catalog module.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/organizations/{orgID}/services", h.ListServices)
	r.Post("/organizations/{orgID}/services", h.CreateService)

	r.Route("/services", func(r chi.Router) {
		r.Get("/{serviceID}", h.GetService)
		r.Patch("/{serviceID}", h.UpdateService)
		r.Put("/{serviceID}", h.UpdateService)
		r.Delete("/{serviceID}", h.DeleteService)
	})
}

// CreateServiceRequest represents the request body for creating a service.
type CreateServiceRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=255"`
	Description *string `json:"description"`
	Status      string  `json:"status" validate:"omitempty,oneof=OPERATIONAL DEGRADED PARTIAL_OUTAGE MAJOR_OUTAGE"`
}

// ToInput converts the request to service input.
func (r *CreateServiceRequest) ToInput(orgID string) CreateServiceInput {
	return CreateServiceInput{
		OrgID:       orgID,
		Name:        r.Name,
		Description: r.Description,
		Status:      domain.ServiceStatus(r.Status),
	}
}

// CreateService handles POST /organizations/{orgID}/services request.
func (h *Handler) CreateService(w http.ResponseWriter, r *http.Request) {
	var req CreateServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	service, err := h.service.CreateService(r.Context(), req.ToInput(chi.URLParam(r, "orgID")))
	if err != nil {
		httputil.HandleDomainError(r.Context(), w, err)
		return
	}

	httputil.Success(w, http.StatusCreated, service)
}

// ListServices handles GET /organizations/{orgID}/services request.
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.service.ListServices(r.Context(), chi.URLParam(r, "orgID"))
	if err != nil {
		httputil.HandleDomainError(r.Context(), w, err)
		return
	}

	httputil.Success(w, http.StatusOK, services)
}

// GetService handles GET /services/{serviceID} request.
func (h *Handler) GetService(w http.ResponseWriter, r *http.Request) {
	service, err := h.service.GetService(r.Context(), chi.URLParam(r, "serviceID"))
	if err != nil {
		httputil.HandleDomainError(r.Context(), w, err)
		return
	}

	httputil.Success(w, http.StatusOK, service)
}

// UpdateService handles PATCH and PUT /services/{serviceID} requests.
// Both carry partial semantics: only keys present in the body are applied.
func (h *Handler) UpdateService(w http.ResponseWriter, r *http.Request) {
	var patch domain.ServicePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil && !errors.Is(err, io.EOF) {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	service, err := h.service.UpdateService(r.Context(), chi.URLParam(r, "serviceID"), patch)
	if err != nil {
		httputil.HandleDomainError(r.Context(), w, err)
		return
	}

	httputil.Success(w, http.StatusOK, service)
}

// DeleteService handles DELETE /services/{serviceID} request.
func (h *Handler) DeleteService(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteService(r.Context(), chi.URLParam(r, "serviceID")); err != nil {
		httputil.HandleDomainError(r.Context(), w, err)
		return
	}

	httputil.Success(w, http.StatusOK, map[string]bool{"deleted": true})
}

package incidents

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

// Handler handles HTTP requests for incidents.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new incident handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: httputil.NewValidator(),
	}
}

// RegisterRoutes registers incident routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/organizations/{orgID}/incidents", h.ListIncidents)
	r.Post("/organizations/{orgID}/incidents", h.CreateIncident)

	r.Route("/incidents/{incidentID}", func(r chi.Router) {
		r.Get("/", h.GetIncident)
		r.Patch("/", h.UpdateIncident)
		r.Put("/", h.UpdateIncident)
		r.Get("/updates", h.ListUpdates)
		r.Post("/updates", h.CreateUpdate)
	})
}

// CreateIncidentRequest represents the request body for creating an incident.
type CreateIncidentRequest struct {
	Title       string   `json:"title" validate:"required,min=1,max=255"`
	Description string   `json:"description" validate:"required,min=1"`
	Status      string   `json:"status" validate:"omitempty,oneof=OPEN RESOLVED"`
	ServiceIDs  []string `json:"service_ids" validate:"dive,uuid"`
}

// ToInput converts the request to service input.
func (r *CreateIncidentRequest) ToInput(orgID string) CreateIncidentInput {
	return CreateIncidentInput{
		OrgID:       orgID,
		Title:       r.Title,
		Description: r.Description,
		Status:      domain.IncidentStatus(r.Status),
		ServiceIDs:  r.ServiceIDs,
	}
}

// CreateUpdateRequest represents the request body for posting an incident update.
type CreateUpdateRequest struct {
	Content string `json:"content" validate:"required,min=1"`
}

// CreateIncident handles POST /organizations/{orgID}/incidents request.
func (h *Handler) CreateIncident(w http.ResponseWriter, r *http.Request) {
	var req CreateIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	incident, err := h.service.CreateIncident(r.Context(), req.ToInput(chi.URLParam(r, "orgID")))
	if err != nil {
		httputil.HandleDomainError(r.Context(), w, err)
		return
	}

	httputil.Success(w, http.StatusCreated, incident)
}

// ListIncidents handles GET /organizations/{orgID}/incidents request.
func (h *Handler) ListIncidents(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListIncidents(r.Context(), chi.URLParam(r, "orgID"))
	if err != nil {
		httputil.HandleDomainError(r.Context(), w, err)
		return
	}

	httputil.Success(w, http.StatusOK, list)
}

// GetIncident handles GET /incidents/{incidentID} request.
func (h *Handler) GetIncident(w http.ResponseWriter, r *http.Request) {
	incident, err := h.service.GetIncident(r.Context(), chi.URLParam(r, "incidentID"))
	if err != nil {
		httputil.HandleDomainError(r.Context(), w, err)
		return
	}

	httputil.Success(w, http.StatusOK, incident)
}

// UpdateIncident handles PATCH and PUT /incidents/{incidentID} requests
// with partial semantics.
func (h *Handler) UpdateIncident(w http.ResponseWriter, r *http.Request) {
	var patch domain.IncidentPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil && !errors.Is(err, io.EOF) {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	incident, err := h.service.UpdateIncident(r.Context(), chi.URLParam(r, "incidentID"), patch)
	if err != nil {
		httputil.HandleDomainError(r.Context(), w, err)
		return
	}

	httputil.Success(w, http.StatusOK, incident)
}

// CreateUpdate handles POST /incidents/{incidentID}/updates request.
func (h *Handler) CreateUpdate(w http.ResponseWriter, r *http.Request) {
	var req CreateUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	update, err := h.service.AddUpdate(r.Context(), chi.URLParam(r, "incidentID"), req.Content)
	if err != nil {
		httputil.HandleDomainError(r.Context(), w, err)
		return
	}

	httputil.Success(w, http.StatusCreated, update)
}

// ListUpdates handles GET /incidents/{incidentID}/updates request.
func (h *Handler) ListUpdates(w http.ResponseWriter, r *http.Request) {
	updates, err := h.service.ListUpdates(r.Context(), chi.URLParam(r, "incidentID"))
	if err != nil {
		httputil.HandleDomainError(r.Context(), w, err)
		return
	}

	httputil.Success(w, http.StatusOK, updates)
}

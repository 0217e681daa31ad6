// Package incidents provides business logic and HTTP handlers for incidents
// and their narrative updates.
package incidents

import (
	"context"
	"fmt"
	"strings"

	"github.com/bissquit/statuspage/internal/domain"
	"github.com/bissquit/statuspage/internal/pkg/ctxlog"
	"github.com/bissquit/statuspage/internal/pkg/metrics"
)

const (
	entity       = "incident"
	updateEntity = "incident_update"
)

// Service implements incident business logic.
type Service struct {
	repo Repository
}

// NewService creates a new incident service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateIncidentInput holds data for creating an incident.
type CreateIncidentInput struct {
	OrgID       string
	Title       string
	Description string
	Status      domain.IncidentStatus
	ServiceIDs  []string
}

// Validate checks required fields and reference formats.
func (in CreateIncidentInput) Validate() error {
	if err := domain.ValidateReference("org_id", in.OrgID); err != nil {
		return err
	}
	if err := domain.ValidateText("title", in.Title, domain.MaxNameLength); err != nil {
		return err
	}
	if err := domain.ValidateText("description", in.Description, 0); err != nil {
		return err
	}
	if in.Status != "" && !in.Status.IsValid() {
		return domain.NewValidationError("status", fmt.Sprintf("unknown status %q", in.Status))
	}
	return domain.ValidateReferences("service_ids", in.ServiceIDs)
}

// CreateIncident creates an incident. Service ids are checked for format only.
func (s *Service) CreateIncident(ctx context.Context, input CreateIncidentInput) (incident *domain.Incident, err error) {
	defer func() { metrics.RecordOperation(entity, "create", err) }()

	if err := input.Validate(); err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = domain.IncidentStatusOpen
	}

	incident = &domain.Incident{
		Title:       input.Title,
		Description: input.Description,
		Status:      status,
		OrgID:       input.OrgID,
		ServiceIDs:  domain.NormalizeReferences(input.ServiceIDs),
	}
	if err := s.repo.CreateIncident(ctx, incident); err != nil {
		return nil, fmt.Errorf("create incident: %w", err)
	}
	incident.Updates = make([]domain.IncidentUpdate, 0)

	ctxlog.FromContext(ctx).Info("incident created",
		"incident_id", incident.ID,
		"org_id", incident.OrgID,
		"status", incident.Status,
		"services", len(incident.ServiceIDs),
	)
	return incident, nil
}

// ListIncidents returns the incidents of an organization, newest first,
// each with its updates attached.
func (s *Service) ListIncidents(ctx context.Context, orgID string) ([]domain.Incident, error) {
	list, err := s.repo.ListIncidentsByOrg(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	if len(list) == 0 {
		return list, nil
	}

	ids := make([]string, 0, len(list))
	for _, inc := range list {
		ids = append(ids, inc.ID)
	}

	updates, err := s.repo.ListIncidentUpdates(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list incident updates: %w", err)
	}

	for i := range list {
		list[i].Updates = nonNil(updates[list[i].ID])
	}
	return list, nil
}

// GetIncident returns an incident with its updates.
func (s *Service) GetIncident(ctx context.Context, id string) (*domain.Incident, error) {
	incident, err := s.repo.GetIncidentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.attachUpdates(ctx, incident); err != nil {
		return nil, err
	}
	return incident, nil
}

// UpdateIncident applies a partial update. Any subset of title, description,
// status and service ids may be supplied. Status moves are unrestricted.
func (s *Service) UpdateIncident(ctx context.Context, id string, patch domain.IncidentPatch) (incident *domain.Incident, err error) {
	defer func() { metrics.RecordOperation(entity, "update", err) }()

	if err := patch.Validate(); err != nil {
		return nil, err
	}

	if patch.IsEmpty() {
		return s.GetIncident(ctx, id)
	}

	incident, err = s.repo.UpdateIncident(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if err := s.attachUpdates(ctx, incident); err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Info("incident updated",
		"incident_id", incident.ID,
		"status", incident.Status,
	)
	return incident, nil
}

// AddUpdate appends a narrative entry to an existing incident.
func (s *Service) AddUpdate(ctx context.Context, incidentID, content string) (update *domain.IncidentUpdate, err error) {
	defer func() { metrics.RecordOperation(updateEntity, "create", err) }()

	if strings.TrimSpace(content) == "" {
		return nil, domain.NewValidationError("content", "is required")
	}

	if _, err := s.repo.GetIncidentByID(ctx, incidentID); err != nil {
		return nil, err
	}

	update = &domain.IncidentUpdate{
		Content:    content,
		IncidentID: incidentID,
	}
	if err := s.repo.CreateIncidentUpdate(ctx, update); err != nil {
		return nil, fmt.Errorf("create incident update: %w", err)
	}

	ctxlog.FromContext(ctx).Info("incident update posted",
		"incident_id", incidentID,
		"update_id", update.ID,
	)
	return update, nil
}

// ListUpdates returns the updates of an incident, newest first.
func (s *Service) ListUpdates(ctx context.Context, incidentID string) ([]domain.IncidentUpdate, error) {
	if _, err := s.repo.GetIncidentByID(ctx, incidentID); err != nil {
		return nil, err
	}

	updates, err := s.repo.ListIncidentUpdates(ctx, []string{incidentID})
	if err != nil {
		return nil, fmt.Errorf("list incident updates: %w", err)
	}
	return nonNil(updates[incidentID]), nil
}

func (s *Service) attachUpdates(ctx context.Context, incident *domain.Incident) error {
	updates, err := s.repo.ListIncidentUpdates(ctx, []string{incident.ID})
	if err != nil {
		return fmt.Errorf("list incident updates: %w", err)
	}
	incident.Updates = nonNil(updates[incident.ID])
	return nil
}

func nonNil(updates []domain.IncidentUpdate) []domain.IncidentUpdate {
	if updates == nil {
		return make([]domain.IncidentUpdate, 0)
	}
	return updates
}

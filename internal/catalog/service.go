package catalog

import (
	"context"
	"fmt"

	"github.com/bissquit/statuspage/internal/domain"
	"github.com/bissquit/statuspage/internal/pkg/ctxlog"
	"github.com/bissquit/statuspage/internal/pkg/metrics"
)

const entity = "service"

// Service implements business logic for monitored services.
type Service struct {
	repo Repository
}

// NewService creates a new catalog service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateServiceInput holds data for creating a service.
type CreateServiceInput struct {
	OrgID       string
	Name        string
	Description *string
	Status      domain.ServiceStatus
}

// CreateService creates a service under an organization. The organization
// reference is checked for format only.
func (s *Service) CreateService(ctx context.Context, input CreateServiceInput) (svc *domain.Service, err error) {
	defer func() { metrics.RecordOperation(entity, "create", err) }()

	if err := domain.ValidateReference("org_id", input.OrgID); err != nil {
		return nil, err
	}
	if err := domain.ValidateText("name", input.Name, domain.MaxNameLength); err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = domain.ServiceStatusOperational
	}
	if !status.IsValid() {
		return nil, domain.NewValidationError("status", fmt.Sprintf("unknown status %q", status))
	}

	svc = &domain.Service{
		Name:        input.Name,
		Description: input.Description,
		Status:      status,
		OrgID:       input.OrgID,
	}
	if err := s.repo.CreateService(ctx, svc); err != nil {
		return nil, fmt.Errorf("create service: %w", err)
	}

	ctxlog.FromContext(ctx).Info("service created",
		"service_id", svc.ID,
		"org_id", svc.OrgID,
		"status", svc.Status,
	)
	return svc, nil
}

// ListServices returns the services of an organization in creation order.
func (s *Service) ListServices(ctx context.Context, orgID string) ([]domain.Service, error) {
	services, err := s.repo.ListServicesByOrg(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return services, nil
}

// GetService returns a service by id.
func (s *Service) GetService(ctx context.Context, id string) (*domain.Service, error) {
	return s.repo.GetServiceByID(ctx, id)
}

// UpdateService applies a partial update. Omitted fields are left untouched
// and an empty patch returns the stored service unchanged.
func (s *Service) UpdateService(ctx context.Context, id string, patch domain.ServicePatch) (svc *domain.Service, err error) {
	defer func() { metrics.RecordOperation(entity, "update", err) }()

	if err := patch.Validate(); err != nil {
		return nil, err
	}

	if patch.IsEmpty() {
		return s.repo.GetServiceByID(ctx, id)
	}

	svc, err = s.repo.UpdateService(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Info("service updated",
		"service_id", svc.ID,
		"status", svc.Status,
	)
	return svc, nil
}

// DeleteService hard-deletes a service. Incidents referencing it keep the
// dangling id.
func (s *Service) DeleteService(ctx context.Context, id string) (err error) {
	defer func() { metrics.RecordOperation(entity, "delete", err) }()

	if err := s.repo.DeleteService(ctx, id); err != nil {
		return err
	}

	ctxlog.FromContext(ctx).Info("service deleted", "service_id", id)
	return nil
}

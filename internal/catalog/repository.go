package catalog

import (
	"context"

	"github.com/bissquit/statuspage/internal/domain"
)

// Repository defines the interface for service storage.
type Repository interface {
	// CreateService assigns an id when empty and sets CreatedAt.
	CreateService(ctx context.Context, service *domain.Service) error
	GetServiceByID(ctx context.Context, id string) (*domain.Service, error)
	// ListServicesByOrg returns services in insertion order.
	ListServicesByOrg(ctx context.Context, orgID string) ([]domain.Service, error)
	// UpdateService merges patch into the stored service atomically and
	// returns the result. UpdatedAt is bumped.
	UpdateService(ctx context.Context, id string, patch domain.ServicePatch) (*domain.Service, error)
	DeleteService(ctx context.Context, id string) error
}

package organizations

import (
	"context"

	"github.com/bissquit/statuspage/internal/domain"
)

// Repository defines the interface for organization storage.
// Lookups return ErrOrganizationNotFound when nothing matches.
type Repository interface {
	CreateOrganization(ctx context.Context, org *domain.Organization) error
	GetOrganizationByID(ctx context.Context, id string) (*domain.Organization, error)
	GetOrganizationBySlug(ctx context.Context, slug string) (*domain.Organization, error)
	GetOrganizationByExternalRef(ctx context.Context, ref string) (*domain.Organization, error)
}

// Package organizations provides business logic and HTTP handlers for tenants.
package organizations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/bissquit/statuspage/internal/domain"
	"github.com/bissquit/statuspage/internal/pkg/ctxlog"
	"github.com/bissquit/statuspage/internal/pkg/metrics"
)

const entity = "organization"

// Service implements organization business logic.
type Service struct {
	repo Repository
}

// NewService creates a new organization service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput holds data for provisioning an organization.
type CreateInput struct {
	Name        string
	Slug        string
	ExternalRef string
}

// Validate checks required fields and the slug format.
func (in CreateInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return domain.NewValidationError("name", "is required")
	}
	if in.Slug == "" {
		return domain.NewValidationError("slug", "is required")
	}
	if !IsValidSlug(in.Slug) {
		return domain.NewValidationError("slug", "must contain only lowercase letters, digits and single dashes")
	}
	if in.ExternalRef == "" {
		return domain.NewValidationError("external_ref", "is required")
	}
	if strings.ContainsFunc(in.ExternalRef, unicode.IsSpace) {
		return domain.NewValidationError("external_ref", "must not contain whitespace")
	}
	return nil
}

// Create provisions an organization. Slug and external ref must be unused.
func (s *Service) Create(ctx context.Context, input CreateInput) (org *domain.Organization, err error) {
	defer func() { metrics.RecordOperation(entity, "create", err) }()

	if err := input.Validate(); err != nil {
		return nil, err
	}

	if err := s.ensureUnused(ctx, input); err != nil {
		return nil, err
	}

	org = &domain.Organization{
		Name:        input.Name,
		Slug:        input.Slug,
		ExternalRef: input.ExternalRef,
	}
	if err := s.repo.CreateOrganization(ctx, org); err != nil {
		return nil, fmt.Errorf("create organization: %w", err)
	}

	ctxlog.FromContext(ctx).Info("organization created",
		"organization_id", org.ID,
		"slug", org.Slug,
	)
	return org, nil
}

func (s *Service) ensureUnused(ctx context.Context, input CreateInput) error {
	_, err := s.repo.GetOrganizationBySlug(ctx, input.Slug)
	switch {
	case err == nil:
		return ErrSlugExists
	case !errors.Is(err, ErrOrganizationNotFound):
		return fmt.Errorf("check slug: %w", err)
	}

	_, err = s.repo.GetOrganizationByExternalRef(ctx, input.ExternalRef)
	switch {
	case err == nil:
		return ErrExternalRefExists
	case !errors.Is(err, ErrOrganizationNotFound):
		return fmt.Errorf("check external ref: %w", err)
	}
	return nil
}

// GetByID returns an organization by id.
func (s *Service) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	return s.repo.GetOrganizationByID(ctx, id)
}

// GetBySlug returns an organization by its public slug.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*domain.Organization, error) {
	return s.repo.GetOrganizationBySlug(ctx, slug)
}

// GetByExternalRef returns the organization linked to an identity provider organization.
func (s *Service) GetByExternalRef(ctx context.Context, ref string) (*domain.Organization, error) {
	return s.repo.GetOrganizationByExternalRef(ctx, ref)
}

// SlugSuggestion is a slug derived from a display name.
type SlugSuggestion struct {
	Slug      string `json:"slug"`
	Available bool   `json:"available"`
}

// SuggestSlug derives a slug from name and reports whether it is free.
func (s *Service) SuggestSlug(ctx context.Context, name string) (*SlugSuggestion, error) {
	slug := Slugify(name)
	if slug == "" {
		return nil, domain.NewValidationError("name", "must contain at least one letter or digit")
	}

	_, err := s.repo.GetOrganizationBySlug(ctx, slug)
	switch {
	case err == nil:
		return &SlugSuggestion{Slug: slug, Available: false}, nil
	case errors.Is(err, ErrOrganizationNotFound):
		return &SlugSuggestion{Slug: slug, Available: true}, nil
	default:
		return nil, fmt.Errorf("check slug: %w", err)
	}
}

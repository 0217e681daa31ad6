// Package postgres provides PostgreSQL implementation of the organization repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/bissquit/statuspage/internal/domain"
	"github.com/bissquit/statuspage/internal/organizations"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	uniqueViolation = "23505"

	slugConstraint        = "organizations_slug_key"
	externalRefConstraint = "organizations_external_ref_key"
)

// Repository implements the organizations.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateOrganization inserts an organization. Unique index violations that
// slip past the service pre-check are reported as conflicts.
func (r *Repository) CreateOrganization(ctx context.Context, org *domain.Organization) error {
	if org.ID == "" {
		org.ID = domain.NewID()
	}

	query := `
		INSERT INTO organizations (id, name, slug, external_ref)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		org.ID,
		org.Name,
		org.Slug,
		org.ExternalRef,
	).Scan(&org.CreatedAt, &org.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			switch pgErr.ConstraintName {
			case slugConstraint:
				return organizations.ErrSlugExists
			case externalRefConstraint:
				return organizations.ErrExternalRefExists
			}
		}
		return fmt.Errorf("create organization: %w", err)
	}
	return nil
}

// GetOrganizationByID retrieves an organization by its ID.
func (r *Repository) GetOrganizationByID(ctx context.Context, id string) (*domain.Organization, error) {
	return r.getBy(ctx, "id", id)
}

// GetOrganizationBySlug retrieves an organization by its slug.
func (r *Repository) GetOrganizationBySlug(ctx context.Context, slug string) (*domain.Organization, error) {
	return r.getBy(ctx, "slug", slug)
}

// GetOrganizationByExternalRef retrieves an organization by its identity provider reference.
func (r *Repository) GetOrganizationByExternalRef(ctx context.Context, ref string) (*domain.Organization, error) {
	return r.getBy(ctx, "external_ref", ref)
}

// getBy looks up a single organization. column is always a constant from this file.
func (r *Repository) getBy(ctx context.Context, column, value string) (*domain.Organization, error) {
	query := fmt.Sprintf(`
		SELECT id, name, slug, external_ref, created_at, updated_at
		FROM organizations
		WHERE %s = $1
	`, column)

	var org domain.Organization
	err := r.db.QueryRow(ctx, query, value).Scan(
		&org.ID,
		&org.Name,
		&org.Slug,
		&org.ExternalRef,
		&org.CreatedAt,
		&org.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, organizations.ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("get organization by %s: %w", column, err)
	}
	return &org, nil
}

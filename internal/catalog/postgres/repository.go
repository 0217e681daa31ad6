// Package postgres provides PostgreSQL implementation of the catalog repository.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bissquit/statuspage/internal/catalog"
	"github.com/bissquit/statuspage/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const serviceColumns = `id, name, description, status, org_id, created_at, updated_at`

// Repository implements the catalog.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateService creates a new service in the database.
func (r *Repository) CreateService(ctx context.Context, service *domain.Service) error {
	if service.ID == "" {
		service.ID = domain.NewID()
	}

	query := `
		INSERT INTO services (id, name, description, status, org_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		service.ID,
		service.Name,
		service.Description,
		service.Status,
		service.OrgID,
	).Scan(&service.CreatedAt, &service.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}
	return nil
}

// GetServiceByID retrieves a service by its ID.
func (r *Repository) GetServiceByID(ctx context.Context, id string) (*domain.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE id = $1`

	service, err := scanService(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrServiceNotFound
		}
		return nil, fmt.Errorf("get service by id: %w", err)
	}
	return service, nil
}

// ListServicesByOrg retrieves the services of an organization in insertion order.
func (r *Repository) ListServicesByOrg(ctx context.Context, orgID string) ([]domain.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE org_id = $1 ORDER BY seq`

	rows, err := r.db.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	services := make([]domain.Service, 0)
	for rows.Next() {
		service, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		services = append(services, *service)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate services: %w", err)
	}

	return services, nil
}

// UpdateService merges patch into the stored row. The row is locked for the
// duration of the read-modify-write so concurrent updates cannot be lost.
func (r *Repository) UpdateService(ctx context.Context, id string, patch domain.ServicePatch) (*domain.Service, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			slog.Error("failed to rollback transaction", "error", err)
		}
	}()

	query := `SELECT ` + serviceColumns + ` FROM services WHERE id = $1 FOR UPDATE`
	service, err := scanService(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrServiceNotFound
		}
		return nil, fmt.Errorf("lock service: %w", err)
	}

	patch.Apply(service)

	update := `
		UPDATE services
		SET name = $2, description = $3, status = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err = tx.QueryRow(ctx, update,
		service.ID,
		service.Name,
		service.Description,
		service.Status,
	).Scan(&service.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update service: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return service, nil
}

// DeleteService deletes a service by its ID. Incidents are not touched.
func (r *Repository) DeleteService(ctx context.Context, id string) error {
	query := `DELETE FROM services WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete service: %w", err)
	}

	if result.RowsAffected() == 0 {
		return catalog.ErrServiceNotFound
	}
	return nil
}

func scanService(row pgx.Row) (*domain.Service, error) {
	var service domain.Service
	err := row.Scan(
		&service.ID,
		&service.Name,
		&service.Description,
		&service.Status,
		&service.OrgID,
		&service.CreatedAt,
		&service.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &service, nil
}

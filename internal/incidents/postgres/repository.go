// Package postgres provides PostgreSQL implementation of the incident repository.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bissquit/statuspage/internal/domain"
	"github.com/bissquit/statuspage/internal/incidents"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const foreignKeyViolation = "23503"

const incidentColumns = `id, title, description, status, org_id, service_ids, created_at, updated_at`

// Repository implements the incidents.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateIncident creates a new incident in the database.
func (r *Repository) CreateIncident(ctx context.Context, incident *domain.Incident) error {
	if incident.ID == "" {
		incident.ID = domain.NewID()
	}
	if incident.ServiceIDs == nil {
		incident.ServiceIDs = make([]string, 0)
	}

	query := `
		INSERT INTO incidents (id, title, description, status, org_id, service_ids)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		incident.ID,
		incident.Title,
		incident.Description,
		incident.Status,
		incident.OrgID,
		incident.ServiceIDs,
	).Scan(&incident.CreatedAt, &incident.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create incident: %w", err)
	}
	return nil
}

// GetIncidentByID retrieves an incident by its ID.
func (r *Repository) GetIncidentByID(ctx context.Context, id string) (*domain.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id = $1`

	incident, err := scanIncident(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, incidents.ErrIncidentNotFound
		}
		return nil, fmt.Errorf("get incident by id: %w", err)
	}
	return incident, nil
}

// ListIncidentsByOrg retrieves the incidents of an organization, newest first.
func (r *Repository) ListIncidentsByOrg(ctx context.Context, orgID string) ([]domain.Incident, error) {
	query := `
		SELECT ` + incidentColumns + `
		FROM incidents
		WHERE org_id = $1
		ORDER BY created_at DESC, seq DESC
	`

	rows, err := r.db.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	defer rows.Close()

	list := make([]domain.Incident, 0)
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		list = append(list, *incident)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate incidents: %w", err)
	}

	return list, nil
}

// UpdateIncident merges patch into the stored row under a row lock.
func (r *Repository) UpdateIncident(ctx context.Context, id string, patch domain.IncidentPatch) (*domain.Incident, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			slog.Error("failed to rollback transaction", "error", err)
		}
	}()

	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id = $1 FOR UPDATE`
	incident, err := scanIncident(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, incidents.ErrIncidentNotFound
		}
		return nil, fmt.Errorf("lock incident: %w", err)
	}

	patch.Apply(incident)

	update := `
		UPDATE incidents
		SET title = $2, description = $3, status = $4, service_ids = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err = tx.QueryRow(ctx, update,
		incident.ID,
		incident.Title,
		incident.Description,
		incident.Status,
		incident.ServiceIDs,
	).Scan(&incident.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update incident: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return incident, nil
}

// CreateIncidentUpdate appends a narrative entry to an incident.
func (r *Repository) CreateIncidentUpdate(ctx context.Context, update *domain.IncidentUpdate) error {
	if update.ID == "" {
		update.ID = domain.NewID()
	}

	query := `
		INSERT INTO incident_updates (id, incident_id, content)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`
	err := r.db.QueryRow(ctx, query,
		update.ID,
		update.IncidentID,
		update.Content,
	).Scan(&update.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return incidents.ErrIncidentNotFound
		}
		return fmt.Errorf("create incident update: %w", err)
	}
	return nil
}

// ListIncidentUpdates retrieves updates for the given incidents, newest first.
func (r *Repository) ListIncidentUpdates(ctx context.Context, incidentIDs []string) (map[string][]domain.IncidentUpdate, error) {
	query := `
		SELECT id, incident_id, content, created_at
		FROM incident_updates
		WHERE incident_id = ANY($1)
		ORDER BY created_at DESC, seq DESC
	`

	rows, err := r.db.Query(ctx, query, incidentIDs)
	if err != nil {
		return nil, fmt.Errorf("list incident updates: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]domain.IncidentUpdate, len(incidentIDs))
	for rows.Next() {
		var u domain.IncidentUpdate
		if err := rows.Scan(&u.ID, &u.IncidentID, &u.Content, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan incident update: %w", err)
		}
		result[u.IncidentID] = append(result[u.IncidentID], u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate incident updates: %w", err)
	}

	return result, nil
}

func scanIncident(row pgx.Row) (*domain.Incident, error) {
	var incident domain.Incident
	err := row.Scan(
		&incident.ID,
		&incident.Title,
		&incident.Description,
		&incident.Status,
		&incident.OrgID,
		&incident.ServiceIDs,
		&incident.CreatedAt,
		&incident.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if incident.ServiceIDs == nil {
		incident.ServiceIDs = make([]string, 0)
	}
	return &incident, nil
}

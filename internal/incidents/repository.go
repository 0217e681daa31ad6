package incidents

import (
	"context"

	"github.com/bissquit/statuspage/internal/domain"
)

// Repository defines the interface for incident storage.
// Incidents returned by the repository never carry updates; the service
// attaches them.
type Repository interface {
	// CreateIncident assigns an id when empty and sets CreatedAt.
	CreateIncident(ctx context.Context, incident *domain.Incident) error
	GetIncidentByID(ctx context.Context, id string) (*domain.Incident, error)
	// ListIncidentsByOrg returns incidents newest first.
	ListIncidentsByOrg(ctx context.Context, orgID string) ([]domain.Incident, error)
	// UpdateIncident merges patch into the stored incident atomically.
	UpdateIncident(ctx context.Context, id string, patch domain.IncidentPatch) (*domain.Incident, error)

	CreateIncidentUpdate(ctx context.Context, update *domain.IncidentUpdate) error
	// ListIncidentUpdates returns updates grouped by incident id, newest first.
	ListIncidentUpdates(ctx context.Context, incidentIDs []string) (map[string][]domain.IncidentUpdate, error)
}

package domain

import (
	"time"

	"github.com/bissquit/statuspage/internal/pkg/optional"
)

// IncidentStatus represents the state of an incident.
type IncidentStatus string

// Incident statuses. RESOLVED may be reopened.
const (
	IncidentStatusOpen     IncidentStatus = "OPEN"
	IncidentStatusResolved IncidentStatus = "RESOLVED"
)

// IsValid checks if the incident status is valid.
func (s IncidentStatus) IsValid() bool {
	return s == IncidentStatusOpen || s == IncidentStatusResolved
}

// Incident is a disclosed event affecting zero or more services.
// ServiceIDs are soft references and may point to deleted services.
type Incident struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Status      IncidentStatus   `json:"status"`
	OrgID       string           `json:"org_id"`
	ServiceIDs  []string         `json:"service_ids"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   *time.Time       `json:"updated_at"`
	Updates     []IncidentUpdate `json:"updates"`
}

// IncidentUpdate is an append-only narrative entry attached to an incident.
type IncidentUpdate struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	IncidentID string    `json:"incident_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// IncidentPatch holds the fields of a partial incident update.
type IncidentPatch struct {
	Title       optional.Field[string]         `json:"title"`
	Description optional.Field[string]         `json:"description"`
	Status      optional.Field[IncidentStatus] `json:"status"`
	ServiceIDs  optional.Field[[]string]       `json:"service_ids"`
}

// IsEmpty reports whether the patch supplies no field at all.
func (p IncidentPatch) IsEmpty() bool {
	return !p.Title.IsSet() && !p.Description.IsSet() && !p.Status.IsSet() && !p.ServiceIDs.IsSet()
}

// Validate checks the supplied fields. A null service set clears it.
func (p IncidentPatch) Validate() error {
	if p.Title.IsSet() {
		if p.Title.IsNull() {
			return NewValidationError("title", "must not be null")
		}
		if err := ValidateText("title", p.Title.Value(), MaxNameLength); err != nil {
			return err
		}
	}
	if p.Description.IsSet() {
		if p.Description.IsNull() {
			return NewValidationError("description", "must not be null")
		}
		if err := ValidateText("description", p.Description.Value(), 0); err != nil {
			return err
		}
	}
	if p.Status.IsSet() {
		if status, ok := p.Status.Get(); !ok || !status.IsValid() {
			return NewValidationError("status", "must be one of OPEN, RESOLVED")
		}
	}
	if ids, ok := p.ServiceIDs.Get(); ok {
		if err := ValidateReferences("service_ids", ids); err != nil {
			return err
		}
	}
	return nil
}

// Apply merges the supplied fields into i.
func (p IncidentPatch) Apply(i *Incident) {
	if title, ok := p.Title.Get(); ok {
		i.Title = title
	}
	if desc, ok := p.Description.Get(); ok {
		i.Description = desc
	}
	if status, ok := p.Status.Get(); ok {
		i.Status = status
	}
	if p.ServiceIDs.IsSet() {
		i.ServiceIDs = NormalizeReferences(p.ServiceIDs.Value())
	}
}

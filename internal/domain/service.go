package domain

import (
	"time"

	"github.com/bissquit/statuspage/internal/pkg/optional"
)

// ServiceStatus represents the operational status of a service.
type ServiceStatus string

// Service statuses. Any status may move to any other one.
const (
	ServiceStatusOperational   ServiceStatus = "OPERATIONAL"
	ServiceStatusDegraded      ServiceStatus = "DEGRADED"
	ServiceStatusPartialOutage ServiceStatus = "PARTIAL_OUTAGE"
	ServiceStatusMajorOutage   ServiceStatus = "MAJOR_OUTAGE"
)

// ServiceStatuses lists all statuses from healthiest to worst.
var ServiceStatuses = []ServiceStatus{
	ServiceStatusOperational,
	ServiceStatusDegraded,
	ServiceStatusPartialOutage,
	ServiceStatusMajorOutage,
}

// IsValid checks if the service status is valid.
func (s ServiceStatus) IsValid() bool {
	switch s {
	case ServiceStatusOperational, ServiceStatusDegraded,
		ServiceStatusPartialOutage, ServiceStatusMajorOutage:
		return true
	}
	return false
}

// Severity returns the position of the status in ServiceStatuses,
// or -1 for unknown values.
func (s ServiceStatus) Severity() int {
	for i, st := range ServiceStatuses {
		if st == s {
			return i
		}
	}
	return -1
}

// Service represents a user-facing component whose health is tracked.
// OrgID is a soft reference: the organization may no longer exist.
type Service struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description *string       `json:"description"`
	Status      ServiceStatus `json:"status"`
	OrgID       string        `json:"org_id"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   *time.Time    `json:"updated_at"`
}

// ServicePatch holds the fields of a partial service update.
// Absent fields are left untouched.
type ServicePatch struct {
	Name        optional.Field[string]        `json:"name"`
	Description optional.Field[string]        `json:"description"`
	Status      optional.Field[ServiceStatus] `json:"status"`
}

// IsEmpty reports whether the patch supplies no field at all.
func (p ServicePatch) IsEmpty() bool {
	return !p.Name.IsSet() && !p.Description.IsSet() && !p.Status.IsSet()
}

// Validate checks the supplied fields. Description is the only nullable one.
func (p ServicePatch) Validate() error {
	if p.Name.IsSet() {
		if p.Name.IsNull() {
			return NewValidationError("name", "must not be null")
		}
		if err := ValidateText("name", p.Name.Value(), MaxNameLength); err != nil {
			return err
		}
	}
	if p.Status.IsSet() {
		if status, ok := p.Status.Get(); !ok || !status.IsValid() {
			return NewValidationError("status", "must be one of OPERATIONAL, DEGRADED, PARTIAL_OUTAGE, MAJOR_OUTAGE")
		}
	}
	return nil
}

// Apply merges the supplied fields into s.
func (p ServicePatch) Apply(s *Service) {
	if name, ok := p.Name.Get(); ok {
		s.Name = name
	}
	if p.Description.IsSet() {
		s.Description = p.Description.Ptr()
	}
	if status, ok := p.Status.Get(); ok {
		s.Status = status
	}
}

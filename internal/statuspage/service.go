// Package statuspage assembles the public status snapshot of an organization.
package statuspage

import (
	"context"
	"fmt"
	"strings"

	"github.com/bissquit/statuspage/internal/domain"
	"github.com/bissquit/statuspage/internal/pkg/ctxlog"
	"github.com/bissquit/statuspage/internal/pkg/metrics"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	LabelOperational = "All Systems Operational"
	LabelAffected    = "Some Systems Affected"
)

// OrganizationReader resolves an organization by its public slug.
type OrganizationReader interface {
	GetBySlug(ctx context.Context, slug string) (*domain.Organization, error)
}

// ServiceReader lists the services of an organization.
type ServiceReader interface {
	ListServices(ctx context.Context, orgID string) ([]domain.Service, error)
}

// IncidentReader lists the incidents of an organization, newest first.
type IncidentReader interface {
	ListIncidents(ctx context.Context, orgID string) ([]domain.Incident, error)
}

// Summary is a computed digest of a snapshot.
type Summary struct {
	OverallStatus domain.ServiceStatus            `json:"overall_status"`
	Label         string                          `json:"label"`
	OpenIncidents int                             `json:"open_incidents"`
	StatusLabels  map[domain.ServiceStatus]string `json:"status_labels"`
}

// Snapshot is everything the public page shows for one organization.
type Snapshot struct {
	Organization *domain.Organization `json:"organization"`
	Services     []domain.Service     `json:"services"`
	Incidents    []domain.Incident    `json:"incidents"`
	Summary      Summary              `json:"summary"`
}

// Service builds public snapshots.
type Service struct {
	orgs      OrganizationReader
	services  ServiceReader
	incidents IncidentReader
}

// NewService creates a new status page service.
func NewService(orgs OrganizationReader, services ServiceReader, incidents IncidentReader) *Service {
	return &Service{
		orgs:      orgs,
		services:  services,
		incidents: incidents,
	}
}

// GetPublicStatus returns the snapshot for the organization with the given
// slug. Services and incidents are returned as stored; incidents may
// reference services that no longer exist.
func (s *Service) GetPublicStatus(ctx context.Context, slug string) (snapshot *Snapshot, err error) {
	defer func() { metrics.RecordOperation("status_page", "get", err) }()

	org, err := s.orgs.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	services, err := s.services.ListServices(ctx, org.ID)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}

	incidents, err := s.incidents.ListIncidents(ctx, org.ID)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}

	snapshot = &Snapshot{
		Organization: org,
		Services:     services,
		Incidents:    incidents,
		Summary:      Summarize(services, incidents),
	}

	ctxlog.FromContext(ctx).Debug("public status served",
		"org_id", org.ID,
		"services", len(services),
		"incidents", len(incidents),
		"overall_status", snapshot.Summary.OverallStatus,
	)
	return snapshot, nil
}

// Summarize computes the digest of services and incidents.
func Summarize(services []domain.Service, incidents []domain.Incident) Summary {
	summary := Summary{
		OverallStatus: domain.ServiceStatusOperational,
		Label:         LabelOperational,
		StatusLabels:  make(map[domain.ServiceStatus]string),
	}

	for _, svc := range services {
		if svc.Status.Severity() > summary.OverallStatus.Severity() {
			summary.OverallStatus = svc.Status
		}
		if _, ok := summary.StatusLabels[svc.Status]; !ok {
			summary.StatusLabels[svc.Status] = StatusLabel(svc.Status)
		}
	}
	if summary.OverallStatus != domain.ServiceStatusOperational {
		summary.Label = LabelAffected
	}

	for _, inc := range incidents {
		if inc.Status == domain.IncidentStatusOpen {
			summary.OpenIncidents++
		}
	}
	return summary
}

// StatusLabel turns PARTIAL_OUTAGE into "Partial Outage".
func StatusLabel(status domain.ServiceStatus) string {
	words := strings.ReplaceAll(strings.ToLower(string(status)), "_", " ")
	return cases.Title(language.English).String(words)
}

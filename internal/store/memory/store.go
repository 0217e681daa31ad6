// Package memory provides an in-process implementation of every repository.
// It is used by the memory storage driver and by unit tests.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/bissquit/statuspage/internal/catalog"
	"github.com/bissquit/statuspage/internal/domain"
	"github.com/bissquit/statuspage/internal/incidents"
	"github.com/bissquit/statuspage/internal/organizations"
)

type record[T any] struct {
	seq   int64
	value T
}

// Store keeps all entities in maps guarded by a single lock.
// Values are copied on the way in and out so callers never share state.
type Store struct {
	mu  sync.RWMutex
	seq int64
	now func() time.Time

	orgs      map[string]record[domain.Organization]
	services  map[string]record[domain.Service]
	incidents map[string]record[domain.Incident]
	updates   map[string]record[domain.IncidentUpdate]
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for created_at and updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		now:       func() time.Time { return time.Now().UTC() },
		orgs:      make(map[string]record[domain.Organization]),
		services:  make(map[string]record[domain.Service]),
		incidents: make(map[string]record[domain.Incident]),
		updates:   make(map[string]record[domain.IncidentUpdate]),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error {
	return nil
}

// Close is a no-op; the store has nothing to release.
func (s *Store) Close() {}

func (s *Store) nextSeq() int64 {
	s.seq++
	return s.seq
}

// CreateOrganization stores org, rejecting a taken slug or external ref.
func (s *Store) CreateOrganization(_ context.Context, org *domain.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.orgs {
		if rec.value.Slug == org.Slug {
			return organizations.ErrSlugExists
		}
		if rec.value.ExternalRef == org.ExternalRef {
			return organizations.ErrExternalRefExists
		}
	}

	if org.ID == "" {
		org.ID = domain.NewID()
	}
	org.CreatedAt = s.now()
	org.UpdatedAt = nil

	s.orgs[org.ID] = record[domain.Organization]{seq: s.nextSeq(), value: *org}
	return nil
}

// GetOrganizationByID retrieves an organization by its ID.
func (s *Store) GetOrganizationByID(_ context.Context, id string) (*domain.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.orgs[id]
	if !ok {
		return nil, organizations.ErrOrganizationNotFound
	}
	org := rec.value
	return &org, nil
}

// GetOrganizationBySlug retrieves an organization by its slug.
func (s *Store) GetOrganizationBySlug(_ context.Context, slug string) (*domain.Organization, error) {
	return s.findOrganization(func(o domain.Organization) bool { return o.Slug == slug })
}

// GetOrganizationByExternalRef retrieves an organization by its identity provider reference.
func (s *Store) GetOrganizationByExternalRef(_ context.Context, ref string) (*domain.Organization, error) {
	return s.findOrganization(func(o domain.Organization) bool { return o.ExternalRef == ref })
}

func (s *Store) findOrganization(match func(domain.Organization) bool) (*domain.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.orgs {
		if match(rec.value) {
			org := rec.value
			return &org, nil
		}
	}
	return nil, organizations.ErrOrganizationNotFound
}

// CreateService stores a service.
func (s *Store) CreateService(_ context.Context, service *domain.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if service.ID == "" {
		service.ID = domain.NewID()
	}
	service.CreatedAt = s.now()
	service.UpdatedAt = nil

	s.services[service.ID] = record[domain.Service]{seq: s.nextSeq(), value: copyService(*service)}
	return nil
}

// GetServiceByID retrieves a service by its ID.
func (s *Store) GetServiceByID(_ context.Context, id string) (*domain.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.services[id]
	if !ok {
		return nil, catalog.ErrServiceNotFound
	}
	service := copyService(rec.value)
	return &service, nil
}

// ListServicesByOrg returns the services of an organization in insertion order.
func (s *Store) ListServicesByOrg(_ context.Context, orgID string) ([]domain.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]record[domain.Service], 0)
	for _, rec := range s.services {
		if rec.value.OrgID == orgID {
			recs = append(recs, rec)
		}
	}
	slices.SortFunc(recs, func(a, b record[domain.Service]) int {
		return cmp.Compare(a.seq, b.seq)
	})

	list := make([]domain.Service, 0, len(recs))
	for _, rec := range recs {
		list = append(list, copyService(rec.value))
	}
	return list, nil
}

// UpdateService merges patch into the stored service.
func (s *Store) UpdateService(_ context.Context, id string, patch domain.ServicePatch) (*domain.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.services[id]
	if !ok {
		return nil, catalog.ErrServiceNotFound
	}

	service := copyService(rec.value)
	patch.Apply(&service)
	now := s.now()
	service.UpdatedAt = &now

	rec.value = service
	s.services[id] = rec

	result := copyService(service)
	return &result, nil
}

// DeleteService removes a service. Incidents referencing it are untouched.
func (s *Store) DeleteService(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.services[id]; !ok {
		return catalog.ErrServiceNotFound
	}
	delete(s.services, id)
	return nil
}

// CreateIncident stores an incident.
func (s *Store) CreateIncident(_ context.Context, incident *domain.Incident) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if incident.ID == "" {
		incident.ID = domain.NewID()
	}
	if incident.ServiceIDs == nil {
		incident.ServiceIDs = make([]string, 0)
	}
	incident.CreatedAt = s.now()
	incident.UpdatedAt = nil

	s.incidents[incident.ID] = record[domain.Incident]{seq: s.nextSeq(), value: copyIncident(*incident)}
	return nil
}

// GetIncidentByID retrieves an incident by its ID.
func (s *Store) GetIncidentByID(_ context.Context, id string) (*domain.Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.incidents[id]
	if !ok {
		return nil, incidents.ErrIncidentNotFound
	}
	incident := copyIncident(rec.value)
	return &incident, nil
}

// ListIncidentsByOrg returns the incidents of an organization, newest first.
func (s *Store) ListIncidentsByOrg(_ context.Context, orgID string) ([]domain.Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]record[domain.Incident], 0)
	for _, rec := range s.incidents {
		if rec.value.OrgID == orgID {
			recs = append(recs, rec)
		}
	}
	slices.SortFunc(recs, func(a, b record[domain.Incident]) int {
		return newestFirst(a.value.CreatedAt, b.value.CreatedAt, a.seq, b.seq)
	})

	list := make([]domain.Incident, 0, len(recs))
	for _, rec := range recs {
		list = append(list, copyIncident(rec.value))
	}
	return list, nil
}

// UpdateIncident merges patch into the stored incident.
func (s *Store) UpdateIncident(_ context.Context, id string, patch domain.IncidentPatch) (*domain.Incident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.incidents[id]
	if !ok {
		return nil, incidents.ErrIncidentNotFound
	}

	incident := copyIncident(rec.value)
	patch.Apply(&incident)
	now := s.now()
	incident.UpdatedAt = &now

	rec.value = incident
	s.incidents[id] = rec

	result := copyIncident(incident)
	return &result, nil
}

// CreateIncidentUpdate stores a narrative entry.
func (s *Store) CreateIncidentUpdate(_ context.Context, update *domain.IncidentUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.incidents[update.IncidentID]; !ok {
		return incidents.ErrIncidentNotFound
	}
	if update.ID == "" {
		update.ID = domain.NewID()
	}
	update.CreatedAt = s.now()

	s.updates[update.ID] = record[domain.IncidentUpdate]{seq: s.nextSeq(), value: *update}
	return nil
}

// ListIncidentUpdates returns the updates of the given incidents grouped by
// incident id, newest first.
func (s *Store) ListIncidentUpdates(_ context.Context, incidentIDs []string) (map[string][]domain.IncidentUpdate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]struct{}, len(incidentIDs))
	for _, id := range incidentIDs {
		wanted[id] = struct{}{}
	}

	recs := make([]record[domain.IncidentUpdate], 0)
	for _, rec := range s.updates {
		if _, ok := wanted[rec.value.IncidentID]; ok {
			recs = append(recs, rec)
		}
	}
	slices.SortFunc(recs, func(a, b record[domain.IncidentUpdate]) int {
		return newestFirst(a.value.CreatedAt, b.value.CreatedAt, a.seq, b.seq)
	})

	result := make(map[string][]domain.IncidentUpdate, len(incidentIDs))
	for _, rec := range recs {
		result[rec.value.IncidentID] = append(result[rec.value.IncidentID], rec.value)
	}
	return result, nil
}

func newestFirst(aTime, bTime time.Time, aSeq, bSeq int64) int {
	if c := bTime.Compare(aTime); c != 0 {
		return c
	}
	return cmp.Compare(bSeq, aSeq)
}

func copyService(s domain.Service) domain.Service {
	if s.Description != nil {
		desc := *s.Description
		s.Description = &desc
	}
	if s.UpdatedAt != nil {
		t := *s.UpdatedAt
		s.UpdatedAt = &t
	}
	return s
}

func copyIncident(i domain.Incident) domain.Incident {
	i.ServiceIDs = slices.Clone(i.ServiceIDs)
	if i.ServiceIDs == nil {
		i.ServiceIDs = make([]string, 0)
	}
	if i.UpdatedAt != nil {
		t := *i.UpdatedAt
		i.UpdatedAt = &t
	}
	i.Updates = nil
	return i
}

var (
	_ organizations.Repository = (*Store)(nil)
	_ catalog.Repository       = (*Store)(nil)
	_ incidents.Repository     = (*Store)(nil)
)

package service

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/diagnosis/restaurant-management/services/organization/internal/domain"
	"github.com/diagnosis/restaurant-management/services/organization/internal/repository"
)

// memStore is an in-memory repository.Store. InTx restores the previous
// state when fn fails.
type memStore struct {
	users     map[uuid.UUID]bool
	orgs      map[uuid.UUID]domain.Organization
	settings  map[uuid.UUID]domain.Settings
	locations map[uuid.UUID]domain.Location
	roles     []domain.RoleGrant
	inTx      bool

	failRoleGrant error
}

func newMemStore() *memStore {
	return &memStore{
		users:     map[uuid.UUID]bool{},
		orgs:      map[uuid.UUID]domain.Organization{},
		settings:  map[uuid.UUID]domain.Settings{},
		locations: map[uuid.UUID]domain.Location{},
	}
}

func (s *memStore) Users() repository.UserRepository                 { return memUsers{s} }
func (s *memStore) Organizations() repository.OrganizationRepository { return memOrgs{s} }
func (s *memStore) Locations() repository.LocationRepository         { return memLocations{s} }
func (s *memStore) Roles() repository.RoleRepository                 { return memRoles{s} }

func (s *memStore) InTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	orgs := clone(s.orgs)
	settings := clone(s.settings)
	locations := clone(s.locations)
	roles := append([]domain.RoleGrant(nil), s.roles...)

	s.inTx = true
	err := fn(s)
	s.inTx = false
	if err != nil {
		s.orgs, s.settings, s.locations, s.roles = orgs, settings, locations, roles
	}
	return err
}

func clone[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) grant(userID, orgID uuid.UUID, role string) {
	s.roles = append(s.roles, domain.RoleGrant{UserID: userID, Role: role, OrganizationID: &orgID})
}

type memUsers struct{ s *memStore }

func (r memUsers) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	return r.s.users[id], nil
}

type memOrgs struct{ s *memStore }

func (r memOrgs) Create(_ context.Context, org *domain.Organization) error {
	org.ID = uuid.New()
	org.UpdatedAt = org.CreatedAt
	r.s.orgs[org.ID] = *org
	return nil
}

func (r memOrgs) CreateSettings(_ context.Context, st *domain.Settings) error {
	r.s.settings[st.OrganizationID] = *st
	return nil
}

func (r memOrgs) SettingsForUpdate(_ context.Context, orgID uuid.UUID) (*domain.Settings, error) {
	st, ok := r.s.settings[orgID]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

type memLocations struct{ s *memStore }

func (r memLocations) Create(_ context.Context, l *domain.Location) error {
	l.ID = uuid.New()
	l.UpdatedAt = l.CreatedAt
	r.s.locations[l.ID] = *l
	return nil
}

func (r memLocations) FindByID(_ context.Context, id uuid.UUID) (*domain.Location, error) {
	l, ok := r.s.locations[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (r memLocations) ListByOrganization(_ context.Context, orgID uuid.UUID) ([]domain.Location, error) {
	out := []domain.Location{}
	for _, l := range r.s.locations {
		if l.OrganizationID == orgID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memLocations) CountOpen(_ context.Context, orgID uuid.UUID) (int, error) {
	n := 0
	for _, l := range r.s.locations {
		if l.OrganizationID == orgID && l.CountsTowardLimit() {
			n++
		}
	}
	return n, nil
}

func (r memLocations) Update(_ context.Context, l *domain.Location) error {
	r.s.locations[l.ID] = *l
	return nil
}

type memRoles struct{ s *memStore }

func (r memRoles) Grant(_ context.Context, g domain.RoleGrant) error {
	if r.s.failRoleGrant != nil {
		return r.s.failRoleGrant
	}
	r.s.roles = append(r.s.roles, g)
	return nil
}

func (r memRoles) RolesIn(_ context.Context, userID, orgID uuid.UUID) ([]string, error) {
	var out []string
	for _, g := range r.s.roles {
		if g.UserID == userID && g.OrganizationID != nil && *g.OrganizationID == orgID {
			out = append(out, g.Role)
		}
	}
	return out, nil
}

type fakeBus struct {
	mu       sync.Mutex
	subjects []string
}

func (b *fakeBus) Publish(_ context.Context, subject string, _ interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subjects = append(b.subjects, subject)
	return nil
}

func (b *fakeBus) Close() error { return nil }

func (b *fakeBus) count(subject string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, s := range b.subjects {
		if s == subject {
			n++
		}
	}
	return n
}

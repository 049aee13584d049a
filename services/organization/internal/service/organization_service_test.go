package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/restaurant-management/pkg/apperr"
	"github.com/diagnosis/restaurant-management/pkg/events"
	"github.com/diagnosis/restaurant-management/services/organization/internal/domain"
)

type fixture struct {
	store *memStore
	bus   *fakeBus
	orgs  *organizationService
	locs  *locationService
	now   time.Time
	owner uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: newMemStore(),
		bus:   &fakeBus{},
		now:   time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		owner: uuid.New(),
	}
	f.store.users[f.owner] = true

	clock := func() time.Time { return f.now }
	f.orgs = NewOrganizationService(f.store, f.bus).(*organizationService)
	f.orgs.now = clock
	f.locs = NewLocationService(f.store, f.bus).(*locationService)
	f.locs.now = clock
	return f
}

func strPtr(s string) *string { return &s }

func orgRequest() *domain.CreateOrganizationRequest {
	return &domain.CreateOrganizationRequest{
		Name:         "  Trattoria Roma ",
		Description:  strPtr("<b>Family</b> kitchen"),
		PrimaryColor: strPtr("#AA3300"),
		LocationName: "Downtown",
		Address:      "1 Main St",
		City:         "Springfield",
		Country:      "US",
	}
}

func (f *fixture) registerOrg(t *testing.T) *domain.OrganizationResponse {
	t.Helper()
	resp, err := f.orgs.Register(context.Background(), f.owner, f.owner, orgRequest())
	require.NoError(t, err)
	return resp
}

func assertStatus(t *testing.T, err error, status int) {
	t.Helper()
	appErr, ok := apperr.As(err)
	require.True(t, ok, "expected business error, got %v", err)
	assert.Equal(t, status, appErr.Status)
}

func TestRegisterOrganization(t *testing.T) {
	f := newFixture(t)

	resp := f.registerOrg(t)

	assert.Equal(t, "Trattoria Roma", resp.Name)
	require.NotNil(t, resp.Description)
	assert.Equal(t, "Family kitchen", *resp.Description)
	assert.Equal(t, domain.PlanTrial, resp.PlanType)
	assert.Equal(t, 1, resp.MaxLocations)
	assert.True(t, resp.IsTrialActive)
	require.NotNil(t, resp.TrialEndDate)
	assert.Equal(t, f.now.Add(30*24*time.Hour), *resp.TrialEndDate)

	locs, err := f.locs.List(context.Background(), f.owner, resp.ID)
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, "Downtown", locs[0].Name)
	assert.Equal(t, domain.LocationActive, locs[0].Status)

	roles, _ := f.store.Roles().RolesIn(context.Background(), f.owner, resp.ID)
	assert.Equal(t, []string{domain.RoleOwner}, roles)
	assert.Equal(t, 1, f.bus.count(events.OrganizationCreated))
}

func TestRegisterOrganization_Rejections(t *testing.T) {
	t.Run("other user's account", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.orgs.Register(context.Background(), uuid.New(), f.owner, orgRequest())
		assertStatus(t, err, http.StatusForbidden)
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newFixture(t)
		ghost := uuid.New()
		_, err := f.orgs.Register(context.Background(), ghost, ghost, orgRequest())
		assertStatus(t, err, http.StatusNotFound)
	})

	t.Run("bad color", func(t *testing.T) {
		f := newFixture(t)
		req := orgRequest()
		req.AccentColor = strPtr("red")
		_, err := f.orgs.Register(context.Background(), f.owner, f.owner, req)
		assertStatus(t, err, http.StatusBadRequest)
	})

	t.Run("role grant failure rolls back", func(t *testing.T) {
		f := newFixture(t)
		f.store.failRoleGrant = errors.New("db down")
		_, err := f.orgs.Register(context.Background(), f.owner, f.owner, orgRequest())
		require.Error(t, err)
		_, isBusiness := apperr.As(err)
		assert.False(t, isBusiness)
		assert.Empty(t, f.store.orgs)
		assert.Empty(t, f.store.locations)
		assert.Equal(t, 0, f.bus.count(events.OrganizationCreated))
	})
}

func locationRequest(name string) *domain.CreateLocationRequest {
	return &domain.CreateLocationRequest{Name: name, Address: "2 Side St", City: "Springfield", Country: "US"}
}

func TestCreateLocation_EnforcesPlanLimit(t *testing.T) {
	f := newFixture(t)
	org := f.registerOrg(t)

	_, err := f.locs.Create(context.Background(), f.owner, org.ID, locationRequest("Uptown"))
	assertStatus(t, err, http.StatusForbidden)
	assert.Equal(t, "location limit reached for current plan", err.Error())

	// Closing the first location frees the slot.
	locs, _ := f.locs.List(context.Background(), f.owner, org.ID)
	require.NoError(t, f.locs.Close(context.Background(), f.owner, locs[0].ID))

	loc, err := f.locs.Create(context.Background(), f.owner, org.ID, locationRequest("Uptown"))
	require.NoError(t, err)
	assert.Equal(t, domain.LocationActive, loc.Status)
	assert.Equal(t, 1, f.bus.count(events.LocationCreated))
	assert.Equal(t, 1, f.bus.count(events.LocationClosed))
}

func TestLocationPermissions(t *testing.T) {
	f := newFixture(t)
	org := f.registerOrg(t)
	locs, _ := f.locs.List(context.Background(), f.owner, org.ID)
	locID := locs[0].ID

	manager := uuid.New()
	f.store.grant(manager, org.ID, domain.RoleManager)
	stranger := uuid.New()

	_, err := f.locs.List(context.Background(), manager, org.ID)
	assert.NoError(t, err)

	_, err = f.locs.List(context.Background(), stranger, org.ID)
	assertStatus(t, err, http.StatusForbidden)

	_, err = f.locs.Create(context.Background(), manager, org.ID, locationRequest("Uptown"))
	assertStatus(t, err, http.StatusForbidden)

	update := &domain.UpdateLocationRequest{CreateLocationRequest: *locationRequest("Renamed"), Status: domain.LocationInactive}
	_, err = f.locs.Update(context.Background(), manager, locID, update)
	assertStatus(t, err, http.StatusForbidden)

	err = f.locs.Close(context.Background(), manager, locID)
	assertStatus(t, err, http.StatusForbidden)

	// Missing ids are reported before permissions.
	err = f.locs.Close(context.Background(), stranger, uuid.New())
	assertStatus(t, err, http.StatusNotFound)
}

func TestUpdateLocation(t *testing.T) {
	f := newFixture(t)
	org := f.registerOrg(t)
	locs, _ := f.locs.List(context.Background(), f.owner, org.ID)
	id := locs[0].ID

	f.now = f.now.Add(time.Hour)
	update := &domain.UpdateLocationRequest{
		CreateLocationRequest: domain.CreateLocationRequest{
			Name: "Harbor", Address: "9 Pier Rd", City: "Portland", State: strPtr(" ME "), Country: "US",
		},
		Status: domain.LocationInactive,
	}
	loc, err := f.locs.Update(context.Background(), f.owner, id, update)
	require.NoError(t, err)
	assert.Equal(t, "Harbor", loc.Name)
	assert.Equal(t, "ME", *loc.State)
	assert.Equal(t, domain.LocationInactive, loc.Status)
	assert.Equal(t, f.now, loc.UpdatedAt)
	assert.Equal(t, 1, f.bus.count(events.LocationUpdated))

	update.Status = "Demolished"
	_, err = f.locs.Update(context.Background(), f.owner, id, update)
	assertStatus(t, err, http.StatusBadRequest)
}

func TestUpdateLocation_ReopeningRespectsLimit(t *testing.T) {
	f := newFixture(t)
	org := f.registerOrg(t)
	locs, _ := f.locs.List(context.Background(), f.owner, org.ID)
	first := locs[0].ID

	require.NoError(t, f.locs.Close(context.Background(), f.owner, first))
	_, err := f.locs.Create(context.Background(), f.owner, org.ID, locationRequest("Uptown"))
	require.NoError(t, err)

	reopen := &domain.UpdateLocationRequest{CreateLocationRequest: *locationRequest("Downtown"), Status: domain.LocationActive}
	_, err = f.locs.Update(context.Background(), f.owner, first, reopen)
	assertStatus(t, err, http.StatusForbidden)

	stored, _ := f.store.Locations().FindByID(context.Background(), first)
	assert.Equal(t, domain.LocationClosed, stored.Status)
}

func TestListLocations_OrderedByName(t *testing.T) {
	f := newFixture(t)
	org := f.registerOrg(t)
	st := f.store.settings[org.ID]
	st.MaxLocations = 5
	f.store.settings[org.ID] = st

	for _, name := range []string{"Midtown", "Airport"} {
		_, err := f.locs.Create(context.Background(), f.owner, org.ID, locationRequest(name))
		require.NoError(t, err)
	}

	locs, err := f.locs.List(context.Background(), f.owner, org.ID)
	require.NoError(t, err)
	var names []string
	for _, l := range locs {
		names = append(names, l.Name)
	}
	assert.Equal(t, []string{"Airport", "Downtown", "Midtown"}, names)
}

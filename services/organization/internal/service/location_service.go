package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/diagnosis/restaurant-management/pkg/events"
	"github.com/diagnosis/restaurant-management/pkg/logger"
	"github.com/diagnosis/restaurant-management/pkg/metrics"
	"github.com/diagnosis/restaurant-management/services/organization/internal/domain"
	"github.com/diagnosis/restaurant-management/services/organization/internal/repository"
)

type LocationService interface {
	List(ctx context.Context, actorID, orgID uuid.UUID) ([]domain.Location, error)
	Create(ctx context.Context, actorID, orgID uuid.UUID, req *domain.CreateLocationRequest) (*domain.Location, error)
	Update(ctx context.Context, actorID, locationID uuid.UUID, req *domain.UpdateLocationRequest) (*domain.Location, error)
	// Close soft-deletes a location by moving it to Closed.
	Close(ctx context.Context, actorID, locationID uuid.UUID) error
}

type locationService struct {
	store    repository.Store
	eventBus events.Publisher
	now      func() time.Time
}

func NewLocationService(store repository.Store, eventBus events.Publisher) LocationService {
	return &locationService{
		store:    store,
		eventBus: eventBus,
		now:      time.Now,
	}
}

func (s *locationService) List(ctx context.Context, actorID, orgID uuid.UUID) ([]domain.Location, error) {
	if err := requireMember(ctx, s.store, actorID, orgID); err != nil {
		return nil, err
	}

	locations, err := s.store.Locations().ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	return locations, nil
}

func (s *locationService) Create(ctx context.Context, actorID, orgID uuid.UUID, req *domain.CreateLocationRequest) (*domain.Location, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := requireOwner(ctx, s.store, actorID, orgID); err != nil {
		return nil, err
	}

	loc := &domain.Location{
		OrganizationID: orgID,
		Status:         domain.LocationActive,
		CreatedAt:      s.now().UTC(),
	}
	req.Apply(loc)

	err := s.store.InTx(ctx, func(st repository.Store) error {
		if err := ensureCapacity(ctx, st, orgID); err != nil {
			return err
		}
		if err := st.Locations().Create(ctx, loc); err != nil {
			return fmt.Errorf("failed to create location: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Location created", "location_id", loc.ID, "organization_id", orgID)
	s.emit(ctx, events.LocationCreated, "created", loc, actorID)
	return loc, nil
}

func (s *locationService) Update(ctx context.Context, actorID, locationID uuid.UUID, req *domain.UpdateLocationRequest) (*domain.Location, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var loc *domain.Location
	err := s.store.InTx(ctx, func(st repository.Store) error {
		var err error
		loc, err = loadOwnedLocation(ctx, st, actorID, locationID)
		if err != nil {
			return err
		}

		reopening := !loc.CountsTowardLimit() && req.Status != domain.LocationClosed
		if reopening {
			if err := ensureCapacity(ctx, st, loc.OrganizationID); err != nil {
				return err
			}
		}

		req.Apply(loc)
		loc.Status = req.Status
		loc.UpdatedAt = s.now().UTC()
		if err := st.Locations().Update(ctx, loc); err != nil {
			return fmt.Errorf("failed to update location: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, events.LocationUpdated, "updated", loc, actorID)
	return loc, nil
}

func (s *locationService) Close(ctx context.Context, actorID, locationID uuid.UUID) error {
	loc, err := loadOwnedLocation(ctx, s.store, actorID, locationID)
	if err != nil {
		return err
	}

	loc.Status = domain.LocationClosed
	loc.UpdatedAt = s.now().UTC()
	if err := s.store.Locations().Update(ctx, loc); err != nil {
		return fmt.Errorf("failed to close location: %w", err)
	}

	logger.InfoContext(ctx, "Location closed", "location_id", loc.ID, "organization_id", loc.OrganizationID)
	s.emit(ctx, events.LocationClosed, "closed", loc, actorID)
	return nil
}

func (s *locationService) emit(ctx context.Context, subject, action string, loc *domain.Location, actorID uuid.UUID) {
	metrics.ResourceChanges.WithLabelValues("location", action).Inc()
	events.Emit(ctx, s.eventBus, subject, events.LocationEvent{
		LocationID:     loc.ID,
		OrganizationID: loc.OrganizationID,
		Status:         string(loc.Status),
		ActorUserID:    actorID,
		OccurredAt:     s.now().UTC(),
	})
}

// loadOwnedLocation returns 404 for unknown ids before checking ownership.
func loadOwnedLocation(ctx context.Context, st repository.Store, actorID, locationID uuid.UUID) (*domain.Location, error) {
	loc, err := st.Locations().FindByID(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load location: %w", err)
	}
	if loc == nil {
		return nil, ErrLocationNotFound()
	}
	if err := requireOwner(ctx, st, actorID, loc.OrganizationID); err != nil {
		return nil, err
	}
	return loc, nil
}

// ensureCapacity must run inside a transaction; it locks the settings row.
func ensureCapacity(ctx context.Context, st repository.Store, orgID uuid.UUID) error {
	settings, err := st.Organizations().SettingsForUpdate(ctx, orgID)
	if err != nil {
		return fmt.Errorf("failed to load organization settings: %w", err)
	}
	if settings == nil {
		return ErrOrganizationNotFound()
	}

	open, err := st.Locations().CountOpen(ctx, orgID)
	if err != nil {
		return fmt.Errorf("failed to count locations: %w", err)
	}
	if open >= settings.MaxLocations {
		return ErrLocationLimitReached()
	}
	return nil
}

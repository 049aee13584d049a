package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/diagnosis/restaurant-management/pkg/apperr"
	"github.com/diagnosis/restaurant-management/pkg/events"
	"github.com/diagnosis/restaurant-management/pkg/logger"
	"github.com/diagnosis/restaurant-management/pkg/metrics"
	"github.com/diagnosis/restaurant-management/services/menu/internal/domain"
	"github.com/diagnosis/restaurant-management/services/menu/internal/repository"
)

func ErrMenuNotFound() *apperr.Error         { return apperr.NotFound("Menu not found.") }
func ErrOrganizationNotFound() *apperr.Error { return apperr.NotFound("Organization not found.") }
func ErrLocationNotFound() *apperr.Error     { return apperr.NotFound("Location not found.") }
func ErrNotMenuManager() *apperr.Error {
	return apperr.Forbidden("You do not have permission to manage menus for this organization.")
}

type MenuService interface {
	Create(ctx context.Context, actorID uuid.UUID, req *domain.CreateMenuRequest) (*domain.Menu, error)
	Update(ctx context.Context, actorID, menuID uuid.UUID, req *domain.UpdateMenuRequest) (*domain.Menu, error)
	Delete(ctx context.Context, actorID, menuID uuid.UUID) error
	AttachLocation(ctx context.Context, actorID, menuID, locationID uuid.UUID) error
	DetachLocation(ctx context.Context, actorID, menuID, locationID uuid.UUID) error
	ListByOrganization(ctx context.Context, actorID, orgID uuid.UUID) ([]domain.Menu, error)
	ListByLocation(ctx context.Context, actorID, locationID uuid.UUID) ([]domain.Menu, error)
}

type menuService struct {
	store    repository.Store
	eventBus events.Publisher
	now      func() time.Time
}

func NewMenuService(store repository.Store, eventBus events.Publisher) MenuService {
	return &menuService{
		store:    store,
		eventBus: eventBus,
		now:      time.Now,
	}
}

func (s *menuService) Create(ctx context.Context, actorID uuid.UUID, req *domain.CreateMenuRequest) (*domain.Menu, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.requireManager(ctx, actorID, req.OrganizationID); err != nil {
		return nil, err
	}

	exists, err := s.store.Directory().OrganizationExists(ctx, req.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up organization: %w", err)
	}
	if !exists {
		return nil, ErrOrganizationNotFound()
	}

	menu := &domain.Menu{
		OrganizationID: req.OrganizationID,
		Name:           req.Name,
		Description:    req.Description,
		IsActive:       true,
		CreatedAt:      s.now().UTC(),
	}

	err = s.store.InTx(ctx, func(st repository.Store) error {
		if err := st.Menus().Create(ctx, menu); err != nil {
			return fmt.Errorf("failed to create menu: %w", err)
		}

		// Locations outside the organization are dropped.
		valid, err := st.Directory().LocationsInOrganization(ctx, req.OrganizationID, req.LocationIDs)
		if err != nil {
			return fmt.Errorf("failed to check locations: %w", err)
		}
		for _, locationID := range valid {
			if err := st.Attachments().Attach(ctx, menu.ID, locationID); err != nil {
				return fmt.Errorf("failed to attach location: %w", err)
			}
		}
		menu.LocationIDs = append([]uuid.UUID{}, valid...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Menu created", "menu_id", menu.ID, "organization_id", menu.OrganizationID)
	s.emit(ctx, events.MenuCreated, "created", menu.ID, menu.OrganizationID, menu.LocationIDs, actorID)
	return menu, nil
}

func (s *menuService) Update(ctx context.Context, actorID, menuID uuid.UUID, req *domain.UpdateMenuRequest) (*domain.Menu, error) {
	menu, err := s.loadManagedMenu(ctx, actorID, menuID)
	if err != nil {
		return nil, err
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	menu.Name = req.Name
	menu.Description = req.Description
	menu.IsActive = req.IsActive
	menu.UpdatedAt = s.now().UTC()
	if err := s.store.Menus().Update(ctx, menu); err != nil {
		return nil, fmt.Errorf("failed to update menu: %w", err)
	}

	s.emit(ctx, events.MenuUpdated, "updated", menu.ID, menu.OrganizationID, nil, actorID)
	return menu, nil
}

func (s *menuService) Delete(ctx context.Context, actorID, menuID uuid.UUID) error {
	menu, err := s.loadManagedMenu(ctx, actorID, menuID)
	if err != nil {
		return err
	}

	if err := s.store.Menus().Delete(ctx, menu.ID); err != nil {
		return fmt.Errorf("failed to delete menu: %w", err)
	}

	logger.InfoContext(ctx, "Menu deleted", "menu_id", menu.ID, "organization_id", menu.OrganizationID)
	s.emit(ctx, events.MenuDeleted, "deleted", menu.ID, menu.OrganizationID, menu.LocationIDs, actorID)
	return nil
}

func (s *menuService) AttachLocation(ctx context.Context, actorID, menuID, locationID uuid.UUID) error {
	menu, err := s.loadManagedMenu(ctx, actorID, menuID)
	if err != nil {
		return err
	}

	loc, err := s.store.Directory().FindLocation(ctx, locationID)
	if err != nil {
		return fmt.Errorf("failed to load location: %w", err)
	}
	if loc == nil || loc.OrganizationID != menu.OrganizationID {
		return ErrLocationNotFound()
	}
	if slices.Contains(menu.LocationIDs, locationID) {
		return nil
	}

	if err := s.store.Attachments().Attach(ctx, menu.ID, locationID); err != nil {
		return fmt.Errorf("failed to attach location: %w", err)
	}

	s.emit(ctx, events.MenuLocationAttached, "attached", menu.ID, menu.OrganizationID, []uuid.UUID{locationID}, actorID)
	return nil
}

func (s *menuService) DetachLocation(ctx context.Context, actorID, menuID, locationID uuid.UUID) error {
	menu, err := s.loadManagedMenu(ctx, actorID, menuID)
	if err != nil {
		return err
	}

	removed, err := s.store.Attachments().Detach(ctx, menu.ID, locationID)
	if err != nil {
		return fmt.Errorf("failed to detach location: %w", err)
	}
	if removed {
		s.emit(ctx, events.MenuLocationDetached, "detached", menu.ID, menu.OrganizationID, []uuid.UUID{locationID}, actorID)
	}
	return nil
}

func (s *menuService) ListByOrganization(ctx context.Context, actorID, orgID uuid.UUID) ([]domain.Menu, error) {
	if err := s.requireManager(ctx, actorID, orgID); err != nil {
		return nil, err
	}

	menus, err := s.store.Menus().ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list menus: %w", err)
	}
	return menus, nil
}

func (s *menuService) ListByLocation(ctx context.Context, actorID, locationID uuid.UUID) ([]domain.Menu, error) {
	loc, err := s.store.Directory().FindLocation(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load location: %w", err)
	}
	if loc == nil {
		return nil, ErrLocationNotFound()
	}
	if err := s.requireManager(ctx, actorID, loc.OrganizationID); err != nil {
		return nil, err
	}

	menus, err := s.store.Menus().ListByLocation(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list menus: %w", err)
	}
	return menus, nil
}

// loadManagedMenu returns 404 for unknown menus before checking permissions.
func (s *menuService) loadManagedMenu(ctx context.Context, actorID, menuID uuid.UUID) (*domain.Menu, error) {
	menu, err := s.store.Menus().FindByID(ctx, menuID)
	if err != nil {
		return nil, fmt.Errorf("failed to load menu: %w", err)
	}
	if menu == nil {
		return nil, ErrMenuNotFound()
	}
	if err := s.requireManager(ctx, actorID, menu.OrganizationID); err != nil {
		return nil, err
	}
	return menu, nil
}

// requireManager allows Owner and Admin roles.
func (s *menuService) requireManager(ctx context.Context, actorID, orgID uuid.UUID) error {
	roles, err := s.store.Directory().RolesIn(ctx, actorID, orgID)
	if err != nil {
		return fmt.Errorf("failed to load roles: %w", err)
	}
	if !slices.Contains(roles, domain.RoleOwner) && !slices.Contains(roles, domain.RoleAdmin) {
		return ErrNotMenuManager()
	}
	return nil
}

func (s *menuService) emit(ctx context.Context, subject, action string, menuID, orgID uuid.UUID, locationIDs []uuid.UUID, actorID uuid.UUID) {
	metrics.ResourceChanges.WithLabelValues("menu", action).Inc()
	events.Emit(ctx, s.eventBus, subject, events.MenuEvent{
		MenuID:         menuID,
		OrganizationID: orgID,
		LocationIDs:    locationIDs,
		ActorUserID:    actorID,
		OccurredAt:     s.now().UTC(),
	})
}

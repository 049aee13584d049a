package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/diagnosis/restaurant-management/pkg/events"
	"github.com/diagnosis/restaurant-management/pkg/logger"
	"github.com/diagnosis/restaurant-management/pkg/metrics"
	"github.com/diagnosis/restaurant-management/services/organization/internal/domain"
	"github.com/diagnosis/restaurant-management/services/organization/internal/repository"
)

type OrganizationService interface {
	// Register creates an organization on the trial plan, its first location
	// and the Owner role for userID. actorID is the authenticated caller.
	Register(ctx context.Context, actorID, userID uuid.UUID, req *domain.CreateOrganizationRequest) (*domain.OrganizationResponse, error)
}

type organizationService struct {
	store    repository.Store
	eventBus events.Publisher
	now      func() time.Time
}

func NewOrganizationService(store repository.Store, eventBus events.Publisher) OrganizationService {
	return &organizationService{
		store:    store,
		eventBus: eventBus,
		now:      time.Now,
	}
}

func (s *organizationService) Register(ctx context.Context, actorID, userID uuid.UUID, req *domain.CreateOrganizationRequest) (*domain.OrganizationResponse, error) {
	if actorID != userID {
		return nil, ErrNotAccountOwner()
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.store.Users().Exists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !exists {
		return nil, ErrUserNotFound()
	}

	now := s.now().UTC()
	org := &domain.Organization{
		Name:           req.Name,
		Description:    req.Description,
		LogoURL:        req.LogoURL,
		PrimaryColor:   req.PrimaryColor,
		SecondaryColor: req.SecondaryColor,
		AccentColor:    req.AccentColor,
		CreatedBy:      userID,
		CreatedAt:      now,
	}
	var (
		settings domain.Settings
		location *domain.Location
	)

	err = s.store.InTx(ctx, func(st repository.Store) error {
		if err := st.Organizations().Create(ctx, org); err != nil {
			return fmt.Errorf("failed to create organization: %w", err)
		}

		settings = domain.TrialSettings(org.ID, now)
		if err := st.Organizations().CreateSettings(ctx, &settings); err != nil {
			return fmt.Errorf("failed to create organization settings: %w", err)
		}

		location = req.FirstLocation(org.ID)
		location.CreatedAt = now
		if err := st.Locations().Create(ctx, location); err != nil {
			return fmt.Errorf("failed to create first location: %w", err)
		}

		orgID := org.ID
		if err := st.Roles().Grant(ctx, domain.RoleGrant{UserID: userID, Role: domain.RoleOwner, OrganizationID: &orgID}); err != nil {
			return fmt.Errorf("failed to grant owner role: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Organization registered", "organization_id", org.ID, "user_id", userID)
	metrics.ResourceChanges.WithLabelValues("organization", "created").Inc()
	events.Emit(ctx, s.eventBus, events.OrganizationCreated, events.OrganizationCreatedEvent{
		OrganizationID: org.ID,
		OwnerUserID:    userID,
		Name:           org.Name,
		PlanType:       settings.PlanType,
		TrialEndDate:   *settings.TrialEndDate,
		LocationID:     location.ID,
		CreatedAt:      now,
	})

	return domain.NewOrganizationResponse(org, settings), nil
}

// rolesIn loads the caller's roles in orgID.
func rolesIn(ctx context.Context, st repository.Store, userID, orgID uuid.UUID) ([]string, error) {
	roles, err := st.Roles().RolesIn(ctx, userID, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roles: %w", err)
	}
	return roles, nil
}

func requireMember(ctx context.Context, st repository.Store, userID, orgID uuid.UUID) error {
	roles, err := rolesIn(ctx, st, userID, orgID)
	if err != nil {
		return err
	}
	if len(roles) == 0 {
		return ErrNotMember()
	}
	return nil
}

func requireOwner(ctx context.Context, st repository.Store, userID, orgID uuid.UUID) error {
	roles, err := rolesIn(ctx, st, userID, orgID)
	if err != nil {
		return err
	}
	if !slices.Contains(roles, domain.RoleOwner) {
		return ErrNotOwner()
	}
	return nil
}

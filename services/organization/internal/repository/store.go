package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diagnosis/restaurant-management/pkg/database"
	"github.com/diagnosis/restaurant-management/services/organization/internal/domain"
)

const queryTimeout = 3 * time.Second

type UserRepository interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type OrganizationRepository interface {
	Create(ctx context.Context, org *domain.Organization) error
	CreateSettings(ctx context.Context, s *domain.Settings) error
	// SettingsForUpdate locks the settings row so location limits are checked
	// against a stable count.
	SettingsForUpdate(ctx context.Context, orgID uuid.UUID) (*domain.Settings, error)
}

type LocationRepository interface {
	Create(ctx context.Context, loc *domain.Location) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Location, error)
	ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]domain.Location, error)
	CountOpen(ctx context.Context, orgID uuid.UUID) (int, error)
	Update(ctx context.Context, loc *domain.Location) error
}

type RoleRepository interface {
	Grant(ctx context.Context, grant domain.RoleGrant) error
	// RolesIn lists the roles userID holds in orgID.
	RolesIn(ctx context.Context, userID, orgID uuid.UUID) ([]string, error)
}

// Store groups the organization repositories. InTx runs fn against a store
// bound to one transaction.
type Store interface {
	Users() UserRepository
	Organizations() OrganizationRepository
	Locations() LocationRepository
	Roles() RoleRepository
	InTx(ctx context.Context, fn func(Store) error) error
}

type pgStore struct {
	pool *pgxpool.Pool
	db   database.DBTX
}

func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool, db: pool}
}

func (s *pgStore) Users() UserRepository                 { return &userRepository{db: s.db} }
func (s *pgStore) Organizations() OrganizationRepository { return &organizationRepository{db: s.db} }
func (s *pgStore) Locations() LocationRepository         { return &locationRepository{db: s.db} }
func (s *pgStore) Roles() RoleRepository                 { return &roleRepository{db: s.db} }

func (s *pgStore) InTx(ctx context.Context, fn func(Store) error) error {
	if _, ok := s.db.(pgx.Tx); ok {
		return fn(s)
	}
	return database.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&pgStore{pool: s.pool, db: tx})
	})
}

package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diagnosis/restaurant-management/pkg/database"
	"github.com/diagnosis/restaurant-management/services/menu/internal/domain"
)

const queryTimeout = 3 * time.Second

type MenuRepository interface {
	Create(ctx context.Context, m *domain.Menu) error
	// FindByID returns the menu with its attached location ids.
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Menu, error)
	Update(ctx context.Context, m *domain.Menu) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]domain.Menu, error)
	ListByLocation(ctx context.Context, locationID uuid.UUID) ([]domain.Menu, error)
}

type AttachmentRepository interface {
	// Attach is idempotent.
	Attach(ctx context.Context, menuID, locationID uuid.UUID) error
	// Detach reports whether a link was removed.
	Detach(ctx context.Context, menuID, locationID uuid.UUID) (bool, error)
}

// DirectoryRepository reads organizations, locations and roles owned by the
// organization service.
type DirectoryRepository interface {
	OrganizationExists(ctx context.Context, orgID uuid.UUID) (bool, error)
	FindLocation(ctx context.Context, id uuid.UUID) (*domain.LocationRef, error)
	// LocationsInOrganization filters ids down to those belonging to orgID.
	LocationsInOrganization(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error)
	RolesIn(ctx context.Context, userID, orgID uuid.UUID) ([]string, error)
}

type Store interface {
	Menus() MenuRepository
	Attachments() AttachmentRepository
	Directory() DirectoryRepository
	InTx(ctx context.Context, fn func(Store) error) error
}

type pgStore struct {
	pool *pgxpool.Pool
	db   database.DBTX
}

func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool, db: pool}
}

func (s *pgStore) Menus() MenuRepository             { return &menuRepository{db: s.db} }
func (s *pgStore) Attachments() AttachmentRepository { return &attachmentRepository{db: s.db} }
func (s *pgStore) Directory() DirectoryRepository    { return &directoryRepository{db: s.db} }

func (s *pgStore) InTx(ctx context.Context, fn func(Store) error) error {
	if _, ok := s.db.(pgx.Tx); ok {
		return fn(s)
	}
	return database.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&pgStore{pool: s.pool, db: tx})
	})
}

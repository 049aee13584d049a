package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diagnosis/restaurant-management/pkg/database"
	"github.com/diagnosis/restaurant-management/services/identity/internal/domain"
)

const queryTimeout = 3 * time.Second

var ErrDuplicateEmail = errors.New("email already registered")

type AccountRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	// FindByEmailForUpdate locks the row until the surrounding transaction ends.
	FindByEmailForUpdate(ctx context.Context, email string) (*domain.Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	Create(ctx context.Context, acc *domain.Account) error
	Update(ctx context.Context, acc *domain.Account) error
}

type VerificationRepository interface {
	Create(ctx context.Context, code *domain.VerificationCode) error
	Latest(ctx context.Context, accountID uuid.UUID) (*domain.VerificationCode, error)
	LatestActive(ctx context.Context, accountID uuid.UUID, now time.Time) (*domain.VerificationCode, error)
	MarkUsed(ctx context.Context, id uuid.UUID) error
	InvalidateActive(ctx context.Context, accountID uuid.UUID) (int64, error)
}

type RoleRepository interface {
	ListForAccount(ctx context.Context, accountID uuid.UUID) ([]domain.RoleGrant, error)
}

// Store groups the identity repositories. InTx runs fn against a store bound
// to one transaction; nested calls join the outer transaction.
type Store interface {
	Accounts() AccountRepository
	Verifications() VerificationRepository
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

func (s *pgStore) Accounts() AccountRepository {
	return &accountRepository{db: s.db}
}

func (s *pgStore) Verifications() VerificationRepository {
	return &verificationRepository{db: s.db}
}

func (s *pgStore) Roles() RoleRepository {
	return &roleRepository{db: s.db}
}

func (s *pgStore) InTx(ctx context.Context, fn func(Store) error) error {
	if _, ok := s.db.(pgx.Tx); ok {
		return fn(s)
	}
	return database.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&pgStore{pool: s.pool, db: tx})
	})
}

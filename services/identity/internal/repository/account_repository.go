package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/diagnosis/restaurant-management/pkg/database"
	"github.com/diagnosis/restaurant-management/services/identity/internal/domain"
)

type accountRepository struct {
	db database.DBTX
}

const accountCols = `id, email, phone_number, first_name, last_name, password_hash,
	refresh_token_hash, refresh_token_expiry, failed_login_attempts, locked_until,
	last_login_at, is_active, is_verified, created_at, updated_at`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(
		&a.ID, &a.Email, &a.PhoneNumber, &a.FirstName, &a.LastName, &a.PasswordHash,
		&a.RefreshTokenHash, &a.RefreshTokenExpiry, &a.FailedLoginAttempts, &a.LockedUntil,
		&a.LastLoginAt, &a.IsActive, &a.IsVerified, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *accountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	const q = `SELECT ` + accountCols + ` FROM users WHERE email = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return scanAccount(r.db.QueryRow(ctx, q, email))
}

func (r *accountRepository) FindByEmailForUpdate(ctx context.Context, email string) (*domain.Account, error) {
	const q = `SELECT ` + accountCols + ` FROM users WHERE email = $1 FOR UPDATE`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return scanAccount(r.db.QueryRow(ctx, q, email))
}

func (r *accountRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	const q = `SELECT ` + accountCols + ` FROM users WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return scanAccount(r.db.QueryRow(ctx, q, id))
}

// Create inserts acc and fills in its id and timestamps.
func (r *accountRepository) Create(ctx context.Context, acc *domain.Account) error {
	const q = `
		INSERT INTO users (email, phone_number, first_name, last_name, password_hash, is_active, is_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := r.db.QueryRow(ctx, q,
		acc.Email, acc.PhoneNumber, acc.FirstName, acc.LastName, acc.PasswordHash, acc.IsActive, acc.IsVerified,
	).Scan(&acc.ID, &acc.CreatedAt, &acc.UpdatedAt)
	if database.IsUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	return err
}

// Update persists every mutable field of acc.
func (r *accountRepository) Update(ctx context.Context, acc *domain.Account) error {
	const q = `
		UPDATE users
		SET
			phone_number = $2,
			first_name = $3,
			last_name = $4,
			password_hash = $5,
			refresh_token_hash = $6,
			refresh_token_expiry = $7,
			failed_login_attempts = $8,
			locked_until = $9,
			last_login_at = $10,
			is_active = $11,
			is_verified = $12,
			updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return r.db.QueryRow(ctx, q,
		acc.ID, acc.PhoneNumber, acc.FirstName, acc.LastName, acc.PasswordHash,
		acc.RefreshTokenHash, acc.RefreshTokenExpiry, acc.FailedLoginAttempts, acc.LockedUntil,
		acc.LastLoginAt, acc.IsActive, acc.IsVerified,
	).Scan(&acc.UpdatedAt)
}

type roleRepository struct {
	db database.DBTX
}

func (r *roleRepository) ListForAccount(ctx context.Context, accountID uuid.UUID) ([]domain.RoleGrant, error) {
	const q = `
		SELECT role, organization_id, location_id
		FROM user_roles
		WHERE user_id = $1
		ORDER BY created_at`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, q, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grants []domain.RoleGrant
	for rows.Next() {
		var g domain.RoleGrant
		if err := rows.Scan(&g.Role, &g.OrganizationID, &g.LocationID); err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

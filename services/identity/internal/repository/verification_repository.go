package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/diagnosis/restaurant-management/pkg/database"
	"github.com/diagnosis/restaurant-management/services/identity/internal/domain"
)

type verificationRepository struct {
	db database.DBTX
}

const codeCols = `id, user_id, code, expires_at, is_used, created_at`

func scanCode(row pgx.Row) (*domain.VerificationCode, error) {
	var c domain.VerificationCode
	err := row.Scan(&c.ID, &c.AccountID, &c.Code, &c.ExpiresAt, &c.IsUsed, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts code. CreatedAt is taken from the caller so cooldown
// arithmetic uses the same clock as the service.
func (r *verificationRepository) Create(ctx context.Context, code *domain.VerificationCode) error {
	const q = `
		INSERT INTO user_verification_codes (user_id, code, expires_at, is_used, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return r.db.QueryRow(ctx, q, code.AccountID, code.Code, code.ExpiresAt, code.IsUsed, code.CreatedAt).Scan(&code.ID)
}

func (r *verificationRepository) Latest(ctx context.Context, accountID uuid.UUID) (*domain.VerificationCode, error) {
	const q = `
		SELECT ` + codeCols + `
		FROM user_verification_codes
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return scanCode(r.db.QueryRow(ctx, q, accountID))
}

func (r *verificationRepository) LatestActive(ctx context.Context, accountID uuid.UUID, now time.Time) (*domain.VerificationCode, error) {
	const q = `
		SELECT ` + codeCols + `
		FROM user_verification_codes
		WHERE user_id = $1
		  AND is_used = false
		  AND expires_at > $2
		ORDER BY created_at DESC
		LIMIT 1`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return scanCode(r.db.QueryRow(ctx, q, accountID, now))
}

func (r *verificationRepository) MarkUsed(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE user_verification_codes SET is_used = true WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.db.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// InvalidateActive marks every unused code for the account as used.
func (r *verificationRepository) InvalidateActive(ctx context.Context, accountID uuid.UUID) (int64, error) {
	const q = `UPDATE user_verification_codes SET is_used = true WHERE user_id = $1 AND is_used = false`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.db.Exec(ctx, q, accountID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	"github.com/diagnosis/restaurant-management/services/identity/internal/domain"
	"github.com/diagnosis/restaurant-management/services/identity/internal/repository"
)

const (
	defaultVerificationTTL = 15 * time.Minute
	defaultResendCooldown  = 60 * time.Second

	codeMin = 100000
	codeMax = 999999
)

type VerificationManager struct {
	ttl      time.Duration
	cooldown time.Duration
}

func NewVerificationManager(ttl, cooldown time.Duration) *VerificationManager {
	if ttl <= 0 {
		ttl = defaultVerificationTTL
	}
	if cooldown < 0 {
		cooldown = defaultResendCooldown
	}
	return &VerificationManager{ttl: ttl, cooldown: cooldown}
}

// GenerateCode returns a uniformly distributed code in [100000, 999999].
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+codeMin), nil
}

// Issue persists a new unused code for acc.
func (m *VerificationManager) Issue(ctx context.Context, repo repository.VerificationRepository, acc *domain.Account, now time.Time) (*domain.VerificationCode, error) {
	code, err := GenerateCode()
	if err != nil {
		return nil, err
	}
	vc := &domain.VerificationCode{
		AccountID: acc.ID,
		Code:      code,
		ExpiresAt: now.Add(m.ttl),
		CreatedAt: now,
	}
	if err := repo.Create(ctx, vc); err != nil {
		return nil, fmt.Errorf("failed to store verification code: %w", err)
	}
	return vc, nil
}

// PrepareResend enforces the resend rules and invalidates outstanding codes.
// The caller issues the replacement in the same transaction.
func (m *VerificationManager) PrepareResend(ctx context.Context, repo repository.VerificationRepository, acc *domain.Account, now time.Time) error {
	if acc.IsVerified {
		return ErrUserAlreadyVerified()
	}

	latest, err := repo.Latest(ctx, acc.ID)
	if err != nil {
		return fmt.Errorf("failed to load latest verification code: %w", err)
	}
	if latest != nil && now.Sub(latest.CreatedAt) < m.cooldown {
		return ErrVerificationCodeRecentlySent()
	}

	if _, err := repo.InvalidateActive(ctx, acc.ID); err != nil {
		return fmt.Errorf("failed to invalidate verification codes: %w", err)
	}
	return nil
}

// Consume checks presented against the current code. On a match the code is
// marked used and acc is flagged verified; the caller persists acc in the same
// transaction.
func (m *VerificationManager) Consume(ctx context.Context, repo repository.VerificationRepository, acc *domain.Account, presented string, now time.Time) error {
	current, err := repo.LatestActive(ctx, acc.ID, now)
	if err != nil {
		return fmt.Errorf("failed to load verification code: %w", err)
	}
	if current == nil || subtle.ConstantTimeCompare([]byte(current.Code), []byte(presented)) != 1 {
		return ErrInvalidOrExpiredCode()
	}

	if err := repo.MarkUsed(ctx, current.ID); err != nil {
		return fmt.Errorf("failed to mark verification code used: %w", err)
	}
	acc.IsVerified = true
	return nil
}

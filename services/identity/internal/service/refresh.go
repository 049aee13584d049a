package service

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/diagnosis/restaurant-management/services/identity/internal/domain"
	"github.com/diagnosis/restaurant-management/services/identity/internal/security"
)

const (
	refreshSecretBytes = 64
	defaultRefreshTTL  = 30 * 24 * time.Hour
)

var (
	ErrRefreshExpired  = errors.New("refresh token missing or expired")
	ErrRefreshMismatch = errors.New("refresh token does not match")
)

// RefreshManager issues opaque refresh secrets and keeps only their hash on
// the account. Hash and expiry are always written and cleared together.
type RefreshManager struct {
	hasher security.Hasher
	ttl    time.Duration
}

func NewRefreshManager(hasher security.Hasher, ttl time.Duration) *RefreshManager {
	if ttl <= 0 {
		ttl = defaultRefreshTTL
	}
	return &RefreshManager{hasher: hasher, ttl: ttl}
}

func (m *RefreshManager) TTL() time.Duration {
	return m.ttl
}

// Generate returns 64 random bytes, base64 encoded.
func (m *RefreshManager) Generate() (string, error) {
	b := make([]byte, refreshSecretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// Rotate overwrites any previous refresh state on acc with secret.
func (m *RefreshManager) Rotate(acc *domain.Account, secret string, now time.Time) error {
	hash, err := m.hasher.Hash(secret)
	if err != nil {
		return fmt.Errorf("failed to hash refresh token: %w", err)
	}
	expiry := now.Add(m.ttl)
	acc.RefreshTokenHash = &hash
	acc.RefreshTokenExpiry = &expiry
	return nil
}

// Issue generates a fresh secret and rotates it onto acc.
func (m *RefreshManager) Issue(acc *domain.Account, now time.Time) (string, error) {
	secret, err := m.Generate()
	if err != nil {
		return "", err
	}
	if err := m.Rotate(acc, secret, now); err != nil {
		return "", err
	}
	return secret, nil
}

func (m *RefreshManager) Check(acc *domain.Account, secret string, now time.Time) error {
	if acc.RefreshTokenHash == nil || acc.RefreshTokenExpiry == nil || !now.Before(*acc.RefreshTokenExpiry) {
		return ErrRefreshExpired
	}
	if !m.hasher.Verify(secret, *acc.RefreshTokenHash) {
		return ErrRefreshMismatch
	}
	return nil
}

func (m *RefreshManager) Validate(acc *domain.Account, secret string, now time.Time) bool {
	return m.Check(acc, secret, now) == nil
}

func (m *RefreshManager) Clear(acc *domain.Account) {
	acc.RefreshTokenHash = nil
	acc.RefreshTokenExpiry = nil
}

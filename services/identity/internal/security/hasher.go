// Package security hashes passwords and refresh secrets.
package security

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"

	"github.com/diagnosis/restaurant-management/pkg/config"
)

const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

var ErrEmptySecret = errors.New("secret must not be empty")

// Hasher is a slow, salted one-way function. Verify returns false for any
// malformed or empty input instead of failing.
type Hasher interface {
	Hash(secret string) (string, error)
	Verify(secret, hash string) bool
}

type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(secret string) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}
	cost := h.Cost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(b), nil
}

func (h BcryptHasher) Verify(secret, hash string) bool {
	if secret == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

type Argon2idHasher struct {
	Params *argon2id.Params
}

func (h Argon2idHasher) Hash(secret string) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}
	params := h.Params
	if params == nil {
		params = argon2id.DefaultParams
	}
	hash, err := argon2id.CreateHash(secret, params)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return hash, nil
}

// Verify recovers from panics inside argon2, which a hash with zero
// iterations or parallelism would otherwise trigger.
func (h Argon2idHasher) Verify(secret, hash string) (ok bool) {
	if secret == "" || hash == "" {
		return false
	}
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	match, err := argon2id.ComparePasswordAndHash(secret, hash)
	return err == nil && match
}

// MultiHasher hashes with its primary algorithm and verifies any supported
// format by prefix, so existing hashes keep working after the primary changes.
type MultiHasher struct {
	primary Hasher
	bcrypt  BcryptHasher
	argon   Argon2idHasher
}

func NewHasher(primary string, bcryptCost int, params *argon2id.Params) (*MultiHasher, error) {
	m := &MultiHasher{
		bcrypt: BcryptHasher{Cost: bcryptCost},
		argon:  Argon2idHasher{Params: params},
	}
	switch strings.ToLower(strings.TrimSpace(primary)) {
	case AlgorithmBcrypt, "":
		m.primary = m.bcrypt
	case AlgorithmArgon2id:
		m.primary = m.argon
	default:
		return nil, fmt.Errorf("unknown password hasher %q", primary)
	}
	return m, nil
}

func (m *MultiHasher) Hash(secret string) (string, error) {
	return m.primary.Hash(secret)
}

func (m *MultiHasher) Verify(secret, hash string) bool {
	switch {
	case strings.HasPrefix(hash, "$2a$"), strings.HasPrefix(hash, "$2b$"), strings.HasPrefix(hash, "$2y$"):
		return m.bcrypt.Verify(secret, hash)
	case strings.HasPrefix(hash, "$argon2id$"):
		return m.argon.Verify(secret, hash)
	default:
		return false
	}
}

// Argon2Params builds argon2id parameters from configuration.
func Argon2Params(cfg config.SecurityConfig) *argon2id.Params {
	p := *argon2id.DefaultParams
	if cfg.Argon2MemoryKiB > 0 {
		p.Memory = uint32(cfg.Argon2MemoryKiB)
	}
	if cfg.Argon2Iterations > 0 {
		p.Iterations = uint32(cfg.Argon2Iterations)
	}
	if cfg.Argon2Parallelism > 0 && cfg.Argon2Parallelism <= 255 {
		p.Parallelism = uint8(cfg.Argon2Parallelism)
	}
	return &p
}

// NewPasswordHasher returns the configured password hasher.
func NewPasswordHasher(cfg config.SecurityConfig) (*MultiHasher, error) {
	return NewHasher(cfg.PasswordHasher, cfg.BcryptCost, Argon2Params(cfg))
}

// NewRefreshHasher always uses argon2id: refresh secrets are 88 characters and
// bcrypt only looks at the first 72 bytes.
func NewRefreshHasher(cfg config.SecurityConfig) Argon2idHasher {
	return Argon2idHasher{Params: Argon2Params(cfg)}
}

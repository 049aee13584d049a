package service

import (
	"time"

	"github.com/diagnosis/restaurant-management/services/identity/internal/domain"
)

const (
	defaultMaxFailedAttempts = 5
	defaultLockoutDuration   = 15 * time.Minute
)

// LockoutPolicy locks an account for Duration after MaxAttempts consecutive
// failed password checks.
type LockoutPolicy struct {
	MaxAttempts int
	Duration    time.Duration
}

func NewLockoutPolicy(maxAttempts int, duration time.Duration) LockoutPolicy {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxFailedAttempts
	}
	if duration <= 0 {
		duration = defaultLockoutDuration
	}
	return LockoutPolicy{MaxAttempts: maxAttempts, Duration: duration}
}

func (p LockoutPolicy) IsLocked(acc *domain.Account, now time.Time) bool {
	return acc.LockedUntil != nil && acc.LockedUntil.After(now)
}

// RegisterFailure counts a failed attempt and reports whether it engaged the
// lock. The counter restarts from zero whenever the lock is set.
func (p LockoutPolicy) RegisterFailure(acc *domain.Account, now time.Time) bool {
	acc.FailedLoginAttempts++
	if acc.FailedLoginAttempts < p.MaxAttempts {
		return false
	}
	until := now.Add(p.Duration)
	acc.LockedUntil = &until
	acc.FailedLoginAttempts = 0
	return true
}

func (p LockoutPolicy) RegisterSuccess(acc *domain.Account) {
	acc.FailedLoginAttempts = 0
	acc.LockedUntil = nil
}

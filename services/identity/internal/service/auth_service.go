package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/diagnosis/restaurant-management/pkg/auth"
	"github.com/diagnosis/restaurant-management/pkg/events"
	"github.com/diagnosis/restaurant-management/pkg/logger"
	"github.com/diagnosis/restaurant-management/pkg/metrics"
	"github.com/diagnosis/restaurant-management/services/identity/internal/domain"
	"github.com/diagnosis/restaurant-management/services/identity/internal/mailer"
	"github.com/diagnosis/restaurant-management/services/identity/internal/repository"
	"github.com/diagnosis/restaurant-management/services/identity/internal/security"
)

const (
	MsgEmailVerified    = "Email verified successfully."
	MsgVerificationSent = "Verification code resent. Please check your email."
)

type AuthService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.RegisterResponse, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error)
	RefreshToken(ctx context.Context, req *domain.RefreshRequest) (*domain.AuthResponse, error)
	VerifyEmail(ctx context.Context, req *domain.VerifyEmailRequest) (string, error)
	ResendVerification(ctx context.Context, req *domain.ResendVerificationRequest) (string, error)
}

// TokenIssuer signs access tokens. *auth.Issuer satisfies it.
type TokenIssuer interface {
	Issue(id auth.Identity, roles []string) (string, time.Time, error)
}

type authService struct {
	store        repository.Store
	passwords    security.Hasher
	tokens       TokenIssuer
	refresh      *RefreshManager
	lockout      LockoutPolicy
	verification *VerificationManager
	mailer       mailer.Service
	eventBus     events.Publisher
	now          func() time.Time
}

func NewAuthService(
	store repository.Store,
	passwords security.Hasher,
	tokens TokenIssuer,
	refresh *RefreshManager,
	lockout LockoutPolicy,
	verification *VerificationManager,
	mailer mailer.Service,
	eventBus events.Publisher,
) AuthService {
	return &authService{
		store:        store,
		passwords:    passwords,
		tokens:       tokens,
		refresh:      refresh,
		lockout:      lockout,
		verification: verification,
		mailer:       mailer,
		eventBus:     eventBus,
		now:          time.Now,
	}
}

func (s *authService) clock() time.Time {
	return s.now().UTC()
}

func (s *authService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.RegisterResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	passwordHash, err := s.passwords.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.clock()
	var (
		acc  *domain.Account
		code *domain.VerificationCode
	)
	err = s.store.InTx(ctx, func(st repository.Store) error {
		existing, err := st.Accounts().FindByEmail(ctx, req.Email)
		if err != nil {
			return fmt.Errorf("failed to check existing account: %w", err)
		}
		if existing != nil {
			return ErrEmailAlreadyRegistered()
		}

		acc = &domain.Account{
			Email:        req.Email,
			PhoneNumber:  req.PhoneNumber,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			PasswordHash: passwordHash,
			IsActive:     true,
		}
		if err := st.Accounts().Create(ctx, acc); err != nil {
			if errors.Is(err, repository.ErrDuplicateEmail) {
				return ErrEmailAlreadyRegistered()
			}
			return fmt.Errorf("failed to create account: %w", err)
		}

		code, err = s.verification.Issue(ctx, st.Verifications(), acc, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.VerificationCodesIssued.Inc()

	// Registration stands even if delivery fails; the user can request a resend.
	if err := s.mailer.SendVerificationEmail(ctx, acc.Email, acc.FullName(), code.Code); err != nil {
		metrics.EmailSendFailures.Inc()
		logger.ErrorContext(ctx, "Failed to send verification email", "error", err, "user_id", acc.ID)
	}

	events.Emit(ctx, s.eventBus, events.UserRegistered, events.UserRegisteredEvent{
		UserID:       acc.ID,
		Email:        acc.Email,
		RegisteredAt: now,
	})

	logger.InfoContext(ctx, "Account registered", "user_id", acc.ID)
	return acc.ToRegisterResponse(), nil
}

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.clock()
	var (
		resp     *domain.AuthResponse
		acc      *domain.Account
		rejected error
		locked   bool
	)
	err := s.store.InTx(ctx, func(st repository.Store) error {
		var err error
		acc, err = st.Accounts().FindByEmailForUpdate(ctx, req.Email)
		if err != nil {
			return fmt.Errorf("failed to find account: %w", err)
		}
		if acc == nil {
			metrics.LoginAttempts.WithLabelValues("not_found").Inc()
			return ErrUserNotFound(http.StatusBadRequest)
		}
		if !acc.IsVerified {
			metrics.LoginAttempts.WithLabelValues("not_verified").Inc()
			return ErrUserNotVerified()
		}
		if s.lockout.IsLocked(acc, now) {
			metrics.LoginAttempts.WithLabelValues("locked").Inc()
			return ErrAccountLocked(*acc.LockedUntil)
		}

		if !s.passwords.Verify(req.Password, acc.PasswordHash) {
			metrics.LoginAttempts.WithLabelValues("invalid_password").Inc()
			locked = s.lockout.RegisterFailure(acc, now)
			if err := st.Accounts().Update(ctx, acc); err != nil {
				return fmt.Errorf("failed to record failed login: %w", err)
			}
			// Commit the counter; the rejection is returned after the transaction.
			rejected = ErrInvalidPassword()
			return nil
		}

		s.lockout.RegisterSuccess(acc)
		acc.LastLoginAt = &now

		resp, err = s.issueSession(ctx, st, acc, now)
		if err != nil {
			return err
		}
		if err := st.Accounts().Update(ctx, acc); err != nil {
			return fmt.Errorf("failed to update account: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if locked {
		metrics.AccountLockouts.Inc()
		logger.WarnContext(ctx, "Account locked after repeated failed logins", "user_id", acc.ID, "locked_until", acc.LockedUntil)
		events.Emit(ctx, s.eventBus, events.AccountLocked, events.AccountLockedEvent{
			UserID:      acc.ID,
			Email:       acc.Email,
			LockedUntil: *acc.LockedUntil,
		})
	}
	if rejected != nil {
		return nil, rejected
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	return resp, nil
}

func (s *authService) RefreshToken(ctx context.Context, req *domain.RefreshRequest) (*domain.AuthResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.clock()
	var resp *domain.AuthResponse
	err := s.store.InTx(ctx, func(st repository.Store) error {
		acc, err := st.Accounts().FindByEmailForUpdate(ctx, req.Email)
		if err != nil {
			return fmt.Errorf("failed to find account: %w", err)
		}
		if acc == nil {
			return ErrInvalidOrExpiredToken()
		}

		switch err := s.refresh.Check(acc, req.RefreshToken, now); {
		case errors.Is(err, ErrRefreshExpired):
			return ErrInvalidOrExpiredToken()
		case errors.Is(err, ErrRefreshMismatch):
			return ErrInvalidRefreshToken()
		}

		resp, err = s.issueSession(ctx, st, acc, now)
		if err != nil {
			return err
		}
		if err := st.Accounts().Update(ctx, acc); err != nil {
			return fmt.Errorf("failed to update account: %w", err)
		}
		return nil
	})
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues("rejected").Inc()
		return nil, err
	}

	metrics.TokenRefreshes.WithLabelValues("success").Inc()
	return resp, nil
}

// issueSession signs an access token with the account's current roles and
// rotates its refresh secret. The caller persists acc.
func (s *authService) issueSession(ctx context.Context, st repository.Store, acc *domain.Account, now time.Time) (*domain.AuthResponse, error) {
	grants, err := st.Roles().ListForAccount(ctx, acc.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roles: %w", err)
	}
	roles := make([]string, 0, len(grants))
	for _, g := range grants {
		roles = append(roles, g.Role)
	}

	token, _, err := s.tokens.Issue(auth.Identity{ID: acc.ID, Email: acc.Email, Name: acc.FullName()}, roles)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	secret, err := s.refresh.Issue(acc, now)
	if err != nil {
		return nil, err
	}

	return &domain.AuthResponse{
		UserID:       acc.ID,
		Email:        acc.Email,
		FirstName:    acc.FirstName,
		LastName:     acc.LastName,
		Token:        token,
		RefreshToken: secret,
	}, nil
}

func (s *authService) VerifyEmail(ctx context.Context, req *domain.VerifyEmailRequest) (string, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return "", err
	}

	now := s.clock()
	var accountID uuid.UUID
	err := s.store.InTx(ctx, func(st repository.Store) error {
		acc, err := st.Accounts().FindByEmailForUpdate(ctx, req.Email)
		if err != nil {
			return fmt.Errorf("failed to find account: %w", err)
		}
		if acc == nil {
			return ErrUserNotFound(http.StatusBadRequest)
		}

		if err := s.verification.Consume(ctx, st.Verifications(), acc, req.Code, now); err != nil {
			return err
		}
		if err := st.Accounts().Update(ctx, acc); err != nil {
			return fmt.Errorf("failed to mark account verified: %w", err)
		}
		accountID = acc.ID
		return nil
	})
	if err != nil {
		return "", err
	}

	events.Emit(ctx, s.eventBus, events.UserVerified, events.UserVerifiedEvent{
		UserID:     accountID,
		Email:      req.Email,
		VerifiedAt: now,
	})
	return MsgEmailVerified, nil
}

func (s *authService) ResendVerification(ctx context.Context, req *domain.ResendVerificationRequest) (string, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return "", err
	}

	now := s.clock()
	var (
		acc  *domain.Account
		code *domain.VerificationCode
	)
	err := s.store.InTx(ctx, func(st repository.Store) error {
		var err error
		acc, err = st.Accounts().FindByEmailForUpdate(ctx, req.Email)
		if err != nil {
			return fmt.Errorf("failed to find account: %w", err)
		}
		if acc == nil {
			return ErrUserNotFound(http.StatusNotFound)
		}

		if err := s.verification.PrepareResend(ctx, st.Verifications(), acc, now); err != nil {
			return err
		}
		code, err = s.verification.Issue(ctx, st.Verifications(), acc, now)
		return err
	})
	if err != nil {
		return "", err
	}
	metrics.VerificationCodesIssued.Inc()

	// The new code stays committed; the caller is told delivery failed.
	if err := s.mailer.SendVerificationEmail(ctx, acc.Email, acc.FullName(), code.Code); err != nil {
		metrics.EmailSendFailures.Inc()
		logger.ErrorContext(ctx, "Failed to send verification email", "error", err, "user_id", acc.ID)
		return "", ErrEmailSendingFailed(err)
	}
	return MsgVerificationSent, nil
}

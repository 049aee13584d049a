package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/diagnosis/restaurant-management/pkg/apperr"
	"github.com/diagnosis/restaurant-management/pkg/auth"
	"github.com/diagnosis/restaurant-management/pkg/events"
	"github.com/diagnosis/restaurant-management/services/identity/internal/domain"
	"github.com/diagnosis/restaurant-management/services/identity/internal/security"
)

const testPassword = "Secret1!pass"

type fixture struct {
	svc    *authService
	store  *memStore
	mail   *fakeMailer
	bus    *fakeBus
	issuer *auth.Issuer
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	issuer, err := auth.NewIssuer(auth.IssuerConfig{Key: "test-signing-key", Issuer: "restaurant", Audience: "restaurant-api", TTL: time.Hour})
	require.NoError(t, err)

	f := &fixture{
		store:  newMemStore(),
		mail:   &fakeMailer{},
		bus:    &fakeBus{},
		issuer: issuer,
		now:    time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}

	refreshHasher := security.Argon2idHasher{Params: &argon2id.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}}
	svc := NewAuthService(
		f.store,
		security.BcryptHasher{Cost: bcrypt.MinCost},
		issuer,
		NewRefreshManager(refreshHasher, 30*24*time.Hour),
		NewLockoutPolicy(5, 15*time.Minute),
		NewVerificationManager(15*time.Minute, 60*time.Second),
		f.mail,
		f.bus,
	).(*authService)
	svc.now = func() time.Time { return f.now }
	f.svc = svc
	return f
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func (f *fixture) register(t *testing.T, email string) *domain.RegisterResponse {
	t.Helper()
	resp, err := f.svc.Register(context.Background(), &domain.RegisterRequest{
		Email:     email,
		Password:  testPassword,
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	require.NoError(t, err)
	return resp
}

func (f *fixture) registerVerified(t *testing.T, email string) *domain.RegisterResponse {
	t.Helper()
	resp := f.register(t, email)
	_, err := f.svc.VerifyEmail(context.Background(), &domain.VerifyEmailRequest{Email: email, Code: f.mail.last().code})
	require.NoError(t, err)
	return resp
}

func (f *fixture) login(email, password string) (*domain.AuthResponse, error) {
	return f.svc.Login(context.Background(), &domain.LoginRequest{Email: email, Password: password})
}

func assertKind(t *testing.T, err error, kind apperr.Kind, status int) {
	t.Helper()
	appErr, ok := apperr.As(err)
	require.Truef(t, ok, "expected business error %s, got %v", kind, err)
	assert.Equal(t, kind, appErr.Kind)
	assert.Equal(t, status, appErr.Status)
}

func TestRegister_CreatesUnverifiedAccountAndCode(t *testing.T) {
	f := newFixture(t)
	resp := f.register(t, "  New.User@Example.com ")

	assert.Equal(t, "new.user@example.com", resp.Email)
	require.Len(t, f.store.accounts, 1)

	acc := f.store.accounts[resp.UserID]
	assert.False(t, acc.IsVerified)
	assert.True(t, acc.IsActive)
	assert.NotEqual(t, testPassword, acc.PasswordHash)

	codes := f.store.codesFor(resp.UserID)
	require.Len(t, codes, 1)
	assert.False(t, codes[0].IsUsed)
	assert.Equal(t, f.now.Add(15*time.Minute), codes[0].ExpiresAt)
	assert.Len(t, codes[0].Code, 6)

	require.Len(t, f.mail.sent, 1)
	assert.Equal(t, codes[0].Code, f.mail.last().code)
	assert.Equal(t, "Ada Lovelace", f.mail.last().name)
	assert.Equal(t, 1, f.bus.count(events.UserRegistered))
}

func TestRegister_DuplicateEmailIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	f.register(t, "dup@example.com")

	_, err := f.svc.Register(context.Background(), &domain.RegisterRequest{
		Email: " DUP@Example.COM", Password: testPassword, FirstName: "B", LastName: "C",
	})
	assertKind(t, err, apperr.KindEmailAlreadyRegistered, http.StatusBadRequest)
	assert.Len(t, f.store.accounts, 1)
}

func TestRegister_EmailFailureDoesNotFail(t *testing.T) {
	f := newFixture(t)
	f.mail.err = errors.New("smtp down")

	resp := f.register(t, "quiet@example.com")
	assert.Len(t, f.store.codesFor(resp.UserID), 1)
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Register(context.Background(), &domain.RegisterRequest{
		Email: "weak@example.com", Password: "password", FirstName: "A", LastName: "B",
	})
	assertKind(t, err, apperr.KindValidation, http.StatusBadRequest)
	assert.Empty(t, f.store.accounts)
}

func TestRegister_RollsBackWhenCodeCannotBeStored(t *testing.T) {
	f := newFixture(t)
	f.store.failCodeCreate = errors.New("disk full")

	_, err := f.svc.Register(context.Background(), &domain.RegisterRequest{
		Email: "atomic@example.com", Password: testPassword, FirstName: "A", LastName: "B",
	})
	require.Error(t, err)
	_, isBusiness := apperr.As(err)
	assert.False(t, isBusiness)
	assert.Empty(t, f.store.accounts)
	assert.Empty(t, f.mail.sent)
}

func TestLogin_CaseInsensitiveEmail(t *testing.T) {
	f := newFixture(t)
	reg := f.registerVerified(t, "Test@Example.com")
	f.store.roles[reg.UserID] = []domain.RoleGrant{{Role: domain.RoleOwner}, {Role: domain.RoleOwner}, {Role: domain.RoleAdmin}}

	resp, err := f.login("test@example.com", testPassword)
	require.NoError(t, err)

	assert.Equal(t, reg.UserID, resp.UserID)
	assert.Equal(t, "Ada", resp.FirstName)
	assert.NotEmpty(t, resp.RefreshToken)

	claims, err := f.issuer.Parse(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.UserID.String(), claims.Subject)
	assert.ElementsMatch(t, []string{domain.RoleOwner, domain.RoleAdmin}, claims.Roles)

	acc := f.store.accounts[reg.UserID]
	require.NotNil(t, acc.LastLoginAt)
	assert.Equal(t, f.now, *acc.LastLoginAt)
	require.NotNil(t, acc.RefreshTokenHash)
	require.NotNil(t, acc.RefreshTokenExpiry)
	assert.Equal(t, f.now.Add(30*24*time.Hour), *acc.RefreshTokenExpiry)
}

func TestLogin_Errors(t *testing.T) {
	f := newFixture(t)
	f.register(t, "unverified@example.com")

	_, err := f.login("nobody@example.com", testPassword)
	assertKind(t, err, apperr.KindUserNotFound, http.StatusBadRequest)

	_, err = f.login("unverified@example.com", testPassword)
	assertKind(t, err, apperr.KindUserNotVerified, http.StatusUnauthorized)
}

func TestLogin_FailedAttemptIsPersisted(t *testing.T) {
	f := newFixture(t)
	reg := f.registerVerified(t, "count@example.com")

	_, err := f.login("count@example.com", "Wrong1!pass")
	assertKind(t, err, apperr.KindInvalidPassword, http.StatusUnauthorized)
	assert.Equal(t, 1, f.store.accounts[reg.UserID].FailedLoginAttempts)

	_, err = f.login("count@example.com", testPassword)
	require.NoError(t, err)
	assert.Equal(t, 0, f.store.accounts[reg.UserID].FailedLoginAttempts)
}

func TestLogin_LockoutAfterFiveFailures(t *testing.T) {
	f := newFixture(t)
	reg := f.registerVerified(t, "lock@example.com")

	for i := 0; i < 5; i++ {
		_, err := f.login("lock@example.com", "Wrong1!pass")
		assertKind(t, err, apperr.KindInvalidPassword, http.StatusUnauthorized)
	}

	acc := f.store.accounts[reg.UserID]
	require.NotNil(t, acc.LockedUntil)
	assert.Equal(t, f.now.Add(15*time.Minute), *acc.LockedUntil)
	assert.Equal(t, 0, acc.FailedLoginAttempts)
	assert.Equal(t, 1, f.bus.count(events.AccountLocked))

	// Correct password is still rejected while locked.
	_, err := f.login("lock@example.com", testPassword)
	assertKind(t, err, apperr.KindAccountLocked, http.StatusLocked)
	assert.True(t, strings.HasPrefix(err.Error(), "Account locked until "))

	f.advance(15*time.Minute + time.Second)
	_, err = f.login("lock@example.com", testPassword)
	require.NoError(t, err)

	acc = f.store.accounts[reg.UserID]
	assert.Nil(t, acc.LockedUntil)
	assert.Equal(t, 0, acc.FailedLoginAttempts)
}

func TestRefreshToken_Rotation(t *testing.T) {
	f := newFixture(t)
	f.registerVerified(t, "rot@example.com")

	first, err := f.login("rot@example.com", testPassword)
	require.NoError(t, err)

	second, err := f.svc.RefreshToken(context.Background(), &domain.RefreshRequest{Email: "ROT@example.com", RefreshToken: first.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.NotEmpty(t, second.Token)

	_, err = f.svc.RefreshToken(context.Background(), &domain.RefreshRequest{Email: "rot@example.com", RefreshToken: first.RefreshToken})
	assertKind(t, err, apperr.KindInvalidRefreshToken, http.StatusUnauthorized)

	_, err = f.svc.RefreshToken(context.Background(), &domain.RefreshRequest{Email: "rot@example.com", RefreshToken: second.RefreshToken})
	require.NoError(t, err)
}

func TestRefreshToken_Invalid(t *testing.T) {
	f := newFixture(t)
	f.registerVerified(t, "exp@example.com")

	// Verified but never logged in: no refresh state.
	_, err := f.svc.RefreshToken(context.Background(), &domain.RefreshRequest{Email: "exp@example.com", RefreshToken: "abc"})
	assertKind(t, err, apperr.KindInvalidOrExpiredToken, http.StatusUnauthorized)

	_, err = f.svc.RefreshToken(context.Background(), &domain.RefreshRequest{Email: "ghost@example.com", RefreshToken: "abc"})
	assertKind(t, err, apperr.KindInvalidOrExpiredToken, http.StatusUnauthorized)

	resp, err := f.login("exp@example.com", testPassword)
	require.NoError(t, err)

	f.advance(30*24*time.Hour + time.Second)
	_, err = f.svc.RefreshToken(context.Background(), &domain.RefreshRequest{Email: "exp@example.com", RefreshToken: resp.RefreshToken})
	assertKind(t, err, apperr.KindInvalidOrExpiredToken, http.StatusUnauthorized)
}

func TestVerifyEmail(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "verify@example.com")
	code := f.mail.last().code
	wrong := "100000"
	if code == wrong {
		wrong = "100001"
	}

	for _, bad := range []string{wrong, "12345", "abcdef"} {
		_, err := f.svc.VerifyEmail(context.Background(), &domain.VerifyEmailRequest{Email: "verify@example.com", Code: bad})
		assertKind(t, err, apperr.KindInvalidOrExpiredCode, http.StatusUnauthorized)
	}
	assert.False(t, f.store.codesFor(reg.UserID)[0].IsUsed, "wrong codes leave the active code usable")

	_, err := f.svc.VerifyEmail(context.Background(), &domain.VerifyEmailRequest{Email: "verify@example.com", Code: "1234567"})
	assertKind(t, err, apperr.KindValidation, http.StatusBadRequest)

	_, err = f.svc.VerifyEmail(context.Background(), &domain.VerifyEmailRequest{Email: "missing@example.com", Code: code})
	assertKind(t, err, apperr.KindUserNotFound, http.StatusBadRequest)

	msg, err := f.svc.VerifyEmail(context.Background(), &domain.VerifyEmailRequest{Email: " Verify@Example.com", Code: code})
	require.NoError(t, err)
	assert.Equal(t, MsgEmailVerified, msg)
	assert.True(t, f.store.accounts[reg.UserID].IsVerified)
	assert.True(t, f.store.codesFor(reg.UserID)[0].IsUsed)
	assert.Equal(t, 1, f.bus.count(events.UserVerified))

	// A used code cannot be replayed.
	_, err = f.svc.VerifyEmail(context.Background(), &domain.VerifyEmailRequest{Email: "verify@example.com", Code: code})
	assertKind(t, err, apperr.KindInvalidOrExpiredCode, http.StatusUnauthorized)
}

func TestVerifyEmail_ExpiredCode(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "late@example.com")
	code := f.mail.last().code

	f.advance(15 * time.Minute)
	_, err := f.svc.VerifyEmail(context.Background(), &domain.VerifyEmailRequest{Email: "late@example.com", Code: code})
	assertKind(t, err, apperr.KindInvalidOrExpiredCode, http.StatusUnauthorized)
	assert.False(t, f.store.accounts[reg.UserID].IsVerified)
}

func TestResendVerification(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "resend@example.com")
	req := func() error {
		_, err := f.svc.ResendVerification(context.Background(), &domain.ResendVerificationRequest{Email: "resend@example.com"})
		return err
	}

	assertKind(t, req(), apperr.KindVerificationCodeRecentlySent, http.StatusTooManyRequests)

	f.advance(61 * time.Second)
	require.NoError(t, req())

	codes := f.store.codesFor(reg.UserID)
	require.Len(t, codes, 2)
	assert.True(t, codes[0].IsUsed, "previous code should be invalidated")
	assert.False(t, codes[1].IsUsed)
	assert.Equal(t, codes[1].Code, f.mail.last().code)

	assertKind(t, req(), apperr.KindVerificationCodeRecentlySent, http.StatusTooManyRequests)

	// The first code no longer verifies; the resent one does.
	_, err := f.svc.VerifyEmail(context.Background(), &domain.VerifyEmailRequest{Email: "resend@example.com", Code: codes[0].Code})
	if codes[0].Code != codes[1].Code {
		assertKind(t, err, apperr.KindInvalidOrExpiredCode, http.StatusUnauthorized)
	}
	_, err = f.svc.VerifyEmail(context.Background(), &domain.VerifyEmailRequest{Email: "resend@example.com", Code: codes[1].Code})
	require.NoError(t, err)

	f.advance(2 * time.Minute)
	assertKind(t, req(), apperr.KindUserAlreadyVerified, http.StatusBadRequest)
}

func TestResendVerification_Errors(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ResendVerification(context.Background(), &domain.ResendVerificationRequest{Email: "nobody@example.com"})
	assertKind(t, err, apperr.KindUserNotFound, http.StatusNotFound)

	reg := f.register(t, "fail@example.com")
	f.advance(2 * time.Minute)
	f.mail.err = errors.New("provider rejected")

	_, err = f.svc.ResendVerification(context.Background(), &domain.ResendVerificationRequest{Email: "fail@example.com"})
	assertKind(t, err, apperr.KindEmailSendingFailed, http.StatusInternalServerError)

	codes := f.store.codesFor(reg.UserID)
	require.Len(t, codes, 2, "new code stays persisted after a delivery failure")
	assert.False(t, codes[1].IsUsed)
}

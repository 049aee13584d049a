package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/diagnosis/restaurant-management/pkg/validation"
)

type Account struct {
	ID                  uuid.UUID  `json:"id"`
	Email               string     `json:"email"`
	PhoneNumber         *string    `json:"phone_number,omitempty"`
	FirstName           string     `json:"first_name"`
	LastName            string     `json:"last_name"`
	PasswordHash        string     `json:"-"`
	RefreshTokenHash    *string    `json:"-"`
	RefreshTokenExpiry  *time.Time `json:"-"`
	FailedLoginAttempts int        `json:"-"`
	LockedUntil         *time.Time `json:"locked_until,omitempty"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`
	IsActive            bool       `json:"is_active"`
	IsVerified          bool       `json:"is_verified"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func (a *Account) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// VerificationCode is a single-use numeric code proving email ownership.
// Rows are marked used, never deleted.
type VerificationCode struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	Code      string
	ExpiresAt time.Time
	IsUsed    bool
	CreatedAt time.Time
}

// Active reports whether the code can still be consumed at now.
func (c *VerificationCode) Active(now time.Time) bool {
	return !c.IsUsed && now.Before(c.ExpiresAt)
}

// RoleGrant is a role held by an account, optionally scoped to an
// organization or location. Identity only reads these to fill token claims.
type RoleGrant struct {
	Role           string
	OrganizationID *uuid.UUID
	LocationID     *uuid.UUID
}

// Role names shared with the organization and menu services.
const (
	RoleOwner   = "Owner"
	RoleAdmin   = "Admin"
	RoleManager = "Manager"
	RoleStaff   = "Staff"
)

type RegisterRequest struct {
	Email       string  `json:"email" validate:"required,email,max=320"`
	PhoneNumber *string `json:"phoneNumber,omitempty" validate:"omitempty,max=20,phone"`
	Password    string  `json:"password" validate:"required,min=8,max=72,password"`
	FirstName   string  `json:"firstName" validate:"required,max=100"`
	LastName    string  `json:"lastName" validate:"required,max=100"`
}

func (r *RegisterRequest) Normalize() {
	r.Email = validation.NormalizeEmail(r.Email)
	r.PhoneNumber = validation.TrimPtr(r.PhoneNumber)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
}

func (r *RegisterRequest) Validate() error {
	return validation.Struct(r)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=320"`
	Password string `json:"password" validate:"required,max=72"`
}

func (r *LoginRequest) Normalize() {
	r.Email = validation.NormalizeEmail(r.Email)
}

func (r *LoginRequest) Validate() error {
	return validation.Struct(r)
}

type RefreshRequest struct {
	Email        string `json:"email" validate:"required,email,max=320"`
	RefreshToken string `json:"refreshToken" validate:"required,max=512"`
}

func (r *RefreshRequest) Normalize() {
	r.Email = validation.NormalizeEmail(r.Email)
	r.RefreshToken = strings.TrimSpace(r.RefreshToken)
}

func (r *RefreshRequest) Validate() error {
	return validation.Struct(r)
}

type VerifyEmailRequest struct {
	Email string `json:"email" validate:"required,email,max=320"`
	Code  string `json:"code" validate:"required,max=6"`
}

func (r *VerifyEmailRequest) Normalize() {
	r.Email = validation.NormalizeEmail(r.Email)
	r.Code = strings.TrimSpace(r.Code)
}

func (r *VerifyEmailRequest) Validate() error {
	return validation.Struct(r)
}

type ResendVerificationRequest struct {
	Email string `json:"email" validate:"required,email,max=320"`
}

func (r *ResendVerificationRequest) Normalize() {
	r.Email = validation.NormalizeEmail(r.Email)
}

func (r *ResendVerificationRequest) Validate() error {
	return validation.Struct(r)
}

type RegisterResponse struct {
	UserID      uuid.UUID `json:"userId"`
	Email       string    `json:"email"`
	PhoneNumber *string   `json:"phoneNumber,omitempty"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
}

// AuthResponse is returned by login and refresh.
type AuthResponse struct {
	UserID       uuid.UUID `json:"userId"`
	Email        string    `json:"email"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Token        string    `json:"token"`
	RefreshToken string    `json:"refreshToken"`
}

func (a *Account) ToRegisterResponse() *RegisterResponse {
	return &RegisterResponse{
		UserID:      a.ID,
		Email:       a.Email,
		PhoneNumber: a.PhoneNumber,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
	}
}

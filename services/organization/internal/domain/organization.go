package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/diagnosis/restaurant-management/pkg/validation"
)

const (
	PlanTrial        = "TRIAL"
	TrialLength      = 30 * 24 * time.Hour
	TrialMaxLocation = 1
)

// Role names stored in user_roles.
const (
	RoleOwner   = "Owner"
	RoleAdmin   = "Admin"
	RoleManager = "Manager"
	RoleStaff   = "Staff"
)

type Organization struct {
	ID             uuid.UUID
	Name           string
	Description    *string
	LogoURL        *string
	PrimaryColor   *string
	SecondaryColor *string
	AccentColor    *string
	CreatedBy      uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Settings holds the plan an organization is on.
type Settings struct {
	OrganizationID uuid.UUID
	PlanType       string
	MaxLocations   int
	TrialEndDate   *time.Time
	IsTrialActive  bool
}

// TrialSettings returns the settings every new organization starts with.
func TrialSettings(orgID uuid.UUID, now time.Time) Settings {
	end := now.Add(TrialLength)
	return Settings{
		OrganizationID: orgID,
		PlanType:       PlanTrial,
		MaxLocations:   TrialMaxLocation,
		TrialEndDate:   &end,
		IsTrialActive:  true,
	}
}

// RoleGrant mirrors a user_roles row.
type RoleGrant struct {
	UserID         uuid.UUID
	Role           string
	OrganizationID *uuid.UUID
	LocationID     *uuid.UUID
}

type CreateOrganizationRequest struct {
	Name           string  `json:"name" validate:"required,max=200"`
	Description    *string `json:"description,omitempty" validate:"omitempty,max=1000"`
	LogoURL        *string `json:"logoUrl,omitempty" validate:"omitempty,url,max=512"`
	PrimaryColor   *string `json:"primaryColor,omitempty" validate:"omitempty,hexcolor6"`
	SecondaryColor *string `json:"secondaryColor,omitempty" validate:"omitempty,hexcolor6"`
	AccentColor    *string `json:"accentColor,omitempty" validate:"omitempty,hexcolor6"`

	// First location, created alongside the organization.
	LocationName string  `json:"locationName" validate:"required,max=150"`
	Address      string  `json:"address" validate:"required,max=255"`
	City         string  `json:"city" validate:"required,max=120"`
	State        *string `json:"state,omitempty" validate:"omitempty,max=120"`
	PostalCode   *string `json:"postalCode,omitempty" validate:"omitempty,max=20"`
	Country      string  `json:"country" validate:"required,max=120"`
	PhoneNumber  *string `json:"phoneNumber,omitempty" validate:"omitempty,max=30,phone"`
}

func (r *CreateOrganizationRequest) Normalize() {
	r.Name = validation.Sanitize(r.Name)
	r.Description = validation.SanitizePtr(r.Description)
	r.LogoURL = validation.TrimPtr(r.LogoURL)
	r.PrimaryColor = validation.TrimPtr(r.PrimaryColor)
	r.SecondaryColor = validation.TrimPtr(r.SecondaryColor)
	r.AccentColor = validation.TrimPtr(r.AccentColor)

	r.LocationName = validation.Sanitize(r.LocationName)
	r.Address = strings.TrimSpace(r.Address)
	r.City = strings.TrimSpace(r.City)
	r.State = validation.TrimPtr(r.State)
	r.PostalCode = validation.TrimPtr(r.PostalCode)
	r.Country = strings.TrimSpace(r.Country)
	r.PhoneNumber = validation.TrimPtr(r.PhoneNumber)
}

func (r *CreateOrganizationRequest) Validate() error {
	return validation.Struct(r)
}

// FirstLocation builds the location created with the organization.
func (r *CreateOrganizationRequest) FirstLocation(orgID uuid.UUID) *Location {
	return &Location{
		OrganizationID: orgID,
		Name:           r.LocationName,
		Address:        r.Address,
		City:           r.City,
		State:          r.State,
		PostalCode:     r.PostalCode,
		Country:        r.Country,
		PhoneNumber:    r.PhoneNumber,
		Status:         LocationActive,
	}
}

type OrganizationResponse struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Description    *string    `json:"description,omitempty"`
	LogoURL        *string    `json:"logoUrl,omitempty"`
	PrimaryColor   *string    `json:"primaryColor,omitempty"`
	SecondaryColor *string    `json:"secondaryColor,omitempty"`
	AccentColor    *string    `json:"accentColor,omitempty"`
	PlanType       string     `json:"planType"`
	MaxLocations   int        `json:"maxLocations"`
	TrialEndDate   *time.Time `json:"trialEndDate,omitempty"`
	IsTrialActive  bool       `json:"isTrialActive"`
}

func NewOrganizationResponse(org *Organization, s Settings) *OrganizationResponse {
	return &OrganizationResponse{
		ID:             org.ID,
		Name:           org.Name,
		Description:    org.Description,
		LogoURL:        org.LogoURL,
		PrimaryColor:   org.PrimaryColor,
		SecondaryColor: org.SecondaryColor,
		AccentColor:    org.AccentColor,
		PlanType:       s.PlanType,
		MaxLocations:   s.MaxLocations,
		TrialEndDate:   s.TrialEndDate,
		IsTrialActive:  s.IsTrialActive,
	}
}

package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/diagnosis/restaurant-management/pkg/validation"
)

// Roles allowed to manage menus.
const (
	RoleOwner = "Owner"
	RoleAdmin = "Admin"
)

type Menu struct {
	ID             uuid.UUID   `json:"id"`
	OrganizationID uuid.UUID   `json:"organizationId"`
	Name           string      `json:"name"`
	Description    *string     `json:"description"`
	IsActive       bool        `json:"isActive"`
	LocationIDs    []uuid.UUID `json:"locationIds"`
	CreatedAt      time.Time   `json:"-"`
	UpdatedAt      time.Time   `json:"-"`
}

// LocationRef is the slice of a location the menu service needs.
type LocationRef struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
}

type CreateMenuRequest struct {
	OrganizationID uuid.UUID   `json:"organizationId" validate:"required"`
	Name           string      `json:"name" validate:"required,max=100"`
	Description    *string     `json:"description,omitempty" validate:"omitempty,max=500"`
	LocationIDs    []uuid.UUID `json:"locationIds,omitempty"`
}

func (r *CreateMenuRequest) Normalize() {
	r.Name = validation.Sanitize(r.Name)
	r.Description = validation.SanitizePtr(r.Description)
}

func (r *CreateMenuRequest) Validate() error {
	return validation.Struct(r)
}

type UpdateMenuRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
	IsActive    bool    `json:"isActive"`
}

func (r *UpdateMenuRequest) Normalize() {
	r.Name = validation.Sanitize(r.Name)
	r.Description = validation.SanitizePtr(r.Description)
}

func (r *UpdateMenuRequest) Validate() error {
	return validation.Struct(r)
}

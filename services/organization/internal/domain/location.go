package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/diagnosis/restaurant-management/pkg/validation"
)

type LocationStatus string

const (
	LocationActive   LocationStatus = "Active"
	LocationInactive LocationStatus = "Inactive"
	LocationClosed   LocationStatus = "Closed"
)

type Location struct {
	ID             uuid.UUID      `json:"id"`
	OrganizationID uuid.UUID      `json:"organizationId"`
	Name           string         `json:"name"`
	Address        string         `json:"address"`
	City           string         `json:"city"`
	State          *string        `json:"state,omitempty"`
	PostalCode     *string        `json:"postalCode,omitempty"`
	Country        string         `json:"country"`
	PhoneNumber    *string        `json:"phoneNumber,omitempty"`
	Email          *string        `json:"email,omitempty"`
	Status         LocationStatus `json:"status"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// CountsTowardLimit reports whether the location uses a plan slot.
func (l *Location) CountsTowardLimit() bool {
	return l.Status != LocationClosed
}

type CreateLocationRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Address     string  `json:"address" validate:"required,max=255"`
	City        string  `json:"city" validate:"required,max=100"`
	State       *string `json:"state,omitempty" validate:"omitempty,max=100"`
	PostalCode  *string `json:"postalCode,omitempty" validate:"omitempty,max=20"`
	Country     string  `json:"country" validate:"required,max=100"`
	PhoneNumber *string `json:"phoneNumber,omitempty" validate:"omitempty,max=20,phone"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email,max=320"`
}

func (r *CreateLocationRequest) Normalize() {
	r.Name = validation.Sanitize(r.Name)
	r.Address = strings.TrimSpace(r.Address)
	r.City = strings.TrimSpace(r.City)
	r.State = validation.TrimPtr(r.State)
	r.PostalCode = validation.TrimPtr(r.PostalCode)
	r.Country = strings.TrimSpace(r.Country)
	r.PhoneNumber = validation.TrimPtr(r.PhoneNumber)
	if r.Email != nil {
		e := validation.NormalizeEmail(*r.Email)
		r.Email = validation.TrimPtr(&e)
	}
}

func (r *CreateLocationRequest) Validate() error {
	return validation.Struct(r)
}

// Apply copies the request onto l.
func (r *CreateLocationRequest) Apply(l *Location) {
	l.Name = r.Name
	l.Address = r.Address
	l.City = r.City
	l.State = r.State
	l.PostalCode = r.PostalCode
	l.Country = r.Country
	l.PhoneNumber = r.PhoneNumber
	l.Email = r.Email
}

type UpdateLocationRequest struct {
	CreateLocationRequest
	Status LocationStatus `json:"status" validate:"required,oneof=Active Inactive Closed"`
}

func (r *UpdateLocationRequest) Normalize() {
	r.CreateLocationRequest.Normalize()
	r.Status = LocationStatus(strings.TrimSpace(string(r.Status)))
}

func (r *UpdateLocationRequest) Validate() error {
	return validation.Struct(r)
}

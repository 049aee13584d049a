package service

import (
	"github.com/diagnosis/restaurant-management/pkg/apperr"
)

func ErrUserNotFound() *apperr.Error {
	return apperr.NotFound("User not found.")
}

func ErrOrganizationNotFound() *apperr.Error {
	return apperr.NotFound("Organization not found.")
}

func ErrLocationNotFound() *apperr.Error {
	return apperr.NotFound("Location not found.")
}

func ErrNotAccountOwner() *apperr.Error {
	return apperr.Forbidden("You can only create organizations for your own account.")
}

func ErrNotMember() *apperr.Error {
	return apperr.Forbidden("User is not a member of this organization.")
}

func ErrNotOwner() *apperr.Error {
	return apperr.Forbidden("Only the organization owner can manage locations.")
}

func ErrLocationLimitReached() *apperr.Error {
	return apperr.Forbidden("location limit reached for current plan")
}

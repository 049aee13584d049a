package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/diagnosis/restaurant-management/pkg/database"
	"github.com/diagnosis/restaurant-management/services/organization/internal/domain"
)

type userRepository struct {
	db database.DBTX
}

func (r *userRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

type organizationRepository struct {
	db database.DBTX
}

func (r *organizationRepository) Create(ctx context.Context, org *domain.Organization) error {
	const q = `
		INSERT INTO organizations (name, description, logo_url, primary_color, secondary_color, accent_color, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING id, created_at, updated_at`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return r.db.QueryRow(ctx, q,
		org.Name, org.Description, org.LogoURL, org.PrimaryColor, org.SecondaryColor, org.AccentColor,
		org.CreatedBy, org.CreatedAt,
	).Scan(&org.ID, &org.CreatedAt, &org.UpdatedAt)
}

func (r *organizationRepository) CreateSettings(ctx context.Context, s *domain.Settings) error {
	const q = `
		INSERT INTO organization_settings (organization_id, plan_type, max_locations, trial_end_date, is_trial_active)
		VALUES ($1, $2, $3, $4, $5)`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if _, err := r.db.Exec(ctx, q, s.OrganizationID, s.PlanType, s.MaxLocations, s.TrialEndDate, s.IsTrialActive); err != nil {
		return fmt.Errorf("insert settings: %w", err)
	}
	return nil
}

func (r *organizationRepository) SettingsForUpdate(ctx context.Context, orgID uuid.UUID) (*domain.Settings, error) {
	const q = `
		SELECT organization_id, plan_type, max_locations, trial_end_date, is_trial_active
		FROM organization_settings WHERE organization_id = $1 FOR UPDATE`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var s domain.Settings
	err := r.db.QueryRow(ctx, q, orgID).Scan(&s.OrganizationID, &s.PlanType, &s.MaxLocations, &s.TrialEndDate, &s.IsTrialActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

type roleRepository struct {
	db database.DBTX
}

func (r *roleRepository) Grant(ctx context.Context, g domain.RoleGrant) error {
	const q = `INSERT INTO user_roles (user_id, role, organization_id, location_id) VALUES ($1, $2, $3, $4)`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.Exec(ctx, q, g.UserID, g.Role, g.OrganizationID, g.LocationID)
	return err
}

func (r *roleRepository) RolesIn(ctx context.Context, userID, orgID uuid.UUID) ([]string, error) {
	const q = `SELECT DISTINCT role FROM user_roles WHERE user_id = $1 AND organization_id = $2`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, q, userID, orgID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

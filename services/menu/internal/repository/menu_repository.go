package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/diagnosis/restaurant-management/pkg/database"
	"github.com/diagnosis/restaurant-management/services/menu/internal/domain"
)

type menuRepository struct {
	db database.DBTX
}

// Location ids are aggregated so one row carries the whole menu.
const menuSelect = `
	SELECT m.id, m.organization_id, m.name, m.description, m.is_active, m.created_at, m.updated_at,
		COALESCE(array_agg(lm.location_id ORDER BY lm.created_at) FILTER (WHERE lm.location_id IS NOT NULL), '{}')
	FROM menus m
	LEFT JOIN location_menus lm ON lm.menu_id = m.id`

const menuGroupBy = ` GROUP BY m.id`

func scanMenu(row pgx.Row) (*domain.Menu, error) {
	var m domain.Menu
	err := row.Scan(&m.ID, &m.OrganizationID, &m.Name, &m.Description, &m.IsActive, &m.CreatedAt, &m.UpdatedAt, &m.LocationIDs)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if m.LocationIDs == nil {
		m.LocationIDs = []uuid.UUID{}
	}
	return &m, nil
}

func (r *menuRepository) Create(ctx context.Context, m *domain.Menu) error {
	const q = `
		INSERT INTO menus (organization_id, name, description, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING id, created_at, updated_at`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return r.db.QueryRow(ctx, q, m.OrganizationID, m.Name, m.Description, m.IsActive, m.CreatedAt).
		Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
}

func (r *menuRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Menu, error) {
	const q = menuSelect + ` WHERE m.id = $1` + menuGroupBy
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return scanMenu(r.db.QueryRow(ctx, q, id))
}

func (r *menuRepository) Update(ctx context.Context, m *domain.Menu) error {
	const q = `
		UPDATE menus SET name = $2, description = $3, is_active = $4, updated_at = $5
		WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.Exec(ctx, q, m.ID, m.Name, m.Description, m.IsActive, m.UpdatedAt)
	return err
}

func (r *menuRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.Exec(ctx, `DELETE FROM menus WHERE id = $1`, id)
	return err
}

func (r *menuRepository) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]domain.Menu, error) {
	const q = menuSelect + ` WHERE m.organization_id = $1` + menuGroupBy + ` ORDER BY m.name`
	return r.list(ctx, q, orgID)
}

func (r *menuRepository) ListByLocation(ctx context.Context, locationID uuid.UUID) ([]domain.Menu, error) {
	const q = menuSelect + `
		WHERE m.id IN (SELECT menu_id FROM location_menus WHERE location_id = $1)` + menuGroupBy + ` ORDER BY m.name`
	return r.list(ctx, q, locationID)
}

func (r *menuRepository) list(ctx context.Context, q string, arg any) ([]domain.Menu, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	menus := []domain.Menu{}
	for rows.Next() {
		m, err := scanMenu(rows)
		if err != nil {
			return nil, err
		}
		menus = append(menus, *m)
	}
	return menus, rows.Err()
}

type attachmentRepository struct {
	db database.DBTX
}

func (r *attachmentRepository) Attach(ctx context.Context, menuID, locationID uuid.UUID) error {
	const q = `
		INSERT INTO location_menus (menu_id, location_id) VALUES ($1, $2)
		ON CONFLICT (menu_id, location_id) DO NOTHING`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.Exec(ctx, q, menuID, locationID)
	return err
}

func (r *attachmentRepository) Detach(ctx context.Context, menuID, locationID uuid.UUID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM location_menus WHERE menu_id = $1 AND location_id = $2`, menuID, locationID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

type directoryRepository struct {
	db database.DBTX
}

func (r *directoryRepository) OrganizationExists(ctx context.Context, orgID uuid.UUID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM organizations WHERE id = $1)`, orgID).Scan(&exists)
	return exists, err
}

func (r *directoryRepository) FindLocation(ctx context.Context, id uuid.UUID) (*domain.LocationRef, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var l domain.LocationRef
	err := r.db.QueryRow(ctx, `SELECT id, organization_id FROM locations WHERE id = $1`, id).Scan(&l.ID, &l.OrganizationID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *directoryRepository) LocationsInOrganization(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT id FROM locations WHERE organization_id = $1 AND id = ANY($2)`, orgID, ids)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

func (r *directoryRepository) RolesIn(ctx context.Context, userID, orgID uuid.UUID) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT DISTINCT role FROM user_roles WHERE user_id = $1 AND organization_id = $2`, userID, orgID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/diagnosis/restaurant-management/pkg/database"
	"github.com/diagnosis/restaurant-management/services/organization/internal/domain"
)

type locationRepository struct {
	db database.DBTX
}

const locationCols = `id, organization_id, name, address, city, state, postal_code, country,
	phone_number, email, status, created_at, updated_at`

func scanLocation(row pgx.Row) (*domain.Location, error) {
	var l domain.Location
	err := row.Scan(
		&l.ID, &l.OrganizationID, &l.Name, &l.Address, &l.City, &l.State, &l.PostalCode, &l.Country,
		&l.PhoneNumber, &l.Email, &l.Status, &l.CreatedAt, &l.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *locationRepository) Create(ctx context.Context, l *domain.Location) error {
	const q = `
		INSERT INTO locations (organization_id, name, address, city, state, postal_code, country, phone_number, email, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		RETURNING id, created_at, updated_at`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return r.db.QueryRow(ctx, q,
		l.OrganizationID, l.Name, l.Address, l.City, l.State, l.PostalCode, l.Country,
		l.PhoneNumber, l.Email, l.Status, l.CreatedAt,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
}

func (r *locationRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Location, error) {
	const q = `SELECT ` + locationCols + ` FROM locations WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return scanLocation(r.db.QueryRow(ctx, q, id))
}

func (r *locationRepository) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]domain.Location, error) {
	const q = `SELECT ` + locationCols + ` FROM locations WHERE organization_id = $1 ORDER BY name`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, q, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	locations := []domain.Location{}
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locations = append(locations, *l)
	}
	return locations, rows.Err()
}

func (r *locationRepository) CountOpen(ctx context.Context, orgID uuid.UUID) (int, error) {
	const q = `SELECT count(*) FROM locations WHERE organization_id = $1 AND status <> 'Closed'`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var n int
	err := r.db.QueryRow(ctx, q, orgID).Scan(&n)
	return n, err
}

func (r *locationRepository) Update(ctx context.Context, l *domain.Location) error {
	const q = `
		UPDATE locations
		SET name = $2, address = $3, city = $4, state = $5, postal_code = $6, country = $7,
			phone_number = $8, email = $9, status = $10, updated_at = $11
		WHERE id = $1
		RETURNING updated_at`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return r.db.QueryRow(ctx, q,
		l.ID, l.Name, l.Address, l.City, l.State, l.PostalCode, l.Country,
		l.PhoneNumber, l.Email, l.Status, l.UpdatedAt,
	).Scan(&l.UpdatedAt)
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/medtrack/pointsapi/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const locationColumns = `id, organization_id, name, abbreviation, address, city, state, postal_code,
	manager_name, num_employees, is_active, created_at, updated_at`

type locationRepository struct {
	pool *pgxpool.Pool
}

// NewLocationRepository creates a new location repository
func NewLocationRepository(pool *pgxpool.Pool) LocationRepository {
	return &locationRepository{pool: pool}
}

func (r *locationRepository) Create(ctx context.Context, location domain.Location) (domain.Location, error) {
	row := r.pool.QueryRow(
		ctx,
		`INSERT INTO locations (id, organization_id, name, abbreviation, address, city, state, postal_code,
		                        manager_name, num_employees, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING `+locationColumns,
		location.ID, location.OrganizationID, location.Name, nullText(location.Abbreviation),
		nullText(location.Address), nullText(location.City), nullText(location.State),
		nullText(location.PostalCode), nullText(location.ManagerName), location.NumEmployees,
		location.IsActive, location.CreatedAt, location.UpdatedAt,
	)
	return scanLocation(row)
}

func (r *locationRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Location, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+locationColumns+` FROM locations WHERE id = $1`, id)
	return scanLocation(row)
}

func (r *locationRepository) GetByName(ctx context.Context, organizationID uuid.UUID, name string) (domain.Location, error) {
	row := r.pool.QueryRow(
		ctx,
		`SELECT `+locationColumns+` FROM locations
		 WHERE organization_id = $1 AND lower(name) = lower($2)`,
		organizationID, strings.TrimSpace(name),
	)
	return scanLocation(row)
}

func (r *locationRepository) GetOrCreate(ctx context.Context, organizationID uuid.UUID, name string) (domain.Location, error) {
	location, err := r.GetByName(ctx, organizationID, name)
	if err == nil {
		return location, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return domain.Location{}, err
	}

	created, err := r.Create(ctx, domain.NewLocation(organizationID, name))
	if err == nil {
		return created, nil
	}

	// A concurrent ingestion may have created the same name; the unique
	// index on (organization_id, lower(name)) turns that race into a
	// conflict we resolve by re-lookup.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return r.GetByName(ctx, organizationID, name)
	}
	return domain.Location{}, err
}

func (r *locationRepository) List(ctx context.Context, organizationID uuid.UUID, search string) ([]domain.Location, error) {
	query := `SELECT ` + locationColumns + ` FROM locations WHERE organization_id = $1 AND is_active`
	args := []any{organizationID}
	if s := strings.TrimSpace(search); s != "" {
		query += ` AND lower(name) LIKE '%' || lower($2) || '%'`
		args = append(args, s)
	}
	query += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	defer rows.Close()

	locations := []domain.Location{}
	for rows.Next() {
		location, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locations = append(locations, location)
	}
	return locations, rows.Err()
}

func (r *locationRepository) Update(ctx context.Context, location domain.Location) (domain.Location, error) {
	row := r.pool.QueryRow(
		ctx,
		`UPDATE locations
		 SET name = $2, abbreviation = $3, address = $4, city = $5, state = $6, postal_code = $7,
		     manager_name = $8, num_employees = $9, is_active = $10, updated_at = now()
		 WHERE id = $1
		 RETURNING `+locationColumns,
		location.ID, location.Name, nullText(location.Abbreviation), nullText(location.Address),
		nullText(location.City), nullText(location.State), nullText(location.PostalCode),
		nullText(location.ManagerName), location.NumEmployees, location.IsActive,
	)
	return scanLocation(row)
}

func scanLocation(row pgx.Row) (domain.Location, error) {
	var (
		location     domain.Location
		abbreviation *string
		address      *string
		city         *string
		state        *string
		postalCode   *string
		managerName  *string
	)
	err := row.Scan(
		&location.ID, &location.OrganizationID, &location.Name, &abbreviation, &address,
		&city, &state, &postalCode, &managerName, &location.NumEmployees,
		&location.IsActive, &location.CreatedAt, &location.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Location{}, ErrNotFound
		}
		return domain.Location{}, fmt.Errorf("failed to scan location: %w", err)
	}
	location.Abbreviation = deref(abbreviation)
	location.Address = deref(address)
	location.City = deref(city)
	location.State = deref(state)
	location.PostalCode = deref(postalCode)
	location.ManagerName = deref(managerName)
	return location, nil
}

func nullText(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

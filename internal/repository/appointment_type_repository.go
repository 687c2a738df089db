package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/medtrack/pointsapi/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const appointmentTypeColumns = `id, organization_id, name, point_value, is_active, created_at, updated_at`

type appointmentTypeRepository struct {
	pool *pgxpool.Pool
}

// NewAppointmentTypeRepository creates a new appointment type repository
func NewAppointmentTypeRepository(pool *pgxpool.Pool) AppointmentTypeRepository {
	return &appointmentTypeRepository{pool: pool}
}

func (r *appointmentTypeRepository) Create(ctx context.Context, appointmentType domain.AppointmentType) (domain.AppointmentType, error) {
	row := r.pool.QueryRow(
		ctx,
		`INSERT INTO appointment_types (id, organization_id, name, point_value, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+appointmentTypeColumns,
		appointmentType.ID, appointmentType.OrganizationID, appointmentType.Name,
		appointmentType.PointValue, appointmentType.IsActive,
		appointmentType.CreatedAt, appointmentType.UpdatedAt,
	)
	return scanAppointmentType(row)
}

func (r *appointmentTypeRepository) ListActive(ctx context.Context, organizationID uuid.UUID) ([]domain.AppointmentType, error) {
	return r.list(ctx, organizationID, true)
}

func (r *appointmentTypeRepository) List(ctx context.Context, organizationID uuid.UUID) ([]domain.AppointmentType, error) {
	return r.list(ctx, organizationID, false)
}

func (r *appointmentTypeRepository) list(ctx context.Context, organizationID uuid.UUID, activeOnly bool) ([]domain.AppointmentType, error) {
	query := `SELECT ` + appointmentTypeColumns + ` FROM appointment_types WHERE organization_id = $1`
	if activeOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointment types: %w", err)
	}
	defer rows.Close()

	types := []domain.AppointmentType{}
	for rows.Next() {
		appointmentType, err := scanAppointmentType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, appointmentType)
	}
	return types, rows.Err()
}

func (r *appointmentTypeRepository) Update(ctx context.Context, appointmentType domain.AppointmentType) (domain.AppointmentType, error) {
	row := r.pool.QueryRow(
		ctx,
		`UPDATE appointment_types
		 SET name = $2, point_value = $3, is_active = $4, updated_at = now()
		 WHERE id = $1
		 RETURNING `+appointmentTypeColumns,
		appointmentType.ID, appointmentType.Name, appointmentType.PointValue, appointmentType.IsActive,
	)
	return scanAppointmentType(row)
}

func (r *appointmentTypeRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(
		ctx,
		`UPDATE appointment_types SET is_active = FALSE, updated_at = now() WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate appointment type: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAppointmentType(row pgx.Row) (domain.AppointmentType, error) {
	var appointmentType domain.AppointmentType
	err := row.Scan(
		&appointmentType.ID, &appointmentType.OrganizationID, &appointmentType.Name,
		&appointmentType.PointValue, &appointmentType.IsActive,
		&appointmentType.CreatedAt, &appointmentType.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.AppointmentType{}, ErrNotFound
		}
		return domain.AppointmentType{}, fmt.Errorf("failed to scan appointment type: %w", err)
	}
	return appointmentType, nil
}

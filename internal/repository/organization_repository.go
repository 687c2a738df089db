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

// organizationRepository implements OrganizationRepository backed by pgxpool.
type organizationRepository struct {
	pool *pgxpool.Pool
}

// NewOrganizationRepository creates a new organization repository
func NewOrganizationRepository(pool *pgxpool.Pool) OrganizationRepository {
	return &organizationRepository{pool: pool}
}

func (r *organizationRepository) Create(ctx context.Context, org domain.Organization) (domain.Organization, error) {
	row := r.pool.QueryRow(
		ctx,
		`INSERT INTO organizations (id, name, slug, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, name, slug, created_at, updated_at`,
		org.ID, org.Name, org.Slug, org.CreatedAt, org.UpdatedAt,
	)
	return scanOrganization(row)
}

func (r *organizationRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Organization, error) {
	row := r.pool.QueryRow(
		ctx,
		`SELECT id, name, slug, created_at, updated_at FROM organizations WHERE id = $1`,
		id,
	)
	return scanOrganization(row)
}

func (r *organizationRepository) GetBySlug(ctx context.Context, slug string) (domain.Organization, error) {
	row := r.pool.QueryRow(
		ctx,
		`SELECT id, name, slug, created_at, updated_at FROM organizations WHERE slug = $1`,
		slug,
	)
	return scanOrganization(row)
}

func (r *organizationRepository) List(ctx context.Context) ([]domain.Organization, error) {
	rows, err := r.pool.Query(
		ctx,
		`SELECT id, name, slug, created_at, updated_at FROM organizations ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	organizations := []domain.Organization{}
	for rows.Next() {
		var org domain.Organization
		if err := rows.Scan(&org.ID, &org.Name, &org.Slug, &org.CreatedAt, &org.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		organizations = append(organizations, org)
	}
	return organizations, rows.Err()
}

func (r *organizationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM organizations WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete organization: %w", err)
	}
	return nil
}

func scanOrganization(row pgx.Row) (domain.Organization, error) {
	var org domain.Organization
	if err := row.Scan(&org.ID, &org.Name, &org.Slug, &org.CreatedAt, &org.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Organization{}, ErrNotFound
		}
		return domain.Organization{}, fmt.Errorf("failed to scan organization: %w", err)
	}
	return org, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/medtrack/pointsapi/internal/db"
	"github.com/medtrack/pointsapi/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const uploadColumns = `id, organization_id, uploaded_by, upload_type, filename, file_hash,
	version_number, row_count, valid_row_count, duplicate_count, status, error_message,
	is_active, uploaded_at, created_at`

type uploadRepository struct {
	conn *db.Connection
}

// NewUploadRepository creates a new upload repository
func NewUploadRepository(conn *db.Connection) UploadRepository {
	return &uploadRepository{conn: conn}
}

func (r *uploadRepository) CreateFailed(ctx context.Context, upload domain.Upload) (domain.Upload, error) {
	if upload.Status != domain.UploadStatusFailed {
		return domain.Upload{}, fmt.Errorf("upload %s is not failed", upload.ID)
	}
	row := r.conn.Pool.QueryRow(ctx, insertUploadSQL, uploadArgs(upload)...)
	return scanUpload(row)
}

// CommitBatch serializes concurrent ingestions of the same (organization,
// upload type) with an advisory transaction lock, then assigns the next
// version, retires previously active uploads, and bulk-inserts the rows.
func (r *uploadRepository) CommitBatch(ctx context.Context, upload domain.Upload, appointments []domain.Appointment) (domain.Upload, error) {
	var committed domain.Upload

	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		lockKey := upload.OrganizationID.String() + ":" + string(upload.UploadType)
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, lockKey); err != nil {
			return fmt.Errorf("failed to acquire upload lock: %w", err)
		}

		var nextVersion int
		err := tx.QueryRow(
			ctx,
			`SELECT COALESCE(MAX(version_number), 0) + 1 FROM uploads
			 WHERE organization_id = $1 AND upload_type = $2`,
			upload.OrganizationID, upload.UploadType,
		).Scan(&nextVersion)
		if err != nil {
			return fmt.Errorf("failed to compute next version: %w", err)
		}

		if _, err := tx.Exec(
			ctx,
			`UPDATE uploads SET is_active = FALSE
			 WHERE organization_id = $1 AND upload_type = $2 AND is_active`,
			upload.OrganizationID, upload.UploadType,
		); err != nil {
			return fmt.Errorf("failed to deactivate previous uploads: %w", err)
		}

		upload.VersionNumber = nextVersion
		upload.IsActive = true

		row := tx.QueryRow(ctx, insertUploadSQL, uploadArgs(upload)...)
		committed, err = scanUpload(row)
		if err != nil {
			return err
		}

		if len(appointments) == 0 {
			return nil
		}

		for i := range appointments {
			appointments[i].UploadID = &committed.ID
		}

		_, err = tx.CopyFrom(
			ctx,
			pgx.Identifier{"appointments"},
			appointmentColumnNames,
			pgx.CopyFromSlice(len(appointments), func(i int) ([]any, error) {
				return appointmentArgs(appointments[i]), nil
			}),
		)
		if err != nil {
			return fmt.Errorf("failed to bulk insert appointments: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Upload{}, err
	}
	return committed, nil
}

func (r *uploadRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Upload, error) {
	row := r.conn.Pool.QueryRow(ctx, `SELECT `+uploadColumns+` FROM uploads WHERE id = $1`, id)
	return scanUpload(row)
}

func (r *uploadRepository) List(ctx context.Context, organizationID uuid.UUID, uploadType *domain.UploadType) ([]domain.Upload, error) {
	query := `SELECT ` + uploadColumns + ` FROM uploads WHERE organization_id = $1`
	args := []any{organizationID}
	if uploadType != nil {
		query += ` AND upload_type = $2`
		args = append(args, *uploadType)
	}
	query += ` ORDER BY uploaded_at DESC`

	rows, err := r.conn.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	defer rows.Close()

	uploads := []domain.Upload{}
	for rows.Next() {
		upload, err := scanUpload(rows)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, upload)
	}
	return uploads, rows.Err()
}

func (r *uploadRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn.Pool.Exec(ctx, `DELETE FROM uploads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete upload: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const insertUploadSQL = `INSERT INTO uploads (id, organization_id, uploaded_by, upload_type, filename, file_hash,
	version_number, row_count, valid_row_count, duplicate_count, status, error_message, is_active, uploaded_at, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	RETURNING ` + uploadColumns

func uploadArgs(upload domain.Upload) []any {
	return []any{
		upload.ID, upload.OrganizationID, upload.UploadedBy, upload.UploadType,
		upload.Filename, nullText(upload.FileHash), upload.VersionNumber,
		upload.RowCount, upload.ValidRowCount, upload.DuplicateCount,
		upload.Status, nullText(upload.ErrorMessage), upload.IsActive,
		upload.UploadedAt, upload.CreatedAt,
	}
}

func scanUpload(row pgx.Row) (domain.Upload, error) {
	var (
		upload       domain.Upload
		fileHash     *string
		errorMessage *string
	)
	err := row.Scan(
		&upload.ID, &upload.OrganizationID, &upload.UploadedBy, &upload.UploadType,
		&upload.Filename, &fileHash, &upload.VersionNumber,
		&upload.RowCount, &upload.ValidRowCount, &upload.DuplicateCount,
		&upload.Status, &errorMessage, &upload.IsActive,
		&upload.UploadedAt, &upload.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Upload{}, ErrNotFound
		}
		return domain.Upload{}, fmt.Errorf("failed to scan upload: %w", err)
	}
	upload.FileHash = deref(fileHash)
	upload.ErrorMessage = deref(errorMessage)
	return upload, nil
}

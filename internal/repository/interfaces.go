package repository

import (
	"context"
	"errors"
	"time"

	"github.com/medtrack/pointsapi/internal/domain"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// OrganizationRepository defines the interface for organization operations
type OrganizationRepository interface {
	Create(ctx context.Context, org domain.Organization) (domain.Organization, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Organization, error)
	GetBySlug(ctx context.Context, slug string) (domain.Organization, error)
	List(ctx context.Context) ([]domain.Organization, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserRepository defines the interface for user identity operations
type UserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
}

// LocationRepository defines the interface for location operations.
// Name matching is case-insensitive and organization-scoped throughout.
type LocationRepository interface {
	Create(ctx context.Context, location domain.Location) (domain.Location, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Location, error)
	GetByName(ctx context.Context, organizationID uuid.UUID, name string) (domain.Location, error)
	// GetOrCreate looks up a location by name, creating it with default
	// attributes when absent. On a unique-index conflict (a concurrent
	// ingestion created the same name) it re-looks up and returns the winner.
	GetOrCreate(ctx context.Context, organizationID uuid.UUID, name string) (domain.Location, error)
	List(ctx context.Context, organizationID uuid.UUID, search string) ([]domain.Location, error)
	Update(ctx context.Context, location domain.Location) (domain.Location, error)
}

// AppointmentTypeRepository defines the interface for appointment type operations
type AppointmentTypeRepository interface {
	Create(ctx context.Context, appointmentType domain.AppointmentType) (domain.AppointmentType, error)
	ListActive(ctx context.Context, organizationID uuid.UUID) ([]domain.AppointmentType, error)
	List(ctx context.Context, organizationID uuid.UUID) ([]domain.AppointmentType, error)
	Update(ctx context.Context, appointmentType domain.AppointmentType) (domain.AppointmentType, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// UploadRepository persists ingestion batches.
type UploadRepository interface {
	// CreateFailed records a terminally failed upload (parse or schema
	// error). No appointments are written and no versioning happens.
	CreateFailed(ctx context.Context, upload domain.Upload) (domain.Upload, error)
	// CommitBatch finalizes a successful batch in one transaction: it
	// serializes on (organization, upload type), assigns the next version
	// number, deactivates previously active uploads of the same type, and
	// bulk-inserts the appointment rows. Either everything commits or
	// nothing does.
	CommitBatch(ctx context.Context, upload domain.Upload, appointments []domain.Appointment) (domain.Upload, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Upload, error)
	List(ctx context.Context, organizationID uuid.UUID, uploadType *domain.UploadType) ([]domain.Upload, error)
	// Delete removes the upload; appointments cascade at the database level.
	Delete(ctx context.Context, id uuid.UUID) error
}

// ReportFilter narrows the appointment set handed to the aggregation engine.
type ReportFilter struct {
	OrganizationID  uuid.UUID
	DataType        domain.UploadType
	IncludeExcluded bool
	From            time.Time
	To              time.Time
	LocationName    string
	LocationNames   []string
	RequireTech     bool
	IncludeDrafts   bool
}

// AppointmentRepository defines the interface for appointment operations
type AppointmentRepository interface {
	Create(ctx context.Context, appointment domain.Appointment) (domain.Appointment, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Appointment, error)
	Update(ctx context.Context, appointment domain.Appointment) (domain.Appointment, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByUpload(ctx context.Context, uploadID uuid.UUID) ([]domain.Appointment, error)
	// ListForReporting returns the appointments matching the filter in
	// (appointment_date, appointment_time) order. Aggregation happens in
	// the reporting engine, not in SQL, so point sums stay in exact
	// decimal arithmetic end to end.
	ListForReporting(ctx context.Context, filter ReportFilter) ([]domain.Appointment, error)
}

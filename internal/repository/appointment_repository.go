package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/medtrack/pointsapi/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var appointmentColumnNames = []string{
	"id", "organization_id", "upload_id", "data_type",
	"department", "location_id", "location_name", "provider", "specialty", "patient_encounter_number",
	"appointment_date", "day_of_week", "week_of_month", "appointment_time", "session",
	"visit_type", "visit_points", "appointment_type_id", "appt_comments",
	"rooming_tech", "check_in_staff", "check_in_time", "check_in_comment",
	"check_out_time", "check_out_comment", "visit_duration_min", "total_wait_duration",
	"tech_level", "rooming_time", "rooming_comment", "tech_in", "tech_out",
	"tech_duration", "tech_comment", "check_in_to_tech", "appt_time_to_tech",
	"pt_check_time", "primary_diagnosis",
	"is_duplicate", "is_excluded_from_reporting", "exclusion_reason",
	"source", "row_number", "is_draft", "created_at", "updated_at",
}

var appointmentColumns = strings.Join(appointmentColumnNames, ", ")

type appointmentRepository struct {
	pool *pgxpool.Pool
}

// NewAppointmentRepository creates a new appointment repository
func NewAppointmentRepository(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepository{pool: pool}
}

func (r *appointmentRepository) Create(ctx context.Context, appointment domain.Appointment) (domain.Appointment, error) {
	placeholders := make([]string, len(appointmentColumnNames))
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	row := r.pool.QueryRow(
		ctx,
		`INSERT INTO appointments (`+appointmentColumns+`) VALUES (`+strings.Join(placeholders, ", ")+`)
		 RETURNING `+appointmentColumns,
		appointmentArgs(appointment)...,
	)
	return scanAppointment(row)
}

func (r *appointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	return scanAppointment(row)
}

func (r *appointmentRepository) Update(ctx context.Context, appointment domain.Appointment) (domain.Appointment, error) {
	assignments := make([]string, 0, len(appointmentColumnNames)-1)
	for i, column := range appointmentColumnNames[1:] {
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, i+2))
	}
	row := r.pool.QueryRow(
		ctx,
		`UPDATE appointments SET `+strings.Join(assignments, ", ")+` WHERE id = $1
		 RETURNING `+appointmentColumns,
		appointmentArgs(appointment)...,
	)
	return scanAppointment(row)
}

func (r *appointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *appointmentRepository) ListByUpload(ctx context.Context, uploadID uuid.UUID) ([]domain.Appointment, error) {
	rows, err := r.pool.Query(
		ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE upload_id = $1 ORDER BY row_number`,
		uploadID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments by upload: %w", err)
	}
	return collectAppointments(rows)
}

func (r *appointmentRepository) ListForReporting(ctx context.Context, filter ReportFilter) ([]domain.Appointment, error) {
	var (
		conditions []string
		args       []any
	)
	arg := func(value any) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	conditions = append(conditions, "organization_id = "+arg(filter.OrganizationID))
	if filter.DataType != "" {
		conditions = append(conditions, "data_type = "+arg(filter.DataType))
	}
	if !filter.IncludeExcluded {
		conditions = append(conditions, "NOT is_excluded_from_reporting")
	}
	if !filter.IncludeDrafts {
		conditions = append(conditions, "NOT is_draft")
	}
	if !filter.From.IsZero() {
		conditions = append(conditions, "appointment_date >= "+arg(filter.From))
	}
	if !filter.To.IsZero() {
		conditions = append(conditions, "appointment_date <= "+arg(filter.To))
	}
	if name := strings.TrimSpace(filter.LocationName); name != "" {
		conditions = append(conditions, "lower(location_name) = lower("+arg(name)+")")
	}
	if len(filter.LocationNames) > 0 {
		lowered := make([]string, len(filter.LocationNames))
		for i, name := range filter.LocationNames {
			lowered[i] = strings.ToLower(strings.TrimSpace(name))
		}
		conditions = append(conditions, "lower(location_name) = ANY("+arg(lowered)+")")
	}
	if filter.RequireTech {
		conditions = append(conditions, "rooming_tech IS NOT NULL")
	}

	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE ` +
		strings.Join(conditions, " AND ") +
		` ORDER BY appointment_date, appointment_time`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments for reporting: %w", err)
	}
	return collectAppointments(rows)
}

func collectAppointments(rows pgx.Rows) ([]domain.Appointment, error) {
	defer rows.Close()
	appointments := []domain.Appointment{}
	for rows.Next() {
		appointment, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, appointment)
	}
	return appointments, rows.Err()
}

func appointmentArgs(a domain.Appointment) []any {
	return []any{
		a.ID, a.OrganizationID, a.UploadID, a.DataType,
		nullText(a.Department), a.LocationID, a.LocationName, a.Provider,
		nullText(a.Specialty), nullText(a.PatientEncounterNumber),
		a.AppointmentDate, nullText(a.DayOfWeek), nullInt(a.WeekOfMonth),
		clockValue(&a.AppointmentTime), nullText(string(a.Session)),
		a.VisitType, a.VisitPoints, a.AppointmentTypeID, nullText(a.ApptComments),
		nullText(a.RoomingTech), nullText(a.CheckInStaff), clockValue(a.CheckInTime), nullText(a.CheckInComment),
		clockValue(a.CheckOutTime), nullText(a.CheckOutComment), nullDecimal(a.VisitDurationMin), nullDecimal(a.TotalWaitMin),
		nullText(a.TechLevel), clockValue(a.RoomingTime), nullText(a.RoomingComment),
		clockValue(a.TechIn), clockValue(a.TechOut), nullDecimal(a.TechDuration), nullText(a.TechComment),
		nullDecimal(a.CheckInToTech), nullDecimal(a.ApptTimeToTech), nullDecimal(a.PtCheckTime),
		nullText(a.PrimaryDiagnosis),
		a.IsDuplicate, a.IsExcludedFromReporting, nullText(a.ExclusionReason),
		a.Source, nullInt(a.RowNumber), a.IsDraft, a.CreatedAt, a.UpdatedAt,
	}
}

func scanAppointment(row pgx.Row) (domain.Appointment, error) {
	var a domain.Appointment
	var department, specialty, encounterNumber, dayOfWeek, session *string
	var apptComments, roomingTech, checkInStaff, checkInComment *string
	var checkOutComment, techLevel, roomingComment, techComment *string
	var primaryDiagnosis, exclusionReason *string
	var weekOfMonth, rowNumber *int
	var appointmentTime, checkInTime, checkOutTime, roomingTime pgtype.Time
	var techIn, techOut pgtype.Time
	var visitDuration, totalWait, techDuration, checkInToTech decimal.NullDecimal
	var apptTimeToTech, ptCheckTime decimal.NullDecimal
	err := row.Scan(
		&a.ID, &a.OrganizationID, &a.UploadID, &a.DataType,
		&department, &a.LocationID, &a.LocationName, &a.Provider, &specialty, &encounterNumber,
		&a.AppointmentDate, &dayOfWeek, &weekOfMonth, &appointmentTime, &session,
		&a.VisitType, &a.VisitPoints, &a.AppointmentTypeID, &apptComments,
		&roomingTech, &checkInStaff, &checkInTime, &checkInComment,
		&checkOutTime, &checkOutComment, &visitDuration, &totalWait,
		&techLevel, &roomingTime, &roomingComment, &techIn, &techOut,
		&techDuration, &techComment, &checkInToTech, &apptTimeToTech,
		&ptCheckTime, &primaryDiagnosis,
		&a.IsDuplicate, &a.IsExcludedFromReporting, &exclusionReason,
		&a.Source, &rowNumber, &a.IsDraft, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Appointment{}, ErrNotFound
		}
		return domain.Appointment{}, fmt.Errorf("failed to scan appointment: %w", err)
	}

	a.Department = deref(department)
	a.Specialty = deref(specialty)
	a.PatientEncounterNumber = deref(encounterNumber)
	a.DayOfWeek = deref(dayOfWeek)
	a.Session = domain.Session(deref(session))
	a.ApptComments = deref(apptComments)
	a.RoomingTech = deref(roomingTech)
	a.CheckInStaff = deref(checkInStaff)
	a.CheckInComment = deref(checkInComment)
	a.CheckOutComment = deref(checkOutComment)
	a.TechLevel = deref(techLevel)
	a.RoomingComment = deref(roomingComment)
	a.TechComment = deref(techComment)
	a.PrimaryDiagnosis = deref(primaryDiagnosis)
	a.ExclusionReason = deref(exclusionReason)
	if weekOfMonth != nil {
		a.WeekOfMonth = *weekOfMonth
	}
	if rowNumber != nil {
		a.RowNumber = *rowNumber
	}
	if appointmentTime.Valid {
		a.AppointmentTime = domain.ClockTimeFromMicroseconds(appointmentTime.Microseconds)
	}
	a.CheckInTime = clockFromPg(checkInTime)
	a.CheckOutTime = clockFromPg(checkOutTime)
	a.RoomingTime = clockFromPg(roomingTime)
	a.TechIn = clockFromPg(techIn)
	a.TechOut = clockFromPg(techOut)
	a.VisitDurationMin = decimalFromNull(visitDuration)
	a.TotalWaitMin = decimalFromNull(totalWait)
	a.TechDuration = decimalFromNull(techDuration)
	a.CheckInToTech = decimalFromNull(checkInToTech)
	a.ApptTimeToTech = decimalFromNull(apptTimeToTech)
	a.PtCheckTime = decimalFromNull(ptCheckTime)
	return a, nil
}

func clockValue(c *domain.ClockTime) pgtype.Time {
	if c == nil {
		return pgtype.Time{}
	}
	return pgtype.Time{Microseconds: c.Microseconds(), Valid: true}
}

func clockFromPg(t pgtype.Time) *domain.ClockTime {
	if !t.Valid {
		return nil
	}
	c := domain.ClockTimeFromMicroseconds(t.Microseconds)
	return &c
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func decimalFromNull(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	value := d.Decimal
	return &value
}

func nullInt(value int) *int {
	if value == 0 {
		return nil
	}
	return &value
}

package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Session is the half-day bucket a visit falls into.
type Session string

const (
	SessionAM Session = "AM"
	SessionPM Session = "PM"
)

// SessionForTime derives the session from a time of day.
func SessionForTime(t ClockTime) Session {
	if t.Hour < 12 {
		return SessionAM
	}
	return SessionPM
}

// AppointmentSource records how an appointment entered the system.
type AppointmentSource string

const (
	SourceCSV    AppointmentSource = "csv"
	SourceManual AppointmentSource = "manual"
)

// ExclusionReasonWithinFileDuplicate marks rows that shared a composite
// natural key with an earlier row in the same upload.
const ExclusionReasonWithinFileDuplicate = "WITHIN_FILE_DUPLICATE"

// Appointment is one clinical visit event. Rows from uploads belong to their
// upload and are deleted with it; manual entries have no upload. LocationID
// and AppointmentTypeID are weak references: the display name and the
// resolved point value survive even if the referenced record goes away.
type Appointment struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	UploadID       *uuid.UUID `json:"upload_id,omitempty"`
	DataType       UploadType `json:"data_type"`

	Department             string     `json:"department,omitempty"`
	LocationID             *uuid.UUID `json:"location_id,omitempty"`
	LocationName           string     `json:"location_name"`
	Provider               string     `json:"provider"`
	Specialty              string     `json:"specialty,omitempty"`
	PatientEncounterNumber string     `json:"patient_encounter_number,omitempty"`

	AppointmentDate time.Time `json:"appointment_date"`
	DayOfWeek       string    `json:"day_of_week,omitempty"`
	WeekOfMonth     int       `json:"week_of_month,omitempty"`
	AppointmentTime ClockTime `json:"appointment_time"`
	Session         Session   `json:"session,omitempty"`

	VisitType         string          `json:"visit_type"`
	VisitPoints       decimal.Decimal `json:"visit_points"`
	AppointmentTypeID *uuid.UUID      `json:"appointment_type_id,omitempty"`
	ApptComments      string          `json:"appt_comments,omitempty"`

	// Retrospective-only fields.
	RoomingTech      string           `json:"rooming_tech,omitempty"`
	CheckInStaff     string           `json:"check_in_staff,omitempty"`
	CheckInTime      *ClockTime       `json:"check_in_time,omitempty"`
	CheckInComment   string           `json:"check_in_comment,omitempty"`
	CheckOutTime     *ClockTime       `json:"check_out_time,omitempty"`
	CheckOutComment  string           `json:"check_out_comment,omitempty"`
	VisitDurationMin *decimal.Decimal `json:"visit_duration_min,omitempty"`
	TotalWaitMin     *decimal.Decimal `json:"total_wait_duration,omitempty"`
	TechLevel        string           `json:"tech_level,omitempty"`
	RoomingTime      *ClockTime       `json:"rooming_time,omitempty"`
	RoomingComment   string           `json:"rooming_comment,omitempty"`
	TechIn           *ClockTime       `json:"tech_in,omitempty"`
	TechOut          *ClockTime       `json:"tech_out,omitempty"`
	TechDuration     *decimal.Decimal `json:"tech_duration,omitempty"`
	TechComment      string           `json:"tech_comment,omitempty"`
	CheckInToTech    *decimal.Decimal `json:"check_in_to_tech,omitempty"`
	ApptTimeToTech   *decimal.Decimal `json:"appt_time_to_tech,omitempty"`
	PtCheckTime      *decimal.Decimal `json:"pt_check_time,omitempty"`
	PrimaryDiagnosis string           `json:"primary_diagnosis,omitempty"`

	IsDuplicate             bool   `json:"is_duplicate"`
	IsExcludedFromReporting bool   `json:"is_excluded_from_reporting"`
	ExclusionReason         string `json:"exclusion_reason,omitempty"`

	Source    AppointmentSource `json:"source"`
	RowNumber int               `json:"row_number,omitempty"`
	IsDraft   bool              `json:"is_draft"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MarkDuplicate flags the appointment as a within-file duplicate and
// excludes it from reporting.
func (a *Appointment) MarkDuplicate() {
	a.IsDuplicate = true
	a.IsExcludedFromReporting = true
	a.ExclusionReason = ExclusionReasonWithinFileDuplicate
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AppointmentPatch is a sparse update for manual appointment edits. Only
// non-nil fields are applied. The patch deliberately excludes the resolved
// references and duplicate flags, which are owned by the pipeline.
type AppointmentPatch struct {
	Department             *string          `json:"department,omitempty"`
	LocationName           *string          `json:"location_name,omitempty"`
	Provider               *string          `json:"provider,omitempty"`
	Specialty              *string          `json:"specialty,omitempty"`
	PatientEncounterNumber *string          `json:"patient_encounter_number,omitempty"`
	AppointmentDate        *time.Time       `json:"appointment_date,omitempty"`
	AppointmentTime        *ClockTime       `json:"appointment_time,omitempty"`
	Session                *Session         `json:"session,omitempty"`
	VisitType              *string          `json:"visit_type,omitempty"`
	ApptComments           *string          `json:"appt_comments,omitempty"`
	RoomingTech            *string          `json:"rooming_tech,omitempty"`
	CheckInStaff           *string          `json:"check_in_staff,omitempty"`
	CheckInTime            *ClockTime       `json:"check_in_time,omitempty"`
	CheckOutTime           *ClockTime       `json:"check_out_time,omitempty"`
	VisitDurationMin       *decimal.Decimal `json:"visit_duration_min,omitempty"`
	TechLevel              *string          `json:"tech_level,omitempty"`
	PrimaryDiagnosis       *string          `json:"primary_diagnosis,omitempty"`
	IsDraft                *bool            `json:"is_draft,omitempty"`
}

// Apply merges the patch onto an appointment field by field and returns the
// result. Date or time changes invalidate the derived calendar fields, which
// the caller is expected to re-derive (along with point resolution when the
// visit type changed).
func (p AppointmentPatch) Apply(a Appointment) Appointment {
	if p.Department != nil {
		a.Department = *p.Department
	}
	if p.LocationName != nil {
		a.LocationName = *p.LocationName
	}
	if p.Provider != nil {
		a.Provider = *p.Provider
	}
	if p.Specialty != nil {
		a.Specialty = *p.Specialty
	}
	if p.PatientEncounterNumber != nil {
		a.PatientEncounterNumber = *p.PatientEncounterNumber
	}
	if p.AppointmentDate != nil {
		a.AppointmentDate = *p.AppointmentDate
	}
	if p.AppointmentTime != nil {
		a.AppointmentTime = *p.AppointmentTime
	}
	if p.Session != nil {
		a.Session = *p.Session
	}
	if p.VisitType != nil {
		a.VisitType = *p.VisitType
	}
	if p.ApptComments != nil {
		a.ApptComments = *p.ApptComments
	}
	if p.RoomingTech != nil {
		a.RoomingTech = *p.RoomingTech
	}
	if p.CheckInStaff != nil {
		a.CheckInStaff = *p.CheckInStaff
	}
	if p.CheckInTime != nil {
		t := *p.CheckInTime
		a.CheckInTime = &t
	}
	if p.CheckOutTime != nil {
		t := *p.CheckOutTime
		a.CheckOutTime = &t
	}
	if p.VisitDurationMin != nil {
		d := *p.VisitDurationMin
		a.VisitDurationMin = &d
	}
	if p.TechLevel != nil {
		a.TechLevel = *p.TechLevel
	}
	if p.PrimaryDiagnosis != nil {
		a.PrimaryDiagnosis = *p.PrimaryDiagnosis
	}
	if p.IsDraft != nil {
		a.IsDraft = *p.IsDraft
	}
	a.UpdatedAt = time.Now().UTC()
	return a
}

package ingestion

import (
	"strings"

	"github.com/medtrack/pointsapi/internal/domain"
)

// Canonical field names. Source columns are renamed to these before
// validation and coercion; headers with no mapping are dropped entirely.
const (
	fieldDepartment       = "department"
	fieldLocationName     = "location_name"
	fieldProvider         = "provider"
	fieldSpecialty        = "specialty"
	fieldRoomingTech      = "rooming_tech"
	fieldEncounterNumber  = "patient_encounter_number"
	fieldAppointmentDate  = "appointment_date"
	fieldAppointmentTime  = "appointment_time"
	fieldSession          = "session"
	fieldVisitType        = "visit_type"
	fieldVisitPoints      = "visit_points"
	fieldCheckInStaff     = "check_in_staff"
	fieldCheckInTime      = "check_in_time"
	fieldCheckInComment   = "check_in_comment"
	fieldCheckOutTime     = "check_out_time"
	fieldCheckOutComment  = "check_out_comment"
	fieldVisitDuration    = "visit_duration_min"
	fieldTotalWait        = "total_wait_duration"
	fieldTechLevel        = "tech_level"
	fieldRoomingTime      = "rooming_time"
	fieldRoomingComment   = "rooming_comment"
	fieldTechIn           = "tech_in"
	fieldTechOut          = "tech_out"
	fieldTechDuration     = "tech_duration"
	fieldTechComment      = "tech_comment"
	fieldCheckInToTech    = "check_in_to_tech"
	fieldApptTimeToTech   = "appt_time_to_tech"
	fieldPtCheckTime      = "pt_check_time"
	fieldPrimaryDiagnosis = "primary_diagnosis"
	fieldDayOfWeek        = "day_of_week"
	fieldWeekOfMonth      = "week_of_month"
	fieldApptComments     = "appt_comments"
)

// retrospectiveColumnMap maps lower-cased source headers to canonical fields
// for retrospective exports.
var retrospectiveColumnMap = map[string]string{
	"department":               fieldDepartment,
	"location":                 fieldLocationName,
	"provider":                 fieldProvider,
	"specialty":                fieldSpecialty,
	"rooming tech":             fieldRoomingTech,
	"patient encounter number": fieldEncounterNumber,
	"appt date":                fieldAppointmentDate,
	"appt time":                fieldAppointmentTime,
	"session":                  fieldSession,
	"visit type":               fieldVisitType,
	"visit points":             fieldVisitPoints,
	"check in":                 fieldCheckInStaff,
	"check in time":            fieldCheckInTime,
	"check in comment":         fieldCheckInComment,
	"check out time":           fieldCheckOutTime,
	"check out comment":        fieldCheckOutComment,
	"visit duration min":       fieldVisitDuration,
	"total wait duration":      fieldTotalWait,
	"tech level":               fieldTechLevel,
	"rooming time":             fieldRoomingTime,
	"rooming comment":          fieldRoomingComment,
	"tech in":                  fieldTechIn,
	"tech out":                 fieldTechOut,
	"tech duration":            fieldTechDuration,
	"tech comment":             fieldTechComment,
	"check in to tech":         fieldCheckInToTech,
	"appt time to tech":        fieldApptTimeToTech,
	"pt check time":            fieldPtCheckTime,
	"primary diagnosis":        fieldPrimaryDiagnosis,
	"day of week":              fieldDayOfWeek,
	"week of month":            fieldWeekOfMonth,
	"appt comments":            fieldApptComments,
}

// prospectiveColumnMap covers the smaller prospective (scheduled) exports.
var prospectiveColumnMap = map[string]string{
	"department":               fieldDepartment,
	"location":                 fieldLocationName,
	"provider":                 fieldProvider,
	"specialty":                fieldSpecialty,
	"patient encounter number": fieldEncounterNumber,
	"appt date":                fieldAppointmentDate,
	"appt time":                fieldAppointmentTime,
	"session":                  fieldSession,
	"visit type":               fieldVisitType,
	"visit points":             fieldVisitPoints,
	"day of week":              fieldDayOfWeek,
	"week of month":            fieldWeekOfMonth,
	"appt comments":            fieldApptComments,
}

var retrospectiveRequired = []string{
	fieldLocationName,
	fieldRoomingTech,
	fieldProvider,
	fieldSpecialty,
	fieldAppointmentDate,
	fieldAppointmentTime,
	fieldCheckInStaff,
}

var prospectiveRequired = []string{
	fieldLocationName,
	fieldProvider,
	fieldSpecialty,
	fieldAppointmentDate,
	fieldAppointmentTime,
}

func columnMapFor(uploadType domain.UploadType) map[string]string {
	if uploadType == domain.UploadTypeRetrospective {
		return retrospectiveColumnMap
	}
	return prospectiveColumnMap
}

func requiredColumnsFor(uploadType domain.UploadType) []string {
	if uploadType == domain.UploadTypeRetrospective {
		return retrospectiveRequired
	}
	return prospectiveRequired
}

// canonicalHeaders rewrites header text to canonical field names. Headers
// without a mapping come back as "" and their cells are dropped later.
func canonicalHeaders(headers []string, columnMap map[string]string) []string {
	canonical := make([]string, len(headers))
	for i, header := range headers {
		canonical[i] = columnMap[strings.ToLower(strings.TrimSpace(header))]
	}
	return canonical
}

// missingColumns returns the required canonical fields absent from the
// normalized header set, in the order required lists them.
func missingColumns(canonical []string, required []string) []string {
	present := make(map[string]bool, len(canonical))
	for _, name := range canonical {
		if name != "" {
			present[name] = true
		}
	}

	var missing []string
	for _, name := range required {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	return missing
}

// rowValues converts a raw data row into a canonical-field map. Cells under
// unmapped headers are discarded.
func rowValues(canonical []string, row []string) map[string]string {
	values := make(map[string]string, len(canonical))
	for i, name := range canonical {
		if name == "" || i >= len(row) {
			continue
		}
		values[name] = row[i]
	}
	return values
}

package ingestion

import (
	"strings"

	"github.com/medtrack/pointsapi/internal/domain"
)

// duplicateKey builds the composite natural key used for within-file
// duplicate detection: provider, location, date, time, and visit type.
// Retrospective data additionally includes the rooming tech because the same
// encounter can legitimately appear once per tech touch; scheduled data has
// no tech dimension.
func duplicateKey(a domain.Appointment) string {
	parts := []string{
		strings.ToLower(strings.TrimSpace(a.LocationName)),
		strings.ToLower(strings.TrimSpace(a.Provider)),
		a.AppointmentDate.Format("2006-01-02"),
		a.AppointmentTime.String(),
		strings.ToLower(strings.TrimSpace(a.VisitType)),
	}
	if a.DataType == domain.UploadTypeRetrospective {
		parts = append(parts, strings.ToLower(strings.TrimSpace(a.RoomingTech)))
	}
	return strings.Join(parts, "|")
}

// markDuplicates flags every appointment whose key was already seen earlier
// in the slice. The first occurrence in file order stays reportable; later
// ones are excluded. Returns the number of rows flagged.
func markDuplicates(appointments []domain.Appointment) int {
	seen := make(map[string]bool, len(appointments))
	duplicates := 0
	for i := range appointments {
		key := duplicateKey(appointments[i])
		if seen[key] {
			appointments[i].MarkDuplicate()
			duplicates++
			continue
		}
		seen[key] = true
	}
	return duplicates
}

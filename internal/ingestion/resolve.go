package ingestion

import (
	"context"
	"strings"
	"time"

	"github.com/medtrack/pointsapi/internal/domain"
	"github.com/medtrack/pointsapi/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// pointEntry is the resolved point value and identity of one appointment
// type, keyed by lower-cased name.
type pointEntry struct {
	typeID uuid.UUID
	points decimal.Decimal
}

// batchContext carries the per-upload lookup state: the organization's point
// dictionary loaded once up front, and a cache of locations resolved so far
// so each distinct name costs at most one round trip.
type batchContext struct {
	organizationID uuid.UUID
	points         map[string]pointEntry
	locations      map[string]domain.Location
	locationRepo   repository.LocationRepository
}

func newBatchContext(ctx context.Context, organizationID uuid.UUID, typeRepo repository.AppointmentTypeRepository, locationRepo repository.LocationRepository) (*batchContext, error) {
	types, err := typeRepo.ListActive(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	points := make(map[string]pointEntry, len(types))
	for _, t := range types {
		points[strings.ToLower(strings.TrimSpace(t.Name))] = pointEntry{typeID: t.ID, points: t.PointValue}
	}

	return &batchContext{
		organizationID: organizationID,
		points:         points,
		locations:      make(map[string]domain.Location),
		locationRepo:   locationRepo,
	}, nil
}

// resolvePoints looks the visit type up in the organization's dictionary.
// The dictionary always wins over whatever point value the file carried;
// unknown types score zero.
func (b *batchContext) resolvePoints(visitType string) (decimal.Decimal, *uuid.UUID) {
	entry, ok := b.points[strings.ToLower(strings.TrimSpace(visitType))]
	if !ok {
		return decimal.Zero, nil
	}
	typeID := entry.typeID
	return entry.points, &typeID
}

// resolveLocation returns the canonical location for a name, creating it on
// first sight within this organization.
func (b *batchContext) resolveLocation(ctx context.Context, name string) (domain.Location, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if location, ok := b.locations[key]; ok {
		return location, nil
	}

	location, err := b.locationRepo.GetOrCreate(ctx, b.organizationID, name)
	if err != nil {
		return domain.Location{}, err
	}
	b.locations[key] = location
	return location, nil
}

// resolveSession prefers the session column when the file provides one and
// derives it from the appointment time otherwise.
func resolveSession(explicit string, t domain.ClockTime) domain.Session {
	switch strings.ToUpper(cleanCell(explicit)) {
	case string(domain.SessionAM):
		return domain.SessionAM
	case string(domain.SessionPM):
		return domain.SessionPM
	}
	return domain.SessionForTime(t)
}

// resolveDayOfWeek keeps an explicit day-of-week column value and derives it
// from the date otherwise.
func resolveDayOfWeek(explicit string, date time.Time) string {
	if value := cleanCell(explicit); value != "" {
		return value
	}
	return date.Weekday().String()
}

// resolveWeekOfMonth keeps an explicit week-of-month column value and derives
// it from the date otherwise.
func resolveWeekOfMonth(explicit string, date time.Time) int {
	if value := parseOptionalInt(explicit); value > 0 {
		return value
	}
	return weekOfMonth(date)
}

// weekOfMonth numbers weeks 1-5 by day of month, so the 1st through 7th are
// week 1 regardless of weekday.
func weekOfMonth(date time.Time) int {
	return ((date.Day() - 1) / 7) + 1
}

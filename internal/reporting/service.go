package reporting

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/medtrack/pointsapi/internal/domain"
	"github.com/medtrack/pointsapi/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Period selects the date window of the tech points report.
const (
	PeriodOneWeek   = "one_week"
	PeriodFourWeeks = "four_weeks"
)

// Service aggregates appointment rows into reports. All point math is exact
// decimal arithmetic; rounding happens only where a report field says so.
type Service struct {
	appointmentRepo repository.AppointmentRepository
	locationRepo    repository.LocationRepository

	now func() time.Time
}

// NewService creates a new reporting service.
func NewService(appointmentRepo repository.AppointmentRepository, locationRepo repository.LocationRepository) *Service {
	return &Service{
		appointmentRepo: appointmentRepo,
		locationRepo:    locationRepo,
		now:             time.Now,
	}
}

// DailyPoints is one zero-filled day of a series, split by session.
type DailyPoints struct {
	Date        string          `json:"date"`
	DayOfWeek   string          `json:"day_of_week"`
	AMPoints    decimal.Decimal `json:"am_points"`
	PMPoints    decimal.Decimal `json:"pm_points"`
	TotalPoints decimal.Decimal `json:"total_points"`
}

// TechPointsSummary is one rooming tech's daily series with totals.
type TechPointsSummary struct {
	RoomingTech string          `json:"rooming_tech"`
	DailyPoints []DailyPoints   `json:"daily_points"`
	TotalAM     decimal.Decimal `json:"total_am"`
	TotalPM     decimal.Decimal `json:"total_pm"`
	GrandTotal  decimal.Decimal `json:"grand_total"`
}

// TechPointsByLocationReport lists per-tech daily AM/PM points at a location.
type TechPointsByLocationReport struct {
	LocationName string              `json:"location_name"`
	Period       string              `json:"period"`
	Month        string              `json:"month"`
	Techs        []TechPointsSummary `json:"techs"`
}

// TechPointsByLocation reports daily AM/PM points per rooming tech at one
// location. Period one_week covers the last 7 days of the month; anything
// else covers the full month.
func (s *Service) TechPointsByLocation(ctx context.Context, organizationID uuid.UUID, locationName, month, period string) (TechPointsByLocationReport, error) {
	year, m, err := ParseMonth(month)
	if err != nil {
		return TechPointsByLocationReport{}, err
	}

	start, end := MonthRange(year, m)
	if period == PeriodOneWeek {
		start = end.AddDate(0, 0, -6)
	} else {
		period = PeriodFourWeeks
	}

	techs, err := s.techSeries(ctx, organizationID, locationName, start, end)
	if err != nil {
		return TechPointsByLocationReport{}, err
	}

	return TechPointsByLocationReport{
		LocationName: locationName,
		Period:       period,
		Month:        month,
		Techs:        techs,
	}, nil
}

// MonthlyTechPointsReport is the full-month variant of the tech report.
type MonthlyTechPointsReport struct {
	LocationName string              `json:"location_name"`
	Month        string              `json:"month"`
	Techs        []TechPointsSummary `json:"techs"`
}

// MonthlyTechPoints reports the full month of daily AM/PM points per tech.
func (s *Service) MonthlyTechPoints(ctx context.Context, organizationID uuid.UUID, locationName, month string) (MonthlyTechPointsReport, error) {
	year, m, err := ParseMonth(month)
	if err != nil {
		return MonthlyTechPointsReport{}, err
	}
	start, end := MonthRange(year, m)

	techs, err := s.techSeries(ctx, organizationID, locationName, start, end)
	if err != nil {
		return MonthlyTechPointsReport{}, err
	}

	return MonthlyTechPointsReport{LocationName: locationName, Month: month, Techs: techs}, nil
}

func (s *Service) techSeries(ctx context.Context, organizationID uuid.UUID, locationName string, start, end time.Time) ([]TechPointsSummary, error) {
	rows, err := s.appointmentRepo.ListForReporting(ctx, repository.ReportFilter{
		OrganizationID: organizationID,
		DataType:       domain.UploadTypeRetrospective,
		From:           start,
		To:             end,
		LocationName:   locationName,
		RequireTech:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load tech points: %w", err)
	}

	buckets := map[string]map[string]*sessionSums{}
	for _, row := range rows {
		day := row.AppointmentDate.Format(dateFormat)
		perDay, ok := buckets[row.RoomingTech]
		if !ok {
			perDay = map[string]*sessionSums{}
			buckets[row.RoomingTech] = perDay
		}
		sums, ok := perDay[day]
		if !ok {
			sums = &sessionSums{}
			perDay[day] = sums
		}
		sums.add(row.Session, row.VisitPoints)
	}

	techs := make([]TechPointsSummary, 0, len(buckets))
	for _, tech := range sortedKeys(buckets) {
		summary := TechPointsSummary{RoomingTech: tech}
		eachDay(start, end, func(d time.Time) {
			day := d.Format(dateFormat)
			sums := buckets[tech][day]
			if sums == nil {
				sums = &sessionSums{}
			}
			summary.TotalAM = summary.TotalAM.Add(sums.am)
			summary.TotalPM = summary.TotalPM.Add(sums.pm)
			summary.DailyPoints = append(summary.DailyPoints, DailyPoints{
				Date:        day,
				DayOfWeek:   d.Weekday().String(),
				AMPoints:    sums.am,
				PMPoints:    sums.pm,
				TotalPoints: sums.am.Add(sums.pm),
			})
		})
		summary.GrandTotal = summary.TotalAM.Add(summary.TotalPM)
		techs = append(techs, summary)
	}
	return techs, nil
}

// ProviderPointsSummary is one provider's AM/PM totals for a month.
type ProviderPointsSummary struct {
	Provider    string          `json:"provider"`
	AMPoints    decimal.Decimal `json:"am_points"`
	PMPoints    decimal.Decimal `json:"pm_points"`
	TotalPoints decimal.Decimal `json:"total_points"`
}

// ManagerProviderPoints groups provider totals under a location manager.
type ManagerProviderPoints struct {
	ManagerName  string                  `json:"manager_name,omitempty"`
	LocationName string                  `json:"location_name"`
	Providers    []ProviderPointsSummary `json:"providers"`
	TotalAM      decimal.Decimal         `json:"total_am"`
	TotalPM      decimal.Decimal         `json:"total_pm"`
	GrandTotal   decimal.Decimal         `json:"grand_total"`
}

// ScheduledPointsByProviderReport lists scheduled (prospective) points per
// provider at a location.
type ScheduledPointsByProviderReport struct {
	LocationName string                  `json:"location_name"`
	Month        string                  `json:"month"`
	Managers     []ManagerProviderPoints `json:"managers"`
}

// ScheduledPointsByProvider reports prospective points per provider, grouped
// under the location's manager.
func (s *Service) ScheduledPointsByProvider(ctx context.Context, organizationID uuid.UUID, locationName, month string) (ScheduledPointsByProviderReport, error) {
	year, m, err := ParseMonth(month)
	if err != nil {
		return ScheduledPointsByProviderReport{}, err
	}
	start, end := MonthRange(year, m)

	managerName := ""
	if location, err := s.locationRepo.GetByName(ctx, organizationID, locationName); err == nil {
		managerName = location.ManagerName
	}

	rows, err := s.appointmentRepo.ListForReporting(ctx, repository.ReportFilter{
		OrganizationID: organizationID,
		DataType:       domain.UploadTypeProspective,
		From:           start,
		To:             end,
		LocationName:   locationName,
	})
	if err != nil {
		return ScheduledPointsByProviderReport{}, fmt.Errorf("failed to load provider points: %w", err)
	}

	buckets := map[string]*sessionSums{}
	for _, row := range rows {
		sums, ok := buckets[row.Provider]
		if !ok {
			sums = &sessionSums{}
			buckets[row.Provider] = sums
		}
		sums.add(row.Session, row.VisitPoints)
	}

	group := ManagerProviderPoints{ManagerName: managerName, LocationName: locationName}
	for _, provider := range sortedKeys(buckets) {
		sums := buckets[provider]
		group.Providers = append(group.Providers, ProviderPointsSummary{
			Provider:    provider,
			AMPoints:    sums.am,
			PMPoints:    sums.pm,
			TotalPoints: sums.am.Add(sums.pm),
		})
		group.TotalAM = group.TotalAM.Add(sums.am)
		group.TotalPM = group.TotalPM.Add(sums.pm)
	}
	group.GrandTotal = group.TotalAM.Add(group.TotalPM)

	return ScheduledPointsByProviderReport{
		LocationName: locationName,
		Month:        month,
		Managers:     []ManagerProviderPoints{group},
	}, nil
}

// SpecialtyLocationPoints compares one (specialty, location) pair across two
// months.
type SpecialtyLocationPoints struct {
	Specialty    string          `json:"specialty"`
	LocationName string          `json:"location_name"`
	Month1Points decimal.Decimal `json:"month1_points"`
	Month2Points decimal.Decimal `json:"month2_points"`
}

// SpecialtyComparisonReport holds the two-month specialty/location matrix.
type SpecialtyComparisonReport struct {
	Month1 string                    `json:"month1"`
	Month2 string                    `json:"month2"`
	Data   []SpecialtyLocationPoints `json:"data"`
}

// SpecialtyComparison reports retrospective points per (specialty, location)
// for two months side by side. Rows missing a specialty fall under "Unknown".
func (s *Service) SpecialtyComparison(ctx context.Context, organizationID uuid.UUID, month1, month2 string) (SpecialtyComparisonReport, error) {
	sums1, err := s.specialtySums(ctx, organizationID, month1)
	if err != nil {
		return SpecialtyComparisonReport{}, err
	}
	sums2, err := s.specialtySums(ctx, organizationID, month2)
	if err != nil {
		return SpecialtyComparisonReport{}, err
	}

	keys := map[[2]string]bool{}
	for key := range sums1 {
		keys[key] = true
	}
	for key := range sums2 {
		keys[key] = true
	}

	ordered := make([][2]string, 0, len(keys))
	for key := range keys {
		ordered = append(ordered, key)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i][0] != ordered[j][0] {
			return ordered[i][0] < ordered[j][0]
		}
		return ordered[i][1] < ordered[j][1]
	})

	data := make([]SpecialtyLocationPoints, 0, len(ordered))
	for _, key := range ordered {
		data = append(data, SpecialtyLocationPoints{
			Specialty:    key[0],
			LocationName: key[1],
			Month1Points: sums1[key],
			Month2Points: sums2[key],
		})
	}

	return SpecialtyComparisonReport{Month1: month1, Month2: month2, Data: data}, nil
}

func (s *Service) specialtySums(ctx context.Context, organizationID uuid.UUID, month string) (map[[2]string]decimal.Decimal, error) {
	year, m, err := ParseMonth(month)
	if err != nil {
		return nil, err
	}
	start, end := MonthRange(year, m)

	rows, err := s.appointmentRepo.ListForReporting(ctx, repository.ReportFilter{
		OrganizationID: organizationID,
		DataType:       domain.UploadTypeRetrospective,
		From:           start,
		To:             end,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load specialty points: %w", err)
	}

	sums := map[[2]string]decimal.Decimal{}
	for _, row := range rows {
		specialty := row.Specialty
		if specialty == "" {
			specialty = "Unknown"
		}
		key := [2]string{specialty, row.LocationName}
		sums[key] = sums[key].Add(row.VisitPoints)
	}
	return sums, nil
}

// LocationWeeklyPoints is one location's Mon-Fri daily series with totals.
type LocationWeeklyPoints struct {
	LocationName string          `json:"location_name"`
	DailyPoints  []DailyPoints   `json:"daily_points"`
	TotalAM      decimal.Decimal `json:"total_am"`
	TotalPM      decimal.Decimal `json:"total_pm"`
	GrandTotal   decimal.Decimal `json:"grand_total"`
}

// WeeklyPointsByLocationReport lists scheduled points per location for one
// Mon-Fri week.
type WeeklyPointsByLocationReport struct {
	Month     string                 `json:"month"`
	Week      int                    `json:"week"`
	Locations []LocationWeeklyPoints `json:"locations"`
}

// WeeklyPointsByLocation reports prospective points per location across one
// Mon-Fri week of the month.
func (s *Service) WeeklyPointsByLocation(ctx context.Context, organizationID uuid.UUID, month string, week int) (WeeklyPointsByLocationReport, error) {
	year, m, err := ParseMonth(month)
	if err != nil {
		return WeeklyPointsByLocationReport{}, err
	}
	if week < 1 || week > 6 {
		return WeeklyPointsByLocationReport{}, fmt.Errorf("invalid week %d", week)
	}
	start, end := WeekRange(year, m, week)

	rows, err := s.appointmentRepo.ListForReporting(ctx, repository.ReportFilter{
		OrganizationID: organizationID,
		DataType:       domain.UploadTypeProspective,
		From:           start,
		To:             end,
	})
	if err != nil {
		return WeeklyPointsByLocationReport{}, fmt.Errorf("failed to load weekly points: %w", err)
	}

	buckets := map[string]map[string]*sessionSums{}
	for _, row := range rows {
		day := row.AppointmentDate.Format(dateFormat)
		perDay, ok := buckets[row.LocationName]
		if !ok {
			perDay = map[string]*sessionSums{}
			buckets[row.LocationName] = perDay
		}
		sums, ok := perDay[day]
		if !ok {
			sums = &sessionSums{}
			perDay[day] = sums
		}
		sums.add(row.Session, row.VisitPoints)
	}

	locations := make([]LocationWeeklyPoints, 0, len(buckets))
	for _, name := range sortedKeys(buckets) {
		weekly := LocationWeeklyPoints{LocationName: name}
		eachDay(start, end, func(d time.Time) {
			day := d.Format(dateFormat)
			sums := buckets[name][day]
			if sums == nil {
				sums = &sessionSums{}
			}
			weekly.TotalAM = weekly.TotalAM.Add(sums.am)
			weekly.TotalPM = weekly.TotalPM.Add(sums.pm)
			weekly.DailyPoints = append(weekly.DailyPoints, DailyPoints{
				Date:        day,
				DayOfWeek:   d.Weekday().String(),
				AMPoints:    sums.am,
				PMPoints:    sums.pm,
				TotalPoints: sums.am.Add(sums.pm),
			})
		})
		weekly.GrandTotal = weekly.TotalAM.Add(weekly.TotalPM)
		locations = append(locations, weekly)
	}

	return WeeklyPointsByLocationReport{Month: month, Week: week, Locations: locations}, nil
}

// TrendPoint is one day of the dashboard trend, zero-filled.
type TrendPoint struct {
	Date             string          `json:"date"`
	TotalPoints      decimal.Decimal `json:"total_points"`
	AppointmentCount int             `json:"appointment_count"`
}

// DashboardOverview is the landing-page summary.
type DashboardOverview struct {
	TotalPoints       decimal.Decimal `json:"total_points"`
	TotalAppointments int             `json:"total_appointments"`
	AvgPointsPerDay   decimal.Decimal `json:"avg_points_per_day"`
	ActiveLocations   int             `json:"active_locations"`
	TrendData         []TrendPoint    `json:"trend_data"`
}

// Overview reports all-time retrospective totals plus a zero-filled daily
// trend over the trailing window. The average is per active day (days with at
// least one appointment) and is the only rounded figure, to two decimals.
func (s *Service) Overview(ctx context.Context, organizationID uuid.UUID, locationNames []string, days int) (DashboardOverview, error) {
	if days <= 0 {
		days = 10
	}
	today := s.today()
	start := today.AddDate(0, 0, -(days - 1))

	rows, err := s.appointmentRepo.ListForReporting(ctx, repository.ReportFilter{
		OrganizationID: organizationID,
		DataType:       domain.UploadTypeRetrospective,
		LocationNames:  locationNames,
	})
	if err != nil {
		return DashboardOverview{}, fmt.Errorf("failed to load overview: %w", err)
	}

	overview := DashboardOverview{TotalAppointments: len(rows)}
	distinctLocations := map[string]bool{}
	type dayAgg struct {
		points decimal.Decimal
		count  int
	}
	trend := map[string]*dayAgg{}

	for _, row := range rows {
		overview.TotalPoints = overview.TotalPoints.Add(row.VisitPoints)
		distinctLocations[strings.ToLower(row.LocationName)] = true

		if row.AppointmentDate.Before(start) || row.AppointmentDate.After(today) {
			continue
		}
		day := row.AppointmentDate.Format(dateFormat)
		agg, ok := trend[day]
		if !ok {
			agg = &dayAgg{}
			trend[day] = agg
		}
		agg.points = agg.points.Add(row.VisitPoints)
		agg.count++
	}
	overview.ActiveLocations = len(distinctLocations)

	trendTotal := decimal.Zero
	activeDays := 0
	eachDay(start, today, func(d time.Time) {
		day := d.Format(dateFormat)
		point := TrendPoint{Date: day, TotalPoints: decimal.Zero}
		if agg, ok := trend[day]; ok {
			point.TotalPoints = agg.points
			point.AppointmentCount = agg.count
			trendTotal = trendTotal.Add(agg.points)
			activeDays++
		}
		overview.TrendData = append(overview.TrendData, point)
	})

	if activeDays > 0 {
		overview.AvgPointsPerDay = trendTotal.DivRound(decimal.NewFromInt(int64(activeDays)), 2)
	}
	return overview, nil
}

// LocationTableRow is one location's roster and point totals.
type LocationTableRow struct {
	LocationName     string          `json:"location_name"`
	LocationID       uuid.UUID       `json:"location_id"`
	NumEmployees     int             `json:"num_employees"`
	ManagerName      string          `json:"manager_name,omitempty"`
	YTDPoints        decimal.Decimal `json:"ytd_points"`
	MTDPoints        decimal.Decimal `json:"mtd_points"`
	AppointmentCount int             `json:"appointment_count"`
}

// LocationTable is the per-location YTD/MTD summary.
type LocationTable struct {
	Locations []LocationTableRow `json:"locations"`
	Total     int                `json:"total"`
}

// LocationSummary reports year-to-date and month-to-date points for every
// active location, joined with manager and headcount attributes.
func (s *Service) LocationSummary(ctx context.Context, organizationID uuid.UUID, search string) (LocationTable, error) {
	today := s.today()
	yearStart := time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)

	locations, err := s.locationRepo.List(ctx, organizationID, search)
	if err != nil {
		return LocationTable{}, fmt.Errorf("failed to list locations: %w", err)
	}

	rows, err := s.appointmentRepo.ListForReporting(ctx, repository.ReportFilter{
		OrganizationID: organizationID,
		DataType:       domain.UploadTypeRetrospective,
		From:           yearStart,
		To:             today,
	})
	if err != nil {
		return LocationTable{}, fmt.Errorf("failed to load location points: %w", err)
	}

	type locAgg struct {
		ytd   decimal.Decimal
		mtd   decimal.Decimal
		count int
	}
	sums := map[string]*locAgg{}
	for _, row := range rows {
		key := strings.ToLower(strings.TrimSpace(row.LocationName))
		agg, ok := sums[key]
		if !ok {
			agg = &locAgg{}
			sums[key] = agg
		}
		agg.ytd = agg.ytd.Add(row.VisitPoints)
		agg.count++
		if !row.AppointmentDate.Before(monthStart) {
			agg.mtd = agg.mtd.Add(row.VisitPoints)
		}
	}

	table := LocationTable{Locations: []LocationTableRow{}}
	for _, location := range locations {
		if !location.IsActive {
			continue
		}
		row := LocationTableRow{
			LocationName: location.Name,
			LocationID:   location.ID,
			NumEmployees: location.NumEmployees,
			ManagerName:  location.ManagerName,
		}
		if agg, ok := sums[strings.ToLower(strings.TrimSpace(location.Name))]; ok {
			row.YTDPoints = agg.ytd
			row.MTDPoints = agg.mtd
			row.AppointmentCount = agg.count
		}
		table.Locations = append(table.Locations, row)
	}
	sort.Slice(table.Locations, func(i, j int) bool {
		return table.Locations[i].LocationName < table.Locations[j].LocationName
	})
	table.Total = len(table.Locations)
	return table, nil
}

// today truncates the clock to a UTC calendar date.
func (s *Service) today() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

type sessionSums struct {
	am decimal.Decimal
	pm decimal.Decimal
}

func (s *sessionSums) add(session domain.Session, points decimal.Decimal) {
	if session == domain.SessionAM {
		s.am = s.am.Add(points)
		return
	}
	s.pm = s.pm.Add(points)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

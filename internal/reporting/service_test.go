package reporting

import (
	"context"
	"testing"
	"time"

	"github.com/medtrack/pointsapi/internal/domain"
	"github.com/medtrack/pointsapi/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type stubAppointmentRepo struct {
	rows       []domain.Appointment
	lastFilter repository.ReportFilter
}

func (s *stubAppointmentRepo) Create(_ context.Context, a domain.Appointment) (domain.Appointment, error) {
	return a, nil
}

func (s *stubAppointmentRepo) GetByID(context.Context, uuid.UUID) (domain.Appointment, error) {
	return domain.Appointment{}, repository.ErrNotFound
}

func (s *stubAppointmentRepo) Update(_ context.Context, a domain.Appointment) (domain.Appointment, error) {
	return a, nil
}

func (s *stubAppointmentRepo) Delete(context.Context, uuid.UUID) error { return nil }

func (s *stubAppointmentRepo) ListByUpload(context.Context, uuid.UUID) ([]domain.Appointment, error) {
	return nil, nil
}

func (s *stubAppointmentRepo) ListForReporting(_ context.Context, filter repository.ReportFilter) ([]domain.Appointment, error) {
	s.lastFilter = filter
	matched := []domain.Appointment{}
	for _, row := range s.rows {
		if filter.DataType != "" && row.DataType != filter.DataType {
			continue
		}
		if !filter.From.IsZero() && row.AppointmentDate.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && row.AppointmentDate.After(filter.To) {
			continue
		}
		if filter.RequireTech && row.RoomingTech == "" {
			continue
		}
		matched = append(matched, row)
	}
	return matched, nil
}

type stubLocationRepo struct {
	locations []domain.Location
}

func (s *stubLocationRepo) Create(_ context.Context, l domain.Location) (domain.Location, error) {
	return l, nil
}

func (s *stubLocationRepo) GetByID(context.Context, uuid.UUID) (domain.Location, error) {
	return domain.Location{}, repository.ErrNotFound
}

func (s *stubLocationRepo) GetByName(_ context.Context, _ uuid.UUID, name string) (domain.Location, error) {
	for _, l := range s.locations {
		if l.Name == name {
			return l, nil
		}
	}
	return domain.Location{}, repository.ErrNotFound
}

func (s *stubLocationRepo) GetOrCreate(_ context.Context, orgID uuid.UUID, name string) (domain.Location, error) {
	return domain.NewLocation(orgID, name), nil
}

func (s *stubLocationRepo) List(context.Context, uuid.UUID, string) ([]domain.Location, error) {
	return s.locations, nil
}

func (s *stubLocationRepo) Update(_ context.Context, l domain.Location) (domain.Location, error) {
	return l, nil
}

func points(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func retroVisit(tech string, d time.Time, session domain.Session, pts string) domain.Appointment {
	return domain.Appointment{
		DataType:        domain.UploadTypeRetrospective,
		LocationName:    "Main Clinic",
		Provider:        "Dr. Adams",
		RoomingTech:     tech,
		AppointmentDate: d,
		Session:         session,
		VisitPoints:     points(pts),
	}
}

func newReportService(rows []domain.Appointment, locations []domain.Location) (*Service, *stubAppointmentRepo) {
	appointmentRepo := &stubAppointmentRepo{rows: rows}
	service := NewService(appointmentRepo, &stubLocationRepo{locations: locations})
	return service, appointmentRepo
}

func TestTechPointsByLocationZeroFillsMonth(t *testing.T) {
	d1 := day(2025, time.March, 3)
	d2 := day(2025, time.March, 10)
	service, _ := newReportService([]domain.Appointment{
		retroVisit("Tech A", d1, domain.SessionAM, "2.50"),
		retroVisit("Tech A", d1, domain.SessionPM, "1.00"),
		retroVisit("Tech A", d2, domain.SessionAM, "3.00"),
	}, nil)

	report, err := service.TechPointsByLocation(context.Background(), uuid.New(), "Main Clinic", "2025-03", "")
	if err != nil {
		t.Fatalf("report returned error: %v", err)
	}

	if len(report.Techs) != 1 {
		t.Fatalf("expected 1 tech, got %d", len(report.Techs))
	}
	tech := report.Techs[0]
	if len(tech.DailyPoints) != 31 {
		t.Fatalf("expected 31 zero-filled days, got %d", len(tech.DailyPoints))
	}
	if !tech.TotalAM.Equal(points("5.50")) || !tech.TotalPM.Equal(points("1.00")) {
		t.Fatalf("totals = %s AM / %s PM", tech.TotalAM, tech.TotalPM)
	}
	if !tech.GrandTotal.Equal(points("6.50")) {
		t.Fatalf("grand total = %s", tech.GrandTotal)
	}

	march3 := tech.DailyPoints[2]
	if march3.Date != "2025-03-03" || !march3.TotalPoints.Equal(points("3.50")) {
		t.Fatalf("unexpected bucket: %+v", march3)
	}
	if !tech.DailyPoints[3].TotalPoints.IsZero() {
		t.Fatalf("empty day should be zero-filled")
	}
}

func TestTechPointsOneWeekPeriodWindow(t *testing.T) {
	service, appointmentRepo := newReportService(nil, nil)

	report, err := service.TechPointsByLocation(context.Background(), uuid.New(), "Main Clinic", "2025-03", PeriodOneWeek)
	if err != nil {
		t.Fatalf("report returned error: %v", err)
	}
	if report.Period != PeriodOneWeek {
		t.Fatalf("period = %q", report.Period)
	}

	filter := appointmentRepo.lastFilter
	if !filter.From.Equal(day(2025, time.March, 25)) || !filter.To.Equal(day(2025, time.March, 31)) {
		t.Fatalf("one_week window = %v..%v", filter.From, filter.To)
	}
	if !filter.RequireTech || filter.DataType != domain.UploadTypeRetrospective {
		t.Fatalf("unexpected filter: %+v", filter)
	}
}

func TestScheduledPointsByProviderGroupsUnderManager(t *testing.T) {
	d := day(2025, time.March, 5)
	rows := []domain.Appointment{
		{DataType: domain.UploadTypeProspective, LocationName: "Main Clinic", Provider: "Dr. Adams",
			AppointmentDate: d, Session: domain.SessionAM, VisitPoints: points("2.00")},
		{DataType: domain.UploadTypeProspective, LocationName: "Main Clinic", Provider: "Dr. Adams",
			AppointmentDate: d, Session: domain.SessionPM, VisitPoints: points("1.50")},
		{DataType: domain.UploadTypeProspective, LocationName: "Main Clinic", Provider: "Dr. Brown",
			AppointmentDate: d, Session: domain.SessionAM, VisitPoints: points("4.00")},
	}
	service, _ := newReportService(rows, []domain.Location{
		{Name: "Main Clinic", ManagerName: "Casey Morgan", IsActive: true},
	})

	report, err := service.ScheduledPointsByProvider(context.Background(), uuid.New(), "Main Clinic", "2025-03")
	if err != nil {
		t.Fatalf("report returned error: %v", err)
	}
	if len(report.Managers) != 1 {
		t.Fatalf("expected 1 manager group")
	}
	group := report.Managers[0]
	if group.ManagerName != "Casey Morgan" {
		t.Fatalf("manager = %q", group.ManagerName)
	}
	if len(group.Providers) != 2 {
		t.Fatalf("expected 2 providers, got %d", len(group.Providers))
	}
	if !group.GrandTotal.Equal(points("7.50")) {
		t.Fatalf("grand total = %s", group.GrandTotal)
	}
	if group.Providers[0].Provider != "Dr. Adams" || !group.Providers[0].TotalPoints.Equal(points("3.50")) {
		t.Fatalf("unexpected provider row: %+v", group.Providers[0])
	}
}

func TestSpecialtyComparisonMergesMonths(t *testing.T) {
	rows := []domain.Appointment{
		{DataType: domain.UploadTypeRetrospective, LocationName: "Main Clinic", Specialty: "Derm",
			AppointmentDate: day(2025, time.February, 10), VisitPoints: points("5.00")},
		{DataType: domain.UploadTypeRetrospective, LocationName: "Main Clinic", Specialty: "Derm",
			AppointmentDate: day(2025, time.March, 10), VisitPoints: points("7.00")},
		{DataType: domain.UploadTypeRetrospective, LocationName: "West",
			AppointmentDate: day(2025, time.March, 12), VisitPoints: points("1.00")},
	}
	service, _ := newReportService(rows, nil)

	report, err := service.SpecialtyComparison(context.Background(), uuid.New(), "2025-02", "2025-03")
	if err != nil {
		t.Fatalf("report returned error: %v", err)
	}
	if len(report.Data) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(report.Data))
	}

	derm := report.Data[0]
	if derm.Specialty != "Derm" || !derm.Month1Points.Equal(points("5.00")) || !derm.Month2Points.Equal(points("7.00")) {
		t.Fatalf("unexpected derm row: %+v", derm)
	}
	unknown := report.Data[1]
	if unknown.Specialty != "Unknown" || !unknown.Month1Points.IsZero() || !unknown.Month2Points.Equal(points("1.00")) {
		t.Fatalf("missing specialty should report as Unknown: %+v", unknown)
	}
}

func TestWeeklyPointsByLocationZeroFillsWeek(t *testing.T) {
	rows := []domain.Appointment{
		{DataType: domain.UploadTypeProspective, LocationName: "Main Clinic", Provider: "Dr. Adams",
			AppointmentDate: day(2025, time.March, 4), Session: domain.SessionAM, VisitPoints: points("2.00")},
	}
	service, _ := newReportService(rows, nil)

	report, err := service.WeeklyPointsByLocation(context.Background(), uuid.New(), "2025-03", 1)
	if err != nil {
		t.Fatalf("report returned error: %v", err)
	}
	if len(report.Locations) != 1 {
		t.Fatalf("expected 1 location")
	}
	weekly := report.Locations[0]
	if len(weekly.DailyPoints) != 5 {
		t.Fatalf("expected Mon-Fri series, got %d days", len(weekly.DailyPoints))
	}
	if weekly.DailyPoints[0].Date != "2025-03-03" || weekly.DailyPoints[4].Date != "2025-03-07" {
		t.Fatalf("unexpected week bounds: %s..%s", weekly.DailyPoints[0].Date, weekly.DailyPoints[4].Date)
	}
	if !weekly.GrandTotal.Equal(points("2.00")) {
		t.Fatalf("grand total = %s", weekly.GrandTotal)
	}
}

func TestOverviewTrendAndAverage(t *testing.T) {
	today := day(2025, time.March, 10)
	rows := []domain.Appointment{
		retroVisit("Tech A", day(2025, time.March, 8), domain.SessionAM, "4.00"),
		retroVisit("Tech A", day(2025, time.March, 10), domain.SessionPM, "6.00"),
		retroVisit("Tech B", day(2025, time.January, 2), domain.SessionAM, "9.00"),
	}
	service, _ := newReportService(rows, nil)
	service.now = func() time.Time { return today }

	overview, err := service.Overview(context.Background(), uuid.New(), nil, 3)
	if err != nil {
		t.Fatalf("overview returned error: %v", err)
	}

	if !overview.TotalPoints.Equal(points("19.00")) || overview.TotalAppointments != 3 {
		t.Fatalf("all-time totals = %s / %d", overview.TotalPoints, overview.TotalAppointments)
	}
	if overview.ActiveLocations != 1 {
		t.Fatalf("active locations = %d", overview.ActiveLocations)
	}
	if len(overview.TrendData) != 3 {
		t.Fatalf("trend should cover 3 days, got %d", len(overview.TrendData))
	}
	if !overview.TrendData[1].TotalPoints.IsZero() {
		t.Fatalf("empty trend day should be zero-filled")
	}
	// 10.00 over 2 active days.
	if overview.AvgPointsPerDay.String() != "5" {
		t.Fatalf("avg per active day = %s", overview.AvgPointsPerDay)
	}
}

func TestOverviewAverageRoundsToTwoDecimals(t *testing.T) {
	today := day(2025, time.March, 10)
	rows := []domain.Appointment{
		retroVisit("Tech A", day(2025, time.March, 9), domain.SessionAM, "5.00"),
		retroVisit("Tech A", day(2025, time.March, 10), domain.SessionAM, "5.00"),
		retroVisit("Tech A", day(2025, time.March, 8), domain.SessionAM, "0.01"),
	}
	service, _ := newReportService(rows, nil)
	service.now = func() time.Time { return today }

	overview, err := service.Overview(context.Background(), uuid.New(), nil, 3)
	if err != nil {
		t.Fatalf("overview returned error: %v", err)
	}
	// 10.01 / 3 rounded at the boundary only.
	if overview.AvgPointsPerDay.String() != "3.34" {
		t.Fatalf("avg per active day = %s", overview.AvgPointsPerDay)
	}
}

func TestLocationSummaryYTDAndMTD(t *testing.T) {
	today := day(2025, time.March, 15)
	rows := []domain.Appointment{
		retroVisit("Tech A", day(2025, time.January, 10), domain.SessionAM, "3.00"),
		retroVisit("Tech A", day(2025, time.March, 5), domain.SessionAM, "2.00"),
	}
	locations := []domain.Location{
		{ID: uuid.New(), Name: "Main Clinic", ManagerName: "Casey Morgan", NumEmployees: 7, IsActive: true},
		{ID: uuid.New(), Name: "Closed Site", IsActive: false},
	}
	service, _ := newReportService(rows, locations)
	service.now = func() time.Time { return today }

	table, err := service.LocationSummary(context.Background(), uuid.New(), "")
	if err != nil {
		t.Fatalf("summary returned error: %v", err)
	}
	if table.Total != 1 {
		t.Fatalf("inactive locations should be dropped, total = %d", table.Total)
	}
	row := table.Locations[0]
	if !row.YTDPoints.Equal(points("5.00")) || !row.MTDPoints.Equal(points("2.00")) {
		t.Fatalf("points = YTD %s / MTD %s", row.YTDPoints, row.MTDPoints)
	}
	if row.AppointmentCount != 2 || row.NumEmployees != 7 || row.ManagerName != "Casey Morgan" {
		t.Fatalf("unexpected row: %+v", row)
	}
}

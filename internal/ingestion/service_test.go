package ingestion

import (
	"context"
	"strings"
	"testing"

	"github.com/medtrack/pointsapi/internal/domain"
	"github.com/medtrack/pointsapi/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type stubTypeRepo struct {
	types []domain.AppointmentType
}

func (s *stubTypeRepo) Create(_ context.Context, t domain.AppointmentType) (domain.AppointmentType, error) {
	s.types = append(s.types, t)
	return t, nil
}

func (s *stubTypeRepo) ListActive(context.Context, uuid.UUID) ([]domain.AppointmentType, error) {
	active := []domain.AppointmentType{}
	for _, t := range s.types {
		if t.IsActive {
			active = append(active, t)
		}
	}
	return active, nil
}

func (s *stubTypeRepo) List(context.Context, uuid.UUID) ([]domain.AppointmentType, error) {
	return s.types, nil
}

func (s *stubTypeRepo) Update(_ context.Context, t domain.AppointmentType) (domain.AppointmentType, error) {
	return t, nil
}

func (s *stubTypeRepo) Deactivate(context.Context, uuid.UUID) error { return nil }

type stubLocationRepo struct {
	locations map[string]domain.Location
	created   int
}

func (s *stubLocationRepo) Create(_ context.Context, l domain.Location) (domain.Location, error) {
	if s.locations == nil {
		s.locations = map[string]domain.Location{}
	}
	s.locations[strings.ToLower(l.Name)] = l
	return l, nil
}

func (s *stubLocationRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Location, error) {
	for _, l := range s.locations {
		if l.ID == id {
			return l, nil
		}
	}
	return domain.Location{}, repository.ErrNotFound
}

func (s *stubLocationRepo) GetByName(_ context.Context, _ uuid.UUID, name string) (domain.Location, error) {
	if l, ok := s.locations[strings.ToLower(strings.TrimSpace(name))]; ok {
		return l, nil
	}
	return domain.Location{}, repository.ErrNotFound
}

func (s *stubLocationRepo) GetOrCreate(ctx context.Context, organizationID uuid.UUID, name string) (domain.Location, error) {
	if l, err := s.GetByName(ctx, organizationID, name); err == nil {
		return l, nil
	}
	s.created++
	return s.Create(ctx, domain.NewLocation(organizationID, name))
}

func (s *stubLocationRepo) List(context.Context, uuid.UUID, string) ([]domain.Location, error) {
	list := []domain.Location{}
	for _, l := range s.locations {
		list = append(list, l)
	}
	return list, nil
}

func (s *stubLocationRepo) Update(_ context.Context, l domain.Location) (domain.Location, error) {
	return l, nil
}

type stubUploadRepo struct {
	failed       []domain.Upload
	committed    []domain.Upload
	appointments [][]domain.Appointment
}

func (s *stubUploadRepo) CreateFailed(_ context.Context, u domain.Upload) (domain.Upload, error) {
	s.failed = append(s.failed, u)
	return u, nil
}

func (s *stubUploadRepo) CommitBatch(_ context.Context, u domain.Upload, appointments []domain.Appointment) (domain.Upload, error) {
	next := 0
	for i := range s.committed {
		if s.committed[i].OrganizationID == u.OrganizationID && s.committed[i].UploadType == u.UploadType {
			s.committed[i].IsActive = false
			if s.committed[i].VersionNumber > next {
				next = s.committed[i].VersionNumber
			}
		}
	}
	u.VersionNumber = next + 1
	u.IsActive = true
	for i := range appointments {
		appointments[i].UploadID = &u.ID
	}
	s.committed = append(s.committed, u)
	s.appointments = append(s.appointments, appointments)
	return u, nil
}

func (s *stubUploadRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Upload, error) {
	for _, u := range s.committed {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.Upload{}, repository.ErrNotFound
}

func (s *stubUploadRepo) List(context.Context, uuid.UUID, *domain.UploadType) ([]domain.Upload, error) {
	return s.committed, nil
}

func (s *stubUploadRepo) Delete(context.Context, uuid.UUID) error { return nil }

const retroHeader = "Location,Rooming Tech,Provider,Specialty,Appt Date,Appt Time,Check In,Visit Type,Visit Points\n"

func newTestService(orgID uuid.UUID, points map[string]string) (*Service, *stubLocationRepo, *stubUploadRepo) {
	typeRepo := &stubTypeRepo{}
	for name, value := range points {
		t := domain.NewAppointmentType(orgID, name, decimal.RequireFromString(value))
		typeRepo.types = append(typeRepo.types, t)
	}
	locationRepo := &stubLocationRepo{}
	uploadRepo := &stubUploadRepo{}
	return NewService(typeRepo, locationRepo, uploadRepo), locationRepo, uploadRepo
}

func ingestCSV(t *testing.T, service *Service, orgID uuid.UUID, uploadType domain.UploadType, csv string) domain.Upload {
	t.Helper()
	upload, err := service.Ingest(context.Background(), Request{
		OrganizationID: orgID,
		UserID:         uuid.New(),
		UploadType:     uploadType,
		FileName:       "visits.csv",
		Data:           strings.NewReader(csv),
	})
	if err != nil {
		t.Fatalf("ingest returned error: %v", err)
	}
	return upload
}

func TestIngestRejectsMissingRequiredColumns(t *testing.T) {
	orgID := uuid.New()
	service, _, uploadRepo := newTestService(orgID, nil)

	data := "Location,Appt Date,Appt Time\nMain,3/3/2025,9:00 AM\n"
	upload := ingestCSV(t, service, orgID, domain.UploadTypeRetrospective, data)

	if upload.Status != domain.UploadStatusFailed {
		t.Fatalf("expected failed upload, got %s", upload.Status)
	}
	if !strings.Contains(upload.ErrorMessage, "provider") {
		t.Fatalf("error message should name the missing column: %q", upload.ErrorMessage)
	}
	if len(uploadRepo.failed) != 1 || len(uploadRepo.committed) != 0 {
		t.Fatalf("failed upload should be recorded without a commit")
	}
	if upload.IsActive {
		t.Fatalf("failed uploads must not be active")
	}
}

func TestIngestRejectsUnsupportedFormat(t *testing.T) {
	orgID := uuid.New()
	service, _, uploadRepo := newTestService(orgID, nil)

	upload, err := service.Ingest(context.Background(), Request{
		OrganizationID: orgID,
		UserID:         uuid.New(),
		UploadType:     domain.UploadTypeProspective,
		FileName:       "visits.pdf",
		Data:           strings.NewReader("not a spreadsheet"),
	})
	if err != nil {
		t.Fatalf("ingest returned error: %v", err)
	}
	if upload.Status != domain.UploadStatusFailed {
		t.Fatalf("expected failed upload, got %s", upload.Status)
	}
	if len(uploadRepo.failed) != 1 {
		t.Fatalf("expected one recorded failure")
	}
}

func TestIngestResolvesPointsFromTypeTable(t *testing.T) {
	orgID := uuid.New()
	service, _, uploadRepo := newTestService(orgID, map[string]string{"Botox": "3.00"})

	data := retroHeader +
		"Main,Tech A,Dr. Adams,Derm,3/3/2025,9:00 AM,Front Desk,Botox,99\n" +
		"Main,Tech A,Dr. Adams,Derm,3/3/2025,10:00 AM,Front Desk,Mystery Visit,5\n"
	upload := ingestCSV(t, service, orgID, domain.UploadTypeRetrospective, data)

	if upload.Status != domain.UploadStatusCompleted {
		t.Fatalf("expected completed upload, got %s: %s", upload.Status, upload.ErrorMessage)
	}
	rows := uploadRepo.appointments[0]
	if len(rows) != 2 {
		t.Fatalf("expected 2 appointments, got %d", len(rows))
	}
	if !rows[0].VisitPoints.Equal(decimal.RequireFromString("3.00")) {
		t.Fatalf("type table should override file points, got %s", rows[0].VisitPoints)
	}
	if rows[0].AppointmentTypeID == nil {
		t.Fatalf("resolved type should be linked")
	}
	if !rows[1].VisitPoints.IsZero() || rows[1].AppointmentTypeID != nil {
		t.Fatalf("unknown visit type should score zero with no link")
	}
}

func TestIngestFlagsWithinFileDuplicates(t *testing.T) {
	orgID := uuid.New()
	service, _, uploadRepo := newTestService(orgID, nil)

	row := "Main,Tech A,Dr. Adams,Derm,3/3/2025,9:00 AM,Front Desk,Follow Up,\n"
	data := retroHeader + row + row +
		"Main,Tech A,Dr. Adams,Derm,3/3/2025,10:00 AM,Front Desk,Follow Up,\n"
	upload := ingestCSV(t, service, orgID, domain.UploadTypeRetrospective, data)

	// Duplicates are excluded from reporting but still count as valid rows.
	if upload.RowCount != 3 || upload.ValidRowCount != 3 || upload.DuplicateCount != 1 {
		t.Fatalf("unexpected counts: rows=%d valid=%d dup=%d",
			upload.RowCount, upload.ValidRowCount, upload.DuplicateCount)
	}

	rows := uploadRepo.appointments[0]
	if rows[0].IsDuplicate || !rows[1].IsDuplicate || rows[2].IsDuplicate {
		t.Fatalf("only the second occurrence should be flagged")
	}
	if rows[1].ExclusionReason != domain.ExclusionReasonWithinFileDuplicate {
		t.Fatalf("unexpected exclusion reason %q", rows[1].ExclusionReason)
	}
}

func TestIngestSkipsRowsMissingCriticalValues(t *testing.T) {
	orgID := uuid.New()
	service, _, uploadRepo := newTestService(orgID, nil)

	data := retroHeader +
		"Main,Tech A,Dr. Adams,Derm,3/3/2025,9:00 AM,Front Desk,Follow Up,\n" +
		"Main,Tech A,,Derm,3/3/2025,9:30 AM,Front Desk,Follow Up,\n" +
		"Main,Tech A,Dr. Adams,Derm,garbage,10:00 AM,Front Desk,Follow Up,\n"
	upload := ingestCSV(t, service, orgID, domain.UploadTypeRetrospective, data)

	if upload.Status != domain.UploadStatusCompleted {
		t.Fatalf("row problems must not fail the upload: %s", upload.ErrorMessage)
	}
	if upload.RowCount != 3 || upload.ValidRowCount != 1 {
		t.Fatalf("unexpected counts: rows=%d valid=%d", upload.RowCount, upload.ValidRowCount)
	}
	if len(uploadRepo.appointments[0]) != 1 {
		t.Fatalf("expected 1 surviving appointment, got %d", len(uploadRepo.appointments[0]))
	}
}

func TestIngestVersioningActivatesLatest(t *testing.T) {
	orgID := uuid.New()
	service, _, uploadRepo := newTestService(orgID, nil)

	data := retroHeader + "Main,Tech A,Dr. Adams,Derm,3/3/2025,9:00 AM,Front Desk,Follow Up,\n"
	first := ingestCSV(t, service, orgID, domain.UploadTypeRetrospective, data)
	second := ingestCSV(t, service, orgID, domain.UploadTypeRetrospective, data)

	if first.VersionNumber != 1 || second.VersionNumber != 2 {
		t.Fatalf("versions = %d, %d; want 1, 2", first.VersionNumber, second.VersionNumber)
	}
	if !second.IsActive {
		t.Fatalf("latest upload should be active")
	}
	if uploadRepo.committed[0].IsActive {
		t.Fatalf("previous upload should be deactivated")
	}
}

func TestIngestCreatesLocationsOnce(t *testing.T) {
	orgID := uuid.New()
	service, locationRepo, uploadRepo := newTestService(orgID, nil)

	data := retroHeader +
		"Main,Tech A,Dr. Adams,Derm,3/3/2025,9:00 AM,Front Desk,Follow Up,\n" +
		"MAIN,Tech B,Dr. Brown,Derm,3/3/2025,10:00 AM,Front Desk,Follow Up,\n" +
		"West,Tech A,Dr. Adams,Derm,3/3/2025,11:00 AM,Front Desk,Follow Up,\n"
	upload := ingestCSV(t, service, orgID, domain.UploadTypeRetrospective, data)

	if upload.Status != domain.UploadStatusCompleted {
		t.Fatalf("unexpected status %s: %s", upload.Status, upload.ErrorMessage)
	}
	if locationRepo.created != 2 {
		t.Fatalf("expected 2 created locations, got %d", locationRepo.created)
	}
	rows := uploadRepo.appointments[0]
	if rows[0].LocationID == nil || rows[1].LocationID == nil || *rows[0].LocationID != *rows[1].LocationID {
		t.Fatalf("case-insensitive names should resolve to one location")
	}
}

func TestIngestSkipsRowsMissingVisitType(t *testing.T) {
	orgID := uuid.New()
	service, _, uploadRepo := newTestService(orgID, nil)

	data := retroHeader +
		"Main,Tech A,Dr. Adams,Derm,3/3/2025,9:00 AM,Front Desk,Follow Up,\n" +
		"Main,Tech A,Dr. Adams,Derm,3/3/2025,9:30 AM,Front Desk,,\n" +
		"Main,Tech A,Dr. Adams,Derm,3/3/2025,10:00 AM,Front Desk,NaN,\n"
	upload := ingestCSV(t, service, orgID, domain.UploadTypeRetrospective, data)

	if upload.Status != domain.UploadStatusCompleted {
		t.Fatalf("row problems must not fail the upload: %s", upload.ErrorMessage)
	}
	if upload.RowCount != 3 || upload.ValidRowCount != 1 {
		t.Fatalf("unexpected counts: rows=%d valid=%d", upload.RowCount, upload.ValidRowCount)
	}
	if len(uploadRepo.appointments[0]) != 1 {
		t.Fatalf("rows without a visit type must be skipped, got %d", len(uploadRepo.appointments[0]))
	}
}

func TestIngestDerivesCalendarFields(t *testing.T) {
	orgID := uuid.New()
	service, _, uploadRepo := newTestService(orgID, nil)

	data := "Location,Provider,Specialty,Appt Date,Appt Time,Visit Type\n" +
		"Main,Dr. Adams,Derm,3/10/2025,1:30 PM,Follow Up\n"
	upload := ingestCSV(t, service, orgID, domain.UploadTypeProspective, data)

	if upload.Status != domain.UploadStatusCompleted {
		t.Fatalf("unexpected status %s: %s", upload.Status, upload.ErrorMessage)
	}
	row := uploadRepo.appointments[0][0]
	if row.DayOfWeek != "Monday" {
		t.Fatalf("day of week = %q, want Monday", row.DayOfWeek)
	}
	if row.WeekOfMonth != 2 {
		t.Fatalf("week of month = %d, want 2", row.WeekOfMonth)
	}
	if row.Session != domain.SessionPM {
		t.Fatalf("session = %q, want PM", row.Session)
	}
	if row.Source != domain.SourceCSV {
		t.Fatalf("source = %q, want csv", row.Source)
	}
	if row.RowNumber != 1 {
		t.Fatalf("row number = %d, want 1 (data rows count from 1)", row.RowNumber)
	}
}

func TestIngestKeepsExplicitCalendarValues(t *testing.T) {
	orgID := uuid.New()
	service, _, uploadRepo := newTestService(orgID, nil)

	data := "Location,Provider,Specialty,Appt Date,Appt Time,Visit Type,Day of Week,Week of Month\n" +
		"Main,Dr. Adams,Derm,3/10/2025,1:30 PM,Follow Up,Funday,5\n" +
		"Main,Dr. Adams,Derm,3/11/2025,1:30 PM,Follow Up,,\n"
	upload := ingestCSV(t, service, orgID, domain.UploadTypeProspective, data)

	if upload.Status != domain.UploadStatusCompleted {
		t.Fatalf("unexpected status %s: %s", upload.Status, upload.ErrorMessage)
	}
	rows := uploadRepo.appointments[0]
	if rows[0].DayOfWeek != "Funday" || rows[0].WeekOfMonth != 5 {
		t.Fatalf("explicit calendar values must be kept: day=%q week=%d",
			rows[0].DayOfWeek, rows[0].WeekOfMonth)
	}
	if rows[1].DayOfWeek != "Tuesday" || rows[1].WeekOfMonth != 2 {
		t.Fatalf("empty calendar cells fall back to derivation: day=%q week=%d",
			rows[1].DayOfWeek, rows[1].WeekOfMonth)
	}
}

package ingestion

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/medtrack/pointsapi/internal/domain"
	"github.com/medtrack/pointsapi/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Service ingests appointment spreadsheets into versioned upload batches.
type Service struct {
	typeRepo     repository.AppointmentTypeRepository
	locationRepo repository.LocationRepository
	uploadRepo   repository.UploadRepository
}

// NewService creates a new ingestion service.
func NewService(
	typeRepo repository.AppointmentTypeRepository,
	locationRepo repository.LocationRepository,
	uploadRepo repository.UploadRepository,
) *Service {
	return &Service{
		typeRepo:     typeRepo,
		locationRepo: locationRepo,
		uploadRepo:   uploadRepo,
	}
}

// Request describes the ingestion input.
type Request struct {
	OrganizationID uuid.UUID
	UserID         uuid.UUID
	UploadType     domain.UploadType
	FileName       string
	Data           io.Reader
}

// Ingest runs the full pipeline for one file: decode, normalize columns,
// validate the schema, coerce rows, resolve references, flag within-file
// duplicates, and commit the batch as the new active version.
//
// Parse and schema failures are an outcome, not an error: they are persisted
// as a failed upload and returned with a nil error so callers can report the
// message to the uploader. A non-nil error means nothing could be persisted.
func (s *Service) Ingest(ctx context.Context, req Request) (domain.Upload, error) {
	if !req.UploadType.Valid() {
		return domain.Upload{}, fmt.Errorf("invalid upload type %q", req.UploadType)
	}
	if strings.TrimSpace(req.FileName) == "" {
		return domain.Upload{}, errors.New("file name is required")
	}

	payload, err := io.ReadAll(req.Data)
	if err != nil {
		return domain.Upload{}, fmt.Errorf("failed to read upload: %w", err)
	}

	hash := sha256.Sum256(payload)
	upload := domain.NewUpload(req.OrganizationID, req.UserID, req.UploadType, req.FileName, hex.EncodeToString(hash[:]))

	logger := logrus.WithFields(logrus.Fields{
		"upload_id":       upload.ID,
		"organization_id": req.OrganizationID,
		"upload_type":     req.UploadType,
		"filename":        req.FileName,
	})

	tbl, err := parseTable(req.FileName, payload)
	if err != nil {
		return s.fail(ctx, logger, upload, err.Error())
	}
	if len(tbl.rows) == 0 {
		return s.fail(ctx, logger, upload, "no data rows found in file")
	}

	canonical := canonicalHeaders(tbl.headers, columnMapFor(req.UploadType))
	if missing := missingColumns(canonical, requiredColumnsFor(req.UploadType)); len(missing) > 0 {
		return s.fail(ctx, logger, upload, "Missing required columns: "+strings.Join(missing, ", "))
	}

	batch, err := newBatchContext(ctx, req.OrganizationID, s.typeRepo, s.locationRepo)
	if err != nil {
		return domain.Upload{}, fmt.Errorf("failed to load appointment types: %w", err)
	}

	appointments := make([]domain.Appointment, 0, len(tbl.rows))
	skipped := 0
	for i, row := range tbl.rows {
		rowNumber := i + 1
		appointment, err := s.buildAppointment(ctx, batch, upload, rowValues(canonical, row), rowNumber)
		if err != nil {
			if isRowError(err) {
				logger.WithField("row", rowNumber).WithError(err).Debug("skipping row")
				skipped++
				continue
			}
			return domain.Upload{}, err
		}
		appointments = append(appointments, appointment)
	}

	duplicates := markDuplicates(appointments)

	// Duplicates still count as valid rows; they are only excluded from
	// reporting.
	upload.RowCount = len(tbl.rows)
	upload.ValidRowCount = len(appointments)
	upload.DuplicateCount = duplicates
	upload.Status = domain.UploadStatusCompleted

	committed, err := s.uploadRepo.CommitBatch(ctx, upload, appointments)
	if err != nil {
		return domain.Upload{}, fmt.Errorf("failed to commit upload: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"version":    committed.VersionNumber,
		"rows":       committed.RowCount,
		"valid":      committed.ValidRowCount,
		"duplicates": committed.DuplicateCount,
		"skipped":    skipped,
	}).Info("upload committed")

	return committed, nil
}

func (s *Service) fail(ctx context.Context, logger *logrus.Entry, upload domain.Upload, message string) (domain.Upload, error) {
	logger.WithField("reason", message).Warn("upload rejected")
	failed, err := s.uploadRepo.CreateFailed(ctx, upload.Fail(message))
	if err != nil {
		return domain.Upload{}, fmt.Errorf("failed to record rejected upload: %w", err)
	}
	return failed, nil
}

// rowError marks a per-row problem that skips the row instead of failing the
// whole upload.
type rowError struct {
	msg string
}

func (e rowError) Error() string { return e.msg }

func rowErrorf(format string, args ...any) error {
	return rowError{msg: fmt.Sprintf(format, args...)}
}

func isRowError(err error) bool {
	var re rowError
	return errors.As(err, &re)
}

func (s *Service) buildAppointment(ctx context.Context, batch *batchContext, upload domain.Upload, values map[string]string, rowNumber int) (domain.Appointment, error) {
	locationName := cleanCell(values[fieldLocationName])
	if locationName == "" {
		return domain.Appointment{}, rowErrorf("missing location")
	}
	provider := cleanCell(values[fieldProvider])
	if provider == "" {
		return domain.Appointment{}, rowErrorf("missing provider")
	}

	date, err := parseDate(values[fieldAppointmentDate])
	if err != nil {
		return domain.Appointment{}, rowErrorf("bad appointment date: %v", err)
	}
	clock, err := parseClock(values[fieldAppointmentTime])
	if err != nil {
		return domain.Appointment{}, rowErrorf("bad appointment time: %v", err)
	}

	location, err := batch.resolveLocation(ctx, locationName)
	if err != nil {
		return domain.Appointment{}, fmt.Errorf("failed to resolve location %q: %w", locationName, err)
	}

	visitType := cleanCell(values[fieldVisitType])
	if visitType == "" {
		return domain.Appointment{}, rowErrorf("missing visit type")
	}
	points, typeID := batch.resolvePoints(visitType)

	now := time.Now().UTC()
	appointment := domain.Appointment{
		ID:                     uuid.New(),
		OrganizationID:         upload.OrganizationID,
		UploadID:               &upload.ID,
		DataType:               upload.UploadType,
		Department:             cleanCell(values[fieldDepartment]),
		LocationID:             &location.ID,
		LocationName:           location.Name,
		Provider:               provider,
		Specialty:              cleanCell(values[fieldSpecialty]),
		PatientEncounterNumber: cleanCell(values[fieldEncounterNumber]),
		AppointmentDate:        date,
		DayOfWeek:              resolveDayOfWeek(values[fieldDayOfWeek], date),
		WeekOfMonth:            resolveWeekOfMonth(values[fieldWeekOfMonth], date),
		AppointmentTime:        clock,
		Session:                resolveSession(values[fieldSession], clock),
		VisitType:              visitType,
		VisitPoints:            points,
		AppointmentTypeID:      typeID,
		ApptComments:           cleanCell(values[fieldApptComments]),
		Source:                 domain.SourceCSV,
		RowNumber:              rowNumber,
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	if upload.UploadType == domain.UploadTypeRetrospective {
		appointment.RoomingTech = cleanCell(values[fieldRoomingTech])
		appointment.CheckInStaff = cleanCell(values[fieldCheckInStaff])
		appointment.CheckInTime = parseOptionalClock(values[fieldCheckInTime])
		appointment.CheckInComment = cleanCell(values[fieldCheckInComment])
		appointment.CheckOutTime = parseOptionalClock(values[fieldCheckOutTime])
		appointment.CheckOutComment = cleanCell(values[fieldCheckOutComment])
		appointment.VisitDurationMin = parseOptionalDecimal(values[fieldVisitDuration])
		appointment.TotalWaitMin = parseOptionalDecimal(values[fieldTotalWait])
		appointment.TechLevel = cleanCell(values[fieldTechLevel])
		appointment.RoomingTime = parseOptionalClock(values[fieldRoomingTime])
		appointment.RoomingComment = cleanCell(values[fieldRoomingComment])
		appointment.TechIn = parseOptionalClock(values[fieldTechIn])
		appointment.TechOut = parseOptionalClock(values[fieldTechOut])
		appointment.TechDuration = parseOptionalDecimal(values[fieldTechDuration])
		appointment.TechComment = cleanCell(values[fieldTechComment])
		appointment.CheckInToTech = parseOptionalDecimal(values[fieldCheckInToTech])
		appointment.ApptTimeToTech = parseOptionalDecimal(values[fieldApptTimeToTech])
		appointment.PtCheckTime = parseOptionalDecimal(values[fieldPtCheckTime])
		appointment.PrimaryDiagnosis = cleanCell(values[fieldPrimaryDiagnosis])
	}

	return appointment, nil
}

package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/medtrack/pointsapi/internal/domain"
	"github.com/medtrack/pointsapi/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service handles manual appointment entry. Manual rows belong to no upload
// and survive upload replacement; the derivation and point resolution rules
// are the same ones ingestion applies to file rows.
type Service struct {
	appointmentRepo repository.AppointmentRepository
	typeRepo        repository.AppointmentTypeRepository
	locationRepo    repository.LocationRepository
}

// NewService creates a new manual entry service.
func NewService(
	appointmentRepo repository.AppointmentRepository,
	typeRepo repository.AppointmentTypeRepository,
	locationRepo repository.LocationRepository,
) *Service {
	return &Service{
		appointmentRepo: appointmentRepo,
		typeRepo:        typeRepo,
		locationRepo:    locationRepo,
	}
}

// CreateRequest is one manual appointment entry. OrganizationID is optional;
// when a client sends it, it must match the authenticated scope.
type CreateRequest struct {
	OrganizationID         uuid.UUID         `json:"organization_id,omitempty"`
	DataType               domain.UploadType `json:"data_type"`
	Department             string            `json:"department,omitempty"`
	LocationName           string            `json:"location_name"`
	Provider               string            `json:"provider"`
	Specialty              string            `json:"specialty,omitempty"`
	PatientEncounterNumber string            `json:"patient_encounter_number,omitempty"`
	AppointmentDate        time.Time         `json:"appointment_date"`
	AppointmentTime        domain.ClockTime  `json:"appointment_time"`
	Session                domain.Session    `json:"session,omitempty"`
	VisitType              string            `json:"visit_type"`
	VisitPoints            *decimal.Decimal  `json:"visit_points,omitempty"`
	ApptComments           string            `json:"appt_comments,omitempty"`
	RoomingTech            string            `json:"rooming_tech,omitempty"`
	CheckInStaff           string            `json:"check_in_staff,omitempty"`
	CheckInTime            *domain.ClockTime `json:"check_in_time,omitempty"`
	CheckOutTime           *domain.ClockTime `json:"check_out_time,omitempty"`
	VisitDurationMin       *decimal.Decimal  `json:"visit_duration_min,omitempty"`
	TechLevel              string            `json:"tech_level,omitempty"`
	PrimaryDiagnosis       string            `json:"primary_diagnosis,omitempty"`
	IsDraft                bool              `json:"is_draft"`
}

// Create persists one manual appointment. Explicit visit points win over the
// type table here; absent both, the entry scores zero.
func (s *Service) Create(ctx context.Context, organizationID uuid.UUID, req CreateRequest) (domain.Appointment, error) {
	if !req.DataType.Valid() {
		return domain.Appointment{}, fmt.Errorf("invalid data type %q", req.DataType)
	}
	if strings.TrimSpace(req.LocationName) == "" {
		return domain.Appointment{}, errors.New("location name is required")
	}
	if strings.TrimSpace(req.Provider) == "" {
		return domain.Appointment{}, errors.New("provider is required")
	}
	if req.AppointmentDate.IsZero() {
		return domain.Appointment{}, errors.New("appointment date is required")
	}

	var locationID *uuid.UUID
	if location, err := s.locationRepo.GetByName(ctx, organizationID, req.LocationName); err == nil {
		locationID = &location.ID
	} else if !errors.Is(err, repository.ErrNotFound) {
		return domain.Appointment{}, fmt.Errorf("failed to resolve location: %w", err)
	}

	points := decimal.Zero
	typeID, typePoints, err := s.resolveType(ctx, organizationID, req.VisitType)
	if err != nil {
		return domain.Appointment{}, err
	}
	if req.VisitPoints != nil {
		points = *req.VisitPoints
	} else if typePoints != nil {
		points = *typePoints
	}

	session := req.Session
	if session != domain.SessionAM && session != domain.SessionPM {
		session = domain.SessionForTime(req.AppointmentTime)
	}

	now := time.Now().UTC()
	appointment := domain.Appointment{
		ID:                     uuid.New(),
		OrganizationID:         organizationID,
		DataType:               req.DataType,
		Department:             req.Department,
		LocationID:             locationID,
		LocationName:           strings.TrimSpace(req.LocationName),
		Provider:               strings.TrimSpace(req.Provider),
		Specialty:              req.Specialty,
		PatientEncounterNumber: req.PatientEncounterNumber,
		AppointmentDate:        req.AppointmentDate,
		DayOfWeek:              req.AppointmentDate.Weekday().String(),
		WeekOfMonth:            ((req.AppointmentDate.Day() - 1) / 7) + 1,
		AppointmentTime:        req.AppointmentTime,
		Session:                session,
		VisitType:              req.VisitType,
		VisitPoints:            points,
		AppointmentTypeID:      typeID,
		ApptComments:           req.ApptComments,
		RoomingTech:            req.RoomingTech,
		CheckInStaff:           req.CheckInStaff,
		CheckInTime:            req.CheckInTime,
		CheckOutTime:           req.CheckOutTime,
		VisitDurationMin:       req.VisitDurationMin,
		TechLevel:              req.TechLevel,
		PrimaryDiagnosis:       req.PrimaryDiagnosis,
		Source:                 domain.SourceManual,
		IsDraft:                req.IsDraft,
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	created, err := s.appointmentRepo.Create(ctx, appointment)
	if err != nil {
		return domain.Appointment{}, fmt.Errorf("failed to create appointment: %w", err)
	}
	return created, nil
}

// Update applies a sparse patch. A visit type change re-resolves points from
// the type table, a location change re-resolves the location reference, and
// the derived calendar fields are recomputed from the final date and time.
func (s *Service) Update(ctx context.Context, organizationID, id uuid.UUID, patch domain.AppointmentPatch) (domain.Appointment, error) {
	appointment, err := s.get(ctx, organizationID, id)
	if err != nil {
		return domain.Appointment{}, err
	}

	sessionPatched := patch.Session != nil
	timePatched := patch.AppointmentTime != nil
	appointment = patch.Apply(appointment)

	if patch.VisitType != nil {
		typeID, typePoints, err := s.resolveType(ctx, organizationID, *patch.VisitType)
		if err != nil {
			return domain.Appointment{}, err
		}
		appointment.AppointmentTypeID = typeID
		if typePoints != nil {
			appointment.VisitPoints = *typePoints
		}
	}

	if patch.LocationName != nil {
		appointment.LocationID = nil
		if location, err := s.locationRepo.GetByName(ctx, organizationID, *patch.LocationName); err == nil {
			appointment.LocationID = &location.ID
		} else if !errors.Is(err, repository.ErrNotFound) {
			return domain.Appointment{}, fmt.Errorf("failed to resolve location: %w", err)
		}
	}

	if timePatched && !sessionPatched {
		appointment.Session = domain.SessionForTime(appointment.AppointmentTime)
	}
	appointment.DayOfWeek = appointment.AppointmentDate.Weekday().String()
	appointment.WeekOfMonth = ((appointment.AppointmentDate.Day() - 1) / 7) + 1

	updated, err := s.appointmentRepo.Update(ctx, appointment)
	if err != nil {
		return domain.Appointment{}, fmt.Errorf("failed to update appointment: %w", err)
	}
	return updated, nil
}

// Delete removes one appointment within the organization scope.
func (s *Service) Delete(ctx context.Context, organizationID, id uuid.UUID) error {
	if _, err := s.get(ctx, organizationID, id); err != nil {
		return err
	}
	if err := s.appointmentRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	return nil
}

// ListFilter narrows List output.
type ListFilter struct {
	DataType        domain.UploadType
	LocationName    string
	From            time.Time
	To              time.Time
	IncludeExcluded bool
	DraftsOnly      bool
}

// List returns non-draft appointments matching the filter, or only drafts
// when DraftsOnly is set.
func (s *Service) List(ctx context.Context, organizationID uuid.UUID, filter ListFilter) ([]domain.Appointment, error) {
	rows, err := s.appointmentRepo.ListForReporting(ctx, repository.ReportFilter{
		OrganizationID:  organizationID,
		DataType:        filter.DataType,
		LocationName:    filter.LocationName,
		From:            filter.From,
		To:              filter.To,
		IncludeExcluded: filter.IncludeExcluded,
		IncludeDrafts:   filter.DraftsOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	if !filter.DraftsOnly {
		return rows, nil
	}

	drafts := []domain.Appointment{}
	for _, row := range rows {
		if row.IsDraft {
			drafts = append(drafts, row)
		}
	}
	return drafts, nil
}

func (s *Service) get(ctx context.Context, organizationID, id uuid.UUID) (domain.Appointment, error) {
	appointment, err := s.appointmentRepo.GetByID(ctx, id)
	if err != nil {
		return domain.Appointment{}, err
	}
	if appointment.OrganizationID != organizationID {
		return domain.Appointment{}, repository.ErrNotFound
	}
	return appointment, nil
}

// resolveType looks the visit type up among the organization's active types.
// Unknown or empty types resolve to no reference and no points.
func (s *Service) resolveType(ctx context.Context, organizationID uuid.UUID, visitType string) (*uuid.UUID, *decimal.Decimal, error) {
	name := strings.ToLower(strings.TrimSpace(visitType))
	if name == "" {
		return nil, nil, nil
	}

	types, err := s.typeRepo.ListActive(ctx, organizationID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load appointment types: %w", err)
	}
	for _, t := range types {
		if strings.ToLower(strings.TrimSpace(t.Name)) == name {
			typeID := t.ID
			value := t.PointValue
			return &typeID, &value, nil
		}
	}
	return nil, nil, nil
}

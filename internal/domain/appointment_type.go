package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AppointmentType maps a visit type name to its point value within an
// organization. Names are unique per organization. The type table is the
// single source of truth for point values: whatever a source file claims in
// its own points column is discarded in favor of this mapping.
type AppointmentType struct {
	ID             uuid.UUID       `json:"id"`
	OrganizationID uuid.UUID       `json:"organization_id"`
	Name           string          `json:"name"`
	PointValue     decimal.Decimal `json:"point_value"`
	IsActive       bool            `json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// NewAppointmentType creates an active appointment type.
func NewAppointmentType(organizationID uuid.UUID, name string, pointValue decimal.Decimal) AppointmentType {
	now := time.Now().UTC()
	return AppointmentType{
		ID:             uuid.New(),
		OrganizationID: organizationID,
		Name:           name,
		PointValue:     pointValue,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

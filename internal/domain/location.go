package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Location is an organization-scoped clinic site. Ingestion may create one
// implicitly the first time an unseen location name appears in a file; the
// reporting-only attributes (manager, employee count) stay at their defaults
// until edited.
type Location struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Name           string    `json:"name"`
	Abbreviation   string    `json:"abbreviation,omitempty"`
	Address        string    `json:"address,omitempty"`
	City           string    `json:"city,omitempty"`
	State          string    `json:"state,omitempty"`
	PostalCode     string    `json:"postal_code,omitempty"`
	ManagerName    string    `json:"manager_name,omitempty"`
	NumEmployees   int       `json:"num_employees"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewLocation creates a location with default attributes. The name is
// trimmed; matching elsewhere is case-insensitive.
func NewLocation(organizationID uuid.UUID, name string) Location {
	now := time.Now().UTC()
	return Location{
		ID:             uuid.New(),
		OrganizationID: organizationID,
		Name:           strings.TrimSpace(name),
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

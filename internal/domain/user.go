package domain

import (
	"time"

	"github.com/google/uuid"
)

// User identifies who submitted an upload. Authentication and user
// management live outside this service; only the identity is stored here.
type User struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	Role           string    `json:"role"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewUser creates a new active user within an organization.
func NewUser(organizationID uuid.UUID, email, fullName, role string) User {
	now := time.Now().UTC()
	return User{
		ID:             uuid.New(),
		OrganizationID: organizationID,
		Email:          email,
		FullName:       fullName,
		Role:           role,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

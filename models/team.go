package models

import (
	"time"
)

// Team membership lives on User.TeamID, so a user belongs to at most one team.
type Team struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	OrganizationID uint      `gorm:"not null;index" json:"organization_id"`
	Name           string    `gorm:"not null;size:100" json:"name"`
	SupervisorID   uint      `gorm:"not null;index" json:"supervisor_id"`
	Users          []User    `gorm:"foreignKey:TeamID" json:"-"`
	MemberIDs      []uint    `gorm:"-" json:"member_ids"`
}

func (t *Team) HasMember(id uint) bool {
	for _, m := range t.MemberIDs {
		if m == id {
			return true
		}
	}
	return false
}

// AssignmentResult is what the backend reports for a bulk assignment.
type AssignmentResult struct {
	Assigned []uint `json:"assigned"`
	Skipped  []uint `json:"skipped"`
}

type AssignmentRequest struct {
	EntityIDs        []uint `json:"entity_ids" validate:"required,min=1"`
	OverrideExisting bool   `json:"override_existing"`
}

package models

import (
	"time"
)

type Organization struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `gorm:"uniqueIndex;not null;size:200" json:"name"`
}

type Department struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	OrganizationID uint      `gorm:"not null;index" json:"organization_id"`
	Name           string    `gorm:"not null;size:100" json:"name"`
}

// Summary is the dashboard view of an organization.
type Summary struct {
	OrganizationID uint               `json:"organization_id"`
	Users          int                `json:"users"`
	ActiveUsers    int                `json:"active_users"`
	Teams          int                `json:"teams"`
	Unassigned     int                `json:"unassigned"`
	ByRole         map[Role]int       `json:"by_role"`
	ByLevel        map[string]int     `json:"by_level"`
	TasksByStatus  map[TaskStatus]int `json:"tasks_by_status"`
}

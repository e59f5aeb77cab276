package models

import (
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleOverall    Role = "overall"
	RoleSupervisor Role = "supervisor"
	RoleEmployee   Role = "employee"
	RoleDisabled   Role = "disabled"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleOverall, RoleSupervisor, RoleEmployee, RoleDisabled:
		return true
	}
	return false
}

type User struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
	OrganizationID   uint           `gorm:"not null;index" json:"organization_id"`
	DepartmentID     *uint          `gorm:"index" json:"department_id,omitempty"`
	Username         string         `gorm:"uniqueIndex;not null;size:100" json:"username"`
	FullName         string         `gorm:"size:200" json:"full_name"`
	PasswordHash     string         `gorm:"not null" json:"-"`
	Role             Role           `gorm:"not null;size:20" json:"role"`
	SupervisoryLevel string         `gorm:"size:50" json:"supervisory_level"`
	SupervisorID     *uint          `gorm:"index" json:"supervisor_id,omitempty"`
	TeamID           *uint          `gorm:"index" json:"team_id,omitempty"`
	Active           bool           `gorm:"default:true" json:"active"`
}

func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsDisabled() bool {
	return u.Role == RoleDisabled || !u.Active
}

// CanManageRoster reports whether the user may create teams and move people around.
func (u *User) CanManageRoster() bool {
	return u.Role == RoleAdmin || u.Role == RoleOverall || u.Role == RoleSupervisor
}

func (u *User) CanReviewTasks() bool {
	return u.Role != RoleEmployee && u.Role != RoleDisabled
}

// UserIDs returns the ids of users in roster order.
func UserIDs(users []User) []uint {
	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}

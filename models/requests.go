package models

import (
	"time"
)

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type CreateOrganizationRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

type CreateDepartmentRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type RegisterUserRequest struct {
	Username         string `json:"username" validate:"required,min=3,max=100"`
	FullName         string `json:"full_name" validate:"max=200"`
	Password         string `json:"password" validate:"required,min=5"`
	Role             Role   `json:"role" validate:"required"`
	SupervisoryLevel string `json:"supervisory_level" validate:"max=50"`
	DepartmentID     *uint  `json:"department_id,omitempty"`
}

// UserPatch is a partial update; nil fields are left alone.
type UserPatch struct {
	FullName         *string `json:"full_name,omitempty" validate:"omitempty,max=200"`
	Role             *Role   `json:"role,omitempty"`
	SupervisoryLevel *string `json:"supervisory_level,omitempty" validate:"omitempty,max=50"`
	DepartmentID     *uint   `json:"department_id,omitempty"`
}

type CreateTeamRequest struct {
	OrganizationID uint   `json:"organization_id" validate:"required"`
	Name           string `json:"name" validate:"required,max=100"`
	SupervisorID   uint   `json:"supervisor_id" validate:"required"`
	MemberIDs      []uint `json:"member_ids"`
}

type RemoveMembersRequest struct {
	EntityIDs []uint `json:"entity_ids" validate:"required,min=1"`
}

type CreateTaskRequest struct {
	AssigneeID  uint      `json:"assignee_id" validate:"required"`
	Date        time.Time `json:"date" validate:"required"`
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"max=1000"`
}

type ReviewTaskRequest struct {
	Status  TaskStatus `json:"status" validate:"required,oneof=approved rejected"`
	Comment string     `json:"comment" validate:"max=2000"`
}

type CreateCommentRequest struct {
	Body string `json:"body" validate:"required,max=2000"`
}

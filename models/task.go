package models

import (
	"time"
)

type TaskStatus string

const (
	TaskPending  TaskStatus = "pending"
	TaskApproved TaskStatus = "approved"
	TaskRejected TaskStatus = "rejected"
)

type Task struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	OrganizationID uint       `gorm:"not null;index" json:"organization_id"`
	AssigneeID     uint       `gorm:"not null;index" json:"assignee_id"`
	CreatedByID    uint       `gorm:"not null" json:"created_by_id"`
	Date           time.Time  `gorm:"not null;type:date" json:"date"`
	Title          string     `gorm:"not null;size:200" json:"title"`
	Description    string     `gorm:"size:1000" json:"description"`
	Status         TaskStatus `gorm:"not null;size:20;default:pending" json:"status"`
	ReviewedByID   *uint      `json:"reviewed_by_id,omitempty"`
}

type TaskComment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	TaskID    uint      `gorm:"not null;index" json:"task_id"`
	AuthorID  uint      `gorm:"not null" json:"author_id"`
	Body      string    `gorm:"not null;size:2000" json:"body"`
}

type TaskFilter struct {
	OrganizationID uint
	AssigneeID     uint
	Status         TaskStatus
	Date           time.Time
}

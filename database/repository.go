package database

import (
	"errors"

	"orgdash/models"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
)

// Repository is the storage the handlers work against. The gorm
// implementation backs production; the memory one backs tests and local runs.
type Repository interface {
	CreateOrganization(org *models.Organization) error
	ListOrganizations() ([]models.Organization, error)
	GetOrganization(id uint) (*models.Organization, error)

	CreateDepartment(d *models.Department) error
	ListDepartments(orgID uint) ([]models.Department, error)

	CreateUser(u *models.User) error
	GetUser(id uint) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	ListUsers(orgID uint) ([]models.User, error)
	// SaveUsers writes all users in one transaction.
	SaveUsers(users []models.User) error

	CreateTeam(t *models.Team) error
	GetTeam(id uint) (*models.Team, error)
	ListTeams(orgID uint) ([]models.Team, error)
	// DeleteTeam removes the team and clears TeamID on its members.
	DeleteTeam(id uint) error

	CreateTask(t *models.Task) error
	GetTask(id uint) (*models.Task, error)
	ListTasks(filter models.TaskFilter) ([]models.Task, error)
	UpdateTask(t *models.Task) error
	AddTaskComment(c *models.TaskComment) error
	ListTaskComments(taskID uint) ([]models.TaskComment, error)

	HealthCheck() error
}

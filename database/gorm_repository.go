package database

import (
	"strings"

	"github.com/go-faster/errors"
	"gorm.io/gorm"

	"orgdash/models"
)

type gormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func wrap(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), strings.Contains(err.Error(), "duplicate key"):
		return ErrConflict
	}
	return errors.Wrap(err, op)
}

func (r *gormRepository) CreateOrganization(org *models.Organization) error {
	return wrap(r.db.Create(org).Error, "create organization")
}

func (r *gormRepository) ListOrganizations() ([]models.Organization, error) {
	var orgs []models.Organization
	err := r.db.Order("id asc").Find(&orgs).Error
	return orgs, wrap(err, "list organizations")
}

func (r *gormRepository) GetOrganization(id uint) (*models.Organization, error) {
	var org models.Organization
	if err := r.db.First(&org, id).Error; err != nil {
		return nil, wrap(err, "get organization")
	}
	return &org, nil
}

func (r *gormRepository) CreateDepartment(d *models.Department) error {
	return wrap(r.db.Create(d).Error, "create department")
}

func (r *gormRepository) ListDepartments(orgID uint) ([]models.Department, error) {
	var out []models.Department
	err := r.db.Where("organization_id = ?", orgID).Order("name asc").Find(&out).Error
	return out, wrap(err, "list departments")
}

func (r *gormRepository) CreateUser(u *models.User) error {
	return wrap(r.db.Create(u).Error, "create user")
}

func (r *gormRepository) GetUser(id uint) (*models.User, error) {
	var u models.User
	if err := r.db.First(&u, id).Error; err != nil {
		return nil, wrap(err, "get user")
	}
	return &u, nil
}

func (r *gormRepository) GetUserByUsername(username string) (*models.User, error) {
	var u models.User
	if err := r.db.Where("username = ?", username).First(&u).Error; err != nil {
		return nil, wrap(err, "get user by username")
	}
	return &u, nil
}

func (r *gormRepository) ListUsers(orgID uint) ([]models.User, error) {
	var users []models.User
	err := r.db.Where("organization_id = ?", orgID).Order("id asc").Find(&users).Error
	return users, wrap(err, "list users")
}

func (r *gormRepository) SaveUsers(users []models.User) error {
	return wrap(r.db.Transaction(func(tx *gorm.DB) error {
		for i := range users {
			if err := tx.Save(&users[i]).Error; err != nil {
				return err
			}
		}
		return nil
	}), "save users")
}

func fillMembers(t *models.Team) {
	t.MemberIDs = models.UserIDs(t.Users)
}

func (r *gormRepository) CreateTeam(t *models.Team) error {
	members := t.MemberIDs
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Users").Create(t).Error; err != nil {
			return err
		}
		if len(members) == 0 {
			return nil
		}
		return tx.Model(&models.User{}).Where("id IN ?", members).Update("team_id", t.ID).Error
	})
	return wrap(err, "create team")
}

func (r *gormRepository) GetTeam(id uint) (*models.Team, error) {
	var t models.Team
	if err := r.db.Preload("Users").First(&t, id).Error; err != nil {
		return nil, wrap(err, "get team")
	}
	fillMembers(&t)
	return &t, nil
}

func (r *gormRepository) ListTeams(orgID uint) ([]models.Team, error) {
	var teams []models.Team
	if err := r.db.Preload("Users").Where("organization_id = ?", orgID).Order("id asc").Find(&teams).Error; err != nil {
		return nil, wrap(err, "list teams")
	}
	for i := range teams {
		fillMembers(&teams[i])
	}
	return teams, nil
}

func (r *gormRepository) DeleteTeam(id uint) error {
	return wrap(r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("team_id = ?", id).Update("team_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Team{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	}), "delete team")
}

func (r *gormRepository) CreateTask(t *models.Task) error {
	return wrap(r.db.Create(t).Error, "create task")
}

func (r *gormRepository) GetTask(id uint) (*models.Task, error) {
	var t models.Task
	if err := r.db.First(&t, id).Error; err != nil {
		return nil, wrap(err, "get task")
	}
	return &t, nil
}

func (r *gormRepository) ListTasks(f models.TaskFilter) ([]models.Task, error) {
	q := r.db.Model(&models.Task{})
	if f.OrganizationID > 0 {
		q = q.Where("organization_id = ?", f.OrganizationID)
	}
	if f.AssigneeID > 0 {
		q = q.Where("assignee_id = ?", f.AssigneeID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if !f.Date.IsZero() {
		q = q.Where("date = ?", f.Date.Format("2006-01-02"))
	}
	var tasks []models.Task
	err := q.Order("date desc, id desc").Find(&tasks).Error
	return tasks, wrap(err, "list tasks")
}

func (r *gormRepository) UpdateTask(t *models.Task) error {
	return wrap(r.db.Save(t).Error, "update task")
}

func (r *gormRepository) AddTaskComment(c *models.TaskComment) error {
	return wrap(r.db.Create(c).Error, "add task comment")
}

func (r *gormRepository) ListTaskComments(taskID uint) ([]models.TaskComment, error) {
	var out []models.TaskComment
	err := r.db.Where("task_id = ?", taskID).Order("created_at asc").Find(&out).Error
	return out, wrap(err, "list task comments")
}

func (r *gormRepository) HealthCheck() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return wrap(err, "health check")
	}
	return wrap(sqlDB.Ping(), "health check")
}

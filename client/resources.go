package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"orgdash/levels"
	"orgdash/models"
)

func idPath(prefix string, id uint, suffix string) string {
	return prefix + "/" + strconv.FormatUint(uint64(id), 10) + suffix
}

// Login exchanges credentials for a token and stores it on the client.
func (c *Client) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	var out models.LoginResponse
	req := models.LoginRequest{Username: username, Password: password}
	if err := c.send(ctx, false, http.MethodPost, "/auth/login", nil, req, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

func (c *Client) ListOrganizations(ctx context.Context) ([]models.Organization, error) {
	var out []models.Organization
	err := c.do(ctx, http.MethodGet, "/organizations", nil, nil, &out)
	return out, err
}

func (c *Client) CreateOrganization(ctx context.Context, name string) (*models.Organization, error) {
	var out models.Organization
	if err := c.do(ctx, http.MethodPost, "/organizations", nil, models.CreateOrganizationRequest{Name: name}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListDepartments(ctx context.Context, orgID uint) ([]models.Department, error) {
	var out []models.Department
	err := c.do(ctx, http.MethodGet, idPath("/organizations", orgID, "/departments"), nil, nil, &out)
	return out, err
}

func (c *Client) CreateDepartment(ctx context.Context, orgID uint, name string) (*models.Department, error) {
	var out models.Department
	req := models.CreateDepartmentRequest{Name: name}
	if err := c.do(ctx, http.MethodPost, idPath("/organizations", orgID, "/departments"), nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListUsers(ctx context.Context, orgID uint) ([]models.User, error) {
	var out []models.User
	err := c.do(ctx, http.MethodGet, idPath("/organizations", orgID, "/users"), nil, nil, &out)
	return out, err
}

func (c *Client) RegisterUser(ctx context.Context, orgID uint, req models.RegisterUserRequest) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodPost, idPath("/organizations", orgID, "/users"), nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateUser(ctx context.Context, id uint, patch models.UserPatch) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodPatch, idPath("/users", id, ""), nil, patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteUser(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, idPath("/users", id, ""), nil, nil, nil)
}

func (c *Client) AssignSubordinates(ctx context.Context, supervisorID uint, ids []uint, override bool) (models.AssignmentResult, error) {
	var out models.AssignmentResult
	req := models.AssignmentRequest{EntityIDs: ids, OverrideExisting: override}
	err := c.do(ctx, http.MethodPost, idPath("/users", supervisorID, "/subordinates"), nil, req, &out)
	return out, err
}

func (c *Client) ListTeams(ctx context.Context, orgID uint) ([]models.Team, error) {
	var out []models.Team
	err := c.do(ctx, http.MethodGet, idPath("/organizations", orgID, "/teams"), nil, nil, &out)
	return out, err
}

func (c *Client) CreateTeam(ctx context.Context, req models.CreateTeamRequest) (*models.Team, error) {
	var out models.Team
	if err := c.do(ctx, http.MethodPost, "/teams", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteTeam(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, idPath("/teams", id, ""), nil, nil, nil)
}

func (c *Client) AssignMembers(ctx context.Context, teamID uint, ids []uint, override bool) (models.AssignmentResult, error) {
	var out models.AssignmentResult
	req := models.AssignmentRequest{EntityIDs: ids, OverrideExisting: override}
	err := c.do(ctx, http.MethodPost, idPath("/teams", teamID, "/members"), nil, req, &out)
	return out, err
}

// RemoveMembers returns the ids that were actually removed.
func (c *Client) RemoveMembers(ctx context.Context, teamID uint, ids []uint) ([]uint, error) {
	var out models.AssignmentResult
	req := models.RemoveMembersRequest{EntityIDs: ids}
	if err := c.do(ctx, http.MethodDelete, idPath("/teams", teamID, "/members"), nil, req, &out); err != nil {
		return nil, err
	}
	return out.Assigned, nil
}

func (c *Client) ListLevels(ctx context.Context) ([]levels.Level, error) {
	var out []levels.Level
	err := c.do(ctx, http.MethodGet, "/supervisory-levels", nil, nil, &out)
	return out, err
}

func (c *Client) Summary(ctx context.Context, orgID uint) (*models.Summary, error) {
	var out models.Summary
	if err := c.do(ctx, http.MethodGet, idPath("/organizations", orgID, "/dashboard"), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type TaskQuery struct {
	AssigneeID uint
	Status     models.TaskStatus
	Date       string
}

func (q TaskQuery) values() url.Values {
	v := url.Values{}
	if q.AssigneeID != 0 {
		v.Set("assignee_id", strconv.FormatUint(uint64(q.AssigneeID), 10))
	}
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	if q.Date != "" {
		v.Set("date", q.Date)
	}
	return v
}

func (c *Client) ListTasks(ctx context.Context, q TaskQuery) ([]models.Task, error) {
	var out []models.Task
	err := c.do(ctx, http.MethodGet, "/tasks", q.values(), nil, &out)
	return out, err
}

func (c *Client) CreateTask(ctx context.Context, req models.CreateTaskRequest) (*models.Task, error) {
	var out models.Task
	if err := c.do(ctx, http.MethodPost, "/tasks", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ReviewTask(ctx context.Context, id uint, req models.ReviewTaskRequest) (*models.Task, error) {
	var out models.Task
	if err := c.do(ctx, http.MethodPost, idPath("/tasks", id, "/review"), nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListComments(ctx context.Context, taskID uint) ([]models.TaskComment, error) {
	var out []models.TaskComment
	err := c.do(ctx, http.MethodGet, idPath("/tasks", taskID, "/comments"), nil, nil, &out)
	return out, err
}

func (c *Client) AddComment(ctx context.Context, taskID uint, body string) (*models.TaskComment, error) {
	var out models.TaskComment
	req := models.CreateCommentRequest{Body: body}
	if err := c.do(ctx, http.MethodPost, idPath("/tasks", taskID, "/comments"), nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

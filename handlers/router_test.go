package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"orgdash/config"
	"orgdash/database"
	"orgdash/levels"
	"orgdash/middleware"
	"orgdash/models"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
}

type fixture struct {
	t      *testing.T
	repo   database.Repository
	router http.Handler
	org    *models.Organization
	users  map[string]*models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:      "test-secret",
		JWTExpiration:  time.Hour,
		AllowedOrigins: []string{"*"},
		MetricsPath:    "/metrics",
		LevelCount:     3,
	}
	middleware.SetJWTSecret(cfg.JWTSecret)
	log := logrus.New()
	log.SetOutput(io.Discard)

	repo := database.NewMemoryRepository()
	org := &models.Organization{Name: "Acme"}
	require.NoError(t, repo.CreateOrganization(org))

	f := &fixture{t: t, repo: repo, org: org, users: map[string]*models.User{}}
	f.router = NewRouter(cfg, repo, log)

	f.addUser("admin", models.RoleAdmin, levels.Overall)
	f.addUser("sup", models.RoleSupervisor, "Level 3")
	f.addUser("alice", models.RoleEmployee, "Level 1")
	f.addUser("bob", models.RoleEmployee, "Level 2")
	f.addUser("carol", models.RoleEmployee, "Level 3")
	return f
}

func (f *fixture) addUser(name string, role models.Role, level string) *models.User {
	f.t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(name+"-pw"), bcrypt.MinCost)
	require.NoError(f.t, err)
	u := &models.User{
		OrganizationID:   f.org.ID,
		Username:         name,
		PasswordHash:     string(hash),
		Role:             role,
		SupervisoryLevel: level,
		Active:           true,
	}
	require.NoError(f.t, f.repo.CreateUser(u))
	f.users[name] = u
	return u
}

func (f *fixture) token(name string) string {
	f.t.Helper()
	token, err := middleware.GenerateToken(f.users[name], time.Hour)
	require.NoError(f.t, err)
	return token
}

func (f *fixture) call(as, method, path string, body any) (int, envelope) {
	f.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(f.t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if as != "" {
		req.Header.Set("Authorization", "Bearer "+f.token(as))
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(f.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func (f *fixture) id(name string) string {
	return strconv.FormatUint(uint64(f.users[name].ID), 10)
}

func (f *fixture) createTeam(as string, members ...uint) models.Team {
	f.t.Helper()
	status, env := f.call(as, http.MethodPost, "/teams", models.CreateTeamRequest{
		OrganizationID: f.org.ID,
		Name:           "Core",
		SupervisorID:   f.users["sup"].ID,
		MemberIDs:      members,
	})
	require.Equal(f.t, http.StatusCreated, status, env.Message)
	var team models.Team
	require.NoError(f.t, json.Unmarshal(env.Data, &team))
	return team
}

func TestLogin(t *testing.T) {
	f := newFixture(t)

	status, env := f.call("", http.MethodPost, "/auth/login", models.LoginRequest{Username: "alice", Password: "alice-pw"})
	require.Equal(t, http.StatusOK, status)
	var resp models.LoginResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	require.NotEmpty(t, resp.Token)
	require.Equal(t, "alice", resp.User.Username)

	status, env = f.call("", http.MethodPost, "/auth/login", models.LoginRequest{Username: "alice", Password: "wrong"})
	require.Equal(t, http.StatusUnauthorized, status)
	require.False(t, env.Success)
	require.Equal(t, "UNAUTHORIZED", env.Code)

	status, env = f.call("", http.MethodPost, "/auth/login", map[string]string{"username": "alice"})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "VALIDATION_ERROR", env.Code)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	f := newFixture(t)
	status, env := f.call("", http.MethodGet, "/organizations", nil)
	require.Equal(t, http.StatusUnauthorized, status)
	require.False(t, env.Success)
}

func TestCreateTeam_RoleAndScope(t *testing.T) {
	f := newFixture(t)

	status, _ := f.call("alice", http.MethodPost, "/teams", models.CreateTeamRequest{
		OrganizationID: f.org.ID, Name: "x", SupervisorID: f.users["sup"].ID,
	})
	require.Equal(t, http.StatusForbidden, status)

	status, env := f.call("admin", http.MethodPost, "/teams", models.CreateTeamRequest{
		OrganizationID: f.org.ID, Name: "x", SupervisorID: f.users["sup"].ID,
		MemberIDs: []uint{f.users["sup"].ID},
	})
	require.Equal(t, http.StatusBadRequest, status)
	require.Contains(t, env.Message, "supervisor")

	team := f.createTeam("sup", f.users["alice"].ID)
	require.Equal(t, []uint{f.users["alice"].ID}, team.MemberIDs)
}

func TestAssignMembers(t *testing.T) {
	f := newFixture(t)
	team := f.createTeam("admin")
	other := f.createTeam("admin", f.users["bob"].ID)
	path := "/teams/" + strconv.FormatUint(uint64(team.ID), 10) + "/members"

	t.Run("partial result", func(t *testing.T) {
		status, env := f.call("sup", http.MethodPost, path, models.AssignmentRequest{
			EntityIDs: []uint{f.users["alice"].ID, f.users["bob"].ID, f.users["sup"].ID},
		})
		require.Equal(t, http.StatusOK, status, env.Message)
		var res models.AssignmentResult
		require.NoError(t, json.Unmarshal(env.Data, &res))
		require.Equal(t, []uint{f.users["alice"].ID}, res.Assigned)
		require.Equal(t, []uint{f.users["bob"].ID, f.users["sup"].ID}, res.Skipped)
	})

	t.Run("override reassigns", func(t *testing.T) {
		status, env := f.call("sup", http.MethodPost, path, models.AssignmentRequest{
			EntityIDs: []uint{f.users["bob"].ID}, OverrideExisting: true,
		})
		require.Equal(t, http.StatusOK, status)
		var res models.AssignmentResult
		require.NoError(t, json.Unmarshal(env.Data, &res))
		require.Equal(t, []uint{f.users["bob"].ID}, res.Assigned)

		bob, err := f.repo.GetUser(f.users["bob"].ID)
		require.NoError(t, err)
		require.Equal(t, team.ID, *bob.TeamID)
		prev, err := f.repo.GetTeam(other.ID)
		require.NoError(t, err)
		require.Empty(t, prev.MemberIDs)
	})

	t.Run("ineligible is forbidden", func(t *testing.T) {
		status, env := f.call("sup", http.MethodPost, path, models.AssignmentRequest{
			EntityIDs: []uint{f.users["carol"].ID},
		})
		require.Equal(t, http.StatusForbidden, status)
		require.Equal(t, "UNAUTHORIZED", env.Code)
	})

	t.Run("unknown is not found", func(t *testing.T) {
		status, env := f.call("sup", http.MethodPost, path, models.AssignmentRequest{EntityIDs: []uint{9999}})
		require.Equal(t, http.StatusNotFound, status)
		require.Equal(t, "NOT_FOUND", env.Code)
	})

	t.Run("empty selection is invalid", func(t *testing.T) {
		status, _ := f.call("sup", http.MethodPost, path, models.AssignmentRequest{})
		require.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("missing team", func(t *testing.T) {
		status, _ := f.call("sup", http.MethodPost, "/teams/9999/members", models.AssignmentRequest{EntityIDs: []uint{1}})
		require.Equal(t, http.StatusNotFound, status)
	})
}

func TestRemoveMembersAndDeleteTeam(t *testing.T) {
	f := newFixture(t)
	team := f.createTeam("admin", f.users["alice"].ID, f.users["bob"].ID)
	base := "/teams/" + strconv.FormatUint(uint64(team.ID), 10)

	status, env := f.call("admin", http.MethodDelete, base+"/members", models.RemoveMembersRequest{
		EntityIDs: []uint{f.users["alice"].ID, f.users["carol"].ID},
	})
	require.Equal(t, http.StatusOK, status)
	var res models.AssignmentResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.Equal(t, []uint{f.users["alice"].ID}, res.Assigned)
	require.Equal(t, []uint{f.users["carol"].ID}, res.Skipped)

	status, _ = f.call("admin", http.MethodDelete, base, nil)
	require.Equal(t, http.StatusOK, status)
	bob, err := f.repo.GetUser(f.users["bob"].ID)
	require.NoError(t, err)
	require.Nil(t, bob.TeamID)

	status, _ = f.call("admin", http.MethodDelete, base, nil)
	require.Equal(t, http.StatusNotFound, status)
}

func TestAssignSubordinates(t *testing.T) {
	f := newFixture(t)
	path := "/users/" + f.id("sup") + "/subordinates"

	status, env := f.call("admin", http.MethodPost, path, models.AssignmentRequest{
		EntityIDs: []uint{f.users["alice"].ID, f.users["bob"].ID},
	})
	require.Equal(t, http.StatusOK, status, env.Message)
	var res models.AssignmentResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.Len(t, res.Assigned, 2)

	status, _ = f.call("admin", http.MethodPost, path, models.AssignmentRequest{
		EntityIDs: []uint{f.users["admin"].ID},
	})
	require.Equal(t, http.StatusForbidden, status)

	// Deactivating the supervisor detaches both subordinates.
	status, _ = f.call("admin", http.MethodDelete, "/users/"+f.id("sup"), nil)
	require.Equal(t, http.StatusOK, status)
	alice, err := f.repo.GetUser(f.users["alice"].ID)
	require.NoError(t, err)
	require.Nil(t, alice.SupervisorID)
	sup, err := f.repo.GetUser(f.users["sup"].ID)
	require.NoError(t, err)
	require.True(t, sup.IsDisabled())

	status, _ = f.call("sup", http.MethodGet, "/organizations", nil)
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestUpdateUser(t *testing.T) {
	f := newFixture(t)
	path := "/users/" + f.id("alice")

	level := "Level 2"
	status, env := f.call("admin", http.MethodPatch, path, models.UserPatch{SupervisoryLevel: &level})
	require.Equal(t, http.StatusOK, status)
	var u models.User
	require.NoError(t, json.Unmarshal(env.Data, &u))
	require.Equal(t, "Level 2", u.SupervisoryLevel)

	bad := models.Role("wizard")
	status, _ = f.call("admin", http.MethodPatch, path, models.UserPatch{Role: &bad})
	require.Equal(t, http.StatusBadRequest, status)

	status, _ = f.call("alice", http.MethodPatch, path, models.UserPatch{SupervisoryLevel: &level})
	require.Equal(t, http.StatusForbidden, status)
}

func TestDashboardSummaryAndLevels(t *testing.T) {
	f := newFixture(t)
	f.createTeam("admin", f.users["alice"].ID)

	status, env := f.call("sup", http.MethodGet, "/organizations/"+strconv.FormatUint(uint64(f.org.ID), 10)+"/dashboard", nil)
	require.Equal(t, http.StatusOK, status)
	var s models.Summary
	require.NoError(t, json.Unmarshal(env.Data, &s))
	require.Equal(t, 5, s.Users)
	require.Equal(t, 1, s.Teams)
	// sup, bob and carol have no team; admin is not counted.
	require.Equal(t, 3, s.Unassigned)
	require.Equal(t, 3, s.ByRole[models.RoleEmployee])

	status, env = f.call("alice", http.MethodGet, "/supervisory-levels", nil)
	require.Equal(t, http.StatusOK, status)
	var lv []levels.Level
	require.NoError(t, json.Unmarshal(env.Data, &lv))
	require.Len(t, lv, 5)
	require.Equal(t, levels.Overall, lv[4].Name)

	status, _ = f.call("alice", http.MethodGet, "/organizations/9999/users", nil)
	require.Equal(t, http.StatusForbidden, status)
}

func TestTaskReviewFlow(t *testing.T) {
	f := newFixture(t)
	day := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)

	status, env := f.call("alice", http.MethodPost, "/tasks", models.CreateTaskRequest{
		AssigneeID: f.users["alice"].ID, Date: day, Title: "Write report",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var task models.Task
	require.NoError(t, json.Unmarshal(env.Data, &task))
	require.Equal(t, models.TaskPending, task.Status)
	taskPath := "/tasks/" + strconv.FormatUint(uint64(task.ID), 10)

	status, _ = f.call("alice", http.MethodPost, "/tasks", models.CreateTaskRequest{
		AssigneeID: f.users["bob"].ID, Date: day, Title: "Not mine",
	})
	require.Equal(t, http.StatusForbidden, status)

	status, _ = f.call("alice", http.MethodPost, taskPath+"/review", models.ReviewTaskRequest{Status: models.TaskApproved})
	require.Equal(t, http.StatusForbidden, status)

	status, _ = f.call("sup", http.MethodPost, taskPath+"/review", models.ReviewTaskRequest{Status: "maybe"})
	require.Equal(t, http.StatusBadRequest, status)

	status, env = f.call("sup", http.MethodPost, taskPath+"/review", models.ReviewTaskRequest{
		Status: models.TaskApproved, Comment: "Looks good",
	})
	require.Equal(t, http.StatusOK, status, env.Message)
	require.NoError(t, json.Unmarshal(env.Data, &task))
	require.Equal(t, models.TaskApproved, task.Status)

	status, _ = f.call("sup", http.MethodPost, taskPath+"/review", models.ReviewTaskRequest{Status: models.TaskRejected})
	require.Equal(t, http.StatusConflict, status)

	status, env = f.call("alice", http.MethodGet, taskPath+"/comments", nil)
	require.Equal(t, http.StatusOK, status)
	var comments []models.TaskComment
	require.NoError(t, json.Unmarshal(env.Data, &comments))
	require.Len(t, comments, 1)
	require.Equal(t, "Looks good", comments[0].Body)

	status, env = f.call("bob", http.MethodGet, "/tasks?date=2024-05-02", nil)
	require.Equal(t, http.StatusOK, status)
	var tasks []models.Task
	require.NoError(t, json.Unmarshal(env.Data, &tasks))
	require.Empty(t, tasks)

	status, env = f.call("sup", http.MethodGet, "/tasks?date=2024-05-02&status=approved", nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &tasks))
	require.Len(t, tasks, 1)
}

func TestListTasks_OnlyReviewableAssignees(t *testing.T) {
	f := newFixture(t)
	day := time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC)
	for _, name := range []string{"alice", "carol"} {
		status, env := f.call(name, http.MethodPost, "/tasks", models.CreateTaskRequest{
			AssigneeID: f.users[name].ID, Date: day, Title: name + " standup",
		})
		require.Equal(t, http.StatusCreated, status, env.Message)
	}

	assignees := func(as, query string) []uint {
		status, env := f.call(as, http.MethodGet, "/tasks"+query, nil)
		require.Equal(t, http.StatusOK, status, env.Message)
		var tasks []models.Task
		require.NoError(t, json.Unmarshal(env.Data, &tasks))
		ids := make([]uint, 0, len(tasks))
		for _, task := range tasks {
			ids = append(ids, task.AssigneeID)
		}
		return ids
	}

	// sup and carol are both Level 3.
	require.Equal(t, []uint{f.users["alice"].ID}, assignees("sup", ""))
	require.Empty(t, assignees("sup", "?assignee_id="+f.id("carol")))
	require.ElementsMatch(t, []uint{f.users["alice"].ID, f.users["carol"].ID}, assignees("admin", ""))
	require.Equal(t, []uint{f.users["carol"].ID}, assignees("carol", ""))
}

func TestUpdateUser_DisableDetachesLikeDeactivate(t *testing.T) {
	f := newFixture(t)
	f.createTeam("admin", f.users["alice"].ID)

	bob := *f.users["bob"]
	aliceID := f.users["alice"].ID
	bob.SupervisorID = &aliceID
	require.NoError(t, f.repo.SaveUsers([]models.User{bob}))

	disabled := models.RoleDisabled
	status, env := f.call("admin", http.MethodPatch, "/users/"+f.id("alice"), models.UserPatch{Role: &disabled})
	require.Equal(t, http.StatusOK, status, env.Message)

	alice, err := f.repo.GetUser(aliceID)
	require.NoError(t, err)
	require.True(t, alice.IsDisabled())
	require.False(t, alice.Active)
	require.Nil(t, alice.TeamID)

	got, err := f.repo.GetUser(bob.ID)
	require.NoError(t, err)
	require.Nil(t, got.SupervisorID)

	status, _ = f.call("admin", http.MethodPatch, "/users/"+f.id("admin"), models.UserPatch{Role: &disabled})
	require.Equal(t, http.StatusBadRequest, status)
}

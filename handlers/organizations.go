package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"orgdash/config"
	"orgdash/database"
	"orgdash/levels"
	"orgdash/middleware"
	"orgdash/models"
)

type OrganizationHandler struct {
	config *config.Config
	repo   database.Repository
	log    *logrus.Logger
}

func NewOrganizationHandler(cfg *config.Config, repo database.Repository, log *logrus.Logger) *OrganizationHandler {
	return &OrganizationHandler{
		config: cfg,
		repo:   repo,
		log:    log,
	}
}

// canAccessOrg: admins see every organization, everyone else only their own.
func canAccessOrg(user *models.User, orgID uint) bool {
	return user.IsAdmin() || user.OrganizationID == orgID
}

// orgFromURL resolves {id} and checks the caller may see it.
func (h *OrganizationHandler) orgFromURL(w http.ResponseWriter, r *http.Request) (*models.Organization, bool) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return nil, false
	}
	user := middleware.GetUserFromContext(r.Context())
	if !canAccessOrg(user, id) {
		writeError(w, http.StatusForbidden, "organization is outside your scope")
		return nil, false
	}
	org, err := h.repo.GetOrganization(id)
	if err != nil {
		writeStoreError(w, err, "organization")
		return nil, false
	}
	return org, true
}

func (h *OrganizationHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	orgs, err := h.repo.ListOrganizations()
	if err != nil {
		writeStoreError(w, err, "organizations")
		return
	}
	visible := make([]models.Organization, 0, len(orgs))
	for _, o := range orgs {
		if canAccessOrg(user, o.ID) {
			visible = append(visible, o)
		}
	}
	writeSuccess(w, visible)
}

func (h *OrganizationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateOrganizationRequest
	if !decode(w, r, &req) {
		return
	}
	org := &models.Organization{Name: req.Name}
	if err := h.repo.CreateOrganization(org); err != nil {
		writeStoreError(w, err, "organization")
		return
	}
	h.log.WithField("organization_id", org.ID).Info("organization created")
	writeCreated(w, org)
}

func (h *OrganizationHandler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	org, ok := h.orgFromURL(w, r)
	if !ok {
		return
	}
	depts, err := h.repo.ListDepartments(org.ID)
	if err != nil {
		writeStoreError(w, err, "departments")
		return
	}
	writeSuccess(w, depts)
}

func (h *OrganizationHandler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	org, ok := h.orgFromURL(w, r)
	if !ok {
		return
	}
	var req models.CreateDepartmentRequest
	if !decode(w, r, &req) {
		return
	}
	dept := &models.Department{OrganizationID: org.ID, Name: req.Name}
	if err := h.repo.CreateDepartment(dept); err != nil {
		writeStoreError(w, err, "department")
		return
	}
	writeCreated(w, dept)
}

func (h *OrganizationHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	org, ok := h.orgFromURL(w, r)
	if !ok {
		return
	}
	users, err := h.repo.ListUsers(org.ID)
	if err != nil {
		writeStoreError(w, err, "users")
		return
	}
	writeSuccess(w, users)
}

func (h *OrganizationHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	org, ok := h.orgFromURL(w, r)
	if !ok {
		return
	}
	var req models.RegisterUserRequest
	if !decode(w, r, &req) {
		return
	}
	if !req.Role.Valid() || req.Role == models.RoleDisabled {
		writeError(w, http.StatusBadRequest, "invalid role")
		return
	}
	actor := middleware.GetUserFromContext(r.Context())
	if req.Role == models.RoleAdmin && !actor.IsAdmin() {
		writeError(w, http.StatusForbidden, "only admins can register admins")
		return
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}
	user := &models.User{
		OrganizationID:   org.ID,
		DepartmentID:     req.DepartmentID,
		Username:         req.Username,
		FullName:         req.FullName,
		PasswordHash:     hash,
		Role:             req.Role,
		SupervisoryLevel: req.SupervisoryLevel,
		Active:           true,
	}
	if !levels.IsCanonical(user.SupervisoryLevel) {
		h.log.WithField("level", user.SupervisoryLevel).Warn("registering user with non-canonical supervisory level")
	}
	if err := h.repo.CreateUser(user); err != nil {
		writeStoreError(w, err, "user")
		return
	}
	h.log.WithFields(logrus.Fields{"user_id": user.ID, "organization_id": org.ID}).Info("user registered")
	writeCreated(w, user)
}

func (h *OrganizationHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	org, ok := h.orgFromURL(w, r)
	if !ok {
		return
	}
	teams, err := h.repo.ListTeams(org.ID)
	if err != nil {
		writeStoreError(w, err, "teams")
		return
	}
	writeSuccess(w, teams)
}

func (h *OrganizationHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	org, ok := h.orgFromURL(w, r)
	if !ok {
		return
	}
	users, err := h.repo.ListUsers(org.ID)
	if err != nil {
		writeStoreError(w, err, "users")
		return
	}
	teams, err := h.repo.ListTeams(org.ID)
	if err != nil {
		writeStoreError(w, err, "teams")
		return
	}
	tasks, err := h.repo.ListTasks(models.TaskFilter{OrganizationID: org.ID})
	if err != nil {
		writeStoreError(w, err, "tasks")
		return
	}
	writeSuccess(w, summarize(org.ID, users, teams, tasks))
}

// summarize counts users by role and level. Unassigned is the number of
// active non-admin users that belong to no team.
func summarize(orgID uint, users []models.User, teams []models.Team, tasks []models.Task) models.Summary {
	s := models.Summary{
		OrganizationID: orgID,
		Users:          len(users),
		Teams:          len(teams),
		ByRole:         map[models.Role]int{},
		ByLevel:        map[string]int{},
		TasksByStatus:  map[models.TaskStatus]int{},
	}
	for _, u := range users {
		s.ByRole[u.Role]++
		if u.IsDisabled() {
			continue
		}
		s.ActiveUsers++
		level := u.SupervisoryLevel
		if level == "" {
			level = levels.None
		}
		s.ByLevel[level]++
		if u.TeamID == nil && !u.IsAdmin() {
			s.Unassigned++
		}
	}
	for _, t := range tasks {
		s.TasksByStatus[t.Status]++
	}
	return s
}

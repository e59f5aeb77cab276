package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"orgdash/config"
	"orgdash/database"
	"orgdash/levels"
	"orgdash/metrics"
	"orgdash/middleware"
	"orgdash/models"
)

type UserHandler struct {
	config *config.Config
	repo   database.Repository
	log    *logrus.Logger
}

func NewUserHandler(cfg *config.Config, repo database.Repository, log *logrus.Logger) *UserHandler {
	return &UserHandler{
		config: cfg,
		repo:   repo,
		log:    log,
	}
}

func (h *UserHandler) userFromURL(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return nil, false
	}
	user, err := h.repo.GetUser(id)
	if err != nil {
		writeStoreError(w, err, "user")
		return nil, false
	}
	if !canAccessOrg(middleware.GetUserFromContext(r.Context()), user.OrganizationID) {
		writeError(w, http.StatusNotFound, "user not found")
		return nil, false
	}
	return user, true
}

// Update applies a role/level/name patch. Only admins may grant or revoke
// the admin role.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := h.userFromURL(w, r)
	if !ok {
		return
	}
	var patch models.UserPatch
	if !decode(w, r, &patch) {
		return
	}
	actor := middleware.GetUserFromContext(r.Context())

	if patch.Role != nil {
		if !patch.Role.Valid() {
			writeError(w, http.StatusBadRequest, "invalid role")
			return
		}
		touchesAdmin := *patch.Role == models.RoleAdmin || user.Role == models.RoleAdmin
		if touchesAdmin && !actor.IsAdmin() {
			writeError(w, http.StatusForbidden, "only admins can change admin roles")
			return
		}
		if *patch.Role == models.RoleDisabled && actor.ID == user.ID {
			writeError(w, http.StatusBadRequest, "you cannot deactivate yourself")
			return
		}
		user.Role = *patch.Role
		user.Active = user.Role != models.RoleDisabled
	}
	if patch.SupervisoryLevel != nil {
		if !levels.IsCanonical(*patch.SupervisoryLevel) {
			h.log.WithFields(logrus.Fields{
				"user_id": user.ID,
				"level":   *patch.SupervisoryLevel,
			}).Warn("non-canonical supervisory level, ordering falls back to lexical")
		}
		user.SupervisoryLevel = *patch.SupervisoryLevel
	}
	if patch.FullName != nil {
		user.FullName = *patch.FullName
	}
	if patch.DepartmentID != nil {
		user.DepartmentID = patch.DepartmentID
	}

	changed := []models.User{*user}
	if user.Role == models.RoleDisabled {
		roster, err := h.repo.ListUsers(user.OrganizationID)
		if err != nil {
			writeStoreError(w, err, "users")
			return
		}
		changed = deactivate(user, roster)
	}
	if err := h.repo.SaveUsers(changed); err != nil {
		writeStoreError(w, err, "user")
		return
	}
	h.log.WithFields(logrus.Fields{"user_id": user.ID, "detached": len(changed) - 1}).Info("user updated")
	writeSuccess(w, user)
}

// Deactivate disables the account, drops its team membership and detaches
// its subordinates. Users are never hard-deleted.
func (h *UserHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	user, ok := h.userFromURL(w, r)
	if !ok {
		return
	}
	actor := middleware.GetUserFromContext(r.Context())
	if actor.ID == user.ID {
		writeError(w, http.StatusBadRequest, "you cannot deactivate yourself")
		return
	}

	roster, err := h.repo.ListUsers(user.OrganizationID)
	if err != nil {
		writeStoreError(w, err, "users")
		return
	}
	changed := deactivate(user, roster)
	if err := h.repo.SaveUsers(changed); err != nil {
		writeStoreError(w, err, "users")
		return
	}
	h.log.WithFields(logrus.Fields{"user_id": user.ID, "detached": len(changed) - 1}).Info("user deactivated")
	writeSuccess(w, user)
}

// deactivate disables user, drops its team and returns it followed by every
// roster entry that had it as supervisor, now detached.
func deactivate(user *models.User, roster []models.User) []models.User {
	user.Active = false
	user.Role = models.RoleDisabled
	user.TeamID = nil
	changed := []models.User{*user}
	for _, u := range roster {
		if u.ID != user.ID && u.SupervisorID != nil && *u.SupervisorID == user.ID {
			u.SupervisorID = nil
			changed = append(changed, u)
		}
	}
	return changed
}

// AssignSubordinates sets the URL user as supervisor of the given users.
func (h *UserHandler) AssignSubordinates(w http.ResponseWriter, r *http.Request) {
	supervisor, ok := h.userFromURL(w, r)
	if !ok {
		return
	}
	actor := middleware.GetUserFromContext(r.Context())
	if !canManageTeam(actor, supervisor.OrganizationID, supervisor.ID) {
		writeError(w, http.StatusForbidden, "you cannot assign subordinates to this user")
		return
	}
	if supervisor.IsDisabled() {
		writeError(w, http.StatusBadRequest, "supervisor is not active")
		return
	}
	var req models.AssignmentRequest
	if !decode(w, r, &req) {
		return
	}
	roster, err := h.repo.ListUsers(supervisor.OrganizationID)
	if err != nil {
		writeStoreError(w, err, "users")
		return
	}

	plan, err := planAssignment(supervisor, roster, req.EntityIDs, supervisor.ID, supervisorSlot, req.OverrideExisting)
	if err != nil {
		writePlanError(w, err)
		return
	}
	if err := h.repo.SaveUsers(plan.changed); err != nil {
		writeStoreError(w, err, "users")
		return
	}

	metrics.ObserveAssignment(supervisorSlot.kind, len(plan.result.Assigned), len(plan.result.Skipped))
	h.log.WithFields(logrus.Fields{
		"supervisor_id": supervisor.ID,
		"assigned":      len(plan.result.Assigned),
		"skipped":       len(plan.result.Skipped),
	}).Info("subordinates assigned")
	writeSuccess(w, plan.result)
}

func (h *UserHandler) Levels(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, levels.Canonical(h.config.LevelCount))
}

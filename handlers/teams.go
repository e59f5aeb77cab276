package handlers

import (
	"errors"
	"net/http"
	"slices"

	"github.com/sirupsen/logrus"

	"orgdash/apierror"
	"orgdash/config"
	"orgdash/database"
	"orgdash/metrics"
	"orgdash/middleware"
	"orgdash/models"
)

type TeamHandler struct {
	config *config.Config
	repo   database.Repository
	log    *logrus.Logger
}

func NewTeamHandler(cfg *config.Config, repo database.Repository, log *logrus.Logger) *TeamHandler {
	return &TeamHandler{
		config: cfg,
		repo:   repo,
		log:    log,
	}
}

// canManageTeam: admins and Overall users manage any team in scope,
// supervisors only the teams they lead.
func canManageTeam(actor *models.User, orgID, supervisorID uint) bool {
	if !canAccessOrg(actor, orgID) || !actor.CanManageRoster() {
		return false
	}
	if actor.Role == models.RoleSupervisor {
		return actor.ID == supervisorID
	}
	return true
}

func writePlanError(w http.ResponseWriter, err error) {
	var pe *planError
	if errors.As(err, &pe) {
		writeError(w, apierror.StatusOf(pe.kind), pe.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "failed to plan assignment")
}

func (h *TeamHandler) teamFromURL(w http.ResponseWriter, r *http.Request) (*models.Team, bool) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return nil, false
	}
	team, err := h.repo.GetTeam(id)
	if err != nil {
		writeStoreError(w, err, "team")
		return nil, false
	}
	actor := middleware.GetUserFromContext(r.Context())
	if !canManageTeam(actor, team.OrganizationID, team.SupervisorID) {
		writeError(w, http.StatusForbidden, "you cannot manage this team")
		return nil, false
	}
	return team, true
}

// supervisorAndRoster loads the supervisor and the roster of orgID. The
// supervisor must belong to that organization.
func (h *TeamHandler) supervisorAndRoster(w http.ResponseWriter, orgID, supervisorID uint) (*models.User, []models.User, bool) {
	supervisor, err := h.repo.GetUser(supervisorID)
	if err != nil || supervisor.OrganizationID != orgID {
		writeError(w, http.StatusNotFound, "supervisor not found")
		return nil, nil, false
	}
	roster, err := h.repo.ListUsers(orgID)
	if err != nil {
		writeStoreError(w, err, "users")
		return nil, nil, false
	}
	return supervisor, roster, true
}

func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTeamRequest
	if !decode(w, r, &req) {
		return
	}
	actor := middleware.GetUserFromContext(r.Context())
	if !canManageTeam(actor, req.OrganizationID, req.SupervisorID) {
		writeError(w, http.StatusForbidden, "you cannot create this team")
		return
	}
	if slices.Contains(req.MemberIDs, req.SupervisorID) {
		writeError(w, http.StatusBadRequest, "the supervisor cannot be a member of their own team")
		return
	}
	if _, err := h.repo.GetOrganization(req.OrganizationID); err != nil {
		writeStoreError(w, err, "organization")
		return
	}
	supervisor, roster, ok := h.supervisorAndRoster(w, req.OrganizationID, req.SupervisorID)
	if !ok {
		return
	}
	if supervisor.IsDisabled() {
		writeError(w, http.StatusBadRequest, "supervisor is not active")
		return
	}

	// Target 0 never matches an existing team, so only members held by
	// another team are skipped.
	plan, err := planAssignment(supervisor, roster, req.MemberIDs, 0, teamSlot, false)
	if err != nil {
		writePlanError(w, err)
		return
	}

	team := &models.Team{
		OrganizationID: req.OrganizationID,
		Name:           req.Name,
		SupervisorID:   req.SupervisorID,
		MemberIDs:      plan.result.Assigned,
	}
	if err := h.repo.CreateTeam(team); err != nil {
		writeStoreError(w, err, "team")
		return
	}
	h.log.WithFields(logrus.Fields{
		"team_id": team.ID,
		"members": len(team.MemberIDs),
		"skipped": len(plan.result.Skipped),
	}).Info("team created")
	writeCreated(w, team)
}

func (h *TeamHandler) Delete(w http.ResponseWriter, r *http.Request) {
	team, ok := h.teamFromURL(w, r)
	if !ok {
		return
	}
	if err := h.repo.DeleteTeam(team.ID); err != nil {
		writeStoreError(w, err, "team")
		return
	}
	h.log.WithField("team_id", team.ID).Info("team deleted")
	writeSuccess(w, team)
}

func (h *TeamHandler) AssignMembers(w http.ResponseWriter, r *http.Request) {
	team, ok := h.teamFromURL(w, r)
	if !ok {
		return
	}
	var req models.AssignmentRequest
	if !decode(w, r, &req) {
		return
	}
	supervisor, roster, ok := h.supervisorAndRoster(w, team.OrganizationID, team.SupervisorID)
	if !ok {
		return
	}

	plan, err := planAssignment(supervisor, roster, req.EntityIDs, team.ID, teamSlot, req.OverrideExisting)
	if err != nil {
		writePlanError(w, err)
		return
	}
	if err := h.repo.SaveUsers(plan.changed); err != nil {
		writeStoreError(w, err, "users")
		return
	}

	metrics.ObserveAssignment(teamSlot.kind, len(plan.result.Assigned), len(plan.result.Skipped))
	h.log.WithFields(logrus.Fields{
		"team_id":  team.ID,
		"assigned": len(plan.result.Assigned),
		"skipped":  len(plan.result.Skipped),
	}).Info("team members assigned")
	writeSuccess(w, plan.result)
}

// RemoveMembers clears membership for the given ids. Removed ids are
// reported as assigned, ids that were not members as skipped.
func (h *TeamHandler) RemoveMembers(w http.ResponseWriter, r *http.Request) {
	team, ok := h.teamFromURL(w, r)
	if !ok {
		return
	}
	var req models.RemoveMembersRequest
	if !decode(w, r, &req) {
		return
	}
	roster, err := h.repo.ListUsers(team.OrganizationID)
	if err != nil {
		writeStoreError(w, err, "users")
		return
	}
	byID := make(map[uint]models.User, len(roster))
	for _, u := range roster {
		byID[u.ID] = u
	}

	result := models.AssignmentResult{Assigned: []uint{}, Skipped: []uint{}}
	var changed []models.User
	for _, id := range dedupe(req.EntityIDs) {
		u, ok := byID[id]
		if !ok {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		if u.TeamID == nil || *u.TeamID != team.ID {
			result.Skipped = append(result.Skipped, id)
			continue
		}
		u.TeamID = nil
		changed = append(changed, u)
		result.Assigned = append(result.Assigned, id)
	}
	if err := h.repo.SaveUsers(changed); err != nil {
		writeStoreError(w, err, "users")
		return
	}
	h.log.WithFields(logrus.Fields{"team_id": team.ID, "removed": len(result.Assigned)}).Info("team members removed")
	writeSuccess(w, result)
}

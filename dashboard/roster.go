package dashboard

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"orgdash/apierror"
	"orgdash/assignment"
	"orgdash/eligibility"
	"orgdash/levels"
	"orgdash/models"
	"orgdash/pagination"
	"orgdash/store"
)

// RosterComparators are the sort keys offered by roster tables.
var RosterComparators = pagination.Comparators[models.User]{
	"id": func(a, b models.User) int { return cmp.Compare(a.ID, b.ID) },
	"name": func(a, b models.User) int {
		return strings.Compare(strings.ToLower(a.DisplayName()), strings.ToLower(b.DisplayName()))
	},
	"role":  func(a, b models.User) int { return strings.Compare(string(a.Role), string(b.Role)) },
	"level": func(a, b models.User) int { return levels.Compare(a.SupervisoryLevel, b.SupervisoryLevel) },
}

type RosterQuery struct {
	Search   string
	Role     models.Role
	TeamID   *uint
	Sort     pagination.Sort
	PageSize int
	Page     int
}

func (q RosterQuery) match(u models.User) bool {
	if q.Role != "" && u.Role != q.Role {
		return false
	}
	if q.TeamID != nil && (u.TeamID == nil || *u.TeamID != *q.TeamID) {
		return false
	}
	if q.Search != "" {
		needle := strings.ToLower(strings.TrimSpace(q.Search))
		if !strings.Contains(strings.ToLower(u.DisplayName()), needle) &&
			!strings.Contains(strings.ToLower(u.Username), needle) {
			return false
		}
	}
	return true
}

// RosterPage filters, sorts and paginates the current roster snapshot.
func (s *Session) RosterPage(q RosterQuery) pagination.Window[models.User] {
	return page(s.store.Snapshot().Users, q)
}

func page(users []models.User, q RosterQuery) pagination.Window[models.User] {
	v := pagination.NewView(q.PageSize, RosterComparators)
	v.SetItems(users)
	v.SetFilter(q.match)
	v.SetSort(q.Sort)
	v.SetPage(q.Page)
	return v.Window()
}

// Eligible returns the roster members the given user may supervise. An
// unknown supervisor yields an empty list.
func (s *Session) Eligible(supervisorID uint) []models.User {
	st := s.store.Snapshot()
	sup, ok := st.UserByID(supervisorID)
	if !ok {
		return []models.User{}
	}
	return eligibility.EligibleMembers(&sup, st.Users)
}

// EligiblePage is Eligible followed by the roster query.
func (s *Session) EligiblePage(supervisorID uint, q RosterQuery) pagination.Window[models.User] {
	return page(s.Eligible(supervisorID), q)
}

func (s *Session) track(w *assignment.Workflow) *assignment.Workflow {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		w.Close()
		return w
	}
	s.workflows = slices.DeleteFunc(s.workflows, (*assignment.Workflow).Closed)
	s.workflows = append(s.workflows, w)
	return w
}

// TeamAssignment opens a workflow that adds the selection to teamID.
func (s *Session) TeamAssignment(teamID uint) *assignment.Workflow {
	w := assignment.New(assignment.Config{
		Op:        store.OpAssignTeam,
		Submitter: assignment.SubmitterFunc(s.api.AssignMembers),
		Refresher: assignment.RefresherFunc(s.Refresh),
		Store:     s.store,
		Timeout:   s.opts.Timeout,
		Logger:    s.log,
	})
	w.SetTarget(teamID)
	return s.track(w)
}

// SupervisorAssignment opens a workflow that puts the selection under supervisorID.
func (s *Session) SupervisorAssignment(supervisorID uint) *assignment.Workflow {
	w := assignment.New(assignment.Config{
		Op:        store.OpAssignSupervisor,
		Submitter: assignment.SubmitterFunc(s.api.AssignSubordinates),
		Refresher: assignment.RefresherFunc(s.RefreshRoster),
		Store:     s.store,
		Timeout:   s.opts.Timeout,
		Logger:    s.log,
	})
	w.SetTarget(supervisorID)
	return s.track(w)
}

// CreateTeam checks locally that the supervisor is not also listed as a member.
func (s *Session) CreateTeam(ctx context.Context, name string, supervisorID uint, memberIDs []uint) (*models.Team, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apierror.NewValidation("team name is required")
	}
	if supervisorID == 0 {
		return nil, apierror.NewValidation("choose a supervisor")
	}
	for _, id := range memberIDs {
		if id == supervisorID {
			return nil, apierror.NewValidation("the supervisor cannot be a member of their own team")
		}
	}
	var team *models.Team
	err := s.mutate(ctx, store.OpCreateTeam, func(ctx context.Context) error {
		t, err := s.api.CreateTeam(ctx, models.CreateTeamRequest{
			OrganizationID: s.orgID,
			Name:           strings.TrimSpace(name),
			SupervisorID:   supervisorID,
			MemberIDs:      memberIDs,
		})
		team = t
		return err
	})
	if err != nil {
		return nil, err
	}
	return team, s.Refresh(ctx)
}

func (s *Session) DeleteTeam(ctx context.Context, teamID uint) error {
	err := s.mutate(ctx, store.OpDeleteTeam, func(ctx context.Context) error {
		return s.api.DeleteTeam(ctx, teamID)
	})
	if err != nil {
		return err
	}
	return s.Refresh(ctx)
}

func (s *Session) RemoveMembers(ctx context.Context, teamID uint, ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return nil, apierror.NewValidation("select at least one member")
	}
	var removed []uint
	err := s.mutate(ctx, store.OpRemoveMembers, func(ctx context.Context) error {
		r, err := s.api.RemoveMembers(ctx, teamID, ids)
		removed = r
		return err
	})
	if err != nil {
		return nil, err
	}
	return removed, s.Refresh(ctx)
}

func (s *Session) UpdateUser(ctx context.Context, id uint, patch models.UserPatch) (*models.User, error) {
	if patch.Role != nil && !patch.Role.Valid() {
		return nil, apierror.NewValidation("unknown role " + string(*patch.Role))
	}
	var out *models.User
	err := s.mutate(ctx, store.OpUpdateUser, func(ctx context.Context) error {
		u, err := s.api.UpdateUser(ctx, id, patch)
		out = u
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, s.RefreshRoster(ctx)
}

func (s *Session) DeactivateUser(ctx context.Context, id uint) error {
	err := s.mutate(ctx, store.OpDeactivateUser, func(ctx context.Context) error {
		return s.api.DeleteUser(ctx, id)
	})
	if err != nil {
		return err
	}
	return s.RefreshRoster(ctx)
}

package handlers

import (
	"fmt"

	"orgdash/apierror"
	"orgdash/eligibility"
	"orgdash/models"
)

// slot is the field an assignment writes: User.TeamID or User.SupervisorID.
type slot struct {
	kind string
	get  func(u *models.User) *uint
	set  func(u *models.User, id *uint)
}

var (
	teamSlot = slot{
		kind: "team",
		get:  func(u *models.User) *uint { return u.TeamID },
		set:  func(u *models.User, id *uint) { u.TeamID = id },
	}
	supervisorSlot = slot{
		kind: "supervisor",
		get:  func(u *models.User) *uint { return u.SupervisorID },
		set:  func(u *models.User, id *uint) { u.SupervisorID = id },
	}
)

type planError struct {
	kind   apierror.Kind
	ids    []uint
	reason string
}

func (e *planError) Error() string {
	return fmt.Sprintf("%s: %v", e.reason, e.ids)
}

type assignmentPlan struct {
	result  models.AssignmentResult
	changed []models.User
}

// planAssignment decides, for each requested id, whether it is written to
// target or skipped. Unknown ids and ids the supervisor may not manage fail
// the whole request. The supervisor itself, users already on target,
// inactive users and users held elsewhere (unless override) are skipped.
func planAssignment(supervisor *models.User, roster []models.User, ids []uint, target uint, s slot, override bool) (*assignmentPlan, error) {
	byID := make(map[uint]*models.User, len(roster))
	for i := range roster {
		byID[roster[i].ID] = &roster[i]
	}

	ids = dedupe(ids)
	var missing []uint
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, &planError{kind: apierror.NotFound, ids: missing, reason: "unknown users"}
	}

	candidates := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id != supervisor.ID {
			candidates = append(candidates, id)
		}
	}
	if bad := eligibility.Ineligible(supervisor, roster, candidates); len(bad) > 0 {
		return nil, &planError{kind: apierror.Authorization, ids: bad, reason: "supervisor may not manage users"}
	}

	plan := &assignmentPlan{result: models.AssignmentResult{Assigned: []uint{}, Skipped: []uint{}}}
	for _, id := range ids {
		u := *byID[id]
		current := s.get(&u)
		switch {
		case id == supervisor.ID,
			u.IsDisabled(),
			current != nil && *current == target,
			current != nil && !override:
			plan.result.Skipped = append(plan.result.Skipped, id)
			continue
		}
		t := target
		s.set(&u, &t)
		plan.changed = append(plan.changed, u)
		plan.result.Assigned = append(plan.result.Assigned, id)
	}
	return plan, nil
}

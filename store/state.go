// Package store holds the client-side application state: server collections
// mirrored after each successful round trip plus a status per operation.
package store

import (
	"orgdash/models"
)

type Status int

const (
	Idle Status = iota
	Pending
	Fulfilled
	Rejected
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Fulfilled:
		return "fulfilled"
	case Rejected:
		return "rejected"
	}
	return "idle"
}

// Op names a tracked operation, e.g. "roster/fetch" or "teams/assign".
type Op string

const (
	OpFetchRoster      Op = "roster/fetch"
	OpFetchTeams       Op = "teams/fetch"
	OpFetchTasks       Op = "tasks/fetch"
	OpAssignTeam       Op = "teams/assign"
	OpAssignSupervisor Op = "users/assign-supervisor"
	OpRemoveMembers    Op = "teams/remove-members"
	OpUpdateUser       Op = "users/update"
	OpFetchSummary     Op = "dashboard/fetch"
	OpCreateTeam       Op = "teams/create"
	OpDeleteTeam       Op = "teams/delete"
	OpDeactivateUser   Op = "users/deactivate"
)

type OpState struct {
	Status  Status
	Error   string
	Message string
}

func (o OpState) Loading() bool {
	return o.Status == Pending
}

type State struct {
	Users   []models.User
	Teams   []models.Team
	Tasks   []models.Task
	Summary *models.Summary
	Ops     map[Op]OpState
	// Selections mirrors the selection set of each bulk operation.
	Selections map[Op][]uint
}

func (s State) Op(op Op) OpState {
	return s.Ops[op]
}

func (s State) Selection(op Op) []uint {
	return s.Selections[op]
}

// UserByID looks a user up in the current roster.
func (s State) UserByID(id uint) (models.User, bool) {
	for _, u := range s.Users {
		if u.ID == id {
			return u, true
		}
	}
	return models.User{}, false
}

func (s State) TeamByID(id uint) (models.Team, bool) {
	for _, t := range s.Teams {
		if t.ID == id {
			return t, true
		}
	}
	return models.Team{}, false
}

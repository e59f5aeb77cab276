package store

import (
	"orgdash/models"
)

type Action interface {
	action()
}

type RosterLoaded struct{ Users []models.User }
type TeamsLoaded struct{ Teams []models.Team }
type TasksLoaded struct{ Tasks []models.Task }
type SummaryLoaded struct{ Summary *models.Summary }

type OpStarted struct{ Op Op }

type OpSucceeded struct {
	Op      Op
	Message string
}

type OpFailed struct {
	Op    Op
	Error string
}

type SelectionChanged struct {
	Op  Op
	IDs []uint
}

// OpReset puts an operation back to idle, e.g. when a dialog is dismissed.
type OpReset struct{ Op Op }

func (RosterLoaded) action()     {}
func (TeamsLoaded) action()      {}
func (TasksLoaded) action()      {}
func (SummaryLoaded) action()    {}
func (OpStarted) action()        {}
func (OpSucceeded) action()      {}
func (OpFailed) action()         {}
func (OpReset) action()          {}
func (SelectionChanged) action() {}

// Reduce returns the state after applying a. It never mutates s; collections
// are replaced whole.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case RosterLoaded:
		s.Users = a.Users
	case TeamsLoaded:
		s.Teams = a.Teams
	case TasksLoaded:
		s.Tasks = a.Tasks
	case SummaryLoaded:
		s.Summary = a.Summary
	case OpStarted:
		s.Ops = withOp(s.Ops, a.Op, OpState{Status: Pending})
	case OpSucceeded:
		s.Ops = withOp(s.Ops, a.Op, OpState{Status: Fulfilled, Message: a.Message})
	case OpFailed:
		s.Ops = withOp(s.Ops, a.Op, OpState{Status: Rejected, Error: a.Error})
	case OpReset:
		s.Ops = withOp(s.Ops, a.Op, OpState{})
	case SelectionChanged:
		sel := make(map[Op][]uint, len(s.Selections)+1)
		for k, v := range s.Selections {
			sel[k] = v
		}
		sel[a.Op] = a.IDs
		s.Selections = sel
	}
	return s
}

func withOp(ops map[Op]OpState, op Op, st OpState) map[Op]OpState {
	out := make(map[Op]OpState, len(ops)+1)
	for k, v := range ops {
		out[k] = v
	}
	out[op] = st
	return out
}

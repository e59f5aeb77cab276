// Package dashboard is the client-side composition root: one Session per
// organization view owns the store, the API client and the assignment
// workflows opened from it.
package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"orgdash/apierror"
	"orgdash/assignment"
	"orgdash/levels"
	"orgdash/models"
	"orgdash/store"
)

// ErrSuperseded is returned by a refresh whose response arrived after a newer
// refresh started or after the session was closed. Nothing was applied.
var ErrSuperseded = errors.New("dashboard: response superseded")

// API is the part of the backend client the session uses.
type API interface {
	ListUsers(ctx context.Context, orgID uint) ([]models.User, error)
	ListTeams(ctx context.Context, orgID uint) ([]models.Team, error)
	CreateTeam(ctx context.Context, req models.CreateTeamRequest) (*models.Team, error)
	DeleteTeam(ctx context.Context, id uint) error
	AssignMembers(ctx context.Context, teamID uint, ids []uint, override bool) (models.AssignmentResult, error)
	RemoveMembers(ctx context.Context, teamID uint, ids []uint) ([]uint, error)
	AssignSubordinates(ctx context.Context, supervisorID uint, ids []uint, override bool) (models.AssignmentResult, error)
	UpdateUser(ctx context.Context, id uint, patch models.UserPatch) (*models.User, error)
	DeleteUser(ctx context.Context, id uint) error
	Summary(ctx context.Context, orgID uint) (*models.Summary, error)
}

type Options struct {
	Timeout time.Duration
	Logger  *logrus.Entry
}

type Session struct {
	api   API
	orgID uint
	store *store.Store
	opts  Options
	log   *logrus.Entry

	// mu guards the generations and serializes applying responses; store
	// listeners must not call back into the session.
	mu        sync.Mutex
	rosterGen uint64
	teamsGen  uint64
	closed    bool
	workflows []*assignment.Workflow
}

func NewSession(api API, orgID uint, opts Options) *Session {
	if opts.Timeout <= 0 {
		opts.Timeout = assignment.DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Session{
		api:   api,
		orgID: orgID,
		store: store.New(),
		opts:  opts,
		log:   opts.Logger.WithField("organization_id", orgID),
	}
}

func (s *Session) Store() *store.Store {
	return s.store
}

func (s *Session) OrganizationID() uint {
	return s.orgID
}

// Close tears the view down: open workflows are closed and late responses
// are dropped.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	wfs := s.workflows
	s.workflows = nil
	s.mu.Unlock()
	for _, w := range wfs {
		w.Close()
	}
}

func (s *Session) begin(gen *uint64) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, false
	}
	*gen++
	return *gen, true
}

// apply dispatches actions only if gen is still the latest request. A nil
// gen only checks that the session is open.
func (s *Session) apply(gen *uint64, want uint64, actions ...store.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || (gen != nil && *gen != want) {
		return ErrSuperseded
	}
	for _, a := range actions {
		s.store.Dispatch(a)
	}
	return nil
}

func (s *Session) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opts.Timeout)
}

func (s *Session) RefreshRoster(ctx context.Context) error {
	gen, ok := s.begin(&s.rosterGen)
	if !ok {
		return ErrSuperseded
	}
	s.store.Dispatch(store.OpStarted{Op: store.OpFetchRoster})

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	users, err := s.api.ListUsers(ctx, s.orgID)
	if err != nil {
		err = classify(err)
		if aerr := s.apply(&s.rosterGen, gen, store.OpFailed{Op: store.OpFetchRoster, Error: apierror.Message(err)}); aerr != nil {
			return aerr
		}
		return err
	}

	labels := make([]string, 0, len(users))
	for _, u := range users {
		labels = append(labels, u.SupervisoryLevel)
	}
	if odd := levels.NonCanonical(labels...); len(odd) > 0 {
		s.log.WithField("levels", odd).Warn("roster has non-canonical supervisory levels, ordering them lexically")
	}
	return s.apply(&s.rosterGen, gen,
		store.RosterLoaded{Users: users},
		store.OpSucceeded{Op: store.OpFetchRoster},
	)
}

func (s *Session) RefreshTeams(ctx context.Context) error {
	gen, ok := s.begin(&s.teamsGen)
	if !ok {
		return ErrSuperseded
	}
	s.store.Dispatch(store.OpStarted{Op: store.OpFetchTeams})

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	teams, err := s.api.ListTeams(ctx, s.orgID)
	if err != nil {
		err = classify(err)
		if aerr := s.apply(&s.teamsGen, gen, store.OpFailed{Op: store.OpFetchTeams, Error: apierror.Message(err)}); aerr != nil {
			return aerr
		}
		return err
	}
	return s.apply(&s.teamsGen, gen,
		store.TeamsLoaded{Teams: teams},
		store.OpSucceeded{Op: store.OpFetchTeams},
	)
}

// Refresh reloads roster and teams.
func (s *Session) Refresh(ctx context.Context) error {
	if err := s.RefreshRoster(ctx); err != nil {
		return err
	}
	return s.RefreshTeams(ctx)
}

func (s *Session) LoadSummary(ctx context.Context) (*models.Summary, error) {
	var out *models.Summary
	err := s.mutate(ctx, store.OpFetchSummary, func(ctx context.Context) error {
		sum, err := s.api.Summary(ctx, s.orgID)
		if err != nil {
			return err
		}
		out = sum
		return s.apply(nil, 0, store.SummaryLoaded{Summary: sum})
	})
	return out, err
}

// mutate runs a backend call under the op's status tracking. The store is
// only touched after the backend confirmed.
func (s *Session) mutate(ctx context.Context, op store.Op, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrSuperseded
	}
	s.store.Dispatch(store.OpStarted{Op: op})

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := fn(ctx); err != nil {
		if errors.Is(err, ErrSuperseded) {
			return err
		}
		err = classify(err)
		s.log.WithError(err).WithField("op", string(op)).Warn("operation rejected")
		_ = s.apply(nil, 0, store.OpFailed{Op: op, Error: apierror.Message(err)})
		if apierror.KindOf(err) == apierror.NotFound {
			if rerr := s.Refresh(context.WithoutCancel(ctx)); rerr != nil && !errors.Is(rerr, ErrSuperseded) {
				s.log.WithError(rerr).WithField("op", string(op)).Warn("refresh after not-found failed")
			}
		}
		return err
	}
	return s.apply(nil, 0, store.OpSucceeded{Op: op})
}

func classify(err error) error {
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		return err
	}
	return apierror.NewTransport(err)
}

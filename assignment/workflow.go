// Package assignment submits a bulk selection of users to a team or a
// supervisor and tracks the request through Idle, Submitting, Fulfilled and
// Rejected.
package assignment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"orgdash/apierror"
	"orgdash/models"
	"orgdash/selection"
	"orgdash/store"
)

type State int

const (
	Idle State = iota
	Submitting
	Fulfilled
	Rejected
)

func (s State) String() string {
	switch s {
	case Submitting:
		return "submitting"
	case Fulfilled:
		return "fulfilled"
	case Rejected:
		return "rejected"
	}
	return "idle"
}

const DefaultTimeout = 30 * time.Second

var (
	// ErrInFlight is returned when Submit is called while a submission is pending.
	ErrInFlight = errors.New("assignment: submission already in flight")
	// ErrStale is returned when the response arrived after Cancel or Close.
	ErrStale  = errors.New("assignment: response discarded, submission no longer current")
	ErrClosed = errors.New("assignment: workflow closed")
)

// Submitter sends one batch to the backend.
type Submitter interface {
	Submit(ctx context.Context, targetID uint, ids []uint, override bool) (models.AssignmentResult, error)
}

type SubmitterFunc func(ctx context.Context, targetID uint, ids []uint, override bool) (models.AssignmentResult, error)

func (f SubmitterFunc) Submit(ctx context.Context, targetID uint, ids []uint, override bool) (models.AssignmentResult, error) {
	return f(ctx, targetID, ids, override)
}

// Refresher re-fetches whatever the assignment may have changed.
type Refresher interface {
	Refresh(ctx context.Context) error
}

type RefresherFunc func(ctx context.Context) error

func (f RefresherFunc) Refresh(ctx context.Context) error {
	return f(ctx)
}

type Result struct {
	Assigned []uint `json:"assigned"`
	Skipped  []uint `json:"skipped"`
}

func (r Result) AssignedCount() int { return len(r.Assigned) }
func (r Result) SkippedCount() int  { return len(r.Skipped) }

// Partial reports a successful submission where some ids were skipped.
func (r Result) Partial() bool { return len(r.Skipped) > 0 }

func (r Result) String() string {
	return fmt.Sprintf("%d assigned, %d skipped", r.AssignedCount(), r.SkippedCount())
}

type Config struct {
	Op        store.Op
	Submitter Submitter
	Refresher Refresher
	// Store receives status and selection updates; optional.
	Store   *store.Store
	Timeout time.Duration
	Logger  *logrus.Entry
}

type Workflow struct {
	mu        sync.Mutex
	cfg       Config
	selection *selection.Set[uint]
	target    uint
	override  bool
	state     State
	gen       uint64
	cancel    context.CancelFunc
	closed    bool
	result    *Result
	err       error
}

func New(cfg Config) *Workflow {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	cfg.Logger = cfg.Logger.WithField("op", string(cfg.Op))
	return &Workflow{cfg: cfg, selection: selection.New[uint]()}
}

func (w *Workflow) dispatch(a store.Action) {
	if w.cfg.Store != nil {
		w.cfg.Store.Dispatch(a)
	}
}

// mutateSelection runs f under the lock and publishes the new selection.
func (w *Workflow) mutateSelection(f func(s *selection.Set[uint])) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	f(w.selection)
	ids := w.selection.IDs()
	w.mu.Unlock()
	w.dispatch(store.SelectionChanged{Op: w.cfg.Op, IDs: ids})
}

func (w *Workflow) Toggle(id uint) {
	w.mutateSelection(func(s *selection.Set[uint]) { s.Toggle(id) })
}

func (w *Workflow) SelectAll(visible []uint) {
	w.mutateSelection(func(s *selection.Set[uint]) { s.SelectAll(visible) })
}

func (w *Workflow) ClearSelection() {
	w.mutateSelection(func(s *selection.Set[uint]) { s.Clear() })
}

func (w *Workflow) IsSelected(id uint) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.selection.IsSelected(id)
}

func (w *Workflow) Selected() []uint {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.selection.IDs()
}

func (w *Workflow) SetTarget(id uint) {
	w.mu.Lock()
	w.target = id
	w.mu.Unlock()
}

func (w *Workflow) SetOverride(override bool) {
	w.mu.Lock()
	w.override = override
	w.mu.Unlock()
}

func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Workflow) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

// Last returns the outcome of the most recent completed submission.
func (w *Workflow) Last() (*Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.result, w.err
}

// Submit sends the whole selection to the target in one request. Local
// validation failures never reach the backend. On success the selection is
// cleared and the refresher runs; on failure the selection is kept.
func (w *Workflow) Submit(ctx context.Context) (*Result, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, ErrClosed
	}
	if w.state == Submitting {
		w.mu.Unlock()
		return nil, ErrInFlight
	}
	ids := w.selection.IDs()
	target, override := w.target, w.override
	var verr error
	switch {
	case len(ids) == 0:
		verr = apierror.NewValidation("select at least one user")
	case target == 0:
		verr = apierror.NewValidation("choose a target")
	}
	if verr != nil {
		w.state, w.result, w.err = Rejected, nil, verr
		w.mu.Unlock()
		w.dispatch(store.OpFailed{Op: w.cfg.Op, Error: apierror.Message(verr)})
		return nil, verr
	}

	w.gen++
	gen := w.gen
	reqCtx, cancel := context.WithTimeout(ctx, w.cfg.Timeout)
	w.cancel = cancel
	w.state = Submitting
	w.mu.Unlock()
	defer cancel()

	w.dispatchLive(gen, store.OpStarted{Op: w.cfg.Op})
	log := w.cfg.Logger.WithFields(logrus.Fields{"target_id": target, "count": len(ids), "override": override})
	log.Debug("submitting assignment")

	res, err := w.cfg.Submitter.Submit(reqCtx, target, ids, override)

	w.mu.Lock()
	if w.closed || w.gen != gen {
		w.mu.Unlock()
		log.Debug("discarding stale assignment response")
		return nil, ErrStale
	}
	w.cancel = nil
	if err != nil {
		err = classify(err)
		w.state, w.result, w.err = Rejected, nil, err
		w.mu.Unlock()

		log.WithError(err).Warn("assignment rejected")
		if w.dispatchLive(gen, store.OpFailed{Op: w.cfg.Op, Error: apierror.Message(err)}) &&
			apierror.KindOf(err) == apierror.NotFound && w.live(gen) {
			w.refresh(ctx, log)
		}
		return nil, err
	}

	out := &Result{Assigned: res.Assigned, Skipped: res.Skipped}
	w.state, w.result, w.err = Fulfilled, out, nil
	w.selection.Clear()
	w.mu.Unlock()

	log.WithFields(logrus.Fields{"assigned": out.AssignedCount(), "skipped": out.SkippedCount()}).Info("assignment fulfilled")
	if w.dispatchLive(gen, store.OpSucceeded{Op: w.cfg.Op, Message: out.String()}) &&
		w.dispatchLive(gen, store.SelectionChanged{Op: w.cfg.Op, IDs: []uint{}}) &&
		w.live(gen) {
		w.refresh(ctx, log)
	}
	return out, nil
}

// live reports whether gen is still the current submission of an open
// workflow. Listeners run outside w.mu and may Close or Cancel, so every
// post-response side effect checks again.
func (w *Workflow) live(gen uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.closed && w.gen == gen
}

func (w *Workflow) dispatchLive(gen uint64, a store.Action) bool {
	if !w.live(gen) {
		return false
	}
	w.dispatch(a)
	return true
}

func (w *Workflow) refresh(ctx context.Context, log *logrus.Entry) {
	if w.cfg.Refresher == nil {
		return
	}
	if err := w.cfg.Refresher.Refresh(ctx); err != nil {
		log.WithError(err).Warn("refresh after assignment failed")
	}
}

// Cancel abandons a pending submission, clears the selection and returns
// to Idle. A response that arrives later is discarded.
func (w *Workflow) Cancel() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.abandon()
	w.state = Idle
	w.selection.Clear()
	w.mu.Unlock()

	w.dispatch(store.OpReset{Op: w.cfg.Op})
	w.dispatch(store.SelectionChanged{Op: w.cfg.Op, IDs: []uint{}})
}

// Close detaches the workflow from its view. Pending responses are dropped
// and nothing is dispatched afterwards.
func (w *Workflow) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.abandon()
	w.closed = true
}

func (w *Workflow) abandon() {
	w.gen++
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
}

func classify(err error) error {
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		return err
	}
	return apierror.NewTransport(err)
}

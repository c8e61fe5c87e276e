package lifecycle

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nicholas-fedor/taskhooks/pkg/hookspec"
	"github.com/nicholas-fedor/taskhooks/pkg/plugin"
)

// Block is the task code run inside a session.
type Block func(ctx context.Context) error

// Discoverer makes installed hook implementations reachable.
type Discoverer interface {
	Discover(ctx context.Context) error
}

// Controller runs blocks inside lifecycle sessions.
//
// Sessions share the controller's plugin manager and are not isolated from one
// another; callers run one session at a time per process.
type Controller struct {
	manager    *plugin.Manager
	discoverer Discoverer
}

// NewController creates a Controller.
//
// Parameters:
//   - pm: Plugin manager the hooks are called through.
//   - discoverer: Resolves installed hooks on every session start, or nil to skip discovery.
//
// Returns:
//   - *Controller: Controller ready to run sessions.
func NewController(pm *plugin.Manager, discoverer Discoverer) *Controller {
	return &Controller{manager: pm, discoverer: discoverer}
}

// NewSession creates a session that has not started.
func (c *Controller) NewSession() *Session {
	id := uuid.New()

	return &Session{
		ID:         id,
		manager:    c.manager,
		discoverer: c.discoverer,
		log:        logrus.WithField("session", id.String()),
	}
}

// Run runs block inside a new session. See Session.Run.
func (c *Controller) Run(ctx context.Context, block Block) error {
	return c.NewSession().Run(ctx, block)
}

// Session is one run of a block bounded by task_start and task_stop.
type Session struct {
	ID uuid.UUID

	phase      Phase
	outcome    Outcome
	manager    *plugin.Manager
	discoverer Discoverer
	log        *logrus.Entry
}

type sessionKey struct{}

// FromContext returns the session running the current block or hook.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)

	return s, ok
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	return s.phase
}

// Outcome returns how the block ended, or an OutcomeNone outcome if it has not.
func (s *Session) Outcome() Outcome {
	return s.outcome
}

// Failed reports the failed value passed, or to be passed, to task_stop.
func (s *Session) Failed() bool {
	return s.outcome.Kind != OutcomeNone && s.outcome.Failed()
}

// Run resolves hooks, calls task_start, runs block and calls task_stop.
//
// A session runs once. If discovery or a start hook fails, the error is
// returned unchanged and no stop hook runs. Otherwise task_stop runs with
// failed derived from the block's outcome, and then:
//   - a returned error or exit request is returned unchanged;
//   - a panic is re-raised with the original value;
//   - runtime.Goexit carries on unwinding.
//
// If a stop hook fails, Run returns (or, while unwinding a panic, panics with)
// a *StopHookError chaining the stop error with the original cause.
//
// Parameters:
//   - ctx: Context passed to hooks and the block; it carries the session.
//   - block: Task code.
//
// Returns:
//   - error: The block's error or exit request, a start error, or a *StopHookError.
func (s *Session) Run(ctx context.Context, block Block) error {
	if s.phase != NotStarted {
		return fmt.Errorf("%w: %s", ErrSessionUsed, s.ID)
	}

	ctx = context.WithValue(ctx, sessionKey{}, s)

	s.transition(Starting)

	if err := s.start(ctx); err != nil {
		s.transition(StartFailed)
		s.log.WithError(err).Debug("Task session failed to start")

		return err
	}

	s.transition(Running)

	return s.runBlock(ctx, block)
}

// start resolves hooks and calls task_start.
func (s *Session) start(ctx context.Context) error {
	if s.discoverer != nil {
		if err := s.discoverer.Discover(ctx); err != nil {
			return err
		}
	}

	return s.manager.Call(ctx, hookspec.TaskStartName, nil)
}

// runBlock runs the block and always stops the session once it ends.
func (s *Session) runBlock(ctx context.Context, block Block) error {
	returned := false

	defer func() {
		if returned {
			return
		}

		// recover returns nil when the block called runtime.Goexit.
		value := recover()

		if err := s.stop(ctx, Panicked(value, debug.Stack())); err != nil {
			panic(err)
		}

		if value != nil {
			panic(value)
		}
	}()

	err := block(ctx)
	returned = true

	return s.stop(ctx, Classify(err))
}

// stop records the outcome, calls task_stop and returns the error to re-signal.
func (s *Session) stop(ctx context.Context, outcome Outcome) error {
	s.outcome = outcome
	s.transition(Stopping)

	stopErr := s.manager.Call(ctx, hookspec.TaskStopName, hookspec.Args{
		hookspec.ParamFailed: outcome.Failed(),
	})

	s.transition(Done)

	clog := s.log.WithFields(logrus.Fields{
		"outcome": outcome.Kind.String(),
		"failed":  outcome.Failed(),
	})

	if stopErr != nil {
		clog.WithError(stopErr).Debug("Task stop hook failed")

		return &StopHookError{Err: stopErr, Cause: outcome.Err}
	}

	clog.Debug("Task session finished")

	if outcome.Kind == OutcomePanic {
		return nil
	}

	return outcome.Err
}

// transition moves the session to next. Invalid transitions are programming errors.
func (s *Session) transition(next Phase) {
	if !s.phase.CanTransition(next) {
		panic(fmt.Sprintf("lifecycle: invalid transition %s -> %s", s.phase, next))
	}

	s.log.WithFields(logrus.Fields{
		"from": s.phase.String(),
		"to":   next.String(),
	}).Trace("Task session transition")

	s.phase = next
}

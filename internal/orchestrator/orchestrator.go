package orchestrator

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/MD-Studio/studiobuild/internal/errors"
	"github.com/MD-Studio/studiobuild/internal/event"
	"github.com/MD-Studio/studiobuild/internal/logging"
	"github.com/sourcegraph/conc/panics"
	"golang.org/x/sync/errgroup"
)

// Orchestrator runs sequences of registered tasks.
type Orchestrator struct {
	registry *Registry
	bus      *event.Bus
	logger   *logging.Logger
	runID    string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithBus publishes task and sequence events to bus.
func WithBus(bus *event.Bus) Option {
	return func(o *Orchestrator) { o.bus = bus }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(logger *logging.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithRunID tags events with the ID of the current CLI invocation.
func WithRunID(id string) Option {
	return func(o *Orchestrator) { o.runID = id }
}

// New creates an Orchestrator over registry. A nil registry gets a fresh one.
func New(registry *Registry, opts ...Option) *Orchestrator {
	if registry == nil {
		registry = NewRegistry()
	}
	o := &Orchestrator{
		registry: registry,
		logger:   logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Registry returns the task registry.
func (o *Orchestrator) Registry() *Registry {
	return o.registry
}

// Register adds a leaf task. See Registry.Register.
func (o *Orchestrator) Register(name string, action Action) error {
	return o.registry.Register(name, action)
}

// RegisterComposite registers a task whose action runs seq. Composite tasks
// can appear in other sequences like any other task.
func (o *Orchestrator) RegisterComposite(name string, seq Sequence) error {
	if len(seq) == 0 {
		return errors.NewValidationError("composite task needs at least one step").WithField("sequence").WithValue(name)
	}
	if err := seq.Validate(); err != nil {
		return errors.Wrapf(err, "composite %s", name)
	}

	frozen := append(Sequence(nil), seq...)
	return o.registry.registerComposite(name, frozen, func(ctx context.Context) error {
		return o.runSequence(ctx, name, frozen)
	})
}

// Run executes seq and returns once it has succeeded or failed. The first
// failure aborts the sequence: no later step is started and the error is
// returned. Members of a failing concurrent group are not cancelled; the
// group is joined before Run returns.
func (o *Orchestrator) Run(ctx context.Context, seq Sequence) error {
	return o.runSequence(ctx, "", seq)
}

// RunTask runs a single registered task, composite or leaf.
func (o *Orchestrator) RunTask(ctx context.Context, name string) error {
	return o.runSequence(ctx, "", Sequence{Single(name)})
}

// RunAsync starts seq in the background. The returned Invocation is idle
// until the background goroutine picks the sequence up. onComplete, if
// non-nil, is called exactly once with the sequence result, after which the
// Invocation is terminal.
func (o *Orchestrator) RunAsync(ctx context.Context, seq Sequence, onComplete func(error)) *Invocation {
	inv := newInvocation()
	go func() {
		inv.start()
		err := o.Run(ctx, seq)
		inv.finish(err)
		if onComplete != nil {
			onComplete(err)
		}
	}()
	return inv
}

func (o *Orchestrator) runSequence(ctx context.Context, name string, seq Sequence) (err error) {
	if err := seq.Validate(); err != nil {
		return err
	}

	if name != "" {
		active := activeComposites(ctx)
		if slices.Contains(active, name) {
			path := append(append([]string(nil), active...), name)
			return errors.Wrapf(errors.ErrDependencyCycle, "%s", strings.Join(path, " -> "))
		}
		ctx = withActiveComposite(ctx, name)
	}

	log := o.logger
	if name != "" {
		log = log.WithPipeline(name)
	}

	start := time.Now()
	o.publish(event.NewSequenceStartedEvent(o.runID, name, len(seq)))
	log.Debug("sequence started", "steps", seq.String())
	defer func() {
		o.publish(event.NewSequenceCompletedEvent(o.runID, name, time.Since(start), err))
		if err != nil {
			log.Error("sequence failed", "error", err.Error(), "duration_ms", time.Since(start).Milliseconds())
		} else {
			log.Debug("sequence completed", "duration_ms", time.Since(start).Milliseconds())
		}
	}()

	for _, step := range seq {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.Wrap(errors.Join(errors.ErrCanceled, ctxErr), "before "+step.String())
		}
		if err := o.runStep(ctx, step, log); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) runStep(ctx context.Context, step Step, log *logging.Logger) error {
	if !step.group {
		return o.invoke(ctx, step.names[0], log)
	}

	// Join semantics: every member runs to completion even after a sibling
	// fails; Wait reports the first error returned.
	var g errgroup.Group
	for _, name := range step.names {
		g.Go(func() error {
			return o.invoke(ctx, name, log)
		})
	}
	return g.Wait()
}

// invoke resolves and runs one task, converting failures and panics into
// orchestration errors.
func (o *Orchestrator) invoke(ctx context.Context, name string, log *logging.Logger) error {
	log = log.WithTask(name)

	action, err := o.registry.Lookup(name)
	if err != nil {
		o.publish(event.NewTaskFailedEvent(o.runID, name, 0, err))
		log.Error("task not registered")
		return err
	}

	start := time.Now()
	o.publish(event.NewTaskStartedEvent(o.runID, name))
	log.Debug("task started")

	var runErr error
	var catcher panics.Catcher
	catcher.Try(func() { runErr = action(ctx) })
	if recovered := catcher.Recovered(); recovered != nil {
		runErr = errors.NewTaskExecutionError(name, recovered.AsError()).WithPanic()
	} else if runErr != nil {
		runErr = attribute(name, runErr)
	}

	elapsed := time.Since(start)
	if runErr != nil {
		o.publish(event.NewTaskFailedEvent(o.runID, name, elapsed, runErr))
		log.Error("task failed", "error", runErr.Error(), "duration_ms", elapsed.Milliseconds())
		return runErr
	}

	o.publish(event.NewTaskCompletedEvent(o.runID, name, elapsed))
	log.Info("task completed", "duration_ms", elapsed.Milliseconds())
	return nil
}

// attribute wraps a raw action error in a TaskExecutionError. Errors that
// already name their task (from a nested composite) pass through unchanged.
func attribute(name string, err error) error {
	var execErr *errors.TaskExecutionError
	var unregistered *errors.UnregisteredTaskError
	if errors.As(err, &execErr) || errors.As(err, &unregistered) || errors.Is(err, errors.ErrDependencyCycle) {
		return err
	}
	return errors.NewTaskExecutionError(name, err)
}

func (o *Orchestrator) publish(e event.Event) {
	if o.bus != nil {
		o.bus.Publish(e)
	}
}

type activeKey struct{}

func activeComposites(ctx context.Context) []string {
	active, _ := ctx.Value(activeKey{}).([]string)
	return active
}

func withActiveComposite(ctx context.Context, name string) context.Context {
	active := activeComposites(ctx)
	next := make([]string, len(active)+1)
	copy(next, active)
	next[len(active)] = name
	return context.WithValue(ctx, activeKey{}, next)
}

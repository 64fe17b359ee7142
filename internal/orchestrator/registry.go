package orchestrator

import (
	"context"
	"sort"
	"sync"

	"github.com/MD-Studio/studiobuild/internal/errors"
)

// Action is the body of a task. Returning is the task's completion signal;
// a non-nil error marks the task as failed. Long-running tasks should return
// when ctx is done.
type Action func(ctx context.Context) error

// Registry maps task names to actions. Names are registered once at start-up
// and never removed. It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	tasks      map[string]Action
	composites map[string]Sequence
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tasks:      make(map[string]Action),
		composites: make(map[string]Sequence),
	}
}

// Register adds a task. It fails with a DuplicateTaskError if the name is
// already taken.
func (r *Registry) Register(name string, action Action) error {
	if err := checkTask(name, action); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insert(name, action)
}

// registerComposite records the sequence behind a composite task alongside
// its action, under one lock so no reader sees the task without its sequence.
func (r *Registry) registerComposite(name string, seq Sequence, action Action) error {
	if err := checkTask(name, action); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.insert(name, action); err != nil {
		return err
	}
	r.composites[name] = append(Sequence(nil), seq...)
	return nil
}

func checkTask(name string, action Action) error {
	if name == "" {
		return errors.NewValidationError("task name cannot be empty").WithField("name")
	}
	if action == nil {
		return errors.NewValidationError("task action cannot be nil").WithField("action").WithValue(name)
	}
	return nil
}

// insert adds action under name. The caller must hold the write lock.
func (r *Registry) insert(name string, action Action) error {
	if _, exists := r.tasks[name]; exists {
		return errors.NewDuplicateTaskError(name)
	}
	r.tasks[name] = action
	return nil
}

// Lookup resolves a task name. It returns an UnregisteredTaskError when the
// name has no action.
func (r *Registry) Lookup(name string) (Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	action, ok := r.tasks[name]
	if !ok {
		return nil, errors.NewUnregisteredTaskError(name)
	}
	return action, nil
}

// Has reports whether a task is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tasks[name]
	return ok
}

// Composite returns the sequence of a composite task.
func (r *Registry) Composite(name string) (Sequence, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seq, ok := r.composites[name]
	if !ok {
		return nil, false
	}
	return append(Sequence(nil), seq...), true
}

// Names returns every registered task name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered tasks.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

// Validate checks that every name reachable from seq, following composite
// tasks, is registered. All missing names are reported, joined.
func (r *Registry) Validate(seq Sequence) error {
	var errs []error
	r.validate(seq, "", make(map[string]bool), make(map[string]bool), &errs)
	return errors.Join(errs...)
}

func (r *Registry) validate(seq Sequence, owner string, visited, reported map[string]bool, errs *[]error) {
	for _, name := range seq.Tasks() {
		if !r.Has(name) {
			if !reported[owner+"\x00"+name] {
				reported[owner+"\x00"+name] = true
				err := errors.NewUnregisteredTaskError(name)
				if owner != "" {
					err = err.WithSequence(owner)
				}
				*errs = append(*errs, err)
			}
			continue
		}

		if visited[name] {
			continue
		}
		visited[name] = true
		if nested, ok := r.Composite(name); ok {
			r.validate(nested, name, visited, reported, errs)
		}
	}
}

package orchestrator

import "sync"

// State is the lifecycle of one sequence invocation.
type State string

const (
	// StateIdle means the invocation has been created but not started.
	StateIdle State = "idle"
	// StateRunning means steps are executing.
	StateRunning State = "running"
	// StateSucceeded means every step completed without error.
	StateSucceeded State = "succeeded"
	// StateFailed means a step failed and the sequence was aborted.
	StateFailed State = "failed"
)

// IsTerminal returns true if the state is final.
func (s State) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Invocation tracks a sequence started with RunAsync.
type Invocation struct {
	mu    sync.Mutex
	state State
	err   error
	done  chan struct{}
}

func newInvocation() *Invocation {
	return &Invocation{
		state: StateIdle,
		done:  make(chan struct{}),
	}
}

// State returns the current state.
func (inv *Invocation) State() State {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.state
}

// Done is closed once the invocation reaches a terminal state.
func (inv *Invocation) Done() <-chan struct{} {
	return inv.done
}

// Wait blocks until the invocation finishes and returns its error.
func (inv *Invocation) Wait() error {
	<-inv.done
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.err
}

func (inv *Invocation) start() {
	inv.mu.Lock()
	inv.state = StateRunning
	inv.mu.Unlock()
}

func (inv *Invocation) finish(err error) {
	inv.mu.Lock()
	inv.err = err
	if err != nil {
		inv.state = StateFailed
	} else {
		inv.state = StateSucceeded
	}
	inv.mu.Unlock()
	close(inv.done)
}

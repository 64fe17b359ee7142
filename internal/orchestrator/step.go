package orchestrator

import (
	"fmt"
	"strings"

	"github.com/MD-Studio/studiobuild/internal/errors"
)

// Step is one position in a Sequence: either a single task or a group of
// tasks that run concurrently. Build steps with Single or Group.
type Step struct {
	names []string
	group bool
}

// Single returns a step that runs one task and waits for it.
func Single(name string) Step {
	return Step{names: []string{name}}
}

// Group returns a step that starts every named task at once and waits for
// all of them before the sequence moves on.
func Group(names ...string) Step {
	return Step{names: append([]string(nil), names...), group: true}
}

// IsGroup reports whether the step is a concurrent group.
func (s Step) IsGroup() bool { return s.group }

// Names returns the task names at this position.
func (s Step) Names() []string {
	return append([]string(nil), s.names...)
}

// String renders a single step as its name and a group as {a, b, c}.
func (s Step) String() string {
	if !s.group {
		if len(s.names) == 0 {
			return ""
		}
		return s.names[0]
	}
	return "{" + strings.Join(s.names, ", ") + "}"
}

// Sequence is an ordered list of steps. Position i+1 starts only after
// every task at position i has finished.
type Sequence []Step

// Tasks returns every task name referenced by the sequence, in order.
func (seq Sequence) Tasks() []string {
	var names []string
	for _, step := range seq {
		names = append(names, step.names...)
	}
	return names
}

// Validate reports the first step that names no task, or a task with an
// empty name. Steps built with Single or Group from real names always pass.
func (seq Sequence) Validate() error {
	for i, step := range seq {
		if len(step.names) == 0 {
			return errors.NewValidationError("empty step in sequence").WithField("step").WithValue(i)
		}
		for _, name := range step.names {
			if name == "" {
				return errors.NewValidationError("task name cannot be empty").WithField("step").WithValue(i)
			}
		}
	}
	return nil
}

// String renders the sequence as [a, {b, c}, d].
func (seq Sequence) String() string {
	parts := make([]string, len(seq))
	for i, step := range seq {
		parts[i] = step.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ParseSequence builds a Sequence from loosely typed data such as a YAML list
// decoded by viper. Each element is a task name (string) or a list of names
// (a concurrent group).
func ParseSequence(raw []any) (Sequence, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("sequence is empty")
	}

	seq := make(Sequence, 0, len(raw))
	for i, item := range raw {
		switch v := item.(type) {
		case string:
			if v == "" {
				return nil, fmt.Errorf("step %d: empty task name", i)
			}
			seq = append(seq, Single(v))
		case []string:
			step, err := parseGroup(i, toAnySlice(v))
			if err != nil {
				return nil, err
			}
			seq = append(seq, step)
		case []any:
			step, err := parseGroup(i, v)
			if err != nil {
				return nil, err
			}
			seq = append(seq, step)
		default:
			return nil, fmt.Errorf("step %d: expected a task name or a list of names, got %T", i, item)
		}
	}
	return seq, nil
}

func parseGroup(index int, members []any) (Step, error) {
	if len(members) == 0 {
		return Step{}, fmt.Errorf("step %d: empty group", index)
	}

	names := make([]string, 0, len(members))
	seen := make(map[string]bool, len(members))
	for _, m := range members {
		name, ok := m.(string)
		if !ok || name == "" {
			return Step{}, fmt.Errorf("step %d: group members must be task names, got %v", index, m)
		}
		if seen[name] {
			return Step{}, fmt.Errorf("step %d: task %q listed twice in group", index, name)
		}
		seen[name] = true
		names = append(names, name)
	}
	return Group(names...), nil
}

func toAnySlice(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

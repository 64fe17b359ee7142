// Package orchestrator runs named build tasks in fixed orderings.
//
// A [Registry] maps task names to [Action] functions. A [Sequence] is an
// ordered list of [Step] values; each step is either a [Single] task or a
// [Group] of tasks that start together. The [Orchestrator] walks a sequence
// position by position:
//
//   - a Single step is resolved, invoked, and awaited;
//   - a Group step starts every member in its own goroutine and joins them
//     all before the next position begins.
//
// The first failure (an action error, a recovered panic, or a name with no
// registered action) aborts the sequence. Nothing after the failing
// position is invoked and the error is reported exactly once. Siblings in a
// failing group are left to finish; the join still happens.
//
// Composite tasks are registered with [Orchestrator.RegisterComposite]. They
// are ordinary tasks whose action runs another sequence, so pipelines nest:
//
//	o := orchestrator.New(orchestrator.NewRegistry())
//	_ = o.Register("clean", clean)
//	_ = o.RegisterComposite("build", orchestrator.Sequence{
//	    orchestrator.Single("clean"),
//	    orchestrator.Group("copy:dist", "ts:dist"),
//	    orchestrator.Single("inject"),
//	})
//	err := o.RunTask(ctx, "build")
//
// A composite that reaches itself fails at run time with
// errors.ErrDependencyCycle.
package orchestrator

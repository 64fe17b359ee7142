package tasks

import (
	"context"
	"slices"

	"github.com/MD-Studio/studiobuild/internal/config"
	"github.com/MD-Studio/studiobuild/internal/event"
	"github.com/MD-Studio/studiobuild/internal/logging"
	"github.com/MD-Studio/studiobuild/internal/orchestrator"
	"github.com/MD-Studio/studiobuild/internal/watch"
)

// rule is a compiled config.WatchRule
type rule struct {
	matcher *Matcher
	tasks   []string
}

// RebuildPlanner maps changed source files to the tasks that rebuild them.
type RebuildPlanner struct {
	rules []rule
}

// NewRebuildPlanner compiles the watch rules.
func NewRebuildPlanner(rules []config.WatchRule) (*RebuildPlanner, error) {
	p := &RebuildPlanner{rules: make([]rule, 0, len(rules))}
	for _, r := range rules {
		m, err := NewMatcher(r.Pattern)
		if err != nil {
			return nil, err
		}
		p.rules = append(p.rules, rule{matcher: m, tasks: r.Tasks})
	}
	return p, nil
}

// Plan returns the tasks triggered by files, in first-seen order without
// duplicates. Files are slash-separated and relative to the source root.
func (p *RebuildPlanner) Plan(files []string) []string {
	var tasks []string
	for _, f := range files {
		for _, r := range p.rules {
			if !r.matcher.Match(f) {
				continue
			}
			for _, t := range r.tasks {
				if !slices.Contains(tasks, t) {
					tasks = append(tasks, t)
				}
			}
		}
	}
	return tasks
}

// Sequence returns the rebuild sequence for tasks: each task in order, then
// inject so new outputs are referenced from the index page.
func (p *RebuildPlanner) Sequence(tasks []string) orchestrator.Sequence {
	seq := make(orchestrator.Sequence, 0, len(tasks)+1)
	for _, t := range tasks {
		if t == Inject {
			continue
		}
		seq = append(seq, orchestrator.Single(t))
	}
	return append(seq, orchestrator.Single(Inject))
}

// NewWatch returns the watch action. It blocks until ctx is done and then
// returns nil. Rebuild failures are logged and watching continues.
func NewWatch(o *orchestrator.Orchestrator, cfg *config.Config, bus *event.Bus, logger *logging.Logger) orchestrator.Action {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return func(ctx context.Context) error {
		log := logger.WithTask(Watch)

		planner, err := NewRebuildPlanner(cfg.Watch.Rules)
		if err != nil {
			return err
		}

		opts := []watch.Option{
			watch.WithErrorHandler(func(err error) {
				log.Warn("watcher error", "error", err)
			}),
		}
		if len(cfg.Watch.Ignore) > 0 {
			opts = append(opts, watch.WithIgnore(cfg.Watch.Ignore...))
		}

		w, err := watch.New(cfg.Paths.Src, cfg.Watch.Debounce(), opts...)
		if err != nil {
			return err
		}
		log.Info("watching", "dir", cfg.Paths.Src, "dirs", len(w.WatchedDirs()))

		return w.Run(ctx, func(files []string) {
			tasks := planner.Plan(files)
			if len(tasks) == 0 {
				log.Debug("no rule matched", "files", files)
				return
			}
			if bus != nil {
				bus.Publish(event.NewWatchTriggeredEvent(files, tasks))
			}

			log.Info("rebuilding", "files", files, "tasks", tasks)
			if err := o.Run(ctx, planner.Sequence(tasks)); err != nil && ctx.Err() == nil {
				log.Error("rebuild failed", "error", err)
			}
		})
	}
}

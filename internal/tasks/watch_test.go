package tasks

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/MD-Studio/studiobuild/internal/config"
	"github.com/MD-Studio/studiobuild/internal/event"
	"github.com/MD-Studio/studiobuild/internal/orchestrator"
)

func TestRebuildPlanner_Plan(t *testing.T) {
	planner, err := NewRebuildPlanner(config.Default().Watch.Rules)
	if err != nil {
		t.Fatalf("NewRebuildPlanner() error = %v", err)
	}

	tests := []struct {
		name  string
		files []string
		want  []string
	}{
		{"typescript", []string{"app/main.ts"}, []string{TSDist}},
		{"first seen order", []string{"styles/main.scss", "app/main.ts"}, []string{SassDist, TSDist}},
		{"duplicates removed", []string{"a.ts", "b.ts", "index.html", "c.ts"}, []string{TSDist, CopyDist}},
		{"no match", []string{"README.md"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := planner.Plan(tt.files); !slices.Equal(got, tt.want) {
				t.Errorf("Plan(%v) = %v, want %v", tt.files, got, tt.want)
			}
		})
	}
}

func TestRebuildPlanner_Sequence(t *testing.T) {
	planner, _ := NewRebuildPlanner(nil)

	seq := planner.Sequence([]string{TSDist, Inject, SassDist})
	if got := seq.String(); got != "[ts:dist, sass:dist, inject]" {
		t.Errorf("Sequence() = %s, want [ts:dist, sass:dist, inject]", got)
	}
}

func TestNewRebuildPlanner_InvalidPattern(t *testing.T) {
	if _, err := NewRebuildPlanner([]config.WatchRule{{Pattern: "[a-", Tasks: []string{TSDist}}}); err == nil {
		t.Error("NewRebuildPlanner() should reject an invalid pattern")
	}
}

func TestWatch_RebuildsOnChange(t *testing.T) {
	src := t.TempDir()
	if err := os.MkdirAll(filepath.Join(src, "app"), 0755); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Paths.Src = src
	cfg.Watch.DebounceMs = 20

	ran := make(chan string, 10)
	record := func(name string) orchestrator.Action {
		return func(ctx context.Context) error {
			select {
			case ran <- name:
			default:
			}
			return nil
		}
	}

	bus := event.NewBus()
	triggered := make(chan event.WatchTriggeredEvent, 1)
	bus.Subscribe(event.TypeWatchTriggered, func(e event.Event) {
		select {
		case triggered <- e.(event.WatchTriggeredEvent):
		default:
		}
	})

	o := orchestrator.New(nil)
	for _, name := range []string{TSDist, Inject} {
		if err := o.Register(name, record(name)); err != nil {
			t.Fatal(err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- NewWatch(o, cfg, bus, nil)(ctx)
	}()

	// The watcher is set up asynchronously; keep touching the file until a
	// rebuild is observed
	deadline := time.After(5 * time.Second)
	var got []string
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for len(got) < 2 {
		select {
		case name := <-ran:
			got = append(got, name)
		case <-tick.C:
			if len(got) == 0 {
				_ = os.WriteFile(filepath.Join(src, "app", "main.ts"), []byte("let x = 1;"), 0644)
			}
		case <-deadline:
			t.Fatalf("timed out waiting for rebuild, ran %v", got)
		}
	}
	if got[0] != TSDist || got[1] != Inject {
		t.Errorf("rebuild order = %v, want [ts:dist inject]", got)
	}

	select {
	case e := <-triggered:
		if !slices.Contains(e.Tasks, TSDist) {
			t.Errorf("WatchTriggeredEvent.Tasks = %v", e.Tasks)
		}
	case <-time.After(time.Second):
		t.Error("no watch.triggered event published")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("watch returned %v after cancel, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not return after cancel")
	}
}

func TestWatch_MissingSrc(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.Src = filepath.Join(t.TempDir(), "missing")

	if err := NewWatch(orchestrator.New(nil), cfg, nil, nil)(context.Background()); err == nil {
		t.Error("watch on a missing src should fail")
	}
}

func TestWatch_SkipsIgnoredNames(t *testing.T) {
	src := t.TempDir()
	for _, dir := range []string{"app", "generated"} {
		if err := os.MkdirAll(filepath.Join(src, dir), 0755); err != nil {
			t.Fatal(err)
		}
	}

	cfg := config.Default()
	cfg.Paths.Src = src
	cfg.Watch.DebounceMs = 20
	cfg.Watch.Ignore = []string{"generated"}

	bus := event.NewBus()
	triggered := make(chan event.WatchTriggeredEvent, 1)
	bus.Subscribe(event.TypeWatchTriggered, func(e event.Event) {
		select {
		case triggered <- e.(event.WatchTriggeredEvent):
		default:
		}
	})

	o := orchestrator.New(nil)
	for _, name := range []string{TSDist, Inject} {
		if err := o.Register(name, func(context.Context) error { return nil }); err != nil {
			t.Fatal(err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- NewWatch(o, cfg, bus, nil)(ctx)
	}()

	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case e := <-triggered:
			if slices.Contains(e.Files, "generated/types.ts") {
				t.Errorf("ignored file reported: %v", e.Files)
			}
			if !slices.Contains(e.Files, "app/main.ts") {
				t.Errorf("WatchTriggeredEvent.Files = %v, want app/main.ts", e.Files)
			}
			cancel()
			<-done
			return
		case <-tick.C:
			_ = os.WriteFile(filepath.Join(src, "generated", "types.ts"), []byte("export {}"), 0644)
			_ = os.WriteFile(filepath.Join(src, "app", "main.ts"), []byte("let x = 1;"), 0644)
		case <-deadline:
			t.Fatal("timed out waiting for a rebuild")
		}
	}
}

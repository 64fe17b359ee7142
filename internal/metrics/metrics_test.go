package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/MD-Studio/studiobuild/internal/event"
)

func TestCollector_TaskEvents(t *testing.T) {
	c := New()
	bus := event.NewBus()
	c.Subscribe(bus)

	bus.Publish(event.NewTaskCompletedEvent("run-1", "clean", 20*time.Millisecond))
	bus.Publish(event.NewTaskCompletedEvent("run-1", "clean", 30*time.Millisecond))
	bus.Publish(event.NewTaskFailedEvent("run-1", "ts:dist", time.Second, errors.New("exit status 2")))

	if got := testutil.ToFloat64(c.taskRuns.WithLabelValues("clean", OutcomeSucceeded)); got != 2 {
		t.Errorf("clean succeeded = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.taskRuns.WithLabelValues("ts:dist", OutcomeFailed)); got != 1 {
		t.Errorf("ts:dist failed = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(c.taskTime); got != 2 {
		t.Errorf("duration series = %d, want 2", got)
	}
}

func TestCollector_SequenceEvents(t *testing.T) {
	c := New()
	bus := event.NewBus()
	c.Subscribe(bus)

	bus.Publish(event.NewSequenceCompletedEvent("run-1", "", time.Second, nil))
	bus.Publish(event.NewSequenceCompletedEvent("run-1", "", time.Second, errors.New("boom")))
	// Composite sequences are not top-level runs
	bus.Publish(event.NewSequenceCompletedEvent("run-1", "build", time.Second, nil))
	bus.Publish(event.NewWatchTriggeredEvent([]string{"app/main.ts"}, []string{"ts:dist"}))

	if got := testutil.ToFloat64(c.sequences.WithLabelValues(OutcomeSucceeded)); got != 1 {
		t.Errorf("sequences succeeded = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.sequences.WithLabelValues(OutcomeFailed)); got != 1 {
		t.Errorf("sequences failed = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.watches); got != 1 {
		t.Errorf("watch rebuilds = %v, want 1", got)
	}
}

func TestCollector_Handler(t *testing.T) {
	c := New()
	c.observe(event.NewTaskCompletedEvent("run-1", "inject", 5*time.Millisecond))

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`studiobuild_task_runs_total{outcome="succeeded",task="inject"} 1`,
		"studiobuild_task_duration_seconds_bucket",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q:\n%s", want, body)
		}
	}
	if strings.Contains(string(body), "go_goroutines") {
		t.Error("private registry should not expose default Go collectors")
	}
}

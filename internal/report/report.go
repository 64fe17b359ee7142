// Package report prints a gulp-style progress log of task events.
package report

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/MD-Studio/studiobuild/internal/event"
)

var (
	mutedColor   = lipgloss.Color("#9CA3AF") // Gray
	taskColor    = lipgloss.Color("#60A5FA") // Blue
	successColor = lipgloss.Color("#A78BFA") // Purple
	errorColor   = lipgloss.Color("#F87171") // Red
	warningColor = lipgloss.Color("#F59E0B") // Amber
)

// styles holds the reporter's lipgloss styles. The zero value renders plain text.
type styles struct {
	timestamp lipgloss.Style
	task      lipgloss.Style
	duration  lipgloss.Style
	failure   lipgloss.Style
	change    lipgloss.Style
}

func plainStyles() styles {
	plain := lipgloss.NewStyle()
	return styles{plain, plain, plain, plain, plain}
}

func colorStyles(out io.Writer) styles {
	r := lipgloss.NewRenderer(out)
	return styles{
		timestamp: r.NewStyle().Foreground(mutedColor),
		task:      r.NewStyle().Foreground(taskColor),
		duration:  r.NewStyle().Foreground(successColor),
		failure:   r.NewStyle().Foreground(errorColor).Bold(true),
		change:    r.NewStyle().Foreground(warningColor),
	}
}

// Reporter writes one line per task event. It is safe for concurrent use.
type Reporter struct {
	out    io.Writer
	styles styles
	now    func() time.Time

	mu sync.Mutex
}

// New creates a Reporter writing to out, with colours when color is true.
func New(out io.Writer, color bool) *Reporter {
	s := plainStyles()
	if color {
		s = colorStyles(out)
	}
	return &Reporter{out: out, styles: s, now: time.Now}
}

// ColorEnabled reports whether f is a terminal and NO_COLOR is unset.
func ColorEnabled(f *os.File) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Subscribe attaches the reporter to bus and returns the subscription IDs.
func (r *Reporter) Subscribe(bus *event.Bus) []string {
	return []string{
		bus.Subscribe(event.TypeTaskStarted, r.Handle),
		bus.Subscribe(event.TypeTaskCompleted, r.Handle),
		bus.Subscribe(event.TypeTaskFailed, r.Handle),
		bus.Subscribe(event.TypeWatchTriggered, r.Handle),
	}
}

// Handle prints the line for e. Events the reporter does not know are ignored.
func (r *Reporter) Handle(e event.Event) {
	switch ev := e.(type) {
	case event.TaskStartedEvent:
		r.Printf("Starting %s...", r.quote(ev.Task))
	case event.TaskCompletedEvent:
		r.Printf("Finished %s after %s", r.quote(ev.Task), r.styles.duration.Render(FormatDuration(ev.Duration)))
	case event.TaskFailedEvent:
		r.Printf("%s %s after %s", r.quote(ev.Task), r.styles.failure.Render("errored"),
			r.styles.duration.Render(FormatDuration(ev.Duration)))
	case event.WatchTriggeredEvent:
		r.Printf("%s %s -> %s", r.styles.change.Render("Changed"),
			strings.Join(ev.Files, ", "), strings.Join(ev.Tasks, ", "))
	}
}

// Printf writes a timestamped line.
func (r *Reporter) Printf(format string, args ...any) {
	stamp := r.styles.timestamp.Render("[" + r.now().Format("15:04:05") + "]")
	line := fmt.Sprintf(format, args...)

	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "%s %s\n", stamp, line)
}

// Failure prints err under a failure heading, one line per error line.
func (r *Reporter) Failure(err error) {
	if err == nil {
		return
	}
	for _, line := range strings.Split(err.Error(), "\n") {
		r.Printf("%s", r.styles.failure.Render(line))
	}
}

func (r *Reporter) quote(task string) string {
	return "'" + r.styles.task.Render(task) + "'"
}

// FormatDuration renders d the way gulp does: μs, ms, s or min with at
// most two decimals.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return strconv.FormatInt(d.Microseconds(), 10) + " μs"
	case d < time.Second:
		return strconv.FormatInt(d.Milliseconds(), 10) + " ms"
	case d < time.Minute:
		return trimFloat(d.Seconds()) + " s"
	default:
		return trimFloat(d.Minutes()) + " min"
	}
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(roundTo2(f), 'f', -1, 64)
}

func roundTo2(f float64) float64 {
	s := strconv.FormatFloat(f, 'f', 2, 64)
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

package logging

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Entry is one parsed log line.
type Entry struct {
	Time     time.Time      `json:"time"`
	Level    string         `json:"level"`
	Message  string         `json:"msg"`
	RunID    string         `json:"run_id,omitempty"`
	Pipeline string         `json:"pipeline,omitempty"`
	Task     string         `json:"task,omitempty"`
	Attrs    map[string]any `json:"attrs,omitempty"`
}

// Filter selects log entries. Zero fields match everything; set fields
// are combined with AND.
type Filter struct {
	// Level keeps entries at or above this level (DEBUG < INFO < WARN < ERROR)
	Level string
	// Since keeps entries at or after this time
	Since time.Time
	// RunID keeps entries from one CLI invocation
	RunID string
	// Task keeps entries tagged with this task
	Task string
	// Pipeline keeps entries tagged with this composite task
	Pipeline string
	// Contains keeps entries whose message contains this substring
	Contains string
}

// levelOrder defines the ordering of log levels for filtering.
var levelOrder = map[string]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// fields promoted to Entry; everything else lands in Attrs
var standardFields = []string{"time", "level", "msg", "run_id", "pipeline", "task"}

// ReadLog parses the log file at path together with its rotated backups,
// oldest first. Lines that are not JSON objects are skipped.
func ReadLog(path string) ([]Entry, error) {
	var files []string
	for i := 1; ; i++ {
		backup := fmt.Sprintf("%s.%d", path, i)
		if _, err := os.Stat(backup); err != nil {
			break
		}
		files = append(files, backup)
	}
	slices.Reverse(files)
	files = append(files, path)

	var entries []Entry
	for _, file := range files {
		fileEntries, err := readLogFile(file)
		if err != nil {
			return nil, err
		}
		entries = append(entries, fileEntries...)
	}

	slices.SortStableFunc(entries, func(a, b Entry) int {
		return a.Time.Compare(b.Time)
	})
	return entries, nil
}

func readLogFile(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no log file at %s: %w", path, err)
		}
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var entries []Entry
	scanner := bufio.NewScanner(file)

	// Increase buffer size for potentially long log lines
	const maxScanTokenSize = 1024 * 1024 // 1MB
	scanner.Buffer(make([]byte, 64*1024), maxScanTokenSize)

	for scanner.Scan() {
		if entry, ok := ParseEntry(scanner.Text()); ok {
			entries = append(entries, entry)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading log file: %w", err)
	}
	return entries, nil
}

// ParseEntry parses one JSON log line. It reports false for blank or
// malformed lines.
func ParseEntry(line string) (Entry, bool) {
	line = strings.TrimSpace(line)
	if line == "" || !gjson.Valid(line) {
		return Entry{}, false
	}
	parsed := gjson.Parse(line)
	if !parsed.IsObject() {
		return Entry{}, false
	}

	entry := Entry{
		Level:    parsed.Get("level").String(),
		Message:  parsed.Get("msg").String(),
		RunID:    parsed.Get("run_id").String(),
		Pipeline: parsed.Get("pipeline").String(),
		Task:     parsed.Get("task").String(),
		Attrs:    make(map[string]any),
	}
	if t, err := time.Parse(time.RFC3339Nano, parsed.Get("time").String()); err == nil {
		entry.Time = t
	}

	parsed.ForEach(func(key, value gjson.Result) bool {
		if !slices.Contains(standardFields, key.String()) {
			entry.Attrs[key.String()] = value.Value()
		}
		return true
	})
	return entry, true
}

// FilterEntries returns the entries that match f.
func FilterEntries(entries []Entry, f Filter) []Entry {
	var filtered []Entry
	for _, entry := range entries {
		if f.matches(entry) {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}

func (f Filter) matches(entry Entry) bool {
	// Level filter: entry level must be >= filter level
	if f.Level != "" {
		filterOrder, filterOk := levelOrder[strings.ToUpper(f.Level)]
		entryOrder, entryOk := levelOrder[entry.Level]
		if filterOk && entryOk && entryOrder < filterOrder {
			return false
		}
	}
	if !f.Since.IsZero() && entry.Time.Before(f.Since) {
		return false
	}
	if f.RunID != "" && entry.RunID != f.RunID {
		return false
	}
	if f.Task != "" && entry.Task != f.Task {
		return false
	}
	if f.Pipeline != "" && entry.Pipeline != f.Pipeline {
		return false
	}
	if f.Contains != "" && !strings.Contains(entry.Message, f.Contains) {
		return false
	}
	return true
}

// LastRunID returns the run ID of the newest entry that has one.
func LastRunID(entries []Entry) string {
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].RunID != "" {
			return entries[i].RunID
		}
	}
	return ""
}

// WriteEntries writes entries to w as "text", "json" or "csv".
func WriteEntries(w io.Writer, entries []Entry, format string) error {
	switch strings.ToLower(format) {
	case "", "text":
		return writeText(w, entries)
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(entries)
	case "csv":
		return writeCSV(w, entries)
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json, csv)", format)
	}
}

// writeText writes entries in a human-readable text format:
// [TIMESTAMP] LEVEL - MESSAGE (context) {attrs}
func writeText(w io.Writer, entries []Entry) error {
	for _, entry := range entries {
		parts := []string{
			"[" + entry.Time.Format("2006-01-02 15:04:05.000") + "]",
			entry.Level,
			"-",
			entry.Message,
		}

		var context []string
		if entry.RunID != "" {
			context = append(context, "run="+entry.RunID)
		}
		if entry.Pipeline != "" {
			context = append(context, "pipeline="+entry.Pipeline)
		}
		if entry.Task != "" {
			context = append(context, "task="+entry.Task)
		}
		if len(context) > 0 {
			parts = append(parts, "("+strings.Join(context, ", ")+")")
		}

		if len(entry.Attrs) > 0 {
			attrsJSON, _ := json.Marshal(entry.Attrs)
			parts = append(parts, string(attrsJSON))
		}

		if _, err := fmt.Fprintln(w, strings.Join(parts, " ")); err != nil {
			return fmt.Errorf("failed to write text entry: %w", err)
		}
	}
	return nil
}

// writeCSV writes entries as CSV with headers.
func writeCSV(w io.Writer, entries []Entry) error {
	writer := csv.NewWriter(w)

	headers := []string{"time", "level", "message", "run_id", "pipeline", "task", "attrs"}
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, entry := range entries {
		attrsJSON := ""
		if len(entry.Attrs) > 0 {
			if b, err := json.Marshal(entry.Attrs); err == nil {
				attrsJSON = string(b)
			}
		}

		record := []string{
			entry.Time.Format(time.RFC3339Nano),
			entry.Level,
			entry.Message,
			entry.RunID,
			entry.Pipeline,
			entry.Task,
			attrsJSON,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// Package logging provides a structured JSON logger whose entries are
// compatible with the Cloud Logging structured log format.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Severity levels for structured logs
type Severity string

const (
	SeverityDebug   Severity = "DEBUG"
	SeverityInfo    Severity = "INFO"
	SeverityWarning Severity = "WARNING"
	SeverityError   Severity = "ERROR"
)

var severityRank = map[Severity]int{
	SeverityDebug:   0,
	SeverityInfo:    1,
	SeverityWarning: 2,
	SeverityError:   3,
}

// Field is a single structured key/value attached to an entry.
type Field struct {
	Key   string
	Value interface{}
}

// F builds a Field.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Entry represents one structured log line.
type Entry struct {
	Severity  Severity               `json:"severity"`
	Message   string                 `json:"message"`
	Timestamp time.Time              `json:"timestamp"`
	Labels    map[string]string      `json:"labels,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Logger is the logging interface used across uprava.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warning(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	// With returns a logger that adds labels to every entry.
	With(labels map[string]string) Logger
}

// output is shared by a JSONLogger and all loggers derived from it with With.
type output struct {
	mu       sync.Mutex
	writer   io.Writer
	min      Severity
	scrubber *Scrubber
}

// JSONLogger writes one JSON object per line.
type JSONLogger struct {
	out    *output
	labels map[string]string
}

// Option configures a JSONLogger
type Option func(*JSONLogger)

// WithWriter sets a custom writer for log output
func WithWriter(w io.Writer) Option {
	return func(l *JSONLogger) {
		l.out.writer = w
	}
}

// WithLevel sets the minimum severity that is written.
func WithLevel(s Severity) Option {
	return func(l *JSONLogger) {
		l.out.min = s
	}
}

// WithLabels adds custom labels to all log entries
func WithLabels(labels map[string]string) Option {
	return func(l *JSONLogger) {
		for k, v := range labels {
			l.labels[k] = v
		}
	}
}

// New creates a JSONLogger writing to stderr at INFO level.
func New(opts ...Option) *JSONLogger {
	l := &JSONLogger{
		out: &output{
			writer:   os.Stderr,
			min:      SeverityInfo,
			scrubber: NewScrubber(),
		},
		labels: map[string]string{
			"component": "uprava",
		},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Log writes a structured log entry
func (l *JSONLogger) Log(severity Severity, msg string, fields ...Field) {
	if severityRank[severity] < severityRank[l.out.min] {
		return
	}

	entry := Entry{
		Severity:  severity,
		Message:   l.out.scrubber.Scrub(msg),
		Timestamp: time.Now().UTC(),
		Labels:    l.labels,
	}
	if len(fields) > 0 {
		entry.Fields = make(map[string]interface{}, len(fields))
		for _, f := range fields {
			if s, ok := f.Value.(string); ok {
				entry.Fields[f.Key] = l.out.scrubber.Scrub(s)
				continue
			}
			if err, ok := f.Value.(error); ok {
				entry.Fields[f.Key] = l.out.scrubber.Scrub(err.Error())
				continue
			}
			entry.Fields[f.Key] = f.Value
		}
	}

	data, err := json.Marshal(entry)

	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	if err != nil {
		fmt.Fprintf(l.out.writer, `{"severity":"ERROR","message":"failed to marshal log entry: %v"}`+"\n", err)
		return
	}
	fmt.Fprintf(l.out.writer, "%s\n", data)
}

func (l *JSONLogger) Debug(msg string, fields ...Field)   { l.Log(SeverityDebug, msg, fields...) }
func (l *JSONLogger) Info(msg string, fields ...Field)    { l.Log(SeverityInfo, msg, fields...) }
func (l *JSONLogger) Warning(msg string, fields ...Field) { l.Log(SeverityWarning, msg, fields...) }
func (l *JSONLogger) Error(msg string, fields ...Field)   { l.Log(SeverityError, msg, fields...) }

// With returns a child logger sharing the same output.
func (l *JSONLogger) With(labels map[string]string) Logger {
	merged := make(map[string]string, len(l.labels)+len(labels))
	for k, v := range l.labels {
		merged[k] = v
	}
	for k, v := range labels {
		merged[k] = v
	}
	return &JSONLogger{out: l.out, labels: merged}
}

// Nop discards everything.
type Nop struct{}

func (Nop) Debug(string, ...Field)          {}
func (Nop) Info(string, ...Field)           {}
func (Nop) Warning(string, ...Field)        {}
func (Nop) Error(string, ...Field)          {}
func (n Nop) With(map[string]string) Logger { return n }

var (
	_ Logger = (*JSONLogger)(nil)
	_ Logger = Nop{}
)

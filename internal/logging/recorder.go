package logging

import "sync"

// Recorder keeps entries in memory. It is meant for tests that assert on
// diagnostics.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
	labels  map[string]string
	parent  *Recorder
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) root() *Recorder {
	if r.parent != nil {
		return r.parent.root()
	}
	return r
}

func (r *Recorder) record(s Severity, msg string, fields []Field) {
	e := Entry{Severity: s, Message: msg, Labels: r.labels}
	if len(fields) > 0 {
		e.Fields = make(map[string]interface{}, len(fields))
		for _, f := range fields {
			e.Fields[f.Key] = f.Value
		}
	}
	root := r.root()
	root.mu.Lock()
	root.entries = append(root.entries, e)
	root.mu.Unlock()
}

func (r *Recorder) Debug(msg string, fields ...Field)   { r.record(SeverityDebug, msg, fields) }
func (r *Recorder) Info(msg string, fields ...Field)    { r.record(SeverityInfo, msg, fields) }
func (r *Recorder) Warning(msg string, fields ...Field) { r.record(SeverityWarning, msg, fields) }
func (r *Recorder) Error(msg string, fields ...Field)   { r.record(SeverityError, msg, fields) }

// With returns a child recorder writing into the same entry list.
func (r *Recorder) With(labels map[string]string) Logger {
	merged := make(map[string]string, len(r.labels)+len(labels))
	for k, v := range r.labels {
		merged[k] = v
	}
	for k, v := range labels {
		merged[k] = v
	}
	return &Recorder{labels: merged, parent: r.root()}
}

// Entries returns a copy of everything recorded so far.
func (r *Recorder) Entries() []Entry {
	root := r.root()
	root.mu.Lock()
	defer root.mu.Unlock()
	return append([]Entry(nil), root.entries...)
}

// BySeverity returns recorded entries of one severity.
func (r *Recorder) BySeverity(s Severity) []Entry {
	var out []Entry
	for _, e := range r.Entries() {
		if e.Severity == s {
			out = append(out, e)
		}
	}
	return out
}

var _ Logger = (*Recorder)(nil)

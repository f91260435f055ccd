package jira

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the Jira date-picker format.
const DateLayout = "2006-01-02"

// FieldError reports a custom field whose value has an unexpected type.
type FieldError struct {
	Field string
	Key   string
	Want  string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s of %s is not a %s: %v", e.Field, e.Key, e.Want, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// CustomField names an issue field. Besides customfield_* ids it accepts
// summary, description, key, id and issuetype.name.
type CustomField string

func (f CustomField) raw(issue *Issue) (json.RawMessage, bool) {
	switch f {
	case "":
		return nil, false
	case "summary":
		return quoted(issue.Fields.Summary)
	case "description":
		return quoted(issue.Fields.Description)
	case "key":
		return quoted(issue.Key)
	case "id":
		return quoted(issue.ID)
	case "issuetype.name":
		if issue.Fields.IssueType == nil {
			return nil, false
		}
		return quoted(issue.Fields.IssueType.Name)
	}

	v, ok := issue.Fields.Custom[string(f)]
	if !ok || len(v) == 0 || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return nil, false
	}
	return v, true
}

func quoted(s string) (json.RawMessage, bool) {
	b, _ := json.Marshal(s)
	return b, true
}

// String returns the field as a string. ok is false when the field is absent.
func (f CustomField) String(issue *Issue) (string, bool, error) {
	raw, ok := f.raw(issue)
	if !ok {
		return "", false, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false, &FieldError{Field: string(f), Key: issue.Key, Want: "string", Err: err}
	}
	return s, true, nil
}

// Number returns the field as a float64.
func (f CustomField) Number(issue *Issue) (float64, bool, error) {
	raw, ok := f.raw(issue)
	if !ok {
		return 0, false, nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false, &FieldError{Field: string(f), Key: issue.Key, Want: "number", Err: err}
	}
	return n, true, nil
}

// Date returns the field as a time. Bare dates become midnight UTC.
func (f CustomField) Date(issue *Issue) (time.Time, bool, error) {
	s, ok, err := f.String(issue)
	if err != nil || !ok {
		return time.Time{}, ok, err
	}
	t, err := ParseDate(s)
	if err != nil {
		return time.Time{}, false, &FieldError{Field: string(f), Key: issue.Key, Want: "date", Err: err}
	}
	return t, true, nil
}

// ParseDate accepts a date-picker value or a Jira timestamp.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05.000-0700", time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// CustomFieldsConfig names the instance-specific fields uprava reads.
type CustomFieldsConfig struct {
	Reason       CustomField `mapstructure:"reason" yaml:"reason,omitempty"`
	EpicLink     CustomField `mapstructure:"epic_link" yaml:"epic_link,omitempty"`
	EpicName     CustomField `mapstructure:"epic_name" yaml:"epic_name,omitempty"`
	PlannedStart CustomField `mapstructure:"planned_start" yaml:"planned_start,omitempty"`
	PlannedEnd   CustomField `mapstructure:"planned_end" yaml:"planned_end,omitempty"`
}

// CustomFields are the extracted values. Empty strings and nil times mean
// the field is absent.
type CustomFields struct {
	Reason       string
	EpicLink     string
	EpicName     string
	PlannedStart *time.Time
	PlannedEnd   *time.Time
}

// Extract reads every configured field from issue.
func (c CustomFieldsConfig) Extract(issue *Issue) (CustomFields, error) {
	var out CustomFields
	var err error

	for _, s := range []struct {
		field CustomField
		dst   *string
	}{
		{c.Reason, &out.Reason},
		{c.EpicLink, &out.EpicLink},
		{c.EpicName, &out.EpicName},
	} {
		if *s.dst, _, err = s.field.String(issue); err != nil {
			return CustomFields{}, err
		}
	}

	for _, d := range []struct {
		field CustomField
		dst   **time.Time
	}{
		{c.PlannedStart, &out.PlannedStart},
		{c.PlannedEnd, &out.PlannedEnd},
	} {
		t, ok, err := d.field.Date(issue)
		if err != nil {
			return CustomFields{}, err
		}
		if ok {
			*d.dst = &t
		}
	}
	return out, nil
}

// Plan formats the planned window as "start - end" with "?" for gaps. It is
// empty when neither date is set.
func (c CustomFields) Plan() string {
	if c.PlannedStart == nil && c.PlannedEnd == nil {
		return ""
	}
	return FormatDate(c.PlannedStart) + " - " + FormatDate(c.PlannedEnd)
}

// FormatDate prints t as YYYY-MM-DD or "?" when nil.
func FormatDate(t *time.Time) string {
	if t == nil {
		return "?"
	}
	return t.Format(DateLayout)
}

// Package audit builds the aggregated change record written for every
// accepted mutation. Old and new values are normalized to strings before
// comparison so cosmetic differences (whitespace, nil vs empty, time-of-day
// on date fields) never produce an entry.
package audit

import (
	"fmt"
	"strings"
	"time"
)

// Change is one field-level diff.
type Change struct {
	Field string
	Old   string
	New   string
}

// Recorder accumulates diffs in the order fields are evaluated.
type Recorder struct {
	changes []Change
}

// Track records a change when the normalized values differ.
func (r *Recorder) Track(field, oldValue, newValue string) {
	o := Normalize(oldValue)
	n := Normalize(newValue)
	if o == n {
		return
	}
	r.changes = append(r.changes, Change{Field: field, Old: o, New: n})
}

// TrackPtr records a change between optional string values.
func (r *Recorder) TrackPtr(field string, oldValue, newValue *string) {
	r.Track(field, deref(oldValue), deref(newValue))
}

// TrackDate records a change between optional dates, compared on the
// YYYY-MM-DD slice only.
func (r *Recorder) TrackDate(field string, oldValue, newValue *time.Time) {
	r.Track(field, formatDate(oldValue), formatDate(newValue))
}

// Changes returns the accumulated diffs in evaluation order.
func (r *Recorder) Changes() []Change {
	return r.changes
}

// Empty reports whether no field actually changed.
func (r *Recorder) Empty() bool {
	return len(r.changes) == 0
}

// Render produces the human-readable change block and the change count.
func (r *Recorder) Render() (string, int) {
	lines := make([]string, 0, len(r.changes))
	for _, c := range r.changes {
		lines = append(lines, fmt.Sprintf("%s: %s -> %s", c.Field, c.Old, c.New))
	}
	return strings.Join(lines, "\n"), len(lines)
}

// CreatedEntry renders the single entry written for a new issue.
func CreatedEntry(initialStatus string) (string, int) {
	return fmt.Sprintf("Issue Created\nstatus: %s", Normalize(initialStatus)), 1
}

// Normalize trims whitespace; absent values become the empty string.
func Normalize(value string) string {
	return strings.TrimSpace(value)
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func formatDate(value *time.Time) string {
	if value == nil || value.IsZero() {
		return ""
	}
	return value.Format("2006-01-02")
}

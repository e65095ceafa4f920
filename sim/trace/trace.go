package trace

import (
	"fmt"
	"io"
)

// EventLog collects entries in causal processing order.
// Entries are never mutated or removed once appended.
type EventLog struct {
	entries []Entry
}

// NewEventLog creates an EventLog ready for recording.
func NewEventLog() *EventLog {
	return &EventLog{entries: make([]Entry, 0)}
}

// Append records an entry at the end of the log.
func (l *EventLog) Append(e Entry) {
	l.entries = append(l.entries, e)
}

// Len returns the number of recorded entries.
func (l *EventLog) Len() int {
	return len(l.entries)
}

// Entries returns a copy of the recorded entries.
func (l *EventLog) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Filter returns the entries carrying the given code, in log order.
func (l *EventLog) Filter(code Code) []Entry {
	var out []Entry
	for _, e := range l.entries {
		if e.Code == code {
			out = append(out, e)
		}
	}
	return out
}

// Count returns how many entries carry the given code.
func (l *EventLog) Count(code Code) int {
	n := 0
	for _, e := range l.entries {
		if e.Code == code {
			n++
		}
	}
	return n
}

// WriteTo renders one line per entry. It implements io.WriterTo.
func (l *EventLog) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, e := range l.entries {
		n, err := fmt.Fprintln(w, e.String())
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

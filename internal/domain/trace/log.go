package trace

import (
	"sync"

	"github.com/sophialabs/stubhttp/internal/domain/request"
)

// Log is an append-only, concurrent-safe record of received requests. It
// grows until Clear is called.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewLog creates an empty log.
func NewLog() *Log {
	return &Log{}
}

// Add appends an entry.
func (l *Log) Add(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
}

// Requests returns a snapshot of every logged request in arrival order.
func (l *Log) Requests() []*request.Request {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*request.Request, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.Request
	}
	return out
}

// LastRequest returns the most recent request, or nil if the log is empty.
func (l *Log) LastRequest() *request.Request {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.entries) == 0 {
		return nil
	}
	return l.entries[len(l.entries)-1].Request
}

// Last returns the last n entries in chronological order.
func (l *Log) Last(n int) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n > len(l.entries) {
		n = len(l.entries)
	}
	if n <= 0 {
		return nil
	}
	out := make([]Entry, n)
	copy(out, l.entries[len(l.entries)-n:])
	return out
}

// Count returns the number of entries.
func (l *Log) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Clear drops every entry.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

package testutil

import (
	"slices"
	"sync"
)

// RequestLog is a concurrency-safe list of request URIs.
type RequestLog struct {
	mu   sync.Mutex
	uris []string
}

func (l *RequestLog) add(uri string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.uris = append(l.uris, uri)
}

// All returns a copy of the recorded URIs.
func (l *RequestLog) All() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.uris)
}

// Len returns the number of recorded requests.
func (l *RequestLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.uris)
}

package soap

import (
	"sync"
	"time"
)

// Status is the health flag of a client.
type Status int

const (
	StatusOK Status = iota
	StatusError
)

func (s Status) String() string {
	if s == StatusError {
		return "error"
	}
	return "ok"
}

// Stats counts completed calls and their cumulated duration. It is safe for
// concurrent use, so one Stats can be shared by several clients.
type Stats struct {
	mu         sync.Mutex
	totalCalls int64
	totalTime  time.Duration
}

// NewStats returns zeroed statistics.
func NewStats() *Stats {
	return &Stats{}
}

// Record adds one call that took d.
func (s *Stats) Record(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalCalls++
	s.totalTime += d
}

// TotalCalls returns the number of recorded calls.
func (s *Stats) TotalCalls() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalCalls
}

// TotalTime returns the cumulated duration of the recorded calls.
func (s *Stats) TotalTime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalTime
}

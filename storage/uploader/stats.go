package uploader

import (
	"sync"
	"time"
)

// Stats tracks chunk round-trip timings for reporting. Safe for concurrent
// reads while the task is running.
type Stats struct {
	total  time.Duration
	chunks int64
	mu     sync.Mutex
}

// Update records a completed chunk round-trip duration.
func (s *Stats) Update(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total += d
	s.chunks++
}

// Average returns the mean round-trip duration of completed chunks.
func (s *Stats) Average() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chunks == 0 {
		return 0
	}
	return s.total / time.Duration(s.chunks)
}

// ChunkCount returns the number of completed chunk requests.
func (s *Stats) ChunkCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chunks
}

// TotalDuration returns the time spent in chunk round trips.
func (s *Stats) TotalDuration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

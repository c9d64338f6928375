// Package memory provides a process-local rate limit store.
//
// Counters live only as long as the process; a restart resets every limit.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/anvkup/avnmusicstudio/internal/core/domain"
	"github.com/anvkup/avnmusicstudio/internal/core/ports"
)

type Storage struct {
	mu      sync.Mutex
	entries map[string][]time.Time
}

var _ ports.RateLimitStore = (*Storage)(nil)

func New() *Storage {
	return &Storage{entries: make(map[string][]time.Time)}
}

// Admit holds the lock across prune, count and append, which makes the
// decision atomic per key.
func (s *Storage) Admit(_ context.Context, key string, policy domain.ActionPolicy, now time.Time) (bool, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	valid := prune(s.entries[key], now.Add(-policy.Window))

	if len(valid) >= policy.Limit {
		s.entries[key] = valid
		return false, valid[0], nil
	}

	s.entries[key] = append(valid, now)
	return true, time.Time{}, nil
}

func (s *Storage) Sweep(_ context.Context, maxWindow time.Duration, now time.Time) (int, error) {
	cutoff := now.Add(-maxWindow)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, stamps := range s.entries {
		valid := prune(stamps, cutoff)
		if len(valid) == 0 {
			delete(s.entries, key)
			removed++
			continue
		}
		s.entries[key] = valid
	}
	return removed, nil
}

// Len reports how many keys are tracked.
func (s *Storage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// prune keeps the timestamps strictly after cutoff. Timestamps are
// appended in order, so the first valid one marks the split.
func prune(stamps []time.Time, cutoff time.Time) []time.Time {
	for i, ts := range stamps {
		if ts.After(cutoff) {
			if i == 0 {
				return stamps
			}
			out := make([]time.Time, len(stamps)-i)
			copy(out, stamps[i:])
			return out
		}
	}
	return nil
}

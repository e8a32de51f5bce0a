package history

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore implements Store in memory. Runs are lost on process exit;
// use it for tests and one-shot compilations where persistence is noise.
type MemoryStore struct {
	mu   sync.RWMutex
	runs []*CompileRun
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Record persists one compile run.
func (s *MemoryStore) Record(ctx context.Context, run *CompileRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *run
	s.runs = append(s.runs, &clone)
	return nil
}

// List returns runs matching the query, newest first.
func (s *MemoryStore) List(ctx context.Context, query *Query) ([]*CompileRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*CompileRun, 0, len(s.runs))
	for _, run := range s.runs {
		if matchesQuery(run, query) {
			clone := *run
			matched = append(matched, &clone)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].StartedAt.After(matched[j].StartedAt)
	})

	limit := 100
	offset := 0
	if query != nil {
		if query.Limit > 0 {
			limit = query.Limit
		}
		offset = query.Offset
	}
	if offset >= len(matched) {
		return []*CompileRun{}, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// Count returns the number of runs matching the query.
func (s *MemoryStore) Count(ctx context.Context, query *Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, run := range s.runs {
		if matchesQuery(run, query) {
			count++
		}
	}
	return count, nil
}

// DeleteBefore removes runs started before the cutoff.
func (s *MemoryStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.runs[:0]
	var removed int64
	for _, run := range s.runs {
		if run.StartedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, run)
	}
	s.runs = kept
	return removed, nil
}

// Close is a no-op for the memory backend.
func (s *MemoryStore) Close() error {
	return nil
}

func matchesQuery(run *CompileRun, query *Query) bool {
	if query == nil {
		return true
	}
	if query.SourceFile != "" && run.SourceFile != query.SourceFile {
		return false
	}
	if query.Since != nil && run.StartedAt.Before(*query.Since) {
		return false
	}
	if query.Until != nil && run.StartedAt.After(*query.Until) {
		return false
	}
	if query.OnlyFailed && !run.Failed() {
		return false
	}
	return true
}

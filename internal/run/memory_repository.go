package run

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryRepository is an in-memory Repository for tests and local runs.
type MemoryRepository struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{runs: make(map[string]*Run)}
}

// Create stores a new run.
func (m *MemoryRepository) Create(_ context.Context, r *Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.runs[r.ID]; ok {
		return fmt.Errorf("%w: %s", ErrRunExists, r.ID)
	}
	stored := *r
	m.runs[r.ID] = &stored
	return nil
}

// Get retrieves a run by ID.
func (m *MemoryRepository) Get(_ context.Context, id string) (*Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	out := *r
	out.Steps = append([]StepResult(nil), r.Steps...)
	return &out, nil
}

// List returns runs ordered newest first.
func (m *MemoryRepository) List(_ context.Context, opts ListOptions) ([]*Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	out := make([]*Run, 0, len(m.runs))
	for _, r := range m.runs {
		c := *r
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// UpdateStatus transitions a run's status and stamps terminal states.
func (m *MemoryRepository) UpdateStatus(_ context.Context, id string, status Status, runErr string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.runs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	r.Status = status
	r.Error = runErr
	r.UpdatedAt = time.Now().UTC()
	if status == StatusSucceeded || status == StatusFailed {
		t := r.UpdatedAt
		r.FinishedAt = &t
	}
	return nil
}

// RecordStep appends a step result to its run.
func (m *MemoryRepository) RecordStep(_ context.Context, step StepResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.runs[step.RunID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, step.RunID)
	}
	r.Steps = append(r.Steps, step)
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// Ensure MemoryRepository implements Repository.
var _ Repository = (*MemoryRepository)(nil)

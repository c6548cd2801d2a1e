// Package history keeps the session's past result batches, keyed by query.
// The store is injected into the orchestrator; it is append-only except for
// an atomic Clear.
package history

import (
	"context"
	"sync"
	"time"

	"github.com/Nikita-NA/News-sentiment-analysis/pkg/models"
)

// Entry is one recorded batch.
type Entry struct {
	Query   string              `json:"query"`
	Batch   *models.ResultBatch `json:"batch"`
	AddedAt time.Time           `json:"added_at"`
}

// Store records completed batches for the session.
type Store interface {
	// Add appends a completed batch under the query key.
	Add(ctx context.Context, query string, batch *models.ResultBatch) error

	// Entries returns all recorded entries in insertion order.
	Entries(ctx context.Context) ([]Entry, error)

	// ByQuery returns the entries recorded for one query, oldest first.
	ByQuery(ctx context.Context, query string) ([]Entry, error)

	// Len returns the number of recorded entries.
	Len(ctx context.Context) (int, error)

	// Clear atomically discards all recorded state.
	Clear(ctx context.Context) error
}

// Memory is the default in-process store. Created empty at process start;
// safe for concurrent use. Clear swaps the backing slice in one step, so a
// concurrent reader sees either the old state or an empty store, never a
// partial one.
type Memory struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewMemory creates an empty in-memory history store.
func NewMemory() *Memory {
	return &Memory{}
}

var _ Store = (*Memory)(nil)

// Add appends a batch under the query key.
func (m *Memory) Add(_ context.Context, query string, batch *models.ResultBatch) error {
	m.mu.Lock()
	m.entries = append(m.entries, Entry{
		Query:   query,
		Batch:   batch,
		AddedAt: time.Now(),
	})
	m.mu.Unlock()
	return nil
}

// Entries returns a copy of all recorded entries in insertion order.
func (m *Memory) Entries(_ context.Context) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out, nil
}

// ByQuery returns the entries recorded for one query, oldest first.
func (m *Memory) ByQuery(_ context.Context, query string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Entry
	for _, e := range m.entries {
		if e.Query == query {
			out = append(out, e)
		}
	}
	return out, nil
}

// Len returns the number of recorded entries.
func (m *Memory) Len(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

// Clear discards everything in one step.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	m.entries = nil
	m.mu.Unlock()
	return nil
}

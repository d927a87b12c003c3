// Package pagination implements the per-partition result paging engine. A
// partition key (device id) scopes one ResultSet plus one read cursor; the
// engine serializes every read-modify-write per partition so concurrent
// requests on the same device cannot duplicate or skip items.
package pagination

import (
	"fmt"
	"sync"

	"perfume-chat/internal/domain"
)

// Engine orchestrates the result and cursor stores
type Engine struct {
	results domain.ResultStore
	cursors domain.CursorStore

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewEngine creates a pagination engine over the given stores
func NewEngine(results domain.ResultStore, cursors domain.CursorStore) *Engine {
	return &Engine{
		results: results,
		cursors: cursors,
		locks:   make(map[string]*sync.Mutex),
	}
}

// partitionLock returns the mutex owning all state transitions for one
// partition. Locks are never released from the map; the partition space is
// small (one entry per device).
func (e *Engine) partitionLock(partition string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()

	l, ok := e.locks[partition]
	if !ok {
		l = &sync.Mutex{}
		e.locks[partition] = l
	}
	return l
}

// StoreAndPage replaces the partition's ResultSet with items, positions the
// cursor past the first page, and returns that first page. Any prior
// ResultSet for the partition is discarded unconditionally. After the call,
// Remaining(partition) == len(items) - len(returned page).
func (e *Engine) StoreAndPage(partition string, items []domain.Perfume, pageSize int) ([]domain.Perfume, error) {
	if pageSize < 0 {
		pageSize = 0
	}

	l := e.partitionLock(partition)
	l.Lock()
	defer l.Unlock()

	if err := e.results.Put(partition, items); err != nil {
		return nil, fmt.Errorf("failed to store results: %w", err)
	}

	end := pageSize
	if end > len(items) {
		end = len(items)
	}
	first := items[:end]

	if err := e.cursors.Put(partition, end, len(items)); err != nil {
		return nil, fmt.Errorf("failed to store cursor: %w", err)
	}
	return first, nil
}

// NextPage advances the partition's cursor by up to count items and returns
// the newly exposed slice. An exhausted or absent ResultSet yields an empty
// slice and leaves the cursor untouched, so repeated calls at the end are
// idempotent. count <= 0 returns empty without advancing.
func (e *Engine) NextPage(partition string, count int) ([]domain.Perfume, error) {
	if count <= 0 {
		return nil, nil
	}

	l := e.partitionLock(partition)
	l.Lock()
	defer l.Unlock()

	cursor := e.cursors.Get(partition)
	items := e.results.Get(partition)

	if len(items) == 0 || cursor.Offset >= cursor.Total || cursor.Offset >= len(items) {
		return nil, nil
	}

	end := cursor.Offset + count
	if end > len(items) {
		end = len(items)
	}
	batch := items[cursor.Offset:end]

	if err := e.cursors.Put(partition, end, len(items)); err != nil {
		return nil, fmt.Errorf("failed to advance cursor: %w", err)
	}
	return batch, nil
}

// Results returns the partition's current ResultSet without moving the
// cursor. Used for cached-first item lookups.
func (e *Engine) Results(partition string) []domain.Perfume {
	l := e.partitionLock(partition)
	l.Lock()
	defer l.Unlock()

	return e.results.Get(partition)
}

// Remaining reports how many stored items the partition has not yet consumed.
// Returns 0 when no ResultSet exists.
func (e *Engine) Remaining(partition string) int {
	l := e.partitionLock(partition)
	l.Lock()
	defer l.Unlock()

	items := e.results.Get(partition)
	if len(items) == 0 {
		return 0
	}

	cursor := e.cursors.Get(partition)
	remaining := len(items) - cursor.Offset
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Reset zeroes the partition's cursor without touching its ResultSet. Invoked
// deliberately by the orchestrating layer when a conversation restarts
// pagination context without a new search.
func (e *Engine) Reset(partition string) error {
	l := e.partitionLock(partition)
	l.Lock()
	defer l.Unlock()

	if err := e.cursors.Put(partition, 0, 0); err != nil {
		return fmt.Errorf("failed to reset cursor: %w", err)
	}
	return nil
}

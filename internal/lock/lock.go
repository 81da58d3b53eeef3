// Package lock serializes mutations of individual accounts and holdings.
package lock

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/cleared-dev/finstate/internal/model"
)

// DefaultTimeout bounds how long Acquire waits for any single key.
const DefaultTimeout = 2 * time.Second

type entry struct {
	ch   chan struct{}
	refs int
}

// Manager hands out exclusive locks keyed by entity ID. Keys are always
// acquired in ascending order, so two callers locking overlapping sets can
// never deadlock.
type Manager struct {
	timeout time.Duration

	mu      sync.Mutex
	entries map[string]*entry
}

// NewManager creates a Manager. A non-positive timeout uses DefaultTimeout.
func NewManager(timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Manager{timeout: timeout, entries: make(map[string]*entry)}
}

// Acquire locks every key and returns a release func. On timeout or context
// cancellation all keys taken so far are released and a *model.ConflictError
// is returned.
func (m *Manager) Acquire(ctx context.Context, keys ...string) (release func(), err error) {
	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	held := make([]string, 0, len(sorted))
	releaseAll := func() {
		for i := len(held) - 1; i >= 0; i-- {
			m.unlock(held[i])
		}
	}

	for _, k := range sorted {
		if err := m.lock(ctx, k); err != nil {
			releaseAll()
			return nil, err
		}
		held = append(held, k)
	}

	var once sync.Once
	return func() { once.Do(releaseAll) }, nil
}

func (m *Manager) lock(ctx context.Context, key string) error {
	m.mu.Lock()
	e, ok := m.entries[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		m.entries[key] = e
	}
	e.refs++
	m.mu.Unlock()

	timer := time.NewTimer(m.timeout)
	defer timer.Stop()

	select {
	case e.ch <- struct{}{}:
		return nil
	case <-timer.C:
		m.drop(key, e)
		return &model.ConflictError{Resource: key, Reason: "lock timeout after " + m.timeout.String()}
	case <-ctx.Done():
		m.drop(key, e)
		return &model.ConflictError{Resource: key, Reason: ctx.Err().Error()}
	}
}

func (m *Manager) unlock(key string) {
	m.mu.Lock()
	e := m.entries[key]
	m.mu.Unlock()
	<-e.ch
	m.drop(key, e)
}

// drop releases one reference and forgets the entry once unused.
func (m *Manager) drop(key string, e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(m.entries, key)
	}
}

// Package testutil provides common testing utilities and mock implementations.
package testutil

import (
	"context"
	"sync"

	"github.com/R3E-Network/heroapps/internal/app/domain/apps"
	"github.com/R3E-Network/heroapps/internal/app/storage"
	"github.com/R3E-Network/heroapps/internal/app/storage/memory"
)

// MockAppStore is a test implementation of storage.Store. Reads are served by
// an in-memory store; each operation can be made to fail and is counted.
type MockAppStore struct {
	*memory.Store

	mu       sync.Mutex
	FindErr  error
	CountErr error
	GetErr   error
	PingErr  error
	calls    map[string]int
	lastFind apps.ListQuery
}

var _ storage.Store = (*MockAppStore)(nil)

// NewMockAppStore creates a mock store seeded with records.
func NewMockAppStore(records ...apps.App) *MockAppStore {
	return &MockAppStore{
		Store: memory.New(records...),
		calls: make(map[string]int),
	}
}

// FindApps records the query and delegates unless FindErr is set.
func (m *MockAppStore) FindApps(ctx context.Context, q apps.ListQuery) ([]apps.App, error) {
	m.mu.Lock()
	m.calls["find"]++
	m.lastFind = q
	err := m.FindErr
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return m.Store.FindApps(ctx, q)
}

// CountApps delegates unless CountErr is set.
func (m *MockAppStore) CountApps(ctx context.Context, f apps.Filter) (int64, error) {
	m.mu.Lock()
	m.calls["count"]++
	err := m.CountErr
	m.mu.Unlock()
	if err != nil {
		return 0, err
	}
	return m.Store.CountApps(ctx, f)
}

// FindAppByID delegates unless GetErr is set.
func (m *MockAppStore) FindAppByID(ctx context.Context, id string) (apps.App, error) {
	m.mu.Lock()
	m.calls["get"]++
	err := m.GetErr
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return m.Store.FindAppByID(ctx, id)
}

// Ping delegates unless PingErr is set.
func (m *MockAppStore) Ping(ctx context.Context) error {
	m.mu.Lock()
	m.calls["ping"]++
	err := m.PingErr
	m.mu.Unlock()
	if err != nil {
		return err
	}
	return m.Store.Ping(ctx)
}

// SetPingErr changes the Ping failure while the store is in use.
func (m *MockAppStore) SetPingErr(err error) {
	m.mu.Lock()
	m.PingErr = err
	m.mu.Unlock()
}

// Calls returns how many times op ("find", "count", "get", "ping") ran.
func (m *MockAppStore) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// TotalCalls returns the number of storage operations performed.
func (m *MockAppStore) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

// LastFind returns the most recent query passed to FindApps.
func (m *MockAppStore) LastFind() apps.ListQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastFind
}

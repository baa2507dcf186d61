package blobtest

import (
	"context"
	"sync"

	"github.com/smallbiznis/scanprice/internal/blob"
)

// Memory is an in-process blob.KV for tests. Put failures can be injected
// with SetFailPuts.
type Memory struct {
	mu       sync.RWMutex
	values   map[string][]byte
	failPuts error
}

var _ blob.KV = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{values: map[string][]byte{}}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[key]
	if !ok {
		return nil, blob.ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

func (m *Memory) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPuts != nil {
		return m.failPuts
	}
	m.values[key] = append([]byte(nil), value...)
	return nil
}

// SetFailPuts makes every later Put return err until reset with nil.
func (m *Memory) SetFailPuts(err error) {
	m.mu.Lock()
	m.failPuts = err
	m.mu.Unlock()
}

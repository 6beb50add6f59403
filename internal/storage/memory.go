package storage

import (
	"context"
	"slices"
	"sync"
)

// Memory is an in-process Blob, used by tests and dry runs.
type Memory struct {
	mu    sync.Mutex
	blobs map[string][]byte
	// FailWrites makes every Write return this error when set.
	FailWrites error
}

func NewMemory() *Memory {
	return &Memory{blobs: make(map[string][]byte)}
}

func (m *Memory) Read(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[key]
	if !ok {
		return nil, ErrNotExist
	}
	return slices.Clone(data), nil
}

func (m *Memory) Write(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.blobs[key] = slices.Clone(data)
	return nil
}

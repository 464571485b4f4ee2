package storage

import (
	"context"
	"sync"
)

// MockBlobStore implements BlobStore for tests without real credentials.
type MockBlobStore struct {
	mu      sync.Mutex
	Deleted []string

	// Optional override for custom test behavior
	DeleteFunc func(ctx context.Context, key string) error
}

func NewMockBlobStore() *MockBlobStore {
	return &MockBlobStore{}
}

func (m *MockBlobStore) Delete(ctx context.Context, key string) error {
	if m.DeleteFunc != nil {
		if err := m.DeleteFunc(ctx, key); err != nil {
			return err
		}
	}

	m.mu.Lock()
	m.Deleted = append(m.Deleted, key)
	m.mu.Unlock()
	return nil
}

// DeletedKeys returns a copy of the deleted key log.
func (m *MockBlobStore) DeletedKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Deleted))
	copy(out, m.Deleted)
	return out
}

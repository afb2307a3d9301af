package repository

import (
	"context"
	"time"
)

// MockCache is an in-memory CacheRepository for tests and local runs
type MockCache struct {
	Data map[string]string
}

func NewMockCache() *MockCache {
	return &MockCache{
		Data: make(map[string]string),
	}
}

func (m *MockCache) Get(ctx context.Context, key string) (string, bool) {
	val, ok := m.Data[key]
	return val, ok
}

func (m *MockCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.Data[key] = value
	return nil
}

package poolfeed

import (
	"context"
	"fmt"
)

// MockClient serves canned pools for tests and offline development
type MockClient struct {
	Pools map[string][]string
	Err   error
}

// NewMockClient creates a mock feed with one small default pool
func NewMockClient() *MockClient {
	return &MockClient{
		Pools: map[string][]string{
			"default": defaultPool(),
		},
	}
}

// FetchPool returns the canned pool for name
func (m *MockClient) FetchPool(_ context.Context, name string) ([]string, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	items, ok := m.Pools[name]
	if !ok {
		return nil, fmt.Errorf("pool %q not found in feed", name)
	}
	return items, nil
}

func defaultPool() []string {
	items := make([]string, 25)
	for i := range items {
		items[i] = fmt.Sprintf("Challenge %d", i+1)
	}
	return items
}

var _ Client = (*MockClient)(nil)

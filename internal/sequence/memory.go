package sequence

import (
	"context"
	"sync"
)

// InMemoryAllocator is a mutex-guarded counter per entity type.
type InMemoryAllocator struct {
	mu     sync.Mutex
	values map[string]int64
}

func NewInMemoryAllocator() *InMemoryAllocator {
	return &InMemoryAllocator{values: make(map[string]int64)}
}

func (a *InMemoryAllocator) Next(_ context.Context, entityType string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.values[entityType]++
	return Format(entityType, a.values[entityType]), nil
}

// Seed positions the counter so the next allocation returns value+1.
// Tests use it to pin expected numbers.
func (a *InMemoryAllocator) Seed(entityType string, value int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.values[entityType] = value
}

package docstore

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Memory is a process-local Store. List returns documents in first-write order.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

type memoryCollection struct {
	order []string
	docs  map[string]map[string]any
}

func NewMemory() *Memory {
	return &Memory{collections: make(map[string]*memoryCollection)}
}

func (m *Memory) collection(name string) *memoryCollection {
	c, ok := m.collections[name]
	if !ok {
		c = &memoryCollection{docs: make(map[string]map[string]any)}
		m.collections[name] = c
	}
	return c
}

func (m *Memory) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	err := checkCollection(collection)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := uuid.New().String()

	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.collection(collection)
	c.order = append(c.order, id)
	c.docs[id] = cloneFields(fields)
	return id, nil
}

func (m *Memory) Put(ctx context.Context, collection, id string, fields map[string]any) error {
	err := checkCollection(collection)
	if err != nil {
		return err
	}
	err = checkID(id)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.collection(collection)
	if _, exists := c.docs[id]; !exists {
		c.order = append(c.order, id)
	}
	c.docs[id] = cloneFields(fields)
	return nil
}

func (m *Memory) Get(ctx context.Context, collection, id string) (*Document, error) {
	err := checkCollection(collection)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.collections[collection]
	if !ok {
		return nil, ErrNotFound
	}
	fields, ok := c.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &Document{ID: id, Fields: cloneFields(fields)}, nil
}

func (m *Memory) List(ctx context.Context, collection string) ([]*Document, error) {
	err := checkCollection(collection)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.collections[collection]
	if !ok {
		return []*Document{}, nil
	}

	docs := make([]*Document, 0, len(c.order))
	for _, id := range c.order {
		docs = append(docs, &Document{ID: id, Fields: cloneFields(c.docs[id])})
	}
	return docs, nil
}

func (m *Memory) Close() error {
	return nil
}

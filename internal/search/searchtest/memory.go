// Package searchtest provides an in-memory search.Index for tests.
package searchtest

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/Skotchmaster/coffee_order/internal/models"
)

type Memory struct {
	mu   sync.Mutex
	docs map[uint]models.Product
	// Err, when set, is returned from every call.
	Err error
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[uint]models.Product)}
}

func (m *Memory) IndexProduct(_ context.Context, p models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.docs[p.ID] = p
	return nil
}

func (m *Memory) DeleteProduct(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	delete(m.docs, id)
	return nil
}

func (m *Memory) Search(_ context.Context, query string, limit int) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}

	q := strings.ToLower(query)
	out := make([]models.Product, 0)
	for _, p := range m.docs {
		if strings.Contains(strings.ToLower(p.Name), q) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) Doc(id uint) (models.Product, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.docs[id]
	return p, ok
}

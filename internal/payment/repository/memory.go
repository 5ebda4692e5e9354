package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/thedividend/dividend/internal/payment"
)

// MemoryRepo keeps purchases in process. The reference map is checked and
// written under one lock, so concurrent inserts of a reference cannot both win.
type MemoryRepo struct {
	mu    sync.RWMutex
	byRef map[string]*payment.Purchase
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byRef: make(map[string]*payment.Purchase)}
}

func (m *MemoryRepo) Insert(ctx context.Context, p *payment.Purchase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byRef[p.Reference]; exists {
		return payment.ErrDuplicateReference
	}
	cp := *p
	m.byRef[p.Reference] = &cp
	return nil
}

func (m *MemoryRepo) GetByReference(ctx context.Context, reference string) (*payment.Purchase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.byRef[reference]
	if !ok {
		return nil, payment.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryRepo) ListByUser(ctx context.Context, userID string) ([]*payment.Purchase, error) {
	m.mu.RLock()
	out := []*payment.Purchase{}
	for _, p := range m.byRef {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Count returns the number of stored purchases.
func (m *MemoryRepo) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byRef)
}

// Package store provides PaymentStore implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/dues-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	payments    map[generic.StudentID][]generic.Payment
	idempotency map[string]bool
}

func NewMemory() *Memory {
	return &Memory{
		payments:    make(map[generic.StudentID][]generic.Payment),
		idempotency: make(map[string]bool),
	}
}

// Append adds a single payment. Append-only.
func (m *Memory) Append(_ context.Context, p generic.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.IdempotencyKey != "" && m.idempotency[p.IdempotencyKey] {
		return generic.ErrDuplicateIdempotencyKey
	}
	m.appendLocked(p)
	return nil
}

// AppendBatch adds multiple payments atomically.
func (m *Memory) AppendBatch(_ context.Context, ps []generic.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Check all idempotency keys first, including duplicates inside the batch
	seen := make(map[string]bool, len(ps))
	for _, p := range ps {
		if p.IdempotencyKey == "" {
			continue
		}
		if m.idempotency[p.IdempotencyKey] || seen[p.IdempotencyKey] {
			return generic.ErrDuplicateIdempotencyKey
		}
		seen[p.IdempotencyKey] = true
	}

	for _, p := range ps {
		m.appendLocked(p)
	}
	return nil
}

func (m *Memory) appendLocked(p generic.Payment) {
	ps := m.payments[p.StudentID]

	// Keep ordered by DatePaid; equal dates keep insertion order
	i := sort.Search(len(ps), func(i int) bool {
		return ps[i].DatePaid.After(p.DatePaid)
	})

	ps = append(ps, generic.Payment{})
	copy(ps[i+1:], ps[i:])
	ps[i] = p
	m.payments[p.StudentID] = ps

	if p.IdempotencyKey != "" {
		m.idempotency[p.IdempotencyKey] = true
	}
}

func (m *Memory) LoadPayments(_ context.Context, studentID generic.StudentID) ([]generic.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]generic.Payment, len(m.payments[studentID]))
	copy(result, m.payments[studentID])
	return result, nil
}

func (m *Memory) LoadPaymentsInRange(_ context.Context, studentID generic.StudentID, period generic.Period) ([]generic.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []generic.Payment
	for _, p := range m.payments[studentID] {
		if period.Contains(p.DatePaid) {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *Memory) Exists(_ context.Context, idempotencyKey string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.idempotency[idempotencyKey], nil
}

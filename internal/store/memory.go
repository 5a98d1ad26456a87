package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nightdesk/backend/internal/models"
)

type MemoryStore struct {
	mu     sync.Mutex
	states map[string]models.CallConversationState
	cases  map[string]models.CaseSummary
	sent   map[string]time.Time
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states: map[string]models.CallConversationState{},
		cases:  map[string]models.CaseSummary{},
		sent:   map[string]time.Time{},
		now:    time.Now,
	}
}

func (m *MemoryStore) LoadState(_ context.Context, callID string) (*models.CallConversationState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[callID]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *MemoryStore) SaveState(_ context.Context, state *models.CallConversationState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var current int64
	if existing, ok := m.states[state.CallID]; ok {
		current = existing.Version
	}
	if current != state.Version {
		return ErrVersionConflict
	}
	next := *state
	next.Version++
	next.UpdatedAt = m.now().UTC()
	m.states[state.CallID] = next
	*state = next
	return nil
}

func (m *MemoryStore) RecordCase(_ context.Context, c models.CaseSummary) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.cases[c.CallID]; ok && !Supersedes(existing, c) {
		return false, nil
	}
	m.cases[c.CallID] = c
	return true, nil
}

func (m *MemoryStore) GetCase(_ context.Context, callID string) (*models.CaseSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cases[callID]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *MemoryStore) ListCases(_ context.Context, limit int) ([]models.CaseSummary, error) {
	m.mu.Lock()
	out := make([]models.CaseSummary, 0, len(m.cases))
	for _, c := range m.cases {
		out = append(out, c)
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].CallID < out[j].CallID
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) MarkDispatched(_ context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if exp, ok := m.sent[key]; ok && (exp.IsZero() || now.Before(exp)) {
		return false, nil
	}
	var exp time.Time
	if ttl > 0 {
		exp = now.Add(ttl)
	}
	m.sent[key] = exp
	return true, nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close() {}

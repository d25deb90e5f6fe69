package game

import (
	"context"
	"slices"
	"sync"

	"planets-engine/internal/shared/errors"
)

// MemoryStore is a Store kept in process memory, used in place of
// Postgres by tests.
type MemoryStore struct {
	mu        sync.Mutex
	sessions  map[string]GameSession
	snapshots map[string][]byte
	saves     int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:  make(map[string]GameSession),
		snapshots: make(map[string][]byte),
	}
}

func (m *MemoryStore) SaveSession(ctx context.Context, meta GameSession, snapshot []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[meta.ID] = meta
	m.snapshots[meta.ID] = slices.Clone(snapshot)
	m.saves++
	return nil
}

func (m *MemoryStore) LoadSession(ctx context.Context, id string) (*GameSession, []byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	meta, ok := m.sessions[id]
	if !ok {
		return nil, nil, errors.NotFoundf("session not found: %s", id)
	}
	return &meta, slices.Clone(m.snapshots[id]), nil
}

func (m *MemoryStore) ListSessions(ctx context.Context, ownerID int) ([]GameSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []GameSession
	for _, g := range m.sessions {
		if g.OwnerID == ownerID {
			out = append(out, g)
		}
	}
	slices.SortFunc(out, func(a, b GameSession) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (m *MemoryStore) CountSessions(ctx context.Context, ownerID int) (int, error) {
	list, _ := m.ListSessions(ctx, ownerID)
	return len(list), nil
}

func (m *MemoryStore) SessionOwner(ctx context.Context, id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.sessions[id]
	if !ok {
		return 0, errors.NotFoundf("session not found: %s", id)
	}
	return g.OwnerID, nil
}

func (m *MemoryStore) DeleteSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return errors.NotFoundf("session not found: %s", id)
	}
	delete(m.sessions, id)
	delete(m.snapshots, id)
	return nil
}

// Saves reports how many times SaveSession ran.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Package sessions tracks which issued access tokens are still live, so a
// token can be revoked before it expires.
package sessions

import (
	"context"
	"sync"
	"time"
)

// Store keeps the live token ids (jti) of every user.
type Store interface {
	Add(ctx context.Context, userID, tokenID string, expiresAt time.Time) error
	Active(ctx context.Context, userID, tokenID string) (bool, error)
	Remove(ctx context.Context, userID, tokenID string) error
	RemoveAll(ctx context.Context, userID string) error
}

// MemoryStore is the in-process Store used when no Redis is configured.
type MemoryStore struct {
	mu    sync.Mutex
	users map[string]map[string]time.Time
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]map[string]time.Time), now: time.Now}
}

func (m *MemoryStore) Add(_ context.Context, userID, tokenID string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tokens := m.users[userID]
	if tokens == nil {
		tokens = make(map[string]time.Time)
		m.users[userID] = tokens
	}
	now := m.now()
	for id, exp := range tokens {
		if !exp.After(now) {
			delete(tokens, id)
		}
	}
	tokens[tokenID] = expiresAt
	return nil
}

func (m *MemoryStore) Active(_ context.Context, userID, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	exp, ok := m.users[userID][tokenID]
	return ok && exp.After(m.now()), nil
}

func (m *MemoryStore) Remove(_ context.Context, userID, tokenID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.users[userID], tokenID)
	return nil
}

func (m *MemoryStore) RemoveAll(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.users, userID)
	return nil
}

// Package profile is the read-only view of the user's viewpoint profile,
// which is owned and edited elsewhere.
package profile

import (
	"context"
	"errors"
	"strings"
	"sync"
)

var ErrNotFound = errors.New("profile not found")

// Viewpoint is the user's self-described outlook. Every field is optional.
type Viewpoint struct {
	Worldview      string `json:"worldview"`
	LifePhilosophy string `json:"lifePhilosophy"`
	Values         string `json:"values"`
}

// IsEmpty reports whether no field carries text.
func (v Viewpoint) IsEmpty() bool {
	return strings.TrimSpace(v.Worldview) == "" &&
		strings.TrimSpace(v.LifePhilosophy) == "" &&
		strings.TrimSpace(v.Values) == ""
}

// Store reads profiles by user id. Implementations never write.
type Store interface {
	Get(ctx context.Context, userID string) (Viewpoint, error)
}

// MemoryStore is a fixed in-process Store for local runs and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	byUser map[string]Viewpoint
}

func NewMemoryStore(seed map[string]Viewpoint) *MemoryStore {
	m := &MemoryStore{byUser: make(map[string]Viewpoint, len(seed))}
	for id, v := range seed {
		m.byUser[normalizeUserID(id)] = v
	}
	return m
}

func (m *MemoryStore) Get(_ context.Context, userID string) (Viewpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.byUser[normalizeUserID(userID)]
	if !ok {
		return Viewpoint{}, ErrNotFound
	}
	return v, nil
}

// Set replaces a profile; it exists for seeding, not for the pipelines.
func (m *MemoryStore) Set(userID string, v Viewpoint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byUser[normalizeUserID(userID)] = v
}

func normalizeUserID(id string) string {
	return strings.TrimSpace(id)
}

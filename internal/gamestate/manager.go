package gamestate

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/mkaryagin/voxquest/internal/models"
)

// Manager front-ends a Store with an LRU cache of recently active
// sessions and serializes mutations, so concurrent recognition requests
// and state updates for the same session do not clobber each other.
type Manager struct {
	mu    sync.Mutex
	store Store
	cache *lru.Cache[string, *GameContext]
	log   *zap.Logger
}

func NewManager(store Store, cacheSize int, log *zap.Logger) (*Manager, error) {
	cache, err := lru.New[string, *GameContext](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create session cache: %w", err)
	}
	return &Manager{store: store, cache: cache, log: log}, nil
}

// State returns the game context for a session, creating the default
// context for sessions the store has never seen. The returned context is
// the caller's private copy; the cached one is only touched under the lock.
func (m *Manager) State(ctx context.Context, sessionID string) (*GameContext, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, err := m.state(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return state.clone(), nil
}

func (m *Manager) state(ctx context.Context, sessionID string) (*GameContext, error) {
	if state, ok := m.cache.Get(sessionID); ok {
		return state, nil
	}
	state, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	m.cache.Add(sessionID, state)
	return state, nil
}

// Snapshot returns the prompt-facing view of a session's state. The
// snapshot is built while holding the lock so a concurrent mutation can
// never be observed mid-write.
func (m *Manager) Snapshot(ctx context.Context, sessionID string) (models.ContextSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, err := m.state(ctx, sessionID)
	if err != nil {
		return models.ContextSnapshot{}, err
	}
	return state.Snapshot(), nil
}

// UpdatePosition moves the player.
func (m *Manager) UpdatePosition(ctx context.Context, sessionID string, pos Position) (*GameContext, error) {
	return m.mutate(ctx, sessionID, func(state *GameContext) {
		state.PlayerPosition = pos
	})
}

// AddObject inserts or replaces an interactive object. An empty ID gets a
// generated one.
func (m *Manager) AddObject(ctx context.Context, sessionID string, obj Object) (*GameContext, error) {
	if obj.ID == "" {
		obj.ID = uuid.NewString()
	}
	return m.mutate(ctx, sessionID, func(state *GameContext) {
		for i, existing := range state.Objects {
			if existing.ID == obj.ID {
				state.Objects[i] = obj
				return
			}
		}
		state.Objects = append(state.Objects, obj)
	})
}

// RemoveObject deletes an object by ID.
func (m *Manager) RemoveObject(ctx context.Context, sessionID, objectID string) (*GameContext, error) {
	return m.mutate(ctx, sessionID, func(state *GameContext) {
		kept := state.Objects[:0]
		for _, obj := range state.Objects {
			if obj.ID != objectID {
				kept = append(kept, obj)
			}
		}
		state.Objects = kept
	})
}

// AddNPC inserts or replaces a character. An empty ID gets a generated one.
func (m *Manager) AddNPC(ctx context.Context, sessionID string, npc NPC) (*GameContext, error) {
	if npc.ID == "" {
		npc.ID = uuid.NewString()
	}
	return m.mutate(ctx, sessionID, func(state *GameContext) {
		for i, existing := range state.NPCs {
			if existing.ID == npc.ID {
				state.NPCs[i] = npc
				return
			}
		}
		state.NPCs = append(state.NPCs, npc)
	})
}

// RemoveNPC deletes a character by ID.
func (m *Manager) RemoveNPC(ctx context.Context, sessionID, npcID string) (*GameContext, error) {
	return m.mutate(ctx, sessionID, func(state *GameContext) {
		kept := state.NPCs[:0]
		for _, npc := range state.NPCs {
			if npc.ID != npcID {
				kept = append(kept, npc)
			}
		}
		state.NPCs = kept
	})
}

// Clear drops a session from the cache and the store.
func (m *Manager) Clear(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cache.Remove(sessionID)
	if err := m.store.Delete(ctx, sessionID); err != nil {
		return err
	}
	m.log.Info("cleared game state", zap.String("session_id", sessionID))
	return nil
}

// ActiveSessions returns the number of cached sessions.
func (m *Manager) ActiveSessions() int {
	return m.cache.Len()
}

func (m *Manager) mutate(ctx context.Context, sessionID string, fn func(*GameContext)) (*GameContext, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, err := m.state(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	fn(state)
	if err := m.store.Save(ctx, sessionID, state); err != nil {
		return nil, err
	}
	m.cache.Add(sessionID, state)
	return state.clone(), nil
}

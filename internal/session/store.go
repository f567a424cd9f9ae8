// Package session stores in-progress dialogue state keyed by (actor, chat).
// Backends are pluggable; a store miss is equivalent to "no active dialogue",
// so eviction by the backend is always safe for the engine.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Key identifies one dialogue: the acting user and the chat it runs in.
type Key struct {
	ActorID int64
	ChatID  int64
}

func (k Key) String() string {
	return fmt.Sprintf("%d:%d", k.ActorID, k.ChatID)
}

// Store is the session persistence interface. Values are JSON-serialized by
// the store so backends stay oblivious to what a session contains.
type Store interface {
	// Get loads the session into dest, reporting ok == false on a miss.
	Get(ctx context.Context, key Key, dest any) (bool, error)
	Put(ctx context.Context, key Key, value any) error
	Delete(ctx context.Context, key Key) error
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory with an idle timeout, so an
// abandoned dialogue does not persist indefinitely. Every Put refreshes the
// deadline.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[Key]memoryEntry
}

// NewMemoryStore creates an in-memory store. A non-positive ttl disables
// expiry.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		entries: make(map[Key]memoryEntry),
	}
}

// Get loads a live session, treating an expired one as a miss and dropping
// it.
func (s *MemoryStore) Get(_ context.Context, key Key, dest any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return false, nil
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		delete(s.entries, key)
		return false, nil
	}
	if err := json.Unmarshal(entry.data, dest); err != nil {
		return false, fmt.Errorf("failed to decode session %s: %w", key, err)
	}
	return true, nil
}

// Put stores the session and refreshes its idle deadline.
func (s *MemoryStore) Put(_ context.Context, key Key, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", key, err)
	}

	var expiresAt time.Time
	if s.ttl > 0 {
		expiresAt = time.Now().Add(s.ttl)
	}

	s.mu.Lock()
	s.entries[key] = memoryEntry{data: data, expiresAt: expiresAt}
	s.mu.Unlock()
	return nil
}

// Delete discards the session if present.
func (s *MemoryStore) Delete(_ context.Context, key Key) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

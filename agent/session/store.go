package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/cloudwego/eino/schema"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidSession  = errors.New("session id is empty")
)

// UpdateFunc transforms a session's transcript. It receives a private copy;
// the returned transcript replaces the stored one only when the function
// succeeds, so a failed run never leaves partial state behind.
type UpdateFunc func(ctx context.Context, transcript []*schema.Message) ([]*schema.Message, error)

// Store is the session persistence contract used by the chat service.
type Store interface {
	Load(ctx context.Context, sessionID string) ([]*schema.Message, error)
	Update(ctx context.Context, sessionID string, fn UpdateFunc) error
	Delete(ctx context.Context, sessionID string) error
}

// MemoryStore keeps transcripts for the lifetime of the process. Updates to
// the same session id are serialized by a per-session mutex; distinct
// sessions proceed fully in parallel. Entries are never expired, which is a
// known resource-growth limitation.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

type sessionEntry struct {
	mu         sync.Mutex
	transcript []*schema.Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*sessionEntry),
	}
}

func (s *MemoryStore) Load(ctx context.Context, sessionID string) ([]*schema.Message, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidSession
	}

	s.mu.Lock()
	entry, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return cloneTranscript(entry.transcript), nil
}

func (s *MemoryStore) Update(ctx context.Context, sessionID string, fn UpdateFunc) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrInvalidSession
	}
	if fn == nil {
		return errors.New("update function is nil")
	}

	entry := s.entryFor(sessionID)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	next, err := fn(ctx, cloneTranscript(entry.transcript))
	if err != nil {
		return err
	}

	entry.transcript = cloneTranscript(next)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrInvalidSession
	}

	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) entryFor(sessionID string) *sessionEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[sessionID]
	if !ok {
		entry = &sessionEntry{}
		s.sessions[sessionID] = entry
	}
	return entry
}

// cloneTranscript copies the slice header; messages themselves are treated
// as immutable once appended.
func cloneTranscript(transcript []*schema.Message) []*schema.Message {
	if transcript == nil {
		return nil
	}
	return append([]*schema.Message(nil), transcript...)
}

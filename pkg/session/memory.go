package session

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	resources map[string][]byte
	expires   time.Time
}

// MemoryStore keeps sessions in process memory. Sessions expire ttl after
// their last save.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]*entry
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, sessions: make(map[string]*entry)}
}

func (s *MemoryStore) Load(ctx context.Context, sessionID, resource string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[sessionID]
	if !ok {
		return nil, false, nil
	}
	if s.ttl > 0 && s.now().After(e.expires) {
		delete(s.sessions, sessionID)
		return nil, false, nil
	}
	data, ok := e.resources[resource]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

func (s *MemoryStore) Save(ctx context.Context, sessionID, resource string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[sessionID]
	if !ok {
		e = &entry{resources: make(map[string][]byte)}
		s.sessions[sessionID] = e
	}
	e.resources[resource] = append([]byte(nil), data...)
	e.expires = s.now().Add(s.ttl)
	s.sweep()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// sweep drops expired sessions; callers hold s.mu.
func (s *MemoryStore) sweep() {
	if s.ttl <= 0 {
		return
	}
	now := s.now()
	for id, e := range s.sessions {
		if now.After(e.expires) {
			delete(s.sessions, id)
		}
	}
}

// MemoryLocker is the single-process Locker.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]bool
	ttl  time.Duration
}

func NewMemoryLocker(ttl time.Duration) *MemoryLocker {
	return &MemoryLocker{held: make(map[string]bool), ttl: ttl}
}

func (l *MemoryLocker) WithLock(ctx context.Context, sessionID, resource string, fn func(ctx context.Context) error) error {
	key := lockKey(sessionID, resource)

	l.mu.Lock()
	if l.held[key] {
		l.mu.Unlock()
		return ErrLocked
	}
	l.held[key] = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		delete(l.held, key)
		l.mu.Unlock()
	}()

	ctx, cancel := boundedContext(ctx, l.ttl)
	defer cancel()
	return fn(ctx)
}

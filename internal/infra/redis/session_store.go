package redis

import (
	"context"
	"sync"
	"time"

	"verbquiz-service/internal/app"

	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Sessions themselves stay in a local map so the in-process broadcast keeps
// working. Redis holds a liveness marker per session whose TTL is refreshed on
// every lookup; a marker that expired counts the session as idle.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Add(session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID()] = session
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(session.ID()), string(session.Mode()), s.ttl).Err()
}

func (s *SessionStore) Get(id string) (*app.Session, bool) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		_ = s.client.Expire(context.Background(), s.key(id), s.ttl).Err()
	}
	return session, ok
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	_ = s.client.Del(context.Background(), s.key(id)).Err()
}

// IdleSince reports sessions that were last active before cutoff or whose
// liveness marker is gone. Redis errors fall back to the local timestamps.
func (s *SessionStore) IdleSince(cutoff time.Time) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	var ids []string
	for id, session := range s.sessions {
		if session.LastActive().Before(cutoff) {
			ids = append(ids, id)
			continue
		}
		n, err := s.client.Exists(ctx, s.key(id)).Result()
		if err == nil && n == 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *SessionStore) key(id string) string {
	return "quiz:session:" + id
}

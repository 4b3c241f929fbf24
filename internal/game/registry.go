package game

import (
	"sync"
	"time"

	util "github.com/Knocktern/The-Quiet-Game/internal/util"
)

// Registry owns the set of live sessions. It is constructed once at
// process start and injected wherever room lookup is needed; creation
// and teardown go only through its methods. Lock order is always
// registry before session.
type Registry struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	roundTime time.Duration
}

func NewRegistry(roundTime time.Duration) *Registry {
	return &Registry{
		sessions:  make(map[string]*Session),
		roundTime: roundTime,
	}
}

// Get returns the live session for a room code, if any.
func (r *Registry) Get(roomCode string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[roomCode]
	return s, ok
}

// GetOrCreate returns the existing session or atomically creates one.
// Concurrent first-joins to the same code observe a single instance.
func (r *Registry) GetOrCreate(roomCode string) *Session {
	r.mu.RLock()
	s, ok := r.sessions[roomCode]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok = r.sessions[roomCode]; ok {
		return s
	}
	s = NewSession(roomCode, r.roundTime)
	r.sessions[roomCode] = s
	util.LogInfo("Created game session for room %s", roomCode)
	return s
}

// Join adds a player to the room's session, creating it if absent. The
// whole operation runs under the registry lock so it cannot race a
// concurrent RemoveIfEmpty tearing the same session down.
func (r *Registry) Join(roomCode, userID, username string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[roomCode]
	if !ok {
		s = NewSession(roomCode, r.roundTime)
		r.sessions[roomCode] = s
		util.LogInfo("Created game session for room %s", roomCode)
	}

	s.Lock()
	defer s.Unlock()
	added := s.AddPlayer(userID, username)
	s.Touch()
	return s, added
}

// RemoveIfEmpty deletes the session once its roster is empty. A join
// holding the registry lock blocks this, so a session with a player
// mid-add is never torn down.
func (r *Registry) RemoveIfEmpty(roomCode string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[roomCode]
	if !ok {
		return false
	}

	s.Lock()
	defer s.Unlock()
	if s.PlayerCount() > 0 {
		return false
	}
	delete(r.sessions, roomCode)
	util.LogInfo("Removed empty game session for room %s", roomCode)
	return true
}

// Count reports the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// CleanupIdle drops empty sessions whose last activity is older than
// ttl. Rooms with players are left alone regardless of age.
func (r *Registry) CleanupIdle(ttl time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-ttl)
	removed := 0
	for code, s := range r.sessions {
		s.Lock()
		idle := s.PlayerCount() == 0 && s.LastActivity().Before(cutoff)
		s.Unlock()
		if idle {
			delete(r.sessions, code)
			removed++
		}
	}

	if removed > 0 {
		util.LogInfo("Cleaned up %d idle game sessions", removed)
	}
	return removed
}

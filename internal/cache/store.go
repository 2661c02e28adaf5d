package cache

import (
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

type Tier int

const (
	Persistent Tier = iota
	PerSession
)

func (t Tier) String() string {
	if t == PerSession {
		return "session"
	}
	return "persistent"
}

type Stats struct {
	Hits   int
	Misses int
	Builds int
	Clears int
}

// Store is a two-tier key/value store. It holds no lock: every caller runs on
// the host's single update thread, and transports that are not single
// threaded serialise access before reaching it.
type Store struct {
	persistent map[string]any
	session    map[string]any
	building   map[string]struct{}
	sessionID  string
	stats      Stats
}

func New() *Store {
	return &Store{
		persistent: make(map[string]any),
		session:    make(map[string]any),
		building:   make(map[string]struct{}),
		sessionID:  newSessionID(),
	}
}

func (s *Store) tier(t Tier) map[string]any {
	if t == PerSession {
		return s.session
	}
	return s.persistent
}

func (s *Store) Get(t Tier, key string) (any, bool) {
	value, ok := s.tier(t)[key]
	return value, ok
}

func (s *Store) Put(t Tier, key string, value any) {
	s.tier(t)[key] = value
}

func (s *Store) Delete(t Tier, key string) {
	delete(s.tier(t), key)
}

func (s *Store) Len(t Tier) int {
	return len(s.tier(t))
}

// ClearSession wipes the per-session tier and starts a new session id. It is
// safe to call at any time, including before anything was cached.
func (s *Store) ClearSession() {
	previous := len(s.session)
	s.session = make(map[string]any)
	for key := range s.building {
		if isSessionKey(key) {
			delete(s.building, key)
		}
	}
	s.sessionID = newSessionID()
	s.stats.Clears++
	slog.Debug("session cache cleared", "session", s.sessionID, "dropped", previous)
}

func (s *Store) SessionID() string {
	return s.sessionID
}

func (s *Store) Stats() Stats {
	return s.stats
}

// GetOrBuild returns the cached value for key, running build only when the
// key is absent. A build reporting false is not cached and will run again on
// the next call. A nested call for a key that is already being built reports
// absent instead of recursing.
func GetOrBuild[T any](s *Store, t Tier, key string, build func() (T, bool)) (T, bool) {
	var zero T
	if value, ok := s.tier(t)[key]; ok {
		typed, ok := value.(T)
		if ok {
			s.stats.Hits++
			return typed, true
		}
	}
	s.stats.Misses++

	marker := buildingKey(t, key)
	if _, busy := s.building[marker]; busy {
		return zero, false
	}
	s.building[marker] = struct{}{}
	defer delete(s.building, marker)

	value, ok := build()
	if !ok {
		return zero, false
	}
	s.stats.Builds++
	s.tier(t)[key] = value
	return value, true
}

// Lookup is a typed Get.
func Lookup[T any](s *Store, t Tier, key string) (T, bool) {
	var zero T
	value, ok := s.tier(t)[key]
	if !ok {
		return zero, false
	}
	typed, ok := value.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

func buildingKey(t Tier, key string) string {
	return t.String() + "|" + key
}

func isSessionKey(marker string) bool {
	return strings.HasPrefix(marker, PerSession.String()+"|")
}

func newSessionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

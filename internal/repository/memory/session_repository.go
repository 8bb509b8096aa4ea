package memory

import (
	"time"

	"github.com/patrickmn/go-cache"

	"screentosong-be/pkg/store"
)

// DefaultSessionID backs clients that never send a session header, which
// keeps the single-browser demo flow working without any setup.
const DefaultSessionID = "default"

// SessionRepository keeps capture sessions in process memory. Sessions idle
// for the TTL are purged; lyric history is never persisted anywhere else.
type SessionRepository struct {
	cache *cache.Cache
	ttl   time.Duration
}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &SessionRepository{
		cache: cache.New(ttl, 10*time.Minute),
		ttl:   ttl,
	}
}

// GetOrCreate returns the session for id, creating it on first use. The
// expiration is refreshed on every access so an active capture loop never
// loses its history mid-session.
func (r *SessionRepository) GetOrCreate(id string) *store.Session {
	if id == "" {
		id = DefaultSessionID
	}
	if x, found := r.cache.Get(id); found {
		s := x.(*store.Session)
		r.cache.Set(id, s, cache.DefaultExpiration)
		return s
	}
	s := store.NewSession(id)
	r.cache.Set(id, s, cache.DefaultExpiration)
	return s
}

// Get returns the session for id without creating one.
func (r *SessionRepository) Get(id string) (*store.Session, bool) {
	if id == "" {
		id = DefaultSessionID
	}
	if x, found := r.cache.Get(id); found {
		return x.(*store.Session), true
	}
	return nil, false
}

// Delete drops a session entirely.
func (r *SessionRepository) Delete(id string) {
	if id == "" {
		id = DefaultSessionID
	}
	r.cache.Delete(id)
}

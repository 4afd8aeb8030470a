package federation

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

const defaultStateTTL = 10 * time.Minute

// StateStore issues single-use CSRF state tokens for the OAuth redirect
// dance and remembers the post-login redirect target for each.
type StateStore struct {
	cache *ttlcache.Cache[string, string]
}

// NewStateStore creates a state store; ttl <= 0 uses the default 10 minutes.
func NewStateStore(ttl time.Duration) *StateStore {
	if ttl <= 0 {
		ttl = defaultStateTTL
	}
	cache := ttlcache.New(
		ttlcache.WithTTL[string, string](ttl),
		ttlcache.WithDisableTouchOnHit[string, string](),
	)
	go cache.Start()
	return &StateStore{cache: cache}
}

// Issue mints an unguessable state token bound to the given redirect target.
func (s *StateStore) Issue(redirectTarget string) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	state := base64.URLEncoding.EncodeToString(b)
	s.cache.Set(state, redirectTarget, ttlcache.DefaultTTL)
	return state, nil
}

// Consume validates a state token and returns its redirect target. Tokens
// are single-use: a second Consume of the same state fails.
func (s *StateStore) Consume(state string) (string, error) {
	if state == "" {
		return "", ErrInvalidAuthState
	}
	item := s.cache.Get(state)
	if item == nil {
		return "", ErrInvalidAuthState
	}
	s.cache.Delete(state)
	return item.Value(), nil
}

// Stop shuts down the cache's expiry goroutine.
func (s *StateStore) Stop() { s.cache.Stop() }

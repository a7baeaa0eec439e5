package session

import (
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Store is a TTL-evicting registry of live sessions. Reads refresh a
// session's TTL, so only idle sessions expire.
type Store struct {
	cache *ttlcache.Cache[string, *Session]
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = time.Hour
	}
	c := ttlcache.New[string, *Session](
		ttlcache.WithTTL[string, *Session](ttl),
	)
	return &Store{cache: c}
}

// Start begins background eviction of expired sessions.
func (s *Store) Start() {
	go s.cache.Start()
}

// Stop halts background eviction.
func (s *Store) Stop() {
	s.cache.Stop()
}

func (s *Store) Put(sess *Session) {
	s.cache.Set(sess.ID, sess, ttlcache.DefaultTTL)
}

// Get returns the session or nil, refreshing its TTL on a hit.
func (s *Store) Get(id string) *Session {
	item := s.cache.Get(id)
	if item == nil {
		return nil
	}
	return item.Value()
}

func (s *Store) Delete(id string) {
	s.cache.Delete(id)
}

func (s *Store) Len() int {
	return s.cache.Len()
}

// Package session stores one search's full ranked result sequence per
// session id, enabling stable pagination across requests.
package session

import (
	"crypto/sha256"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/codesift/codesift/pkg/types"
)

const (
	// DefaultCapacity bounds the number of live sessions.
	DefaultCapacity = 1000

	// DefaultIdleTTL is shared with the overall search timeout default.
	DefaultIdleTTL = 30 * time.Second
)

// entry is the state of one session. It is exclusively owned by the cache;
// its mutex serializes requests against the same session id while requests
// against different ids proceed independently.
type entry struct {
	mu          sync.Mutex
	fingerprint [32]byte
	results     []types.ScoredResult
	cursor      int
	createdAt   time.Time
	lastAccess  time.Time
}

// Cache is the process-wide session store: LRU-capped, entries evicted after
// an idle timeout.
type Cache struct {
	mu      sync.RWMutex
	entries *lru.Cache[string, *entry]
	idleTTL time.Duration
	now     func() time.Time
}

// NewCache creates a session cache. Non-positive arguments select the
// defaults.
func NewCache(capacity int, idleTTL time.Duration) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	entries, err := lru.New[string, *entry](capacity)
	if err != nil {
		// Only reachable with an invalid size, which is guarded above.
		panic(err)
	}
	return &Cache{entries: entries, idleTTL: idleTTL, now: time.Now}
}

// Fingerprint hashes the query plus the options that shape its result
// sequence, so a re-used session id with a different query is detected.
func Fingerprint(query string, options ...string) [32]byte {
	var sb strings.Builder
	sb.WriteString(query)
	for _, opt := range options {
		sb.WriteString("|")
		sb.WriteString(opt)
	}
	return sha256.Sum256([]byte(sb.String()))
}

// Advance serves the next page of an existing session. It locks the session,
// verifies the fingerprint, and hands the remaining ranked results to serve;
// serve returns how many results it consumed and the cursor advances by that
// amount. Advance returns false when there is no usable entry: the id is
// unknown, the entry idled out, or the fingerprint no longer matches (the
// stale entry is dropped so the caller can recompute and Store transparently).
func (c *Cache) Advance(id string, fingerprint [32]byte, serve func(remaining []types.ScoredResult) int) bool {
	c.mu.RLock()
	e, ok := c.entries.Get(id)
	c.mu.RUnlock()
	if !ok {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := c.now()
	if now.Sub(e.lastAccess) > c.idleTTL || e.fingerprint != fingerprint {
		c.remove(id)
		return false
	}

	e.lastAccess = now
	served := serve(e.results[e.cursor:])
	if served < 0 {
		served = 0
	}
	if served > len(e.results)-e.cursor {
		served = len(e.results) - e.cursor
	}
	e.cursor += served
	return true
}

// Store records a freshly computed ranked sequence under the session id,
// replacing any previous entry. The results are owned by the session until
// eviction.
func (c *Cache) Store(id string, fingerprint [32]byte, results []types.ScoredResult) {
	now := c.now()
	e := &entry{
		fingerprint: fingerprint,
		results:     results,
		createdAt:   now,
		lastAccess:  now,
	}
	c.mu.Lock()
	c.entries.Add(id, e)
	c.mu.Unlock()
}

// Remove drops a session.
func (c *Cache) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Remove(id)
}

func (c *Cache) remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Remove(id)
}

// Len reports the number of live sessions.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries.Len()
}

// Purge drops every session.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Purge()
}

// Package keyspace implements the core in-memory, typed key/value store:
// strings with optional TTL, lists, sets, and hashes, under one exclusive
// lock (§4.3).
package keyspace

import (
	"sync"
	"time"
)

// Store is the single logical map from key to typed Entry, guarded by one
// exclusive lock for the full duration of each operation (§5). A Store is
// safe for concurrent use by many connection tasks.
type Store struct {
	mu   sync.Mutex
	data map[string]*entry
	now  func() time.Time // overridable for tests; defaults to time.Now
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		data: make(map[string]*entry),
		now:  time.Now,
	}
}

// lookup returns the live entry for k, lazily reaping it first if its TTL
// has passed. Caller must hold mu.
func (s *Store) lookup(k string) (*entry, bool) {
	e, ok := s.data[k]
	if !ok {
		return nil, false
	}
	if e.hasTTL && e.expiresAt <= s.now().UnixNano() {
		delete(s.data, k)
		return nil, false
	}
	return e, true
}

// dropIfEmpty removes e from the keyspace if its container went empty,
// satisfying the "empty containers do not persist" invariant (§3).
func (s *Store) dropIfEmpty(k string, e *entry) {
	if e.empty() {
		delete(s.data, k)
	}
}

// Set stores v under k as a String, replacing any existing Entry
// unconditionally. ttl is the duration until expiry, or 0 for no expiry.
func (s *Store) Set(k string, v []byte, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := &entry{kind: KindString, str: append([]byte(nil), v...)}
	if ttl > 0 {
		e.hasTTL = true
		e.expiresAt = s.now().Add(ttl).UnixNano()
	}
	s.data[k] = e
}

// Get returns the string stored at k. A non-string value is reported as
// absent per the lenient wrong-type policy (§7).
func (s *Store) Get(k string) (val []byte, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, found := s.lookup(k)
	if !found || e.kind != KindString {
		return nil, false
	}
	return append([]byte(nil), e.str...), true
}

// Del removes each key in ks that exists (lazy-expired keys count as
// absent) and returns the number actually removed.
func (s *Store) Del(ks ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, k := range ks {
		if _, found := s.lookup(k); found {
			delete(s.data, k)
			n++
		}
	}
	return n
}

// Exists reports whether k currently holds a live Entry.
func (s *Store) Exists(k string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, found := s.lookup(k)
	return found
}

// Type returns the kind of k, or KindNone if absent or expired.
func (s *Store) Type(k string) Kind {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, found := s.lookup(k)
	if !found {
		return KindNone
	}
	return e.kind
}

// DBSize returns the raw entry count, including not-yet-reaped expired keys
// (§4.3: "does not lazy-sweep").
func (s *Store) DBSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.data)
}

// FlushDB removes every Entry.
func (s *Store) FlushDB() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string]*entry)
}

// Keys returns every key whose name matches the glob pattern. Like DBSize,
// this does not lazy-sweep; it includes not-yet-reaped expired keys.
func (s *Store) Keys(pattern string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.data))
	for k := range s.data {
		if globMatch(pattern, k) {
			out = append(out, k)
		}
	}
	return out
}

// getOrCreate returns the entry at k if it has the expected kind, creating
// an empty one of that kind if absent. If k holds a different live kind,
// ok is false and the caller must apply the wrong-type policy itself.
func (s *Store) getOrCreate(k string, kind Kind) (e *entry, ok bool) {
	cur, found := s.lookup(k)
	if found {
		if cur.kind != kind {
			return nil, false
		}
		return cur, true
	}
	e = newEmpty(kind)
	s.data[k] = e
	return e, true
}

func newEmpty(kind Kind) *entry {
	switch kind {
	case KindList:
		return &entry{kind: KindList}
	case KindSet:
		return &entry{kind: KindSet, set: make(map[string]struct{})}
	case KindHash:
		return &entry{kind: KindHash, hash: make(map[string][]byte)}
	default:
		return &entry{kind: kind}
	}
}

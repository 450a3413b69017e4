package keyspace

// HSet sets field to value in the hash at k and reports whether field was
// newly created (false if it already existed and was merely updated).
func (s *Store) HSet(k, field string, value []byte) (created bool, wrongType bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.getOrCreate(k, KindHash)
	if !ok {
		return false, true
	}
	_, existed := e.hash[field]
	e.hash[field] = append([]byte(nil), value...)
	return !existed, false
}

// HGet returns the value of field in the hash at k.
func (s *Store) HGet(k, field string) (val []byte, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, found := s.lookup(k)
	if !found || e.kind != KindHash {
		return nil, false
	}
	v, exists := e.hash[field]
	if !exists {
		return nil, false
	}
	return append([]byte(nil), v...), true
}

// HGetAll returns every (field, value) pair in the hash at k, in
// unspecified order.
func (s *Store) HGetAll(k string) []HashEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, found := s.lookup(k)
	if !found || e.kind != KindHash {
		return nil
	}
	out := make([]HashEntry, 0, len(e.hash))
	for f, v := range e.hash {
		out = append(out, HashEntry{Field: f, Value: append([]byte(nil), v...)})
	}
	return out
}

// HashEntry is one field/value pair returned by HGetAll.
type HashEntry struct {
	Field string
	Value []byte
}

// HDel removes each field present in the hash at k and returns the count
// removed; an emptied hash is removed from the keyspace.
func (s *Store) HDel(k string, fields ...string) (removed int, wrongType bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, found := s.lookup(k)
	if !found {
		return 0, false
	}
	if e.kind != KindHash {
		return 0, true
	}
	for _, f := range fields {
		if _, exists := e.hash[f]; exists {
			delete(e.hash, f)
			removed++
		}
	}
	s.dropIfEmpty(k, e)
	return removed, false
}

// HExists reports whether field belongs to the hash at k.
func (s *Store) HExists(k, field string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, found := s.lookup(k)
	if !found || e.kind != KindHash {
		return false
	}
	_, exists := e.hash[field]
	return exists
}

// HLen returns the hash's field count, or 0 if absent/wrong-typed.
func (s *Store) HLen(k string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, found := s.lookup(k)
	if !found || e.kind != KindHash {
		return 0
	}
	return len(e.hash)
}

package keyspace

// SAdd adds each member to the set at k and returns the count newly
// inserted (duplicates within ms or already-present members don't count
// twice). A wrong-typed existing key reports 0 without modification.
func (s *Store) SAdd(k string, ms ...string) (added int, wrongType bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.getOrCreate(k, KindSet)
	if !ok {
		return 0, true
	}
	for _, m := range ms {
		if _, exists := e.set[m]; !exists {
			e.set[m] = struct{}{}
			added++
		}
	}
	return added, false
}

// SRem removes each member present in the set at k and returns the count
// removed; an emptied set is removed from the keyspace.
func (s *Store) SRem(k string, ms ...string) (removed int, wrongType bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, found := s.lookup(k)
	if !found {
		return 0, false
	}
	if e.kind != KindSet {
		return 0, true
	}
	for _, m := range ms {
		if _, exists := e.set[m]; exists {
			delete(e.set, m)
			removed++
		}
	}
	s.dropIfEmpty(k, e)
	return removed, false
}

// SMembers returns all members of the set at k, in unspecified order.
func (s *Store) SMembers(k string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, found := s.lookup(k)
	if !found || e.kind != KindSet {
		return nil
	}
	out := make([]string, 0, len(e.set))
	for m := range e.set {
		out = append(out, m)
	}
	return out
}

// SIsMember reports whether m belongs to the set at k.
func (s *Store) SIsMember(k, m string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, found := s.lookup(k)
	if !found || e.kind != KindSet {
		return false
	}
	_, exists := e.set[m]
	return exists
}

// SCard returns the set's member count, or 0 if absent/wrong-typed.
func (s *Store) SCard(k string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, found := s.lookup(k)
	if !found || e.kind != KindSet {
		return 0
	}
	return len(e.set)
}

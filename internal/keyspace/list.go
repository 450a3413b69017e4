package keyspace

// LPush pushes each of vs onto the head of the list at k, one at a time in
// argument order — so `LPush(k, a, b, c)` leaves the list `c b a ...`
// (§4.5). A wrong-typed existing key leaves the Entry untouched and
// reports 0 (lenient policy, §7).
func (s *Store) LPush(k string, vs ...[]byte) (newLen int, wrongType bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.getOrCreate(k, KindList)
	if !ok {
		return 0, true
	}
	for _, v := range vs {
		e.list = append([][]byte{append([]byte(nil), v...)}, e.list...)
	}
	return len(e.list), false
}

// RPush appends each of vs onto the tail of the list at k in argument
// order.
func (s *Store) RPush(k string, vs ...[]byte) (newLen int, wrongType bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.getOrCreate(k, KindList)
	if !ok {
		return 0, true
	}
	for _, v := range vs {
		e.list = append(e.list, append([]byte(nil), v...))
	}
	return len(e.list), false
}

// LPop removes and returns the head element, or absent if the list is
// empty or k does not exist. An empty resulting list is removed from the
// keyspace (§3).
func (s *Store) LPop(k string) (val []byte, ok bool) {
	return s.listPop(k, true)
}

// RPop removes and returns the tail element.
func (s *Store) RPop(k string) (val []byte, ok bool) {
	return s.listPop(k, false)
}

func (s *Store) listPop(k string, fromHead bool) (val []byte, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, found := s.lookup(k)
	if !found || e.kind != KindList || len(e.list) == 0 {
		return nil, false
	}

	if fromHead {
		val = e.list[0]
		e.list = e.list[1:]
	} else {
		last := len(e.list) - 1
		val = e.list[last]
		e.list = e.list[:last]
	}
	s.dropIfEmpty(k, e)
	return val, true
}

// LLen returns the list length, or 0 if k is absent or wrong-typed (§4.5).
func (s *Store) LLen(k string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, found := s.lookup(k)
	if !found || e.kind != KindList {
		return 0
	}
	return len(e.list)
}

// LRange returns the inclusive slice [start, stop] of the list, with
// Python-style end-relative negative indices and clamping to the list
// bounds; an inverted range after resolution yields an empty result
// (§4.3, §8 "LRANGE clamp").
func (s *Store) LRange(k string, start, stop int64) [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, found := s.lookup(k)
	if !found || e.kind != KindList {
		return nil
	}

	n := int64(len(e.list))
	if n == 0 {
		return nil
	}

	start = clampIndex(start, n)
	stop = clampIndex(stop, n)
	if start > stop || start >= n {
		return nil
	}
	if stop >= n {
		stop = n - 1
	}
	if start < 0 {
		start = 0
	}

	out := make([][]byte, 0, stop-start+1)
	for i := start; i <= stop; i++ {
		out = append(out, append([]byte(nil), e.list[i]...))
	}
	return out
}

// clampIndex resolves a possibly-negative index against a sequence of
// length n into an absolute index: negative values count from the end and
// anything still below zero becomes 0. Values at or beyond n are returned
// unchanged; the caller clamps or rejects them.
func clampIndex(i, n int64) int64 {
	if i < 0 {
		i = n + i
	}
	if i < 0 {
		i = 0
	}
	return i
}

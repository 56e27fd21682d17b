package realtime

// seenSet is a bounded set of recently observed dedup keys with FIFO
// eviction. Not safe for concurrent use; the channel guards it.
type seenSet struct {
	cap   int
	keys  map[int64]struct{}
	order []int64
}

func newSeenSet(cap int) *seenSet {
	return &seenSet{cap: cap, keys: make(map[int64]struct{}, cap)}
}

// observe records key and reports whether it had been seen already.
func (s *seenSet) observe(key int64) bool {
	if _, ok := s.keys[key]; ok {
		return true
	}
	if len(s.order) >= s.cap {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.keys, oldest)
	}
	s.keys[key] = struct{}{}
	s.order = append(s.order, key)
	return false
}

func (s *seenSet) clear() {
	s.keys = make(map[int64]struct{}, s.cap)
	s.order = s.order[:0]
}

package combinator

// Combinator expands declarative variable input into a finite sequence of
// concrete variable sets.
type Combinator interface {
	// Sequence returns a fresh iterator over the variable sets. Every call
	// yields the identical sequence; iterators never share a cursor.
	Sequence() *Sequence

	// Len returns the number of variable sets the sequence produces.
	Len() int
}

// Sequence iterates variable sets. Each yielded map is owned by the
// caller.
type Sequence struct {
	length int
	at     func(i int) map[string]any
	next   int
}

// Next returns the next variable set, or false when the sequence is
// exhausted.
func (s *Sequence) Next() (map[string]any, bool) {
	if s.next >= s.length {
		return nil, false
	}
	set := s.at(s.next)
	s.next++
	return set, true
}

// Collect drains the sequence into a slice.
func (s *Sequence) Collect() []map[string]any {
	sets := make([]map[string]any, 0, s.length-s.next)
	for {
		set, ok := s.Next()
		if !ok {
			return sets
		}
		sets = append(sets, set)
	}
}

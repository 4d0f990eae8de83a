// Copyright © 2018 The ELPS authors

package lang

// PersistentHashSet is an immutable unordered set.  Members are stored as
// keys of a PersistentHashMap mapping each member to itself.
type PersistentHashSet struct {
	meta IPersistentMap
	impl *PersistentHashMap
}

// EmptySet is the empty set without metadata.
var EmptySet = &PersistentHashSet{impl: EmptyHashMap}

// SetOf returns a set of xs.  Duplicate values are collapsed.
func SetOf(xs ...interface{}) *PersistentHashSet {
	s := EmptySet
	for _, x := range xs {
		s = s.Conj(x)
	}
	return s
}

// Count implements Counted.
func (s *PersistentHashSet) Count() int {
	return s.impl.Count()
}

// Conj returns a set including x.  The receiver is returned when x is
// already a member.
func (s *PersistentHashSet) Conj(x interface{}) *PersistentHashSet {
	if s.impl.ContainsKey(x) {
		return s
	}
	return &PersistentHashSet{meta: s.meta, impl: s.impl.Assoc(x, x)}
}

// Disj returns a set without x.
func (s *PersistentHashSet) Disj(x interface{}) *PersistentHashSet {
	impl := s.impl.Without(x)
	if impl == s.impl {
		return s
	}
	return &PersistentHashSet{meta: s.meta, impl: impl}
}

// Contains reports whether x is a member.
func (s *PersistentHashSet) Contains(x interface{}) bool {
	return s.impl.ContainsKey(x)
}

// Get returns the member equal to x, or nil.
func (s *PersistentHashSet) Get(x interface{}) interface{} {
	return s.impl.ValAt(x)
}

// Seq implements Seqable.
func (s *PersistentHashSet) Seq() Seq {
	return KeySeq(s.impl.Seq())
}

// Empty returns the empty set carrying s's metadata.
func (s *PersistentHashSet) Empty() *PersistentHashSet {
	return EmptySet.WithMeta(s.meta)
}

// Meta implements IMeta.
func (s *PersistentHashSet) Meta() IPersistentMap {
	return s.meta
}

// WithMeta returns a copy of s carrying meta.
func (s *PersistentHashSet) WithMeta(meta IPersistentMap) *PersistentHashSet {
	if meta == s.meta {
		return s
	}
	return &PersistentHashSet{meta: meta, impl: s.impl}
}

// Equiv implements Equiver.  Sets equal sets with the same members.
func (s *PersistentHashSet) Equiv(o interface{}) bool {
	other, ok := o.(*PersistentHashSet)
	if !ok || other.Count() != s.Count() {
		return false
	}
	for x := s.Seq(); x != nil; x = x.Next() {
		if !other.Contains(x.First()) {
			return false
		}
	}
	return true
}

// Hash implements Hasher.
func (s *PersistentHashSet) Hash() uint32 {
	var h uint32
	for x := s.Seq(); x != nil; x = x.Next() {
		h += Hash(x.First())
	}
	return h
}

// Invoke returns its argument when it is a member, otherwise nil.
func (s *PersistentHashSet) Invoke(t *Thread, args ...interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, Arityf("wrong number of args (%d) passed to set", len(args))
	}
	return s.Get(args[0]), nil
}

func (s *PersistentHashSet) String() string {
	return PrintString(s)
}

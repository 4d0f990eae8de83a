// Copyright © 2018 The ELPS authors

package lang

// Sequential is implemented by ordered collections that compare equal to
// each other element by element: lists, vectors, map entries and seqs.
type Sequential interface {
	sequential()
}

// SeqEquiv compares s element-wise against any sequential value o.  The
// comparison stops at the first mismatch and requires both sides to have the
// same length.
func SeqEquiv(s Seq, o interface{}) bool {
	if _, ok := o.(Sequential); !ok {
		return false
	}
	var os Seq
	switch o := o.(type) {
	case Seqable:
		os = o.Seq()
	case Seq:
		os = o
	}
	for ; s != nil; s = s.Next() {
		if os == nil || !Equiv(s.First(), os.First()) {
			return false
		}
		os = os.Next()
	}
	return os == nil
}

// SeqHash is an order sensitive polynomial hash over the elements of s.
func SeqHash(s Seq) uint32 {
	h := ^uint32(0)
	for ; s != nil; s = s.Next() {
		h = 31*h + Hash(s.First())
	}
	return h
}

// SeqCount counts the elements of s, in constant time when s is Counted.
func SeqCount(s Seq) int {
	n := 0
	for ; s != nil; s = s.Next() {
		if c, ok := s.(Counted); ok {
			return n + c.Count()
		}
		n++
	}
	return n
}

// SeqSlice collects the elements of s into a slice.
func SeqSlice(s Seq) []interface{} {
	var out []interface{}
	for ; s != nil; s = s.Next() {
		out = append(out, s.First())
	}
	return out
}

// IndexedSeq is a Seq over an Indexed collection starting at position I.
type IndexedSeq struct {
	coll Indexed
	i    int
}

// NewIndexedSeq returns a seq over coll from index i, or nil when i is past
// the end.
func NewIndexedSeq(coll Indexed, i int) Seq {
	if i >= coll.Count() {
		return nil
	}
	return &IndexedSeq{coll: coll, i: i}
}

func (s *IndexedSeq) sequential() {}

// First implements Seq.
func (s *IndexedSeq) First() interface{} {
	return s.coll.NthOr(s.i, nil)
}

// Next implements Seq.
func (s *IndexedSeq) Next() Seq {
	if s.i+1 >= s.coll.Count() {
		return nil
	}
	return &IndexedSeq{coll: s.coll, i: s.i + 1}
}

// Index returns the position of the seq's head in the collection.
func (s *IndexedSeq) Index() int { return s.i }

// Count implements Counted.
func (s *IndexedSeq) Count() int { return s.coll.Count() - s.i }

// Equiv implements Equiver.
func (s *IndexedSeq) Equiv(o interface{}) bool { return SeqEquiv(s, o) }

// Hash implements Hasher.
func (s *IndexedSeq) Hash() uint32 { return SeqHash(s) }

func (s *IndexedSeq) String() string { return PrintString(s) }

// reverseIndexedSeq walks an Indexed collection from position i down to 0.
type reverseIndexedSeq struct {
	coll Indexed
	i    int
}

func newReverseIndexedSeq(coll Indexed) Seq {
	if coll.Count() == 0 {
		return nil
	}
	return &reverseIndexedSeq{coll: coll, i: coll.Count() - 1}
}

func (s *reverseIndexedSeq) sequential() {}

func (s *reverseIndexedSeq) First() interface{} {
	return s.coll.NthOr(s.i, nil)
}

func (s *reverseIndexedSeq) Next() Seq {
	if s.i == 0 {
		return nil
	}
	return &reverseIndexedSeq{coll: s.coll, i: s.i - 1}
}

func (s *reverseIndexedSeq) Count() int                { return s.i + 1 }
func (s *reverseIndexedSeq) Equiv(o interface{}) bool { return SeqEquiv(s, o) }
func (s *reverseIndexedSeq) Hash() uint32             { return SeqHash(s) }
func (s *reverseIndexedSeq) String() string           { return PrintString(s) }

// ArraySeq is a Seq over a Go slice.  The slice must not be modified after
// the seq is created.
type ArraySeq struct {
	arr []interface{}
	i   int
}

// NewArraySeq returns a seq over arr, or nil when arr is empty.
func NewArraySeq(arr []interface{}) Seq {
	if len(arr) == 0 {
		return nil
	}
	return &ArraySeq{arr: arr}
}

func (s *ArraySeq) sequential() {}

// First implements Seq.
func (s *ArraySeq) First() interface{} { return s.arr[s.i] }

// Next implements Seq.
func (s *ArraySeq) Next() Seq {
	if s.i+1 >= len(s.arr) {
		return nil
	}
	return &ArraySeq{arr: s.arr, i: s.i + 1}
}

// Count implements Counted.
func (s *ArraySeq) Count() int                { return len(s.arr) - s.i }
func (s *ArraySeq) Equiv(o interface{}) bool { return SeqEquiv(s, o) }
func (s *ArraySeq) Hash() uint32             { return SeqHash(s) }
func (s *ArraySeq) String() string           { return PrintString(s) }

// Cons prepends an element to a seq.
type Cons struct {
	first interface{}
	more  Seq
	meta  IPersistentMap
}

// NewCons returns a seq with x followed by the elements of more.
func NewCons(x interface{}, more Seq) *Cons {
	return &Cons{first: x, more: more}
}

func (c *Cons) sequential() {}

// First implements Seq.
func (c *Cons) First() interface{} { return c.first }

// Next implements Seq.
func (c *Cons) Next() Seq { return c.more }

// Seq implements Seqable.
func (c *Cons) Seq() Seq { return c }

// Meta implements IMeta.
func (c *Cons) Meta() IPersistentMap { return c.meta }

// WithMeta returns a copy of c carrying meta.
func (c *Cons) WithMeta(meta IPersistentMap) *Cons {
	if meta == c.meta {
		return c
	}
	return &Cons{first: c.first, more: c.more, meta: meta}
}

func (c *Cons) Equiv(o interface{}) bool { return SeqEquiv(c, o) }
func (c *Cons) Hash() uint32             { return SeqHash(c) }
func (c *Cons) String() string           { return PrintString(c) }

// mappedSeq projects each element of a seq of map entries.
type mappedSeq struct {
	s    Seq
	proj func(*MapEntry) interface{}
}

func (s *mappedSeq) sequential() {}

func (s *mappedSeq) First() interface{} {
	return s.proj(s.s.First().(*MapEntry))
}

func (s *mappedSeq) Next() Seq {
	next := s.s.Next()
	if next == nil {
		return nil
	}
	return &mappedSeq{s: next, proj: s.proj}
}

func (s *mappedSeq) Equiv(o interface{}) bool { return SeqEquiv(s, o) }
func (s *mappedSeq) Hash() uint32             { return SeqHash(s) }
func (s *mappedSeq) String() string           { return PrintString(s) }

// KeySeq returns the keys of a seq of map entries, or nil when s is nil.
func KeySeq(s Seq) Seq {
	if s == nil {
		return nil
	}
	return &mappedSeq{s: s, proj: (*MapEntry).Key}
}

// ValSeq returns the values of a seq of map entries, or nil when s is nil.
func ValSeq(s Seq) Seq {
	if s == nil {
		return nil
	}
	return &mappedSeq{s: s, proj: (*MapEntry).Val}
}

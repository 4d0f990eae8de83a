// Copyright © 2018 The ELPS authors

package lang

// SubVec is a window [start, end) over a PersistentVector.  Taking a SubVec
// of a SubVec produces a window over the same backing vector.
type SubVec struct {
	meta  IPersistentMap
	v     *PersistentVector
	start int
	end   int
}

func (sv *SubVec) sequential() {}

// SubVec returns a view of the elements in [start, end) of sv.
func (sv *SubVec) SubVec(start, end int) (*SubVec, error) {
	if start < 0 || end > sv.Count() || start > end {
		return nil, &IndexOutOfRangeError{Index: end, Count: sv.Count()}
	}
	return &SubVec{meta: sv.meta, v: sv.v, start: sv.start + start, end: sv.start + end}, nil
}

// Backing returns the underlying vector and the window's offsets into it.
func (sv *SubVec) Backing() (*PersistentVector, int, int) {
	return sv.v, sv.start, sv.end
}

// Count implements Counted.
func (sv *SubVec) Count() int {
	return sv.end - sv.start
}

// Nth returns the element at index i of the window.
func (sv *SubVec) Nth(i int) (interface{}, error) {
	if i < 0 || sv.start+i >= sv.end {
		return nil, &IndexOutOfRangeError{Index: i, Count: sv.Count()}
	}
	return sv.v.Nth(sv.start + i)
}

// NthOr returns the element at index i, or notFound when i is out of range.
func (sv *SubVec) NthOr(i int, notFound interface{}) interface{} {
	x, err := sv.Nth(i)
	if err != nil {
		return notFound
	}
	return x
}

// AssocN returns a window with val at index i.  An index equal to the count
// appends.
func (sv *SubVec) AssocN(i int, val interface{}) (IPersistentVector, error) {
	switch {
	case i < 0 || sv.start+i > sv.end:
		return nil, &IndexOutOfRangeError{Index: i, Count: sv.Count()}
	case sv.start+i == sv.end:
		return sv.Cons(val), nil
	}
	v, err := sv.v.assocN(sv.start+i, val)
	if err != nil {
		return nil, err
	}
	return &SubVec{meta: sv.meta, v: v, start: sv.start, end: sv.end}, nil
}

// Cons returns a window with val appended.  The value is written into the
// backing vector just past the window.
func (sv *SubVec) Cons(val interface{}) IPersistentVector {
	v, err := sv.v.assocN(sv.end, val)
	if err != nil {
		panic(err)
	}
	return &SubVec{meta: sv.meta, v: v, start: sv.start, end: sv.end + 1}
}

// Pop returns the window without its last element.
func (sv *SubVec) Pop() (IPersistentVector, error) {
	switch {
	case sv.end == sv.start:
		return nil, IllegalStatef("can't pop empty vector")
	case sv.end-1 == sv.start:
		return EmptyVector.WithMeta(sv.meta), nil
	}
	return &SubVec{meta: sv.meta, v: sv.v, start: sv.start, end: sv.end - 1}, nil
}

// Peek returns the last element of the window.
func (sv *SubVec) Peek() interface{} {
	if sv.end == sv.start {
		return nil
	}
	return sv.v.NthOr(sv.end-1, nil)
}

// Seq implements Seqable.
func (sv *SubVec) Seq() Seq {
	return NewIndexedSeq(sv, 0)
}

// RSeq returns the elements in reverse order.
func (sv *SubVec) RSeq() Seq {
	return newReverseIndexedSeq(sv)
}

// Empty returns the empty vector carrying sv's metadata.
func (sv *SubVec) Empty() *PersistentVector {
	return EmptyVector.WithMeta(sv.meta)
}

// Meta implements IMeta.
func (sv *SubVec) Meta() IPersistentMap {
	return sv.meta
}

// WithMeta returns a window carrying meta.  The receiver is returned when
// meta is already its metadata.
func (sv *SubVec) WithMeta(meta IPersistentMap) *SubVec {
	if meta == sv.meta {
		return sv
	}
	return &SubVec{meta: meta, v: sv.v, start: sv.start, end: sv.end}
}

// Equiv implements Equiver.
func (sv *SubVec) Equiv(o interface{}) bool {
	return indexedEquiv(sv, o)
}

// Hash implements Hasher.
func (sv *SubVec) Hash() uint32 {
	return SeqHash(sv.Seq())
}

// Invoke returns the element at the index given as the only argument.
func (sv *SubVec) Invoke(t *Thread, args ...interface{}) (interface{}, error) {
	return invokeIndexed(sv, args)
}

func (sv *SubVec) String() string {
	return PrintString(sv)
}

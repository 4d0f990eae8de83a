// Copyright © 2018 The ELPS authors

package lang

// PersistentList is an immutable singly linked list with a constant time
// count.  The empty list has count zero.
type PersistentList struct {
	first interface{}
	rest  *PersistentList
	count int
	meta  IPersistentMap
}

// EmptyList is the empty list without metadata.
var EmptyList = &PersistentList{}

// ListOf returns a list of xs in order.
func ListOf(xs ...interface{}) *PersistentList {
	l := EmptyList
	for i := len(xs) - 1; i >= 0; i-- {
		l = l.Cons(xs[i])
	}
	return l
}

func (l *PersistentList) sequential() {}

// First implements Seq.  The empty list's first element is nil.
func (l *PersistentList) First() interface{} {
	return l.first
}

// Next implements Seq.
func (l *PersistentList) Next() Seq {
	if l.count <= 1 {
		return nil
	}
	return l.rest
}

// Rest returns the list without its first element.  The rest of an empty
// or single element list is the empty list.
func (l *PersistentList) Rest() *PersistentList {
	if l.count <= 1 {
		return EmptyList
	}
	return l.rest
}

// Seq implements Seqable.
func (l *PersistentList) Seq() Seq {
	if l.count == 0 {
		return nil
	}
	return l
}

// Count implements Counted.
func (l *PersistentList) Count() int {
	return l.count
}

// Cons returns a list with x at its head.
func (l *PersistentList) Cons(x interface{}) *PersistentList {
	return &PersistentList{first: x, rest: l, count: l.count + 1, meta: l.meta}
}

// Peek returns the first element of the list.
func (l *PersistentList) Peek() interface{} {
	return l.first
}

// Pop returns the list without its first element.
func (l *PersistentList) Pop() (*PersistentList, error) {
	if l.count == 0 {
		return nil, IllegalStatef("can't pop empty list")
	}
	if l.count == 1 {
		return EmptyList.WithMeta(l.meta), nil
	}
	return l.rest.WithMeta(l.meta), nil
}

// Nth returns the element at position i.
func (l *PersistentList) Nth(i int) (interface{}, error) {
	if i < 0 || i >= l.count {
		return nil, &IndexOutOfRangeError{Index: i, Count: l.count}
	}
	for ; i > 0; i-- {
		l = l.rest
	}
	return l.first, nil
}

// Slice returns the elements of the list as a slice.
func (l *PersistentList) Slice() []interface{} {
	out := make([]interface{}, 0, l.count)
	for ; l != nil && l.count > 0; l = l.rest {
		out = append(out, l.first)
	}
	return out
}

// Empty returns the empty list carrying l's metadata.
func (l *PersistentList) Empty() *PersistentList {
	return EmptyList.WithMeta(l.meta)
}

// Meta implements IMeta.
func (l *PersistentList) Meta() IPersistentMap {
	return l.meta
}

// WithMeta returns a copy of l carrying meta.
func (l *PersistentList) WithMeta(meta IPersistentMap) *PersistentList {
	if meta == l.meta {
		return l
	}
	return &PersistentList{first: l.first, rest: l.rest, count: l.count, meta: meta}
}

// Equiv implements Equiver.
func (l *PersistentList) Equiv(o interface{}) bool {
	if c, ok := o.(Counted); ok && c.Count() != l.count {
		if _, isSeq := o.(Sequential); isSeq {
			return false
		}
	}
	return SeqEquiv(l.Seq(), o)
}

// Hash implements Hasher.
func (l *PersistentList) Hash() uint32 {
	return SeqHash(l.Seq())
}

func (l *PersistentList) String() string {
	return PrintString(l)
}

// Copyright © 2018 The ELPS authors

package lang

// MapEntry is a key/value pair.  It behaves as a two element vector and
// only builds a PersistentVector when it is modified.
type MapEntry struct {
	key interface{}
	val interface{}
}

// NewMapEntry returns the pair (key, val).
func NewMapEntry(key, val interface{}) *MapEntry {
	return &MapEntry{key: key, val: val}
}

func (e *MapEntry) sequential() {}

// Key returns the entry's key.
func (e *MapEntry) Key() interface{} { return e.key }

// Val returns the entry's value.
func (e *MapEntry) Val() interface{} { return e.val }

// Count implements Counted.
func (e *MapEntry) Count() int { return 2 }

// Nth returns the key at index 0 and the value at index 1.
func (e *MapEntry) Nth(i int) (interface{}, error) {
	switch i {
	case 0:
		return e.key, nil
	case 1:
		return e.val, nil
	}
	return nil, &IndexOutOfRangeError{Index: i, Count: 2}
}

// NthOr returns the element at index i, or notFound when i is out of range.
func (e *MapEntry) NthOr(i int, notFound interface{}) interface{} {
	x, err := e.Nth(i)
	if err != nil {
		return notFound
	}
	return x
}

// AsVector returns the entry as the vector [key val].
func (e *MapEntry) AsVector() *PersistentVector {
	return VectorOf(e.key, e.val)
}

// AssocN implements IPersistentVector.
func (e *MapEntry) AssocN(i int, val interface{}) (IPersistentVector, error) {
	return e.AsVector().AssocN(i, val)
}

// Cons implements IPersistentVector.
func (e *MapEntry) Cons(val interface{}) IPersistentVector {
	return e.AsVector().Cons(val)
}

// Pop returns the vector [key].
func (e *MapEntry) Pop() (IPersistentVector, error) {
	return VectorOf(e.key), nil
}

// Peek returns the value.
func (e *MapEntry) Peek() interface{} { return e.val }

// Seq implements Seqable.
func (e *MapEntry) Seq() Seq {
	return &IndexedSeq{coll: e}
}

// Empty returns nil.  There is no empty map entry.
func (e *MapEntry) Empty() IPersistentVector { return nil }

// Equiv implements Equiver.
func (e *MapEntry) Equiv(o interface{}) bool { return indexedEquiv(e, o) }

// Hash implements Hasher.
func (e *MapEntry) Hash() uint32 { return SeqHash(e.Seq()) }

func (e *MapEntry) String() string { return PrintString(e) }

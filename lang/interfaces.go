// Copyright © 2018 The ELPS authors

package lang

// Seq is a traversal view over a collection.  Next returns nil at the end of
// the sequence.  A Seq may be restarted from its head but a partially
// consumed Seq is not reset.
type Seq interface {
	First() interface{}
	Next() Seq
}

// Seqable values produce a Seq over their contents.  Seq returns nil for an
// empty collection.
type Seqable interface {
	Seq() Seq
}

// Counted values report their element count in constant time.
type Counted interface {
	Count() int
}

// Indexed values support positional access.
type Indexed interface {
	Counted
	Nth(i int) (interface{}, error)
	NthOr(i int, notFound interface{}) interface{}
}

// IPersistentMap is the read interface shared by the persistent map types.
// It is used for metadata and for generic lookup in builtins.
type IPersistentMap interface {
	Counted
	Seqable
	ValAt(key interface{}) interface{}
	ValAtOr(key interface{}, notFound interface{}) interface{}
	ContainsKey(key interface{}) bool
	EntryAt(key interface{}) *MapEntry
}

// IMeta values carry a metadata map, which may be nil.
type IMeta interface {
	Meta() IPersistentMap
}

// Equiver values define structural equality.
type Equiver interface {
	Equiv(o interface{}) bool
}

// Hasher values define a hash consistent with Equiv.
type Hasher interface {
	Hash() uint32
}

// IFn is implemented by every invokable value.  The thread carries the
// dynamic bindings of the caller.
type IFn interface {
	Invoke(t *Thread, args ...interface{}) (interface{}, error)
}

// ExceptionType is implemented by values naming a class of errors in a try
// form's catch clause.
type ExceptionType interface {
	// Matches reports whether err is an instance of the exception type.
	Matches(err error) bool
}

// Fn wraps a Go function as an IFn.
type Fn struct {
	Name string
	F    func(t *Thread, args ...interface{}) (interface{}, error)
}

// Invoke calls the wrapped function.
func (fn *Fn) Invoke(t *Thread, args ...interface{}) (interface{}, error) {
	return fn.F(t, args...)
}

func (fn *Fn) String() string {
	return "#<builtin " + fn.Name + ">"
}

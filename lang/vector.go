// Copyright © 2018 The ELPS authors

package lang

const (
	vecBits  = 5
	vecWidth = 1 << vecBits
	vecMask  = vecWidth - 1
)

// IPersistentVector is implemented by PersistentVector, SubVec and MapEntry.
type IPersistentVector interface {
	Indexed
	Seqable
	Equiver
	Hasher
	Peek() interface{}
	AssocN(i int, val interface{}) (IPersistentVector, error)
	Cons(val interface{}) IPersistentVector
	Pop() (IPersistentVector, error)
}

// vnode is a trie node.  Interior nodes hold *vnode children and leaves hold
// elements.
type vnode struct {
	array [vecWidth]interface{}
}

var emptyNode = &vnode{}

// PersistentVector is an immutable vector stored as a 32-way trie plus a
// tail buffer of up to 32 elements.  Every update copies only the path from
// the root to the changed leaf.
type PersistentVector struct {
	meta  IPersistentMap
	cnt   int
	shift uint
	root  *vnode
	tail  []interface{}
}

// EmptyVector is the empty vector without metadata.
var EmptyVector = &PersistentVector{shift: vecBits, root: emptyNode, tail: []interface{}{}}

// VectorOf returns a vector of xs in order.
func VectorOf(xs ...interface{}) *PersistentVector {
	return Vec(xs)
}

// Vec returns a vector containing the elements of xs.
func Vec(xs []interface{}) *PersistentVector {
	v := EmptyVector
	for _, x := range xs {
		v = v.conj(x)
	}
	return v
}

// VecSeq returns a vector containing the elements of s.
func VecSeq(s Seq) *PersistentVector {
	v := EmptyVector
	for ; s != nil; s = s.Next() {
		v = v.conj(s.First())
	}
	return v
}

func (v *PersistentVector) sequential() {}

// Count implements Counted.
func (v *PersistentVector) Count() int {
	return v.cnt
}

func (v *PersistentVector) tailoff() int {
	if v.cnt < vecWidth {
		return 0
	}
	return ((v.cnt - 1) >> vecBits) << vecBits
}

// arrayFor returns the leaf array holding index i.
func (v *PersistentVector) arrayFor(i int) ([]interface{}, error) {
	if i < 0 || i >= v.cnt {
		return nil, &IndexOutOfRangeError{Index: i, Count: v.cnt}
	}
	if i >= v.tailoff() {
		return v.tail, nil
	}
	node := v.root
	for level := v.shift; level > 0; level -= vecBits {
		node = node.array[(i>>level)&vecMask].(*vnode)
	}
	return node.array[:], nil
}

// Nth returns the element at index i.
func (v *PersistentVector) Nth(i int) (interface{}, error) {
	arr, err := v.arrayFor(i)
	if err != nil {
		return nil, err
	}
	return arr[i&vecMask], nil
}

// NthOr returns the element at index i, or notFound when i is out of range.
func (v *PersistentVector) NthOr(i int, notFound interface{}) interface{} {
	if i < 0 || i >= v.cnt {
		return notFound
	}
	x, _ := v.Nth(i)
	return x
}

// AssocN returns a vector with val at index i.  When i equals the count the
// value is appended.
func (v *PersistentVector) AssocN(i int, val interface{}) (IPersistentVector, error) {
	nv, err := v.assocN(i, val)
	if err != nil {
		return nil, err
	}
	return nv, nil
}

func (v *PersistentVector) assocN(i int, val interface{}) (*PersistentVector, error) {
	if i >= 0 && i < v.cnt {
		if i >= v.tailoff() {
			tail := make([]interface{}, len(v.tail))
			copy(tail, v.tail)
			tail[i&vecMask] = val
			return &PersistentVector{meta: v.meta, cnt: v.cnt, shift: v.shift, root: v.root, tail: tail}, nil
		}
		root := doAssoc(v.shift, v.root, i, val)
		return &PersistentVector{meta: v.meta, cnt: v.cnt, shift: v.shift, root: root, tail: v.tail}, nil
	}
	if i == v.cnt {
		return v.conj(val), nil
	}
	return nil, &IndexOutOfRangeError{Index: i, Count: v.cnt}
}

func doAssoc(level uint, node *vnode, i int, val interface{}) *vnode {
	ret := &vnode{array: node.array}
	if level == 0 {
		ret.array[i&vecMask] = val
		return ret
	}
	sub := (i >> level) & vecMask
	ret.array[sub] = doAssoc(level-vecBits, node.array[sub].(*vnode), i, val)
	return ret
}

// Cons returns a vector with val appended.
func (v *PersistentVector) Cons(val interface{}) IPersistentVector {
	return v.conj(val)
}

func (v *PersistentVector) conj(val interface{}) *PersistentVector {
	if v.cnt-v.tailoff() < vecWidth {
		tail := make([]interface{}, len(v.tail)+1)
		copy(tail, v.tail)
		tail[len(v.tail)] = val
		return &PersistentVector{meta: v.meta, cnt: v.cnt + 1, shift: v.shift, root: v.root, tail: tail}
	}
	// The tail is full and moves into the trie.
	tailNode := &vnode{}
	copy(tailNode.array[:], v.tail)
	shift := v.shift
	var root *vnode
	if (v.cnt >> vecBits) > (1 << v.shift) {
		root = &vnode{}
		root.array[0] = v.root
		root.array[1] = newPath(v.shift, tailNode)
		shift += vecBits
	} else {
		root = v.pushTail(v.shift, v.root, tailNode)
	}
	return &PersistentVector{meta: v.meta, cnt: v.cnt + 1, shift: shift, root: root, tail: []interface{}{val}}
}

func (v *PersistentVector) pushTail(level uint, parent *vnode, tailNode *vnode) *vnode {
	sub := ((v.cnt - 1) >> level) & vecMask
	ret := &vnode{array: parent.array}
	var insert *vnode
	if level == vecBits {
		insert = tailNode
	} else if child, ok := parent.array[sub].(*vnode); ok {
		insert = v.pushTail(level-vecBits, child, tailNode)
	} else {
		insert = newPath(level-vecBits, tailNode)
	}
	ret.array[sub] = insert
	return ret
}

func newPath(level uint, node *vnode) *vnode {
	if level == 0 {
		return node
	}
	ret := &vnode{}
	ret.array[0] = newPath(level-vecBits, node)
	return ret
}

// Pop returns the vector without its last element.  Popping a one element
// vector returns the empty vector.
func (v *PersistentVector) Pop() (IPersistentVector, error) {
	nv, err := v.pop()
	if err != nil {
		return nil, err
	}
	return nv, nil
}

func (v *PersistentVector) pop() (*PersistentVector, error) {
	switch {
	case v.cnt == 0:
		return nil, IllegalStatef("can't pop empty vector")
	case v.cnt == 1:
		return EmptyVector.WithMeta(v.meta), nil
	case v.cnt-v.tailoff() > 1:
		tail := make([]interface{}, len(v.tail)-1)
		copy(tail, v.tail)
		return &PersistentVector{meta: v.meta, cnt: v.cnt - 1, shift: v.shift, root: v.root, tail: tail}, nil
	}
	// The last trie leaf becomes the new tail.
	tail, err := v.arrayFor(v.cnt - 2)
	if err != nil {
		return nil, err
	}
	root := v.popTail(v.shift, v.root)
	shift := v.shift
	if root == nil {
		root = emptyNode
	}
	if v.shift > vecBits && root.array[1] == nil {
		root = root.array[0].(*vnode)
		shift -= vecBits
	}
	return &PersistentVector{meta: v.meta, cnt: v.cnt - 1, shift: shift, root: root, tail: tail}, nil
}

func (v *PersistentVector) popTail(level uint, node *vnode) *vnode {
	sub := ((v.cnt - 2) >> level) & vecMask
	if level > vecBits {
		child := v.popTail(level-vecBits, node.array[sub].(*vnode))
		if child == nil && sub == 0 {
			return nil
		}
		ret := &vnode{array: node.array}
		if child == nil {
			ret.array[sub] = nil
		} else {
			ret.array[sub] = child
		}
		return ret
	}
	if sub == 0 {
		return nil
	}
	ret := &vnode{array: node.array}
	ret.array[sub] = nil
	return ret
}

// Peek returns the last element, or nil for an empty vector.
func (v *PersistentVector) Peek() interface{} {
	if v.cnt == 0 {
		return nil
	}
	return v.tail[len(v.tail)-1]
}

// Seq implements Seqable.
func (v *PersistentVector) Seq() Seq {
	if v.cnt == 0 {
		return nil
	}
	return &IndexedSeq{coll: v}
}

// RSeq returns the elements in reverse order.
func (v *PersistentVector) RSeq() Seq {
	return newReverseIndexedSeq(v)
}

// Slice returns the elements of the vector as a new slice.
func (v *PersistentVector) Slice() []interface{} {
	out := make([]interface{}, 0, v.cnt)
	for i := 0; i < v.cnt; i += vecWidth {
		arr, _ := v.arrayFor(i)
		n := v.cnt - i
		if n > vecWidth {
			n = vecWidth
		}
		out = append(out, arr[:n]...)
	}
	return out
}

// SubVec returns a view of the elements in [start, end).
func (v *PersistentVector) SubVec(start, end int) (*SubVec, error) {
	if start < 0 || end > v.cnt || start > end {
		return nil, &IndexOutOfRangeError{Index: end, Count: v.cnt}
	}
	return &SubVec{v: v, start: start, end: end}, nil
}

// Empty returns the empty vector carrying v's metadata.
func (v *PersistentVector) Empty() *PersistentVector {
	return EmptyVector.WithMeta(v.meta)
}

// Meta implements IMeta.
func (v *PersistentVector) Meta() IPersistentMap {
	return v.meta
}

// WithMeta returns a copy of v carrying meta.
func (v *PersistentVector) WithMeta(meta IPersistentMap) *PersistentVector {
	if meta == v.meta {
		return v
	}
	return &PersistentVector{meta: meta, cnt: v.cnt, shift: v.shift, root: v.root, tail: v.tail}
}

// Equiv implements Equiver.  Vectors equal any sequential value with the
// same elements in order and never equal a set.
func (v *PersistentVector) Equiv(o interface{}) bool {
	return indexedEquiv(v, o)
}

// Hash implements Hasher.
func (v *PersistentVector) Hash() uint32 {
	return SeqHash(v.Seq())
}

// Invoke returns the element at the index given as the only argument.
func (v *PersistentVector) Invoke(t *Thread, args ...interface{}) (interface{}, error) {
	return invokeIndexed(v, args)
}

func (v *PersistentVector) String() string {
	return PrintString(v)
}

func indexedEquiv(v Indexed, o interface{}) bool {
	if Identical(v, o) {
		return true
	}
	if other, ok := o.(IPersistentVector); ok {
		if other.Count() != v.Count() {
			return false
		}
		for i := 0; i < v.Count(); i++ {
			if !Equiv(v.NthOr(i, nil), other.NthOr(i, nil)) {
				return false
			}
		}
		return true
	}
	if c, ok := o.(Counted); ok && c.Count() != v.Count() {
		return false
	}
	return SeqEquiv(NewIndexedSeq(v, 0), o)
}

func invokeIndexed(v Indexed, args []interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, Arityf("wrong number of args (%d) passed to vector", len(args))
	}
	i, ok := ToInt64(args[0])
	if !ok {
		return nil, IllegalArgumentf("key must be integer")
	}
	return v.Nth(int(i))
}

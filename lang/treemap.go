// Copyright © 2018 The ELPS authors

package lang

// tmNode is a red-black tree node.  Colour is a flag on the node rather than
// a separate node type.
type tmNode struct {
	red   bool
	key   interface{}
	val   interface{}
	left  *tmNode
	right *tmNode
}

func red(key, val interface{}, left, right *tmNode) *tmNode {
	return &tmNode{red: true, key: key, val: val, left: left, right: right}
}

func black(key, val interface{}, left, right *tmNode) *tmNode {
	return &tmNode{key: key, val: val, left: left, right: right}
}

func isRed(n *tmNode) bool   { return n != nil && n.red }
func isBlack(n *tmNode) bool { return n != nil && !n.red }

func (n *tmNode) blacken() *tmNode {
	if !n.red {
		return n
	}
	return black(n.key, n.val, n.left, n.right)
}

func (n *tmNode) redden() *tmNode {
	if n.red {
		panic("tree map invariant violation: redden of red node")
	}
	return red(n.key, n.val, n.left, n.right)
}

func (n *tmNode) addLeft(ins *tmNode) *tmNode {
	if n.red {
		return red(n.key, n.val, ins, n.right)
	}
	return ins.balanceLeft(n)
}

func (n *tmNode) addRight(ins *tmNode) *tmNode {
	if n.red {
		return red(n.key, n.val, n.left, ins)
	}
	return ins.balanceRight(n)
}

// balanceLeft rebuilds parent with n as its new left child.
func (n *tmNode) balanceLeft(parent *tmNode) *tmNode {
	if n.red {
		switch {
		case isRed(n.left):
			return red(n.key, n.val, n.left.blacken(), black(parent.key, parent.val, n.right, parent.right))
		case isRed(n.right):
			return red(n.right.key, n.right.val,
				black(n.key, n.val, n.left, n.right.left),
				black(parent.key, parent.val, n.right.right, parent.right))
		}
	}
	return black(parent.key, parent.val, n, parent.right)
}

// balanceRight rebuilds parent with n as its new right child.
func (n *tmNode) balanceRight(parent *tmNode) *tmNode {
	if n.red {
		switch {
		case isRed(n.right):
			return red(n.key, n.val, black(parent.key, parent.val, parent.left, n.left), n.right.blacken())
		case isRed(n.left):
			return red(n.left.key, n.left.val,
				black(parent.key, parent.val, parent.left, n.left.left),
				black(n.key, n.val, n.left.right, n.right))
		}
	}
	return black(parent.key, parent.val, parent.left, n)
}

func leftBalance(key, val interface{}, ins, right *tmNode) *tmNode {
	switch {
	case isRed(ins) && isRed(ins.left):
		return red(ins.key, ins.val, ins.left.blacken(), black(key, val, ins.right, right))
	case isRed(ins) && isRed(ins.right):
		return red(ins.right.key, ins.right.val,
			black(ins.key, ins.val, ins.left, ins.right.left),
			black(key, val, ins.right.right, right))
	}
	return black(key, val, ins, right)
}

func rightBalance(key, val interface{}, left, ins *tmNode) *tmNode {
	switch {
	case isRed(ins) && isRed(ins.right):
		return red(ins.key, ins.val, black(key, val, left, ins.left), ins.right.blacken())
	case isRed(ins) && isRed(ins.left):
		return red(ins.left.key, ins.left.val,
			black(key, val, left, ins.left.left),
			black(ins.key, ins.val, ins.left.right, ins.right))
	}
	return black(key, val, left, ins)
}

func balanceLeftDel(key, val interface{}, del, right *tmNode) *tmNode {
	switch {
	case isRed(del):
		return red(key, val, del.blacken(), right)
	case isBlack(right):
		return rightBalance(key, val, del, right.redden())
	case isRed(right) && isBlack(right.left):
		return red(right.left.key, right.left.val,
			black(key, val, del, right.left.left),
			rightBalance(right.key, right.val, right.left.right, right.right.redden()))
	}
	panic("tree map invariant violation")
}

func balanceRightDel(key, val interface{}, left, del *tmNode) *tmNode {
	switch {
	case isRed(del):
		return red(key, val, left, del.blacken())
	case isBlack(left):
		return leftBalance(key, val, left.redden(), del)
	case isRed(left) && isBlack(left.right):
		return red(left.right.key, left.right.val,
			leftBalance(left.key, left.val, left.left.redden(), left.right.left),
			black(key, val, left.right.right, del))
	}
	panic("tree map invariant violation")
}

// appendNodes joins the subtrees of a removed node.
func appendNodes(left, right *tmNode) *tmNode {
	switch {
	case left == nil:
		return right
	case right == nil:
		return left
	case left.red && right.red:
		app := appendNodes(left.right, right.left)
		if isRed(app) {
			return red(app.key, app.val,
				red(left.key, left.val, left.left, app.left),
				red(right.key, right.val, app.right, right.right))
		}
		return red(left.key, left.val, left.left, red(right.key, right.val, app, right.right))
	case left.red:
		return red(left.key, left.val, left.left, appendNodes(left.right, right))
	case right.red:
		return red(right.key, right.val, appendNodes(left, right.left), right.right)
	}
	app := appendNodes(left.right, right.left)
	if isRed(app) {
		return red(app.key, app.val,
			black(left.key, left.val, left.left, app.left),
			black(right.key, right.val, app.right, right.right))
	}
	return balanceLeftDel(left.key, left.val, left.left, black(right.key, right.val, app, right.right))
}

// PersistentTreeMap is an immutable sorted map backed by a red-black tree.
type PersistentTreeMap struct {
	meta IPersistentMap
	cmp  Comparator
	tree *tmNode
	cnt  int
}

// EmptyTreeMap is the empty map ordered by Compare.
var EmptyTreeMap = &PersistentTreeMap{cmp: Compare}

// NewTreeMap returns an empty map ordered by cmp.  A nil cmp orders keys
// with Compare.
func NewTreeMap(cmp Comparator) *PersistentTreeMap {
	if cmp == nil {
		return EmptyTreeMap
	}
	return &PersistentTreeMap{cmp: cmp}
}

// TreeMapCreate returns a map ordered by cmp holding the alternating keys and
// values in keyvals.
func TreeMapCreate(cmp Comparator, keyvals ...interface{}) (*PersistentTreeMap, error) {
	if len(keyvals)%2 != 0 {
		return nil, IllegalArgumentf("No value supplied for key: %s", PrintString(keyvals[len(keyvals)-1]))
	}
	m := NewTreeMap(cmp)
	for i := 0; i < len(keyvals); i += 2 {
		m = m.Assoc(keyvals[i], keyvals[i+1])
	}
	return m, nil
}

// Comparator returns the key ordering of the map.
func (m *PersistentTreeMap) Comparator() Comparator {
	return m.cmp
}

// Count implements Counted.
func (m *PersistentTreeMap) Count() int {
	return m.cnt
}

func (m *PersistentTreeMap) add(t *tmNode, key, val interface{}) (ins, found *tmNode) {
	if t == nil {
		return red(key, val, nil, nil), nil
	}
	c := m.cmp(key, t.key)
	if c == 0 {
		return nil, t
	}
	if c < 0 {
		ins, found = m.add(t.left, key, val)
		if ins == nil {
			return nil, found
		}
		return t.addLeft(ins), nil
	}
	ins, found = m.add(t.right, key, val)
	if ins == nil {
		return nil, found
	}
	return t.addRight(ins), nil
}

func (m *PersistentTreeMap) replace(t *tmNode, key, val interface{}) *tmNode {
	n := &tmNode{red: t.red, key: t.key, val: t.val, left: t.left, right: t.right}
	c := m.cmp(key, t.key)
	switch {
	case c == 0:
		n.val = val
	case c < 0:
		n.left = m.replace(t.left, key, val)
	default:
		n.right = m.replace(t.right, key, val)
	}
	return n
}

func (m *PersistentTreeMap) remove(t *tmNode, key interface{}) (*tmNode, bool) {
	if t == nil {
		return nil, false
	}
	c := m.cmp(key, t.key)
	if c == 0 {
		return appendNodes(t.left, t.right), true
	}
	if c < 0 {
		del, found := m.remove(t.left, key)
		if !found {
			return nil, false
		}
		if isBlack(t.left) {
			return balanceLeftDel(t.key, t.val, del, t.right), true
		}
		return red(t.key, t.val, del, t.right), true
	}
	del, found := m.remove(t.right, key)
	if !found {
		return nil, false
	}
	if isBlack(t.right) {
		return balanceRightDel(t.key, t.val, t.left, del), true
	}
	return red(t.key, t.val, t.left, del), true
}

// Assoc returns a map with key mapped to val.  When key already maps to an
// identical value the receiver itself is returned.
func (m *PersistentTreeMap) Assoc(key, val interface{}) *PersistentTreeMap {
	t, found := m.add(m.tree, key, val)
	if t == nil {
		if Identical(found.val, val) {
			return m
		}
		return &PersistentTreeMap{meta: m.meta, cmp: m.cmp, tree: m.replace(m.tree, key, val), cnt: m.cnt}
	}
	return &PersistentTreeMap{meta: m.meta, cmp: m.cmp, tree: t.blacken(), cnt: m.cnt + 1}
}

// AssocEx is Assoc for a key that must not already be present.
func (m *PersistentTreeMap) AssocEx(key, val interface{}) (*PersistentTreeMap, error) {
	t, _ := m.add(m.tree, key, val)
	if t == nil {
		return nil, IllegalStatef("key already present: %s", PrintString(key))
	}
	return &PersistentTreeMap{meta: m.meta, cmp: m.cmp, tree: t.blacken(), cnt: m.cnt + 1}, nil
}

// Without returns a map without key.  The receiver is returned when key is
// absent.
func (m *PersistentTreeMap) Without(key interface{}) *PersistentTreeMap {
	t, found := m.remove(m.tree, key)
	if !found {
		return m
	}
	if t == nil {
		return m.Empty()
	}
	return &PersistentTreeMap{meta: m.meta, cmp: m.cmp, tree: t.blacken(), cnt: m.cnt - 1}
}

func (m *PersistentTreeMap) entryNode(key interface{}) *tmNode {
	t := m.tree
	for t != nil {
		c := m.cmp(key, t.key)
		switch {
		case c == 0:
			return t
		case c < 0:
			t = t.left
		default:
			t = t.right
		}
	}
	return nil
}

// EntryAt returns the entry for key, or nil when key is absent.
func (m *PersistentTreeMap) EntryAt(key interface{}) *MapEntry {
	t := m.entryNode(key)
	if t == nil {
		return nil
	}
	return NewMapEntry(t.key, t.val)
}

// ValAt returns the value for key, or nil when key is absent.
func (m *PersistentTreeMap) ValAt(key interface{}) interface{} {
	return m.ValAtOr(key, nil)
}

// ValAtOr returns the value for key, or notFound when key is absent.
func (m *PersistentTreeMap) ValAtOr(key, notFound interface{}) interface{} {
	t := m.entryNode(key)
	if t == nil {
		return notFound
	}
	return t.val
}

// ContainsKey reports whether key is present.
func (m *PersistentTreeMap) ContainsKey(key interface{}) bool {
	return m.entryNode(key) != nil
}

// Seq returns the entries in ascending key order.
func (m *PersistentTreeMap) Seq() Seq {
	return m.SeqOrder(true)
}

// RSeq returns the entries in descending key order.
func (m *PersistentTreeMap) RSeq() Seq {
	return m.SeqOrder(false)
}

// SeqOrder returns the entries in ascending or descending key order.
func (m *PersistentTreeMap) SeqOrder(ascending bool) Seq {
	if m.cnt == 0 {
		return nil
	}
	return &TreeMapSeq{stack: pushSpine(m.tree, nil, ascending), asc: ascending, cnt: m.cnt}
}

// SeqFrom returns the entries starting at the first key not before key in
// the given direction.
func (m *PersistentTreeMap) SeqFrom(key interface{}, ascending bool) Seq {
	if m.cnt == 0 {
		return nil
	}
	var stack *nodeStack
	t := m.tree
	for t != nil {
		c := m.cmp(key, t.key)
		switch {
		case c == 0:
			return &TreeMapSeq{stack: &nodeStack{n: t, next: stack}, asc: ascending, cnt: -1}
		case ascending && c < 0:
			stack = &nodeStack{n: t, next: stack}
			t = t.left
		case ascending:
			t = t.right
		case c > 0:
			stack = &nodeStack{n: t, next: stack}
			t = t.right
		default:
			t = t.left
		}
	}
	if stack == nil {
		return nil
	}
	return &TreeMapSeq{stack: stack, asc: ascending, cnt: -1}
}

// Keys returns the keys in ascending order.
func (m *PersistentTreeMap) Keys() Seq {
	return KeySeq(m.Seq())
}

// Vals returns the values in ascending key order.
func (m *PersistentTreeMap) Vals() Seq {
	return ValSeq(m.Seq())
}

// MinKey returns the least key, or nil for an empty map.
func (m *PersistentTreeMap) MinKey() interface{} {
	t := m.tree
	if t == nil {
		return nil
	}
	for t.left != nil {
		t = t.left
	}
	return t.key
}

// MaxKey returns the greatest key, or nil for an empty map.
func (m *PersistentTreeMap) MaxKey() interface{} {
	t := m.tree
	if t == nil {
		return nil
	}
	for t.right != nil {
		t = t.right
	}
	return t.key
}

// Depth returns the height of the tree.
func (m *PersistentTreeMap) Depth() int {
	return nodeDepth(m.tree)
}

func nodeDepth(t *tmNode) int {
	if t == nil {
		return 0
	}
	l, r := nodeDepth(t.left), nodeDepth(t.right)
	if l > r {
		return l + 1
	}
	return r + 1
}

// Empty returns an empty map with the same ordering and metadata.
func (m *PersistentTreeMap) Empty() *PersistentTreeMap {
	return &PersistentTreeMap{meta: m.meta, cmp: m.cmp}
}

// Meta implements IMeta.
func (m *PersistentTreeMap) Meta() IPersistentMap {
	return m.meta
}

// WithMeta returns a copy of m carrying meta.
func (m *PersistentTreeMap) WithMeta(meta IPersistentMap) *PersistentTreeMap {
	if meta == m.meta {
		return m
	}
	return &PersistentTreeMap{meta: meta, cmp: m.cmp, tree: m.tree, cnt: m.cnt}
}

// Equiv implements Equiver.
func (m *PersistentTreeMap) Equiv(o interface{}) bool {
	return mapEquiv(m, o)
}

// Hash implements Hasher.
func (m *PersistentTreeMap) Hash() uint32 {
	return mapHash(m)
}

// Invoke looks up its first argument, with an optional not-found value.
func (m *PersistentTreeMap) Invoke(t *Thread, args ...interface{}) (interface{}, error) {
	return invokeMap(m, args)
}

func (m *PersistentTreeMap) String() string {
	return PrintString(m)
}

type nodeStack struct {
	n    *tmNode
	next *nodeStack
}

func pushSpine(t *tmNode, stack *nodeStack, ascending bool) *nodeStack {
	for t != nil {
		stack = &nodeStack{n: t, next: stack}
		if ascending {
			t = t.left
		} else {
			t = t.right
		}
	}
	return stack
}

// TreeMapSeq walks a tree map in order using an explicit stack of the
// nodes still to be visited.
type TreeMapSeq struct {
	stack *nodeStack
	asc   bool
	cnt   int
}

func (s *TreeMapSeq) sequential() {}

// First implements Seq.
func (s *TreeMapSeq) First() interface{} {
	return NewMapEntry(s.stack.n.key, s.stack.n.val)
}

// Next implements Seq.
func (s *TreeMapSeq) Next() Seq {
	t := s.stack.n
	var child *tmNode
	if s.asc {
		child = t.right
	} else {
		child = t.left
	}
	stack := pushSpine(child, s.stack.next, s.asc)
	if stack == nil {
		return nil
	}
	cnt := s.cnt
	if cnt > 0 {
		cnt--
	}
	return &TreeMapSeq{stack: stack, asc: s.asc, cnt: cnt}
}

// Count implements Counted.
func (s *TreeMapSeq) Count() int {
	if s.cnt >= 0 {
		return s.cnt
	}
	n := 0
	var x Seq = s
	for ; x != nil; x = x.Next() {
		n++
	}
	return n
}

func (s *TreeMapSeq) Equiv(o interface{}) bool { return SeqEquiv(s, o) }
func (s *TreeMapSeq) Hash() uint32             { return SeqHash(s) }
func (s *TreeMapSeq) String() string           { return PrintString(s) }

func mapEquiv(m IPersistentMap, o interface{}) bool {
	if Identical(m, o) {
		return true
	}
	other, ok := o.(IPersistentMap)
	if !ok || other.Count() != m.Count() {
		return false
	}
	for s := m.Seq(); s != nil; s = s.Next() {
		e := s.First().(*MapEntry)
		oe := other.EntryAt(e.Key())
		if oe == nil || !Equiv(e.Val(), oe.Val()) {
			return false
		}
	}
	return true
}

func mapHash(m IPersistentMap) uint32 {
	var h uint32
	for s := m.Seq(); s != nil; s = s.Next() {
		e := s.First().(*MapEntry)
		h += Hash(e.Key()) ^ Hash(e.Val())
	}
	return h
}

func invokeMap(m IPersistentMap, args []interface{}) (interface{}, error) {
	switch len(args) {
	case 1:
		return m.ValAt(args[0]), nil
	case 2:
		return m.ValAtOr(args[0], args[1]), nil
	}
	return nil, Arityf("wrong number of args (%d) passed to map", len(args))
}

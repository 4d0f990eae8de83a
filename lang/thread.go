// Copyright © 2018 The ELPS authors

package lang

import (
	"sync/atomic"
)

var threadIDs uint64

// TBox holds a dynamic binding and the Thread that established it.
type TBox struct {
	owner *Thread
	val   atomic.Pointer[rootBox]
}

func newTBox(owner *Thread, val interface{}) *TBox {
	b := &TBox{owner: owner}
	b.val.Store(&rootBox{val: val})
	return b
}

// Val returns the bound value.
func (b *TBox) Val() interface{} { return b.val.Load().val }

// Frame is one layer of dynamic bindings.  Bindings map each *Var to its
// *TBox.
type Frame struct {
	bindings *PersistentHashMap
	prev     *Frame
}

// Bindings returns the Var to *TBox map of the frame.
func (f *Frame) Bindings() *PersistentHashMap {
	return f.bindings
}

// Clone returns a root frame holding the same bindings.
func (f *Frame) Clone() *Frame {
	return &Frame{bindings: f.bindings}
}

// Thread is a logical thread of execution.  It owns a stack of binding
// frames that is never shared with another Thread.  A Thread must be used by
// one goroutine at a time.
type Thread struct {
	id    uint64
	frame *Frame
}

// NewThread returns a Thread with an empty root frame.
func NewThread() *Thread {
	return &Thread{
		id:    atomic.AddUint64(&threadIDs, 1),
		frame: &Frame{bindings: EmptyHashMap},
	}
}

// ID returns a process unique identifier for the thread.
func (t *Thread) ID() uint64 { return t.id }

// PushBindings establishes a new frame binding each *Var key of bindings to
// its value.  Every Var must be dynamic.
func (t *Thread) PushBindings(bindings IPersistentMap) error {
	bmap := t.frame.bindings
	if bindings != nil {
		for s := bindings.Seq(); s != nil; s = s.Next() {
			e := s.First().(*MapEntry)
			v, ok := e.Key().(*Var)
			if !ok {
				return IllegalArgumentf("binding key is not a var: %s", PrintString(e.Key()))
			}
			if !v.IsDynamic() {
				return IllegalStatef("can't dynamically bind non-dynamic var: %v", v)
			}
			v.threadBound.Store(true)
			bmap = bmap.Assoc(v, newTBox(t, e.Val()))
		}
	}
	t.frame = &Frame{bindings: bmap, prev: t.frame}
	return nil
}

// PopBindings discards the most recently pushed frame.
func (t *Thread) PopBindings() error {
	if t.frame.prev == nil {
		return IllegalStatef("pop without matching push")
	}
	t.frame = t.frame.prev
	return nil
}

// WithBindings calls fn with bindings pushed and pops them when fn returns.
func (t *Thread) WithBindings(bindings IPersistentMap, fn func() error) error {
	if err := t.PushBindings(bindings); err != nil {
		return err
	}
	defer t.PopBindings() //nolint:errcheck
	return fn()
}

// Frame returns the current binding frame.
func (t *Thread) Frame() *Frame {
	return t.frame
}

// CloneFrame returns a root frame holding the current bindings.
func (t *Thread) CloneFrame() *Frame {
	return t.frame.Clone()
}

// ResetFrame replaces the current frame.
func (t *Thread) ResetFrame(f *Frame) {
	t.frame = f
}

// Fork returns a new Thread that starts with the current bindings.  The new
// Thread can read the bindings, from any goroutine, but cannot Set them.
func (t *Thread) Fork() *Thread {
	return &Thread{
		id:    atomic.AddUint64(&threadIDs, 1),
		frame: t.CloneFrame(),
	}
}

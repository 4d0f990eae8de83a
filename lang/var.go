// Copyright © 2018 The ELPS authors

package lang

import (
	"sync/atomic"
)

var varIDs uint64

// Unbound is the root value of a Var that has not been bound.  Calling it
// is an arity error.
type Unbound struct {
	Var *Var
}

// Invoke implements IFn.
func (u *Unbound) Invoke(t *Thread, args ...interface{}) (interface{}, error) {
	return nil, Arityf("attempting to call unbound fn: %v", u.Var)
}

func (u *Unbound) String() string {
	return "Unbound: " + u.Var.String()
}

type rootBox struct {
	val interface{}
}

type metaBox struct {
	meta IPersistentMap
}

// Var is a named mutable reference with a process-wide root value and
// optional per-Thread dynamic bindings.
type Var struct {
	id          uint64
	ns          *Namespace
	sym         *Symbol
	root        atomic.Pointer[rootBox]
	meta        atomic.Pointer[metaBox]
	dynamic     atomic.Bool
	public      atomic.Bool
	threadBound atomic.Bool
}

// NewVar returns an unbound Var.  Both ns and sym may be nil for an
// anonymous Var.
func NewVar(ns *Namespace, sym *Symbol) *Var {
	v := &Var{id: atomic.AddUint64(&varIDs, 1), ns: ns, sym: sym}
	v.root.Store(&rootBox{val: &Unbound{Var: v}})
	v.meta.Store(&metaBox{})
	v.public.Store(true)
	return v
}

// NewVarRoot returns a Var bound to root.
func NewVarRoot(ns *Namespace, sym *Symbol, root interface{}) *Var {
	v := NewVar(ns, sym)
	v.root.Store(&rootBox{val: root})
	return v
}

// Namespace returns the namespace owning the Var, or nil.
func (v *Var) Namespace() *Namespace { return v.ns }

// Symbol returns the Var's name, or nil.
func (v *Var) Symbol() *Symbol { return v.sym }

// Hash implements Hasher.  Vars hash by identity.
func (v *Var) Hash() uint32 {
	return uint32(v.id * 0x9e3779b1)
}

// SetDynamic marks the Var as allowing dynamic bindings.
func (v *Var) SetDynamic(dynamic bool) *Var {
	v.dynamic.Store(dynamic)
	return v
}

// IsDynamic reports whether the Var allows dynamic bindings.
func (v *Var) IsDynamic() bool { return v.dynamic.Load() }

// SetPublic sets the Var's visibility outside its namespace.
func (v *Var) SetPublic(public bool) *Var {
	v.public.Store(public)
	return v
}

// IsPublic reports whether the Var is visible outside its namespace.
func (v *Var) IsPublic() bool { return v.public.Load() }

// Root returns the root value, which is an *Unbound when the Var has no
// root binding.
func (v *Var) Root() interface{} {
	return v.root.Load().val
}

// HasRoot reports whether the Var has a root binding.
func (v *Var) HasRoot() bool {
	_, unbound := v.Root().(*Unbound)
	return !unbound
}

// BindRoot sets the root value.
func (v *Var) BindRoot(root interface{}) *Var {
	v.root.Store(&rootBox{val: root})
	return v
}

// AlterRoot replaces the root with the result of calling fn with the current
// root followed by args.  The update retries until no other writer has
// changed the root in the meantime.
func (v *Var) AlterRoot(t *Thread, fn IFn, args ...interface{}) (interface{}, error) {
	for {
		old := v.root.Load()
		callArgs := make([]interface{}, 0, len(args)+1)
		callArgs = append(callArgs, old.val)
		callArgs = append(callArgs, args...)
		val, err := fn.Invoke(t, callArgs...)
		if err != nil {
			return nil, err
		}
		if v.root.CompareAndSwap(old, &rootBox{val: val}) {
			return val, nil
		}
	}
}

func (v *Var) threadBinding(t *Thread) *TBox {
	if t == nil || !v.threadBound.Load() {
		return nil
	}
	e := t.frame.bindings.EntryAt(v)
	if e == nil {
		return nil
	}
	return e.Val().(*TBox)
}

// Deref returns the value bound in t, falling back to the root.
func (v *Var) Deref(t *Thread) interface{} {
	if b := v.threadBinding(t); b != nil {
		return b.Val()
	}
	return v.Root()
}

// IsBound reports whether the Var has a binding in t or a root binding.
func (v *Var) IsBound(t *Thread) bool {
	return v.threadBinding(t) != nil || v.HasRoot()
}

// IsThreadBound reports whether t holds a dynamic binding for the Var.
func (v *Var) IsThreadBound(t *Thread) bool {
	return v.threadBinding(t) != nil
}

// Set changes the Var's binding in t.  Only a binding established by t can
// be changed; the root is never modified.
func (v *Var) Set(t *Thread, val interface{}) (interface{}, error) {
	b := v.threadBinding(t)
	if b == nil {
		return nil, IllegalStatef("can't change/establish root binding of: %v with set", v.sym)
	}
	if b.owner != t {
		return nil, IllegalStatef("can't set!: %v from non-binding thread", v.sym)
	}
	b.val.Store(&rootBox{val: val})
	return val, nil
}

// Meta implements IMeta.
func (v *Var) Meta() IPersistentMap {
	return v.meta.Load().meta
}

// SetMeta replaces the Var's metadata.  The :dynamic key marks the Var
// dynamic and :static clears the flag.  The :private key hides the Var.
func (v *Var) SetMeta(meta IPersistentMap) *Var {
	v.meta.Store(&metaBox{meta: meta})
	if meta == nil {
		return v
	}
	if IsTruthy(meta.ValAt(KeywordDynamic)) {
		v.SetDynamic(true)
	}
	if IsTruthy(meta.ValAt(KeywordStatic)) {
		v.SetDynamic(false)
	}
	if IsTruthy(meta.ValAt(KeywordPrivate)) {
		v.SetPublic(false)
	}
	return v
}

// AlterMeta associates key with val in the Var's metadata.
func (v *Var) AlterMeta(key, val interface{}) {
	for {
		old := v.meta.Load()
		nm := &metaBox{meta: AssocMap(old.meta, key, val)}
		if v.meta.CompareAndSwap(old, nm) {
			return
		}
	}
}

// SetMacro flags the Var as naming a macro.
func (v *Var) SetMacro() *Var {
	v.AlterMeta(KeywordMacro, true)
	return v
}

// IsMacro reports whether the Var names a macro.
func (v *Var) IsMacro() bool {
	meta := v.Meta()
	return meta != nil && IsTruthy(meta.ValAt(KeywordMacro))
}

// Invoke calls the Var's value in t.
func (v *Var) Invoke(t *Thread, args ...interface{}) (interface{}, error) {
	fn, ok := v.Deref(t).(IFn)
	if !ok {
		return nil, IllegalArgumentf("%v is not a function", v)
	}
	return fn.Invoke(t, args...)
}

func (v *Var) String() string {
	switch {
	case v.ns != nil:
		return "#'" + v.ns.Name().String() + "/" + v.sym.String()
	case v.sym != nil:
		return "#<Var: " + v.sym.String() + ">"
	}
	return "#<Var: --unnamed-->"
}

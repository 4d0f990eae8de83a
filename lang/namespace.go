// Copyright © 2018 The ELPS authors

package lang

import (
	"sort"
	"sync/atomic"
)

// CoreNamespace is the name of the namespace holding the builtins.
const CoreNamespace = "clojure.core"

// Namespace maps unqualified symbols to Vars and other values.  Mappings
// and aliases are persistent maps swapped atomically, so readers never
// block writers.
type Namespace struct {
	name     *Symbol
	mappings atomic.Pointer[PersistentHashMap]
	aliases  atomic.Pointer[PersistentHashMap]
}

func newNamespace(name *Symbol) *Namespace {
	ns := &Namespace{name: name}
	ns.mappings.Store(EmptyHashMap)
	ns.aliases.Store(EmptyHashMap)
	return ns
}

// Name returns the namespace's name.
func (ns *Namespace) Name() *Symbol {
	return ns.name
}

func (ns *Namespace) String() string {
	return ns.name.String()
}

// Mappings returns a snapshot of the namespace's mappings.
func (ns *Namespace) Mappings() *PersistentHashMap {
	return ns.mappings.Load()
}

// Intern returns the Var named sym in the namespace, creating it when it
// does not exist.  A mapping of sym to anything other than a Var owned by
// the namespace is replaced.
func (ns *Namespace) Intern(sym *Symbol) (*Var, error) {
	if sym.IsQualified() {
		return nil, IllegalArgumentf("can't intern namespace-qualified symbol: %v", sym)
	}
	return ns.intern(sym), nil
}

func (ns *Namespace) intern(sym *Symbol) *Var {
	sym = sym.WithMeta(nil)
	var created *Var
	for {
		m := ns.mappings.Load()
		if v, ok := m.ValAt(sym).(*Var); ok && v.ns == ns {
			return v
		}
		if created == nil {
			created = NewVar(ns, sym)
		}
		if ns.mappings.CompareAndSwap(m, m.Assoc(sym, created)) {
			return created
		}
	}
}

// Refer maps sym to val, which is typically a Var owned by another
// namespace.
func (ns *Namespace) Refer(sym *Symbol, val interface{}) {
	sym = sym.WithMeta(nil)
	for {
		m := ns.mappings.Load()
		if ns.mappings.CompareAndSwap(m, m.Assoc(sym, val)) {
			return
		}
	}
}

// Unmap removes the mapping for sym.
func (ns *Namespace) Unmap(sym *Symbol) {
	for {
		m := ns.mappings.Load()
		if ns.mappings.CompareAndSwap(m, m.Without(sym)) {
			return
		}
	}
}

// Lookup returns the value mapped to sym, or nil.
func (ns *Namespace) Lookup(sym *Symbol) interface{} {
	return ns.mappings.Load().ValAt(sym)
}

// FindInternedVar returns the Var named sym owned by the namespace, or nil.
func (ns *Namespace) FindInternedVar(sym *Symbol) *Var {
	v, ok := ns.Lookup(sym).(*Var)
	if !ok || v.ns != ns {
		return nil
	}
	return v
}

// AddAlias makes alias refer to target within the namespace.
func (ns *Namespace) AddAlias(alias *Symbol, target *Namespace) error {
	alias = alias.WithMeta(nil)
	for {
		m := ns.aliases.Load()
		if cur, ok := m.ValAt(alias).(*Namespace); ok {
			if cur == target {
				return nil
			}
			return IllegalStatef("alias %v already exists in namespace %v, aliasing %v", alias, ns, cur)
		}
		if ns.aliases.CompareAndSwap(m, m.Assoc(alias, target)) {
			return nil
		}
	}
}

// RemoveAlias removes alias.
func (ns *Namespace) RemoveAlias(alias *Symbol) {
	for {
		m := ns.aliases.Load()
		if ns.aliases.CompareAndSwap(m, m.Without(alias)) {
			return
		}
	}
}

// LookupAlias returns the namespace aliased by alias, or nil.
func (ns *Namespace) LookupAlias(alias *Symbol) *Namespace {
	target, _ := ns.aliases.Load().ValAt(alias).(*Namespace)
	return target
}

// Registry holds the set of live namespaces.
type Registry struct {
	namespaces atomic.Pointer[PersistentHashMap]
}

// NewRegistry returns a registry containing only the core namespace.
func NewRegistry() *Registry {
	r := &Registry{}
	r.namespaces.Store(EmptyHashMap)
	r.FindOrCreate(NewSymbol("", CoreNamespace))
	return r
}

// FindOrCreate returns the namespace named name, creating it if necessary.
func (r *Registry) FindOrCreate(name *Symbol) *Namespace {
	name = name.WithMeta(nil)
	var created *Namespace
	for {
		m := r.namespaces.Load()
		if ns, ok := m.ValAt(name).(*Namespace); ok {
			return ns
		}
		if created == nil {
			created = newNamespace(name)
		}
		if r.namespaces.CompareAndSwap(m, m.Assoc(name, created)) {
			return created
		}
	}
}

// Find returns the namespace named name, or nil.
func (r *Registry) Find(name *Symbol) *Namespace {
	ns, _ := r.namespaces.Load().ValAt(name).(*Namespace)
	return ns
}

// Core returns the core namespace.
func (r *Registry) Core() *Namespace {
	return r.FindOrCreate(NewSymbol("", CoreNamespace))
}

// Remove deletes the namespace named name and returns it.  The core
// namespace cannot be removed.
func (r *Registry) Remove(name *Symbol) (*Namespace, error) {
	if name.Is(CoreNamespace) {
		return nil, IllegalArgumentf("cannot remove core namespace")
	}
	for {
		m := r.namespaces.Load()
		ns, ok := m.ValAt(name).(*Namespace)
		if !ok {
			return nil, nil
		}
		if r.namespaces.CompareAndSwap(m, m.Without(name)) {
			return ns, nil
		}
	}
}

// All returns the namespaces sorted by name.
func (r *Registry) All() []*Namespace {
	var all []*Namespace
	for s := r.namespaces.Load().Seq(); s != nil; s = s.Next() {
		all = append(all, s.First().(*MapEntry).Val().(*Namespace))
	}
	sort.Slice(all, func(i, j int) bool {
		return Compare(all[i].name, all[j].name) < 0
	})
	return all
}

// DefaultRegistry is the registry used by Intern.
var DefaultRegistry = NewRegistry()

// Intern returns the Var name in namespace ns of the default registry,
// creating both as needed.
func Intern(ns, name string) *Var {
	return DefaultRegistry.FindOrCreate(NewSymbol("", ns)).intern(NewSymbol("", name))
}

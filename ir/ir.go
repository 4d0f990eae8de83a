// Copyright © 2018 The ELPS authors

// Package ir defines the tree of target code produced by the compiler.  A
// backend executes or translates the tree; package interp is the reference
// backend.
package ir

import (
	"github.com/luthersystems/cljgo/lang"
)

// Node is a node of target code.
type Node interface {
	node()
}

// Const is a literal value.
type Const struct {
	Value interface{}
}

// VarRef dereferences a Var in the executing thread.
type VarRef struct {
	Var *lang.Var
}

// Host names a function provided by the backend, such as the constructors
// for collection literals.
type Host struct {
	Name string
}

// Host function names used by the compiler.
const (
	HostVector  = "vector"
	HostHashMap = "hash-map"
	HostHashSet = "hash-set"
)

// Local reads a local bound by StoreLocal, Loop or a function parameter.
type Local struct {
	Name string
}

// Argument reads a function parameter.  Index is the parameter position and
// Rest marks the variadic parameter.
type Argument struct {
	Name  string
	Index int
	Rest  bool
}

// Closure reads a value captured when the enclosing Fn was created.  Target
// is evaluated in the scope enclosing the Fn to produce the captured value.
type Closure struct {
	Name   string
	Target Node
}

// Self evaluates to the function currently executing.
type Self struct{}

// StoreLocal binds Name to the value of Value and evaluates to nil.
type StoreLocal struct {
	Name  string
	Value Node
}

// Do evaluates each node in order and produces the value of the last.  An
// empty Do produces nil.
type Do struct {
	Body []Node
}

// If evaluates Then when Test is truthy and Else otherwise.
type If struct {
	Test Node
	Then Node
	Else Node
}

// Call invokes Fn with Args evaluated left to right.
type Call struct {
	Fn   Node
	Args []Node
}

// Method calls the host method Name on the value of Target.
type Method struct {
	Target Node
	Name   string
	Args   []Node
}

// Property reads the host field Name of the value of Target.
type Property struct {
	Target Node
	Name   string
}

// Loop binds Inits to Bindings in order and evaluates Body, starting over
// each time Body produces a Recur.
type Loop struct {
	Bindings []string
	Inits    []Node
	Body     Node
}

// Recur jumps back to the nearest Loop or function clause, rebinding its
// locals to Args.
type Recur struct {
	Args []Node
}

// ArityGuard selects a function clause by argument count.  An exact guard
// matches Min arguments; otherwise the guard matches at least Min.
type ArityGuard struct {
	Min   int
	Exact bool
}

// Matches reports whether a call with n arguments satisfies the guard.
func (g ArityGuard) Matches(n int) bool {
	if g.Exact {
		return n == g.Min
	}
	return n >= g.Min
}

// FnClause is one arity of a function.  Rest is empty for a fixed arity
// clause.
type FnClause struct {
	Params []string
	Rest   string
	Guard  ArityGuard
	Body   Node
}

// Fn creates a function.  Clauses are tried in order and the first whose
// guard matches is executed.  Closures lists every captured value referenced
// by the body.
type Fn struct {
	Name     string
	Clauses  []*FnClause
	Closures []*Closure
}

// Catch handles errors matching the value of Type, binding the error to
// Binding while Body runs.
type Catch struct {
	Type    Node
	Binding string
	Body    Node
}

// Try evaluates Body, handling errors with the first matching Catch.
// Finally, when non-nil, runs on every exit.
type Try struct {
	Body    Node
	Catches []*Catch
	Finally Node
}

// Throw raises the value of Value, which must be an error.
type Throw struct {
	Value Node
}

// Is tests its operands for identity.
type Is struct {
	Left  Node
	Right Node
}

// Def binds the root of Var to the value of Value when Value is non-nil and
// replaces the Var's metadata with Meta.  It evaluates to the Var.
type Def struct {
	Var   *lang.Var
	Value Node
	Meta  lang.IPersistentMap
}

// InNS switches the current namespace of the executing runtime.
type InNS struct {
	Name string
}

func (*Const) node()      {}
func (*VarRef) node()     {}
func (*Host) node()       {}
func (*Local) node()      {}
func (*Argument) node()   {}
func (*Closure) node()    {}
func (*Self) node()       {}
func (*StoreLocal) node() {}
func (*Do) node()         {}
func (*If) node()         {}
func (*Call) node()       {}
func (*Method) node()     {}
func (*Property) node()   {}
func (*Loop) node()       {}
func (*Recur) node()      {}
func (*Fn) node()         {}
func (*Try) node()        {}
func (*Throw) node()      {}
func (*Is) node()         {}
func (*Def) node()        {}
func (*InNS) node()       {}

// Nil is the constant nil.
var Nil = &Const{}

// Copyright © 2018 The ELPS authors

package interp

import (
	"github.com/luthersystems/cljgo/ir"
	"github.com/luthersystems/cljgo/lang"
)

// Func is a function created by evaluating an ir.Fn.  Captured values are
// copied from the defining frame when the Func is created.
type Func struct {
	rt       *Runtime
	node     *ir.Fn
	ns       string
	source   string
	captured map[string]interface{}
	meta     lang.IPersistentMap
}

var _ lang.IFn = (*Func)(nil)

func (rt *Runtime) makeFunc(f *frame, n *ir.Fn) (*Func, error) {
	fn := &Func{
		rt:   rt,
		node: n,
		ns:   rt.Namespace().Name().Name,
	}
	if len(n.Closures) > 0 {
		fn.captured = make(map[string]interface{}, len(n.Closures))
		for _, c := range n.Closures {
			val, err := rt.eval(f, c.Target, false)
			if err != nil {
				return nil, err
			}
			fn.captured[c.Name] = val
		}
	}
	return fn, nil
}

// Name returns the function's name.
func (fn *Func) Name() string {
	return fn.node.Name
}

// Meta implements lang.IMeta.
func (fn *Func) Meta() lang.IPersistentMap {
	return fn.meta
}

// WithMeta returns a copy of fn carrying meta.
func (fn *Func) WithMeta(meta lang.IPersistentMap) *Func {
	cp := *fn
	cp.meta = meta
	return &cp
}

func (fn *Func) String() string {
	return "#<fn " + fn.ns + "/" + fn.Name() + ">"
}

func (fn *Func) clause(n int) *ir.FnClause {
	for _, c := range fn.node.Clauses {
		if c.Guard.Matches(n) {
			return c
		}
	}
	return nil
}

// Invoke implements lang.IFn.  Each call pushes a frame onto the runtime's
// call stack.
func (fn *Func) Invoke(t *lang.Thread, args ...interface{}) (interface{}, error) {
	clause := fn.clause(len(args))
	if clause == nil {
		return nil, lang.Arityf("wrong number of args (%d) passed to %v", len(args), fn)
	}
	rt := fn.rt
	if err := rt.checkContext(); err != nil {
		return nil, err
	}
	if err := rt.Stack.Push(fn.source, fn.ns, fn.Name()); err != nil {
		return nil, rt.stackError(err)
	}
	defer rt.Stack.Pop()
	if p := rt.Profiler; p != nil && p.IsEnabled() {
		top := *rt.Stack.Top()
		defer p.Start(&top)()
	}

	f := &frame{t: t, fn: fn, args: bindArgs(clause, args)}
	for {
		val, err := rt.eval(f, clause.Body, true)
		if err != nil {
			return nil, rt.stackError(err)
		}
		r, ok := val.(*recurValue)
		if !ok {
			return val, nil
		}
		f.args = r.args
		if err := rt.checkContext(); err != nil {
			return nil, rt.stackError(err)
		}
	}
}

// bindArgs returns the parameter values of clause.  A variadic clause
// receives its extra arguments as a seq, or nil when there are none.
func bindArgs(clause *ir.FnClause, args []interface{}) []interface{} {
	if clause.Guard.Exact {
		return args
	}
	n := len(clause.Params)
	bound := make([]interface{}, n+1)
	copy(bound, args[:n])
	if len(args) > n {
		rest := make([]interface{}, len(args)-n)
		copy(rest, args[n:])
		bound[n] = lang.NewArraySeq(rest)
	}
	return bound
}

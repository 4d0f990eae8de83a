// Copyright © 2018 The ELPS authors

package interp

import (
	"fmt"

	"github.com/luthersystems/cljgo/ir"
	"github.com/luthersystems/cljgo/lang"
)

// frame holds the state of one function invocation, or of a top level form
// when fn is nil.
type frame struct {
	t      *lang.Thread
	fn     *Func
	args   []interface{}
	locals map[string]interface{}
}

func (f *frame) setLocal(name string, val interface{}) {
	if f.locals == nil {
		f.locals = make(map[string]interface{})
	}
	f.locals[name] = val
}

// recurValue is produced by a Recur in tail position and consumed by the
// enclosing Loop or function clause.
type recurValue struct {
	args []interface{}
}

// eval evaluates n in f.  Tail reports whether n is in tail position of the
// nearest Loop or function body, the only place a Recur may appear.
func (rt *Runtime) eval(f *frame, n ir.Node, tail bool) (interface{}, error) {
	switch n := n.(type) {
	case *ir.Const:
		return n.Value, nil
	case *ir.VarRef:
		return n.Var.Deref(f.t), nil
	case *ir.Host:
		fn, ok := rt.hosts[n.Name]
		if !ok {
			return nil, lang.IllegalStatef("unknown host function: %s", n.Name)
		}
		return fn, nil
	case *ir.Local:
		val, ok := f.locals[n.Name]
		if !ok {
			return nil, lang.IllegalStatef("local %s is not bound", n.Name)
		}
		return val, nil
	case *ir.Argument:
		if n.Index >= len(f.args) {
			return nil, lang.IllegalStatef("argument %s is not bound", n.Name)
		}
		return f.args[n.Index], nil
	case *ir.Closure:
		if f.fn == nil {
			return nil, lang.IllegalStatef("closure %s referenced outside a function", n.Name)
		}
		val, ok := f.fn.captured[n.Name]
		if !ok {
			return nil, lang.IllegalStatef("closure %s was not captured", n.Name)
		}
		return val, nil
	case *ir.Self:
		if f.fn == nil {
			return nil, lang.IllegalStatef("self reference outside a function")
		}
		return f.fn, nil
	case *ir.StoreLocal:
		val, err := rt.eval(f, n.Value, false)
		if err != nil {
			return nil, err
		}
		f.setLocal(n.Name, val)
		return nil, nil
	case *ir.Do:
		var val interface{}
		for i, x := range n.Body {
			var err error
			val, err = rt.eval(f, x, tail && i == len(n.Body)-1)
			if err != nil {
				return nil, err
			}
		}
		return val, nil
	case *ir.If:
		test, err := rt.eval(f, n.Test, false)
		if err != nil {
			return nil, err
		}
		if lang.IsTruthy(test) {
			return rt.eval(f, n.Then, tail)
		}
		return rt.eval(f, n.Else, tail)
	case *ir.Call:
		return rt.evalCall(f, n)
	case *ir.Method:
		target, err := rt.eval(f, n.Target, false)
		if err != nil {
			return nil, err
		}
		args, err := rt.evalArgs(f, n.Args)
		if err != nil {
			return nil, err
		}
		return callMethod(target, n.Name, args)
	case *ir.Property:
		target, err := rt.eval(f, n.Target, false)
		if err != nil {
			return nil, err
		}
		return getProperty(target, n.Name)
	case *ir.Loop:
		return rt.evalLoop(f, n)
	case *ir.Recur:
		if !tail {
			return nil, lang.IllegalStatef("recur not in tail position")
		}
		args, err := rt.evalArgs(f, n.Args)
		if err != nil {
			return nil, err
		}
		return &recurValue{args: args}, nil
	case *ir.Fn:
		return rt.makeFunc(f, n)
	case *ir.Try:
		return rt.evalTry(f, n)
	case *ir.Throw:
		val, err := rt.eval(f, n.Value, false)
		if err != nil {
			return nil, err
		}
		switch val := val.(type) {
		case nil:
			return nil, lang.IllegalArgumentf("cannot throw nil")
		case error:
			return nil, val
		default:
			return nil, &Exception{Value: val}
		}
	case *ir.Is:
		left, err := rt.eval(f, n.Left, false)
		if err != nil {
			return nil, err
		}
		right, err := rt.eval(f, n.Right, false)
		if err != nil {
			return nil, err
		}
		return lang.Identical(left, right), nil
	case *ir.Def:
		return rt.evalDef(f, n)
	case *ir.InNS:
		ns := rt.Registry.FindOrCreate(lang.NewSymbol("", n.Name))
		rt.Compiler.SetNamespace(ns)
		return ns, nil
	case nil:
		return nil, lang.IllegalStatef("missing node")
	default:
		return nil, lang.IllegalStatef("unsupported node type %T", n)
	}
}

func (rt *Runtime) evalArgs(f *frame, nodes []ir.Node) ([]interface{}, error) {
	args := make([]interface{}, len(nodes))
	for i, x := range nodes {
		val, err := rt.eval(f, x, false)
		if err != nil {
			return nil, err
		}
		args[i] = val
	}
	return args, nil
}

func (rt *Runtime) evalCall(f *frame, n *ir.Call) (interface{}, error) {
	fn, err := rt.eval(f, n.Fn, false)
	if err != nil {
		return nil, err
	}
	args, err := rt.evalArgs(f, n.Args)
	if err != nil {
		return nil, err
	}
	return rt.apply(f.t, fn, args)
}

// apply invokes fn with args on thread t.
func (rt *Runtime) apply(t *lang.Thread, fn interface{}, args []interface{}) (interface{}, error) {
	ifn, ok := fn.(lang.IFn)
	if !ok {
		return nil, lang.IllegalArgumentf("%s cannot be called as a function", describe(fn))
	}
	return ifn.Invoke(t, args...)
}

func (rt *Runtime) evalLoop(f *frame, n *ir.Loop) (interface{}, error) {
	for i, init := range n.Inits {
		val, err := rt.eval(f, init, false)
		if err != nil {
			return nil, err
		}
		f.setLocal(n.Bindings[i], val)
	}
	for {
		val, err := rt.eval(f, n.Body, true)
		if err != nil {
			return nil, err
		}
		r, ok := val.(*recurValue)
		if !ok {
			return val, nil
		}
		for i, name := range n.Bindings {
			f.setLocal(name, r.args[i])
		}
		if err := rt.checkContext(); err != nil {
			return nil, err
		}
	}
}

func (rt *Runtime) evalTry(f *frame, n *ir.Try) (interface{}, error) {
	val, err := rt.eval(f, n.Body, false)
	if err != nil {
		val, err = rt.handleError(f, n.Catches, err)
	}
	if n.Finally != nil {
		if _, ferr := rt.eval(f, n.Finally, false); ferr != nil {
			return nil, ferr
		}
	}
	return val, err
}

// handleError runs the first catch clause whose type matches err.  When no
// clause matches err is returned unchanged.
func (rt *Runtime) handleError(f *frame, catches []*ir.Catch, err error) (interface{}, error) {
	for _, c := range catches {
		typ, terr := rt.eval(f, c.Type, false)
		if terr != nil {
			return nil, terr
		}
		et, ok := typ.(lang.ExceptionType)
		if !ok {
			return nil, lang.IllegalArgumentf("%s is not an exception type", describe(typ))
		}
		if !et.Matches(err) {
			continue
		}
		f.setLocal(c.Binding, thrownValue(err))
		return rt.eval(f, c.Body, false)
	}
	return nil, err
}

func (rt *Runtime) evalDef(f *frame, n *ir.Def) (interface{}, error) {
	n.Var.SetMeta(n.Meta)
	if n.Value == nil {
		return n.Var, nil
	}
	val, err := rt.eval(f, n.Value, false)
	if err != nil {
		return nil, err
	}
	if fn, ok := val.(*Func); ok && fn.source == "" {
		fn.source = metaLocation(n.Meta)
		fn.ns = n.Var.Namespace().Name().Name
	}
	n.Var.BindRoot(val)
	return n.Var, nil
}

// metaLocation renders the :file, :line and :column keys of meta.
func metaLocation(meta lang.IPersistentMap) string {
	if meta == nil {
		return ""
	}
	line, ok := lang.ToInt64(meta.ValAt(lang.KeywordLine))
	if !ok {
		return ""
	}
	file, _ := meta.ValAt(lang.KeywordFile).(string)
	if col, ok := lang.ToInt64(meta.ValAt(lang.KeywordColumn)); ok {
		return fmt.Sprintf("%s:%d:%d", file, line, col)
	}
	return fmt.Sprintf("%s:%d", file, line)
}

// describe renders x for error messages.
func describe(x interface{}) string {
	if x == nil {
		return "nil"
	}
	return fmt.Sprintf("%s (%T)", lang.PrintString(x), x)
}

// Copyright © 2018 The ELPS authors

package interp

import (
	"github.com/luthersystems/cljgo/lang"
)

// macroFn expands form.  Args holds the unevaluated operands; the local
// environment passed by the compiler is not used by the core macros.
type macroFn func(rt *Runtime, form lang.Seq, args []interface{}) (interface{}, error)

type macro struct {
	name  string
	arity arity
	fn    macroFn
}

var coreMacros = []*macro{
	{"let", atLeast(1), renameMacro("let*")},
	{"loop", atLeast(1), renameMacro("loop*")},
	{"fn", atLeast(1), renameMacro("fn*")},
	{"if", between(2, 3), renameMacro("if*")},
	{"defn", atLeast(2), macroDefn(false)},
	{"defn-", atLeast(2), macroDefn(true)},
	{"defmacro", atLeast(2), macroDefmacro},
	{"declare", atLeast(0), macroDeclare},
	{"when", atLeast(1), macroWhen},
	{"when-not", atLeast(1), macroWhenNot},
	{"if-not", between(2, 3), macroIfNot},
	{"when-let", atLeast(1), macroWhenLet},
	{"if-let", between(2, 3), macroIfLet},
	{"cond", atLeast(0), macroCond},
	{"and", atLeast(0), macroAnd},
	{"or", atLeast(0), macroOr},
	{"->", atLeast(1), macroThread(false)},
	{"->>", atLeast(1), macroThread(true)},
	{"dotimes", atLeast(1), macroDotimes},
	{"comment", atLeast(0), macroComment},
	{"ns", atLeast(1), macroNS},
	{"var", fixed(1), macroVar},
	{"binding", atLeast(1), macroBinding},
}

var (
	symDo       = lang.NewSymbol("", "do")
	symDef      = lang.NewSymbol("", "def")
	symIf       = lang.NewSymbol("", "if*")
	symLet      = lang.NewSymbol("", "let*")
	symLoop     = lang.NewSymbol("", "loop*")
	symFn       = lang.NewSymbol("", "fn*")
	symQuote    = lang.NewSymbol("", "quote")
	symRecur    = lang.NewSymbol("", "recur")
	symTry      = lang.NewSymbol("", "try")
	symFinally  = lang.NewSymbol("", "finally")
	symInNS     = lang.NewSymbol("", "in-ns")
	symAmp      = lang.NewSymbol("", "&")
	symForm     = lang.NewSymbol("", "&form")
	symEnv      = lang.NewSymbol("", "&env")
	symVar      = coreSym("var")
	symSetMacro = coreSym("set-macro!")
	symPush     = coreSym("push-thread-bindings")
	symPop      = coreSym("pop-thread-bindings")
	symHashMap  = coreSym("hash-map")
	symLess     = coreSym("<")
	symInc      = coreSym("inc")
)

func coreSym(name string) *lang.Symbol {
	return lang.NewSymbol(lang.CoreNamespace, name)
}

// wrapMacro adapts m to the calling convention of macro vars: the whole
// form and the local environment precede the operands.
func (rt *Runtime) wrapMacro(m *macro) *lang.Fn {
	return &lang.Fn{
		Name: m.name,
		F: func(t *lang.Thread, args ...interface{}) (interface{}, error) {
			if len(args) < 2 {
				return nil, lang.Arityf("macro %s called without &form and &env", m.name)
			}
			form, _ := args[0].(lang.Seq)
			if err := m.arity.check(m.name, len(args)-2); err != nil {
				return nil, lang.CompilerErrorf(form, "%v", err)
			}
			return m.fn(rt, form, args[2:])
		},
	}
}

func list(xs ...interface{}) *lang.PersistentList {
	return lang.ListOf(xs...)
}

// implicitDo wraps body in a do form.
func implicitDo(body []interface{}) *lang.PersistentList {
	return lang.ListOf(append([]interface{}{symDo}, body...)...)
}

func renameMacro(special string) macroFn {
	sym := lang.NewSymbol("", special)
	return func(rt *Runtime, form lang.Seq, args []interface{}) (interface{}, error) {
		return lang.ListOf(append([]interface{}{sym}, args...)...), nil
	}
}

// defnName attaches a docstring and attribute map preceding the function
// body to the metadata of the defined name.
func defnName(form lang.Seq, args []interface{}) (*lang.Symbol, []interface{}, error) {
	name, ok := args[0].(*lang.Symbol)
	if !ok || name.IsQualified() {
		return nil, nil, lang.CompilerErrorf(form, "first argument to %v must be an unqualified symbol", form.First())
	}
	meta := name.Meta()
	rest := args[1:]
	if len(rest) > 0 {
		if doc, ok := rest[0].(string); ok && len(rest) > 1 {
			meta = lang.AssocMap(meta, lang.KeywordDoc, doc)
			rest = rest[1:]
		}
	}
	if len(rest) > 0 {
		if attrs, ok := rest[0].(lang.IPersistentMap); ok && len(rest) > 1 {
			for s := attrs.Seq(); s != nil; s = s.Next() {
				e := s.First().(*lang.MapEntry)
				meta = lang.AssocMap(meta, e.Key(), e.Val())
			}
			rest = rest[1:]
		}
	}
	if len(rest) == 0 {
		return nil, nil, lang.CompilerErrorf(form, "%v requires a parameter vector", form.First())
	}
	return name.WithMeta(meta), rest, nil
}

func macroDefn(private bool) macroFn {
	return func(rt *Runtime, form lang.Seq, args []interface{}) (interface{}, error) {
		name, body, err := defnName(form, args)
		if err != nil {
			return nil, err
		}
		if private {
			name = name.WithMeta(lang.AssocMap(name.Meta(), lang.KeywordPrivate, true))
		}
		fnName := lang.NewSymbol("", name.Name)
		fn := lang.ListOf(append([]interface{}{symFn, fnName}, body...)...)
		return list(symDef, name, fn), nil
	}
}

// macroDefmacro defines a function taking &form and &env ahead of its
// declared parameters and flags its var as a macro.
func macroDefmacro(rt *Runtime, form lang.Seq, args []interface{}) (interface{}, error) {
	name, body, err := defnName(form, args)
	if err != nil {
		return nil, err
	}
	var clauses []interface{}
	if params, ok := body[0].(lang.IPersistentVector); ok {
		clauses = []interface{}{macroClause(params, body[1:])}
	} else {
		for _, c := range body {
			seq, ok := c.(lang.Seq)
			if !ok || seq.First() == nil {
				return nil, lang.CompilerErrorf(form, "defmacro clause must be a list")
			}
			params, ok := seq.First().(lang.IPersistentVector)
			if !ok {
				return nil, lang.CompilerErrorf(form, "defmacro parameter list must be a vector")
			}
			clauses = append(clauses, macroClause(params, lang.SeqSlice(seq.Next())))
		}
	}
	fn := lang.ListOf(append([]interface{}{symFn, lang.NewSymbol("", name.Name)}, clauses...)...)
	ref := list(symVar, lang.NewSymbol("", name.Name))
	return list(symDo,
		list(symDef, name, fn),
		list(symSetMacro, ref),
		ref), nil
}

func macroClause(params lang.IPersistentVector, body []interface{}) *lang.PersistentList {
	full := lang.VectorOf(symForm, symEnv)
	for s := params.Seq(); s != nil; s = s.Next() {
		full = full.Cons(s.First()).(*lang.PersistentVector)
	}
	return lang.ListOf(append([]interface{}{full}, body...)...)
}

func macroDeclare(rt *Runtime, form lang.Seq, args []interface{}) (interface{}, error) {
	defs := []interface{}{symDo}
	for _, x := range args {
		sym, ok := x.(*lang.Symbol)
		if !ok {
			return nil, lang.CompilerErrorf(form, "declare takes symbols")
		}
		defs = append(defs, list(symDef, sym))
	}
	return lang.ListOf(defs...), nil
}

func macroWhen(rt *Runtime, form lang.Seq, args []interface{}) (interface{}, error) {
	return list(symIf, args[0], implicitDo(args[1:])), nil
}

func macroWhenNot(rt *Runtime, form lang.Seq, args []interface{}) (interface{}, error) {
	return list(symIf, args[0], nil, implicitDo(args[1:])), nil
}

func macroIfNot(rt *Runtime, form lang.Seq, args []interface{}) (interface{}, error) {
	var els interface{}
	if len(args) == 3 {
		els = args[2]
	}
	return list(symIf, args[0], els, args[1]), nil
}

// letBinding validates the single binding vector of when-let and if-let.
func letBinding(form lang.Seq, x interface{}) (*lang.Symbol, interface{}, error) {
	v, ok := x.(lang.IPersistentVector)
	if !ok || v.Count() != 2 {
		return nil, nil, lang.CompilerErrorf(form, "%v requires a vector of one binding", form.First())
	}
	sym, ok := v.NthOr(0, nil).(*lang.Symbol)
	if !ok || sym.IsQualified() {
		return nil, nil, lang.CompilerErrorf(form, "%v binding must be an unqualified symbol", form.First())
	}
	return sym, v.NthOr(1, nil), nil
}

func macroIfLet(rt *Runtime, form lang.Seq, args []interface{}) (interface{}, error) {
	sym, test, err := letBinding(form, args[0])
	if err != nil {
		return nil, err
	}
	var els interface{}
	if len(args) == 3 {
		els = args[2]
	}
	tmp := rt.gensym("temp__")
	return list(symLet, lang.VectorOf(tmp, test),
		list(symIf, tmp,
			list(symLet, lang.VectorOf(sym, tmp), args[1]),
			els)), nil
}

func macroWhenLet(rt *Runtime, form lang.Seq, args []interface{}) (interface{}, error) {
	sym, test, err := letBinding(form, args[0])
	if err != nil {
		return nil, err
	}
	tmp := rt.gensym("temp__")
	body := append([]interface{}{symLet, lang.VectorOf(sym, tmp)}, args[1:]...)
	return list(symLet, lang.VectorOf(tmp, test),
		list(symIf, tmp, lang.ListOf(body...), nil)), nil
}

func macroCond(rt *Runtime, form lang.Seq, args []interface{}) (interface{}, error) {
	if len(args)%2 != 0 {
		return nil, lang.CompilerErrorf(form, "cond requires an even number of forms")
	}
	var out interface{}
	for i := len(args) - 2; i >= 0; i -= 2 {
		out = list(symIf, args[i], args[i+1], out)
	}
	return out, nil
}

func macroAnd(rt *Runtime, form lang.Seq, args []interface{}) (interface{}, error) {
	switch len(args) {
	case 0:
		return true, nil
	case 1:
		return args[0], nil
	}
	tmp := rt.gensym("and__")
	more := lang.ListOf(append([]interface{}{form.First()}, args[1:]...)...)
	return list(symLet, lang.VectorOf(tmp, args[0]),
		list(symIf, tmp, more, tmp)), nil
}

func macroOr(rt *Runtime, form lang.Seq, args []interface{}) (interface{}, error) {
	switch len(args) {
	case 0:
		return nil, nil
	case 1:
		return args[0], nil
	}
	tmp := rt.gensym("or__")
	more := lang.ListOf(append([]interface{}{form.First()}, args[1:]...)...)
	return list(symLet, lang.VectorOf(tmp, args[0]),
		list(symIf, tmp, tmp, more)), nil
}

// macroThread threads a value through forms as the first argument of each,
// or as the last when last is true.
func macroThread(last bool) macroFn {
	return func(rt *Runtime, form lang.Seq, args []interface{}) (interface{}, error) {
		acc := args[0]
		for _, step := range args[1:] {
			var items []interface{}
			if seq, ok := step.(lang.Seq); ok && seq.First() != nil {
				items = lang.SeqSlice(seq)
			} else {
				items = []interface{}{step}
			}
			if last {
				items = append(items, acc)
			} else {
				items = append(items[:1], append([]interface{}{acc}, items[1:]...)...)
			}
			acc = lang.ListOf(items...)
		}
		return acc, nil
	}
}

func macroDotimes(rt *Runtime, form lang.Seq, args []interface{}) (interface{}, error) {
	sym, n, err := letBinding(form, args[0])
	if err != nil {
		return nil, err
	}
	limit := rt.gensym("n__")
	body := append([]interface{}{symDo}, args[1:]...)
	body = append(body, list(symRecur, list(symInc, sym)))
	return list(symLet, lang.VectorOf(limit, n),
		list(symLoop, lang.VectorOf(sym, int64(0)),
			list(symIf, list(symLess, sym, limit), lang.ListOf(body...), nil))), nil
}

func macroComment(rt *Runtime, form lang.Seq, args []interface{}) (interface{}, error) {
	return nil, nil
}

// macroNS switches to the named namespace.  A docstring may follow the
// name; references are not supported.
func macroNS(rt *Runtime, form lang.Seq, args []interface{}) (interface{}, error) {
	name, ok := args[0].(*lang.Symbol)
	if !ok || name.IsQualified() {
		return nil, lang.CompilerErrorf(form, "ns name must be an unqualified symbol")
	}
	rest := args[1:]
	if len(rest) > 0 {
		if _, ok := rest[0].(string); ok {
			rest = rest[1:]
		}
	}
	if len(rest) > 0 {
		return nil, lang.CompilerErrorf(form, "ns references are not supported")
	}
	return list(symInNS, list(symQuote, name)), nil
}

// macroVar expands to the quoted Var named by its argument, resolved in the
// current namespace.
func macroVar(rt *Runtime, form lang.Seq, args []interface{}) (interface{}, error) {
	sym, ok := args[0].(*lang.Symbol)
	if !ok {
		return nil, lang.CompilerErrorf(form, "var requires a symbol")
	}
	v := rt.resolveVar(sym)
	if v == nil {
		return nil, lang.CompilerErrorf(form, "unable to resolve var: %v in this context", sym)
	}
	return list(symQuote, v), nil
}

func (rt *Runtime) resolveVar(sym *lang.Symbol) *lang.Var {
	cur := rt.Namespace()
	if sym.IsQualified() {
		nsSym := lang.NewSymbol("", sym.NS)
		ns := cur.LookupAlias(nsSym)
		if ns == nil {
			ns = rt.Registry.Find(nsSym)
		}
		if ns == nil {
			return nil
		}
		return ns.FindInternedVar(lang.NewSymbol("", sym.Name))
	}
	if v, ok := cur.Lookup(sym).(*lang.Var); ok {
		return v
	}
	v, _ := rt.Registry.Core().Lookup(sym).(*lang.Var)
	return v
}

// macroBinding expands
//
//	(binding [v1 e1 v2 e2] body...)
//
// into a push of the new bindings, the body, and a pop that runs however
// the body exits.
func macroBinding(rt *Runtime, form lang.Seq, args []interface{}) (interface{}, error) {
	bindings, ok := args[0].(lang.IPersistentVector)
	if !ok || bindings.Count()%2 != 0 {
		return nil, lang.CompilerErrorf(form, "binding requires a vector with an even number of forms")
	}
	pairs := []interface{}{symHashMap}
	for i := 0; i < bindings.Count(); i += 2 {
		sym, ok := bindings.NthOr(i, nil).(*lang.Symbol)
		if !ok {
			return nil, lang.CompilerErrorf(form, "binding names must be symbols")
		}
		pairs = append(pairs, list(symVar, sym), bindings.NthOr(i+1, nil))
	}
	return list(symDo,
		list(symPush, lang.ListOf(pairs...)),
		list(symTry,
			implicitDo(args[1:]),
			list(symFinally, list(symPop)))), nil
}

// Copyright © 2018 The ELPS authors

package compiler

import (
	"github.com/luthersystems/cljgo/ir"
	"github.com/luthersystems/cljgo/lang"
)

// specialForm compiles a form whose leading symbol names a special form.
// Items holds the elements of form, including the leading symbol.
type specialForm func(c *Compiler, form lang.Seq, items []interface{}) (ir.Node, error)

var specialForms map[string]specialForm

func init() {
	specialForms = map[string]specialForm{
		"def":       compileDef,
		"let*":      compileLetStar,
		"loop*":     compileLoopStar,
		"fn*":       compileFnStar,
		"if*":       compileIfStar,
		"do":        compileDo,
		"quote":     compileQuote,
		"recur":     compileRecur,
		"try":       compileTry,
		"throw":     compileThrow,
		".":         compileDot,
		"is?":       compileIs,
		"let-macro": compileLetMacro,
		"in-ns":     compileInNS,
	}
}

// IsSpecial reports whether sym names a special form.
func IsSpecial(sym *lang.Symbol) bool {
	if sym.IsQualified() {
		return false
	}
	_, ok := specialForms[sym.Name]
	return ok
}

func compileDef(c *Compiler, form lang.Seq, items []interface{}) (ir.Node, error) {
	if len(items) != 2 && len(items) != 3 {
		return nil, lang.CompilerErrorf(form, "only 2 or 3 arguments allowed to def")
	}
	sym, ok := items[1].(*lang.Symbol)
	if !ok {
		return nil, lang.CompilerErrorf(form, "first argument to def must be a symbol")
	}
	if sym.IsQualified() && sym.NS != c.ns.Name().Name {
		return nil, lang.CompilerErrorf(form, "can't create defs outside of current namespace")
	}
	v, err := c.ns.Intern(lang.NewSymbol("", sym.Name))
	if err != nil {
		return nil, lang.CompilerErrorf(form, "%v", err)
	}
	def := &ir.Def{Var: v, Meta: defMeta(form, sym)}
	if len(items) == 3 {
		defer c.restore(c.save())
		c.names = c.names.Cons(sym.Name)
		def.Value, err = c.compile(items[2])
		if err != nil {
			return nil, err
		}
	}
	logger.Debugf("def %v", v)
	return def, nil
}

// defMeta is the metadata of the defined symbol plus the source location of
// the def form.
func defMeta(form lang.Seq, sym *lang.Symbol) lang.IPersistentMap {
	meta := sym.Meta()
	fm, ok := form.(lang.IMeta)
	if !ok || fm.Meta() == nil {
		return meta
	}
	for _, k := range []*lang.Keyword{lang.KeywordFile, lang.KeywordLine, lang.KeywordColumn} {
		if meta != nil && meta.ContainsKey(k) {
			continue
		}
		if loc := fm.Meta().EntryAt(k); loc != nil {
			meta = lang.AssocMap(meta, k, loc.Val())
		}
	}
	return meta
}

// bindingVector validates the binding vector of let*, loop* and let-macro.
func bindingVector(form lang.Seq, items []interface{}, op string) (lang.IPersistentVector, error) {
	if len(items) < 3 {
		return nil, lang.CompilerErrorf(form, "%s takes at least two args", op)
	}
	bindings, ok := items[1].(lang.IPersistentVector)
	if !ok {
		return nil, lang.CompilerErrorf(form, "%s takes a vector as its first argument", op)
	}
	if bindings.Count()%2 != 0 {
		return nil, lang.CompilerErrorf(form, "%s takes an even number of bindings", op)
	}
	return bindings, nil
}

func bindingSymbol(form lang.Seq, x interface{}) (*lang.Symbol, error) {
	sym, ok := x.(*lang.Symbol)
	if !ok || sym.IsQualified() {
		return nil, lang.CompilerErrorf(form, "bindings must be non-namespaced symbols")
	}
	return sym, nil
}

func compileLetStar(c *Compiler, form lang.Seq, items []interface{}) (ir.Node, error) {
	bindings, err := bindingVector(form, items, "let*")
	if err != nil {
		return nil, err
	}
	defer c.restore(c.save())
	body := make([]ir.Node, 0, bindings.Count()/2+len(items)-2)
	for i := 0; i < bindings.Count(); i += 2 {
		sym, err := bindingSymbol(form, bindings.NthOr(i, nil))
		if err != nil {
			return nil, err
		}
		init, err := c.compile(bindings.NthOr(i+1, nil))
		if err != nil {
			return nil, err
		}
		body = append(body, &ir.StoreLocal{Name: c.bindLocal(sym), Value: init})
	}
	for _, x := range items[2:] {
		n, err := c.compile(x)
		if err != nil {
			return nil, err
		}
		body = append(body, n)
	}
	return &ir.Do{Body: body}, nil
}

// recurPoint is the target of recur: the nearest loop* or fn* clause.
type recurPoint struct {
	arity int
}

func compileLoopStar(c *Compiler, form lang.Seq, items []interface{}) (ir.Node, error) {
	bindings, err := bindingVector(form, items, "loop*")
	if err != nil {
		return nil, err
	}
	defer c.restore(c.save())
	loop := &ir.Loop{}
	for i := 0; i < bindings.Count(); i += 2 {
		sym, err := bindingSymbol(form, bindings.NthOr(i, nil))
		if err != nil {
			return nil, err
		}
		init, err := c.compile(bindings.NthOr(i+1, nil))
		if err != nil {
			return nil, err
		}
		loop.Bindings = append(loop.Bindings, c.bindLocal(sym))
		loop.Inits = append(loop.Inits, init)
	}
	c.recur = c.recur.Cons(&recurPoint{arity: len(loop.Bindings)})
	loop.Body, err = c.compileImplicitDo(items[2:])
	if err != nil {
		return nil, err
	}
	return loop, nil
}

func compileRecur(c *Compiler, form lang.Seq, items []interface{}) (ir.Node, error) {
	point, ok := c.recur.Peek().(*recurPoint)
	if !ok {
		return nil, lang.CompilerErrorf(form, "recur outside of loop* or fn*")
	}
	if len(items)-1 != point.arity {
		return nil, lang.CompilerErrorf(form, "mismatched argument count to recur, expected: %d args, got: %d",
			point.arity, len(items)-1)
	}
	args, err := c.compileAll(items[1:])
	if err != nil {
		return nil, err
	}
	return &ir.Recur{Args: args}, nil
}

func compileIfStar(c *Compiler, form lang.Seq, items []interface{}) (ir.Node, error) {
	if len(items) != 3 && len(items) != 4 {
		return nil, lang.CompilerErrorf(form, "if takes 2 or 3 args")
	}
	nodes, err := c.compileAll(items[1:])
	if err != nil {
		return nil, err
	}
	n := &ir.If{Test: nodes[0], Then: nodes[1], Else: ir.Nil}
	if len(nodes) == 3 {
		n.Else = nodes[2]
	}
	return n, nil
}

func compileDo(c *Compiler, form lang.Seq, items []interface{}) (ir.Node, error) {
	return c.compileImplicitDo(items[1:])
}

func compileQuote(c *Compiler, form lang.Seq, items []interface{}) (ir.Node, error) {
	if len(items) != 2 {
		return nil, lang.CompilerErrorf(form, "quote must only have one argument")
	}
	return &ir.Const{Value: items[1]}, nil
}

func compileThrow(c *Compiler, form lang.Seq, items []interface{}) (ir.Node, error) {
	if len(items) != 2 {
		return nil, lang.CompilerErrorf(form, "throw requires one argument")
	}
	val, err := c.compile(items[1])
	if err != nil {
		return nil, err
	}
	return &ir.Throw{Value: val}, nil
}

func compileIs(c *Compiler, form lang.Seq, items []interface{}) (ir.Node, error) {
	if len(items) != 3 {
		return nil, lang.CompilerErrorf(form, "is? requires 2 arguments")
	}
	nodes, err := c.compileAll(items[1:])
	if err != nil {
		return nil, err
	}
	return &ir.Is{Left: nodes[0], Right: nodes[1]}, nil
}

// compileDot compiles (. target member) and (. target (member args...)).  A
// member whose name starts with "-" reads a property.  When target is a
// symbol naming a namespace rather than a local the form calls the
// namespace's var named by member.
func compileDot(c *Compiler, form lang.Seq, items []interface{}) (ir.Node, error) {
	if len(items) != 3 {
		return nil, lang.CompilerErrorf(form, ". form must have two arguments")
	}
	var name string
	var argForms []interface{}
	switch member := items[2].(type) {
	case *lang.Symbol:
		name = member.Name
	case lang.Seq:
		sym, ok := member.First().(*lang.Symbol)
		if !ok {
			return nil, lang.CompilerErrorf(form, "member name must be a symbol")
		}
		name = sym.Name
		argForms = lang.SeqSlice(member.Next())
	default:
		return nil, lang.CompilerErrorf(form, "member name must be a symbol")
	}
	args, err := c.compileAll(argForms)
	if err != nil {
		return nil, err
	}
	if sym, ok := items[1].(*lang.Symbol); ok && !sym.IsQualified() && c.alias(sym) == nil {
		if ns := c.lookupNamespace(sym.Name); ns != nil {
			fn, err := c.compileSymbol(lang.NewSymbol(sym.Name, name).WithMeta(sym.Meta()))
			if err != nil {
				return nil, err
			}
			return &ir.Call{Fn: fn, Args: args}, nil
		}
	}
	target, err := c.compile(items[1])
	if err != nil {
		return nil, err
	}
	if len(name) > 1 && name[0] == '-' {
		if len(args) != 0 {
			return nil, lang.CompilerErrorf(form, "property access takes no arguments")
		}
		return &ir.Property{Target: target, Name: name[1:]}, nil
	}
	return &ir.Method{Target: target, Name: name, Args: args}, nil
}

// compileLetMacro compiles (let-macro [sym form ...] body...).  Within body
// each sym is replaced by its form.
func compileLetMacro(c *Compiler, form lang.Seq, items []interface{}) (ir.Node, error) {
	bindings, err := bindingVector(form, items, "let-macro")
	if err != nil {
		return nil, err
	}
	defer c.restore(c.save())
	for i := 0; i < bindings.Count(); i += 2 {
		sym, err := bindingSymbol(form, bindings.NthOr(i, nil))
		if err != nil {
			return nil, err
		}
		c.pushAlias(sym.Name, &LocalMacro{Form: bindings.NthOr(i+1, nil)})
	}
	return c.compileImplicitDo(items[2:])
}

// compileInNS switches the namespace used to compile subsequent forms.  The
// namespace name may be quoted.
func compileInNS(c *Compiler, form lang.Seq, items []interface{}) (ir.Node, error) {
	if len(items) != 2 {
		return nil, lang.CompilerErrorf(form, "in-ns requires one argument")
	}
	name := items[1]
	if q, ok := name.(lang.Seq); ok {
		if sym, ok := q.First().(*lang.Symbol); ok && sym.Is("quote") && q.Next() != nil {
			name = q.Next().First()
		}
	}
	sym, ok := name.(*lang.Symbol)
	if !ok || sym.IsQualified() {
		return nil, lang.CompilerErrorf(form, "namespace name must be an unqualified symbol")
	}
	c.ns = c.registry.FindOrCreate(lang.NewSymbol("", sym.Name))
	logger.Debugf("in namespace %s", sym.Name)
	return &ir.InNS{Name: sym.Name}, nil
}

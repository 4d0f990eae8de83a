// Copyright © 2018 The ELPS authors

package compiler

import (
	"sort"

	"github.com/luthersystems/cljgo/ir"
	"github.com/luthersystems/cljgo/lang"
)

// compileFnStar compiles the forms
//
//	(fn* name? [params*] body*)
//	(fn* name? ([params*] body*)+)
//
// Every alias visible where the fn* appears becomes a closure capture of the
// new function.  Clauses are ordered by ascending parameter count with the
// variadic clause, if any, last.
func compileFnStar(c *Compiler, form lang.Seq, items []interface{}) (ir.Node, error) {
	if len(items) < 2 {
		return nil, lang.CompilerErrorf(form, "fn* requires at least one clause")
	}
	defer c.restore(c.save())

	rest := items[1:]
	self, named := rest[0].(*lang.Symbol)
	var name string
	if named {
		if self.IsQualified() {
			return nil, lang.CompilerErrorf(form, "fn* name must be an unqualified symbol")
		}
		name = self.Name
		rest = rest[1:]
		c.names = c.names.Cons(name)
	} else {
		name = c.autoName()
	}

	fn := &fnContext{name: name}
	c.aliases = captureAliases(c.aliases, fn)
	if named {
		c.pushAlias(self.Name, &SelfReference{Name: self.Name})
	}

	var clauseForms []interface{}
	switch {
	case len(rest) == 0:
		return nil, lang.CompilerErrorf(form, "fn* requires a parameter vector")
	case isVector(rest[0]):
		clauseForms = []interface{}{lang.ListOf(rest...)}
	default:
		clauseForms = rest
	}

	var clauses []*ir.FnClause
	for _, cf := range clauseForms {
		clause, err := c.compileClause(form, cf)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, clause)
	}
	if err := checkClauses(form, clauses); err != nil {
		return nil, err
	}
	sort.SliceStable(clauses, func(i, j int) bool {
		ci, cj := clauses[i], clauses[j]
		if ci.Guard.Exact != cj.Guard.Exact {
			return ci.Guard.Exact
		}
		return ci.Guard.Min < cj.Guard.Min
	})
	return &ir.Fn{Name: name, Clauses: clauses, Closures: fn.closures}, nil
}

func isVector(x interface{}) bool {
	_, ok := x.(lang.IPersistentVector)
	return ok
}

func checkClauses(form lang.Seq, clauses []*ir.FnClause) error {
	var variadic *ir.FnClause
	fixed := make(map[int]bool)
	for _, clause := range clauses {
		if !clause.Guard.Exact {
			if variadic != nil {
				return lang.CompilerErrorf(form, "only one function overload may have a variable number of arguments")
			}
			variadic = clause
			continue
		}
		if fixed[clause.Guard.Min] {
			return lang.CompilerErrorf(form, "can't have 2 overloads with the same arity")
		}
		fixed[clause.Guard.Min] = true
	}
	return nil
}

// compileClause compiles ([params*] body*) in a scope of its own.
func (c *Compiler) compileClause(form lang.Seq, clauseForm interface{}) (*ir.FnClause, error) {
	seq, ok := clauseForm.(lang.Seq)
	if !ok || seq.First() == nil {
		return nil, lang.CompilerErrorf(form, "fn* clause must be a list")
	}
	params, ok := seq.First().(lang.IPersistentVector)
	if !ok {
		return nil, lang.CompilerErrorf(form, "fn* parameter list must be a vector")
	}
	defer c.restore(c.save())

	clause := &ir.FnClause{}
	variadic := false
	for s := params.Seq(); s != nil; s = s.Next() {
		sym, ok := s.First().(*lang.Symbol)
		if !ok || sym.IsQualified() {
			return nil, lang.CompilerErrorf(form, "fn* parameters must be non-namespaced symbols, got %v", lang.PrintString(params))
		}
		switch {
		case sym.Is("&") && !variadic:
			variadic = true
		case sym.Is("&") || clause.Rest != "":
			return nil, lang.CompilerErrorf(form, "variable length argument must be the last in the function")
		case variadic:
			clause.Rest = sym.Name
			c.pushAlias(sym.Name, &FnArgument{Name: sym.Name, Index: len(clause.Params), Rest: true})
			c.locals = c.locals.Conj(sym.Name)
		default:
			c.pushAlias(sym.Name, &FnArgument{Name: sym.Name, Index: len(clause.Params)})
			c.locals = c.locals.Conj(sym.Name)
			clause.Params = append(clause.Params, sym.Name)
		}
	}
	if variadic && clause.Rest == "" {
		return nil, lang.CompilerErrorf(form, "missing variable length argument after &")
	}

	clause.Guard = ir.ArityGuard{Min: len(clause.Params), Exact: !variadic}
	arity := len(clause.Params)
	if variadic {
		arity++
	}
	c.recur = c.recur.Cons(&recurPoint{arity: arity})

	var err error
	clause.Body, err = c.compileImplicitDo(lang.SeqSlice(seq.Next()))
	if err != nil {
		return nil, err
	}
	return clause, nil
}

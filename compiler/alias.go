// Copyright © 2018 The ELPS authors

package compiler

import (
	"github.com/luthersystems/cljgo/ir"
	"github.com/luthersystems/cljgo/lang"
)

// Alias overrides what a local symbol compiles to.  Aliases are created by
// fn*, let*, loop*, catch clauses and let-macro.  The innermost alias for a
// name shadows all others.
type Alias interface {
	compile(c *Compiler, sym *lang.Symbol) (ir.Node, error)
}

// FnArgument is a parameter of the function being compiled.
type FnArgument struct {
	Name  string
	Index int
	Rest  bool
}

func (a *FnArgument) compile(c *Compiler, sym *lang.Symbol) (ir.Node, error) {
	return &ir.Argument{Name: a.Name, Index: a.Index, Rest: a.Rest}, nil
}

// RenamedLocal is a local bound by let*, loop* or catch.  Local is the
// storage name, which differs from the symbol when the symbol shadowed an
// existing alias.
type RenamedLocal struct {
	Local string
}

func (a *RenamedLocal) compile(c *Compiler, sym *lang.Symbol) (ir.Node, error) {
	return &ir.Local{Name: a.Local}, nil
}

// LocalMacro substitutes Form wherever the symbol appears.
type LocalMacro struct {
	Form interface{}
}

func (a *LocalMacro) compile(c *Compiler, sym *lang.Symbol) (ir.Node, error) {
	return c.compile(a.Form)
}

// SelfReference is the name of a function within its own body.
type SelfReference struct {
	Name string
}

func (a *SelfReference) compile(c *Compiler, sym *lang.Symbol) (ir.Node, error) {
	return &ir.Self{}, nil
}

// ClosureCapture is an alias visible from an enclosing scope when a fn* was
// compiled.  The first reference registers the capture with the function so
// the value is copied when the function is created.
type ClosureCapture struct {
	Name  string
	Inner Alias
	fn    *fnContext
	node  *ir.Closure
}

func (a *ClosureCapture) compile(c *Compiler, sym *lang.Symbol) (ir.Node, error) {
	if a.node != nil {
		return a.node, nil
	}
	target, err := a.Inner.compile(c, sym)
	if err != nil {
		return nil, err
	}
	a.node = &ir.Closure{Name: a.Name, Target: target}
	a.fn.closures = append(a.fn.closures, a.node)
	logger.Debugf("fn %s captures %s", a.fn.name, a.Name)
	return a.node, nil
}

// fnContext accumulates the captures of one fn* form.
type fnContext struct {
	name     string
	closures []*ir.Closure
}

// captureAliases rewrites every visible alias into a closure capture for fn.
// Local macros are substitutions and stay as they are.
func captureAliases(aliases *lang.PersistentHashMap, fn *fnContext) *lang.PersistentHashMap {
	out := aliases
	for s := aliases.Seq(); s != nil; s = s.Next() {
		e := s.First().(*lang.MapEntry)
		alias := e.Val().(Alias)
		if _, ok := alias.(*LocalMacro); ok {
			continue
		}
		name := e.Key().(string)
		out = out.Assoc(name, &ClosureCapture{Name: name, Inner: alias, fn: fn})
	}
	return out
}

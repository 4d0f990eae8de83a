// Copyright © 2018 The ELPS authors

package compiler

import (
	"github.com/luthersystems/cljgo/ir"
	"github.com/luthersystems/cljgo/lang"
)

type catchClause struct {
	typ     *lang.Symbol
	binding *lang.Symbol
	body    interface{}
}

// compileTry compiles
//
//	(try body (catch Type e handler)* (else form)? (finally form)?)
//
// except is accepted as a synonym for catch.  Only the combinations
// catch, finally and catch with finally are supported.
func compileTry(c *Compiler, form lang.Seq, items []interface{}) (ir.Node, error) {
	switch len(items) {
	case 1:
		return ir.Nil, nil
	case 2:
		return c.compile(items[1])
	}

	var catches []catchClause
	var els, fin interface{}
	hasElse, hasFinally := false, false
	for _, x := range items[2:] {
		clause, ok := x.(lang.Seq)
		if !ok || clause.First() == nil {
			return nil, lang.CompilerErrorf(form, "try arguments must be non-empty lists")
		}
		parts := lang.SeqSlice(clause)
		head, _ := parts[0].(*lang.Symbol)
		switch {
		case head != nil && (head.Is("catch") || head.Is("except")):
			if len(parts) != 4 {
				return nil, lang.CompilerErrorf(form, "try %s blocks must be 4 items long", head.Name)
			}
			typ, ok := parts[1].(*lang.Symbol)
			if !ok {
				return nil, lang.CompilerErrorf(form, "exception passed to %s block must be a symbol", head.Name)
			}
			for _, prev := range catches {
				if prev.typ.Equiv(typ) {
					return nil, lang.CompilerErrorf(form, "try cannot catch duplicate exceptions")
				}
			}
			binding, ok := parts[2].(*lang.Symbol)
			if !ok || binding.IsQualified() {
				return nil, lang.CompilerErrorf(form, "variable name for %s block must be a symbol", head.Name)
			}
			catches = append(catches, catchClause{typ: typ, binding: binding, body: parts[3]})
		case head != nil && head.Is("else"):
			if len(parts) != 2 {
				return nil, lang.CompilerErrorf(form, "try else blocks must be 2 items")
			}
			if hasElse {
				return nil, lang.CompilerErrorf(form, "try cannot have multiple else blocks")
			}
			hasElse, els = true, parts[1]
		case head != nil && head.Is("finally"):
			if len(parts) != 2 {
				return nil, lang.CompilerErrorf(form, "try finally blocks must be 2 items")
			}
			if hasFinally {
				return nil, lang.CompilerErrorf(form, "try cannot have multiple finally blocks")
			}
			hasFinally, fin = true, parts[1]
		default:
			return nil, lang.CompilerErrorf(form, "try does not accept any symbols apart from catch/except/else/finally")
		}
	}
	if hasElse {
		logger.Debugf("rejected try else clause %s", lang.PrintString(els))
		if len(catches) == 0 && !hasFinally {
			return nil, lang.CompilerErrorf(form, "try does not accept else statements on their own")
		}
		return nil, lang.CompilerErrorf(form, "try does not support else statements")
	}

	body, err := c.compile(items[1])
	if err != nil {
		return nil, err
	}
	n := &ir.Try{Body: body}
	for _, cc := range catches {
		catch, err := c.compileCatch(cc)
		if err != nil {
			return nil, err
		}
		n.Catches = append(n.Catches, catch)
	}
	if hasFinally {
		n.Finally, err = c.compile(fin)
		if err != nil {
			return nil, err
		}
	}
	return n, nil
}

func (c *Compiler) compileCatch(cc catchClause) (*ir.Catch, error) {
	typ, err := c.compile(cc.typ)
	if err != nil {
		return nil, err
	}
	defer c.restore(c.save())
	catch := &ir.Catch{Type: typ, Binding: c.bindLocal(cc.binding)}
	catch.Body, err = c.compile(cc.body)
	if err != nil {
		return nil, err
	}
	return catch, nil
}

// Copyright © 2018 The ELPS authors

package ir

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/luthersystems/cljgo/lang"
	"github.com/pkg/errors"
)

// Wire format version written at the head of every encoded program.
const wireVersion = 1

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("ir: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

type op uint8

const (
	opConst op = iota + 1
	opVarRef
	opHost
	opLocal
	opArgument
	opClosure
	opSelf
	opStoreLocal
	opDo
	opIf
	opCall
	opMethod
	opProperty
	opLoop
	opRecur
	opFn
	opTry
	opThrow
	opIs
	opDef
	opInNS
)

type wireProgram struct {
	Version int         `cbor:"1,keyasint"`
	Nodes   []*wireNode `cbor:"2,keyasint"`
}

// wireNode is a flattened node.  Each op uses the subset of fields noted in
// encodeNode.
type wireNode struct {
	Op      op            `cbor:"1,keyasint"`
	Str     string        `cbor:"2,keyasint,omitempty"`
	Int     int           `cbor:"3,keyasint,omitempty"`
	Flag    bool          `cbor:"4,keyasint,omitempty"`
	Val     *wireValue    `cbor:"5,keyasint,omitempty"`
	A       *wireNode     `cbor:"6,keyasint,omitempty"`
	B       *wireNode     `cbor:"7,keyasint,omitempty"`
	C       *wireNode     `cbor:"8,keyasint,omitempty"`
	List    []*wireNode   `cbor:"9,keyasint,omitempty"`
	Strs    []string      `cbor:"10,keyasint,omitempty"`
	Clauses []*wireClause `cbor:"11,keyasint,omitempty"`
	Catches []*wireCatch  `cbor:"12,keyasint,omitempty"`
}

type wireClause struct {
	Params []string  `cbor:"1,keyasint,omitempty"`
	Rest   string    `cbor:"2,keyasint,omitempty"`
	Min    int       `cbor:"3,keyasint"`
	Exact  bool      `cbor:"4,keyasint,omitempty"`
	Body   *wireNode `cbor:"5,keyasint"`
}

type wireCatch struct {
	Type    *wireNode `cbor:"1,keyasint"`
	Binding string    `cbor:"2,keyasint"`
	Body    *wireNode `cbor:"3,keyasint"`
}

type valueTag uint8

const (
	valNil valueTag = iota
	valBool
	valInt
	valFloat
	valString
	valKeyword
	valSymbol
	valList
	valVector
	valMap
	valSet
	valVar
)

type wireValue struct {
	Tag   valueTag     `cbor:"1,keyasint"`
	Bool  bool         `cbor:"2,keyasint,omitempty"`
	Int   int64        `cbor:"3,keyasint,omitempty"`
	Float float64      `cbor:"4,keyasint,omitempty"`
	Str   string       `cbor:"5,keyasint,omitempty"`
	NS    string       `cbor:"6,keyasint,omitempty"`
	Items []*wireValue `cbor:"7,keyasint,omitempty"`
	Meta  *wireValue   `cbor:"8,keyasint,omitempty"`
}

// Marshal encodes a program of top level nodes.  Constants must be values
// the reader can produce, or Vars.
func Marshal(nodes ...Node) ([]byte, error) {
	prog := &wireProgram{Version: wireVersion}
	for _, n := range nodes {
		w, err := encodeNode(n)
		if err != nil {
			return nil, err
		}
		prog.Nodes = append(prog.Nodes, w)
	}
	return cborEncMode.Marshal(prog)
}

// Unmarshal decodes a program produced by Marshal.  Vars are interned in reg
// by namespace and name; a nil reg uses lang.DefaultRegistry.
func Unmarshal(data []byte, reg *lang.Registry) ([]Node, error) {
	if reg == nil {
		reg = lang.DefaultRegistry
	}
	var prog wireProgram
	if err := cbor.Unmarshal(data, &prog); err != nil {
		return nil, errors.Wrap(err, "ir: unmarshal program")
	}
	if prog.Version != wireVersion {
		return nil, errors.Errorf("ir: unsupported wire version %d", prog.Version)
	}
	d := &decoder{reg: reg}
	nodes := make([]Node, len(prog.Nodes))
	for i, w := range prog.Nodes {
		n, err := d.node(w)
		if err != nil {
			return nil, err
		}
		nodes[i] = n
	}
	return nodes, nil
}

func encodeNodes(nodes []Node) ([]*wireNode, error) {
	out := make([]*wireNode, len(nodes))
	for i, n := range nodes {
		w, err := encodeNode(n)
		if err != nil {
			return nil, err
		}
		out[i] = w
	}
	return out, nil
}

func encodeNode(n Node) (*wireNode, error) {
	var err error
	enc := func(n Node) *wireNode {
		if err != nil || n == nil {
			return nil
		}
		var w *wireNode
		w, err = encodeNode(n)
		return w
	}
	encList := func(nodes []Node) []*wireNode {
		if err != nil {
			return nil
		}
		var ws []*wireNode
		ws, err = encodeNodes(nodes)
		return ws
	}
	var w *wireNode
	switch n := n.(type) {
	case *Const:
		var v *wireValue
		v, err = encodeValue(n.Value)
		w = &wireNode{Op: opConst, Val: v}
	case *VarRef:
		var v *wireValue
		v, err = encodeValue(n.Var)
		w = &wireNode{Op: opVarRef, Val: v}
	case *Host:
		w = &wireNode{Op: opHost, Str: n.Name}
	case *Local:
		w = &wireNode{Op: opLocal, Str: n.Name}
	case *Argument:
		w = &wireNode{Op: opArgument, Str: n.Name, Int: n.Index, Flag: n.Rest}
	case *Closure:
		w = &wireNode{Op: opClosure, Str: n.Name, A: enc(n.Target)}
	case *Self:
		w = &wireNode{Op: opSelf}
	case *StoreLocal:
		w = &wireNode{Op: opStoreLocal, Str: n.Name, A: enc(n.Value)}
	case *Do:
		w = &wireNode{Op: opDo, List: encList(n.Body)}
	case *If:
		w = &wireNode{Op: opIf, A: enc(n.Test), B: enc(n.Then), C: enc(n.Else)}
	case *Call:
		w = &wireNode{Op: opCall, A: enc(n.Fn), List: encList(n.Args)}
	case *Method:
		w = &wireNode{Op: opMethod, Str: n.Name, A: enc(n.Target), List: encList(n.Args)}
	case *Property:
		w = &wireNode{Op: opProperty, Str: n.Name, A: enc(n.Target)}
	case *Loop:
		w = &wireNode{Op: opLoop, Strs: n.Bindings, List: encList(n.Inits), A: enc(n.Body)}
	case *Recur:
		w = &wireNode{Op: opRecur, List: encList(n.Args)}
	case *Fn:
		w = &wireNode{Op: opFn, Str: n.Name}
		for _, c := range n.Closures {
			w.List = append(w.List, enc(c))
		}
		for _, c := range n.Clauses {
			w.Clauses = append(w.Clauses, &wireClause{
				Params: c.Params,
				Rest:   c.Rest,
				Min:    c.Guard.Min,
				Exact:  c.Guard.Exact,
				Body:   enc(c.Body),
			})
		}
	case *Try:
		w = &wireNode{Op: opTry, A: enc(n.Body), B: enc(n.Finally)}
		for _, c := range n.Catches {
			w.Catches = append(w.Catches, &wireCatch{Type: enc(c.Type), Binding: c.Binding, Body: enc(c.Body)})
		}
	case *Throw:
		w = &wireNode{Op: opThrow, A: enc(n.Value)}
	case *Is:
		w = &wireNode{Op: opIs, A: enc(n.Left), B: enc(n.Right)}
	case *Def:
		var v, meta *wireValue
		v, err = encodeValue(n.Var)
		if err == nil && n.Meta != nil {
			meta, err = encodeValue(n.Meta)
		}
		w = &wireNode{Op: opDef, Val: v, A: enc(n.Value)}
		if meta != nil {
			w.Val.Meta = meta
		}
	case *InNS:
		w = &wireNode{Op: opInNS, Str: n.Name}
	default:
		return nil, errors.Errorf("ir: cannot encode node %T", n)
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

func encodeValue(x interface{}) (*wireValue, error) {
	switch x := x.(type) {
	case nil:
		return &wireValue{Tag: valNil}, nil
	case bool:
		return &wireValue{Tag: valBool, Bool: x}, nil
	case string:
		return &wireValue{Tag: valString, Str: x}, nil
	case float64:
		return &wireValue{Tag: valFloat, Float: x}, nil
	case *lang.Keyword:
		return &wireValue{Tag: valKeyword, NS: x.Sym().NS, Str: x.Sym().Name}, nil
	case *lang.Symbol:
		meta, err := encodeMeta(x.Meta())
		if err != nil {
			return nil, err
		}
		return &wireValue{Tag: valSymbol, NS: x.NS, Str: x.Name, Meta: meta}, nil
	case *lang.Var:
		if x.Namespace() == nil || x.Symbol() == nil {
			return nil, errors.Errorf("ir: cannot encode anonymous var")
		}
		return &wireValue{Tag: valVar, NS: x.Namespace().Name().Name, Str: x.Symbol().Name}, nil
	case *lang.PersistentList:
		return encodeColl(valList, x.Seq(), x.Meta())
	case *lang.PersistentVector:
		return encodeColl(valVector, x.Seq(), x.Meta())
	case *lang.PersistentHashSet:
		return encodeColl(valSet, x.Seq(), x.Meta())
	case *lang.PersistentHashMap:
		return encodeMap(x, x.Meta())
	case *lang.PersistentTreeMap:
		return encodeMap(x, x.Meta())
	}
	if n, ok := lang.ToInt64(x); ok {
		return &wireValue{Tag: valInt, Int: n}, nil
	}
	return nil, errors.Errorf("ir: cannot encode constant of type %T", x)
}

func encodeMeta(meta lang.IPersistentMap) (*wireValue, error) {
	if meta == nil {
		return nil, nil
	}
	return encodeMap(meta, nil)
}

func encodeColl(tag valueTag, s lang.Seq, meta lang.IPersistentMap) (*wireValue, error) {
	w := &wireValue{Tag: tag}
	for ; s != nil; s = s.Next() {
		item, err := encodeValue(s.First())
		if err != nil {
			return nil, err
		}
		w.Items = append(w.Items, item)
	}
	m, err := encodeMeta(meta)
	if err != nil {
		return nil, err
	}
	w.Meta = m
	return w, nil
}

func encodeMap(m lang.IPersistentMap, meta lang.IPersistentMap) (*wireValue, error) {
	w := &wireValue{Tag: valMap}
	for s := m.Seq(); s != nil; s = s.Next() {
		e := s.First().(*lang.MapEntry)
		k, err := encodeValue(e.Key())
		if err != nil {
			return nil, err
		}
		v, err := encodeValue(e.Val())
		if err != nil {
			return nil, err
		}
		w.Items = append(w.Items, k, v)
	}
	mw, err := encodeMeta(meta)
	if err != nil {
		return nil, err
	}
	w.Meta = mw
	return w, nil
}

type decoder struct {
	reg *lang.Registry
}

func (d *decoder) nodes(ws []*wireNode) ([]Node, error) {
	out := make([]Node, len(ws))
	for i, w := range ws {
		n, err := d.node(w)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func (d *decoder) node(w *wireNode) (Node, error) {
	if w == nil {
		return nil, nil
	}
	var err error
	dec := func(w *wireNode) Node {
		if err != nil || w == nil {
			return nil
		}
		var n Node
		n, err = d.node(w)
		return n
	}
	decList := func(ws []*wireNode) []Node {
		if err != nil {
			return nil
		}
		var ns []Node
		ns, err = d.nodes(ws)
		return ns
	}
	var n Node
	switch w.Op {
	case opConst:
		var v interface{}
		v, err = d.value(w.Val)
		n = &Const{Value: v}
	case opVarRef:
		var v *lang.Var
		v, err = d.varValue(w.Val)
		n = &VarRef{Var: v}
	case opHost:
		n = &Host{Name: w.Str}
	case opLocal:
		n = &Local{Name: w.Str}
	case opArgument:
		n = &Argument{Name: w.Str, Index: w.Int, Rest: w.Flag}
	case opClosure:
		n = &Closure{Name: w.Str, Target: dec(w.A)}
	case opSelf:
		n = &Self{}
	case opStoreLocal:
		n = &StoreLocal{Name: w.Str, Value: dec(w.A)}
	case opDo:
		n = &Do{Body: decList(w.List)}
	case opIf:
		n = &If{Test: dec(w.A), Then: dec(w.B), Else: dec(w.C)}
	case opCall:
		n = &Call{Fn: dec(w.A), Args: decList(w.List)}
	case opMethod:
		n = &Method{Target: dec(w.A), Name: w.Str, Args: decList(w.List)}
	case opProperty:
		n = &Property{Target: dec(w.A), Name: w.Str}
	case opLoop:
		if len(w.Strs) != len(w.List) {
			return nil, errors.Errorf("ir: loop has %d bindings and %d inits", len(w.Strs), len(w.List))
		}
		n = &Loop{Bindings: w.Strs, Inits: decList(w.List), Body: dec(w.A)}
	case opRecur:
		n = &Recur{Args: decList(w.List)}
	case opFn:
		fn := &Fn{Name: w.Str}
		for _, cw := range w.List {
			if c, ok := dec(cw).(*Closure); ok {
				fn.Closures = append(fn.Closures, c)
			} else if err == nil {
				err = errors.Errorf("ir: fn closure list holds a non-closure node")
			}
		}
		for _, cw := range w.Clauses {
			fn.Clauses = append(fn.Clauses, &FnClause{
				Params: cw.Params,
				Rest:   cw.Rest,
				Guard:  ArityGuard{Min: cw.Min, Exact: cw.Exact},
				Body:   dec(cw.Body),
			})
		}
		n = fn
	case opTry:
		t := &Try{Body: dec(w.A), Finally: dec(w.B)}
		for _, cw := range w.Catches {
			t.Catches = append(t.Catches, &Catch{Type: dec(cw.Type), Binding: cw.Binding, Body: dec(cw.Body)})
		}
		n = t
	case opThrow:
		n = &Throw{Value: dec(w.A)}
	case opIs:
		n = &Is{Left: dec(w.A), Right: dec(w.B)}
	case opDef:
		def := &Def{Value: dec(w.A)}
		if err == nil {
			def.Var, err = d.varValue(w.Val)
		}
		if err == nil && w.Val != nil && w.Val.Meta != nil {
			def.Meta, err = d.mapValue(w.Val.Meta)
		}
		n = def
	case opInNS:
		n = &InNS{Name: w.Str}
	default:
		return nil, errors.Errorf("ir: unknown op %d", w.Op)
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (d *decoder) varValue(w *wireValue) (*lang.Var, error) {
	if w == nil || w.Tag != valVar {
		return nil, errors.Errorf("ir: expected var reference")
	}
	ns := d.reg.FindOrCreate(lang.NewSymbol("", w.NS))
	return ns.Intern(lang.NewSymbol("", w.Str))
}

func (d *decoder) mapValue(w *wireValue) (lang.IPersistentMap, error) {
	x, err := d.value(w)
	if err != nil {
		return nil, err
	}
	m, ok := x.(lang.IPersistentMap)
	if !ok {
		return nil, errors.Errorf("ir: expected map, got %T", x)
	}
	return m, nil
}

func (d *decoder) items(w *wireValue) ([]interface{}, error) {
	out := make([]interface{}, len(w.Items))
	for i, item := range w.Items {
		x, err := d.value(item)
		if err != nil {
			return nil, err
		}
		out[i] = x
	}
	return out, nil
}

func (d *decoder) value(w *wireValue) (interface{}, error) {
	if w == nil {
		return nil, nil
	}
	var meta lang.IPersistentMap
	if w.Meta != nil {
		var err error
		meta, err = d.mapValue(w.Meta)
		if err != nil {
			return nil, err
		}
	}
	switch w.Tag {
	case valNil:
		return nil, nil
	case valBool:
		return w.Bool, nil
	case valInt:
		return w.Int, nil
	case valFloat:
		return w.Float, nil
	case valString:
		return w.Str, nil
	case valKeyword:
		return lang.InternKeyword(w.NS, w.Str), nil
	case valSymbol:
		return lang.NewSymbol(w.NS, w.Str).WithMeta(meta), nil
	case valVar:
		return d.varValue(w)
	}
	items, err := d.items(w)
	if err != nil {
		return nil, err
	}
	switch w.Tag {
	case valList:
		return lang.ListOf(items...).WithMeta(meta), nil
	case valVector:
		return lang.Vec(items).WithMeta(meta), nil
	case valSet:
		return lang.SetOf(items...).WithMeta(meta), nil
	case valMap:
		m, err := lang.MapOf(items...)
		if err != nil {
			return nil, err
		}
		return m.WithMeta(meta), nil
	}
	return nil, errors.Errorf("ir: unknown value tag %d", w.Tag)
}

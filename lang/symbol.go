// Copyright © 2018 The ELPS authors

package lang

import (
	"strings"
	"sync"

	"github.com/zeebo/xxh3"
)

// Symbol is a possibly namespace-qualified name.  Symbols compare by value;
// metadata does not participate in equality.
type Symbol struct {
	NS   string
	Name string
	meta IPersistentMap
}

// NewSymbol returns a symbol with the given namespace and name.  An empty ns
// produces an unqualified symbol.
func NewSymbol(ns, name string) *Symbol {
	return &Symbol{NS: ns, Name: name}
}

// ParseSymbol splits s at its first slash into namespace and name.  The
// symbol "/" and symbols with a leading or trailing slash are unqualified.
func ParseSymbol(s string) *Symbol {
	i := strings.IndexByte(s, '/')
	if i <= 0 || i == len(s)-1 {
		return &Symbol{Name: s}
	}
	return &Symbol{NS: s[:i], Name: s[i+1:]}
}

// IsQualified reports whether the symbol has a namespace part.
func (s *Symbol) IsQualified() bool {
	return s.NS != ""
}

// Is reports whether s is the unqualified symbol name.
func (s *Symbol) Is(name string) bool {
	return s.NS == "" && s.Name == name
}

func (s *Symbol) String() string {
	if s.NS == "" {
		return s.Name
	}
	return s.NS + "/" + s.Name
}

// Equiv implements Equiver.
func (s *Symbol) Equiv(o interface{}) bool {
	other, ok := o.(*Symbol)
	return ok && other.NS == s.NS && other.Name == s.Name
}

// Hash implements Hasher.
func (s *Symbol) Hash() uint32 {
	return uint32(xxh3.HashString(s.String()))
}

// Meta implements IMeta.
func (s *Symbol) Meta() IPersistentMap {
	return s.meta
}

// WithMeta returns a copy of s carrying meta.
func (s *Symbol) WithMeta(meta IPersistentMap) *Symbol {
	if meta == s.meta {
		return s
	}
	return &Symbol{NS: s.NS, Name: s.Name, meta: meta}
}

// Keyword is an interned symbolic constant.  Two keywords with the same name
// are the same pointer.
type Keyword struct {
	sym  *Symbol
	hash uint32
}

var keywords = struct {
	sync.Mutex
	table map[string]*Keyword
}{table: make(map[string]*Keyword)}

// InternKeyword returns the unique keyword with namespace ns and name.
func InternKeyword(ns, name string) *Keyword {
	sym := NewSymbol(ns, name)
	key := sym.String()
	keywords.Lock()
	defer keywords.Unlock()
	if kw, ok := keywords.table[key]; ok {
		return kw
	}
	kw := &Keyword{sym: sym, hash: sym.Hash() + 0x9e3779b9}
	keywords.table[key] = kw
	return kw
}

// Kw returns the unqualified keyword name, interning it if necessary.
func Kw(name string) *Keyword {
	return InternKeyword("", name)
}

// Sym returns the keyword's symbol.
func (k *Keyword) Sym() *Symbol {
	return k.sym
}

// Name returns the unqualified part of the keyword.
func (k *Keyword) Name() string {
	return k.sym.Name
}

func (k *Keyword) String() string {
	return ":" + k.sym.String()
}

// Hash implements Hasher.
func (k *Keyword) Hash() uint32 {
	return k.hash
}

// Invoke looks the keyword up in a map argument: (:k m) or (:k m not-found).
func (k *Keyword) Invoke(t *Thread, args ...interface{}) (interface{}, error) {
	switch len(args) {
	case 1:
		return lookup(args[0], k, nil), nil
	case 2:
		return lookup(args[0], k, args[1]), nil
	}
	return nil, Arityf("wrong number of args (%d) passed to %v", len(args), k)
}

func lookup(coll interface{}, key, notFound interface{}) interface{} {
	switch coll := coll.(type) {
	case IPersistentMap:
		return coll.ValAtOr(key, notFound)
	case *PersistentHashSet:
		if coll.Contains(key) {
			return coll.Get(key)
		}
	}
	return notFound
}

// Keywords used as metadata keys by the reader, compiler and Vars.
var (
	KeywordFile     = Kw("file")
	KeywordLine     = Kw("line")
	KeywordColumn   = Kw("column")
	KeywordDynamic  = Kw("dynamic")
	KeywordStatic   = Kw("static")
	KeywordMacro    = Kw("macro")
	KeywordPrivate  = Kw("private")
	KeywordDoc      = Kw("doc")
	KeywordArglists = Kw("arglists")
	KeywordNS       = Kw("ns")
	KeywordName     = Kw("name")
)

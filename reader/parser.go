// Copyright © 2018 The ELPS authors

package reader

import (
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/luthersystems/cljgo/lang"
	"github.com/luthersystems/cljgo/reader/token"
)

var (
	symQuote = lang.NewSymbol("", "quote")
	symVar   = lang.NewSymbol("", "var")
	kwTag    = lang.Kw("tag")
)

var charNames = map[string]string{
	"space":     " ",
	"newline":   "\n",
	"tab":       "\t",
	"return":    "\r",
	"backspace": "\b",
	"formfeed":  "\f",
}

// Read parses every form in r.  The name is recorded in the :file metadata of
// the forms read.
func Read(name string, r io.Reader) ([]interface{}, error) {
	p := New(token.NewScanner(name, r))
	forms, err := p.ParseProgram()
	if err != nil {
		return nil, errors.WithMessagef(err, "read %s", name)
	}
	return forms, nil
}

// ReadLocation is like Read but also records the physical path of the
// source in token locations.
func ReadLocation(name string, path string, r io.Reader) ([]interface{}, error) {
	s := token.NewScanner(name, r)
	s.SetPath(path)
	return New(s).ParseProgram()
}

// ReadString parses every form in src.
func ReadString(name string, src string) ([]interface{}, error) {
	return Read(name, strings.NewReader(src))
}

// Parser reads forms from a token stream.
type Parser struct {
	parsing bool
	src     *TokenSource
}

// NewFromSource initializes and returns a Parser that reads tokens from src.
func NewFromSource(src *TokenSource) *Parser {
	return &Parser{
		src: src,
	}
}

// New initializes and returns a new Parser that reads tokens from scanner.
func New(scanner *token.Scanner) *Parser {
	return NewFromSource(NewTokenSource(scanner))
}

// Parse reads the next form.  Parse returns io.EOF when the stream ends
// before a form begins.
func (p *Parser) Parse() (interface{}, error) {
	if err := p.ignoreTrivia(); err != nil {
		return nil, err
	}
	if p.src.IsEOF() {
		return nil, io.EOF
	}
	return p.ParseExpression()
}

// ParseProgram parses a series of forms potentially preceded by a hash-bang,
// `#!`.
func (p *Parser) ParseProgram() ([]interface{}, error) {
	var forms []interface{}

	p.ignoreHashBang()

	for {
		form, err := p.Parse()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		forms = append(forms, form)
	}

	return forms, nil
}

// ParseExpression parses a single form.  Unlike Parse, ParseExpression
// reports an error if the stream ends before a form is read.
func (p *Parser) ParseExpression() (interface{}, error) {
	fn := p.parseExpression()

	// An Interactive parser derives its prompt from this flag.
	if !p.parsing {
		p.parsing = true
		defer func() { p.parsing = false }()
	}

	return fn(p)
}

func (p *Parser) ignoreHashBang() {
	if p.PeekType() != token.HASH_BANG {
		return
	}
	p.src.Scan()
	p.src.AcceptType(token.COMMENT)
}

// ignoreTrivia skips comments and forms discarded with #_.
func (p *Parser) ignoreTrivia() error {
	for {
		if p.Accept(token.COMMENT) {
			continue
		}
		if !p.Accept(token.DISCARD) {
			return nil
		}
		if _, err := p.ParseExpression(); err != nil {
			return err
		}
	}
}

func (p *Parser) parseExpression() func(p *Parser) (interface{}, error) {
	if err := p.ignoreTrivia(); err != nil {
		return func(*Parser) (interface{}, error) { return nil, err }
	}
	switch p.PeekType() {
	case token.INT:
		return (*Parser).ParseLiteralInt
	case token.INT_HEX:
		return (*Parser).ParseLiteralIntHex
	case token.FLOAT:
		return (*Parser).ParseLiteralFloat
	case token.STRING:
		return (*Parser).ParseLiteralString
	case token.CHAR:
		return (*Parser).ParseLiteralChar
	case token.KEYWORD:
		return (*Parser).ParseKeyword
	case token.SYMBOL:
		return (*Parser).ParseSymbol
	case token.QUOTE:
		return (*Parser).ParseQuote
	case token.VAR_QUOTE:
		return (*Parser).ParseVarQuote
	case token.META:
		return (*Parser).ParseMeta
	case token.PAREN_L:
		return (*Parser).ParseList
	case token.BRACKET_L:
		return (*Parser).ParseVector
	case token.BRACE_L:
		return (*Parser).ParseMap
	case token.SET_L:
		return (*Parser).ParseSet
	case token.EOF:
		return func(p *Parser) (interface{}, error) {
			p.ReadToken()
			return nil, p.errorf("unexpected EOF")
		}
	case token.ERROR, token.INVALID:
		return func(p *Parser) (interface{}, error) {
			p.ReadToken()
			return nil, p.errorf("%s", p.TokenText())
		}
	default:
		return func(p *Parser) (interface{}, error) {
			p.ReadToken()
			return nil, p.errorf("unexpected token: %v", p.TokenType())
		}
	}
}

func (p *Parser) ParseLiteralInt() (interface{}, error) {
	if !p.Accept(token.INT) {
		return nil, p.errorf("invalid integer literal: %v", p.PeekType())
	}
	text := p.TokenText()
	x, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, p.errorf("integer literal overflows int64: %v", text)
	}
	return x, nil
}

func (p *Parser) ParseLiteralIntHex() (interface{}, error) {
	if !p.Accept(token.INT_HEX) {
		return nil, p.errorf("invalid hex literal: %v", p.PeekType())
	}
	text := p.TokenText()
	x, err := strconv.ParseInt(text[2:], 16, 64)
	if err != nil {
		return nil, p.errorf("hex literal overflows int64: %v", text)
	}
	return x, nil
}

func (p *Parser) ParseLiteralFloat() (interface{}, error) {
	if !p.Accept(token.FLOAT) {
		return nil, p.errorf("invalid float literal: %v", p.PeekType())
	}
	x, err := strconv.ParseFloat(p.TokenText(), 64)
	if err != nil {
		return nil, p.errorf("invalid floating point literal: %v", p.TokenText())
	}
	return x, nil
}

func (p *Parser) ParseLiteralString() (interface{}, error) {
	if !p.Accept(token.STRING) {
		return nil, p.errorf("invalid string literal: %v", p.PeekType())
	}
	text := strings.NewReplacer("\n", `\n`, "\r", `\r`, "\t", `\t`).Replace(p.TokenText())
	s, err := strconv.Unquote(text)
	if err != nil {
		return nil, p.errorf("invalid string literal: %v", p.TokenText())
	}
	return s, nil
}

// ParseLiteralChar reads a character literal.  Characters are represented
// as one-character strings.
func (p *Parser) ParseLiteralChar() (interface{}, error) {
	if !p.Accept(token.CHAR) {
		return nil, p.errorf("invalid character literal: %v", p.PeekType())
	}
	name := p.TokenText()[1:]
	if c, ok := charNames[name]; ok {
		return c, nil
	}
	if len([]rune(name)) != 1 {
		return nil, p.errorf("unsupported character: \\%s", name)
	}
	return name, nil
}

func (p *Parser) ParseKeyword() (interface{}, error) {
	if !p.Accept(token.KEYWORD) {
		return nil, p.errorf("invalid keyword: %v", p.PeekType())
	}
	text := p.TokenText()[1:]
	if strings.HasPrefix(text, ":") {
		return nil, p.errorf("auto-resolved keywords are not supported: %s", p.TokenText())
	}
	sym := lang.ParseSymbol(text)
	return lang.InternKeyword(sym.NS, sym.Name), nil
}

// ParseSymbol reads a symbol.  The symbols nil, true and false read as the
// corresponding constants.
func (p *Parser) ParseSymbol() (interface{}, error) {
	if !p.Accept(token.SYMBOL) {
		return nil, p.errorf("invalid symbol: %v", p.PeekType())
	}
	text := p.TokenText()
	switch text {
	case "nil":
		return nil, nil
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	if strings.HasSuffix(text, ":") || strings.Contains(text, "::") {
		return nil, p.errorf("invalid symbol: %s", text)
	}
	return lang.ParseSymbol(text).WithMeta(p.locationMeta(p.Location())), nil
}

func (p *Parser) ParseQuote() (interface{}, error) {
	if !p.Accept(token.QUOTE) {
		return nil, p.errorf("invalid quote: %v", p.PeekType())
	}
	return p.wrap(symQuote)
}

func (p *Parser) ParseVarQuote() (interface{}, error) {
	if !p.Accept(token.VAR_QUOTE) {
		return nil, p.errorf("invalid var quote: %v", p.PeekType())
	}
	return p.wrap(symVar)
}

// wrap reads a form x and returns (op x) located at the reader macro.
func (p *Parser) wrap(op *lang.Symbol) (interface{}, error) {
	loc := p.Location()
	x, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}
	return lang.ListOf(op, x).WithMeta(p.locationMeta(loc)), nil
}

// ParseMeta reads ^meta form and returns form with meta merged into its
// metadata.  A keyword meta is shorthand for {:kw true}; a symbol or string
// is shorthand for {:tag x}.
func (p *Parser) ParseMeta() (interface{}, error) {
	if !p.Accept(token.META) {
		return nil, p.errorf("invalid metadata: %v", p.PeekType())
	}
	loc := p.Location()
	m, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}
	var meta lang.IPersistentMap
	switch m := m.(type) {
	case *lang.Keyword:
		meta = lang.EmptyHashMap.Assoc(m, true)
	case *lang.Symbol:
		meta = lang.EmptyHashMap.Assoc(kwTag, m.WithMeta(nil))
	case string:
		meta = lang.EmptyHashMap.Assoc(kwTag, m)
	case lang.IPersistentMap:
		meta = m
	default:
		return nil, p.errorfAt(loc, "metadata must be a symbol, keyword, string or map")
	}
	x, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}
	x, ok := withMeta(x, mergeMeta(formMeta(x), meta))
	if !ok {
		return nil, p.errorfAt(loc, "metadata can only be applied to symbols and collections")
	}
	return x, nil
}

func (p *Parser) ParseList() (interface{}, error) {
	items, open, err := p.parseSeq(token.PAREN_L, token.PAREN_R)
	if err != nil {
		return nil, err
	}
	return lang.ListOf(items...).WithMeta(p.locationMeta(open.Source)), nil
}

func (p *Parser) ParseVector() (interface{}, error) {
	items, _, err := p.parseSeq(token.BRACKET_L, token.BRACKET_R)
	if err != nil {
		return nil, err
	}
	return lang.Vec(items), nil
}

func (p *Parser) ParseMap() (interface{}, error) {
	items, open, err := p.parseSeq(token.BRACE_L, token.BRACE_R)
	if err != nil {
		return nil, err
	}
	if len(items)%2 != 0 {
		return nil, p.errorfAt(open.Source, "map literal must contain an even number of forms")
	}
	m, err := lang.MapOf(items...)
	if err != nil {
		return nil, &token.LocationError{Err: err, Source: open.Source}
	}
	if m.Count() != len(items)/2 {
		return nil, p.errorfAt(open.Source, "duplicate key in map literal")
	}
	return m, nil
}

func (p *Parser) ParseSet() (interface{}, error) {
	items, open, err := p.parseSeq(token.SET_L, token.BRACE_R)
	if err != nil {
		return nil, err
	}
	s := lang.SetOf(items...)
	if s.Count() != len(items) {
		return nil, p.errorfAt(open.Source, "duplicate key in set literal")
	}
	return s, nil
}

// parseSeq reads the forms between an open token and its closing token.
func (p *Parser) parseSeq(open, closing token.Type) ([]interface{}, *token.Token, error) {
	if !p.Accept(open) {
		return nil, nil, p.errorf("expected %v but got %v", open, p.PeekType())
	}
	tok := p.src.Token
	var items []interface{}
	for {
		if err := p.ignoreTrivia(); err != nil {
			return nil, nil, err
		}
		if p.src.IsEOF() {
			return nil, nil, p.errorfAt(tok.Source, "unmatched %s", tok.Text)
		}
		if p.Accept(closing) {
			break
		}
		x, err := p.ParseExpression()
		if err != nil {
			return nil, nil, err
		}
		items = append(items, x)
	}
	return items, tok, nil
}

func (p *Parser) ReadToken() *token.Token {
	p.src.Scan()
	return p.src.Token
}

func (p *Parser) TokenText() string {
	return p.src.Token.Text
}

func (p *Parser) TokenType() token.Type {
	return p.src.Token.Type
}

func (p *Parser) Location() *token.Location {
	return p.src.Token.Source
}

func (p *Parser) PeekType() token.Type {
	return p.src.Peek().Type
}

func (p *Parser) PeekLocation() *token.Location {
	return p.src.Peek().Source
}

func (p *Parser) Accept(typ ...token.Type) bool {
	return p.src.AcceptType(typ...)
}

func (p *Parser) locationMeta(loc *token.Location) lang.IPersistentMap {
	if loc == nil {
		return nil
	}
	return lang.EmptyHashMap.
		Assoc(lang.KeywordFile, loc.File).
		Assoc(lang.KeywordLine, int64(loc.Line)).
		Assoc(lang.KeywordColumn, int64(loc.Col))
}

func (p *Parser) errorf(format string, v ...interface{}) error {
	var loc *token.Location
	if p.src.Token != nil {
		loc = p.Location()
	} else {
		loc = p.PeekLocation()
	}
	return p.errorfAt(loc, format, v...)
}

func (p *Parser) errorfAt(loc *token.Location, format string, v ...interface{}) error {
	return &token.LocationError{
		Err:    errors.Errorf(format, v...),
		Source: loc,
	}
}

func formMeta(x interface{}) lang.IPersistentMap {
	if m, ok := x.(lang.IMeta); ok {
		return m.Meta()
	}
	return nil
}

func mergeMeta(base, extra lang.IPersistentMap) lang.IPersistentMap {
	if base == nil {
		return extra
	}
	m := lang.EmptyHashMap
	for _, src := range []lang.IPersistentMap{base, extra} {
		for s := src.Seq(); s != nil; s = s.Next() {
			e := s.First().(*lang.MapEntry)
			m = m.Assoc(e.Key(), e.Val())
		}
	}
	return m
}

func withMeta(x interface{}, meta lang.IPersistentMap) (interface{}, bool) {
	switch x := x.(type) {
	case *lang.Symbol:
		return x.WithMeta(meta), true
	case *lang.PersistentList:
		return x.WithMeta(meta), true
	case *lang.PersistentVector:
		return x.WithMeta(meta), true
	case *lang.PersistentHashMap:
		return x.WithMeta(meta), true
	case *lang.PersistentHashSet:
		return x.WithMeta(meta), true
	}
	return x, false
}

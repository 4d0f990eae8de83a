// Copyright © 2018 The ELPS authors

package reader

import (
	"sync"

	"github.com/luthersystems/cljgo/reader/token"
)

// Interactive parses a single form at a time and defers to a TokenGenerator
// whenever it needs more tokens.
type Interactive struct {
	prompt     string
	promptCont string
	Read       TokenGenerator
	buf        []*token.Token
	mut        sync.RWMutex
	p          *Parser
}

// NewInteractive initializes and returns a new Interactive parser.
func NewInteractive(read TokenGenerator) *Interactive {
	p := &Interactive{
		Read: read,
	}
	p.p = NewFromSource(NewTokenStreamSource(TokenGenerator(p.read)))
	return p
}

// SetPrompts configures the prompts returned by p.Prompt().  The cont string
// is used when the parser is in the middle of a form.
func (p *Interactive) SetPrompts(prompt, cont string) {
	p.prompt = prompt
	p.promptCont = cont
}

// Prompt returns the prompt a REPL should display before reading a line.
func (p *Interactive) Prompt() string {
	if p.IsParsing() {
		return p.promptCont
	}
	return p.prompt
}

// IsParsing returns true if p is in the middle of parsing a form.  IsParsing
// may be called concurrently with Parse, or when p is nil.
func (p *Interactive) IsParsing() bool {
	if p == nil {
		return false
	}
	p.mut.RLock()
	defer p.mut.RUnlock()
	return p.p.parsing
}

// read is called with p.mut held by Parse.  The lock is released while
// waiting on p.Read so that IsParsing can be observed.
func (p *Interactive) read() []*token.Token {
	tok := p.readBuffer()
	if len(tok) != 0 {
		return tok
	}

	p.mut.Unlock()
	defer p.mut.Lock()
	if p.Read == nil {
		panic("nil read func")
	}

	p.buf = p.Read()
	if len(p.buf) == 0 {
		panic("no tokens read")
	}

	return p.readBuffer()
}

func (p *Interactive) readBuffer() []*token.Token {
	if len(p.buf) > 0 {
		tok := p.buf[0]
		p.buf = p.buf[1:]
		return []*token.Token{tok}
	}
	return nil
}

// Parse parses one form from the interactive token stream.  If a parse error
// is encountered any buffered tokens, presumably from the current line, are
// discarded so corrected source can be re-read.
func (p *Interactive) Parse() (interface{}, error) {
	p.mut.Lock()
	defer p.mut.Unlock()
	form, err := p.p.Parse()
	if err != nil {
		p.buf = nil
		return nil, err
	}
	return form, nil
}

// Copyright © 2018 The ELPS authors

package lexer

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/luthersystems/cljgo/reader/token"
)

type LexFn func(*Lexer) []*token.Token

const (
	miscWordSymbols = "*+!-_?<>=/.&%$"
	miscWordRunes   = "0123456789" + miscWordSymbols + "'#:"
)

// Lexer produces tokens from a Scanner.
type Lexer struct {
	scanner *token.Scanner
	lex     LexFn
}

// New returns a Lexer reading from s.
func New(s *token.Scanner) *Lexer {
	return &Lexer{
		scanner: s,
		lex:     (*Lexer).readToken,
	}
}

// ReadToken returns the next tokens in the stream.  At the end of the stream
// ReadToken returns a token with type token.EOF.
func (lex *Lexer) ReadToken() []*token.Token {
	return lex.lex(lex)
}

func (lex *Lexer) readToken() []*token.Token {
	lex.scanner.AcceptSeqSpace()
	lex.scanner.Ignore()
	if !lex.scanner.Accept(func(c rune) bool { return true }) {
		if lex.scanner.EOF() {
			return lex.emit(token.EOF, "")
		}
		return lex.emitError(lex.scanner.Err())
	}
	switch c := lex.scanner.Rune(); c {
	case '(':
		return lex.emitText(token.PAREN_L)
	case ')':
		return lex.emitText(token.PAREN_R)
	case '[':
		return lex.emitText(token.BRACKET_L)
	case ']':
		return lex.emitText(token.BRACKET_R)
	case '{':
		return lex.emitText(token.BRACE_L)
	case '}':
		return lex.emitText(token.BRACE_R)
	case '\'':
		return lex.emitMacroChar(token.QUOTE)
	case '^':
		return lex.emitMacroChar(token.META)
	case ';':
		lex.scanner.AcceptSeq(func(c rune) bool { return c != '\n' })
		return lex.emitText(token.COMMENT)
	case ':':
		if lex.scanner.AcceptSeq(isWord) == 0 {
			return lex.errorf("invalid keyword")
		}
		return lex.emitText(token.KEYWORD)
	case '\\':
		return lex.readChar()
	case '"':
		return lex.readString()
	case '#':
		return lex.readDispatch()
	case '-', '+':
		if isDigit(lex.peekRune()) {
			return lex.readNumber()
		}
		return lex.readSymbol()
	default:
		if isDigit(c) {
			return lex.readNumber()
		}
		if isWordStart(c) {
			return lex.readSymbol()
		}
		return lex.emit(token.INVALID, fmt.Sprintf("unexpected text starting with %q", c))
	}
}

func (lex *Lexer) readDispatch() []*token.Token {
	if !lex.scanner.Accept(func(c rune) bool { return true }) {
		return lex.errorf("unexpected EOF after #")
	}
	switch lex.scanner.Rune() {
	case '{':
		return lex.emitText(token.SET_L)
	case '_':
		return lex.emitMacroChar(token.DISCARD)
	case '\'':
		return lex.emitMacroChar(token.VAR_QUOTE)
	case '!':
		tok := lex.emitText(token.HASH_BANG)
		lex.lex = (*Lexer).readHashBang
		return tok
	default:
		return lex.errorf("invalid dispatch macro character %q", lex.scanner.Rune())
	}
}

func (lex *Lexer) readHashBang() []*token.Token {
	lex.lex = (*Lexer).readToken
	lex.scanner.AcceptSeq(func(c rune) bool { return c != '\n' })
	return lex.emitText(token.COMMENT)
}

func (lex *Lexer) readString() []*token.Token {
	for {
		lex.scanner.AcceptSeq(func(c rune) bool { return c != '"' && c != '\\' })
		if lex.scanner.AcceptRune('"') {
			return lex.emitText(token.STRING)
		}
		if !lex.scanner.AcceptRune('\\') {
			return lex.errorf("unterminated string literal")
		}
		// The escaped character is checked by the parser.
		if !lex.scanner.Accept(func(c rune) bool { return true }) {
			return lex.errorf("unterminated string literal")
		}
	}
}

func (lex *Lexer) readChar() []*token.Token {
	if !lex.scanner.Accept(func(c rune) bool { return true }) {
		return lex.errorf("unexpected EOF after \\")
	}
	lex.scanner.AcceptSeq(isLetterOrDigit)
	return lex.emitText(token.CHAR)
}

func (lex *Lexer) readSymbol() []*token.Token {
	lex.scanner.AcceptSeq(isWord)
	return lex.emitText(token.SYMBOL)
}

func (lex *Lexer) readNumber() []*token.Token {
	if lex.scanner.Rune() == '0' && lex.scanner.AcceptAny("xX") {
		n := lex.scanner.AcceptSeq(func(c rune) bool {
			return isDigit(c) || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
		})
		if n == 0 || isWord(lex.peekRune()) {
			return lex.errorf("invalid hexadecimal literal: %s", lex.scanner.Text())
		}
		return lex.emitText(token.INT_HEX)
	}
	lex.scanner.AcceptSeqDigit()
	typ := token.INT
	if lex.scanner.AcceptRune('.') {
		typ = token.FLOAT
		lex.scanner.AcceptSeqDigit()
	}
	if lex.scanner.AcceptAny("eE") {
		typ = token.FLOAT
		lex.scanner.AcceptAny("+-")
		if lex.scanner.AcceptSeqDigit() == 0 {
			return lex.errorf("invalid floating point literal starting: %v", lex.scanner.Text())
		}
	}
	if isWord(lex.peekRune()) {
		lex.scanner.AcceptSeq(isWord)
		return lex.errorf("invalid number: %s", lex.scanner.Text())
	}
	return lex.emitText(typ)
}

func (lex *Lexer) emitMacroChar(typ token.Type) []*token.Token {
	tok := lex.emitText(typ)
	if unicode.IsSpace(lex.peekRune()) {
		return lex.errorf("whitespace following %s", tok[0].Text)
	}
	return tok
}

func (lex *Lexer) emit(typ token.Type, text string) []*token.Token {
	tok := []*token.Token{{
		Type:   typ,
		Text:   text,
		Source: lex.scanner.LocStart(),
	}}
	lex.scanner.Ignore()
	return tok
}

func (lex *Lexer) emitText(typ token.Type) []*token.Token {
	return []*token.Token{lex.scanner.EmitToken(typ)}
}

func (lex *Lexer) emitError(err error) []*token.Token {
	if err == nil || err == io.EOF {
		return lex.emit(token.ERROR, "unexpected EOF")
	}
	return lex.emit(token.ERROR, err.Error())
}

func (lex *Lexer) errorf(format string, v ...interface{}) []*token.Token {
	return lex.emitError(fmt.Errorf(format, v...))
}

func (lex *Lexer) peekRune() rune {
	r, _ := lex.scanner.Peek()
	return r
}

func isWordStart(c rune) bool {
	return unicode.IsLetter(c) || strings.ContainsRune(miscWordSymbols, c)
}

func isWord(c rune) bool {
	return unicode.IsLetter(c) || strings.ContainsRune(miscWordRunes, c)
}

func isLetterOrDigit(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c)
}

func isDigit(c rune) bool {
	return '0' <= c && c <= '9'
}

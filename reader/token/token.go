// Copyright © 2018 The ELPS authors

package token

import "fmt"

// Token is a lexeme and the location where it starts.
type Token struct {
	Type   Type
	Text   string
	Source *Location
}

func (tok *Token) String() string {
	return fmt.Sprintf("%v %q", tok.Type, tok.Text)
}

type Type uint

// Type constants produced by the lexer.
const (
	INVALID Type = iota
	ERROR
	EOF

	HASH_BANG

	// Atoms
	SYMBOL
	KEYWORD
	INT
	INT_HEX
	FLOAT
	STRING
	CHAR

	COMMENT

	// Reader macros
	QUOTE
	META
	VAR_QUOTE
	DISCARD

	// Delimiters
	PAREN_L
	PAREN_R
	BRACKET_L
	BRACKET_R
	BRACE_L
	BRACE_R
	SET_L

	numTokenTypes
)

func (typ Type) String() string {
	typeStrings := [numTokenTypes]string{
		INVALID:   "invalid",
		ERROR:     "error",
		EOF:       "EOF",
		HASH_BANG: "#!",
		SYMBOL:    "symbol",
		KEYWORD:   "keyword",
		INT:       "int",
		INT_HEX:   "hex",
		FLOAT:     "float",
		STRING:    "string",
		CHAR:      "char",
		COMMENT:   ";",
		QUOTE:     "'",
		META:      "^",
		VAR_QUOTE: "#'",
		DISCARD:   "#_",
		PAREN_L:   "(",
		PAREN_R:   ")",
		BRACKET_L: "[",
		BRACKET_R: "]",
		BRACE_L:   "{",
		BRACE_R:   "}",
		SET_L:     "#{",
	}
	if typ >= numTokenTypes {
		return typeStrings[INVALID]
	}
	return typeStrings[typ]
}

// Location is a position in a named source stream.
type Location struct {
	File string // a name representing the source stream
	Path string // a physical location which may differ from File
	Pos  int
	Line int // line number (starting at 1 when tracked)
	Col  int // line column number (starting at 1 when tracked)
}

func (loc *Location) String() string {
	switch {
	case loc.Pos < 0:
		return loc.File
	case loc.Line == 0:
		return fmt.Sprintf("%s[%d]", loc.File, loc.Pos)
	case loc.Col == 0:
		return fmt.Sprintf("%s:%d", loc.File, loc.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", loc.File, loc.Line, loc.Col)
	}
}

// LocationError is an error that occurred at a known source location.
type LocationError struct {
	Err    error
	Source *Location
}

func (err *LocationError) Error() string {
	return fmt.Sprintf("%s: %s", err.Source, err.Err)
}

// Unwrap returns the underlying error.
func (err *LocationError) Unwrap() error {
	return err.Err
}

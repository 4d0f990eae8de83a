// Copyright © 2018 The ELPS authors

package lexer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/cljgo/reader/token"
)

type lexeme struct {
	typ  token.Type
	text string
}

func TestLexer(t *testing.T) {
	tests := []struct {
		input  string
		tokens []lexeme
	}{
		{``, []lexeme{
			{token.EOF, ""},
		}},
		{`abc`, []lexeme{
			{token.SYMBOL, "abc"},
			{token.EOF, ""},
		}},
		{`(foo [1 2] {:a "b"} #{x})`, []lexeme{
			{token.PAREN_L, "("},
			{token.SYMBOL, "foo"},
			{token.BRACKET_L, "["},
			{token.INT, "1"},
			{token.INT, "2"},
			{token.BRACKET_R, "]"},
			{token.BRACE_L, "{"},
			{token.KEYWORD, ":a"},
			{token.STRING, `"b"`},
			{token.BRACE_R, "}"},
			{token.SET_L, "#{"},
			{token.SYMBOL, "x"},
			{token.BRACE_R, "}"},
			{token.PAREN_R, ")"},
			{token.EOF, ""},
		}},
		{`10 -5 0.1 0 12e12 12e-12 0x1F +3`, []lexeme{
			{token.INT, "10"},
			{token.INT, "-5"},
			{token.FLOAT, "0.1"},
			{token.INT, "0"},
			{token.FLOAT, "12e12"},
			{token.FLOAT, "12e-12"},
			{token.INT_HEX, "0x1F"},
			{token.INT, "+3"},
			{token.EOF, ""},
		}},
		{`- -> .method .-prop & clojure.core/+`, []lexeme{
			{token.SYMBOL, "-"},
			{token.SYMBOL, "->"},
			{token.SYMBOL, ".method"},
			{token.SYMBOL, ".-prop"},
			{token.SYMBOL, "&"},
			{token.SYMBOL, "clojure.core/+"},
			{token.EOF, ""},
		}},
		{`'x #'y ^:k #_z ; c`, []lexeme{
			{token.QUOTE, "'"},
			{token.SYMBOL, "x"},
			{token.VAR_QUOTE, "#'"},
			{token.SYMBOL, "y"},
			{token.META, "^"},
			{token.KEYWORD, ":k"},
			{token.DISCARD, "#_"},
			{token.SYMBOL, "z"},
			{token.COMMENT, "; c"},
			{token.EOF, ""},
		}},
		{`\a \space "a\"b" "x
y"`, []lexeme{
			{token.CHAR, `\a`},
			{token.CHAR, `\space`},
			{token.STRING, `"a\"b"`},
			{token.STRING, "\"x\ny\""},
			{token.EOF, ""},
		}},
		{`a,b, c`, []lexeme{
			{token.SYMBOL, "a"},
			{token.SYMBOL, "b"},
			{token.SYMBOL, "c"},
			{token.EOF, ""},
		}},
		{"#!/usr/bin/env cljgo\n(x)", []lexeme{
			{token.HASH_BANG, "#!"},
			{token.COMMENT, "/usr/bin/env cljgo"},
			{token.PAREN_L, "("},
			{token.SYMBOL, "x"},
			{token.PAREN_R, ")"},
			{token.EOF, ""},
		}},
	}
	for i, test := range tests {
		assert.Equal(t, test.tokens, lexAll(t, test.input), "test %d: %q", i, test.input)
	}
}

func TestLexerErrors(t *testing.T) {
	for _, input := range []string{
		`"abc`,
		`1x`,
		`0x`,
		`#?`,
		`' x`,
		`:`,
	} {
		tokens := lexAll(t, input)
		assert.Equal(t, token.ERROR, tokens[len(tokens)-1].typ, "input %q", input)
	}
}

func TestLexerLocation(t *testing.T) {
	lex := New(token.NewScanner("loc", strings.NewReader("(a\n  b)")))
	var locs []string
	for {
		toks := lex.ReadToken()
		require.Len(t, toks, 1)
		if toks[0].Type == token.EOF {
			break
		}
		locs = append(locs, toks[0].Source.String())
	}
	assert.Equal(t, []string{"loc:1:1", "loc:1:2", "loc:2:3", "loc:2:4"}, locs)
}

// lexAll returns the lexemes of input up to and including the first EOF or
// ERROR token.
func lexAll(t *testing.T, input string) []lexeme {
	lex := New(token.NewScanner("", strings.NewReader(input)))
	var tokens []lexeme
	for i := 0; i < 100; i++ {
		toks := lex.ReadToken()
		require.Len(t, toks, 1)
		tok := toks[0]
		tokens = append(tokens, lexeme{tok.Type, tok.Text})
		if tok.Type == token.EOF || tok.Type == token.ERROR {
			return tokens
		}
	}
	t.Fatalf("no EOF lexing %q", input)
	return nil
}

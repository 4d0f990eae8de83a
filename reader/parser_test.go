// Copyright © 2018 The ELPS authors

package reader_test

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/cljgo/lang"
	"github.com/luthersystems/cljgo/reader"
	"github.com/luthersystems/cljgo/reader/lexer"
	"github.com/luthersystems/cljgo/reader/token"
)

func TestParser(t *testing.T) {
	tests := []struct {
		source string
		output string
	}{
		{`0`, `0`},
		{`12`, `12`},
		{`-1`, `-1`},
		{`0x1F`, `31`},
		{`1.5`, `1.5`},
		{`-0.25`, `-0.25`},
		{`abc`, `abc`},
		{`abc?`, `abc?`},
		{`ns/abc`, `ns/abc`},
		{`:kw`, `:kw`},
		{`:ns/kw`, `:ns/kw`},
		{`nil`, `nil`},
		{`true`, `true`},
		{`false`, `false`},
		{`"xyz"`, `"xyz"`},
		{`"x\nyz"`, `"x\nyz"`},
		{"\"x\nyz\"", `"x\nyz"`},
		{`"x\"y"`, `"x\"y"`},
		{`\a`, `"a"`},
		{`\space`, `" "`},
		{`()`, `()`},
		{`'x`, `(quote x)`},
		{`'(1 2)`, `(quote (1 2))`},
		{`#'x`, `(var x)`},
		{`(1 "abc" [x y])`, `(1 "abc" [x y])`},
		{`[]`, `[]`},
		{`{:a 1}`, `{:a 1}`},
		{`#{x}`, `#{x}`},
		{`(a #_b c)`, `(a c)`},
		{"(a ; comment\n b)", `(a b)`},
		{`[a, b,c]`, `[a b c]`},
		{`^:private x`, `x`},
	}

	for i, test := range tests {
		forms, err := reader.ReadString("test", test.source)
		if !assert.NoError(t, err, "test %d: %q", i, test.source) {
			continue
		}
		if assert.Len(t, forms, 1, "test %d: %q", i, test.source) {
			assert.Equal(t, test.output, lang.PrintString(forms[0]), "test %d: %q", i, test.source)
		}
	}
}

func TestParserProgram(t *testing.T) {
	forms, err := reader.ReadString("prog", "#!/usr/bin/env cljgo\n(def x 1)\n#_(ignored)\nx ; trailing")
	require.NoError(t, err)
	require.Len(t, forms, 2)
	assert.Equal(t, "(def x 1)", lang.PrintString(forms[0]))
	assert.Equal(t, "x", lang.PrintString(forms[1]))

	forms, err = reader.ReadString("empty", " ; nothing\n")
	require.NoError(t, err)
	assert.Empty(t, forms)
}

func TestParserParseEOF(t *testing.T) {
	p := reader.New(token.NewScanner("eof", strings.NewReader("1 2")))
	x, err := p.Parse()
	require.NoError(t, err)
	assert.Equal(t, int64(1), x)
	x, err = p.Parse()
	require.NoError(t, err)
	assert.Equal(t, int64(2), x)
	_, err = p.Parse()
	assert.Equal(t, io.EOF, err)
}

func TestParserLocation(t *testing.T) {
	forms, err := reader.ReadString("loc.clj", "(a\n (b c))")
	require.NoError(t, err)
	require.Len(t, forms, 1)
	outer := forms[0].(*lang.PersistentList)
	assert.Equal(t, "loc.clj:1:1", lang.FormLocation(outer))

	items := outer.Slice()
	require.Len(t, items, 2)
	assert.Equal(t, "loc.clj:1:2", lang.FormLocation(items[0]))
	inner := items[1].(*lang.PersistentList)
	assert.Equal(t, "loc.clj:2:2", lang.FormLocation(inner))
	assert.Equal(t, "loc.clj", inner.Meta().ValAt(lang.KeywordFile))
	assert.Equal(t, int64(2), inner.Meta().ValAt(lang.KeywordLine))
	assert.Equal(t, int64(2), inner.Meta().ValAt(lang.KeywordColumn))
}

func TestParserMeta(t *testing.T) {
	forms, err := reader.ReadString("meta", `^:private foo ^String bar ^{:doc "d"} (f)`)
	require.NoError(t, err)
	require.Len(t, forms, 3)

	foo := forms[0].(*lang.Symbol)
	assert.Equal(t, true, foo.Meta().ValAt(lang.KeywordPrivate))
	assert.Equal(t, int64(1), foo.Meta().ValAt(lang.KeywordLine))
	assert.Equal(t, int64(11), foo.Meta().ValAt(lang.KeywordColumn))

	bar := forms[1].(*lang.Symbol)
	tag, ok := bar.Meta().ValAt(lang.Kw("tag")).(*lang.Symbol)
	require.True(t, ok)
	assert.Equal(t, "String", tag.Name)

	f := forms[2].(*lang.PersistentList)
	assert.Equal(t, "d", f.Meta().ValAt(lang.KeywordDoc))
	assert.Equal(t, int64(1), f.Meta().ValAt(lang.KeywordLine))

	_, err = reader.ReadString("meta", `^1 x`)
	assert.Error(t, err)
	_, err = reader.ReadString("meta", `^:k 1`)
	assert.Error(t, err)
}

func TestParserErrors(t *testing.T) {
	tests := []struct {
		source string
		msg    string
	}{
		{`(a b`, "err:1:1: unmatched ("},
		{`)`, "err:1:1: unexpected token: )"},
		{`[1 2`, "err:1:1: unmatched ["},
		{`{:a}`, "err:1:1: map literal must contain an even number of forms"},
		{`{:a 1 :a 2}`, "err:1:1: duplicate key in map literal"},
		{`#{1 1}`, "err:1:1: duplicate key in set literal"},
		{`::kw`, "err:1:1: auto-resolved keywords are not supported: ::kw"},
		{`9223372036854775808`, "err:1:1: integer literal overflows int64: 9223372036854775808"},
		{`\bogus`, `err:1:1: unsupported character: \bogus`},
		{`'`, "err:1:2: unexpected EOF"},
	}
	for i, test := range tests {
		p := reader.New(token.NewScanner("err", strings.NewReader(test.source)))
		_, err := p.ParseProgram()
		if !assert.Error(t, err, "test %d: %q", i, test.source) {
			continue
		}
		assert.Equal(t, test.msg, err.Error(), "test %d: %q", i, test.source)
	}
}

func TestReadErrorLocation(t *testing.T) {
	_, err := reader.ReadString("wrapped", "(ok)\n(bad")
	require.Error(t, err)
	var lerr *token.LocationError
	require.True(t, errors.As(err, &lerr))
	assert.Equal(t, 2, lerr.Source.Line)
	assert.Equal(t, 1, lerr.Source.Col)
}

func TestInteractive(t *testing.T) {
	lines := []string{"(+ 1", "2)"}
	var prompts []string
	var p *reader.Interactive
	p = reader.NewInteractive(func() []*token.Token {
		prompts = append(prompts, p.Prompt())
		if len(lines) == 0 {
			return []*token.Token{{Type: token.EOF, Source: &token.Location{File: "stdin"}}}
		}
		line := lines[0]
		lines = lines[1:]
		return lexLine(t, line)
	})
	p.SetPrompts("> ", "... ")

	form, err := p.Parse()
	require.NoError(t, err)
	assert.Equal(t, "(+ 1 2)", lang.PrintString(form))
	assert.False(t, p.IsParsing())

	_, err = p.Parse()
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, []string{"> ", "... ", "> "}, prompts)
}

// lexLine returns the tokens of line without the terminating EOF.
func lexLine(t *testing.T, line string) []*token.Token {
	lex := lexer.New(token.NewScanner("stdin", strings.NewReader(line)))
	var tokens []*token.Token
	for {
		toks := lex.ReadToken()
		require.Len(t, toks, 1)
		if toks[0].Type == token.EOF {
			return tokens
		}
		tokens = append(tokens, toks[0])
	}
}

// Copyright © 2018 The ELPS authors

package token

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScannerTokenLength(t *testing.T) {
	const bufsize = 10
	s := newScannerBuf("", byteFiller('x'), make([]byte, bufsize))
	for i := 0; i < bufsize; i++ {
		require.NoError(t, s.ScanRune())
	}
	assert.Error(t, s.ScanRune(), "token longer than the buffer")
}

func TestScannerEOF(t *testing.T) {
	r := &io.LimitedReader{R: byteFiller('x'), N: 10}
	s := newScannerBuf("", r, make([]byte, 20))
	for i := 0; i < 10; i++ {
		require.NoError(t, s.ScanRune())
	}
	tok := s.EmitToken(SYMBOL)
	assert.Equal(t, "xxxxxxxxxx", tok.Text)
	for i := 0; i < 3; i++ {
		assert.Equal(t, io.EOF, s.ScanRune())
		assert.True(t, s.EOF())
		assert.Equal(t, "", s.EmitToken(EOF).Text)
	}
	assert.NoError(t, s.Err())
}

func TestScannerAccept(t *testing.T) {
	s := NewScanner("accept", strings.NewReader("  ,abc123 x"))
	assert.Equal(t, 3, s.AcceptSeqSpace())
	s.Ignore()
	assert.True(t, s.AcceptAny("cba"))
	assert.False(t, s.AcceptRune('z'))
	assert.True(t, s.AcceptRune('b'))
	assert.Equal(t, 1, s.AcceptSeq(func(c rune) bool { return c == 'c' }))
	assert.Equal(t, 3, s.AcceptSeqDigit())
	tok := s.EmitToken(SYMBOL)
	assert.Equal(t, "abc123", tok.Text)
	assert.Equal(t, "accept:1:4", tok.Source.String())
	s.AcceptSeqSpace()
	s.Ignore()
	assert.True(t, s.AcceptRune('x'))
	assert.False(t, s.AcceptRune('y'))
	assert.True(t, s.EOF())
}

func TestScannerLoc(t *testing.T) {
	r := newSeqFiller([]byte("123456789\n"))
	s := newScannerBuf("test", r, make([]byte, 15))

	var tokens []*Token
	for _, n := range []int{10, 10, 5, 5} {
		for i := 0; i < n; i++ {
			require.NoError(t, s.ScanRune())
		}
		tokens = append(tokens, s.EmitToken(SYMBOL))
	}

	assert.Equal(t, 29, s.totalPos)
	assert.Equal(t, 0, tokens[0].Source.Pos)
	assert.Equal(t, 10, tokens[1].Source.Pos)
	assert.Equal(t, 20, tokens[2].Source.Pos)
	assert.Equal(t, 25, tokens[3].Source.Pos)
	assert.Equal(t, "test:1:1", tokens[0].Source.String())
	assert.Equal(t, "test:2:1", tokens[1].Source.String())
	assert.Equal(t, "test:3:1", tokens[2].Source.String())
	assert.Equal(t, "test:3:6", tokens[3].Source.String())
}

func TestTypeString(t *testing.T) {
	used := make(map[string]bool)
	for typ := Type(0); typ < numTokenTypes; typ++ {
		str := typ.String()
		assert.NotEmpty(t, str, "token type %d", typ)
		assert.False(t, used[str], "token type string used twice: %v", str)
		used[str] = true
	}
	assert.Equal(t, "invalid", numTokenTypes.String())
}

type byteFiller byte

func (r byteFiller) Read(b []byte) (int, error) {
	for i := range b {
		b[i] = byte(r)
	}
	return len(b), nil
}

type seqFiller struct {
	seq []byte
	rem []byte
}

func newSeqFiller(seq []byte) *seqFiller {
	buf := make([]byte, len(seq))
	copy(buf, seq)
	return &seqFiller{seq: buf}
}

func (r *seqFiller) Read(b []byte) (int, error) {
	if len(r.rem) == 0 {
		r.rem = r.seq
	}
	n := copy(b, r.rem)
	r.rem = r.rem[n:]
	return n, nil
}

// Copyright © 2018 The ELPS authors

package token

import (
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Scanner reads runes from a byte stream and groups them into tokens.  The
// scanner tracks the line and column at which each token starts.
type Scanner struct {
	file         string
	path         string
	totalPos     int
	linePos      int // totalPos at the first byte of the line
	line         int // line number at linePos
	startLinePos int // linePos for the line containing the token start
	startLine    int // line number of the token start

	r       io.Reader
	readErr error

	buf   []byte
	start int // start of the current token
	pos   int // index of c in buf
	next  int // index of the rune following c
	c     Rune
	peek  []Rune
}

func newScannerBuf(file string, r io.Reader, buf []byte) *Scanner {
	s := &Scanner{
		file:      file,
		r:         r,
		buf:       buf,
		line:      1,
		startLine: 1,
	}
	s.fill(0)
	return s
}

// NewScanner initializes and returns a new Scanner reading from r.  The file
// name is recorded in the location of every token.
func NewScanner(file string, r io.Reader) *Scanner {
	buf := make([]byte, 128<<10)
	return newScannerBuf(file, r, buf)
}

// SetPath associates a physical location (e.g. filesystem path) with s.
func (s *Scanner) SetPath(path string) {
	s.path = path
}

// EmitToken returns a token containing the text scanned since the last call to
// either EmitToken or Ignore.
func (s *Scanner) EmitToken(typ Type) *Token {
	tok := &Token{
		Type:   typ,
		Text:   s.Text(),
		Source: s.LocStart(),
	}
	s.Ignore()
	return tok
}

// Ignore discards the text scanned since the last call to either EmitToken or
// Ignore.
func (s *Scanner) Ignore() {
	s.start = s.next
	s.startLine = s.line
	s.startLinePos = s.linePos
	if s.c.C == '\n' {
		s.startLine++
		s.startLinePos = s.totalPos + 1
	}
}

// Text returns the text scanned since the last call to either EmitToken or
// Ignore.
func (s *Scanner) Text() string {
	return string(s.buf[s.start:s.next])
}

// Rune returns the rune most recently scanned.
func (s *Scanner) Rune() rune {
	return s.c.C
}

// Peek returns the next rune to be scanned.  Peek returns a false second value
// at EOF or when the input is not valid utf-8.
func (s *Scanner) Peek() (rune, bool) {
	if len(s.peek) > 0 {
		return s.peek[0].C, true
	}
	if err := s.checkExtend(); err != nil {
		return 0, false
	}
	c, n := utf8.DecodeRune(s.buf[s.next:])
	peek := Rune{c, n}
	if peek.IsRuneError() {
		return utf8.RuneError, false
	}
	s.peek = append(s.peek, peek)
	return c, true
}

// ScanRune scans one rune into the current token.
func (s *Scanner) ScanRune() error {
	if err := s.checkRuneError(); err != nil {
		return err
	}
	if len(s.peek) > 0 {
		s.scan(s.peek[0])
		s.peek = s.peek[1:]
		return s.checkRuneError()
	}
	if err := s.checkExtend(); err != nil {
		return err
	}
	c, n := utf8.DecodeRune(s.buf[s.next:])
	s.scan(Rune{c, n})
	if err := s.checkRuneError(); err != nil {
		// The sequence may be invalid because of a read error.
		if s.readErr != nil {
			return s.readErr
		}
		return err
	}
	return nil
}

func (s *Scanner) scan(r Rune) {
	old := s.c
	s.c = r
	s.totalPos += old.N
	s.pos += old.N
	s.next += r.N
	if old.C == '\n' {
		s.line++
		s.linePos = s.totalPos
	}
}

// Err returns a read error once all runes buffered before it have been
// scanned.  EOF is not an error.
func (s *Scanner) Err() error {
	if s.readErr == nil || s.readErr == io.EOF {
		return nil
	}
	if len(s.buf) == s.next {
		return s.readErr
	}
	if len(s.buf)-s.next < utf8.UTFMax {
		c, n := utf8.DecodeRune(s.buf[s.next:])
		if c == utf8.RuneError && n == 1 {
			return s.readErr
		}
	}
	return nil
}

// EOF reports whether the input is exhausted.
func (s *Scanner) EOF() bool {
	if len(s.buf) == 0 {
		return true
	}
	if s.readErr != io.EOF {
		return false
	}
	return s.next >= len(s.buf)
}

// Accept scans the next rune if fn returns true for it.
func (s *Scanner) Accept(fn func(rune) bool) bool {
	peek, ok := s.Peek()
	if !ok || !fn(peek) {
		return false
	}
	return s.ScanRune() == nil
}

// AcceptRune scans the next rune if it is c.
func (s *Scanner) AcceptRune(c rune) bool {
	return s.Accept(func(r rune) bool { return r == c })
}

// AcceptAny scans the next rune if it is in charset.
func (s *Scanner) AcceptAny(charset string) bool {
	return s.Accept(func(r rune) bool { return strings.ContainsRune(charset, r) })
}

// AcceptSeq scans runes while fn returns true and returns the number scanned.
func (s *Scanner) AcceptSeq(fn func(rune) bool) int {
	var n int
	for s.Accept(fn) {
		n++
	}
	return n
}

// AcceptSeqDigit scans a run of decimal digits.
func (s *Scanner) AcceptSeqDigit() int {
	return s.AcceptSeq(func(c rune) bool { return '0' <= c && c <= '9' })
}

// AcceptSeqSpace scans a run of whitespace.  Commas are whitespace.
func (s *Scanner) AcceptSeqSpace() int {
	return s.AcceptSeq(func(c rune) bool { return unicode.IsSpace(c) || c == ',' })
}

func (s *Scanner) checkRuneError() error {
	if s.c.IsRuneError() {
		return errors.Errorf("invalid utf-8 sequence in source text starting with byte %q", s.buf[s.pos])
	}
	return nil
}

// LocStart returns the location of the beginning of the current token.
func (s *Scanner) LocStart() *Location {
	startPos := s.totalPos - (s.pos - s.start)
	if s.start > s.pos {
		startPos = s.totalPos + s.c.N
	}
	return &Location{
		File: s.file,
		Path: s.path,
		Pos:  startPos,
		Line: s.startLine,
		Col:  startPos - s.startLinePos + 1,
	}
}

// Loc returns the location of the rune most recently scanned.
func (s *Scanner) Loc() *Location {
	return &Location{
		File: s.file,
		Path: s.path,
		Pos:  s.totalPos,
		Line: s.line,
		Col:  s.totalPos - s.linePos + 1,
	}
}

func (s *Scanner) checkExtend() error {
	if len(s.buf)-s.next < utf8.UTFMax {
		s.extend()
	}
	if len(s.buf) == 0 {
		return io.EOF
	}
	if s.next == len(s.buf) {
		if s.readErr == io.EOF {
			return io.EOF
		}
		return errors.Errorf("token exceeds maximum allowable size")
	}
	return nil
}

func (s *Scanner) extend() {
	if s.start == 0 {
		return
	}
	end := copy(s.buf, s.buf[s.start:])
	s.pos -= s.start
	s.next -= s.start
	s.start = 0
	s.fill(end)
}

func (s *Scanner) fill(end int) {
	if s.readErr == io.EOF {
		s.buf = s.buf[:end]
		return
	}
	n, err := io.ReadFull(s.r, s.buf[end:])
	s.buf = s.buf[:end+n]
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	s.readErr = err
}

// Rune is a rune and its encoded length.
type Rune struct {
	C rune
	N int
}

// IsRuneError returns true if Rune represents an invalid utf-8 sequence.
func (r Rune) IsRuneError() bool {
	return r.C == utf8.RuneError && r.N == 1
}

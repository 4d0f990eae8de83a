// Copyright © 2018 The ELPS authors

// Package repl implements an interactive read-eval-print loop.
package repl

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ergochat/readline"
	"github.com/pkg/errors"

	"github.com/luthersystems/cljgo/interp"
	"github.com/luthersystems/cljgo/lang"
	"github.com/luthersystems/cljgo/reader"
	"github.com/luthersystems/cljgo/reader/lexer"
	"github.com/luthersystems/cljgo/reader/token"
)

type config struct {
	stdin   io.ReadCloser
	stderr  io.WriteCloser
	history string
	runtime []interp.Config
}

func newConfig(opts ...Option) *config {
	config := &config{history: historyPath()}
	for _, opt := range opts {
		opt(config)
	}
	return config
}

type Option func(*config)

// WithStdin allows overriding the input to the REPL.
func WithStdin(stdin io.ReadCloser) Option {
	return func(c *config) {
		c.stdin = stdin
	}
}

// WithStderr allows overriding the output to the REPL.
func WithStderr(stderr io.WriteCloser) Option {
	return func(c *config) {
		c.stderr = stderr
	}
}

// WithHistoryFile sets the file line history is kept in.  An empty path
// disables history.
func WithHistoryFile(path string) Option {
	return func(c *config) {
		c.history = path
	}
}

// WithRuntimeConfig passes cfgs to the runtime created by RunRepl.
func WithRuntimeConfig(cfgs ...interp.Config) Option {
	return func(c *config) {
		c.runtime = append(c.runtime, cfgs...)
	}
}

// RunRepl runs a simple repl in a fresh runtime.
func RunRepl(prompt string, opts ...Option) error {
	cfg := newConfig(opts...)
	rtOpts := cfg.runtime
	if cfg.stderr != nil {
		rtOpts = append([]interp.Config{
			interp.WithStdout(cfg.stderr),
			interp.WithStderr(cfg.stderr),
		}, rtOpts...)
	}
	rt, err := interp.New(rtOpts...)
	if err != nil {
		return errors.Wrap(err, "language initialization failure")
	}
	return RunRuntime(rt, prompt, strings.Repeat(" ", len(prompt)), opts...)
}

// RunRuntime runs a simple repl evaluating forms with rt.
func RunRuntime(rt *interp.Runtime, prompt, cont string, opts ...Option) error {
	p := reader.NewInteractive(nil)
	p.SetPrompts(prompt, cont)

	cfg := newConfig(opts...)
	if cfg.stderr != nil {
		rt.Stderr = cfg.stderr
	}

	ensureHistoryFilePermissions(cfg.history)
	rlCfg := &readline.Config{
		Stdout:            rt.Stderr,
		Stderr:            rt.Stderr,
		Prompt:            p.Prompt(),
		HistoryFile:       cfg.history,
		HistorySearchFold: true,
		AutoComplete:      &symbolCompleter{rt: rt},
	}
	if cfg.stdin != nil {
		rlCfg.Stdin = cfg.stdin
	}
	rl, err := readline.NewEx(rlCfg)
	if err != nil {
		return errors.Wrap(err, "readline")
	}
	defer rl.Close() //nolint:errcheck // best-effort cleanup

	p.Read = func() []*token.Token {
		rl.SetPrompt(p.Prompt())
		for {
			line, err := rl.ReadSlice()
			if err == readline.ErrInterrupt {
				continue
			}
			if err != nil {
				return []*token.Token{{Type: token.EOF}}
			}
			line = bytes.TrimSpace(line)
			if len(line) == 0 {
				continue
			}
			return lexLine(line)
		}
	}

	for {
		form, err := p.Parse()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			RenderError(rt.Stderr, err)
			continue
		}
		val, err := rt.EvalForm(context.Background(), form)
		if err != nil {
			RenderError(rt.Stderr, err)
			continue
		}
		_, _ = io.WriteString(rt.Stderr, lang.PrintString(val)+"\n")
	}
}

// lexLine returns the tokens of one line of input, ending at the first
// error token.
func lexLine(line []byte) []*token.Token {
	var tokens []*token.Token
	lex := lexer.New(token.NewScanner("stdin", bytes.NewReader(line)))
	for {
		tok := lex.ReadToken()
		if len(tok) != 1 {
			panic("bad tokens")
		}
		if tok[0].Type == token.EOF {
			return tokens
		}
		tokens = append(tokens, tok...)
		if tok[0].Type == token.ERROR {
			return tokens
		}
	}
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cljgo_history")
}

// ensureHistoryFilePermissions creates the history file if needed and
// restricts it to the current user.
func ensureHistoryFilePermissions(path string) {
	if path == "" {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0o600) //#nosec G304
	if err != nil {
		return
	}
	_ = f.Close()
	_ = os.Chmod(path, 0o600)
}

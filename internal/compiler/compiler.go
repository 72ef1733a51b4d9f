// Package compiler turns biochemical-event text into a symbolic ODE model.
// Each input line describes one reaction in a constrained natural-language
// grammar; the compiler resolves it to a rule, emits a mass-action or
// enzymatic rate law, and accumulates the signed flux contributions into
// per-species differential equations.
package compiler

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/biosimlabs/textode/internal/lexicon"
	"github.com/biosimlabs/textode/pkg/model"
)

// Compiler compiles reaction text into models. The zero value is not
// usable; construct with New. A Compiler may be reused across inputs, but
// its vocabulary is frozen by the first Compile call.
type Compiler struct {
	lex     *lexicon.Lexicon
	logger  *slog.Logger
	started bool
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the structured logger used for compile diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) { c.logger = logger }
}

// New returns a Compiler preloaded with the built-in vocabulary.
func New(opts ...Option) *Compiler {
	c := &Compiler{
		lex:    lexicon.Default(),
		logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RegisterWord adds a trigger phrase under rule before compilation begins.
// Registering after the first Compile call fails, so every compile of the
// same input yields the same model.
func (c *Compiler) RegisterWord(rule, phrase string) error {
	if c.started {
		return &lexicon.ConfigurationError{
			Rule:   rule,
			Phrase: phrase,
			Msg:    "vocabulary is frozen once compilation has started",
		}
	}
	return c.lex.Register(rule, phrase)
}

// CompileFile reads path and compiles its contents.
func (c *Compiler) CompileFile(path string) (*model.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return c.Compile(string(data))
}

// Compile parses text line by line and returns the assembled model.
// Compilation stops at the first error; the partially built model is
// discarded.
func (c *Compiler) Compile(text string) (*model.Model, error) {
	c.started = true
	b := newBuild(c.logger)

	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, rawLine := range raw {
		line := i + 1
		normalized := normalize(rawLine)
		kind := classify(normalized)
		if kind == lineBlank {
			continue
		}

		// Duplicates are detected on the raw text, before comment
		// stripping, so two lines differing only in comments are distinct.
		if dups := duplicateLines(raw, rawLine); len(dups) > 1 {
			return nil, &DuplicateLineError{Text: rawLine, Lines: dups}
		}

		var err error
		switch kind {
		case lineObservable:
			err = b.applyObservable(line, strings.TrimPrefix(normalized, obsPrefix))
		case lineSimulation:
			err = b.applySimulation(line, strings.TrimPrefix(normalized, simPrefix))
		case lineReaction:
			err = c.compileReaction(b, line, normalized)
		}
		if err != nil {
			return nil, err
		}
	}

	if err := b.checkSpeciesNames(); err != nil {
		return nil, err
	}

	c.logger.Debug("compiled model",
		"reactions", len(b.m.Reactions),
		"species", len(b.m.Species),
		"parameters", len(b.m.Parameters),
	)
	return b.m, nil
}

// compileReaction processes one reaction line: rule dispatch, clause
// extraction, then the rule handler.
func (c *Compiler) compileReaction(b *build, line int, text string) error {
	rule, ok := c.lex.Match(text)
	if !ok {
		return c.noMatch(line, text)
	}
	rs := rules[rule]

	sentence, paramClause, initClause := splitClauses(text)
	b.registerParams(line, rs.params...)
	if err := b.applyParamClause(line, paramClause, rs.params); err != nil {
		return err
	}
	if err := b.applyInitClause(line, initClause, sentence); err != nil {
		return err
	}

	left, right, ok := c.lex.SplitSentence(rule, sentence)
	if !ok {
		// The trigger phrase sat in a clause, not the sentence.
		return c.noMatch(line, sentence)
	}
	return rs.handle(b, line, left, right)
}

func (c *Compiler) noMatch(line int, text string) error {
	e := &NoMatchingRuleError{Line: line, Text: strings.TrimSpace(text)}
	if s, ok := c.lex.Suggest(text); ok {
		e.Suggestion = &s
		c.logger.Debug("closest registered phrase",
			"line", line, "phrase", s.Phrase, "score", s.Score)
	}
	return e
}

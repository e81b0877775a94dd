// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package equations scans Markdown+LaTeX text for math regions, rewrites
// their delimiters to a canonical form, and reports structural problems as
// diagnostics. Code spans and fenced blocks are opaque: nothing inside them
// is ever treated as math.
package equations

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/docx2md/pkg/types"
)

// Document is an immutable Markdown source together with the path reported
// in diagnostics.
type Document struct {
	Path string
	Text string
}

// Kind classifies a scanned segment.
type Kind int

const (
	Plain Kind = iota
	FencedCode
	InlineCode
	MathInline
	MathDisplay
	MathEnvironment
)

func (k Kind) String() string {
	switch k {
	case Plain:
		return "plain"
	case FencedCode:
		return "fenced_code"
	case InlineCode:
		return "inline_code"
	case MathInline:
		return "math_inline"
	case MathDisplay:
		return "math_display"
	case MathEnvironment:
		return "math_environment"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsMath reports whether the kind is one of the math region kinds.
func (k Kind) IsMath() bool {
	return k == MathInline || k == MathDisplay || k == MathEnvironment
}

// Segment is a contiguous byte span of a document. Segments produced by
// Scan partition the document exactly: no gaps, no overlaps, and
// concatenating the raw spans in order reproduces the text verbatim.
//
// Open and Close record the delimiters as found in the source, not the
// canonical pair. Close == "" marks an unterminated region that runs to a
// fence boundary or end of input. Env holds the environment name for
// MathEnvironment segments.
type Segment struct {
	Kind  Kind
	Start int
	End   int
	Open  string
	Close string
	Env   string
}

// Terminated reports whether the segment found its closing delimiter.
func (s Segment) Terminated() bool { return s.Close != "" }

// Body returns the text between the delimiters. For unterminated regions
// the body runs to the segment end.
func (s Segment) Body(text string) string {
	return text[s.Start+len(s.Open) : s.End-len(s.Close)]
}

// Severity ranks a diagnostic. Errors sort before warnings at the same
// offset.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Diagnostic describes one problem found in a document. Line and Col are
// 1-based; Col counts runes, not bytes.
type Diagnostic struct {
	Path     string
	Severity Severity
	Line     int
	Col      int
	Offset   int
	Message  string
}

// String renders the diagnostic as "path:line:col: severity: message".
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s", d.Path, d.Line, d.Col, d.Severity, d.Message)
}

// Options configures one engine invocation. Values are fixed at
// construction; the engine never mutates them.
type Options struct {
	// InlinePair is the canonical [open, close] for inline math.
	InlinePair [2]string

	// DisplayPair is the canonical [open, close] for display math.
	DisplayPair [2]string

	// Environments is the set of recognized \begin{...} names.
	Environments map[string]bool

	// FixDelimiters gates delimiter rewriting in Fix. When false, Fix
	// validates the unmodified text.
	FixDelimiters bool

	// RequireWrapper warns on math environments that are not wrapped in
	// display math delimiters.
	RequireWrapper bool
}

// NewOptions builds engine options from the equations config section,
// falling back to built-in delimiters and environments for missing values.
func NewOptions(cfg types.EquationsConfig) Options {
	opts := Options{
		InlinePair:     [2]string{"$", "$"},
		DisplayPair:    [2]string{"$$", "$$"},
		FixDelimiters:  true,
		RequireWrapper: cfg.RequireEnvironmentWrapper,
		Environments:   make(map[string]bool),
	}
	if len(cfg.InlineDelimiters) == 2 && cfg.InlineDelimiters[0] != "" && cfg.InlineDelimiters[1] != "" {
		opts.InlinePair = [2]string{cfg.InlineDelimiters[0], cfg.InlineDelimiters[1]}
	}
	if len(cfg.DisplayDelimiters) == 2 && cfg.DisplayDelimiters[0] != "" && cfg.DisplayDelimiters[1] != "" {
		opts.DisplayPair = [2]string{cfg.DisplayDelimiters[0], cfg.DisplayDelimiters[1]}
	}
	envs := cfg.RecognizedEnvironments
	if len(envs) == 0 {
		envs = types.DefaultEnvironments
	}
	for _, name := range envs {
		if name != "" {
			opts.Environments[name] = true
		}
	}
	return opts
}

// DefaultOptions returns options for the built-in configuration.
func DefaultOptions() Options {
	return NewOptions(types.DefaultConfig().Equations)
}

// lineCol converts a byte offset into a 1-based line and rune column.
func lineCol(text string, offset int) (line, col int) {
	if offset > len(text) {
		offset = len(text)
	}
	line = 1 + strings.Count(text[:offset], "\n")
	lineStart := strings.LastIndexByte(text[:offset], '\n') + 1
	col = 1 + utf8.RuneCountInString(text[lineStart:offset])
	return line, col
}

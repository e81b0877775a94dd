// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package processor

import (
	"regexp"
	"strings"

	"github.com/pdiddy/docx2md/internal/equations"
	"github.com/pdiddy/docx2md/pkg/types"
)

// Pandoc's OMML to LaTeX conversion garbles a few shapes from the Word
// equation editor. Each pattern below restores one of them, most specific
// first.
var (
	// \sum_{}^{}i = 1^{n} has the bound split out of the subscript.
	sumSplitBoundRE = regexp.MustCompile(`\\sum_\{\}\^\{\}([a-zA-Z]\s*=\s*\w+)\^\{([^}]+)\}`)

	// Big operator with a word subscript and empty superscript. Word
	// subscripts need \text{}; single letters are variables and are left
	// to the empty-superscript removal below.
	bigOpWordSubRE = regexp.MustCompile(`\\(sum|prod|int|oint|iint|iiint|bigcup|bigcap|bigoplus|bigotimes|bigvee|bigwedge)_\{([a-zA-Z]{2,})\}\^\{\}`)

	// Any remaining empty superscript after a command.
	emptySuperscriptRE = regexp.MustCompile(`(\\[a-zA-Z]+(?:_\{[^}]*\})?)\^\{\}`)

	// Lowercase blackboard bold is undefined in msbm.
	lowerMathbbRE = regexp.MustCompile(`\\mathbb\{([a-z])\}`)
)

// EquationFix repairs garbled OMML-derived LaTeX inside math spans.
type EquationFix struct {
	enabled bool
	opts    equations.Options
}

// NewEquationFix builds the pass. opts controls how math spans are found.
func NewEquationFix(cfg types.EquationFixConfig, opts equations.Options) *EquationFix {
	return &EquationFix{enabled: cfg.Enabled, opts: opts}
}

func (e *EquationFix) Name() string { return "equation_fix" }

func (e *EquationFix) Process(content string) (string, error) {
	if !e.enabled {
		return content, nil
	}
	segs := equations.Scan(equations.Document{Text: content}, e.opts)
	var b strings.Builder
	b.Grow(len(content))
	for _, seg := range segs {
		span := content[seg.Start:seg.End]
		if seg.Kind.IsMath() {
			span = fixEquation(span)
		}
		b.WriteString(span)
	}
	return b.String(), nil
}

// fixEquation applies the repairs to one math span, delimiters included.
func fixEquation(eq string) string {
	eq = sumSplitBoundRE.ReplaceAllStringFunc(eq, func(s string) string {
		m := sumSplitBoundRE.FindStringSubmatch(s)
		bound := strings.ReplaceAll(m[1], " ", "")
		return `\sum_{` + bound + `}^{` + m[2] + `}`
	})
	eq = bigOpWordSubRE.ReplaceAllString(eq, `\${1}_{\text{${2}}}`)
	eq = emptySuperscriptRE.ReplaceAllString(eq, "${1}")
	eq = strings.ReplaceAll(eq, `\hslash`, `\hbar`)
	eq = lowerMathbbRE.ReplaceAllString(eq, `\mathbf{${1}}`)
	return eq
}

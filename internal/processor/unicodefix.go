// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package processor

import (
	"regexp"
	"strings"

	"github.com/pdiddy/docx2md/internal/equations"
	"github.com/pdiddy/docx2md/pkg/types"
)

// Replacements safe anywhere, applied before context splitting.
var unicodeAlways = []struct{ old, new string }{
	{" ", " "}, // non-breaking space
	{"≔", ":="},
	{"Τ", "T"}, // greek capital tau, same glyph as latin T
}

// Replacements inside math spans.
var unicodeInMath = []struct{ old, new string }{
	{"ℓ", `\ell `},
	{"Β", "B"},
	{"θ", `\theta`},
	{"⋰", `\ddots`},
	{"₀", "_0"}, {"₁", "_1"}, {"₂", "_2"}, {"₃", "_3"}, {"₄", "_4"},
	{"₅", "_5"}, {"₆", "_6"}, {"₇", "_7"}, {"₈", "_8"}, {"₉", "_9"},
}

var (
	// ℓ with subscript digits in body text becomes one inline span.
	ellSubTextRE = regexp.MustCompile(`ℓ([₀₁₂₃₄₅₆₇₈₉]+)`)

	// Subscript digits left over in body text.
	subDigitTextRE = regexp.MustCompile(`[₀₁₂₃₄₅₆₇₈₉]+`)
)

var subDigits = strings.NewReplacer(
	"₀", "0", "₁", "1", "₂", "2", "₃", "3", "₄", "4",
	"₅", "5", "₆", "6", "₇", "7", "₈", "8", "₉", "9",
)

// UnicodeFix replaces Unicode math symbols that pdflatex rejects with
// LaTeX equivalents. Replacements differ inside and outside math spans:
// a θ in body text needs its own inline span, a θ in math does not.
// Code spans are left alone.
type UnicodeFix struct {
	enabled bool
	custom  []types.UnicodeReplacement
	opts    equations.Options
}

// NewUnicodeFix builds the pass. opts controls how math spans are found.
func NewUnicodeFix(cfg types.UnicodeFixConfig, opts equations.Options) *UnicodeFix {
	return &UnicodeFix{enabled: cfg.Enabled, custom: cfg.CustomReplacements, opts: opts}
}

func (u *UnicodeFix) Name() string { return "unicode_fix" }

func (u *UnicodeFix) Process(content string) (string, error) {
	if !u.enabled {
		return content, nil
	}

	for _, r := range unicodeAlways {
		content = strings.ReplaceAll(content, r.old, r.new)
	}
	for _, r := range u.custom {
		if r.Char != "" && r.Always != "" {
			content = strings.ReplaceAll(content, r.Char, r.Always)
		}
	}

	segs := equations.Scan(equations.Document{Text: content}, u.opts)
	var b strings.Builder
	b.Grow(len(content))
	for _, seg := range segs {
		span := content[seg.Start:seg.End]
		switch {
		case seg.Kind.IsMath():
			span = u.fixInMath(span)
		case seg.Kind == equations.Plain:
			span = u.fixInText(span)
		}
		b.WriteString(span)
	}
	return b.String(), nil
}

func (u *UnicodeFix) fixInMath(text string) string {
	for _, r := range unicodeInMath {
		text = strings.ReplaceAll(text, r.old, r.new)
	}
	for _, r := range u.custom {
		if r.Char != "" && r.Math != "" {
			text = strings.ReplaceAll(text, r.Char, r.Math)
		}
	}
	return text
}

func (u *UnicodeFix) fixInText(text string) string {
	text = ellSubTextRE.ReplaceAllStringFunc(text, func(s string) string {
		m := ellSubTextRE.FindStringSubmatch(s)
		return `$\ell_{` + subDigits.Replace(m[1]) + `}$`
	})
	text = strings.ReplaceAll(text, "ℓ", `$\ell$`)
	text = subDigitTextRE.ReplaceAllStringFunc(text, func(s string) string {
		return `$_{` + subDigits.Replace(s) + `}$`
	})
	text = strings.ReplaceAll(text, "Β", "B")
	text = strings.ReplaceAll(text, "θ", `$\theta$`)
	for _, r := range u.custom {
		if r.Char != "" && r.Text != "" {
			text = strings.ReplaceAll(text, r.Char, r.Text)
		}
	}
	return text
}

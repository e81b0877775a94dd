// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package processor

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pdiddy/docx2md/pkg/types"
)

// Word stores each equation twice: as OMML, which pandoc renders as real
// LaTeX math, and as a plain-text label, which pandoc renders as a second
// math span. The duplicate plus its orphaned $$ opener leaves runs of
// three or more dollars that pdflatex rejects. The patterns below undo
// each known shape of that damage.
var (
	// $X$$Y$$$ with no further dollar: keep $X$, drop the label and orphan.
	orphanedLabelRE = regexp.MustCompile(`(\$[^$\n]+\$)\$[^$\n]+\$\$\$([^$]|$)`)

	// TEXT$$WORD$$\latex... at end of line: drop the label, wrap the LaTeX.
	inlineLabelLineRE = regexp.MustCompile(`(?m)^(.+?)\$\$([A-Za-z]+)\$\$(\\[^$\n]+)\$?$`)

	// }_{X}}_{ double subscript needs an empty group to compile.
	doubleSubscriptRE = regexp.MustCompile(`(\}_\{[^}]*\})\}(_\{)`)

	// [text]{.underline} spans from Word underlining.
	underlineSpanRE = regexp.MustCompile(`\[([^\]]*)\]\{\.underline\}`)

	// $X$^Y^ pandoc superscript stranded outside the math span.
	mathSuperscriptRE = regexp.MustCompile(`\$([^$]+)\$\^([^^\n{}]+)\^`)

	// word$Word$ plain text glued to its own math label.
	dupWordLabelRE = regexp.MustCompile(`([a-zA-Z]{2,})\$([a-zA-Z]+)\$`)

	// $...$word missing the space after closing inline math.
	gluedAfterMathRE = regexp.MustCompile(`(\$[^ $\n][^$\n]*\$)([a-zA-Z])`)

	// \theta^n^ bare command with a pandoc superscript; the guard against
	// surrounding dollars is applied by hand in wrapBareCommandSuperscripts.
	bareCommandSuperRE = regexp.MustCompile(`(\\[a-zA-Z]+)\^([^^\n{}]{1,20})\^`)
)

var (
	tocHeadingRE  = regexp.MustCompile(`(?i)^#+\s+\*{0,3}table\s+of\s+contents\*{0,3}(?:\s*\{[^}]*\})?\s*$`)
	headingLineRE = regexp.MustCompile(`^(#+)\s+(.+)$`)

	// Bold or italic markers wrapping the leading segment of a heading.
	headingBoldPrefixRE = regexp.MustCompile(`^\*{1,3}(.*?)\*{1,3}(\s)`)
	headingBoldOnlyRE   = regexp.MustCompile(`^\*{1,3}(.*?)\*{1,3}$`)

	// {#word-id} or {#word-id .unnumbered} heading attributes.
	headingIDRE = regexp.MustCompile(`\{#[a-zA-Z0-9_-]+([^}]*)\}`)

	// ![alt](path){width="..." height="..."} size attributes.
	imageSizeAttrsRE = regexp.MustCompile(`(!\[[^\]]*\]\([^)]+\))\{(?:width|height)="[^"]*"(?:\s+(?:width|height)="[^"]*")?\}`)

	// ![alt](path) image reference.
	imageRefRE = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)

	// Section break artifacts: headings with no text, standalone [].
	emptyHeadingRE  = regexp.MustCompile(`(?m)^#+\s*$`)
	emptyBracketsRE = regexp.MustCompile(`(?m)^\[\]\s*$`)
)

// Cleanup strips Word conversion artifacts out of pandoc Markdown: stray
// dollar runs, the generated table of contents, heading markup and IDs,
// image size attributes and absolute image paths.
type Cleanup struct {
	cfg       types.CleanupConfig
	outputDir string
}

// NewCleanup builds the cleanup pass. outputDir is the directory of the
// output file; absolute image paths are rewritten relative to it.
func NewCleanup(cfg types.CleanupConfig, outputDir string) *Cleanup {
	if abs, err := filepath.Abs(outputDir); err == nil {
		outputDir = abs
	}
	return &Cleanup{cfg: cfg, outputDir: outputDir}
}

func (c *Cleanup) Name() string { return "cleanup" }

func (c *Cleanup) Process(content string) (string, error) {
	// Stray dollars first: $$$ corrupts every math-aware pass downstream.
	if c.cfg.StripTripleDollar {
		content = stripStrayDollars(content)
	}
	if c.cfg.RemoveTOC {
		content = removeTableOfContents(content)
	}
	if c.cfg.StripHeadingMarkup {
		content = stripHeadingMarkup(content)
	}
	if c.cfg.StripHeadingIDs {
		content = stripHeadingIDs(content)
	}
	if c.cfg.RemoveImageAttrs {
		content = imageSizeAttrsRE.ReplaceAllString(content, "${1}")
	}
	if c.cfg.FixImagePaths {
		content = c.relativizeImagePaths(content)
	}
	content = emptyHeadingRE.ReplaceAllString(content, "")
	content = emptyBracketsRE.ReplaceAllString(content, "")
	return content, nil
}

// FinalSanitize is the last rewrite before frontmatter generation. It
// runs after delimiter fixing and figure captioning, which can both
// introduce shapes the early cleanup pass could not see yet.
func FinalSanitize(content string) string {
	content = doubleSubscriptRE.ReplaceAllString(content, "${1}}{}${2}")
	content = underlineSpanRE.ReplaceAllString(content, "${1}")
	content = sanitizeImageAlts(content)
	content = mathSuperscriptRE.ReplaceAllString(content, "$$${1}^{${2}}$$")
	content = wrapBareCommandSuperscripts(content)
	content = fixSpaceAfterOpeningDollar(content)
	return content
}

// stripStrayDollars removes duplicate OMML+label equation pairs and the
// dollar runs they leave behind, like $S_{3}$$groups:$$$ or $$$Unitary$$.
func stripStrayDollars(content string) string {
	// Runs of four or more collapse to a display delimiter.
	content = collapseDollarRuns(content, func(n int) bool { return n >= 4 })

	// $X$$Y$$$ keeps only the first (LaTeX) span.
	content = orphanedLabelRE.ReplaceAllString(content, "${1}${2}")

	// A leftover triple is a display delimiter with one stray dollar.
	content = collapseDollarRuns(content, func(n int) bool { return n == 3 })

	// TEXT$$WORD$$\latex → TEXT $\latex$
	content = inlineLabelLineRE.ReplaceAllString(content, "${1} $$${3}$$")

	content = doubleSubscriptRE.ReplaceAllString(content, "${1}}{}${2}")
	content = underlineSpanRE.ReplaceAllString(content, "${1}")
	content = sanitizeImageAlts(content)
	content = mathSuperscriptRE.ReplaceAllString(content, "$$${1}^{${2}}$$")

	// word$Word$ drops the math duplicate of the same word.
	content = dupWordLabelRE.ReplaceAllStringFunc(content, func(s string) string {
		m := dupWordLabelRE.FindStringSubmatch(s)
		if strings.EqualFold(m[1], m[2]) {
			return m[1]
		}
		return s
	})

	content = gluedAfterMathRE.ReplaceAllString(content, "${1} ${2}")
	content = fixSpaceAfterOpeningDollar(content)
	return content
}

// collapseDollarRuns rewrites every maximal run of '$' whose length
// satisfies match with "$$".
func collapseDollarRuns(s string, match func(n int) bool) string {
	if !strings.Contains(s, "$$$") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] != '$' {
			b.WriteByte(s[i])
			i++
			continue
		}
		j := i
		for j < len(s) && s[j] == '$' {
			j++
		}
		if match(j - i) {
			b.WriteString("$$")
		} else {
			b.WriteString(s[i:j])
		}
		i = j
	}
	return b.String()
}

// removeTableOfContents drops the Word-generated TOC heading and every
// following line up to the next heading that is not a TOC hyperlink.
func removeTableOfContents(content string) string {
	lines := strings.Split(content, "\n")
	out := lines[:0:0]
	inTOC := false
	for _, line := range lines {
		if tocHeadingRE.MatchString(line) {
			inTOC = true
			continue
		}
		if inTOC {
			if headingLineRE.MatchString(line) && !strings.Contains(line, "](#") {
				inTOC = false
				out = append(out, line)
			}
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// stripHeadingMarkup removes bold and italic markers from heading text.
// Headings like "# ***Title*** $math$" keep their trailing content.
func stripHeadingMarkup(content string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		m := headingLineRE.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		text := m[2]
		// Nested markers strip one layer per round; stop on a fixed point.
		for prev := ""; prev != text; {
			prev = text
			text = headingBoldPrefixRE.ReplaceAllString(text, "${1}${2}")
			text = headingBoldOnlyRE.ReplaceAllString(text, "${1}")
		}
		lines[i] = m[1] + " " + text
	}
	return strings.Join(lines, "\n")
}

// stripHeadingIDs removes Word heading IDs but keeps pandoc's
// .unnumbered class: {#id .unnumbered} becomes {.unnumbered}.
func stripHeadingIDs(content string) string {
	return headingIDRE.ReplaceAllStringFunc(content, func(s string) string {
		m := headingIDRE.FindStringSubmatch(s)
		if strings.Contains(m[1], ".unnumbered") {
			return " {.unnumbered}"
		}
		return ""
	})
}

// relativizeImagePaths rewrites absolute image paths relative to the
// output directory so the document stays portable.
func (c *Cleanup) relativizeImagePaths(content string) string {
	return imageRefRE.ReplaceAllStringFunc(content, func(img string) string {
		m := imageRefRE.FindStringSubmatch(img)
		if !filepath.IsAbs(m[2]) {
			return img
		}
		rel, err := filepath.Rel(c.outputDir, m[2])
		if err != nil {
			return img
		}
		return "![" + m[1] + "](" + rel + ")"
	})
}

// sanitizeImageAlts fixes LaTeX-breaking alt text, which ends up inside
// \caption{}.
func sanitizeImageAlts(content string) string {
	return imageRefRE.ReplaceAllStringFunc(content, func(img string) string {
		m := imageRefRE.FindStringSubmatch(img)
		return "![" + sanitizeCaptionMath(m[1]) + "](" + m[2] + ")"
	})
}

// sanitizeCaptionMath makes math in caption text safe for \caption{}:
// display math becomes inline math, a span with unbalanced braces is
// dropped, and an unclosed span truncates the rest of the caption.
func sanitizeCaptionMath(text string) string {
	for _, d := range []string{`\[`, `\]`, `\(`, `\)`} {
		text = strings.ReplaceAll(text, d, "$")
	}
	text = strings.ReplaceAll(text, "$$", "$")

	var b strings.Builder
	for i := 0; i < len(text); {
		if text[i] == '$' && (i == 0 || text[i-1] != '\\') {
			j := strings.IndexByte(text[i+1:], '$')
			if j < 0 {
				break
			}
			span := text[i+1 : i+1+j]
			if strings.Count(span, "{") == strings.Count(span, "}") {
				b.WriteByte('$')
				b.WriteString(span)
				b.WriteByte('$')
			}
			i += j + 2
			continue
		}
		b.WriteByte(text[i])
		i++
	}
	return b.String()
}

// wrapBareCommandSuperscripts rewrites \theta^n^ to $\theta^{n}$ when the
// construct sits outside math. Pandoc superscripts are short, stay on one
// line and never contain braces, which would mean LaTeX ^{...} instead.
func wrapBareCommandSuperscripts(s string) string {
	if !bareCommandSuperRE.MatchString(s) {
		return s
	}
	var b strings.Builder
	pos := 0
	for pos < len(s) {
		m := bareCommandSuperRE.FindStringSubmatchIndex(s[pos:])
		if m == nil {
			break
		}
		start, end := pos+m[0], pos+m[1]
		if (start > 0 && s[start-1] == '$') || (end < len(s) && s[end] == '$') {
			// Already delimited; keep scanning inside the rejected match.
			b.WriteString(s[pos : start+1])
			pos = start + 1
			continue
		}
		b.WriteString(s[pos:start])
		b.WriteByte('$')
		b.WriteString(s[pos+m[2] : pos+m[3]])
		b.WriteString("^{")
		b.WriteString(s[pos+m[4] : pos+m[5]])
		b.WriteString("}$")
		pos = end
	}
	b.WriteString(s[pos:])
	return b.String()
}

// fixSpaceAfterOpeningDollar turns "$ x" into "$x" when the dollar opens
// inline math. Pandoc only recognizes inline math when the content starts
// right after the dollar.
func fixSpaceAfterOpeningDollar(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '$' && i+2 < len(s) && s[i+1] == ' ' &&
			(isASCIILetter(s[i+2]) || s[i+2] == '\\') &&
			(i == 0 || !endsMathContent(s[i-1])) {
			b.WriteByte('$')
			i++
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// endsMathContent reports whether c can end a math span or a word. A "$ "
// preceded by one of these closes math rather than opening it.
func endsMathContent(c byte) bool {
	if isASCIILetter(c) || (c >= '0' && c <= '9') {
		return true
	}
	switch c {
	case '}', ')', ']', '\\', '$':
		return true
	}
	return false
}

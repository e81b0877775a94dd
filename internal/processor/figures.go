// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package processor

import (
	"regexp"
	"strings"

	"github.com/pdiddy/docx2md/internal/equations"
	"github.com/pdiddy/docx2md/pkg/types"
)

var (
	blankLineSplitRE = regexp.MustCompile(`\n{2,}`)

	// Caption paragraphs open with emphasis around "Figure", in any of
	// Word's renderings: ***Figure 1.***, *Figure* *1.*, ***Figure* *4.*-**
	captionStartRE = regexp.MustCompile(`(?i)^\*{1,3}figure`)

	// ![ ... ] up to and including the opening paren of the path. Alt
	// text may be word-wrapped across lines.
	imageAltRefRE = regexp.MustCompile(`!\[[\s\S]*?\]\(`)

	emphasisSpanRE = regexp.MustCompile(`(?s)\*{1,3}(.*?)\*{1,3}`)
	doubleSpaceRE  = regexp.MustCompile(`  +`)
	wrapNewlineRE  = regexp.MustCompile(`\s*\n\s*`)
)

// Figures fixes the double-caption problem: Word documents carry both an
// AI-generated alt text on the image and a real "Figure N." caption
// paragraph right after it. The real caption replaces the alt text and
// the caption paragraph is removed.
type Figures struct {
	enabled bool
	opts    equations.Options
}

// NewFigures builds the pass. opts controls how math spans are found
// when cleaning caption text.
func NewFigures(cfg types.FiguresConfig, opts equations.Options) *Figures {
	return &Figures{enabled: cfg.Enabled, opts: opts}
}

func (f *Figures) Name() string { return "figures" }

func (f *Figures) Process(content string) (string, error) {
	if !f.enabled {
		return content, nil
	}

	blocks := blankLineSplitRE.Split(content, -1)
	var out []string
	for i := 0; i < len(blocks); {
		block := strings.TrimSpace(blocks[i])
		if strings.HasPrefix(block, "![") {
			j := i + 1
			for j < len(blocks) && strings.TrimSpace(blocks[j]) == "" {
				j++
			}
			if j < len(blocks) {
				next := strings.TrimSpace(blocks[j])
				if captionStartRE.MatchString(next) {
					out = append(out, replaceAltText(block, f.extractCaption(next)))
					i = j + 1
					continue
				}
			}
		}
		out = append(out, blocks[i])
		i++
	}
	return strings.Join(out, "\n\n"), nil
}

// extractCaption turns a caption paragraph into clean text plus math,
// ready to sit inside the image's alt brackets.
func (f *Figures) extractCaption(block string) string {
	text := wrapNewlineRE.ReplaceAllString(block, " ")
	text = f.stripEmphasisOutsideMath(text)
	text = sanitizeCaptionMath(text)
	return strings.TrimSpace(text)
}

// stripEmphasisOutsideMath removes *...* markers from plain text while
// leaving math spans intact.
func (f *Figures) stripEmphasisOutsideMath(text string) string {
	segs := equations.Scan(equations.Document{Text: text}, f.opts)
	var b strings.Builder
	b.Grow(len(text))
	for _, seg := range segs {
		span := text[seg.Start:seg.End]
		if seg.Kind == equations.Plain {
			span = emphasisSpanRE.ReplaceAllString(span, "${1}")
			span = doubleSpaceRE.ReplaceAllString(span, " ")
		}
		b.WriteString(span)
	}
	return b.String()
}

// replaceAltText swaps the alt text of every image reference in the
// block for the given caption.
func replaceAltText(imageBlock, alt string) string {
	return imageAltRefRE.ReplaceAllLiteralString(imageBlock, "!["+alt+"](")
}

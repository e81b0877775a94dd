// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package processor

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"go.yaml.in/yaml/v3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pdiddy/docx2md/pkg/types"
)

var (
	// Bold-only paragraph near the top of the body: **Title text**
	boldTitleRE = regexp.MustCompile(`(?m)^\*\*([^*\n]+)\*\*\s*$`)

	// Italic-only paragraph: *Subtitle text*
	italicSubtitleRE = regexp.MustCompile(`(?m)^\*([^*\n]+)\*\s*$`)

	// "Name -- <email>" or "Name -- email@..." author line.
	authorLineRE = regexp.MustCompile(`(?m)^([A-Z][^\n<]*?)\s+--\s+<?([a-zA-Z0-9._%+\-]+@[^\s>]+)>?\s*$`)

	// Leading title block: bold title, then optional italic subtitle and
	// optional author line, each followed by a blank line.
	titleBlockRE = regexp.MustCompile(`(?m)^\*\*[^*\n]+\*\*\s*\n\n(?:\*[^*\n]+\*\s*\n\n)?(?:[A-Z][^\n<]*?--[^\n]+\n\n)?`)
)

// frontmatterDoc is the YAML document prepended for mdtexpdf. Field
// order here is the order in the output.
type frontmatterDoc struct {
	Title              string `yaml:"title,omitempty"`
	Subtitle           string `yaml:"subtitle,omitempty"`
	Author             string `yaml:"author,omitempty"`
	Email              string `yaml:"email,omitempty"`
	Format             string `yaml:"format"`
	TOC                bool   `yaml:"toc"`
	TOCDepth           int    `yaml:"toc-depth"`
	NoNumbers          bool   `yaml:"no_numbers"`
	HeaderFooterPolicy string `yaml:"header_footer_policy"`
	PageOf             bool   `yaml:"pageof"`
}

// Frontmatter prepends mdtexpdf YAML frontmatter built from document
// properties, with gaps filled by scanning the body and, as a last
// resort, the input filename. The title block the metadata came from is
// stripped out of the body.
type Frontmatter struct {
	cfg       types.FrontmatterConfig
	props     types.DocumentProperties
	inputPath string
}

func NewFrontmatter(cfg types.FrontmatterConfig, props types.DocumentProperties, inputPath string) *Frontmatter {
	return &Frontmatter{cfg: cfg, props: props, inputPath: inputPath}
}

func (f *Frontmatter) Name() string { return "frontmatter" }

func (f *Frontmatter) Process(content string) (string, error) {
	if !f.cfg.Enabled {
		return content, nil
	}
	// A document that already carries frontmatter keeps it.
	if strings.HasPrefix(strings.TrimSpace(content), "---") {
		return content, nil
	}

	title := strings.TrimSpace(f.props.Title)
	author := strings.TrimSpace(f.props.Author)
	subtitle := strings.TrimSpace(f.props.Subject)
	email := ""

	if f.cfg.ExtractFromBody {
		title, subtitle, author, email = extractFromBody(content, title, subtitle, author)
	}
	if title == "" {
		title = titleFromFilename(f.inputPath)
	}
	if author == "" {
		author = f.cfg.DefaultAuthor
	}

	doc := frontmatterDoc{
		Title:              title,
		Subtitle:           subtitle,
		Author:             author,
		Email:              email,
		Format:             f.cfg.MdTexPdf.Format,
		TOC:                f.cfg.MdTexPdf.TOC,
		TOCDepth:           f.cfg.MdTexPdf.TOCDepth,
		NoNumbers:          f.cfg.MdTexPdf.NoNumbers,
		HeaderFooterPolicy: f.cfg.MdTexPdf.HeaderFooterPolicy,
		PageOf:             f.cfg.MdTexPdf.PageOf,
	}

	if f.cfg.StripBodyTitleBlock {
		content = stripTitleBlock(content)
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return content, fmt.Errorf("marshal frontmatter: %w", err)
	}
	return "---\n" + string(out) + "---\n\n" + content, nil
}

// extractFromBody scans the first paragraphs for title, subtitle and
// author patterns, filling only values that are still empty.
func extractFromBody(content, title, subtitle, author string) (string, string, string, string) {
	email := ""
	if title == "" {
		if m := boldTitleRE.FindStringSubmatch(head(content, 500)); m != nil {
			title = strings.TrimSpace(m[1])
		}
	}
	if subtitle == "" {
		if m := italicSubtitleRE.FindStringSubmatch(head(content, 800)); m != nil {
			subtitle = strings.TrimSpace(m[1])
		}
	}
	if author == "" {
		if m := authorLineRE.FindStringSubmatch(head(content, 1000)); m != nil {
			author = strings.TrimSpace(m[1])
			email = strings.TrimSpace(m[2])
		}
	}
	return title, subtitle, author, email
}

// stripTitleBlock removes the first leading title block, whose content
// now lives in the frontmatter.
func stripTitleBlock(content string) string {
	if loc := titleBlockRE.FindStringIndex(content); loc != nil {
		return content[:loc[0]] + content[loc[1]:]
	}
	return content
}

func titleFromFilename(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	stem = strings.NewReplacer("_", " ", "-", " ").Replace(stem)
	return cases.Title(language.English).String(stem)
}

func head(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

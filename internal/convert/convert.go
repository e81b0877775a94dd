// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert orchestrates docx-to-Markdown conversion: document
// metadata, the pandoc passes, the Markdown rewrite chain, image
// handling and frontmatter, plus parallel batch runs over a directory.
package convert

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/docx2md/internal/docx"
	"github.com/pdiddy/docx2md/internal/equations"
	"github.com/pdiddy/docx2md/internal/images"
	"github.com/pdiddy/docx2md/internal/processor"
	"github.com/pdiddy/docx2md/pkg/types"
)

// DocumentConverter turns a docx file into Markdown text. The pandoc
// wrapper implements it; tests substitute fakes.
type DocumentConverter interface {
	// Available reports whether the underlying converter binary exists.
	Available() bool

	// Convert converts the docx at docxPath, extracting embedded media
	// into mediaDir when it is non-empty.
	Convert(docxPath, mediaDir string, extraArgs []string) (string, error)
}

// Outcome bundles the stats and math diagnostics from one conversion.
// Math problems are always diagnostics, never errors.
type Outcome struct {
	Stats       types.ConversionStats
	Diagnostics []equations.Diagnostic
}

// ConvertDocument converts the docx at src to Markdown at dst. Warnings
// and progress notes go to w.
func ConvertDocument(conv DocumentConverter, src, dst string, cfg types.Config, w io.Writer) (Outcome, error) {
	if _, err := os.Stat(src); err != nil {
		return Outcome{}, fmt.Errorf("input file not found: %s", src)
	}
	if !strings.EqualFold(filepath.Ext(src), ".docx") {
		return Outcome{}, fmt.Errorf("input file must be a .docx file: %s", src)
	}

	outDir := filepath.Dir(dst)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return Outcome{}, fmt.Errorf("creating output directory: %w", err)
	}

	props, err := docx.ReadProperties(src)
	if err != nil {
		return Outcome{}, fmt.Errorf("reading document properties: %w", err)
	}

	mediaDir := filepath.Join(outDir, cfg.Images.ExtractPath)
	if err := os.MkdirAll(mediaDir, 0o755); err != nil {
		return Outcome{}, fmt.Errorf("creating media directory: %w", err)
	}

	extraArgs := append([]string(nil), cfg.Pandoc.ExtraArgs...)

	var (
		outcome           Outcome
		markdown          string
		converted         bool
		skipEquationFix   bool
		skipFixDelimiters bool
	)

	// Equations are lifted out of the document and converted in a second
	// pandoc pass. Any failure falls back to a plain conversion, and the
	// delimiter and equation repair passes run instead.
	if cfg.Processing.MathExtraction {
		ext, err := docx.NewExtractor(conv).ExtractAndConvert(src, mediaDir, extraArgs)
		if err != nil {
			fmt.Fprintf(w, "warning: math extraction failed, falling back to pandoc: %v\n", err)
		} else {
			markdown = ext.Markdown
			converted = true
			skipEquationFix = true
			skipFixDelimiters = true
			outcome.Stats.MathEquationsExtracted = ext.Total
			outcome.Stats.MathDisplayCount = ext.Display
			outcome.Stats.MathInlineCount = ext.Inline
			fmt.Fprintf(w, "math extraction: %d equations processed\n", ext.Total)
		}
	}
	if !converted {
		md, err := conv.Convert(src, mediaDir, extraArgs)
		if err != nil {
			return Outcome{}, err
		}
		markdown = md
	}

	opts := equations.NewOptions(cfg.Equations)

	var chain processor.Chain
	if cfg.Processing.Cleanup {
		chain = append(chain, processor.NewCleanup(cfg.Cleanup, outDir))
	}
	if cfg.Processing.FixUnicode {
		chain = append(chain, processor.NewUnicodeFix(cfg.UnicodeFix, opts))
	}
	if cfg.Processing.FixFigures {
		chain = append(chain, processor.NewFigures(cfg.Figures, opts))
	}
	if cfg.Processing.FixEquations && !skipEquationFix {
		chain = append(chain, processor.NewEquationFix(cfg.EquationFix, opts))
	}
	var delims *processor.Delimiters
	if cfg.Processing.FixDelimiters && !skipFixDelimiters {
		delims = processor.NewDelimiters(opts, dst)
		chain = append(chain, delims)
	}
	var tables *processor.Tables
	if cfg.Processing.ProcessTables {
		tables = processor.NewTables(cfg.Tables)
		chain = append(chain, tables)
	}

	markdown, err = chain.Run(markdown)
	if err != nil {
		return Outcome{}, err
	}

	if cfg.Processing.ExtractImages {
		res, err := images.Process(markdown, images.Options{
			Dir:       mediaDir,
			BaseDir:   outDir,
			Optimize:  cfg.Images.Optimize,
			MaxWidth:  cfg.Images.MaxWidth,
			MaxHeight: cfg.Images.MaxHeight,
		})
		if err != nil {
			return Outcome{}, err
		}
		markdown = res.Content
		outcome.Stats.ImagesProcessed = res.Processed
		outcome.Stats.ImagesFailed = res.Failed
		outcome.Stats.TotalImages = res.Total
	}

	// Runs after delimiter rewriting so newly introduced $$ forms are
	// covered too.
	if cfg.Processing.Cleanup {
		markdown = processor.FinalSanitize(markdown)
	}

	if cfg.Processing.GenerateFrontmatter {
		fm := processor.NewFrontmatter(cfg.Frontmatter, props, src)
		markdown, err = fm.Process(markdown)
		if err != nil {
			return Outcome{}, fmt.Errorf("%s: %w", fm.Name(), err)
		}
	}

	if err := os.WriteFile(dst, []byte(markdown), 0o644); err != nil {
		return Outcome{}, fmt.Errorf("writing %s: %w", dst, err)
	}

	if delims != nil {
		outcome.Stats.InlineFixed = delims.InlineFixed
		outcome.Stats.DisplayFixed = delims.DisplayFixed
		outcome.Diagnostics = delims.Diagnostics
	}
	if tables != nil {
		outcome.Stats.TablesProcessed = tables.Processed
	}

	return outcome, nil
}

package types

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// TableFormat selects the Markdown table style emitted by the table processor.
type TableFormat string

const (
	TablePipe   TableFormat = "pipe"
	TableGrid   TableFormat = "grid"
	TableSimple TableFormat = "simple"
)

// EquationsConfig holds the delimiter and environment settings used when
// scanning and rewriting math regions.
type EquationsConfig struct {
	// InlineDelimiters is the canonical [open, close] pair for inline math.
	InlineDelimiters []string `json:"inline_delimiters" yaml:"inline_delimiters"`

	// DisplayDelimiters is the canonical [open, close] pair for display math.
	DisplayDelimiters []string `json:"display_delimiters" yaml:"display_delimiters"`

	// UsePandocMathML asks pandoc to emit MathML instead of raw LaTeX.
	// Off by default: downstream PDF tooling wants $...$ delimiters.
	UsePandocMathML bool `json:"use_pandoc_mathml" yaml:"use_pandoc_mathml"`

	// RecognizedEnvironments lists \begin{...} names accepted without a
	// validation warning. Empty entries are ignored.
	RecognizedEnvironments []string `json:"recognized_environments" yaml:"recognized_environments"`

	// RequireEnvironmentWrapper warns when a math environment appears
	// outside $$...$$ wrappers.
	RequireEnvironmentWrapper bool `json:"require_environment_wrapper" yaml:"require_environment_wrapper"`
}

// ImagesConfig holds settings for image extraction and optimization.
type ImagesConfig struct {
	// ExtractPath is where pandoc drops embedded media, relative to the
	// output document (matches the --extract-media convention).
	ExtractPath string `json:"extract_path" yaml:"extract_path"`

	// Optimize enables resizing and recompression of extracted images.
	Optimize bool `json:"optimize" yaml:"optimize"`

	// MaxWidth is the maximum image width in pixels when optimizing.
	MaxWidth int `json:"max_width" yaml:"max_width"`

	// MaxHeight is the maximum image height in pixels when optimizing.
	MaxHeight int `json:"max_height" yaml:"max_height"`
}

// TablesConfig holds settings for table post-processing.
type TablesConfig struct {
	// Format selects the table style: pipe, grid, or simple.
	Format TableFormat `json:"format" yaml:"format"`

	// HeaderStyle decorates header cells ("bold" or "none").
	HeaderStyle string `json:"header_style" yaml:"header_style"`
}

// PandocConfig holds settings for invoking the pandoc binary.
type PandocConfig struct {
	// Path is the pandoc executable name or absolute path.
	Path string `json:"path" yaml:"path"`

	// ExtraArgs is appended to every pandoc invocation.
	ExtraArgs []string `json:"extra_args" yaml:"extra_args"`
}

// ProcessingConfig toggles individual pipeline stages.
type ProcessingConfig struct {
	// MathExtraction runs the OMML placeholder pipeline that converts
	// equations in a separate pandoc pass.
	MathExtraction bool `json:"math_extraction" yaml:"math_extraction"`

	// FixDelimiters rewrites math delimiters to the canonical pairs.
	FixDelimiters bool `json:"fix_delimiters" yaml:"fix_delimiters"`

	// ExtractImages copies and optionally optimizes embedded images.
	ExtractImages bool `json:"extract_images" yaml:"extract_images"`

	// ProcessTables reformats pandoc tables.
	ProcessTables bool `json:"process_tables" yaml:"process_tables"`

	// Cleanup runs the Markdown cleanup passes.
	Cleanup bool `json:"cleanup" yaml:"cleanup"`

	// FixFigures normalizes figure captions and alt text.
	FixFigures bool `json:"fix_figures" yaml:"fix_figures"`

	// FixUnicode replaces stray Unicode characters with LaTeX equivalents.
	FixUnicode bool `json:"fix_unicode" yaml:"fix_unicode"`

	// FixEquations repairs common OMML conversion artifacts.
	FixEquations bool `json:"fix_equations" yaml:"fix_equations"`

	// GenerateFrontmatter prepends a YAML metadata block.
	GenerateFrontmatter bool `json:"generate_frontmatter" yaml:"generate_frontmatter"`

	// Jobs is the number of concurrent conversions in batch mode.
	// Zero means one worker per CPU.
	Jobs int `json:"jobs" yaml:"jobs"`
}

// CleanupConfig toggles the individual cleanup passes.
type CleanupConfig struct {
	// StripTripleDollar collapses runs of three or more dollar signs.
	StripTripleDollar bool `json:"strip_triple_dollar" yaml:"strip_triple_dollar"`

	// RemoveTOC drops Word-generated table-of-contents blocks.
	RemoveTOC bool `json:"remove_toc" yaml:"remove_toc"`

	// StripHeadingMarkup removes bold and italic markers inside headings.
	StripHeadingMarkup bool `json:"strip_heading_markup" yaml:"strip_heading_markup"`

	// StripHeadingIDs removes pandoc {#id} attributes from headings.
	StripHeadingIDs bool `json:"strip_heading_ids" yaml:"strip_heading_ids"`

	// RemoveImageAttrs strips {width=...} attribute blocks after images.
	RemoveImageAttrs bool `json:"remove_image_attrs" yaml:"remove_image_attrs"`

	// FixImagePaths rewrites image references to the extract path.
	FixImagePaths bool `json:"fix_image_paths" yaml:"fix_image_paths"`
}

// FiguresConfig holds settings for figure caption normalization.
type FiguresConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// UnicodeReplacement maps a single character to replacement text. Always
// applies everywhere; otherwise Text and Math apply per context.
type UnicodeReplacement struct {
	Char   string `json:"char" yaml:"char"`
	Always string `json:"always,omitempty" yaml:"always,omitempty"`
	Text   string `json:"text,omitempty" yaml:"text,omitempty"`
	Math   string `json:"math,omitempty" yaml:"math,omitempty"`
}

// UnicodeFixConfig holds settings for Unicode replacement.
type UnicodeFixConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`

	// CustomReplacements extends the built-in replacement table.
	CustomReplacements []UnicodeReplacement `json:"custom_replacements" yaml:"custom_replacements"`
}

// EquationFixConfig holds settings for OMML artifact repair.
type EquationFixConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// MdTexPdfConfig is the mdtexpdf block written into generated frontmatter.
type MdTexPdfConfig struct {
	Format             string `json:"format" yaml:"format"`
	TOC                bool   `json:"toc" yaml:"toc"`
	TOCDepth           int    `json:"toc-depth" yaml:"toc-depth"`
	NoNumbers          bool   `json:"no_numbers" yaml:"no_numbers"`
	HeaderFooterPolicy string `json:"header_footer_policy" yaml:"header_footer_policy"`
	PageOf             bool   `json:"pageof" yaml:"pageof"`
}

// FrontmatterConfig holds settings for YAML frontmatter generation.
type FrontmatterConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`

	// ExtractFromBody scans the document head for **Title**, *subtitle*,
	// and author lines.
	ExtractFromBody bool `json:"extract_from_body" yaml:"extract_from_body"`

	// StripBodyTitleBlock removes the title lines from the body once they
	// have been lifted into frontmatter.
	StripBodyTitleBlock bool `json:"strip_body_title_block" yaml:"strip_body_title_block"`

	// DefaultAuthor is used when no author line is found in the body.
	DefaultAuthor string `json:"default_author" yaml:"default_author"`

	// MdTexPdf is copied verbatim into the generated frontmatter.
	MdTexPdf MdTexPdfConfig `json:"mdtexpdf" yaml:"mdtexpdf"`
}

// BatchConfig holds settings for batch conversion runs.
type BatchConfig struct {
	// StateDB is the path of the SQLite ledger that tracks converted
	// files. Empty disables conversion tracking.
	StateDB string `json:"state_db" yaml:"state_db"`
}

// Config groups all settings for the conversion pipeline.
type Config struct {
	Equations   EquationsConfig   `json:"equations" yaml:"equations"`
	Images      ImagesConfig      `json:"images" yaml:"images"`
	Tables      TablesConfig      `json:"tables" yaml:"tables"`
	Pandoc      PandocConfig      `json:"pandoc" yaml:"pandoc"`
	Processing  ProcessingConfig  `json:"processing" yaml:"processing"`
	Cleanup     CleanupConfig     `json:"cleanup" yaml:"cleanup"`
	Figures     FiguresConfig     `json:"figures" yaml:"figures"`
	UnicodeFix  UnicodeFixConfig  `json:"unicode_fix" yaml:"unicode_fix"`
	EquationFix EquationFixConfig `json:"equation_fix" yaml:"equation_fix"`
	Frontmatter FrontmatterConfig `json:"yaml_frontmatter" yaml:"yaml_frontmatter"`
	Batch       BatchConfig       `json:"batch" yaml:"batch"`
}

// DefaultEnvironments lists the math environment names accepted without a
// validation warning when the config does not override them.
var DefaultEnvironments = []string{
	"align", "align*", "aligned", "alignat", "array",
	"bmatrix", "Bmatrix", "cases", "ce",
	"equation", "equation*", "gather", "gathered",
	"matrix", "pmatrix", "smallmatrix", "split",
	"vmatrix", "Vmatrix",
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		Equations: EquationsConfig{
			InlineDelimiters:       []string{"$", "$"},
			DisplayDelimiters:      []string{"$$", "$$"},
			UsePandocMathML:        false,
			RecognizedEnvironments: append([]string(nil), DefaultEnvironments...),
		},
		Images: ImagesConfig{
			ExtractPath: "./media",
			Optimize:    false,
			MaxWidth:    1200,
			MaxHeight:   900,
		},
		Tables: TablesConfig{
			Format:      TablePipe,
			HeaderStyle: "bold",
		},
		Pandoc: PandocConfig{
			Path:      "pandoc",
			ExtraArgs: []string{"--wrap=none"},
		},
		Processing: ProcessingConfig{
			MathExtraction:      true,
			FixDelimiters:       true,
			ExtractImages:       true,
			ProcessTables:       true,
			Cleanup:             true,
			FixFigures:          true,
			FixUnicode:          true,
			FixEquations:        true,
			GenerateFrontmatter: true,
		},
		Cleanup: CleanupConfig{
			StripTripleDollar:  true,
			RemoveTOC:          true,
			StripHeadingMarkup: true,
			StripHeadingIDs:    true,
			RemoveImageAttrs:   true,
			FixImagePaths:      true,
		},
		Figures:     FiguresConfig{Enabled: true},
		UnicodeFix:  UnicodeFixConfig{Enabled: true},
		EquationFix: EquationFixConfig{Enabled: true},
		Frontmatter: FrontmatterConfig{
			Enabled:             true,
			ExtractFromBody:     true,
			StripBodyTitleBlock: true,
			MdTexPdf: MdTexPdfConfig{
				Format:             "article",
				TOC:                true,
				TOCDepth:           2,
				NoNumbers:          true,
				HeaderFooterPolicy: "all",
				PageOf:             true,
			},
		},
	}
}

// LoadConfig reads a YAML config file over the defaults. Keys absent from
// the file keep their default values. An empty path returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.Normalize()
	return cfg, nil
}

// Normalize repairs invalid settings in place, falling back to defaults
// for malformed delimiter pairs and zero sizes.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if len(c.Equations.InlineDelimiters) != 2 {
		c.Equations.InlineDelimiters = def.Equations.InlineDelimiters
	}
	if len(c.Equations.DisplayDelimiters) != 2 {
		c.Equations.DisplayDelimiters = def.Equations.DisplayDelimiters
	}
	if len(c.Equations.RecognizedEnvironments) == 0 {
		c.Equations.RecognizedEnvironments = def.Equations.RecognizedEnvironments
	}
	if c.Images.MaxWidth <= 0 {
		c.Images.MaxWidth = def.Images.MaxWidth
	}
	if c.Images.MaxHeight <= 0 {
		c.Images.MaxHeight = def.Images.MaxHeight
	}
	if c.Pandoc.Path == "" {
		c.Pandoc.Path = def.Pandoc.Path
	}
	switch c.Tables.Format {
	case TablePipe, TableGrid, TableSimple:
	default:
		c.Tables.Format = def.Tables.Format
	}
	if c.Processing.Jobs < 0 {
		c.Processing.Jobs = 0
	}
}

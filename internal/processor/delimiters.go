// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package processor

import (
	"github.com/pdiddy/docx2md/internal/equations"
)

// Delimiters rewrites math delimiters to the configured canonical pairs:
// \(...\) becomes $...$ and \[...\] becomes $$...$$ under the defaults.
// Counters and diagnostics accumulate across Process calls.
type Delimiters struct {
	engine *equations.Engine
	path   string

	InlineFixed  int
	DisplayFixed int
	Diagnostics  []equations.Diagnostic
}

// NewDelimiters builds the pass. path labels diagnostics with the file
// they came from.
func NewDelimiters(opts equations.Options, path string) *Delimiters {
	return &Delimiters{engine: equations.NewEngine(opts), path: path}
}

func (d *Delimiters) Name() string { return "fix_delimiters" }

func (d *Delimiters) Process(content string) (string, error) {
	res := d.engine.Fix(equations.Document{Path: d.path, Text: content})
	d.InlineFixed += res.InlineRewritten
	d.DisplayFixed += res.DisplayRewritten
	d.Diagnostics = append(d.Diagnostics, res.Diagnostics...)
	return res.Text, nil
}

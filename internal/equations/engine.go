// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package equations

// Result is the outcome of a Fix run. Text and Diagnostics always
// describe the document after rewriting, never the input.
type Result struct {
	Text             string
	Diagnostics      []Diagnostic
	InlineRewritten  int
	DisplayRewritten int
}

// Engine runs the scan, normalize and validate steps over documents. It
// carries no per-document state and is safe for concurrent use.
type Engine struct {
	opts Options
}

// NewEngine returns an engine with the given options.
func NewEngine(opts Options) *Engine {
	return &Engine{opts: opts}
}

// Fix rewrites math delimiters to canonical form, then re-scans and
// validates the rewritten text. Applying Fix to its own output changes
// nothing. With FixDelimiters disabled the text passes through untouched
// and only validation runs.
func (e *Engine) Fix(doc Document) Result {
	segs := Scan(doc, e.opts)
	if !e.opts.FixDelimiters {
		return Result{
			Text:        doc.Text,
			Diagnostics: Validate(doc, segs, e.opts),
		}
	}

	inline, display := 0, 0
	for _, seg := range segs {
		if !seg.Terminated() {
			continue
		}
		switch seg.Kind {
		case MathInline:
			if seg.Open != e.opts.InlinePair[0] || seg.Close != e.opts.InlinePair[1] {
				inline++
			}
		case MathDisplay:
			if seg.Open != e.opts.DisplayPair[0] || seg.Close != e.opts.DisplayPair[1] {
				display++
			}
		}
	}

	fixed := Document{Path: doc.Path, Text: Normalize(doc, segs, e.opts)}
	fixedSegs := Scan(fixed, e.opts)
	return Result{
		Text:             fixed.Text,
		Diagnostics:      Validate(fixed, fixedSegs, e.opts),
		InlineRewritten:  inline,
		DisplayRewritten: display,
	}
}

// Check validates the document without rewriting anything.
func (e *Engine) Check(doc Document) []Diagnostic {
	return Validate(doc, Scan(doc, e.opts), e.opts)
}

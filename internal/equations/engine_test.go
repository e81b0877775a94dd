// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package equations

import (
	"testing"

	"github.com/pdiddy/docx2md/pkg/types"
)

func renderDiags(diags []Diagnostic) []string {
	out := make([]string, len(diags))
	for i, d := range diags {
		out[i] = d.String()
	}
	return out
}

func sameDiags(a, b []Diagnostic) bool {
	ra, rb := renderDiags(a), renderDiags(b)
	if len(ra) != len(rb) {
		return false
	}
	for i := range ra {
		if ra[i] != rb[i] {
			return false
		}
	}
	return true
}

func TestEngineFix_RewritesToCanonical(t *testing.T) {
	eng := NewEngine(DefaultOptions())
	res := eng.Fix(Document{Path: "doc.md", Text: `\(a+b\)`})

	if res.Text != "$a+b$" {
		t.Errorf("Text = %q, want %q", res.Text, "$a+b$")
	}
	if len(res.Diagnostics) != 0 {
		t.Errorf("unexpected diagnostics: %v", res.Diagnostics)
	}
	if res.InlineRewritten != 1 || res.DisplayRewritten != 0 {
		t.Errorf("rewritten = %d/%d, want 1/0", res.InlineRewritten, res.DisplayRewritten)
	}
}

func TestEngineFix_Counts(t *testing.T) {
	eng := NewEngine(DefaultOptions())
	res := eng.Fix(Document{Path: "doc.md", Text: `\(a\) and \[b\] and $c$`})

	if res.InlineRewritten != 1 {
		t.Errorf("InlineRewritten = %d, want 1 (canonical $c$ is not a rewrite)", res.InlineRewritten)
	}
	if res.DisplayRewritten != 1 {
		t.Errorf("DisplayRewritten = %d, want 1", res.DisplayRewritten)
	}
	if res.Text != "$a$ and $$b$$ and $c$" {
		t.Errorf("Text = %q", res.Text)
	}
}

func TestEngineFix_RepairsMismatchedCloser(t *testing.T) {
	eng := NewEngine(DefaultOptions())
	res := eng.Fix(Document{Path: "doc.md", Text: "$a$$"})

	if res.Text != "$a$" {
		t.Errorf("Text = %q, want %q", res.Text, "$a$")
	}
	// Diagnostics describe the rewritten text, which is clean.
	if len(res.Diagnostics) != 0 {
		t.Errorf("unexpected diagnostics: %v", res.Diagnostics)
	}
	if res.InlineRewritten != 1 {
		t.Errorf("InlineRewritten = %d, want 1", res.InlineRewritten)
	}
}

func TestEngineFix_UnterminatedSurvivesWithDiagnostic(t *testing.T) {
	eng := NewEngine(DefaultOptions())
	res := eng.Fix(Document{Path: "doc.md", Text: "bad $x"})

	if res.Text != "bad $x" {
		t.Errorf("Text = %q, want input unchanged", res.Text)
	}
	if len(res.Diagnostics) != 1 || res.Diagnostics[0].Severity != SeverityError {
		t.Errorf("diagnostics = %v, want one error", res.Diagnostics)
	}
}

func TestEngineFix_DisabledValidatesOnly(t *testing.T) {
	opts := DefaultOptions()
	opts.FixDelimiters = false
	eng := NewEngine(opts)

	doc := Document{Path: "doc.md", Text: `\(a\) and $x`}
	res := eng.Fix(doc)

	if res.Text != doc.Text {
		t.Errorf("Text = %q, want input unchanged", res.Text)
	}
	if res.InlineRewritten != 0 || res.DisplayRewritten != 0 {
		t.Errorf("rewritten = %d/%d, want 0/0", res.InlineRewritten, res.DisplayRewritten)
	}
	if !sameDiags(res.Diagnostics, eng.Check(doc)) {
		t.Errorf("Fix diagnostics %v differ from Check %v", res.Diagnostics, eng.Check(doc))
	}
}

func TestEngineFix_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"plain text",
		`\(a+b\) and \[c\]`,
		"Cost is $5 and energy $E=mc^2$.",
		"$a$$ mismatch",
		"unterminated $x and \\[y",
		"`$code$` with ```\n$fence$\n```\n",
		`\begin{aligned}x &= 1\end{aligned}`,
		"$$\nE = mc^2\n$$",
		"$x$2 digits",
	}

	eng := NewEngine(DefaultOptions())
	for _, text := range inputs {
		first := eng.Fix(Document{Path: "doc.md", Text: text})
		second := eng.Fix(Document{Path: "doc.md", Text: first.Text})

		if second.Text != first.Text {
			t.Errorf("Fix not idempotent for %q:\n first: %q\nsecond: %q", text, first.Text, second.Text)
		}
		if !sameDiags(first.Diagnostics, second.Diagnostics) {
			t.Errorf("diagnostics changed on refix of %q:\n first: %v\nsecond: %v",
				text, first.Diagnostics, second.Diagnostics)
		}
		if second.InlineRewritten != 0 || second.DisplayRewritten != 0 {
			t.Errorf("second fix of %q rewrote %d/%d regions, want none",
				text, second.InlineRewritten, second.DisplayRewritten)
		}
	}
}

func TestEngineCheck_NeverRewrites(t *testing.T) {
	eng := NewEngine(DefaultOptions())
	doc := Document{Path: "doc.md", Text: `\(a\) and $x`}

	diags := eng.Check(doc)
	if len(diags) != 1 {
		t.Fatalf("got %d diagnostics, want 1: %v", len(diags), diags)
	}
	// \(a\) is non-canonical but valid: Check reports nothing for it.
	if diags[0].Offset != 10 {
		t.Errorf("offset = %d, want 10 (the unterminated opener)", diags[0].Offset)
	}
}

func TestEngine_OptionsFromConfig(t *testing.T) {
	cfg := types.EquationsConfig{
		InlineDelimiters:  []string{`\(`, `\)`},
		DisplayDelimiters: []string{"$$", "$$"},
	}
	eng := NewEngine(NewOptions(cfg))

	res := eng.Fix(Document{Path: "doc.md", Text: "$a$"})
	if res.Text != `\(a\)` {
		t.Errorf("Text = %q, want %q", res.Text, `\(a\)`)
	}
	if res.InlineRewritten != 1 {
		t.Errorf("InlineRewritten = %d, want 1", res.InlineRewritten)
	}
}

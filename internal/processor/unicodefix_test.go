// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package processor

import (
	"testing"

	"github.com/pdiddy/docx2md/internal/equations"
	"github.com/pdiddy/docx2md/pkg/types"
)

func newTestUnicodeFix(custom ...types.UnicodeReplacement) *UnicodeFix {
	cfg := types.UnicodeFixConfig{Enabled: true, CustomReplacements: custom}
	return NewUnicodeFix(cfg, equations.DefaultOptions())
}

func TestUnicodeFixProcess(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"nbsp anywhere", "a b", "a b"},
		{"colon equals", "let x ≔ 3", "let x := 3"},
		{"tau anywhere", "Τ stands for period", "T stands for period"},
		{"theta in text", "θ is small", `$\theta$ is small`},
		{"theta in math", "$θ + 1$", `$\theta + 1$`},
		{"ell with subscript in text", "the ℓ₁ norm", `the $\ell_{1}$ norm`},
		{"lone ell in text", "length ℓ here", `length $\ell$ here`},
		{"subscript digits in text", "x₂ axis", `x$_{2}$ axis`},
		{"ell and subscript in math", "$ℓ₂$", `$\ell _2$`},
		{"beta in both contexts", "Β and $Β$", "B and $B$"},
		{"diagonal ellipsis in math", "$a ⋰ b$", `$a \ddots b$`},
		{"inline code untouched", "run `θ` now", "run `θ` now"},
		{"fenced code untouched", "```\nθ₂\n```\n", "```\nθ₂\n```\n"},
		{"plain ascii untouched", "nothing special", "nothing special"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := newTestUnicodeFix().Process(tt.in)
			if err != nil {
				t.Fatalf("Process: %v", err)
			}
			if got != tt.want {
				t.Errorf("Process(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestUnicodeFixCustomReplacements(t *testing.T) {
	u := newTestUnicodeFix(
		types.UnicodeReplacement{Char: "×", Text: `$\times$`, Math: `\times`},
		types.UnicodeReplacement{Char: "…", Always: "..."},
	)
	got, err := u.Process("a × b, $x × y$ and more…")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	want := `a $\times$ b, $x \times y$ and more...`
	if got != want {
		t.Errorf("Process = %q, want %q", got, want)
	}
}

func TestUnicodeFixDisabled(t *testing.T) {
	u := NewUnicodeFix(types.UnicodeFixConfig{Enabled: false}, equations.DefaultOptions())
	in := "θ and ℓ₁"
	got, err := u.Process(in)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if got != in {
		t.Errorf("disabled pass changed content: %q", got)
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package processor

import (
	"errors"
	"strings"
	"testing"

	"github.com/pdiddy/docx2md/pkg/types"
)

func newTestCleanup(t *testing.T) *Cleanup {
	t.Helper()
	return NewCleanup(types.DefaultConfig().Cleanup, "/docs/out")
}

func TestStripStrayDollars(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"orphaned label pair", "$S_{3}$$groups:$$$", "$S_{3}$"},
		{"duplicated equation", "$Z_{3}$$Z_{3}$$$", "$Z_{3}$"},
		{"stray dollar before display", "$$$Unitary$$", "$$Unitary$$"},
		{"four dollars", "a$$$$b", "a$$b"},
		{"seven dollars", "a$$$$$$$b", "a$$b"},
		{"double dollars kept", "$$x$$", "$$x$$"},
		{"single span kept", "see $E=mc^2$ here", "see $E=mc^2$ here"},
		{
			"label line with latex tail",
			`Energy balance$$Emc$$\sqrt{E}=mc^2$`,
			`Energy balance $\sqrt{E}=mc^2$`,
		},
		{"double subscript", `$x}_{i}}_{j}$`, `$x}_{i}}{}_{j}$`},
		{"underline span", "some [text]{.underline} here", "some text here"},
		{"superscript after math", "$x$^2^ = 4", "$x^{2}$ = 4"},
		{"duplicate word label", "unitary$Unitary$ group", "unitary group"},
		{"word label keeps different words", "speed$c$", "speed$c$"},
		{"glued word after math", "$a+b$and more", "$a+b$ and more"},
		{"space after opening dollar", "value $ n$ here", "value $n$ here"},
		{"space after closing dollar kept", "$x$ y", "$x$ y"},
		{"plain text untouched", "no math at all", "no math at all"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripStrayDollars(tt.in); got != tt.want {
				t.Errorf("stripStrayDollars(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCollapseDollarRuns(t *testing.T) {
	atLeastFour := func(n int) bool { return n >= 4 }
	exactlyThree := func(n int) bool { return n == 3 }

	tests := []struct {
		in    string
		match func(int) bool
		want  string
	}{
		{"$$$$", atLeastFour, "$$"},
		{"$$$$$$$", atLeastFour, "$$"},
		{"$$$", atLeastFour, "$$$"},
		{"$$$", exactlyThree, "$$"},
		{"a$$$b$$$c", exactlyThree, "a$$b$$c"},
		{"$$", exactlyThree, "$$"},
		{"x$y", exactlyThree, "x$y"},
	}
	for _, tt := range tests {
		if got := collapseDollarRuns(tt.in, tt.match); got != tt.want {
			t.Errorf("collapseDollarRuns(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRemoveTableOfContents(t *testing.T) {
	in := strings.Join([]string{
		"# Intro",
		"## **Table of Contents** {#toc .TOC-Heading}",
		"[1 Overview](#overview)",
		"[2 Details](#details)",
		"",
		"# Overview",
		"Body text.",
	}, "\n")
	want := strings.Join([]string{
		"# Intro",
		"# Overview",
		"Body text.",
	}, "\n")
	if got := removeTableOfContents(in); got != want {
		t.Errorf("removeTableOfContents:\ngot  %q\nwant %q", got, want)
	}
}

func TestTOCHeadingVariants(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"# Table of Contents", true},
		{"## TABLE OF CONTENTS", true},
		{"### ***Table of Contents***", true},
		{"# Table of Contents {#toc}", true},
		{"# Table of Contentses", false},
		{"Table of Contents", false},
		{"# Contents", false},
	}
	for _, tt := range tests {
		if got := tocHeadingRE.MatchString(tt.line); got != tt.want {
			t.Errorf("tocHeadingRE.MatchString(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestStripHeadingMarkup(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"# ***Bold Title*** rest", "# Bold Title rest"},
		{"## **Only Bold**", "## Only Bold"},
		{"### *Italic* tail", "### Italic tail"},
		{"# Plain heading", "# Plain heading"},
		{"not a heading **bold**", "not a heading **bold**"},
	}
	for _, tt := range tests {
		if got := stripHeadingMarkup(tt.in); got != tt.want {
			t.Errorf("stripHeadingMarkup(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStripHeadingIDs(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"# Title {#title-1}", "# Title "},
		// The matched span is replaced, the space before it stays.
		{"# Refs {#refs .unnumbered}", "# Refs  {.unnumbered}"},
		{"# Refs {#refs .TOC-Heading .unnumbered}", "# Refs  {.unnumbered}"},
		{"# No id here", "# No id here"},
	}
	for _, tt := range tests {
		if got := stripHeadingIDs(tt.in); got != tt.want {
			t.Errorf("stripHeadingIDs(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestImageSizeAttrs(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{
			`![a](p.png){width="5in" height="3in"}`,
			`![a](p.png)`,
		},
		{
			`![a](p.png){height="2in"}`,
			`![a](p.png)`,
		},
		{
			`![a](p.png)`,
			`![a](p.png)`,
		},
	}
	for _, tt := range tests {
		if got := imageSizeAttrsRE.ReplaceAllString(tt.in, "${1}"); got != tt.want {
			t.Errorf("size attrs on %q = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRelativizeImagePaths(t *testing.T) {
	c := newTestCleanup(t)
	tests := []struct {
		in   string
		want string
	}{
		{"![x](/docs/out/media/img1.png)", "![x](media/img1.png)"},
		{"![x](/docs/other/img.png)", "![x](../other/img.png)"},
		{"![x](media/img1.png)", "![x](media/img1.png)"},
		{"no image here", "no image here"},
	}
	for _, tt := range tests {
		if got := c.relativizeImagePaths(tt.in); got != tt.want {
			t.Errorf("relativizeImagePaths(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeImageAlts(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"clean alt untouched",
			"![Graph of $f(x)$](img.png)",
			"![Graph of $f(x)$](img.png)",
		},
		{
			"macro delimiters become dollars",
			`![Plot of \(g\)](img.png)`,
			"![Plot of $g$](img.png)",
		},
		{
			"display math becomes inline",
			"![$$x$$](img.png)",
			"![$x$](img.png)",
		},
		{
			"unbalanced braces dropped",
			`![caption $\frac{1}{2$ tail](i.png)`,
			"![caption  tail](i.png)",
		},
		{
			"unclosed span truncates caption",
			"![see $E=mc^2](i.png)",
			"![see ](i.png)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeImageAlts(tt.in); got != tt.want {
				t.Errorf("sanitizeImageAlts(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestWrapBareCommandSuperscripts(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare command", `\theta^n^ = 1`, `$\theta^{n}$ = 1`},
		{"already in math before", `in $\theta^n^$ math`, `in $\theta^n^$ math`},
		{"already in math after", `\theta^n^$`, `\theta^n^$`},
		{"braces mean latex syntax", `\theta^{n}`, `\theta^{n}`},
		{"no command", "x^2^", "x^2^"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := wrapBareCommandSuperscripts(tt.in); got != tt.want {
				t.Errorf("wrapBareCommandSuperscripts(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFixSpaceAfterOpeningDollar(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"value $ n$ here", "value $n$ here"},
		{`start $ \frac{1}{2}$`, `start $\frac{1}{2}$`},
		{"$x$ y", "$x$ y"},
		{"cost $5 and $ 6", "cost $5 and $ 6"},
		{"$ $ x", "$ $x"},
	}
	for _, tt := range tests {
		if got := fixSpaceAfterOpeningDollar(tt.in); got != tt.want {
			t.Errorf("fixSpaceAfterOpeningDollar(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanupProcess(t *testing.T) {
	c := newTestCleanup(t)
	in := strings.Join([]string{
		"# ***Title*** {#title}",
		"",
		"# Table of Contents",
		"[1 Intro](#intro)",
		"",
		"# Intro",
		"$S_{3}$$groups:$$$ appears twice.",
		"![x](/docs/out/media/img1.png)",
		"##",
		"[]",
		"done",
	}, "\n")
	got, err := c.Process(in)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	want := strings.Join([]string{
		"# Title ",
		"",
		"# Intro",
		"$S_{3}$ appears twice.",
		"![x](media/img1.png)",
		"",
		"",
		"done",
	}, "\n")
	if got != want {
		t.Errorf("Process:\ngot  %q\nwant %q", got, want)
	}
}

func TestCleanupProcessRespectsGates(t *testing.T) {
	cfg := types.CleanupConfig{}
	c := NewCleanup(cfg, "/docs/out")
	in := "# ***Title*** {#t}\n$$$x$$\n![a](/abs/p.png)"
	got, err := c.Process(in)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if got != in {
		t.Errorf("all gates off should leave content unchanged:\ngot  %q\nwant %q", got, in)
	}
}

func TestFinalSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare command superscript", `so \theta^n^ holds`, `so $\theta^{n}$ holds`},
		{"superscript after math", "$x$^2^", "$x^{2}$"},
		{"double subscript", `$x}_{i}}_{j}$`, `$x}_{i}}{}_{j}$`},
		{"underline span", "[u]{.underline}", "u"},
		{"space after opening dollar", "eq $ x$", "eq $x$"},
		{"clean text", "nothing to do", "nothing to do"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FinalSanitize(tt.in); got != tt.want {
				t.Errorf("FinalSanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

type upcaseProc struct{}

func (upcaseProc) Name() string                     { return "upcase" }
func (upcaseProc) Process(s string) (string, error) { return strings.ToUpper(s), nil }

type failingProc struct{}

func (failingProc) Name() string                   { return "failing" }
func (failingProc) Process(string) (string, error) { return "", errors.New("boom") }

func TestChainRun(t *testing.T) {
	out, err := Chain{upcaseProc{}, upcaseProc{}}.Run("abc")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "ABC" {
		t.Errorf("Run = %q, want %q", out, "ABC")
	}
}

func TestChainRunStopsOnError(t *testing.T) {
	out, err := Chain{upcaseProc{}, failingProc{}, upcaseProc{}}.Run("abc")
	if err == nil {
		t.Fatal("expected error from failing processor")
	}
	if !strings.Contains(err.Error(), "failing: boom") {
		t.Errorf("error = %q, want it to name the failing pass", err)
	}
	if out != "ABC" {
		t.Errorf("Run should return the last successful content, got %q", out)
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package equations

import (
	"fmt"
	"sort"
)

// partners maps each opening delimiter to the closer of its family.
var partners = map[string]string{
	"$":  "$",
	"$$": "$$",
	`\(`: `\)`,
	`\[`: `\]`,
}

// Validate inspects every math region and reports problems, at most one
// diagnostic per condition per region, all anchored at the region's
// opening offset. The checks, in order: unterminated region, delimiter
// family mismatch, unbalanced braces, unknown environment name, empty
// body, and bare environment when a wrapper is required. It is a pure
// read: neither the document nor the segments are modified.
func Validate(doc Document, segs []Segment, opts Options) []Diagnostic {
	type ordered struct {
		d     Diagnostic
		check int
	}
	var found []ordered

	report := func(seg Segment, check int, sev Severity, format string, args ...any) {
		line, col := lineCol(doc.Text, seg.Start)
		found = append(found, ordered{
			d: Diagnostic{
				Path:     doc.Path,
				Severity: sev,
				Line:     line,
				Col:      col,
				Offset:   seg.Start,
				Message:  fmt.Sprintf(format, args...),
			},
			check: check,
		})
	}

	for _, seg := range segs {
		if !seg.Kind.IsMath() {
			continue
		}
		body := seg.Body(doc.Text)

		if !seg.Terminated() {
			switch {
			case seg.Kind == MathInline && seg.Open == "$" && isDigit(body, 0):
				report(seg, 1, SeverityWarning, `unclosed "$" followed by a digit: possible literal currency amount`)
			case seg.Kind == MathEnvironment:
				report(seg, 1, SeverityError, `unterminated environment %q: missing \end{%s}`, seg.Env, seg.Env)
			default:
				report(seg, 1, SeverityError, "unterminated math region opened with %q", seg.Open)
			}
		}

		if seg.Terminated() && seg.Kind != MathEnvironment && partners[seg.Open] != seg.Close {
			report(seg, 2, SeverityError, "mismatched math delimiters: %q closed with %q", seg.Open, seg.Close)
		}

		if opens, closes := braceCounts(body); opens != closes {
			report(seg, 3, SeverityError, "unbalanced braces in math: %d opening, %d closing", opens, closes)
		}

		if seg.Kind == MathEnvironment && !opts.Environments[seg.Env] {
			report(seg, 4, SeverityWarning, "unknown math environment %q", seg.Env)
		}

		if seg.Terminated() && body == "" {
			report(seg, 5, SeverityWarning, "empty math region")
		}

		if seg.Kind == MathEnvironment && opts.RequireWrapper {
			report(seg, 6, SeverityWarning, "environment %q is not wrapped in display math delimiters", seg.Env)
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].d.Offset != found[j].d.Offset {
			return found[i].d.Offset < found[j].d.Offset
		}
		if found[i].d.Severity != found[j].d.Severity {
			return found[i].d.Severity < found[j].d.Severity
		}
		return found[i].check < found[j].check
	})

	diags := make([]Diagnostic, len(found))
	for i, f := range found {
		diags[i] = f.d
	}
	return diags
}

// braceCounts counts unescaped braces in a math body.
func braceCounts(body string) (opens, closes int) {
	for i := 0; i < len(body); {
		switch body[i] {
		case '\\':
			i += escapeWidth(body, i)
		case '{':
			opens++
			i++
		case '}':
			closes++
			i++
		default:
			i++
		}
	}
	return opens, closes
}

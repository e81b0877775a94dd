// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package equations

import (
	"strings"
	"unicode/utf8"
)

// Scan partitions the document into plain, code, and math segments in a
// single left-to-right pass. It is total: any input, however malformed,
// yields a segmentation whose concatenation reproduces the text exactly.
//
// At each position the first matching construct wins: a fence line opens a
// fenced code block, a backtick run opens inline code, and unescaped $,
// $$, \(, \[ or \begin{name} open math regions. A backslash neutralizes
// the character after it. Delimiters are recorded as found; rewriting is
// the normalizer's job.
func Scan(doc Document, opts Options) []Segment {
	s := &scanner{text: doc.Text}
	s.run()
	return s.segs
}

type scanner struct {
	text string
	segs []Segment

	// barrier[n] is where a failed search for a length-n backtick closer
	// stopped. Searches starting before it cannot succeed, which keeps
	// repeated probes for the same run length linear.
	barrier map[int]int
}

func (s *scanner) run() {
	text := s.text
	plainStart := 0
	i := 0

	flush := func(end int) {
		if end > plainStart {
			s.segs = append(s.segs, Segment{Kind: Plain, Start: plainStart, End: end})
		}
	}

	for i < len(text) {
		if atLineStart(text, i) {
			if n, ch := fenceRun(text, i); n >= 3 {
				flush(i)
				end, closeRun := s.fenceEnd(i, n, ch)
				s.segs = append(s.segs, Segment{
					Kind:  FencedCode,
					Start: i,
					End:   end,
					Open:  text[i : i+n],
					Close: closeRun,
				})
				plainStart, i = end, end
				continue
			}
		}
		switch text[i] {
		case '\\':
			seg, next, ok := s.backslash(i)
			if ok {
				flush(i)
				s.segs = append(s.segs, seg)
				plainStart = next
			}
			i = next
		case '`':
			run := runLength(text, i, '`')
			if closeStart, ok := s.backtickClose(i+run, run); ok {
				flush(i)
				end := closeStart + run
				s.segs = append(s.segs, Segment{
					Kind:  InlineCode,
					Start: i,
					End:   end,
					Open:  text[i : i+run],
					Close: text[closeStart:end],
				})
				plainStart, i = end, end
			} else {
				// no closer: the run is plain text
				i += run
			}
		case '$':
			seg, next, ok := s.dollar(i)
			if ok {
				flush(i)
				s.segs = append(s.segs, seg)
				plainStart = next
			}
			i = next
		default:
			i++
		}
	}
	flush(len(text))
}

// backslash handles an unescaped backslash at i. \( and \[ open math
// regions, \begin{name} opens an environment, and anything else is an
// escape over the following character (so \$ is a literal dollar).
func (s *scanner) backslash(i int) (Segment, int, bool) {
	text := s.text
	if i+1 < len(text) {
		switch text[i+1] {
		case '(':
			seg, next := s.macroMath(i, MathInline, `\(`)
			return seg, next, true
		case '[':
			seg, next := s.macroMath(i, MathDisplay, `\[`)
			return seg, next, true
		case 'b':
			if name, ok := envName(text, i); ok {
				seg, next := s.envMath(i, name)
				return seg, next, true
			}
		}
	}
	return Segment{}, i + escapeWidth(text, i), false
}

// dollar handles an unescaped dollar at i. A run of two or more opens
// display math. A single dollar opens inline math only when a non-space
// character follows; otherwise it stays plain.
func (s *scanner) dollar(i int) (Segment, int, bool) {
	text := s.text
	if runLength(text, i, '$') >= 2 {
		seg, next := s.displayMath(i)
		return seg, next, true
	}
	if i+1 >= len(text) || isSpaceByte(text[i+1]) {
		return Segment{}, i + 1, false
	}
	return s.inlineMath(i)
}

// inlineMath scans a $ region opened at i. The first unescaped dollar
// after the opener is the only closer candidate: it needs a non-space
// character before it and no digit after it. When the candidate fails
// those tests the opener is demoted to plain text (a literal currency
// amount) and scanning resumes just past it. A candidate sitting on a
// dollar run closes the region with $$ as found, leaving the family
// mismatch for the validator.
func (s *scanner) inlineMath(i int) (Segment, int, bool) {
	text := s.text
	j := i + 1
	for j < len(text) {
		if atLineStart(text, j) {
			if n, _ := fenceRun(text, j); n >= 3 {
				break
			}
		}
		switch text[j] {
		case '\\':
			j += escapeWidth(text, j)
			continue
		case '$':
			closeLen := 1
			if runLength(text, j, '$') >= 2 {
				closeLen = 2
			}
			if isSpaceByte(text[j-1]) || isDigit(text, j+closeLen) {
				return Segment{}, i + 1, false
			}
			seg := Segment{Kind: MathInline, Start: i, End: j + closeLen, Open: "$", Close: text[j : j+closeLen]}
			return seg, j + closeLen, true
		}
		j++
	}
	return Segment{Kind: MathInline, Start: i, End: j, Open: "$"}, j, true
}

// displayMath scans a $$ region opened at i. The closer is the next
// unescaped dollar run: two or more dollars close with $$, a lone dollar
// closes the region as found for the validator to flag.
func (s *scanner) displayMath(i int) (Segment, int) {
	text := s.text
	j := i + 2
	for j < len(text) {
		if atLineStart(text, j) {
			if n, _ := fenceRun(text, j); n >= 3 {
				break
			}
		}
		switch text[j] {
		case '\\':
			j += escapeWidth(text, j)
			continue
		case '$':
			closeLen := 1
			if runLength(text, j, '$') >= 2 {
				closeLen = 2
			}
			seg := Segment{Kind: MathDisplay, Start: i, End: j + closeLen, Open: "$$", Close: text[j : j+closeLen]}
			return seg, j + closeLen
		}
		j++
	}
	return Segment{Kind: MathDisplay, Start: i, End: j, Open: "$$"}, j
}

// macroMath scans a \( or \[ region opened at i. The region closes at the
// first unescaped \) or \], whichever comes first; a wrong-family closer
// is recorded as found.
func (s *scanner) macroMath(i int, kind Kind, open string) (Segment, int) {
	text := s.text
	j := i + len(open)
	for j < len(text) {
		if atLineStart(text, j) {
			if n, _ := fenceRun(text, j); n >= 3 {
				break
			}
		}
		if text[j] == '\\' {
			if j+1 < len(text) && (text[j+1] == ')' || text[j+1] == ']') {
				seg := Segment{Kind: kind, Start: i, End: j + 2, Open: open, Close: text[j : j+2]}
				return seg, j + 2
			}
			j += escapeWidth(text, j)
			continue
		}
		j++
	}
	return Segment{Kind: kind, Start: i, End: j, Open: open}, j
}

// envMath scans a \begin{name} region opened at i. Same-name nesting is
// balanced like parentheses; differently named inner environments are
// body content.
func (s *scanner) envMath(i int, name string) (Segment, int) {
	text := s.text
	open := `\begin{` + name + `}`
	closeTok := `\end{` + name + `}`
	depth := 1
	j := i + len(open)
	for j < len(text) {
		if atLineStart(text, j) {
			if n, _ := fenceRun(text, j); n >= 3 {
				break
			}
		}
		if text[j] == '\\' {
			if strings.HasPrefix(text[j:], open) {
				depth++
				j += len(open)
				continue
			}
			if strings.HasPrefix(text[j:], closeTok) {
				depth--
				if depth == 0 {
					seg := Segment{Kind: MathEnvironment, Start: i, End: j + len(closeTok), Open: open, Close: closeTok, Env: name}
					return seg, j + len(closeTok)
				}
				j += len(closeTok)
				continue
			}
			j += escapeWidth(text, j)
			continue
		}
		j++
	}
	return Segment{Kind: MathEnvironment, Start: i, End: j, Open: open, Env: name}, j
}

// backtickClose finds the next backtick run of exactly n starting at or
// after from. The search stops at a fence line or end of input; failures
// record a barrier so later probes for the same length skip the scan.
func (s *scanner) backtickClose(from, n int) (int, bool) {
	if b, ok := s.barrier[n]; ok && from < b {
		return 0, false
	}
	text := s.text
	j := from
	for j < len(text) {
		if atLineStart(text, j) {
			if k, _ := fenceRun(text, j); k >= 3 {
				break
			}
		}
		if text[j] == '`' {
			run := runLength(text, j, '`')
			if run == n {
				return j, true
			}
			j += run
			continue
		}
		j++
	}
	if s.barrier == nil {
		s.barrier = make(map[int]int)
	}
	s.barrier[n] = j
	return 0, false
}

// fenceEnd returns the end of a fenced block opened at i with a run of n
// fence characters, plus the closing run as found. The block spans both
// fence lines; an unterminated fence runs to end of input.
func (s *scanner) fenceEnd(i, n int, ch byte) (int, string) {
	text := s.text
	j := lineEnd(text, i)
	for j < len(text) {
		run := runLength(text, j, ch)
		le := lineEnd(text, j)
		if run >= n && blankBetween(text, j+run, le) {
			return le, text[j : j+run]
		}
		j = le
	}
	return len(text), ""
}

// envName parses the environment name of a \begin{...} opener at i.
func envName(text string, i int) (string, bool) {
	const prefix = `\begin{`
	if !strings.HasPrefix(text[i:], prefix) {
		return "", false
	}
	j := i + len(prefix)
	k := j
	for k < len(text) && isEnvNameChar(text[k]) {
		k++
	}
	if k == j || k >= len(text) || text[k] != '}' {
		return "", false
	}
	return text[j:k], true
}

func isEnvNameChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '*'
}

// escapeWidth returns the byte width of the escape sequence starting at
// the backslash at i, covering the full rune that follows.
func escapeWidth(text string, i int) int {
	if i+1 >= len(text) {
		return 1
	}
	if text[i+1] < utf8.RuneSelf {
		return 2
	}
	_, size := utf8.DecodeRuneInString(text[i+1:])
	return 1 + size
}

// fenceRun reports the length and character of a potential fence run at
// i. Only backtick and tilde runs qualify.
func fenceRun(text string, i int) (int, byte) {
	c := text[i]
	if c != '`' && c != '~' {
		return 0, 0
	}
	return runLength(text, i, c), c
}

func runLength(text string, i int, c byte) int {
	j := i
	for j < len(text) && text[j] == c {
		j++
	}
	return j - i
}

// lineEnd returns the index just past the newline of the line containing
// i, or the end of input for the last line.
func lineEnd(text string, i int) int {
	if nl := strings.IndexByte(text[i:], '\n'); nl >= 0 {
		return i + nl + 1
	}
	return len(text)
}

// blankBetween reports whether text[from:to] holds only whitespace.
func blankBetween(text string, from, to int) bool {
	for k := from; k < to; k++ {
		switch text[k] {
		case ' ', '\t', '\r', '\n':
		default:
			return false
		}
	}
	return true
}

func atLineStart(text string, i int) bool {
	return i == 0 || text[i-1] == '\n'
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// isDigit reports whether the byte at i exists and is an ASCII digit.
func isDigit(text string, i int) bool {
	return i < len(text) && text[i] >= '0' && text[i] <= '9'
}

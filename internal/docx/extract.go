// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package docx

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Converter converts a docx file to Markdown. *pandoc.Converter
// implements it.
type Converter interface {
	Convert(docxPath, mediaDir string, extraArgs []string) (string, error)
}

const (
	documentPart = "word/document.xml"

	kindDisplay = "display"
	kindInline  = "inline"

	// Display equations whose longest line exceeds this many characters
	// get a resizebox wrapper so they scale to the page width.
	wideEquationThreshold = 300
)

// equation is one OMML element lifted out of document.xml.
type equation struct {
	idx         int
	kind        string
	xml         string
	placeholder string
}

// Extraction is the outcome of the placeholder pipeline: structural
// Markdown with equations spliced back in, plus counts.
type Extraction struct {
	Markdown string
	Total    int
	Display  int
	Inline   int
}

// Extractor converts docx math separately from document structure.
// Running pandoc over a document whose OMML is still embedded makes it
// intermittently drop $ delimiters; the extractor replaces each
// equation with a text placeholder, converts structure and equations in
// separate pandoc calls, and splices the LaTeX back.
type Extractor struct {
	conv Converter
}

func NewExtractor(conv Converter) *Extractor {
	return &Extractor{conv: conv}
}

// ExtractAndConvert runs the three phases over one document. mediaDir
// and extraArgs are forwarded to the structural pandoc call.
func (e *Extractor) ExtractAndConvert(docxPath, mediaDir string, extraArgs []string) (Extraction, error) {
	tmpDir, err := os.MkdirTemp("", "docx2md-math-")
	if err != nil {
		return Extraction{}, err
	}
	defer os.RemoveAll(tmpDir)

	// Phase 1: lift equations out, leaving placeholder runs.
	var eqs []equation
	sanitized := filepath.Join(tmpDir, "sanitized.docx")
	err = rewriteArchive(docxPath, sanitized, documentPart, func(data []byte) []byte {
		var out []byte
		out, eqs = extractMath(data)
		return out
	})
	if err != nil {
		return Extraction{}, fmt.Errorf("extract math: %w", err)
	}

	// Phase 2a: structure and text, no math left to garble.
	markdown, err := e.conv.Convert(sanitized, mediaDir, extraArgs)
	if err != nil {
		return Extraction{}, err
	}

	// Phase 2b: all equations in one batch document.
	latex := map[int]string{}
	if len(eqs) > 0 {
		batch := filepath.Join(tmpDir, "batch.docx")
		if err := writeArchive(batch, map[string]string{
			"[Content_Types].xml": batchContentTypes,
			"_rels/.rels":         batchRels,
			documentPart:          batchDocument(eqs),
		}); err != nil {
			return Extraction{}, err
		}
		raw, err := e.conv.Convert(batch, "", []string{"--wrap=none"})
		if err != nil {
			return Extraction{}, fmt.Errorf("convert equations: %w", err)
		}
		latex = parseBatchOutput(raw)
	}

	res := Extraction{Markdown: splice(markdown, latex, eqs), Total: len(eqs)}
	for _, eq := range eqs {
		if eq.kind == kindDisplay {
			res.Display++
		} else {
			res.Inline++
		}
	}
	return res, nil
}

// extractMath replaces every math element in document.xml with a
// placeholder text run. Display math (m:oMathPara) goes first so the
// second pass only sees standalone inline m:oMath elements.
func extractMath(docXML []byte) ([]byte, []equation) {
	var eqs []equation
	take := func(kind, format string) func(string) string {
		return func(span string) string {
			eq := equation{
				idx:         len(eqs),
				kind:        kind,
				xml:         span,
				placeholder: fmt.Sprintf(format, len(eqs)),
			}
			eqs = append(eqs, eq)
			return placeholderRun(eq.placeholder)
		}
	}

	s := string(docXML)
	s = replaceElements(s, "m:oMathPara", take(kindDisplay, "@@MATH_DISPLAY_%04d@@"))
	s = replaceElements(s, "m:oMath", take(kindInline, "@@MATH_INLINE_%04d@@"))
	return []byte(s), eqs
}

func placeholderRun(text string) string {
	return `<w:r><w:t xml:space="preserve">` + text + `</w:t></w:r>`
}

// replaceElements rewrites every XML element with the given prefixed
// name through repl, which receives the full element span.
func replaceElements(s, name string, repl func(span string) string) string {
	var b strings.Builder
	pos := 0
	for {
		start, end, ok := findElement(s, name, pos)
		if !ok {
			b.WriteString(s[pos:])
			return b.String()
		}
		b.WriteString(s[pos:start])
		b.WriteString(repl(s[start:end]))
		pos = end
	}
}

// findElement locates the first element named name at or after from,
// returning the span [start, end).
func findElement(s, name string, from int) (start, end int, ok bool) {
	open := "<" + name
	for i := from; ; {
		j := strings.Index(s[i:], open)
		if j < 0 {
			return 0, 0, false
		}
		start = i + j
		after := start + len(open)
		// The byte after the name must end it, or this is a longer
		// name sharing the prefix (oMath inside oMathPara).
		if after < len(s) && !isTagNameEnd(s[after]) {
			i = start + 1
			continue
		}
		end, ok = elementEnd(s, name, start)
		if !ok {
			return 0, 0, false
		}
		return start, end, true
	}
}

func isTagNameEnd(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '>', '/':
		return true
	}
	return false
}

// elementEnd scans from the start tag at start to the end of the whole
// element, counting nested same-name elements.
func elementEnd(s, name string, start int) (int, bool) {
	gt := strings.IndexByte(s[start:], '>')
	if gt < 0 {
		return 0, false
	}
	pos := start + gt + 1
	if s[start+gt-1] == '/' {
		return pos, true
	}

	closeTag := "</" + name + ">"
	open := "<" + name
	depth := 1
	for depth > 0 {
		c := strings.Index(s[pos:], closeTag)
		if c < 0 {
			return 0, false
		}
		if o := indexOpenTag(s, open, pos, pos+c); o >= 0 {
			g := strings.IndexByte(s[o:], '>')
			if g < 0 {
				return 0, false
			}
			if s[o+g-1] != '/' {
				depth++
			}
			pos = o + g + 1
			continue
		}
		depth--
		pos += c + len(closeTag)
	}
	return pos, true
}

// indexOpenTag finds the next same-name start tag in s[from:to].
func indexOpenTag(s, open string, from, to int) int {
	for i := from; i < to; {
		j := strings.Index(s[i:to], open)
		if j < 0 {
			return -1
		}
		k := i + j
		after := k + len(open)
		if after < len(s) && !isTagNameEnd(s[after]) {
			i = k + 1
			continue
		}
		return k
	}
	return -1
}

// Minimal parts for the batch docx. The document root declares every
// namespace Word uses inside OMML so the raw equation spans stay valid.
const (
	batchContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
		`<Default Extension="xml" ContentType="application/xml"/>` +
		`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
		`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
		`</Types>`

	batchRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
		`</Relationships>`

	batchDocumentOpen = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
		`<w:document` +
		` xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"` +
		` xmlns:m="http://schemas.openxmlformats.org/officeDocument/2006/math"` +
		` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"` +
		` xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"` +
		` xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"` +
		` xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture"` +
		` xmlns:v="urn:schemas-microsoft-com:vml"` +
		` xmlns:o="urn:schemas-microsoft-com:office:office"` +
		` xmlns:wpc="http://schemas.microsoft.com/office/word/2010/wordprocessingCanvas"` +
		` xmlns:mc="http://schemas.openxmlformats.org/markup-compatibility/2006"` +
		` xmlns:wps="http://schemas.microsoft.com/office/word/2010/wordprocessingShape"` +
		` xmlns:w14="http://schemas.microsoft.com/office/word/2010/wordml"` +
		`>`
)

// batchDocument builds a document.xml of alternating marker and
// equation paragraphs.
func batchDocument(eqs []equation) string {
	var b strings.Builder
	b.WriteString(batchDocumentOpen)
	b.WriteString("\n<w:body>")
	for _, eq := range eqs {
		fmt.Fprintf(&b, "\n<w:p><w:r><w:t xml:space=\"preserve\">@@EQ_%04d@@</w:t></w:r></w:p>", eq.idx)
		b.WriteString("\n<w:p>")
		b.WriteString(eq.xml)
		b.WriteString("</w:p>")
	}
	b.WriteString("\n</w:body></w:document>")
	return b.String()
}

var batchMarkerRE = regexp.MustCompile(`@@EQ_(\d{4})@@`)

// parseBatchOutput maps equation index to converted LaTeX. Markers and
// their equations alternate in pandoc's output of the batch document.
func parseBatchOutput(raw string) map[int]string {
	out := make(map[int]string)
	lines := strings.Split(raw, "\n")

	i := 0
	for i < len(lines) {
		m := batchMarkerRE.FindStringSubmatch(lines[i])
		if m == nil {
			i++
			continue
		}
		idx, _ := strconv.Atoi(m[1])

		var content []string
		i++
		for i < len(lines) && !batchMarkerRE.MatchString(lines[i]) {
			content = append(content, lines[i])
			i++
		}
		for len(content) > 0 && strings.TrimSpace(content[0]) == "" {
			content = content[1:]
		}
		for len(content) > 0 && strings.TrimSpace(content[len(content)-1]) == "" {
			content = content[:len(content)-1]
		}

		latex := strings.TrimSpace(strings.Join(content, "\n"))
		out[idx] = cleanEquation(stripOuterDelims(latex))
	}
	return out
}

// stripOuterDelims removes any delimiter pair pandoc wrapped around a
// converted equation; splice adds its own.
func stripOuterDelims(latex string) string {
	s := strings.TrimSpace(latex)
	switch {
	case len(s) >= 4 && strings.HasPrefix(s, "$$") && strings.HasSuffix(s, "$$"):
		s = strings.TrimSpace(s[2 : len(s)-2])
	case len(s) >= 4 && strings.HasPrefix(s, `\[`) && strings.HasSuffix(s, `\]`):
		s = strings.TrimSpace(s[2 : len(s)-2])
	case len(s) >= 2 && strings.HasPrefix(s, "$") && strings.HasSuffix(s, "$"):
		s = strings.TrimSpace(s[1 : len(s)-1])
	case len(s) >= 4 && strings.HasPrefix(s, `\(`) && strings.HasSuffix(s, `\)`):
		s = strings.TrimSpace(s[2 : len(s)-2])
	}
	return s
}

// Trailing equation numbers like ,#(1.1.46) or .\#(1.9.3a) at end of
// line.
var eqNumberRE = regexp.MustCompile(`(?m)[,.\s\\]*\\?#\([0-9]+(?:\.[0-9]+)*[a-z]?\)\s*$`)

// cleanEquation post-processes one converted LaTeX string.
func cleanEquation(content string) string {
	// Trailing backslash runs are a pandoc artifact.
	for limit := 20; limit > 0; limit-- {
		t := strings.TrimRight(content, " \t\r\n")
		if !strings.HasSuffix(t, `\`) {
			break
		}
		content = strings.TrimRight(strings.TrimRight(t, `\`), " \t\r\n")
	}

	content = eqNumberRE.ReplaceAllString(content, "")

	// Split double subscripts and superscripts; LaTeX rejects x}_{y}_{z.
	content = strings.ReplaceAll(content, "}_{", "}{}_{")
	content = strings.ReplaceAll(content, "}^{", "}{}^{")

	return strings.TrimSpace(content)
}

var matrixEnvRE = regexp.MustCompile(`\\begin\{[pbBvV]?matrix\}`)

// isWideEquation reports whether a display equation is likely to
// overflow the page: a very long line, or a chain of matrices.
func isWideEquation(latex string) bool {
	longest := 0
	for _, line := range strings.Split(latex, "\n") {
		if len(line) > longest {
			longest = len(line)
		}
	}
	if longest > wideEquationThreshold {
		return true
	}
	return len(matrixEnvRE.FindAllString(latex, -1)) >= 3
}

var blankRunRE = regexp.MustCompile(`\n{4,}`)

// splice replaces placeholders with delimited LaTeX.
func splice(markdown string, latex map[int]string, eqs []equation) string {
	for _, eq := range eqs {
		lx := latex[eq.idx]
		if lx == "" {
			markdown = strings.ReplaceAll(markdown, eq.placeholder, "")
			continue
		}

		var repl string
		switch {
		case eq.kind == kindDisplay && isWideEquation(lx):
			repl = "\n\n```{=latex}\n\\resizebox{\\linewidth}{!}{$\\displaystyle\n" + lx + "\n$}\n```\n\n"
		case eq.kind == kindDisplay:
			repl = "\n\n$$\n" + lx + "\n$$\n\n"
		default:
			repl = "$" + lx + "$"
		}
		markdown = strings.ReplaceAll(markdown, eq.placeholder, repl)
	}

	markdown = fixAdjacentInline(markdown)
	return blankRunRE.ReplaceAllString(markdown, "\n\n\n")
}

// fixAdjacentInline separates back-to-back inline equations: a $$ not
// followed by a newline is two touching inline closers and openers, not
// a display delimiter.
func fixAdjacentInline(s string) string {
	if !strings.Contains(s, "$$") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] == '$' && i+1 < len(s) && s[i+1] == '$' && (i+2 >= len(s) || s[i+2] != '\n') {
			b.WriteString("$ $")
			i += 2
			continue
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/pdiddy/docx2md/pkg/types"
)

const plainDocXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>Hello.</w:t></w:r></w:p></w:body></w:document>`

const mathDocXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:m="http://schemas.openxmlformats.org/officeDocument/2006/math"><w:body><w:p><w:r><w:t>Text </w:t></w:r><m:oMath><m:r>a+b</m:r></m:oMath><w:r><w:t> here</w:t></w:r></w:p></w:body></w:document>`

const sampleCoreXML = `<?xml version="1.0"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:title>Sample Doc</dc:title><dc:creator>Jane Roe</dc:creator></cp:coreProperties>`

// writeDocx creates a minimal docx archive at path from the given
// entry map.
func writeDocx(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(entries[name])); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

// fakeConverter implements DocumentConverter for testing. It returns
// canned Markdown or an error regardless of the input path.
type fakeConverter struct {
	mu     sync.Mutex
	output string
	err    error
	calls  []string
}

func (f *fakeConverter) Available() bool { return true }

func (f *fakeConverter) Convert(docxPath, mediaDir string, extraArgs []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, filepath.Base(docxPath))
	if f.err != nil {
		return "", f.err
	}
	return f.output, nil
}

// selectiveConverter returns different results per file base name.
type selectiveConverter struct {
	mu      sync.Mutex
	outputs map[string]string
	errors  map[string]error
	calls   []string
}

func (s *selectiveConverter) Available() bool { return true }

func (s *selectiveConverter) Convert(docxPath, mediaDir string, extraArgs []string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	base := filepath.Base(docxPath)
	s.calls = append(s.calls, base)
	if err, ok := s.errors[base]; ok {
		return "", err
	}
	if out, ok := s.outputs[base]; ok {
		return out, nil
	}
	return "", errors.New("unexpected path: " + base)
}

// testConfig disables the pandoc-dependent extraction pass and
// frontmatter so individual tests opt back in.
func testConfig() types.Config {
	cfg := types.DefaultConfig()
	cfg.Processing.MathExtraction = false
	cfg.Processing.GenerateFrontmatter = false
	return cfg
}

func TestConvertDocument(t *testing.T) {
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "doc.docx")
	dst := filepath.Join(tmpDir, "out", "doc.md")
	writeDocx(t, src, map[string]string{"word/document.xml": plainDocXML})

	conv := &fakeConverter{output: "Take \\(a+b\\) here.\n"}
	var log bytes.Buffer

	outcome, err := ConvertDocument(conv, src, dst, testConfig(), &log)
	if err != nil {
		t.Fatalf("ConvertDocument: %v", err)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !strings.Contains(string(data), "$a+b$") {
		t.Errorf("output should contain rewritten math: %q", string(data))
	}
	if outcome.Stats.InlineFixed != 1 {
		t.Errorf("InlineFixed = %d, want 1", outcome.Stats.InlineFixed)
	}
	if outcome.Stats.Equations() != 1 {
		t.Errorf("Equations() = %d, want 1", outcome.Stats.Equations())
	}
	if len(outcome.Diagnostics) != 0 {
		t.Errorf("unexpected diagnostics: %v", outcome.Diagnostics)
	}
}

func TestConvertDocumentInputValidation(t *testing.T) {
	tmpDir := t.TempDir()
	txtPath := filepath.Join(tmpDir, "notes.txt")
	if err := os.WriteFile(txtPath, []byte("plain"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{"missing input", filepath.Join(tmpDir, "nope.docx"), "not found"},
		{"wrong extension", txtPath, ".docx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := &fakeConverter{output: "unused"}
			_, err := ConvertDocument(conv, tt.src, filepath.Join(tmpDir, "out.md"), testConfig(), &bytes.Buffer{})
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestConvertDocumentConverterFailure(t *testing.T) {
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "doc.docx")
	writeDocx(t, src, map[string]string{"word/document.xml": plainDocXML})

	conv := &fakeConverter{err: errors.New("pandoc exploded")}
	_, err := ConvertDocument(conv, src, filepath.Join(tmpDir, "doc.md"), testConfig(), &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "pandoc exploded") {
		t.Errorf("error = %q, want converter failure", err.Error())
	}
}

func TestConvertDocumentMathExtraction(t *testing.T) {
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "doc.docx")
	dst := filepath.Join(tmpDir, "doc.md")
	writeDocx(t, src, map[string]string{"word/document.xml": mathDocXML})

	conv := &selectiveConverter{
		outputs: map[string]string{
			"sanitized.docx": "Text @@MATH_INLINE_0000@@ here\n",
			"batch.docx":     "@@EQ_0000@@\n\n$a+b$\n",
		},
	}

	cfg := testConfig()
	cfg.Processing.MathExtraction = true

	var log bytes.Buffer
	outcome, err := ConvertDocument(conv, src, dst, cfg, &log)
	if err != nil {
		t.Fatalf("ConvertDocument: %v", err)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Text $a+b$ here") {
		t.Errorf("output = %q, want spliced equation", string(data))
	}
	if outcome.Stats.MathEquationsExtracted != 1 {
		t.Errorf("MathEquationsExtracted = %d, want 1", outcome.Stats.MathEquationsExtracted)
	}
	if outcome.Stats.MathInlineCount != 1 || outcome.Stats.MathDisplayCount != 0 {
		t.Errorf("inline/display = %d/%d, want 1/0",
			outcome.Stats.MathInlineCount, outcome.Stats.MathDisplayCount)
	}
	// Extraction replaces the delimiter pass, so nothing is rewritten.
	if outcome.Stats.InlineFixed != 0 {
		t.Errorf("InlineFixed = %d, want 0", outcome.Stats.InlineFixed)
	}
	if !strings.Contains(log.String(), "math extraction: 1 equations processed") {
		t.Errorf("log = %q, want extraction note", log.String())
	}
	wantCalls := []string{"sanitized.docx", "batch.docx"}
	if len(conv.calls) != 2 || conv.calls[0] != wantCalls[0] || conv.calls[1] != wantCalls[1] {
		t.Errorf("calls = %v, want %v", conv.calls, wantCalls)
	}
}

func TestConvertDocumentMathFallback(t *testing.T) {
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "doc.docx")
	dst := filepath.Join(tmpDir, "doc.md")
	writeDocx(t, src, map[string]string{"word/document.xml": mathDocXML})

	conv := &selectiveConverter{
		outputs: map[string]string{"doc.docx": "Fallback \\(x\\) content.\n"},
		errors:  map[string]error{"sanitized.docx": errors.New("pandoc crashed")},
	}

	cfg := testConfig()
	cfg.Processing.MathExtraction = true

	var log bytes.Buffer
	outcome, err := ConvertDocument(conv, src, dst, cfg, &log)
	if err != nil {
		t.Fatalf("ConvertDocument: %v", err)
	}

	if !strings.Contains(log.String(), "falling back to pandoc") {
		t.Errorf("log = %q, want fallback warning", log.String())
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	// In the fallback path the delimiter pass runs as usual.
	if !strings.Contains(string(data), "$x$") {
		t.Errorf("output = %q, want rewritten math", string(data))
	}
	if outcome.Stats.MathEquationsExtracted != 0 {
		t.Errorf("MathEquationsExtracted = %d, want 0", outcome.Stats.MathEquationsExtracted)
	}
	if outcome.Stats.InlineFixed != 1 {
		t.Errorf("InlineFixed = %d, want 1", outcome.Stats.InlineFixed)
	}
}

func TestConvertDocumentFrontmatter(t *testing.T) {
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "doc.docx")
	dst := filepath.Join(tmpDir, "doc.md")
	writeDocx(t, src, map[string]string{
		"word/document.xml": plainDocXML,
		"docProps/core.xml": sampleCoreXML,
	})

	cfg := testConfig()
	cfg.Processing.GenerateFrontmatter = true

	conv := &fakeConverter{output: "Body text.\n"}
	if _, err := ConvertDocument(conv, src, dst, cfg, &bytes.Buffer{}); err != nil {
		t.Fatalf("ConvertDocument: %v", err)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "---\n") {
		t.Error("output should start with YAML frontmatter delimiter")
	}
	if !strings.Contains(content, "title: Sample Doc") {
		t.Errorf("frontmatter should carry the document title: %q", content)
	}
	if !strings.Contains(content, "author: Jane Roe") {
		t.Errorf("frontmatter should carry the document author: %q", content)
	}
	if !strings.Contains(content, "Body text.") {
		t.Error("output should contain the original Markdown body")
	}
}

func TestConvertDocumentDisabledPasses(t *testing.T) {
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "doc.docx")
	dst := filepath.Join(tmpDir, "doc.md")
	writeDocx(t, src, map[string]string{"word/document.xml": plainDocXML})

	cfg := testConfig()
	cfg.Processing.FixDelimiters = false
	cfg.Processing.ExtractImages = false
	cfg.Processing.ProcessTables = false
	cfg.Processing.Cleanup = false
	cfg.Processing.FixFigures = false
	cfg.Processing.FixUnicode = false
	cfg.Processing.FixEquations = false

	raw := "Raw \\(passthrough\\) text.\n"
	conv := &fakeConverter{output: raw}
	outcome, err := ConvertDocument(conv, src, dst, cfg, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("ConvertDocument: %v", err)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != raw {
		t.Errorf("output = %q, want untouched %q", string(data), raw)
	}
	if outcome.Stats != (types.ConversionStats{}) {
		t.Errorf("stats = %+v, want zero", outcome.Stats)
	}
}

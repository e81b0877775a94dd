// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package processor

import (
	"regexp"
	"strings"

	"github.com/pdiddy/docx2md/pkg/types"
)

var (
	// Header row, separator row, then zero or more data rows.
	pipeTableRE = regexp.MustCompile(`\|[^\n]+\|\n\|[-:| ]+\|\n(?:\|[^\n]+\|\n)*`)

	htmlTableRE = regexp.MustCompile(`(?s)<table[^>]*>(.*?)</table>`)
	htmlRowRE   = regexp.MustCompile(`(?s)<tr[^>]*>(.*?)</tr>`)
	htmlThRE    = regexp.MustCompile(`(?s)<th[^>]*>(.*?)</th>`)
	htmlTdRE    = regexp.MustCompile(`(?s)<td[^>]*>(.*?)</td>`)
	htmlTagRE   = regexp.MustCompile(`<[^>]+>`)
	spaceRunRE  = regexp.MustCompile(`\s+`)
)

// Tables normalizes Markdown tables. HTML tables that pandoc emits for
// complex layouts are rewritten as pipe tables first, then pipe table
// headers get the configured decoration. Processed counts the pipe
// tables seen.
type Tables struct {
	format      types.TableFormat
	headerStyle string

	Processed int
}

func NewTables(cfg types.TablesConfig) *Tables {
	return &Tables{format: cfg.Format, headerStyle: cfg.HeaderStyle}
}

func (t *Tables) Name() string { return "tables" }

func (t *Tables) Process(content string) (string, error) {
	content = ConvertHTMLTables(content)
	t.Processed += len(pipeTableRE.FindAllString(content, -1))
	if t.format == types.TablePipe {
		content = t.formatPipeTables(content)
	}
	return content, nil
}

func (t *Tables) formatPipeTables(content string) string {
	return pipeTableRE.ReplaceAllStringFunc(content, func(table string) string {
		lines := strings.Split(strings.TrimSpace(table), "\n")
		if t.headerStyle == "bold" && len(lines) > 0 {
			cells := strings.Split(lines[0], "|")
			for i, cell := range cells {
				if s := strings.TrimSpace(cell); s != "" {
					cells[i] = " **" + s + "** "
				}
			}
			lines[0] = strings.Join(cells, "|")
		}
		return strings.Join(lines, "\n") + "\n"
	})
}

// ConvertHTMLTables rewrites basic HTML tables as pipe tables. Cell
// content loses its HTML tags and collapsed whitespace; the first row
// becomes the header.
func ConvertHTMLTables(content string) string {
	if !strings.Contains(content, "<table") {
		return content
	}
	return htmlTableRE.ReplaceAllStringFunc(content, func(tbl string) string {
		m := htmlTableRE.FindStringSubmatch(tbl)
		rows := htmlRowRE.FindAllStringSubmatch(m[1], -1)
		if len(rows) == 0 {
			return tbl
		}

		var mdRows []string
		var separator string
		for i, row := range rows {
			cellMatches := htmlThRE.FindAllStringSubmatch(row[1], -1)
			if len(cellMatches) == 0 {
				cellMatches = htmlTdRE.FindAllStringSubmatch(row[1], -1)
			}
			if len(cellMatches) == 0 {
				continue
			}

			cells := make([]string, 0, len(cellMatches))
			for _, cm := range cellMatches {
				cell := htmlTagRE.ReplaceAllString(cm[1], "")
				cell = strings.TrimSpace(spaceRunRE.ReplaceAllString(cell, " "))
				cells = append(cells, cell)
			}
			mdRows = append(mdRows, "| "+strings.Join(cells, " | ")+" |")

			if i == 0 {
				seps := make([]string, len(cells))
				for k := range seps {
					seps[k] = "---"
				}
				separator = "| " + strings.Join(seps, " | ") + " |"
			}
		}

		if separator == "" {
			return strings.Join(mdRows, "\n")
		}
		out := make([]string, 0, len(mdRows)+1)
		out = append(out, mdRows[0])
		out = append(out, separator)
		out = append(out, mdRows[1:]...)
		return strings.Join(out, "\n")
	})
}

// Package tables detects tabular regions in extracted page text and renders
// them as HTML fragments for injection into the converted book.
package tables

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"pdf-epub-converter/internal/domain"
)

// A run of two or more spaces (or a tab) separates columns in text-layout
// tables produced by PDF text extraction.
var columnSep = regexp.MustCompile(`\t|\s{2,}`)

// minTableRows is the smallest run of aligned lines treated as a table.
const minTableRows = 2

// Extractor scans every page of a document for aligned multi-column text
// blocks and renders each as an HTML table fragment.
type Extractor struct {
	opener domain.DocumentOpener
	logger domain.Logger
}

// New creates a new table extractor
func New(opener domain.DocumentOpener, logger domain.Logger) *Extractor {
	return &Extractor{opener: opener, logger: logger}
}

// ExtractTables runs once over the whole document and returns per-page HTML
// fragments keyed by 1-indexed page number.
func (e *Extractor) ExtractTables(path string) (map[int][]string, error) {
	doc, err := e.opener.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer doc.Close()

	fragments := make(map[int][]string)
	for i := 0; i < doc.PageCount(); i++ {
		text, err := doc.Text(i)
		if err != nil {
			e.logger.Warn("Skipping page for table extraction", "page", i+1, "error", err)
			continue
		}
		for _, tbl := range detectTables(text) {
			fragments[i+1] = append(fragments[i+1], renderTable(tbl))
		}
	}
	return fragments, nil
}

// detectTables finds runs of consecutive lines that split into the same
// number of columns (at least two) and returns them as cell grids.
func detectTables(text string) [][][]string {
	var tablesFound [][][]string
	var current [][]string
	currentCols := 0

	flush := func() {
		if len(current) >= minTableRows {
			tablesFound = append(tablesFound, current)
		}
		current = nil
		currentCols = 0
	}

	for _, line := range strings.Split(text, "\n") {
		cells := splitColumns(line)
		if len(cells) < 2 {
			flush()
			continue
		}
		if currentCols != 0 && len(cells) != currentCols {
			flush()
		}
		currentCols = len(cells)
		current = append(current, cells)
	}
	flush()
	return tablesFound
}

func splitColumns(line string) []string {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	parts := columnSep.Split(line, -1)
	cells := parts[:0]
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			cells = append(cells, p)
		}
	}
	return cells
}

func renderTable(rows [][]string) string {
	var b strings.Builder
	b.WriteString("<table>\n")
	for _, row := range rows {
		b.WriteString("<tr>")
		for _, cell := range row {
			b.WriteString("<td>")
			b.WriteString(html.EscapeString(cell))
			b.WriteString("</td>")
		}
		b.WriteString("</tr>\n")
	}
	b.WriteString("</table>")
	return b.String()
}

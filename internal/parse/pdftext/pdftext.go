// Package pdftext extracts lines of text from a PDF, page by page.
package pdftext

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Page is the text lines of one PDF page, top to bottom.
type Page []string

// Extract reads a PDF document and returns its pages. Text runs on the same
// line that are separated by a visible gap are joined with two spaces so
// that column boundaries survive as irregular whitespace.
func Extract(data []byte) ([]Page, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	pages := make([]Page, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			pages = append(pages, nil)
			continue
		}
		rows, err := p.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("read page %d: %w", i, err)
		}
		sort.SliceStable(rows, func(a, b int) bool {
			return rows[a].Position > rows[b].Position
		})

		var page Page
		for _, row := range rows {
			runs := make([]run, len(row.Content))
			for j, text := range row.Content {
				runs[j] = run{X: text.X, W: text.W, FontSize: text.FontSize, S: text.S}
			}
			line := joinRuns(runs)
			if strings.TrimSpace(line) == "" {
				continue
			}
			page = append(page, line)
		}
		pages = append(pages, page)
	}
	return pages, nil
}

type run struct {
	X        float64
	W        float64
	FontSize float64
	S        string
}

const (
	// a gap wider than this many font sizes starts a new column
	columnGap = 1.0
	// a gap wider than this many font sizes is a word space
	wordGap = 0.15
)

func joinRuns(runs []run) string {
	sort.SliceStable(runs, func(a, b int) bool {
		return runs[a].X < runs[b].X
	})

	var out strings.Builder
	for i, r := range runs {
		if i > 0 {
			prev := runs[i-1]
			gap := r.X - (prev.X + prev.W)
			size := r.FontSize
			if size <= 0 {
				size = 1
			}
			switch {
			case gap > size*columnGap:
				out.WriteString("  ")
			case gap > size*wordGap:
				out.WriteString(" ")
			}
		}
		out.WriteString(r.S)
	}
	return out.String()
}

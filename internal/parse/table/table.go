// Package table walks server rendered HTML tables into ordered rows.
package table

import (
	"nusmods-scraper/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// Row is one table row, Index is its position among every row matched by
// the row selector, including dropped ones.
type Row struct {
	Index int
	Cells []string
}

// Rows returns the rows under sel matching rowSelector in document order.
// Rows with fewer than minCells cells are header or decoration rows and
// are dropped.
func Rows(sel *goquery.Selection, rowSelector, cellSelector string, minCells int) []Row {
	var rows []Row
	sel.Find(rowSelector).Each(func(i int, tr *goquery.Selection) {
		cells := htmlutil.CellTexts(tr, cellSelector)
		if len(cells) < minCells {
			return
		}
		rows = append(rows, Row{Index: i, Cells: cells})
	})
	return rows
}

// Package export renders archived data into spreadsheets for people who
// do not read JSON.
package export

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"nusmods-scraper/internal/model"

	"github.com/xuri/excelize/v2"
)

var biddingHeader = []string{
	"Round",
	"Module",
	"Group",
	"Faculty",
	"Account Type",
	"Quota",
	"Bidders",
	"Lowest Bid",
	"Lowest Successful Bid",
	"Highest Bid",
}

// SheetName is the sheet holding the stats of a semester.
func SheetName(semester string) string {
	return "Semester " + semester
}

func biddingRow(s model.BiddingStat) []any {
	return []any{
		s.Round,
		s.ModuleCode,
		s.Group,
		s.Faculty,
		s.StudentAcctType,
		s.Quota,
		s.Bidders,
		s.LowestBid,
		s.LowestSuccessfulBid,
		s.HighestBid,
	}
}

// BiddingWorkbook lays the stats out with one sheet per semester, rows are
// ordered by round then module code.
func BiddingWorkbook(stats []model.BiddingStat) (*excelize.File, error) {
	bySemester := map[string][]model.BiddingStat{}
	for _, s := range stats {
		bySemester[s.Semester] = append(bySemester[s.Semester], s)
	}
	semesters := make([]string, 0, len(bySemester))
	for semester := range bySemester {
		semesters = append(semesters, semester)
	}
	slices.Sort(semesters)

	f := excelize.NewFile()
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}

	if len(semesters) == 0 {
		semesters = []string{""}
	}
	for i, semester := range semesters {
		sheet := SheetName(semester)
		if semester == "" {
			sheet = "Bidding"
		}
		if i == 0 {
			err = f.SetSheetName("Sheet1", sheet)
		} else {
			_, err = f.NewSheet(sheet)
		}
		if err != nil {
			return nil, err
		}

		err = writeSheet(f, sheet, headerStyle, bySemester[semester])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", sheet, err)
		}
	}
	return f, nil
}

func writeSheet(f *excelize.File, sheet string, headerStyle int, stats []model.BiddingStat) error {
	slices.SortStableFunc(stats, func(a, b model.BiddingStat) int {
		if c := strings.Compare(a.Round, b.Round); c != 0 {
			return c
		}
		return strings.Compare(a.ModuleCode, b.ModuleCode)
	})

	header := make([]any, len(biddingHeader))
	for i, h := range biddingHeader {
		header[i] = h
	}
	err := f.SetSheetRow(sheet, "A1", &header)
	if err != nil {
		return err
	}
	last, _ := excelize.ColumnNumberToName(len(biddingHeader))
	err = f.SetCellStyle(sheet, "A1", last+"1", headerStyle)
	if err != nil {
		return err
	}

	for i, s := range stats {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := biddingRow(s)
		err = f.SetSheetRow(sheet, cell, &row)
		if err != nil {
			return err
		}
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// WriteBidding writes the workbook of stats to w.
func WriteBidding(w io.Writer, stats []model.BiddingStat) error {
	f, err := BiddingWorkbook(stats)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

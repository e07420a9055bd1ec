// Package examgrammar reconstructs exam timetable records from the text of
// the exam timetable PDF.
package examgrammar

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"nusmods-scraper/internal/components/telemetry"
	"nusmods-scraper/internal/model"
	"nusmods-scraper/internal/parse/pdftext"
	"nusmods-scraper/internal/task"
)

const (
	report_page  = "exam-pdf.page"
	report_chunk = "exam-pdf.chunk"
)

var (
	columnSplit = regexp.MustCompile(`\s{2,}`)
	letters     = regexp.MustCompile(`[A-Za-z]+`)
	nonWord     = regexp.MustCompile(`\W`)
)

// Parse turns the lines of every page into exam records. A page without
// data or a chunk that does not fit the grammar is reported and skipped, a
// record whose date is not a real D/M/YYYY date fails the whole parse.
func Parse(pages []pdftext.Page, tel telemetry.API) ([]model.ExamRecord, error) {
	var items []string
	for i, page := range pages {
		items = append(items, pageItems(i, page, tel)...)
	}

	var records []model.ExamRecord
	for _, chunk := range Chunk(items) {
		record, err := parseRecord(Tokenize(chunk))
		if err != nil {
			tel.ReportWarning(report_chunk, fmt.Errorf("%q is not a valid module: %w", strings.Join(chunk, " "), err))
			continue
		}
		record.Date, err = ValidateDate(record.Date)
		if err != nil {
			return nil, task.Fatalf("examTimetable", record.ModuleCode, "date format is wrong: %w", err)
		}
		records = append(records, record)
	}
	return records, nil
}

// pageItems splits the lines of a page into columns and strips everything
// before the first date and after the last line with letters.
func pageItems(index int, page pdftext.Page, tel telemetry.API) []string {
	var items []string
	for _, line := range page {
		for _, item := range columnSplit.Split(line, -1) {
			item = strings.TrimSpace(item)
			if item != "" {
				items = append(items, item)
			}
		}
	}

	start := -1
	end := -1
	for i, item := range items {
		if start < 0 && dateRegex.MatchString(item) {
			start = i
		}
		if letters.MatchString(item) {
			end = i + 1
		}
	}
	if start < 0 || end <= start {
		tel.ReportWarning(report_page, fmt.Sprintf("page %d of pdf has no data", index+1))
		return nil
	}
	return items[start:end]
}

// Chunk groups items into one chunk per module, a new chunk begins at
// every item containing a date. Items before the first date are dropped.
func Chunk(items []string) [][]string {
	var chunks [][]string
	for _, item := range items {
		if dateRegex.MatchString(item) {
			chunks = append(chunks, nil)
		}
		if len(chunks) == 0 {
			continue
		}
		chunks[len(chunks)-1] = append(chunks[len(chunks)-1], item)
	}
	return chunks
}

// ValidateDate normalizes separators to '/' and checks that the result is a
// real calendar date in D/M/YYYY form.
func ValidateDate(date string) (string, error) {
	normalized := nonWord.ReplaceAllString(date, "/")
	parts := strings.Split(normalized, "/")
	if len(parts) != 3 || len(parts[2]) != 4 {
		return "", fmt.Errorf("%q is not D/M/YYYY", date)
	}

	day, dayErr := strconv.Atoi(parts[0])
	month, monthErr := strconv.Atoi(parts[1])
	year, yearErr := strconv.Atoi(parts[2])
	if dayErr != nil || monthErr != nil || yearErr != nil {
		return "", fmt.Errorf("%q is not D/M/YYYY", date)
	}

	parsed := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if month < 1 || month > 12 || parsed.Day() != day || int(parsed.Month()) != month {
		return "", fmt.Errorf("%q is not a calendar date", date)
	}
	return normalized, nil
}

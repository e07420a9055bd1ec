package cors

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"nusmods-scraper/internal/model"
	"nusmods-scraper/internal/parse/examgrammar"
	"nusmods-scraper/internal/task"
	"nusmods-scraper/lib/htmlutil"
)

var (
	timestampRegex = regexp.MustCompile(`Correct as at ([^<]+)`)
	acadYearRegex  = regexp.MustCompile(`\d{4}\W\d{4}`)
	digitRegex     = regexp.MustCompile(`\d`)
	examDateRegex  = regexp.MustCompile(`^(\d{1,2}\W\d{1,2}\W\d{4})(?:\s+(?:AM|PM|EVENING))?$`)
)

const noExamDate = "No Exam Date."

// lessonTableTypes is the classification of the lessons of the timetable
// table at the same index of a module page.
var lessonTableTypes = []string{"Lecture", "Tutorial"}

// listingEntry is one module row of a listing page.
type listingEntry struct {
	ModuleCode string
	Department string
	Href       string
}

type listing struct {
	AcadYear string
	Semester string
	Entries  []listingEntry
}

func parseListing(doc *goquery.Document) (listing, error) {
	heading := strings.Split(htmlutil.Text(doc.Find("h2")), ":")
	if len(heading) < 3 {
		return listing{}, fmt.Errorf("listing heading %q has no academic year and semester", strings.Join(heading, ":"))
	}
	acadYear := acadYearRegex.FindString(heading[1])
	semester := digitRegex.FindString(heading[2])
	if acadYear == "" || semester == "" {
		return listing{}, fmt.Errorf("listing heading %q has no academic year and semester", strings.Join(heading, ":"))
	}

	var entries []listingEntry
	doc.Find(`tr[valign="top"]`).Each(func(_ int, row *goquery.Selection) {
		link := row.Find("div > a").First()
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		entries = append(entries, listingEntry{
			ModuleCode: htmlutil.Text(link),
			Department: htmlutil.Text(row.Find("td div").Last()),
			Href:       href,
		})
	})
	return listing{AcadYear: acadYear, Semester: semester, Entries: entries}, nil
}

// Observation is a lesson description seen in a timetable table of a
// module page.
type Observation struct {
	ModuleCode  string
	Description string
	LessonType  string
}

type modulePage struct {
	Module       model.CorsModule
	Observations []Observation
}

// parseModulePage extracts the module details and timetable of a detail
// page. An exam date that is neither absent nor D/M/YYYY is fatal.
func parseModulePage(doc *goquery.Document, moduleType string, entry listingEntry) (modulePage, error) {
	timestamp := timestampRegex.FindStringSubmatch(htmlutil.Text(doc.Find("h2")))
	if timestamp == nil {
		return modulePage{}, fmt.Errorf("%s: page has no timestamp", entry.ModuleCode)
	}

	details := doc.Find(".tableframe").First().Find("tr td:nth-child(2)")
	detail := func(i int) string {
		return htmlutil.Text(details.Eq(i))
	}

	var timetable []model.CorsLesson
	var observations []Observation
	doc.Find(".tableframe").Find("tr table").Each(func(i int, table *goquery.Selection) {
		table.Find("tr").Slice(1, goquery.ToEnd).Each(func(_ int, row *goquery.Selection) {
			cells := htmlutil.CellTexts(row, "td")
			if len(cells) <= 6 {
				return
			}
			lesson := model.CorsLesson{
				ClassNo:    cells[0],
				LessonType: cells[1],
				WeekText:   cells[2],
				DayText:    cells[3],
				StartTime:  cells[4],
				EndTime:    cells[5],
				Venue:      cells[6],
			}
			if len(cells) > 7 {
				lesson.Size = cells[7]
			}
			timetable = append(timetable, lesson)
			if i < len(lessonTableTypes) {
				observations = append(observations, Observation{
					ModuleCode:  entry.ModuleCode,
					Description: lesson.LessonType,
					LessonType:  lessonTableTypes[i],
				})
			}
		})
	})

	examText := detail(4)
	err := validateExamDate(examText)
	if err != nil {
		return modulePage{}, task.Fatalf("cors", entry.ModuleCode, "date format is wrong: %w", err)
	}

	return modulePage{
		Module: model.CorsModule{
			Type:              moduleType,
			ModuleCode:        entry.ModuleCode,
			Department:        entry.Department,
			CorrectAsAt:       strings.TrimSpace(timestamp[1]),
			ModuleTitle:       detail(1),
			ModuleDescription: detail(2),
			ExamDate:          examText,
			ModuleCredit:      detail(5),
			Prerequisite:      detail(6),
			Preclusion:        detail(7),
			Workload:          detail(8),
			Timetable:         timetable,
		},
		Observations: observations,
	}, nil
}

func validateExamDate(text string) error {
	if text == noExamDate {
		return nil
	}
	match := examDateRegex.FindStringSubmatch(text)
	if match == nil {
		return fmt.Errorf("%q", text)
	}
	_, err := examgrammar.ValidateDate(match[1])
	return err
}

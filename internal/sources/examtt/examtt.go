// Package examtt scrapes the exam timetable PDF of a semester.
package examtt

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"nusmods-scraper/internal/config"
	"nusmods-scraper/internal/model"
	"nusmods-scraper/internal/parse/examgrammar"
	"nusmods-scraper/internal/parse/pdftext"
	"nusmods-scraper/internal/sources"
	"nusmods-scraper/internal/task"
)

type Input struct {
	AcadYear int
	Semester int
}

type Task struct {
	env sources.Env
	cfg config.Exams
}

func New(env sources.Env, cfg config.Exams) Task {
	return Task{env: env.Scoped("examTimetable"), cfg: cfg}
}

var _ task.Task[Input, []model.ExamRecord] = Task{}

func (t Task) Name() string {
	return "examTimetable"
}

// Url returns the PDF location. Semesters 1 and 2 live under
// "Semester <n>", special terms 3 and 4 under "Special Term Part <n-2>".
func Url(base string, acadYear, semester int) (string, error) {
	if !model.ValidSemester(semester) {
		return "", fmt.Errorf("invalid semester %d", semester)
	}

	folder := fmt.Sprintf("Semester %d", semester)
	file := fmt.Sprintf("Semester_%d_by_Date.pdf", semester)
	if semester > 2 {
		part := semester - 2
		folder = fmt.Sprintf("Special Term Part %d", part)
		file = fmt.Sprintf("Special_Term_Part%d_by_Date.pdf", part)
	}
	return url.JoinPath(base, "Exam"+strconv.Itoa(acadYear), folder, file)
}

func (t Task) Run(ctx context.Context, in Input) ([]model.ExamRecord, error) {
	link, err := Url(t.cfg.BaseUrl, in.AcadYear, in.Semester)
	if err != nil {
		return nil, err
	}
	body, err := t.env.Fetcher.Fetch(ctx, link)
	if err != nil {
		return nil, err
	}
	pages, err := pdftext.Extract(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", link, err)
	}

	records, err := examgrammar.Parse(pages, t.env.Tel)
	if err != nil {
		return nil, err
	}
	t.env.Tel.ReportCount("records", int64(len(records)))

	err = t.env.Files.Write(ctx, sources.RawPath(t.cfg.Output, in.AcadYear, in.Semester), records)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Package cors scrapes module details, timetables and lesson types from
// the CORS listing pages.
package cors

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/PuerkitoBio/goquery"

	"nusmods-scraper/internal/config"
	"nusmods-scraper/internal/model"
	"nusmods-scraper/internal/sources"
	"nusmods-scraper/internal/task"
	"nusmods-scraper/lib/htmlutil"
)

const (
	Regular = "regular"
	Special = "special"
)

type Input struct {
	// Category is Regular for semesters 1 and 2, Special for the special
	// terms.
	Category string
}

type Output struct {
	AcadYear int
	Semester int
	Modules  []model.CorsModule
	// Observations are the lesson descriptions of every timetable table,
	// in listing order. WriteLessonTypes persists them.
	Observations []Observation
	// LessonTypes is the lesson types on disk merged with Observations.
	LessonTypes model.LessonTypes
}

type Task struct {
	env sources.Env
	cfg config.Cors
}

func New(env sources.Env, cfg config.Cors) Task {
	return Task{env: env.Scoped("cors"), cfg: cfg}
}

var _ task.Task[Input, Output] = Task{}

func (t Task) Name() string {
	return "cors"
}

func (t Task) root(category string) (string, error) {
	switch category {
	case Regular:
		return t.cfg.RegularUrl, nil
	case Special:
		return t.cfg.SpecialUrl, nil
	}
	return "", fmt.Errorf("unknown cors category %q", category)
}

func (t Task) document(ctx context.Context, link string) (*goquery.Document, error) {
	body, err := t.env.Fetcher.Fetch(ctx, link)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(bytes.NewReader(body))
}

type listingResult struct {
	listing
	pages []modulePage
}

func (t Task) processListing(ctx context.Context, root, moduleType string) (listingResult, error) {
	link, err := htmlutil.Resolve(root, moduleType+"InfoListing.jsp")
	if err != nil {
		return listingResult{}, err
	}
	doc, err := t.document(ctx, link)
	if err != nil {
		return listingResult{}, fmt.Errorf("listing %s: %w", moduleType, err)
	}
	parsed, err := parseListing(doc)
	if err != nil {
		return listingResult{}, task.Fatalf("cors", moduleType, "%w", err)
	}

	pages, err := task.ForEach(ctx, t.env.Tel, t.cfg.Concurrency, parsed.Entries, func(ctx context.Context, entry listingEntry) (modulePage, error) {
		link, err := htmlutil.Resolve(root, entry.Href)
		if err != nil {
			return modulePage{}, err
		}
		doc, err := t.document(ctx, link)
		if err != nil {
			return modulePage{}, fmt.Errorf("%s: %w", entry.ModuleCode, err)
		}
		return parseModulePage(doc, moduleType, entry)
	})
	if err != nil {
		return listingResult{}, err
	}
	return listingResult{listing: parsed, pages: pages}, nil
}

func (t Task) lessonTypesPath() string {
	return path.Join(t.cfg.DestFolder, t.cfg.DestLessonTypes)
}

func (t Task) Run(ctx context.Context, in Input) (Output, error) {
	root, err := t.root(in.Category)
	if err != nil {
		return Output{}, err
	}

	seed, err := t.readLessonTypes(ctx)
	if err != nil {
		return Output{}, err
	}

	results := make([]listingResult, len(t.cfg.ModuleTypes))
	for i, moduleType := range t.cfg.ModuleTypes {
		results[i], err = t.processListing(ctx, root, moduleType)
		if err != nil {
			return Output{}, err
		}
	}

	years := make([]string, len(results))
	semesters := make([]string, len(results))
	var pages []modulePage
	var observations []Observation
	for i, result := range results {
		years[i] = result.AcadYear
		semesters[i] = result.Semester
		pages = append(pages, result.pages...)
		for _, page := range result.pages {
			observations = append(observations, page.Observations...)
		}
	}
	acadYearText, err := task.PluckSingle("cors", "academicYear", years)
	if err != nil {
		return Output{}, err
	}
	semesterText, err := task.PluckSingle("cors", "semester", semesters)
	if err != nil {
		return Output{}, err
	}
	acadYear, err := model.ParseAcadYear(acadYearText)
	if err != nil {
		return Output{}, task.Fatalf("cors", "academicYear", "%w", err)
	}
	var semester int
	_, err = fmt.Sscanf(semesterText, "%d", &semester)
	if err != nil || !model.ValidSemester(semester) {
		return Output{}, task.Fatalf("cors", "semester", "invalid semester %q", semesterText)
	}

	// conflicts within one listing fail before anything is written
	lessonTypes, err := MergeLessonTypes(seed, observations)
	if err != nil {
		return Output{}, err
	}

	modules := make([]model.CorsModule, len(pages))
	for i, page := range pages {
		modules[i] = page.Module
	}
	t.env.Tel.ReportCount("modules", int64(len(modules)))

	err = t.env.Files.Write(ctx, sources.RawPath(t.cfg.Output, acadYear, semester), modules)
	if err != nil {
		return Output{}, err
	}

	return Output{
		AcadYear:     acadYear,
		Semester:     semester,
		Modules:      modules,
		Observations: observations,
		LessonTypes:  lessonTypes,
	}, nil
}

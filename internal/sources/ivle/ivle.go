// Package ivle fetches the IVLE module search results of every module the
// other sources found for a semester.
package ivle

import (
	"context"
	"encoding/json"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"nusmods-scraper/internal/config"
	"nusmods-scraper/internal/fetch"
	"nusmods-scraper/internal/model"
	"nusmods-scraper/internal/sources"
	"nusmods-scraper/internal/task"
)

type Input struct {
	AcadYear int
	Semester int
}

// Reads are the outputs of the tasks ivle depends on.
type Reads struct {
	Bulletin config.Output
	Cors     config.Output
	Exams    config.Output
}

type Task struct {
	env   sources.Env
	cfg   config.Ivle
	reads Reads
}

func New(env sources.Env, cfg config.Ivle, reads Reads) Task {
	return Task{env: env.Scoped("ivle"), cfg: cfg, reads: reads}
}

var _ task.Task[Input, model.IvleResults] = Task{}

func (t Task) Name() string {
	return "ivle"
}

// ModuleCodes unions the module codes written by the bulletin, cors and
// exam timetable tasks for a semester. Missing outputs count as empty.
func (t Task) ModuleCodes(ctx context.Context, in Input) ([]string, error) {
	var bulletin []model.BulletinModule
	var cors []model.CorsModule
	var exams []model.ExamRecord

	err := sources.ReadOptional(ctx, t.env, sources.RawPath(t.reads.Bulletin, in.AcadYear, in.Semester), &bulletin)
	if err != nil {
		return nil, err
	}
	err = sources.ReadOptional(ctx, t.env, sources.RawPath(t.reads.Cors, in.AcadYear, in.Semester), &cors)
	if err != nil {
		return nil, err
	}
	err = sources.ReadOptional(ctx, t.env, sources.RawPath(t.reads.Exams, in.AcadYear, in.Semester), &exams)
	if err != nil {
		return nil, err
	}

	set := map[string]struct{}{}
	for _, module := range bulletin {
		set[module.ModuleCode] = struct{}{}
	}
	for _, module := range cors {
		// cross listed modules share one page, "CS1010 / CS1010E"
		for _, code := range strings.Split(module.ModuleCode, "/") {
			set[strings.TrimSpace(code)] = struct{}{}
		}
	}
	for _, exam := range exams {
		set[exam.ModuleCode] = struct{}{}
	}
	delete(set, "")

	codes := make([]string, 0, len(set))
	for code := range set {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes, nil
}

type response struct {
	Results json.RawMessage `json:"Results"`
}

func (t Task) searchUrl(code string, in Input) (string, error) {
	link, err := url.Parse(t.cfg.Url)
	if err != nil {
		return "", err
	}
	query := link.Query()
	query.Set("APIKey", t.cfg.ApiKey)
	query.Set("AcadYear", model.FormatAcadYear(in.AcadYear))
	query.Set("Semester", strconv.Itoa(in.Semester))
	query.Set("ModuleCode", code)
	query.Set("IncludeAllInfo", "true")
	link.RawQuery = query.Encode()
	return link.String(), nil
}

type entry struct {
	code    string
	results json.RawMessage
}

func (t Task) Run(ctx context.Context, in Input) (model.IvleResults, error) {
	codes, err := t.ModuleCodes(ctx, in)
	if err != nil {
		return nil, err
	}

	entries, err := task.ForEach(ctx, t.env.Tel, t.cfg.Concurrency, codes, func(ctx context.Context, code string) (entry, error) {
		link, err := t.searchUrl(code, in)
		if err != nil {
			return entry{}, err
		}
		var res response
		err = fetch.FetchJSON(ctx, t.env.Fetcher, link, &res)
		if err != nil {
			return entry{}, err
		}
		return entry{code: code, results: res.Results}, nil
	})
	if err != nil {
		return nil, err
	}

	results := model.IvleResults{}
	for _, e := range entries {
		results[e.code] = e.results
	}
	t.env.Tel.ReportCount("modules", int64(len(results)))

	err = t.env.Files.Write(ctx, sources.RawPath(t.cfg.Output, in.AcadYear, in.Semester), results)
	if err != nil {
		return nil, err
	}
	return results, nil
}

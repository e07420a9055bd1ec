// Package venues downloads the venue directory.
package venues

import (
	"context"
	"net/url"

	"nusmods-scraper/internal/config"
	"nusmods-scraper/internal/fetch"
	"nusmods-scraper/internal/model"
	"nusmods-scraper/internal/sources"
	"nusmods-scraper/internal/task"
)

const venuesFile = "venuesRaw.json"

type Input struct {
	AcadYear int
}

type Task struct {
	env sources.Env
	cfg config.Venues
}

func New(env sources.Env, cfg config.Venues) Task {
	return Task{env: env.Scoped("venues"), cfg: cfg}
}

var _ task.Task[Input, []model.VenueRecord] = Task{}

func (t Task) Name() string {
	return "venues"
}

func (t Task) Run(ctx context.Context, in Input) ([]model.VenueRecord, error) {
	link, err := url.Parse(t.cfg.Url)
	if err != nil {
		return nil, err
	}
	query := link.Query()
	query.Set("name", "")
	query.Set("output", "json")
	link.RawQuery = query.Encode()

	var venues []model.VenueRecord
	err = fetch.FetchJSON(ctx, t.env.Fetcher, link.String(), &venues)
	if err != nil {
		return nil, err
	}
	t.env.Tel.ReportCount("records", int64(len(venues)))

	name := t.cfg.DestFileName
	if name == "" {
		name = venuesFile
	}
	err = t.env.Files.Write(ctx, sources.YearPath(t.cfg.Output, in.AcadYear, name), venues)
	if err != nil {
		return nil, err
	}
	return venues, nil
}

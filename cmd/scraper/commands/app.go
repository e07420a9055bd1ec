package commands

import (
	"context"
	"log/slog"
	"time"

	"nusmods-scraper/internal/archive"
	"nusmods-scraper/internal/components/alert"
	"nusmods-scraper/internal/components/chrono"
	"nusmods-scraper/internal/components/telemetry"
	"nusmods-scraper/internal/config"
	"nusmods-scraper/internal/fetch"
	"nusmods-scraper/internal/model"
	"nusmods-scraper/internal/persist"
	"nusmods-scraper/internal/pipeline"
	"nusmods-scraper/lib/serviceutil"
)

const serviceName = "nusmods-scraper"

// app is everything a command needs, built from the config file.
type app struct {
	cfg     config.Config
	clock   chrono.API
	tel     telemetry.API
	otel    telemetry.Telemetry
	fetcher *fetch.CachedFetcher
	files   *persist.Files
	archive *archive.Postgres
}

func loadApp(ctx context.Context) app {
	cfg, err := config.Read(*configPath)
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}

	otel, err := telemetry.Setup(ctx, serviceName, cfg.Telemetry)
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	var tel telemetry.API = telemetry.SlogAPI{}
	if cfg.Telemetry.Enabled() {
		tel = telemetry.Multi{tel, telemetry.NewMeterAPI(serviceName)}
		telemetry.InstrumentPerfStats(ctx, tel, 15*time.Second)
	}

	fetcher, err := fetch.New(fetch.OptionsFromConfig(cfg), tel)
	if err != nil {
		serviceutil.Fatal("failed to create fetcher", err)
	}

	a := app{
		cfg:     cfg,
		clock:   chrono.NewStandardImpl(),
		tel:     tel,
		otel:    otel,
		fetcher: fetcher,
		files:   persist.NewFiles(cfg.DataDir, persist.NewJSONCodec(cfg.JsonIndent)),
	}
	if cfg.Archive.PostgresUrl != "" {
		a.archive, err = archive.Open(ctx, cfg.Archive.PostgresUrl)
		if err != nil {
			serviceutil.Fatal("failed to open bidding archive", err)
		}
	}
	return a
}

func (a app) close() {
	if a.archive != nil {
		a.archive.Close()
	}
	err := a.otel.Shutdown(context.Background())
	if err != nil {
		slog.Warn("failed to shutdown telemetry", "err", err.Error())
	}
}

func (a app) openStore(ctx context.Context, acadYear int) (persist.Persist, error) {
	if a.cfg.Persist.Kind != "sqlite" {
		return persist.NewFS(a.files, a.cfg.Collate.DestFolder, acadYear), nil
	}
	db, err := a.cfg.Persist.Sqlite.OpenDB()
	if err != nil {
		return nil, err
	}
	store, err := persist.NewSQLite(ctx, db, acadYear)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (a app) pipeline() pipeline.Pipeline {
	deps := pipeline.Deps{
		Config:  a.cfg,
		Fetcher: a.fetcher,
		Files:   a.files,
		Store:   a.openStore,
		Alert:   alert.FromConfig(a.cfg.Alert),
		Clock:   a.clock,
		Tel:     a.tel,
	}
	// a nil *archive.Postgres must not end up inside the interface
	if a.archive != nil {
		deps.Archive = a.archive
	}
	return pipeline.New(deps)
}

// year resolves the --year flag, then the config, then the current
// academic year.
func (a app) year(flag string) int {
	if flag != "" {
		year, err := model.ParseAcadYear(flag)
		if err != nil {
			serviceutil.Fatal("invalid --year", err)
		}
		return year
	}
	if a.cfg.Year != 0 {
		return a.cfg.Year
	}
	return chrono.AcadYearStart(a.clock.Now())
}

// Package sources holds what every upstream source task shares: the
// collaborators a task runs with and the layout of the raw dumps.
package sources

import (
	"context"
	"errors"
	"path"
	"strconv"

	"nusmods-scraper/internal/components/telemetry"
	"nusmods-scraper/internal/config"
	"nusmods-scraper/internal/fetch"
	"nusmods-scraper/internal/model"
	"nusmods-scraper/internal/persist"
)

const report_missing_input = "missing-input"

type Env struct {
	Fetcher fetch.Fetcher
	Files   *persist.Files
	Tel     telemetry.API
}

// Scoped returns a copy of env whose reports are prefixed with name.
func (e Env) Scoped(name string) Env {
	e.Tel = telemetry.NewScopedAPI(name, e.Tel)
	return e
}

// YearPath is <dest_folder>/<YYYY-YYYY>/<name>.
func YearPath(out config.Output, acadYear int, name string) string {
	return path.Join(out.DestFolder, model.AcadYearDir(acadYear), name)
}

// RawPath is <dest_folder>/<YYYY-YYYY>/<semester>/<dest_file_name>.
func RawPath(out config.Output, acadYear, semester int) string {
	return path.Join(out.DestFolder, model.AcadYearDir(acadYear), strconv.Itoa(semester), out.DestFileName)
}

// ReadOptional reads a previous output into v. A missing file is reported
// as a warning and leaves v untouched.
func ReadOptional(ctx context.Context, env Env, rel string, v any) error {
	err := env.Files.Read(ctx, rel, v)
	if errors.Is(err, persist.ErrNotFound) {
		env.Tel.ReportWarning(report_missing_input, "failed to read "+rel+", proceeding with empty value")
		return nil
	}
	return err
}

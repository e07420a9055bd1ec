// Package persist is the storage boundary of the pipeline. Every write
// replaces its target wholesale.
package persist

import (
	"context"

	"nusmods-scraper/internal/model"
)

// Persist stores the canonical records of one academic year.
type Persist interface {
	ModuleList(ctx context.Context, modules []model.ModuleCondensed) error
	ModuleInformation(ctx context.Context, modules []model.ModuleInformation) error
	Module(ctx context.Context, code string, module model.Module) error
	// GetModuleCodes lists the codes of every module written so far.
	GetModuleCodes(ctx context.Context) ([]string, error)
	DeleteModule(ctx context.Context, code string) error
	VenueList(ctx context.Context, semester int, venues []string) error
	VenueInformation(ctx context.Context, semester int, info model.VenueInfo) error
	Timetable(ctx context.Context, semester int, code string, lessons []model.RawLesson) error
	SemesterData(ctx context.Context, semester int, code string, data model.SemesterData) error
	FacultyDepartments(ctx context.Context, directory model.FacultyDepartments) error
	ModuleAliases(ctx context.Context, aliases model.Aliases) error
	Close() error
}

// Transaction is implemented by stores that hold back writes until the run
// that produced them succeeded.
type Transaction interface {
	Commit() error
	Discard() error
}

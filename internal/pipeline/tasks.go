package pipeline

import (
	"context"
	"fmt"

	"nusmods-scraper/internal/sources/bidding"
	"nusmods-scraper/internal/sources/bulletin"
	"nusmods-scraper/internal/sources/cors"
	"nusmods-scraper/internal/sources/examtt"
	"nusmods-scraper/internal/sources/ivle"
	"nusmods-scraper/internal/sources/venues"
)

// Sources are the task names RunSource accepts.
var Sources = []string{
	"bulletinModules",
	"cors",
	"corsBiddingStats",
	"examTimetable",
	"venues",
	"ivle",
}

// RunSource runs a single source task outside of the graph and returns the
// number of records it wrote. Semester picks the cors category: the
// regular listing for semesters 1 and 2, the special term listing
// otherwise.
func (p Pipeline) RunSource(ctx context.Context, name string, acadYear, semester int) (int, error) {
	cfg := p.deps.Config
	switch name {
	case "bulletinModules":
		out, err := bulletin.New(p.env, cfg.Bulletin).Run(ctx, bulletin.Input{AcadYear: acadYear})
		return len(out.Modules[semester]), err
	case "cors":
		category := cors.Regular
		if semester > 2 {
			category = cors.Special
		}
		corsTask := cors.New(p.env, cfg.Cors)
		out, err := corsTask.Run(ctx, cors.Input{Category: category})
		if err != nil {
			return 0, err
		}
		_, err = corsTask.WriteLessonTypes(ctx, out)
		return len(out.Modules), err
	case "corsBiddingStats":
		out, err := bidding.New(p.env, cfg.Bidding, p.deps.Archive).Run(ctx, bidding.Input{AcadYear: acadYear, Semester: semester})
		return len(out), err
	case "examTimetable":
		out, err := examtt.New(p.env, cfg.Exams).Run(ctx, examtt.Input{AcadYear: acadYear, Semester: semester})
		return len(out), err
	case "venues":
		out, err := venues.New(p.env, cfg.Venues).Run(ctx, venues.Input{AcadYear: acadYear})
		return len(out), err
	case "ivle":
		out, err := ivle.New(p.env, cfg.Ivle, p.ivleReads()).Run(ctx, ivle.Input{AcadYear: acadYear, Semester: semester})
		return len(out), err
	}
	return 0, fmt.Errorf("unknown task %q, expected one of %v", name, Sources)
}

package pipeline

import (
	"context"
	"fmt"
	"path"
	"strconv"

	"nusmods-scraper/internal/mapper"
	"nusmods-scraper/internal/model"
	"nusmods-scraper/internal/persist"
	"nusmods-scraper/internal/sources"
	"nusmods-scraper/internal/sources/bidding"
	"nusmods-scraper/internal/sources/bulletin"
	"nusmods-scraper/internal/sources/cors"
	"nusmods-scraper/internal/sources/examtt"
	"nusmods-scraper/internal/sources/ivle"
	"nusmods-scraper/internal/sources/venues"
	"nusmods-scraper/internal/task"
)

// Node names of the graph.
const (
	NodeBulletin    = "bulletin"
	NodeCorsRegular = "cors/" + cors.Regular
	NodeCorsSpecial = "cors/" + cors.Special
	NodeLessonTypes = "cors/lessonTypes"
	NodeVenues      = "venues"
	NodeCollate     = "collate"
)

func NodeBidding(semester int) string     { return "bidding/" + strconv.Itoa(semester) }
func NodeExams(semester int) string       { return "examtt/" + strconv.Itoa(semester) }
func NodeIvle(semester int) string        { return "ivle/" + strconv.Itoa(semester) }
func NodeConsolidate(semester int) string { return "consolidate/" + strconv.Itoa(semester) }

func (p Pipeline) ivleReads() ivle.Reads {
	cfg := p.deps.Config
	return ivle.Reads{
		Bulletin: cfg.Bulletin.Output,
		Cors:     cfg.Cors.Output,
		Exams:    cfg.Exams.Output,
	}
}

func (r *run) addSources(graph *task.Graph) {
	cfg := r.deps.Config
	year := r.acadYear

	graph.Add(NodeBulletin, r.tolerate(NodeBulletin, func(ctx context.Context) (int, error) {
		out, err := bulletin.New(r.env, cfg.Bulletin).Run(ctx, bulletin.Input{AcadYear: year})
		total := 0
		for _, modules := range out.Modules {
			total += len(modules)
		}
		return total, err
	}))
	r.addCors(graph)
	graph.Add(NodeVenues, r.tolerate(NodeVenues, func(ctx context.Context) (int, error) {
		out, err := venues.New(r.env, cfg.Venues).Run(ctx, venues.Input{AcadYear: year})
		return len(out), err
	}))

	for _, semester := range r.semesters() {
		graph.Add(NodeBidding(semester), r.tolerate(NodeBidding(semester), func(ctx context.Context) (int, error) {
			out, err := bidding.New(r.env, cfg.Bidding, r.deps.Archive).Run(ctx, bidding.Input{AcadYear: year, Semester: semester})
			return len(out), err
		}))
		graph.Add(NodeExams(semester), r.tolerate(NodeExams(semester), func(ctx context.Context) (int, error) {
			out, err := examtt.New(r.env, cfg.Exams).Run(ctx, examtt.Input{AcadYear: year, Semester: semester})
			return len(out), err
		}))
		graph.Add(NodeIvle(semester), r.tolerate(NodeIvle(semester), func(ctx context.Context) (int, error) {
			out, err := ivle.New(r.env, cfg.Ivle, r.ivleReads()).Run(ctx, ivle.Input{AcadYear: year, Semester: semester})
			return len(out), err
		}), NodeBulletin, NodeCorsRegular, NodeCorsSpecial, NodeExams(semester))
	}
}

// addCors registers both cors listings and the single node that merges
// their lesson types once both are done.
func (r *run) addCors(graph *task.Graph) {
	for _, category := range []string{cors.Regular, cors.Special} {
		name := "cors/" + category
		graph.Add(name, r.tolerate(name, func(ctx context.Context) (int, error) {
			out, err := cors.New(r.env, r.deps.Config.Cors).Run(ctx, cors.Input{Category: category})
			if err != nil {
				return 0, err
			}
			r.mutex.Lock()
			r.cors[category] = out
			r.mutex.Unlock()
			return len(out.Modules), nil
		}))
	}
	graph.Add(NodeLessonTypes, r.writeLessonTypes, NodeCorsRegular, NodeCorsSpecial)
}

// writeLessonTypes fails the run when the listings disagree on a lesson
// description.
func (r *run) writeLessonTypes(ctx context.Context) error {
	var outs []cors.Output
	r.mutex.Lock()
	for _, category := range []string{cors.Regular, cors.Special} {
		if out, ok := r.cors[category]; ok {
			outs = append(outs, out)
		}
	}
	r.mutex.Unlock()
	if len(outs) == 0 {
		return nil
	}

	merged, err := cors.New(r.env, r.deps.Config.Cors).WriteLessonTypes(ctx, outs...)
	if err != nil {
		return err
	}
	r.record(NodeLessonTypes, len(merged))
	return nil
}

// addMapping registers consolidation of every semester followed by the
// collation of the year. withSources orders them after the source tasks.
func (r *run) addMapping(graph *task.Graph, withSources bool) {
	var consolidations []string
	for _, semester := range r.semesters() {
		var deps []string
		if withSources {
			deps = []string{
				NodeBulletin, NodeCorsRegular, NodeCorsSpecial, NodeLessonTypes,
				NodeBidding(semester), NodeExams(semester), NodeIvle(semester),
			}
		}
		name := NodeConsolidate(semester)
		consolidations = append(consolidations, name)
		graph.Add(name, func(ctx context.Context) error {
			return r.consolidate(ctx, semester)
		}, deps...)
	}
	graph.Add(NodeCollate, r.collate, consolidations...)
}

// readInput gathers the raw dumps of a semester, a missing dump is an
// empty source.
func (r *run) readInput(ctx context.Context, semester int) (mapper.SemesterInput, error) {
	cfg := r.deps.Config
	in := mapper.SemesterInput{
		AcadYear:    r.acadYear,
		Semester:    semester,
		Ivle:        model.IvleResults{},
		LessonTypes: model.LessonTypes{},
		Directory:   model.FacultyDepartments{},
	}

	reads := []struct {
		rel string
		v   any
	}{
		{sources.RawPath(cfg.Bulletin.Output, r.acadYear, semester), &in.Bulletin},
		{sources.RawPath(cfg.Cors.Output, r.acadYear, semester), &in.Cors},
		{sources.RawPath(cfg.Bidding.Output, r.acadYear, semester), &in.Bidding},
		{sources.RawPath(cfg.Exams.Output, r.acadYear, semester), &in.Exams},
		{sources.RawPath(cfg.Ivle.Output, r.acadYear, semester), &in.Ivle},
		{path.Join(cfg.Cors.DestFolder, cfg.Cors.DestLessonTypes), &in.LessonTypes},
		{sources.YearPath(cfg.Bulletin.Output, r.acadYear, bulletin.DirectoryFile), &in.Directory},
		{sources.YearPath(cfg.Bulletin.Output, r.acadYear, bulletin.CodesFile), &in.Codes},
	}
	env := r.env.Scoped(NodeConsolidate(semester))
	for _, read := range reads {
		err := sources.ReadOptional(ctx, env, read.rel, read.v)
		if err != nil {
			return mapper.SemesterInput{}, err
		}
	}
	return in, nil
}

func (r *run) consolidate(ctx context.Context, semester int) error {
	in, err := r.readInput(ctx, semester)
	if err != nil {
		return err
	}
	out, err := r.mapper.ConsolidateSemester(in)
	if err != nil {
		return err
	}
	if len(out.Modules) == 0 {
		r.deps.Tel.ReportWarning(report_empty_sem, fmt.Sprintf("semester %d has no modules", semester))
		return nil
	}

	err = persistSemester(ctx, r.store, out)
	if err != nil {
		return err
	}

	r.mutex.Lock()
	r.consolidated[semester] = out
	r.mutex.Unlock()
	r.record(NodeConsolidate(semester), len(out.Modules))
	return nil
}

func persistSemester(ctx context.Context, store persist.Persist, out mapper.SemesterOutput) error {
	for _, module := range out.Modules {
		code := module.Module.ModuleCode
		err := store.Timetable(ctx, out.Semester, code, module.SemesterData.Timetable)
		if err != nil {
			return err
		}
		err = store.SemesterData(ctx, out.Semester, code, module.SemesterData)
		if err != nil {
			return err
		}
	}
	err := store.VenueList(ctx, out.Semester, out.VenueList)
	if err != nil {
		return err
	}
	return store.VenueInformation(ctx, out.Semester, out.Venues)
}

func (r *run) collate(ctx context.Context) error {
	r.mutex.Lock()
	sems := make([]mapper.SemesterOutput, 0, len(r.consolidated))
	for _, out := range r.consolidated {
		sems = append(sems, out)
	}
	r.mutex.Unlock()

	if len(sems) == 0 {
		// keep the previous outputs rather than deleting every module
		r.deps.Tel.ReportWarning(report_empty_sem, "no semester has modules, nothing to collate")
		return nil
	}

	year, err := r.mapper.CollateYear(r.acadYear, sems, r.deps.Config.Collate.CyclePolicy)
	if err != nil {
		return err
	}

	previous, err := r.store.GetModuleCodes(ctx)
	if err != nil {
		return err
	}
	current := map[string]bool{}
	for _, module := range year.Modules {
		current[module.ModuleCode] = true
		err = r.store.Module(ctx, module.ModuleCode, module)
		if err != nil {
			return err
		}
	}
	// modules dropped upstream since the last run
	for _, code := range previous {
		if current[code] {
			continue
		}
		err = r.store.DeleteModule(ctx, code)
		if err != nil {
			return err
		}
	}

	err = r.store.ModuleList(ctx, year.ModuleList)
	if err != nil {
		return err
	}
	err = r.store.ModuleInformation(ctx, year.ModuleInformation)
	if err != nil {
		return err
	}
	err = r.store.ModuleAliases(ctx, year.Aliases)
	if err != nil {
		return err
	}

	directory := model.FacultyDepartments{}
	err = sources.ReadOptional(ctx, r.env, sources.YearPath(r.deps.Config.Bulletin.Output, r.acadYear, bulletin.DirectoryFile), &directory)
	if err != nil {
		return err
	}
	err = r.store.FacultyDepartments(ctx, directory)
	if err != nil {
		return err
	}

	r.record(NodeCollate, len(year.Modules))
	return nil
}

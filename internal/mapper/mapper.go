// Package mapper folds the raw dumps of every source into the canonical
// module model. ConsolidateSemester maps one semester, CollateYear then
// merges the semesters of an academic year.
package mapper

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"nusmods-scraper/internal/components/telemetry"
	"nusmods-scraper/internal/model"
	"nusmods-scraper/internal/task"
	"nusmods-scraper/lib/textutil"
)

const (
	report_excluded      = "modules.excluded"
	report_missing_type  = "lesson.unknown-type"
	report_weeks         = "lesson.weeks"
	report_exam_time     = "exam.time"
	report_attribute     = "attribute.non-standard"
	report_consolidated  = "modules"
	report_diverged      = "collate.diverged"
	report_prereq        = "prereq.unparseable"
	report_prereq_cycle  = "prereq.cycle"
	report_prereq_reject = "prereq.rejected"
	report_ivle          = "ivle.unreadable"
	report_lecturer_role = "ivle.role"
)

// SemesterInput is everything the sources wrote for one semester. Any of
// the slices may be empty when a source had nothing or failed to run.
type SemesterInput struct {
	AcadYear    int
	Semester    int
	Bulletin    []model.BulletinModule
	Cors        []model.CorsModule
	Bidding     []model.BiddingStat
	Exams       []model.ExamRecord
	Ivle        model.IvleResults
	LessonTypes model.LessonTypes
	Directory   model.FacultyDepartments
	Codes       model.OrganisationCodes
}

// SemesterModule is a module as seen in a single semester. Module carries
// no SemesterData of its own.
type SemesterModule struct {
	Module       model.Module
	SemesterData model.SemesterData
}

type SemesterOutput struct {
	AcadYear  int
	Semester  int
	Modules   []SemesterModule
	Venues    model.VenueInfo
	VenueList []string
	Aliases   model.Aliases
}

type Mapper struct {
	tel telemetry.API
}

func New(tel telemetry.API) Mapper {
	return Mapper{tel: telemetry.NewScopedAPI("mapper", tel)}
}

// checkRun guards against blending the dumps of two different runs: every
// row of a source must agree on the academic year and semester, and both
// must be the ones being consolidated.
func checkRun(in SemesterInput) error {
	var bulletinYears, bulletinSems, biddingYears, biddingSems []string
	for _, m := range in.Bulletin {
		bulletinYears = append(bulletinYears, m.AcadYear)
		bulletinSems = append(bulletinSems, m.Semester)
	}
	for _, s := range in.Bidding {
		biddingYears = append(biddingYears, s.AcadYear)
		biddingSems = append(biddingSems, s.Semester)
	}

	checks := []struct {
		source   string
		property string
		values   []string
		expected string
	}{
		{"bulletinModules", "AcadYear", bulletinYears, model.FormatAcadYear(in.AcadYear)},
		{"bulletinModules", "Semester", bulletinSems, strconv.Itoa(in.Semester)},
		{"corsBiddingStats", "AcadYear", biddingYears, model.FormatAcadYear(in.AcadYear)},
		{"corsBiddingStats", "Semester", biddingSems, strconv.Itoa(in.Semester)},
	}
	for _, c := range checks {
		value, err := task.PluckSingle(c.source, c.property, c.values)
		if err != nil {
			return err
		}
		if value == "" {
			continue
		}
		if c.property == "AcadYear" {
			start, err := model.ParseAcadYear(value)
			if err != nil || start != in.AcadYear {
				return task.Fatalf(c.source, c.property, "expected %s, found %s", c.expected, value)
			}
			continue
		}
		if value != c.expected {
			return task.Fatalf(c.source, c.property, "expected %s, found %s", c.expected, value)
		}
	}
	return nil
}

// splitCodes splits the code of a cross listed module, "CS1010 / CS1010E".
func splitCodes(code string) []string {
	var codes []string
	for _, c := range strings.Split(code, "/") {
		c = strings.TrimSpace(c)
		if c != "" {
			codes = append(codes, c)
		}
	}
	return codes
}

func (m Mapper) ConsolidateSemester(in SemesterInput) (SemesterOutput, error) {
	err := checkRun(in)
	if err != nil {
		return SemesterOutput{}, err
	}

	aliases := aliasSet{}
	bulletin := map[string]model.BulletinModule{}
	for _, b := range in.Bulletin {
		bulletin[b.ModuleCode] = b
	}
	cors := map[string]model.CorsModule{}
	for _, c := range in.Cors {
		codes := splitCodes(c.ModuleCode)
		for _, code := range codes {
			if _, ok := cors[code]; !ok {
				cors[code] = c
			}
			for _, other := range codes {
				aliases.link(code, other)
			}
		}
	}
	exams := map[string]model.ExamRecord{}
	for _, e := range in.Exams {
		exams[e.ModuleCode] = e
	}
	bidding := biddingStats(in.Bidding)

	known := map[string]struct{}{}
	for code := range bulletin {
		known[code] = struct{}{}
	}
	for code := range cors {
		known[code] = struct{}{}
	}
	m.reportExcluded(in, known)

	codes := make([]string, 0, len(known))
	for code := range known {
		codes = append(codes, code)
	}
	slices.Sort(codes)

	out := SemesterOutput{
		AcadYear: in.AcadYear,
		Semester: in.Semester,
	}
	for _, code := range codes {
		b, hasBulletin := bulletin[code]
		c, hasCors := cors[code]

		module := m.moduleFields(in, code, b, hasBulletin, c, hasCors)
		data := model.SemesterData{Semester: in.Semester, Timetable: []model.RawLesson{}}
		if hasCors {
			data.Timetable = m.lessons(code, c.Timetable, in.LessonTypes)
			data.CovidZones = covidZones(data.Timetable)
			data.ExamDate = m.corsExamDate(code, c.ExamDate)
			data.LecturePeriods, data.TutorialPeriods = lessonPeriods(data.Timetable, in.LessonTypes)
		}
		if raw, ok := in.Ivle[code]; ok {
			data.Ivle = raw
			data.Lecturers = m.lecturers(code, raw)
		}
		data.CorsBiddingStats = bidding[code]
		if exam, ok := exams[code]; ok {
			date, err := examDate(exam.Date, exam.Time)
			if err != nil {
				m.tel.ReportWarning(report_exam_time, err, code)
			} else {
				data.ExamDate = date
			}
		}

		out.Modules = append(out.Modules, SemesterModule{Module: module, SemesterData: data})
	}

	out.Venues = m.venues(out.Modules, aliases)
	out.VenueList = make([]string, 0, len(out.Venues))
	for venue := range out.Venues {
		out.VenueList = append(out.VenueList, venue)
	}
	slices.Sort(out.VenueList)
	out.Aliases = aliases.build()

	for i := range out.Modules {
		out.Modules[i].Module.Aliases = out.Aliases[out.Modules[i].Module.ModuleCode]
	}

	m.tel.ReportCount(report_consolidated, int64(len(out.Modules)))
	return out, nil
}

// reportExcluded warns about modules only the auxiliary sources know of,
// they have no title or department and are left out.
func (m Mapper) reportExcluded(in SemesterInput, known map[string]struct{}) {
	excluded := map[string]struct{}{}
	add := func(code string) {
		if _, ok := known[code]; !ok && code != "" {
			excluded[code] = struct{}{}
		}
	}
	for _, s := range in.Bidding {
		add(s.ModuleCode)
	}
	for _, e := range in.Exams {
		add(e.ModuleCode)
	}
	for code := range in.Ivle {
		add(code)
	}
	if len(excluded) == 0 {
		return
	}

	codes := make([]string, 0, len(excluded))
	for code := range excluded {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	m.tel.ReportWarning(
		report_excluded,
		fmt.Sprintf("%s have no bulletin or cors data source and will be excluded", strings.Join(codes, ", ")),
	)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func titleizeIfAllCaps(s string) string {
	if s == strings.ToUpper(s) {
		return textutil.Titleize(s)
	}
	return s
}

// moduleFields merges the module level fields, bulletin values win over
// cors values wherever they are present.
func (m Mapper) moduleFields(
	in SemesterInput,
	code string,
	b model.BulletinModule, hasBulletin bool,
	c model.CorsModule, hasCors bool,
) model.Module {
	if !hasBulletin {
		b = model.BulletinModule{}
	}
	if !hasCors {
		c = model.CorsModule{}
	}

	module := model.Module{
		AcadYear:     model.FormatAcadYear(in.AcadYear),
		ModuleCode:   code,
		Title:        titleizeIfAllCaps(textutil.Clean(firstNonEmpty(b.ModuleTitle, c.ModuleTitle))),
		Description:  textutil.Clean(firstNonEmpty(b.ModuleDescription, c.ModuleDescription)),
		ModuleCredit: textutil.Clean(firstNonEmpty(b.ModuleCredit, c.ModuleCredit)),
		Prerequisite: textutil.Clean(firstNonEmpty(b.Prerequisite, c.Prerequisite)),
		Preclusion:   textutil.Clean(firstNonEmpty(b.Preclusion, c.Preclusion)),
		Corequisite:  textutil.Clean(b.Corequisite),
		Workload:     parseWorkload(textutil.Clean(firstNonEmpty(b.Workload, c.Workload))),
		Attributes:   m.attributes(code, b.ModuleAttributes),
	}

	department := firstNonEmpty(
		in.Codes.Department(textutil.Clean(firstNonEmpty(b.Department, b.AcademicOrganisation))),
		textutil.Clean(c.Department),
	)
	module.Department = textutil.Titleize(department)

	faculty := in.Codes.Faculty(textutil.Clean(firstNonEmpty(b.Faculty, b.AcademicGroup)))
	if faculty == "" {
		faculty, _ = in.Directory.FacultyOf(module.Department)
	}
	module.Faculty = textutil.Titleize(faculty)
	return module
}

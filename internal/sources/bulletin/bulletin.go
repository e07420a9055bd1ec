// Package bulletin scrapes the bulletin module search API.
package bulletin

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/antzucaro/matchr"

	"nusmods-scraper/internal/config"
	"nusmods-scraper/internal/fetch"
	"nusmods-scraper/internal/model"
	"nusmods-scraper/internal/sources"
	"nusmods-scraper/internal/task"
	"nusmods-scraper/lib/textutil"
)

const (
	report_near_duplicate = "directory.near-duplicate"
	report_acad_year      = "acad-year"
)

// Written under the year folder, next to the raw dumps.
const (
	DirectoryFile = "facultyDepartments.json"
	CodesFile     = "organisationCodes.json"
)

// nearDuplicateThreshold is the Jaro-Winkler similarity above which two
// department names of one faculty are probably the same department.
const nearDuplicateThreshold = 0.97

type Input struct {
	AcadYear int
}

type Output struct {
	// Modules of the requested academic year by semester.
	Modules   map[int][]model.BulletinModule
	Directory model.FacultyDepartments
	Codes     model.OrganisationCodes
}

type Task struct {
	env sources.Env
	cfg config.Bulletin
}

func New(env sources.Env, cfg config.Bulletin) Task {
	return Task{env: env.Scoped("bulletinModules"), cfg: cfg}
}

var _ task.Task[Input, Output] = Task{}

func (t Task) Name() string {
	return "bulletinModules"
}

type response struct {
	Results []model.BulletinModule `json:"Results"`
}

func (t Task) semesterUrl(semester int) (string, error) {
	link, err := url.Parse(t.cfg.Url)
	if err != nil {
		return "", err
	}
	query := link.Query()
	query.Set("APIKey", t.cfg.ApiKey)
	query.Set("Semester", strconv.Itoa(semester))
	query.Set("TitleOnly", "false")
	link.RawQuery = query.Encode()
	return link.String(), nil
}

func (t Task) Run(ctx context.Context, in Input) (Output, error) {
	out := Output{Modules: map[int][]model.BulletinModule{}}

	var all []model.BulletinModule
	for _, semester := range t.cfg.Semesters {
		link, err := t.semesterUrl(semester)
		if err != nil {
			return Output{}, err
		}
		var res response
		err = fetch.FetchJSON(ctx, t.env.Fetcher, link, &res)
		if err != nil {
			return Output{}, fmt.Errorf("semester %d: %w", semester, err)
		}

		byYear := map[int][]model.BulletinModule{}
		for _, module := range res.Results {
			year, err := model.ParseAcadYear(module.AcadYear)
			if err != nil {
				t.env.Tel.ReportWarning(report_acad_year, fmt.Errorf("%s: %w", module.ModuleCode, err))
				continue
			}
			byYear[year] = append(byYear[year], module)
		}
		for year, modules := range byYear {
			err = t.env.Files.Write(ctx, sources.RawPath(t.cfg.Output, year, semester), modules)
			if err != nil {
				return Output{}, err
			}
		}

		out.Modules[semester] = byYear[in.AcadYear]
		all = append(all, byYear[in.AcadYear]...)
		t.env.Tel.ReportCount(fmt.Sprintf("semester-%d.modules", semester), int64(len(byYear[in.AcadYear])))
	}

	out.Directory, out.Codes = BuildDirectory(all, t.env)

	err := t.env.Files.Write(ctx, sources.YearPath(t.cfg.Output, in.AcadYear, DirectoryFile), out.Directory)
	if err != nil {
		return Output{}, err
	}
	err = t.env.Files.Write(ctx, sources.YearPath(t.cfg.Output, in.AcadYear, CodesFile), out.Codes)
	if err != nil {
		return Output{}, err
	}
	return out, nil
}

// BuildDirectory derives the faculty to department directory of the given
// modules. Names are titleized and departments deduplicated case
// insensitively. Upstream codes of faculties and departments are recorded
// when present.
func BuildDirectory(modules []model.BulletinModule, env sources.Env) (model.FacultyDepartments, model.OrganisationCodes) {
	codes := model.OrganisationCodes{
		Faculties:   model.FacultyCodeMap{},
		Departments: model.DepartmentCodeMap{},
	}
	seen := map[string]map[string]string{}
	for _, module := range modules {
		faculty := textutil.Titleize(textutil.Clean(module.Faculty))
		department := textutil.Titleize(textutil.Clean(module.Department))
		if faculty == "" {
			continue
		}
		if module.AcademicGroup != "" {
			codes.Faculties[module.AcademicGroup] = faculty
		}
		if module.AcademicOrganisation != "" && department != "" {
			codes.Departments[module.AcademicOrganisation] = department
		}

		departments, ok := seen[faculty]
		if !ok {
			departments = map[string]string{}
			seen[faculty] = departments
		}
		if department != "" {
			departments[strings.ToLower(department)] = department
		}
	}

	directory := model.FacultyDepartments{}
	for faculty, departments := range seen {
		names := make([]string, 0, len(departments))
		for _, name := range departments {
			names = append(names, name)
		}
		slices.Sort(names)
		directory[faculty] = names
		warnNearDuplicates(env, faculty, names)
	}
	return directory, codes
}

func warnNearDuplicates(env sources.Env, faculty string, names []string) {
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			similarity := matchr.JaroWinkler(names[i], names[j], false)
			if similarity >= nearDuplicateThreshold {
				env.Tel.ReportWarning(
					report_near_duplicate,
					fmt.Sprintf("%s: %q and %q look like the same department", faculty, names[i], names[j]),
				)
			}
		}
	}
}

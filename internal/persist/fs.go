package persist

import (
	"context"
	"path"
	"strconv"
	"strings"

	"nusmods-scraper/internal/model"
)

// FS writes the canonical tree of one academic year as JSON files:
//
//	<year>/moduleList.json
//	<year>/moduleInformation.json
//	<year>/modules/<code>.json
//	<year>/facultyDepartments.json
//	<year>/aliases.json
//	<year>/semesters/<n>/venues.json
//	<year>/semesters/<n>/venueInformation.json
//	<year>/semesters/<n>/modules/<code>/timetable.json
//	<year>/semesters/<n>/modules/<code>/semesterData.json
type FS struct {
	files *Files
	dir   string
}

// NewFS roots the year tree at folder, relative to the root of files.
func NewFS(files *Files, folder string, acadYear int) FS {
	return FS{files: files, dir: path.Join(folder, model.AcadYearDir(acadYear))}
}

func (s FS) path(elem ...string) string {
	return path.Join(append([]string{s.dir}, elem...)...)
}

func (s FS) semester(semester int, elem ...string) string {
	return s.path(append([]string{"semesters", strconv.Itoa(semester)}, elem...)...)
}

func (s FS) file(name string) string {
	return name + s.files.Codec().Extension()
}

func (s FS) ModuleList(ctx context.Context, modules []model.ModuleCondensed) error {
	return s.files.Write(ctx, s.path(s.file("moduleList")), modules)
}

func (s FS) ModuleInformation(ctx context.Context, modules []model.ModuleInformation) error {
	return s.files.Write(ctx, s.path(s.file("moduleInformation")), modules)
}

func (s FS) Module(ctx context.Context, code string, module model.Module) error {
	return s.files.Write(ctx, s.path("modules", s.file(code)), module)
}

func (s FS) GetModuleCodes(ctx context.Context) ([]string, error) {
	names, err := s.files.List(ctx, s.path("modules"))
	if err != nil {
		return nil, err
	}
	ext := s.files.Codec().Extension()
	codes := make([]string, 0, len(names))
	for _, name := range names {
		if strings.HasSuffix(name, ext) {
			codes = append(codes, strings.TrimSuffix(name, ext))
		}
	}
	return codes, nil
}

func (s FS) DeleteModule(ctx context.Context, code string) error {
	err := s.files.Remove(ctx, s.path("modules", s.file(code)))
	if err != nil {
		return err
	}
	for _, semester := range model.Semesters {
		err = s.files.Remove(ctx, s.semester(semester, "modules", code))
		if err != nil {
			return err
		}
	}
	return nil
}

func (s FS) VenueList(ctx context.Context, semester int, venues []string) error {
	return s.files.Write(ctx, s.semester(semester, s.file("venues")), venues)
}

func (s FS) VenueInformation(ctx context.Context, semester int, info model.VenueInfo) error {
	return s.files.Write(ctx, s.semester(semester, s.file("venueInformation")), info)
}

func (s FS) Timetable(ctx context.Context, semester int, code string, lessons []model.RawLesson) error {
	if lessons == nil {
		lessons = []model.RawLesson{}
	}
	return s.files.Write(ctx, s.semester(semester, "modules", code, s.file("timetable")), lessons)
}

func (s FS) SemesterData(ctx context.Context, semester int, code string, data model.SemesterData) error {
	return s.files.Write(ctx, s.semester(semester, "modules", code, s.file("semesterData")), data)
}

func (s FS) FacultyDepartments(ctx context.Context, directory model.FacultyDepartments) error {
	return s.files.Write(ctx, s.path(s.file("facultyDepartments")), directory)
}

func (s FS) ModuleAliases(ctx context.Context, aliases model.Aliases) error {
	return s.files.Write(ctx, s.path(s.file("aliases")), aliases)
}

// Close is a no-op, the underlying Files is committed by its owner.
func (s FS) Close() error {
	return nil
}

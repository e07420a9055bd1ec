package bulletin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"nusmods-scraper/internal/components/telemetry"
	"nusmods-scraper/internal/config"
	"nusmods-scraper/internal/model"
	"nusmods-scraper/internal/testutil"
)

const results = `{"Results": [
	{"AcadYear": "2016/2017", "Semester": "1", "ModuleCode": "CS1010", "ModuleTitle": "Programming Methodology",
	 "Faculty": "computing", "Department": "computer science", "AcademicGroup": "SOC", "AcademicOrganisation": "CS"},
	{"AcadYear": "2016/2017", "Semester": "1", "ModuleCode": "CS2030", "ModuleTitle": "Programming Methodology II",
	 "Faculty": "Computing", "Department": "COMPUTER SCIENCE"},
	{"AcadYear": "2015/2016", "Semester": "1", "ModuleCode": "CS1231", "ModuleTitle": "Discrete Structures",
	 "Faculty": "Computing", "Department": "Computer Science"}
]}`

func TestRun(t *testing.T) {
	routes := &testutil.Routes{Bodies: map[string]string{"/bulletin": results}}
	svc := testutil.SetupSources(t, routes)

	task := New(svc.Env, config.Bulletin{
		Output:    config.Output{DestFileName: "bulletinModulesRaw.json"},
		Url:       svc.Server.URL + "/bulletin",
		Semesters: []int{1},
	})
	out, err := task.Run(context.Background(), Input{AcadYear: 2016})
	require.NoError(t, err)

	require.Len(t, out.Modules[1], 2)
	require.Equal(t, model.FacultyDepartments{"Computing": {"Computer Science"}}, out.Directory)
	require.Equal(t, "Computing", out.Codes.Faculty("SOC"))
	require.Equal(t, "Computer Science", out.Codes.Department("CS"))

	var raw []model.BulletinModule
	require.NoError(t, svc.Files.Read(context.Background(), "2016-2017/1/bulletinModulesRaw.json", &raw))
	require.Len(t, raw, 2)

	// results of other years are kept under their own year
	require.NoError(t, svc.Files.Read(context.Background(), "2015-2016/1/bulletinModulesRaw.json", &raw))
	require.Len(t, raw, 1)

	var directory model.FacultyDepartments
	require.NoError(t, svc.Files.Read(context.Background(), "2016-2017/facultyDepartments.json", &directory))
	require.Equal(t, out.Directory, directory)
}

func TestBuildDirectory(t *testing.T) {
	svc := testutil.SetupSources(t, &testutil.Routes{})

	directory, _ := BuildDirectory([]model.BulletinModule{
		{Faculty: "Science", Department: "Mathematics"},
		{Faculty: "SCIENCE", Department: "Statistics and Applied Probability"},
		{Faculty: "Science", Department: "Statistics & Applied Probability"},
		{Faculty: "Arts and Social Sciences", Department: "nil"},
		{Faculty: "", Department: "Orphan"},
	}, svc.Env)

	require.Equal(t, model.FacultyDepartments{
		"Science":                  {"Mathematics", "Statistics & Applied Probability", "Statistics and Applied Probability"},
		"Arts and Social Sciences": {},
	}, directory)
}

func TestBuildDirectoryMergesCasing(t *testing.T) {
	svc := testutil.SetupSources(t, &testutil.Routes{})

	directory, _ := BuildDirectory([]model.BulletinModule{
		{Faculty: "computing", Department: "computer science"},
		{Faculty: "Computing", Department: "COMPUTER SCIENCE"},
	}, svc.Env)

	require.Equal(t, model.FacultyDepartments{"Computing": {"Computer Science"}}, directory)
	require.False(t, svc.Recorder.Has(telemetry.KindWarning, report_near_duplicate))
}

func TestNearDuplicates(t *testing.T) {
	svc := testutil.SetupSources(t, &testutil.Routes{})
	BuildDirectory([]model.BulletinModule{
		{Faculty: "Computing", Department: "Computer Science"},
		{Faculty: "Computing", Department: "Computer Sciences"},
	}, svc.Env)
	require.True(t, svc.Recorder.Has(telemetry.KindWarning, report_near_duplicate))
}

package ivle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"nusmods-scraper/internal/components/telemetry"
	"nusmods-scraper/internal/config"
	"nusmods-scraper/internal/model"
	"nusmods-scraper/internal/testutil"
)

func TestRun(t *testing.T) {
	routes := &testutil.Routes{Bodies: map[string]string{
		"/api/Modules_Search": `{"Results": [{"CourseCode": "X"}]}`,
	}}
	svc := testutil.SetupSources(t, routes)
	ctx := context.Background()

	reads := Reads{
		Bulletin: config.Output{DestFileName: "bulletinModulesRaw.json"},
		Cors:     config.Output{DestFileName: "corsRaw.json"},
		Exams:    config.Output{DestFileName: "examTimetableRaw.json"},
	}
	require.NoError(t, svc.Files.Write(ctx, "2016-2017/1/bulletinModulesRaw.json", []model.BulletinModule{
		{ModuleCode: "CS2030"},
		{ModuleCode: "CS1010"},
	}))
	require.NoError(t, svc.Files.Write(ctx, "2016-2017/1/corsRaw.json", []model.CorsModule{
		{ModuleCode: "CS1010 / CS1010E"},
	}))

	ivle := New(svc.Env, config.Ivle{
		Output:      config.Output{DestFileName: "ivleRaw.json"},
		Url:         svc.Server.URL + "/api/Modules_Search",
		Concurrency: 2,
	}, reads)

	codes, err := ivle.ModuleCodes(ctx, Input{AcadYear: 2016, Semester: 1})
	require.NoError(t, err)
	require.Equal(t, []string{"CS1010", "CS1010E", "CS2030"}, codes)
	// exam timetable was never written
	require.True(t, svc.Recorder.Has(telemetry.KindWarning, "missing-input"))

	results, err := ivle.Run(ctx, Input{AcadYear: 2016, Semester: 1})
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.Equal(t, 3, routes.Hits("/api/Modules_Search"))
	require.JSONEq(t, `[{"CourseCode": "X"}]`, string(results["CS2030"]))

	var raw model.IvleResults
	require.NoError(t, svc.Files.Read(ctx, "2016-2017/1/ivleRaw.json", &raw))
	require.Len(t, raw, 3)
}

package cors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"nusmods-scraper/internal/components/telemetry"
	"nusmods-scraper/internal/config"
	"nusmods-scraper/internal/model"
	"nusmods-scraper/internal/persist"
	"nusmods-scraper/internal/task"
	"nusmods-scraper/internal/testutil"
)

func setup(t *testing.T, bodies map[string]string) (Task, testutil.Service) {
	svc := testutil.SetupSources(t, &testutil.Routes{Bodies: bodies})
	cors := New(svc.Env, config.Cors{
		Output:          config.Output{DestFileName: "corsRaw.json"},
		RegularUrl:      svc.Server.URL + "/cors/",
		SpecialUrl:      svc.Server.URL + "/sts/",
		ModuleTypes:     []string{"Module", "GEM"},
		DestLessonTypes: "lessonTypes.json",
		Concurrency:     2,
	})
	return cors, svc
}

func TestRun(t *testing.T) {
	cors, svc := setup(t, map[string]string{
		"/cors/ModuleInfoListing.jsp": testutil.CorsListing("2016/2017", "1", "CS1010", "CS2030"),
		"/cors/GEMInfoListing.jsp":    testutil.CorsListing("2016/2017", "1", "GEH1001"),
		"/cors/CS1010.html":           testutil.CorsModulePage("CS1010", "28-11-2016 EVENING", []string{testutil.CorsLessonRow("1", "LECTURE")}, []string{testutil.CorsLessonRow("T01", "TUTORIAL")}),
		"/cors/CS2030.html":           testutil.CorsModulePage("CS2030", "No Exam Date.", []string{testutil.CorsLessonRow("1", "LECTURE")}, nil),
	})

	out, err := cors.Run(context.Background(), Input{Category: Regular})
	require.NoError(t, err)
	require.Equal(t, 2016, out.AcadYear)
	require.Equal(t, 1, out.Semester)

	// the page of GEH1001 is missing, it is dropped without failing the run
	require.Len(t, out.Modules, 2)
	require.True(t, svc.Recorder.Has(telemetry.KindBroken, "task.item"))

	cs1010 := out.Modules[0]
	require.Equal(t, "CS1010", cs1010.ModuleCode)
	require.Equal(t, "Module", cs1010.Type)
	require.Equal(t, "Computer Science", cs1010.Department)
	require.Equal(t, "PROGRAMMING METHODOLOGY", cs1010.ModuleTitle)
	require.Equal(t, "28-11-2016 EVENING", cs1010.ExamDate)
	require.Equal(t, "4", cs1010.ModuleCredit)
	require.Equal(t, "2-1-1-3-3", cs1010.Workload)
	require.Len(t, cs1010.Timetable, 2)
	require.Equal(t, "EVERY WEEK", cs1010.Timetable[0].WeekText)

	require.Equal(t, model.LessonTypes{"LECTURE": "Lecture", "TUTORIAL": "Tutorial"}, out.LessonTypes)

	var raw []model.CorsModule
	require.NoError(t, svc.Files.Read(context.Background(), "2016-2017/1/corsRaw.json", &raw))
	require.Len(t, raw, 2)

	require.Equal(t, []Observation{
		{ModuleCode: "CS1010", Description: "LECTURE", LessonType: "Lecture"},
		{ModuleCode: "CS1010", Description: "TUTORIAL", LessonType: "Tutorial"},
		{ModuleCode: "CS2030", Description: "LECTURE", LessonType: "Lecture"},
	}, out.Observations)

	// lesson types are only written once every listing is merged
	var lessonTypes model.LessonTypes
	err = svc.Files.Read(context.Background(), "lessonTypes.json", &lessonTypes)
	require.ErrorIs(t, err, persist.ErrNotFound)

	merged, err := cors.WriteLessonTypes(context.Background(), out)
	require.NoError(t, err)
	require.NoError(t, svc.Files.Read(context.Background(), "lessonTypes.json", &lessonTypes))
	require.Equal(t, out.LessonTypes, lessonTypes)
	require.Equal(t, merged, lessonTypes)
}

func TestWriteLessonTypesAcrossListings(t *testing.T) {
	cors, svc := setup(t, map[string]string{
		"/cors/ModuleInfoListing.jsp": testutil.CorsListing("2016/2017", "1", "CS1010"),
		"/cors/GEMInfoListing.jsp":    testutil.CorsListing("2016/2017", "1"),
		"/cors/CS1010.html":           testutil.CorsModulePage("CS1010", "No Exam Date.", []string{testutil.CorsLessonRow("1", "SECTIONAL TEACHING")}, nil),
		"/sts/ModuleInfoListing.jsp":  testutil.CorsListing("2016/2017", "3", "CS2030"),
		"/sts/GEMInfoListing.jsp":     testutil.CorsListing("2016/2017", "3"),
		"/sts/CS2030.html":            testutil.CorsModulePage("CS2030", "No Exam Date.", nil, []string{testutil.CorsLessonRow("1", "SECTIONAL TEACHING")}),
	})
	ctx := context.Background()
	require.NoError(t, svc.Files.Write(ctx, "lessonTypes.json", model.LessonTypes{"LECTURE": "Lecture"}))

	regular, err := cors.Run(ctx, Input{Category: Regular})
	require.NoError(t, err)
	special, err := cors.Run(ctx, Input{Category: Special})
	require.NoError(t, err)

	_, err = cors.WriteLessonTypes(ctx, regular, special)
	require.True(t, task.IsFatal(err))
	require.ErrorContains(t, err, "lessonTypes SECTIONAL TEACHING conflict: Lecture vs Tutorial")

	var lessonTypes model.LessonTypes
	require.NoError(t, svc.Files.Read(ctx, "lessonTypes.json", &lessonTypes))
	require.Equal(t, model.LessonTypes{"LECTURE": "Lecture"}, lessonTypes)

	merged, err := cors.WriteLessonTypes(ctx, regular)
	require.NoError(t, err)
	require.Equal(t, model.LessonTypes{"LECTURE": "Lecture", "SECTIONAL TEACHING": "Lecture"}, merged)
}

func TestLessonTypeConflict(t *testing.T) {
	cors, svc := setup(t, map[string]string{
		"/cors/ModuleInfoListing.jsp": testutil.CorsListing("2016/2017", "1", "CS1010", "CS2030"),
		"/cors/GEMInfoListing.jsp":    testutil.CorsListing("2016/2017", "1"),
		"/cors/CS1010.html":           testutil.CorsModulePage("CS1010", "No Exam Date.", []string{testutil.CorsLessonRow("1", "SECTIONAL TEACHING")}, nil),
		"/cors/CS2030.html":           testutil.CorsModulePage("CS2030", "No Exam Date.", nil, []string{testutil.CorsLessonRow("1", "SECTIONAL TEACHING")}),
	})

	_, err := cors.Run(context.Background(), Input{Category: Regular})
	require.Error(t, err)
	require.True(t, task.IsFatal(err))
	require.Contains(t, err.Error(), "lessonTypes SECTIONAL TEACHING conflict: Lecture vs Tutorial")

	// nothing is written for a run that failed
	require.Equal(t, 0, svc.Files.Writes())
}

func TestLessonTypeConflictWithPreviousRun(t *testing.T) {
	cors, svc := setup(t, map[string]string{
		"/cors/ModuleInfoListing.jsp": testutil.CorsListing("2016/2017", "1", "CS1010"),
		"/cors/GEMInfoListing.jsp":    testutil.CorsListing("2016/2017", "1"),
		"/cors/CS1010.html":           testutil.CorsModulePage("CS1010", "No Exam Date.", []string{testutil.CorsLessonRow("1", "LECTURE")}, nil),
	})
	require.NoError(t, svc.Files.Write(context.Background(), "lessonTypes.json", model.LessonTypes{"LECTURE": "Tutorial"}))

	_, err := cors.Run(context.Background(), Input{Category: Regular})
	require.ErrorContains(t, err, "lessonTypes LECTURE conflict: Tutorial vs Lecture")
}

func TestMissingLessonTypesWarns(t *testing.T) {
	cors, svc := setup(t, map[string]string{
		"/cors/ModuleInfoListing.jsp": testutil.CorsListing("2016/2017", "1"),
		"/cors/GEMInfoListing.jsp":    testutil.CorsListing("2016/2017", "1"),
	})
	_, err := cors.Run(context.Background(), Input{Category: Regular})
	require.NoError(t, err)
	require.True(t, svc.Recorder.Has(telemetry.KindWarning, "missing-input"))
}

func TestInvalidExamDate(t *testing.T) {
	cors, _ := setup(t, map[string]string{
		"/cors/ModuleInfoListing.jsp": testutil.CorsListing("2016/2017", "1", "CS1010"),
		"/cors/GEMInfoListing.jsp":    testutil.CorsListing("2016/2017", "1"),
		"/cors/CS1010.html":           testutil.CorsModulePage("CS1010", "32-13-2016 AM", nil, nil),
	})
	_, err := cors.Run(context.Background(), Input{Category: Regular})
	require.True(t, task.IsFatal(err))
	require.ErrorContains(t, err, "CS1010")
}

func TestDisagreeingListings(t *testing.T) {
	cors, _ := setup(t, map[string]string{
		"/cors/ModuleInfoListing.jsp": testutil.CorsListing("2016/2017", "1"),
		"/cors/GEMInfoListing.jsp":    testutil.CorsListing("2016/2017", "2"),
	})
	_, err := cors.Run(context.Background(), Input{Category: Regular})
	require.True(t, task.IsFatal(err))
	require.ErrorContains(t, err, "semester should only contain single piece of data")
}

func TestValidateExamDate(t *testing.T) {
	for _, valid := range []string{"No Exam Date.", "28-11-2016 AM", "1/12/2016 PM", "05-11-2020", "28-11-2016 EVENING"} {
		require.NoError(t, validateExamDate(valid), valid)
	}
	for _, invalid := range []string{"", "TBA", "28-11-16 AM", "31-02-2017 AM", "28-11-2016 NOON"} {
		require.Error(t, validateExamDate(invalid), invalid)
	}
}

package mapper

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"nusmods-scraper/internal/components/telemetry"
	"nusmods-scraper/internal/model"
	"nusmods-scraper/internal/task"
)

func semesterInput() SemesterInput {
	timetable := []model.CorsLesson{
		{ClassNo: "1", LessonType: "LECTURE", WeekText: "EVERY WEEK", DayText: "MONDAY", StartTime: "800", EndTime: "1000", Venue: "I3-AUD,"},
		{ClassNo: "T01", LessonType: "TUTORIAL", WeekText: "1,3,5-7", DayText: "WEDNESDAY", StartTime: "1400", EndTime: "1500", Venue: "COM1-0208", Size: "25"},
	}
	return SemesterInput{
		AcadYear: 2016,
		Semester: 1,
		Bulletin: []model.BulletinModule{{
			AcadYear:             "2016/2017",
			Semester:             "1",
			ModuleCode:           "CS1010",
			ModuleTitle:          "Programming Methodology",
			ModuleCredit:         "4",
			AcademicGroup:        "COM",
			AcademicOrganisation: "CS",
			Workload:             "2-1-1-3-3",
			Prerequisite:         "nil",
			ModuleAttributes: []model.CourseAttribute{
				{CourseAttribute: "SFS", CourseAttributeValue: "YES"},
				{CourseAttribute: "MPE", CourseAttributeValue: "S1"},
				{CourseAttribute: "LABB", CourseAttributeValue: "NO"},
			},
		}},
		Cors: []model.CorsModule{{
			Type:         "Module",
			ModuleCode:   "CS1010 / CS1010E",
			ModuleTitle:  "PROGRAMMING METHODOLOGY",
			Department:   "COMPUTER SCIENCE",
			ExamDate:     "25/11/2016 PM",
			ModuleCredit: "4",
			Timetable:    timetable,
		}},
		Bidding: []model.BiddingStat{
			{AcadYear: "2016/2017", Semester: "1", ModuleCode: "ZZ1000"},
		},
		Exams: []model.ExamRecord{
			{Date: "28/11/2016", Time: "1:00 PM", ModuleCode: "CS1010"},
		},
		LessonTypes: model.LessonTypes{"LECTURE": "Lecture", "TUTORIAL": "Tutorial"},
		Directory:   model.FacultyDepartments{"Computing": {"Computer Science"}},
		Codes: model.OrganisationCodes{
			Faculties:   model.FacultyCodeMap{"COM": "COMPUTING"},
			Departments: model.DepartmentCodeMap{"CS": "COMPUTER SCIENCE"},
		},
	}
}

func TestConsolidateSemester(t *testing.T) {
	recorder := telemetry.NewRecorder()
	out, err := New(recorder).ConsolidateSemester(semesterInput())
	require.NoError(t, err)
	require.Len(t, out.Modules, 2)

	cs1010 := out.Modules[0]
	require.Equal(t, "CS1010", cs1010.Module.ModuleCode)
	require.Equal(t, "2016/2017", cs1010.Module.AcadYear)
	require.Equal(t, "Programming Methodology", cs1010.Module.Title)
	require.Equal(t, "Computer Science", cs1010.Module.Department)
	require.Equal(t, "Computing", cs1010.Module.Faculty)
	require.Equal(t, "", cs1010.Module.Prerequisite)
	require.Equal(t, []float64{2, 1, 1, 3, 3}, cs1010.Module.Workload.Hours)
	require.Equal(t, map[string]bool{"sfs": true, "mpes1": true}, cs1010.Module.Attributes)
	require.Equal(t, []string{"CS1010E"}, cs1010.Module.Aliases)
	// the exam timetable wins over the cors exam cell
	require.Equal(t, "2016-11-28T13:00+0800", cs1010.SemesterData.ExamDate)

	lessons := cs1010.SemesterData.Timetable
	require.Len(t, lessons, 2)
	require.Equal(t, model.RawLesson{
		ClassNo:    "1",
		LessonType: "Lecture",
		Weeks:      model.Weeks{Range: &model.WeekRange{Start: 1, End: 13, Interval: 1}},
		Day:        "Monday",
		StartTime:  "0800",
		EndTime:    "1000",
		Venue:      "I3-AUD",
	}, lessons[0])
	require.Equal(t, []int{1, 3, 5, 6, 7}, lessons[1].Weeks.List)
	require.Equal(t, 25, lessons[1].Size)

	cs1010e := out.Modules[1]
	require.Equal(t, "CS1010E", cs1010e.Module.ModuleCode)
	require.Equal(t, "Programming Methodology", cs1010e.Module.Title)
	require.Equal(t, "Computing", cs1010e.Module.Faculty)
	require.Equal(t, []string{"CS1010"}, cs1010e.Module.Aliases)
	// friday afternoon paper
	require.Equal(t, "2016-11-25T14:30+0800", cs1010e.SemesterData.ExamDate)

	require.Equal(t, []string{"COM1-0208", "I3-AUD"}, out.VenueList)
	auditorium := out.Venues["I3-AUD"]
	require.Len(t, auditorium, 1)
	require.Equal(t, "Monday", auditorium[0].Day)
	require.Len(t, auditorium[0].Classes, 1)
	require.Equal(t, "CS1010/CS1010E", auditorium[0].Classes[0].ModuleCode)
	require.Equal(t, map[string]string{
		"0800": model.Occupied,
		"0830": model.Occupied,
		"0900": model.Occupied,
		"0930": model.Occupied,
	}, auditorium[0].Availability)

	require.True(t, recorder.Has(telemetry.KindWarning, report_excluded))
	require.False(t, recorder.Has(telemetry.KindWarning, report_missing_type))
	count, ok := recorder.LastCount(report_consolidated)
	require.True(t, ok)
	require.EqualValues(t, 2, count)
}

func TestConsolidateAuxiliarySources(t *testing.T) {
	in := semesterInput()
	in.Ivle = model.IvleResults{
		"CS1010": json.RawMessage(`[{"Lecturers": [
			{"Role": "Lecturer", "User": {"Name": "Ben Leong"}},
			{"Role": " Co-Lecturer ", "User": {"Name": "Aaron  Tan"}},
			{"Role": "Teaching Assistant", "User": {"Name": "Someone Else"}}
		]}]`),
	}
	in.Bidding = append(in.Bidding, model.BiddingStat{
		AcadYear:        "2016/2017",
		Semester:        "1",
		Round:           "1A",
		ModuleCode:      "CS1010",
		Quota:           100,
		Faculty:         "COMPUTING",
		StudentAcctType: "Returning Students<br> [P]",
	})

	recorder := telemetry.NewRecorder()
	out, err := New(recorder).ConsolidateSemester(in)
	require.NoError(t, err)

	cs1010 := out.Modules[0].SemesterData
	require.Equal(t, []string{"Ben Leong", "Aaron Tan"}, cs1010.Lecturers)
	require.True(t, recorder.Has(telemetry.KindWarning, report_lecturer_role))
	require.JSONEq(t, string(in.Ivle["CS1010"]), string(cs1010.Ivle))
	require.Equal(t, []string{"Monday Morning"}, cs1010.LecturePeriods)
	require.Equal(t, []string{"Wednesday Afternoon"}, cs1010.TutorialPeriods)
	require.Len(t, cs1010.CorsBiddingStats, 1)
	require.Equal(t, "Computing", cs1010.CorsBiddingStats[0].Faculty)
	require.Equal(t, "Returning Students [P]", cs1010.CorsBiddingStats[0].StudentAcctType)
	require.Equal(t, 100, cs1010.CorsBiddingStats[0].Quota)

	// the cross listed code shares the timetable but nothing else
	cs1010e := out.Modules[1].SemesterData
	require.Equal(t, []string{"Monday Morning"}, cs1010e.LecturePeriods)
	require.Empty(t, cs1010e.Lecturers)
	require.Empty(t, cs1010e.CorsBiddingStats)
	require.Nil(t, cs1010e.Ivle)
}

func TestLessonPeriods(t *testing.T) {
	lessonTypes := model.LessonTypes{"SECTIONAL TEACHING": "Lecture", "TUTORIAL": "Tutorial"}
	lectures, tutorials := lessonPeriods([]model.RawLesson{
		{LessonType: "Sectional Teaching", Day: "Friday", StartTime: "1800"},
		{LessonType: "Sectional Teaching", Day: "Friday", StartTime: "1900"},
		{LessonType: "Tutorial", Day: "Tuesday", StartTime: "1159"},
		{LessonType: "Tutorial", Day: "Tuesday", StartTime: "1200"},
		{LessonType: "Laboratory", Day: "Monday", StartTime: "0800"},
	}, lessonTypes)
	require.Equal(t, []string{"Friday Evening"}, lectures)
	require.Equal(t, []string{"Tuesday Morning", "Tuesday Afternoon"}, tutorials)

	lectures, tutorials = lessonPeriods(nil, lessonTypes)
	require.Empty(t, lectures)
	require.Empty(t, tutorials)
}

func TestDualCodedAliases(t *testing.T) {
	lesson := model.CorsLesson{ClassNo: "1", LessonType: "LECTURE", WeekText: "EVERY WEEK", DayText: "TUESDAY", StartTime: "1000", EndTime: "1200", Venue: "LT19"}
	other := lesson
	other.DayText = "FRIDAY"

	in := SemesterInput{
		AcadYear: 2016,
		Semester: 1,
		Cors: []model.CorsModule{
			{ModuleCode: "ACC1002", ModuleTitle: "Financial Accounting", Timetable: []model.CorsLesson{lesson}},
			{ModuleCode: "ACC1002X", ModuleTitle: "Financial Accounting", Timetable: []model.CorsLesson{lesson}},
			// same slot, different course
			{ModuleCode: "EC1301", ModuleTitle: "Principles of Economics", Timetable: []model.CorsLesson{lesson, other}},
		},
		LessonTypes: model.LessonTypes{"LECTURE": "Lecture"},
	}

	out, err := New(telemetry.NewRecorder()).ConsolidateSemester(in)
	require.NoError(t, err)
	require.Equal(t, model.Aliases{
		"ACC1002":  {"ACC1002X"},
		"ACC1002X": {"ACC1002"},
	}, out.Aliases)

	venue := out.Venues["LT19"]
	require.Len(t, venue, 2)
	require.Equal(t, "Tuesday", venue[0].Day)
	require.Equal(t, "Friday", venue[1].Day)

	var codes []string
	for _, class := range venue[0].Classes {
		codes = append(codes, class.ModuleCode)
	}
	require.ElementsMatch(t, []string{"ACC1002/ACC1002X", "EC1301"}, codes)
}

func TestConsolidateRejectsMixedRuns(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(in *SemesterInput)
	}{
		{
			name: "bulletin rows disagree",
			mutate: func(in *SemesterInput) {
				in.Bulletin = append(in.Bulletin, model.BulletinModule{AcadYear: "2016/2017", Semester: "2", ModuleCode: "CS2030"})
			},
		},
		{
			name: "bidding from another year",
			mutate: func(in *SemesterInput) {
				in.Bidding[0].AcadYear = "2015/2016"
			},
		},
	}

	for _, test := range cases {
		in := semesterInput()
		test.mutate(&in)
		_, err := New(telemetry.NewRecorder()).ConsolidateSemester(in)
		require.Error(t, err, test.name)
		require.True(t, task.IsFatal(err), test.name)
	}
}

func TestUnknownLessonType(t *testing.T) {
	in := semesterInput()
	in.LessonTypes = model.LessonTypes{"LECTURE": "Lecture"}

	recorder := telemetry.NewRecorder()
	_, err := New(recorder).ConsolidateSemester(in)
	require.NoError(t, err)
	require.True(t, recorder.Has(telemetry.KindWarning, report_missing_type))
}

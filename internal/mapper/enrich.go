package mapper

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"nusmods-scraper/internal/model"
	"nusmods-scraper/lib/textutil"
)

var lecturerRoles = []string{"Lecturer", "Co-Lecturer", "Visiting Professor"}

// ivleModule is the part of an IVLE search result read by the mapper.
type ivleModule struct {
	Lecturers []struct {
		Role string
		User struct {
			Name string
		}
	}
}

// lecturers lists the teaching staff of the IVLE results of a module,
// other roles are reported and skipped.
func (m Mapper) lecturers(code string, raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var results []ivleModule
	err := json.Unmarshal(raw, &results)
	if err != nil {
		m.tel.ReportWarning(report_ivle, err, code)
		return nil
	}

	var names []string
	for _, result := range results {
		for _, lecturer := range result.Lecturers {
			role := strings.TrimSpace(lecturer.Role)
			if !slices.Contains(lecturerRoles, role) {
				m.tel.ReportWarning(report_lecturer_role, fmt.Sprintf("%s not recognised", role), code)
				continue
			}
			name := textutil.Clean(lecturer.User.Name)
			if name != "" && !slices.Contains(names, name) {
				names = append(names, name)
			}
		}
	}
	return names
}

func dayPeriod(start string) string {
	switch {
	case start < "1200":
		return "Morning"
	case start < "1800":
		return "Afternoon"
	}
	return "Evening"
}

// lessonPeriods buckets the lessons into lecture and tutorial slots by
// their lesson type classification.
func lessonPeriods(timetable []model.RawLesson, lessonTypes model.LessonTypes) (lectures, tutorials []string) {
	for _, l := range timetable {
		slot := l.Day + " " + dayPeriod(l.StartTime)
		switch lessonTypes[strings.ToUpper(l.LessonType)] {
		case "Lecture":
			if !slices.Contains(lectures, slot) {
				lectures = append(lectures, slot)
			}
		case "Tutorial":
			if !slices.Contains(tutorials, slot) {
				tutorials = append(tutorials, slot)
			}
		}
	}
	return lectures, tutorials
}

// biddingStats groups the closed rounds by module code.
func biddingStats(stats []model.BiddingStat) map[string][]model.BiddingStat {
	byCode := map[string][]model.BiddingStat{}
	for _, s := range stats {
		s.Group = textutil.Titleize(s.Group)
		s.Faculty = textutil.Titleize(s.Faculty)
		s.StudentAcctType = strings.TrimSpace(strings.ReplaceAll(s.StudentAcctType, "<br>", ""))
		byCode[s.ModuleCode] = append(byCode[s.ModuleCode], s)
	}
	return byCode
}

package mapper

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"nusmods-scraper/internal/model"
	"nusmods-scraper/lib/textutil"
)

// teachingWeeks is the number of teaching weeks of a regular semester.
const teachingWeeks = 13

var venueSuffixRegex = regexp.MustCompile(`(?:^null)?,$`)

func padTime(t string) string {
	t = strings.ReplaceAll(strings.TrimSpace(t), ":", "")
	if len(t) >= 4 {
		return t
	}
	return strings.Repeat("0", 4-len(t)) + t
}

func cleanVenue(venue string) string {
	venue = strings.TrimSpace(venue)
	return strings.TrimSpace(venueSuffixRegex.ReplaceAllString(venue, ""))
}

// parseWeeks reads the week text of a cors lesson: "EVERY WEEK", "ODD
// WEEK", "EVEN WEEK", or a list of weeks and week ranges such as
// "1,3,5-7".
func parseWeeks(text string) (model.Weeks, error) {
	text = strings.ToUpper(textutil.NormalizeWhitespace(strings.ReplaceAll(text, "&nbsp;", " ")))
	switch text {
	case "", "EVERY WEEK":
		return model.Weeks{Range: &model.WeekRange{Start: 1, End: teachingWeeks, Interval: 1}}, nil
	case "ODD WEEK", "ODD WEEKS":
		return model.Weeks{Range: &model.WeekRange{Start: 1, End: teachingWeeks, Interval: 2}}, nil
	case "EVEN WEEK", "EVEN WEEKS":
		return model.Weeks{Range: &model.WeekRange{Start: 2, End: teachingWeeks - 1, Interval: 2}}, nil
	}

	var weeks []int
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		bounds := strings.SplitN(part, "-", 2)
		start, err := strconv.Atoi(strings.TrimSpace(bounds[0]))
		if err != nil {
			return model.Weeks{}, fmt.Errorf("unknown week text %q", text)
		}
		end := start
		if len(bounds) == 2 {
			end, err = strconv.Atoi(strings.TrimSpace(bounds[1]))
			if err != nil || end < start {
				return model.Weeks{}, fmt.Errorf("unknown week text %q", text)
			}
		}
		for week := start; week <= end; week++ {
			weeks = append(weeks, week)
		}
	}
	slices.Sort(weeks)
	return model.Weeks{List: slices.Compact(weeks)}, nil
}

func (m Mapper) lessons(code string, raw []model.CorsLesson, lessonTypes model.LessonTypes) []model.RawLesson {
	out := make([]model.RawLesson, 0, len(raw))
	for _, l := range raw {
		if _, ok := lessonTypes[l.LessonType]; !ok {
			m.tel.ReportWarning(report_missing_type, code, l.LessonType)
		}
		weeks, err := parseWeeks(l.WeekText)
		if err != nil {
			m.tel.ReportWarning(report_weeks, err, code)
		}

		lesson := model.RawLesson{
			ClassNo:    strings.TrimSpace(l.ClassNo),
			LessonType: textutil.Titleize(l.LessonType),
			Weeks:      weeks,
			Day:        textutil.Titleize(l.DayText),
			StartTime:  padTime(l.StartTime),
			EndTime:    padTime(l.EndTime),
			Venue:      cleanVenue(l.Venue),
		}
		if size, err := strconv.Atoi(strings.TrimSpace(l.Size)); err == nil {
			lesson.Size = size
		}
		out = append(out, lesson)
	}
	return out
}

func covidZones(lessons []model.RawLesson) []string {
	var zones []string
	for _, l := range lessons {
		if l.CovidZone != "" && !slices.Contains(zones, l.CovidZone) {
			zones = append(zones, l.CovidZone)
		}
	}
	slices.Sort(zones)
	return zones
}

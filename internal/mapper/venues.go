package mapper

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"nusmods-scraper/internal/model"
)

var dayOrder = map[string]int{
	"Monday": 0, "Tuesday": 1, "Wednesday": 2, "Thursday": 3,
	"Friday": 4, "Saturday": 5, "Sunday": 6,
}

func minutes(hhmm string) (int, error) {
	if len(hhmm) != 4 {
		return 0, fmt.Errorf("invalid time %q", hhmm)
	}
	value, err := strconv.Atoi(hhmm)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q", hhmm)
	}
	return value/100*60 + value%100, nil
}

// timeRange returns the start of every half hour slot in [start, end).
func timeRange(start, end string) []string {
	from, err := minutes(start)
	if err != nil {
		return nil
	}
	to, err := minutes(end)
	if err != nil {
		return nil
	}
	var slots []string
	for t := from; t < to; t += 30 {
		slots = append(slots, fmt.Sprintf("%02d%02d", t/60, t%60))
	}
	return slots
}

type slotKey struct {
	venue string
	day   string
	start string
	end   string
	weeks string
}

// venues groups every lesson by the venue it takes place in. Lessons of
// modules with the same title that occupy a venue at exactly the same
// time are one dual coded lesson: the modules are linked in aliases and
// the lesson is listed once under the joined code.
func (m Mapper) venues(modules []SemesterModule, aliases aliasSet) model.VenueInfo {
	titles := map[string]string{}
	slots := map[slotKey][]model.VenueLesson{}
	var order []slotKey

	for _, module := range modules {
		code := module.Module.ModuleCode
		titles[code] = module.Module.Title
		for _, l := range module.SemesterData.Timetable {
			if l.Venue == "" {
				continue
			}
			key := slotKey{venue: l.Venue, day: l.Day, start: l.StartTime, end: l.EndTime, weeks: l.Weeks.Key()}
			if _, ok := slots[key]; !ok {
				order = append(order, key)
			}
			slots[key] = append(slots[key], model.VenueLesson{
				ModuleCode: code,
				ClassNo:    l.ClassNo,
				LessonType: l.LessonType,
				Weeks:      l.Weeks,
				Day:        l.Day,
				StartTime:  l.StartTime,
				EndTime:    l.EndTime,
				Size:       l.Size,
			})
		}
	}

	byVenue := map[string]map[string][]model.VenueLesson{}
	for _, key := range order {
		lessons := mergeDualCoded(slots[key], titles, aliases)
		if byVenue[key.venue] == nil {
			byVenue[key.venue] = map[string][]model.VenueLesson{}
		}
		byVenue[key.venue][key.day] = append(byVenue[key.venue][key.day], lessons...)
	}

	info := model.VenueInfo{}
	for venue, days := range byVenue {
		var availability []model.DayAvailability
		for day, classes := range days {
			slices.SortStableFunc(classes, func(a, b model.VenueLesson) int {
				return strings.Compare(a.StartTime+a.ModuleCode, b.StartTime+b.ModuleCode)
			})
			occupied := map[string]string{}
			for _, class := range classes {
				for _, slot := range timeRange(class.StartTime, class.EndTime) {
					occupied[slot] = model.Occupied
				}
			}
			availability = append(availability, model.DayAvailability{
				Day:          day,
				Classes:      classes,
				Availability: occupied,
			})
		}
		slices.SortFunc(availability, func(a, b model.DayAvailability) int {
			return dayRank(a.Day) - dayRank(b.Day)
		})
		info[venue] = availability
	}
	return info
}

func dayRank(day string) int {
	if rank, ok := dayOrder[day]; ok {
		return rank
	}
	return len(dayOrder)
}

// mergeDualCoded collapses lessons sharing one slot whose modules carry
// the same title. Distinct classes of a single module are kept apart.
func mergeDualCoded(lessons []model.VenueLesson, titles map[string]string, aliases aliasSet) []model.VenueLesson {
	var codes []string
	for _, l := range lessons {
		if !slices.Contains(codes, l.ModuleCode) {
			codes = append(codes, l.ModuleCode)
		}
	}
	if len(codes) < 2 {
		return lessons
	}

	var merged []string
	for _, code := range codes {
		for _, other := range codes {
			if code >= other || titles[code] == "" || titles[code] != titles[other] {
				continue
			}
			aliases.link(code, other)
			for _, c := range []string{code, other} {
				if !slices.Contains(merged, c) {
					merged = append(merged, c)
				}
			}
		}
	}
	if len(merged) == 0 {
		return lessons
	}
	slices.Sort(merged)

	joined := strings.Join(merged, "/")
	out := make([]model.VenueLesson, 0, len(lessons))
	for _, l := range lessons {
		switch {
		case !slices.Contains(merged, l.ModuleCode):
			out = append(out, l)
		case l.ModuleCode == merged[0]:
			l.ModuleCode = joined
			out = append(out, l)
		}
	}
	return out
}

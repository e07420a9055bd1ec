package mapper

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"nusmods-scraper/lib/timezone"
)

var (
	calendarDateRegex = regexp.MustCompile(`^(\d{1,2})\W(\d{1,2})\W(\d{4})$`)
	clockRegex        = regexp.MustCompile(`^(\d{1,2})(?::?(\d{2}))?\s*([AP]M)$`)
)

// examLayout renders an exam start in Singapore time.
const examLayout = "2006-01-02T15:04-0700"

func parseCalendarDate(date string) (time.Time, error) {
	match := calendarDateRegex.FindStringSubmatch(strings.TrimSpace(date))
	if match == nil {
		return time.Time{}, fmt.Errorf("invalid exam date %q", date)
	}
	day, _ := strconv.Atoi(match[1])
	month, _ := strconv.Atoi(match[2])
	year, _ := strconv.Atoi(match[3])
	t, ok := timezone.Date(year, time.Month(month), day)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid exam date %q", date)
	}
	return t, nil
}

// examDate combines an exam timetable date "D/M/YYYY" and time "9:00 AM".
func examDate(date, clock string) (string, error) {
	t, err := parseCalendarDate(date)
	if err != nil {
		return "", err
	}
	match := clockRegex.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(clock)))
	if match == nil {
		return "", fmt.Errorf("invalid exam time %q", clock)
	}
	hour, _ := strconv.Atoi(match[1])
	minute := 0
	if match[2] != "" {
		minute, _ = strconv.Atoi(match[2])
	}
	if hour < 1 || hour > 12 || minute > 59 {
		return "", fmt.Errorf("invalid exam time %q", clock)
	}
	hour %= 12
	if match[3] == "PM" {
		hour += 12
	}
	return t.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute).Format(examLayout), nil
}

// corsExamDate reads the exam cell of a cors page, "5/11/2016 PM". Friday
// afternoon papers start at 14:30.
func (m Mapper) corsExamDate(code, text string) string {
	text = strings.TrimSpace(text)
	if text == "" || text == "No Exam Date." {
		return ""
	}
	parts := strings.Fields(text)
	t, err := parseCalendarDate(parts[0])
	if err != nil {
		m.tel.ReportWarning(report_exam_time, err, code)
		return ""
	}

	session := ""
	if len(parts) == 2 {
		session = parts[1]
	}
	switch session {
	case "AM":
		t = t.Add(9 * time.Hour)
	case "PM":
		if t.Weekday() == time.Friday {
			t = t.Add(14*time.Hour + 30*time.Minute)
		} else {
			t = t.Add(13 * time.Hour)
		}
	case "EVENING":
		t = t.Add(17 * time.Hour)
	default:
		m.tel.ReportWarning(report_exam_time, fmt.Errorf("unexpected exam time %q", text), code)
	}
	return t.Format(examLayout)
}

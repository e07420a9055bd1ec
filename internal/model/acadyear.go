// Package model holds the canonical NUSMods data model along with the
// source-local shapes each upstream emits before mapping.
package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Semesters 1 and 2 are regular semesters, 3 and 4 are special terms.
var Semesters = []int{1, 2, 3, 4}

var acadYearRegex = regexp.MustCompile(`^(\d{4})\W(\d{4})$`)

// FormatAcadYear renders the academic year beginning in start, e.g.
// "2016/2017".
func FormatAcadYear(start int) string {
	return fmt.Sprintf("%d/%d", start, start+1)
}

// ParseAcadYear accepts "2016/2017", "2016-2017" or any other single
// non-word separator and returns the starting year.
func ParseAcadYear(s string) (int, error) {
	match := acadYearRegex.FindStringSubmatch(strings.TrimSpace(s))
	if match == nil {
		return 0, fmt.Errorf("invalid academic year %q", s)
	}
	start, _ := strconv.Atoi(match[1])
	end, _ := strconv.Atoi(match[2])
	if end != start+1 {
		return 0, fmt.Errorf("invalid academic year %q: %d does not follow %d", s, end, start)
	}
	return start, nil
}

// AcadYearDir is the directory name of an academic year, "2016-2017".
func AcadYearDir(start int) string {
	return fmt.Sprintf("%d-%d", start, start+1)
}

func ValidSemester(semester int) bool {
	return semester >= 1 && semester <= 4
}

package testutil

import (
	"fmt"
	"strings"
)

// CorsListing renders a module listing page of the given academic year
// and semester linking to "<code>.html" for every code.
func CorsListing(year, semester string, codes ...string) string {
	var rows strings.Builder
	for _, code := range codes {
		fmt.Fprintf(&rows, `<tr valign="top"><td><div><a href="%s.html">%s</a></div></td><td><div>Computer Science</div></td></tr>`, code, code)
	}
	return fmt.Sprintf(`<html><body>
<h2>Module Information Listing for Academic Year: %s Semester: %s</h2>
<table>%s</table>
</body></html>`, year, semester, rows.String())
}

func CorsLessonRow(classNo, lessonType string) string {
	return fmt.Sprintf(
		"<tr><td>%s</td><td>%s</td><td>EVERY&nbsp;WEEK</td><td>MONDAY</td><td>1000</td><td>1200</td><td>LT19</td></tr>",
		classNo, lessonType,
	)
}

const corsLessonHeader = "<tr><td>Class</td><td>Type</td><td>Week</td><td>Day</td><td>Start</td><td>End</td><td>Venue</td></tr>"

// CorsModulePage renders a module detail page whose first timetable table
// holds lectures and second holds tutorials.
func CorsModulePage(code, examDate string, lectures, tutorials []string) string {
	return fmt.Sprintf(`<html><body>
<h2>Correct as at 10-08-2016</h2>
<table class="tableframe">
<tr><td>Module Code :</td><td>%s</td></tr>
<tr><td>Module Title :</td><td>PROGRAMMING METHODOLOGY</td></tr>
<tr><td>Module Description :</td><td>This module introduces programming.</td></tr>
<tr><td>Cross Faculty :</td><td>No</td></tr>
<tr><td>Exam Date :</td><td>%s</td></tr>
<tr><td>Modular Credits :</td><td>4</td></tr>
<tr><td>Prerequisite :</td><td>Nil</td></tr>
<tr><td>Preclusion :</td><td>CS1010E</td></tr>
<tr><td>Workload :</td><td>2-1-1-3-3</td></tr>
</table>
<table class="tableframe">
<tr><td><table>%s%s</table></td></tr>
<tr><td><table>%s%s</table></td></tr>
</table>
</body></html>`, code, examDate, corsLessonHeader, strings.Join(lectures, ""), corsLessonHeader, strings.Join(tutorials, ""))
}

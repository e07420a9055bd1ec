package mapper

import (
	"testing"

	"github.com/stretchr/testify/require"

	"nusmods-scraper/internal/components/telemetry"
	"nusmods-scraper/internal/model"
)

func TestParseWorkload(t *testing.T) {
	cases := []struct {
		in    string
		hours []float64
	}{
		{in: "2-1-0-8-2", hours: []float64{2, 1, 0, 8, 2}},
		{in: "2.5-0.5-0-3-4", hours: []float64{2.5, 0.5, 0, 3, 4}},
		{in: "NA-NA-NA-NA-10", hours: []float64{0, 0, 0, 0, 10}},
		{in: "3-0-0-5-3 (tentative)", hours: []float64{3, 0, 0, 5, 3}},
		{in: "3(sectional)-0-0-4-3", hours: []float64{3, 0, 0, 4, 3}},
		{in: "2‐1‐0‐2‐5", hours: []float64{2, 1, 0, 2, 5}},
		{in: "2-2-2-2-3-4"},
		{in: "2-4-5-4"},
		{in: "approximately 120 hours of independent study"},
	}

	for _, test := range cases {
		workload := parseWorkload(test.in)
		require.NotNil(t, workload, test.in)
		if test.hours == nil {
			require.Nil(t, workload.Hours, test.in)
			require.Equal(t, test.in, workload.Text)
			continue
		}
		require.Equal(t, test.hours, workload.Hours, test.in)
	}
	require.Nil(t, parseWorkload(""))
}

func TestParseWeeks(t *testing.T) {
	cases := []struct {
		in       string
		expected []int
		fails    bool
	}{
		{in: "EVERY WEEK", expected: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13}},
		{in: "ODD&nbsp;WEEK", expected: []int{1, 3, 5, 7, 9, 11, 13}},
		{in: "EVEN WEEK", expected: []int{2, 4, 6, 8, 10, 12}},
		{in: "1,2,3", expected: []int{1, 2, 3}},
		{in: "5-7, 1", expected: []int{1, 5, 6, 7}},
		{in: "ORIENTATION WEEK", fails: true},
		{in: "7-5", fails: true},
	}

	for _, test := range cases {
		weeks, err := parseWeeks(test.in)
		if test.fails {
			require.Error(t, err, test.in)
			continue
		}
		require.NoError(t, err, test.in)
		require.Equal(t, test.expected, weeks.Expand(), test.in)
	}
}

func TestExamDates(t *testing.T) {
	cases := []struct {
		date, clock string
		expected    string
		fails       bool
	}{
		{date: "28/11/2016", clock: "1:00 PM", expected: "2016-11-28T13:00+0800"},
		{date: "5/11/2020", clock: "9:00AM", expected: "2020-11-05T09:00+0800"},
		{date: "05-11-2020", clock: "0230PM", expected: "2020-11-05T14:30+0800"},
		{date: "5/11/2020", clock: "12:00 PM", expected: "2020-11-05T12:00+0800"},
		{date: "32/13/2020", clock: "9:00 AM", fails: true},
		{date: "5/11/2020", clock: "noon", fails: true},
	}
	for _, test := range cases {
		date, err := examDate(test.date, test.clock)
		if test.fails {
			require.Error(t, err, test.date)
			continue
		}
		require.NoError(t, err, test.date)
		require.Equal(t, test.expected, date)
	}

	m := New(telemetry.NewRecorder())
	require.Equal(t, "", m.corsExamDate("CS1010", "No Exam Date."))
	require.Equal(t, "2016-11-24T09:00+0800", m.corsExamDate("CS1010", "24/11/2016 AM"))
	require.Equal(t, "2016-11-24T13:00+0800", m.corsExamDate("CS1010", "24/11/2016 PM"))
	require.Equal(t, "2016-11-25T14:30+0800", m.corsExamDate("CS1010", "25/11/2016 PM"))
	require.Equal(t, "2016-11-24T17:00+0800", m.corsExamDate("CS1010", "24/11/2016 EVENING"))
}

func TestAttributes(t *testing.T) {
	recorder := telemetry.NewRecorder()
	m := New(recorder)

	attributes := m.attributes("CS1010", []model.CourseAttribute{
		{CourseAttribute: "YEAR", CourseAttributeValue: "YES"},
		{CourseAttribute: "NPRY", CourseAttributeValue: "HT"},
		{CourseAttribute: "MPE", CourseAttributeValue: "S1&S2"},
		{CourseAttribute: "UNKNOWN", CourseAttributeValue: "YES"},
	})
	require.Equal(t, map[string]bool{"year": true, "su": true, "mpes1": true, "mpes2": true}, attributes)
	require.False(t, recorder.Has(telemetry.KindWarning, report_attribute))

	m.attributes("CS1010", []model.CourseAttribute{{CourseAttribute: "LABB", CourseAttributeValue: "MAYBE"}})
	require.True(t, recorder.Has(telemetry.KindWarning, report_attribute))
	require.Nil(t, m.attributes("CS1010", nil))
}

func TestTimeRange(t *testing.T) {
	require.Equal(t, []string{"0800", "0830", "0900", "0930"}, timeRange("0800", "1000"))
	require.Equal(t, []string{"1830"}, timeRange("1830", "1900"))
	require.Nil(t, timeRange("1000", "1000"))
	require.Nil(t, timeRange("10", "1100"))
}

func TestCleanVenue(t *testing.T) {
	require.Equal(t, "I3-AUD", cleanVenue("I3-AUD,"))
	require.Equal(t, "", cleanVenue("null,"))
	require.Equal(t, "COM1-0208", cleanVenue(" COM1-0208 "))
}

package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAcadYear(t *testing.T) {
	cases := []struct {
		in       string
		expected int
		fails    bool
	}{
		{in: "2016/2017", expected: 2016},
		{in: "2016-2017", expected: 2016},
		{in: " 2018/2019 ", expected: 2018},
		{in: "2016/2018", fails: true},
		{in: "16/17", fails: true},
	}

	for _, test := range cases {
		start, err := ParseAcadYear(test.in)
		if test.fails {
			require.Error(t, err, test.in)
			continue
		}
		require.NoError(t, err, test.in)
		require.Equal(t, test.expected, start)
	}

	require.Equal(t, "2016/2017", FormatAcadYear(2016))
	require.Equal(t, "2016-2017", AcadYearDir(2016))
}

func TestWeeksJSON(t *testing.T) {
	every := Weeks{Range: &WeekRange{Start: 1, End: 13, Interval: 1}}
	data, err := json.Marshal(every)
	require.NoError(t, err)
	require.JSONEq(t, `{"start":1,"end":13}`, string(data))

	var decoded Weeks
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, every, decoded)

	odd := Weeks{List: []int{1, 3, 5}}
	data, err = json.Marshal(odd)
	require.NoError(t, err)
	require.Equal(t, "[1,3,5]", string(data))

	data, err = json.Marshal(Weeks{})
	require.NoError(t, err)
	require.Equal(t, "[]", string(data))
}

func TestWeeksKey(t *testing.T) {
	interval := Weeks{Range: &WeekRange{Start: 1, End: 5, Interval: 2}}
	list := Weeks{List: []int{1, 3, 5}}
	require.Equal(t, list.Key(), interval.Key())
	require.Equal(t, "1,3,5", list.Key())
}

func TestPrereqTreeJSON(t *testing.T) {
	tree := PrereqTree{And: []PrereqTree{
		{Module: "CS1010"},
		{Or: []PrereqTree{{Module: "MA1101R"}, {Module: "MA1506"}}},
	}}

	data, err := json.Marshal(tree)
	require.NoError(t, err)
	require.JSONEq(t, `{"and":["CS1010",{"or":["MA1101R","MA1506"]}]}`, string(data))

	var decoded PrereqTree
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, tree, decoded)
	require.Equal(t, []string{"CS1010", "MA1101R", "MA1506"}, decoded.Modules())

	require.Error(t, json.Unmarshal([]byte(`{"and":["A"],"or":["B"]}`), &decoded))
}

func TestWorkloadJSON(t *testing.T) {
	data, err := json.Marshal(Workload{Hours: []float64{2, 1, 1, 3, 3}})
	require.NoError(t, err)
	require.Equal(t, "[2,1,1,3,3]", string(data))

	data, err = json.Marshal(Workload{Text: "varies"})
	require.NoError(t, err)
	require.Equal(t, `"varies"`, string(data))

	var decoded Workload
	require.NoError(t, json.Unmarshal([]byte("[0,0,0,10,0]"), &decoded))
	require.Equal(t, []float64{0, 0, 0, 10, 0}, decoded.Hours)
}

func TestFacultyOf(t *testing.T) {
	directory := FacultyDepartments{
		"Computing": {"Computer Science", "Information Systems"},
	}
	faculty, ok := directory.FacultyOf("COMPUTER SCIENCE")
	require.True(t, ok)
	require.Equal(t, "Computing", faculty)

	_, ok = directory.FacultyOf("Law")
	require.False(t, ok)
}

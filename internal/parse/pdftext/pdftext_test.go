package pdftext

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func glyphs(x float64, s string) []run {
	out := make([]run, len(s))
	for i, c := range s {
		out[i] = run{X: x + float64(i)*5, W: 5, FontSize: 10, S: string(c)}
	}
	return out
}

func TestJoinRuns(t *testing.T) {
	var runs []run
	runs = append(runs, glyphs(0, "05/11/2020")...)
	// word gap, 3 units
	runs = append(runs, glyphs(53, "AM")...)
	// column gap, 40 units
	runs = append(runs, glyphs(103, "CS1010")...)

	require.Equal(t, "05/11/2020 AM  CS1010", joinRuns(runs))
}

func TestJoinRunsSortsByX(t *testing.T) {
	runs := []run{
		{X: 10, W: 5, FontSize: 10, S: "B"},
		{X: 5, W: 5, FontSize: 10, S: "A"},
	}
	require.Equal(t, "AB", joinRuns(runs))
}

func TestExtractRejectsGarbage(t *testing.T) {
	_, err := Extract([]byte("not a pdf"))
	require.Error(t, err)
}

package chrono

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAcadYearStart(t *testing.T) {
	cases := []struct {
		date     time.Time
		expected int
	}{
		{date: time.Date(2016, time.August, 1, 0, 0, 0, 0, time.UTC), expected: 2016},
		{date: time.Date(2016, time.December, 31, 0, 0, 0, 0, time.UTC), expected: 2016},
		{date: time.Date(2017, time.January, 1, 0, 0, 0, 0, time.UTC), expected: 2016},
		{date: time.Date(2017, time.July, 31, 23, 0, 0, 0, time.UTC), expected: 2016},
	}

	for _, test := range cases {
		require.Equal(t, test.expected, AcadYearStart(test.date), test.date.String())
	}
}

func TestFixedImpl(t *testing.T) {
	at := time.Date(2020, time.May, 4, 10, 0, 0, 0, time.UTC)
	clock := FixedImpl{At: at}
	require.Equal(t, at, clock.Now())
	require.Equal(t, time.UTC, clock.Location())
}

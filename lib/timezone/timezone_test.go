package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDate(t *testing.T) {
	cases := []struct {
		year   int
		month  time.Month
		day    int
		expect string
		ok     bool
	}{
		{2016, time.November, 25, "2016-11-25T00:00:00+08:00", true},
		{2016, time.February, 29, "2016-02-29T00:00:00+08:00", true},
		{2017, time.February, 29, "", false},
		{2017, time.April, 31, "", false},
	}

	for _, test := range cases {
		got, ok := Date(test.year, test.month, test.day)
		require.Equal(t, test.ok, ok)
		if ok {
			require.Equal(t, test.expect, got.Format(time.RFC3339))
		}
	}
}

func TestNow(t *testing.T) {
	_, offset := Now().Zone()
	require.Equal(t, 8*60*60, offset)
}

// Package timezone pins calendar arithmetic to Singapore time, where every
// upstream date and exam slot is expressed.
package timezone

import "time"

// Singapore does not observe daylight saving, so a fixed offset is exact.
var Singapore = time.FixedZone("SGT", 8*60*60)

func Now() time.Time {
	return time.Now().In(Singapore)
}

// Date is midnight of a calendar day in Singapore. ok is false when the
// day does not exist, e.g. 31/2.
func Date(year int, month time.Month, day int) (t time.Time, ok bool) {
	t = time.Date(year, month, day, 0, 0, 0, 0, Singapore)
	return t, t.Year() == year && t.Month() == month && t.Day() == day
}

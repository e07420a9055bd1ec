package chrono

import (
	"time"

	"nusmods-scraper/lib/timezone"
)

// API is the source of "now" for anything that depends on the wall clock.
type API interface {
	Now() time.Time
	Location() *time.Location
}

// StandardImpl reads the system clock in Singapore time, which is where
// every upstream timestamp and exam slot is expressed.
type StandardImpl struct {
	location *time.Location
}

func NewStandardImpl() StandardImpl {
	return StandardImpl{location: timezone.Singapore}
}

func (s StandardImpl) Now() time.Time {
	return time.Now().In(s.location)
}

func (s StandardImpl) Location() *time.Location {
	return s.location
}

// FixedImpl always returns the same instant, it is used in tests.
type FixedImpl struct {
	At time.Time
}

func (f FixedImpl) Now() time.Time {
	return f.At
}

func (f FixedImpl) Location() *time.Location {
	return f.At.Location()
}

// AcadYearStart returns the first calendar year of the academic year that
// contains t. Academic years begin in August.
func AcadYearStart(t time.Time) int {
	if t.Month() >= time.August {
		return t.Year()
	}
	return t.Year() - 1
}

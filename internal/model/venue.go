package model

type VenueLesson struct {
	ModuleCode string `json:"moduleCode"`
	ClassNo    string `json:"classNo"`
	LessonType string `json:"lessonType"`
	Weeks      Weeks  `json:"weeks"`
	Day        string `json:"day"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
	Size       int    `json:"size,omitempty"`
}

const Occupied = "occupied"

type DayAvailability struct {
	Day     string        `json:"day"`
	Classes []VenueLesson `json:"classes"`
	// Availability is keyed by the start of each half hour slot ("0830").
	Availability map[string]string `json:"availability"`
}

// VenueInfo maps a venue name to its lessons grouped by day.
type VenueInfo map[string][]DayAvailability

package model

import "encoding/json"

// BulletinModule is one result of the bulletin module search API.
type BulletinModule struct {
	AcadYear             string            `json:"AcadYear"`
	Semester             string            `json:"Semester"`
	ModuleCode           string            `json:"ModuleCode"`
	ModuleTitle          string            `json:"ModuleTitle"`
	ModuleDescription    string            `json:"ModuleDescription,omitempty"`
	ModuleCredit         string            `json:"ModuleCredit,omitempty"`
	Faculty              string            `json:"Faculty,omitempty"`
	Department           string            `json:"Department,omitempty"`
	AcademicGroup        string            `json:"AcademicGroup,omitempty"`
	AcademicOrganisation string            `json:"AcademicOrganisation,omitempty"`
	Workload             string            `json:"Workload,omitempty"`
	Prerequisite         string            `json:"Prerequisite,omitempty"`
	Preclusion           string            `json:"Preclusion,omitempty"`
	Corequisite          string            `json:"Corequisite,omitempty"`
	ModuleAttributes     []CourseAttribute `json:"ModuleAttributes,omitempty"`
}

type CourseAttribute struct {
	CourseAttribute      string `json:"CourseAttribute"`
	CourseAttributeValue string `json:"CourseAttributeValue"`
}

// CorsModule is one module detail page of CORS.
type CorsModule struct {
	Type              string       `json:"Type"`
	ModuleCode        string       `json:"ModuleCode"`
	Department        string       `json:"Department"`
	CorrectAsAt       string       `json:"CorrectAsAt"`
	ModuleTitle       string       `json:"ModuleTitle"`
	ModuleDescription string       `json:"ModuleDescription"`
	ExamDate          string       `json:"ExamDate"`
	ModuleCredit      string       `json:"ModuleCredit"`
	Prerequisite      string       `json:"Prerequisite"`
	Preclusion        string       `json:"Preclusion"`
	Workload          string       `json:"Workload"`
	Timetable         []CorsLesson `json:"Timetable"`
}

type CorsLesson struct {
	ClassNo    string `json:"ClassNo"`
	LessonType string `json:"LessonType"`
	WeekText   string `json:"WeekText"`
	DayText    string `json:"DayText"`
	StartTime  string `json:"StartTime"`
	EndTime    string `json:"EndTime"`
	Venue      string `json:"Venue"`
	Size       string `json:"Size,omitempty"`
}

// LessonTypes maps a raw lesson description to its classification,
// "Lecture" or "Tutorial".
type LessonTypes map[string]string

// ExamRecord is one row of the exam timetable PDF.
type ExamRecord struct {
	Date       string `json:"Date"`
	Time       string `json:"Time"`
	ModuleCode string `json:"ModuleCode"`
	Title      string `json:"Title"`
	Faculty    string `json:"Faculty"`
}

// VenueRecord is passed through from the venues API untouched.
type VenueRecord map[string]any

// IvleResults maps a module code to the raw IVLE search results for it.
type IvleResults map[string]json.RawMessage

// BiddingStat is a closed bidding round, it is never updated once
// archived.
type BiddingStat struct {
	AcadYear            string `json:"AcadYear"`
	Semester            string `json:"Semester"`
	Round               string `json:"Round"`
	ModuleCode          string `json:"ModuleCode"`
	Group               string `json:"Group"`
	Quota               int    `json:"Quota"`
	Bidders             int    `json:"Bidders"`
	LowestBid           int    `json:"LowestBid"`
	LowestSuccessfulBid int    `json:"LowestSuccessfulBid"`
	HighestBid          int    `json:"HighestBid"`
	Faculty             string `json:"Faculty"`
	StudentAcctType     string `json:"StudentAcctType"`
}

package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type Module struct {
	AcadYear            string          `json:"acadYear"`
	ModuleCode          string          `json:"moduleCode"`
	Title               string          `json:"title"`
	Description         string          `json:"description,omitempty"`
	ModuleCredit        string          `json:"moduleCredit"`
	Department          string          `json:"department"`
	Faculty             string          `json:"faculty"`
	Workload            *Workload       `json:"workload,omitempty"`
	Aliases             []string        `json:"aliases,omitempty"`
	Attributes          map[string]bool `json:"attributes,omitempty"`
	Prerequisite        string          `json:"prerequisite,omitempty"`
	Corequisite         string          `json:"corequisite,omitempty"`
	Preclusion          string          `json:"preclusion,omitempty"`
	PrereqTree          *PrereqTree     `json:"prereqTree,omitempty"`
	FulfillRequirements []string        `json:"fulfillRequirements,omitempty"`
	SemesterData        []SemesterData  `json:"semesterData"`
}

// SemesterData is replaced wholesale for a module and semester, never
// merged field by field.
type SemesterData struct {
	Semester     int         `json:"semester"`
	Timetable    []RawLesson `json:"timetable"`
	CovidZones   []string    `json:"covidZones,omitempty"`
	ExamDate     string      `json:"examDate,omitempty"`
	ExamDuration int         `json:"examDuration,omitempty"`
	// Lecturers are the IVLE staff teaching as lecturer, co-lecturer or
	// visiting professor.
	Lecturers []string `json:"lecturers,omitempty"`
	// LecturePeriods and TutorialPeriods are "<Day> <Morning|Afternoon|Evening>"
	// slots in timetable order.
	LecturePeriods   []string        `json:"lecturePeriods,omitempty"`
	TutorialPeriods  []string        `json:"tutorialPeriods,omitempty"`
	Ivle             json.RawMessage `json:"ivle,omitempty"`
	CorsBiddingStats []BiddingStat   `json:"corsBiddingStats,omitempty"`
}

type ExamInfo struct {
	ExamDate     string `json:"examDate"`
	ExamDuration int    `json:"examDuration,omitempty"`
}

// ExamInfoMap is keyed by module code.
type ExamInfoMap map[string]ExamInfo

// Workload is either the five weekly hour components (lecture, tutorial,
// lab, project, preparation) or the upstream text when it could not be
// parsed as numbers.
type Workload struct {
	Hours []float64
	Text  string
}

func (w Workload) MarshalJSON() ([]byte, error) {
	if w.Hours != nil {
		return json.Marshal(w.Hours)
	}
	return json.Marshal(w.Text)
}

func (w *Workload) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, &w.Hours)
	}
	return json.Unmarshal(data, &w.Text)
}

// Aliases maps a module code to every other code denoting the same
// course.
type Aliases map[string][]string

type ModuleCondensed struct {
	ModuleCode string `json:"moduleCode"`
	Title      string `json:"title"`
	Semesters  []int  `json:"semesters"`
}

type SemesterInformation struct {
	Semester     int    `json:"semester"`
	ExamDate     string `json:"examDate,omitempty"`
	ExamDuration int    `json:"examDuration,omitempty"`
}

// ModuleInformation is the module without its timetables, used by the
// module finder.
type ModuleInformation struct {
	ModuleCode   string                `json:"moduleCode"`
	Title        string                `json:"title"`
	Description  string                `json:"description,omitempty"`
	ModuleCredit string                `json:"moduleCredit"`
	Department   string                `json:"department"`
	Faculty      string                `json:"faculty"`
	Workload     *Workload             `json:"workload,omitempty"`
	Prerequisite string                `json:"prerequisite,omitempty"`
	Corequisite  string                `json:"corequisite,omitempty"`
	Preclusion   string                `json:"preclusion,omitempty"`
	Attributes   map[string]bool       `json:"attributes,omitempty"`
	SemesterData []SemesterInformation `json:"semesterData"`
}

// FacultyDepartments maps a faculty name to its sorted department names.
type FacultyDepartments map[string][]string

// FacultyOf returns the faculty that owns department, compared case
// insensitively.
func (f FacultyDepartments) FacultyOf(department string) (string, bool) {
	for faculty, departments := range f {
		for _, d := range departments {
			if strings.EqualFold(d, department) {
				return faculty, true
			}
		}
	}
	return "", false
}

// FacultyCodeMap and DepartmentCodeMap resolve upstream short codes into
// names.
type FacultyCodeMap map[string]string
type DepartmentCodeMap map[string]string

type OrganisationCodes struct {
	Faculties   FacultyCodeMap    `json:"faculties"`
	Departments DepartmentCodeMap `json:"departments"`
}

func (o OrganisationCodes) Faculty(codeOrName string) string {
	if name, ok := o.Faculties[codeOrName]; ok {
		return name
	}
	return codeOrName
}

func (o OrganisationCodes) Department(codeOrName string) string {
	if name, ok := o.Departments[codeOrName]; ok {
		return name
	}
	return codeOrName
}

func (m Module) String() string {
	return fmt.Sprintf("%s %s", m.ModuleCode, m.Title)
}

package mapper

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"nusmods-scraper/internal/model"
)

var (
	parenthesisRegex = regexp.MustCompile(`\(.*?\)`)
	notApplicable    = regexp.MustCompile(`(?i)NA`)
	workloadRegex    = regexp.MustCompile(`^[\d.]+(?:[-‐][\d.]+){4}$`)
	workloadSplit    = regexp.MustCompile(`[-‐]`)
)

// parseWorkload reads "A-B-C-D-E", the weekly hours of lectures, tutorials,
// labs, projects and preparation. Anything else is kept as text.
func parseWorkload(text string) *model.Workload {
	if text == "" {
		return nil
	}
	cleaned := parenthesisRegex.ReplaceAllString(text, "")
	cleaned = notApplicable.ReplaceAllString(cleaned, "0")
	cleaned = strings.Join(strings.Fields(cleaned), "")
	if !workloadRegex.MatchString(cleaned) {
		return &model.Workload{Text: text}
	}

	parts := workloadSplit.Split(cleaned, -1)
	hours := make([]float64, len(parts))
	for i, part := range parts {
		value, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return &model.Workload{Text: text}
		}
		hours[i] = value
	}
	return &model.Workload{Hours: hours}
}

var attributeNames = map[string]string{
	"YEAR": "year",
	"UROP": "urop",
	"SSGF": "ssgf",
	"SFS":  "sfs",
	"PRQY": "su",
	"NPRY": "su",
	"GRDY": "grsu",
	"LABB": "lab",
	"ISM":  "ism",
	"HFYP": "fyp",
}

var mpeNames = map[string][]string{
	"S1":    {"mpes1"},
	"S2":    {"mpes2"},
	"S1&S2": {"mpes1", "mpes2"},
}

func (m Mapper) attributes(code string, entries []model.CourseAttribute) map[string]bool {
	attributes := map[string]bool{}
	for _, entry := range entries {
		if entry.CourseAttribute == "MPE" {
			names, ok := mpeNames[entry.CourseAttributeValue]
			if !ok {
				m.tel.ReportWarning(report_attribute, code, entry.CourseAttribute, entry.CourseAttributeValue)
				continue
			}
			for _, name := range names {
				attributes[name] = true
			}
			continue
		}

		name, ok := attributeNames[entry.CourseAttribute]
		if !ok {
			continue
		}
		switch entry.CourseAttributeValue {
		case "YES", "HT":
			attributes[name] = true
		case "NO":
		default:
			m.tel.ReportWarning(report_attribute, code, entry.CourseAttribute, entry.CourseAttributeValue)
		}
	}
	if len(attributes) == 0 {
		return nil
	}
	return attributes
}

// aliasSet records symmetric links between module codes.
type aliasSet map[string]map[string]struct{}

func (a aliasSet) link(x, y string) {
	if x == y {
		return
	}
	for _, pair := range [][2]string{{x, y}, {y, x}} {
		if a[pair[0]] == nil {
			a[pair[0]] = map[string]struct{}{}
		}
		a[pair[0]][pair[1]] = struct{}{}
	}
}

func (a aliasSet) merge(aliases model.Aliases) {
	for code, others := range aliases {
		for _, other := range others {
			a.link(code, other)
		}
	}
}

func (a aliasSet) build() model.Aliases {
	out := model.Aliases{}
	for code, others := range a {
		list := make([]string, 0, len(others))
		for other := range others {
			list = append(list, other)
		}
		slices.Sort(list)
		out[code] = list
	}
	return out
}

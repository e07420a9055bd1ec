package mapper

import (
	"fmt"
	"slices"

	"github.com/google/go-cmp/cmp"

	"nusmods-scraper/internal/model"
	"nusmods-scraper/internal/parse/prereq"
	"nusmods-scraper/internal/task"
)

// Cycle policies for prerequisite trees that reference themselves.
const (
	CyclesIgnore = "ignore"
	CyclesWarn   = "warn"
	CyclesReject = "reject"
)

type YearOutput struct {
	AcadYear          int
	Modules           []model.Module
	ModuleList        []model.ModuleCondensed
	ModuleInformation []model.ModuleInformation
	Aliases           model.Aliases
}

// moduleInfo strips the fields that legitimately differ between semesters.
func moduleInfo(m model.Module) model.Module {
	m.SemesterData = nil
	m.Aliases = nil
	return m
}

// CollateYear merges the semesters of one academic year. The latest
// semester wins for module level fields.
func (m Mapper) CollateYear(acadYear int, sems []SemesterOutput, policy string) (YearOutput, error) {
	switch policy {
	case CyclesIgnore, CyclesWarn, CyclesReject:
	default:
		return YearOutput{}, fmt.Errorf("unknown cycle policy %q", policy)
	}

	sems = slices.Clone(sems)
	slices.SortStableFunc(sems, func(a, b SemesterOutput) int {
		return a.Semester - b.Semester
	})

	aliases := aliasSet{}
	modules := map[string]*model.Module{}
	for _, sem := range sems {
		if sem.AcadYear != acadYear {
			return YearOutput{}, task.Fatalf("collate", model.FormatAcadYear(acadYear),
				"semester %d belongs to %s, not %s",
				sem.Semester, model.FormatAcadYear(sem.AcadYear), model.FormatAcadYear(acadYear))
		}
		aliases.merge(sem.Aliases)

		for _, sm := range sem.Modules {
			next := moduleInfo(sm.Module)
			existing, ok := modules[next.ModuleCode]
			if !ok {
				next.SemesterData = []model.SemesterData{sm.SemesterData}
				modules[next.ModuleCode] = &next
				continue
			}

			if !cmp.Equal(moduleInfo(*existing), next) {
				m.tel.ReportWarning(report_diverged, fmt.Errorf(
					"module info differs between semesters: %s", cmp.Diff(moduleInfo(*existing), next),
				), next.ModuleCode)
			}
			next.SemesterData = replaceSemester(existing.SemesterData, sm.SemesterData)
			modules[next.ModuleCode] = &next
		}
	}

	codes := make([]string, 0, len(modules))
	for code := range modules {
		codes = append(codes, code)
	}
	slices.Sort(codes)

	built := aliases.build()
	for _, code := range codes {
		modules[code].Aliases = built[code]
	}
	m.prereqTrees(modules, codes, policy)

	out := YearOutput{AcadYear: acadYear, Aliases: built}
	for _, code := range codes {
		module := *modules[code]
		out.Modules = append(out.Modules, module)
		out.ModuleList = append(out.ModuleList, condensed(module))
		out.ModuleInformation = append(out.ModuleInformation, information(module))
	}
	return out, nil
}

// replaceSemester keeps semesterData unique per semester and sorted, a
// later fragment replaces an earlier one wholesale.
func replaceSemester(existing []model.SemesterData, next model.SemesterData) []model.SemesterData {
	out := make([]model.SemesterData, 0, len(existing)+1)
	for _, data := range existing {
		if data.Semester != next.Semester {
			out = append(out, data)
		}
	}
	out = append(out, next)
	slices.SortFunc(out, func(a, b model.SemesterData) int {
		return a.Semester - b.Semester
	})
	return out
}

func (m Mapper) prereqTrees(modules map[string]*model.Module, codes []string, policy string) {
	trees := map[string]*model.PrereqTree{}
	for _, code := range codes {
		module := modules[code]
		if module.Prerequisite == "" {
			continue
		}
		tree, err := prereq.Parse(module.Prerequisite)
		if err != nil {
			m.tel.ReportWarning(report_prereq, err, code)
			continue
		}
		if tree != nil {
			trees[code] = tree
		}
	}

	if policy != CyclesIgnore {
		for _, cycle := range prereq.FindCycles(trees) {
			m.tel.ReportWarning(report_prereq_cycle, fmt.Errorf("prerequisites form a cycle: %v", cycle))
			if policy != CyclesReject {
				continue
			}
			for _, code := range cycle {
				m.tel.ReportWarning(report_prereq_reject, code)
				delete(trees, code)
			}
		}
	}

	fulfills := map[string][]string{}
	for _, code := range codes {
		tree, ok := trees[code]
		if !ok {
			continue
		}
		modules[code].PrereqTree = tree
		for _, required := range tree.Modules() {
			if _, known := modules[required]; known && required != code {
				fulfills[required] = append(fulfills[required], code)
			}
		}
	}
	for code, dependents := range fulfills {
		modules[code].FulfillRequirements = dependents
	}
}

func condensed(m model.Module) model.ModuleCondensed {
	semesters := make([]int, len(m.SemesterData))
	for i, data := range m.SemesterData {
		semesters[i] = data.Semester
	}
	return model.ModuleCondensed{
		ModuleCode: m.ModuleCode,
		Title:      m.Title,
		Semesters:  semesters,
	}
}

func information(m model.Module) model.ModuleInformation {
	history := make([]model.SemesterInformation, len(m.SemesterData))
	for i, data := range m.SemesterData {
		history[i] = model.SemesterInformation{
			Semester:     data.Semester,
			ExamDate:     data.ExamDate,
			ExamDuration: data.ExamDuration,
		}
	}
	return model.ModuleInformation{
		ModuleCode:   m.ModuleCode,
		Title:        m.Title,
		Description:  m.Description,
		ModuleCredit: m.ModuleCredit,
		Department:   m.Department,
		Faculty:      m.Faculty,
		Workload:     m.Workload,
		Prerequisite: m.Prerequisite,
		Corequisite:  m.Corequisite,
		Preclusion:   m.Preclusion,
		Attributes:   m.Attributes,
		SemesterData: history,
	}
}

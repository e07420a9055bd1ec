package cors

import (
	"context"
	"maps"

	"nusmods-scraper/internal/model"
	"nusmods-scraper/internal/sources"
	"nusmods-scraper/internal/task"
)

// MergeLessonTypes folds observations, in order, into a copy of seed. A
// description classified differently by two observations is fatal since
// timetable and venue mapping rely on it.
func MergeLessonTypes(seed model.LessonTypes, observations []Observation) (model.LessonTypes, error) {
	merged := model.LessonTypes{}
	maps.Copy(merged, seed)

	for _, seen := range observations {
		original, ok := merged[seen.Description]
		if ok && original != seen.LessonType {
			return nil, task.Fatalf(
				"cors", seen.ModuleCode,
				"lessonTypes %s conflict: %s vs %s", seen.Description, original, seen.LessonType,
			)
		}
		merged[seen.Description] = seen.LessonType
	}
	return merged, nil
}

func (t Task) readLessonTypes(ctx context.Context) (model.LessonTypes, error) {
	seed := model.LessonTypes{}
	err := sources.ReadOptional(ctx, t.env, t.lessonTypesPath(), &seed)
	return seed, err
}

// WriteLessonTypes merges the observations of every output into the
// lesson types on disk and writes the result. It is the only writer of
// the file so that the regular and special listings never overwrite each
// other.
func (t Task) WriteLessonTypes(ctx context.Context, outs ...Output) (model.LessonTypes, error) {
	seed, err := t.readLessonTypes(ctx)
	if err != nil {
		return nil, err
	}
	var observations []Observation
	for _, out := range outs {
		observations = append(observations, out.Observations...)
	}
	merged, err := MergeLessonTypes(seed, observations)
	if err != nil {
		return nil, err
	}
	err = t.env.Files.Write(ctx, t.lessonTypesPath(), merged)
	if err != nil {
		return nil, err
	}
	return merged, nil
}

package course

import (
	"github.com/volatiletech/null/v8"
)

// HierarchyRow is one row of the course LEFT JOIN modules LEFT JOIN subtopics query.
// Module and subtopic columns are null when the parent has no children.
type HierarchyRow struct {
	Course

	ModuleID           null.Int
	ModuleName         null.String
	ModuleDescription  null.String
	ModuleDurationDays null.Int
	ModuleOrder        null.Int
	ModuleCreatedAt    null.Time
	ModuleUpdatedAt    null.Time

	SubtopicID           null.Int
	SubtopicName         null.String
	SubtopicDescription  null.String
	SubtopicDurationDays null.Int
	TrainingBy           null.String
	SubtopicOrder        null.Int
	SubtopicCreatedAt    null.Time
	SubtopicUpdatedAt    null.Time
}

func (r HierarchyRow) module() Module {
	return Module{
		ID:           r.ModuleID.Int,
		CourseID:     r.Course.ID,
		ModuleName:   r.ModuleName.String,
		Description:  r.ModuleDescription.String,
		DurationDays: r.ModuleDurationDays.Int,
		ModuleOrder:  r.ModuleOrder.Int,
		CreatedAt:    r.ModuleCreatedAt.Time,
		UpdatedAt:    r.ModuleUpdatedAt.Time,
	}
}

func (r HierarchyRow) subtopic() Subtopic {
	return Subtopic{
		ID:            r.SubtopicID.Int,
		ModuleID:      r.ModuleID.Int,
		SubtopicName:  r.SubtopicName.String,
		Description:   r.SubtopicDescription.String,
		DurationDays:  r.SubtopicDurationDays.Int,
		TrainingBy:    r.TrainingBy.String,
		SubtopicOrder: r.SubtopicOrder.Int,
		CreatedAt:     r.SubtopicCreatedAt.Time,
		UpdatedAt:     r.SubtopicUpdatedAt.Time,
	}
}

// BuildHierarchy folds flat joined rows into course trees.
// Rows must be grouped by course, then by module, in the wanted order; the order is kept as is.
func BuildHierarchy(rows []HierarchyRow) []CourseTree {
	courses := []CourseTree{}
	ci, mi := -1, -1

	for _, r := range rows {
		if ci < 0 || courses[ci].ID != r.Course.ID {
			courses = append(courses, CourseTree{Course: r.Course, Modules: []ModuleTree{}})
			ci, mi = len(courses)-1, -1
		}
		if !r.ModuleID.Valid {
			continue
		}

		crs := &courses[ci]
		if mi < 0 || crs.Modules[mi].ID != r.ModuleID.Int {
			crs.Modules = append(crs.Modules, ModuleTree{Module: r.module(), Subtopics: []Subtopic{}})
			mi = len(crs.Modules) - 1
		}
		if r.SubtopicID.Valid {
			crs.Modules[mi].Subtopics = append(crs.Modules[mi].Subtopics, r.subtopic())
		}
	}
	return courses
}

package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/volatiletech/null/v8"

	"github.com/coding7860/sparkminds-backend/core"
	"github.com/coding7860/sparkminds-backend/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db}
}

// Courses

func (repo *courseRepository) CreateCourse(_ context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	defer repo.db.guard(exec)()
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	crs.ID = repo.db.nextID()
	repo.db.courses[crs.ID] = crs
	return crs, nil
}

func compareCourses(a, b course.Course, field string) (int, bool) {
	switch field {
	case "id":
		return compareInts(a.ID, b.ID), true
	case "courseName":
		return strings.Compare(a.CourseName, b.CourseName), true
	case "department":
		return strings.Compare(a.Department, b.Department), true
	case "mentorName":
		return strings.Compare(a.MentorName, b.MentorName), true
	case "createdAt":
		return a.CreatedAt.Compare(b.CreatedAt), true
	case "updatedAt":
		return a.UpdatedAt.Compare(b.UpdatedAt), true
	}
	return 0, false
}

func (repo *courseRepository) QueryCourses(_ context.Context, filter *course.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]course.Course, error) {
	defer repo.db.guard(exec)()
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	courses := make([]course.Course, 0, len(repo.db.courses))
	for _, crs := range repo.db.courses {
		if filter != nil {
			if filter.Department != "" && !strings.EqualFold(crs.Department, filter.Department) {
				continue
			}
			if filter.Mentor != "" && !strings.Contains(strings.ToLower(crs.MentorName), strings.ToLower(filter.Mentor)) {
				continue
			}
		}
		courses = append(courses, crs)
	}

	sort.SliceStable(courses, func(i, j int) bool {
		for _, ord := range ordering {
			c, ok := compareCourses(courses[i], courses[j], ord.Field)
			if !ok || c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		if !courses[i].CreatedAt.Equal(courses[j].CreatedAt) {
			return courses[i].CreatedAt.After(courses[j].CreatedAt)
		}
		return courses[i].ID > courses[j].ID
	})
	return courses, nil
}

func (repo *courseRepository) GetCourse(_ context.Context, id int, exec ...core.DBExecutor) (course.Course, error) {
	defer repo.db.guard(exec)()
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if crs, ok := repo.db.courses[id]; ok {
		return crs, nil
	}
	return course.Course{}, course.ErrCourseNotFound
}

func (repo *courseRepository) UpdateCourse(_ context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	defer repo.db.guard(exec)()
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.courses[crs.ID]; !ok {
		return course.Course{}, course.ErrCourseNotFound
	}
	repo.db.courses[crs.ID] = crs
	return crs, nil
}

// DeleteCourse cascades to the modules and subtopics and detaches users and classes.
func (repo *courseRepository) DeleteCourse(_ context.Context, id int, exec ...core.DBExecutor) error {
	defer repo.db.guard(exec)()
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.courses[id]; !ok {
		return course.ErrCourseNotFound
	}
	delete(repo.db.courses, id)
	for mid, mod := range repo.db.modules {
		if mod.CourseID == id {
			repo.deleteModule(mid)
		}
	}
	for uid, usr := range repo.db.users {
		if usr.EnrolledCourseID != nil && *usr.EnrolledCourseID == id {
			usr.EnrolledCourseID = nil
			repo.db.users[uid] = usr
		}
	}
	for cid, cls := range repo.db.classes {
		if cls.CourseID != nil && *cls.CourseID == id {
			cls.CourseID = nil
			repo.db.classes[cid] = cls
		}
	}
	return nil
}

// modulesOf returns the modules of the course by order. mu must be held.
func (repo *courseRepository) modulesOf(courseID int) []course.Module {
	var mods []course.Module
	for _, mod := range repo.db.modules {
		if mod.CourseID == courseID {
			mods = append(mods, mod)
		}
	}
	sort.Slice(mods, func(i, j int) bool {
		if mods[i].ModuleOrder != mods[j].ModuleOrder {
			return mods[i].ModuleOrder < mods[j].ModuleOrder
		}
		return mods[i].ID < mods[j].ID
	})
	return mods
}

// subtopicsOf returns the subtopics of the module by order. mu must be held.
func (repo *courseRepository) subtopicsOf(moduleID int) []course.Subtopic {
	subs := []course.Subtopic{}
	for _, sub := range repo.db.subtopics {
		if sub.ModuleID == moduleID {
			subs = append(subs, sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool {
		if subs[i].SubtopicOrder != subs[j].SubtopicOrder {
			return subs[i].SubtopicOrder < subs[j].SubtopicOrder
		}
		return subs[i].ID < subs[j].ID
	})
	return subs
}

func hierarchyRow(crs course.Course, mod *course.Module, sub *course.Subtopic) course.HierarchyRow {
	row := course.HierarchyRow{Course: crs}
	if mod != nil {
		row.ModuleID = null.IntFrom(mod.ID)
		row.ModuleName = null.StringFrom(mod.ModuleName)
		row.ModuleDescription = null.StringFrom(mod.Description)
		row.ModuleDurationDays = null.IntFrom(mod.DurationDays)
		row.ModuleOrder = null.IntFrom(mod.ModuleOrder)
		row.ModuleCreatedAt = null.TimeFrom(mod.CreatedAt)
		row.ModuleUpdatedAt = null.TimeFrom(mod.UpdatedAt)
	}
	if sub != nil {
		row.SubtopicID = null.IntFrom(sub.ID)
		row.SubtopicName = null.StringFrom(sub.SubtopicName)
		row.SubtopicDescription = null.StringFrom(sub.Description)
		row.SubtopicDurationDays = null.IntFrom(sub.DurationDays)
		row.TrainingBy = null.StringFrom(sub.TrainingBy)
		row.SubtopicOrder = null.IntFrom(sub.SubtopicOrder)
		row.SubtopicCreatedAt = null.TimeFrom(sub.CreatedAt)
		row.SubtopicUpdatedAt = null.TimeFrom(sub.UpdatedAt)
	}
	return row
}

func (repo *courseRepository) QueryHierarchyRows(_ context.Context, courseID *int, exec ...core.DBExecutor) ([]course.HierarchyRow, error) {
	defer repo.db.guard(exec)()
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var rows []course.HierarchyRow
	for _, id := range sortedKeys(repo.db.courses) {
		if courseID != nil && *courseID != id {
			continue
		}
		crs := repo.db.courses[id]
		mods := repo.modulesOf(id)
		if len(mods) == 0 {
			rows = append(rows, hierarchyRow(crs, nil, nil))
			continue
		}
		for i := range mods {
			subs := repo.subtopicsOf(mods[i].ID)
			if len(subs) == 0 {
				rows = append(rows, hierarchyRow(crs, &mods[i], nil))
				continue
			}
			for j := range subs {
				rows = append(rows, hierarchyRow(crs, &mods[i], &subs[j]))
			}
		}
	}
	return rows, nil
}

func (repo *courseRepository) GetStatistics(_ context.Context, courseID int, exec ...core.DBExecutor) (course.Statistics, error) {
	defer repo.db.guard(exec)()
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	crs, ok := repo.db.courses[courseID]
	if !ok {
		return course.Statistics{}, course.ErrCourseNotFound
	}
	stats := course.Statistics{ID: crs.ID, CourseName: crs.CourseName}
	for _, mod := range repo.modulesOf(courseID) {
		stats.ModuleCount++
		stats.TotalDuration += mod.DurationDays
		stats.SubtopicCount += len(repo.subtopicsOf(mod.ID))
	}
	return stats, nil
}

// Modules

func (repo *courseRepository) CreateModule(_ context.Context, mod course.Module, exec ...core.DBExecutor) (course.Module, error) {
	defer repo.db.guard(exec)()
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.courses[mod.CourseID]; !ok {
		return course.Module{}, core.NewValidationError(course.ErrCourseNotFound)
	}
	mod.ID = repo.db.nextID()
	repo.db.modules[mod.ID] = mod
	return mod, nil
}

func (repo *courseRepository) GetModule(_ context.Context, id int, exec ...core.DBExecutor) (course.Module, error) {
	defer repo.db.guard(exec)()
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if mod, ok := repo.db.modules[id]; ok {
		return mod, nil
	}
	return course.Module{}, course.ErrModuleNotFound
}

func (repo *courseRepository) UpdateModule(_ context.Context, mod course.Module, exec ...core.DBExecutor) (course.Module, error) {
	defer repo.db.guard(exec)()
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.modules[mod.ID]; !ok {
		return course.Module{}, course.ErrModuleNotFound
	}
	repo.db.modules[mod.ID] = mod
	return mod, nil
}

// deleteModule must be called with mu held.
func (repo *courseRepository) deleteModule(id int) int {
	delete(repo.db.modules, id)
	var n int
	for sid, sub := range repo.db.subtopics {
		if sub.ModuleID == id {
			delete(repo.db.subtopics, sid)
			n++
		}
	}
	return n
}

func (repo *courseRepository) DeleteModule(_ context.Context, id int, exec ...core.DBExecutor) error {
	defer repo.db.guard(exec)()
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.modules[id]; !ok {
		return course.ErrModuleNotFound
	}
	repo.deleteModule(id)
	return nil
}

func (repo *courseRepository) DeleteSubtopicsByModule(_ context.Context, moduleID int, exec ...core.DBExecutor) (int, error) {
	defer repo.db.guard(exec)()
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	var n int
	for sid, sub := range repo.db.subtopics {
		if sub.ModuleID == moduleID {
			delete(repo.db.subtopics, sid)
			n++
		}
	}
	return n, nil
}

func (repo *courseRepository) SetModuleOrder(_ context.Context, courseID, id, order int, exec ...core.DBExecutor) error {
	defer repo.db.guard(exec)()
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	mod, ok := repo.db.modules[id]
	if !ok || mod.CourseID != courseID {
		return course.ErrModuleNotFound
	}
	mod.ModuleOrder = order
	repo.db.modules[id] = mod
	return nil
}

func (repo *courseRepository) NextModuleOrder(_ context.Context, courseID int, exec ...core.DBExecutor) (int, error) {
	defer repo.db.guard(exec)()
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var max int
	for _, mod := range repo.db.modules {
		if mod.CourseID == courseID && mod.ModuleOrder > max {
			max = mod.ModuleOrder
		}
	}
	return max + 1, nil
}

// Subtopics

func (repo *courseRepository) CreateSubtopic(_ context.Context, sub course.Subtopic, exec ...core.DBExecutor) (course.Subtopic, error) {
	defer repo.db.guard(exec)()
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.modules[sub.ModuleID]; !ok {
		return course.Subtopic{}, core.NewValidationError(course.ErrModuleNotFound)
	}
	sub.ID = repo.db.nextID()
	repo.db.subtopics[sub.ID] = sub
	return sub, nil
}

func (repo *courseRepository) QuerySubtopics(_ context.Context, moduleID int, exec ...core.DBExecutor) ([]course.Subtopic, error) {
	defer repo.db.guard(exec)()
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.subtopicsOf(moduleID), nil
}

func (repo *courseRepository) GetSubtopic(_ context.Context, id int, exec ...core.DBExecutor) (course.Subtopic, error) {
	defer repo.db.guard(exec)()
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if sub, ok := repo.db.subtopics[id]; ok {
		return sub, nil
	}
	return course.Subtopic{}, course.ErrSubtopicNotFound
}

func (repo *courseRepository) GetSubtopicDetail(_ context.Context, id int, exec ...core.DBExecutor) (course.SubtopicDetail, error) {
	defer repo.db.guard(exec)()
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	sub, ok := repo.db.subtopics[id]
	if !ok {
		return course.SubtopicDetail{}, course.ErrSubtopicNotFound
	}
	mod, ok := repo.db.modules[sub.ModuleID]
	if !ok {
		return course.SubtopicDetail{}, course.ErrSubtopicNotFound
	}
	crs, ok := repo.db.courses[mod.CourseID]
	if !ok {
		return course.SubtopicDetail{}, course.ErrSubtopicNotFound
	}
	return course.SubtopicDetail{
		Subtopic:   sub,
		ModuleName: mod.ModuleName,
		CourseID:   crs.ID,
		CourseName: crs.CourseName,
	}, nil
}

func (repo *courseRepository) UpdateSubtopic(_ context.Context, sub course.Subtopic, exec ...core.DBExecutor) (course.Subtopic, error) {
	defer repo.db.guard(exec)()
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.subtopics[sub.ID]; !ok {
		return course.Subtopic{}, course.ErrSubtopicNotFound
	}
	repo.db.subtopics[sub.ID] = sub
	return sub, nil
}

func (repo *courseRepository) DeleteSubtopic(_ context.Context, id int, exec ...core.DBExecutor) error {
	defer repo.db.guard(exec)()
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.subtopics[id]; !ok {
		return course.ErrSubtopicNotFound
	}
	delete(repo.db.subtopics, id)
	return nil
}

func (repo *courseRepository) SetSubtopicOrder(_ context.Context, moduleID, id, order int, exec ...core.DBExecutor) error {
	defer repo.db.guard(exec)()
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	sub, ok := repo.db.subtopics[id]
	if !ok || sub.ModuleID != moduleID {
		return course.ErrSubtopicNotFound
	}
	sub.SubtopicOrder = order
	repo.db.subtopics[id] = sub
	return nil
}

func (repo *courseRepository) NextSubtopicOrder(_ context.Context, moduleID int, exec ...core.DBExecutor) (int, error) {
	defer repo.db.guard(exec)()
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var max int
	for _, sub := range repo.db.subtopics {
		if sub.ModuleID == moduleID && sub.SubtopicOrder > max {
			max = sub.SubtopicOrder
		}
	}
	return max + 1, nil
}

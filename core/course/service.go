package course

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/coding7860/sparkminds-backend/core"
)

var (
	// errors
	ErrCourseNotFound   = core.NewNotFoundError("Course")
	ErrModuleNotFound   = core.NewNotFoundError("Module")
	ErrSubtopicNotFound = core.NewNotFoundError("Subtopic")

	errCourseFieldsRequired   = errors.New("Course name, description, department, mentor name, and course duration are required")
	errModulesRequired        = errors.New("At least one module is required")
	errModuleCreateRequired   = errors.New("Course ID and module name are required")
	errModuleNameRequired     = errors.New("Module name is required")
	errModuleOrdersNotArray   = errors.New("Module orders must be an array")
	errSubtopicCreateRequired = errors.New("Module ID and subtopic name are required")
	errSubtopicNameRequired   = errors.New("Subtopic name is required")
	errSubtopicOrdersNotArray = errors.New("Subtopic orders must be an array")
	errSubtopicsEmpty         = errors.New("Subtopics must be a non-empty array")
	errSubtopicNamesRequired  = errors.New("Subtopic name is required for all subtopics")

	nowFunc = time.Now
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, crs Course, exec ...core.DBExecutor) (Course, error)
		QueryCourses(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Course, error)
		GetCourse(ctx context.Context, id int, exec ...core.DBExecutor) (Course, error)
		UpdateCourse(ctx context.Context, crs Course, exec ...core.DBExecutor) (Course, error)
		DeleteCourse(ctx context.Context, id int, exec ...core.DBExecutor) error
		// QueryHierarchyRows returns the joined rows of one course (or all of them if courseID is nil),
		// grouped by course and ordered by module and subtopic order.
		QueryHierarchyRows(ctx context.Context, courseID *int, exec ...core.DBExecutor) ([]HierarchyRow, error)
		GetStatistics(ctx context.Context, courseID int, exec ...core.DBExecutor) (Statistics, error)

		CreateModule(ctx context.Context, mod Module, exec ...core.DBExecutor) (Module, error)
		GetModule(ctx context.Context, id int, exec ...core.DBExecutor) (Module, error)
		UpdateModule(ctx context.Context, mod Module, exec ...core.DBExecutor) (Module, error)
		DeleteModule(ctx context.Context, id int, exec ...core.DBExecutor) error
		DeleteSubtopicsByModule(ctx context.Context, moduleID int, exec ...core.DBExecutor) (int, error)
		// SetModuleOrder returns ErrModuleNotFound if the module is not part of the course.
		SetModuleOrder(ctx context.Context, courseID, id, order int, exec ...core.DBExecutor) error
		NextModuleOrder(ctx context.Context, courseID int, exec ...core.DBExecutor) (int, error)

		CreateSubtopic(ctx context.Context, sub Subtopic, exec ...core.DBExecutor) (Subtopic, error)
		QuerySubtopics(ctx context.Context, moduleID int, exec ...core.DBExecutor) ([]Subtopic, error)
		GetSubtopic(ctx context.Context, id int, exec ...core.DBExecutor) (Subtopic, error)
		GetSubtopicDetail(ctx context.Context, id int, exec ...core.DBExecutor) (SubtopicDetail, error)
		UpdateSubtopic(ctx context.Context, sub Subtopic, exec ...core.DBExecutor) (Subtopic, error)
		DeleteSubtopic(ctx context.Context, id int, exec ...core.DBExecutor) error
		// SetSubtopicOrder returns ErrSubtopicNotFound if the subtopic is not part of the module.
		SetSubtopicOrder(ctx context.Context, moduleID, id, order int, exec ...core.DBExecutor) error
		NextSubtopicOrder(ctx context.Context, moduleID int, exec ...core.DBExecutor) (int, error)
	}

	ServiceInterface interface {
		Create(ctx context.Context, nc NewCourse) (Course, error)
		CreateComplete(ctx context.Context, ncc NewCompleteCourse) (CourseTree, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Course, error)
		QueryWithHierarchy(ctx context.Context) ([]CourseTree, error)
		GetByID(ctx context.Context, id int) (Course, error)
		GetWithHierarchy(ctx context.Context, id int) (CourseTree, error)
		Statistics(ctx context.Context, id int) (Statistics, error)
		Update(ctx context.Context, id int, nc NewCourse) (Course, error)
		Delete(ctx context.Context, id int) error

		CreateModule(ctx context.Context, nm NewModule) (Module, error)
		GetModule(ctx context.Context, id int) (ModuleTree, error)
		UpdateModule(ctx context.Context, id int, um UpdateModule) (Module, error)
		DeleteModule(ctx context.Context, id int) error
		ReorderModules(ctx context.Context, courseID int, reorders []Reorder) ([]ModuleTree, error)

		CreateSubtopic(ctx context.Context, ns NewSubtopic) (Subtopic, error)
		CreateSubtopics(ctx context.Context, moduleID int, bs BulkSubtopics) ([]Subtopic, error)
		QuerySubtopics(ctx context.Context, moduleID int) ([]Subtopic, error)
		GetSubtopic(ctx context.Context, id int) (SubtopicDetail, error)
		UpdateSubtopic(ctx context.Context, id int, us UpdateSubtopic) (Subtopic, error)
		DeleteSubtopic(ctx context.Context, id int) error
		ReorderSubtopics(ctx context.Context, moduleID int, reorders []Reorder) ([]Subtopic, error)
	}

	Service struct {
		repo Repository
		tx   core.Transactor
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, tx core.Transactor) *Service {
	return &Service{repo: repo, tx: tx}
}

// wrap keeps validation and not found errors as is so the handler can map them.
func wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	switch errors.Cause(err).(type) {
	case *core.ValidationError, *core.NotFoundError, validator.ValidationErrors:
		return err
	}
	return errors.Wrap(err, msg)
}

func (svc *Service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	if !nc.complete() {
		return Course{}, core.NewValidationError(errCourseFieldsRequired)
	}
	crs, err := svc.repo.CreateCourse(ctx, nc.course(nowFunc().UTC()))
	return crs, wrap(err, "Failed to create course")
}

// CreateComplete writes a course with all its modules and subtopics in one transaction.
// Modules and subtopics take their list positions (from 1) as order; subtopics without a trainer
// are trained by the course mentor.
// Missing course fields or modules are rejected before the transaction opens. Callers wanting
// per-field messages run ncc.Validate first.
func (svc *Service) CreateComplete(ctx context.Context, ncc NewCompleteCourse) (CourseTree, error) {
	if !ncc.NewCourse.complete() {
		return CourseTree{}, core.NewValidationError(errCourseFieldsRequired)
	}
	if len(ncc.Modules) == 0 {
		return CourseTree{}, core.NewValidationError(errModulesRequired)
	}

	var courseID int
	err := svc.tx.InTx(ctx, func(exec core.DBExecutor) error {
		now := nowFunc().UTC()
		crs, err := svc.repo.CreateCourse(ctx, ncc.course(now), exec)
		if err != nil {
			return err
		}
		courseID = crs.ID

		for i, nm := range ncc.Modules {
			if !nm.complete() {
				return core.NewValidationError(errors.Errorf(
					"Module %d is missing required fields (moduleName, description, durationDays)", i+1,
				))
			}
			mod, err := svc.repo.CreateModule(ctx, Module{
				CourseID:     crs.ID,
				ModuleName:   core.CleanString(nm.ModuleName),
				Description:  core.CleanString(nm.Description),
				DurationDays: nm.DurationDays,
				ModuleOrder:  i + 1,
				CreatedAt:    now,
				UpdatedAt:    now,
			}, exec)
			if err != nil {
				return err
			}

			for j, ns := range nm.Subtopics {
				if !ns.complete() {
					return core.NewValidationError(errors.Errorf(
						"Subtopic %d in module \"%s\" is missing required fields", j+1, mod.ModuleName,
					))
				}
				trainingBy := core.CleanString(ns.TrainingBy)
				if trainingBy == "" {
					trainingBy = crs.MentorName
				}
				if _, err = svc.repo.CreateSubtopic(ctx, Subtopic{
					ModuleID:      mod.ID,
					SubtopicName:  core.CleanString(ns.SubtopicName),
					Description:   core.CleanString(ns.Description),
					DurationDays:  ns.DurationDays,
					TrainingBy:    trainingBy,
					SubtopicOrder: j + 1,
					CreatedAt:     now,
					UpdatedAt:     now,
				}, exec); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return CourseTree{}, wrap(err, "Failed to create complete course")
	}
	return svc.GetWithHierarchy(ctx, courseID)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Course, error) {
	if filter == nil {
		filter = new(QueryFilter)
	}
	filter.Clean()

	courses, err := svc.repo.QueryCourses(ctx, filter, ordering)
	if courses == nil {
		courses = []Course{}
	}
	return courses, wrap(err, "Failed to retrieve courses")
}

func (svc *Service) QueryWithHierarchy(ctx context.Context) ([]CourseTree, error) {
	rows, err := svc.repo.QueryHierarchyRows(ctx, nil)
	if err != nil {
		return nil, wrap(err, "Failed to retrieve courses")
	}
	return BuildHierarchy(rows), nil
}

func (svc *Service) GetByID(ctx context.Context, id int) (Course, error) {
	return svc.repo.GetCourse(ctx, id)
}

// GetWithHierarchy returns ErrCourseNotFound when no course has id.
// A course without modules has an empty Modules list.
func (svc *Service) GetWithHierarchy(ctx context.Context, id int) (CourseTree, error) {
	rows, err := svc.repo.QueryHierarchyRows(ctx, &id)
	if err != nil {
		return CourseTree{}, wrap(err, "Failed to retrieve course")
	}
	trees := BuildHierarchy(rows)
	if len(trees) == 0 {
		return CourseTree{}, ErrCourseNotFound
	}
	return trees[0], nil
}

func (svc *Service) Statistics(ctx context.Context, id int) (Statistics, error) {
	stats, err := svc.repo.GetStatistics(ctx, id)
	return stats, wrap(err, "Failed to retrieve course statistics")
}

func (svc *Service) Update(ctx context.Context, id int, nc NewCourse) (Course, error) {
	crs, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return Course{}, err
	}
	updated := nc.course(crs.CreatedAt)
	updated.ID = crs.ID
	updated.UpdatedAt = nowFunc().UTC()

	crs, err = svc.repo.UpdateCourse(ctx, updated)
	return crs, wrap(err, "Failed to update course")
}

func (svc *Service) Delete(ctx context.Context, id int) error {
	return wrap(svc.repo.DeleteCourse(ctx, id), "Failed to delete course")
}

func (svc *Service) CreateModule(ctx context.Context, nm NewModule) (Module, error) {
	if _, err := svc.repo.GetCourse(ctx, nm.CourseID); err != nil {
		if errors.Cause(err) == ErrCourseNotFound {
			return Module{}, core.NewValidationError(ErrCourseNotFound)
		}
		return Module{}, wrap(err, "Failed to create module")
	}

	order := nm.ModuleOrder
	if order <= 0 {
		next, err := svc.repo.NextModuleOrder(ctx, nm.CourseID)
		if err != nil {
			return Module{}, wrap(err, "Failed to create module")
		}
		order = next
	}

	now := nowFunc().UTC()
	mod, err := svc.repo.CreateModule(ctx, Module{
		CourseID:     nm.CourseID,
		ModuleName:   nm.ModuleName,
		Description:  nm.Description,
		DurationDays: nm.DurationDays,
		ModuleOrder:  order,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	return mod, wrap(err, "Failed to create module")
}

func (svc *Service) GetModule(ctx context.Context, id int) (ModuleTree, error) {
	mod, err := svc.repo.GetModule(ctx, id)
	if err != nil {
		return ModuleTree{}, err
	}
	subs, err := svc.QuerySubtopics(ctx, id)
	if err != nil {
		return ModuleTree{}, err
	}
	return ModuleTree{Module: mod, Subtopics: subs}, nil
}

func (svc *Service) UpdateModule(ctx context.Context, id int, um UpdateModule) (Module, error) {
	mod, err := svc.repo.GetModule(ctx, id)
	if err != nil {
		return Module{}, err
	}
	mod.ModuleName = um.ModuleName
	if um.Description != nil {
		mod.Description = core.CleanString(*um.Description)
	}
	if um.DurationDays != nil {
		mod.DurationDays = *um.DurationDays
	}
	if um.ModuleOrder != nil {
		mod.ModuleOrder = *um.ModuleOrder
	}
	mod.UpdatedAt = nowFunc().UTC()

	mod, err = svc.repo.UpdateModule(ctx, mod)
	return mod, wrap(err, "Failed to update module")
}

// DeleteModule deletes the module and its subtopics together.
func (svc *Service) DeleteModule(ctx context.Context, id int) error {
	err := svc.tx.InTx(ctx, func(exec core.DBExecutor) error {
		if _, err := svc.repo.DeleteSubtopicsByModule(ctx, id, exec); err != nil {
			return err
		}
		return svc.repo.DeleteModule(ctx, id, exec)
	})
	return wrap(err, "Failed to delete module")
}

func (svc *Service) ReorderModules(ctx context.Context, courseID int, reorders []Reorder) ([]ModuleTree, error) {
	err := svc.tx.InTx(ctx, func(exec core.DBExecutor) error {
		for _, r := range reorders {
			if err := svc.repo.SetModuleOrder(ctx, courseID, r.ID, r.Order, exec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrap(err, "Failed to reorder modules")
	}
	crs, err := svc.GetWithHierarchy(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return crs.Modules, nil
}

// trainer returns the mentor of the course the module belongs to.
func (svc *Service) trainer(ctx context.Context, mod Module, exec ...core.DBExecutor) (string, error) {
	crs, err := svc.repo.GetCourse(ctx, mod.CourseID, exec...)
	if err != nil {
		return "", err
	}
	return crs.MentorName, nil
}

func (svc *Service) parentModule(ctx context.Context, moduleID int, exec ...core.DBExecutor) (Module, error) {
	mod, err := svc.repo.GetModule(ctx, moduleID, exec...)
	if err != nil {
		if errors.Cause(err) == ErrModuleNotFound {
			return Module{}, core.NewValidationError(ErrModuleNotFound)
		}
		return Module{}, err
	}
	return mod, nil
}

func (svc *Service) newSubtopic(ctx context.Context, mod Module, ns NewSubtopic, now time.Time, exec ...core.DBExecutor) (Subtopic, error) {
	trainingBy := ns.TrainingBy
	if trainingBy == "" {
		mentor, err := svc.trainer(ctx, mod, exec...)
		if err != nil {
			return Subtopic{}, err
		}
		trainingBy = mentor
	}
	order := ns.SubtopicOrder
	if order <= 0 {
		next, err := svc.repo.NextSubtopicOrder(ctx, mod.ID, exec...)
		if err != nil {
			return Subtopic{}, err
		}
		order = next
	}
	return svc.repo.CreateSubtopic(ctx, Subtopic{
		ModuleID:      mod.ID,
		SubtopicName:  ns.SubtopicName,
		Description:   ns.Description,
		DurationDays:  ns.DurationDays,
		TrainingBy:    trainingBy,
		SubtopicOrder: order,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, exec...)
}

func (svc *Service) CreateSubtopic(ctx context.Context, ns NewSubtopic) (Subtopic, error) {
	mod, err := svc.parentModule(ctx, ns.ModuleID)
	if err != nil {
		return Subtopic{}, wrap(err, "Failed to create subtopic")
	}
	sub, err := svc.newSubtopic(ctx, mod, ns, nowFunc().UTC())
	return sub, wrap(err, "Failed to create subtopic")
}

// CreateSubtopics appends all subtopics to the module in one transaction and returns the module's subtopics.
func (svc *Service) CreateSubtopics(ctx context.Context, moduleID int, bs BulkSubtopics) ([]Subtopic, error) {
	err := svc.tx.InTx(ctx, func(exec core.DBExecutor) error {
		mod, err := svc.parentModule(ctx, moduleID, exec)
		if err != nil {
			return err
		}
		now := nowFunc().UTC()
		for _, ns := range bs.Subtopics {
			ns.ModuleID = moduleID
			ns.SubtopicOrder = 0
			if _, err = svc.newSubtopic(ctx, mod, ns, now, exec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrap(err, "Failed to create subtopics")
	}
	return svc.QuerySubtopics(ctx, moduleID)
}

func (svc *Service) QuerySubtopics(ctx context.Context, moduleID int) ([]Subtopic, error) {
	subs, err := svc.repo.QuerySubtopics(ctx, moduleID)
	if subs == nil {
		subs = []Subtopic{}
	}
	return subs, wrap(err, "Failed to retrieve subtopics")
}

func (svc *Service) GetSubtopic(ctx context.Context, id int) (SubtopicDetail, error) {
	return svc.repo.GetSubtopicDetail(ctx, id)
}

func (svc *Service) UpdateSubtopic(ctx context.Context, id int, us UpdateSubtopic) (Subtopic, error) {
	sub, err := svc.repo.GetSubtopic(ctx, id)
	if err != nil {
		return Subtopic{}, err
	}
	sub.SubtopicName = us.SubtopicName
	if us.Description != nil {
		sub.Description = core.CleanString(*us.Description)
	}
	if us.DurationDays != nil {
		sub.DurationDays = *us.DurationDays
	}
	if us.TrainingBy != nil {
		sub.TrainingBy = core.CleanString(*us.TrainingBy)
	}
	if us.SubtopicOrder != nil {
		sub.SubtopicOrder = *us.SubtopicOrder
	}
	sub.UpdatedAt = nowFunc().UTC()

	sub, err = svc.repo.UpdateSubtopic(ctx, sub)
	return sub, wrap(err, "Failed to update subtopic")
}

func (svc *Service) DeleteSubtopic(ctx context.Context, id int) error {
	return wrap(svc.repo.DeleteSubtopic(ctx, id), "Failed to delete subtopic")
}

func (svc *Service) ReorderSubtopics(ctx context.Context, moduleID int, reorders []Reorder) ([]Subtopic, error) {
	err := svc.tx.InTx(ctx, func(exec core.DBExecutor) error {
		for _, r := range reorders {
			if err := svc.repo.SetSubtopicOrder(ctx, moduleID, r.ID, r.Order, exec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrap(err, "Failed to reorder subtopics")
	}
	return svc.QuerySubtopics(ctx, moduleID)
}

package course

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/coding7860/sparkminds-backend/core"
)

type Course struct {
	ID             int       `json:"id"`
	CourseName     string    `json:"courseName"`
	Description    string    `json:"description"`
	Department     string    `json:"department"`
	MentorName     string    `json:"mentorName"`
	CourseTemplate *string   `json:"courseTemplate"`
	CourseDuration string    `json:"courseDuration"`
	CreatedAt      time.Time `json:"createdAt"` // UTC
	UpdatedAt      time.Time `json:"updatedAt"` // UTC
}

type Module struct {
	ID           int       `json:"id"`
	CourseID     int       `json:"courseId"`
	ModuleName   string    `json:"moduleName"`
	Description  string    `json:"description"`
	DurationDays int       `json:"durationDays"`
	ModuleOrder  int       `json:"moduleOrder"`
	CreatedAt    time.Time `json:"createdAt"` // UTC
	UpdatedAt    time.Time `json:"updatedAt"` // UTC
}

type Subtopic struct {
	ID            int       `json:"id"`
	ModuleID      int       `json:"moduleId"`
	SubtopicName  string    `json:"subtopicName"`
	Description   string    `json:"description"`
	DurationDays  int       `json:"durationDays"`
	TrainingBy    string    `json:"trainingBy"`
	SubtopicOrder int       `json:"subtopicOrder"`
	CreatedAt     time.Time `json:"createdAt"` // UTC
	UpdatedAt     time.Time `json:"updatedAt"` // UTC
}

// SubtopicDetail is a Subtopic with its module and course.
type SubtopicDetail struct {
	Subtopic
	ModuleName string `json:"moduleName"`
	CourseID   int    `json:"courseId"`
	CourseName string `json:"courseName"`
}

// ModuleTree is a Module with its ordered subtopics. Subtopics is never nil.
type ModuleTree struct {
	Module
	Subtopics []Subtopic `json:"subtopics"`
}

// CourseTree is a fully materialized Course. Modules is never nil.
type CourseTree struct {
	Course
	Modules []ModuleTree `json:"modules"`
}

type Statistics struct {
	ID            int    `json:"id"`
	CourseName    string `json:"courseName"`
	ModuleCount   int    `json:"moduleCount"`
	SubtopicCount int    `json:"subtopicCount"`
	TotalDuration int    `json:"totalDuration"`
}

// NewCourse contains information needed to create (or fully update) a Course.
type NewCourse struct {
	CourseName     string `json:"courseName" validate:"required,max=255"`
	Description    string `json:"description" validate:"required"`
	Department     string `json:"department" validate:"required,max=100"`
	MentorName     string `json:"mentorName" validate:"required,max=255"`
	CourseTemplate string `json:"courseTemplate" validate:"max=255"`
	CourseDuration string `json:"courseDuration" validate:"required,max=100"`
}

func (nc *NewCourse) clean() {
	nc.CourseName = core.CleanString(nc.CourseName)
	nc.Description = core.CleanString(nc.Description)
	nc.Department = core.CleanString(nc.Department)
	nc.MentorName = core.CleanString(nc.MentorName)
	nc.CourseTemplate = core.CleanString(nc.CourseTemplate)
	nc.CourseDuration = core.CleanString(nc.CourseDuration)
}

// complete reports whether every required course field is set.
func (nc NewCourse) complete() bool {
	for _, fld := range []string{nc.CourseName, nc.Description, nc.Department, nc.MentorName, nc.CourseDuration} {
		if core.CleanString(fld) == "" {
			return false
		}
	}
	return true
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.clean()
	return validate.Struct(nc)
}

func (nc NewCourse) course(now time.Time) Course {
	var tmpl *string
	if nc.CourseTemplate != "" {
		tmpl = &nc.CourseTemplate
	}
	return Course{
		CourseName:     nc.CourseName,
		Description:    nc.Description,
		Department:     nc.Department,
		MentorName:     nc.MentorName,
		CourseTemplate: tmpl,
		CourseDuration: nc.CourseDuration,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// NewCompleteCourse is a course with its ordered modules and subtopics, written at once.
type NewCompleteCourse struct {
	NewCourse
	Modules []NewCourseModule `json:"modules"`
}

func (ncc *NewCompleteCourse) Validate(validate *validator.Validate) error {
	return ncc.NewCourse.Validate(validate)
}

// NewCourseModule is a module of a NewCompleteCourse. Its position is its index in the list.
type NewCourseModule struct {
	ModuleName   string              `json:"moduleName"`
	Description  string              `json:"description"`
	DurationDays int                 `json:"durationDays"`
	Subtopics    []NewCourseSubtopic `json:"subtopics"`
}

func (nm NewCourseModule) complete() bool {
	return core.CleanString(nm.ModuleName) != "" && core.CleanString(nm.Description) != "" && nm.DurationDays > 0
}

// NewCourseSubtopic is a subtopic of a NewCourseModule. Its position is its index in the list.
type NewCourseSubtopic struct {
	SubtopicName string `json:"subtopicName"`
	Description  string `json:"description"`
	DurationDays int    `json:"durationDays"`
	TrainingBy   string `json:"trainingBy"`
}

func (ns NewCourseSubtopic) complete() bool {
	return core.CleanString(ns.SubtopicName) != "" && core.CleanString(ns.Description) != "" && ns.DurationDays > 0
}

type NewModule struct {
	CourseID     int    `json:"courseId"`
	ModuleName   string `json:"moduleName"`
	Description  string `json:"description"`
	DurationDays int    `json:"durationDays" validate:"gte=0"`
	ModuleOrder  int    `json:"moduleOrder" validate:"gte=0"` // 0: append
}

func (nm *NewModule) Validate(validate *validator.Validate) error {
	nm.ModuleName = core.CleanString(nm.ModuleName)
	nm.Description = core.CleanString(nm.Description)
	if nm.CourseID <= 0 || nm.ModuleName == "" {
		return core.NewValidationError(errModuleCreateRequired)
	}
	return validate.Struct(nm)
}

// UpdateModule defines what may be changed on a Module. Nil fields keep their current values.
type UpdateModule struct {
	ModuleName   string  `json:"moduleName"`
	Description  *string `json:"description"`
	DurationDays *int    `json:"durationDays" validate:"omitempty,gte=0"`
	ModuleOrder  *int    `json:"moduleOrder" validate:"omitempty,gte=1"`
}

func (um *UpdateModule) Validate(validate *validator.Validate) error {
	um.ModuleName = core.CleanString(um.ModuleName)
	if um.ModuleName == "" {
		return core.NewValidationError(errModuleNameRequired)
	}
	return validate.Struct(um)
}

type NewSubtopic struct {
	ModuleID      int    `json:"moduleId"`
	SubtopicName  string `json:"subtopicName"`
	Description   string `json:"description"`
	DurationDays  int    `json:"durationDays" validate:"gte=0"`
	TrainingBy    string `json:"trainingBy" validate:"max=255"`
	SubtopicOrder int    `json:"subtopicOrder" validate:"gte=0"` // 0: append
}

func (ns *NewSubtopic) Validate(validate *validator.Validate) error {
	ns.SubtopicName = core.CleanString(ns.SubtopicName)
	ns.Description = core.CleanString(ns.Description)
	ns.TrainingBy = core.CleanString(ns.TrainingBy)
	if ns.ModuleID <= 0 || ns.SubtopicName == "" {
		return core.NewValidationError(errSubtopicCreateRequired)
	}
	return validate.Struct(ns)
}

// UpdateSubtopic defines what may be changed on a Subtopic. Nil fields keep their current values.
type UpdateSubtopic struct {
	SubtopicName  string  `json:"subtopicName"`
	Description   *string `json:"description"`
	DurationDays  *int    `json:"durationDays" validate:"omitempty,gte=0"`
	TrainingBy    *string `json:"trainingBy" validate:"omitempty,max=255"`
	SubtopicOrder *int    `json:"subtopicOrder" validate:"omitempty,gte=1"`
}

func (us *UpdateSubtopic) Validate(validate *validator.Validate) error {
	us.SubtopicName = core.CleanString(us.SubtopicName)
	if us.SubtopicName == "" {
		return core.NewValidationError(errSubtopicNameRequired)
	}
	return validate.Struct(us)
}

// BulkSubtopics creates many subtopics of a module at once, appended in order.
type BulkSubtopics struct {
	Subtopics []NewSubtopic `json:"subtopics"`
}

func (bs *BulkSubtopics) Validate(validate *validator.Validate) error {
	if len(bs.Subtopics) == 0 {
		return core.NewValidationError(errSubtopicsEmpty)
	}
	for i := range bs.Subtopics {
		s := &bs.Subtopics[i]
		s.SubtopicName = core.CleanString(s.SubtopicName)
		s.Description = core.CleanString(s.Description)
		s.TrainingBy = core.CleanString(s.TrainingBy)
		if s.SubtopicName == "" {
			return core.NewValidationError(errSubtopicNamesRequired)
		}
		if err := validate.Struct(s); err != nil {
			return err
		}
	}
	return nil
}

// Reorder is one entry of a reorder request: the new position of the record with ID.
type Reorder struct {
	ID    int `json:"id" validate:"required"`
	Order int `json:"order" validate:"gte=1"`
}

type ModuleOrders struct {
	ModuleOrders []struct {
		ID          int `json:"id"`
		ModuleOrder int `json:"moduleOrder"`
	} `json:"moduleOrders"`
}

func (mo ModuleOrders) Reorders(validate *validator.Validate) ([]Reorder, error) {
	if mo.ModuleOrders == nil {
		return nil, core.NewValidationError(errModuleOrdersNotArray)
	}
	reorders := make([]Reorder, 0, len(mo.ModuleOrders))
	for _, o := range mo.ModuleOrders {
		r := Reorder{ID: o.ID, Order: o.ModuleOrder}
		if err := validate.Struct(r); err != nil {
			return nil, err
		}
		reorders = append(reorders, r)
	}
	return reorders, nil
}

type SubtopicOrders struct {
	SubtopicOrders []struct {
		ID            int `json:"id"`
		SubtopicOrder int `json:"subtopicOrder"`
	} `json:"subtopicOrders"`
}

func (so SubtopicOrders) Reorders(validate *validator.Validate) ([]Reorder, error) {
	if so.SubtopicOrders == nil {
		return nil, core.NewValidationError(errSubtopicOrdersNotArray)
	}
	reorders := make([]Reorder, 0, len(so.SubtopicOrders))
	for _, o := range so.SubtopicOrders {
		r := Reorder{ID: o.ID, Order: o.SubtopicOrder}
		if err := validate.Struct(r); err != nil {
			return nil, err
		}
		reorders = append(reorders, r)
	}
	return reorders, nil
}

type QueryFilter struct {
	Department string `query:"department"`
	Mentor     string `query:"mentor"`
}

func (qf *QueryFilter) Clean() {
	qf.Department = core.CleanString(qf.Department)
	qf.Mentor = core.CleanString(qf.Mentor)
}

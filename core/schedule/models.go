package schedule

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/coding7860/sparkminds-backend/core"
)

const (
	DateLayout     = "2006-01-02"
	TimeLayout     = "15:04:05"
	dateTimeLayout = DateLayout + " " + TimeLayout

	defaultDuration    = "2 hours"
	defaultClassType   = "Virtual"
	defaultMaxTrainees = 25

	defaultLimit = 10
	maxLimit     = 100
)

type Class struct {
	ID          int       `json:"id"`
	ClassTitle  string    `json:"classTitle"`
	Description string    `json:"description"`
	CourseID    *int      `json:"courseId"`
	MentorName  string    `json:"mentorName"`
	ClassDate   string    `json:"classDate"` // YYYY-MM-DD
	ClassTime   string    `json:"classTime"` // HH:MM:SS
	Duration    string    `json:"duration"`
	ClassType   string    `json:"classType"`
	MaxTrainees int       `json:"maxTrainees"`
	MeetingLink *string   `json:"meetingLink"`
	CreatedAt   time.Time `json:"createdAt"` // UTC
	UpdatedAt   time.Time `json:"updatedAt"` // UTC
}

// StartsAt returns the class start in the server's local time.
func (c Class) StartsAt() (time.Time, error) {
	return startsAt(c.ClassDate, c.ClassTime)
}

func startsAt(date, tm string) (time.Time, error) {
	return time.ParseInLocation(dateTimeLayout, date+" "+tm, time.Local)
}

// NewClass contains information needed to schedule a Class.
type NewClass struct {
	ClassTitle  string `json:"classTitle" validate:"max=255"`
	Description string `json:"description"`
	CourseID    *int   `json:"courseId" validate:"omitempty,gt=0"`
	MentorName  string `json:"mentorName" validate:"max=255"`
	ClassDate   string `json:"classDate"`
	ClassTime   string `json:"classTime"`
	Duration    string `json:"duration" validate:"max=50"`
	ClassType   string `json:"classType" validate:"max=50"`
	MaxTrainees int    `json:"maxTrainees" validate:"gte=0"`
	MeetingLink string `json:"meetingLink" validate:"omitempty,url,max=500"`
}

func (nc *NewClass) clean() {
	nc.ClassTitle = core.CleanString(nc.ClassTitle)
	nc.Description = core.CleanString(nc.Description)
	nc.MentorName = core.CleanString(nc.MentorName)
	nc.ClassDate = core.CleanString(nc.ClassDate)
	nc.ClassTime = core.CleanString(nc.ClassTime)
	nc.Duration = core.CleanString(nc.Duration)
	nc.ClassType = core.CleanString(nc.ClassType)
	nc.MeetingLink = core.CleanString(nc.MeetingLink)
	if nc.Duration == "" {
		nc.Duration = defaultDuration
	}
	if nc.ClassType == "" {
		nc.ClassType = defaultClassType
	}
	if nc.MaxTrainees == 0 {
		nc.MaxTrainees = defaultMaxTrainees
	}
}

func (nc *NewClass) Validate(validate *validator.Validate) error {
	nc.clean()
	if nc.ClassTitle == "" || nc.Description == "" || nc.MentorName == "" || nc.ClassDate == "" || nc.ClassTime == "" {
		return core.NewValidationError(errMissingFields)
	}
	if err := validateDateTime(validate, &nc.ClassDate, &nc.ClassTime); err != nil {
		return err
	}
	return validate.Struct(nc)
}

// UpdateClass defines what may be changed on a Class. Nil fields keep their current values.
type UpdateClass struct {
	ClassTitle  *string `json:"classTitle" validate:"omitempty,max=255"`
	Description *string `json:"description"`
	CourseID    *int    `json:"courseId" validate:"omitempty,gt=0"`
	MentorName  *string `json:"mentorName" validate:"omitempty,max=255"`
	ClassDate   *string `json:"classDate"`
	ClassTime   *string `json:"classTime"`
	Duration    *string `json:"duration" validate:"omitempty,max=50"`
	ClassType   *string `json:"classType" validate:"omitempty,max=50"`
	MaxTrainees *int    `json:"maxTrainees" validate:"omitempty,gt=0"`
	MeetingLink *string `json:"meetingLink" validate:"omitempty,max=500"`
}

func (uc *UpdateClass) Validate(validate *validator.Validate) error {
	if err := validateDateTime(validate, uc.ClassDate, uc.ClassTime); err != nil {
		return err
	}
	return validate.Struct(uc)
}

// reschedules reports whether the update moves the class.
func (uc UpdateClass) reschedules() bool {
	return (uc.ClassDate != nil && *uc.ClassDate != "") || (uc.ClassTime != nil && *uc.ClassTime != "")
}

// validateDateTime checks the formats of the provided (non-nil, non-empty) date and time.
func validateDateTime(validate *validator.Validate, date, tm *string) error {
	if date != nil && *date != "" {
		*date = core.CleanString(*date)
		if validate.Var(*date, classDateTag) != nil {
			return core.NewValidationError(errInvalidDate)
		}
	}
	if tm != nil && *tm != "" {
		*tm = core.CleanString(*tm)
		if validate.Var(*tm, classTimeTag) != nil {
			return core.NewValidationError(errInvalidTime)
		}
	}
	return nil
}

type QueryFilter struct {
	Page       int    `query:"page"`
	Limit      int    `query:"limit"`
	CourseID   int    `query:"courseId"`
	MentorName string `query:"mentorName"`
	Upcoming   bool   `query:"upcoming"`
}

// Clean applies the page defaults.
func (qf *QueryFilter) Clean() {
	qf.MentorName = core.CleanString(qf.MentorName)
	if qf.Page < 1 {
		qf.Page = 1
	}
	if qf.Limit < 1 {
		qf.Limit = defaultLimit
	}
	if qf.Limit > maxLimit {
		qf.Limit = maxLimit
	}
}

func (qf QueryFilter) Offset() int {
	if qf.Limit <= 0 || qf.Page <= 1 {
		return 0
	}
	return (qf.Page - 1) * qf.Limit
}

type Pagination struct {
	CurrentPage  int  `json:"currentPage"`
	TotalPages   int  `json:"totalPages"`
	TotalClasses int  `json:"totalClasses"`
	HasNextPage  bool `json:"hasNextPage"`
	HasPrevPage  bool `json:"hasPrevPage"`
}

type Page struct {
	Classes    []Class    `json:"classes"`
	Pagination Pagination `json:"pagination"`
}

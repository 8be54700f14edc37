package schedule

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/coding7860/sparkminds-backend/core"
)

var (
	// errors
	ErrNotFound      = core.NewNotFoundError("Class schedule")
	errMissingFields = errors.New("Missing required fields: class_title, description, mentor_name, class_date, class_time")
	errInvalidDate   = errors.New("Invalid date format. Use YYYY-MM-DD")
	errInvalidTime   = errors.New("Invalid time format. Use HH:MM:SS")
	errPastClass     = errors.New("Class date and time must be in the future")

	nowFunc = time.Now
)

type (
	Repository interface {
		CreateClass(ctx context.Context, cls Class, exec ...core.DBExecutor) (Class, error)
		// QueryClasses returns the classes matching filter and the total number of matches.
		// Classes are ordered by date (newest first) then time, or chronologically when filter.Upcoming is set.
		// A filter.Limit of 0 returns every match.
		QueryClasses(ctx context.Context, filter *QueryFilter, exec ...core.DBExecutor) ([]Class, int, error)
		GetClass(ctx context.Context, id int, exec ...core.DBExecutor) (Class, error)
		UpdateClass(ctx context.Context, cls Class, exec ...core.DBExecutor) (Class, error)
		DeleteClass(ctx context.Context, id int, exec ...core.DBExecutor) error
	}

	ServiceInterface interface {
		Create(ctx context.Context, nc NewClass) (Class, error)
		Query(ctx context.Context, filter *QueryFilter) (Page, error)
		List(ctx context.Context, filter QueryFilter) ([]Class, error)
		GetByID(ctx context.Context, id int) (Class, error)
		Update(ctx context.Context, id int, uc UpdateClass) (Class, error)
		Delete(ctx context.Context, id int) error
	}

	Service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func checkFuture(date, tm string) error {
	start, err := startsAt(date, tm)
	if err != nil {
		return core.NewValidationError(errInvalidDate)
	}
	if !start.After(nowFunc()) {
		return core.NewValidationError(errPastClass)
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nc NewClass) (Class, error) {
	if err := checkFuture(nc.ClassDate, nc.ClassTime); err != nil {
		return Class{}, err
	}

	now := nowFunc().UTC()
	cls := Class{
		ClassTitle:  nc.ClassTitle,
		Description: nc.Description,
		CourseID:    nc.CourseID,
		MentorName:  nc.MentorName,
		ClassDate:   nc.ClassDate,
		ClassTime:   nc.ClassTime,
		Duration:    nc.Duration,
		ClassType:   nc.ClassType,
		MaxTrainees: nc.MaxTrainees,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if nc.MeetingLink != "" {
		cls.MeetingLink = &nc.MeetingLink
	}
	cls, err := svc.repo.CreateClass(ctx, cls)
	return cls, errors.Wrap(err, "Failed to create class schedule")
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) (Page, error) {
	if filter == nil {
		filter = new(QueryFilter)
	}
	filter.Clean()

	classes, total, err := svc.repo.QueryClasses(ctx, filter)
	if err != nil {
		return Page{}, errors.Wrap(err, "Failed to retrieve classes")
	}
	if classes == nil {
		classes = []Class{}
	}

	totalPages := (total + filter.Limit - 1) / filter.Limit
	return Page{
		Classes: classes,
		Pagination: Pagination{
			CurrentPage:  filter.Page,
			TotalPages:   totalPages,
			TotalClasses: total,
			HasNextPage:  filter.Page*filter.Limit < total,
			HasPrevPage:  filter.Page > 1,
		},
	}, nil
}

// List returns every class matching filter, ignoring pagination.
func (svc *Service) List(ctx context.Context, filter QueryFilter) ([]Class, error) {
	filter.MentorName = core.CleanString(filter.MentorName)
	filter.Page, filter.Limit = 0, 0

	classes, _, err := svc.repo.QueryClasses(ctx, &filter)
	if classes == nil {
		classes = []Class{}
	}
	return classes, errors.Wrap(err, "Failed to retrieve classes")
}

func (svc *Service) GetByID(ctx context.Context, id int) (Class, error) {
	return svc.repo.GetClass(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id int, uc UpdateClass) (Class, error) {
	cls, err := svc.repo.GetClass(ctx, id)
	if err != nil {
		return Class{}, err
	}

	if uc.reschedules() {
		if uc.ClassDate != nil && *uc.ClassDate != "" {
			cls.ClassDate = *uc.ClassDate
		}
		if uc.ClassTime != nil && *uc.ClassTime != "" {
			cls.ClassTime = *uc.ClassTime
		}
		if err = checkFuture(cls.ClassDate, cls.ClassTime); err != nil {
			return Class{}, err
		}
	}
	if uc.ClassTitle != nil && core.CleanString(*uc.ClassTitle) != "" {
		cls.ClassTitle = core.CleanString(*uc.ClassTitle)
	}
	if uc.Description != nil && core.CleanString(*uc.Description) != "" {
		cls.Description = core.CleanString(*uc.Description)
	}
	if uc.CourseID != nil {
		cls.CourseID = uc.CourseID
	}
	if uc.MentorName != nil && core.CleanString(*uc.MentorName) != "" {
		cls.MentorName = core.CleanString(*uc.MentorName)
	}
	if uc.Duration != nil && core.CleanString(*uc.Duration) != "" {
		cls.Duration = core.CleanString(*uc.Duration)
	}
	if uc.ClassType != nil && core.CleanString(*uc.ClassType) != "" {
		cls.ClassType = core.CleanString(*uc.ClassType)
	}
	if uc.MaxTrainees != nil {
		cls.MaxTrainees = *uc.MaxTrainees
	}
	if uc.MeetingLink != nil {
		if link := core.CleanString(*uc.MeetingLink); link != "" {
			cls.MeetingLink = &link
		} else {
			cls.MeetingLink = nil
		}
	}
	cls.UpdatedAt = nowFunc().UTC()

	cls, err = svc.repo.UpdateClass(ctx, cls)
	return cls, errors.Wrap(err, "Failed to update class schedule")
}

func (svc *Service) Delete(ctx context.Context, id int) error {
	return errors.Wrap(svc.repo.DeleteClass(ctx, id), "Failed to delete class schedule")
}

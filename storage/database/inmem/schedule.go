package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/coding7860/sparkminds-backend/core"
	"github.com/coding7860/sparkminds-backend/core/schedule"
)

type classRepository struct {
	db  *DB
	now func() time.Time
}

var _ schedule.Repository = (*classRepository)(nil) // interface compliance check

func NewClassRepository(db *DB) *classRepository {
	return &classRepository{db: db, now: time.Now}
}

func (repo *classRepository) CreateClass(_ context.Context, cls schedule.Class, exec ...core.DBExecutor) (schedule.Class, error) {
	defer repo.db.guard(exec)()
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	cls.ID = repo.db.nextID()
	repo.db.classes[cls.ID] = cls
	return cls, nil
}

func (repo *classRepository) matches(cls schedule.Class, filter *schedule.QueryFilter, now time.Time) bool {
	if filter == nil {
		return true
	}
	if filter.CourseID > 0 && (cls.CourseID == nil || *cls.CourseID != filter.CourseID) {
		return false
	}
	if filter.MentorName != "" && cls.MentorName != filter.MentorName {
		return false
	}
	if filter.Upcoming {
		start, err := cls.StartsAt()
		if err != nil || !start.After(now) {
			return false
		}
	}
	return true
}

func (repo *classRepository) QueryClasses(_ context.Context, filter *schedule.QueryFilter, exec ...core.DBExecutor) ([]schedule.Class, int, error) {
	defer repo.db.guard(exec)()
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	now := repo.now()
	classes := make([]schedule.Class, 0, len(repo.db.classes))
	for _, cls := range repo.db.classes {
		if repo.matches(cls, filter, now) {
			classes = append(classes, cls)
		}
	}

	upcoming := filter != nil && filter.Upcoming
	sort.Slice(classes, func(i, j int) bool {
		a, b := classes[i], classes[j]
		if a.ClassDate != b.ClassDate {
			// ISO dates sort as strings
			if upcoming {
				return a.ClassDate < b.ClassDate
			}
			return a.ClassDate > b.ClassDate
		}
		if a.ClassTime != b.ClassTime {
			return a.ClassTime < b.ClassTime
		}
		return a.ID < b.ID
	})

	total := len(classes)
	if filter != nil {
		classes = page(classes, filter.Limit, filter.Offset())
	}
	return classes, total, nil
}

func (repo *classRepository) GetClass(_ context.Context, id int, exec ...core.DBExecutor) (schedule.Class, error) {
	defer repo.db.guard(exec)()
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if cls, ok := repo.db.classes[id]; ok {
		return cls, nil
	}
	return schedule.Class{}, schedule.ErrNotFound
}

func (repo *classRepository) UpdateClass(_ context.Context, cls schedule.Class, exec ...core.DBExecutor) (schedule.Class, error) {
	defer repo.db.guard(exec)()
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.classes[cls.ID]; !ok {
		return schedule.Class{}, schedule.ErrNotFound
	}
	repo.db.classes[cls.ID] = cls
	return cls, nil
}

func (repo *classRepository) DeleteClass(_ context.Context, id int, exec ...core.DBExecutor) error {
	defer repo.db.guard(exec)()
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.classes[id]; !ok {
		return schedule.ErrNotFound
	}
	delete(repo.db.classes, id)
	return nil
}

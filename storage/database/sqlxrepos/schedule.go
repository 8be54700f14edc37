package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/coding7860/sparkminds-backend/core"
	"github.com/coding7860/sparkminds-backend/core/schedule"
	"github.com/coding7860/sparkminds-backend/storage/database"
)

const classColumns = `cls.id, cls.class_title, cls.description, cls.course_id, cls.mentor_name,
	to_char(cls.class_date, 'YYYY-MM-DD') AS class_date, to_char(cls.class_time, 'HH24:MI:SS') AS class_time,
	cls.duration, cls.class_type, cls.max_trainees, cls.meeting_link, cls.created_at, cls.updated_at`

type classRow struct {
	ID          int         `db:"id"`
	ClassTitle  string      `db:"class_title"`
	Description string      `db:"description"`
	CourseID    null.Int    `db:"course_id"`
	MentorName  string      `db:"mentor_name"`
	ClassDate   string      `db:"class_date"`
	ClassTime   string      `db:"class_time"`
	Duration    string      `db:"duration"`
	ClassType   string      `db:"class_type"`
	MaxTrainees int         `db:"max_trainees"`
	MeetingLink null.String `db:"meeting_link"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

func (r classRow) class() schedule.Class {
	return schedule.Class{
		ID:          r.ID,
		ClassTitle:  r.ClassTitle,
		Description: r.Description,
		CourseID:    r.CourseID.Ptr(),
		MentorName:  r.MentorName,
		ClassDate:   r.ClassDate,
		ClassTime:   r.ClassTime,
		Duration:    r.Duration,
		ClassType:   r.ClassType,
		MaxTrainees: r.MaxTrainees,
		MeetingLink: r.MeetingLink.Ptr(),
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

type classRepository struct {
	baseRepository
}

var _ schedule.Repository = (*classRepository)(nil) // interface compliance check

func NewClassRepository(exec core.DBExecutor) *classRepository {
	return &classRepository{baseRepository{exec: exec}}
}

func (repo classRepository) CreateClass(ctx context.Context, cls schedule.Class, exec ...core.DBExecutor) (schedule.Class, error) {
	q := `INSERT INTO class_schedules
		(class_title, description, course_id, mentor_name, class_date, class_time, duration, class_type, max_trainees,
		meeting_link, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?::date, ?::time, ?, ?, ?, ?, ?, ?) RETURNING id`
	err := queryRow(ctx, repo.getExec(exec), q,
		cls.ClassTitle, cls.Description, null.IntFromPtr(cls.CourseID), cls.MentorName, cls.ClassDate, cls.ClassTime,
		cls.Duration, cls.ClassType, cls.MaxTrainees, null.StringFromPtr(cls.MeetingLink), cls.CreatedAt, cls.UpdatedAt,
	).Scan(&cls.ID)
	if err != nil {
		return schedule.Class{}, database.ClassifyError(err, "inserting class schedule")
	}
	return cls, nil
}

func classWhere(filter *schedule.QueryFilter) (string, []interface{}) {
	conds := []string{"1 = 1"}
	var args []interface{}
	if filter != nil {
		if filter.CourseID > 0 {
			conds = append(conds, "cls.course_id = ?")
			args = append(args, filter.CourseID)
		}
		if filter.MentorName != "" {
			conds = append(conds, "cls.mentor_name = ?")
			args = append(args, filter.MentorName)
		}
		if filter.Upcoming {
			conds = append(conds, "(cls.class_date + cls.class_time) > LOCALTIMESTAMP")
		}
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (repo classRepository) QueryClasses(ctx context.Context, filter *schedule.QueryFilter, exec ...core.DBExecutor) ([]schedule.Class, int, error) {
	exe := repo.getExec(exec)
	where, args := classWhere(filter)

	var total int
	if err := queryRow(ctx, exe, `SELECT COUNT(*) FROM class_schedules cls`+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "counting class schedules")
	}

	q := `SELECT ` + classColumns + ` FROM class_schedules cls` + where
	if filter != nil && filter.Upcoming {
		q += ` ORDER BY cls.class_date ASC, cls.class_time ASC, cls.id ASC`
	} else {
		q += ` ORDER BY cls.class_date DESC, cls.class_time ASC, cls.id ASC`
	}
	if filter != nil && filter.Limit > 0 {
		q += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset())
	}

	var rows []classRow
	if err := selectRows(ctx, exe, &rows, q, args...); err != nil {
		return nil, 0, errors.Wrap(err, "querying class schedules")
	}
	classes := make([]schedule.Class, 0, len(rows))
	for _, r := range rows {
		classes = append(classes, r.class())
	}
	return classes, total, nil
}

func (repo classRepository) GetClass(ctx context.Context, id int, exec ...core.DBExecutor) (schedule.Class, error) {
	var rows []classRow
	if err := selectRows(ctx, repo.getExec(exec), &rows, `SELECT `+classColumns+` FROM class_schedules cls WHERE cls.id = ?`, id); err != nil {
		return schedule.Class{}, errors.Wrap(err, "finding class schedule")
	}
	if len(rows) == 0 {
		return schedule.Class{}, schedule.ErrNotFound
	}
	return rows[0].class(), nil
}

func (repo classRepository) UpdateClass(ctx context.Context, cls schedule.Class, exec ...core.DBExecutor) (schedule.Class, error) {
	q := `UPDATE class_schedules SET class_title = ?, description = ?, course_id = ?, mentor_name = ?,
		class_date = ?::date, class_time = ?::time, duration = ?, class_type = ?, max_trainees = ?, meeting_link = ?,
		updated_at = ? WHERE id = ?`
	_, err := execAffecting(ctx, repo.getExec(exec), schedule.ErrNotFound, q,
		cls.ClassTitle, cls.Description, null.IntFromPtr(cls.CourseID), cls.MentorName, cls.ClassDate, cls.ClassTime,
		cls.Duration, cls.ClassType, cls.MaxTrainees, null.StringFromPtr(cls.MeetingLink), cls.UpdatedAt, cls.ID,
	)
	if err != nil {
		if err == schedule.ErrNotFound {
			return schedule.Class{}, err
		}
		return schedule.Class{}, database.ClassifyError(err, "updating class schedule")
	}
	return cls, nil
}

func (repo classRepository) DeleteClass(ctx context.Context, id int, exec ...core.DBExecutor) error {
	_, err := execAffecting(ctx, repo.getExec(exec), schedule.ErrNotFound, `DELETE FROM class_schedules WHERE id = ?`, id)
	if err != nil && err != schedule.ErrNotFound {
		return errors.Wrap(err, "deleting class schedule")
	}
	return err
}

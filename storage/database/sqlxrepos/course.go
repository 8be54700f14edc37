package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/coding7860/sparkminds-backend/core"
	"github.com/coding7860/sparkminds-backend/core/course"
	"github.com/coding7860/sparkminds-backend/storage/database"
)

const (
	courseColumns = `c.id, c.course_name, c.description, c.department, c.mentor_name, c.course_template,
		c.course_duration, c.created_at, c.updated_at`

	moduleColumns = `cm.id, cm.course_id, cm.module_name, cm.description, cm.duration_days, cm.module_order,
		cm.created_at, cm.updated_at`

	subtopicColumns = `cs.id, cs.module_id, cs.subtopic_name, cs.description, cs.duration_days, cs.training_by,
		cs.subtopic_order, cs.created_at, cs.updated_at`

	hierarchyQuery = `SELECT ` + courseColumns + `,
		cm.id AS module_id, cm.module_name, cm.description AS module_description,
		cm.duration_days AS module_duration_days, cm.module_order,
		cm.created_at AS module_created_at, cm.updated_at AS module_updated_at,
		cs.id AS subtopic_id, cs.subtopic_name, cs.description AS subtopic_description,
		cs.duration_days AS subtopic_duration_days, cs.training_by, cs.subtopic_order,
		cs.created_at AS subtopic_created_at, cs.updated_at AS subtopic_updated_at
	FROM courses c
	LEFT JOIN course_modules cm ON cm.course_id = c.id
	LEFT JOIN course_subtopics cs ON cs.module_id = cm.id`

	hierarchyOrder = ` ORDER BY c.id, cm.module_order ASC, cm.id ASC, cs.subtopic_order ASC, cs.id ASC`
)

var courseOrderColumns = map[string]string{
	"id":         "c.id",
	"courseName": "c.course_name",
	"department": "c.department",
	"mentorName": "c.mentor_name",
	"createdAt":  "c.created_at",
	"updatedAt":  "c.updated_at",
}

type courseRow struct {
	ID             int         `db:"id"`
	CourseName     string      `db:"course_name"`
	Description    string      `db:"description"`
	Department     string      `db:"department"`
	MentorName     string      `db:"mentor_name"`
	CourseTemplate null.String `db:"course_template"`
	CourseDuration string      `db:"course_duration"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
}

func (r courseRow) course() course.Course {
	return course.Course{
		ID:             r.ID,
		CourseName:     r.CourseName,
		Description:    r.Description,
		Department:     r.Department,
		MentorName:     r.MentorName,
		CourseTemplate: r.CourseTemplate.Ptr(),
		CourseDuration: r.CourseDuration,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
}

type moduleRow struct {
	ID           int       `db:"id"`
	CourseID     int       `db:"course_id"`
	ModuleName   string    `db:"module_name"`
	Description  string    `db:"description"`
	DurationDays int       `db:"duration_days"`
	ModuleOrder  int       `db:"module_order"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r moduleRow) module() course.Module {
	return course.Module{
		ID:           r.ID,
		CourseID:     r.CourseID,
		ModuleName:   r.ModuleName,
		Description:  r.Description,
		DurationDays: r.DurationDays,
		ModuleOrder:  r.ModuleOrder,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

type subtopicRow struct {
	ID            int       `db:"id"`
	ModuleID      int       `db:"module_id"`
	SubtopicName  string    `db:"subtopic_name"`
	Description   string    `db:"description"`
	DurationDays  int       `db:"duration_days"`
	TrainingBy    string    `db:"training_by"`
	SubtopicOrder int       `db:"subtopic_order"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (r subtopicRow) subtopic() course.Subtopic {
	return course.Subtopic{
		ID:            r.ID,
		ModuleID:      r.ModuleID,
		SubtopicName:  r.SubtopicName,
		Description:   r.Description,
		DurationDays:  r.DurationDays,
		TrainingBy:    r.TrainingBy,
		SubtopicOrder: r.SubtopicOrder,
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
}

type subtopicDetailRow struct {
	subtopicRow
	ModuleName string `db:"module_name"`
	CourseID   int    `db:"course_id"`
	CourseName string `db:"course_name"`
}

type hierarchyRow struct {
	courseRow

	ModuleID           null.Int    `db:"module_id"`
	ModuleName         null.String `db:"module_name"`
	ModuleDescription  null.String `db:"module_description"`
	ModuleDurationDays null.Int    `db:"module_duration_days"`
	ModuleOrder        null.Int    `db:"module_order"`
	ModuleCreatedAt    null.Time   `db:"module_created_at"`
	ModuleUpdatedAt    null.Time   `db:"module_updated_at"`

	SubtopicID           null.Int    `db:"subtopic_id"`
	SubtopicName         null.String `db:"subtopic_name"`
	SubtopicDescription  null.String `db:"subtopic_description"`
	SubtopicDurationDays null.Int    `db:"subtopic_duration_days"`
	TrainingBy           null.String `db:"training_by"`
	SubtopicOrder        null.Int    `db:"subtopic_order"`
	SubtopicCreatedAt    null.Time   `db:"subtopic_created_at"`
	SubtopicUpdatedAt    null.Time   `db:"subtopic_updated_at"`
}

func (r hierarchyRow) row() course.HierarchyRow {
	return course.HierarchyRow{
		Course:               r.courseRow.course(),
		ModuleID:             r.ModuleID,
		ModuleName:           r.ModuleName,
		ModuleDescription:    r.ModuleDescription,
		ModuleDurationDays:   r.ModuleDurationDays,
		ModuleOrder:          r.ModuleOrder,
		ModuleCreatedAt:      r.ModuleCreatedAt,
		ModuleUpdatedAt:      r.ModuleUpdatedAt,
		SubtopicID:           r.SubtopicID,
		SubtopicName:         r.SubtopicName,
		SubtopicDescription:  r.SubtopicDescription,
		SubtopicDurationDays: r.SubtopicDurationDays,
		TrainingBy:           r.TrainingBy,
		SubtopicOrder:        r.SubtopicOrder,
		SubtopicCreatedAt:    r.SubtopicCreatedAt,
		SubtopicUpdatedAt:    r.SubtopicUpdatedAt,
	}
}

type statisticsRow struct {
	ID            int    `db:"id"`
	CourseName    string `db:"course_name"`
	ModuleCount   int    `db:"module_count"`
	SubtopicCount int    `db:"subtopic_count"`
	TotalDuration int    `db:"total_duration"`
}

type courseRepository struct {
	baseRepository
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(exec core.DBExecutor) *courseRepository {
	return &courseRepository{baseRepository{exec: exec}}
}

// Courses

func (repo courseRepository) CreateCourse(ctx context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	q := `INSERT INTO courses
		(course_name, description, department, mentor_name, course_template, course_duration, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`
	err := queryRow(ctx, repo.getExec(exec), q,
		crs.CourseName, crs.Description, crs.Department, crs.MentorName, null.StringFromPtr(crs.CourseTemplate),
		crs.CourseDuration, crs.CreatedAt, crs.UpdatedAt,
	).Scan(&crs.ID)
	if err != nil {
		return course.Course{}, database.ClassifyError(err, "inserting course")
	}
	return crs, nil
}

func (repo courseRepository) QueryCourses(ctx context.Context, filter *course.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]course.Course, error) {
	q := `SELECT ` + courseColumns + ` FROM courses c WHERE 1 = 1`
	var args []interface{}
	if filter != nil {
		if filter.Department != "" {
			q += ` AND LOWER(c.department) = LOWER(?)`
			args = append(args, filter.Department)
		}
		if filter.Mentor != "" {
			q += ` AND c.mentor_name ILIKE ?`
			args = append(args, "%"+filter.Mentor+"%")
		}
	}
	q += ` ORDER BY ` + core.OrderBy(ordering, courseOrderColumns, "c.created_at DESC, c.id DESC")

	var rows []courseRow
	if err := selectRows(ctx, repo.getExec(exec), &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, r.course())
	}
	return courses, nil
}

func (repo courseRepository) GetCourse(ctx context.Context, id int, exec ...core.DBExecutor) (course.Course, error) {
	var rows []courseRow
	if err := selectRows(ctx, repo.getExec(exec), &rows, `SELECT `+courseColumns+` FROM courses c WHERE c.id = ?`, id); err != nil {
		return course.Course{}, errors.Wrap(err, "finding course")
	}
	if len(rows) == 0 {
		return course.Course{}, course.ErrCourseNotFound
	}
	return rows[0].course(), nil
}

func (repo courseRepository) UpdateCourse(ctx context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	q := `UPDATE courses SET course_name = ?, description = ?, department = ?, mentor_name = ?, course_template = ?,
		course_duration = ?, updated_at = ? WHERE id = ?`
	_, err := execAffecting(ctx, repo.getExec(exec), course.ErrCourseNotFound, q,
		crs.CourseName, crs.Description, crs.Department, crs.MentorName, null.StringFromPtr(crs.CourseTemplate),
		crs.CourseDuration, crs.UpdatedAt, crs.ID,
	)
	if err != nil {
		if err == course.ErrCourseNotFound {
			return course.Course{}, err
		}
		return course.Course{}, database.ClassifyError(err, "updating course")
	}
	return crs, nil
}

func (repo courseRepository) DeleteCourse(ctx context.Context, id int, exec ...core.DBExecutor) error {
	_, err := execAffecting(ctx, repo.getExec(exec), course.ErrCourseNotFound, `DELETE FROM courses WHERE id = ?`, id)
	if err != nil && err != course.ErrCourseNotFound {
		return errors.Wrap(err, "deleting course")
	}
	return err
}

func (repo courseRepository) QueryHierarchyRows(ctx context.Context, courseID *int, exec ...core.DBExecutor) ([]course.HierarchyRow, error) {
	q := hierarchyQuery
	var args []interface{}
	if courseID != nil {
		q += ` WHERE c.id = ?`
		args = append(args, *courseID)
	}
	q += hierarchyOrder

	var rows []hierarchyRow
	if err := selectRows(ctx, repo.getExec(exec), &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying course hierarchy")
	}
	hRows := make([]course.HierarchyRow, 0, len(rows))
	for _, r := range rows {
		hRows = append(hRows, r.row())
	}
	return hRows, nil
}

func (repo courseRepository) GetStatistics(ctx context.Context, courseID int, exec ...core.DBExecutor) (course.Statistics, error) {
	q := `SELECT c.id, c.course_name,
		(SELECT COUNT(*) FROM course_modules cm WHERE cm.course_id = c.id) AS module_count,
		(SELECT COUNT(*) FROM course_subtopics cs JOIN course_modules cm ON cm.id = cs.module_id
			WHERE cm.course_id = c.id) AS subtopic_count,
		(SELECT COALESCE(SUM(cm.duration_days), 0) FROM course_modules cm WHERE cm.course_id = c.id) AS total_duration
	FROM courses c WHERE c.id = ?`

	var rows []statisticsRow
	if err := selectRows(ctx, repo.getExec(exec), &rows, q, courseID); err != nil {
		return course.Statistics{}, errors.Wrap(err, "computing course statistics")
	}
	if len(rows) == 0 {
		return course.Statistics{}, course.ErrCourseNotFound
	}
	r := rows[0]
	return course.Statistics{
		ID:            r.ID,
		CourseName:    r.CourseName,
		ModuleCount:   r.ModuleCount,
		SubtopicCount: r.SubtopicCount,
		TotalDuration: r.TotalDuration,
	}, nil
}

// Modules

func (repo courseRepository) CreateModule(ctx context.Context, mod course.Module, exec ...core.DBExecutor) (course.Module, error) {
	q := `INSERT INTO course_modules
		(course_id, module_name, description, duration_days, module_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`
	err := queryRow(ctx, repo.getExec(exec), q,
		mod.CourseID, mod.ModuleName, mod.Description, mod.DurationDays, mod.ModuleOrder, mod.CreatedAt, mod.UpdatedAt,
	).Scan(&mod.ID)
	if err != nil {
		return course.Module{}, database.ClassifyError(err, "inserting module")
	}
	return mod, nil
}

func (repo courseRepository) GetModule(ctx context.Context, id int, exec ...core.DBExecutor) (course.Module, error) {
	var rows []moduleRow
	if err := selectRows(ctx, repo.getExec(exec), &rows, `SELECT `+moduleColumns+` FROM course_modules cm WHERE cm.id = ?`, id); err != nil {
		return course.Module{}, errors.Wrap(err, "finding module")
	}
	if len(rows) == 0 {
		return course.Module{}, course.ErrModuleNotFound
	}
	return rows[0].module(), nil
}

func (repo courseRepository) UpdateModule(ctx context.Context, mod course.Module, exec ...core.DBExecutor) (course.Module, error) {
	q := `UPDATE course_modules SET module_name = ?, description = ?, duration_days = ?, module_order = ?, updated_at = ?
		WHERE id = ?`
	_, err := execAffecting(ctx, repo.getExec(exec), course.ErrModuleNotFound, q,
		mod.ModuleName, mod.Description, mod.DurationDays, mod.ModuleOrder, mod.UpdatedAt, mod.ID,
	)
	if err != nil {
		if err == course.ErrModuleNotFound {
			return course.Module{}, err
		}
		return course.Module{}, database.ClassifyError(err, "updating module")
	}
	return mod, nil
}

func (repo courseRepository) DeleteModule(ctx context.Context, id int, exec ...core.DBExecutor) error {
	_, err := execAffecting(ctx, repo.getExec(exec), course.ErrModuleNotFound, `DELETE FROM course_modules WHERE id = ?`, id)
	if err != nil && err != course.ErrModuleNotFound {
		return errors.Wrap(err, "deleting module")
	}
	return err
}

func (repo courseRepository) DeleteSubtopicsByModule(ctx context.Context, moduleID int, exec ...core.DBExecutor) (int, error) {
	n, err := execAffecting(ctx, repo.getExec(exec), nil, `DELETE FROM course_subtopics WHERE module_id = ?`, moduleID)
	return n, errors.Wrap(err, "deleting module subtopics")
}

func (repo courseRepository) SetModuleOrder(ctx context.Context, courseID, id, order int, exec ...core.DBExecutor) error {
	_, err := execAffecting(ctx, repo.getExec(exec), course.ErrModuleNotFound,
		`UPDATE course_modules SET module_order = ?, updated_at = now() WHERE id = ? AND course_id = ?`,
		order, id, courseID,
	)
	if err != nil && err != course.ErrModuleNotFound {
		return errors.Wrap(err, "reordering module")
	}
	return err
}

func (repo courseRepository) NextModuleOrder(ctx context.Context, courseID int, exec ...core.DBExecutor) (int, error) {
	var next int
	err := queryRow(ctx, repo.getExec(exec),
		`SELECT COALESCE(MAX(module_order), 0) + 1 FROM course_modules WHERE course_id = ?`, courseID,
	).Scan(&next)
	return next, errors.Wrap(err, "computing next module order")
}

// Subtopics

func (repo courseRepository) CreateSubtopic(ctx context.Context, sub course.Subtopic, exec ...core.DBExecutor) (course.Subtopic, error) {
	q := `INSERT INTO course_subtopics
		(module_id, subtopic_name, description, duration_days, training_by, subtopic_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`
	err := queryRow(ctx, repo.getExec(exec), q,
		sub.ModuleID, sub.SubtopicName, sub.Description, sub.DurationDays, sub.TrainingBy, sub.SubtopicOrder,
		sub.CreatedAt, sub.UpdatedAt,
	).Scan(&sub.ID)
	if err != nil {
		return course.Subtopic{}, database.ClassifyError(err, "inserting subtopic")
	}
	return sub, nil
}

func (repo courseRepository) QuerySubtopics(ctx context.Context, moduleID int, exec ...core.DBExecutor) ([]course.Subtopic, error) {
	q := `SELECT ` + subtopicColumns + ` FROM course_subtopics cs WHERE cs.module_id = ?
		ORDER BY cs.subtopic_order ASC, cs.id ASC`

	var rows []subtopicRow
	if err := selectRows(ctx, repo.getExec(exec), &rows, q, moduleID); err != nil {
		return nil, errors.Wrap(err, "querying subtopics")
	}
	subs := make([]course.Subtopic, 0, len(rows))
	for _, r := range rows {
		subs = append(subs, r.subtopic())
	}
	return subs, nil
}

func (repo courseRepository) GetSubtopic(ctx context.Context, id int, exec ...core.DBExecutor) (course.Subtopic, error) {
	var rows []subtopicRow
	if err := selectRows(ctx, repo.getExec(exec), &rows, `SELECT `+subtopicColumns+` FROM course_subtopics cs WHERE cs.id = ?`, id); err != nil {
		return course.Subtopic{}, errors.Wrap(err, "finding subtopic")
	}
	if len(rows) == 0 {
		return course.Subtopic{}, course.ErrSubtopicNotFound
	}
	return rows[0].subtopic(), nil
}

func (repo courseRepository) GetSubtopicDetail(ctx context.Context, id int, exec ...core.DBExecutor) (course.SubtopicDetail, error) {
	q := `SELECT ` + subtopicColumns + `, cm.module_name, cm.course_id, c.course_name
	FROM course_subtopics cs
	JOIN course_modules cm ON cm.id = cs.module_id
	JOIN courses c ON c.id = cm.course_id
	WHERE cs.id = ?`

	var rows []subtopicDetailRow
	if err := selectRows(ctx, repo.getExec(exec), &rows, q, id); err != nil {
		return course.SubtopicDetail{}, errors.Wrap(err, "finding subtopic")
	}
	if len(rows) == 0 {
		return course.SubtopicDetail{}, course.ErrSubtopicNotFound
	}
	r := rows[0]
	return course.SubtopicDetail{
		Subtopic:   r.subtopic(),
		ModuleName: r.ModuleName,
		CourseID:   r.CourseID,
		CourseName: r.CourseName,
	}, nil
}

func (repo courseRepository) UpdateSubtopic(ctx context.Context, sub course.Subtopic, exec ...core.DBExecutor) (course.Subtopic, error) {
	q := `UPDATE course_subtopics SET subtopic_name = ?, description = ?, duration_days = ?, training_by = ?,
		subtopic_order = ?, updated_at = ? WHERE id = ?`
	_, err := execAffecting(ctx, repo.getExec(exec), course.ErrSubtopicNotFound, q,
		sub.SubtopicName, sub.Description, sub.DurationDays, sub.TrainingBy, sub.SubtopicOrder, sub.UpdatedAt, sub.ID,
	)
	if err != nil {
		if err == course.ErrSubtopicNotFound {
			return course.Subtopic{}, err
		}
		return course.Subtopic{}, database.ClassifyError(err, "updating subtopic")
	}
	return sub, nil
}

func (repo courseRepository) DeleteSubtopic(ctx context.Context, id int, exec ...core.DBExecutor) error {
	_, err := execAffecting(ctx, repo.getExec(exec), course.ErrSubtopicNotFound, `DELETE FROM course_subtopics WHERE id = ?`, id)
	if err != nil && err != course.ErrSubtopicNotFound {
		return errors.Wrap(err, "deleting subtopic")
	}
	return err
}

func (repo courseRepository) SetSubtopicOrder(ctx context.Context, moduleID, id, order int, exec ...core.DBExecutor) error {
	_, err := execAffecting(ctx, repo.getExec(exec), course.ErrSubtopicNotFound,
		`UPDATE course_subtopics SET subtopic_order = ?, updated_at = now() WHERE id = ? AND module_id = ?`,
		order, id, moduleID,
	)
	if err != nil && err != course.ErrSubtopicNotFound {
		return errors.Wrap(err, "reordering subtopic")
	}
	return err
}

func (repo courseRepository) NextSubtopicOrder(ctx context.Context, moduleID int, exec ...core.DBExecutor) (int, error) {
	var next int
	err := queryRow(ctx, repo.getExec(exec),
		`SELECT COALESCE(MAX(subtopic_order), 0) + 1 FROM course_subtopics WHERE module_id = ?`, moduleID,
	).Scan(&next)
	return next, errors.Wrap(err, "computing next subtopic order")
}

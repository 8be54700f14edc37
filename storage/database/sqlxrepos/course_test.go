package sqlxrepos

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coding7860/sparkminds-backend/core"
	"github.com/coding7860/sparkminds-backend/core/course"
)

var hierarchyColumns = []string{
	"id", "course_name", "description", "department", "mentor_name", "course_template", "course_duration",
	"created_at", "updated_at",
	"module_id", "module_name", "module_description", "module_duration_days", "module_order",
	"module_created_at", "module_updated_at",
	"subtopic_id", "subtopic_name", "subtopic_description", "subtopic_duration_days", "training_by",
	"subtopic_order", "subtopic_created_at", "subtopic_updated_at",
}

func hierarchyValues(now time.Time, moduleID, subtopicID interface{}) []driver.Value {
	vals := []driver.Value{1, "Go", "Learn Go", "Engineering", "Jane Doe", nil, "4 weeks", now, now}
	if moduleID == nil {
		vals = append(vals, nil, nil, nil, nil, nil, nil, nil)
	} else {
		vals = append(vals, moduleID, "Basics", "Syntax", 5, 1, now, now)
	}
	if subtopicID == nil {
		vals = append(vals, nil, nil, nil, nil, nil, nil, nil, nil)
	} else {
		vals = append(vals, subtopicID, "Types", "Type system", 2, "Jane Doe", 1, now, now)
	}
	return vals
}

func newMock(t *testing.T) (*courseRepository, core.Transactor, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewCourseRepository(db), core.NewTransactor(db), mock
}

func completeCourse() course.NewCompleteCourse {
	return course.NewCompleteCourse{
		NewCourse: course.NewCourse{
			CourseName:     "Go",
			Description:    "Learn Go",
			Department:     "Engineering",
			MentorName:     "Jane Doe",
			CourseDuration: "4 weeks",
		},
		Modules: []course.NewCourseModule{
			{
				ModuleName:   "Basics",
				Description:  "Syntax",
				DurationDays: 5,
				Subtopics:    []course.NewCourseSubtopic{{SubtopicName: "Types", Description: "Type system", DurationDays: 2}},
			},
		},
	}
}

func TestCourseService_CreateComplete_SQL(t *testing.T) {
	now := time.Now().UTC()

	t.Run("commit", func(t *testing.T) {
		repo, tx, mock := newMock(t)
		svc := course.NewService(repo, tx)

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO courses").
			WithArgs("Go", "Learn Go", "Engineering", "Jane Doe", nil, "4 weeks", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectQuery("INSERT INTO course_modules").
			WithArgs(1, "Basics", "Syntax", 5, 1, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
		mock.ExpectQuery("INSERT INTO course_subtopics").
			WithArgs(10, "Types", "Type system", 2, "Jane Doe", 1, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(100))
		mock.ExpectCommit()
		mock.ExpectQuery("SELECT (.+) FROM courses c LEFT JOIN course_modules cm").
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows(hierarchyColumns).AddRow(hierarchyValues(now, 10, 100)...))

		tree, err := svc.CreateComplete(context.Background(), completeCourse())
		require.NoError(t, err)
		assert.Equal(t, 1, tree.ID)
		require.Len(t, tree.Modules, 1)
		assert.Equal(t, 10, tree.Modules[0].ID)
		require.Len(t, tree.Modules[0].Subtopics, 1)
		assert.Equal(t, "Jane Doe", tree.Modules[0].Subtopics[0].TrainingBy)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("store failure rolls back", func(t *testing.T) {
		repo, tx, mock := newMock(t)
		svc := course.NewService(repo, tx)

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO courses").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectQuery("INSERT INTO course_modules").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
		mock.ExpectQuery("INSERT INTO course_subtopics").WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		_, err := svc.CreateComplete(context.Background(), completeCourse())
		require.Error(t, err)
		assert.Equal(t, "Failed to create complete course: inserting subtopic: disk full", err.Error())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid module rolls back", func(t *testing.T) {
		repo, tx, mock := newMock(t)
		svc := course.NewService(repo, tx)

		ncc := completeCourse()
		ncc.Modules = append(ncc.Modules, course.NewCourseModule{ModuleName: "Advanced"})

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO courses").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectQuery("INSERT INTO course_modules").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
		mock.ExpectQuery("INSERT INTO course_subtopics").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(100))
		mock.ExpectRollback()

		_, err := svc.CreateComplete(context.Background(), ncc)
		vErr, ok := err.(*core.ValidationError)
		require.True(t, ok, "want *core.ValidationError, got %v", err)
		assert.Equal(t, "Module 2 is missing required fields (moduleName, description, durationDays)", vErr.Error())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCourseRepository_QueryHierarchyRows(t *testing.T) {
	now := time.Now().UTC()
	repo, _, mock := newMock(t)

	mock.ExpectQuery("SELECT (.+) FROM courses c LEFT JOIN (.+) ORDER BY c.id, cm.module_order ASC").
		WillReturnRows(sqlmock.NewRows(hierarchyColumns).
			AddRow(hierarchyValues(now, 10, 100)...).
			AddRow(hierarchyValues(now, 10, 101)...).
			AddRow(hierarchyValues(now, 11, nil)...))

	rows, err := repo.QueryHierarchyRows(context.Background(), nil)
	require.NoError(t, err)
	trees := course.BuildHierarchy(rows)
	require.Len(t, trees, 1)
	require.Len(t, trees[0].Modules, 2)
	assert.Len(t, trees[0].Modules[0].Subtopics, 2)
	assert.Empty(t, trees[0].Modules[1].Subtopics)
	assert.Nil(t, trees[0].CourseTemplate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepository_NotFound(t *testing.T) {
	repo, _, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT (.+) FROM courses c WHERE c.id = ").WithArgs(42).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	_, err := repo.GetCourse(ctx, 42)
	assert.Equal(t, course.ErrCourseNotFound, err)

	mock.ExpectExec("DELETE FROM course_modules").WithArgs(42).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.Equal(t, course.ErrModuleNotFound, repo.DeleteModule(ctx, 42))

	mock.ExpectExec("UPDATE course_subtopics SET subtopic_order").WithArgs(2, 42, 7).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.Equal(t, course.ErrSubtopicNotFound, repo.SetSubtopicOrder(ctx, 7, 42, 2))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepository_NextModuleOrder(t *testing.T) {
	repo, _, mock := newMock(t)

	mock.ExpectQuery(`SELECT COALESCE\(MAX\(module_order\), 0\) \+ 1 FROM course_modules WHERE course_id = \$1`).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(4))

	next, err := repo.NextModuleOrder(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 4, next)
	assert.NoError(t, mock.ExpectationsWereMet())
}

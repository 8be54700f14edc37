package boiledrepos

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coding7860/sparkminds-backend/core"
	"github.com/coding7860/sparkminds-backend/core/user"
)

var userColumns = []string{
	"id", "username", "email", "password_hash", "role", "first_name", "last_name", "phone", "department",
	"enrolled_course_id", "assigned_mentor_id", "status", "last_login", "created_at", "updated_at",
	"enrolled_course_name", "assigned_mentor_name",
}

func newMock(t *testing.T) (*userRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewUserRepository(db), mock
}

func TestUserRepository_GetUser(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)

	tests := []struct {
		name      string
		filter    user.GetFilter
		wantQuery string
		wantArgs  []driver.Value
	}{
		{
			name:      "by id",
			filter:    user.GetFilter{ID: 4},
			wantQuery: `WHERE u.id = \$1 LIMIT 1`,
			wantArgs:  []driver.Value{4},
		},
		{
			name:      "by username or email",
			filter:    user.GetFilter{UsernameOrEmail: "jdoe"},
			wantQuery: `WHERE \(LOWER\(u.username\) = LOWER\(\$1\) OR LOWER\(u.email\) = LOWER\(\$2\)\) LIMIT 1`,
			wantArgs:  []driver.Value{"jdoe", "jdoe"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMock(t)

			mock.ExpectQuery(`FROM users u LEFT JOIN courses c (.+) ` + tt.wantQuery).
				WithArgs(tt.wantArgs...).
				WillReturnRows(sqlmock.NewRows(userColumns).AddRow(
					4, "jdoe", "jdoe@example.com", []byte("hash"), user.RoleTrainee, "John", "Doe", nil, "Engineering",
					1, 2, user.StatusActive, nil, now, now, "Go", "Jane Roe",
				))

			usr, err := repo.GetUser(context.Background(), tt.filter)
			require.NoError(t, err)
			assert.Equal(t, 4, usr.ID)
			assert.Equal(t, "John", usr.FirstName)
			assert.Empty(t, usr.Phone)
			require.NotNil(t, usr.EnrolledCourseID)
			assert.Equal(t, 1, *usr.EnrolledCourseID)
			assert.Equal(t, "Go", usr.EnrolledCourseName)
			assert.Equal(t, "Jane Roe", usr.AssignedMentorName)
			assert.Nil(t, usr.LastLogin)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_GetUser_NotFound(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(`FROM users u (.+) WHERE LOWER\(u.email\) = LOWER\(\$1\)`).
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns))

	_, err := repo.GetUser(context.Background(), user.GetFilter{Email: "ghost@example.com"})
	assert.Equal(t, user.ErrNotFound, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_QueryUsers(t *testing.T) {
	now := time.Now().UTC()
	repo, mock := newMock(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) AS count FROM users u WHERE 1 = 1 AND u.role = \$1`).
		WithArgs(user.RoleMentor).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`WHERE 1 = 1 AND u.role = \$1 ORDER BY u.first_name ASC LIMIT \$2 OFFSET \$3$`).
		WithArgs(user.RoleMentor, 2, 2).
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(
			9, "mentor", "mentor@example.com", []byte("hash"), user.RoleMentor, "Ann", nil, nil, nil,
			nil, nil, user.StatusActive, now, now, now, nil, nil,
		))

	filter := &user.QueryFilter{Role: user.RoleMentor, Page: 2, Limit: 2}
	users, total, err := repo.QueryUsers(context.Background(), filter, []core.DBOrdering{{Field: "firstName", Ascending: true}})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, users, 1)
	assert.Equal(t, "Ann", users[0].FirstName)
	assert.Nil(t, users[0].AssignedMentorID)
	require.NotNil(t, users[0].LastLogin)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CheckUniqueness(t *testing.T) {
	tests := []struct {
		name    string
		count   int
		wantErr error
	}{
		{name: "unique", count: 0},
		{name: "taken", count: 1, wantErr: user.ErrUserExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMock(t)
			mock.ExpectQuery(`SELECT COUNT\(\*\) AS count FROM users WHERE \(username = \$1 OR email = \$2\) AND id NOT IN \(\$3, \$4\)`).
				WithArgs("jdoe", "jdoe@example.com", 1, 2).
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(tt.count))

			err := repo.CheckUniqueness(context.Background(), "jdoe", "jdoe@example.com", []int{1, 2})
			assert.Equal(t, tt.wantErr, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_SetUsersStatus(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec(`UPDATE users SET status = \$1, updated_at = now\(\) WHERE id IN \(\$2, \$3, \$4\)`).
		WithArgs(user.StatusInactive, 1, 2, 3).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.SetUsersStatus(context.Background(), []int{1, 2, 3}, user.StatusInactive)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_DeleteUser_NotFound(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).WithArgs(7).WillReturnResult(sqlmock.NewResult(0, 0))

	assert.Equal(t, user.ErrNotFound, repo.DeleteUser(context.Background(), 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

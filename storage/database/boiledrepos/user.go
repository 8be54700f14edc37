// Package boiledrepos implements the user repository with sqlboiler raw queries and struct binding.
package boiledrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/queries"

	"github.com/coding7860/sparkminds-backend/core"
	"github.com/coding7860/sparkminds-backend/core/user"
	"github.com/coding7860/sparkminds-backend/storage/database"
)

const userSelect = `SELECT u.id, u.username, u.email, u.password_hash, u.role, u.first_name, u.last_name, u.phone,
	u.department, u.enrolled_course_id, u.assigned_mentor_id, u.status, u.last_login, u.created_at, u.updated_at,
	c.course_name AS enrolled_course_name,
	NULLIF(TRIM(CONCAT_WS(' ', m.first_name, m.last_name)), '') AS assigned_mentor_name
FROM users u
LEFT JOIN courses c ON c.id = u.enrolled_course_id
LEFT JOIN users m ON m.id = u.assigned_mentor_id`

var userOrderColumns = map[string]string{
	"id":         "u.id",
	"username":   "u.username",
	"email":      "u.email",
	"role":       "u.role",
	"firstName":  "u.first_name",
	"lastName":   "u.last_name",
	"department": "u.department",
	"status":     "u.status",
	"createdAt":  "u.created_at",
	"lastLogin":  "u.last_login",
}

type userRow struct {
	ID                 int         `boil:"id"`
	Username           string      `boil:"username"`
	Email              string      `boil:"email"`
	PasswordHash       []byte      `boil:"password_hash"`
	Role               string      `boil:"role"`
	FirstName          null.String `boil:"first_name"`
	LastName           null.String `boil:"last_name"`
	Phone              null.String `boil:"phone"`
	Department         null.String `boil:"department"`
	EnrolledCourseID   null.Int    `boil:"enrolled_course_id"`
	AssignedMentorID   null.Int    `boil:"assigned_mentor_id"`
	Status             string      `boil:"status"`
	LastLogin          null.Time   `boil:"last_login"`
	CreatedAt          time.Time   `boil:"created_at"`
	UpdatedAt          time.Time   `boil:"updated_at"`
	EnrolledCourseName null.String `boil:"enrolled_course_name"`
	AssignedMentorName null.String `boil:"assigned_mentor_name"`
}

func (r userRow) unboil() user.User {
	usr := user.User{
		ID:                 r.ID,
		Username:           r.Username,
		Email:              r.Email,
		PasswordHash:       r.PasswordHash,
		Role:               r.Role,
		FirstName:          r.FirstName.String,
		LastName:           r.LastName.String,
		Phone:              r.Phone.String,
		Department:         r.Department.String,
		EnrolledCourseID:   r.EnrolledCourseID.Ptr(),
		AssignedMentorID:   r.AssignedMentorID.Ptr(),
		Status:             r.Status,
		CreatedAt:          r.CreatedAt.UTC(),
		UpdatedAt:          r.UpdatedAt.UTC(),
		EnrolledCourseName: r.EnrolledCourseName.String,
		AssignedMentorName: r.AssignedMentorName.String,
	}
	if r.LastLogin.Valid {
		ll := r.LastLogin.Time.UTC()
		usr.LastLogin = &ll
	}
	return usr
}

// nullString stores empty optional text as NULL.
func nullString(s string) null.String {
	return null.NewString(s, s != "")
}

func nullTime(t *time.Time) null.Time {
	if t == nil {
		return null.Time{}
	}
	return null.TimeFrom(t.UTC())
}

type userRepository struct {
	exec core.DBExecutor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{exec: exec}
}

func (repo userRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.exec
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

// raw builds a sqlboiler query from a "?" placeholder query.
func raw(q string, args ...interface{}) *queries.Query {
	return queries.Raw(sqlx.Rebind(sqlx.DOLLAR, q), args...)
}

func (repo userRepository) CheckUniqueness(ctx context.Context, username, email string, excludedIDs []int, exec ...core.DBExecutor) error {
	q := `SELECT COUNT(*) AS count FROM users WHERE (username = ? OR email = ?)`
	args := []interface{}{username, email}
	if len(excludedIDs) > 0 {
		inQ, inArgs, err := sqlx.In(` AND id NOT IN (?)`, excludedIDs)
		if err != nil {
			return errors.Wrap(err, "checking user uniqueness")
		}
		q += inQ
		args = append(args, inArgs...)
	}

	var res struct {
		Count int `boil:"count"`
	}
	if err := raw(q, args...).Bind(ctx, repo.getExec(exec), &res); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	if res.Count > 0 {
		return user.ErrUserExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	q := `INSERT INTO users
		(username, email, password_hash, role, first_name, last_name, phone, department, enrolled_course_id,
		assigned_mentor_id, status, last_login, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`
	exe := repo.getExec(exec)

	var id int
	err := raw(q,
		usr.Username, usr.Email, usr.PasswordHash, usr.Role, nullString(usr.FirstName), nullString(usr.LastName),
		nullString(usr.Phone), nullString(usr.Department), null.IntFromPtr(usr.EnrolledCourseID),
		null.IntFromPtr(usr.AssignedMentorID), usr.Status, nullTime(usr.LastLogin), usr.CreatedAt.UTC(), usr.UpdatedAt.UTC(),
	).QueryRowContext(ctx, exe).Scan(&id)
	if err != nil {
		return user.User{}, database.ClassifyError(err, "inserting user")
	}
	return repo.GetUser(ctx, user.GetFilter{ID: id}, exe)
}

func userWhere(filter *user.QueryFilter) (string, []interface{}) {
	conds := []string{"1 = 1"}
	var args []interface{}
	if filter != nil {
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			conds = append(conds, "(u.username ILIKE ? OR u.email ILIKE ? OR u.first_name ILIKE ? OR u.last_name ILIKE ?)")
			args = append(args, val, val, val, val)
		}
		if filter.Role != "" {
			conds = append(conds, "u.role = ?")
			args = append(args, filter.Role)
		}
		if filter.Department != "" {
			conds = append(conds, "u.department = ?")
			args = append(args, filter.Department)
		}
		if filter.Status != "" {
			conds = append(conds, "u.status = ?")
			args = append(args, filter.Status)
		}
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]user.User, int, error) {
	exe := repo.getExec(exec)
	where, args := userWhere(filter)

	var cnt struct {
		Count int `boil:"count"`
	}
	if err := raw(`SELECT COUNT(*) AS count FROM users u`+where, args...).Bind(ctx, exe, &cnt); err != nil {
		return nil, 0, errors.Wrap(err, "counting users")
	}

	q := userSelect + where + ` ORDER BY ` + core.OrderBy(ordering, userOrderColumns, "u.created_at DESC, u.id DESC")
	if filter != nil && filter.Limit > 0 {
		q += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset())
	}

	var rows []*userRow
	if err := raw(q, args...).Bind(ctx, exe, &rows); err != nil {
		return nil, 0, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.unboil())
	}
	return users, cnt.Count, nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	var cond string
	var args []interface{}
	switch {
	case filter.ID != 0:
		cond, args = "u.id = ?", []interface{}{filter.ID}
	case filter.Username != "":
		cond, args = "LOWER(u.username) = LOWER(?)", []interface{}{filter.Username}
	case filter.Email != "":
		cond, args = "LOWER(u.email) = LOWER(?)", []interface{}{filter.Email}
	case filter.UsernameOrEmail != "":
		cond, args = "(LOWER(u.username) = LOWER(?) OR LOWER(u.email) = LOWER(?))",
			[]interface{}{filter.UsernameOrEmail, filter.UsernameOrEmail}
	default:
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	if err := raw(userSelect+` WHERE `+cond+` LIMIT 1`, args...).Bind(ctx, repo.getExec(exec), &row); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user")
	}
	return row.unboil(), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	q := `UPDATE users SET username = ?, email = ?, password_hash = ?, role = ?, first_name = ?, last_name = ?,
		phone = ?, department = ?, enrolled_course_id = ?, assigned_mentor_id = ?, status = ?, last_login = ?,
		updated_at = ? WHERE id = ?`
	exe := repo.getExec(exec)

	res, err := raw(q,
		usr.Username, usr.Email, usr.PasswordHash, usr.Role, nullString(usr.FirstName), nullString(usr.LastName),
		nullString(usr.Phone), nullString(usr.Department), null.IntFromPtr(usr.EnrolledCourseID),
		null.IntFromPtr(usr.AssignedMentorID), usr.Status, nullTime(usr.LastLogin), usr.UpdatedAt.UTC(), usr.ID,
	).ExecContext(ctx, exe)
	if err != nil {
		return user.User{}, database.ClassifyError(err, "updating user")
	}
	if n, err := res.RowsAffected(); err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	} else if n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUser(ctx, user.GetFilter{ID: usr.ID}, exe)
}

func (repo userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	if usr.ID == 0 {
		return repo.CreateUser(ctx, usr, exec...)
	}
	return repo.UpdateUser(ctx, usr, exec...)
}

func (repo userRepository) DeleteUser(ctx context.Context, id int, exec ...core.DBExecutor) error {
	res, err := raw(`DELETE FROM users WHERE id = ?`, id).ExecContext(ctx, repo.getExec(exec))
	if err != nil {
		return errors.Wrap(err, "deleting user")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "deleting user")
	}
	if n == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (repo userRepository) SetUsersStatus(ctx context.Context, ids []int, status string, exec ...core.DBExecutor) (int, error) {
	q, args, err := sqlx.In(`UPDATE users SET status = ?, updated_at = now() WHERE id IN (?)`, status, ids)
	if err != nil {
		return 0, errors.Wrap(err, "updating users status")
	}
	res, err := raw(q, args...).ExecContext(ctx, repo.getExec(exec))
	if err != nil {
		return 0, database.ClassifyError(err, "updating users status")
	}
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "updating users status")
}

func (repo userRepository) CountUsers(ctx context.Context, exec ...core.DBExecutor) (user.Stats, error) {
	q := `SELECT COUNT(*) AS total,
		COUNT(*) FILTER (WHERE status = ?) AS active,
		COUNT(*) FILTER (WHERE status = ?) AS inactive,
		COUNT(*) FILTER (WHERE role = ?) AS admins,
		COUNT(*) FILTER (WHERE role = ?) AS mentors,
		COUNT(*) FILTER (WHERE role = ?) AS trainees
	FROM users`

	var res struct {
		Total    int `boil:"total"`
		Active   int `boil:"active"`
		Inactive int `boil:"inactive"`
		Admins   int `boil:"admins"`
		Mentors  int `boil:"mentors"`
		Trainees int `boil:"trainees"`
	}
	err := raw(q, user.StatusActive, user.StatusInactive, user.RoleAdmin, user.RoleMentor, user.RoleTrainee).
		Bind(ctx, repo.getExec(exec), &res)
	if err != nil {
		return user.Stats{}, errors.Wrap(err, "counting users")
	}
	return user.Stats(res), nil
}

func (repo userRepository) QueryDepartments(ctx context.Context, exec ...core.DBExecutor) ([]string, error) {
	var rows []*struct {
		Department string `boil:"department"`
	}
	q := `SELECT DISTINCT department FROM users WHERE department IS NOT NULL AND department <> '' ORDER BY department`
	if err := raw(q).Bind(ctx, repo.getExec(exec), &rows); err != nil {
		return nil, errors.Wrap(err, "querying departments")
	}
	deps := make([]string, 0, len(rows))
	for _, r := range rows {
		deps = append(deps, r.Department)
	}
	return deps, nil
}

func (repo userRepository) QueryCourseOptions(ctx context.Context, exec ...core.DBExecutor) ([]user.CourseOption, error) {
	var rows []*struct {
		ID         int    `boil:"id"`
		CourseName string `boil:"course_name"`
		Department string `boil:"department"`
	}
	if err := raw(`SELECT id, course_name, department FROM courses ORDER BY course_name`).Bind(ctx, repo.getExec(exec), &rows); err != nil {
		return nil, errors.Wrap(err, "querying course options")
	}
	opts := make([]user.CourseOption, 0, len(rows))
	for _, r := range rows {
		opts = append(opts, user.CourseOption{ID: r.ID, CourseName: r.CourseName, Department: r.Department})
	}
	return opts, nil
}

func (repo userRepository) CourseExists(ctx context.Context, id int, exec ...core.DBExecutor) (bool, error) {
	var res struct {
		Exists bool `boil:"exists"`
	}
	if err := raw(`SELECT EXISTS (SELECT 1 FROM courses WHERE id = ?) AS exists`, id).Bind(ctx, repo.getExec(exec), &res); err != nil {
		return false, errors.Wrap(err, "checking course")
	}
	return res.Exists, nil
}

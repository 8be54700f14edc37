package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/coding7860/sparkminds-backend/core"
	"github.com/coding7860/sparkminds-backend/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db}
}

// join fills the read-only joined fields. mu must be held.
func (repo *userRepository) join(usr user.User) user.User {
	usr.EnrolledCourseName = ""
	usr.AssignedMentorName = ""
	if usr.EnrolledCourseID != nil {
		if crs, ok := repo.db.courses[*usr.EnrolledCourseID]; ok {
			usr.EnrolledCourseName = crs.CourseName
		}
	}
	if usr.AssignedMentorID != nil {
		if m, ok := repo.db.users[*usr.AssignedMentorID]; ok {
			usr.AssignedMentorName = strings.TrimSpace(m.FirstName + " " + m.LastName)
		}
	}
	return usr
}

func (repo *userRepository) CheckUniqueness(_ context.Context, username, email string, excludedIDs []int, exec ...core.DBExecutor) error {
	defer repo.db.guard(exec)()
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	excluded := make(map[int]bool, len(excludedIDs))
	for _, id := range excludedIDs {
		excluded[id] = true
	}
	for _, usr := range repo.db.users {
		if excluded[usr.ID] {
			continue
		}
		if usr.Username == username || usr.Email == email {
			return user.ErrUserExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	defer repo.db.guard(exec)()
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	usr.ID = repo.db.nextID()
	repo.db.users[usr.ID] = usr
	return repo.join(usr), nil
}

func matchesUser(usr user.User, filter *user.QueryFilter) bool {
	if filter == nil {
		return true
	}
	if filter.Search != "" {
		search := strings.ToLower(filter.Search)
		found := false
		for _, val := range []string{usr.Username, usr.Email, usr.FirstName, usr.LastName} {
			if strings.Contains(strings.ToLower(val), search) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.Role != "" && usr.Role != filter.Role {
		return false
	}
	if filter.Department != "" && usr.Department != filter.Department {
		return false
	}
	if filter.Status != "" && usr.Status != filter.Status {
		return false
	}
	return true
}

// compareUsers returns -1, 0 or 1 comparing a and b on the API field.
func compareUsers(a, b user.User, field string) (int, bool) {
	var x, y string
	switch field {
	case "id":
		return compareInts(a.ID, b.ID), true
	case "createdAt":
		return compareInts(int(a.CreatedAt.Sub(b.CreatedAt)), 0), true
	case "username":
		x, y = a.Username, b.Username
	case "email":
		x, y = a.Email, b.Email
	case "role":
		x, y = a.Role, b.Role
	case "firstName":
		x, y = a.FirstName, b.FirstName
	case "lastName":
		x, y = a.LastName, b.LastName
	case "department":
		x, y = a.Department, b.Department
	case "status":
		x, y = a.Status, b.Status
	default:
		return 0, false
	}
	return strings.Compare(x, y), true
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func sortUsers(users []user.User, ordering []core.DBOrdering) {
	sort.SliceStable(users, func(i, j int) bool {
		for _, ord := range ordering {
			c, ok := compareUsers(users[i], users[j], ord.Field)
			if !ok || c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		// newest first
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.After(users[j].CreatedAt)
		}
		return users[i].ID > users[j].ID
	})
}

func (repo *userRepository) QueryUsers(_ context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]user.User, int, error) {
	defer repo.db.guard(exec)()
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	users := make([]user.User, 0, len(repo.db.users))
	for _, usr := range repo.db.users {
		if matchesUser(usr, filter) {
			users = append(users, repo.join(usr))
		}
	}
	sortUsers(users, ordering)

	total := len(users)
	if filter != nil {
		users = page(users, filter.Limit, filter.Offset())
	}
	return users, total, nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	defer repo.db.guard(exec)()
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if filter.ID != 0 {
		if usr, ok := repo.db.users[filter.ID]; ok {
			return repo.join(usr), nil
		}
		return user.User{}, user.ErrNotFound
	}
	for _, id := range sortedKeys(repo.db.users) {
		usr := repo.db.users[id]
		uname, email := strings.ToLower(usr.Username), strings.ToLower(usr.Email)
		switch {
		case filter.Username != "" && uname == strings.ToLower(filter.Username),
			filter.Email != "" && email == strings.ToLower(filter.Email),
			filter.UsernameOrEmail != "" && (uname == strings.ToLower(filter.UsernameOrEmail) || email == strings.ToLower(filter.UsernameOrEmail)):
			return repo.join(usr), nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	defer repo.db.guard(exec)()
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.users[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	usr.CreatedAt = orig.CreatedAt
	repo.db.users[usr.ID] = usr
	return repo.join(usr), nil
}

func (repo *userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	if usr.ID == 0 {
		return repo.CreateUser(ctx, usr, exec...)
	}
	return repo.UpdateUser(ctx, usr, exec...)
}

func (repo *userRepository) DeleteUser(_ context.Context, id int, exec ...core.DBExecutor) error {
	defer repo.db.guard(exec)()
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.users[id]; !ok {
		return user.ErrNotFound
	}
	delete(repo.db.users, id)
	for uid, usr := range repo.db.users {
		if usr.AssignedMentorID != nil && *usr.AssignedMentorID == id {
			usr.AssignedMentorID = nil
			repo.db.users[uid] = usr
		}
	}
	return nil
}

func (repo *userRepository) SetUsersStatus(_ context.Context, ids []int, status string, exec ...core.DBExecutor) (int, error) {
	defer repo.db.guard(exec)()
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	var n int
	for _, id := range ids {
		if usr, ok := repo.db.users[id]; ok {
			usr.Status = status
			repo.db.users[id] = usr
			n++
		}
	}
	return n, nil
}

func (repo *userRepository) CountUsers(_ context.Context, exec ...core.DBExecutor) (user.Stats, error) {
	defer repo.db.guard(exec)()
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	stats := user.Stats{Total: len(repo.db.users)}
	for _, usr := range repo.db.users {
		switch usr.Status {
		case user.StatusActive:
			stats.Active++
		case user.StatusInactive:
			stats.Inactive++
		}
		switch usr.Role {
		case user.RoleAdmin:
			stats.Admins++
		case user.RoleMentor:
			stats.Mentors++
		case user.RoleTrainee:
			stats.Trainees++
		}
	}
	return stats, nil
}

func (repo *userRepository) QueryDepartments(_ context.Context, exec ...core.DBExecutor) ([]string, error) {
	defer repo.db.guard(exec)()
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	seen := make(map[string]bool)
	deps := []string{}
	for _, usr := range repo.db.users {
		if usr.Department != "" && !seen[usr.Department] {
			seen[usr.Department] = true
			deps = append(deps, usr.Department)
		}
	}
	sort.Strings(deps)
	return deps, nil
}

func (repo *userRepository) QueryCourseOptions(_ context.Context, exec ...core.DBExecutor) ([]user.CourseOption, error) {
	defer repo.db.guard(exec)()
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	opts := make([]user.CourseOption, 0, len(repo.db.courses))
	for _, crs := range repo.db.courses {
		opts = append(opts, user.CourseOption{ID: crs.ID, CourseName: crs.CourseName, Department: crs.Department})
	}
	sort.Slice(opts, func(i, j int) bool {
		if opts[i].CourseName != opts[j].CourseName {
			return opts[i].CourseName < opts[j].CourseName
		}
		return opts[i].ID < opts[j].ID
	})
	return opts, nil
}

func (repo *userRepository) CourseExists(_ context.Context, id int, exec ...core.DBExecutor) (bool, error) {
	defer repo.db.guard(exec)()
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	_, ok := repo.db.courses[id]
	return ok, nil
}

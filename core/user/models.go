package user

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/coding7860/sparkminds-backend/core"
)

// Roles
const (
	RoleAdmin   = "admin"
	RoleMentor  = "mentor"
	RoleTrainee = "trainee"
)

// Statuses
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

var (
	AllRoles    = []string{RoleAdmin, RoleMentor, RoleTrainee}
	AllStatuses = []string{StatusActive, StatusInactive}

	dashboardURLs = map[string]string{
		RoleAdmin:   "/admin-dashboard",
		RoleMentor:  "/mentor-dashboard",
		RoleTrainee: "/trainee-dashboard",
	}
)

// HasAnyRole reports whether role is one of required. An empty required set allows every role.
func HasAnyRole(role string, required ...string) bool {
	if len(required) == 0 {
		return true
	}
	for _, r := range required {
		if r == role {
			return true
		}
	}
	return false
}

// DashboardURL returns the frontend landing page of role.
func DashboardURL(role string) string {
	if url, ok := dashboardURLs[role]; ok {
		return url
	}
	return dashboardURLs[RoleTrainee]
}

type User struct {
	ID               int        `json:"id"`
	Username         string     `json:"username"`
	Email            string     `json:"email"`
	PasswordHash     []byte     `json:"-"`
	Role             string     `json:"role"`
	FirstName        string     `json:"firstName"`
	LastName         string     `json:"lastName"`
	Phone            string     `json:"phone"`
	Department       string     `json:"department"`
	EnrolledCourseID *int       `json:"enrolledCourseId"`
	AssignedMentorID *int       `json:"assignedMentorId"`
	Status           string     `json:"status"`
	LastLogin        *time.Time `json:"lastLogin"` // UTC
	CreatedAt        time.Time  `json:"createdAt"` // UTC
	UpdatedAt        time.Time  `json:"updatedAt"` // UTC

	// read-only, joined
	EnrolledCourseName string `json:"enrolledCourseName,omitempty"`
	AssignedMentorName string `json:"assignedMentorName,omitempty"`
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u User) IsActive() bool  { return u.Status == StatusActive }
func (u User) IsAdmin() bool   { return u.Role == RoleAdmin }
func (u User) IsMentor() bool  { return u.Role == RoleMentor }
func (u User) IsTrainee() bool { return u.Role == RoleTrainee }

func (u User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Username         string `json:"username" validate:"required,min=3,max=50,alphanum_"`
	Email            string `json:"email" validate:"required,email"`
	Password         string `json:"password" validate:"required"`
	Role             string `json:"role" validate:"omitempty,role"`
	FirstName        string `json:"firstName" validate:"max=100"`
	LastName         string `json:"lastName" validate:"max=100"`
	Phone            string `json:"phone" validate:"max=30"`
	Department       string `json:"department" validate:"max=100"`
	EnrolledCourseID *int   `json:"enrolledCourseId"`
	AssignedMentorID *int   `json:"assignedMentorId"`
	Status           string `json:"status" validate:"omitempty,status"`
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = core.CleanString(nu.Role, true /* lower */)
	nu.Status = core.CleanString(nu.Status, true /* lower */)
	nu.FirstName = core.CleanString(nu.FirstName)
	nu.LastName = core.CleanString(nu.LastName)
	nu.Phone = core.CleanString(nu.Phone)
	nu.Department = core.CleanString(nu.Department)
	if nu.Role == "" {
		nu.Role = RoleTrainee
	}
	if nu.Status == "" {
		nu.Status = StatusActive
	}
	return validate.Struct(nu)
}

// UpdateUser defines what information may be provided to modify an existing User.
// Empty fields keep their current values.
type UpdateUser struct {
	Username         string  `json:"username" validate:"omitempty,min=3,max=50,alphanum_"`
	Email            string  `json:"email" validate:"omitempty,email"`
	Password         string  `json:"password"`
	Role             string  `json:"role" validate:"omitempty,role"`
	FirstName        *string `json:"firstName" validate:"omitempty,max=100"`
	LastName         *string `json:"lastName" validate:"omitempty,max=100"`
	Phone            *string `json:"phone" validate:"omitempty,max=30"`
	Department       *string `json:"department" validate:"omitempty,max=100"`
	EnrolledCourseID *int    `json:"enrolledCourseId"`
	AssignedMentorID *int    `json:"assignedMentorId"`
	Status           string  `json:"status" validate:"omitempty,status"`
}

func (uu *UpdateUser) Validate(origUsr User, validate *validator.Validate) error {
	uu.Username = core.CleanString(uu.Username, true /* lower */)
	if uu.Username == "" {
		uu.Username = origUsr.Username
	}
	uu.Email = core.CleanString(uu.Email, true /* lower */)
	if uu.Email == "" {
		uu.Email = origUsr.Email
	}
	uu.Role = core.CleanString(uu.Role, true /* lower */)
	uu.Status = core.CleanString(uu.Status, true /* lower */)
	return validate.Struct(uu)
}

// UpdateProfile holds the fields users may change on their own profile.
type UpdateProfile struct {
	FirstName  *string `json:"firstName" validate:"omitempty,max=100"`
	LastName   *string `json:"lastName" validate:"omitempty,max=100"`
	Phone      *string `json:"phone" validate:"omitempty,max=30"`
	Department *string `json:"department" validate:"omitempty,max=100"`
}

func (up *UpdateProfile) Validate(validate *validator.Validate) error {
	for _, fld := range []*string{up.FirstName, up.LastName, up.Phone, up.Department} {
		if fld != nil {
			*fld = core.CleanString(*fld)
		}
	}
	return validate.Struct(up)
}

type ChangePassword struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (cp ChangePassword) Validate() error {
	if cp.NewPassword == "" {
		return core.NewValidationError(errNewPasswordRequired)
	}
	if len(cp.NewPassword) < pwdMinLen {
		return core.NewValidationError(errNewPasswordTooShort)
	}
	return nil
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"passwordConfirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp *ResetUserPassword) Validate(validate *validator.Validate) error {
	return validate.Struct(rp)
}

type BulkStatus struct {
	IDs    []int  `json:"ids" validate:"required,min=1"`
	Status string `json:"status" validate:"required,status"`
}

func (bs *BulkStatus) Validate(validate *validator.Validate) error {
	bs.Status = core.CleanString(bs.Status, true /* lower */)
	return validate.Struct(bs)
}

type QueryFilter struct {
	Search     string `query:"search"`
	Role       string `query:"role"`
	Department string `query:"department"`
	Status     string `query:"status"`
	Page       int    `query:"page"`
	Limit      int    `query:"limit"` // 0: no limit
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Role = core.CleanString(qf.Role, true /* lower */)
	qf.Department = core.CleanString(qf.Department)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
	if qf.Page < 1 {
		qf.Page = 1
	}
	if qf.Limit < 0 {
		qf.Limit = 0
	}
}

func (qf *QueryFilter) Offset() int {
	if qf.Limit == 0 {
		return 0
	}
	return (qf.Page - 1) * qf.Limit
}

type GetFilter struct {
	ID              int
	Username        string
	Email           string
	UsernameOrEmail string
}

type Page struct {
	Users      []User     `json:"users"`
	Pagination Pagination `json:"pagination"`
}

type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalUsers  int  `json:"totalUsers"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

type Stats struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
	Admins   int `json:"admins"`
	Mentors  int `json:"mentors"`
	Trainees int `json:"trainees"`
}

type MentorOption struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department"`
}

type CourseOption struct {
	ID         int    `json:"id"`
	CourseName string `json:"courseName"`
	Department string `json:"department"`
}

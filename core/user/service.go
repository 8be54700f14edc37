package user

import (
	"context"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/coding7860/sparkminds-backend/core"
)

var (
	// errors
	ErrNotFound             = core.NewNotFoundError("User")
	ErrUserExists           = errors.New("Username or email already exists")
	errCourseNotFound       = errors.New("Enrolled course not found")
	errMentorNotFound       = errors.New("Assigned mentor not found or is not a mentor")
	errWrongPassword        = errors.New("Current password is incorrect")
	errNewPasswordRequired  = errors.New("Current password and new password are required")
	errNewPasswordTooShort  = errors.New("New password must be at least 6 characters long")
	errInvalidResetLink     = errors.New("The reset link is invalid or has expired")
	errInvalidResetPassword = "Invalid password"
)

type (
	Repository interface {
		// CheckUniqueness returns ErrUserExists if a user, other than the excluded ones, has username or email.
		CheckUniqueness(ctx context.Context, username, email string, excludedIDs []int, exec ...core.DBExecutor) error
		CreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		// QueryUsers returns the page of users matching filter and the total number of matches.
		// QueryFilter.Search does a case-insensitive match on one of username, email, first name or last name.
		QueryUsers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]User, int, error)
		GetUser(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (User, error)
		UpdateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		UpdateOrCreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		DeleteUser(ctx context.Context, id int, exec ...core.DBExecutor) error
		SetUsersStatus(ctx context.Context, ids []int, status string, exec ...core.DBExecutor) (int, error)
		CountUsers(ctx context.Context, exec ...core.DBExecutor) (Stats, error)
		QueryDepartments(ctx context.Context, exec ...core.DBExecutor) ([]string, error)
		QueryCourseOptions(ctx context.Context, exec ...core.DBExecutor) ([]CourseOption, error)
		CourseExists(ctx context.Context, id int, exec ...core.DBExecutor) (bool, error)
	}

	ServiceInterface interface {
		Create(ctx context.Context, nu NewUser) (User, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) (Page, error)
		GetByID(ctx context.Context, id int) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		GetByUsernameOrEmail(ctx context.Context, uname string) (User, error)
		Update(ctx context.Context, usr User, uu UpdateUser) (User, error)
		UpdateProfile(ctx context.Context, usr User, up UpdateProfile) (User, error)
		ChangePassword(ctx context.Context, usr User, cp ChangePassword, checkCurrent bool) error
		SetLastLogin(ctx context.Context, usr User) (User, error)
		Delete(ctx context.Context, id int) error
		BulkUpdateStatus(ctx context.Context, bs BulkStatus) (int, error)
		Stats(ctx context.Context) (Stats, error)
		Departments(ctx context.Context) ([]string, error)
		Mentors(ctx context.Context) ([]MentorOption, error)
		Courses(ctx context.Context) ([]CourseOption, error)
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, data ResetUserPassword) error
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		tokens  tokenGenerator
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(conf *core.Config, repo Repository, mailSvc core.EmailService) *Service {
	return &Service{
		repo:    repo,
		mailSvc: mailSvc,
		tokens:  newTokenGenerator(conf.SecretKey, conf.PasswordResetTimeoutDelta),
	}
}

func (svc *Service) checkUniqueness(ctx context.Context, uname, email string, excludedIDs ...int) error {
	if err := svc.repo.CheckUniqueness(ctx, uname, email, excludedIDs); err != nil {
		if err == ErrUserExists {
			return core.NewValidationError(err)
		}
		return errors.Wrap(err, "checking uniqueness")
	}
	return nil
}

// checkRelations verifies that the enrolled course exists and that the assigned mentor is a mentor.
func (svc *Service) checkRelations(ctx context.Context, courseID, mentorID *int) error {
	if courseID != nil {
		exists, err := svc.repo.CourseExists(ctx, *courseID)
		if err != nil {
			return errors.Wrap(err, "checking enrolled course")
		}
		if !exists {
			return core.NewValidationError(errCourseNotFound)
		}
	}
	if mentorID != nil {
		mentor, err := svc.repo.GetUser(ctx, GetFilter{ID: *mentorID})
		if err != nil {
			if errors.Cause(err) == ErrNotFound {
				return core.NewValidationError(errMentorNotFound)
			}
			return errors.Wrap(err, "finding assigned mentor")
		}
		if !mentor.IsMentor() {
			return core.NewValidationError(errMentorNotFound)
		}
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	if err := svc.checkUniqueness(ctx, nu.Username, nu.Email); err != nil {
		return User{}, err
	}
	if err := svc.checkRelations(ctx, nu.EnrolledCourseID, nu.AssignedMentorID); err != nil {
		return User{}, err
	}

	now := nowFunc().UTC()
	usr := User{
		Username:         nu.Username,
		Email:            nu.Email,
		Role:             nu.Role,
		FirstName:        nu.FirstName,
		LastName:         nu.LastName,
		Phone:            nu.Phone,
		Department:       nu.Department,
		EnrolledCourseID: nu.EnrolledCourseID,
		AssignedMentorID: nu.AssignedMentorID,
		Status:           nu.Status,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	usr, err := svc.repo.CreateUser(ctx, usr)
	return usr, errors.Wrap(err, "Failed to create user")
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) (Page, error) {
	if filter == nil {
		filter = new(QueryFilter)
	}
	filter.Clean()

	users, total, err := svc.repo.QueryUsers(ctx, filter, ordering)
	if err != nil {
		return Page{}, errors.Wrap(err, "Failed to retrieve users")
	}
	if users == nil {
		users = []User{}
	}

	totalPages := 1
	if filter.Limit > 0 {
		totalPages = (total + filter.Limit - 1) / filter.Limit
	}
	return Page{
		Users: users,
		Pagination: Pagination{
			CurrentPage: filter.Page,
			TotalPages:  totalPages,
			TotalUsers:  total,
			HasNextPage: filter.Page < totalPages,
			HasPrevPage: filter.Page > 1,
		},
	}, nil
}

func (svc *Service) GetByID(ctx context.Context, id int) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *Service) GetByUsernameOrEmail(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{UsernameOrEmail: core.CleanString(uname, true /* lower */)})
}

func (svc *Service) Update(ctx context.Context, usr User, uu UpdateUser) (User, error) {
	if err := svc.checkUniqueness(ctx, uu.Username, uu.Email, usr.ID); err != nil {
		return User{}, err
	}
	if err := svc.checkRelations(ctx, uu.EnrolledCourseID, uu.AssignedMentorID); err != nil {
		return User{}, err
	}

	usr.Username = uu.Username
	usr.Email = uu.Email
	if uu.Role != "" {
		usr.Role = uu.Role
	}
	if uu.Status != "" {
		usr.Status = uu.Status
	}
	if uu.FirstName != nil {
		usr.FirstName = core.CleanString(*uu.FirstName)
	}
	if uu.LastName != nil {
		usr.LastName = core.CleanString(*uu.LastName)
	}
	if uu.Phone != nil {
		usr.Phone = core.CleanString(*uu.Phone)
	}
	if uu.Department != nil {
		usr.Department = core.CleanString(*uu.Department)
	}
	if uu.EnrolledCourseID != nil {
		usr.EnrolledCourseID = uu.EnrolledCourseID
	}
	if uu.AssignedMentorID != nil {
		usr.AssignedMentorID = uu.AssignedMentorID
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, errors.Wrap(err, "setting password")
		}
	}
	usr.UpdatedAt = nowFunc().UTC()

	usr, err := svc.repo.UpdateUser(ctx, usr)
	return usr, errors.Wrap(err, "Failed to update user")
}

func (svc *Service) UpdateProfile(ctx context.Context, usr User, up UpdateProfile) (User, error) {
	if up.FirstName != nil {
		usr.FirstName = *up.FirstName
	}
	if up.LastName != nil {
		usr.LastName = *up.LastName
	}
	if up.Phone != nil {
		usr.Phone = *up.Phone
	}
	if up.Department != nil {
		usr.Department = *up.Department
	}
	usr.UpdatedAt = nowFunc().UTC()

	usr, err := svc.repo.UpdateUser(ctx, usr)
	return usr, errors.Wrap(err, "Failed to update profile")
}

// ChangePassword sets usr's password to cp.NewPassword.
// The current password is only verified when checkCurrent is set (ie. users changing their own password).
func (svc *Service) ChangePassword(ctx context.Context, usr User, cp ChangePassword, checkCurrent bool) error {
	if checkCurrent {
		if cp.CurrentPassword == "" {
			return core.NewValidationError(errNewPasswordRequired)
		}
		if err := usr.CheckPassword(cp.CurrentPassword); err != nil {
			return core.NewValidationError(errWrongPassword)
		}
	}
	if err := cp.Validate(); err != nil {
		return err
	}
	if err := usr.SetPassword(cp.NewPassword); err != nil {
		return errors.Wrap(err, "setting password")
	}
	usr.UpdatedAt = nowFunc().UTC()
	_, err := svc.repo.UpdateUser(ctx, usr)
	return errors.Wrap(err, "Failed to change password")
}

func (svc *Service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	now := nowFunc().UTC()
	usr.LastLogin = &now
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) Delete(ctx context.Context, id int) error {
	return errors.Wrap(svc.repo.DeleteUser(ctx, id), "Failed to delete user")
}

func (svc *Service) BulkUpdateStatus(ctx context.Context, bs BulkStatus) (int, error) {
	n, err := svc.repo.SetUsersStatus(ctx, bs.IDs, bs.Status)
	return n, errors.Wrap(err, "Failed to update users status")
}

func (svc *Service) Stats(ctx context.Context) (Stats, error) {
	stats, err := svc.repo.CountUsers(ctx)
	return stats, errors.Wrap(err, "Failed to retrieve user statistics")
}

func (svc *Service) Departments(ctx context.Context) ([]string, error) {
	deps, err := svc.repo.QueryDepartments(ctx)
	if deps == nil {
		deps = []string{}
	}
	return deps, errors.Wrap(err, "Failed to retrieve departments")
}

func (svc *Service) Mentors(ctx context.Context) ([]MentorOption, error) {
	mentors, _, err := svc.repo.QueryUsers(ctx, &QueryFilter{Role: RoleMentor, Status: StatusActive, Page: 1}, []core.DBOrdering{
		{Field: "firstName", Ascending: true},
		{Field: "lastName", Ascending: true},
	})
	if err != nil {
		return nil, errors.Wrap(err, "Failed to retrieve mentors")
	}
	opts := make([]MentorOption, 0, len(mentors))
	for _, m := range mentors {
		opts = append(opts, MentorOption{ID: m.ID, Name: m.FullName(), Email: m.Email, Department: m.Department})
	}
	return opts, nil
}

func (svc *Service) Courses(ctx context.Context) ([]CourseOption, error) {
	courses, err := svc.repo.QueryCourseOptions(ctx)
	if courses == nil {
		courses = []CourseOption{}
	}
	return courses, errors.Wrap(err, "Failed to retrieve courses")
}

type passwordResetData struct {
	Name  string
	UID   string
	Token string
}

func (svc *Service) sendPasswordResetMail(usr User) {
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: usr.FullName(), Address: usr.Email}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: passwordResetData{
			Name:  usr.FullName(),
			UID:   EncodeUID(usr),
			Token: svc.tokens.makeToken(usr),
		},
	}
	svc.mailSvc.SendMessages(msg)
}

func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !usr.IsActive() {
		return ErrNotFound
	}
	svc.sendPasswordResetMail(usr)
	return nil
}

func (svc *Service) ResetPassword(ctx context.Context, data ResetUserPassword) error {
	id, err := decodeUID(data.UID)
	if err != nil {
		return core.NewValidationError(errInvalidResetLink)
	}
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return core.NewValidationError(errInvalidResetLink)
		}
		return errors.Wrap(err, "finding user by ID")
	}
	if err = svc.tokens.verifyToken(usr, data.Token); err != nil {
		return core.NewValidationError(errInvalidResetLink)
	}
	if tag := checkPassword(data.Password, usr.Username, usr.Email); tag != "" {
		return core.NewValidationError(errors.New(errInvalidResetPassword), core.FieldError{Field: "password", Error: passwordRuleTexts[tag]})
	}
	if err = usr.SetPassword(data.Password); err != nil {
		return errors.Wrap(err, "setting password")
	}
	usr.UpdatedAt = nowFunc().UTC()
	_, err = svc.repo.UpdateUser(ctx, usr)
	return errors.Wrap(err, "Failed to reset password")
}

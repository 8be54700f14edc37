// Package testutil holds the fixtures shared by the package tests.
package testutil

import (
	"context"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/coding7860/sparkminds-backend/core"
	"github.com/coding7860/sparkminds-backend/core/course"
	"github.com/coding7860/sparkminds-backend/core/schedule"
	"github.com/coding7860/sparkminds-backend/core/user"
	inmemdb "github.com/coding7860/sparkminds-backend/storage/database/inmem"
)

// Store is an in-memory database with its repositories.
type Store struct {
	DB       *inmemdb.DB
	UserRepo user.Repository
	CrsRepo  course.Repository
	ClsRepo  schedule.Repository
}

func NewInmemStore() *Store {
	db := inmemdb.NewDB()
	return &Store{
		DB:       db,
		UserRepo: inmemdb.NewUserRepository(db),
		CrsRepo:  inmemdb.NewCourseRepository(db),
		ClsRepo:  inmemdb.NewClassRepository(db),
	}
}

// Conf returns the configuration used by tests.
func Conf() *core.Config {
	return &core.Config{
		AppName:                   "SparkMinds",
		Env:                       "TEST",
		TestMode:                  true,
		SecretKey:                 "test-secret-key",
		FrontendBaseURL:           "http://frontend.test",
		DefaultFromEmail:          "noreply@sparkminds.test",
		PasswordResetTimeoutDelta: 24 * time.Hour,
		Server: core.ServerConfig{
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 24 * time.Hour,
		},
		RateLimit: core.RateLimitConfig{
			AuthMaxRequests: 10,
			AuthWindow:      15 * time.Minute,
		},
		CORS: core.CORSConfig{AllowedOrigins: []string{"*"}},
	}
}

// NewValidator returns a validator with every custom tag registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	schedule.InitValidators(validate, translator)
	return validate, translator
}

// NopLogger drops everything but keeps the error messages.
type NopLogger struct {
	Errors []string
}

func (l *NopLogger) Debug(string, ...interface{})       {}
func (l *NopLogger) Info(string, ...interface{})        {}
func (l *NopLogger) Warn(string, ...interface{})        {}
func (l *NopLogger) Error(msg string, _ ...interface{}) { l.Errors = append(l.Errors, msg) }
func (l *NopLogger) Fatal(msg string, _ ...interface{}) { l.Errors = append(l.Errors, msg) }

func CreateUser(
	t *testing.T,
	repo user.Repository,
	uname, email, pwd, role string,
	active bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	status := user.StatusActive
	if !active {
		status = user.StatusInactive
	}
	usr := user.User{
		Username:  uname,
		Email:     email,
		Role:      role,
		FirstName: uname,
		Status:    status,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// NewModule returns a one day per subtopic module named name.
func NewModule(name string, days int, subtopics ...string) course.NewCourseModule {
	mod := course.NewCourseModule{
		ModuleName:   name,
		Description:  name + " description",
		DurationDays: days,
		Subtopics:    []course.NewCourseSubtopic{},
	}
	for _, sub := range subtopics {
		mod.Subtopics = append(mod.Subtopics, course.NewCourseSubtopic{
			SubtopicName: sub,
			Description:  sub + " description",
			DurationDays: 1,
		})
	}
	return mod
}

func NewCompleteCourse(name, mentor string, modules ...course.NewCourseModule) course.NewCompleteCourse {
	return course.NewCompleteCourse{
		NewCourse: course.NewCourse{
			CourseName:     name,
			Description:    name + " description",
			Department:     "Engineering",
			MentorName:     mentor,
			CourseDuration: "4 weeks",
		},
		Modules: modules,
	}
}

func CreateCompleteCourse(t *testing.T, svc course.ServiceInterface, ncc course.NewCompleteCourse) course.CourseTree {
	tree, err := svc.CreateComplete(context.Background(), ncc)
	if err != nil {
		t.Fatalf("CreateCompleteCourse() failed: %v", err)
	}
	return tree
}

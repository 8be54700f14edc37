package dig_container

import (
	"database/sql"
	"fmt"
	"log"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/coding7860/sparkminds-backend/apps/api/echo"
	"github.com/coding7860/sparkminds-backend/core"
	"github.com/coding7860/sparkminds-backend/core/course"
	"github.com/coding7860/sparkminds-backend/core/schedule"
	"github.com/coding7860/sparkminds-backend/core/user"
	emailsvc "github.com/coding7860/sparkminds-backend/services/email"
	logsvc "github.com/coding7860/sparkminds-backend/services/logger"
	"github.com/coding7860/sparkminds-backend/services/ratelimit"
	"github.com/coding7860/sparkminds-backend/storage/database"
	boiledrepos "github.com/coding7860/sparkminds-backend/storage/database/boiledrepos"
	inmemdb "github.com/coding7860/sparkminds-backend/storage/database/inmem"
	"github.com/coding7860/sparkminds-backend/storage/database/sqlxrepos"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// Storage holds the repositories of the configured database driver.
type Storage struct {
	dig.Out
	Users   user.Repository
	Courses course.Repository
	Classes schedule.Repository
	Tx      core.Transactor
	Close   func() error `name:"closeDB"`
}

type ServerParams struct {
	dig.In
	Conf        *core.Config
	Logger      core.Logger
	UserSvc     user.ServiceInterface
	CourseSvc   course.ServiceInterface
	ScheduleSvc schedule.ServiceInterface
	Limiter     *ratelimit.Limiter
	Validate    *validator.Validate
	Translator  ut.Translator
}

func newLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger("API", conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger("DB", conf)
}

func openDB(conf *core.Config) (*sql.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func newStorage(conf *core.Config, loggerParam DBLoggerParam) Storage {
	if conf.Database.Driver == database.DriverMemory {
		loggerParam.Logger.Warn("using the in-memory database: nothing will be persisted")
		db := inmemdb.NewDB()
		return Storage{
			Users:   inmemdb.NewUserRepository(db),
			Courses: inmemdb.NewCourseRepository(db),
			Classes: inmemdb.NewClassRepository(db),
			Tx:      db,
			Close:   func() error { return nil },
		}
	}

	db, err := openDB(conf)
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return Storage{
		Users:   boiledrepos.NewUserRepository(db),
		Courses: sqlxrepos.NewCourseRepository(db),
		Classes: sqlxrepos.NewClassRepository(db),
		Tx:      core.NewTransactor(db),
		Close:   db.Close,
	}
}

func newLimiter(conf *core.Config) (*ratelimit.Limiter, error) {
	return ratelimit.NewFromConfig(conf)
}

func newJanitor(conf *core.Config, limiter *ratelimit.Limiter, logger core.Logger) (*ratelimit.Janitor, error) {
	return ratelimit.NewJanitor(limiter, conf.RateLimit.SweepSchedule, conf.RateLimit.IdleTimeout, logger)
}

func newServer(p ServerParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:        p.Conf,
		Logger:      p.Logger,
		UserSvc:     p.UserSvc,
		CourseSvc:   p.CourseSvc,
		ScheduleSvc: p.ScheduleSvc,
		Limiter:     p.Limiter,
		Validate:    p.Validate,
		Translator:  p.Translator,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newStorage))
	must(c.Provide(emailsvc.NewService))
	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(user.NewService, dig.As(new(user.ServiceInterface))))
	must(c.Provide(course.NewService, dig.As(new(course.ServiceInterface))))
	must(c.Provide(schedule.NewService, dig.As(new(schedule.ServiceInterface))))
	must(c.Provide(newLimiter))
	must(c.Provide(newJanitor))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}

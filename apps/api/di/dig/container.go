package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/elearn/apps/api/echo"
	"github.com/trezcool/elearn/core"
	"github.com/trezcool/elearn/core/course"
	"github.com/trezcool/elearn/core/enrollment"
	"github.com/trezcool/elearn/core/session"
	"github.com/trezcool/elearn/core/user"
	emailsvc "github.com/trezcool/elearn/services/email"
	logsvc "github.com/trezcool/elearn/services/logger"
	"github.com/trezcool/elearn/storage"
	"github.com/trezcool/elearn/storage/files"
	"github.com/trezcool/elearn/storage/sessions"
)

const setupTimeout = 30 * time.Second

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

type serverParams struct {
	dig.In
	Conf          *core.Config
	Logger        core.Logger
	Sessions      *session.Manager
	UserSvc       *user.Service
	CourseSvc     *course.Service
	EnrollmentSvc *enrollment.Service
	Files         core.FileStore
	Validate      *validator.Validate
	Translator    ut.Translator
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate
}

func newRepositories(conf *core.Config, loggerParam DBLoggerParam) *storage.Repositories {
	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()

	repos, err := storage.Open(ctx, conf)
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up %s database: %v", conf.Database.Engine, err), err)
	}
	return repos
}

func newSessionStore(conf *core.Config, logger core.Logger) session.Store {
	if conf.Redis.Addr == "" {
		return sessions.NewMemoryStore()
	}
	client, err := sessions.NewRedisClient(context.Background(), conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("connecting to redis: %v", err), err)
	}
	return sessions.NewRedisStore(client)
}

func newFileStore(conf *core.Config, logger core.Logger) core.FileStore {
	store, err := files.New(context.Background(), conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up %s uploads: %v", conf.Uploads.Backend, err), err)
	}
	return store
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug || conf.SendgridApiKey == "" {
		return emailsvc.NewConsoleService(conf)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:          p.Conf,
		Logger:        p.Logger,
		Sessions:      p.Sessions,
		UserSvc:       p.UserSvc,
		CourseSvc:     p.CourseSvc,
		EnrollmentSvc: p.EnrollmentSvc,
		Files:         p.Files,
		Validate:      p.Validate,
		Translator:    p.Translator,
	})
}

// New returns a new dependency injection dig.Container
func New(newConfig func() *core.Config) *dig.Container {
	c := dig.New()

	must(c.Provide(newConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newRepositories))
	must(c.Provide(func(r *storage.Repositories) user.Repository { return r.Users }))
	must(c.Provide(func(r *storage.Repositories) course.Repository { return r.Courses }))
	must(c.Provide(func(r *storage.Repositories) enrollment.Repository { return r.Enrollments }))
	must(c.Provide(newSessionStore))
	must(c.Provide(session.NewManager))
	must(c.Provide(newFileStore))
	must(c.Provide(newEmailService))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(user.NewService))
	must(c.Provide(course.NewService))
	must(c.Provide(enrollment.NewService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}

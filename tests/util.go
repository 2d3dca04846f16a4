package testutil

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gosimple/slug"

	"github.com/trezcool/elearn/core"
	"github.com/trezcool/elearn/core/course"
	"github.com/trezcool/elearn/core/enrollment"
	"github.com/trezcool/elearn/core/user"
	emailsvc "github.com/trezcool/elearn/services/email"
	inmemdb "github.com/trezcool/elearn/storage/database/inmem"
	"github.com/trezcool/elearn/storage/files"
)

// Env is a fully wired set of services backed by the in-memory database.
type Env struct {
	Conf     *core.Config
	Validate *validator.Validate
	Mail     *emailsvc.Mock
	Files    *files.LocalStore

	UserRepo       user.Repository
	CourseRepo     course.Repository
	EnrollmentRepo enrollment.Repository

	Users       *user.Service
	Courses     *course.Service
	Enrollments *enrollment.Service
}

func NewEnv(t *testing.T) *Env {
	t.Helper()

	conf := core.NewTestConfig()
	conf.Uploads.Dir = t.TempDir()

	translator := core.NewTranslator()
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	db := inmemdb.Open()
	env := &Env{
		Conf:           conf,
		Validate:       validate,
		Mail:           emailsvc.NewMock(conf),
		Files:          files.NewLocalStore(conf.Uploads.Dir),
		UserRepo:       inmemdb.NewUserRepository(db),
		CourseRepo:     inmemdb.NewCourseRepository(db),
		EnrollmentRepo: inmemdb.NewEnrollmentRepository(db),
	}
	env.Users = user.NewService(env.UserRepo, env.Mail, env.Files, conf, validate, translator)
	env.Courses = course.NewService(env.CourseRepo, env.Users, env.Files, validate, translator)
	env.Enrollments = enrollment.NewService(env.EnrollmentRepo, env.Courses, env.Users)
	return env
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	firstName, lastName, email, pwd, role string,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Role:      role,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(t.Context(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateCourse(
	t *testing.T,
	repo course.Repository,
	instructor user.User,
	title string,
	createdAt ...time.Time,
) course.Course {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	c, err := repo.CreateCourse(t.Context(), course.Course{
		Title:          title,
		Description:    title + " description",
		InstructorID:   instructor.ID,
		InstructorName: instructor.FullName(),
		Image:          course.DefaultImage,
		Slug:           slug.Make(title),
		CreatedAt:      tstamp,
		Students:       []string{},
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return c
}

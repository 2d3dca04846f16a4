package course

import (
	"context"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/gosimple/slug"
	"github.com/pkg/errors"

	"github.com/trezcool/elearn/core"
	"github.com/trezcool/elearn/core/user"
)

const (
	DefaultImage      = "default_course.jpg"
	UnknownInstructor = "Unknown"
)

var (
	// errors
	ErrNotFound        = errors.New("course not found")
	ErrInvalidFilename = errors.New("invalid file name")
)

// Course is a unit of study published by an instructor.
// InstructorName is a snapshot taken at creation; Students caches the enrolled student IDs.
type Course struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	InstructorID   string    `json:"instructor_id"`
	InstructorName string    `json:"instructor_name"`
	Image          string    `json:"image"`
	Slug           string    `json:"slug"`
	CreatedAt      time.Time `json:"created_at"` // UTC
	Students       []string  `json:"students"`
}

func (c Course) HasStudent(id string) bool {
	for _, s := range c.Students {
		if s == id {
			return true
		}
	}
	return false
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Title       string `form:"title" validate:"required,notblank"`
	Description string `form:"description"`
}

func (nc *NewCourse) Clean() {
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
}

type GetFilter struct {
	ID   string
	Slug string
}

type QueryFilter struct {
	InstructorID string
	IDs          []string
}

type (
	Repository interface {
		CreateCourse(ctx context.Context, c Course) (Course, error)
		// GetCourse returns the oldest Course matching filter.
		GetCourse(ctx context.Context, filter GetFilter) (Course, error)
		// QueryCourses applies AND operation on available QueryFilter fields, oldest first.
		QueryCourses(ctx context.Context, filter QueryFilter) ([]Course, error)
	}

	instructorGetter interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	Service struct {
		repo       Repository
		users      instructorGetter
		files      core.FileStore
		validate   *validator.Validate
		translator ut.Translator
	}
)

func NewService(
	repo Repository,
	users *user.Service,
	files core.FileStore,
	validate *validator.Validate,
	translator ut.Translator,
) *Service {
	return &Service{
		repo:       repo,
		users:      users,
		files:      files,
		validate:   validate,
		translator: translator,
	}
}

// Create publishes a new Course for instructorID. image is optional.
func (svc *Service) Create(ctx context.Context, instructorID string, nc NewCourse, image *core.Upload) (Course, error) {
	nc.Clean()
	if err := core.Translate(svc.validate.Struct(nc), svc.translator); err != nil {
		return Course{}, err
	}

	instructorName := UnknownInstructor
	if instructor, err := svc.users.GetByID(ctx, instructorID); err == nil {
		if name := instructor.FullName(); name != "" {
			instructorName = name
		}
	} else if !errors.Is(err, user.ErrNotFound) {
		return Course{}, errors.Wrap(err, "finding instructor by ID")
	}

	img := DefaultImage
	if image != nil && image.Filename != "" {
		filename := core.SecureFilename(image.Filename)
		if filename == "" {
			return Course{}, core.NewValidationError(ErrInvalidFilename, core.FieldError{Field: "image", Error: ErrInvalidFilename.Error()})
		}
		ref, err := svc.files.Save(ctx, filename, image.Body)
		if err != nil {
			return Course{}, errors.Wrap(err, "saving course image")
		}
		img = ref
	}

	s := slug.Make(nc.Title)
	if s == "" {
		s = "course"
	}
	c := Course{
		Title:          nc.Title,
		Description:    nc.Description,
		InstructorID:   instructorID,
		InstructorName: instructorName,
		Image:          img,
		Slug:           s,
		CreatedAt:      time.Now().UTC(),
		Students:       []string{},
	}
	c, err := svc.repo.CreateCourse(ctx, c)
	return c, errors.Wrap(err, "creating course")
}

func (svc *Service) QueryAll(ctx context.Context) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, QueryFilter{})
}

func (svc *Service) QueryByInstructor(ctx context.Context, instructorID string) ([]Course, error) {
	if instructorID == "" {
		return nil, nil
	}
	return svc.repo.QueryCourses(ctx, QueryFilter{InstructorID: instructorID})
}

func (svc *Service) QueryByIDs(ctx context.Context, ids ...string) ([]Course, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return svc.repo.QueryCourses(ctx, QueryFilter{IDs: ids})
}

func (svc *Service) GetByID(ctx context.Context, id string) (Course, error) {
	if id == "" {
		return Course{}, ErrNotFound
	}
	return svc.repo.GetCourse(ctx, GetFilter{ID: id})
}

func (svc *Service) GetBySlug(ctx context.Context, s string) (Course, error) {
	if s == "" {
		return Course{}, ErrNotFound
	}
	return svc.repo.GetCourse(ctx, GetFilter{Slug: s})
}

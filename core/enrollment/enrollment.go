package enrollment

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/elearn/core/course"
	"github.com/trezcool/elearn/core/user"
)

// MaxProgress is the progress of a completed Enrollment.
const MaxProgress = 100

var (
	// errors
	ErrNotFound        = errors.New("not enrolled in this course")
	ErrAlreadyEnrolled = errors.New("already enrolled in this course")
)

// Outcome is the result of an enroll attempt.
type Outcome int

const (
	Enrolled Outcome = iota + 1
	AlreadyEnrolled
)

func (o Outcome) String() string {
	switch o {
	case Enrolled:
		return "enrolled"
	case AlreadyEnrolled:
		return "already_enrolled"
	default:
		return "unknown"
	}
}

// Enrollment links a student to a course. There is at most one per (StudentID, CourseID) pair.
// States: enrolled (Completed=false) then completed; there is no way back.
type Enrollment struct {
	ID         string    `json:"id"`
	StudentID  string    `json:"student_id"`
	CourseID   string    `json:"course_id"`
	EnrolledAt time.Time `json:"enrolled_at"` // UTC
	Completed  bool      `json:"completed"`
	Progress   int       `json:"progress"`
}

type GetFilter struct {
	StudentID string
	CourseID  string
}

type QueryFilter struct {
	StudentID string
	CourseID  string
}

// RosterEntry is a student enrolled in a course, as listed to instructors.
type RosterEntry struct {
	StudentID  string    `json:"student_id"`
	FullName   string    `json:"full_name"`
	Email      string    `json:"email"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

// CourseProgress is a course of the student's curriculum.
type CourseProgress struct {
	course.Course
	Completed bool `json:"completed"`
	Progress  int  `json:"progress"`
}

type (
	Repository interface {
		GetEnrollment(ctx context.Context, filter GetFilter) (Enrollment, error)
		// QueryEnrollments applies AND operation on available QueryFilter fields.
		QueryEnrollments(ctx context.Context, filter QueryFilter) ([]Enrollment, error)
		// CreateEnrollment inserts enr and adds the student to the course's Students.
		// Returns ErrAlreadyEnrolled if the (student, course) pair already exists.
		CreateEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error)
		UpdateEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error)
	}

	Service struct {
		repo    Repository
		courses *course.Service
		users   *user.Service
	}
)

func NewService(repo Repository, courses *course.Service, users *user.Service) *Service {
	return &Service{repo: repo, courses: courses, users: users}
}

// Enroll enrolls studentID in courseID. Enrolling twice has no side effect and reports AlreadyEnrolled.
func (svc *Service) Enroll(ctx context.Context, studentID, courseID string) (Outcome, error) {
	if _, err := svc.courses.GetByID(ctx, courseID); err != nil {
		return 0, err
	}

	if _, err := svc.repo.GetEnrollment(ctx, GetFilter{StudentID: studentID, CourseID: courseID}); err == nil {
		return AlreadyEnrolled, nil
	} else if !errors.Is(err, ErrNotFound) {
		return 0, errors.Wrap(err, "finding enrollment")
	}

	enr := Enrollment{
		StudentID:  studentID,
		CourseID:   courseID,
		EnrolledAt: time.Now().UTC(),
	}
	if _, err := svc.repo.CreateEnrollment(ctx, enr); err != nil {
		// lost a race against a concurrent enroll of the same pair
		if errors.Is(err, ErrAlreadyEnrolled) {
			return AlreadyEnrolled, nil
		}
		return 0, errors.Wrap(err, "creating enrollment")
	}
	return Enrolled, nil
}

// EnrollBySlug is Enroll for the course identified by slug.
func (svc *Service) EnrollBySlug(ctx context.Context, studentID, slug string) (course.Course, Outcome, error) {
	c, err := svc.courses.GetBySlug(ctx, slug)
	if err != nil {
		return course.Course{}, 0, err
	}
	outcome, err := svc.Enroll(ctx, studentID, c.ID)
	return c, outcome, err
}

func (svc *Service) ListForCourse(ctx context.Context, courseID string) ([]Enrollment, error) {
	return svc.repo.QueryEnrollments(ctx, QueryFilter{CourseID: courseID})
}

func (svc *Service) ListForStudent(ctx context.Context, studentID string) ([]Enrollment, error) {
	return svc.repo.QueryEnrollments(ctx, QueryFilter{StudentID: studentID})
}

// Roster lists the students enrolled in courseID. Enrollments of unknown users are skipped.
func (svc *Service) Roster(ctx context.Context, courseID string) (course.Course, []RosterEntry, error) {
	c, err := svc.courses.GetByID(ctx, courseID)
	if err != nil {
		return course.Course{}, nil, err
	}
	enrs, err := svc.ListForCourse(ctx, c.ID)
	if err != nil {
		return course.Course{}, nil, errors.Wrap(err, "querying enrollments")
	}

	ids := make([]string, 0, len(enrs))
	for _, enr := range enrs {
		ids = append(ids, enr.StudentID)
	}
	students, err := svc.users.QueryByIDs(ctx, ids...)
	if err != nil {
		return course.Course{}, nil, errors.Wrap(err, "querying students")
	}
	byID := make(map[string]user.User, len(students))
	for _, s := range students {
		byID[s.ID] = s
	}

	roster := make([]RosterEntry, 0, len(enrs))
	for _, enr := range enrs {
		s, ok := byID[enr.StudentID]
		if !ok {
			continue
		}
		roster = append(roster, RosterEntry{
			StudentID:  s.ID,
			FullName:   s.FullName(),
			Email:      s.Email,
			EnrolledAt: enr.EnrolledAt,
		})
	}
	return c, roster, nil
}

// MarkComplete completes the Enrollment of studentID in courseID.
// Returns ErrNotFound, and changes nothing, if the student is not enrolled.
func (svc *Service) MarkComplete(ctx context.Context, studentID, courseID string) (Enrollment, error) {
	enr, err := svc.repo.GetEnrollment(ctx, GetFilter{StudentID: studentID, CourseID: courseID})
	if err != nil {
		return Enrollment{}, err
	}
	if enr.Completed && enr.Progress == MaxProgress {
		return enr, nil
	}
	enr.Completed = true
	enr.Progress = MaxProgress
	enr, err = svc.repo.UpdateEnrollment(ctx, enr)
	return enr, errors.Wrap(err, "updating enrollment")
}

// MarkCompleteBySlug is MarkComplete for the course identified by slug.
func (svc *Service) MarkCompleteBySlug(ctx context.Context, studentID, slug string) (Enrollment, error) {
	c, err := svc.courses.GetBySlug(ctx, slug)
	if err != nil {
		return Enrollment{}, err
	}
	return svc.MarkComplete(ctx, studentID, c.ID)
}

// MyCourses lists the courses studentID is enrolled in with their completion state.
// Enrollments whose course no longer exists are skipped.
func (svc *Service) MyCourses(ctx context.Context, studentID string) ([]CourseProgress, error) {
	enrs, err := svc.ListForStudent(ctx, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	if len(enrs) == 0 {
		return []CourseProgress{}, nil
	}

	byCourse := make(map[string]Enrollment, len(enrs))
	ids := make([]string, 0, len(enrs))
	for _, enr := range enrs {
		byCourse[enr.CourseID] = enr
		ids = append(ids, enr.CourseID)
	}
	courses, err := svc.courses.QueryByIDs(ctx, ids...)
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}

	res := make([]CourseProgress, 0, len(courses))
	for _, c := range courses {
		enr := byCourse[c.ID]
		res = append(res, CourseProgress{Course: c, Completed: enr.Completed, Progress: enr.Progress})
	}
	return res, nil
}

// Study returns the course identified by slug with the student's Enrollment in it.
// Returns ErrNotFound if the student is not enrolled.
func (svc *Service) Study(ctx context.Context, studentID, slug string) (course.Course, Enrollment, error) {
	c, err := svc.courses.GetBySlug(ctx, slug)
	if err != nil {
		return course.Course{}, Enrollment{}, err
	}
	enr, err := svc.repo.GetEnrollment(ctx, GetFilter{StudentID: studentID, CourseID: c.ID})
	if err != nil {
		return course.Course{}, Enrollment{}, err
	}
	return c, enr, nil
}

func (svc *Service) IsEnrolled(ctx context.Context, studentID, courseID string) (bool, error) {
	if _, err := svc.repo.GetEnrollment(ctx, GetFilter{StudentID: studentID, CourseID: courseID}); err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// EnrolledCourseIDs returns the IDs of the courses studentID is enrolled in.
func (svc *Service) EnrolledCourseIDs(ctx context.Context, studentID string) ([]string, error) {
	enrs, err := svc.ListForStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(enrs))
	for _, enr := range enrs {
		ids = append(ids, enr.CourseID)
	}
	return ids, nil
}

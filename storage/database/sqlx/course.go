package sqlxrepos

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/elearn/core"
	"github.com/trezcool/elearn/core/course"
)

const courseColumns = "id, title, description, instructor_id, instructor_name, image, slug, students, created_at"

type courseRow struct {
	ID             string         `db:"id"`
	Title          string         `db:"title"`
	Description    string         `db:"description"`
	InstructorID   string         `db:"instructor_id"`
	InstructorName string         `db:"instructor_name"`
	Image          string         `db:"image"`
	Slug           string         `db:"slug"`
	Students       pq.StringArray `db:"students"`
	CreatedAt      time.Time      `db:"created_at"`
}

func (r courseRow) toCourse() course.Course {
	students := []string(r.Students)
	if students == nil {
		students = []string{}
	}
	return course.Course{
		ID:             r.ID,
		Title:          r.Title,
		Description:    r.Description,
		InstructorID:   r.InstructorID,
		InstructorName: r.InstructorName,
		Image:          r.Image,
		Slug:           r.Slug,
		CreatedAt:      r.CreatedAt.UTC(),
		Students:       students,
	}
}

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *sqlx.DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	c.ID = uuid.NewString()
	if c.Students == nil {
		c.Students = []string{}
	}
	row := courseRow{
		ID:             c.ID,
		Title:          c.Title,
		Description:    c.Description,
		InstructorID:   c.InstructorID,
		InstructorName: c.InstructorName,
		Image:          c.Image,
		Slug:           c.Slug,
		Students:       pq.StringArray(c.Students),
		CreatedAt:      c.CreatedAt,
	}
	q := "INSERT INTO courses (" + courseColumns + ") VALUES " +
		"(:id, :title, :description, :instructor_id, :instructor_name, :image, :slug, :students, :created_at)"
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return c, nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, filter course.GetFilter) (course.Course, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.ID != "" {
		if !validUUID(filter.ID) {
			return course.Course{}, course.ErrNotFound
		}
		args = append(args, filter.ID)
		conds = append(conds, "id = $"+strconv.Itoa(len(args)))
	}
	if filter.Slug != "" {
		args = append(args, filter.Slug)
		conds = append(conds, "slug = $"+strconv.Itoa(len(args)))
	}
	if len(conds) == 0 {
		return course.Course{}, course.ErrNotFound
	}

	q := "SELECT " + courseColumns + " FROM courses WHERE " + strings.Join(conds, " AND ") +
		" ORDER BY " + core.OldestFirst.String() + " LIMIT 1"
	var row courseRow
	if err := repo.db.GetContext(ctx, &row, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "selecting course")
	}
	return row.toCourse(), nil
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter course.QueryFilter) ([]course.Course, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.InstructorID != "" {
		if !validUUID(filter.InstructorID) {
			return []course.Course{}, nil
		}
		args = append(args, filter.InstructorID)
		conds = append(conds, "instructor_id = $"+strconv.Itoa(len(args)))
	}
	if filter.IDs != nil {
		args = append(args, pq.Array(validUUIDs(filter.IDs)))
		conds = append(conds, "id = ANY($"+strconv.Itoa(len(args))+"::uuid[])")
	}

	q := "SELECT " + courseColumns + " FROM courses"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY " + core.OldestFirst.String()

	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, r.toCourse())
	}
	return courses, nil
}

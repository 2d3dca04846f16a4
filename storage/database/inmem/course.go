package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/elearn/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db}
}

func copyCourse(c *course.Course) course.Course {
	cp := *c
	cp.Students = append([]string{}, c.Students...)
	return cp
}

func (repo *courseRepository) CreateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	c.ID = uuid.NewString()
	if c.Students == nil {
		c.Students = []string{}
	}
	stored := copyCourse(&c)
	repo.db.courses[c.ID] = &stored
	return c, nil
}

func (repo *courseRepository) GetCourse(_ context.Context, filter course.GetFilter) (course.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if filter.ID != "" {
		c, ok := repo.db.courses[filter.ID]
		if !ok || (filter.Slug != "" && c.Slug != filter.Slug) {
			return course.Course{}, course.ErrNotFound
		}
		return copyCourse(c), nil
	}
	if filter.Slug != "" {
		var found *course.Course
		for _, c := range repo.db.courses {
			if c.Slug == filter.Slug && (found == nil || c.CreatedAt.Before(found.CreatedAt)) {
				found = c
			}
		}
		if found != nil {
			return copyCourse(found), nil
		}
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) QueryCourses(_ context.Context, filter course.QueryFilter) ([]course.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	courses := make([]course.Course, 0)
	for _, c := range repo.db.courses {
		if filter.InstructorID != "" && c.InstructorID != filter.InstructorID {
			continue
		}
		if filter.IDs != nil && !containsString(filter.IDs, c.ID) {
			continue
		}
		courses = append(courses, copyCourse(c))
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].CreatedAt.Before(courses[j].CreatedAt) })
	return courses, nil
}

package inmemdb_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elearn/core/course"
	"github.com/trezcool/elearn/core/enrollment"
	"github.com/trezcool/elearn/core/user"
	inmemdb "github.com/trezcool/elearn/storage/database/inmem"
	testutil "github.com/trezcool/elearn/tests"
)

func TestUserRepository(t *testing.T) {
	db := inmemdb.Open()
	repo := inmemdb.NewUserRepository(db)
	alice := testutil.CreateUser(t, repo, "Alice", "Doe", "alice@example.com", "", user.RoleStudent)
	bob := testutil.CreateUser(t, repo, "Bob", "Doe", "bob@example.com", "", user.RoleInstructor, time.Now().Add(time.Minute))

	_, err := repo.CreateUser(t.Context(), user.User{Email: "alice@example.com"})
	assert.ErrorIs(t, err, user.ErrEmailExists)

	assert.NoError(t, repo.CheckEmailUniqueness(t.Context(), "alice@example.com", alice))
	assert.ErrorIs(t, repo.CheckEmailUniqueness(t.Context(), "alice@example.com", bob), user.ErrEmailExists)

	got, err := repo.GetUser(t.Context(), user.GetFilter{Email: "bob@example.com"})
	require.NoError(t, err)
	assert.Equal(t, bob.ID, got.ID)
	_, err = repo.GetUser(t.Context(), user.GetFilter{ID: "ghost"})
	assert.ErrorIs(t, err, user.ErrNotFound)

	instructors, err := repo.QueryUsers(t.Context(), user.QueryFilter{Role: user.RoleInstructor})
	require.NoError(t, err)
	require.Len(t, instructors, 1)
	assert.Equal(t, bob.ID, instructors[0].ID)

	byIDs, err := repo.QueryUsers(t.Context(), user.QueryFilter{IDs: []string{bob.ID, alice.ID}})
	require.NoError(t, err)
	require.Len(t, byIDs, 2)
	assert.Equal(t, alice.ID, byIDs[0].ID) // oldest first

	bob.Email = "alice@example.com"
	_, err = repo.UpdateUser(t.Context(), bob)
	assert.ErrorIs(t, err, user.ErrEmailExists)
	_, err = repo.UpdateUser(t.Context(), user.User{ID: "ghost"})
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestEnrollmentRepository(t *testing.T) {
	db := inmemdb.Open()
	users := inmemdb.NewUserRepository(db)
	courses := inmemdb.NewCourseRepository(db)
	repo := inmemdb.NewEnrollmentRepository(db)

	bob := testutil.CreateUser(t, users, "Bob", "Doe", "bob@example.com", "", user.RoleInstructor)
	c := testutil.CreateCourse(t, courses, bob, "Intro")

	_, err := repo.CreateEnrollment(t.Context(), enrollment.Enrollment{StudentID: "s1", CourseID: "ghost"})
	assert.ErrorIs(t, err, course.ErrNotFound)

	enr, err := repo.CreateEnrollment(t.Context(), enrollment.Enrollment{StudentID: "s1", CourseID: c.ID, EnrolledAt: time.Now()})
	require.NoError(t, err)
	assert.NotEmpty(t, enr.ID)

	_, err = repo.CreateEnrollment(t.Context(), enrollment.Enrollment{StudentID: "s1", CourseID: c.ID})
	assert.ErrorIs(t, err, enrollment.ErrAlreadyEnrolled)

	got, err := courses.GetCourse(t.Context(), course.GetFilter{ID: c.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, got.Students)

	// returned courses are copies
	got.Students[0] = "tampered"
	again, err := courses.GetCourse(t.Context(), course.GetFilter{Slug: "intro"})
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, again.Students)

	// student and course cannot be changed
	enr.StudentID = "s2"
	enr.Completed = true
	enr.Progress = enrollment.MaxProgress
	updated, err := repo.UpdateEnrollment(t.Context(), enr)
	require.NoError(t, err)
	assert.Equal(t, "s1", updated.StudentID)
	assert.True(t, updated.Completed)

	_, err = repo.UpdateEnrollment(t.Context(), enrollment.Enrollment{ID: "ghost"})
	assert.ErrorIs(t, err, enrollment.ErrNotFound)

	_, err = repo.GetEnrollment(t.Context(), enrollment.GetFilter{StudentID: "s2", CourseID: c.ID})
	assert.ErrorIs(t, err, enrollment.ErrNotFound)
}

package echoapi_test

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elearn/core/course"
	"github.com/trezcool/elearn/core/enrollment"
	"github.com/trezcool/elearn/core/session"
	"github.com/trezcool/elearn/core/user"
	testutil "github.com/trezcool/elearn/tests"
)

type coursesData struct {
	Courses           []course.Course `json:"courses"`
	EnrolledCourseIDs []string        `json:"enrolled_course_ids"`
}

type courseData struct {
	Course     course.Course `json:"course"`
	IsEnrolled bool          `json:"is_enrolled"`
}

func TestCreateCourse_EnrollTwice(t *testing.T) {
	app := setup(t)
	app.createUser(t, "Bob", "bob@example.com", user.RoleInstructor)
	alice := app.createUser(t, "Alice", "alice@example.com", user.RoleStudent)

	instructor := app.browser(t)
	instructor.signIn("bob@example.com")
	rec := instructor.post("/create-course", url.Values{"title": {"Intro"}, "description": {"Basics"}})
	checkRedirect(t, instructor, rec, 0, "/instructor/dashboard", note(session.LevelSuccess, "Course created successfully!"))

	p, _ := instructor.page("/instructor/dashboard")
	var dash coursesData
	p.decode(t, &dash)
	require.Len(t, dash.Courses, 1)
	c := dash.Courses[0]
	assert.Equal(t, "intro", c.Slug)
	assert.Equal(t, "Bob Doe", c.InstructorName)
	assert.Equal(t, course.DefaultImage, c.Image)

	student := app.browser(t)
	student.signIn("alice@example.com")

	rec = student.post("/enroll/intro", nil)
	checkRedirect(t, student, rec, 0, "/course/intro", note(session.LevelSuccess, "Enrolled successfully!"))

	rec = student.post("/enroll/intro", nil)
	checkRedirect(t, student, rec, 0, "/course/intro", note(session.LevelInfo, "You are already enrolled."))

	p, _ = student.page("/course/intro")
	var detail courseData
	p.decode(t, &detail)
	assert.True(t, detail.IsEnrolled)
	assert.Equal(t, []string{alice.ID}, detail.Course.Students)

	enrs, err := app.EnrollmentRepo.QueryEnrollments(t.Context(), enrollment.QueryFilter{CourseID: c.ID})
	require.NoError(t, err)
	assert.Len(t, enrs, 1)
}

func TestCreateCourse(t *testing.T) {
	app := setup(t)
	app.createUser(t, "Bob", "bob@example.com", user.RoleInstructor)
	b := app.browser(t)
	b.signIn("bob@example.com")

	t.Run("form", func(t *testing.T) {
		p, rec := b.page("/create-course")
		require.Equal(t, http.StatusOK, rec.Code)
		var data struct {
			InstructorName string `json:"instructor_name"`
		}
		p.decode(t, &data)
		assert.Equal(t, "Bob", data.InstructorName)
	})

	t.Run("blank title", func(t *testing.T) {
		rec := b.post("/create-course", url.Values{"title": {"   "}})
		checkRedirect(t, b, rec, 0, "/create-course", note(session.LevelWarning, "title is required"))
	})

	t.Run("with image", func(t *testing.T) {
		rec := b.postFile("/create-course", url.Values{"title": {"Go Basics"}}, "image", "Cover Art.PNG", "img")
		checkRedirect(t, b, rec, 0, "/instructor/dashboard", note(session.LevelSuccess, "Course created successfully!"))

		c, err := app.Courses.GetBySlug(t.Context(), "go-basics")
		require.NoError(t, err)
		assert.Equal(t, "cover-art.png", c.Image)

		content, err := os.ReadFile(filepath.Join(app.Files.Dir(), c.Image))
		require.NoError(t, err)
		assert.Equal(t, "img", string(content))
	})

	t.Run("invalid image name", func(t *testing.T) {
		rec := b.postFile("/create-course", url.Values{"title": {"Other"}}, "image", "..", "img")
		checkRedirect(t, b, rec, 0, "/create-course", note(session.LevelWarning, "invalid file name"))
	})
}

func TestCourseGuards(t *testing.T) {
	app := setup(t)
	bob := app.createUser(t, "Bob", "bob@example.com", user.RoleInstructor)
	app.createUser(t, "Alice", "alice@example.com", user.RoleStudent)
	c := testutil.CreateCourse(t, app.CourseRepo, bob, "Intro")

	anonymous := app.browser(t)
	student := app.browser(t)
	student.signIn("alice@example.com")

	loginNote := note(session.LevelWarning, "You must be logged in to access this page.")
	forbiddenNote := note(session.LevelDanger, "You are not authorized to access this page.")

	anonymous.run(t, []httpTest{
		{name: "anonymous courses", path: "/courses", wantLoc: "/auth/login", wantNotes: []session.Notice{loginNote}},
		{name: "anonymous course", path: "/course/intro", wantLoc: "/auth/login", wantNotes: []session.Notice{loginNote}},
		{name: "anonymous create", path: "/create-course", wantLoc: "/auth/login", wantNotes: []session.Notice{loginNote}},
		{name: "anonymous enroll", method: http.MethodPost, path: "/enroll/intro", wantLoc: "/auth/login", wantNotes: []session.Notice{loginNote}},
		{name: "anonymous instructor dashboard", path: "/instructor/dashboard", wantLoc: "/auth/login", wantNotes: []session.Notice{loginNote}},
	})
	student.run(t, []httpTest{
		{name: "student create", path: "/create-course", wantLoc: "/", wantNotes: []session.Notice{forbiddenNote}},
		{name: "student create post", method: http.MethodPost, path: "/create-course", form: url.Values{"title": {"Hack"}}, wantLoc: "/", wantNotes: []session.Notice{forbiddenNote}},
		{name: "student roster", path: "/enrolled-students/" + c.ID, wantLoc: "/", wantNotes: []session.Notice{forbiddenNote}},
		{name: "student instructor dashboard", path: "/instructor/dashboard", wantLoc: "/", wantNotes: []session.Notice{forbiddenNote}},
	})

	courses, err := app.Courses.QueryAll(t.Context())
	require.NoError(t, err)
	assert.Len(t, courses, 1)
}

func TestListCourses(t *testing.T) {
	app := setup(t)
	bob := app.createUser(t, "Bob", "bob@example.com", user.RoleInstructor)
	alice := app.createUser(t, "Alice", "alice@example.com", user.RoleStudent)
	intro := testutil.CreateCourse(t, app.CourseRepo, bob, "Intro")
	testutil.CreateCourse(t, app.CourseRepo, bob, "Advanced", time.Now().Add(time.Minute))

	_, err := app.Enrollments.Enroll(t.Context(), alice.ID, intro.ID)
	require.NoError(t, err)

	t.Run("student", func(t *testing.T) {
		b := app.browser(t)
		b.signIn("alice@example.com")
		p, rec := b.page("/courses")
		require.Equal(t, http.StatusOK, rec.Code)

		var data coursesData
		p.decode(t, &data)
		require.Len(t, data.Courses, 2)
		assert.Equal(t, "Intro", data.Courses[0].Title)
		assert.Equal(t, []string{intro.ID}, data.EnrolledCourseIDs)
	})

	t.Run("instructor", func(t *testing.T) {
		b := app.browser(t)
		b.signIn("bob@example.com")
		p, _ := b.page("/courses")

		var data coursesData
		p.decode(t, &data)
		assert.Len(t, data.Courses, 2)
		assert.Empty(t, data.EnrolledCourseIDs)
	})
}

func TestCourseDetail_NotFound(t *testing.T) {
	app := setup(t)
	app.createUser(t, "Alice", "alice@example.com", user.RoleStudent)
	b := app.browser(t)
	b.signIn("alice@example.com")

	rec := b.get("/course/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Course not found"}`, rec.Body.String())
}

func TestRoster(t *testing.T) {
	app := setup(t)
	bob := app.createUser(t, "Bob", "bob@example.com", user.RoleInstructor)
	app.createUser(t, "Carol", "carol@example.com", user.RoleInstructor)
	alice := app.createUser(t, "Alice", "alice@example.com", user.RoleStudent)
	c := testutil.CreateCourse(t, app.CourseRepo, bob, "Intro")

	_, err := app.Enrollments.Enroll(t.Context(), alice.ID, c.ID)
	require.NoError(t, err)

	// any instructor may view a roster
	b := app.browser(t)
	b.signIn("carol@example.com")

	p, rec := b.page("/enrolled-students/" + c.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	var data struct {
		Course   course.Course            `json:"course"`
		Students []enrollment.RosterEntry `json:"students"`
	}
	p.decode(t, &data)
	assert.Equal(t, c.ID, data.Course.ID)
	require.Len(t, data.Students, 1)
	assert.Equal(t, "Alice Doe", data.Students[0].FullName)
	assert.Equal(t, alice.Email, data.Students[0].Email)

	rec = b.get("/enrolled-students/unknown")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

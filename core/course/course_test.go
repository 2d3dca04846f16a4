package course_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elearn/core"
	"github.com/trezcool/elearn/core/course"
	"github.com/trezcool/elearn/core/user"
	testutil "github.com/trezcool/elearn/tests"
)

func TestService_Create(t *testing.T) {
	env := testutil.NewEnv(t)
	bob := testutil.CreateUser(t, env.UserRepo, "Bob", "Marley", "bob@example.com", "secret1", user.RoleInstructor)
	nameless := testutil.CreateUser(t, env.UserRepo, "", "", "nameless@example.com", "secret1", user.RoleInstructor)

	tests := []struct {
		name           string
		instructorID   string
		data           course.NewCourse
		image          *core.Upload
		wantSlug       string
		wantInstructor string
		wantImage      string
		wantErr        error
		invalid        bool
	}{
		{name: "no title", instructorID: bob.ID, data: course.NewCourse{Title: "   "}, invalid: true},
		{name: "simple", instructorID: bob.ID, data: course.NewCourse{Title: " Intro ", Description: "Basics"}, wantSlug: "intro", wantInstructor: "Bob Marley", wantImage: course.DefaultImage},
		{name: "same title", instructorID: bob.ID, data: course.NewCourse{Title: "Intro"}, wantSlug: "intro", wantInstructor: "Bob Marley", wantImage: course.DefaultImage},
		{name: "punctuation", instructorID: bob.ID, data: course.NewCourse{Title: "Go: The Hard Parts!"}, wantSlug: "go-the-hard-parts", wantInstructor: "Bob Marley", wantImage: course.DefaultImage},
		{name: "no slug characters", instructorID: bob.ID, data: course.NewCourse{Title: "!!!"}, wantSlug: "course", wantInstructor: "Bob Marley", wantImage: course.DefaultImage},
		{name: "unknown instructor", instructorID: "ghost", data: course.NewCourse{Title: "Orphan"}, wantSlug: "orphan", wantInstructor: course.UnknownInstructor, wantImage: course.DefaultImage},
		{name: "nameless instructor", instructorID: nameless.ID, data: course.NewCourse{Title: "Quiet"}, wantSlug: "quiet", wantInstructor: course.UnknownInstructor, wantImage: course.DefaultImage},
		{
			name: "image", instructorID: bob.ID, data: course.NewCourse{Title: "Art"},
			image:    &core.Upload{Filename: "Cover.JPG", Body: strings.NewReader("img")},
			wantSlug: "art", wantInstructor: "Bob Marley", wantImage: "cover.jpg",
		},
		{
			name: "empty image filename", instructorID: bob.ID, data: course.NewCourse{Title: "Plain"},
			image:    &core.Upload{Filename: "", Body: strings.NewReader("")},
			wantSlug: "plain", wantInstructor: "Bob Marley", wantImage: course.DefaultImage,
		},
		{
			name: "invalid image filename", instructorID: bob.ID, data: course.NewCourse{Title: "Bad"},
			image:   &core.Upload{Filename: "..", Body: strings.NewReader("img")},
			wantErr: course.ErrInvalidFilename,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := env.Courses.Create(t.Context(), tt.instructorID, tt.data, tt.image)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.invalid:
				var vErr *core.ValidationError
				require.ErrorAs(t, err, &vErr)
				assert.Equal(t, []string{"title is required"}, vErr.Messages())
			default:
				require.NoError(t, err)
				assert.NotEmpty(t, c.ID)
				assert.Equal(t, tt.wantSlug, c.Slug)
				assert.Equal(t, tt.wantInstructor, c.InstructorName)
				assert.Equal(t, tt.instructorID, c.InstructorID)
				assert.Equal(t, tt.wantImage, c.Image)
				assert.NotNil(t, c.Students)
				assert.Empty(t, c.Students)
			}
		})
	}
}

func TestService_GetBySlug_Oldest(t *testing.T) {
	env := testutil.NewEnv(t)
	bob := testutil.CreateUser(t, env.UserRepo, "Bob", "Marley", "bob@example.com", "secret1", user.RoleInstructor)
	now := time.Now()
	newer := testutil.CreateCourse(t, env.CourseRepo, bob, "Intro", now)
	older := testutil.CreateCourse(t, env.CourseRepo, bob, "Intro", now.Add(-time.Hour))
	require.Equal(t, newer.Slug, older.Slug)

	got, err := env.Courses.GetBySlug(t.Context(), "intro")
	require.NoError(t, err)
	assert.Equal(t, older.ID, got.ID)

	_, err = env.Courses.GetBySlug(t.Context(), "")
	assert.ErrorIs(t, err, course.ErrNotFound)
	_, err = env.Courses.GetBySlug(t.Context(), "nope")
	assert.ErrorIs(t, err, course.ErrNotFound)
}

func TestService_Query(t *testing.T) {
	env := testutil.NewEnv(t)
	bob := testutil.CreateUser(t, env.UserRepo, "Bob", "Marley", "bob@example.com", "secret1", user.RoleInstructor)
	carol := testutil.CreateUser(t, env.UserRepo, "Carol", "King", "carol@example.com", "secret1", user.RoleInstructor)
	now := time.Now()
	c1 := testutil.CreateCourse(t, env.CourseRepo, bob, "One", now.Add(-2*time.Hour))
	c2 := testutil.CreateCourse(t, env.CourseRepo, carol, "Two", now.Add(-time.Hour))
	c3 := testutil.CreateCourse(t, env.CourseRepo, bob, "Three", now)

	ids := func(cs []course.Course) []string {
		res := make([]string, 0, len(cs))
		for _, c := range cs {
			res = append(res, c.ID)
		}
		return res
	}

	all, err := env.Courses.QueryAll(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{c1.ID, c2.ID, c3.ID}, ids(all))

	mine, err := env.Courses.QueryByInstructor(t.Context(), bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{c1.ID, c3.ID}, ids(mine))

	none, err := env.Courses.QueryByInstructor(t.Context(), "")
	require.NoError(t, err)
	assert.Empty(t, none)

	some, err := env.Courses.QueryByIDs(t.Context(), c3.ID, c2.ID, "ghost")
	require.NoError(t, err)
	assert.Equal(t, []string{c2.ID, c3.ID}, ids(some))

	got, err := env.Courses.GetByID(t.Context(), c2.ID)
	require.NoError(t, err)
	assert.Equal(t, "Two", got.Title)
}

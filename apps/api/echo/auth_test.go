package echoapi_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elearn/core/session"
	"github.com/trezcool/elearn/core/user"
)

var (
	resetLinkRe = regexp.MustCompile(`/reset-password/(\S+)`)
	longPwd     = strings.Repeat("a", user.PasswordMaxBytes+1)
	longPwdNote = note(session.LevelWarning, "Password must be at most 72 bytes long.")
)

func TestRegisterAndLogin(t *testing.T) {
	app := setup(t)
	b := app.browser(t)

	b.run(t, []httpTest{
		{
			name:      "password mismatch",
			method:    http.MethodPost,
			path:      "/auth/register",
			form:      registerForm("Alice", "Doe", "alice@example.com", pwd, "other1", "student"),
			wantLoc:   "/auth/register",
			wantNotes: []session.Notice{note(session.LevelWarning, "Passwords do not match.")},
		},
		{
			name:      "short password",
			method:    http.MethodPost,
			path:      "/auth/register",
			form:      registerForm("Alice", "Doe", "alice@example.com", "abc", "abc", "student"),
			wantLoc:   "/auth/register",
			wantNotes: []session.Notice{note(session.LevelWarning, "Password must be at least 6 characters long.")},
		},
		{
			name:      "password too long",
			method:    http.MethodPost,
			path:      "/auth/register",
			form:      registerForm("Alice", "Doe", "alice@example.com", longPwd, longPwd, "student"),
			wantLoc:   "/auth/register",
			wantNotes: []session.Notice{longPwdNote},
		},
		{
			name:      "invalid role",
			method:    http.MethodPost,
			path:      "/auth/register",
			form:      registerForm("Alice", "Doe", "alice@example.com", pwd, pwd, "admin"),
			wantLoc:   "/auth/register",
			wantNotes: []session.Notice{note(session.LevelWarning, "invalid role")},
		},
		{
			name:      "success",
			method:    http.MethodPost,
			path:      "/auth/register",
			form:      registerForm("Alice", "Doe", " Alice@Example.com ", pwd, pwd, "student"),
			wantLoc:   "/auth/login",
			wantNotes: []session.Notice{note(session.LevelSuccess, "Registration successful. Please login.")},
		},
		{
			name:      "email taken",
			method:    http.MethodPost,
			path:      "/auth/register",
			form:      registerForm("Alice", "Again", "alice@example.com", pwd, pwd, "instructor"),
			wantLoc:   "/auth/register",
			wantNotes: []session.Notice{note(session.LevelWarning, "User already exists")},
		},
	})

	usrs, err := app.UserRepo.QueryUsers(t.Context(), user.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, usrs, 1)
	assert.Equal(t, "alice@example.com", usrs[0].Email)
	assert.Equal(t, user.RoleStudent, usrs[0].Role)

	rec := b.login("alice@example.com", pwd)
	checkRedirect(t, b, rec, 0, "/student/dashboard", note(session.LevelSuccess, "Login successful!"))

	p, _ := b.page("/student/dashboard")
	require.NotNil(t, p.Identity)
	assert.Equal(t, session.Identity{
		UserID: usrs[0].ID,
		Role:   user.RoleStudent,
		Name:   "Alice",
		Avatar: session.DefaultAvatar,
	}, *p.Identity)
}

func TestRegister_DefaultsToStudent(t *testing.T) {
	app := setup(t)
	b := app.browser(t)

	rec := b.post("/auth/register", registerForm("Bob", "Doe", "bob@example.com", pwd, pwd, ""))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	usr, err := app.Users.GetByEmail(t.Context(), "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.RoleStudent, usr.Role)
}

func TestLogin(t *testing.T) {
	app := setup(t)
	app.createUser(t, "Alice", "alice@example.com", user.RoleStudent)
	app.createUser(t, "Bob", "bob@example.com", user.RoleInstructor)

	tests := []struct {
		name      string
		email     string
		password  string
		wantLoc   string
		wantNote  session.Notice
		wantLogin bool
	}{
		{"wrong password", "alice@example.com", "wrong!", "/auth/login", note(session.LevelDanger, "Invalid credentials"), false},
		{"unknown email", "nobody@example.com", pwd, "/auth/login", note(session.LevelDanger, "Invalid credentials"), false},
		{"student", "alice@example.com", pwd, "/student/dashboard", note(session.LevelSuccess, "Login successful!"), true},
		{"instructor", " BOB@example.com", pwd, "/instructor/dashboard", note(session.LevelSuccess, "Login successful!"), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := app.browser(t)
			checkRedirect(t, b, b.login(tc.email, tc.password), 0, tc.wantLoc, tc.wantNote)

			p, _ := b.page("/")
			if tc.wantLogin {
				assert.NotNil(t, p.Identity)
			} else {
				assert.Nil(t, p.Identity)
			}
		})
	}
}

func TestLogin_WrongPasswordCreatesNoSession(t *testing.T) {
	app := setup(t)
	app.createUser(t, "Alice", "alice@example.com", user.RoleStudent)
	b := app.browser(t)

	checkRedirect(t, b, b.login("alice@example.com", "wrong!"), 0, "/auth/login", note(session.LevelDanger, "Invalid credentials"))

	checkRedirect(t, b, b.get("/student/dashboard"), 0, "/auth/login",
		note(session.LevelWarning, "You must be logged in to access this page."))
}

func TestLogin_RenewsSessionCookie(t *testing.T) {
	app := setup(t)
	app.createUser(t, "Alice", "alice@example.com", user.RoleStudent)
	b := app.browser(t)

	// a notice makes the anonymous session persistent
	b.login("alice@example.com", "wrong!")
	before := b.jar.Cookies(baseURL)
	require.Len(t, before, 1)

	b.login("alice@example.com", pwd)
	after := b.jar.Cookies(baseURL)
	require.Len(t, after, 1)
	assert.Equal(t, app.Conf.Server.SessionCookieName, after[0].Name)
	assert.NotEqual(t, before[0].Value, after[0].Value)
}

func TestLogin_BrowserSessionCookie(t *testing.T) {
	app := setup(t)
	app.createUser(t, "Alice", "alice@example.com", user.RoleStudent)
	b := app.browser(t)

	rec := b.login("alice@example.com", pwd)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	ck := cookies[0]
	assert.Equal(t, app.Conf.Server.SessionCookieName, ck.Name)
	assert.NotEmpty(t, ck.Value)
	assert.Zero(t, ck.MaxAge)
	assert.True(t, ck.Expires.IsZero())
	assert.True(t, ck.HttpOnly)
}

func TestLogout(t *testing.T) {
	app := setup(t)
	app.createUser(t, "Alice", "alice@example.com", user.RoleStudent)

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		t.Run(method, func(t *testing.T) {
			b := app.browser(t)
			b.login("alice@example.com", pwd)

			var rec *httptest.ResponseRecorder
			if method == http.MethodPost {
				rec = b.post("/auth/logout", nil)
			} else {
				rec = b.get("/auth/logout")
			}
			checkRedirect(t, b, rec, 0, "/", note(session.LevelInfo, "You've been logged out."))

			p, _ := b.page("/")
			assert.Nil(t, p.Identity)
			checkRedirect(t, b, b.get("/profile"), 0, "/auth/login",
				note(session.LevelWarning, "You must be logged in to access this page."))
		})
	}
}

func TestPasswordReset(t *testing.T) {
	app := setup(t)
	usr := app.createUser(t, "Alice", "alice@example.com", user.RoleStudent)
	b := app.browser(t)

	t.Run("unknown email", func(t *testing.T) {
		rec := b.post("/forgot-password", url.Values{"email": {"nobody@example.com"}})
		checkRedirect(t, b, rec, 0, "/forgot-password", note(session.LevelDanger, "Email not found."))
		assert.Empty(t, app.Mail.SentMessages())
	})

	requestToken := func(t *testing.T) string {
		rec := b.post("/forgot-password", url.Values{"email": {"Alice@example.com"}})
		checkRedirect(t, b, rec, 0, "/forgot-password", note(session.LevelInfo, "Password reset link sent. Check your email."))

		msg, ok := app.Mail.Last()
		require.True(t, ok)
		require.Len(t, msg.To, 1)
		assert.Equal(t, usr.Email, msg.To[0].Address)
		m := resetLinkRe.FindStringSubmatch(msg.TextContent)
		require.Len(t, m, 2, msg.TextContent)
		return m[1]
	}

	t.Run("expired token", func(t *testing.T) {
		token := requestToken(t)

		user.NowFunc = func() time.Time { return time.Now().Add(3601 * time.Second) }
		defer func() { user.NowFunc = time.Now }()

		checkRedirect(t, b, b.get("/reset-password/"+token), 0, "/forgot-password",
			note(session.LevelDanger, "The reset link has expired."))
		rec := b.post("/reset-password/"+token, url.Values{"password": {"newpwd1"}, "confirm_password": {"newpwd1"}})
		checkRedirect(t, b, rec, 0, "/forgot-password", note(session.LevelDanger, "The reset link has expired."))
	})

	t.Run("broken token", func(t *testing.T) {
		checkRedirect(t, b, b.get("/reset-password/not-a-token"), 0, "/forgot-password",
			note(session.LevelDanger, "Invalid or broken reset link."))
	})

	t.Run("password mismatch", func(t *testing.T) {
		token := requestToken(t)
		rec := b.post("/reset-password/"+token, url.Values{"password": {"newpwd1"}, "confirm_password": {"newpwd2"}})
		checkRedirect(t, b, rec, 0, "/reset-password/"+token, note(session.LevelWarning, "Passwords do not match."))
	})

	t.Run("password too long", func(t *testing.T) {
		token := requestToken(t)
		rec := b.post("/reset-password/"+token, url.Values{"password": {longPwd}, "confirm_password": {longPwd}})
		checkRedirect(t, b, rec, 0, "/reset-password/"+token, longPwdNote)
	})

	t.Run("fresh token", func(t *testing.T) {
		token := requestToken(t)

		p, rec := b.page("/reset-password/" + token)
		require.Equal(t, http.StatusOK, rec.Code)
		var data struct{ Token string }
		p.decode(t, &data)
		assert.Equal(t, token, data.Token)

		rec = b.post("/reset-password/"+token, url.Values{"password": {"newpwd1"}, "confirm_password": {"newpwd1"}})
		checkRedirect(t, b, rec, 0, "/auth/login", note(session.LevelSuccess, "Password reset successful. Please log in."))

		checkRedirect(t, b, b.login(usr.Email, pwd), 0, "/auth/login", note(session.LevelDanger, "Invalid credentials"))
		checkRedirect(t, b, b.login(usr.Email, "newpwd1"), 0, "/student/dashboard", note(session.LevelSuccess, "Login successful!"))
	})
}

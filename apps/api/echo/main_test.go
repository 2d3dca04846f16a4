package echoapi_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/elearn/apps/api/echo"
	"github.com/trezcool/elearn/core"
	"github.com/trezcool/elearn/core/session"
	"github.com/trezcool/elearn/core/user"
	logsvc "github.com/trezcool/elearn/services/logger"
	"github.com/trezcool/elearn/storage/sessions"
	testutil "github.com/trezcool/elearn/tests"
)

const pwd = "secret1"

var baseURL, _ = url.Parse("http://example.com")

type testApp struct {
	*testutil.Env
	server *Server
}

func setup(t *testing.T) *testApp {
	t.Helper()
	env := testutil.NewEnv(t)
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), env.Conf)

	server := NewServer(ServerDeps{
		Conf:          env.Conf,
		Logger:        logger,
		Sessions:      session.NewManager(sessions.NewMemoryStore(), env.Conf),
		UserSvc:       env.Users,
		CourseSvc:     env.Courses,
		EnrollmentSvc: env.Enrollments,
		Files:         env.Files,
		Validate:      env.Validate,
		Translator:    core.NewTranslator(),
	})
	return &testApp{Env: env, server: server}
}

// browser sends requests to the app, keeping cookies between them like a web browser.
type browser struct {
	t   *testing.T
	app *testApp
	jar *cookiejar.Jar
}

func (app *testApp) browser(t *testing.T) *browser {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &browser{t: t, app: app, jar: jar}
}

func (b *browser) send(req *http.Request) *httptest.ResponseRecorder {
	for _, ck := range b.jar.Cookies(baseURL) {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	b.app.server.ServeHTTP(rec, req)
	b.jar.SetCookies(baseURL, rec.Result().Cookies())
	return rec
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.send(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.send(req)
}

// postFile sends form as multipart data; an empty filename sends no file part.
func (b *browser) postFile(path string, form url.Values, field, filename, content string) *httptest.ResponseRecorder {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, vals := range form {
		for _, v := range vals {
			require.NoError(b.t, w.WriteField(k, v))
		}
	}
	if filename != "" {
		fw, err := w.CreateFormFile(field, filename)
		require.NoError(b.t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(b.t, err)
	}
	require.NoError(b.t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return b.send(req)
}

// page follows a GET endpoint and decodes its view-model.
func (b *browser) page(path string) (testPage, *httptest.ResponseRecorder) {
	rec := b.get(path)
	var p testPage
	if rec.Code == http.StatusOK {
		require.NoError(b.t, json.Unmarshal(rec.Body.Bytes(), &p), rec.Body.String())
	}
	return p, rec
}

func (b *browser) login(email, password string) *httptest.ResponseRecorder {
	return b.post("/auth/login", url.Values{"email": {email}, "password": {password}})
}

// signIn logs in with the default test password and lands on the dashboard, consuming the login notice.
func (b *browser) signIn(email string) {
	rec := b.login(email, pwd)
	require.Equal(b.t, http.StatusSeeOther, rec.Code)
	loc := rec.Header().Get(echoLocation)
	require.NotEqual(b.t, loginPath, loc, "login failed for %s", email)
	b.get(loc)
}

type testPage struct {
	Identity *session.Identity `json:"identity"`
	Notices  []session.Notice  `json:"notices"`
	Data     json.RawMessage   `json:"data"`
}

func (p testPage) decode(t *testing.T, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(p.Data, v))
}

type httpTest struct {
	name      string
	method    string
	path      string
	form      url.Values
	wantCode  int
	wantLoc   string
	wantNotes []session.Notice
}

// run sends each test request with b, then checks the redirect and the notices shown on the next page.
func (b *browser) run(t *testing.T, tests []httpTest) {
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var rec *httptest.ResponseRecorder
			if tc.method == http.MethodPost {
				rec = b.post(tc.path, tc.form)
			} else {
				rec = b.get(tc.path)
			}
			checkRedirect(t, b, rec, tc.wantCode, tc.wantLoc, tc.wantNotes...)
		})
	}
}

func checkRedirect(t *testing.T, b *browser, rec *httptest.ResponseRecorder, code int, loc string, notices ...session.Notice) {
	t.Helper()
	if code == 0 {
		code = http.StatusSeeOther
	}
	require.Equal(t, code, rec.Code, rec.Body.String())
	if loc == "" {
		return
	}
	assert.Equal(t, loc, rec.Header().Get(echoLocation))

	p, prec := b.page(loc)
	if prec.Code != http.StatusOK {
		return // redirected again
	}
	if notices == nil {
		notices = []session.Notice{}
	}
	assert.Equal(t, notices, p.Notices)
}

const (
	echoLocation = "Location"
	loginPath    = "/auth/login"
)

func note(level, msg string) session.Notice { return session.Notice{Level: level, Message: msg} }

func registerForm(first, last, email, password, confirm, role string) url.Values {
	return url.Values{
		"first_name":       {first},
		"last_name":        {last},
		"email":            {email},
		"password":         {password},
		"confirm_password": {confirm},
		"role":             {role},
	}
}

func (app *testApp) createUser(t *testing.T, first, email, role string) user.User {
	return testutil.CreateUser(t, app.UserRepo, first, "Doe", email, pwd, role)
}

package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elearn/core/session"
)

const sessionCtxKey = "session"

// page is the view-model of every GET endpoint.
type page struct {
	Identity *session.Identity `json:"identity"`
	Notices  []session.Notice  `json:"notices"`
	Data     interface{}       `json:"data"`
}

// sessionMiddleware loads the session of the request cookie and saves it right before the
// response is written, so that notices added by the error handler are kept too.
func (s *Server) sessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		var sid string
		if ck, err := ctx.Cookie(s.deps.Conf.Server.SessionCookieName); err == nil {
			sid = ck.Value
		}

		sess, err := s.deps.Sessions.Load(ctx.Request().Context(), sid)
		if err != nil {
			return errors.Wrap(err, "loading session")
		}
		ctx.Set(sessionCtxKey, sess)

		ctx.Response().Before(func() { s.saveSession(ctx, sess, sid) })
		return next(ctx)
	}
}

func (s *Server) saveSession(ctx echo.Context, sess *session.Session, sid string) {
	mgr := s.deps.Sessions
	if err := mgr.Save(ctx.Request().Context(), sess); err != nil {
		idt, _ := sess.CurrentIdentity()
		s.deps.Logger.Error(fmt.Sprintf("saving session: %v", err), err, idt)
		return
	}

	conf := s.deps.Conf
	ck := &http.Cookie{
		Name:     conf.Server.SessionCookieName,
		Path:     "/",
		HttpOnly: true,
		Secure:   !(conf.Debug || conf.TestMode),
		SameSite: http.SameSiteLaxMode,
	}
	switch {
	case mgr.Persisted(sess):
		if sess.ID == sid {
			return
		}
		// browser-session cookie; the Store enforces the TTL
		ck.Value = sess.ID
	case sid != "":
		ck.MaxAge = -1
	default:
		return
	}
	ctx.SetCookie(ck)
}

// getSession returns the request session; never nil.
func getSession(ctx echo.Context) *session.Session {
	if sess, ok := ctx.Get(sessionCtxKey).(*session.Session); ok {
		return sess
	}
	return new(session.Session)
}

func currentIdentity(ctx echo.Context) session.Identity {
	idt, _ := getSession(ctx).CurrentIdentity()
	return idt
}

// render responds with the page view-model, consuming the pending notices.
func render(ctx echo.Context, data interface{}) error {
	sess := getSession(ctx)
	var idt *session.Identity
	if i, ok := sess.CurrentIdentity(); ok {
		idt = &i
	}
	return ctx.JSON(http.StatusOK, page{Identity: idt, Notices: sess.PopNotices(), Data: data})
}

// redirect queues notices for the next page and redirects (303) to path.
func redirect(ctx echo.Context, path string, notices ...session.Notice) error {
	sess := getSession(ctx)
	for _, n := range notices {
		sess.AddNotice(n.Level, n.Message)
	}
	return ctx.Redirect(http.StatusSeeOther, path)
}

func success(msg string) session.Notice { return session.Notice{Level: session.LevelSuccess, Message: msg} }
func info(msg string) session.Notice    { return session.Notice{Level: session.LevelInfo, Message: msg} }
func warning(msg string) session.Notice { return session.Notice{Level: session.LevelWarning, Message: msg} }
func danger(msg string) session.Notice  { return session.Notice{Level: session.LevelDanger, Message: msg} }

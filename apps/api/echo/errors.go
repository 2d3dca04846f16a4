package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elearn/core"
	"github.com/trezcool/elearn/core/course"
	"github.com/trezcool/elearn/core/session"
)

var (
	errCourseNotFound = echo.NewHTTPError(http.StatusNotFound, "Course not found")
	errUserExists     = "User already exists"
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// Form errors on POST requests become warning notices and a redirect back to the form.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		if ctx.Response().Committed {
			return
		}
		isPost := ctx.Request().Method == http.MethodPost

		var (
			code    int
			message interface{}
			vErr    *core.ValidationError
			httpErr *echo.HTTPError
		)
		switch {
		case errors.Is(err, session.ErrUnauthorized):
			err = redirect(ctx, loginPath, warning(loginRequiredMsg))
			logIfFailed(ctx, err)
			return

		case errors.Is(err, session.ErrForbidden):
			err = redirect(ctx, homePath, danger(forbiddenMsg))
			logIfFailed(ctx, err)
			return

		case errors.As(err, &vErr):
			if isPost {
				notices := make([]session.Notice, 0, len(vErr.Fields))
				for _, msg := range vErr.Messages() {
					notices = append(notices, warning(msg))
				}
				err = redirect(ctx, ctx.Request().URL.Path, notices...)
				logIfFailed(ctx, err)
				return
			}
			code = http.StatusBadRequest
			message = vErr.Messages()

		case errors.Is(err, course.ErrNotFound):
			code = errCourseNotFound.Code
			message = errCourseNotFound.Message

		case errors.As(err, &httpErr):
			if herr, ok := httpErr.Internal.(*echo.HTTPError); ok {
				httpErr = herr
			}
			code = httpErr.Code
			message = httpErr.Message

		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			logger.Error(msg, errors.Wrap(err, msg), currentIdentity(ctx))

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if ctx.Request().Method == http.MethodHead { // Issue #608
			err = ctx.NoContent(code)
		} else {
			err = ctx.JSON(code, message)
		}
		logIfFailed(ctx, err)
	}
}

func logIfFailed(ctx echo.Context, err error) {
	if err != nil {
		ctx.Echo().Logger.Error(err)
	}
}

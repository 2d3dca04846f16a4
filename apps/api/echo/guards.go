package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/trezcool/elearn/core/session"
)

const (
	loginPath = "/auth/login"
	homePath  = "/"

	loginRequiredMsg = "You must be logged in to access this page."
	forbiddenMsg     = "You are not authorized to access this page."
)

// requireAuthenticated lets logged in visitors through; others are sent to the login page.
func requireAuthenticated(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if err := session.Authorize(getSession(ctx), ""); err != nil {
			return redirect(ctx, loginPath, warning(loginRequiredMsg))
		}
		return next(ctx)
	}
}

// requireRole lets visitors logged in with role through. Anonymous visitors are sent to
// the login page, other roles to the home page.
func requireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			switch err := session.Authorize(getSession(ctx), role); err {
			case nil:
				return next(ctx)
			case session.ErrUnauthorized:
				return redirect(ctx, loginPath, warning(loginRequiredMsg))
			default:
				return redirect(ctx, homePath, danger(forbiddenMsg))
			}
		}
	}
}

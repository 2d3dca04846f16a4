package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elearn/core/user"
)

const forgotPasswordPath = "/forgot-password"

type (
	loginForm struct {
		Email    string `form:"email"`
		Password string `form:"password"`
	}

	forgotPasswordForm struct {
		Email string `form:"email"`
	}

	resetPasswordForm struct {
		Password        string `form:"password"`
		PasswordConfirm string `form:"confirm_password"`
	}
)

type authApi struct {
	svc *user.Service
}

func registerAuth(g *echo.Group, deps ServerDeps) {
	api := authApi{svc: deps.UserSvc}

	ag := g.Group("/auth")
	ag.GET("/register", api.registerForm)
	ag.POST("/register", api.register)
	ag.GET("/login", api.loginForm)
	ag.POST("/login", api.login)
	ag.GET("/logout", api.logout)
	ag.POST("/logout", api.logout)

	// TODO: rate limit `/forgot-password` & `/reset-password`
	g.GET(forgotPasswordPath, api.forgotPasswordForm)
	g.POST(forgotPasswordPath, api.forgotPassword)
	g.GET("/reset-password/:token", api.resetPasswordForm)
	g.POST("/reset-password/:token", api.resetPassword)
}

// dashboardPath is where users land after login.
func dashboardPath(role string) string {
	switch role {
	case user.RoleStudent:
		return "/student/dashboard"
	case user.RoleInstructor:
		return "/instructor/dashboard"
	default:
		return homePath
	}
}

// Handlers

func (api *authApi) registerForm(ctx echo.Context) error {
	return render(ctx, echo.Map{"roles": user.AllRoles})
}

func (api *authApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}

	if _, err := api.svc.Register(ctx.Request().Context(), data); err != nil {
		if errors.Is(err, user.ErrEmailExists) {
			return redirect(ctx, "/auth/register", warning(errUserExists))
		}
		return err
	}
	return redirect(ctx, loginPath, success("Registration successful. Please login."))
}

func (api *authApi) loginForm(ctx echo.Context) error {
	return render(ctx, nil)
}

func (api *authApi) login(ctx echo.Context) error {
	var data loginForm
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to loginForm")
	}

	usr, err := api.svc.Authenticate(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			return redirect(ctx, loginPath, danger("Invalid credentials"))
		}
		return errors.Wrap(err, "authenticating")
	}

	getSession(ctx).Start(usr)
	return redirect(ctx, dashboardPath(usr.Role), success("Login successful!"))
}

func (api *authApi) logout(ctx echo.Context) error {
	getSession(ctx).End()
	return redirect(ctx, homePath, info("You've been logged out."))
}

func (api *authApi) forgotPasswordForm(ctx echo.Context) error {
	return render(ctx, nil)
}

func (api *authApi) forgotPassword(ctx echo.Context) error {
	var data forgotPasswordForm
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to forgotPasswordForm")
	}

	if err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Email); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return redirect(ctx, forgotPasswordPath, danger("Email not found."))
		}
		return errors.Wrap(err, "requesting password reset")
	}
	return redirect(ctx, forgotPasswordPath, info("Password reset link sent. Check your email."))
}

// tokenErrorRedirect sends visitors holding an unusable reset token back to the forgot password page.
func tokenErrorRedirect(ctx echo.Context, err error) (bool, error) {
	switch {
	case errors.Is(err, user.ErrTokenExpired):
		return true, redirect(ctx, forgotPasswordPath, danger("The reset link has expired."))
	case errors.Is(err, user.ErrTokenInvalid):
		return true, redirect(ctx, forgotPasswordPath, danger("Invalid or broken reset link."))
	default:
		return false, err
	}
}

func (api *authApi) resetPasswordForm(ctx echo.Context) error {
	token := ctx.Param("token")
	if _, err := api.svc.VerifyResetToken(ctx.Request().Context(), token); err != nil {
		if handled, rErr := tokenErrorRedirect(ctx, err); handled {
			return rErr
		}
		return errors.Wrap(err, "verifying reset token")
	}
	return render(ctx, echo.Map{"token": token})
}

func (api *authApi) resetPassword(ctx echo.Context) error {
	var data resetPasswordForm
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to resetPasswordForm")
	}

	_, err := api.svc.ResetPassword(ctx.Request().Context(), user.ResetPassword{
		Token:           ctx.Param("token"),
		Password:        data.Password,
		PasswordConfirm: data.PasswordConfirm,
	})
	if err != nil {
		if handled, rErr := tokenErrorRedirect(ctx, err); handled {
			return rErr
		}
		return err // validation errors go back to the form
	}
	return redirect(ctx, loginPath, success("Password reset successful. Please log in."))
}

package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elearn/core/session"
	"github.com/trezcool/elearn/core/user"
)

const profilePath = "/profile"

type profileApi struct {
	svc *user.Service
}

func registerProfile(g *echo.Group, deps ServerDeps) {
	api := profileApi{svc: deps.UserSvc}

	pg := g.Group("", requireAuthenticated)
	pg.GET(profilePath, api.profile)
	pg.GET("/profile/edit", api.editForm)
	pg.POST("/profile/edit", api.edit)
	pg.POST("/upload-profile-picture", api.uploadPicture)
}

// currentUser returns the logged in User. A deleted account is sent back to the login page.
func (api *profileApi) currentUser(ctx echo.Context) (user.User, bool, error) {
	usr, err := api.svc.GetByID(ctx.Request().Context(), currentIdentity(ctx).UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, false, redirect(ctx, loginPath)
		}
		return user.User{}, false, errors.Wrap(err, "finding current user")
	}
	return usr, true, nil
}

// Handlers

func (api *profileApi) profile(ctx echo.Context) error {
	usr, ok, err := api.currentUser(ctx)
	if !ok {
		return err
	}
	return render(ctx, echo.Map{"user": usr})
}

func (api *profileApi) editForm(ctx echo.Context) error {
	usr, ok, err := api.currentUser(ctx)
	if !ok {
		return err
	}
	return render(ctx, echo.Map{"user": usr})
}

func (api *profileApi) edit(ctx echo.Context) error {
	var data user.UpdateUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}

	usr, err := api.svc.UpdateProfile(ctx.Request().Context(), currentIdentity(ctx).UserID, data)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrNotFound):
			return redirect(ctx, loginPath)
		case errors.Is(err, user.ErrEmailExists):
			return redirect(ctx, "/profile/edit", warning(errUserExists))
		}
		return err
	}

	if err = getSession(ctx).RefreshField(session.FieldName, usr.FirstName); err != nil {
		return errors.Wrap(err, "refreshing session name")
	}
	return redirect(ctx, profilePath, success("Profile updated successfully"))
}

func (api *profileApi) uploadPicture(ctx echo.Context) error {
	fh, err := ctx.FormFile("profile_pic")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return redirect(ctx, profilePath, danger("No file selected."))
		}
		return errors.Wrap(err, "reading profile_pic")
	}
	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening profile_pic")
	}
	defer f.Close()

	usr, err := api.svc.SetAvatar(ctx.Request().Context(), currentIdentity(ctx).UserID, fh.Filename, f)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrInvalidFilename):
			return redirect(ctx, profilePath, danger("Invalid file name."))
		case errors.Is(err, user.ErrNotFound):
			return redirect(ctx, loginPath)
		}
		return errors.Wrap(err, "setting avatar")
	}

	if err = getSession(ctx).RefreshField(session.FieldAvatar, usr.Avatar); err != nil {
		return errors.Wrap(err, "refreshing session avatar")
	}
	return redirect(ctx, profilePath, success("Profile picture updated successfully!"))
}

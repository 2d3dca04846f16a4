package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elearn/core"
	"github.com/trezcool/elearn/core/course"
	"github.com/trezcool/elearn/core/enrollment"
	"github.com/trezcool/elearn/core/user"
)

type courseApi struct {
	svc           *course.Service
	enrollmentSvc *enrollment.Service
}

func registerCourses(g *echo.Group, deps ServerDeps) {
	api := courseApi{svc: deps.CourseSvc, enrollmentSvc: deps.EnrollmentSvc}
	instructor := requireRole(user.RoleInstructor)

	cg := g.Group("", requireAuthenticated)
	cg.GET("/courses", api.list)
	cg.GET("/course/:slug", api.retrieve)

	g.GET("/create-course", api.createForm, instructor)
	g.POST("/create-course", api.create, instructor)
	g.GET("/enrolled-students/:course_id", api.roster, instructor)
}

// Handlers

func (api *courseApi) list(ctx echo.Context) error {
	rctx := ctx.Request().Context()
	courses, err := api.svc.QueryAll(rctx)
	if err != nil {
		return errors.Wrap(err, "listing courses")
	}

	enrolledIDs := make([]string, 0)
	if idt := currentIdentity(ctx); idt.Role == user.RoleStudent {
		if enrolledIDs, err = api.enrollmentSvc.EnrolledCourseIDs(rctx, idt.UserID); err != nil {
			return errors.Wrap(err, "listing enrolled courses")
		}
	}
	return render(ctx, echo.Map{"courses": courses, "enrolled_course_ids": enrolledIDs})
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	rctx := ctx.Request().Context()
	c, err := api.svc.GetBySlug(rctx, ctx.Param("slug"))
	if err != nil {
		return err // 404 on course.ErrNotFound
	}

	enrolled, err := api.enrollmentSvc.IsEnrolled(rctx, currentIdentity(ctx).UserID, c.ID)
	if err != nil {
		return errors.Wrap(err, "checking enrollment")
	}
	return render(ctx, echo.Map{"course": c, "is_enrolled": enrolled})
}

func (api *courseApi) createForm(ctx echo.Context) error {
	return render(ctx, echo.Map{"instructor_name": currentIdentity(ctx).Name})
}

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}

	var image *core.Upload
	fh, err := ctx.FormFile("image")
	switch {
	case err == nil:
		f, oErr := fh.Open()
		if oErr != nil {
			return errors.Wrap(oErr, "opening image")
		}
		defer f.Close()
		image = &core.Upload{Filename: fh.Filename, Body: f}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		return errors.Wrap(err, "reading image")
	}

	if _, err = api.svc.Create(ctx.Request().Context(), currentIdentity(ctx).UserID, data, image); err != nil {
		return err
	}
	return redirect(ctx, "/instructor/dashboard", success("Course created successfully!"))
}

func (api *courseApi) roster(ctx echo.Context) error {
	c, students, err := api.enrollmentSvc.Roster(ctx.Request().Context(), ctx.Param("course_id"))
	if err != nil {
		return err // 404 on course.ErrNotFound
	}
	return render(ctx, echo.Map{"course": c, "students": students})
}

package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elearn/core/course"
	"github.com/trezcool/elearn/core/enrollment"
)

const (
	coursesPath   = "/courses"
	myCoursesPath = "/my-courses"
)

type enrollmentApi struct {
	svc *enrollment.Service
}

func registerEnrollments(g *echo.Group, deps ServerDeps) {
	api := enrollmentApi{svc: deps.EnrollmentSvc}

	eg := g.Group("", requireAuthenticated)
	eg.POST("/enroll/:slug", api.enroll)
	eg.GET("/study/:slug", api.study)
	eg.POST("/complete/:slug", api.complete)
	eg.GET(myCoursesPath, api.myCourses)
}

// Handlers

func (api *enrollmentApi) enroll(ctx echo.Context) error {
	slug := ctx.Param("slug")
	_, outcome, err := api.svc.EnrollBySlug(ctx.Request().Context(), currentIdentity(ctx).UserID, slug)
	if err != nil {
		if errors.Is(err, course.ErrNotFound) {
			return redirect(ctx, coursesPath, danger("Course not found."))
		}
		return errors.Wrap(err, "enrolling")
	}

	notice := success("Enrolled successfully!")
	if outcome == enrollment.AlreadyEnrolled {
		notice = info("You are already enrolled.")
	}
	return redirect(ctx, "/course/"+slug, notice)
}

func (api *enrollmentApi) study(ctx echo.Context) error {
	c, enr, err := api.svc.Study(ctx.Request().Context(), currentIdentity(ctx).UserID, ctx.Param("slug"))
	if err != nil {
		if errors.Is(err, enrollment.ErrNotFound) {
			return redirect(ctx, myCoursesPath, warning("You must enroll in the course to study it."))
		}
		return err // 404 on course.ErrNotFound
	}
	return render(ctx, echo.Map{"course": c, "enrollment": enr})
}

func (api *enrollmentApi) complete(ctx echo.Context) error {
	slug := ctx.Param("slug")
	_, err := api.svc.MarkCompleteBySlug(ctx.Request().Context(), currentIdentity(ctx).UserID, slug)
	if err != nil {
		switch {
		case errors.Is(err, course.ErrNotFound):
			return redirect(ctx, coursesPath, danger("Course not found."))
		case errors.Is(err, enrollment.ErrNotFound):
			return redirect(ctx, coursesPath)
		}
		return errors.Wrap(err, "completing course")
	}
	return redirect(ctx, "/study/"+slug, success("Congratulations! You have completed the course."))
}

func (api *enrollmentApi) myCourses(ctx echo.Context) error {
	courses, err := api.svc.MyCourses(ctx.Request().Context(), currentIdentity(ctx).UserID)
	if err != nil {
		return errors.Wrap(err, "listing my courses")
	}
	return render(ctx, echo.Map{"courses": courses})
}

package echoapi

import (
	"fmt"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elearn/core"
	"github.com/trezcool/elearn/core/course"
	"github.com/trezcool/elearn/core/enrollment"
	"github.com/trezcool/elearn/core/user"
)

type contactForm struct {
	Name    string `form:"name" validate:"required,notblank"`
	Email   string `form:"email" validate:"required,email"`
	Message string `form:"message" validate:"required,notblank"`
}

type pagesApi struct {
	conf          *core.Config
	logger        core.Logger
	courseSvc     *course.Service
	enrollmentSvc *enrollment.Service
	validate      *validator.Validate
	translator    ut.Translator
}

func registerPages(g *echo.Group, deps ServerDeps) {
	api := pagesApi{
		conf:          deps.Conf,
		logger:        deps.Logger,
		courseSvc:     deps.CourseSvc,
		enrollmentSvc: deps.EnrollmentSvc,
		validate:      deps.Validate,
		translator:    deps.Translator,
	}

	g.GET("/", api.home)
	g.GET("/about", api.about)
	g.GET("/contact", api.contactForm)
	g.POST("/contact", api.contact)

	g.GET("/student/dashboard", api.studentDashboard, requireRole(user.RoleStudent))
	g.GET("/instructor/dashboard", api.instructorDashboard, requireRole(user.RoleInstructor))
}

// Handlers

func (api *pagesApi) home(ctx echo.Context) error {
	return render(ctx, echo.Map{"app_name": api.conf.AppName})
}

func (api *pagesApi) about(ctx echo.Context) error {
	return render(ctx, echo.Map{"app_name": api.conf.AppName, "build": api.conf.Build})
}

func (api *pagesApi) contactForm(ctx echo.Context) error {
	return render(ctx, nil)
}

func (api *pagesApi) contact(ctx echo.Context) error {
	var data contactForm
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to contactForm")
	}
	data.Name = core.CleanString(data.Name)
	data.Email = core.CleanString(data.Email, true /* lower */)
	if err := core.Translate(api.validate.Struct(data), api.translator); err != nil {
		return err
	}

	api.logger.Info(fmt.Sprintf("Message from %s (%s): %s", data.Name, data.Email, data.Message))
	return redirect(ctx, "/contact", success("Thanks for reaching out! We'll get back to you shortly."))
}

func (api *pagesApi) studentDashboard(ctx echo.Context) error {
	courses, err := api.enrollmentSvc.MyCourses(ctx.Request().Context(), currentIdentity(ctx).UserID)
	if err != nil {
		return errors.Wrap(err, "listing student courses")
	}
	return render(ctx, echo.Map{"courses": courses})
}

func (api *pagesApi) instructorDashboard(ctx echo.Context) error {
	courses, err := api.courseSvc.QueryByInstructor(ctx.Request().Context(), currentIdentity(ctx).UserID)
	if err != nil {
		return errors.Wrap(err, "listing instructor courses")
	}
	return render(ctx, echo.Map{"courses": courses})
}

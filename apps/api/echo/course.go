package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/saadqamar22/LMS-2.0-sub000/core/course"
)

type courseApi struct {
	svc *course.Service
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *course.Service) {
	api := courseApi{svc: svc}

	cg := g.Group("/courses", jwt)
	cg.POST("", api.create)
	cg.GET("/mine", api.teacherCourses)
	cg.GET("/available", api.available)

	dg := cg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.GET("/modules", api.modules)
	dg.POST("/modules", api.createModule)
	dg.POST("/enroll", api.enroll)
	dg.GET("/students", api.students)

	g.GET("/enrollments", api.enrollments, jwt)
	g.GET("/courses/:id/enrollment-count", api.enrollmentCount)
}

// CourseDetail is a course along with its enrollment count.
type CourseDetail struct {
	course.Course
	EnrollmentCount int `json:"enrollment_count"`
}

// Handlers

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := bindJSON(ctx, &data); err != nil {
		return err
	}
	crs, err := api.svc.CreateCourse(ctx.Request().Context(), principal(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseApi) teacherCourses(ctx echo.Context) error {
	courses, err := api.svc.TeacherCourses(ctx.Request().Context(), principal(ctx))
	if err != nil {
		return errors.Wrap(err, "querying teacher courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) available(ctx echo.Context) error {
	courses, err := api.svc.AvailableCourses(ctx.Request().Context(), principal(ctx))
	if err != nil {
		return errors.Wrap(err, "querying available courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) enrollments(ctx echo.Context) error {
	courses, err := api.svc.StudentEnrollments(ctx.Request().Context(), principal(ctx))
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) enrollmentCount(ctx echo.Context) error {
	cnt, err := api.svc.EnrollmentCount(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "counting enrollments")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"count": cnt})
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	crs, err := api.svc.GetCourse(ctx.Request().Context(), principal(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting course")
	}
	count, err := api.svc.EnrollmentCount(ctx.Request().Context(), crs.ID)
	if err != nil {
		return errors.Wrap(err, "counting enrollments")
	}
	return ctx.JSON(http.StatusOK, CourseDetail{Course: crs, EnrollmentCount: count})
}

func (api *courseApi) update(ctx echo.Context) error {
	var data course.UpdateCourse
	if err := bindJSON(ctx, &data); err != nil {
		return err
	}
	crs, err := api.svc.UpdateCourse(ctx.Request().Context(), principal(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) modules(ctx echo.Context) error {
	mods, err := api.svc.ListModules(ctx.Request().Context(), principal(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying modules")
	}
	return ctx.JSON(http.StatusOK, mods)
}

func (api *courseApi) createModule(ctx echo.Context) error {
	var data course.NewModule
	if err := bindJSON(ctx, &data); err != nil {
		return err
	}
	mod, err := api.svc.CreateModule(ctx.Request().Context(), principal(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "creating module")
	}
	return ctx.JSON(http.StatusCreated, mod)
}

func (api *courseApi) enroll(ctx echo.Context) error {
	enr, err := api.svc.Enroll(ctx.Request().Context(), principal(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "enrolling")
	}
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *courseApi) students(ctx echo.Context) error {
	students, err := api.svc.CourseStudents(ctx.Request().Context(), principal(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying course students")
	}
	return ctx.JSON(http.StatusOK, students)
}

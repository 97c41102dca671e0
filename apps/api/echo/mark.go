package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/saadqamar22/LMS-2.0-sub000/core/mark"
)

type markApi struct {
	svc *mark.Service
}

func registerMarkAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *mark.Service) {
	api := markApi{svc: svc}

	g.POST("/marks", api.save, jwt)

	// no sub groups: echo groups register catch-all routes that would shadow the course and student routes
	g.GET("/courses/:id/modules/:moduleID/marks", api.moduleMarks, jwt)
	g.GET("/courses/:id/statistics", api.courseStatistics, jwt)
	g.GET("/courses/:id/gpa", api.courseGPA, jwt)
	g.GET("/students/:id/marks", api.studentMarks, jwt)
	g.GET("/students/:id/gpa", api.studentGPA, jwt)
}

// Handlers

func (api *markApi) save(ctx echo.Context) error {
	var data mark.NewMark
	if err := bindJSON(ctx, &data); err != nil {
		return err
	}
	m, err := api.svc.SaveMark(ctx.Request().Context(), principal(ctx), data)
	if err != nil {
		return errors.Wrap(err, "saving mark")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *markApi) moduleMarks(ctx echo.Context) error {
	mm, err := api.svc.MarksForModule(ctx.Request().Context(), principal(ctx), ctx.Param("id"), ctx.Param("moduleID"))
	if err != nil {
		return errors.Wrap(err, "querying module marks")
	}
	return ctx.JSON(http.StatusOK, mm)
}

func (api *markApi) courseStatistics(ctx echo.Context) error {
	cs, err := api.svc.CourseStatistics(ctx.Request().Context(), principal(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "computing course statistics")
	}
	return ctx.JSON(http.StatusOK, cs)
}

func (api *markApi) courseGPA(ctx echo.Context) error {
	rep, err := api.svc.CourseGPA(ctx.Request().Context(), principal(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "computing course GPA")
	}
	return ctx.JSON(http.StatusOK, rep)
}

// studentMarks lists a student's marks, optionally restricted to the `course_id` query param.
func (api *markApi) studentMarks(ctx echo.Context) error {
	marks, err := api.svc.StudentMarks(ctx.Request().Context(), principal(ctx), ctx.Param("id"), ctx.QueryParam("course_id"))
	if err != nil {
		return errors.Wrap(err, "querying student marks")
	}
	return ctx.JSON(http.StatusOK, marks)
}

func (api *markApi) studentGPA(ctx echo.Context) error {
	rep, err := api.svc.StudentGPA(ctx.Request().Context(), principal(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "computing student GPA")
	}
	return ctx.JSON(http.StatusOK, rep)
}

package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/saadqamar22/LMS-2.0-sub000/core/attendance"
)

type attendanceApi struct {
	svc *attendance.Service
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *attendance.Service) {
	api := attendanceApi{svc: svc}

	cg := g.Group("/courses/:id/attendance", jwt)
	cg.PUT("", api.save)
	cg.GET("", api.forDate)
	cg.GET("/history", api.history)

	g.GET("/attendance", api.mine, jwt)
	g.GET("/students/:id/attendance", api.child, jwt)
}

// Handlers

// save replaces the register of a course for the day given in the body.
func (api *attendanceApi) save(ctx echo.Context) error {
	var data attendance.SaveAttendance
	if err := bindJSON(ctx, &data); err != nil {
		return err
	}
	records, err := api.svc.Save(ctx.Request().Context(), principal(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "saving attendance")
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *attendanceApi) forDate(ctx echo.Context) error {
	entries, err := api.svc.ForDate(ctx.Request().Context(), principal(ctx), ctx.Param("id"), ctx.QueryParam("date"))
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *attendanceApi) history(ctx echo.Context) error {
	days, err := api.svc.History(ctx.Request().Context(), principal(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying attendance history")
	}
	return ctx.JSON(http.StatusOK, days)
}

func (api *attendanceApi) mine(ctx echo.Context) error {
	report, err := api.svc.StudentAttendance(ctx.Request().Context(), principal(ctx), ctx.QueryParam("course_id"))
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	return ctx.JSON(http.StatusOK, report)
}

func (api *attendanceApi) child(ctx echo.Context) error {
	report, err := api.svc.ChildAttendance(ctx.Request().Context(), principal(ctx), ctx.Param("id"), ctx.QueryParam("course_id"))
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	return ctx.JSON(http.StatusOK, report)
}

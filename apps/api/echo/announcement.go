package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
	"github.com/saadqamar22/LMS-2.0-sub000/core/announcement"
	"github.com/saadqamar22/LMS-2.0-sub000/core/authz"
)

type announcementApi struct {
	svc *announcement.Service
}

func registerAnnouncementAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *announcement.Service) {
	api := announcementApi{svc: svc}

	ag := g.Group("/announcements", jwt)
	ag.POST("", api.create)
	ag.GET("", api.query)
}

// Handlers

func (api *announcementApi) create(ctx echo.Context) error {
	var data announcement.NewAnnouncement
	if err := bindJSON(ctx, &data); err != nil {
		return err
	}
	ann, err := api.svc.Create(ctx.Request().Context(), principal(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating announcement")
	}
	return ctx.JSON(http.StatusCreated, ann)
}

// query lists the announcements of the caller's role: the ones visible to a student or parent,
// the ones written by a teacher.
func (api *announcementApi) query(ctx echo.Context) error {
	var (
		anns []announcement.Announcement
		err  error
	)
	p := principal(ctx)
	reqCtx := ctx.Request().Context()
	switch p.Role {
	case authz.RoleStudent:
		anns, err = api.svc.ForStudent(reqCtx, p)
	case authz.RoleParent:
		anns, err = api.svc.ForParent(reqCtx, p)
	case authz.RoleTeacher:
		anns, err = api.svc.TeacherAnnouncements(reqCtx, p)
	default:
		err = core.NewPermissionError("announcements are only listed to students, parents and teachers")
	}
	if err != nil {
		return errors.Wrap(err, "querying announcements")
	}
	return ctx.JSON(http.StatusOK, anns)
}

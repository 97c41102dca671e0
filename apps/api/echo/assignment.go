package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
	"github.com/saadqamar22/LMS-2.0-sub000/core/assignment"
)

const fileField = "file"

type assignmentApi struct {
	svc *assignment.Service
}

func registerAssignmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *assignment.Service) {
	api := assignmentApi{svc: svc}

	ag := g.Group("/assignments", jwt)
	ag.POST("", api.create)
	ag.GET("", api.mine)
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id/file", api.attachFile)
	ag.POST("/:id/submissions", api.submit)
	ag.GET("/:id/submissions", api.submissions)

	g.GET("/courses/:id/assignments", api.courseAssignments, jwt)

	g.PUT("/submissions/:id/grade", api.grade, jwt)
	g.GET("/submissions/file-url", api.fileURL, jwt)
}

type FileURLResponse struct {
	URL string `json:"url"`
}

// Handlers

// create accepts JSON, or multipart/form-data carrying the brief in the `file` field.
func (api *assignmentApi) create(ctx echo.Context) error {
	var data assignment.NewAssignment
	if isMultipart(ctx) {
		file, closer, err := bindUpload(ctx, fileField)
		if err != nil {
			return err
		}
		defer closeUpload(closer)
		data = assignment.NewAssignment{
			CourseID:    ctx.FormValue("course_id"),
			Title:       ctx.FormValue("title"),
			Description: ctx.FormValue("description"),
			Deadline:    ctx.FormValue("deadline"),
			File:        file,
		}
	} else if err := bindJSON(ctx, &data); err != nil {
		return err
	}

	asg, err := api.svc.CreateAssignment(ctx.Request().Context(), principal(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, asg)
}

func (api *assignmentApi) attachFile(ctx echo.Context) error {
	file, closer, err := bindUpload(ctx, fileField)
	if err != nil {
		return err
	}
	defer closeUpload(closer)
	if file == nil {
		return core.NewFieldValidationError(fileField, "this field is required")
	}

	asg, err := api.svc.AttachFile(ctx.Request().Context(), principal(ctx), ctx.Param("id"), *file)
	if err != nil {
		return errors.Wrap(err, "attaching assignment file")
	}
	return ctx.JSON(http.StatusOK, asg)
}

func (api *assignmentApi) retrieve(ctx echo.Context) error {
	view, err := api.svc.GetAssignment(ctx.Request().Context(), principal(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting assignment")
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *assignmentApi) mine(ctx echo.Context) error {
	views, err := api.svc.StudentAssignments(ctx.Request().Context(), principal(ctx))
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	return ctx.JSON(http.StatusOK, views)
}

func (api *assignmentApi) courseAssignments(ctx echo.Context) error {
	views, err := api.svc.CourseAssignments(ctx.Request().Context(), principal(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying course assignments")
	}
	return ctx.JSON(http.StatusOK, views)
}

// submit accepts JSON, or multipart/form-data with `text_answer` and an optional `file`.
func (api *assignmentApi) submit(ctx echo.Context) error {
	var data assignment.SubmitAnswer
	if isMultipart(ctx) {
		file, closer, err := bindUpload(ctx, fileField)
		if err != nil {
			return err
		}
		defer closeUpload(closer)
		data = assignment.SubmitAnswer{TextAnswer: ctx.FormValue("text_answer"), File: file}
	} else if err := bindJSON(ctx, &data); err != nil {
		return err
	}

	sub, err := api.svc.Submit(ctx.Request().Context(), principal(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "submitting assignment")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *assignmentApi) submissions(ctx echo.Context) error {
	subs, err := api.svc.AssignmentSubmissions(ctx.Request().Context(), principal(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *assignmentApi) grade(ctx echo.Context) error {
	var data assignment.GradeSubmission
	if err := bindJSON(ctx, &data); err != nil {
		return err
	}
	sub, err := api.svc.Grade(ctx.Request().Context(), principal(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "grading submission")
	}
	return ctx.JSON(http.StatusOK, sub)
}

// fileURL signs the submission file given by the `path` query param. With `redirect=true`
// the caller is redirected to the signed URL.
func (api *assignmentApi) fileURL(ctx echo.Context) error {
	url, err := api.svc.SignedSubmissionURL(ctx.Request().Context(), principal(ctx), ctx.QueryParam("path"))
	if err != nil {
		return errors.Wrap(err, "signing submission file URL")
	}
	if redirect, _ := strconv.ParseBool(ctx.QueryParam("redirect")); redirect {
		return ctx.Redirect(http.StatusTemporaryRedirect, url)
	}
	return ctx.JSON(http.StatusOK, FileURLResponse{URL: url})
}

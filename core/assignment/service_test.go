package assignment_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
	"github.com/saadqamar22/LMS-2.0-sub000/core/assignment"
	"github.com/saadqamar22/LMS-2.0-sub000/core/course"
	"github.com/saadqamar22/LMS-2.0-sub000/core/user"
	"github.com/saadqamar22/LMS-2.0-sub000/tests"
)

var now = time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	env      *testutil.Env
	svc      *assignment.Service
	teacher  user.User
	other    user.User
	admin    user.User
	alice    user.User
	bob      user.User
	outsider user.User
	crs      course.Course
}

func setup(t *testing.T) fixture {
	t.Cleanup(assignment.SetNow(now))

	env := testutil.NewEnv()
	f := fixture{env: env, svc: env.AssignmentService()}
	f.teacher = env.CreateTeacher(t, "Tom Lee", "tom@school.test", "E-001")
	f.other = env.CreateTeacher(t, "Tia Kay", "tia@school.test", "E-002")
	f.admin = env.CreateAdmin(t, "Ada Min", "admin@school.test")
	f.alice = env.CreateStudent(t, "Alice Doe", "alice@school.test", "R-001")
	f.bob = env.CreateStudent(t, "Bob Roe", "bob@school.test", "R-002")
	f.outsider = env.CreateStudent(t, "Otto Out", "otto@school.test", "R-003")
	f.crs = env.CreateCourse(t, f.teacher, "Physics", "PHY_101")
	env.Enroll(t, f.alice, f.crs)
	env.Enroll(t, f.bob, f.crs)
	return f
}

func (f fixture) create(t *testing.T, title string, deadline time.Time) assignment.Assignment {
	asg, err := f.svc.CreateAssignment(context.Background(), f.teacher.Principal(), assignment.NewAssignment{
		CourseID: f.crs.ID,
		Title:    title,
		Deadline: deadline.Format(time.RFC3339),
	})
	require.NoError(t, err)
	return asg
}

func upload(name, content string) *core.Upload {
	return &core.Upload{Filename: name, ContentType: "application/pdf", Content: strings.NewReader(content)}
}

func TestDeadlineStatus(t *testing.T) {
	tests := []struct {
		deadline time.Time
		expected assignment.Status
	}{
		{now.Add(-time.Minute), assignment.StatusOverdue},
		{now, assignment.StatusDueSoon},
		{now.Add(time.Hour), assignment.StatusDueSoon},
		{now.AddDate(0, 0, 3), assignment.StatusDueSoon},
		{now.AddDate(0, 0, 3).Add(time.Minute), assignment.StatusUpcoming},
		{now.AddDate(0, 0, 10), assignment.StatusUpcoming},
	}
	for _, tt := range tests {
		t.Run(tt.deadline.Format(time.RFC3339), func(t *testing.T) {
			assert.Equal(t, tt.expected, assignment.DeadlineStatus(tt.deadline, now))
		})
	}
}

func TestService_CreateAssignment(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	asg, err := f.svc.CreateAssignment(ctx, f.teacher.Principal(), assignment.NewAssignment{
		CourseID: f.crs.ID,
		Title:    " Lab report ",
		Deadline: "2024-01-12T09:00:00Z",
		File:     upload("brief.pdf", "brief"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Lab report", asg.Title)
	assert.Equal(t, "Physics", asg.CourseName)
	assert.Equal(t, "brief.pdf", asg.FileName)
	key := f.crs.ID + "/" + asg.ID + "/brief.pdf"
	assert.Equal(t, "http://localhost/blobs/assignments/"+key, asg.FileURL)

	obj, ok := f.env.Blobs.Get("assignments", key)
	require.True(t, ok)
	assert.Equal(t, "brief", string(obj.Content))
	assert.Equal(t, "application/pdf", obj.ContentType)

	tests := []struct {
		name    string
		actor   user.User
		na      assignment.NewAssignment
		checkFn func(error) bool
	}{
		{"not the course teacher", f.other, assignment.NewAssignment{CourseID: f.crs.ID, Title: "HW", Deadline: "2024-01-12T09:00:00Z"}, core.IsPermissionDenied},
		{"admin", f.admin, assignment.NewAssignment{CourseID: f.crs.ID, Title: "HW", Deadline: "2024-01-12T09:00:00Z"}, core.IsPermissionDenied},
		{"student", f.alice, assignment.NewAssignment{CourseID: f.crs.ID, Title: "HW", Deadline: "2024-01-12T09:00:00Z"}, core.IsPermissionDenied},
		{"unknown course", f.teacher, assignment.NewAssignment{CourseID: "missing", Title: "HW", Deadline: "2024-01-12T09:00:00Z"}, core.IsNotFound},
		{"blank title", f.teacher, assignment.NewAssignment{CourseID: f.crs.ID, Title: " ", Deadline: "2024-01-12T09:00:00Z"}, core.IsValidation},
		{"invalid deadline", f.teacher, assignment.NewAssignment{CourseID: f.crs.ID, Title: "HW", Deadline: "next friday"}, core.IsValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateAssignment(ctx, tt.actor.Principal(), tt.na)
			assert.True(t, tt.checkFn(err), "unexpected error: %v", err)
		})
	}

	_, err = f.svc.AttachFile(ctx, f.other.Principal(), asg.ID, *upload("x.pdf", "x"))
	assert.True(t, core.IsPermissionDenied(err))
	replaced, err := f.svc.AttachFile(ctx, f.teacher.Principal(), asg.ID, *upload("../../v2.pdf", "v2"))
	require.NoError(t, err)
	assert.Equal(t, "v2.pdf", replaced.FileName)
	assert.Equal(t, "Physics", replaced.CourseName)
}

func TestService_Listings(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	upcoming := f.create(t, "Essay", time.Date(2024, 1, 20, 9, 0, 0, 0, time.UTC))
	overdue := f.create(t, "Quiz prep", time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC))
	dueSoon := f.create(t, "Lab report", time.Date(2024, 1, 12, 9, 0, 0, 0, time.UTC))

	_, err := f.svc.Submit(ctx, f.alice.Principal(), dueSoon.ID, assignment.SubmitAnswer{TextAnswer: "done"})
	require.NoError(t, err)

	views, err := f.svc.StudentAssignments(ctx, f.alice.Principal())
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, overdue.ID, views[0].ID)
	assert.Equal(t, assignment.StatusOverdue, views[0].Status)
	assert.Nil(t, views[0].Submission)
	assert.Equal(t, dueSoon.ID, views[1].ID)
	assert.Equal(t, assignment.StatusDueSoon, views[1].Status)
	require.NotNil(t, views[1].Submission)
	assert.Equal(t, "done", views[1].Submission.TextAnswer)
	assert.Equal(t, upcoming.ID, views[2].ID)
	assert.Equal(t, assignment.StatusUpcoming, views[2].Status)

	views, err = f.svc.CourseAssignments(ctx, f.teacher.Principal(), f.crs.ID)
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Nil(t, views[1].Submission)

	_, err = f.svc.CourseAssignments(ctx, f.admin.Principal(), f.crs.ID)
	assert.NoError(t, err)
	_, err = f.svc.CourseAssignments(ctx, f.outsider.Principal(), f.crs.ID)
	assert.True(t, core.IsPermissionDenied(err))
	_, err = f.svc.CourseAssignments(ctx, f.other.Principal(), f.crs.ID)
	assert.True(t, core.IsPermissionDenied(err))

	view, err := f.svc.GetAssignment(ctx, f.bob.Principal(), upcoming.ID)
	require.NoError(t, err)
	assert.Equal(t, "Physics", view.CourseName)
	_, err = f.svc.GetAssignment(ctx, f.outsider.Principal(), upcoming.ID)
	assert.True(t, core.IsPermissionDenied(err))
	_, err = f.svc.GetAssignment(ctx, f.bob.Principal(), "missing")
	assert.True(t, core.IsNotFound(err))

	none, err := f.svc.StudentAssignments(ctx, f.outsider.Principal())
	require.NoError(t, err)
	assert.Empty(t, none)
	_, err = f.svc.StudentAssignments(ctx, f.teacher.Principal())
	assert.True(t, core.IsPermissionDenied(err))
}

func TestService_SubmitAndGrade(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	asg := f.create(t, "Lab report", now.AddDate(0, 0, 2))

	sub, err := f.svc.Submit(ctx, f.alice.Principal(), asg.ID, assignment.SubmitAnswer{TextAnswer: " first "})
	require.NoError(t, err)
	assert.Equal(t, "first", sub.TextAnswer)
	assert.False(t, sub.IsGraded())
	assert.Equal(t, "Alice Doe", sub.StudentName)

	tests := []struct {
		name    string
		actor   user.User
		id      string
		ans     assignment.SubmitAnswer
		checkFn func(error) bool
	}{
		{"empty answer", f.alice, asg.ID, assignment.SubmitAnswer{TextAnswer: "  "}, core.IsValidation},
		{"not enrolled", f.outsider, asg.ID, assignment.SubmitAnswer{TextAnswer: "hi"}, core.IsPermissionDenied},
		{"teacher", f.teacher, asg.ID, assignment.SubmitAnswer{TextAnswer: "hi"}, core.IsPermissionDenied},
		{"unknown assignment", f.alice, "missing", assignment.SubmitAnswer{TextAnswer: "hi"}, core.IsNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Submit(ctx, tt.actor.Principal(), tt.id, tt.ans)
			assert.True(t, tt.checkFn(err), "unexpected error: %v", err)
		})
	}

	_, err = f.svc.Grade(ctx, f.other.Principal(), sub.ID, assignment.GradeSubmission{Marks: 8})
	assert.True(t, core.IsPermissionDenied(err))
	_, err = f.svc.Grade(ctx, f.admin.Principal(), sub.ID, assignment.GradeSubmission{Marks: 8})
	assert.True(t, core.IsPermissionDenied(err))
	_, err = f.svc.Grade(ctx, f.teacher.Principal(), sub.ID, assignment.GradeSubmission{Marks: -1})
	assert.True(t, core.IsValidation(err))
	_, err = f.svc.Grade(ctx, f.teacher.Principal(), "missing", assignment.GradeSubmission{Marks: 8})
	assert.True(t, core.IsNotFound(err))

	graded, err := f.svc.Grade(ctx, f.teacher.Principal(), sub.ID, assignment.GradeSubmission{Marks: 8, Feedback: " Good work "})
	require.NoError(t, err)
	require.True(t, graded.IsGraded())
	assert.Equal(t, 8.0, *graded.Marks)
	assert.Equal(t, "Good work", graded.Feedback)

	// resubmitting keeps the grade
	defer assignment.SetNow(now.Add(time.Hour))()
	resub, err := f.svc.Submit(ctx, f.alice.Principal(), asg.ID, assignment.SubmitAnswer{
		TextAnswer: "second",
		File:       upload("answer.pdf", "pdf"),
	})
	require.NoError(t, err)
	assert.Equal(t, sub.ID, resub.ID)
	assert.Equal(t, "second", resub.TextAnswer)
	assert.Equal(t, now.Add(time.Hour), resub.SubmittedAt)
	assert.Equal(t, assignment.SubmissionPath(asg.ID, f.alice.ID, "answer.pdf"), resub.FilePath)
	require.NotNil(t, resub.Marks)
	assert.Equal(t, 8.0, *resub.Marks)
	assert.Equal(t, "Good work", resub.Feedback)

	_, ok := f.env.Blobs.Get("submissions", resub.FilePath)
	assert.True(t, ok)

	_, err = f.svc.Submit(ctx, f.bob.Principal(), asg.ID, assignment.SubmitAnswer{TextAnswer: "bob's"})
	require.NoError(t, err)
	subs, err := f.svc.AssignmentSubmissions(ctx, f.teacher.Principal(), asg.ID)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, f.bob.ID, subs[0].StudentID)
	assert.Equal(t, f.alice.ID, subs[1].StudentID)

	_, err = f.svc.AssignmentSubmissions(ctx, f.alice.Principal(), asg.ID)
	assert.True(t, core.IsPermissionDenied(err))
	_, err = f.svc.AssignmentSubmissions(ctx, f.other.Principal(), asg.ID)
	assert.True(t, core.IsPermissionDenied(err))
}

func TestService_SignedSubmissionURL(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	asg := f.create(t, "Lab report", now.AddDate(0, 0, 2))

	sub, err := f.svc.Submit(ctx, f.alice.Principal(), asg.ID, assignment.SubmitAnswer{File: upload("answer.pdf", "pdf")})
	require.NoError(t, err)

	tests := []struct {
		name    string
		actor   user.User
		path    string
		checkFn func(error) bool
	}{
		{"owner", f.alice, sub.FilePath, nil},
		{"course teacher", f.teacher, sub.FilePath, nil},
		{"admin", f.admin, sub.FilePath, nil},
		{"other student", f.bob, sub.FilePath, core.IsPermissionDenied},
		{"other teacher", f.other, sub.FilePath, core.IsPermissionDenied},
		{"malformed path", f.alice, asg.ID + "/answer.pdf", core.IsValidation},
		{"traversal", f.alice, asg.ID + "/" + f.alice.ID + "/../x.pdf", core.IsValidation},
		{"missing file", f.alice, asg.ID + "/" + f.alice.ID + "/other.pdf", core.IsNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url, err := f.svc.SignedSubmissionURL(ctx, tt.actor.Principal(), tt.path)
			if tt.checkFn == nil {
				require.NoError(t, err)
				assert.True(t, strings.HasPrefix(url, "http://localhost/blobs/submissions/"+sub.FilePath+"?expires="), url)
				return
			}
			assert.True(t, tt.checkFn(err), "unexpected error: %v", err)
		})
	}
}

// failingSubmissions fails every submission write.
type failingSubmissions struct {
	assignment.Repository
}

func (failingSubmissions) UpsertSubmission(context.Context, assignment.Submission, ...core.DBExecutor) (assignment.Submission, error) {
	return assignment.Submission{}, errors.New("connection reset")
}

func TestService_Submit_RemovesFileOnFailure(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	asg := f.create(t, "Essay", now.AddDate(0, 0, 7))

	svc := assignment.NewService(failingSubmissions{f.env.Assignments}, f.env.Courses, f.env.Blobs, f.env.Logger, f.env.Conf)
	_, err := svc.Submit(ctx, f.alice.Principal(), asg.ID, assignment.SubmitAnswer{File: upload("answer.pdf", "pdf")})
	assert.True(t, core.IsStoreFailure(err), "unexpected error: %v", err)

	_, found := f.env.Blobs.Get(f.env.Conf.Storage.SubmissionsBucket, assignment.SubmissionPath(asg.ID, f.alice.ID, "answer.pdf"))
	assert.False(t, found)
}

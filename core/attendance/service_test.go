package attendance_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
	"github.com/saadqamar22/LMS-2.0-sub000/core/attendance"
	"github.com/saadqamar22/LMS-2.0-sub000/core/course"
	"github.com/saadqamar22/LMS-2.0-sub000/core/user"
	"github.com/saadqamar22/LMS-2.0-sub000/tests"
)

type fixture struct {
	env      *testutil.Env
	svc      *attendance.Service
	teacher  user.User
	other    user.User
	parent   user.User
	students []user.User
	crs      course.Course
}

func setup(t *testing.T) fixture {
	env := testutil.NewEnv()
	f := fixture{env: env, svc: env.AttendanceService()}
	f.teacher = env.CreateTeacher(t, "Tom Lee", "tom@school.test", "E-001")
	f.other = env.CreateTeacher(t, "Tia Kay", "tia@school.test", "E-002")
	f.students = []user.User{
		env.CreateStudent(t, "Cara Lin", "cara@school.test", "R-003"),
		env.CreateStudent(t, "Alice Doe", "alice@school.test", "R-001"),
		env.CreateStudent(t, "Bob Roe", "bob@school.test", "R-002"),
	}
	f.parent = env.CreateParent(t, "Pam Doe", "pam@school.test", f.students[1])
	f.crs = env.CreateCourse(t, f.teacher, "Physics", "PHY_101")
	for _, s := range f.students {
		env.Enroll(t, s, f.crs)
	}
	return f
}

func (f fixture) register(date string, statuses ...attendance.Status) attendance.SaveAttendance {
	sa := attendance.SaveAttendance{Date: date}
	for i, st := range statuses {
		sa.Records = append(sa.Records, attendance.RecordInput{StudentID: f.students[i].ID, Status: st})
	}
	return sa
}

func TestService_Save_ReplacesDay(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	records, err := f.svc.Save(ctx, f.teacher.Principal(), f.crs.ID,
		f.register("2024-03-04", attendance.StatusPresent, attendance.StatusAbsent, attendance.StatusLate))
	require.NoError(t, err)
	assert.Len(t, records, 3)

	entries, err := f.svc.ForDate(ctx, f.teacher.Principal(), f.crs.ID, "2024-03-04")
	require.NoError(t, err)
	assert.Len(t, entries, 3)
	assert.Equal(t, "Alice Doe", entries[0].StudentName)
	assert.Equal(t, attendance.StatusAbsent, entries[0].Status)

	_, err = f.svc.Save(ctx, f.teacher.Principal(), f.crs.ID,
		f.register("2024-03-04", attendance.StatusAbsent, attendance.StatusPresent))
	require.NoError(t, err)

	entries, err = f.svc.ForDate(ctx, f.teacher.Principal(), f.crs.ID, "2024-03-04")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, f.students[1].ID, entries[0].StudentID)
	assert.Equal(t, attendance.StatusPresent, entries[0].Status)
	assert.Equal(t, f.students[0].ID, entries[1].StudentID)
	assert.Equal(t, attendance.StatusAbsent, entries[1].Status)
}

func TestService_Save_Errors(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	outsider := f.env.CreateStudent(t, "Otto Out", "otto@school.test", "R-009")
	admin := f.env.CreateAdmin(t, "Ada Min", "admin@school.test")

	dup := f.register("2024-03-04", attendance.StatusPresent)
	dup.Records = append(dup.Records, dup.Records[0])

	notEnrolled := f.register("2024-03-04", attendance.StatusPresent)
	notEnrolled.Records = append(notEnrolled.Records, attendance.RecordInput{StudentID: outsider.ID, Status: attendance.StatusPresent})

	tests := []struct {
		name     string
		actor    user.User
		courseID string
		sa       attendance.SaveAttendance
		checkFn  func(error) bool
	}{
		{"not the course teacher", f.other, f.crs.ID, f.register("2024-03-04", attendance.StatusPresent), core.IsPermissionDenied},
		{"admin", admin, f.crs.ID, f.register("2024-03-04", attendance.StatusPresent), core.IsPermissionDenied},
		{"student", f.students[0], f.crs.ID, f.register("2024-03-04", attendance.StatusPresent), core.IsPermissionDenied},
		{"unknown course", f.teacher, "missing", f.register("2024-03-04", attendance.StatusPresent), core.IsNotFound},
		{"invalid date", f.teacher, f.crs.ID, f.register("04/03/2024", attendance.StatusPresent), core.IsValidation},
		{"invalid status", f.teacher, f.crs.ID, f.register("2024-03-04", "sick"), core.IsValidation},
		{"no records", f.teacher, f.crs.ID, f.register("2024-03-04"), core.IsValidation},
		{"duplicate student", f.teacher, f.crs.ID, dup, core.IsValidation},
		{"student not enrolled", f.teacher, f.crs.ID, notEnrolled, core.IsValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Save(ctx, tt.actor.Principal(), tt.courseID, tt.sa)
			assert.True(t, tt.checkFn(err), "unexpected error: %v", err)
		})
	}

	entries, err := f.env.Attendance.QueryRecords(ctx, attendance.Filter{CourseID: f.crs.ID})
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = f.svc.ForDate(ctx, f.other.Principal(), f.crs.ID, "2024-03-04")
	assert.True(t, core.IsPermissionDenied(err))
	_, err = f.svc.ForDate(ctx, f.teacher.Principal(), f.crs.ID, "yesterday")
	assert.True(t, core.IsValidation(err))
}

func TestService_History(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	for date, statuses := range map[string][]attendance.Status{
		"2024-03-04": {attendance.StatusPresent, attendance.StatusAbsent, attendance.StatusLate},
		"2024-03-06": {attendance.StatusPresent, attendance.StatusPresent},
		"2024-03-05": {attendance.StatusAbsent, attendance.StatusAbsent, attendance.StatusPresent},
	} {
		_, err := f.svc.Save(ctx, f.teacher.Principal(), f.crs.ID, f.register(date, statuses...))
		require.NoError(t, err)
	}

	history, err := f.svc.History(ctx, f.teacher.Principal(), f.crs.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "2024-03-06", history[0].Date.Format(core.DateLayout))
	assert.Equal(t, attendance.DaySummary{Date: history[0].Date, Present: 2, Total: 2}, history[0])
	assert.Equal(t, "2024-03-05", history[1].Date.Format(core.DateLayout))
	assert.Equal(t, 2, history[1].Absent)
	assert.Equal(t, "2024-03-04", history[2].Date.Format(core.DateLayout))
	assert.Equal(t, attendance.DaySummary{Date: history[2].Date, Present: 1, Absent: 1, Late: 1, Total: 3}, history[2])

	_, err = f.svc.History(ctx, f.other.Principal(), f.crs.ID)
	assert.True(t, core.IsPermissionDenied(err))
}

func TestService_StudentReports(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	alice := f.students[1]

	_, err := f.svc.Save(ctx, f.teacher.Principal(), f.crs.ID,
		f.register("2024-03-04", attendance.StatusPresent, attendance.StatusAbsent, attendance.StatusLate))
	require.NoError(t, err)
	_, err = f.svc.Save(ctx, f.teacher.Principal(), f.crs.ID,
		f.register("2024-03-05", attendance.StatusPresent, attendance.StatusLate))
	require.NoError(t, err)
	_, err = f.svc.Save(ctx, f.teacher.Principal(), f.crs.ID,
		f.register("2024-03-06", attendance.StatusPresent, attendance.StatusPresent))
	require.NoError(t, err)

	report, err := f.svc.StudentAttendance(ctx, alice.Principal(), "")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, report.StudentID)
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 1, report.Present)
	assert.Equal(t, 1, report.Absent)
	assert.Equal(t, 1, report.Late)
	assert.Equal(t, 66.67, report.Rate)
	require.Len(t, report.Entries, 3)
	assert.Equal(t, "2024-03-06", report.Entries[0].Date.Format(core.DateLayout))

	child, err := f.svc.ChildAttendance(ctx, f.parent.Principal(), alice.ID, f.crs.ID)
	require.NoError(t, err)
	assert.Equal(t, report.Rate, child.Rate)

	_, err = f.svc.ChildAttendance(ctx, f.parent.Principal(), f.students[0].ID, "")
	assert.True(t, core.IsPermissionDenied(err))
	_, err = f.svc.ChildAttendance(ctx, f.teacher.Principal(), alice.ID, "")
	assert.True(t, core.IsPermissionDenied(err))
	_, err = f.svc.StudentAttendance(ctx, f.parent.Principal(), "")
	assert.True(t, core.IsPermissionDenied(err))

	none, err := f.svc.StudentAttendance(ctx, f.env.CreateStudent(t, "New Kid", "new@school.test", "R-010").Principal(), "")
	require.NoError(t, err)
	assert.Equal(t, 0, none.Total)
	assert.Equal(t, 0.0, none.Rate)
}

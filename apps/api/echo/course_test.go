package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/saadqamar22/LMS-2.0-sub000/apps/api/echo"
	"github.com/saadqamar22/LMS-2.0-sub000/core/course"
	"github.com/saadqamar22/LMS-2.0-sub000/core/mark"
)

func TestCourses(t *testing.T) {
	env, srv := setup(t)
	teacher := env.CreateTeacher(t, "Theo Teacher", "theo@school.test", "E-1")
	other := env.CreateTeacher(t, "Olga Other", "olga@school.test", "E-2")
	student := env.CreateStudent(t, "Sam Student", "sam@school.test", "R-1")

	teacherToken := getToken(t, srv, teacher)
	otherToken := getToken(t, srv, other)
	studentToken := getToken(t, srv, student)

	nc := course.NewCourse{Name: "Physics", Code: "PHY101", Description: "Mechanics"}
	runHTTPTests(t, srv, []httpTest{
		{
			name:     "student cannot create",
			method:   http.MethodPost,
			path:     "/api/courses",
			body:     marshallObj(t, nc),
			token:    studentToken,
			wantCode: http.StatusForbidden,
		},
		{
			name:     "missing token",
			method:   http.MethodPost,
			path:     "/api/courses",
			body:     marshallObj(t, nc),
			wantCode: http.StatusUnauthorized,
			wantData: marshallObj(t, errMissingToken),
		},
	})

	req, rec := newAuthRequest(http.MethodPost, "/api/courses", teacherToken, marshallObj(t, nc))
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var crs course.Course
	unmarshall(t, rec, &crs)
	assert.Equal(t, "PHY101", crs.Code)
	assert.Equal(t, teacher.ID, crs.TeacherID)
	assert.Equal(t, "Theo Teacher", crs.TeacherName)

	runHTTPTests(t, srv, []httpTest{
		{
			name:     "duplicate code",
			method:   http.MethodPost,
			path:     "/api/courses",
			body:     marshallObj(t, nc),
			token:    teacherToken,
			wantCode: http.StatusConflict,
			wantData: marshallObj(t, httpErr{Error: course.ErrCodeExists.Error()}),
		},
		{
			name:     "unknown course",
			method:   http.MethodGet,
			path:     "/api/courses/nope",
			token:    teacherToken,
			wantCode: http.StatusNotFound,
			wantData: marshallObj(t, httpErr{Error: "course not found"}),
		},
		{
			name:     "other teacher cannot update",
			method:   http.MethodPut,
			path:     "/api/courses/" + crs.ID,
			body:     []byte(`{"name": "Chemistry"}`),
			token:    otherToken,
			wantCode: http.StatusForbidden,
		},
		{
			name:     "student not enrolled cannot view",
			method:   http.MethodGet,
			path:     "/api/courses/" + crs.ID,
			token:    studentToken,
			wantCode: http.StatusForbidden,
		},
		{
			name:     "enroll",
			method:   http.MethodPost,
			path:     "/api/courses/" + crs.ID + "/enroll",
			token:    studentToken,
			wantCode: http.StatusCreated,
		},
		{
			name:     "enroll twice",
			method:   http.MethodPost,
			path:     "/api/courses/" + crs.ID + "/enroll",
			token:    studentToken,
			wantCode: http.StatusConflict,
			wantData: marshallObj(t, httpErr{Error: course.ErrAlreadyEnrolled.Error()}),
		},
		{
			name:     "enrollment count without token",
			method:   http.MethodGet,
			path:     "/api/courses/" + crs.ID + "/enrollment-count",
			wantCode: http.StatusOK,
			wantData: []byte(`{"count": 1}`),
		},
		{
			name:     "teacher cannot enroll",
			method:   http.MethodPost,
			path:     "/api/courses/" + crs.ID + "/enroll",
			token:    teacherToken,
			wantCode: http.StatusForbidden,
		},
	})

	req, rec = newAuthRequest(http.MethodGet, "/api/courses/"+crs.ID, studentToken)
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var detail echoapi.CourseDetail
	unmarshall(t, rec, &detail)
	assert.Equal(t, crs.ID, detail.ID)
	assert.Equal(t, 1, detail.EnrollmentCount)

	req, rec = newAuthRequest(http.MethodPut, "/api/courses/"+crs.ID, teacherToken, []byte(`{"name": "Physics I"}`))
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	unmarshall(t, rec, &crs)
	assert.Equal(t, "Physics I", crs.Name)
	assert.Equal(t, "Mechanics", crs.Description)

	req, rec = newAuthRequest(http.MethodGet, "/api/courses/mine", teacherToken)
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var mine []course.Course
	unmarshall(t, rec, &mine)
	require.Len(t, mine, 1)
	assert.Equal(t, crs.ID, mine[0].ID)

	req, rec = newAuthRequest(http.MethodGet, "/api/courses/available", studentToken)
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var available []course.AvailableCourse
	unmarshall(t, rec, &available)
	require.Len(t, available, 1)
	assert.True(t, available[0].IsEnrolled)

	req, rec = newAuthRequest(http.MethodGet, "/api/courses/"+crs.ID+"/students", teacherToken)
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var students []course.EnrolledStudent
	unmarshall(t, rec, &students)
	require.Len(t, students, 1)
	assert.Equal(t, "R-1", students[0].RegistrationNumber)
}

func TestMarks(t *testing.T) {
	env, srv := setup(t)
	teacher := env.CreateTeacher(t, "Theo Teacher", "theo@school.test", "E-1")
	student := env.CreateStudent(t, "Sam Student", "sam@school.test", "R-1")
	outsider := env.CreateStudent(t, "Ola Outsider", "ola@school.test", "R-2")
	crs := env.CreateCourse(t, teacher, "Physics", "PHY101")
	env.Enroll(t, student, crs)

	teacherToken := getToken(t, srv, teacher)
	studentToken := getToken(t, srv, student)

	req, rec := newAuthRequest(http.MethodPost, "/api/courses/"+crs.ID+"/modules", teacherToken,
		marshallObj(t, course.NewModule{Name: "Quiz 1", TotalMarks: 50}))
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var mod course.Module
	unmarshall(t, rec, &mod)
	assert.Equal(t, crs.ID, mod.CourseID)

	runHTTPTests(t, srv, []httpTest{
		{
			name:     "student cannot add modules",
			method:   http.MethodPost,
			path:     "/api/courses/" + crs.ID + "/modules",
			body:     marshallObj(t, course.NewModule{Name: "Quiz 2", TotalMarks: 10}),
			token:    studentToken,
			wantCode: http.StatusForbidden,
		},
		{
			name:     "above total",
			method:   http.MethodPost,
			path:     "/api/marks",
			body:     marshallObj(t, mark.NewMark{ModuleID: mod.ID, StudentID: student.ID, ObtainedMarks: 51}),
			token:    teacherToken,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"obtained_marks": "obtained marks must be between 0 and 50"}`),
		},
		{
			name:     "student not enrolled",
			method:   http.MethodPost,
			path:     "/api/marks",
			body:     marshallObj(t, mark.NewMark{ModuleID: mod.ID, StudentID: outsider.ID, ObtainedMarks: 10}),
			token:    teacherToken,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"student_id": "this student is not enrolled in the course"}`),
		},
		{
			name:     "student cannot save marks",
			method:   http.MethodPost,
			path:     "/api/marks",
			body:     marshallObj(t, mark.NewMark{ModuleID: mod.ID, StudentID: student.ID, ObtainedMarks: 50}),
			token:    studentToken,
			wantCode: http.StatusForbidden,
		},
	})

	req, rec = newAuthRequest(http.MethodPost, "/api/marks", teacherToken,
		marshallObj(t, mark.NewMark{ModuleID: mod.ID, StudentID: student.ID, ObtainedMarks: 45}))
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var saved mark.Mark
	unmarshall(t, rec, &saved)
	assert.Equal(t, 45.0, saved.ObtainedMarks)
	assert.Equal(t, 45.0, saved.Statistics.Average)

	req, rec = newAuthRequest(http.MethodGet, "/api/courses/"+crs.ID+"/modules/"+mod.ID+"/marks", teacherToken)
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var sheet mark.ModuleMarks
	unmarshall(t, rec, &sheet)
	require.Len(t, sheet.Entries, 1)
	assert.Equal(t, "Sam Student", sheet.Entries[0].StudentName)

	req, rec = newAuthRequest(http.MethodGet, "/api/courses/"+crs.ID+"/statistics", teacherToken)
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var cs mark.CourseStatistics
	unmarshall(t, rec, &cs)
	require.Len(t, cs.Modules, 1)
	assert.Equal(t, 1, cs.MarkCount)

	req, rec = newAuthRequest(http.MethodGet, "/api/students/"+student.ID+"/gpa", studentToken)
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var gpa mark.GPAReport
	unmarshall(t, rec, &gpa)
	assert.Equal(t, student.ID, gpa.StudentID)
	assert.Equal(t, 90.0, gpa.Percentage)
	assert.Equal(t, 1, gpa.MarkCount)

	req, rec = newAuthRequest(http.MethodGet, "/api/courses/"+crs.ID+"/gpa", studentToken)
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	unmarshall(t, rec, &gpa)
	assert.Equal(t, crs.ID, gpa.CourseID)
	assert.Equal(t, 45.0, gpa.ObtainedMarks)

	req, rec = newAuthRequest(http.MethodGet, "/api/students/"+student.ID+"/marks?course_id="+crs.ID, teacherToken)
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var marks []mark.StudentMark
	unmarshall(t, rec, &marks)
	require.Len(t, marks, 1)
	assert.Equal(t, 90.0, marks[0].Percentage)

	req, rec = newAuthRequest(http.MethodGet, "/api/students/"+outsider.ID+"/marks", studentToken)
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
}

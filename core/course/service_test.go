package course_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
	"github.com/saadqamar22/LMS-2.0-sub000/core/course"
	"github.com/saadqamar22/LMS-2.0-sub000/tests"
)

func TestService_CreateCourse(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv()
	svc := env.CourseService()

	teacher := env.CreateTeacher(t, "Tom Lee", "tom@school.test", "E-001")
	student := env.CreateStudent(t, "Alice Doe", "alice@school.test", "R-001")

	crs, err := svc.CreateCourse(ctx, teacher.Principal(), course.NewCourse{Name: " Physics ", Code: "PHY_101"})
	require.NoError(t, err)
	assert.Equal(t, "Physics", crs.Name)
	assert.Equal(t, teacher.ID, crs.TeacherID)
	assert.Equal(t, "Tom Lee", crs.TeacherName)

	tests := []struct {
		name    string
		nc      course.NewCourse
		checkFn func(error) bool
	}{
		{"code taken", course.NewCourse{Name: "Physics II", Code: "PHY_101"}, core.IsConflict},
		{"blank name", course.NewCourse{Name: "  ", Code: "PHY_102"}, core.IsValidation},
		{"invalid code", course.NewCourse{Name: "Physics II", Code: "PHY-102"}, core.IsValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateCourse(ctx, teacher.Principal(), tt.nc)
			assert.True(t, tt.checkFn(err), "unexpected error: %v", err)
		})
	}

	_, err = svc.CreateCourse(ctx, student.Principal(), course.NewCourse{Name: "Chemistry", Code: "CHE_101"})
	assert.True(t, core.IsPermissionDenied(err))
	_, err = svc.CreateCourse(ctx, nil, course.NewCourse{Name: "Chemistry", Code: "CHE_101"})
	assert.True(t, core.IsUnauthenticated(err))
}

func TestService_Modules(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv()
	svc := env.CourseService()

	owner := env.CreateTeacher(t, "Tom Lee", "tom@school.test", "E-001")
	other := env.CreateTeacher(t, "Tia Kay", "tia@school.test", "E-002")
	student := env.CreateStudent(t, "Alice Doe", "alice@school.test", "R-001")
	outsider := env.CreateStudent(t, "Bob Roe", "bob@school.test", "R-002")
	parent := env.CreateParent(t, "Pam Doe", "pam@school.test", student)
	crs := env.CreateCourse(t, owner, "Physics", "PHY_101")
	env.Enroll(t, student, crs)

	_, err := svc.CreateModule(ctx, other.Principal(), crs.ID, course.NewModule{Name: "Quiz", TotalMarks: 10})
	assert.True(t, core.IsPermissionDenied(err))
	_, err = svc.CreateModule(ctx, owner.Principal(), crs.ID, course.NewModule{Name: "Quiz", TotalMarks: 0})
	assert.True(t, core.IsValidation(err))
	_, err = svc.CreateModule(ctx, owner.Principal(), "missing", course.NewModule{Name: "Quiz", TotalMarks: 10})
	assert.True(t, core.IsNotFound(err))

	for _, name := range []string{"Quiz 1", "Midterm", "Final"} {
		_, err = svc.CreateModule(ctx, owner.Principal(), crs.ID, course.NewModule{Name: name, TotalMarks: 50})
		require.NoError(t, err)
	}

	mods, err := svc.ListModules(ctx, student.Principal(), crs.ID)
	require.NoError(t, err)
	require.Len(t, mods, 3)
	assert.Equal(t, []string{"Quiz 1", "Midterm", "Final"}, []string{mods[0].Name, mods[1].Name, mods[2].Name})

	_, err = svc.ListModules(ctx, parent.Principal(), crs.ID)
	assert.NoError(t, err)
	_, err = svc.ListModules(ctx, outsider.Principal(), crs.ID)
	assert.True(t, core.IsPermissionDenied(err))

	got, err := svc.GetCourse(ctx, owner.Principal(), crs.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.ModuleCount)

	updated, err := svc.UpdateCourse(ctx, owner.Principal(), crs.ID, course.UpdateCourse{Description: "Mechanics"})
	require.NoError(t, err)
	assert.Equal(t, "Physics", updated.Name)
	assert.Equal(t, "Mechanics", updated.Description)
	_, err = svc.UpdateCourse(ctx, other.Principal(), crs.ID, course.UpdateCourse{Name: "Hijacked"})
	assert.True(t, core.IsPermissionDenied(err))
}

func TestService_Enroll(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv()
	svc := env.CourseService()

	teacher := env.CreateTeacher(t, "Tom Lee", "tom@school.test", "E-001")
	student := env.CreateStudent(t, "Alice Doe", "alice@school.test", "R-001")
	physics := env.CreateCourse(t, teacher, "Physics", "PHY_101")
	chemistry := env.CreateCourse(t, teacher, "Chemistry", "CHE_101")

	enr, err := svc.Enroll(ctx, student.Principal(), physics.ID)
	require.NoError(t, err)
	assert.Equal(t, student.ID, enr.StudentID)

	_, err = svc.Enroll(ctx, student.Principal(), physics.ID)
	assert.Equal(t, course.ErrAlreadyEnrolled, err)

	_, err = svc.Enroll(ctx, student.Principal(), "missing")
	assert.True(t, core.IsNotFound(err))
	_, err = svc.Enroll(ctx, teacher.Principal(), physics.ID)
	assert.True(t, core.IsPermissionDenied(err))

	cnt, err := svc.EnrollmentCount(ctx, physics.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, cnt)

	available, err := svc.AvailableCourses(ctx, student.Principal())
	require.NoError(t, err)
	require.Len(t, available, 2)
	assert.Equal(t, "Chemistry", available[0].Name)
	assert.False(t, available[0].IsEnrolled)
	assert.Equal(t, "Physics", available[1].Name)
	assert.True(t, available[1].IsEnrolled)

	_, err = svc.Enroll(ctx, student.Principal(), chemistry.ID)
	require.NoError(t, err)
	enrolled, err := svc.StudentEnrollments(ctx, student.Principal())
	require.NoError(t, err)
	require.Len(t, enrolled, 2)
	assert.False(t, enrolled[0].EnrolledAt.Before(enrolled[1].EnrolledAt))
}

func TestService_EnrollConcurrently(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv()
	svc := env.CourseService()

	teacher := env.CreateTeacher(t, "Tom Lee", "tom@school.test", "E-001")
	student := env.CreateStudent(t, "Alice Doe", "alice@school.test", "R-001")
	crs := env.CreateCourse(t, teacher, "Physics", "PHY_101")

	const n = 8
	var (
		wg   sync.WaitGroup
		errs = make([]error, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Enroll(ctx, student.Principal(), crs.ID)
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.True(t, core.IsConflict(err), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, ok)

	cnt, err := svc.EnrollmentCount(ctx, crs.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, cnt)
}

func TestService_CourseStudents(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv()
	svc := env.CourseService()

	teacher := env.CreateTeacher(t, "Tom Lee", "tom@school.test", "E-001")
	other := env.CreateTeacher(t, "Tia Kay", "tia@school.test", "E-002")
	admin := env.CreateAdmin(t, "Ada Min", "admin@school.test")
	crs := env.CreateCourse(t, teacher, "Physics", "PHY_101")
	for _, s := range []struct{ name, email, reg string }{
		{"zoe Park", "zoe@school.test", "R-003"},
		{"Émile Durand", "emile@school.test", "R-002"},
		{"adam Smith", "adam@school.test", "R-001"},
	} {
		env.Enroll(t, env.CreateStudent(t, s.name, s.email, s.reg), crs)
	}

	students, err := svc.CourseStudents(ctx, teacher.Principal(), crs.ID)
	require.NoError(t, err)
	require.Len(t, students, 3)
	assert.Equal(t, []string{"adam Smith", "Émile Durand", "zoe Park"},
		[]string{students[0].FullName, students[1].FullName, students[2].FullName})

	_, err = svc.CourseStudents(ctx, other.Principal(), crs.ID)
	assert.True(t, core.IsPermissionDenied(err))
	_, err = svc.CourseStudents(ctx, admin.Principal(), crs.ID)
	assert.NoError(t, err)

	courses, err := svc.TeacherCourses(ctx, admin.Principal())
	require.NoError(t, err)
	assert.Len(t, courses, 1)
	courses, err = svc.TeacherCourses(ctx, other.Principal())
	require.NoError(t, err)
	assert.Empty(t, courses)
}

// unfilteredEnrollments ignores the enrollment filter and returns every enrollment.
type unfilteredEnrollments struct {
	course.Repository
}

func (r unfilteredEnrollments) QueryEnrollments(ctx context.Context, _ course.EnrollmentFilter, exec ...core.DBExecutor) ([]course.Enrollment, error) {
	return r.Repository.QueryEnrollments(ctx, course.EnrollmentFilter{}, exec...)
}

func TestService_StudentEnrollments_OwnRowsOnly(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv()

	teacher := env.CreateTeacher(t, "Tom Lee", "tom@school.test", "E-001")
	alice := env.CreateStudent(t, "Alice Doe", "alice@school.test", "R-001")
	bob := env.CreateStudent(t, "Bob Roe", "bob@school.test", "R-002")
	env.Enroll(t, alice, env.CreateCourse(t, teacher, "Physics", "PHY_101"))

	svc := course.NewService(unfilteredEnrollments{env.Courses}, env.Users, env.Logger)
	_, err := svc.StudentEnrollments(ctx, bob.Principal())
	assert.True(t, core.IsPermissionDenied(err), "unexpected error: %v", err)

	enrolled, err := svc.StudentEnrollments(ctx, alice.Principal())
	require.NoError(t, err)
	assert.Len(t, enrolled, 1)
}

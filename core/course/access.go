package course

import (
	"context"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
	"github.com/saadqamar22/LMS-2.0-sub000/core/authz"
)

// Access loads courses and enrollments for authorization checks.
// The marks, attendance, assignment and announcement services build on it.
type Access struct {
	repo  Repository
	guard authz.Guard
}

func NewAccess(repo Repository) Access {
	return Access{repo: repo}
}

// Course loads courseID and checks that p may perform act on the resource built by res from its teacher.
// The course is loaded first so that a missing course is NotFound for everyone.
func (a Access) Course(
	ctx context.Context,
	p *authz.Principal,
	act authz.Action,
	res func(teacherID string) authz.Resource,
	courseID string,
	exec ...core.DBExecutor,
) (Course, error) {
	if err := authz.RequirePrincipal(p); err != nil {
		return Course{}, err
	}
	crs, err := a.repo.GetCourse(ctx, courseID, exec...)
	if err != nil {
		return Course{}, core.WrapStoreError(err, "load course")
	}
	if err = a.guard.Check(p, act, res(crs.TeacherID)); err != nil {
		return Course{}, err
	}
	return crs, nil
}

// Module loads moduleID with its course and checks that p may perform act on the course's marks.
func (a Access) Module(ctx context.Context, p *authz.Principal, act authz.Action, moduleID string, exec ...core.DBExecutor) (Module, Course, error) {
	if err := authz.RequirePrincipal(p); err != nil {
		return Module{}, Course{}, err
	}
	mod, err := a.repo.GetModule(ctx, moduleID, exec...)
	if err != nil {
		return Module{}, Course{}, core.WrapStoreError(err, "load module")
	}
	crs, err := a.Course(ctx, p, act, authz.MarksResource, mod.CourseID, exec...)
	if err != nil {
		return Module{}, Course{}, err
	}
	return mod, crs, nil
}

func (a Access) IsEnrolled(ctx context.Context, studentID, courseID string, exec ...core.DBExecutor) (bool, error) {
	if _, err := a.repo.GetEnrollment(ctx, studentID, courseID, exec...); err != nil {
		if core.IsNotFound(err) {
			return false, nil
		}
		return false, core.WrapStoreError(err, "check enrollment")
	}
	return true, nil
}

// EnrolledCourseIDs returns the distinct ids of the courses any of studentIDs is enrolled in.
func (a Access) EnrolledCourseIDs(ctx context.Context, studentIDs []string, exec ...core.DBExecutor) ([]string, error) {
	if len(studentIDs) == 0 {
		return []string{}, nil
	}
	enrollments, err := a.repo.QueryEnrollments(ctx, EnrollmentFilter{StudentIDs: studentIDs}, exec...)
	if err != nil {
		return nil, core.WrapStoreError(err, "load enrollments")
	}
	seen := make(map[string]bool, len(enrollments))
	ids := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		if !seen[e.CourseID] {
			seen[e.CourseID] = true
			ids = append(ids, e.CourseID)
		}
	}
	return ids, nil
}

// TeachersOf returns the ids of the teachers of the courses studentID is enrolled in.
func (a Access) TeachersOf(ctx context.Context, studentID string, exec ...core.DBExecutor) ([]string, error) {
	courseIDs, err := a.EnrolledCourseIDs(ctx, []string{studentID}, exec...)
	if err != nil || len(courseIDs) == 0 {
		return nil, err
	}
	courses, err := a.repo.QueryCourses(ctx, CourseFilter{IDs: courseIDs}, exec...)
	if err != nil {
		return nil, core.WrapStoreError(err, "load courses")
	}
	ids := make([]string, 0, len(courses))
	for _, c := range courses {
		if c.TeacherID != "" {
			ids = append(ids, c.TeacherID)
		}
	}
	return ids, nil
}

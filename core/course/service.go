package course

import (
	"context"
	"time"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
	"github.com/saadqamar22/LMS-2.0-sub000/core/authz"
	"github.com/saadqamar22/LMS-2.0-sub000/core/user"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("course")
	ErrModuleNotFound     = core.NewNotFoundError("module")
	ErrEnrollmentNotFound = core.NewNotFoundError("enrollment")
	ErrCodeExists         = core.NewConflictError("a course with this code already exists")
	ErrAlreadyEnrolled    = core.NewConflictError("you are already enrolled in this course")
)

type (
	Repository interface {
		// CreateCourse returns ErrCodeExists when the code is taken.
		CreateCourse(ctx context.Context, crs Course, exec ...core.DBExecutor) (Course, error)
		GetCourse(ctx context.Context, id string, exec ...core.DBExecutor) (Course, error)
		UpdateCourse(ctx context.Context, crs Course, exec ...core.DBExecutor) (Course, error)
		// QueryCourses returns courses ordered by name, with their teacher name and module count.
		// A teacher name is "" when the teacher cannot be resolved.
		QueryCourses(ctx context.Context, filter CourseFilter, exec ...core.DBExecutor) ([]Course, error)

		CreateModule(ctx context.Context, mod Module, exec ...core.DBExecutor) (Module, error)
		GetModule(ctx context.Context, id string, exec ...core.DBExecutor) (Module, error)
		// QueryModules returns the modules of a course in creation order.
		QueryModules(ctx context.Context, courseID string, exec ...core.DBExecutor) ([]Module, error)

		// CreateEnrollment returns ErrAlreadyEnrolled on a (student, course) uniqueness violation.
		CreateEnrollment(ctx context.Context, enr Enrollment, exec ...core.DBExecutor) (Enrollment, error)
		GetEnrollment(ctx context.Context, studentID, courseID string, exec ...core.DBExecutor) (Enrollment, error)
		QueryEnrollments(ctx context.Context, filter EnrollmentFilter, exec ...core.DBExecutor) ([]Enrollment, error)
		CountEnrollments(ctx context.Context, courseID string, exec ...core.DBExecutor) (int, error)
		// QueryCourseStudents returns the students enrolled in a course, unordered.
		QueryCourseStudents(ctx context.Context, courseID string, exec ...core.DBExecutor) ([]EnrolledStudent, error)
	}

	Service struct {
		Access

		repo   Repository
		users  user.Repository
		logger core.Logger
	}
)

func NewService(repo Repository, users user.Repository, logger core.Logger) *Service {
	return &Service{
		Access: NewAccess(repo),
		repo:   repo,
		users:  users,
		logger: logger,
	}
}

func (svc *Service) storeError(err error, action string) error {
	err = core.WrapStoreError(err, action)
	if core.IsStoreFailure(err) {
		svc.logger.Error("course: "+err.Error(), err)
	}
	return err
}

func (svc *Service) CreateCourse(ctx context.Context, p *authz.Principal, nc NewCourse) (Course, error) {
	if err := svc.guard.Check(p, authz.Write, authz.RoleResource(authz.RoleTeacher)); err != nil {
		return Course{}, err
	}
	if err := nc.Validate(); err != nil {
		return Course{}, err
	}

	crs, err := svc.repo.CreateCourse(ctx, Course{
		Name:        nc.Name,
		Code:        nc.Code,
		Description: nc.Description,
		TeacherID:   p.UserID,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return Course{}, svc.storeError(err, "create course")
	}
	crs.TeacherName = p.FullName
	return crs, nil
}

// TeacherCourses lists the caller's courses. Admins get every course.
func (svc *Service) TeacherCourses(ctx context.Context, p *authz.Principal) ([]Course, error) {
	if err := svc.guard.Check(p, authz.Read, authz.RoleResource(authz.RoleTeacher, authz.RoleAdmin)); err != nil {
		return nil, err
	}
	var filter CourseFilter
	if p.IsTeacher() {
		filter.TeacherID = p.UserID
	}
	courses, err := svc.repo.QueryCourses(ctx, filter)
	if err != nil {
		return nil, svc.storeError(err, "load courses")
	}
	return withTeacherTBA(courses), nil
}

// GetCourse returns a course to its teacher, admins, enrolled students and parents of enrolled students.
func (svc *Service) GetCourse(ctx context.Context, p *authz.Principal, id string) (Course, error) {
	if err := authz.RequirePrincipal(p); err != nil {
		return Course{}, err
	}
	crs, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return Course{}, svc.storeError(err, "load course")
	}
	if err = svc.checkMember(ctx, p, crs); err != nil {
		return Course{}, err
	}
	if crs.TeacherName == "" {
		crs.TeacherName = TeacherTBA
	}
	return crs, nil
}

func (svc *Service) UpdateCourse(ctx context.Context, p *authz.Principal, id string, uc UpdateCourse) (Course, error) {
	crs, err := svc.Course(ctx, p, authz.Write, authz.CourseResource, id)
	if err != nil {
		return Course{}, err
	}

	if name := core.CleanString(uc.Name); name != "" {
		crs.Name = name
	}
	if desc := core.CleanString(uc.Description); desc != "" {
		crs.Description = desc
	}
	if crs, err = svc.repo.UpdateCourse(ctx, crs); err != nil {
		return Course{}, svc.storeError(err, "update course")
	}
	return crs, nil
}

func (svc *Service) CreateModule(ctx context.Context, p *authz.Principal, courseID string, nm NewModule) (Module, error) {
	if _, err := svc.Course(ctx, p, authz.Write, authz.ModuleResource, courseID); err != nil {
		return Module{}, err
	}
	if err := nm.Validate(); err != nil {
		return Module{}, err
	}

	mod, err := svc.repo.CreateModule(ctx, Module{
		CourseID:   courseID,
		Name:       nm.Name,
		TotalMarks: nm.TotalMarks,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return Module{}, svc.storeError(err, "create module")
	}
	return mod, nil
}

// ListModules returns the modules of a course to the same audience as GetCourse.
func (svc *Service) ListModules(ctx context.Context, p *authz.Principal, courseID string) ([]Module, error) {
	if err := authz.RequirePrincipal(p); err != nil {
		return nil, err
	}
	crs, err := svc.repo.GetCourse(ctx, courseID)
	if err != nil {
		return nil, svc.storeError(err, "load course")
	}
	if err = svc.checkMember(ctx, p, crs); err != nil {
		return nil, err
	}

	mods, err := svc.repo.QueryModules(ctx, courseID)
	if err != nil {
		return nil, svc.storeError(err, "load modules")
	}
	return mods, nil
}

// Enroll enrolls the calling student in courseID.
// The uniqueness of (student, course) is enforced by the store; the pre-check only gives early feedback.
func (svc *Service) Enroll(ctx context.Context, p *authz.Principal, courseID string) (Enrollment, error) {
	if err := svc.guard.Check(p, authz.Write, authz.RoleResource(authz.RoleStudent)); err != nil {
		return Enrollment{}, err
	}

	enrolled, err := svc.IsEnrolled(ctx, p.UserID, courseID)
	if err != nil {
		return Enrollment{}, svc.storeError(err, "enroll in course")
	}
	if enrolled {
		return Enrollment{}, ErrAlreadyEnrolled
	}
	if _, err = svc.repo.GetCourse(ctx, courseID); err != nil {
		return Enrollment{}, svc.storeError(err, "enroll in course")
	}

	enr, err := svc.repo.CreateEnrollment(ctx, Enrollment{
		StudentID:  p.UserID,
		CourseID:   courseID,
		EnrolledAt: time.Now().UTC(),
	})
	if err != nil {
		return Enrollment{}, svc.storeError(err, "enroll in course")
	}
	return enr, nil
}

// AvailableCourses lists every course, flagged with whether the caller is enrolled in it.
func (svc *Service) AvailableCourses(ctx context.Context, p *authz.Principal) ([]AvailableCourse, error) {
	if err := authz.RequirePrincipal(p); err != nil {
		return nil, err
	}
	courses, err := svc.repo.QueryCourses(ctx, CourseFilter{})
	if err != nil {
		return nil, svc.storeError(err, "load courses")
	}

	enrolled := make(map[string]bool)
	if p.IsStudent() {
		ids, err := svc.EnrolledCourseIDs(ctx, []string{p.UserID})
		if err != nil {
			return nil, svc.storeError(err, "load enrollments")
		}
		for _, id := range ids {
			enrolled[id] = true
		}
	}

	available := make([]AvailableCourse, 0, len(courses))
	for _, crs := range withTeacherTBA(courses) {
		available = append(available, AvailableCourse{Course: crs, IsEnrolled: enrolled[crs.ID]})
	}
	return available, nil
}

// StudentEnrollments lists the courses the calling student is enrolled in, most recent enrollment first.
func (svc *Service) StudentEnrollments(ctx context.Context, p *authz.Principal) ([]EnrolledCourse, error) {
	if err := svc.guard.Check(p, authz.Read, authz.RoleResource(authz.RoleStudent)); err != nil {
		return nil, err
	}
	enrollments, err := svc.repo.QueryEnrollments(ctx, EnrollmentFilter{StudentIDs: []string{p.UserID}})
	if err != nil {
		return nil, svc.storeError(err, "load enrollments")
	}
	if len(enrollments) == 0 {
		return []EnrolledCourse{}, nil
	}

	ids := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		if err = svc.guard.Check(p, authz.Read, authz.EnrollmentResource(e.StudentID)); err != nil {
			return nil, err
		}
		ids = append(ids, e.CourseID)
	}
	courses, err := svc.repo.QueryCourses(ctx, CourseFilter{IDs: ids})
	if err != nil {
		return nil, svc.storeError(err, "load courses")
	}
	byID := make(map[string]Course, len(courses))
	for _, crs := range withTeacherTBA(courses) {
		byID[crs.ID] = crs
	}

	result := make([]EnrolledCourse, 0, len(enrollments))
	for _, e := range enrollments {
		if crs, ok := byID[e.CourseID]; ok {
			result = append(result, EnrolledCourse{Course: crs, EnrolledAt: e.EnrolledAt})
		}
	}
	sortEnrolledCourses(result)
	return result, nil
}

// CourseStudents lists the students enrolled in a course, by name. Course teacher only.
func (svc *Service) CourseStudents(ctx context.Context, p *authz.Principal, courseID string) ([]EnrolledStudent, error) {
	if _, err := svc.Course(ctx, p, authz.Read, authz.CourseResource, courseID); err != nil {
		return nil, err
	}
	students, err := svc.repo.QueryCourseStudents(ctx, courseID)
	if err != nil {
		return nil, svc.storeError(err, "load students")
	}
	sortEnrolledStudents(students)
	return students, nil
}

// EnrollmentCount is public: it only exposes how many students are enrolled in a course.
func (svc *Service) EnrollmentCount(ctx context.Context, courseID string) (int, error) {
	cnt, err := svc.repo.CountEnrollments(ctx, courseID)
	if err != nil {
		return 0, svc.storeError(err, "count enrollments")
	}
	return cnt, nil
}

// checkMember allows the course teacher, admins, enrolled students and parents of enrolled students.
func (svc *Service) checkMember(ctx context.Context, p *authz.Principal, crs Course) error {
	if err := svc.guard.Check(p, authz.Read, authz.CourseResource(crs.TeacherID)); err == nil {
		return nil
	}

	var studentIDs []string
	switch {
	case p.IsStudent():
		studentIDs = []string{p.UserID}
	case p.IsParent():
		children, err := svc.users.QueryStudents(ctx, user.StudentFilter{ParentID: p.UserID})
		if err != nil {
			return svc.storeError(err, "load children")
		}
		for _, c := range children {
			studentIDs = append(studentIDs, c.UserID)
		}
	}

	for _, id := range studentIDs {
		enrolled, err := svc.IsEnrolled(ctx, id, crs.ID)
		if err != nil {
			return svc.storeError(err, "check enrollment")
		}
		if enrolled {
			return nil
		}
	}
	return core.NewPermissionError("you are not a member of this course")
}

func withTeacherTBA(courses []Course) []Course {
	for i := range courses {
		if courses[i].TeacherName == "" {
			courses[i].TeacherName = TeacherTBA
		}
	}
	return courses
}

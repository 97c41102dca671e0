// Package authz holds the capability checks shared by every LMS operation.
//
// A Guard decides whether a Principal may read or write a Resource. It never touches
// the data store: callers load whatever the Resource needs (course owner, parent link,
// enrollment teachers) and build it with one of the constructors below.
package authz

import (
	"strings"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleParent  Role = "parent"
	RoleAdmin   Role = "admin"
)

// Roles lists every known role.
var Roles = []Role{RoleStudent, RoleTeacher, RoleParent, RoleAdmin}

func (r Role) IsValid() bool {
	for _, role := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Principal is the authenticated caller of an operation.
type Principal struct {
	UserID   string
	Role     Role
	Email    string
	FullName string
}

func (p *Principal) IsStudent() bool { return p.Role == RoleStudent }
func (p *Principal) IsTeacher() bool { return p.Role == RoleTeacher }
func (p *Principal) IsParent() bool  { return p.Role == RoleParent }
func (p *Principal) IsAdmin() bool   { return p.Role == RoleAdmin }

// RequirePrincipal returns core.ErrUnauthenticated when there is no caller.
func RequirePrincipal(p *Principal) error {
	if p == nil || p.UserID == "" {
		return core.ErrUnauthenticated
	}
	return nil
}

type Action int

const (
	Read Action = iota
	Write
)

type Kind int

const (
	KindCourse Kind = iota + 1
	KindModule
	KindAssignment
	KindAttendance
	KindMarks
	KindEnrollment
	KindSubmission
	KindStudent
	KindRole
)

var kindNames = map[Kind]string{
	KindCourse:     "course",
	KindModule:     "module",
	KindAssignment: "assignment",
	KindAttendance: "attendance",
	KindMarks:      "marks",
	KindEnrollment: "enrollment",
	KindSubmission: "submission",
	KindStudent:    "student",
	KindRole:       "operation",
}

func (k Kind) String() string { return kindNames[k] }

// Resource describes the target of an operation. Use the constructors; the zero value denies everyone.
type Resource struct {
	Kind Kind

	courseTeacherID string
	studentID       string
	parentID        string
	teacherIDs      []string
	roles           []Role
}

// CourseResource is a course owned by teacherID.
func CourseResource(teacherID string) Resource {
	return Resource{Kind: KindCourse, courseTeacherID: teacherID}
}

// ModuleResource is a module of a course owned by teacherID.
func ModuleResource(teacherID string) Resource {
	return Resource{Kind: KindModule, courseTeacherID: teacherID}
}

// AssignmentResource is an assignment of a course owned by teacherID.
func AssignmentResource(teacherID string) Resource {
	return Resource{Kind: KindAssignment, courseTeacherID: teacherID}
}

// AttendanceResource is the attendance register of a course owned by teacherID.
func AttendanceResource(teacherID string) Resource {
	return Resource{Kind: KindAttendance, courseTeacherID: teacherID}
}

// MarksResource is the mark sheet of a course owned by teacherID.
func MarksResource(teacherID string) Resource {
	return Resource{Kind: KindMarks, courseTeacherID: teacherID}
}

// EnrollmentResource is an enrollment of studentID.
func EnrollmentResource(studentID string) Resource {
	return Resource{Kind: KindEnrollment, studentID: studentID}
}

// SubmissionResource is a submission of studentID to an assignment of a course owned by teacherID.
func SubmissionResource(studentID, teacherID string) Resource {
	return Resource{Kind: KindSubmission, studentID: studentID, courseTeacherID: teacherID}
}

// StudentResource is the data of studentID, whose parent is parentID (may be empty).
// teacherIDs are the teachers of the courses the student is enrolled in; they may read it.
func StudentResource(studentID, parentID string, teacherIDs ...string) Resource {
	return Resource{Kind: KindStudent, studentID: studentID, parentID: parentID, teacherIDs: teacherIDs}
}

// RoleResource is an operation reserved to the given roles.
func RoleResource(roles ...Role) Resource {
	return Resource{Kind: KindRole, roles: roles}
}

// Guard evaluates the access rules.
type Guard struct{}

// Check returns nil when p may perform act on r, ErrUnauthenticated when p is nil,
// and a *core.PermissionError otherwise.
//
//   - course, module, assignment, attendance and marks: the owning teacher; admins may read.
//   - enrollment: the enrolled student; admins may read.
//   - submission: the submitting student or the owning teacher; admins may read.
//   - student: the student, their parent or an admin; teachers of their courses may read.
//   - role: any of the listed roles.
func (Guard) Check(p *Principal, act Action, r Resource) error {
	if err := RequirePrincipal(p); err != nil {
		return err
	}

	switch r.Kind {
	case KindCourse, KindModule, KindAssignment, KindAttendance, KindMarks:
		if p.IsTeacher() && r.courseTeacherID != "" && r.courseTeacherID == p.UserID {
			return nil
		}
		if p.IsAdmin() && act == Read {
			return nil
		}
		return core.NewPermissionError("only the teacher of this course can access its " + r.Kind.String())

	case KindEnrollment:
		if p.IsStudent() && r.studentID == p.UserID {
			return nil
		}
		if p.IsAdmin() && act == Read {
			return nil
		}
		return core.NewPermissionError("you can only access your own enrollments")

	case KindSubmission:
		if p.IsStudent() && r.studentID == p.UserID {
			return nil
		}
		if p.IsTeacher() && r.courseTeacherID != "" && r.courseTeacherID == p.UserID {
			return nil
		}
		if p.IsAdmin() && act == Read {
			return nil
		}
		return core.NewPermissionError("you can only access your own submissions")

	case KindStudent:
		switch {
		case p.IsStudent() && r.studentID == p.UserID:
			return nil
		case p.IsParent() && r.parentID != "" && r.parentID == p.UserID:
			return nil
		case p.IsAdmin():
			return nil
		case p.IsTeacher() && act == Read && contains(r.teacherIDs, p.UserID):
			return nil
		}
		if p.IsParent() {
			return core.NewPermissionError("this student is not linked to your account")
		}
		return core.NewPermissionError("you cannot access this student's data")

	case KindRole:
		for _, role := range r.roles {
			if p.Role == role {
				return nil
			}
		}
		return core.NewPermissionError("only " + joinRoles(r.roles) + " can perform this operation")
	}

	return core.NewPermissionError("access denied")
}

// SubmissionPathOwner returns the student id embedded in a submission object path
// (`<assignmentID>/<studentID>/<filename>`).
func SubmissionPathOwner(path string) (string, bool) {
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(parts) < 3 {
		return "", false
	}
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			return "", false
		}
	}
	return parts[1], true
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func joinRoles(roles []Role) string {
	if len(roles) == 0 {
		return "nobody"
	}
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r) + "s"
	}
	return strings.Join(names, " or ")
}

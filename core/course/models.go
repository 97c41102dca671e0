package course

import (
	"time"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
)

// TeacherTBA is shown when a course's teacher cannot be resolved.
const TeacherTBA = "TBA"

type Course struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	TeacherID   string    `json:"teacher_id"`
	CreatedAt   time.Time `json:"created_at"` // UTC

	// joined, read only
	TeacherName string `json:"teacher_name"`
	ModuleCount int    `json:"module_count"`
}

// Module is a gradable component of a course with a fixed total possible marks.
type Module struct {
	ID         string    `json:"id"`
	CourseID   string    `json:"course_id"`
	Name       string    `json:"name"`
	TotalMarks float64   `json:"total_marks"`
	CreatedAt  time.Time `json:"created_at"` // UTC
}

type Enrollment struct {
	ID         string    `json:"id"`
	StudentID  string    `json:"student_id"`
	CourseID   string    `json:"course_id"`
	EnrolledAt time.Time `json:"enrolled_at"` // UTC
}

// AvailableCourse is a course as listed to a browsing student.
type AvailableCourse struct {
	Course
	IsEnrolled bool `json:"is_enrolled"`
}

// EnrolledCourse is a course a student is enrolled in.
type EnrolledCourse struct {
	Course
	EnrolledAt time.Time `json:"enrolled_at"`
}

// EnrolledStudent is a student as listed to the course teacher.
type EnrolledStudent struct {
	StudentID          string    `json:"student_id"`
	FullName           string    `json:"full_name"`
	Email              string    `json:"email"`
	RegistrationNumber string    `json:"registration_number"`
	Class              string    `json:"class"`
	Section            string    `json:"section"`
	EnrolledAt         time.Time `json:"enrolled_at"`
}

type NewCourse struct {
	Name        string `json:"name" validate:"required,notblank"`
	Code        string `json:"code" validate:"required,alphanum_,max=20"`
	Description string `json:"description"`
}

func (nc *NewCourse) Validate() error {
	nc.Name = core.CleanString(nc.Name)
	nc.Code = core.CleanString(nc.Code)
	nc.Description = core.CleanString(nc.Description)
	return core.Validate.Struct(nc)
}

// UpdateCourse holds the course fields to change; empty fields are left untouched.
type UpdateCourse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type NewModule struct {
	Name       string  `json:"name" validate:"required,notblank"`
	TotalMarks float64 `json:"total_marks" validate:"gt=0"`
}

func (nm *NewModule) Validate() error {
	nm.Name = core.CleanString(nm.Name)
	return core.Validate.Struct(nm)
}

// CourseFilter applies AND on its set fields.
type CourseFilter struct {
	IDs       []string
	TeacherID string
}

// EnrollmentFilter applies AND on its set fields.
type EnrollmentFilter struct {
	StudentIDs []string
	CourseID   string
}

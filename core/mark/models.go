package mark

import (
	"time"

	"github.com/saadqamar22/LMS-2.0-sub000/core/stats"
)

// Mark is one student's obtained score for one module.
// Statistics is a copy of the module-wide statistics, rewritten on every mark change in the module.
type Mark struct {
	ID            string        `json:"id"`
	StudentID     string        `json:"student_id"`
	ModuleID      string        `json:"module_id"`
	ObtainedMarks float64       `json:"obtained_marks"`
	Statistics    stats.Summary `json:"statistics"`
	CreatedAt     time.Time     `json:"created_at"` // UTC
	UpdatedAt     time.Time     `json:"updated_at"` // UTC
}

// Detail is a Mark joined with its module, course and student.
type Detail struct {
	Mark

	ModuleName         string  `json:"module_name"`
	TotalMarks         float64 `json:"total_marks"`
	CourseID           string  `json:"course_id"`
	CourseName         string  `json:"course_name"`
	CourseCode         string  `json:"course_code"`
	StudentName        string  `json:"student_name"`
	RegistrationNumber string  `json:"registration_number"`
}

type NewMark struct {
	ModuleID      string  `json:"module_id" validate:"required"`
	StudentID     string  `json:"student_id" validate:"required"`
	ObtainedMarks float64 `json:"obtained_marks"`
}

// ModuleMarks is the teacher's view of a module's mark sheet.
type ModuleMarks struct {
	ModuleID   string        `json:"module_id"`
	ModuleName string        `json:"module_name"`
	TotalMarks float64       `json:"total_marks"`
	Entries    []Detail      `json:"entries"`
	Statistics stats.Summary `json:"statistics"` // computed from Entries
}

type ModuleStatistics struct {
	ModuleID   string        `json:"module_id"`
	ModuleName string        `json:"module_name"`
	TotalMarks float64       `json:"total_marks"`
	MarkCount  int           `json:"mark_count"`
	Statistics stats.Summary `json:"statistics"` // as stored on the module's marks
}

type CourseStatistics struct {
	CourseID     string             `json:"course_id"`
	Modules      []ModuleStatistics `json:"modules"`
	Average      float64            `json:"average"`
	StdDeviation float64            `json:"std_deviation"`
	MarkCount    int                `json:"mark_count"`
}

// StudentMark is a mark as shown to a student (or their parent).
type StudentMark struct {
	Detail

	Percentage float64 `json:"percentage"`
	GPA        float64 `json:"gpa"`
	Letter     string  `json:"letter"`
}

// GPAReport is a weighted GPA: sum of obtained marks over sum of module totals.
type GPAReport struct {
	StudentID     string  `json:"student_id,omitempty"`
	CourseID      string  `json:"course_id,omitempty"`
	ObtainedMarks float64 `json:"obtained_marks"`
	TotalMarks    float64 `json:"total_marks"`
	Percentage    float64 `json:"percentage"`
	GPA           float64 `json:"gpa"`
	Letter        string  `json:"letter"`
	MarkCount     int     `json:"mark_count"`
}

// Filter applies AND on its set fields.
type Filter struct {
	ModuleID  string
	CourseID  string
	StudentID string
	TeacherID string // owner of the mark's course
}

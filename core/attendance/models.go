package attendance

import (
	"time"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
)

// Record is one student's status in one course on one day.
type Record struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	CourseID  string    `json:"course_id"`
	Date      time.Time `json:"date"` // UTC midnight
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Entry is a Record joined with its student and course.
type Entry struct {
	Record

	StudentName        string `json:"student_name"`
	RegistrationNumber string `json:"registration_number"`
	CourseName         string `json:"course_name"`
	CourseCode         string `json:"course_code"`
}

// DaySummary counts the statuses recorded for a course on one day.
type DaySummary struct {
	Date    time.Time `json:"date"`
	Present int       `json:"present"`
	Absent  int       `json:"absent"`
	Late    int       `json:"late"`
	Total   int       `json:"total"`
}

func (ds *DaySummary) add(st Status) {
	switch st {
	case StatusPresent:
		ds.Present++
	case StatusAbsent:
		ds.Absent++
	case StatusLate:
		ds.Late++
	}
	ds.Total++
}

// StudentReport is a student's attendance, newest first, with the share of days attended (present or late).
type StudentReport struct {
	StudentID string  `json:"student_id"`
	Entries   []Entry `json:"entries"`
	Present   int     `json:"present"`
	Absent    int     `json:"absent"`
	Late      int     `json:"late"`
	Total     int     `json:"total"`
	Rate      float64 `json:"rate"` // percent
}

type RecordInput struct {
	StudentID string `json:"student_id" validate:"required"`
	Status    Status `json:"status" validate:"required,oneof=present absent late"`
}

// SaveAttendance is the full register of a course for one day.
type SaveAttendance struct {
	Date    string        `json:"date" validate:"required,isodate"`
	Records []RecordInput `json:"records" validate:"required,min=1,dive"`
}

func (sa *SaveAttendance) Validate() (time.Time, error) {
	sa.Date = core.CleanString(sa.Date)
	if err := core.Validate.Struct(sa); err != nil {
		return time.Time{}, err
	}
	seen := make(map[string]bool, len(sa.Records))
	for _, r := range sa.Records {
		if seen[r.StudentID] {
			return time.Time{}, core.NewFieldValidationError("records", "each student may only appear once")
		}
		seen[r.StudentID] = true
	}
	return core.ParseDate(sa.Date)
}

// Filter applies AND on its set fields.
type Filter struct {
	CourseID  string
	StudentID string
	Date      time.Time // zero for any date
}

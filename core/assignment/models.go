package assignment

import (
	"math"
	"time"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
)

// DueSoonDays is how many days before its deadline an assignment becomes due soon.
const DueSoonDays = 3

type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusDueSoon  Status = "due_soon"
	StatusOverdue  Status = "overdue"
)

// DeadlineStatus classifies deadline relative to now: overdue once passed, due soon when at most
// DueSoonDays days remain (partial days count as whole days), upcoming otherwise.
func DeadlineStatus(deadline, now time.Time) Status {
	if deadline.Before(now) {
		return StatusOverdue
	}
	days := math.Ceil(deadline.Sub(now).Hours() / 24)
	if days <= DueSoonDays {
		return StatusDueSoon
	}
	return StatusUpcoming
}

type Assignment struct {
	ID          string    `json:"id"`
	CourseID    string    `json:"course_id"`
	TeacherID   string    `json:"teacher_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Deadline    time.Time `json:"deadline"`
	FileURL     string    `json:"file_url,omitempty"`
	FileName    string    `json:"file_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"` // UTC

	// joined, read only
	CourseName string `json:"course_name,omitempty"`
}

// Submission is a student's answer to an assignment. There is at most one per (assignment, student).
type Submission struct {
	ID           string     `json:"id"`
	AssignmentID string     `json:"assignment_id"`
	StudentID    string     `json:"student_id"`
	TextAnswer   string     `json:"text_answer,omitempty"`
	FilePath     string     `json:"file_path,omitempty"` // in the submissions bucket
	FileName     string     `json:"file_name,omitempty"`
	Marks        *float64   `json:"marks"`
	Feedback     string     `json:"feedback,omitempty"`
	SubmittedAt  time.Time  `json:"submitted_at"`
	GradedAt     *time.Time `json:"graded_at"`

	// joined, read only
	StudentName        string `json:"student_name,omitempty"`
	RegistrationNumber string `json:"registration_number,omitempty"`
}

func (s Submission) IsGraded() bool { return s.GradedAt != nil }

// View is an assignment with its deadline status and, for students, their own submission.
type View struct {
	Assignment

	Status     Status      `json:"status"`
	Submission *Submission `json:"submission,omitempty"`
}

type NewAssignment struct {
	CourseID    string `json:"course_id" validate:"required"`
	Title       string `json:"title" validate:"required,notblank"`
	Description string `json:"description"`
	Deadline    string `json:"deadline" validate:"required"` // RFC 3339

	File *core.Upload `json:"-"`
}

func (na *NewAssignment) Validate() (time.Time, error) {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	if err := core.Validate.Struct(na); err != nil {
		return time.Time{}, err
	}
	deadline, err := time.Parse(time.RFC3339, core.CleanString(na.Deadline))
	if err != nil {
		return time.Time{}, core.NewFieldValidationError("deadline", "must be a valid ISO-8601 date and time")
	}
	return deadline, nil
}

type SubmitAnswer struct {
	TextAnswer string       `json:"text_answer"`
	File       *core.Upload `json:"-"`
}

type GradeSubmission struct {
	Marks    float64 `json:"marks" validate:"gte=0"`
	Feedback string  `json:"feedback"`
}

// Filter applies AND on its set fields. CourseIDs, when non nil, restricts to those courses.
type Filter struct {
	CourseIDs []string
}

// SubmissionFilter applies AND on its set fields.
type SubmissionFilter struct {
	AssignmentID string
	StudentID    string
}

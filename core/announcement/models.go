package announcement

import (
	"time"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
)

type Audience string

const (
	AudienceStudents Audience = "students"
	AudienceParents  Audience = "parents"
	AudienceBoth     Audience = "both"
)

func (a Audience) Students() bool { return a == AudienceStudents || a == AudienceBoth }
func (a Audience) Parents() bool  { return a == AudienceParents || a == AudienceBoth }

type Announcement struct {
	ID        string    `json:"id"`
	TeacherID string    `json:"teacher_id"`
	CourseID  string    `json:"course_id,omitempty"` // "" for every student
	Audience  Audience  `json:"audience"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"` // UTC

	// joined, read only
	TeacherName string `json:"teacher_name,omitempty"`
	CourseName  string `json:"course_name,omitempty"`
}

// NewAnnouncement must target exactly one of a course or all students.
type NewAnnouncement struct {
	Title       string   `json:"title" validate:"required,notblank,max=200"`
	Content     string   `json:"content" validate:"required,notblank"`
	Audience    Audience `json:"audience" validate:"required,oneof=students parents both"`
	CourseID    string   `json:"course_id"`
	AllStudents bool     `json:"all_students"`
}

func (na *NewAnnouncement) Validate() error {
	na.Title = core.CleanString(na.Title)
	na.Content = core.CleanString(na.Content)
	na.CourseID = core.CleanString(na.CourseID)
	if err := core.Validate.Struct(na); err != nil {
		return err
	}
	if (na.CourseID != "") == na.AllStudents {
		return core.NewFieldValidationError("course_id", "choose either a course or all students")
	}
	return nil
}

// Filter selects the announcements visible to a reader: those of the given audiences that
// are either not course restricted or restricted to one of CourseIDs.
type Filter struct {
	Audiences []Audience
	CourseIDs []string
}

// Recipients selects who is notified of an announcement.
type Recipients struct {
	CourseID string // "" for every student
	Students bool
	Parents  bool
}

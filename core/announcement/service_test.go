package announcement_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
	"github.com/saadqamar22/LMS-2.0-sub000/core/announcement"
	"github.com/saadqamar22/LMS-2.0-sub000/core/user"
	"github.com/saadqamar22/LMS-2.0-sub000/tests"
)

func ids(anns []announcement.Announcement) []string {
	res := make([]string, 0, len(anns))
	for _, a := range anns {
		res = append(res, a.ID)
	}
	return res
}

func TestService(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv()
	svc := env.AnnouncementService()

	teacher := env.CreateTeacher(t, "Tom Lee", "tom@school.test", "E-001")
	other := env.CreateTeacher(t, "Tia Kay", "tia@school.test", "E-002")
	alice := env.CreateStudent(t, "Alice Doe", "alice@school.test", "R-001")
	bob := env.CreateStudent(t, "Bob Roe", "bob@school.test", "R-002")
	pam := env.CreateParent(t, "Pam Doe", "pam@school.test", alice)
	pete := env.CreateParent(t, "Pete Roe", "pete@school.test", bob)
	lone := env.CreateParent(t, "Lou Nil", "lou@school.test")
	physics := env.CreateCourse(t, teacher, "Physics", "PHY_101")
	env.Enroll(t, alice, physics)

	create := func(na announcement.NewAnnouncement) announcement.Announcement {
		ann, err := svc.Create(ctx, teacher.Principal(), na)
		require.NoError(t, err)
		return ann
	}
	quiz := create(announcement.NewAnnouncement{Title: "Quiz on Monday", Content: "Chapters 1-3", Audience: announcement.AudienceStudents, CourseID: physics.ID})
	meeting := create(announcement.NewAnnouncement{Title: "Parents meeting", Content: "Friday 5pm", Audience: announcement.AudienceParents, AllStudents: true})
	trip := create(announcement.NewAnnouncement{Title: "Field trip", Content: "Museum visit", Audience: announcement.AudienceBoth, CourseID: physics.ID})

	assert.Equal(t, "Tom Lee", quiz.TeacherName)
	assert.Equal(t, "Physics", quiz.CourseName)
	assert.Empty(t, meeting.CourseID)

	t.Run("notifications", func(t *testing.T) {
		sent := env.Mail.SentMessages()
		require.Len(t, sent, 3)

		emails := func(msg core.EmailMessage) []string {
			res := make([]string, 0, len(msg.Bcc))
			for _, a := range msg.Bcc {
				res = append(res, a.Address)
			}
			return res
		}
		assert.Equal(t, []string{"alice@school.test"}, emails(sent[0]))
		assert.Empty(t, sent[0].To)
		assert.Equal(t, "Quiz on Monday", sent[0].Subject)
		assert.Contains(t, sent[0].TextContent, "Chapters 1-3")
		assert.Equal(t, []string{"pam@school.test", "pete@school.test"}, emails(sent[1]))
		assert.Equal(t, []string{"alice@school.test", "pam@school.test"}, emails(sent[2]))
	})

	t.Run("visibility", func(t *testing.T) {
		tests := []struct {
			name     string
			fetch    func() ([]announcement.Announcement, error)
			expected []string
		}{
			{"enrolled student", func() ([]announcement.Announcement, error) { return svc.ForStudent(ctx, alice.Principal()) }, []string{trip.ID, quiz.ID}},
			{"student of no course", func() ([]announcement.Announcement, error) { return svc.ForStudent(ctx, bob.Principal()) }, []string{}},
			{"parent of enrolled student", func() ([]announcement.Announcement, error) { return svc.ForParent(ctx, pam.Principal()) }, []string{trip.ID, meeting.ID}},
			{"parent of other student", func() ([]announcement.Announcement, error) { return svc.ForParent(ctx, pete.Principal()) }, []string{meeting.ID}},
			{"parent without children", func() ([]announcement.Announcement, error) { return svc.ForParent(ctx, lone.Principal()) }, []string{meeting.ID}},
			{"author", func() ([]announcement.Announcement, error) { return svc.TeacherAnnouncements(ctx, teacher.Principal()) }, []string{trip.ID, meeting.ID, quiz.ID}},
			{"other teacher", func() ([]announcement.Announcement, error) { return svc.TeacherAnnouncements(ctx, other.Principal()) }, []string{}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				anns, err := tt.fetch()
				require.NoError(t, err)
				assert.Equal(t, tt.expected, ids(anns))
			})
		}

		_, err := svc.ForStudent(ctx, pam.Principal())
		assert.True(t, core.IsPermissionDenied(err))
		_, err = svc.ForParent(ctx, alice.Principal())
		assert.True(t, core.IsPermissionDenied(err))
		_, err = svc.TeacherAnnouncements(ctx, alice.Principal())
		assert.True(t, core.IsPermissionDenied(err))
	})

	t.Run("errors", func(t *testing.T) {
		valid := announcement.NewAnnouncement{Title: "Hello", Content: "World", Audience: announcement.AudienceStudents, CourseID: physics.ID}
		with := func(fn func(na *announcement.NewAnnouncement)) announcement.NewAnnouncement {
			na := valid
			fn(&na)
			return na
		}

		tests := []struct {
			name    string
			actor   user.User
			na      announcement.NewAnnouncement
			checkFn func(error) bool
		}{
			{"student", alice, valid, core.IsPermissionDenied},
			{"parent", pam, valid, core.IsPermissionDenied},
			{"not the course teacher", other, valid, core.IsPermissionDenied},
			{"unknown course", teacher, with(func(na *announcement.NewAnnouncement) { na.CourseID = "missing" }), core.IsNotFound},
			{"course and all students", teacher, with(func(na *announcement.NewAnnouncement) { na.AllStudents = true }), core.IsValidation},
			{"no target", teacher, with(func(na *announcement.NewAnnouncement) { na.CourseID = " " }), core.IsValidation},
			{"invalid audience", teacher, with(func(na *announcement.NewAnnouncement) { na.Audience = "everyone" }), core.IsValidation},
			{"blank title", teacher, with(func(na *announcement.NewAnnouncement) { na.Title = "  " }), core.IsValidation},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.Create(ctx, tt.actor.Principal(), tt.na)
				assert.True(t, tt.checkFn(err), "unexpected error: %v", err)
			})
		}

		_, err := svc.Create(ctx, nil, valid)
		assert.True(t, core.IsUnauthenticated(err))
		assert.Len(t, env.Mail.SentMessages(), 3)
	})
}

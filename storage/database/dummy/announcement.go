package dummydb

import (
	"context"
	"net/mail"
	"sort"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
	"github.com/saadqamar22/LMS-2.0-sub000/core/announcement"
	"github.com/saadqamar22/LMS-2.0-sub000/core/course"
)

type announcementRepository struct {
	db *DB
}

var _ announcement.Repository = (*announcementRepository)(nil) // interface compliance check

func NewAnnouncementRepository(db *DB) announcement.Repository {
	return &announcementRepository{db: db}
}

func (t *tables) announcement(id string) announcement.Announcement {
	ann := t.announcements[id]
	ann.TeacherName = t.users[ann.TeacherID].FullName
	if ann.CourseID != "" {
		ann.CourseName = t.courses[ann.CourseID].Name
	}
	return ann
}

func (t *tables) newestAnnouncementsFirst(anns []announcement.Announcement) {
	sort.Slice(anns, func(i, j int) bool {
		if !anns[i].CreatedAt.Equal(anns[j].CreatedAt) {
			return anns[i].CreatedAt.After(anns[j].CreatedAt)
		}
		return t.ord[anns[i].ID] > t.ord[anns[j].ID]
	})
}

func (repo *announcementRepository) CreateAnnouncement(_ context.Context, ann announcement.Announcement, exec ...core.DBExecutor) (announcement.Announcement, error) {
	err := repo.db.write(exec, func(t *tables) error {
		if ann.CourseID != "" {
			if _, ok := t.courses[ann.CourseID]; !ok {
				return course.ErrNotFound
			}
		}
		ann.ID = t.newID()
		ann.TeacherName, ann.CourseName = "", ""
		t.announcements[ann.ID] = ann
		ann = t.announcement(ann.ID)
		return nil
	})
	if err != nil {
		return announcement.Announcement{}, err
	}
	return ann, nil
}

func (repo *announcementRepository) QueryVisible(_ context.Context, filter announcement.Filter, _ ...core.DBExecutor) ([]announcement.Announcement, error) {
	anns := make([]announcement.Announcement, 0)
	repo.db.read(func(t *tables) {
		for id, a := range t.announcements {
			if filter.Audiences != nil && !hasAudience(filter.Audiences, a.Audience) {
				continue
			}
			if a.CourseID != "" && !contains(filter.CourseIDs, a.CourseID) {
				continue
			}
			anns = append(anns, t.announcement(id))
		}
		t.newestAnnouncementsFirst(anns)
	})
	return anns, nil
}

func (repo *announcementRepository) QueryByTeacher(_ context.Context, teacherID string, _ ...core.DBExecutor) ([]announcement.Announcement, error) {
	anns := make([]announcement.Announcement, 0)
	repo.db.read(func(t *tables) {
		for id, a := range t.announcements {
			if a.TeacherID == teacherID {
				anns = append(anns, t.announcement(id))
			}
		}
		t.newestAnnouncementsFirst(anns)
	})
	return anns, nil
}

func (repo *announcementRepository) RecipientAddresses(_ context.Context, rcpt announcement.Recipients, _ ...core.DBExecutor) ([]mail.Address, error) {
	seen := make(map[string]bool)
	addrs := make([]mail.Address, 0)
	add := func(t *tables, id string) {
		usr, ok := t.users[id]
		if !ok || !usr.IsActive || seen[usr.Email] {
			return
		}
		seen[usr.Email] = true
		addrs = append(addrs, usr.MailAddress())
	}

	repo.db.read(func(t *tables) {
		for id, st := range t.students {
			if rcpt.CourseID != "" && !t.enrolled(id, rcpt.CourseID) {
				continue
			}
			if rcpt.Students {
				add(t, id)
			}
			if rcpt.Parents && st.ParentID != "" {
				add(t, st.ParentID)
			}
		}
	})
	sort.Slice(addrs, func(i, j int) bool { return addrs[i].Address < addrs[j].Address })
	return addrs, nil
}

func (t *tables) enrolled(studentID, courseID string) bool {
	for _, e := range t.enrollments {
		if e.StudentID == studentID && e.CourseID == courseID {
			return true
		}
	}
	return false
}

func hasAudience(audiences []announcement.Audience, a announcement.Audience) bool {
	for _, v := range audiences {
		if v == a {
			return true
		}
	}
	return false
}

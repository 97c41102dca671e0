package announcement

import (
	"context"
	"net/mail"
	"time"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
	"github.com/saadqamar22/LMS-2.0-sub000/core/authz"
	"github.com/saadqamar22/LMS-2.0-sub000/core/course"
	"github.com/saadqamar22/LMS-2.0-sub000/core/user"
)

const announcementTmpl = "announcement"

type (
	Repository interface {
		CreateAnnouncement(ctx context.Context, ann Announcement, exec ...core.DBExecutor) (Announcement, error)
		// QueryVisible returns the announcements matching filter, newest first.
		QueryVisible(ctx context.Context, filter Filter, exec ...core.DBExecutor) ([]Announcement, error)
		// QueryByTeacher returns a teacher's announcements, newest first.
		QueryByTeacher(ctx context.Context, teacherID string, exec ...core.DBExecutor) ([]Announcement, error)
		// RecipientAddresses returns the deduplicated email addresses of the recipients.
		RecipientAddresses(ctx context.Context, rcpt Recipients, exec ...core.DBExecutor) ([]mail.Address, error)
	}

	Service struct {
		repo    Repository
		access  course.Access
		users   user.Repository
		mailSvc core.EmailService
		logger  core.Logger
		guard   authz.Guard
	}
)

func NewService(repo Repository, courses course.Repository, users user.Repository, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{
		repo:    repo,
		access:  course.NewAccess(courses),
		users:   users,
		mailSvc: mailSvc,
		logger:  logger,
	}
}

func (svc *Service) storeError(err error, action string) error {
	err = core.WrapStoreError(err, action)
	if core.IsStoreFailure(err) {
		svc.logger.Error("announcement: "+err.Error(), err)
	}
	return err
}

// Create publishes an announcement and emails its recipients.
// A notification failure is logged and does not fail the operation.
func (svc *Service) Create(ctx context.Context, p *authz.Principal, na NewAnnouncement) (Announcement, error) {
	if err := svc.guard.Check(p, authz.Write, authz.RoleResource(authz.RoleTeacher)); err != nil {
		return Announcement{}, err
	}
	if err := na.Validate(); err != nil {
		return Announcement{}, err
	}

	var courseName string
	if na.CourseID != "" {
		crs, err := svc.access.Course(ctx, p, authz.Write, authz.CourseResource, na.CourseID)
		if err != nil {
			return Announcement{}, svc.storeError(err, "create announcement")
		}
		courseName = crs.Name
	}

	ann, err := svc.repo.CreateAnnouncement(ctx, Announcement{
		TeacherID: p.UserID,
		CourseID:  na.CourseID,
		Audience:  na.Audience,
		Title:     na.Title,
		Content:   na.Content,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return Announcement{}, svc.storeError(err, "create announcement")
	}
	ann.TeacherName = p.FullName
	ann.CourseName = courseName

	svc.notify(ctx, ann)
	return ann, nil
}

func (svc *Service) notify(ctx context.Context, ann Announcement) {
	addrs, err := svc.repo.RecipientAddresses(ctx, Recipients{
		CourseID: ann.CourseID,
		Students: ann.Audience.Students(),
		Parents:  ann.Audience.Parents(),
	})
	if err != nil {
		svc.logger.Error("announcement.notify: "+err.Error(), err, map[string]interface{}{"announcement_id": ann.ID})
		return
	}
	if len(addrs) == 0 {
		return
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		Bcc:          addrs,
		Subject:      ann.Title,
		TemplateName: announcementTmpl,
		TemplateData: map[string]interface{}{
			"Title":       ann.Title,
			"Content":     ann.Content,
			"TeacherName": ann.TeacherName,
			"CourseName":  ann.CourseName,
		},
	})
}

// ForStudent returns the announcements addressed to students that are either for every student
// or restricted to a course the calling student is enrolled in.
func (svc *Service) ForStudent(ctx context.Context, p *authz.Principal) ([]Announcement, error) {
	if err := svc.guard.Check(p, authz.Read, authz.RoleResource(authz.RoleStudent)); err != nil {
		return nil, err
	}
	return svc.visible(ctx, []string{p.UserID}, AudienceStudents)
}

// ForParent returns the announcements addressed to parents that are either for every student or
// restricted to a course one of the calling parent's children is enrolled in.
func (svc *Service) ForParent(ctx context.Context, p *authz.Principal) ([]Announcement, error) {
	if err := svc.guard.Check(p, authz.Read, authz.RoleResource(authz.RoleParent)); err != nil {
		return nil, err
	}
	children, err := svc.users.QueryStudents(ctx, user.StudentFilter{ParentID: p.UserID})
	if err != nil {
		return nil, svc.storeError(err, "load announcements")
	}
	ids := make([]string, 0, len(children))
	for _, c := range children {
		ids = append(ids, c.UserID)
	}
	return svc.visible(ctx, ids, AudienceParents)
}

// TeacherAnnouncements returns the calling teacher's announcements.
func (svc *Service) TeacherAnnouncements(ctx context.Context, p *authz.Principal) ([]Announcement, error) {
	if err := svc.guard.Check(p, authz.Read, authz.RoleResource(authz.RoleTeacher)); err != nil {
		return nil, err
	}
	anns, err := svc.repo.QueryByTeacher(ctx, p.UserID)
	if err != nil {
		return nil, svc.storeError(err, "load announcements")
	}
	return anns, nil
}

func (svc *Service) visible(ctx context.Context, studentIDs []string, audience Audience) ([]Announcement, error) {
	courseIDs, err := svc.access.EnrolledCourseIDs(ctx, studentIDs)
	if err != nil {
		return nil, svc.storeError(err, "load announcements")
	}
	anns, err := svc.repo.QueryVisible(ctx, Filter{
		Audiences: []Audience{audience, AudienceBoth},
		CourseIDs: courseIDs,
	})
	if err != nil {
		return nil, svc.storeError(err, "load announcements")
	}
	return anns, nil
}

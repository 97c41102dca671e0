package assignment

import (
	"context"
	"math"
	"path"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
	"github.com/saadqamar22/LMS-2.0-sub000/core/authz"
	"github.com/saadqamar22/LMS-2.0-sub000/core/course"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("assignment")
	ErrSubmissionNotFound = core.NewNotFoundError("submission")
	ErrEmptySubmission    = core.NewValidationError(errors.New("a text answer or a file is required"))

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateAssignment(ctx context.Context, asg Assignment, exec ...core.DBExecutor) (Assignment, error)
		GetAssignment(ctx context.Context, id string, exec ...core.DBExecutor) (Assignment, error)
		// SetAssignmentFile sets the file reference of an assignment.
		SetAssignmentFile(ctx context.Context, id, fileURL, fileName string, exec ...core.DBExecutor) (Assignment, error)
		// QueryAssignments returns assignments by deadline, soonest first.
		QueryAssignments(ctx context.Context, filter Filter, exec ...core.DBExecutor) ([]Assignment, error)

		// UpsertSubmission creates the (assignment, student) submission, or overwrites its answer,
		// file and submitted_at. Marks, feedback and graded_at are left untouched.
		UpsertSubmission(ctx context.Context, sub Submission, exec ...core.DBExecutor) (Submission, error)
		GetSubmission(ctx context.Context, id string, exec ...core.DBExecutor) (Submission, error)
		// QuerySubmissions returns submissions latest first.
		QuerySubmissions(ctx context.Context, filter SubmissionFilter, exec ...core.DBExecutor) ([]Submission, error)
		GradeSubmission(ctx context.Context, id string, marks float64, feedback string, gradedAt time.Time, exec ...core.DBExecutor) (Submission, error)
	}

	Service struct {
		repo    Repository
		courses course.Repository
		access  course.Access
		blobs   core.BlobStore
		logger  core.Logger
		guard   authz.Guard
		conf    core.StorageConfig
	}
)

func NewService(repo Repository, courses course.Repository, blobs core.BlobStore, logger core.Logger, conf *core.Config) *Service {
	return &Service{
		repo:    repo,
		courses: courses,
		access:  course.NewAccess(courses),
		blobs:   blobs,
		logger:  logger,
		conf:    conf.Storage,
	}
}

func (svc *Service) storeError(err error, action string) error {
	err = core.WrapStoreError(err, action)
	if core.IsStoreFailure(err) {
		svc.logger.Error("assignment: "+err.Error(), err)
	}
	return err
}

// CreateAssignment creates an assignment in a course owned by the caller, uploading its file if any.
func (svc *Service) CreateAssignment(ctx context.Context, p *authz.Principal, na NewAssignment) (Assignment, error) {
	crs, err := svc.access.Course(ctx, p, authz.Write, authz.AssignmentResource, na.CourseID)
	if err != nil {
		return Assignment{}, svc.storeError(err, "create assignment")
	}
	deadline, err := na.Validate()
	if err != nil {
		return Assignment{}, err
	}

	asg, err := svc.repo.CreateAssignment(ctx, Assignment{
		CourseID:    crs.ID,
		TeacherID:   p.UserID,
		Title:       na.Title,
		Description: na.Description,
		Deadline:    deadline,
		CreatedAt:   nowFunc().UTC(),
	})
	if err != nil {
		return Assignment{}, svc.storeError(err, "create assignment")
	}
	asg.CourseName = crs.Name

	if na.File != nil {
		return svc.attach(ctx, asg, *na.File)
	}
	return asg, nil
}

// AttachFile uploads the file of an assignment, replacing the previous reference.
func (svc *Service) AttachFile(ctx context.Context, p *authz.Principal, assignmentID string, file core.Upload) (Assignment, error) {
	asg, _, err := svc.assignment(ctx, p, authz.Write, assignmentID)
	if err != nil {
		return Assignment{}, err
	}
	return svc.attach(ctx, asg, file)
}

func (svc *Service) attach(ctx context.Context, asg Assignment, file core.Upload) (Assignment, error) {
	name, err := cleanFilename(file.Filename)
	if err != nil {
		return Assignment{}, err
	}
	key := path.Join(asg.CourseID, asg.ID, name)
	if err = svc.blobs.Put(ctx, svc.conf.AssignmentsBucket, key, file.Content, file.ContentType); err != nil {
		return Assignment{}, svc.storeError(err, "upload assignment file")
	}

	courseName := asg.CourseName
	asg, err = svc.repo.SetAssignmentFile(ctx, asg.ID, svc.blobs.PublicURL(svc.conf.AssignmentsBucket, key), name)
	if err != nil {
		return Assignment{}, svc.storeError(err, "attach assignment file")
	}
	asg.CourseName = courseName
	return asg, nil
}

// GetAssignment returns an assignment to its course teacher, admins and enrolled students.
// Students also get their own submission.
func (svc *Service) GetAssignment(ctx context.Context, p *authz.Principal, id string) (View, error) {
	asg, _, err := svc.assignment(ctx, p, authz.Read, id)
	if err != nil {
		return View{}, err
	}
	views, err := svc.views(ctx, p, []Assignment{asg})
	if err != nil {
		return View{}, err
	}
	return views[0], nil
}

// CourseAssignments lists the assignments of a course to its teacher, admins and enrolled students.
func (svc *Service) CourseAssignments(ctx context.Context, p *authz.Principal, courseID string) ([]View, error) {
	if _, err := svc.courseMember(ctx, p, courseID); err != nil {
		return nil, err
	}
	asgs, err := svc.repo.QueryAssignments(ctx, Filter{CourseIDs: []string{courseID}})
	if err != nil {
		return nil, svc.storeError(err, "load assignments")
	}
	return svc.views(ctx, p, asgs)
}

// StudentAssignments lists the assignments of every course the calling student is enrolled in.
func (svc *Service) StudentAssignments(ctx context.Context, p *authz.Principal) ([]View, error) {
	if err := svc.guard.Check(p, authz.Read, authz.RoleResource(authz.RoleStudent)); err != nil {
		return nil, err
	}
	courseIDs, err := svc.access.EnrolledCourseIDs(ctx, []string{p.UserID})
	if err != nil {
		return nil, svc.storeError(err, "load assignments")
	}
	if len(courseIDs) == 0 {
		return []View{}, nil
	}
	asgs, err := svc.repo.QueryAssignments(ctx, Filter{CourseIDs: courseIDs})
	if err != nil {
		return nil, svc.storeError(err, "load assignments")
	}
	return svc.views(ctx, p, asgs)
}

// Submit creates or replaces the calling student's submission to an assignment.
// A previous grade is kept, only the answer and submitted_at change.
func (svc *Service) Submit(ctx context.Context, p *authz.Principal, assignmentID string, ans SubmitAnswer) (Submission, error) {
	if err := svc.guard.Check(p, authz.Write, authz.RoleResource(authz.RoleStudent)); err != nil {
		return Submission{}, err
	}
	asg, err := svc.repo.GetAssignment(ctx, assignmentID)
	if err != nil {
		return Submission{}, svc.storeError(err, "submit assignment")
	}
	enrolled, err := svc.access.IsEnrolled(ctx, p.UserID, asg.CourseID)
	if err != nil {
		return Submission{}, svc.storeError(err, "submit assignment")
	}
	if !enrolled {
		return Submission{}, core.NewPermissionError("you are not enrolled in this course")
	}

	ans.TextAnswer = strings.TrimSpace(ans.TextAnswer)
	if ans.TextAnswer == "" && ans.File == nil {
		return Submission{}, ErrEmptySubmission
	}

	sub := Submission{
		AssignmentID: asg.ID,
		StudentID:    p.UserID,
		TextAnswer:   ans.TextAnswer,
		SubmittedAt:  nowFunc().UTC(),
	}
	if ans.File != nil {
		name, err := cleanFilename(ans.File.Filename)
		if err != nil {
			return Submission{}, err
		}
		sub.FilePath = SubmissionPath(asg.ID, p.UserID, name)
		sub.FileName = name
		if err = svc.blobs.Put(ctx, svc.conf.SubmissionsBucket, sub.FilePath, ans.File.Content, ans.File.ContentType); err != nil {
			return Submission{}, svc.storeError(err, "upload submission file")
		}
	}

	saved, err := svc.repo.UpsertSubmission(ctx, sub)
	if err != nil {
		if sub.FilePath != "" {
			if derr := svc.blobs.Delete(ctx, svc.conf.SubmissionsBucket, sub.FilePath); derr != nil {
				svc.logger.Error("assignment: removing submission file: "+derr.Error(), derr)
			}
		}
		return Submission{}, svc.storeError(err, "submit assignment")
	}
	return saved, nil
}

// Grade sets the marks and feedback of a submission. Teacher of the assignment's course only.
func (svc *Service) Grade(ctx context.Context, p *authz.Principal, submissionID string, gs GradeSubmission) (Submission, error) {
	if err := authz.RequirePrincipal(p); err != nil {
		return Submission{}, err
	}
	sub, err := svc.repo.GetSubmission(ctx, submissionID)
	if err != nil {
		return Submission{}, svc.storeError(err, "grade submission")
	}
	asg, err := svc.repo.GetAssignment(ctx, sub.AssignmentID)
	if err != nil {
		return Submission{}, svc.storeError(err, "grade submission")
	}
	if _, err = svc.access.Course(ctx, p, authz.Write, authz.AssignmentResource, asg.CourseID); err != nil {
		return Submission{}, svc.storeError(err, "grade submission")
	}

	gs.Feedback = strings.TrimSpace(gs.Feedback)
	if math.IsNaN(gs.Marks) {
		return Submission{}, core.NewFieldValidationError("marks", "must be a number")
	}
	if err = core.Validate.Struct(gs); err != nil {
		return Submission{}, err
	}

	if sub, err = svc.repo.GradeSubmission(ctx, sub.ID, gs.Marks, gs.Feedback, nowFunc().UTC()); err != nil {
		return Submission{}, svc.storeError(err, "grade submission")
	}
	return sub, nil
}

// AssignmentSubmissions lists the submissions to an assignment. Course teacher only.
func (svc *Service) AssignmentSubmissions(ctx context.Context, p *authz.Principal, assignmentID string) ([]Submission, error) {
	asg, _, err := svc.assignment(ctx, p, authz.Read, assignmentID)
	if err != nil {
		return nil, err
	}
	if p.IsStudent() {
		return nil, core.NewPermissionError("only the teacher of this course can access its submissions")
	}
	subs, err := svc.repo.QuerySubmissions(ctx, SubmissionFilter{AssignmentID: asg.ID})
	if err != nil {
		return nil, svc.storeError(err, "load submissions")
	}
	return subs, nil
}

// SignedSubmissionURL returns a short-lived URL to a submission file. The owning student is read
// from the path, so students are checked without a lookup; teachers must own the assignment's course.
func (svc *Service) SignedSubmissionURL(ctx context.Context, p *authz.Principal, filePath string) (string, error) {
	if err := authz.RequirePrincipal(p); err != nil {
		return "", err
	}
	studentID, ok := authz.SubmissionPathOwner(filePath)
	if !ok {
		return "", core.NewFieldValidationError("path", "invalid submission file path")
	}
	filePath = strings.TrimPrefix(filePath, "/")

	var teacherID string
	if !p.IsStudent() {
		assignmentID := strings.SplitN(filePath, "/", 2)[0]
		asg, err := svc.repo.GetAssignment(ctx, assignmentID)
		if err != nil {
			return "", svc.storeError(err, "sign submission URL")
		}
		crs, err := svc.courses.GetCourse(ctx, asg.CourseID)
		if err != nil {
			return "", svc.storeError(err, "sign submission URL")
		}
		teacherID = crs.TeacherID
	}
	if err := svc.guard.Check(p, authz.Read, authz.SubmissionResource(studentID, teacherID)); err != nil {
		return "", err
	}

	url, err := svc.blobs.SignedURL(ctx, svc.conf.SubmissionsBucket, filePath, svc.conf.SignedURLExpiry)
	if err != nil {
		return "", svc.storeError(err, "sign submission URL")
	}
	return url, nil
}

// assignment loads an assignment and checks access: writes need the course teacher,
// reads are also open to admins and enrolled students.
func (svc *Service) assignment(ctx context.Context, p *authz.Principal, act authz.Action, id string) (Assignment, course.Course, error) {
	if err := authz.RequirePrincipal(p); err != nil {
		return Assignment{}, course.Course{}, err
	}
	asg, err := svc.repo.GetAssignment(ctx, id)
	if err != nil {
		return Assignment{}, course.Course{}, svc.storeError(err, "load assignment")
	}

	var crs course.Course
	if act == authz.Write {
		crs, err = svc.access.Course(ctx, p, act, authz.AssignmentResource, asg.CourseID)
	} else {
		crs, err = svc.courseMember(ctx, p, asg.CourseID)
	}
	if err != nil {
		return Assignment{}, course.Course{}, svc.storeError(err, "load assignment")
	}
	asg.CourseName = crs.Name
	return asg, crs, nil
}

// courseMember allows the course teacher, admins and enrolled students.
func (svc *Service) courseMember(ctx context.Context, p *authz.Principal, courseID string) (course.Course, error) {
	if !p.IsStudent() {
		crs, err := svc.access.Course(ctx, p, authz.Read, authz.AssignmentResource, courseID)
		return crs, svc.storeError(err, "load course")
	}

	crs, err := svc.courses.GetCourse(ctx, courseID)
	if err != nil {
		return course.Course{}, svc.storeError(err, "load course")
	}
	enrolled, err := svc.access.IsEnrolled(ctx, p.UserID, courseID)
	if err != nil {
		return course.Course{}, svc.storeError(err, "load course")
	}
	if !enrolled {
		return course.Course{}, core.NewPermissionError("you are not enrolled in this course")
	}
	return crs, nil
}

// views adds the deadline status and, for students, their submission to each assignment.
func (svc *Service) views(ctx context.Context, p *authz.Principal, asgs []Assignment) ([]View, error) {
	own := make(map[string]Submission)
	if p.IsStudent() && len(asgs) > 0 {
		subs, err := svc.repo.QuerySubmissions(ctx, SubmissionFilter{StudentID: p.UserID})
		if err != nil {
			return nil, svc.storeError(err, "load submissions")
		}
		for _, s := range subs {
			own[s.AssignmentID] = s
		}
	}

	now := nowFunc()
	views := make([]View, 0, len(asgs))
	for _, asg := range asgs {
		v := View{Assignment: asg, Status: DeadlineStatus(asg.Deadline, now)}
		if s, ok := own[asg.ID]; ok {
			s := s
			v.Submission = &s
		}
		views = append(views, v)
	}
	return views, nil
}

// SubmissionPath is the object path of a submission file: `<assignmentID>/<studentID>/<filename>`.
func SubmissionPath(assignmentID, studentID, filename string) string {
	return path.Join(assignmentID, studentID, filename)
}

func cleanFilename(name string) (string, error) {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "" || name == "." || name == "/" || name == ".." {
		return "", core.NewFieldValidationError("file", "invalid file name")
	}
	return name, nil
}

package attendance

import (
	"context"
	"sort"
	"time"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
	"github.com/saadqamar22/LMS-2.0-sub000/core/authz"
	"github.com/saadqamar22/LMS-2.0-sub000/core/course"
	"github.com/saadqamar22/LMS-2.0-sub000/core/stats"
	"github.com/saadqamar22/LMS-2.0-sub000/core/user"
)

// ErrRecordExists is returned on a (student, course, date) uniqueness violation.
var ErrRecordExists = core.NewConflictError("attendance is already recorded for this student on this day")

type (
	Repository interface {
		// DeleteDay deletes every record of a course on date.
		DeleteDay(ctx context.Context, courseID string, date time.Time, exec ...core.DBExecutor) error
		InsertRecords(ctx context.Context, records []Record, exec ...core.DBExecutor) error
		// QueryRecords returns records newest first.
		QueryRecords(ctx context.Context, filter Filter, exec ...core.DBExecutor) ([]Entry, error)
	}

	Service struct {
		repo   Repository
		access course.Access
		users  user.Repository
		tx     core.Transactor
		logger core.Logger
		guard  authz.Guard
	}
)

func NewService(repo Repository, courses course.Repository, users user.Repository, tx core.Transactor, logger core.Logger) *Service {
	return &Service{
		repo:   repo,
		access: course.NewAccess(courses),
		users:  users,
		tx:     tx,
		logger: logger,
	}
}

func (svc *Service) storeError(err error, action string) error {
	err = core.WrapStoreError(err, action)
	if core.IsStoreFailure(err) {
		svc.logger.Error("attendance: "+err.Error(), err)
	}
	return err
}

// Save replaces the whole register of a course for a day: every existing record of that day is
// deleted and sa.Records inserted, in one transaction. Students left out lose their record.
func (svc *Service) Save(ctx context.Context, p *authz.Principal, courseID string, sa SaveAttendance) ([]Record, error) {
	crs, err := svc.access.Course(ctx, p, authz.Write, authz.AttendanceResource, courseID)
	if err != nil {
		return nil, svc.storeError(err, "save attendance")
	}
	date, err := sa.Validate()
	if err != nil {
		return nil, err
	}
	for _, r := range sa.Records {
		enrolled, err := svc.access.IsEnrolled(ctx, r.StudentID, crs.ID)
		if err != nil {
			return nil, svc.storeError(err, "save attendance")
		}
		if !enrolled {
			return nil, core.NewFieldValidationError("records", "student "+r.StudentID+" is not enrolled in this course")
		}
	}

	now := time.Now().UTC()
	records := make([]Record, 0, len(sa.Records))
	for _, r := range sa.Records {
		records = append(records, Record{
			StudentID: r.StudentID,
			CourseID:  crs.ID,
			Date:      date,
			Status:    r.Status,
			CreatedAt: now,
		})
	}

	err = svc.tx.WithinTx(ctx, func(exec core.DBExecutor) error {
		if err := svc.repo.DeleteDay(ctx, crs.ID, date, core.Execs(exec)...); err != nil {
			return err
		}
		return svc.repo.InsertRecords(ctx, records, core.Execs(exec)...)
	})
	if err != nil {
		return nil, svc.storeError(err, "save attendance")
	}
	return records, nil
}

// ForDate returns a course's register for a day, by student name. Course teacher only.
func (svc *Service) ForDate(ctx context.Context, p *authz.Principal, courseID, date string) ([]Entry, error) {
	crs, err := svc.access.Course(ctx, p, authz.Read, authz.AttendanceResource, courseID)
	if err != nil {
		return nil, svc.storeError(err, "load attendance")
	}
	day, err := core.ParseDate(date)
	if err != nil {
		return nil, core.NewFieldValidationError("date", "must be a valid date (YYYY-MM-DD)")
	}

	entries, err := svc.repo.QueryRecords(ctx, Filter{CourseID: crs.ID, Date: day})
	if err != nil {
		return nil, svc.storeError(err, "load attendance")
	}
	less := core.NameLess()
	sort.SliceStable(entries, func(i, j int) bool { return less(entries[i].StudentName, entries[j].StudentName) })
	return entries, nil
}

// History returns one summary per day attendance was taken in a course, newest first. Course teacher only.
func (svc *Service) History(ctx context.Context, p *authz.Principal, courseID string) ([]DaySummary, error) {
	crs, err := svc.access.Course(ctx, p, authz.Read, authz.AttendanceResource, courseID)
	if err != nil {
		return nil, svc.storeError(err, "load attendance history")
	}
	entries, err := svc.repo.QueryRecords(ctx, Filter{CourseID: crs.ID})
	if err != nil {
		return nil, svc.storeError(err, "load attendance history")
	}

	byDay := make(map[string]*DaySummary)
	days := make([]*DaySummary, 0)
	for _, e := range entries {
		key := e.Date.UTC().Format(core.DateLayout)
		ds, ok := byDay[key]
		if !ok {
			ds = &DaySummary{Date: e.Date.UTC()}
			byDay[key] = ds
			days = append(days, ds)
		}
		ds.add(e.Status)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.After(days[j].Date) })

	history := make([]DaySummary, 0, len(days))
	for _, ds := range days {
		history = append(history, *ds)
	}
	return history, nil
}

// StudentAttendance returns the calling student's attendance, optionally for one course.
func (svc *Service) StudentAttendance(ctx context.Context, p *authz.Principal, courseID string) (StudentReport, error) {
	if err := svc.guard.Check(p, authz.Read, authz.RoleResource(authz.RoleStudent)); err != nil {
		return StudentReport{}, err
	}
	return svc.report(ctx, p.UserID, courseID)
}

// ChildAttendance returns the attendance of a student linked to the calling parent, optionally for one course.
func (svc *Service) ChildAttendance(ctx context.Context, p *authz.Principal, studentID, courseID string) (StudentReport, error) {
	if err := svc.guard.Check(p, authz.Read, authz.RoleResource(authz.RoleParent, authz.RoleAdmin)); err != nil {
		return StudentReport{}, err
	}
	st, err := svc.users.GetStudent(ctx, studentID)
	if err != nil {
		return StudentReport{}, svc.storeError(err, "load attendance")
	}
	if err = svc.guard.Check(p, authz.Read, authz.StudentResource(st.UserID, st.ParentID)); err != nil {
		return StudentReport{}, err
	}
	return svc.report(ctx, st.UserID, courseID)
}

func (svc *Service) report(ctx context.Context, studentID, courseID string) (StudentReport, error) {
	entries, err := svc.repo.QueryRecords(ctx, Filter{StudentID: studentID, CourseID: courseID})
	if err != nil {
		return StudentReport{}, svc.storeError(err, "load attendance")
	}

	var ds DaySummary
	for _, e := range entries {
		ds.add(e.Status)
	}
	report := StudentReport{
		StudentID: studentID,
		Entries:   entries,
		Present:   ds.Present,
		Absent:    ds.Absent,
		Late:      ds.Late,
		Total:     ds.Total,
	}
	if ds.Total > 0 {
		report.Rate = stats.Round(float64(ds.Present+ds.Late) / float64(ds.Total) * 100)
	}
	return report, nil
}

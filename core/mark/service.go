package mark

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
	"github.com/saadqamar22/LMS-2.0-sub000/core/authz"
	"github.com/saadqamar22/LMS-2.0-sub000/core/course"
	"github.com/saadqamar22/LMS-2.0-sub000/core/grade"
	"github.com/saadqamar22/LMS-2.0-sub000/core/stats"
	"github.com/saadqamar22/LMS-2.0-sub000/core/user"
)

type (
	Repository interface {
		// UpsertMark inserts the mark, or updates the obtained marks of the existing (student, module) mark.
		UpsertMark(ctx context.Context, m Mark, exec ...core.DBExecutor) (Mark, error)
		// ModuleScores returns the obtained marks of every mark of the module.
		ModuleScores(ctx context.Context, moduleID string, exec ...core.DBExecutor) ([]float64, error)
		// SetModuleStatistics writes s on every mark of the module.
		SetModuleStatistics(ctx context.Context, moduleID string, s stats.Summary, exec ...core.DBExecutor) error
		// QueryMarks returns marks ordered by module creation, then mark creation.
		QueryMarks(ctx context.Context, filter Filter, exec ...core.DBExecutor) ([]Detail, error)
	}

	Service struct {
		repo    Repository
		courses course.Repository
		access  course.Access
		users   user.Repository
		tx      core.Transactor
		logger  core.Logger
		guard   authz.Guard
		pool    PoolStrategy
	}
)

func NewService(
	repo Repository,
	courses course.Repository,
	users user.Repository,
	tx core.Transactor,
	logger core.Logger,
	conf *core.Config,
) *Service {
	pool := RawPool
	if conf.Marks.CourseStatsNormalized {
		pool = NormalizedPool
	}
	return &Service{
		repo:    repo,
		courses: courses,
		access:  course.NewAccess(courses),
		users:   users,
		tx:      tx,
		logger:  logger,
		pool:    pool,
	}
}

func (svc *Service) storeError(err error, action string) error {
	err = core.WrapStoreError(err, action)
	if core.IsStoreFailure(err) {
		svc.logger.Error("mark: "+err.Error(), err)
	}
	return err
}

// SaveMark records a student's mark for a module, then recomputes the module statistics
// and writes them on every mark of the module. All of it happens in one transaction.
func (svc *Service) SaveMark(ctx context.Context, p *authz.Principal, nm NewMark) (Mark, error) {
	if err := authz.RequirePrincipal(p); err != nil {
		return Mark{}, err
	}
	if err := core.Validate.Struct(nm); err != nil {
		return Mark{}, err
	}

	mod, crs, err := svc.access.Module(ctx, p, authz.Write, nm.ModuleID)
	if err != nil {
		return Mark{}, svc.storeError(err, "save mark")
	}
	if math.IsNaN(nm.ObtainedMarks) || nm.ObtainedMarks < 0 || nm.ObtainedMarks > mod.TotalMarks {
		return Mark{}, core.NewFieldValidationError(
			"obtained_marks", fmt.Sprintf("obtained marks must be between 0 and %g", mod.TotalMarks))
	}

	if _, err = svc.users.GetStudent(ctx, nm.StudentID); err != nil {
		return Mark{}, svc.storeError(err, "save mark")
	}
	enrolled, err := svc.access.IsEnrolled(ctx, nm.StudentID, crs.ID)
	if err != nil {
		return Mark{}, svc.storeError(err, "save mark")
	}
	if !enrolled {
		return Mark{}, core.NewFieldValidationError("student_id", "this student is not enrolled in the course")
	}

	var saved Mark
	err = svc.tx.WithinTx(ctx, func(exec core.DBExecutor) error {
		now := time.Now().UTC()
		m, err := svc.repo.UpsertMark(ctx, Mark{
			StudentID:     nm.StudentID,
			ModuleID:      mod.ID,
			ObtainedMarks: nm.ObtainedMarks,
			CreatedAt:     now,
			UpdatedAt:     now,
		}, core.Execs(exec)...)
		if err != nil {
			return err
		}

		scores, err := svc.repo.ModuleScores(ctx, mod.ID, core.Execs(exec)...)
		if err != nil {
			return err
		}
		summary := stats.Compute(scores)
		if err = svc.repo.SetModuleStatistics(ctx, mod.ID, summary, core.Execs(exec)...); err != nil {
			return err
		}

		m.Statistics = summary
		saved = m
		return nil
	})
	if err != nil {
		return Mark{}, svc.storeError(err, "save mark")
	}
	return saved, nil
}

// MarksForModule returns a module's mark sheet, by student name, with statistics computed
// from the current marks rather than read from the stored copy.
func (svc *Service) MarksForModule(ctx context.Context, p *authz.Principal, courseID, moduleID string) (ModuleMarks, error) {
	mod, err := svc.courses.GetModule(ctx, moduleID)
	if err != nil {
		return ModuleMarks{}, svc.storeError(err, "load marks")
	}
	if mod.CourseID != courseID {
		return ModuleMarks{}, course.ErrModuleNotFound
	}
	if _, err := svc.access.Course(ctx, p, authz.Read, authz.MarksResource, courseID); err != nil {
		return ModuleMarks{}, svc.storeError(err, "load marks")
	}

	entries, err := svc.repo.QueryMarks(ctx, Filter{ModuleID: mod.ID})
	if err != nil {
		return ModuleMarks{}, svc.storeError(err, "load marks")
	}
	less := core.NameLess()
	sort.SliceStable(entries, func(i, j int) bool { return less(entries[i].StudentName, entries[j].StudentName) })

	scores := make([]float64, 0, len(entries))
	for _, e := range entries {
		scores = append(scores, e.ObtainedMarks)
	}
	return ModuleMarks{
		ModuleID:   mod.ID,
		ModuleName: mod.Name,
		TotalMarks: mod.TotalMarks,
		Entries:    entries,
		Statistics: stats.Compute(scores),
	}, nil
}

// CourseStatistics returns the stored statistics of each module of a course, and the course-wide
// average and standard deviation computed over the pool of the course's marks.
func (svc *Service) CourseStatistics(ctx context.Context, p *authz.Principal, courseID string) (CourseStatistics, error) {
	if _, err := svc.access.Course(ctx, p, authz.Read, authz.MarksResource, courseID); err != nil {
		return CourseStatistics{}, svc.storeError(err, "load course statistics")
	}

	mods, err := svc.courses.QueryModules(ctx, courseID)
	if err != nil {
		return CourseStatistics{}, svc.storeError(err, "load course statistics")
	}
	marks, err := svc.repo.QueryMarks(ctx, Filter{CourseID: courseID})
	if err != nil {
		return CourseStatistics{}, svc.storeError(err, "load course statistics")
	}

	byModule := make(map[string][]Detail, len(mods))
	for _, m := range marks {
		byModule[m.ModuleID] = append(byModule[m.ModuleID], m)
	}

	result := CourseStatistics{CourseID: courseID, Modules: make([]ModuleStatistics, 0, len(mods))}
	for _, mod := range mods {
		ms := ModuleStatistics{
			ModuleID:   mod.ID,
			ModuleName: mod.Name,
			TotalMarks: mod.TotalMarks,
			MarkCount:  len(byModule[mod.ID]),
		}
		if rows := byModule[mod.ID]; len(rows) > 0 {
			ms.Statistics = rows[0].Statistics
			ms.Statistics.Count = len(rows)
		}
		result.Modules = append(result.Modules, ms)
	}

	overall := stats.Compute(svc.pool(marks))
	result.Average = overall.Average
	result.StdDeviation = overall.StdDeviation
	result.MarkCount = len(marks)
	return result, nil
}

// StudentMarks returns a student's marks, optionally restricted to one course.
// Students see their own, parents their children's, admins anyone's and teachers the marks
// of their own courses only.
func (svc *Service) StudentMarks(ctx context.Context, p *authz.Principal, studentID, courseID string) ([]StudentMark, error) {
	marks, err := svc.visibleMarks(ctx, p, studentID, courseID)
	if err != nil {
		return nil, err
	}
	result := make([]StudentMark, 0, len(marks))
	for _, m := range marks {
		pct := stats.Round(grade.WeightedPercentage(m.ObtainedMarks, m.TotalMarks))
		result = append(result, StudentMark{
			Detail:     m,
			Percentage: pct,
			GPA:        stats.Round(grade.PercentageToGPA(pct)),
			Letter:     grade.Letter(pct),
		})
	}
	return result, nil
}

// StudentGPA returns the weighted GPA over a student's marks visible to p (see StudentMarks).
// studentID may be empty for students asking for their own GPA.
func (svc *Service) StudentGPA(ctx context.Context, p *authz.Principal, studentID string) (GPAReport, error) {
	marks, err := svc.visibleMarks(ctx, p, studentID, "")
	if err != nil {
		return GPAReport{}, err
	}
	report := aggregate(marks)
	report.StudentID = studentID
	if report.StudentID == "" {
		report.StudentID = p.UserID
	}
	return report, nil
}

// CourseGPA returns the weighted GPA over a course's marks: all of them for the course teacher
// (and admins), the caller's own for an enrolled student.
func (svc *Service) CourseGPA(ctx context.Context, p *authz.Principal, courseID string) (GPAReport, error) {
	if err := authz.RequirePrincipal(p); err != nil {
		return GPAReport{}, err
	}

	filter := Filter{CourseID: courseID}
	if p.IsStudent() {
		if _, err := svc.courses.GetCourse(ctx, courseID); err != nil {
			return GPAReport{}, svc.storeError(err, "compute course GPA")
		}
		enrolled, err := svc.access.IsEnrolled(ctx, p.UserID, courseID)
		if err != nil {
			return GPAReport{}, svc.storeError(err, "compute course GPA")
		}
		if !enrolled {
			return GPAReport{}, core.NewPermissionError("you are not enrolled in this course")
		}
		filter.StudentID = p.UserID
	} else if _, err := svc.access.Course(ctx, p, authz.Read, authz.MarksResource, courseID); err != nil {
		return GPAReport{}, svc.storeError(err, "compute course GPA")
	}

	marks, err := svc.repo.QueryMarks(ctx, filter)
	if err != nil {
		return GPAReport{}, svc.storeError(err, "compute course GPA")
	}
	report := aggregate(marks)
	report.CourseID = courseID
	report.StudentID = filter.StudentID
	return report, nil
}

func (svc *Service) visibleMarks(ctx context.Context, p *authz.Principal, studentID, courseID string) ([]Detail, error) {
	if err := authz.RequirePrincipal(p); err != nil {
		return nil, err
	}
	if studentID == "" && p.IsStudent() {
		studentID = p.UserID
	}
	if studentID == "" {
		return nil, core.NewFieldValidationError("student_id", "this field is required")
	}

	st, err := svc.users.GetStudent(ctx, studentID)
	if err != nil {
		return nil, svc.storeError(err, "load marks")
	}
	var teacherIDs []string
	if p.IsTeacher() {
		if teacherIDs, err = svc.access.TeachersOf(ctx, st.UserID); err != nil {
			return nil, svc.storeError(err, "load marks")
		}
	}
	if err = svc.guard.Check(p, authz.Read, authz.StudentResource(st.UserID, st.ParentID, teacherIDs...)); err != nil {
		return nil, err
	}

	filter := Filter{StudentID: st.UserID, CourseID: courseID}
	if p.IsTeacher() {
		if courseID != "" {
			if _, err = svc.access.Course(ctx, p, authz.Read, authz.MarksResource, courseID); err != nil {
				return nil, svc.storeError(err, "load marks")
			}
		}
		filter.TeacherID = p.UserID
	}

	marks, err := svc.repo.QueryMarks(ctx, filter)
	if err != nil {
		return nil, svc.storeError(err, "load marks")
	}
	return marks, nil
}

// aggregate weighs every mark by its module total: sum(obtained) / sum(total).
func aggregate(marks []Detail) GPAReport {
	var report GPAReport
	for _, m := range marks {
		report.ObtainedMarks += m.ObtainedMarks
		report.TotalMarks += m.TotalMarks
	}
	report.MarkCount = len(marks)
	pct := grade.WeightedPercentage(report.ObtainedMarks, report.TotalMarks)
	report.Percentage = stats.Round(pct)
	report.GPA = stats.Round(grade.PercentageToGPA(pct))
	report.Letter = grade.Letter(pct)
	return report
}

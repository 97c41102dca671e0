package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
	"github.com/saadqamar22/LMS-2.0-sub000/core/course"
	"github.com/saadqamar22/LMS-2.0-sub000/core/mark"
	"github.com/saadqamar22/LMS-2.0-sub000/core/stats"
	"github.com/saadqamar22/LMS-2.0-sub000/core/user"
)

type markRow struct {
	ID            string    `db:"id"`
	StudentID     string    `db:"student_id"`
	ModuleID      string    `db:"module_id"`
	ObtainedMarks float64   `db:"obtained_marks"`
	Average       float64   `db:"average"`
	StdDeviation  float64   `db:"std_deviation"`
	Min           float64   `db:"min_marks"`
	Max           float64   `db:"max_marks"`
	Median        float64   `db:"median_marks"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func newMarkRow(m mark.Mark) markRow {
	return markRow{
		ID:            m.ID,
		StudentID:     m.StudentID,
		ModuleID:      m.ModuleID,
		ObtainedMarks: m.ObtainedMarks,
		Average:       m.Statistics.Average,
		StdDeviation:  m.Statistics.StdDeviation,
		Min:           m.Statistics.Min,
		Max:           m.Statistics.Max,
		Median:        m.Statistics.Median,
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

func (r markRow) mark() mark.Mark {
	return mark.Mark{
		ID:            r.ID,
		StudentID:     r.StudentID,
		ModuleID:      r.ModuleID,
		ObtainedMarks: r.ObtainedMarks,
		Statistics: stats.Summary{
			Average:      r.Average,
			StdDeviation: r.StdDeviation,
			Min:          r.Min,
			Max:          r.Max,
			Median:       r.Median,
		},
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

type markDetailRow struct {
	markRow

	ModuleName         string  `db:"module_name"`
	TotalMarks         float64 `db:"total_marks"`
	CourseID           string  `db:"course_id"`
	CourseName         string  `db:"course_name"`
	CourseCode         string  `db:"course_code"`
	StudentName        string  `db:"student_name"`
	RegistrationNumber string  `db:"registration_number"`
}

const markColumns = "id, student_id, module_id, obtained_marks, average, std_deviation, min_marks, max_marks, median_marks, created_at, updated_at"

type markRepository struct {
	base
}

var _ mark.Repository = (*markRepository)(nil) // interface compliance check

func NewMarkRepository(db *sqlx.DB) mark.Repository {
	return &markRepository{base{db: db}}
}

func (repo *markRepository) UpsertMark(ctx context.Context, m mark.Mark, exec ...core.DBExecutor) (mark.Mark, error) {
	if !validID(m.ModuleID) {
		return mark.Mark{}, course.ErrModuleNotFound
	}
	if !validID(m.StudentID) {
		return mark.Mark{}, user.ErrStudentNotFound
	}
	m.ID = newID()
	m.Statistics = stats.Summary{}

	exe := repo.getExec(exec)
	q, args, err := sqlx.Named(`
		INSERT INTO marks (`+markColumns+`)
		VALUES (:id, :student_id, :module_id, :obtained_marks, :average, :std_deviation, :min_marks, :max_marks, :median_marks, :created_at, :updated_at)
		ON CONFLICT (student_id, module_id)
		DO UPDATE SET obtained_marks = EXCLUDED.obtained_marks, updated_at = EXCLUDED.updated_at
		RETURNING `+markColumns,
		newMarkRow(m))
	if err != nil {
		return mark.Mark{}, errors.Wrap(err, "binding mark")
	}

	var row markRow
	if err = sqlx.GetContext(ctx, exe, &row, exe.Rebind(q), args...); err != nil {
		if fk, ok := foreignKey(err); ok {
			if fk == "marks_student_id_fkey" {
				return mark.Mark{}, user.ErrStudentNotFound
			}
			return mark.Mark{}, course.ErrModuleNotFound
		}
		return mark.Mark{}, errors.Wrap(err, "upserting mark")
	}
	return row.mark(), nil
}

func (repo *markRepository) ModuleScores(ctx context.Context, moduleID string, exec ...core.DBExecutor) ([]float64, error) {
	scores := make([]float64, 0)
	if !validID(moduleID) {
		return scores, nil
	}
	err := sqlx.SelectContext(ctx, repo.getExec(exec), &scores,
		"SELECT obtained_marks FROM marks WHERE module_id = $1 ORDER BY created_at, id", moduleID)
	if err != nil {
		return nil, errors.Wrap(err, "querying module scores")
	}
	return scores, nil
}

func (repo *markRepository) SetModuleStatistics(ctx context.Context, moduleID string, s stats.Summary, exec ...core.DBExecutor) error {
	if !validID(moduleID) {
		return course.ErrModuleNotFound
	}
	_, err := repo.getExec(exec).ExecContext(ctx, `
		UPDATE marks
		SET average = $2, std_deviation = $3, min_marks = $4, max_marks = $5, median_marks = $6
		WHERE module_id = $1`,
		moduleID, s.Average, s.StdDeviation, s.Min, s.Max, s.Median)
	if err != nil {
		return errors.Wrap(err, "updating module statistics")
	}
	return nil
}

func (repo *markRepository) QueryMarks(ctx context.Context, filter mark.Filter, exec ...core.DBExecutor) ([]mark.Detail, error) {
	var w where
	for _, f := range []struct {
		cond, id string
	}{
		{"m.module_id = ?", filter.ModuleID},
		{"mo.course_id = ?", filter.CourseID},
		{"m.student_id = ?", filter.StudentID},
		{"c.teacher_id = ?", filter.TeacherID},
	} {
		if f.id == "" {
			continue
		}
		if !validID(f.id) {
			return []mark.Detail{}, nil
		}
		w.add(f.cond, f.id)
	}

	exe := repo.getExec(exec)
	q := exe.Rebind(`
		SELECT m.id, m.student_id, m.module_id, m.obtained_marks, m.average, m.std_deviation,
			m.min_marks, m.max_marks, m.median_marks, m.created_at, m.updated_at,
			mo.name AS module_name, mo.total_marks, mo.course_id,
			c.name AS course_name, c.code AS course_code,
			u.full_name AS student_name, s.registration_number
		FROM marks m
		JOIN modules mo ON mo.id = m.module_id
		JOIN courses c ON c.id = mo.course_id
		JOIN students s ON s.user_id = m.student_id
		JOIN users u ON u.id = s.user_id` + w.String() + `
		ORDER BY mo.created_at, mo.id, m.created_at, m.id`)

	var rows []markDetailRow
	if err := sqlx.SelectContext(ctx, exe, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying marks")
	}
	details := make([]mark.Detail, 0, len(rows))
	for _, r := range rows {
		details = append(details, mark.Detail{
			Mark:               r.mark(),
			ModuleName:         r.ModuleName,
			TotalMarks:         r.TotalMarks,
			CourseID:           r.CourseID,
			CourseName:         r.CourseName,
			CourseCode:         r.CourseCode,
			StudentName:        r.StudentName,
			RegistrationNumber: r.RegistrationNumber,
		})
	}
	return details, nil
}

package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
	"github.com/saadqamar22/LMS-2.0-sub000/core/attendance"
	"github.com/saadqamar22/LMS-2.0-sub000/core/course"
	"github.com/saadqamar22/LMS-2.0-sub000/core/user"
)

type attendanceRow struct {
	ID                 string    `db:"id"`
	StudentID          string    `db:"student_id"`
	CourseID           string    `db:"course_id"`
	Date               time.Time `db:"date"`
	Status             string    `db:"status"`
	CreatedAt          time.Time `db:"created_at"`
	StudentName        string    `db:"student_name"`
	RegistrationNumber string    `db:"registration_number"`
	CourseName         string    `db:"course_name"`
	CourseCode         string    `db:"course_code"`
}

func (r attendanceRow) entry() attendance.Entry {
	d := r.Date
	return attendance.Entry{
		Record: attendance.Record{
			ID:        r.ID,
			StudentID: r.StudentID,
			CourseID:  r.CourseID,
			// DATE columns are scanned in a zero-offset zone without a name
			Date:      time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC),
			Status:    attendance.Status(r.Status),
			CreatedAt: r.CreatedAt.UTC(),
		},
		StudentName:        r.StudentName,
		RegistrationNumber: r.RegistrationNumber,
		CourseName:         r.CourseName,
		CourseCode:         r.CourseCode,
	}
}

type attendanceRepository struct {
	base
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) attendance.Repository {
	return &attendanceRepository{base{db: db}}
}

func (repo *attendanceRepository) DeleteDay(ctx context.Context, courseID string, date time.Time, exec ...core.DBExecutor) error {
	if !validID(courseID) {
		return nil
	}
	exe := repo.getExec(exec)
	// concurrent saves of a course register queue on the course row until the first tx ends
	if _, err := exe.ExecContext(ctx, "SELECT id FROM courses WHERE id = $1 FOR UPDATE", courseID); err != nil {
		return errors.Wrap(err, "locking course")
	}
	_, err := exe.ExecContext(ctx,
		"DELETE FROM attendance WHERE course_id = $1 AND date = $2::date", courseID, date.UTC().Format(core.DateLayout))
	if err != nil {
		return errors.Wrap(err, "deleting attendance")
	}
	return nil
}

func (repo *attendanceRepository) InsertRecords(ctx context.Context, records []attendance.Record, exec ...core.DBExecutor) error {
	exe := repo.getExec(exec)
	for i := range records {
		r := &records[i]
		if !validID(r.StudentID) {
			return user.ErrStudentNotFound
		}
		if !validID(r.CourseID) {
			return course.ErrNotFound
		}
		r.ID = newID()
		_, err := exe.ExecContext(ctx, `
			INSERT INTO attendance (id, student_id, course_id, date, status, created_at)
			VALUES ($1, $2, $3, $4::date, $5, $6)`,
			r.ID, r.StudentID, r.CourseID, r.Date.UTC().Format(core.DateLayout), string(r.Status), r.CreatedAt.UTC())
		if err != nil {
			if isUniqueViolation(err) {
				return attendance.ErrRecordExists
			}
			if fk, ok := foreignKey(err); ok {
				if fk == "attendance_student_id_fkey" {
					return user.ErrStudentNotFound
				}
				return course.ErrNotFound
			}
			return errors.Wrap(err, "inserting attendance")
		}
	}
	return nil
}

func (repo *attendanceRepository) QueryRecords(ctx context.Context, filter attendance.Filter, exec ...core.DBExecutor) ([]attendance.Entry, error) {
	var w where
	for _, f := range []struct {
		cond, id string
	}{
		{"a.course_id = ?", filter.CourseID},
		{"a.student_id = ?", filter.StudentID},
	} {
		if f.id == "" {
			continue
		}
		if !validID(f.id) {
			return []attendance.Entry{}, nil
		}
		w.add(f.cond, f.id)
	}
	if !filter.Date.IsZero() {
		w.add("a.date = ?::date", filter.Date.UTC().Format(core.DateLayout))
	}

	exe := repo.getExec(exec)
	q := exe.Rebind(`
		SELECT a.id, a.student_id, a.course_id, a.date, a.status, a.created_at,
			u.full_name AS student_name, s.registration_number,
			c.name AS course_name, c.code AS course_code
		FROM attendance a
		JOIN students s ON s.user_id = a.student_id
		JOIN users u ON u.id = s.user_id
		JOIN courses c ON c.id = a.course_id` + w.String() + `
		ORDER BY a.date DESC, a.created_at, a.id`)

	var rows []attendanceRow
	if err := sqlx.SelectContext(ctx, exe, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying attendance")
	}
	entries := make([]attendance.Entry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, r.entry())
	}
	return entries, nil
}

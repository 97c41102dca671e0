package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
	"github.com/saadqamar22/LMS-2.0-sub000/core/course"
	"github.com/saadqamar22/LMS-2.0-sub000/core/user"
)

type courseRow struct {
	ID          string      `db:"id"`
	Name        string      `db:"name"`
	Code        string      `db:"code"`
	Description string      `db:"description"`
	TeacherID   null.String `db:"teacher_id"`
	CreatedAt   time.Time   `db:"created_at"`
	TeacherName string      `db:"teacher_name"`
	ModuleCount int         `db:"module_count"`
}

func (r courseRow) course() course.Course {
	return course.Course{
		ID:          r.ID,
		Name:        r.Name,
		Code:        r.Code,
		Description: r.Description,
		TeacherID:   r.TeacherID.String,
		CreatedAt:   r.CreatedAt.UTC(),
		TeacherName: r.TeacherName,
		ModuleCount: r.ModuleCount,
	}
}

type moduleRow struct {
	ID         string    `db:"id"`
	CourseID   string    `db:"course_id"`
	Name       string    `db:"name"`
	TotalMarks float64   `db:"total_marks"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r moduleRow) module() course.Module {
	return course.Module{ID: r.ID, CourseID: r.CourseID, Name: r.Name, TotalMarks: r.TotalMarks, CreatedAt: r.CreatedAt.UTC()}
}

type enrollmentRow struct {
	ID         string    `db:"id"`
	StudentID  string    `db:"student_id"`
	CourseID   string    `db:"course_id"`
	EnrolledAt time.Time `db:"enrolled_at"`
}

func (r enrollmentRow) enrollment() course.Enrollment {
	return course.Enrollment{ID: r.ID, StudentID: r.StudentID, CourseID: r.CourseID, EnrolledAt: r.EnrolledAt.UTC()}
}

const (
	courseSelect = `
		SELECT c.id, c.name, c.code, c.description, c.teacher_id, c.created_at,
			COALESCE(u.full_name, '') AS teacher_name,
			(SELECT COUNT(*) FROM modules m WHERE m.course_id = c.id) AS module_count
		FROM courses c
		LEFT JOIN teachers t ON t.user_id = c.teacher_id
		LEFT JOIN users u ON u.id = t.user_id`
	moduleColumns     = "id, course_id, name, total_marks, created_at"
	enrollmentColumns = "id, student_id, course_id, enrolled_at"
)

type courseRepository struct {
	base
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) course.Repository {
	return &courseRepository{base{db: db}}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	exe := repo.getExec(exec)
	crs.ID = newID()
	_, err := exe.ExecContext(ctx, `
		INSERT INTO courses (id, name, code, description, teacher_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		crs.ID, crs.Name, crs.Code, crs.Description, null.NewString(crs.TeacherID, crs.TeacherID != ""), crs.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return course.Course{}, course.ErrCodeExists
		}
		if _, ok := foreignKey(err); ok {
			return course.Course{}, user.ErrTeacherNotFound
		}
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return repo.getCourse(ctx, exe, crs.ID)
}

func (repo *courseRepository) getCourse(ctx context.Context, exe sqlx.ExtContext, id string) (course.Course, error) {
	if !validID(id) {
		return course.Course{}, course.ErrNotFound
	}
	var row courseRow
	if err := sqlx.GetContext(ctx, exe, &row, courseSelect+" WHERE c.id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "getting course")
	}
	return row.course(), nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, id string, exec ...core.DBExecutor) (course.Course, error) {
	return repo.getCourse(ctx, repo.getExec(exec), id)
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	if !validID(crs.ID) {
		return course.Course{}, course.ErrNotFound
	}
	exe := repo.getExec(exec)
	res, err := exe.ExecContext(ctx, "UPDATE courses SET name = $2, description = $3 WHERE id = $1", crs.ID, crs.Name, crs.Description)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if err = rowsAffected(res, course.ErrNotFound); err != nil {
		return course.Course{}, err
	}
	return repo.getCourse(ctx, exe, crs.ID)
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter course.CourseFilter, exec ...core.DBExecutor) ([]course.Course, error) {
	var w where
	if filter.IDs != nil {
		w.add("c.id = ANY(?::uuid[])", uuidArray(filter.IDs))
	}
	if filter.TeacherID != "" {
		if !validID(filter.TeacherID) {
			return []course.Course{}, nil
		}
		w.add("c.teacher_id = ?", filter.TeacherID)
	}

	exe := repo.getExec(exec)
	var rows []courseRow
	if err := sqlx.SelectContext(ctx, exe, &rows, exe.Rebind(courseSelect+w.String()+" ORDER BY c.name, c.code"), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, r.course())
	}
	return courses, nil
}

func (repo *courseRepository) CreateModule(ctx context.Context, mod course.Module, exec ...core.DBExecutor) (course.Module, error) {
	if !validID(mod.CourseID) {
		return course.Module{}, course.ErrNotFound
	}
	mod.ID = newID()
	mod.CreatedAt = mod.CreatedAt.UTC()
	_, err := sqlx.NamedExecContext(ctx, repo.getExec(exec),
		"INSERT INTO modules ("+moduleColumns+") VALUES (:id, :course_id, :name, :total_marks, :created_at)",
		moduleRow(mod))
	if err != nil {
		if _, ok := foreignKey(err); ok {
			return course.Module{}, course.ErrNotFound
		}
		return course.Module{}, errors.Wrap(err, "inserting module")
	}
	return mod, nil
}

func (repo *courseRepository) GetModule(ctx context.Context, id string, exec ...core.DBExecutor) (course.Module, error) {
	if !validID(id) {
		return course.Module{}, course.ErrModuleNotFound
	}
	var row moduleRow
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &row, "SELECT "+moduleColumns+" FROM modules WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return course.Module{}, course.ErrModuleNotFound
		}
		return course.Module{}, errors.Wrap(err, "getting module")
	}
	return row.module(), nil
}

func (repo *courseRepository) QueryModules(ctx context.Context, courseID string, exec ...core.DBExecutor) ([]course.Module, error) {
	if !validID(courseID) {
		return []course.Module{}, nil
	}
	var rows []moduleRow
	err := sqlx.SelectContext(ctx, repo.getExec(exec), &rows,
		"SELECT "+moduleColumns+" FROM modules WHERE course_id = $1 ORDER BY created_at, id", courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying modules")
	}
	mods := make([]course.Module, 0, len(rows))
	for _, r := range rows {
		mods = append(mods, r.module())
	}
	return mods, nil
}

func (repo *courseRepository) CreateEnrollment(ctx context.Context, enr course.Enrollment, exec ...core.DBExecutor) (course.Enrollment, error) {
	if !validID(enr.CourseID) {
		return course.Enrollment{}, course.ErrNotFound
	}
	if !validID(enr.StudentID) {
		return course.Enrollment{}, user.ErrStudentNotFound
	}
	enr.ID = newID()
	enr.EnrolledAt = enr.EnrolledAt.UTC()
	_, err := sqlx.NamedExecContext(ctx, repo.getExec(exec),
		"INSERT INTO enrollments ("+enrollmentColumns+") VALUES (:id, :student_id, :course_id, :enrolled_at)",
		enrollmentRow(enr))
	if err != nil {
		if isUniqueViolation(err) {
			return course.Enrollment{}, course.ErrAlreadyEnrolled
		}
		if fk, ok := foreignKey(err); ok {
			if fk == "enrollments_student_id_fkey" {
				return course.Enrollment{}, user.ErrStudentNotFound
			}
			return course.Enrollment{}, course.ErrNotFound
		}
		return course.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}
	return enr, nil
}

func (repo *courseRepository) GetEnrollment(ctx context.Context, studentID, courseID string, exec ...core.DBExecutor) (course.Enrollment, error) {
	if !validID(studentID) || !validID(courseID) {
		return course.Enrollment{}, course.ErrEnrollmentNotFound
	}
	var row enrollmentRow
	err := sqlx.GetContext(ctx, repo.getExec(exec), &row,
		"SELECT "+enrollmentColumns+" FROM enrollments WHERE student_id = $1 AND course_id = $2", studentID, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return course.Enrollment{}, course.ErrEnrollmentNotFound
		}
		return course.Enrollment{}, errors.Wrap(err, "getting enrollment")
	}
	return row.enrollment(), nil
}

func (repo *courseRepository) QueryEnrollments(ctx context.Context, filter course.EnrollmentFilter, exec ...core.DBExecutor) ([]course.Enrollment, error) {
	var w where
	if filter.StudentIDs != nil {
		w.add("student_id = ANY(?::uuid[])", uuidArray(filter.StudentIDs))
	}
	if filter.CourseID != "" {
		if !validID(filter.CourseID) {
			return []course.Enrollment{}, nil
		}
		w.add("course_id = ?", filter.CourseID)
	}

	exe := repo.getExec(exec)
	var rows []enrollmentRow
	q := exe.Rebind("SELECT " + enrollmentColumns + " FROM enrollments" + w.String() + " ORDER BY enrolled_at, id")
	if err := sqlx.SelectContext(ctx, exe, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	enrollments := make([]course.Enrollment, 0, len(rows))
	for _, r := range rows {
		enrollments = append(enrollments, r.enrollment())
	}
	return enrollments, nil
}

func (repo *courseRepository) CountEnrollments(ctx context.Context, courseID string, exec ...core.DBExecutor) (int, error) {
	if !validID(courseID) {
		return 0, nil
	}
	var cnt int
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &cnt, "SELECT COUNT(*) FROM enrollments WHERE course_id = $1", courseID); err != nil {
		return 0, errors.Wrap(err, "counting enrollments")
	}
	return cnt, nil
}

func (repo *courseRepository) QueryCourseStudents(ctx context.Context, courseID string, exec ...core.DBExecutor) ([]course.EnrolledStudent, error) {
	if !validID(courseID) {
		return []course.EnrolledStudent{}, nil
	}
	rows, err := repo.getExec(exec).QueryxContext(ctx, `
		SELECT s.user_id, u.full_name, u.email, s.registration_number, s.class, s.section, e.enrolled_at
		FROM enrollments e
		JOIN students s ON s.user_id = e.student_id
		JOIN users u ON u.id = s.user_id
		WHERE e.course_id = $1`,
		courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying course students")
	}
	defer func() { _ = rows.Close() }()

	students := make([]course.EnrolledStudent, 0)
	for rows.Next() {
		var s course.EnrolledStudent
		if err = rows.Scan(&s.StudentID, &s.FullName, &s.Email, &s.RegistrationNumber, &s.Class, &s.Section, &s.EnrolledAt); err != nil {
			return nil, errors.Wrap(err, "scanning course student")
		}
		s.EnrolledAt = s.EnrolledAt.UTC()
		students = append(students, s)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "querying course students")
	}
	return students, nil
}

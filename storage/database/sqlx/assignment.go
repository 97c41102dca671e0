package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
	"github.com/saadqamar22/LMS-2.0-sub000/core/assignment"
	"github.com/saadqamar22/LMS-2.0-sub000/core/course"
	"github.com/saadqamar22/LMS-2.0-sub000/core/user"
)

type assignmentRow struct {
	ID          string    `db:"id"`
	CourseID    string    `db:"course_id"`
	TeacherID   string    `db:"teacher_id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Deadline    time.Time `db:"deadline"`
	FileURL     string    `db:"file_url"`
	FileName    string    `db:"file_name"`
	CreatedAt   time.Time `db:"created_at"`
	CourseName  string    `db:"course_name"`
}

func (r assignmentRow) assignment() assignment.Assignment {
	return assignment.Assignment{
		ID:          r.ID,
		CourseID:    r.CourseID,
		TeacherID:   r.TeacherID,
		Title:       r.Title,
		Description: r.Description,
		Deadline:    r.Deadline.UTC(),
		FileURL:     r.FileURL,
		FileName:    r.FileName,
		CreatedAt:   r.CreatedAt.UTC(),
		CourseName:  r.CourseName,
	}
}

type submissionRow struct {
	ID                 string       `db:"id"`
	AssignmentID       string       `db:"assignment_id"`
	StudentID          string       `db:"student_id"`
	TextAnswer         string       `db:"text_answer"`
	FilePath           string       `db:"file_path"`
	FileName           string       `db:"file_name"`
	Marks              null.Float64 `db:"marks"`
	Feedback           string       `db:"feedback"`
	SubmittedAt        time.Time    `db:"submitted_at"`
	GradedAt           null.Time    `db:"graded_at"`
	StudentName        string       `db:"student_name"`
	RegistrationNumber string       `db:"registration_number"`
}

func (r submissionRow) submission() assignment.Submission {
	sub := assignment.Submission{
		ID:                 r.ID,
		AssignmentID:       r.AssignmentID,
		StudentID:          r.StudentID,
		TextAnswer:         r.TextAnswer,
		FilePath:           r.FilePath,
		FileName:           r.FileName,
		Marks:              r.Marks.Ptr(),
		Feedback:           r.Feedback,
		SubmittedAt:        r.SubmittedAt.UTC(),
		StudentName:        r.StudentName,
		RegistrationNumber: r.RegistrationNumber,
	}
	if r.GradedAt.Valid {
		gradedAt := r.GradedAt.Time.UTC()
		sub.GradedAt = &gradedAt
	}
	return sub
}

const (
	assignmentSelect = `
		SELECT a.id, a.course_id, a.teacher_id, a.title, a.description, a.deadline,
			a.file_url, a.file_name, a.created_at, c.name AS course_name
		FROM assignments a
		JOIN courses c ON c.id = a.course_id`
	submissionSelect = `
		SELECT sb.id, sb.assignment_id, sb.student_id, sb.text_answer, sb.file_path, sb.file_name,
			sb.marks, sb.feedback, sb.submitted_at, sb.graded_at,
			u.full_name AS student_name, s.registration_number
		FROM submissions sb
		JOIN students s ON s.user_id = sb.student_id
		JOIN users u ON u.id = s.user_id`
)

type assignmentRepository struct {
	base
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *sqlx.DB) assignment.Repository {
	return &assignmentRepository{base{db: db}}
}

func (repo *assignmentRepository) CreateAssignment(ctx context.Context, asg assignment.Assignment, exec ...core.DBExecutor) (assignment.Assignment, error) {
	if !validID(asg.CourseID) {
		return assignment.Assignment{}, course.ErrNotFound
	}
	if !validID(asg.TeacherID) {
		return assignment.Assignment{}, user.ErrTeacherNotFound
	}
	exe := repo.getExec(exec)
	asg.ID = newID()
	_, err := exe.ExecContext(ctx, `
		INSERT INTO assignments (id, course_id, teacher_id, title, description, deadline, file_url, file_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		asg.ID, asg.CourseID, asg.TeacherID, asg.Title, asg.Description, asg.Deadline.UTC(), asg.FileURL, asg.FileName, asg.CreatedAt.UTC())
	if err != nil {
		if fk, ok := foreignKey(err); ok {
			if fk == "assignments_teacher_id_fkey" {
				return assignment.Assignment{}, user.ErrTeacherNotFound
			}
			return assignment.Assignment{}, course.ErrNotFound
		}
		return assignment.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return repo.getAssignment(ctx, exe, asg.ID)
}

func (repo *assignmentRepository) getAssignment(ctx context.Context, exe sqlx.ExtContext, id string) (assignment.Assignment, error) {
	if !validID(id) {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	var row assignmentRow
	if err := sqlx.GetContext(ctx, exe, &row, assignmentSelect+" WHERE a.id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return assignment.Assignment{}, assignment.ErrNotFound
		}
		return assignment.Assignment{}, errors.Wrap(err, "getting assignment")
	}
	return row.assignment(), nil
}

func (repo *assignmentRepository) GetAssignment(ctx context.Context, id string, exec ...core.DBExecutor) (assignment.Assignment, error) {
	return repo.getAssignment(ctx, repo.getExec(exec), id)
}

func (repo *assignmentRepository) SetAssignmentFile(ctx context.Context, id, fileURL, fileName string, exec ...core.DBExecutor) (assignment.Assignment, error) {
	if !validID(id) {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	exe := repo.getExec(exec)
	res, err := exe.ExecContext(ctx, "UPDATE assignments SET file_url = $2, file_name = $3 WHERE id = $1", id, fileURL, fileName)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "updating assignment file")
	}
	if err = rowsAffected(res, assignment.ErrNotFound); err != nil {
		return assignment.Assignment{}, err
	}
	return repo.getAssignment(ctx, exe, id)
}

func (repo *assignmentRepository) QueryAssignments(ctx context.Context, filter assignment.Filter, exec ...core.DBExecutor) ([]assignment.Assignment, error) {
	var w where
	if filter.CourseIDs != nil {
		w.add("a.course_id = ANY(?::uuid[])", uuidArray(filter.CourseIDs))
	}

	exe := repo.getExec(exec)
	var rows []assignmentRow
	if err := sqlx.SelectContext(ctx, exe, &rows, exe.Rebind(assignmentSelect+w.String()+" ORDER BY a.deadline, a.created_at, a.id"), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}
	asgs := make([]assignment.Assignment, 0, len(rows))
	for _, r := range rows {
		asgs = append(asgs, r.assignment())
	}
	return asgs, nil
}

func (repo *assignmentRepository) UpsertSubmission(ctx context.Context, sub assignment.Submission, exec ...core.DBExecutor) (assignment.Submission, error) {
	if !validID(sub.AssignmentID) {
		return assignment.Submission{}, assignment.ErrNotFound
	}
	if !validID(sub.StudentID) {
		return assignment.Submission{}, user.ErrStudentNotFound
	}
	exe := repo.getExec(exec)
	var id string
	err := sqlx.GetContext(ctx, exe, &id, `
		INSERT INTO submissions (id, assignment_id, student_id, text_answer, file_path, file_name, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (assignment_id, student_id)
		DO UPDATE SET text_answer = EXCLUDED.text_answer, file_path = EXCLUDED.file_path,
			file_name = EXCLUDED.file_name, submitted_at = EXCLUDED.submitted_at
		RETURNING id`,
		newID(), sub.AssignmentID, sub.StudentID, sub.TextAnswer, sub.FilePath, sub.FileName, sub.SubmittedAt.UTC())
	if err != nil {
		if fk, ok := foreignKey(err); ok {
			if fk == "submissions_student_id_fkey" {
				return assignment.Submission{}, user.ErrStudentNotFound
			}
			return assignment.Submission{}, assignment.ErrNotFound
		}
		return assignment.Submission{}, errors.Wrap(err, "upserting submission")
	}
	return repo.getSubmission(ctx, exe, id)
}

func (repo *assignmentRepository) getSubmission(ctx context.Context, exe sqlx.ExtContext, id string) (assignment.Submission, error) {
	if !validID(id) {
		return assignment.Submission{}, assignment.ErrSubmissionNotFound
	}
	var row submissionRow
	if err := sqlx.GetContext(ctx, exe, &row, submissionSelect+" WHERE sb.id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return assignment.Submission{}, assignment.ErrSubmissionNotFound
		}
		return assignment.Submission{}, errors.Wrap(err, "getting submission")
	}
	return row.submission(), nil
}

func (repo *assignmentRepository) GetSubmission(ctx context.Context, id string, exec ...core.DBExecutor) (assignment.Submission, error) {
	return repo.getSubmission(ctx, repo.getExec(exec), id)
}

func (repo *assignmentRepository) QuerySubmissions(ctx context.Context, filter assignment.SubmissionFilter, exec ...core.DBExecutor) ([]assignment.Submission, error) {
	var w where
	for _, f := range []struct {
		cond, id string
	}{
		{"sb.assignment_id = ?", filter.AssignmentID},
		{"sb.student_id = ?", filter.StudentID},
	} {
		if f.id == "" {
			continue
		}
		if !validID(f.id) {
			return []assignment.Submission{}, nil
		}
		w.add(f.cond, f.id)
	}

	exe := repo.getExec(exec)
	var rows []submissionRow
	if err := sqlx.SelectContext(ctx, exe, &rows, exe.Rebind(submissionSelect+w.String()+" ORDER BY sb.submitted_at DESC, sb.id"), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	subs := make([]assignment.Submission, 0, len(rows))
	for _, r := range rows {
		subs = append(subs, r.submission())
	}
	return subs, nil
}

func (repo *assignmentRepository) GradeSubmission(
	ctx context.Context,
	id string,
	marks float64,
	feedback string,
	gradedAt time.Time,
	exec ...core.DBExecutor,
) (assignment.Submission, error) {
	if !validID(id) {
		return assignment.Submission{}, assignment.ErrSubmissionNotFound
	}
	exe := repo.getExec(exec)
	res, err := exe.ExecContext(ctx,
		"UPDATE submissions SET marks = $2, feedback = $3, graded_at = $4 WHERE id = $1",
		id, marks, feedback, gradedAt.UTC())
	if err != nil {
		return assignment.Submission{}, errors.Wrap(err, "grading submission")
	}
	if err = rowsAffected(res, assignment.ErrSubmissionNotFound); err != nil {
		return assignment.Submission{}, err
	}
	return repo.getSubmission(ctx, exe, id)
}

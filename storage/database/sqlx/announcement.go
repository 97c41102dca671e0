package sqlxrepos

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
	"github.com/saadqamar22/LMS-2.0-sub000/core/announcement"
	"github.com/saadqamar22/LMS-2.0-sub000/core/course"
	"github.com/saadqamar22/LMS-2.0-sub000/core/user"
)

type announcementRow struct {
	ID          string      `db:"id"`
	TeacherID   string      `db:"teacher_id"`
	CourseID    null.String `db:"course_id"`
	Audience    string      `db:"audience"`
	Title       string      `db:"title"`
	Content     string      `db:"content"`
	CreatedAt   time.Time   `db:"created_at"`
	TeacherName string      `db:"teacher_name"`
	CourseName  null.String `db:"course_name"`
}

func (r announcementRow) announcement() announcement.Announcement {
	return announcement.Announcement{
		ID:          r.ID,
		TeacherID:   r.TeacherID,
		CourseID:    r.CourseID.String,
		Audience:    announcement.Audience(r.Audience),
		Title:       r.Title,
		Content:     r.Content,
		CreatedAt:   r.CreatedAt.UTC(),
		TeacherName: r.TeacherName,
		CourseName:  r.CourseName.String,
	}
}

const announcementSelect = `
	SELECT a.id, a.teacher_id, a.course_id, a.audience, a.title, a.content, a.created_at,
		u.full_name AS teacher_name, c.name AS course_name
	FROM announcements a
	JOIN users u ON u.id = a.teacher_id
	LEFT JOIN courses c ON c.id = a.course_id`

type announcementRepository struct {
	base
}

var _ announcement.Repository = (*announcementRepository)(nil) // interface compliance check

func NewAnnouncementRepository(db *sqlx.DB) announcement.Repository {
	return &announcementRepository{base{db: db}}
}

func (repo *announcementRepository) CreateAnnouncement(ctx context.Context, ann announcement.Announcement, exec ...core.DBExecutor) (announcement.Announcement, error) {
	if ann.CourseID != "" && !validID(ann.CourseID) {
		return announcement.Announcement{}, course.ErrNotFound
	}
	if !validID(ann.TeacherID) {
		return announcement.Announcement{}, user.ErrTeacherNotFound
	}
	exe := repo.getExec(exec)
	ann.ID = newID()
	_, err := exe.ExecContext(ctx, `
		INSERT INTO announcements (id, teacher_id, course_id, audience, title, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ann.ID, ann.TeacherID, null.NewString(ann.CourseID, ann.CourseID != ""), string(ann.Audience), ann.Title, ann.Content, ann.CreatedAt.UTC())
	if err != nil {
		if fk, ok := foreignKey(err); ok {
			if fk == "announcements_teacher_id_fkey" {
				return announcement.Announcement{}, user.ErrTeacherNotFound
			}
			return announcement.Announcement{}, course.ErrNotFound
		}
		return announcement.Announcement{}, errors.Wrap(err, "inserting announcement")
	}

	var row announcementRow
	if err = sqlx.GetContext(ctx, exe, &row, announcementSelect+" WHERE a.id = $1", ann.ID); err != nil {
		return announcement.Announcement{}, errors.Wrap(err, "getting announcement")
	}
	return row.announcement(), nil
}

func (repo *announcementRepository) query(ctx context.Context, exe sqlx.ExtContext, w where) ([]announcement.Announcement, error) {
	var rows []announcementRow
	if err := sqlx.SelectContext(ctx, exe, &rows, exe.Rebind(announcementSelect+w.String()+" ORDER BY a.created_at DESC, a.id"), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying announcements")
	}
	anns := make([]announcement.Announcement, 0, len(rows))
	for _, r := range rows {
		anns = append(anns, r.announcement())
	}
	return anns, nil
}

func (repo *announcementRepository) QueryVisible(ctx context.Context, filter announcement.Filter, exec ...core.DBExecutor) ([]announcement.Announcement, error) {
	var w where
	if filter.Audiences != nil {
		audiences := make([]string, 0, len(filter.Audiences))
		for _, a := range filter.Audiences {
			audiences = append(audiences, string(a))
		}
		w.add("a.audience = ANY(?)", pq.Array(audiences))
	}
	w.add("(a.course_id IS NULL OR a.course_id = ANY(?::uuid[]))", uuidArray(filter.CourseIDs))
	return repo.query(ctx, repo.getExec(exec), w)
}

func (repo *announcementRepository) QueryByTeacher(ctx context.Context, teacherID string, exec ...core.DBExecutor) ([]announcement.Announcement, error) {
	if !validID(teacherID) {
		return []announcement.Announcement{}, nil
	}
	var w where
	w.add("a.teacher_id = ?", teacherID)
	return repo.query(ctx, repo.getExec(exec), w)
}

func (repo *announcementRepository) RecipientAddresses(ctx context.Context, rcpt announcement.Recipients, exec ...core.DBExecutor) ([]mail.Address, error) {
	addrs := make([]mail.Address, 0)
	if !rcpt.Students && !rcpt.Parents {
		return addrs, nil
	}

	var (
		w       where
		targets []string
	)
	if rcpt.CourseID != "" {
		if !validID(rcpt.CourseID) {
			return addrs, nil
		}
		w.add("s.user_id IN (SELECT e.student_id FROM enrollments e WHERE e.course_id = ?)", rcpt.CourseID)
	}
	if rcpt.Students {
		targets = append(targets, "SELECT s.user_id FROM students s"+w.String())
	}
	if rcpt.Parents {
		pw := w
		pw.conds = append(append([]string(nil), w.conds...), "s.parent_id IS NOT NULL")
		targets = append(targets, "SELECT s.parent_id FROM students s"+pw.String())
	}
	args := make([]interface{}, 0, len(w.args)*len(targets))
	for range targets {
		args = append(args, w.args...)
	}

	exe := repo.getExec(exec)
	q := exe.Rebind(`
		SELECT u.full_name, u.email FROM users u
		WHERE u.is_active AND u.id IN (` + strings.Join(targets, " UNION ") + `)
		ORDER BY u.email`)
	rows, err := exe.QueryxContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying announcement recipients")
	}
	defer func() { _ = rows.Close() }()

	seen := make(map[string]bool)
	for rows.Next() {
		var a mail.Address
		if err = rows.Scan(&a.Name, &a.Address); err != nil {
			return nil, errors.Wrap(err, "scanning announcement recipient")
		}
		if !seen[a.Address] {
			seen[a.Address] = true
			addrs = append(addrs, a)
		}
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "querying announcement recipients")
	}
	return addrs, nil
}

package sqlxrepos

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
	"github.com/saadqamar22/LMS-2.0-sub000/core/authz"
	"github.com/saadqamar22/LMS-2.0-sub000/core/user"
)

type userRow struct {
	ID           string    `db:"id"`
	Role         string    `db:"role"`
	Email        string    `db:"email"`
	FullName     string    `db:"full_name"`
	PasswordHash []byte    `db:"password_hash"`
	IsActive     bool      `db:"is_active"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
	LastLogin    null.Time `db:"last_login"`
}

func newUserRow(usr user.User) userRow {
	return userRow{
		ID:           usr.ID,
		Role:         string(usr.Role),
		Email:        usr.Email,
		FullName:     usr.FullName,
		PasswordHash: usr.PasswordHash,
		IsActive:     usr.IsActive,
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
		LastLogin:    null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
}

func (r userRow) user() user.User {
	usr := user.User{
		ID:           r.ID,
		Role:         authz.Role(r.Role),
		Email:        r.Email,
		FullName:     r.FullName,
		PasswordHash: r.PasswordHash,
		IsActive:     r.IsActive,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
	if r.LastLogin.Valid {
		usr.LastLogin = r.LastLogin.Time.UTC()
	}
	return usr
}

type studentRow struct {
	UserID             string      `db:"user_id"`
	RegistrationNumber string      `db:"registration_number"`
	Class              string      `db:"class"`
	Section            string      `db:"section"`
	ParentID           null.String `db:"parent_id"`
	FullName           string      `db:"full_name"`
	Email              string      `db:"email"`
}

func (r studentRow) student() user.Student {
	return user.Student{
		UserID:             r.UserID,
		RegistrationNumber: r.RegistrationNumber,
		Class:              r.Class,
		Section:            r.Section,
		ParentID:           r.ParentID.String,
		FullName:           r.FullName,
		Email:              r.Email,
	}
}

const (
	userColumns    = "id, role, email, full_name, password_hash, is_active, created_at, updated_at, last_login"
	studentSelect  = "SELECT s.user_id, s.registration_number, s.class, s.section, s.parent_id, u.full_name, u.email FROM students s JOIN users u ON u.id = s.user_id"
	teacherSelect  = "SELECT t.user_id, t.employee_id, t.department, t.designation, u.full_name, u.email FROM teachers t JOIN users u ON u.id = t.user_id"
	parentSelect   = "SELECT p.user_id, p.phone_number, p.address, u.full_name, u.email FROM parents p JOIN users u ON u.id = p.user_id"
	parentFKeyName = "students_parent_id_fkey"
)

type userRepository struct {
	base
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{base{db: db}}
}

func (repo *userRepository) EmailExists(ctx context.Context, email string, exec ...core.DBExecutor) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, repo.getExec(exec), &exists, "SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)", email)
	if err != nil {
		return false, errors.Wrap(err, "checking email uniqueness")
	}
	return exists, nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	usr.ID = newID()
	_, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), `
		INSERT INTO users (`+userColumns+`)
		VALUES (:id, :role, :email, :full_name, :password_hash, :is_active, :created_at, :updated_at, :last_login)`,
		newUserRow(usr))
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	var (
		row userRow
		err error
		exe = repo.getExec(exec)
	)
	switch {
	case filter.ID != "":
		if !validID(filter.ID) {
			return user.User{}, user.ErrNotFound
		}
		err = sqlx.GetContext(ctx, exe, &row, "SELECT "+userColumns+" FROM users WHERE id = $1", filter.ID)
	case filter.Email != "":
		err = sqlx.GetContext(ctx, exe, &row, "SELECT "+userColumns+" FROM users WHERE email = $1", filter.Email)
	default:
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return row.user(), nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	if !validID(usr.ID) {
		return user.User{}, user.ErrNotFound
	}
	res, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), `
		UPDATE users
		SET role = :role, email = :email, full_name = :full_name, password_hash = :password_hash,
			is_active = :is_active, updated_at = :updated_at, last_login = :last_login
		WHERE id = :id`,
		newUserRow(usr))
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if err = rowsAffected(res, user.ErrNotFound); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

// profileError maps the constraint violations of a profile insert.
func profileError(err error, action string) error {
	if isUniqueViolation(err) {
		return user.ErrProfileExists
	}
	if fk, ok := foreignKey(err); ok {
		if fk == parentFKeyName {
			return user.ErrParentNotFound
		}
		return user.ErrNotFound
	}
	return errors.Wrap(err, action)
}

func (repo *userRepository) CreateStudent(ctx context.Context, st user.Student, exec ...core.DBExecutor) error {
	if !validID(st.UserID) {
		return user.ErrNotFound
	}
	_, err := repo.getExec(exec).ExecContext(ctx, `
		INSERT INTO students (user_id, registration_number, class, section, parent_id)
		VALUES ($1, $2, $3, $4, $5)`,
		st.UserID, st.RegistrationNumber, st.Class, st.Section, null.NewString(st.ParentID, st.ParentID != ""))
	if err != nil {
		return profileError(err, "inserting student")
	}
	return nil
}

func (repo *userRepository) CreateTeacher(ctx context.Context, tch user.Teacher, exec ...core.DBExecutor) error {
	if !validID(tch.UserID) {
		return user.ErrNotFound
	}
	_, err := repo.getExec(exec).ExecContext(ctx, `
		INSERT INTO teachers (user_id, employee_id, department, designation)
		VALUES ($1, $2, $3, $4)`,
		tch.UserID, tch.EmployeeID, tch.Department, tch.Designation)
	if err != nil {
		return profileError(err, "inserting teacher")
	}
	return nil
}

func (repo *userRepository) CreateParent(ctx context.Context, par user.Parent, exec ...core.DBExecutor) error {
	if !validID(par.UserID) {
		return user.ErrNotFound
	}
	_, err := repo.getExec(exec).ExecContext(ctx,
		"INSERT INTO parents (user_id, phone_number, address) VALUES ($1, $2, $3)",
		par.UserID, par.PhoneNumber, par.Address)
	if err != nil {
		return profileError(err, "inserting parent")
	}
	return nil
}

func (repo *userRepository) GetStudent(ctx context.Context, id string, exec ...core.DBExecutor) (user.Student, error) {
	if !validID(id) {
		return user.Student{}, user.ErrStudentNotFound
	}
	var row studentRow
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &row, studentSelect+" WHERE s.user_id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return user.Student{}, user.ErrStudentNotFound
		}
		return user.Student{}, errors.Wrap(err, "getting student")
	}
	return row.student(), nil
}

func (repo *userRepository) GetTeacher(ctx context.Context, id string, exec ...core.DBExecutor) (user.Teacher, error) {
	if !validID(id) {
		return user.Teacher{}, user.ErrTeacherNotFound
	}
	var tch user.Teacher
	err := repo.getExec(exec).QueryRowxContext(ctx, teacherSelect+" WHERE t.user_id = $1", id).
		Scan(&tch.UserID, &tch.EmployeeID, &tch.Department, &tch.Designation, &tch.FullName, &tch.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return user.Teacher{}, user.ErrTeacherNotFound
		}
		return user.Teacher{}, errors.Wrap(err, "getting teacher")
	}
	return tch, nil
}

func (repo *userRepository) GetParent(ctx context.Context, id string, exec ...core.DBExecutor) (user.Parent, error) {
	if !validID(id) {
		return user.Parent{}, user.ErrParentNotFound
	}
	var par user.Parent
	err := repo.getExec(exec).QueryRowxContext(ctx, parentSelect+" WHERE p.user_id = $1", id).
		Scan(&par.UserID, &par.PhoneNumber, &par.Address, &par.FullName, &par.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return user.Parent{}, user.ErrParentNotFound
		}
		return user.Parent{}, errors.Wrap(err, "getting parent")
	}
	return par, nil
}

func (repo *userRepository) QueryStudents(ctx context.Context, filter user.StudentFilter, exec ...core.DBExecutor) ([]user.Student, error) {
	var w where
	if filter.IDs != nil {
		w.add("s.user_id = ANY(?::uuid[])", uuidArray(filter.IDs))
	}
	if filter.ParentID != "" {
		if !validID(filter.ParentID) {
			return []user.Student{}, nil
		}
		w.add("s.parent_id = ?", filter.ParentID)
	}

	exe := repo.getExec(exec)
	var rows []studentRow
	if err := sqlx.SelectContext(ctx, exe, &rows, exe.Rebind(studentSelect+w.String()+" ORDER BY u.full_name, s.user_id"), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}

	students := make([]user.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, r.student())
	}
	// the database collation may differ from the app's
	less := core.NameLess()
	sort.SliceStable(students, func(i, j int) bool { return less(students[i].FullName, students[j].FullName) })
	return students, nil
}

func (repo *userRepository) SetStudentParent(ctx context.Context, studentID, parentID string, exec ...core.DBExecutor) error {
	if !validID(studentID) {
		return user.ErrStudentNotFound
	}
	if !validID(parentID) {
		return user.ErrParentNotFound
	}
	res, err := repo.getExec(exec).ExecContext(ctx, "UPDATE students SET parent_id = $2 WHERE user_id = $1", studentID, parentID)
	if err != nil {
		if _, ok := foreignKey(err); ok {
			return user.ErrParentNotFound
		}
		return errors.Wrap(err, "linking parent")
	}
	return rowsAffected(res, user.ErrStudentNotFound)
}

package dummydb

import (
	"context"
	"sort"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
	"github.com/saadqamar22/LMS-2.0-sub000/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) EmailExists(_ context.Context, email string, _ ...core.DBExecutor) (bool, error) {
	var exists bool
	repo.db.read(func(t *tables) { exists = t.emailTaken(email, "") })
	return exists, nil
}

func (t *tables) emailTaken(email, exceptID string) bool {
	for _, u := range t.users {
		if u.Email == email && u.ID != exceptID {
			return true
		}
	}
	return false
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	err := repo.db.write(exec, func(t *tables) error {
		if t.emailTaken(usr.Email, "") {
			return user.ErrEmailExists
		}
		usr.ID = t.newID()
		t.users[usr.ID] = usr
		return nil
	})
	if err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter, _ ...core.DBExecutor) (user.User, error) {
	var (
		usr   user.User
		found bool
	)
	repo.db.read(func(t *tables) {
		if filter.ID != "" {
			usr, found = t.users[filter.ID]
			return
		}
		if filter.Email == "" {
			return
		}
		for _, u := range t.users {
			if u.Email == filter.Email {
				usr, found = u, true
				return
			}
		}
	})
	if !found {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	err := repo.db.write(exec, func(t *tables) error {
		if _, ok := t.users[usr.ID]; !ok {
			return user.ErrNotFound
		}
		if t.emailTaken(usr.Email, usr.ID) {
			return user.ErrEmailExists
		}
		t.users[usr.ID] = usr
		return nil
	})
	if err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) CreateStudent(_ context.Context, st user.Student, exec ...core.DBExecutor) error {
	return repo.db.write(exec, func(t *tables) error {
		if _, ok := t.users[st.UserID]; !ok {
			return user.ErrNotFound
		}
		for _, s := range t.students {
			if s.UserID == st.UserID || s.RegistrationNumber == st.RegistrationNumber {
				return user.ErrProfileExists
			}
		}
		st.FullName, st.Email = "", ""
		t.students[st.UserID] = st
		return nil
	})
}

func (repo *userRepository) CreateTeacher(_ context.Context, tch user.Teacher, exec ...core.DBExecutor) error {
	return repo.db.write(exec, func(t *tables) error {
		if _, ok := t.users[tch.UserID]; !ok {
			return user.ErrNotFound
		}
		for _, s := range t.teachers {
			if s.UserID == tch.UserID || s.EmployeeID == tch.EmployeeID {
				return user.ErrProfileExists
			}
		}
		tch.FullName, tch.Email = "", ""
		t.teachers[tch.UserID] = tch
		return nil
	})
}

func (repo *userRepository) CreateParent(_ context.Context, par user.Parent, exec ...core.DBExecutor) error {
	return repo.db.write(exec, func(t *tables) error {
		if _, ok := t.users[par.UserID]; !ok {
			return user.ErrNotFound
		}
		if _, ok := t.parents[par.UserID]; ok {
			return user.ErrProfileExists
		}
		par.FullName, par.Email = "", ""
		t.parents[par.UserID] = par
		return nil
	})
}

func (t *tables) student(id string) (user.Student, bool) {
	st, ok := t.students[id]
	if !ok {
		return user.Student{}, false
	}
	usr := t.users[id]
	st.FullName, st.Email = usr.FullName, usr.Email
	return st, true
}

func (repo *userRepository) GetStudent(_ context.Context, id string, _ ...core.DBExecutor) (user.Student, error) {
	var (
		st    user.Student
		found bool
	)
	repo.db.read(func(t *tables) { st, found = t.student(id) })
	if !found {
		return user.Student{}, user.ErrStudentNotFound
	}
	return st, nil
}

func (repo *userRepository) GetTeacher(_ context.Context, id string, _ ...core.DBExecutor) (user.Teacher, error) {
	var (
		tch   user.Teacher
		found bool
	)
	repo.db.read(func(t *tables) {
		if tch, found = t.teachers[id]; found {
			usr := t.users[id]
			tch.FullName, tch.Email = usr.FullName, usr.Email
		}
	})
	if !found {
		return user.Teacher{}, user.ErrTeacherNotFound
	}
	return tch, nil
}

func (repo *userRepository) GetParent(_ context.Context, id string, _ ...core.DBExecutor) (user.Parent, error) {
	var (
		par   user.Parent
		found bool
	)
	repo.db.read(func(t *tables) {
		if par, found = t.parents[id]; found {
			usr := t.users[id]
			par.FullName, par.Email = usr.FullName, usr.Email
		}
	})
	if !found {
		return user.Parent{}, user.ErrParentNotFound
	}
	return par, nil
}

func (repo *userRepository) QueryStudents(_ context.Context, filter user.StudentFilter, _ ...core.DBExecutor) ([]user.Student, error) {
	students := make([]user.Student, 0)
	repo.db.read(func(t *tables) {
		for id := range t.students {
			if filter.IDs != nil && !contains(filter.IDs, id) {
				continue
			}
			st, _ := t.student(id)
			if filter.ParentID != "" && st.ParentID != filter.ParentID {
				continue
			}
			students = append(students, st)
		}
	})

	less := core.NameLess()
	sort.Slice(students, func(i, j int) bool {
		if students[i].FullName == students[j].FullName {
			return students[i].UserID < students[j].UserID
		}
		return less(students[i].FullName, students[j].FullName)
	})
	return students, nil
}

func (repo *userRepository) SetStudentParent(_ context.Context, studentID, parentID string, exec ...core.DBExecutor) error {
	return repo.db.write(exec, func(t *tables) error {
		st, ok := t.students[studentID]
		if !ok {
			return user.ErrStudentNotFound
		}
		if _, ok = t.parents[parentID]; !ok {
			return user.ErrParentNotFound
		}
		st.ParentID = parentID
		t.students[studentID] = st
		return nil
	})
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

package dummydb

import (
	"context"
	"sort"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
	"github.com/saadqamar22/LMS-2.0-sub000/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db}
}

// course joins a stored course with its teacher name and module count.
func (t *tables) course(id string) (course.Course, bool) {
	crs, ok := t.courses[id]
	if !ok {
		return course.Course{}, false
	}
	if usr, ok := t.users[crs.TeacherID]; ok {
		crs.TeacherName = usr.FullName
	}
	for _, m := range t.modules {
		if m.CourseID == id {
			crs.ModuleCount++
		}
	}
	return crs, true
}

func (repo *courseRepository) CreateCourse(_ context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	err := repo.db.write(exec, func(t *tables) error {
		for _, c := range t.courses {
			if c.Code == crs.Code {
				return course.ErrCodeExists
			}
		}
		crs.ID = t.newID()
		crs.TeacherName, crs.ModuleCount = "", 0
		t.courses[crs.ID] = crs
		crs, _ = t.course(crs.ID)
		return nil
	})
	if err != nil {
		return course.Course{}, err
	}
	return crs, nil
}

func (repo *courseRepository) GetCourse(_ context.Context, id string, _ ...core.DBExecutor) (course.Course, error) {
	var (
		crs   course.Course
		found bool
	)
	repo.db.read(func(t *tables) { crs, found = t.course(id) })
	if !found {
		return course.Course{}, course.ErrNotFound
	}
	return crs, nil
}

func (repo *courseRepository) UpdateCourse(_ context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	err := repo.db.write(exec, func(t *tables) error {
		orig, ok := t.courses[crs.ID]
		if !ok {
			return course.ErrNotFound
		}
		orig.Name = crs.Name
		orig.Description = crs.Description
		t.courses[crs.ID] = orig
		crs, _ = t.course(crs.ID)
		return nil
	})
	if err != nil {
		return course.Course{}, err
	}
	return crs, nil
}

func (repo *courseRepository) QueryCourses(_ context.Context, filter course.CourseFilter, _ ...core.DBExecutor) ([]course.Course, error) {
	courses := make([]course.Course, 0)
	repo.db.read(func(t *tables) {
		for id, c := range t.courses {
			if filter.IDs != nil && !contains(filter.IDs, id) {
				continue
			}
			if filter.TeacherID != "" && c.TeacherID != filter.TeacherID {
				continue
			}
			crs, _ := t.course(id)
			courses = append(courses, crs)
		}
	})
	sort.Slice(courses, func(i, j int) bool {
		if courses[i].Name == courses[j].Name {
			return courses[i].Code < courses[j].Code
		}
		return courses[i].Name < courses[j].Name
	})
	return courses, nil
}

func (repo *courseRepository) CreateModule(_ context.Context, mod course.Module, exec ...core.DBExecutor) (course.Module, error) {
	err := repo.db.write(exec, func(t *tables) error {
		if _, ok := t.courses[mod.CourseID]; !ok {
			return course.ErrNotFound
		}
		mod.ID = t.newID()
		t.modules[mod.ID] = mod
		return nil
	})
	if err != nil {
		return course.Module{}, err
	}
	return mod, nil
}

func (repo *courseRepository) GetModule(_ context.Context, id string, _ ...core.DBExecutor) (course.Module, error) {
	var (
		mod   course.Module
		found bool
	)
	repo.db.read(func(t *tables) { mod, found = t.modules[id] })
	if !found {
		return course.Module{}, course.ErrModuleNotFound
	}
	return mod, nil
}

func (repo *courseRepository) QueryModules(_ context.Context, courseID string, _ ...core.DBExecutor) ([]course.Module, error) {
	mods := make([]course.Module, 0)
	repo.db.read(func(t *tables) {
		for _, m := range t.modules {
			if m.CourseID == courseID {
				mods = append(mods, m)
			}
		}
		sort.Slice(mods, func(i, j int) bool { return t.ord[mods[i].ID] < t.ord[mods[j].ID] })
	})
	return mods, nil
}

func (repo *courseRepository) CreateEnrollment(_ context.Context, enr course.Enrollment, exec ...core.DBExecutor) (course.Enrollment, error) {
	err := repo.db.write(exec, func(t *tables) error {
		if _, ok := t.courses[enr.CourseID]; !ok {
			return course.ErrNotFound
		}
		for _, e := range t.enrollments {
			if e.StudentID == enr.StudentID && e.CourseID == enr.CourseID {
				return course.ErrAlreadyEnrolled
			}
		}
		enr.ID = t.newID()
		t.enrollments[enr.ID] = enr
		return nil
	})
	if err != nil {
		return course.Enrollment{}, err
	}
	return enr, nil
}

func (repo *courseRepository) GetEnrollment(_ context.Context, studentID, courseID string, _ ...core.DBExecutor) (course.Enrollment, error) {
	var (
		enr   course.Enrollment
		found bool
	)
	repo.db.read(func(t *tables) {
		for _, e := range t.enrollments {
			if e.StudentID == studentID && e.CourseID == courseID {
				enr, found = e, true
				return
			}
		}
	})
	if !found {
		return course.Enrollment{}, course.ErrEnrollmentNotFound
	}
	return enr, nil
}

func (repo *courseRepository) QueryEnrollments(_ context.Context, filter course.EnrollmentFilter, _ ...core.DBExecutor) ([]course.Enrollment, error) {
	enrollments := make([]course.Enrollment, 0)
	repo.db.read(func(t *tables) {
		for _, e := range t.enrollments {
			if filter.StudentIDs != nil && !contains(filter.StudentIDs, e.StudentID) {
				continue
			}
			if filter.CourseID != "" && e.CourseID != filter.CourseID {
				continue
			}
			enrollments = append(enrollments, e)
		}
		sort.Slice(enrollments, func(i, j int) bool { return t.ord[enrollments[i].ID] < t.ord[enrollments[j].ID] })
	})
	return enrollments, nil
}

func (repo *courseRepository) CountEnrollments(_ context.Context, courseID string, _ ...core.DBExecutor) (int, error) {
	var cnt int
	repo.db.read(func(t *tables) {
		for _, e := range t.enrollments {
			if e.CourseID == courseID {
				cnt++
			}
		}
	})
	return cnt, nil
}

func (repo *courseRepository) QueryCourseStudents(_ context.Context, courseID string, _ ...core.DBExecutor) ([]course.EnrolledStudent, error) {
	students := make([]course.EnrolledStudent, 0)
	repo.db.read(func(t *tables) {
		for _, e := range t.enrollments {
			if e.CourseID != courseID {
				continue
			}
			st, ok := t.student(e.StudentID)
			if !ok {
				continue
			}
			students = append(students, course.EnrolledStudent{
				StudentID:          st.UserID,
				FullName:           st.FullName,
				Email:              st.Email,
				RegistrationNumber: st.RegistrationNumber,
				Class:              st.Class,
				Section:            st.Section,
				EnrolledAt:         e.EnrolledAt,
			})
		}
	})
	return students, nil
}

package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
	"github.com/saadqamar22/LMS-2.0-sub000/core/announcement"
	"github.com/saadqamar22/LMS-2.0-sub000/core/assignment"
	"github.com/saadqamar22/LMS-2.0-sub000/core/attendance"
	"github.com/saadqamar22/LMS-2.0-sub000/core/authz"
	"github.com/saadqamar22/LMS-2.0-sub000/core/course"
	"github.com/saadqamar22/LMS-2.0-sub000/core/mark"
	"github.com/saadqamar22/LMS-2.0-sub000/core/user"
	appfs "github.com/saadqamar22/LMS-2.0-sub000/fs"
	emailsvc "github.com/saadqamar22/LMS-2.0-sub000/services/email"
	logsvc "github.com/saadqamar22/LMS-2.0-sub000/services/logger"
	memblob "github.com/saadqamar22/LMS-2.0-sub000/storage/blob/mem"
	dummydb "github.com/saadqamar22/LMS-2.0-sub000/storage/database/dummy"
)

const Password = "Pa$$w0rd-2024"

var parseTemplates sync.Once

// Env wires every repository on one in-memory store.
type Env struct {
	Conf   *core.Config
	Logger core.Logger
	Mail   *emailsvc.ConsoleServiceMock
	Blobs  *memblob.Store
	DB     *dummydb.DB
	Tx     core.Transactor

	Users         user.Repository
	Courses       course.Repository
	Marks         mark.Repository
	Attendance    attendance.Repository
	Assignments   assignment.Repository
	Announcements announcement.Repository
}

func NewEnv() *Env {
	conf := core.NewTestConfig()
	logger := logsvc.NewDiscardLogger()
	parseTemplates.Do(func() { core.ParseEmailTemplates(appfs.FS, logger) })
	db := dummydb.Open()
	return &Env{
		Conf:          conf,
		Logger:        logger,
		Mail:          emailsvc.NewConsoleServiceMock(conf, logger),
		Blobs:         memblob.New("http://localhost/blobs"),
		DB:            db,
		Tx:            dummydb.NewTransactor(db),
		Users:         dummydb.NewUserRepository(db),
		Courses:       dummydb.NewCourseRepository(db),
		Marks:         dummydb.NewMarkRepository(db),
		Attendance:    dummydb.NewAttendanceRepository(db),
		Assignments:   dummydb.NewAssignmentRepository(db),
		Announcements: dummydb.NewAnnouncementRepository(db),
	}
}

func (env *Env) UserService() *user.Service {
	return user.NewService(env.Users, env.Tx, env.Mail, env.Logger, env.Conf)
}

func (env *Env) CourseService() *course.Service {
	return course.NewService(env.Courses, env.Users, env.Logger)
}

func (env *Env) MarkService() *mark.Service {
	return mark.NewService(env.Marks, env.Courses, env.Users, env.Tx, env.Logger, env.Conf)
}

func (env *Env) AttendanceService() *attendance.Service {
	return attendance.NewService(env.Attendance, env.Courses, env.Users, env.Tx, env.Logger)
}

func (env *Env) AssignmentService() *assignment.Service {
	return assignment.NewService(env.Assignments, env.Courses, env.Blobs, env.Logger, env.Conf)
}

func (env *Env) AnnouncementService() *announcement.Service {
	return announcement.NewService(env.Announcements, env.Courses, env.Users, env.Mail, env.Logger)
}

func (env *Env) createUser(t *testing.T, role authz.Role, name, email string) user.User {
	now := time.Now().UTC()
	usr := user.User{
		Role:      role,
		Email:     email,
		FullName:  name,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(Password); err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	usr, err := env.Users.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func (env *Env) CreateStudent(t *testing.T, name, email, regNo string) user.User {
	usr := env.createUser(t, authz.RoleStudent, name, email)
	st := user.Student{UserID: usr.ID, RegistrationNumber: regNo, Class: "10", Section: "A"}
	if err := env.Users.CreateStudent(context.Background(), st); err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return usr
}

func (env *Env) CreateTeacher(t *testing.T, name, email, employeeID string) user.User {
	usr := env.createUser(t, authz.RoleTeacher, name, email)
	tch := user.Teacher{UserID: usr.ID, EmployeeID: employeeID, Department: "Science"}
	if err := env.Users.CreateTeacher(context.Background(), tch); err != nil {
		t.Fatalf("CreateTeacher() failed: %v", err)
	}
	return usr
}

func (env *Env) CreateParent(t *testing.T, name, email string, children ...user.User) user.User {
	usr := env.createUser(t, authz.RoleParent, name, email)
	if err := env.Users.CreateParent(context.Background(), user.Parent{UserID: usr.ID}); err != nil {
		t.Fatalf("CreateParent() failed: %v", err)
	}
	for _, c := range children {
		if err := env.Users.SetStudentParent(context.Background(), c.ID, usr.ID); err != nil {
			t.Fatalf("CreateParent() failed: %v", err)
		}
	}
	return usr
}

func (env *Env) CreateAdmin(t *testing.T, name, email string) user.User {
	return env.createUser(t, authz.RoleAdmin, name, email)
}

func (env *Env) CreateCourse(t *testing.T, teacher user.User, name, code string) course.Course {
	crs, err := env.Courses.CreateCourse(context.Background(), course.Course{
		Name:      name,
		Code:      code,
		TeacherID: teacher.ID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return crs
}

func (env *Env) CreateModule(t *testing.T, crs course.Course, name string, total float64) course.Module {
	mod, err := env.Courses.CreateModule(context.Background(), course.Module{
		CourseID:   crs.ID,
		Name:       name,
		TotalMarks: total,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateModule() failed: %v", err)
	}
	return mod
}

func (env *Env) Enroll(t *testing.T, student user.User, courses ...course.Course) {
	for _, crs := range courses {
		_, err := env.Courses.CreateEnrollment(context.Background(), course.Enrollment{
			StudentID:  student.ID,
			CourseID:   crs.ID,
			EnrolledAt: time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("Enroll() failed: %v", err)
		}
	}
}

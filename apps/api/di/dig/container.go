// Package dig_container wires the API dependencies with go.uber.org/dig.
package dig_container

import (
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/saadqamar22/LMS-2.0-sub000/apps/api/echo"
	"github.com/saadqamar22/LMS-2.0-sub000/core"
	"github.com/saadqamar22/LMS-2.0-sub000/core/announcement"
	"github.com/saadqamar22/LMS-2.0-sub000/core/assignment"
	"github.com/saadqamar22/LMS-2.0-sub000/core/attendance"
	"github.com/saadqamar22/LMS-2.0-sub000/core/course"
	"github.com/saadqamar22/LMS-2.0-sub000/core/mark"
	"github.com/saadqamar22/LMS-2.0-sub000/core/user"
	emailsvc "github.com/saadqamar22/LMS-2.0-sub000/services/email"
	logsvc "github.com/saadqamar22/LMS-2.0-sub000/services/logger"
	memblob "github.com/saadqamar22/LMS-2.0-sub000/storage/blob/mem"
	ossblob "github.com/saadqamar22/LMS-2.0-sub000/storage/blob/oss"
	"github.com/saadqamar22/LMS-2.0-sub000/storage/database"
	dummydb "github.com/saadqamar22/LMS-2.0-sub000/storage/database/dummy"
	sqlxrepos "github.com/saadqamar22/LMS-2.0-sub000/storage/database/sqlx"
)

// EngineDummy selects the in-memory store instead of Postgres.
const EngineDummy = "dummy"

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// Stores holds every repository of one data store.
type Stores struct {
	dig.Out

	DB            *sqlx.DB // nil for the dummy store
	Tx            core.Transactor
	Users         user.Repository
	Courses       course.Repository
	Marks         mark.Repository
	Attendance    attendance.Repository
	Assignments   assignment.Repository
	Announcements announcement.Repository
}

type ServerParams struct {
	dig.In

	Conf            *core.Config
	Logger          core.Logger
	UserSvc         *user.Service
	CourseSvc       *course.Service
	MarkSvc         *mark.Service
	AttendanceSvc   *attendance.Service
	AssignmentSvc   *assignment.Service
	AnnouncementSvc *announcement.Service
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newStores(conf *core.Config, loggerParam DBLoggerParam) Stores {
	if conf.Database.Engine == EngineDummy {
		db := dummydb.Open()
		return Stores{
			Tx:            dummydb.NewTransactor(db),
			Users:         dummydb.NewUserRepository(db),
			Courses:       dummydb.NewCourseRepository(db),
			Marks:         dummydb.NewMarkRepository(db),
			Attendance:    dummydb.NewAttendanceRepository(db),
			Assignments:   dummydb.NewAssignmentRepository(db),
			Announcements: dummydb.NewAnnouncementRepository(db),
		}
	}

	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return Stores{
		DB:            db,
		Tx:            sqlxrepos.NewTransactor(db),
		Users:         sqlxrepos.NewUserRepository(db),
		Courses:       sqlxrepos.NewCourseRepository(db),
		Marks:         sqlxrepos.NewMarkRepository(db),
		Attendance:    sqlxrepos.NewAttendanceRepository(db),
		Assignments:   sqlxrepos.NewAssignmentRepository(db),
		Announcements: sqlxrepos.NewAnnouncementRepository(db),
	}
}

func newBlobStore(conf *core.Config) (core.BlobStore, error) {
	switch conf.Storage.Driver {
	case "oss":
		return ossblob.New(conf.Storage)
	case "mem", "":
		return memblob.New("http://" + conf.Server.Address() + "/blobs"), nil
	}
	return nil, errors.Errorf("unknown storage driver %q", conf.Storage.Driver)
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newServer(p ServerParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.Options{
		Conf:            p.Conf,
		Logger:          p.Logger,
		UserSvc:         p.UserSvc,
		CourseSvc:       p.CourseSvc,
		MarkSvc:         p.MarkSvc,
		AttendanceSvc:   p.AttendanceSvc,
		AssignmentSvc:   p.AssignmentSvc,
		AnnouncementSvc: p.AnnouncementSvc,
	})
}

// New returns a new dependency injection dig.Container.
// newConfig defaults to core.NewConfig.
func New(newConfig ...func() *core.Config) *dig.Container {
	c := dig.New()

	confFunc := core.NewConfig
	if len(newConfig) > 0 {
		confFunc = newConfig[0]
	}
	must(c.Provide(confFunc))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newStores))
	must(c.Provide(newBlobStore))
	must(c.Provide(newEmailService))
	must(c.Provide(user.NewService))
	must(c.Provide(course.NewService))
	must(c.Provide(mark.NewService))
	must(c.Provide(attendance.NewService))
	must(c.Provide(assignment.NewService))
	must(c.Provide(announcement.NewService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}

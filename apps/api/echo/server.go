// Package echoapi exposes the LMS services over HTTP with echo.
package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
	"github.com/saadqamar22/LMS-2.0-sub000/core/announcement"
	"github.com/saadqamar22/LMS-2.0-sub000/core/assignment"
	"github.com/saadqamar22/LMS-2.0-sub000/core/attendance"
	"github.com/saadqamar22/LMS-2.0-sub000/core/course"
	"github.com/saadqamar22/LMS-2.0-sub000/core/mark"
	"github.com/saadqamar22/LMS-2.0-sub000/core/user"
)

type (
	Options struct {
		Conf           *core.Config
		Logger         core.Logger
		DisableReqLogs bool

		UserSvc         *user.Service
		CourseSvc       *course.Service
		MarkSvc         *mark.Service
		AttendanceSvc   *attendance.Service
		AssignmentSvc   *assignment.Service
		AnnouncementSvc *announcement.Service
	}

	Server struct {
		opts     Options
		app      *echo.Echo
		auth     *authenticator
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(opts Options) *Server {
	s := &Server{
		opts:     opts,
		app:      echo.New(),
		auth:     newAuthenticator(opts.Conf),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.opts.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)

	api := s.app.Group("/api")
	jwt := s.auth.middleware()

	registerUserAPI(api, jwt, s.auth, s.opts.UserSvc)
	registerCourseAPI(api, jwt, s.opts.CourseSvc)
	registerMarkAPI(api, jwt, s.opts.MarkSvc)
	registerAttendanceAPI(api, jwt, s.opts.AttendanceSvc)
	registerAssignmentAPI(api, jwt, s.opts.AssignmentSvc)
	registerAnnouncementAPI(api, jwt, s.opts.AnnouncementSvc)
}

// Start blocks serving requests. Failures are reported on Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.opts.Conf.Server.Address()); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error { return s.errors }

func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.opts.Conf.AppName+" API!")
}

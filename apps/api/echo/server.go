package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/smkremaja/pkl/apps/shared"
	"github.com/smkremaja/pkl/core"
)

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		Services       *shared.Services
		Validate       *validator.Validate
		Translator     ut.Translator
		DisableReqLogs bool
	}

	Server struct {
		app      *echo.Echo
		deps     ServerDeps
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		app:      echo.New(),
		deps:     deps,
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.SignalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(newJWTConfig(conf))
	svcs := s.deps.Services

	registerUserAPI(v1, jwt, svcs.Users, s.deps.Validate, conf)
	registerAttendanceAPI(v1, jwt, svcs.Attendances, svcs.Users, conf)
	registerReportAPI(v1, jwt, svcs.Reports, svcs.Users)
	registerApplicationAPI(v1, jwt, svcs.Applications, svcs.Users)
	registerChatAPI(v1, jwt, svcs.Chats, svcs.Users)
	registerVisitAPI(v1, jwt, svcs.Visits, svcs.Users)
	registerAnnouncementAPI(v1, jwt, svcs.Announcements, svcs.Users)
	registerSettingAPI(v1, jwt, svcs.Settings)
	registerRecapAPI(v1, jwt, svcs.Recaps, svcs.Users)
	registerBackupAPI(v1, jwt, svcs.Backups, svcs.Users, s.deps.Logger, conf)
}

// Start listens on the configured address. Errors are reported through Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error { return s.errors }

func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

// SignalShutdown asks the owner of the Server to shut it down.
func (s *Server) SignalShutdown() {
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

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Selamat datang di API PKL!")
}

// Package server wires the bot together: the firing loop, the intake loop
// and a small ops HTTP surface.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/hrygo/remindme/internal/observability"
	"github.com/hrygo/remindme/internal/profile"
	"github.com/hrygo/remindme/plugin/ai"
	"github.com/hrygo/remindme/plugin/ai/interpreter"
	"github.com/hrygo/remindme/plugin/reminder"
	"github.com/hrygo/remindme/plugin/telegram"
	"github.com/hrygo/remindme/server/conversation"
	"github.com/hrygo/remindme/server/runner/intake"
	"github.com/hrygo/remindme/store"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	service    *reminder.Service
	scheduler  *reminder.Scheduler
	health     *reminder.HealthCheck
	intake     *intake.Runner

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer builds the Telegram transport and the interpreter from the profile.
func NewServer(profile *profile.Profile, store *store.Store) (*Server, error) {
	if err := profile.ValidateBot(); err != nil {
		return nil, err
	}

	llm, err := ai.NewLLMService(ai.NewConfigFromProfile(profile))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create interpreter client")
	}
	transport, err := telegram.NewClient(telegram.Config{
		Token:       profile.TelegramToken,
		BaseURL:     profile.TelegramBaseURL,
		PollTimeout: profile.PollTimeout,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create telegram client")
	}

	return newServer(profile, store, transport, interpreter.NewLLMInterpreter(llm, profile.Location())), nil
}

func newServer(profile *profile.Profile, store *store.Store, transport intake.Transport, interp interpreter.Interpreter) *Server {
	s := &Server{
		Profile: profile,
		Store:   store,
	}

	s.service = reminder.NewService(store, reminder.NewTelegramNotifier(transport))
	s.scheduler = reminder.NewScheduler(s.service, reminder.SchedulerConfig{Interval: profile.FiringInterval})
	s.health = reminder.NewHealthCheck(s.scheduler)

	machine := conversation.NewMachine(interp, store, profile.Location())
	s.intake = intake.NewRunner(transport, machine, profile)

	echoServer := echo.New()
	echoServer.Debug = profile.IsDev()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(middleware.Recover())
	s.echoServer = echoServer
	s.registerRoutes()

	return s
}

func (s *Server) registerRoutes() {
	s.echoServer.GET("/healthz", s.getHealth)
	s.echoServer.GET("/api/v1/stats", s.getStats)
}

// StatsResponse is the body of GET /api/v1/stats.
type StatsResponse struct {
	Version     string                         `json:"version"`
	Firing      reminder.Stats                 `json:"firing"`
	Intake      *observability.MetricsSnapshot `json:"intake"`
	ActiveChats int                            `json:"active_chats"`
	Health      reminder.HealthStatus          `json:"health"`
}

func (s *Server) getHealth(c echo.Context) error {
	status := s.health.Check()
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, status)
}

func (s *Server) getStats(c echo.Context) error {
	return c.JSON(http.StatusOK, StatsResponse{
		Version:     s.Profile.Version,
		Firing:      s.service.Metrics().GetStats(),
		Intake:      s.intake.Metrics().Snapshot(),
		ActiveChats: s.intake.Registry().Len(),
		Health:      s.health.Check(),
	})
}

// Start runs both loops and, when a port is configured, the ops HTTP server.
func (s *Server) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	if err := s.scheduler.Start(ctx); err != nil {
		return errors.Wrap(err, "failed to start firing loop")
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.intake.Run(ctx)
	}()

	if s.Profile.Port == 0 {
		slog.Info("ops http server disabled")
		return nil
	}

	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrap(err, "failed to listen")
	}
	s.echoServer.Listener = listener

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.echoServer.Start(address); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start ops http server", "error", err)
		}
	}()
	slog.Info("ops http server started", "address", address)
	return nil
}

// Shutdown stops the loops, waits for in-flight updates and closes the store.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	slog.Info("server shutting down")

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown ops http server", "error", err)
	}
	s.scheduler.Stop()
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()

	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", "error", err)
	}

	slog.Info("remindme stopped properly")
}

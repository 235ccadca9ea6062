// Package httpapi exposes the moderation service over a small JSON API.
// Chat adapters call POST /v1/evaluate per message and apply whatever
// action comes back; the rest of the surface is for operators.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	slogecho "github.com/samber/slog-echo"

	"floodguard/internal/service"
)

type Server struct {
	logger *slog.Logger
	svc    service.Service
	echo   *echo.Echo
	httpd  *http.Server
}

func NewServer(logger *slog.Logger, svc service.Service, addr string) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(slogecho.New(logger))
	e.Use(middleware.Recover())

	s := &Server{
		logger: logger,
		svc:    svc,
		echo:   e,
		httpd: &http.Server{
			Addr:         addr,
			Handler:      e,
			ReadTimeout:  time.Minute,
			WriteTimeout: time.Minute,
		},
	}

	e.GET("/healthz", s.handleHealthz)

	v1 := e.Group("/v1")
	v1.POST("/evaluate", s.handleEvaluate)
	v1.POST("/mutes", s.handleManualMute)
	v1.DELETE("/mutes/:chat_id/:user_id", s.handleManualUnmute)
	v1.POST("/warnings", s.handleIssueWarning)
	v1.DELETE("/warnings/:chat_id/:user_id", s.handleClearWarnings)
	v1.GET("/status/:chat_id/:user_id", s.handleStatus)
	v1.GET("/stats", s.handleStats)
	v1.GET("/violations/:reference", s.handleViolation)
	v1.GET("/policies/:chat_id", s.handleGetPolicy)
	v1.PUT("/policies/:chat_id", s.handleUpdatePolicy)
	v1.POST("/maintenance/run", s.handleMaintenance)

	return s
}

func (s *Server) Listen() error {
	s.logger.Info("Starting API server", "addr", s.httpd.Addr)
	return s.httpd.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpd.Shutdown(ctx)
}

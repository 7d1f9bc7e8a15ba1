// Package httpapi expone /healthz y /metrics para el orquestador.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jose-valero/acm-community-bot/internal/app/metrics"
)

type SizeReporter interface {
	Size(ctx context.Context) (int, error)
}

type Deps struct {
	Window *metrics.Window
	// Uptime es 0 mientras el gateway no haya mandado Ready
	Uptime      func() time.Duration
	Cooldowns   SizeReporter
	ActiveTemps func() int
}

type Server struct {
	deps   Deps
	log    *slog.Logger
	engine *gin.Engine
	srv    *http.Server
}

func New(addr string, d Deps, log *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{deps: d, log: log, engine: gin.New()}
	s.engine.Use(gin.Recovery(), s.accessLog())
	s.routes()
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/metrics", s.handleMetrics)
}

func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("http", "method", c.Request.Method, "path", c.FullPath(),
			"status", c.Writer.Status(), "took", time.Since(start))
	}
}

func (s *Server) uptime() time.Duration {
	if s.deps.Uptime == nil {
		return 0
	}
	return s.deps.Uptime()
}

func (s *Server) handleHealth(c *gin.Context) {
	up := s.uptime()
	if up <= 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "starting"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "uptimeSeconds": int64(up.Seconds())})
}

type metricsResponse struct {
	metrics.Metrics
	UptimeSeconds int64 `json:"uptimeSeconds"`
	Cooldowns     int   `json:"cooldowns"`
	TempChannels  int   `json:"tempChannels"`
}

func (s *Server) handleMetrics(c *gin.Context) {
	resp := metricsResponse{UptimeSeconds: int64(s.uptime().Seconds())}
	if s.deps.Window != nil {
		resp.Metrics = s.deps.Window.Snapshot()
	}
	if s.deps.Cooldowns != nil {
		n, err := s.deps.Cooldowns.Size(c.Request.Context())
		if err != nil {
			s.log.Warn("http: tamaño de cooldowns", "err", err)
		}
		resp.Cooldowns = n
	}
	if s.deps.ActiveTemps != nil {
		resp.TempChannels = s.deps.ActiveTemps()
	}
	c.JSON(http.StatusOK, resp)
}

// Start bloquea hasta Shutdown.
func (s *Server) Start() error {
	s.log.Info("🌐 HTTP escuchando", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

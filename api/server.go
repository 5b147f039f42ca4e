// Package api is the HTTP surface of the dashboard: telemetry ingestion for
// the agent, read endpoints for viewers and control/settings for the
// operator.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/rustyeddy/eadash/control"
	"github.com/rustyeddy/eadash/ingest"
	"github.com/rustyeddy/eadash/journal"
	"github.com/rustyeddy/eadash/pkg/id"
	"github.com/rustyeddy/eadash/settings"
	"github.com/rustyeddy/eadash/stats"
)

// Service is what the handlers need from the dashboard.
type Service interface {
	Status(ctx context.Context) (journal.Status, error)
	Trades(ctx context.Context, limit int) ([]journal.TradeRecord, error)
	Stats(ctx context.Context) (stats.Stats, error)
	Settings(ctx context.Context) (settings.Settings, error)
	ReplaceSettings(ctx context.Context, p settings.Partial) (settings.Settings, error)
	Ingest(ctx context.Context, p ingest.Payload) (ingest.Result, error)
	Control(ctx context.Context, action string) (control.State, error)
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host           string
	Port           int
	ProductionMode bool
	AllowedOrigins []string
}

// Addr is the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Server represents the HTTP API server.
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	svc        Service
	log        zerolog.Logger
	config     ServerConfig
}

// NewServer creates a new API server.
func NewServer(config ServerConfig, svc Service, log zerolog.Logger) *Server {
	if config.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(accessLog(log))
	router.Use(cors.New(corsConfig(config.AllowedOrigins)))

	s := &Server{
		router: router,
		svc:    svc,
		log:    log,
		config: config,
	}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:              config.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", requestIDHeader}
	cfg.ExposeHeaders = []string{"Content-Length", requestIDHeader}

	allowAll := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
	}
	if allowAll {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	{
		api.GET("/health", s.handleHealth)

		api.GET("/status", s.handleGetStatus)
		api.GET("/trades", s.handleGetTrades)
		api.GET("/stats", s.handleGetStats)

		api.GET("/settings", s.handleGetSettings)
		api.POST("/settings", s.handlePostSettings)

		api.POST("/update", s.handleUpdate)
		api.POST("/control/:action", s.handleControl)
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.httpServer.Addr).Msg("http server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

const requestIDHeader = "X-Request-ID"

// requestID keeps a caller-supplied ULID or assigns a new one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if !id.Valid(rid) {
			rid = id.New()
		}
		c.Set("request_id", rid)
		c.Header(requestIDHeader, rid)
		c.Next()
	}
}

func accessLog(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		ev := log.Info()
		switch {
		case status >= 500:
			ev = log.Error()
		case status >= 400:
			ev = log.Warn()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("request_id", c.GetString("request_id")).
			Msg("http request")
	}
}

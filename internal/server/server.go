// Package server exposes the converter over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loykin/j2g/internal/common"
	"github.com/loykin/j2g/internal/constants"
	"github.com/loykin/j2g/internal/convert"
	"github.com/loykin/j2g/internal/store"
)

// History is the subset of the conversion store used by the handlers.
type History interface {
	Record(ctx context.Context, e store.Entry) (store.Conversion, error)
	Get(ctx context.Context, id string) (store.Conversion, error)
	List(ctx context.Context, limit int) ([]store.Conversion, error)
}

type Config struct {
	Addr           string
	MaxUploadBytes int64
	RequestTimeout time.Duration
	Auth           AuthConfig
	// Options are used when a request names no conversion options.
	Options convert.Options
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = constants.DefaultServerAddr
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = constants.DefaultMaxUploadBytes
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = constants.DefaultRequestTimeout
	}
	if c.Options.Profile == "" {
		c.Options = convert.DefaultOptions()
	}
	return c
}

type Server struct {
	cfg     Config
	history History
	logger  *common.Logger
}

// New creates a server. history may be nil, which disables the history routes.
func New(cfg Config, history History) *Server {
	return &Server{
		cfg:     cfg.withDefaults(),
		history: history,
		logger:  common.GetLogger().WithComponent("server"),
	}
}

// Register mounts the routes on r, so the converter can live inside an
// existing gin application.
func (s *Server) Register(r gin.IRouter) {
	r.GET("/healthz", s.healthz)

	api := r.Group("/api")
	if s.cfg.Auth.Enabled() {
		api.Use(RequireJWT(s.cfg.Auth))
	}
	api.POST("/convert", s.convert)
	api.POST("/upload", s.upload)
	if s.history != nil {
		api.GET("/conversions", s.listConversions)
		api.GET("/conversions/:id", s.getConversion)
	}
}

// Handler returns a standalone gin engine serving all routes.
func (s *Server) Handler() http.Handler {
	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger())
	s.Register(engine)
	return engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		logger := s.logger.WithRequest(c.Request.Method, c.Request.URL.Path)
		c.Request = c.Request.WithContext(common.IntoContext(c.Request.Context(), logger))
		c.Next()
		logger.Debug("request served", "status", c.Writer.Status(), "duration", time.Since(start))
	}
}

func abortError(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

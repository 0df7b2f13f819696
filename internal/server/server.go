// Package server exposes the dispatcher over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dyne/scramble/internal/config"
	"github.com/dyne/scramble/internal/dispatch"
	"github.com/dyne/scramble/internal/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

const shutdownTimeout = 10 * time.Second

type Server struct {
	cfg    config.ServerConfig
	d      *dispatch.Dispatcher
	logger *log.Logger
	engine *gin.Engine
}

func New(cfg config.ServerConfig, d *dispatch.Dispatcher, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Discard()
	}
	if cfg.Addr == "" {
		cfg.Addr = config.DefaultAddr
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = config.DefaultMaxUploadBytes
	}
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOrigins = []string{"*"}
	}
	s := &Server{cfg: cfg, d: d, logger: logger}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(s.requestID(), s.accessLog(), s.recovery(), s.cors())
	r.MaxMultipartMemory = s.cfg.MaxUploadBytes

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.POST("/scramble", s.handleScramble)
	api.POST("/scramble/batch", s.handleBatch)
	api.POST("/scramble/upload", s.handleUpload)
	api.POST("/unscramble", s.handleUnscramble)
	api.POST("/encrypt", s.handleEncrypt)
	api.POST("/decrypt", s.handleDecrypt)
	api.GET("/models", s.handleModels)
	return r
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is canceled, then drains open requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("listening on %s", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	s.logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Infof("%s %s %d %s id=%s", c.Request.Method, c.Request.URL.Path,
			c.Writer.Status(), time.Since(start), c.GetString(requestIDHeader))
		for _, e := range c.Errors {
			s.logger.Debugf("request %s: %v", c.GetString(requestIDHeader), e.Err)
		}
	}
}

func (s *Server) recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Warnf("panic serving %s: %v", c.Request.URL.Path, r)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			}
		}()
		c.Next()
	}
}

// cors allows the configured origins with credentials. A "*" entry echoes
// the caller's Origin, since browsers reject a literal "*" with credentials.
func (s *Server) cors() gin.HandlerFunc {
	allowAll := false
	allowed := map[string]bool{}
	for _, o := range s.cfg.AllowOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowAll || allowed[origin]) {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
			if c.Request.Method == http.MethodOptions {
				methods := c.GetHeader("Access-Control-Request-Method")
				if methods == "" {
					methods = "GET, POST, OPTIONS"
				}
				h.Set("Access-Control-Allow-Methods", methods)
				if hdrs := c.GetHeader("Access-Control-Request-Headers"); hdrs != "" {
					h.Set("Access-Control-Allow-Headers", hdrs)
				}
				h.Set("Access-Control-Max-Age", "600")
			}
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

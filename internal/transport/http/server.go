package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"quorum/internal/logger"

	"github.com/gin-gonic/gin"
)

// Server owns the HTTP listener lifecycle.
type Server struct {
	Addr   string
	Router *Router
}

func NewServer(addr string, router *Router) *Server {
	return &Server{Addr: addr, Router: router}
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLog())
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.Router.Register(engine.Group("/api/v1"))

	srv := &http.Server{Addr: s.Addr, Handler: engine}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("http listening on %s", s.Addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debugf("%s %s -> %d (%s)",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(),
			time.Since(start).Truncate(time.Millisecond))
	}
}

package httpserver

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/migrate"
)

// SchemaCheck reports the database migration state. It fails when the
// database cannot be reached.
type SchemaCheck func(ctx context.Context) (migrate.Schema, error)

// Server wraps the HTTP server setup.
type Server struct {
	httpServer *http.Server
	logger     *log.Logger
}

// New builds a Server with the storefront routes. /readyz answers 200 only
// while schema reports every migration applied.
func New(addr string, logger *log.Logger, schema SchemaCheck, deps Deps, corsOrigins []string) (*Server, error) {
	router, err := buildRouter(logger, schema, deps, corsOrigins)
	if err != nil {
		return nil, err
	}

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Server{
		httpServer: httpSrv,
		logger:     logger,
	}, nil
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func readyHandler(schema SchemaCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		if schema == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "db not configured"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()
		state, err := schema(ctx)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "db not reachable"})
			return
		}
		if !state.Current() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "schema not current", "schema": state})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "schema": state})
	}
}

// Package api exposes the query pipeline over HTTP. The surface is
// deliberately small: ask, search, and a health probe.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/machinecraft-tech/vectorpenter/internal/core/domain"
	"github.com/machinecraft-tech/vectorpenter/internal/core/ports/driving"
	"github.com/machinecraft-tech/vectorpenter/internal/logger"
)

// Server serves the HTTP API.
type Server struct {
	query  driving.QueryService
	engine *gin.Engine
}

// NewServer creates an HTTP API server around the query service.
func NewServer(query driving.QueryService) (*Server, error) {
	if query == nil {
		return nil, errors.New("api: query service is required")
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestID())

	s := &Server{
		query:  query,
		engine: engine,
	}

	engine.GET("/health", s.handleHealth)
	engine.POST("/ask", s.handleAsk)
	engine.POST("/search", s.handleSearch)

	return s, nil
}

// Handler returns the underlying HTTP handler, used by tests and by
// callers embedding the API in their own server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	logger.Info("HTTP API listening on %s", addr)
	err := httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// requestID tags every request with an identifier, echoed in the
// X-Request-ID response header. Clients may supply their own.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)
		c.Next()
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn("request %s %s failed with %d (id=%s)",
				c.Request.Method, c.Request.URL.Path, c.Writer.Status(), id)
		}
	}
}

// askRequest is the POST /ask body.
type askRequest struct {
	Question  string `json:"question" binding:"required"`
	K         int    `json:"k"`
	Hybrid    bool   `json:"hybrid"`
	Rerank    bool   `json:"rerank"`
	Grounding bool   `json:"grounding"`
}

// searchRequest is the POST /search body.
type searchRequest struct {
	Query  string `json:"query" binding:"required"`
	K      int    `json:"k"`
	Hybrid bool   `json:"hybrid"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleAsk(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	result, err := s.query.Ask(c.Request.Context(), req.Question, domain.AskOptions{
		K:         req.K,
		Hybrid:    req.Hybrid,
		Rerank:    req.Rerank,
		Grounding: req.Grounding,
	})
	if err != nil {
		c.JSON(statusFor(err), errorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleSearch(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	results, err := s.query.Search(c.Request.Context(), req.Query, domain.AskOptions{
		K:      req.K,
		Hybrid: req.Hybrid,
	})
	if err != nil {
		c.JSON(statusFor(err), errorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"count":   len(results),
	})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrEmbeddingUnavailable),
		errors.Is(err, domain.ErrVectorIndexUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

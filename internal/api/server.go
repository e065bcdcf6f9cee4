// Package api serves the chunk pipeline over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"

	"sublearn/internal/domain"
	"sublearn/internal/pipeline"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// MetricsPath is where the Prometheus registry is served
const MetricsPath = "/metrics"

// ChunkStarter starts chunk jobs
type ChunkStarter interface {
	Start(ctx context.Context, req pipeline.ChunkRequest) (string, error)
}

// TaskReader reads task progress
type TaskReader interface {
	Get(taskID string) (domain.ProcessingTask, error)
}

// Vocabulary reads and updates what a learner knows
type Vocabulary interface {
	MarkWordKnown(ctx context.Context, userID int64, lemma, language string, known bool) (*domain.UserVocabularyProgress, error)
	GetKnownWords(ctx context.Context, userID int64, language string) ([]string, error)
}

// Instrumentation is the optional metrics hook of the server
type Instrumentation interface {
	Middleware(metricsPath string) echo.MiddlewareFunc
	Handler() http.Handler
}

// Server holds the HTTP handlers
type Server struct {
	chunks          ChunkStarter
	tasks           TaskReader
	vocabulary      Vocabulary
	defaultLanguage string
	logger          *zap.Logger
}

// NewServer creates a new HTTP server
func NewServer(chunks ChunkStarter, tasks TaskReader, vocabulary Vocabulary, defaultLanguage string, logger *zap.Logger) *Server {
	return &Server{
		chunks:          chunks,
		tasks:           tasks,
		vocabulary:      vocabulary,
		defaultLanguage: defaultLanguage,
		logger:          logger,
	}
}

// Echo builds the router. metrics may be nil.
func (s *Server) Echo(metrics Instrumentation) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.errorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	if metrics != nil {
		e.Use(metrics.Middleware(MetricsPath))
		e.GET(MetricsPath, echo.WrapHandler(metrics.Handler()))
	}

	api := e.Group("/api")
	api.POST("/chunks", s.StartChunk)
	api.GET("/tasks/:id", s.GetTask)
	api.POST("/vocabulary/known", s.MarkKnown)
	api.GET("/vocabulary/known", s.ListKnown)

	return e
}

func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := http.StatusText(code)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(code)
		}
	} else {
		s.logger.Error("Unhandled API error",
			zap.String("path", c.Path()),
			zap.Error(err))
	}

	if err := c.JSON(code, map[string]string{"error": message}); err != nil {
		s.logger.Warn("Failed to write error response", zap.Error(err))
	}
}

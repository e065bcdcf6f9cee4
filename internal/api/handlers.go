package api

import (
	"errors"
	"net/http"
	"strconv"

	"sublearn/internal/pipeline"
	"sublearn/internal/service"
	"sublearn/internal/tasks"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type startChunkResponse struct {
	TaskID string `json:"task_id"`
}

type markKnownRequest struct {
	UserID   int64  `json:"user_id"`
	Lemma    string `json:"lemma"`
	Language string `json:"language"`
	Known    *bool  `json:"known"`
}

type knownWordsResponse struct {
	UserID   int64    `json:"user_id"`
	Language string   `json:"language"`
	Words    []string `json:"words"`
	Count    int      `json:"count"`
}

// StartChunk handles POST /api/chunks
func (s *Server) StartChunk(c echo.Context) error {
	var req pipeline.ChunkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	taskID, err := s.chunks.Start(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, pipeline.ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		s.logger.Error("Failed to start chunk", zap.Error(err))
		return err
	}

	return c.JSON(http.StatusAccepted, startChunkResponse{TaskID: taskID})
}

// GetTask handles GET /api/tasks/:id
func (s *Server) GetTask(c echo.Context) error {
	task, err := s.tasks.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, tasks.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "task not found")
		}
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// MarkKnown handles POST /api/vocabulary/known
func (s *Server) MarkKnown(c echo.Context) error {
	var req markKnownRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.UserID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}

	known := true
	if req.Known != nil {
		known = *req.Known
	}
	language := req.Language
	if language == "" {
		language = s.defaultLanguage
	}

	progress, err := s.vocabulary.MarkWordKnown(c.Request().Context(), req.UserID, req.Lemma, language, known)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return err
	}
	return c.JSON(http.StatusOK, progress)
}

// ListKnown handles GET /api/vocabulary/known?user_id=&language=
func (s *Server) ListKnown(c echo.Context) error {
	userID, err := strconv.ParseInt(c.QueryParam("user_id"), 10, 64)
	if err != nil || userID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}
	language := c.QueryParam("language")
	if language == "" {
		language = s.defaultLanguage
	}

	words, err := s.vocabulary.GetKnownWords(c.Request().Context(), userID, language)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return err
	}
	return c.JSON(http.StatusOK, knownWordsResponse{
		UserID:   userID,
		Language: language,
		Words:    words,
		Count:    len(words),
	})
}

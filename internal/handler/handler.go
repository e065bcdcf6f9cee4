package handler

import (
	"context"
	"sync"

	"sublearn/internal/domain"
	"sublearn/internal/middleware"
	"sublearn/internal/pipeline"
	"sublearn/internal/service"
	"sublearn/internal/tasks"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// ChunkStarter starts chunk jobs
type ChunkStarter interface {
	Start(ctx context.Context, req pipeline.ChunkRequest) (string, error)
}

// Handler manages all bot interactions
type Handler struct {
	bot          *tele.Bot
	authService  *service.AuthService
	vocabService *service.VocabularyService
	statsService *service.StatsService
	chunks       ChunkStarter
	registry     *tasks.Registry
	language     string
	logger       *zap.Logger

	// User states (in-memory state machine)
	states   map[int64]*domain.StateData
	stateMux sync.RWMutex
}

// NewHandler creates a new handler instance
func NewHandler(
	bot *tele.Bot,
	authService *service.AuthService,
	vocabService *service.VocabularyService,
	statsService *service.StatsService,
	chunks ChunkStarter,
	registry *tasks.Registry,
	language string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		bot:          bot,
		authService:  authService,
		vocabService: vocabService,
		statsService: statsService,
		chunks:       chunks,
		registry:     registry,
		language:     language,
		logger:       logger,
		states:       make(map[int64]*domain.StateData),
	}
}

// RegisterHandlers registers all bot handlers
func (h *Handler) RegisterHandlers() {
	h.bot.Handle("/start", h.handleStart)
	h.bot.Handle("/help", h.handleHelp)

	// Password entry goes through handleText, which checks authorization itself
	h.bot.Handle(tele.OnText, h.handleText)

	member := h.bot.Group()
	member.Use(middleware.AuthMiddleware(h.authService, h.logger))
	member.Handle("/chunk", h.handleChunk)
	member.Handle("/progress", h.handleProgress)
	member.Handle("/known", h.handleKnown)
	member.Handle("/unknown", h.handleUnknown)
	member.Handle("/words", h.handleWords)
	member.Handle("/level", h.handleLevel)
	member.Handle("/stats", h.handleStats)

	member.Handle(&btnRefresh, h.handleRefresh)
	member.Handle(&btnHelp, h.handleHelp)
	member.Handle(tele.OnCallback, h.handleCallback)
}

// GetState returns user's current state
func (h *Handler) GetState(userID int64) *domain.StateData {
	h.stateMux.RLock()
	defer h.stateMux.RUnlock()

	state, exists := h.states[userID]
	if !exists {
		return &domain.StateData{State: domain.StateIdle}
	}
	copied := *state
	return &copied
}

// SetState sets user's state
func (h *Handler) SetState(userID int64, state *domain.StateData) {
	h.stateMux.Lock()
	defer h.stateMux.Unlock()
	h.states[userID] = state
}

// ResetState resets user to idle state, keeping the last started task
func (h *Handler) ResetState(userID int64) {
	last := h.GetState(userID).LastTaskID
	h.SetState(userID, &domain.StateData{State: domain.StateIdle, LastTaskID: last})
}

// Inline keyboard buttons
var (
	btnRefresh = tele.Btn{
		Unique: "refresh",
		Text:   "🔄 Обновить",
	}
	btnHelp = tele.Btn{
		Unique: "help",
		Text:   "❓ Команды",
	}
)

// progressMarkup returns a keyboard that refreshes the given task
func progressMarkup(taskID string) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	refresh := btnRefresh
	refresh.Data = taskID
	menu.Inline(
		menu.Row(refresh),
		menu.Row(btnHelp),
	)
	return menu
}

const (
	msgInternalError = "Произошла ошибка. Попробуйте позже."
	msgPassword      = "Привет! Это бот для изучения языка по субтитрам. Введи пароль:"
)

package handler

import (
	"context"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const helpText = `📚 Команды

/chunk <видео> <начало> <конец> - разобрать фрагмент (секунды или ЧЧ:ММ:СС)
/progress [id] - прогресс задачи
/known <слово> - отметить слово как известное
/unknown <слово> - вернуть слово в изучаемые
/words - список известных слов
/level [A1..C2] - показать или изменить уровень
/stats - статистика`

// handleStart handles /start command
func (h *Handler) handleStart(c tele.Context) error {
	userID := c.Sender().ID
	ctx := context.Background()

	h.logger.Info("User started bot",
		zap.Int64("user_id", userID),
		zap.String("username", c.Sender().Username),
	)

	// Ensure user exists in database
	if err := h.authService.EnsureUserExists(ctx, userID); err != nil {
		h.logger.Error("Failed to ensure user exists", zap.Error(err))
		return c.Send(msgInternalError)
	}

	authorized, err := h.authService.IsAuthorized(ctx, userID)
	if err != nil {
		h.logger.Error("Failed to check authorization", zap.Error(err))
		return c.Send(msgInternalError)
	}

	h.ResetState(userID)
	if !authorized {
		return c.Send(msgPassword)
	}
	return c.Send(helpText)
}

// handleHelp lists the commands
func (h *Handler) handleHelp(c tele.Context) error {
	if c.Callback() != nil {
		if err := c.Respond(); err != nil {
			h.logger.Warn("Failed to acknowledge callback", zap.Error(err))
		}
	}
	return c.Send(helpText)
}

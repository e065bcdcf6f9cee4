package handler

import (
	"errors"
	"strings"
	"unicode"

	"sublearn/internal/tasks"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// cleanCallbackData removes all non-printable characters from callback data
func cleanCallbackData(data string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) {
			return r
		}
		return -1
	}, strings.TrimSpace(data))
}

// splitCallbackData parses raw "unique|data" payloads that reach OnCallback
func splitCallbackData(data string) (string, string) {
	unique, payload, _ := strings.Cut(cleanCallbackData(data), "|")
	return unique, payload
}

// handleEditError handles errors from c.Edit() - if message is not modified, just acknowledge callback
// Otherwise, acknowledge callback and return error so caller can send new message
func (h *Handler) handleEditError(err error, c tele.Context, userID int64) error {
	if err == nil {
		return nil
	}

	// Pressing refresh twice without progress leaves the text unchanged
	if errors.Is(err, tele.ErrSameMessageContent) || strings.Contains(err.Error(), "message is not modified") {
		h.logger.Debug("Progress unchanged, acknowledging",
			zap.Int64("user_id", userID),
			zap.String("callback_id", c.Callback().ID),
		)
		if ackErr := c.Respond(&tele.CallbackResponse{Text: "Без изменений"}); ackErr != nil {
			h.logger.Warn("Failed to acknowledge callback", zap.Error(ackErr))
		}
		return nil
	}

	h.logger.Warn("Failed to edit message, sending new",
		zap.Error(err),
		zap.Int64("user_id", userID),
		zap.String("callback_id", c.Callback().ID),
	)
	if ackErr := c.Respond(); ackErr != nil {
		h.logger.Warn("Failed to acknowledge callback", zap.Error(ackErr))
	}
	return err
}

// handleRefresh re-renders the progress message of the task in the callback data
func (h *Handler) handleRefresh(c tele.Context) error {
	return h.refreshProgress(c, cleanCallbackData(c.Callback().Data))
}

func (h *Handler) refreshProgress(c tele.Context, taskID string) error {
	userID := c.Sender().ID

	task, err := h.registry.Get(taskID)
	if err != nil {
		if errors.Is(err, tasks.ErrNotFound) {
			return c.Respond(&tele.CallbackResponse{Text: "Задача не найдена"})
		}
		return c.Respond()
	}

	var editErr error
	if task.Terminal() {
		editErr = c.Edit(formatProgress(task))
	} else {
		editErr = c.Edit(formatProgress(task), progressMarkup(taskID))
	}
	if editErr == nil {
		return c.Respond()
	}
	if err := h.handleEditError(editErr, c, userID); err != nil {
		return c.Send(formatProgress(task))
	}
	return nil
}

// handleCallback handles callback queries that did not match a registered button
func (h *Handler) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		h.logger.Warn("handleCallback: callback is nil")
		return nil
	}

	unique, payload := callback.Unique, cleanCallbackData(callback.Data)
	if unique == "" {
		unique, payload = splitCallbackData(callback.Data)
	}

	h.logger.Debug("Processing callback",
		zap.String("unique", unique),
		zap.String("data", payload),
		zap.Int64("user_id", c.Sender().ID),
	)

	switch unique {
	case btnRefresh.Unique:
		return h.refreshProgress(c, payload)
	case btnHelp.Unique:
		return h.handleHelp(c)
	default:
		return c.Respond()
	}
}

package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sublearn/internal/service"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// handleText handles plain text: the password gate for new users
func (h *Handler) handleText(c tele.Context) error {
	userID := c.Sender().ID
	text := strings.TrimSpace(c.Text())
	ctx := context.Background()

	// Ignore commands (starting with /)
	if strings.HasPrefix(text, "/") {
		return nil
	}

	if err := h.authService.EnsureUserExists(ctx, userID); err != nil {
		h.logger.Error("Failed to ensure user exists", zap.Error(err))
		return nil
	}

	authorized, err := h.authService.IsAuthorized(ctx, userID)
	if err != nil {
		h.logger.Error("Failed to check authorization", zap.Error(err))
		return c.Send(msgInternalError)
	}

	if !authorized {
		err := h.authService.Login(ctx, userID, text)
		switch {
		case errors.Is(err, service.ErrWrongPassword):
			return c.Send("Неверный пароль")
		case err != nil:
			h.logger.Error("Failed to authorize user", zap.Error(err))
			return c.Send(msgInternalError)
		}

		h.logger.Info("User authorized", zap.Int64("user_id", userID))
		h.ResetState(userID)
		return c.Send("✅ Доступ разрешён!\n\n" + helpText)
	}

	// A single word sent by an authorized user is marked as known
	if !strings.ContainsAny(text, " \t\n") {
		return h.markWord(c, text, true)
	}
	return c.Send(helpText)
}

// handleKnown handles /known <lemma>
func (h *Handler) handleKnown(c tele.Context) error {
	return h.markWord(c, c.Data(), true)
}

// handleUnknown handles /unknown <lemma>
func (h *Handler) handleUnknown(c tele.Context) error {
	return h.markWord(c, c.Data(), false)
}

func (h *Handler) markWord(c tele.Context, lemma string, known bool) error {
	userID := c.Sender().ID
	lemma = strings.TrimSpace(lemma)
	if lemma == "" {
		return c.Send("Укажи слово: /known Haus")
	}

	progress, err := h.vocabService.MarkWordKnown(context.Background(), userID, lemma, h.language, known)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			return c.Send("Нужно одно слово, например: /known Haus")
		}
		h.logger.Error("Failed to mark word",
			zap.Int64("user_id", userID),
			zap.String("lemma", lemma),
			zap.Error(err))
		return c.Send(msgInternalError)
	}

	if !known {
		return c.Send(fmt.Sprintf("↩️ «%s» снова в изучаемых", progress.Lemma))
	}
	return c.Send(fmt.Sprintf("✅ «%s» известно (уверенность %d/5, повторений %d)",
		progress.Lemma, progress.ConfidenceLevel, progress.ReviewCount))
}

// handleWords lists known lemmas
func (h *Handler) handleWords(c tele.Context) error {
	userID := c.Sender().ID

	words, err := h.vocabService.GetKnownWords(context.Background(), userID, h.language)
	if err != nil {
		h.logger.Error("Failed to list known words", zap.Int64("user_id", userID), zap.Error(err))
		return c.Send(msgInternalError)
	}
	return c.Send(formatWordList(words, maxListedWords))
}

// handleLevel shows or sets the CEFR level
func (h *Handler) handleLevel(c tele.Context) error {
	userID := c.Sender().ID
	ctx := context.Background()
	raw := strings.TrimSpace(c.Data())

	if raw == "" {
		level, err := h.vocabService.GetLevel(ctx, userID)
		if err != nil {
			h.logger.Error("Failed to get level", zap.Int64("user_id", userID), zap.Error(err))
			return c.Send(msgInternalError)
		}
		return c.Send(fmt.Sprintf("Твой уровень: %s\nИзменить: /level B1", level))
	}

	level, err := h.vocabService.SetLevel(ctx, userID, raw)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			return c.Send("Уровни: A1, A2, B1, B2, C1, C2")
		}
		h.logger.Error("Failed to set level", zap.Int64("user_id", userID), zap.Error(err))
		return c.Send(msgInternalError)
	}

	h.logger.Info("Level changed", zap.Int64("user_id", userID), zap.String("level", string(level)))
	return c.Send(fmt.Sprintf("✅ Уровень: %s", level))
}

// handleStats shows learner statistics
func (h *Handler) handleStats(c tele.Context) error {
	userID := c.Sender().ID

	stats, err := h.statsService.UserStats(context.Background(), userID, h.language)
	if err != nil {
		h.logger.Error("Failed to get stats", zap.Int64("user_id", userID), zap.Error(err))
		return c.Send(msgInternalError)
	}
	return c.Send(fmt.Sprintf("📊 Язык: %s\nУровень: %s\nИзвестных слов: %d",
		stats.Language, stats.Level, stats.KnownWords))
}

const maxListedWords = 100

func formatWordList(words []string, limit int) string {
	if len(words) == 0 {
		return "Пока нет известных слов. Отметь первое: /known Haus"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📖 Известных слов: %d\n\n", len(words))
	shown := words
	if len(shown) > limit {
		shown = shown[:limit]
	}
	b.WriteString(strings.Join(shown, ", "))
	if len(words) > limit {
		fmt.Fprintf(&b, "\n\n…и ещё %d", len(words)-limit)
	}
	return b.String()
}

package middleware

import (
	"context"

	"sublearn/internal/service"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// AuthMiddleware creates authentication middleware
func AuthMiddleware(authService *service.AuthService, logger *zap.Logger) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			userID := c.Sender().ID
			ctx := context.Background()

			// Ensure user exists
			if err := authService.EnsureUserExists(ctx, userID); err != nil {
				logger.Error("Failed to ensure user exists in middleware", zap.Error(err))
				return c.Send("Произошла ошибка. Попробуйте позже.")
			}

			// Check authorization
			authorized, err := authService.IsAuthorized(ctx, userID)
			if err != nil {
				logger.Error("Failed to check authorization in middleware", zap.Error(err))
				return c.Send("Произошла ошибка. Попробуйте позже.")
			}

			if !authorized {
				logger.Debug("Rejected unauthorized command",
					zap.Int64("user_id", userID),
					zap.String("text", c.Text()))
				if c.Callback() != nil {
					return c.Respond(&tele.CallbackResponse{Text: "Сначала введи пароль"})
				}
				return c.Send("Сначала введи пароль. Начни с /start")
			}

			return next(c)
		}
	}
}

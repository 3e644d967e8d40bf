package controllers

import (
	"crypto/subtle"
	"net/http"

	"maintenance-desk/pkg/telegram"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// UpdateQueue принимает обновления Telegram на обработку (bot.Bot).
type UpdateQueue interface {
	Enqueue(update telegram.Update) error
}

type TelegramController struct {
	queue  UpdateQueue
	secret string
	logger *zap.Logger
}

// NewTelegramController: при непустом secret принимаются только запросы
// с этим значением в заголовке X-Telegram-Bot-Api-Secret-Token.
func NewTelegramController(queue UpdateQueue, secret string, logger *zap.Logger) *TelegramController {
	return &TelegramController{
		queue:  queue,
		secret: secret,
		logger: logger,
	}
}

// HandleTelegramWebhook на любое обновление от Telegram отвечает 200: иначе
// Telegram будет повторять доставку того же обновления.
func (c *TelegramController) HandleTelegramWebhook(ctx echo.Context) error {
	if !c.authorized(ctx) {
		c.logger.Warn("Webhook: неверный секрет", zap.String("ip", ctx.RealIP()))
		return ctx.NoContent(http.StatusUnauthorized)
	}

	var update telegram.Update
	if err := ctx.Bind(&update); err != nil {
		c.logger.Warn("Webhook: не удалось разобрать обновление", zap.Error(err))
		return ctx.NoContent(http.StatusOK)
	}

	if err := c.queue.Enqueue(update); err != nil {
		c.logger.Warn("Webhook: обновление не принято", zap.Int64("updateID", update.UpdateID), zap.Error(err))
	}
	return ctx.NoContent(http.StatusOK)
}

func (c *TelegramController) authorized(ctx echo.Context) bool {
	if c.secret == "" {
		return true
	}
	got := ctx.Request().Header.Get(telegram.SecretTokenHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(c.secret)) == 1
}

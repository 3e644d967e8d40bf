package routes

import (
	"maintenance-desk/internal/controllers"
	"maintenance-desk/pkg/logger"

	"github.com/labstack/echo/v4"
)

func runTelegramRouter(api *echo.Group, updates controllers.UpdateQueue, secret string, loggers *logger.Loggers) {
	tgController := controllers.NewTelegramController(updates, secret, loggers.Bot)

	api.POST("/webhooks/telegram", tgController.HandleTelegramWebhook)
}

package routes

import (
	"maintenance-desk/internal/controllers"
	"maintenance-desk/internal/services"
	"maintenance-desk/pkg/filestorage"
	"maintenance-desk/pkg/logger"
	"maintenance-desk/pkg/middleware"
	"maintenance-desk/pkg/service"
	"maintenance-desk/pkg/websocket"

	"github.com/labstack/echo/v4"
)

// Dependencies — всё, что собирает main и что нужно маршрутам.
type Dependencies struct {
	RequestService   services.RequestServiceInterface
	AuthService      services.AuthServiceInterface
	EquipmentService services.EquipmentServiceInterface
	FileStorage      filestorage.FileStorageInterface
	JWTService       service.JWTService
	Hub              *websocket.Hub
	// TelegramUpdates — очередь бота; nil, если бот выключен или работает через long polling.
	TelegramUpdates controllers.UpdateQueue
	// TelegramWebhookSecret — ожидаемый X-Telegram-Bot-Api-Secret-Token; пусто — без проверки.
	TelegramWebhookSecret string
	DB                    controllers.Pinger
	Loggers               *logger.Loggers
}

func InitRouter(e *echo.Echo, deps Dependencies) {
	loggers := deps.Loggers
	loggers.Main.Info("InitRouter: Начало создания маршрутов")

	api := e.Group("/api")
	authMW := middleware.NewAuthMiddleware(deps.JWTService, loggers.Auth)
	open := api.Group("", authMW.OptionalAuth)

	api.GET("/health", controllers.NewHealthController(deps.DB).Health)

	runAuthRouter(api, deps.AuthService, loggers)
	runRequestRouter(open, deps.RequestService, loggers)
	runEquipmentRouter(open, deps.EquipmentService, loggers)
	runFileRouter(open, deps.FileStorage, loggers)

	if deps.Hub != nil {
		wsCtrl := controllers.NewWebSocketController(deps.Hub, deps.JWTService, loggers.Main)
		api.GET("/ws", wsCtrl.ServeWs)
	}
	if deps.TelegramUpdates != nil {
		runTelegramRouter(api, deps.TelegramUpdates, deps.TelegramWebhookSecret, loggers)
	}

	loggers.Main.Info("InitRouter: Маршруты созданы")
}

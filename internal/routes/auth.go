package routes

import (
	"maintenance-desk/internal/controllers"
	"maintenance-desk/internal/services"
	"maintenance-desk/pkg/logger"

	"github.com/labstack/echo/v4"
)

func runAuthRouter(api *echo.Group, authService services.AuthServiceInterface, loggers *logger.Loggers) {
	authCtrl := controllers.NewAuthController(authService, loggers.Auth)

	api.POST("/auth/login", authCtrl.Login)
}

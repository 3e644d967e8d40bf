package routes

import (
	"maintenance-desk/internal/controllers"
	"maintenance-desk/pkg/filestorage"
	"maintenance-desk/pkg/logger"

	"github.com/labstack/echo/v4"
)

func runFileRouter(group *echo.Group, fileStorage filestorage.FileStorageInterface, loggers *logger.Loggers) {
	fileCtrl := controllers.NewFileController(fileStorage, loggers.Main)

	group.GET("/files/*", fileCtrl.GetFile)
}

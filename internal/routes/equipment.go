package routes

import (
	"maintenance-desk/internal/controllers"
	"maintenance-desk/internal/services"
	"maintenance-desk/pkg/logger"

	"github.com/labstack/echo/v4"
)

func runEquipmentRouter(group *echo.Group, equipmentService services.EquipmentServiceInterface, loggers *logger.Loggers) {
	equipmentCtrl := controllers.NewEquipmentController(equipmentService, loggers.Main)

	group.GET("/equipment", equipmentCtrl.GetEquipment)
}

package routes

import (
	"maintenance-desk/internal/controllers"
	"maintenance-desk/internal/services"
	"maintenance-desk/pkg/logger"

	"github.com/labstack/echo/v4"
)

func runRequestRouter(group *echo.Group, requestService services.RequestServiceInterface, loggers *logger.Loggers) {
	requestCtrl := controllers.NewRequestController(requestService, loggers.Request)
	employeeCtrl := controllers.NewEmployeeController(requestService, loggers.Request)

	requests := group.Group("/requests")
	requests.GET("", requestCtrl.GetRequests)
	requests.POST("", requestCtrl.CreateRequest)
	requests.GET("/:id", requestCtrl.FindRequest)
	requests.GET("/:id/history", requestCtrl.GetHistory)
	requests.POST("/:id/assign", requestCtrl.AssignTechnician)
	requests.POST("/:id/status", requestCtrl.UpdateStatus)

	group.GET("/employees", employeeCtrl.GetEmployees)
}

package controllers

import (
	"net/http"

	"maintenance-desk/internal/services"
	"maintenance-desk/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type EmployeeController struct {
	requestService services.RequestServiceInterface
	logger         *zap.Logger
}

func NewEmployeeController(requestService services.RequestServiceInterface, logger *zap.Logger) *EmployeeController {
	return &EmployeeController{
		requestService: requestService,
		logger:         logger,
	}
}

// GetEmployees — мастера с текущей нагрузкой.
func (c *EmployeeController) GetEmployees(ctx echo.Context) error {
	res, err := c.requestService.GetEmployees(ctx.Request().Context())
	if err != nil {
		c.logger.Error("GetEmployees: ошибка получения мастеров", zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Список мастеров получен", http.StatusOK)
}

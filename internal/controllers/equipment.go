package controllers

import (
	"net/http"

	"maintenance-desk/internal/services"
	apperrors "maintenance-desk/pkg/errors"
	"maintenance-desk/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type EquipmentController struct {
	equipmentService services.EquipmentServiceInterface
	logger           *zap.Logger
}

func NewEquipmentController(service services.EquipmentServiceInterface, logger *zap.Logger) *EquipmentController {
	return &EquipmentController{
		equipmentService: service,
		logger:           logger,
	}
}

func (c *EquipmentController) GetEquipment(ctx echo.Context) error {
	res, err := c.equipmentService.GetEquipment(ctx.Request().Context())
	if err != nil {
		c.logger.Error("GetEquipment: ошибка при получении списка оборудования", zap.Error(err))
		return utils.ErrorResponse(
			ctx,
			apperrors.NewHttpError(http.StatusInternalServerError, "Не удалось получить список оборудования", err),
			c.logger,
		)
	}

	return utils.SuccessResponse(ctx, res, "Список оборудования успешно получен", http.StatusOK)
}

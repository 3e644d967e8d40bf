package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"maintenance-desk/internal/dto"
	"maintenance-desk/internal/services"
	"maintenance-desk/pkg/constants"
	apperrors "maintenance-desk/pkg/errors"
	"maintenance-desk/pkg/utils"

	"github.com/aarondl/null/v8"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type RequestController struct {
	requestService services.RequestServiceInterface
	logger         *zap.Logger
}

func NewRequestController(requestService services.RequestServiceInterface, logger *zap.Logger) *RequestController {
	return &RequestController{
		requestService: requestService,
		logger:         logger,
	}
}

func (c *RequestController) errorResponse(ctx echo.Context, err error) error {
	return utils.ErrorResponse(ctx, err, c.logger)
}

// GetRequests: GET /requests?user_id=&role=&status=&limit=&offset=
func (c *RequestController) GetRequests(ctx echo.Context) error {
	query := dto.RequestListQuery{
		Role:   strings.TrimSpace(ctx.QueryParam("role")),
		Status: ctx.QueryParam("status"),
	}

	var err error
	if query.UserID, err = parseOptionalID(ctx.QueryParam("user_id")); err != nil {
		return c.errorResponse(ctx, apperrors.NewBadRequestError("Некорректный user_id"))
	}
	if query.Limit, err = parseOptionalUint(ctx.QueryParam("limit")); err != nil {
		return c.errorResponse(ctx, apperrors.NewBadRequestError("Некорректный limit"))
	}
	if query.Offset, err = parseOptionalUint(ctx.QueryParam("offset")); err != nil {
		return c.errorResponse(ctx, apperrors.NewBadRequestError("Некорректный offset"))
	}

	res, err := c.requestService.GetRequests(ctx.Request().Context(), query)
	if err != nil {
		c.logger.Error("GetRequests: ошибка получения заявок", zap.Error(err))
		return c.errorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, res, "Список заявок получен", http.StatusOK)
}

func (c *RequestController) FindRequest(ctx echo.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return c.errorResponse(ctx, err)
	}

	res, err := c.requestService.FindRequest(ctx.Request().Context(), id)
	if err != nil {
		return c.errorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, res, "Заявка получена", http.StatusOK)
}

func (c *RequestController) GetHistory(ctx echo.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return c.errorResponse(ctx, err)
	}

	res, err := c.requestService.GetHistory(ctx.Request().Context(), id)
	if err != nil {
		return c.errorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, res, "История заявки получена", http.StatusOK)
}

// CreateRequest: multipart/form-data с полями user_id, device_id, description и файлом photo.
func (c *RequestController) CreateRequest(ctx echo.Context) error {
	userID, err := parseOptionalID(ctx.FormValue("user_id"))
	if err != nil {
		return c.errorResponse(ctx, apperrors.NewBadRequestError("Некорректный user_id"))
	}
	deviceID, err := parseOptionalID(ctx.FormValue("device_id"))
	if err != nil {
		return c.errorResponse(ctx, apperrors.NewBadRequestError("Некорректный device_id"))
	}

	data := dto.CreateRequestDTO{
		UserID:      userID,
		DeviceID:    deviceID,
		Description: ctx.FormValue("description"),
	}
	if err := ctx.Validate(&data); err != nil {
		c.logger.Warn("CreateRequest: не заполнены обязательные поля", zap.Error(err))
		return c.errorResponse(ctx, apperrors.NewInvalidInputError("Missing required fields"))
	}

	var photo *dto.FileUpload
	fileHeader, err := ctx.FormFile("photo")
	switch {
	case err == nil:
		file, err := fileHeader.Open()
		if err != nil {
			c.logger.Error("CreateRequest: не удалось открыть файл", zap.Error(err))
			return c.errorResponse(ctx, apperrors.NewBadRequestError("Не удалось прочитать файл"))
		}
		defer file.Close()
		photo = &dto.FileUpload{
			Reader:      file,
			FileName:    fileHeader.Filename,
			Size:        fileHeader.Size,
			ContentType: fileHeader.Header.Get("Content-Type"),
		}
	case !errors.Is(err, http.ErrMissingFile):
		c.logger.Warn("CreateRequest: ошибка чтения multipart", zap.Error(err))
	}

	created, err := c.requestService.CreateRequest(ctx.Request().Context(), data, photo, c.actor(ctx))
	if err != nil {
		c.logger.Error("CreateRequest: ошибка создания заявки", zap.Error(err))
		return c.errorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, dto.CreatedResponseDTO{ID: created.ID}, "Заявка создана", http.StatusCreated)
}

func (c *RequestController) AssignTechnician(ctx echo.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return c.errorResponse(ctx, err)
	}

	var payload dto.AssignTechnicianDTO
	if err := ctx.Bind(&payload); err != nil {
		return c.errorResponse(ctx, apperrors.NewBadRequestError("Неверный формат запроса"))
	}
	if err := ctx.Validate(&payload); err != nil {
		return c.errorResponse(ctx, err)
	}

	res, err := c.requestService.AssignTechnician(ctx.Request().Context(), id, payload.TechnicianID, c.actor(ctx))
	if err != nil {
		c.logger.Error("AssignTechnician: ошибка назначения", zap.Uint64("requestID", id), zap.Error(err))
		return c.errorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, res, "Мастер назначен", http.StatusOK)
}

func (c *RequestController) UpdateStatus(ctx echo.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return c.errorResponse(ctx, err)
	}

	var payload dto.UpdateStatusDTO
	if err := ctx.Bind(&payload); err != nil {
		return c.errorResponse(ctx, apperrors.NewBadRequestError("Неверный формат запроса"))
	}
	if err := ctx.Validate(&payload); err != nil {
		return c.errorResponse(ctx, err)
	}
	status, _ := constants.ParseStatus(payload.Status)

	res, err := c.requestService.SetStatus(ctx.Request().Context(), id, status, c.actor(ctx))
	if err != nil {
		c.logger.Error("UpdateStatus: ошибка смены статуса", zap.Uint64("requestID", id), zap.Error(err))
		return c.errorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, res, "Статус обновлён", http.StatusOK)
}

func (c *RequestController) actor(ctx echo.Context) dto.Actor {
	actor := dto.Actor{Source: constants.SourceAPI}
	if userID, err := utils.GetUserIDFromCtx(ctx.Request().Context()); err == nil {
		actor.UserID = null.Uint64From(userID)
	}
	return actor
}

func parseIDParam(ctx echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.NewBadRequestError("Некорректный ID: %s", ctx.Param("id"))
	}
	return id, nil
}

func parseOptionalID(raw string) (null.Uint64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return null.Uint64{}, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return null.Uint64{}, apperrors.ErrBadRequest
	}
	return null.Uint64From(id), nil
}

func parseOptionalUint(raw string) (uint64, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseUint(raw, 10, 64)
}

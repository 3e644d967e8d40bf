package controllers

import (
	"errors"
	"mime"
	"net/http"
	"path"

	apperrors "maintenance-desk/pkg/errors"
	"maintenance-desk/pkg/filestorage"
	"maintenance-desk/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// FileController отдаёт сохранённые фото заявок из хранилища.
type FileController struct {
	fileStorage filestorage.FileStorageInterface
	logger      *zap.Logger
}

func NewFileController(fileStorage filestorage.FileStorageInterface, logger *zap.Logger) *FileController {
	return &FileController{
		fileStorage: fileStorage,
		logger:      logger,
	}
}

// GetFile: GET /files/*
func (ctrl *FileController) GetFile(c echo.Context) error {
	filePath := c.Param("*")
	if filePath == "" {
		return utils.ErrorResponse(c, apperrors.NewBadRequestError("Не указан путь к файлу"), ctrl.logger)
	}

	file, err := ctrl.fileStorage.Open(c.Request().Context(), filePath)
	if err != nil {
		if errors.Is(err, filestorage.ErrFileNotFound) {
			return utils.ErrorResponse(c, apperrors.NewNotFoundError("Файл не найден"), ctrl.logger)
		}
		ctrl.logger.Error("GetFile: ошибка чтения файла", zap.String("path", filePath), zap.Error(err))
		return utils.ErrorResponse(c, apperrors.NewHttpError(http.StatusInternalServerError, "Не удалось прочитать файл", err), ctrl.logger)
	}
	defer file.Close()

	contentType := mime.TypeByExtension(path.Ext(filePath))
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	return c.Stream(http.StatusOK, contentType, file)
}

package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "maintenance-desk/pkg/errors"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func runErrorResponse(t *testing.T, err error) (int, HTTPResponse) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, ErrorResponse(c, err, zap.NewNop()))

	var body HTTPResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestErrorResponse_Mapping(t *testing.T) {
	type sample struct {
		Description string `validate:"required"`
	}
	validationErr := validator.New().Struct(sample{})

	testCases := []struct {
		name string
		err  error
		code int
	}{
		{"http error", apperrors.NewHttpError(http.StatusConflict, "конфликт", nil), http.StatusConflict},
		{"not found wrapped", fmt.Errorf("заявка: %w", apperrors.ErrNotFound), http.StatusNotFound},
		{"not found http", apperrors.NewNotFoundError("Заявка #%d не найдена", 7), http.StatusNotFound},
		{"invalid input", apperrors.NewInvalidInputError("Missing required fields"), http.StatusBadRequest},
		{"validation", validationErr, http.StatusBadRequest},
		{"credentials", apperrors.ErrInvalidCredentials, http.StatusUnauthorized},
		{"internal", fmt.Errorf("connection refused"), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			code, body := runErrorResponse(t, tc.err)
			assert.Equal(t, tc.code, code)
			assert.False(t, body.Status)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestErrorResponse_InternalHidesCause(t *testing.T) {
	_, body := runErrorResponse(t, fmt.Errorf("pq: password authentication failed"))
	assert.Equal(t, "Внутренняя ошибка сервера", body.Message)
}

func TestValidatePhoto(t *testing.T) {
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)

	mime, err := ValidatePhoto(bytes.NewReader(png), int64(len(png)), 1<<20)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)

	_, err = ValidatePhoto(bytes.NewReader([]byte("просто текст")), 20, 1<<20)
	assert.Error(t, err)

	_, err = ValidatePhoto(bytes.NewReader(png), 2<<20, 1<<20)
	assert.Error(t, err)
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("master")
	require.NoError(t, err)
	assert.NoError(t, ComparePasswords(hash, "master"))
	assert.Error(t, ComparePasswords(hash, "wrong"))
}

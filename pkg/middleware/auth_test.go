package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"maintenance-desk/pkg/contextkeys"
	"maintenance-desk/pkg/service"
	"maintenance-desk/pkg/utils"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOptionalAuth(t *testing.T) {
	jwtService := service.NewJWTService("secret", time.Hour)
	token, err := jwtService.GenerateToken(7, "master")
	require.NoError(t, err)
	m := NewAuthMiddleware(jwtService, zap.NewNop())

	testCases := []struct {
		name    string
		header  string
		wantID  uint64
		wantErr bool
	}{
		{"без заголовка", "", 0, true},
		{"валидный токен", "Bearer " + token, 7, false},
		{"неверный формат", token, 0, true},
		{"плохой токен", "Bearer abc.def.ghi", 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			called := false
			handler := m.OptionalAuth(func(c echo.Context) error {
				called = true
				userID, err := utils.GetUserIDFromCtx(c.Request().Context())
				if tc.wantErr {
					assert.Error(t, err)
					return nil
				}
				assert.NoError(t, err)
				assert.Equal(t, tc.wantID, userID)
				assert.Equal(t, "master", c.Request().Context().Value(contextkeys.UserRoleKey))
				return nil
			})

			require.NoError(t, handler(c))
			assert.True(t, called)
		})
	}
}

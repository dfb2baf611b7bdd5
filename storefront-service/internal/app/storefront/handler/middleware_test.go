package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProtectedRouter(t *testing.T) *gin.Engine {
	middleware := NewAuthMiddleware(testJWTSecret)

	router := gin.New()
	router.GET("/protected", middleware.Authenticate(), middleware.RequireRole("admin"), func(c *gin.Context) {
		assert.Equal(t, "admin", c.GetString("role_name"))
		c.String(http.StatusOK, "OK")
	})
	return router
}

func TestAuthMiddleware_Authenticate(t *testing.T) {
	wrongKey, err := jwt.NewWithClaims(jwt.SigningMethodHS256, JWTClaims{
		RoleName: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("another-secret"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid admin token", "Bearer " + signToken(t, "admin", time.Now().Add(time.Hour)), http.StatusOK},
		{"no header", "", http.StatusUnauthorized},
		{"no bearer prefix", signToken(t, "admin", time.Now().Add(time.Hour)), http.StatusUnauthorized},
		{"expired token", "Bearer " + signToken(t, "admin", time.Now().Add(-time.Minute)), http.StatusUnauthorized},
		{"foreign signature", "Bearer " + wrongKey, http.StatusUnauthorized},
		{"garbage", "Bearer not-a-jwt", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newProtectedRouter(t)

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestAuthMiddleware_RequireRole_WithoutAuthenticate(t *testing.T) {
	middleware := NewAuthMiddleware(testJWTSecret)

	router := gin.New()
	router.GET("/admin", middleware.RequireRole("admin"), func(c *gin.Context) {
		t.Error("Handler should not be called")
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

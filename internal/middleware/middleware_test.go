package middleware_test

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/school_workflow_app/internal/core/domain"
	"github.com/SscSPs/school_workflow_app/internal/middleware"
	"github.com/SscSPs/school_workflow_app/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "test-secret-key-that-is-long-enough"
	testIssuer = "school-test"
)

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(slog.Default()), middleware.AuthMiddleware(testSecret, testIssuer))
	r.GET("/whoami", func(c *gin.Context) {
		p, ok := middleware.GetPrincipalFromContext(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, p)
	})
	return r
}

func TestAuthMiddleware_StoresPrincipal(t *testing.T) {
	r := newAuthRouter()
	p := domain.Principal{ID: "u-7", Name: "Mr. Bello", Role: domain.RoleExamOfficer}
	token, err := utils.GenerateJWT(p, testSecret, time.Hour, "school-test")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"u-7","name":"Mr. Bello","role":"exam_officer"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	r := newAuthRouter()
	expired, err := utils.GenerateJWT(domain.Principal{ID: "u-7", Role: domain.RoleTeacher}, testSecret, -time.Minute, testIssuer)
	require.NoError(t, err)
	foreign, err := utils.GenerateJWT(domain.Principal{ID: "u-7", Role: domain.RoleTeacher}, testSecret, time.Hour, "another-app")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"missing header", "", "Authorization header required"},
		{"wrong scheme", "Basic abc", "Authorization header format must be Bearer {token}"},
		{"garbage token", "Bearer not-a-jwt", "Invalid token"},
		{"expired token", "Bearer " + expired, "Token has expired"},
		{"foreign issuer", "Bearer " + foreign, "Invalid token claims"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), tt.want)
		})
	}
}

func TestStructuredLoggingMiddleware_KeepsIncomingRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(slog.Default()))
	r.GET("/ping", func(c *gin.Context) {
		assert.NotNil(t, middleware.GetLoggerFromCtx(c.Request.Context()))
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "req-123")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	lim, err := middleware.NewRateLimiter("2-M")
	require.NoError(t, err)

	r := gin.New()
	r.Use(middleware.RateLimit(lim))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)

	_, err = middleware.NewRateLimiter("lots")
	assert.Error(t, err)
}

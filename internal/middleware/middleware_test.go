package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Payphone-Digital/accounts/internal/constants"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS("/api", []string{"http://localhost:3000", " http://app.example.com/ "}))
	r.GET("/api/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/docs", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("allowed origin", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
		req.Header.Set("Origin", "http://app.example.com")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "http://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("disallowed origin", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
		req.Header.Set("Origin", "http://evil.example.com")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight on unregistered method", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodOptions, "/api/ping", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", "POST")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")
	})

	t.Run("outside prefix", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/docs", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		r.ServeHTTP(w, req)

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestCORS_Wildcard(t *testing.T) {
	r := gin.New()
	r.Use(CORS("/api", []string{"*"}))
	r.GET("/api/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.Header.Set("Origin", "http://anything.test")
	r.ServeHTTP(w, req)

	assert.Equal(t, "http://anything.test", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimiter_Window(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	ok, remaining, _ := rl.Allow("1.1.1.1")
	assert.True(t, ok)
	assert.Equal(t, 1, remaining)
	ok, remaining, _ = rl.Allow("1.1.1.1")
	assert.True(t, ok)
	assert.Equal(t, 0, remaining)

	ok, _, retry := rl.Allow("1.1.1.1")
	assert.False(t, ok)
	assert.Equal(t, time.Minute, retry)

	ok, _, _ = rl.Allow("2.2.2.2")
	assert.True(t, ok, "limits are per key")

	now = now.Add(time.Minute)
	ok, _, _ = rl.Allow("1.1.1.1")
	assert.True(t, ok, "window has passed")
}

func TestRateLimit_Middleware(t *testing.T) {
	r := gin.New()
	r.POST("/login", RateLimit(1, time.Hour), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"message":"Too Many Attempts."}`, w.Body.String())
}

func TestRateLimit_Disabled(t *testing.T) {
	r := gin.New()
	r.GET("/x", RateLimit(0, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

type bodyDTO struct {
	Name  string `json:"name" binding:"required,filled,max=5"`
	Email string `json:"email" binding:"required,email"`
}

func validationRouter() *gin.Engine {
	r := gin.New()
	v := NewValidationMiddleware()
	r.POST("/things", v.ValidateRequestBody(func() interface{} { return &bodyDTO{} }), func(c *gin.Context) {
		req := c.MustGet(constants.GinKeyRequestBody).(*bodyDTO)
		c.JSON(http.StatusOK, req)
	})
	return r
}

func TestValidateRequestBody(t *testing.T) {
	r := validationRouter()

	t.Run("valid", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/things", strings.NewReader(`{"name":"ok","email":"a@b.co"}`)))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"name":"ok","email":"a@b.co"}`, w.Body.String())
	})

	t.Run("empty body reports every required field", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/things", nil))
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var body struct {
			Message string              `json:"message"`
			Errors  map[string][]string `json:"errors"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "The email field is required. (and 1 more error)", body.Message)
		assert.Equal(t, []string{"The name field is required."}, body.Errors["name"])
		assert.Equal(t, []string{"The email field is required."}, body.Errors["email"])
	})

	t.Run("rule failure", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/things", strings.NewReader(`{"name":"toolong","email":"a@b.co"}`)))
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.JSONEq(t, `{"message":"The name field must not be greater than 5 characters.","errors":{"name":["The name field must not be greater than 5 characters."]}}`, w.Body.String())
	})

	t.Run("malformed json", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/things", strings.NewReader(`{"name":`)))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"message":"Invalid request format."}`, w.Body.String())
	})
}

func TestBearerToken(t *testing.T) {
	tok, ok := bearerToken("Bearer 1|abc")
	assert.True(t, ok)
	assert.Equal(t, "1|abc", tok)

	tok, ok = bearerToken("bearer   xyz ")
	assert.True(t, ok)
	assert.Equal(t, "xyz", tok)

	for _, h := range []string{"", "Bearer", "Bearer   ", "Basic abc", "Token abc"} {
		_, ok := bearerToken(h)
		assert.False(t, ok, h)
	}
}

func TestContextMiddleware_RequestID(t *testing.T) {
	r := gin.New()
	r.Use(ContextMiddleware(time.Second))
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, RequestID(c)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	generated := w.Header().Get(constants.HeaderXRequestID)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(constants.HeaderXRequestID, "abc-123")
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(constants.HeaderXRequestID))
	assert.Equal(t, "abc-123", w.Body.String())
}

func TestIsSuspiciousUserAgent(t *testing.T) {
	assert.True(t, isSuspiciousUserAgent("sqlmap/1.5"))
	assert.True(t, isSuspiciousUserAgent("Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"))
	assert.False(t, isSuspiciousUserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"))
	assert.False(t, isSuspiciousUserAgent(""))
}

func TestRecoveryMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RecoveryMiddleware())
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"message":"Internal server error."}`, w.Body.String())
}

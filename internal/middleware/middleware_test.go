package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MioNatsuki/sistema-emision/internal/apierror"
	"github.com/MioNatsuki/sistema-emision/internal/middleware"
	"github.com/MioNatsuki/sistema-emision/internal/model"
)

func init() { gin.SetMode(gin.TestMode) }

type fakeAuthorizer struct {
	users map[string]*model.Usuario
	err   error
}

func (f fakeAuthorizer) Autorizar(_ context.Context, raw string) (*model.Usuario, error) {
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.users[raw]; ok {
		return u, nil
	}
	return nil, apierror.Unauthenticated("Token invalido o expirado")
}

func newProtected(auth middleware.Authorizer) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.ErrorHandler())
	r.GET("/me", middleware.JWTAuth(auth), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"username": middleware.GetUsuario(c).Username})
	})
	return r
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestJWTAuth(t *testing.T) {
	auth := fakeAuthorizer{users: map[string]*model.Usuario{"good": {Username: "alice"}}}
	r := newProtected(auth)

	w := get(r, "/me", "good")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", decode(t, w)["username"])

	w = get(r, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))

	w = get(r, "/me", "bad")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Token invalido o expirado", decode(t, w)["detail"])
}

func TestJWTAuth_ForbiddenLocked(t *testing.T) {
	hasta := time.Date(2024, 3, 1, 10, 15, 0, 0, time.UTC)
	r := newProtected(fakeAuthorizer{err: apierror.ForbiddenLocked(hasta)})

	w := get(r, "/me", "x")
	assert.Equal(t, http.StatusForbidden, w.Code)
	body := decode(t, w)
	assert.Equal(t, "2024-03-01T10:15:00Z", body["bloqueado_hasta"])
}

func TestJWTAuth_InternalError(t *testing.T) {
	r := newProtected(fakeAuthorizer{err: errors.New("db down")})

	w := get(r, "/me", "x")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Error interno del servidor", decode(t, w)["detail"])
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(middleware.RequestIDKey)) })

	w := get(r, "/", "")
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
	assert.Equal(t, w.Header().Get(middleware.RequestIDHeader), w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Body.String())
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), middleware.Recovery())
	r.GET("/panic", func(*gin.Context) { panic("boom") })

	w := get(r, "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(middleware.CORS([]string{"http://localhost:5173"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestLimiter(t *testing.T) {
	l := middleware.NewLimiter(2, time.Minute)
	r := gin.New()
	r.GET("/", l.Middleware("demasiadas"), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, get(r, "/", "").Code)
	assert.Equal(t, http.StatusOK, get(r, "/", "").Code)
	w := get(r, "/", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, 1, l.Len())
	assert.Equal(t, 0, l.Purge())
}

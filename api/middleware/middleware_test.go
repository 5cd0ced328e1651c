package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newEngine(log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(Logger(log), Recovery(log))
	engine.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	engine.GET("/boom", func(c *gin.Context) { panic("handler bug") })
	return engine
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	engine := newEngine(zap.New(core))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error": "internal error"}`, w.Body.String())

	panics := logs.FilterMessage("Status API handler panicked").All()
	require.Len(t, panics, 1)
	assert.Equal(t, "/boom", panics[0].ContextMap()["route"])
}

func TestLogger_Levels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	engine := newEngine(zap.New(core))

	engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	requests := logs.FilterMessage("HTTP request").All()
	require.Len(t, requests, 2)
	assert.Equal(t, zapcore.DebugLevel, requests[0].Level)
	assert.Equal(t, int64(http.StatusOK), requests[0].ContextMap()["status"])
	assert.Equal(t, zapcore.ErrorLevel, requests[1].Level)
}

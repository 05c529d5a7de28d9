package logger

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

func findRequestLog(t *testing.T, recorded *observer.ObservedLogs) observer.LoggedEntry {
	t.Helper()
	for _, entry := range recorded.All() {
		if entry.Message == "HTTP Request" {
			return entry
		}
	}
	t.Fatal("no HTTP Request entry logged")
	return observer.LoggedEntry{}
}

func newObservedEngine(zapLevel zapcore.Level) (*gin.Engine, *observer.ObservedLogs) {
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(zapLevel)
	engine := gin.New()
	engine.Use(GinMiddleware(zap.New(core)))
	return engine, recorded
}

func TestGinMiddleware_LogsRequest(t *testing.T) {
	engine, recorded := newObservedEngine(zapcore.InfoLevel)
	engine.GET("/payments", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"items": []string{}})
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/payments", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	entry := findRequestLog(t, recorded)
	assert.Equal(t, zapcore.InfoLevel, entry.Level)
}

func TestGinMiddleware_CarriesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(zapcore.InfoLevel)
	engine := gin.New()

	var ctxRequestID string
	engine.Use(func(c *gin.Context) {
		c.Set("request_id", "req-abc-123")
		c.Next()
	})
	engine.Use(GinMiddleware(zap.New(core)))
	engine.GET("/payments", func(c *gin.Context) {
		ctxRequestID = GetRequestID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/payments", nil))

	// The ID must reach both the log entry and the request context,
	// where the query logger picks it up.
	assert.Equal(t, "req-abc-123", ctxRequestID)
	entry := findRequestLog(t, recorded)
	assert.Equal(t, "req-abc-123", fieldString(t, entry, "request_id"))
}

func TestGinMiddleware_StatusSeverity(t *testing.T) {
	tests := []struct {
		name   string
		status int
		level  zapcore.Level
	}{
		{"ok logs info", http.StatusOK, zapcore.InfoLevel},
		{"client error logs warn", http.StatusUnprocessableEntity, zapcore.WarnLevel},
		{"server error logs error", http.StatusInternalServerError, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, recorded := newObservedEngine(zapcore.InfoLevel)
			engine.POST("/payments", func(c *gin.Context) {
				c.Status(tt.status)
			})

			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/payments", nil))

			assert.Equal(t, tt.status, w.Code)
			entry := findRequestLog(t, recorded)
			assert.Equal(t, tt.level, entry.Level)
		})
	}
}

func TestGinMiddleware_QueryStringLogged(t *testing.T) {
	engine, recorded := newObservedEngine(zapcore.InfoLevel)
	engine.GET("/ledger/obligations", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ledger/obligations?status=overdue&page=1", nil))

	entry := findRequestLog(t, recorded)
	assert.Contains(t, fieldString(t, entry, "query"), "status=overdue")
}

func TestGinMiddleware_StandardFields(t *testing.T) {
	engine, recorded := newObservedEngine(zapcore.InfoLevel)
	engine.POST("/ledger/enrollments", func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"id": "e-1"})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ledger/enrollments", nil)
	req.Header.Set("User-Agent", "bursar-portal/2.1")
	engine.ServeHTTP(w, req)

	entry := findRequestLog(t, recorded)
	keys := make(map[string]bool, len(entry.Context))
	for _, field := range entry.Context {
		keys[field.Key] = true
	}
	for _, want := range []string{"status", "latency", "client_ip", "user_agent", "body_size", "method", "path"} {
		assert.True(t, keys[want], "missing field %q", want)
	}
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(zapcore.ErrorLevel)
	engine := gin.New()
	engine.Use(Recovery(zap.New(core)))
	engine.GET("/boom", func(c *gin.Context) {
		panic("reconciliation blew up")
	})

	w := httptest.NewRecorder()
	require.NotPanics(t, func() {
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	logs := recorded.All()
	require.NotEmpty(t, logs)
	assert.Equal(t, "Panic recovered", logs[0].Message)
}

func TestGetGinLogger(t *testing.T) {
	engine, _ := newObservedEngine(zapcore.InfoLevel)

	var got *zap.Logger
	engine.GET("/payments", func(c *gin.Context) {
		got = GetGinLogger(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/payments", nil))

	assert.NotNil(t, got)
}

func TestGetGinLogger_MiddlewareAbsent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()

	var got *zap.Logger
	engine.GET("/payments", func(c *gin.Context) {
		got = GetGinLogger(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/payments", nil))

	require.NotNil(t, got)
	assert.NotPanics(t, func() { got.Info("noop") })
}

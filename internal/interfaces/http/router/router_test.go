package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func echo(body string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, body)
	}
}

func TestNewRouter_Defaults(t *testing.T) {
	r := NewRouter(gin.New())

	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)
}

func TestWithAPIVersion(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v2"))

	group := NewDomainGroup("ledger", "/ledger")
	group.GET("/summary", echo("summary"))
	r.Register(group).Setup()

	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/v2/ledger/summary").Code)
	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/api/v1/ledger/summary").Code)
}

func TestSetup_MountsUnderVersionedPrefix(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	group := NewDomainGroup("system", "/system")
	group.GET("/ping", echo("pong"))
	r.Register(group).Setup()

	w := serve(engine, http.MethodGet, "/api/v1/system/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestDomainGroup_NameAndPrefix(t *testing.T) {
	g := NewDomainGroup("payments", "/payments")

	assert.Equal(t, "payments", g.Name())
	assert.Equal(t, "/payments", g.Prefix())
}

func TestDomainGroup_AllMethods(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("payments", "/payments")
	g.GET("", echo("list")).
		POST("", echo("declare")).
		PUT("/:id", echo("replace")).
		PATCH("/:id", echo("amend")).
		DELETE("/:id", echo("void"))

	g.RegisterRoutes(engine.Group("/api/v1"))

	for _, method := range []string{
		http.MethodGet, http.MethodPost,
	} {
		assert.Equal(t, http.StatusOK, serve(engine, method, "/api/v1/payments").Code, method)
	}
	for _, method := range []string{
		http.MethodPut, http.MethodPatch, http.MethodDelete,
	} {
		assert.Equal(t, http.StatusOK, serve(engine, method, "/api/v1/payments/pr-1").Code, method)
	}
}

func TestDomainGroup_Middleware(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("payments", "/payments")
	g.Use(func(c *gin.Context) {
		c.Header("X-Ledger-Scope", "payments")
		c.Next()
	})
	g.GET("", echo("list"))

	g.RegisterRoutes(engine.Group("/api/v1"))

	w := serve(engine, http.MethodGet, "/api/v1/payments")
	assert.Equal(t, "payments", w.Header().Get("X-Ledger-Scope"))
}

func TestDomainGroup_Subgroups(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("ledger", "/ledger")

	obligations := g.Group("obligations", "/obligations")
	obligations.GET("", echo("obligations"))

	schedules := g.Group("schedules", "/schedule-items")
	schedules.GET("", echo("schedules"))

	g.RegisterRoutes(engine.Group("/api/v1"))

	w := serve(engine, http.MethodGet, "/api/v1/ledger/obligations")
	assert.Equal(t, "obligations", w.Body.String())

	w = serve(engine, http.MethodGet, "/api/v1/ledger/schedule-items")
	assert.Equal(t, "schedules", w.Body.String())
}

func TestRegister_MultipleDomains(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	ledger := NewDomainGroup("ledger", "/ledger")
	ledger.GET("/summary", echo("summary"))

	payments := NewDomainGroup("payments", "/payments")
	payments.GET("", echo("payments"))

	r.Register(ledger).Register(payments).Setup()

	assert.Equal(t, "summary", serve(engine, http.MethodGet, "/api/v1/ledger/summary").Body.String())
	assert.Equal(t, "payments", serve(engine, http.MethodGet, "/api/v1/payments").Body.String())
}

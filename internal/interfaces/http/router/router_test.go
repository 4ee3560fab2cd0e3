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

func TestNewRouter(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	assert.NotNil(t, r)
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)
}

func TestRouterWithAPIVersion(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v2"))

	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v1"))

	group := NewDomainGroup("system", "/system")
	group.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	r.Register(group)
	r.Setup()

	req := httptest.NewRequest("GET", "/api/v1/system/ping", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestDomainGroup(t *testing.T) {
	serve := func(g *DomainGroup, method, path string) *httptest.ResponseRecorder {
		engine := gin.New()
		api := engine.Group("/api/v1")
		g.RegisterRoutes(api)

		req := httptest.NewRequest(method, path, nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w
	}

	t.Run("GET", func(t *testing.T) {
		g := NewDomainGroup("workflow", "/orders")
		g.GET("", func(c *gin.Context) {
			c.String(http.StatusOK, "orders")
		})

		w := serve(g, "GET", "/api/v1/orders")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("POST", func(t *testing.T) {
		g := NewDomainGroup("settlement", "/settlements")
		g.POST("/payments", func(c *gin.Context) {
			c.String(http.StatusCreated, "created")
		})

		w := serve(g, "POST", "/api/v1/settlements/payments")
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("PUT", func(t *testing.T) {
		g := NewDomainGroup("workflow", "/orders")
		g.PUT("/:id/driver", func(c *gin.Context) {
			c.String(http.StatusOK, "assigned")
		})

		w := serve(g, "PUT", "/api/v1/orders/123/driver")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("DELETE", func(t *testing.T) {
		g := NewDomainGroup("workflow", "/orders")
		g.DELETE("/:id", func(c *gin.Context) {
			c.String(http.StatusNoContent, "")
		})

		w := serve(g, "DELETE", "/api/v1/orders/123")
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("middleware applies to group routes", func(t *testing.T) {
		g := NewDomainGroup("workflow", "/orders")
		g.Use(func(c *gin.Context) {
			c.Header("X-Request-Id", "req-1")
			c.Next()
		})
		g.GET("", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})

		w := serve(g, "GET", "/api/v1/orders")
		assert.Equal(t, "req-1", w.Header().Get("X-Request-Id"))
	})
}

func TestMultipleDomainGroups(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	orders := NewDomainGroup("workflow", "/orders")
	orders.GET("", func(c *gin.Context) {
		c.String(http.StatusOK, "orders")
	})

	clients := NewDomainGroup("clients", "/clients")
	clients.GET("/:id/balance", func(c *gin.Context) {
		c.String(http.StatusOK, "balance")
	})

	r.Register(orders).Register(clients)
	r.Setup()

	w1 := httptest.NewRecorder()
	engine.ServeHTTP(w1, httptest.NewRequest("GET", "/api/v1/orders", nil))
	assert.Equal(t, http.StatusOK, w1.Code)
	assert.Equal(t, "orders", w1.Body.String())

	w2 := httptest.NewRecorder()
	engine.ServeHTTP(w2, httptest.NewRequest("GET", "/api/v1/clients/42/balance", nil))
	assert.Equal(t, http.StatusOK, w2.Code)
	assert.Equal(t, "balance", w2.Body.String())
}

func TestChainedRouteRegistration(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	g := NewDomainGroup("settlement", "/settlements")
	g.POST("", func(c *gin.Context) { c.String(http.StatusOK, "settle") }).
		GET("/sessions/:id", func(c *gin.Context) { c.String(http.StatusOK, "session") }).
		POST("/payments", func(c *gin.Context) { c.String(http.StatusOK, "payment") })

	r.Register(g).Setup()

	tests := []struct {
		method string
		path   string
	}{
		{"POST", "/api/v1/settlements"},
		{"GET", "/api/v1/settlements/sessions/7"},
		{"POST", "/api/v1/settlements/payments"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "route %s %s", tt.method, tt.path)
	}
}

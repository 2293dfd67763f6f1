package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-io/helpdesk-ce/internal/auth"
)

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("generates an ID when the client sends none", func(t *testing.T) {
		router := gin.New()
		router.Use(RequestID())
		var seen string
		router.GET("/", func(c *gin.Context) {
			seen = GetRequestID(c)
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/", nil)
		router.ServeHTTP(w, req)

		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, w.Header().Get("X-Request-ID"))
	})

	t.Run("keeps the client-provided ID", func(t *testing.T) {
		router := gin.New()
		router.Use(RequestID())
		router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/", nil)
		req.Header.Set("X-Request-ID", "client-chosen-id")
		router.ServeHTTP(w, req)

		assert.Equal(t, "client-chosen-id", w.Header().Get("X-Request-ID"))
	})
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(Recovery())
	router.GET("/boom", func(c *gin.Context) {
		panic("kaboom")
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/boom", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	jwtManager := auth.NewJWTManager("test-secret-at-least-32-characters!!", "helpdesk-test", 1*time.Hour)
	authMiddleware := NewAuthMiddleware(jwtManager)

	protected := func() *gin.Engine {
		router := gin.New()
		router.Use(authMiddleware.RequireAuth())
		router.GET("/protected", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"user": CurrentUser(c), "name": CurrentUserName(c)})
		})
		return router
	}

	t.Run("RequireAuth blocks unauthenticated requests", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/protected", nil)
		protected().ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "missing authorization token")
	})

	t.Run("RequireAuth allows authenticated requests", func(t *testing.T) {
		token, err := jwtManager.GenerateToken("agent@example.com", "Agent Smith")
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		protected().ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "agent@example.com")
		assert.Contains(t, w.Body.String(), "Agent Smith")
	})

	t.Run("RequireAuth rejects invalid token", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer invalid.token.here")
		protected().ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "invalid or expired token")
	})

	t.Run("RequireAuth accepts token query parameter", func(t *testing.T) {
		token, err := jwtManager.GenerateToken("agent@example.com", "")
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/protected?token="+token, nil)
		protected().ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("nil manager rejects everything", func(t *testing.T) {
		router := gin.New()
		router.Use(NewAuthMiddleware(nil).RequireAuth())
		router.GET("/protected", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer anything")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "authentication is not configured")
	})
}

func TestCurrentUserWithoutAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	var user string
	router.GET("/", func(c *gin.Context) {
		user = CurrentUser(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, "", user)
}

func TestRateLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("enforces the burst budget per client", func(t *testing.T) {
		rl := NewRateLimiter(1, 2)
		router := gin.New()
		router.Use(rl.Limit())
		router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		codes := make([]int, 0, 3)
		for i := 0; i < 3; i++ {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/", nil)
			req.RemoteAddr = "10.0.0.1:1234"
			router.ServeHTTP(w, req)
			codes = append(codes, w.Code)
		}

		assert.Equal(t, http.StatusOK, codes[0])
		assert.Equal(t, http.StatusOK, codes[1])
		assert.Equal(t, http.StatusTooManyRequests, codes[2])
	})

	t.Run("rejected requests carry Retry-After", func(t *testing.T) {
		rl := NewRateLimiter(1, 1)
		router := gin.New()
		router.Use(rl.Limit())
		router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		for i := 0; i < 2; i++ {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/", nil)
			req.RemoteAddr = "10.0.0.2:1234"
			router.ServeHTTP(w, req)
			if w.Code == http.StatusTooManyRequests {
				assert.Equal(t, "1", w.Header().Get("Retry-After"))
				assert.Contains(t, w.Body.String(), "RATE_LIMITED")
				return
			}
		}
		t.Fatal("second request should have been limited")
	})

	t.Run("clients get independent buckets", func(t *testing.T) {
		rl := NewRateLimiter(1, 1)
		router := gin.New()
		router.Use(rl.Limit())
		router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		first := httptest.NewRecorder()
		req1, _ := http.NewRequest("GET", "/", nil)
		req1.RemoteAddr = "10.0.0.3:1234"
		router.ServeHTTP(first, req1)

		second := httptest.NewRecorder()
		req2, _ := http.NewRequest("GET", "/", nil)
		req2.RemoteAddr = "10.0.0.4:1234"
		router.ServeHTTP(second, req2)

		assert.Equal(t, http.StatusOK, first.Code)
		assert.Equal(t, http.StatusOK, second.Code)
	})

	t.Run("defaults replace non-positive settings", func(t *testing.T) {
		rl := NewRateLimiter(0, 0)
		assert.Equal(t, float64(10), float64(rl.rps))
		assert.Equal(t, 20, rl.burst)
	})
}

func TestMetricsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(Metrics())
	router.GET("/widgets/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/widgets/42", nil)
	router.ServeHTTP(w, req)

	// The counter is registered globally; a second request on the same route
	// must not panic on duplicate registration.
	w2 := httptest.NewRecorder()
	req2, _ := http.NewRequest("GET", "/widgets/42", nil)
	router.ServeHTTP(w2, req2)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusOK, w2.Code)
}

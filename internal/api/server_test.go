package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-io/helpdesk-ce/internal/auth"
	"github.com/helpdesk-io/helpdesk-ce/internal/cache"
	"github.com/helpdesk-io/helpdesk-ce/internal/config"
	"github.com/helpdesk-io/helpdesk-ce/internal/database"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
	"github.com/helpdesk-io/helpdesk-ce/internal/repository"
	"github.com/helpdesk-io/helpdesk-ce/internal/search"
	"github.com/helpdesk-io/helpdesk-ce/internal/service"
)

var apiNow = time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)

var apiTicketCols = []string{
	"ticket_id", "subject", "ticket_body", "ticket_status_id",
	"ticket_contact_name", "ticket_contact_email", "asset_id", "site_id",
	"ticket_category_id", "created_date", "assigned_name", "assigned_email",
	"priority_id", "severity_id", "assigned_vendor_id", "closed_date",
	"lastmodified", "resolution",
}

func testConfig() *config.Config {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}
	return cfg
}

// newTestServer builds the full HTTP stack over sqlmock: real services and
// repositories, reference data pre-warmed in a local cache, auth and rate
// limiting off unless the config says otherwise.
func newTestServer(t *testing.T, cfg *config.Config) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db, err := database.New(mockDB, "sqlite")
	require.NoError(t, err)

	store := cache.NewLocalCache(100, time.Minute)
	ctx := context.Background()
	require.NoError(t, store.SetObject(ctx, "ref:statuses", []models.Status{
		{StatusID: 1, StatusLabel: "New"},
		{StatusID: 2, StatusLabel: "In Progress"},
		{StatusID: 3, StatusLabel: "Closed"},
	}, time.Minute))
	require.NoError(t, store.SetObject(ctx, "ref:sites", []models.Site{
		{SiteID: 7, SiteLabel: "HQ"},
	}, time.Minute))
	require.NoError(t, store.SetObject(ctx, "ref:categories", []models.Category{}, time.Minute))
	require.NoError(t, store.SetObject(ctx, "ref:vendors", []models.Vendor{}, time.Minute))

	clock := func() time.Time { return apiNow }
	refs := repository.NewReferenceRepository(db, store)
	ticketRepo := repository.NewTicketRepositoryAt(db, refs, clock)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	deps := Deps{
		Tickets:   service.NewTicketServiceAt(ticketRepo, nil, nil, clock),
		Analytics: service.NewAnalyticsServiceAt(analyticsRepo, ticketRepo, nil, 0, clock),
		Export:    service.NewExportService(),
		Search:    search.NewAt(search.Config{}, ticketRepo, nil, nil, clock),
		Refs:      refs,
	}
	return NewServer(cfg, db, deps).Router(), mock
}

func doRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestServer(t, testConfig())

	w := doRequest(router, "GET", "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
	assert.Contains(t, w.Body.String(), `"database":"up"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := newTestServer(t, testConfig())

	doRequest(router, "GET", "/health", "")
	w := doRequest(router, "GET", "/metrics", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "helpdesk_http_requests_total")
}

func TestRequestIDPassthrough(t *testing.T) {
	router, _ := newTestServer(t, testConfig())

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Request-ID", "trace-me-123")
	router.ServeHTTP(w, req)

	assert.Equal(t, "trace-me-123", w.Header().Get("X-Request-ID"))
}

func TestAuthProtectsAPIRoutes(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.JWT.Enabled = true
	cfg.Auth.JWT.Secret = "0123456789abcdef0123456789abcdef"
	router, _ := newTestServer(t, cfg)

	t.Run("missing token is rejected", func(t *testing.T) {
		w := doRequest(router, "GET", "/api/v1/reference/statuses", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
	})

	t.Run("valid token is accepted", func(t *testing.T) {
		manager := auth.NewJWTManager(cfg.Auth.JWT.Secret, cfg.Auth.JWT.Issuer, time.Hour)
		token, err := manager.GenerateToken("agent@example.com", "Agent")
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/v1/reference/statuses", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "In Progress")
	})

	t.Run("health stays open", func(t *testing.T) {
		w := doRequest(router, "GET", "/health", "")
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRateLimitOnAPIRoutes(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.RequestsPerSecond = 1
	cfg.RateLimit.Burst = 1
	router, _ := newTestServer(t, cfg)

	first := doRequest(router, "GET", "/api/v1/reference/statuses", "")
	second := doRequest(router, "GET", "/api/v1/reference/statuses", "")

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))
}

func TestMCPInfoEndpoint(t *testing.T) {
	router, _ := newTestServer(t, testConfig())

	w := doRequest(router, "GET", "/mcp", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"tools_count":16`)
	assert.Contains(t, w.Body.String(), "search_tickets")
}

func TestMCPEndpoint(t *testing.T) {
	router, _ := newTestServer(t, testConfig())

	t.Run("initialize round-trips", func(t *testing.T) {
		body := `{"jsonrpc":"2.0","id":1,"method":"initialize"}`
		w := doRequest(router, "POST", "/mcp", body)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "2024-11-05")
		assert.Contains(t, w.Body.String(), "helpdesk-mcp")
	})

	t.Run("notifications get no body", func(t *testing.T) {
		body := `{"jsonrpc":"2.0","method":"notifications/initialized"}`
		w := doRequest(router, "POST", "/mcp", body)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("tools list is served", func(t *testing.T) {
		body := `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`
		w := doRequest(router, "POST", "/mcp", body)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "bulk_update_tickets")
	})
}

func TestReferenceEndpoints(t *testing.T) {
	router, _ := newTestServer(t, testConfig())

	w := doRequest(router, "GET", "/api/v1/reference/statuses", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"Status_Label":"New"`)

	w = doRequest(router, "GET", "/api/v1/reference/sites", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"Site_Label":"HQ"`)

	w = doRequest(router, "GET", "/api/v1/reference/categories", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}

package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/supplychain-backend/internal/requests"
	"github.com/angelmondragon/supplychain-backend/internal/users"
	"github.com/angelmondragon/supplychain-backend/pkg/auth"
	"github.com/angelmondragon/supplychain-backend/pkg/config"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
	"github.com/angelmondragon/supplychain-backend/pkg/logger"
	"github.com/angelmondragon/supplychain-backend/pkg/metrics"
	"github.com/angelmondragon/supplychain-backend/pkg/pagination"
)

func testConfig() *config.Config {
	return &config.Config{
		App:     config.AppConfig{Env: "test"},
		JWT:     config.JWTConfig{Secret: "router-secret", Issuer: "supplychain", ExpirationMinutes: 5},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
		CORS:    config.CORSConfig{AllowedOrigins: []string{"https://retail.example.com"}, MaxAgeSeconds: 60},
	}
}

func bearer(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := auth.MintAccessToken(cfg.JWT, time.Now(), auth.AccessTokenPayload{
		UserID:   uuid.New(),
		Username: strings.ToLower(role.String()),
		Role:     role,
	})
	require.NoError(t, err)
	return "Bearer " + token
}

type memoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	switch v := value.(type) {
	case string:
		m.data[key] = v
	case []byte:
		m.data[key] = string(v)
	}
	return true, nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

type stubUsers struct{}

func (stubUsers) ListByRole(context.Context, enums.UserRole) ([]users.UserDTO, error) {
	return []users.UserDTO{}, nil
}

type countingRequests struct {
	requests.Service
	creates int
}

func (c *countingRequests) CreateRequest(ctx context.Context, actor auth.Actor, input requests.CreateRequestInput) (*requests.RequestDTO, error) {
	c.creates++
	return &requests.RequestDTO{ID: uuid.New(), RetailerID: actor.UserID, Quantity: input.Quantity, Status: enums.RequestStatusPending}, nil
}

func (c *countingRequests) ListForRetailer(context.Context, auth.Actor, requests.ListFilters, pagination.Params) (*requests.RequestList, error) {
	return &requests.RequestList{}, nil
}

func newTestRouter(t *testing.T) (http.Handler, *config.Config, *countingRequests) {
	t.Helper()
	cfg := testConfig()
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
	reg := prometheus.NewRegistry()
	m := metrics.NewWorkflowMetrics(reg)

	reqs := &countingRequests{}
	router := NewRouter(cfg, logg, Deps{
		Idempotency: &memoryStore{data: map[string]string{}},
		Registry:    reg,
		Metrics:     m,
	}, Services{Users: stubUsers{}, Requests: reqs})
	return router, cfg, reqs
}

func serve(router http.Handler, method, target, auth, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestPublicRoutes(t *testing.T) {
	router, _, _ := newTestRouter(t)

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health/live", "", "", nil).Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health/ready", "", "", nil).Code)

	rec := serve(router, http.MethodGet, "/metrics", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_request_duration_seconds")
}

func TestRoleGroups(t *testing.T) {
	router, cfg, _ := newTestRouter(t)

	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, "/api/v1/distributors", "", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, serve(router, http.MethodGet, "/api/v1/distributors", bearer(t, cfg, enums.UserRoleDistributor), "", nil).Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/v1/distributors", bearer(t, cfg, enums.UserRoleRetailer), "", nil).Code)

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/v1/distributor/agents", bearer(t, cfg, enums.UserRoleDistributor), "", nil).Code)
	assert.Equal(t, http.StatusForbidden, serve(router, http.MethodGet, "/api/v1/agent/orders", bearer(t, cfg, enums.UserRoleRetailer), "", nil).Code)
	assert.Equal(t, http.StatusForbidden, serve(router, http.MethodGet, "/api/v1/reports/orders", bearer(t, cfg, enums.UserRoleDelivery), "", nil).Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/v1/retailer/requests", bearer(t, cfg, enums.UserRoleRetailer), "", nil).Code)
}

func TestCreateRequestIsIdempotent(t *testing.T) {
	router, cfg, reqs := newTestRouter(t)
	token := bearer(t, cfg, enums.UserRoleRetailer)
	body := `{"distributor_id":"` + uuid.NewString() + `","product_id":"` + uuid.NewString() + `","quantity":3}`

	rec := serve(router, http.MethodPost, "/api/v1/retailer/requests", token, body, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, reqs.creates)

	headers := map[string]string{"Idempotency-Key": "req-1"}
	first := serve(router, http.MethodPost, "/api/v1/retailer/requests", token, body, headers)
	require.Equal(t, http.StatusCreated, first.Code)

	replay := serve(router, http.MethodPost, "/api/v1/retailer/requests", token, body, headers)
	require.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, first.Body.String(), replay.Body.String())
	assert.Equal(t, 1, reqs.creates)
}

func TestCORSPreflight(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := serve(router, http.MethodOptions, "/api/v1/retailer/requests", "", "", map[string]string{
		"Origin":                        "https://retail.example.com",
		"Access-Control-Request-Method": http.MethodPost,
	})
	assert.Equal(t, "https://retail.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = serve(router, http.MethodOptions, "/api/v1/retailer/requests", "", "", map[string]string{
		"Origin":                        "https://elsewhere.example.com",
		"Access-Control-Request-Method": http.MethodPost,
	})
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

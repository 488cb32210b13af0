package router_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gosupply/internal/api/order"
	"gosupply/internal/api/product"
	"gosupply/internal/api/router"
	"gosupply/internal/pkg/businesshours"
	"gosupply/internal/pkg/cache"
	"gosupply/internal/pkg/clock"
	"gosupply/internal/pkg/logger"
	"gosupply/internal/pkg/metrics"
	"gosupply/internal/pkg/token"
	"gosupply/internal/repository/orderrepo"
	"gosupply/internal/repository/productrepo"
	"gosupply/internal/service/autocloseservice"
	"gosupply/internal/service/orderservice"
	"gosupply/internal/service/productservice"
	"gosupply/internal/worker/autoclose"
)

type fixture struct {
	handler http.Handler
	tokens  *token.Service
	metrics *metrics.Metrics
}

func newFixture(t *testing.T, limit int) fixture {
	t.Helper()
	log := logger.NewLogger("error")
	now := time.Date(2024, time.January, 1, 16, 0, 0, 0, time.UTC)
	clk := clock.NewFixed(now)
	cal := businesshours.New(time.UTC)
	repo := orderrepo.NewMemoryRepository()
	catalog := productrepo.StaticCatalog{"X": decimal.NewFromInt(10)}
	m := metrics.New(prometheus.NewRegistry())
	locks := cache.NewMemoryClient(nil)

	engine := orderservice.NewService(repo, catalog, nil, clk, cal, orderservice.Options{SLAHours: 2, Metrics: m}, log)
	sweep := autocloseservice.NewService(repo, nil, cal, 2, time.Second, m, log)
	worker := autoclose.NewWorker(sweep, clk, locks, time.Minute, time.Minute, log)
	h := order.NewHandler(engine, worker, log)
	ph := product.NewHandler(productservice.NewService(catalog, log), log)

	tokens := token.NewService("segredo-de-teste", time.Hour)
	return fixture{
		handler: router.NewRouter(h, ph, tokens, locks, m, router.RateLimit{MaxRequests: limit, Period: time.Minute}, log),
		tokens:  tokens,
		metrics: m,
	}
}

func (f fixture) do(t *testing.T, method, path, body, role, branchID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if role != "" {
		tok, err := f.tokens.GenerateToken("user-"+role, role, branchID)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func TestPing(t *testing.T) {
	f := newFixture(t, 100)
	rr := f.do(t, http.MethodGet, "/ping", "", "", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "pong", rr.Body.String())
}

func TestOrdersRoute_RequiresToken(t *testing.T) {
	f := newFixture(t, 100)
	rr := f.do(t, http.MethodGet, "/v1/orders", "", "", "")

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestApproveRoute_RejectsBranchRole(t *testing.T) {
	f := newFixture(t, 100)
	rr := f.do(t, http.MethodPost, "/v1/orders/abc/approve", `{"items":[]}`, "branch", "branch-1")

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestPlaceAndApproveThroughRouter(t *testing.T) {
	f := newFixture(t, 100)

	rr := f.do(t, http.MethodPost, "/v1/orders", `{"items":[{"sku":"X","qty_requested":2}]}`, "branch", "branch-1")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	id := extractID(t, rr.Body.String())

	rr = f.do(t, http.MethodPost, "/v1/orders/"+id+"/approve", `{"items":[{"sku":"X","qty_approved":3}]}`, "manager", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"status":"CONFIRM_PENDING"`)
	assert.Contains(t, rr.Body.String(), `"isIncreased":true`)

	rr = f.do(t, http.MethodGet, "/v1/orders/"+id, "", "branch", "branch-2")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Requests.WithLabelValues("approve", "200")))
}

func TestAdminAutoCloseRoute(t *testing.T) {
	f := newFixture(t, 100)

	rr := f.do(t, http.MethodPost, "/v1/admin/auto-close/run", "", "manager", "")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = f.do(t, http.MethodPost, "/v1/admin/auto-close/run", "", "admin", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"ran":true`)
}

func TestRateLimitAppliesPerUser(t *testing.T) {
	f := newFixture(t, 2)

	for i := 0; i < 2; i++ {
		rr := f.do(t, http.MethodGet, "/v1/orders", "", "manager", "")
		require.Equal(t, http.StatusOK, rr.Code)
	}
	rr := f.do(t, http.MethodGet, "/v1/orders", "", "manager", "")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}

func TestMethodMismatch(t *testing.T) {
	f := newFixture(t, 100)
	rr := f.do(t, http.MethodDelete, "/v1/orders", "", "manager", "")

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func extractID(t *testing.T, body string) string {
	t.Helper()
	const marker = `"id":"`
	start := strings.Index(body, marker)
	require.NotEqual(t, -1, start, body)
	rest := body[start+len(marker):]
	return rest[:strings.Index(rest, `"`)]
}

func TestProductRoute(t *testing.T) {
	f := newFixture(t, 100)
	rr := f.do(t, http.MethodGet, "/v1/products/X", "", "branch", "branch-1")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"sku":"X"`)
}

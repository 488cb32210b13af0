package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gosupply/internal/domain"
	"gosupply/internal/pkg/cache"
	"gosupply/internal/pkg/logger"
	"gosupply/internal/pkg/middleware"
	"gosupply/internal/pkg/token"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) domain.ErrorResponse {
	t.Helper()
	var resp domain.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	auth := middleware.NewAuthMiddleware(token.NewService("segredo", time.Hour))
	rec := httptest.NewRecorder()

	auth(okHandler)(rec, httptest.NewRequest(http.MethodGet, "/v1/orders", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, rec).Category)
}

func TestAuthMiddleware_AttachesActor(t *testing.T) {
	svc := token.NewService("segredo", time.Hour)
	signed, err := svc.GenerateToken("user-1", "branch", "branch-7")
	require.NoError(t, err)

	var got domain.Actor
	handler := middleware.NewAuthMiddleware(svc)(func(w http.ResponseWriter, r *http.Request) {
		got, _ = middleware.ActorFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, domain.Actor{UserID: "user-1", Role: domain.RoleBranch, BranchID: "branch-7"}, got)
}

func TestAuthMiddleware_UnknownRole(t *testing.T) {
	svc := token.NewService("segredo", time.Hour)
	signed, err := svc.GenerateToken("user-1", "root", "")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	middleware.NewAuthMiddleware(svc)(okHandler)(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPermissionMiddleware(t *testing.T) {
	managerOnly := middleware.PermissionMiddleware(domain.RoleManager)(okHandler)

	req := httptest.NewRequest(http.MethodPost, "/v1/orders/1/approve", nil)
	rec := httptest.NewRecorder()
	managerOnly(rec, req.WithContext(middleware.WithActor(req.Context(), domain.Actor{UserID: "u", Role: domain.RoleBranch})))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	managerOnly(rec, req.WithContext(middleware.WithActor(req.Context(), domain.Actor{UserID: "m", Role: domain.RoleManager})))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	managerOnly(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateLimiter_BlocksAfterLimit(t *testing.T) {
	limiter := middleware.RateLimiter(cache.NewMemoryClient(nil), 2, time.Minute, logger.NewLogger("error"))
	handler := limiter(http.HandlerFunc(okHandler))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)

	other := httptest.NewRequest(http.MethodGet, "/ping", nil)
	other.RemoteAddr = "10.0.0.2:5000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusNoContent, rec.Code, "contadores são por cliente")
}

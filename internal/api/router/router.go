package router

import (
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "gosupply/docs" // registra a especificação swagger

	"gosupply/internal/api/order"
	"gosupply/internal/api/product"
	"gosupply/internal/domain"
	"gosupply/internal/pkg/cache"
	"gosupply/internal/pkg/logger"
	"gosupply/internal/pkg/metrics"
	"gosupply/internal/pkg/middleware"
)

// RateLimit configura o limitador aplicado às rotas autenticadas.
type RateLimit struct {
	MaxRequests int
	Period      time.Duration
}

// NewRouter configura e retorna o roteador HTTP principal.
// Recebe os Handlers já inicializados por injeção de dependências.
func NewRouter(orderHandler *order.Handler, productHandler *product.Handler, tokenSvc middleware.TokenService, cacheClient cache.Client, m *metrics.Metrics, rl RateLimit, log logger.Logger) http.Handler {
	mux := http.NewServeMux()

	auth := middleware.NewAuthMiddleware(tokenSvc)
	limiter := middleware.RateLimiter(cacheClient, rl.MaxRequests, rl.Period, log)

	// protect encadeia autenticação -> rate limit por usuário -> papel -> handler.
	protect := func(route string, h http.HandlerFunc, roles ...domain.UserRole) http.Handler {
		inner := limiter(middleware.PermissionMiddleware(roles...)(h))
		return m.Instrument(route, auth(inner.ServeHTTP))
	}

	// --- 1. Health check, métricas e documentação ---
	mux.HandleFunc("GET /ping", PingHandler)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	// --- 2. Pedidos (v1) ---
	anyone := []domain.UserRole{domain.RoleBranch, domain.RoleManager, domain.RoleAdmin}

	mux.Handle("POST /v1/orders", protect("place_order", orderHandler.PlaceOrderHandler, domain.RoleBranch))
	mux.Handle("GET /v1/orders", protect("list_orders", orderHandler.ListOrdersHandler, anyone...))
	mux.Handle("GET /v1/orders/{id}", protect("get_order", orderHandler.GetOrderHandler, anyone...))
	mux.Handle("POST /v1/orders/{id}/approve", protect("approve", orderHandler.ApproveHandler, domain.RoleManager))
	mux.Handle("POST /v1/orders/{id}/confirm", protect("confirm", orderHandler.ConfirmHandler, domain.RoleBranch))
	mux.Handle("POST /v1/orders/{id}/issues", protect("raise_issue", orderHandler.RaiseIssueHandler, domain.RoleBranch))
	mux.Handle("POST /v1/orders/{id}/confirm-received", protect("confirm_received", orderHandler.ConfirmReceivedHandler, domain.RoleBranch))
	mux.Handle("POST /v1/orders/{id}/reply", protect("reply", orderHandler.ReplyHandler, domain.RoleManager))
	mux.Handle("PATCH /v1/orders/{id}/status", protect("update_status", orderHandler.UpdateStatusHandler, domain.RoleBranch, domain.RoleManager))

	// --- 3. Catálogo (consulta de preços) ---
	mux.Handle("GET /v1/products", protect("list_products", productHandler.ListProductsHandler, anyone...))
	mux.Handle("GET /v1/products/{sku}", protect("get_product", productHandler.GetProductHandler, anyone...))

	// --- 4. Administração ---
	mux.Handle("POST /v1/admin/auto-close/run", protect("auto_close_run", orderHandler.RunAutoCloseHandler, domain.RoleAdmin))

	return mux
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

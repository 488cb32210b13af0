package product

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"gosupply/internal/domain"
	apperror "gosupply/internal/errors"
	"gosupply/internal/pkg/logger"
	"gosupply/internal/pkg/middleware"
)

// ProductService define o contrato que o Handler espera da camada de Serviço.
type ProductService interface {
	GetProduct(ctx context.Context, sku string) (domain.Product, error)
	GetProducts(ctx context.Context, skus []string) ([]domain.Product, error)
}

// Handler agrupa todos os métodos de Handler do catálogo.
type Handler struct {
	Service ProductService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc ProductService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// handleServiceResponse processa erros de serviço e envia respostas padronizadas ao cliente.
func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(successStatus)

		if data != nil {
			if jsonErr := json.NewEncoder(w).Encode(data); jsonErr != nil {
				h.Logger.Error("Falha ao codificar JSON de resposta", jsonErr)
			}
		}
		return
	}

	status, category, _ := apperror.MapToHTTPStatus(err)
	if status >= 500 {
		h.Logger.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	} else {
		h.Logger.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{"path": r.URL.Path})
	}
	middleware.WriteError(w, err)
}

// GetProductHandler godoc
// @Summary Consulta um produto do catálogo
// @Description Retorna o preço vigente de um SKU ativo.
// @Tags products
// @Produce json
// @Param sku path string true "SKU do produto"
// @Success 200 {object} domain.Product "Produto encontrado"
// @Failure 404 {object} domain.ErrorResponse "SKU inexistente"
// @Failure 502 {object} domain.ErrorResponse "Catálogo indisponível"
// @Security ApiKeyAuth
// @Router /v1/products/{sku} [get]
func (h *Handler) GetProductHandler(w http.ResponseWriter, r *http.Request) {
	product, err := h.Service.GetProduct(r.Context(), r.PathValue("sku"))
	h.handleServiceResponse(w, r, product, err, http.StatusOK)
}

// ListProductsHandler godoc
// @Summary Consulta vários SKUs do catálogo
// @Tags products
// @Produce json
// @Param sku query string true "SKUs separados por vírgula"
// @Success 200 {array} domain.Product "Produtos encontrados"
// @Failure 400 {object} domain.ErrorResponse "Nenhum SKU informado"
// @Security ApiKeyAuth
// @Router /v1/products [get]
func (h *Handler) ListProductsHandler(w http.ResponseWriter, r *http.Request) {
	var skus []string
	for _, part := range strings.Split(r.URL.Query().Get("sku"), ",") {
		if part = strings.TrimSpace(part); part != "" {
			skus = append(skus, part)
		}
	}

	products, err := h.Service.GetProducts(r.Context(), skus)
	h.handleServiceResponse(w, r, products, err, http.StatusOK)
}

package productrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"gosupply/internal/domain"
	"gosupply/internal/errors"
	"gosupply/internal/pkg/cache"
	"gosupply/internal/pkg/logger"
)

// Define a chave de cache para produtos.
const productCacheKey = "product:sku:%s"

// ProductRepository lê o catálogo sincronizado e implementa domain.PriceCatalog.
type ProductRepository struct {
	DB        *sql.DB      // Conexão principal com o banco de dados (PostgreSQL)
	Cache     cache.Client // Cliente para operações de cache (Redis)
	DBTimeout time.Duration
	CacheTTL  time.Duration
	logger    logger.Logger
}

// NewProductRepository cria e retorna uma nova instância do Repositório.
// Aqui injetamos as dependências de Infraestrutura (DB e Cache).
func NewProductRepository(db *sql.DB, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration, logger logger.Logger) *ProductRepository {
	return &ProductRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		CacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// FindBySKU busca um produto ativo pelo SKU, utilizando a estratégia Cache-Aside.
func (r *ProductRepository) FindBySKU(ctx context.Context, sku string) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := fmt.Sprintf(productCacheKey, sku)
	var product domain.Product

	// --- Cache-Aside (READ) ---
	cachedData, err := r.Cache.Get(ctxTimeout, key)
	if err == nil {
		if json.Unmarshal([]byte(cachedData), &product) == nil {
			return product, nil
		}
		r.logger.Warn("Entrada de cache inválida para produto, consultando DB.", map[string]interface{}{"sku": sku})
	} else if err != cache.ErrCacheMiss {
		// Falha real de cache (ex: conexão perdida): seguimos para o DB.
		r.logger.Warn("Falha ao ler do cache Redis.", map[string]interface{}{"sku": sku, "error": err.Error()})
	}

	productSQL := `
		SELECT id, sku, name, price, is_active, updated_at
		FROM products
		WHERE sku = $1 AND is_active`

	err = r.DB.QueryRowContext(ctxTimeout, productSQL, sku).Scan(
		&product.ID,
		&product.SKU,
		&product.Name,
		&product.Price,
		&product.IsActive,
		&product.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return domain.Product{}, errors.NewNotFoundError(fmt.Sprintf("Produto com SKU %s não existe no catálogo.", sku))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar produto no DB.", err)
		return domain.Product{}, errors.NewDBError("Falha ao buscar produto no DB", err)
	}

	// --- Cache-Aside (WRITE) ---
	if productJSON, marshalErr := json.Marshal(product); marshalErr == nil {
		if setErr := r.Cache.Set(ctxTimeout, key, productJSON, r.CacheTTL); setErr != nil {
			r.logger.Warn("Falha ao gravar produto no cache.", map[string]interface{}{"sku": sku, "error": setErr.Error()})
		}
	}

	return product, nil
}

// GetUnitPrice implementa domain.PriceCatalog.
// Qualquer falha do catálogo é reportada como UpstreamError para o fluxo de aprovação.
func (r *ProductRepository) GetUnitPrice(ctx context.Context, sku string) (decimal.Decimal, error) {
	product, err := r.FindBySKU(ctx, sku)
	if err != nil {
		return decimal.Zero, errors.NewUpstreamError(fmt.Sprintf("preço indisponível para o SKU %s", sku), err)
	}
	return product.Price, nil
}

// StaticCatalog é um catálogo em memória usado com STORAGE_DRIVER=memory.
type StaticCatalog map[string]decimal.Decimal

func (c StaticCatalog) GetUnitPrice(_ context.Context, sku string) (decimal.Decimal, error) {
	price, ok := c[sku]
	if !ok {
		return decimal.Zero, errors.NewUpstreamError(fmt.Sprintf("preço indisponível para o SKU %s", sku), nil)
	}
	return price, nil
}

// FindBySKU permite consultar o catálogo estático pela mesma interface do repositório.
func (c StaticCatalog) FindBySKU(_ context.Context, sku string) (domain.Product, error) {
	price, ok := c[sku]
	if !ok {
		return domain.Product{}, errors.NewNotFoundError(fmt.Sprintf("Produto com SKU %s não existe no catálogo.", sku))
	}
	return domain.Product{SKU: sku, Name: sku, Price: price, IsActive: true}, nil
}

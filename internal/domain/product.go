package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Product é a visão local do catálogo sincronizado do fornecedor externo.
// Apenas o preço por SKU é consumido pelo fluxo de aprovação.
type Product struct {
	ID        string          `json:"id"`
	SKU       string          `json:"sku"` // Stock Keeping Unit (código único de produto)
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	IsActive  bool            `json:"is_active"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// PriceCatalog é o colaborador externo consultado na aprovação para (re)precificar itens.
type PriceCatalog interface {
	GetUnitPrice(ctx context.Context, sku string) (decimal.Decimal, error)
}

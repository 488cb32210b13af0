package productservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gosupply/internal/domain"
	apperror "gosupply/internal/errors"
	"gosupply/internal/pkg/logger"
)

// ProductRepository define o contrato que este Serviço espera da camada de Persistência.
type ProductRepository interface {
	FindBySKU(ctx context.Context, sku string) (domain.Product, error)
}

// Service expõe o catálogo de preços para consulta das filiais antes de montar o pedido.
type Service struct {
	repo   ProductRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Produto.
func NewService(repo ProductRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// GetProduct busca um produto ativo pelo SKU.
func (s *Service) GetProduct(ctx context.Context, sku string) (domain.Product, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return domain.Product{}, apperror.NewValidationError("SKU é obrigatório.")
	}

	product, err := s.repo.FindBySKU(ctx, sku)
	if err != nil {
		var notFound *apperror.NotFoundError
		if errors.As(err, &notFound) {
			return domain.Product{}, err
		}
		s.logger.Error("Falha ao consultar catálogo.", err)
		return domain.Product{}, apperror.NewUpstreamError(fmt.Sprintf("catálogo indisponível para o SKU %s", sku), err)
	}
	return product, nil
}

// GetProducts busca vários SKUs de uma vez; SKUs inexistentes são omitidos do resultado.
func (s *Service) GetProducts(ctx context.Context, skus []string) ([]domain.Product, error) {
	if len(skus) == 0 {
		return nil, apperror.NewValidationError("Informe ao menos um SKU.")
	}

	products := make([]domain.Product, 0, len(skus))
	seen := make(map[string]bool, len(skus))
	for _, sku := range skus {
		if seen[sku] {
			continue
		}
		seen[sku] = true

		product, err := s.GetProduct(ctx, sku)
		if apperror.IsNotFound(err) {
			s.logger.Debug("SKU ausente do catálogo.", map[string]interface{}{"sku": sku})
			continue
		}
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, nil
}

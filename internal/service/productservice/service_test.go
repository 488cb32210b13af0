package productservice_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gosupply/internal/domain"
	apperror "gosupply/internal/errors"
	"gosupply/internal/pkg/logger"
	"gosupply/internal/service/productservice"
)

// MockProductRepository é uma implementação mock da interface ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindBySKU(ctx context.Context, sku string) (domain.Product, error) {
	args := m.Called(ctx, sku)
	return args.Get(0).(domain.Product), args.Error(1)
}

func TestGetProduct_Success(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, logger.NewLogger("error"))
	expected := domain.Product{ID: "p-1", SKU: "SKU001", Price: decimal.RequireFromString("9.90"), IsActive: true}
	mockRepo.On("FindBySKU", mock.Anything, "SKU001").Return(expected, nil)

	product, err := svc.GetProduct(context.Background(), " SKU001 ")

	require.NoError(t, err)
	assert.Equal(t, expected, product)
	mockRepo.AssertExpectations(t)
}

func TestGetProduct_Fail_EmptySKU(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, logger.NewLogger("error"))

	_, err := svc.GetProduct(context.Background(), "  ")

	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "FindBySKU", mock.Anything, mock.Anything)
}

func TestGetProduct_Fail_RepositoryDown(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, logger.NewLogger("error"))
	mockRepo.On("FindBySKU", mock.Anything, "SKU001").Return(domain.Product{}, errors.New("connection refused"))

	_, err := svc.GetProduct(context.Background(), "SKU001")

	assert.IsType(t, &apperror.UpstreamError{}, err)
}

func TestGetProducts_SkipsMissingAndDuplicates(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, logger.NewLogger("error"))
	mockRepo.On("FindBySKU", mock.Anything, "A").Return(domain.Product{SKU: "A"}, nil).Once()
	mockRepo.On("FindBySKU", mock.Anything, "B").Return(domain.Product{}, apperror.NewNotFoundError("B"))

	products, err := svc.GetProducts(context.Background(), []string{"A", "B", "A"})

	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "A", products[0].SKU)
	mockRepo.AssertExpectations(t)
}

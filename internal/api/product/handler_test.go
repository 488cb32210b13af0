package product_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gosupply/internal/api/product"
	"gosupply/internal/domain"
	"gosupply/internal/pkg/logger"
	"gosupply/internal/repository/productrepo"
	"gosupply/internal/service/productservice"
)

func newHandler() *product.Handler {
	catalog := productrepo.StaticCatalog{"X": decimal.RequireFromString("4.20"), "Y": decimal.NewFromInt(1)}
	log := logger.NewLogger("error")
	return product.NewHandler(productservice.NewService(catalog, log), log)
}

func TestGetProductHandler_Success(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/products/X", nil)
	req.SetPathValue("sku", "X")
	rr := httptest.NewRecorder()

	newHandler().GetProductHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var got domain.Product
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.True(t, decimal.RequireFromString("4.20").Equal(got.Price))
}

func TestGetProductHandler_Fail_UnknownSKU(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/products/Z", nil)
	req.SetPathValue("sku", "Z")
	rr := httptest.NewRecorder()

	newHandler().GetProductHandler(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestListProductsHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/products?sku=X,,Z,Y", nil).WithContext(context.Background())
	rr := httptest.NewRecorder()

	newHandler().ListProductsHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var got []domain.Product
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "X", got[0].SKU)
	assert.Equal(t, "Y", got[1].SKU)
}

func TestListProductsHandler_Fail_NoSKU(t *testing.T) {
	rr := httptest.NewRecorder()
	newHandler().ListProductsHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/products", nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

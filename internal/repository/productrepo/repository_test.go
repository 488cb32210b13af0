package productrepo_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gosupply/internal/domain"
	apperror "gosupply/internal/errors"
	"gosupply/internal/pkg/cache"
	"gosupply/internal/pkg/logger"
	"gosupply/internal/repository/productrepo"
)

func TestGetUnitPrice_CacheHitSkipsDatabase(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryClient(nil)
	payload, err := json.Marshal(domain.Product{ID: "p-1", SKU: "X", Price: decimal.RequireFromString("2.50"), IsActive: true})
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, "product:sku:X", payload, time.Minute))

	// DB nil: qualquer acesso ao banco causaria panic.
	repo := productrepo.NewProductRepository(nil, c, time.Second, time.Minute, logger.NewLogger("error"))

	price, err := repo.GetUnitPrice(ctx, "X")

	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("2.50").Equal(price))
}

func TestStaticCatalog(t *testing.T) {
	catalog := productrepo.StaticCatalog{"X": decimal.NewFromInt(3)}

	price, err := catalog.GetUnitPrice(context.Background(), "X")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(3).Equal(price))

	_, err = catalog.GetUnitPrice(context.Background(), "Y")
	assert.IsType(t, &apperror.UpstreamError{}, err)
}

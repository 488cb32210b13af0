package orderrepo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gosupply/internal/domain"
	apperror "gosupply/internal/errors"
	"gosupply/internal/repository/orderrepo"
)

var base = time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC)

func seed(t *testing.T, repo *orderrepo.MemoryRepository, id, branch string, createdAt time.Time) domain.Order {
	t.Helper()
	order, err := domain.NewOrder(id, branch, "user-1", []domain.RequestedLine{{SKU: "X", QtyRequested: 5}}, createdAt)
	require.NoError(t, err)
	created, err := repo.Create(context.Background(), order)
	require.NoError(t, err)
	return created
}

func TestMemoryRepository_CreateAndFind(t *testing.T) {
	repo := orderrepo.NewMemoryRepository()
	created := seed(t, repo, "o-1", "b-1", base)
	assert.Equal(t, 1, created.Version)

	found, err := repo.FindByID(context.Background(), "o-1")
	require.NoError(t, err)
	assert.Equal(t, created, found)

	_, err = repo.FindByID(context.Background(), "missing")
	assert.True(t, apperror.IsNotFound(err))

	_, err = repo.Create(context.Background(), created)
	assert.True(t, apperror.IsConflict(err))
}

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	repo := orderrepo.NewMemoryRepository()
	seed(t, repo, "o-1", "b-1", base)

	found, _ := repo.FindByID(context.Background(), "o-1")
	found.Items[0].QtyRequested = 999

	again, _ := repo.FindByID(context.Background(), "o-1")
	assert.Equal(t, 5, again.Items[0].QtyRequested)
}

func TestMemoryRepository_UpdateCompareAndSet(t *testing.T) {
	ctx := context.Background()
	repo := orderrepo.NewMemoryRepository()
	order := seed(t, repo, "o-1", "b-1", base)

	first := order.Clone()
	first.Status = domain.StatusConfirmPending
	updated, err := repo.Update(ctx, first, domain.StatusPendingReview)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)

	// mesma versão de origem: perde a corrida
	stale := order.Clone()
	stale.Status = domain.StatusConfirmPending
	_, err = repo.Update(ctx, stale, domain.StatusPendingReview)
	assert.True(t, apperror.IsConflict(err))

	// versão correta mas status esperado divergente
	wrong := updated.Clone()
	wrong.Status = domain.StatusDispatched
	_, err = repo.Update(ctx, wrong, domain.StatusIssueRaised)
	assert.True(t, apperror.IsConflict(err))

	persisted, _ := repo.FindByID(ctx, "o-1")
	assert.Equal(t, domain.StatusConfirmPending, persisted.Status)
	assert.Equal(t, 2, persisted.Version)
}

func TestMemoryRepository_FindAllFilters(t *testing.T) {
	ctx := context.Background()
	repo := orderrepo.NewMemoryRepository()
	seed(t, repo, "o-1", "b-1", base)
	seed(t, repo, "o-2", "b-2", base.Add(time.Hour))
	o3 := seed(t, repo, "o-3", "b-1", base.Add(2*time.Hour))

	o3.Status = domain.StatusConfirmPending
	_, err := repo.Update(ctx, o3, domain.StatusPendingReview)
	require.NoError(t, err)

	all, err := repo.FindAll(ctx, domain.OrderFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "o-3", all[0].ID, "mais recentes primeiro")

	byBranch, _ := repo.FindAll(ctx, domain.OrderFilter{BranchID: "b-1"})
	assert.Len(t, byBranch, 2)

	byStatus, _ := repo.FindAll(ctx, domain.OrderFilter{Statuses: []domain.OrderStatus{domain.StatusConfirmPending}})
	require.Len(t, byStatus, 1)
	assert.Equal(t, "o-3", byStatus[0].ID)

	page, _ := repo.FindAll(ctx, domain.OrderFilter{Limit: 1, Offset: 1})
	require.Len(t, page, 1)
	assert.Equal(t, "o-2", page[0].ID)

	pending, _ := repo.FindByStatus(ctx, domain.StatusPendingReview)
	assert.Len(t, pending, 2)
}

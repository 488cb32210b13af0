package autocloseservice_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gosupply/internal/domain"
	apperror "gosupply/internal/errors"
	"gosupply/internal/pkg/businesshours"
	"gosupply/internal/pkg/clock"
	"gosupply/internal/pkg/logger"
	"gosupply/internal/pkg/metrics"
	"gosupply/internal/repository/orderrepo"
	"gosupply/internal/repository/productrepo"
	"gosupply/internal/service/autocloseservice"
	"gosupply/internal/service/orderservice"
)

// MockOrderStore é uma implementação mock de autocloseservice.OrderStore.
type MockOrderStore struct {
	mock.Mock
}

func (m *MockOrderStore) FindByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *MockOrderStore) Update(ctx context.Context, order domain.Order, expected domain.OrderStatus) (domain.Order, error) {
	args := m.Called(ctx, order, expected)
	return args.Get(0).(domain.Order), args.Error(1)
}

var (
	monday1600 = time.Date(2024, time.January, 1, 16, 0, 0, 0, time.UTC)
	manager    = domain.Actor{UserID: "manager-1", Role: domain.RoleManager}
	branch     = domain.Actor{UserID: "user-1", Role: domain.RoleBranch, BranchID: "branch-1"}
	catalog    = productrepo.StaticCatalog{"X": decimal.NewFromInt(2)}
	calendar   = businesshours.New(time.UTC)
)

func at(day, hour int) time.Time {
	return time.Date(2024, time.January, day, hour, 0, 0, 0, time.UTC)
}

// approvedAt cria um pedido aprovado (CONFIRM_PENDING) no instante informado.
func approvedAt(t *testing.T, repo *orderrepo.MemoryRepository, when time.Time) (*orderservice.Service, domain.Order) {
	t.Helper()
	clk := clock.NewFixed(when)
	engine := orderservice.NewService(repo, catalog, nil, clk, calendar, orderservice.Options{SLAHours: 2}, logger.NewLogger("error"))

	order, err := engine.PlaceOrder(context.Background(), branch, []domain.RequestedLine{{SKU: "X", QtyRequested: 3}})
	require.NoError(t, err)
	res, err := engine.Approve(context.Background(), manager, order.ID, nil)
	require.NoError(t, err)
	return engine, res.Order
}

func TestRunAutoCloseSweep_RespectsWorkingHoursSLA(t *testing.T) {
	repo := orderrepo.NewMemoryRepository()
	_, order := approvedAt(t, repo, monday1600)
	svc := autocloseservice.NewService(repo, nil, calendar, 2, time.Second, nil, logger.NewLogger("error"))
	ctx := context.Background()

	for _, now := range []time.Time{at(1, 23), at(2, 9)} {
		result, err := svc.RunAutoCloseSweep(ctx, now)
		require.NoError(t, err)
		assert.Empty(t, result.Closed, now)
	}

	result, err := svc.RunAutoCloseSweep(ctx, at(2, 10))
	require.NoError(t, err)
	assert.Equal(t, []string{order.ID}, result.Closed)
	assert.Empty(t, result.Failed)

	persisted, _ := repo.FindByID(ctx, order.ID)
	assert.Equal(t, domain.StatusAutoClosed, persisted.Status)
	assert.Equal(t, at(2, 10), *persisted.ClosedAt)
}

func TestRunAutoCloseSweep_IsIdempotent(t *testing.T) {
	repo := orderrepo.NewMemoryRepository()
	approvedAt(t, repo, monday1600)
	m := metrics.New(prometheus.NewRegistry())
	svc := autocloseservice.NewService(repo, nil, calendar, 2, time.Second, m, logger.NewLogger("error"))

	first, err := svc.RunAutoCloseSweep(context.Background(), at(2, 10))
	require.NoError(t, err)
	second, err := svc.RunAutoCloseSweep(context.Background(), at(2, 11))
	require.NoError(t, err)

	assert.Len(t, first.Closed, 1)
	assert.Empty(t, second.Closed)
	assert.Empty(t, second.Failed)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SweepClosed))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SweepRuns.WithLabelValues("ok")))
}

func TestRunAutoCloseSweep_OnlyConfirmPendingIsTouched(t *testing.T) {
	repo := orderrepo.NewMemoryRepository()
	engine, order := approvedAt(t, repo, monday1600)
	_, err := engine.RaiseIssue(context.Background(), branch, order.ID, "avaria")
	require.NoError(t, err)

	svc := autocloseservice.NewService(repo, nil, calendar, 2, time.Second, nil, logger.NewLogger("error"))
	result, err := svc.RunAutoCloseSweep(context.Background(), at(5, 16))

	require.NoError(t, err)
	assert.Empty(t, result.Closed)
	persisted, _ := repo.FindByID(context.Background(), order.ID)
	assert.Equal(t, domain.StatusIssueRaised, persisted.Status)
}

func TestRunAutoCloseSweep_CollectsPerOrderFailures(t *testing.T) {
	anchor := monday1600
	a := domain.Order{ID: "a", Status: domain.StatusConfirmPending, ConfirmPendingAt: &anchor, Version: 2}
	b := domain.Order{ID: "b", Status: domain.StatusConfirmPending, ConfirmPendingAt: &anchor, Version: 2}

	store := new(MockOrderStore)
	store.On("FindByStatus", mock.Anything, domain.StatusConfirmPending).Return([]domain.Order{a, b}, nil)
	store.On("Update", mock.Anything, mock.MatchedBy(func(o domain.Order) bool { return o.ID == "a" }), domain.StatusConfirmPending).
		Return(domain.Order{}, apperror.NewConflictError("versão"))
	store.On("Update", mock.Anything, mock.MatchedBy(func(o domain.Order) bool { return o.ID == "b" }), domain.StatusConfirmPending).
		Return(domain.Order{ID: "b", Status: domain.StatusAutoClosed, Version: 3}, nil)

	svc := autocloseservice.NewService(store, nil, calendar, 2, time.Second, nil, logger.NewLogger("error"))
	result, err := svc.RunAutoCloseSweep(context.Background(), at(3, 9))

	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, result.Closed)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "a", result.Failed[0].OrderID)
	store.AssertExpectations(t)
}

func TestRunAutoCloseSweep_Fail_ListingError(t *testing.T) {
	store := new(MockOrderStore)
	store.On("FindByStatus", mock.Anything, domain.StatusConfirmPending).Return([]domain.Order(nil), errors.New("db fora"))

	svc := autocloseservice.NewService(store, nil, calendar, 2, time.Second, nil, logger.NewLogger("error"))
	_, err := svc.RunAutoCloseSweep(context.Background(), at(3, 9))

	assert.Error(t, err)
	store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmRacingAutoClose_ExactlyOneWins(t *testing.T) {
	for i := 0; i < 50; i++ {
		repo := orderrepo.NewMemoryRepository()
		_, order := approvedAt(t, repo, monday1600)

		engine := orderservice.NewService(repo, catalog, nil, clock.NewFixed(at(2, 10)), calendar,
			orderservice.Options{SLAHours: 2}, logger.NewLogger("error"))
		sweeper := autocloseservice.NewService(repo, nil, calendar, 2, time.Second, nil, logger.NewLogger("error"))

		var (
			wg         sync.WaitGroup
			start      = make(chan struct{})
			confirmErr error
			result     autocloseservice.SweepResult
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			<-start
			_, confirmErr = engine.Confirm(context.Background(), branch, order.ID)
		}()
		go func() {
			defer wg.Done()
			<-start
			result, _ = sweeper.RunAutoCloseSweep(context.Background(), at(2, 10))
		}()
		close(start)
		wg.Wait()

		confirmed := confirmErr == nil
		autoClosed := len(result.Closed) == 1
		require.True(t, confirmed != autoClosed, "exatamente uma transição deve vencer")

		persisted, _ := repo.FindByID(context.Background(), order.ID)
		if confirmed {
			assert.Equal(t, domain.StatusDispatched, persisted.Status)
		} else {
			assert.True(t, apperror.IsInvalidState(confirmErr) || apperror.IsConflict(confirmErr), confirmErr)
			assert.Equal(t, domain.StatusAutoClosed, persisted.Status)
		}
	}
}

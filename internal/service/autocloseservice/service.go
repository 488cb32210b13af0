package autocloseservice

import (
	"context"
	"time"

	"gosupply/internal/domain"
	"gosupply/internal/pkg/businesshours"
	"gosupply/internal/pkg/logger"
	"gosupply/internal/pkg/metrics"
	"gosupply/internal/pkg/notifier"
)

// FailedClose descreve um pedido que a varredura não conseguiu encerrar.
type FailedClose struct {
	OrderID string `json:"orderId"`
	Error   string `json:"error"`
}

// SweepResult é o resumo de uma execução da varredura.
type SweepResult struct {
	Closed []string      `json:"closed"`
	Failed []FailedClose `json:"failed"`
}

// OrderStore é o subconjunto do repositório usado pela varredura.
type OrderStore interface {
	FindByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error)
	Update(ctx context.Context, order domain.Order, expected domain.OrderStatus) (domain.Order, error)
}

// Service encerra pedidos cujo SLA em horas úteis expirou em CONFIRM_PENDING.
type Service struct {
	repo          OrderStore
	notifier      domain.Notifier
	calendar      *businesshours.Calendar
	slaHours      float64
	notifyTimeout time.Duration
	metrics       *metrics.Metrics
	logger        logger.Logger
}

// NewService cria o serviço de auto-fechamento. m pode ser nil.
func NewService(repo OrderStore, n domain.Notifier, cal *businesshours.Calendar, slaHours float64, notifyTimeout time.Duration, m *metrics.Metrics, logger logger.Logger) *Service {
	if notifyTimeout <= 0 {
		notifyTimeout = 5 * time.Second
	}
	return &Service{
		repo:          repo,
		notifier:      n,
		calendar:      cal,
		slaHours:      slaHours,
		notifyTimeout: notifyTimeout,
		metrics:       m,
		logger:        logger,
	}
}

// RunAutoCloseSweep avalia todos os pedidos em CONFIRM_PENDING no instante now.
// Falhas por pedido são coletadas em Failed e não interrompem a varredura; o erro retornado
// indica apenas falha na listagem ou cancelamento do contexto.
func (s *Service) RunAutoCloseSweep(ctx context.Context, now time.Time) (SweepResult, error) {
	result := SweepResult{Closed: []string{}, Failed: []FailedClose{}}

	orders, err := s.repo.FindByStatus(ctx, domain.StatusConfirmPending)
	if err != nil {
		s.logger.Error("Falha ao listar pedidos em CONFIRM_PENDING para auto-fechamento.", err)
		s.countRun("error")
		return result, err
	}

	for _, order := range orders {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("Varredura de auto-fechamento interrompida.", map[string]interface{}{
				"closed": len(result.Closed),
				"failed": len(result.Failed),
			})
			s.countRun("cancelled")
			return result, err
		}

		if order.ConfirmPendingAt == nil {
			s.logger.Warn("Pedido em CONFIRM_PENDING sem âncora de SLA ignorado.", map[string]interface{}{"order_id": order.ID})
			continue
		}
		elapsed := s.calendar.ElapsedWorkingHours(*order.ConfirmPendingAt, now)
		if elapsed < s.slaHours {
			continue
		}

		closed, err := s.close(ctx, order, now)
		if err != nil {
			s.logger.Error("Falha ao auto-fechar pedido "+order.ID+".", err)
			result.Failed = append(result.Failed, FailedClose{OrderID: order.ID, Error: err.Error()})
			if s.metrics != nil {
				s.metrics.SweepFailed.Inc()
			}
			continue
		}

		result.Closed = append(result.Closed, closed.ID)
		if s.metrics != nil {
			s.metrics.SweepClosed.Inc()
			s.metrics.Transitions.WithLabelValues(string(domain.OpAutoClose), string(closed.Status)).Inc()
		}
		notifier.Deliver(ctx, s.notifier, domain.OrderEvent{
			Type:       "order." + string(domain.OpAutoClose),
			OrderID:    closed.ID,
			BranchID:   closed.BranchID,
			From:       domain.StatusConfirmPending,
			To:         closed.Status,
			ActorID:    domain.SystemActor.UserID,
			OccurredAt: now,
		}, s.notifyTimeout, s.logger)
	}

	s.logger.Info("Varredura de auto-fechamento concluída.", map[string]interface{}{
		"candidates": len(orders),
		"closed":     len(result.Closed),
		"failed":     len(result.Failed),
	})
	s.countRun("ok")
	return result, nil
}

// close aplica a transição com a mesma guarda do motor: o status gravado ainda precisa ser
// CONFIRM_PENDING na versão lida, senão o repositório devolve Conflict.
func (s *Service) close(ctx context.Context, order domain.Order, now time.Time) (domain.Order, error) {
	if err := order.AutoClose(now); err != nil {
		return domain.Order{}, err
	}
	return s.repo.Update(ctx, order, domain.StatusConfirmPending)
}

func (s *Service) countRun(outcome string) {
	if s.metrics != nil {
		s.metrics.SweepRuns.WithLabelValues(outcome).Inc()
	}
}

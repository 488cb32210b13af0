package orderservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gosupply/internal/domain"
	apperror "gosupply/internal/errors"
	"gosupply/internal/pkg/businesshours"
	"gosupply/internal/pkg/clock"
	"gosupply/internal/pkg/logger"
	"gosupply/internal/pkg/metrics"
	"gosupply/internal/pkg/notifier"
)

// maxAttempts: uma tentativa original e uma nova leitura após conflito de versão.
const maxAttempts = 2

// Options reúne os parâmetros de negócio do motor de aprovação.
type Options struct {
	SLAHours      float64
	NotifyTimeout time.Duration
	Metrics       *metrics.Metrics // opcional
}

// ApprovalResult é a resposta da aprovação: o pedido e o delta por SKU.
type ApprovalResult struct {
	Order           domain.Order                     `json:"order"`
	QuantityChanges map[string]domain.QuantityChange `json:"quantityChanges"`
}

// Service é o motor de aprovação: valida papel e filial do ator e aplica as transições
// do agregado com gravação compare-and-set.
type Service struct {
	repo     domain.OrderRepository
	catalog  domain.PriceCatalog
	notifier domain.Notifier
	clock    clock.Clock
	calendar *businesshours.Calendar
	opts     Options
	logger   logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Pedidos.
func NewService(repo domain.OrderRepository, catalog domain.PriceCatalog, n domain.Notifier, clk clock.Clock, cal *businesshours.Calendar, opts Options, logger logger.Logger) *Service {
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = 5 * time.Second
	}
	return &Service{
		repo:     repo,
		catalog:  catalog,
		notifier: n,
		clock:    clk,
		calendar: cal,
		opts:     opts,
		logger:   logger,
	}
}

// PlaceOrder cria o pedido da filial do ator em PENDING_REVIEW.
func (s *Service) PlaceOrder(ctx context.Context, actor domain.Actor, lines []domain.RequestedLine) (domain.Order, error) {
	if actor.Role != domain.RoleBranch || actor.BranchID == "" {
		return domain.Order{}, apperror.NewUnauthorizedError("Apenas usuários de filial podem criar pedidos.")
	}

	order, err := domain.NewOrder(uuid.New().String(), actor.BranchID, actor.UserID, lines, s.clock.Now())
	if err != nil {
		return domain.Order{}, err
	}

	created, err := s.repo.Create(ctx, order)
	if err != nil {
		return domain.Order{}, translateRepoError("Falha interna ao criar pedido.", err)
	}

	s.logger.Info("Pedido criado.", map[string]interface{}{
		"order_id":  created.ID,
		"branch_id": created.BranchID,
		"items":     len(created.Items),
	})
	s.publish(ctx, "order.placed", created, "", actor, "")
	return s.withDeadline(created), nil
}

// GetOrder retorna o pedido; usuários de filial só enxergam a própria filial.
func (s *Service) GetOrder(ctx context.Context, actor domain.Actor, id string) (domain.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if err := authorizeRead(actor, order); err != nil {
		return domain.Order{}, err
	}
	return s.withDeadline(order), nil
}

// ListOrders lista pedidos. Para usuários de filial o filtro de filial é sempre a própria.
func (s *Service) ListOrders(ctx context.Context, actor domain.Actor, filter domain.OrderFilter) ([]domain.Order, error) {
	if actor.Role == domain.RoleBranch {
		if filter.BranchID != "" && filter.BranchID != actor.BranchID {
			return nil, apperror.NewUnauthorizedError("Usuários de filial só podem listar pedidos da própria filial.")
		}
		filter.BranchID = actor.BranchID
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, apperror.NewValidationError("limit e offset não podem ser negativos.")
	}

	orders, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, translateRepoError("Falha interna ao listar pedidos.", err)
	}
	for i := range orders {
		orders[i] = s.withDeadline(orders[i])
	}
	return orders, nil
}

// Approve aplica as quantidades do gerente, reprecifica pelo catálogo e move para CONFIRM_PENDING.
func (s *Service) Approve(ctx context.Context, actor domain.Actor, id string, lines []domain.ApprovalLine) (ApprovalResult, error) {
	if actor.Role != domain.RoleManager {
		return ApprovalResult{}, apperror.NewUnauthorizedError("Apenas gerentes podem aprovar pedidos.")
	}

	var changes map[string]domain.QuantityChange
	order, err := s.mutate(ctx, id, domain.OpApprove, func(o *domain.Order, now time.Time) error {
		if o.Status != domain.StatusPendingReview {
			return apperror.NewInvalidStateError(string(domain.OpApprove), string(domain.StatusPendingReview), string(o.Status))
		}
		// linhas inválidas não dependem do catálogo
		if err := o.ValidateApproval(lines); err != nil {
			return err
		}
		prices, err := s.prices(ctx, o.SKUs())
		if err != nil {
			return err
		}
		changes, err = o.Approve(actor.UserID, lines, prices, now)
		return err
	})
	if err != nil {
		return ApprovalResult{}, err
	}

	for sku, change := range changes {
		if !change.IsIncreased && !change.IsDecreased {
			continue
		}
		s.logger.Info("Quantidade ajustada na aprovação.", map[string]interface{}{
			"order_id":  order.ID,
			"sku":       sku,
			"requested": change.Requested,
			"approved":  change.Approved,
			"change":    change.Change,
			"increased": change.IsIncreased,
		})
	}

	s.publish(ctx, "order."+string(domain.OpApprove), order, domain.StatusPendingReview, actor, "")
	return ApprovalResult{Order: order, QuantityChanges: changes}, nil
}

// Confirm registra o aceite da filial (CONFIRM_PENDING → DISPATCHED).
func (s *Service) Confirm(ctx context.Context, actor domain.Actor, id string) (domain.Order, error) {
	return s.transition(ctx, actor, id, domain.OpConfirm, "")
}

// RaiseIssue registra uma divergência da filial (CONFIRM_PENDING → ISSUE_RAISED).
func (s *Service) RaiseIssue(ctx context.Context, actor domain.Actor, id, note string) (domain.Order, error) {
	return s.transition(ctx, actor, id, domain.OpRaiseIssue, note)
}

// Reply registra a resposta do gerente (ISSUE_RAISED → CONFIRM_PENDING) e reinicia o SLA.
func (s *Service) Reply(ctx context.Context, actor domain.Actor, id, note string) (domain.Order, error) {
	return s.transition(ctx, actor, id, domain.OpReply, note)
}

// ConfirmReceived encerra o pedido após o recebimento (DISPATCHED → CLOSED).
func (s *Service) ConfirmReceived(ctx context.Context, actor domain.Actor, id string) (domain.Order, error) {
	return s.transition(ctx, actor, id, domain.OpConfirmReceived, "")
}

// UpdateStatus encaminha o status desejado para a operação correspondente.
func (s *Service) UpdateStatus(ctx context.Context, actor domain.Actor, id, status, note string) (domain.Order, error) {
	target, err := domain.ParseStatus(status)
	if err != nil {
		return domain.Order{}, err
	}
	op, ok := domain.OperationTo(target)
	if !ok {
		return domain.Order{}, apperror.NewValidationError(fmt.Sprintf("O status %s não pode ser definido por esta operação.", target))
	}
	return s.transition(ctx, actor, id, op, note)
}

func (s *Service) transition(ctx context.Context, actor domain.Actor, id string, op domain.Operation, note string) (domain.Order, error) {
	if err := authorizeOperation(actor, op); err != nil {
		return domain.Order{}, err
	}

	order, err := s.mutate(ctx, id, op, func(o *domain.Order, now time.Time) error {
		if actor.Role == domain.RoleBranch && o.BranchID != actor.BranchID {
			return apperror.NewUnauthorizedError("O pedido pertence a outra filial.")
		}
		switch op {
		case domain.OpConfirm:
			return o.Confirm(now)
		case domain.OpRaiseIssue:
			return o.RaiseIssue(actor.UserID, note, now)
		case domain.OpReply:
			return o.Reply(actor.UserID, note, now)
		case domain.OpConfirmReceived:
			return o.ConfirmReceived(now)
		}
		return apperror.NewInternalError(fmt.Sprintf("operação %s sem tratamento", op), nil)
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.publish(ctx, "order."+string(op), order, domain.RequiredStatus(op), actor, note)
	return order, nil
}

// mutate carrega, aplica a operação e grava com compare-and-set sobre versão e status de origem.
// Um conflito de versão provoca uma nova leitura; na segunda tentativa a própria guarda do
// agregado devolve InvalidState se a corrida mudou o status.
func (s *Service) mutate(ctx context.Context, id string, op domain.Operation, apply func(*domain.Order, time.Time) error) (domain.Order, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		order, err := s.load(ctx, id)
		if err != nil {
			return domain.Order{}, err
		}

		expected := order.Status
		if err := apply(&order, s.clock.Now()); err != nil {
			return domain.Order{}, err
		}

		updated, err := s.repo.Update(ctx, order, expected)
		if err == nil {
			s.logger.Info("Transição de pedido aplicada.", map[string]interface{}{
				"order_id":  updated.ID,
				"operation": op,
				"from":      expected,
				"to":        updated.Status,
				"version":   updated.Version,
			})
			if s.opts.Metrics != nil {
				s.opts.Metrics.Transitions.WithLabelValues(string(op), string(updated.Status)).Inc()
			}
			return s.withDeadline(updated), nil
		}

		if !apperror.IsConflict(err) {
			return domain.Order{}, translateRepoError("Falha interna ao gravar pedido.", err)
		}
		if s.opts.Metrics != nil {
			s.opts.Metrics.Conflicts.Inc()
		}
		s.logger.Warn("Conflito de concorrência ao gravar pedido.", map[string]interface{}{
			"order_id":  id,
			"operation": op,
			"attempt":   attempt,
		})
		lastErr = err
	}
	return domain.Order{}, lastErr
}

func (s *Service) load(ctx context.Context, id string) (domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Order{}, apperror.NewValidationError(fmt.Sprintf("ID de pedido inválido: %q.", id))
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Order{}, translateRepoError("Falha interna ao buscar pedido.", err)
	}
	return order, nil
}

// prices consulta o catálogo para todos os SKUs do pedido antes de qualquer alteração.
func (s *Service) prices(ctx context.Context, skus []string) (map[string]decimal.Decimal, error) {
	prices := make(map[string]decimal.Decimal, len(skus))
	for _, sku := range skus {
		price, err := s.catalog.GetUnitPrice(ctx, sku)
		if err != nil {
			var upstream *apperror.UpstreamError
			if errors.As(err, &upstream) {
				return nil, err
			}
			return nil, apperror.NewUpstreamError(fmt.Sprintf("falha ao consultar preço do SKU %s", sku), err)
		}
		prices[sku] = price
	}
	return prices, nil
}

// withDeadline preenche o prazo de auto-fechamento para pedidos em CONFIRM_PENDING.
func (s *Service) withDeadline(order domain.Order) domain.Order {
	order.SLADeadline = nil
	if order.Status == domain.StatusConfirmPending && order.ConfirmPendingAt != nil {
		deadline := s.calendar.AddWorkingHours(*order.ConfirmPendingAt, s.opts.SLAHours)
		order.SLADeadline = &deadline
	}
	return order
}

func (s *Service) publish(ctx context.Context, eventType string, order domain.Order, from domain.OrderStatus, actor domain.Actor, note string) {
	notifier.Deliver(ctx, s.notifier, domain.OrderEvent{
		Type:       eventType,
		OrderID:    order.ID,
		BranchID:   order.BranchID,
		From:       from,
		To:         order.Status,
		ActorID:    actor.UserID,
		Note:       note,
		OccurredAt: order.UpdatedAt,
	}, s.opts.NotifyTimeout, s.logger)
}

// authorizeOperation verifica o papel exigido antes de tocar no agregado.
func authorizeOperation(actor domain.Actor, op domain.Operation) error {
	switch op {
	case domain.OpReply:
		if actor.Role != domain.RoleManager {
			return apperror.NewUnauthorizedError("Apenas gerentes podem responder divergências.")
		}
	case domain.OpConfirm, domain.OpRaiseIssue, domain.OpConfirmReceived:
		if actor.Role != domain.RoleBranch || actor.BranchID == "" {
			return apperror.NewUnauthorizedError("Apenas usuários da filial do pedido podem executar esta operação.")
		}
	default:
		return apperror.NewUnauthorizedError(fmt.Sprintf("Operação %s não permitida.", op))
	}
	return nil
}

func authorizeRead(actor domain.Actor, order domain.Order) error {
	if actor.Role == domain.RoleBranch && order.BranchID != actor.BranchID {
		return apperror.NewUnauthorizedError("O pedido pertence a outra filial.")
	}
	return nil
}

// translateRepoError preserva erros tipados e encapsula o resto como InternalError.
func translateRepoError(msg string, err error) error {
	var appErr apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.NewInternalError(msg, err)
}

package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperror "gosupply/internal/errors"
)

// OrderStatus representa o estado do pedido no fluxo de aprovação.
type OrderStatus string

const (
	StatusPendingReview  OrderStatus = "PENDING_REVIEW"
	StatusUnderReview    OrderStatus = "UNDER_REVIEW"
	StatusConfirmPending OrderStatus = "CONFIRM_PENDING"
	StatusIssueRaised    OrderStatus = "ISSUE_RAISED"
	StatusDispatched     OrderStatus = "DISPATCHED"
	StatusClosed         OrderStatus = "CLOSED"
	StatusAutoClosed     OrderStatus = "AUTO_CLOSED"
)

var allStatuses = []OrderStatus{
	StatusPendingReview, StatusUnderReview, StatusConfirmPending, StatusIssueRaised,
	StatusDispatched, StatusClosed, StatusAutoClosed,
}

// ParseStatus converte a string recebida pela API em OrderStatus.
func ParseStatus(s string) (OrderStatus, error) {
	candidate := OrderStatus(strings.ToUpper(strings.TrimSpace(s)))
	for _, st := range allStatuses {
		if st == candidate {
			return st, nil
		}
	}
	return "", apperror.NewValidationError(fmt.Sprintf("Status desconhecido: %q.", s))
}

// IsTerminal informa se nenhuma transição parte deste status.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusClosed || s == StatusAutoClosed
}

// Operation nomeia uma transição da máquina de estados.
type Operation string

const (
	OpApprove         Operation = "approve"
	OpConfirm         Operation = "confirm"
	OpRaiseIssue      Operation = "raise_issue"
	OpReply           Operation = "reply"
	OpConfirmReceived Operation = "confirm_received"
	OpAutoClose       Operation = "auto_close"
)

type transition struct {
	from OrderStatus
	to   OrderStatus
}

// stateMachine é a única fonte das transições permitidas.
var stateMachine = map[Operation]transition{
	OpApprove:         {from: StatusPendingReview, to: StatusConfirmPending},
	OpConfirm:         {from: StatusConfirmPending, to: StatusDispatched},
	OpRaiseIssue:      {from: StatusConfirmPending, to: StatusIssueRaised},
	OpReply:           {from: StatusIssueRaised, to: StatusConfirmPending},
	OpConfirmReceived: {from: StatusDispatched, to: StatusClosed},
	OpAutoClose:       {from: StatusConfirmPending, to: StatusAutoClosed},
}

// RequiredStatus retorna o status de origem exigido pela operação.
func RequiredStatus(op Operation) OrderStatus {
	return stateMachine[op].from
}

// OperationTo localiza a operação iniciada por usuário que leva ao status target.
// Aprovação (exige itens) e auto-fechamento (exclusivo do sistema) não são roteáveis.
func OperationTo(target OrderStatus) (Operation, bool) {
	for _, op := range []Operation{OpConfirm, OpRaiseIssue, OpReply, OpConfirmReceived} {
		if stateMachine[op].to == target {
			return op, true
		}
	}
	return "", false
}

// NoteKind classifica as mensagens trocadas entre filial e gerente.
type NoteKind string

const (
	NoteIssue NoteKind = "ISSUE"
	NoteReply NoteKind = "REPLY"
)

// OrderNote é uma mensagem do histórico de divergências do pedido.
type OrderNote struct {
	AuthorID  string    `json:"author_id"`
	Kind      NoteKind  `json:"kind"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// OrderItem é uma linha do pedido, única por SKU.
type OrderItem struct {
	SKU          string          `json:"sku"`
	QtyRequested int             `json:"qty_requested"`
	QtyApproved  int             `json:"qty_approved"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	TotalPrice   decimal.Decimal `json:"total_price"`
}

// Reprice define a quantidade aprovada e o preço unitário, recalculando o total da linha.
func (i *OrderItem) Reprice(qtyApproved int, unitPrice decimal.Decimal) {
	i.QtyApproved = qtyApproved
	i.UnitPrice = unitPrice
	i.TotalPrice = unitPrice.Mul(decimal.NewFromInt(int64(qtyApproved)))
}

// RequestedLine é uma linha do pedido enviado pela filial.
type RequestedLine struct {
	SKU          string `json:"sku"`
	QtyRequested int    `json:"qty_requested"`
}

// ApprovalLine é uma linha da aprovação enviada pelo gerente.
type ApprovalLine struct {
	SKU         string `json:"sku"`
	QtyApproved int    `json:"qty_approved"`
}

// QuantityChange compara a quantidade pedida com a aprovada para um SKU.
type QuantityChange struct {
	Requested   int  `json:"requested"`
	Approved    int  `json:"approved"`
	Change      int  `json:"change"`
	IsIncreased bool `json:"isIncreased"`
	IsDecreased bool `json:"isDecreased"`
}

// NewQuantityChange calcula o delta entre o pedido e o aprovado.
func NewQuantityChange(requested, approved int) QuantityChange {
	change := approved - requested
	return QuantityChange{
		Requested:   requested,
		Approved:    approved,
		Change:      change,
		IsIncreased: change > 0,
		IsDecreased: change < 0,
	}
}

// Order é o agregado do pedido de reposição de uma filial.
type Order struct {
	ID               string          `json:"id"`
	BranchID         string          `json:"branch_id"`
	RequestedByID    string          `json:"requested_by_id"`
	ManagerID        *string         `json:"manager_id"`
	Status           OrderStatus     `json:"status"`
	ApprovedAt       *time.Time      `json:"approved_at"`
	ConfirmPendingAt *time.Time      `json:"confirm_pending_at"`
	DispatchedAt     *time.Time      `json:"dispatched_at,omitempty"`
	ClosedAt         *time.Time      `json:"closed_at,omitempty"`
	SLADeadline      *time.Time      `json:"sla_deadline,omitempty"` // calculado, não persistido
	Total            decimal.Decimal `json:"total"`
	Items            []OrderItem     `json:"items"`
	Notes            []OrderNote     `json:"notes"`
	Version          int             `json:"version"` // Para Controle de Concorrência Otimista (OCC)
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// NewOrder valida as linhas enviadas pela filial e cria o pedido em PENDING_REVIEW.
func NewOrder(id, branchID, requestedByID string, lines []RequestedLine, now time.Time) (Order, error) {
	if strings.TrimSpace(branchID) == "" {
		return Order{}, apperror.NewValidationError("O pedido precisa de uma filial.")
	}
	if len(lines) == 0 {
		return Order{}, apperror.NewValidationError("O pedido precisa de ao menos um item.")
	}

	seen := make(map[string]struct{}, len(lines))
	items := make([]OrderItem, 0, len(lines))
	for _, line := range lines {
		sku := strings.TrimSpace(line.SKU)
		if sku == "" {
			return Order{}, apperror.NewValidationError("SKU não pode ser vazio.")
		}
		if _, dup := seen[sku]; dup {
			return Order{}, apperror.NewValidationError(fmt.Sprintf("SKU %s repetido no pedido.", sku))
		}
		if line.QtyRequested < 0 {
			return Order{}, apperror.NewValidationError(fmt.Sprintf("Quantidade pedida negativa para o SKU %s.", sku))
		}
		seen[sku] = struct{}{}
		items = append(items, OrderItem{
			SKU:          sku,
			QtyRequested: line.QtyRequested,
			UnitPrice:    decimal.Zero,
			TotalPrice:   decimal.Zero,
		})
	}

	return Order{
		ID:            id,
		BranchID:      branchID,
		RequestedByID: requestedByID,
		Status:        StatusPendingReview,
		Total:         decimal.Zero,
		Items:         items,
		Notes:         []OrderNote{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Item retorna a linha do SKU informado.
func (o *Order) Item(sku string) (OrderItem, bool) {
	for _, it := range o.Items {
		if it.SKU == sku {
			return it, true
		}
	}
	return OrderItem{}, false
}

// SKUs retorna os SKUs do pedido na ordem original.
func (o *Order) SKUs() []string {
	skus := make([]string, len(o.Items))
	for i, it := range o.Items {
		skus[i] = it.SKU
	}
	return skus
}

// Clone devolve uma cópia profunda; mutações na cópia não afetam o original.
func (o Order) Clone() Order {
	c := o
	c.Items = cloneSlice(o.Items)
	c.Notes = cloneSlice(o.Notes)
	c.ManagerID = clonePtr(o.ManagerID)
	c.ApprovedAt = clonePtr(o.ApprovedAt)
	c.ConfirmPendingAt = clonePtr(o.ConfirmPendingAt)
	c.DispatchedAt = clonePtr(o.DispatchedAt)
	c.ClosedAt = clonePtr(o.ClosedAt)
	c.SLADeadline = clonePtr(o.SLADeadline)
	return c
}

// CanTransitionTo informa se existe alguma operação que leve do status atual para target.
func (o *Order) CanTransitionTo(target OrderStatus) bool {
	for _, t := range stateMachine {
		if t.from == o.Status && t.to == target {
			return true
		}
	}
	return false
}

// guard valida o status de origem exigido pela operação.
func (o *Order) guard(op Operation) (OrderStatus, error) {
	t := stateMachine[op]
	if o.Status != t.from {
		return "", apperror.NewInvalidStateError(string(op), string(t.from), string(o.Status))
	}
	return t.to, nil
}

// ValidateApproval confere as linhas do gerente contra os itens do pedido, sem consultar preços.
func (o *Order) ValidateApproval(lines []ApprovalLine) error {
	_, err := o.approvedQuantities(lines)
	return err
}

func (o *Order) approvedQuantities(lines []ApprovalLine) (map[string]int, error) {
	approved := make(map[string]int, len(lines))
	for _, line := range lines {
		sku := strings.TrimSpace(line.SKU)
		if _, ok := o.Item(sku); !ok {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("SKU %s não pertence ao pedido %s.", sku, o.ID))
		}
		if line.QtyApproved < 0 {
			return nil, apperror.NewValidationError(fmt.Sprintf("Quantidade aprovada negativa para o SKU %s.", sku))
		}
		if _, dup := approved[sku]; dup {
			return nil, apperror.NewValidationError(fmt.Sprintf("SKU %s repetido na aprovação.", sku))
		}
		approved[sku] = line.QtyApproved
	}
	return approved, nil
}

// Approve aplica as quantidades do gerente (tudo ou nada) e move o pedido para CONFIRM_PENDING.
//
// Itens não citados em lines são aprovados com a quantidade pedida. prices deve conter
// o preço unitário de todos os SKUs do pedido. Nada é alterado quando um erro é retornado.
func (o *Order) Approve(managerID string, lines []ApprovalLine, prices map[string]decimal.Decimal, now time.Time) (map[string]QuantityChange, error) {
	next, err := o.guard(OpApprove)
	if err != nil {
		return nil, err
	}

	approved, err := o.approvedQuantities(lines)
	if err != nil {
		return nil, err
	}

	items := make([]OrderItem, len(o.Items))
	changes := make(map[string]QuantityChange, len(o.Items))
	for i, it := range o.Items {
		price, ok := prices[it.SKU]
		if !ok {
			return nil, apperror.NewUpstreamError(fmt.Sprintf("preço ausente para o SKU %s", it.SKU), nil)
		}
		qty, ok := approved[it.SKU]
		if !ok {
			qty = it.QtyRequested
		}
		it.Reprice(qty, price)
		items[i] = it
		changes[it.SKU] = NewQuantityChange(it.QtyRequested, qty)
	}

	approvedAt, pendingAt := now, now
	o.Items = items
	o.recomputeTotal()
	o.ManagerID = &managerID
	o.ApprovedAt = &approvedAt
	o.ConfirmPendingAt = &pendingAt
	o.Status = next
	o.UpdatedAt = now
	return changes, nil
}

// Confirm registra o aceite da filial sobre as quantidades aprovadas.
func (o *Order) Confirm(now time.Time) error {
	next, err := o.guard(OpConfirm)
	if err != nil {
		return err
	}
	o.Status = next
	o.DispatchedAt = &now
	o.UpdatedAt = now
	return nil
}

// RaiseIssue registra uma divergência apontada pela filial.
func (o *Order) RaiseIssue(authorID, body string, now time.Time) error {
	next, err := o.guard(OpRaiseIssue)
	if err != nil {
		return err
	}
	note, err := newNote(authorID, NoteIssue, body, now)
	if err != nil {
		return err
	}
	o.Notes = append(o.Notes, note)
	o.Status = next
	o.UpdatedAt = now
	return nil
}

// Reply registra a resposta do gerente e reinicia a janela de SLA.
func (o *Order) Reply(authorID, body string, now time.Time) error {
	next, err := o.guard(OpReply)
	if err != nil {
		return err
	}
	note, err := newNote(authorID, NoteReply, body, now)
	if err != nil {
		return err
	}
	o.Notes = append(o.Notes, note)
	o.Status = next
	o.ConfirmPendingAt = &now
	o.UpdatedAt = now
	return nil
}

// ConfirmReceived encerra o pedido com sucesso após o recebimento.
func (o *Order) ConfirmReceived(now time.Time) error {
	next, err := o.guard(OpConfirmReceived)
	if err != nil {
		return err
	}
	o.Status = next
	o.ClosedAt = &now
	o.UpdatedAt = now
	return nil
}

// AutoClose encerra o pedido por expiração do SLA.
func (o *Order) AutoClose(now time.Time) error {
	next, err := o.guard(OpAutoClose)
	if err != nil {
		return err
	}
	o.Status = next
	o.ClosedAt = &now
	o.UpdatedAt = now
	return nil
}

func (o *Order) recomputeTotal() {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.TotalPrice)
	}
	o.Total = total
}

func newNote(authorID string, kind NoteKind, body string, now time.Time) (OrderNote, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return OrderNote{}, apperror.NewValidationError("A mensagem não pode ser vazia.")
	}
	return OrderNote{AuthorID: authorID, Kind: kind, Body: body, CreatedAt: now}, nil
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

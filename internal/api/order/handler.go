package order

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"gosupply/internal/domain"
	apperror "gosupply/internal/errors"
	"gosupply/internal/pkg/logger"
	"gosupply/internal/pkg/middleware"
	"gosupply/internal/service/autocloseservice"
	"gosupply/internal/service/orderservice"
)

// OrderService define o contrato que o Handler espera do motor de aprovação.
type OrderService interface {
	PlaceOrder(ctx context.Context, actor domain.Actor, lines []domain.RequestedLine) (domain.Order, error)
	GetOrder(ctx context.Context, actor domain.Actor, id string) (domain.Order, error)
	ListOrders(ctx context.Context, actor domain.Actor, filter domain.OrderFilter) ([]domain.Order, error)
	Approve(ctx context.Context, actor domain.Actor, id string, lines []domain.ApprovalLine) (orderservice.ApprovalResult, error)
	Confirm(ctx context.Context, actor domain.Actor, id string) (domain.Order, error)
	RaiseIssue(ctx context.Context, actor domain.Actor, id, note string) (domain.Order, error)
	Reply(ctx context.Context, actor domain.Actor, id, note string) (domain.Order, error)
	ConfirmReceived(ctx context.Context, actor domain.Actor, id string) (domain.Order, error)
	UpdateStatus(ctx context.Context, actor domain.Actor, id, status, note string) (domain.Order, error)
}

// SweepRunner dispara uma varredura de auto-fechamento sob demanda.
type SweepRunner interface {
	RunOnce(ctx context.Context) (autocloseservice.SweepResult, bool, error)
}

// PlaceOrderRequest é o corpo de POST /v1/orders.
type PlaceOrderRequest struct {
	Items []domain.RequestedLine `json:"items"`
}

// ApproveRequest é o corpo de POST /v1/orders/{id}/approve.
type ApproveRequest struct {
	Items []domain.ApprovalLine `json:"items"`
}

// NoteRequest é o corpo de /issues e /reply.
type NoteRequest struct {
	Note string `json:"note" example:"Faltaram 3 caixas do SKU X."`
}

// UpdateStatusRequest é o corpo de PATCH /v1/orders/{id}/status.
type UpdateStatusRequest struct {
	Status string `json:"status" example:"DISPATCHED"`
	Note   string `json:"note,omitempty"`
}

// SweepResponse é a resposta do disparo manual da varredura.
type SweepResponse struct {
	Ran    bool                         `json:"ran"`
	Result autocloseservice.SweepResult `json:"result"`
}

// Handler agrupa todos os métodos de Handler de pedidos.
type Handler struct {
	Service OrderService
	Sweeper SweepRunner
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc OrderService, sweeper SweepRunner, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Sweeper: sweeper,
		Logger:  log,
	}
}

// handleServiceResponse processa erros de serviço e envia respostas padronizadas ao cliente.
func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(successStatus)

		h.Logger.Info("Requisição concluída com sucesso", map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
			"status": successStatus,
		})

		if data != nil {
			if jsonErr := json.NewEncoder(w).Encode(data); jsonErr != nil {
				h.Logger.Error("Falha ao codificar JSON de resposta", jsonErr)
			}
		}
		return
	}

	status, category, _ := apperror.MapToHTTPStatus(err)
	if status >= 500 {
		h.Logger.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	} else {
		h.Logger.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{"path": r.URL.Path})
	}

	middleware.WriteError(w, err)
}

// actor extrai o ator autenticado; sem ele a requisição é rejeitada com 401.
func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthenticatedError("Autorização necessária."), http.StatusOK)
	}
	return actor, ok
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return false
	}
	return true
}

// PlaceOrderHandler godoc
// @Summary Cria um pedido de reposição
// @Description A filial do usuário autenticado envia os SKUs e quantidades desejadas. O pedido nasce em PENDING_REVIEW.
// @Tags orders
// @Accept json
// @Produce json
// @Param order body PlaceOrderRequest true "Itens do pedido"
// @Success 201 {object} domain.Order "Pedido criado"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 403 {object} domain.ErrorResponse "Usuário não é de filial"
// @Security ApiKeyAuth
// @Router /v1/orders [post]
func (h *Handler) PlaceOrderHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req PlaceOrderRequest
	if !h.decode(w, r, &req) {
		return
	}

	order, err := h.Service.PlaceOrder(r.Context(), actor, req.Items)
	h.handleServiceResponse(w, r, order, err, http.StatusCreated)
}

// GetOrderHandler godoc
// @Summary Obtém um pedido por ID
// @Tags orders
// @Produce json
// @Param id path string true "ID do pedido"
// @Success 200 {object} domain.Order "Pedido encontrado"
// @Failure 404 {object} domain.ErrorResponse "Pedido não encontrado"
// @Security ApiKeyAuth
// @Router /v1/orders/{id} [get]
func (h *Handler) GetOrderHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	order, err := h.Service.GetOrder(r.Context(), actor, r.PathValue("id"))
	h.handleServiceResponse(w, r, order, err, http.StatusOK)
}

// ListOrdersHandler godoc
// @Summary Lista pedidos
// @Description Gerentes veem todas as filiais; usuários de filial apenas a própria.
// @Tags orders
// @Produce json
// @Param status query string false "Status separados por vírgula"
// @Param branch_id query string false "Filial"
// @Param limit query int false "Limite (padrão 100)"
// @Param offset query int false "Deslocamento"
// @Success 200 {array} domain.Order "Lista de pedidos"
// @Failure 400 {object} domain.ErrorResponse "Filtro inválido"
// @Security ApiKeyAuth
// @Router /v1/orders [get]
func (h *Handler) ListOrdersHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	orders, err := h.Service.ListOrders(r.Context(), actor, filter)
	h.handleServiceResponse(w, r, orders, err, http.StatusOK)
}

// ApproveHandler godoc
// @Summary Aprova um pedido
// @Description Define as quantidades aprovadas (itens omitidos mantêm a quantidade pedida), reprecifica pelo catálogo e move o pedido para CONFIRM_PENDING.
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "ID do pedido"
// @Param approval body ApproveRequest true "Quantidades aprovadas"
// @Success 200 {object} orderservice.ApprovalResult "Pedido aprovado e variações por SKU"
// @Failure 404 {object} domain.ErrorResponse "Pedido ou SKU inexistente"
// @Failure 409 {object} domain.ErrorResponse "Estado inválido ou conflito de versão"
// @Failure 502 {object} domain.ErrorResponse "Catálogo indisponível"
// @Security ApiKeyAuth
// @Router /v1/orders/{id}/approve [post]
func (h *Handler) ApproveHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req ApproveRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.Service.Approve(r.Context(), actor, r.PathValue("id"), req.Items)
	h.handleServiceResponse(w, r, result, err, http.StatusOK)
}

// ConfirmHandler godoc
// @Summary Filial aceita as quantidades aprovadas
// @Tags orders
// @Produce json
// @Param id path string true "ID do pedido"
// @Success 200 {object} domain.Order "Pedido despachado"
// @Failure 409 {object} domain.ErrorResponse "Estado inválido"
// @Security ApiKeyAuth
// @Router /v1/orders/{id}/confirm [post]
func (h *Handler) ConfirmHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	order, err := h.Service.Confirm(r.Context(), actor, r.PathValue("id"))
	h.handleServiceResponse(w, r, order, err, http.StatusOK)
}

// RaiseIssueHandler godoc
// @Summary Filial registra uma divergência
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "ID do pedido"
// @Param note body NoteRequest true "Descrição da divergência"
// @Success 200 {object} domain.Order "Pedido em ISSUE_RAISED"
// @Failure 409 {object} domain.ErrorResponse "Estado inválido"
// @Security ApiKeyAuth
// @Router /v1/orders/{id}/issues [post]
func (h *Handler) RaiseIssueHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req NoteRequest
	if !h.decode(w, r, &req) {
		return
	}

	order, err := h.Service.RaiseIssue(r.Context(), actor, r.PathValue("id"), req.Note)
	h.handleServiceResponse(w, r, order, err, http.StatusOK)
}

// ReplyHandler godoc
// @Summary Gerente responde a divergência
// @Description Retorna o pedido para CONFIRM_PENDING e reinicia o prazo de auto-fechamento.
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "ID do pedido"
// @Param note body NoteRequest true "Resposta"
// @Success 200 {object} domain.Order "Pedido em CONFIRM_PENDING"
// @Failure 409 {object} domain.ErrorResponse "Estado inválido"
// @Security ApiKeyAuth
// @Router /v1/orders/{id}/reply [post]
func (h *Handler) ReplyHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req NoteRequest
	if !h.decode(w, r, &req) {
		return
	}

	order, err := h.Service.Reply(r.Context(), actor, r.PathValue("id"), req.Note)
	h.handleServiceResponse(w, r, order, err, http.StatusOK)
}

// ConfirmReceivedHandler godoc
// @Summary Filial confirma o recebimento
// @Tags orders
// @Produce json
// @Param id path string true "ID do pedido"
// @Success 200 {object} domain.Order "Pedido encerrado"
// @Failure 409 {object} domain.ErrorResponse "Estado inválido"
// @Security ApiKeyAuth
// @Router /v1/orders/{id}/confirm-received [post]
func (h *Handler) ConfirmReceivedHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	order, err := h.Service.ConfirmReceived(r.Context(), actor, r.PathValue("id"))
	h.handleServiceResponse(w, r, order, err, http.StatusOK)
}

// UpdateStatusHandler godoc
// @Summary Altera o status do pedido
// @Description Encaminha o status desejado para a operação correspondente (DISPATCHED, ISSUE_RAISED, CONFIRM_PENDING ou CLOSED).
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "ID do pedido"
// @Param status body UpdateStatusRequest true "Novo status"
// @Success 200 {object} domain.Order "Pedido atualizado"
// @Failure 400 {object} domain.ErrorResponse "Status não permitido"
// @Failure 409 {object} domain.ErrorResponse "Estado inválido"
// @Security ApiKeyAuth
// @Router /v1/orders/{id}/status [patch]
func (h *Handler) UpdateStatusHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if !h.decode(w, r, &req) {
		return
	}

	order, err := h.Service.UpdateStatus(r.Context(), actor, r.PathValue("id"), req.Status, req.Note)
	h.handleServiceResponse(w, r, order, err, http.StatusOK)
}

// RunAutoCloseHandler godoc
// @Summary Executa a varredura de auto-fechamento agora
// @Tags admin
// @Produce json
// @Success 200 {object} SweepResponse "Resultado da varredura"
// @Security ApiKeyAuth
// @Router /v1/admin/auto-close/run [post]
func (h *Handler) RunAutoCloseHandler(w http.ResponseWriter, r *http.Request) {
	result, ran, err := h.Sweeper.RunOnce(r.Context())
	if err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewInternalError("Falha na varredura de auto-fechamento.", err), http.StatusOK)
		return
	}
	h.handleServiceResponse(w, r, SweepResponse{Ran: ran, Result: result}, nil, http.StatusOK)
}

func parseFilter(r *http.Request) (domain.OrderFilter, error) {
	q := r.URL.Query()
	filter := domain.OrderFilter{BranchID: strings.TrimSpace(q.Get("branch_id"))}

	if raw := q.Get("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			st, err := domain.ParseStatus(part)
			if err != nil {
				return domain.OrderFilter{}, err
			}
			filter.Statuses = append(filter.Statuses, st)
		}
	}

	for key, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return domain.OrderFilter{}, apperror.NewValidationError(fmt.Sprintf("Parâmetro %s inválido: %q.", key, raw))
		}
		*dst = n
	}
	return filter, nil
}

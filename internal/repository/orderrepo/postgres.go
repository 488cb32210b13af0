package orderrepo

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"gosupply/internal/domain"
	"gosupply/internal/errors"
	"gosupply/internal/pkg/logger"
)

const defaultListLimit = 100

// PostgresRepository implementa domain.OrderRepository sobre PostgreSQL.
// O agregado ocupa três tabelas: orders, order_items e order_notes.
type PostgresRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewPostgresRepository cria e retorna uma nova instância do Repositório de Pedidos.
func NewPostgresRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *PostgresRepository {
	return &PostgresRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

const orderColumns = `id, branch_id, requested_by_id, manager_id, status, approved_at, confirm_pending_at,
        dispatched_at, closed_at, total, version, created_at, updated_at`

// Create persiste um novo pedido com seus itens em uma única transação.
func (r *PostgresRepository) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	r.logger.Debug("Persistindo novo pedido.", map[string]interface{}{"order_id": order.ID, "branch_id": order.BranchID})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação para criação de pedido.", err)
		return domain.Order{}, errors.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	order.Version = 1
	const insertOrder = `
        INSERT INTO orders (` + orderColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err = tx.ExecContext(ctxTimeout, insertOrder,
		order.ID, order.BranchID, order.RequestedByID, order.ManagerID, order.Status,
		order.ApprovedAt, order.ConfirmPendingAt, order.DispatchedAt, order.ClosedAt,
		order.Total, order.Version, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if stderrors.As(err, &pqErr) && pqErr.Code == "23505" {
			return domain.Order{}, errors.NewConflictError(fmt.Sprintf("Pedido %s já existe.", order.ID))
		}
		r.logger.Error("Falha ao inserir pedido.", err)
		return domain.Order{}, errors.NewDBError("Falha ao inserir pedido", err)
	}

	if err := r.saveChildren(ctxTimeout, tx, order); err != nil {
		return domain.Order{}, err
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Falha ao commitar transação de criação de pedido.", err)
		return domain.Order{}, errors.NewDBError("Falha ao commitar transação", err)
	}

	r.logger.Info("Pedido criado com sucesso.", map[string]interface{}{"order_id": order.ID, "items": len(order.Items)})
	return order, nil
}

// FindByID busca o pedido completo (itens e mensagens).
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (domain.Order, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	order, err := scanOrder(r.DB.QueryRowContext(ctxTimeout, query, id))
	if err == sql.ErrNoRows {
		return domain.Order{}, errors.NewNotFoundError(fmt.Sprintf("Pedido com ID %s não encontrado.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar pedido no DB.", err)
		return domain.Order{}, errors.NewDBError("Falha ao buscar pedido", err)
	}

	orders := []domain.Order{order}
	if err := r.loadChildren(ctxTimeout, orders); err != nil {
		return domain.Order{}, err
	}
	return orders[0], nil
}

// FindAll lista pedidos aplicando os filtros opcionais de filial e status.
func (r *PostgresRepository) FindAll(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	statuses := make([]string, len(filter.Statuses))
	for i, s := range filter.Statuses {
		statuses[i] = string(s)
	}

	query := `SELECT ` + orderColumns + `
        FROM orders
        WHERE ($1 = '' OR branch_id = $1)
          AND (cardinality($2::text[]) = 0 OR status = ANY($2))
        ORDER BY created_at DESC
        LIMIT $3 OFFSET $4`

	return r.query(ctx, query, filter.BranchID, pq.Array(statuses), limit, filter.Offset)
}

// FindByStatus lista todos os pedidos em um status, os mais antigos primeiro.
func (r *PostgresRepository) FindByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + `
        FROM orders
        WHERE status = $1
        ORDER BY confirm_pending_at NULLS LAST, created_at`

	return r.query(ctx, query, status)
}

// Update grava o pedido com controle de concorrência otimista (OCC).
// A linha só é alterada se versão e status persistidos ainda forem os esperados.
func (r *PostgresRepository) Update(ctx context.Context, order domain.Order, expected domain.OrderStatus) (domain.Order, error) {
	r.logger.Debug("Iniciando atualização de pedido no repositório.", map[string]interface{}{
		"order_id":        order.ID,
		"expected_status": expected,
		"new_status":      order.Status,
		"version":         order.Version,
	})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação para atualização de pedido.", err)
		return domain.Order{}, errors.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	queryUpdate := `
        UPDATE orders
        SET manager_id = $1, status = $2, approved_at = $3, confirm_pending_at = $4,
            dispatched_at = $5, closed_at = $6, total = $7, version = $8, updated_at = $9
        WHERE id = $10 AND version = $11 AND status = $12`

	result, err := tx.ExecContext(ctxTimeout, queryUpdate,
		order.ManagerID, order.Status, order.ApprovedAt, order.ConfirmPendingAt,
		order.DispatchedAt, order.ClosedAt, order.Total, order.Version+1, order.UpdatedAt,
		order.ID, order.Version, expected,
	)
	if err != nil {
		r.logger.Error("Falha ao atualizar pedido.", err)
		return domain.Order{}, errors.NewDBError("Falha ao atualizar pedido", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.logger.Error("Falha ao verificar linhas afetadas após atualização de pedido.", err)
		return domain.Order{}, errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}

	if rowsAffected == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctxTimeout, `SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`, order.ID).Scan(&exists); err != nil {
			return domain.Order{}, errors.NewDBError("Falha ao verificar pedido", err)
		}
		if !exists {
			return domain.Order{}, errors.NewNotFoundError(fmt.Sprintf("Pedido com ID %s não encontrado.", order.ID))
		}
		r.logger.Warn("Falha no controle de concorrência otimista (OCC). Pedido alterado por outra operação.", map[string]interface{}{
			"order_id":         order.ID,
			"expected_version": order.Version,
			"expected_status":  expected,
		})
		return domain.Order{}, errors.NewConflictError("O pedido foi modificado por outra operação. Tente novamente.")
	}

	if err := r.saveChildren(ctxTimeout, tx, order); err != nil {
		return domain.Order{}, err
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Falha ao commitar transação de atualização de pedido.", err)
		return domain.Order{}, errors.NewDBError("Falha ao commitar transação", err)
	}

	order.Version++
	r.logger.Info("Pedido atualizado com sucesso.", map[string]interface{}{
		"order_id":    order.ID,
		"status":      order.Status,
		"new_version": order.Version,
	})
	return order, nil
}

// saveChildren grava itens (upsert por SKU) e mensagens (somente acréscimo).
func (r *PostgresRepository) saveChildren(ctx context.Context, tx *sql.Tx, order domain.Order) error {
	const upsertItem = `
        INSERT INTO order_items (order_id, sku, position, qty_requested, qty_approved, unit_price, total_price)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (order_id, sku) DO UPDATE
        SET qty_approved = EXCLUDED.qty_approved, unit_price = EXCLUDED.unit_price, total_price = EXCLUDED.total_price`

	for i, it := range order.Items {
		if _, err := tx.ExecContext(ctx, upsertItem,
			order.ID, it.SKU, i, it.QtyRequested, it.QtyApproved, it.UnitPrice, it.TotalPrice,
		); err != nil {
			r.logger.Error("Falha ao gravar item do pedido.", err)
			return errors.NewDBError("Falha ao gravar item do pedido", err)
		}
	}

	const insertNote = `
        INSERT INTO order_notes (order_id, position, author_id, kind, body, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (order_id, position) DO NOTHING`

	for i, n := range order.Notes {
		if _, err := tx.ExecContext(ctx, insertNote, order.ID, i, n.AuthorID, n.Kind, n.Body, n.CreatedAt); err != nil {
			r.logger.Error("Falha ao gravar mensagem do pedido.", err)
			return errors.NewDBError("Falha ao gravar mensagem do pedido", err)
		}
	}
	return nil
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...interface{}) ([]domain.Order, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falha ao listar pedidos no DB.", err)
		return nil, errors.NewDBError("Falha ao listar pedidos", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, errors.NewDBError("Falha ao ler pedido", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar pedidos", err)
	}

	if err := r.loadChildren(ctxTimeout, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// loadChildren carrega itens e mensagens de todos os pedidos com duas consultas.
func (r *PostgresRepository) loadChildren(ctx context.Context, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	index := make(map[string]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
		orders[i].Items = []domain.OrderItem{}
		orders[i].Notes = []domain.OrderNote{}
	}

	itemRows, err := r.DB.QueryContext(ctx, `
        SELECT order_id, sku, qty_requested, qty_approved, unit_price, total_price
        FROM order_items WHERE order_id = ANY($1) ORDER BY order_id, position`, pq.Array(ids))
	if err != nil {
		return errors.NewDBError("Falha ao buscar itens do pedido", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var orderID string
		var it domain.OrderItem
		if err := itemRows.Scan(&orderID, &it.SKU, &it.QtyRequested, &it.QtyApproved, &it.UnitPrice, &it.TotalPrice); err != nil {
			return errors.NewDBError("Falha ao ler item do pedido", err)
		}
		i := index[orderID]
		orders[i].Items = append(orders[i].Items, it)
	}
	if err := itemRows.Err(); err != nil {
		return errors.NewDBError("Falha ao iterar itens do pedido", err)
	}

	noteRows, err := r.DB.QueryContext(ctx, `
        SELECT order_id, author_id, kind, body, created_at
        FROM order_notes WHERE order_id = ANY($1) ORDER BY order_id, position`, pq.Array(ids))
	if err != nil {
		return errors.NewDBError("Falha ao buscar mensagens do pedido", err)
	}
	defer noteRows.Close()

	for noteRows.Next() {
		var orderID string
		var n domain.OrderNote
		if err := noteRows.Scan(&orderID, &n.AuthorID, &n.Kind, &n.Body, &n.CreatedAt); err != nil {
			return errors.NewDBError("Falha ao ler mensagem do pedido", err)
		}
		i := index[orderID]
		orders[i].Notes = append(orders[i].Notes, n)
	}
	if err := noteRows.Err(); err != nil {
		return errors.NewDBError("Falha ao iterar mensagens do pedido", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.ID, &o.BranchID, &o.RequestedByID, &o.ManagerID, &o.Status,
		&o.ApprovedAt, &o.ConfirmPendingAt, &o.DispatchedAt, &o.ClosedAt,
		&o.Total, &o.Version, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

package orderrepo

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gosupply/internal/domain"
	"gosupply/internal/errors"
)

// MemoryRepository guarda pedidos em memória (STORAGE_DRIVER=memory e testes).
// Toda leitura e escrita trabalha com cópias profundas do agregado.
type MemoryRepository struct {
	mu     sync.RWMutex
	orders map[string]domain.Order
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{orders: make(map[string]domain.Order)}
}

func (r *MemoryRepository) Create(_ context.Context, order domain.Order) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[order.ID]; ok {
		return domain.Order{}, errors.NewConflictError(fmt.Sprintf("Pedido %s já existe.", order.ID))
	}
	order.Version = 1
	r.orders[order.ID] = order.Clone()
	return order, nil
}

func (r *MemoryRepository) FindByID(_ context.Context, id string) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return domain.Order{}, errors.NewNotFoundError(fmt.Sprintf("Pedido com ID %s não encontrado.", id))
	}
	return o.Clone(), nil
}

func (r *MemoryRepository) FindAll(_ context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[domain.OrderStatus]bool, len(filter.Statuses))
	for _, s := range filter.Statuses {
		wanted[s] = true
	}

	out := []domain.Order{}
	for _, o := range r.orders {
		if filter.BranchID != "" && o.BranchID != filter.BranchID {
			continue
		}
		if len(wanted) > 0 && !wanted[o.Status] {
			continue
		}
		out = append(out, o.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if filter.Offset >= len(out) {
		return []domain.Order{}, nil
	}
	out = out[filter.Offset:]
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepository) FindByStatus(_ context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []domain.Order{}
	for _, o := range r.orders {
		if o.Status == status {
			out = append(out, o.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Update aplica o compare-and-set de versão e status sob o mesmo lock.
func (r *MemoryRepository) Update(_ context.Context, order domain.Order, expected domain.OrderStatus) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.orders[order.ID]
	if !ok {
		return domain.Order{}, errors.NewNotFoundError(fmt.Sprintf("Pedido com ID %s não encontrado.", order.ID))
	}
	if current.Version != order.Version || current.Status != expected {
		return domain.Order{}, errors.NewConflictError("O pedido foi modificado por outra operação. Tente novamente.")
	}

	order.Version++
	r.orders[order.ID] = order.Clone()
	return order, nil
}

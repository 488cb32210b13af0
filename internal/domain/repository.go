package domain

import "context"

// OrderFilter define os parâmetros de listagem de pedidos.
type OrderFilter struct {
	BranchID string
	Statuses []OrderStatus
	Limit    int
	Offset   int
}

// OrderRepository é o contrato de persistência do agregado Order.
//
// Update é um compare-and-set: grava somente se a versão persistida ainda for order.Version
// e o status persistido ainda for expected. Caso contrário retorna ConflictError sem efeitos.
// Em caso de sucesso o pedido retornado tem Version incrementada.
type OrderRepository interface {
	Create(ctx context.Context, order Order) (Order, error)
	FindByID(ctx context.Context, id string) (Order, error)
	FindAll(ctx context.Context, filter OrderFilter) ([]Order, error)
	FindByStatus(ctx context.Context, status OrderStatus) ([]Order, error)
	Update(ctx context.Context, order Order, expected OrderStatus) (Order, error)
}

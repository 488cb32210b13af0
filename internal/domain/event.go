package domain

import (
	"context"
	"time"
)

// OrderEvent é publicado (best-effort) a cada transição de status.
type OrderEvent struct {
	Type       string      `json:"type"`
	OrderID    string      `json:"order_id"`
	BranchID   string      `json:"branch_id"`
	From       OrderStatus `json:"from"`
	To         OrderStatus `json:"to"`
	ActorID    string      `json:"actor_id"`
	Note       string      `json:"note,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// Notifier entrega eventos de transição. Falhas nunca desfazem a transição.
type Notifier interface {
	Notify(ctx context.Context, event OrderEvent) error
}

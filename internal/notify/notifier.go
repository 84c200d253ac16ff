// Package notify tells the operator about new orders. Delivery is best
// effort: failures are logged and never reach the client that placed the
// order.
package notify

import (
	"context"
	"time"

	"github.com/imrishuroy/orderdesk/internal/orders"
)

// Notifier delivers one order-created notification.
type Notifier interface {
	OrderCreated(ctx context.Context, o orders.Order) error
}

// OrderCreatedEvent is the queue message the api publishes and the worker
// consumes.
type OrderCreatedEvent struct {
	OrderID       string       `json:"order_id"`
	CorrelationID string       `json:"correlation_id,omitempty"`
	Order         orders.Order `json:"order"`
	CreatedAt     time.Time    `json:"created_at"`
}

type correlationKey struct{}

// WithCorrelationID attaches the request id that produced a notification.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the id set by WithCorrelationID, or "".
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

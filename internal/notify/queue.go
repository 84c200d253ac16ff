package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/imrishuroy/orderdesk/internal/aws"
	"github.com/imrishuroy/orderdesk/internal/orders"
)

// QueueNotifier hands the notification to the worker through SQS.
type QueueNotifier struct {
	publisher *aws.Publisher
	nowFunc   func() time.Time
}

// NewQueueNotifier returns a notifier publishing through p.
func NewQueueNotifier(p *aws.Publisher) *QueueNotifier {
	return &QueueNotifier{publisher: p, nowFunc: time.Now}
}

func (q *QueueNotifier) OrderCreated(ctx context.Context, o orders.Order) error {
	ev := OrderCreatedEvent{
		OrderID:       o.ID(),
		CorrelationID: CorrelationID(ctx),
		Order:         o,
		CreatedAt:     q.nowFunc().UTC(),
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	attrs := map[string]string{
		"order_id":       ev.OrderID,
		"correlation_id": ev.CorrelationID,
	}
	if _, err := q.publisher.Publish(ctx, body, attrs); err != nil {
		return fmt.Errorf("enqueue order %s: %w", ev.OrderID, err)
	}
	return nil
}

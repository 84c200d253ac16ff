package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/imrishuroy/orderdesk/internal/notify"
)

var errMissingOrder = errors.New("event carries no order")

// Processor turns queued order-created events into operator emails.
type Processor struct {
	notifier notify.Notifier
	log      *log.Helper
}

// NewProcessor creates a worker processor delivering through n.
func NewProcessor(n notify.Notifier, logger log.Logger) *Processor {
	return &Processor{
		notifier: n,
		log:      log.NewHelper(log.With(logger, "component", "worker")),
	}
}

// Handle processes a batch and reports the messages that failed so SQS
// redelivers only those. Poison messages end up in the DLQ after the
// queue's receive limit.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			p.log.Errorw("msg", "message failed", "message_id", rec.MessageId, "err", err)
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{
				ItemIdentifier: rec.MessageId,
			})
		}
	}
	p.log.Infow("msg", "batch done", "received", len(ev.Records), "failed", len(resp.BatchItemFailures))
	return resp, nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var msg notify.OrderCreatedEvent
	if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}
	if msg.Order == nil || msg.Order.ID() == "" {
		return errMissingOrder
	}

	p.log.Infow("msg", "received", "order_id", msg.OrderID, "correlation_id", msg.CorrelationID)

	ctx = notify.WithCorrelationID(ctx, msg.CorrelationID)
	if err := p.notifier.OrderCreated(ctx, msg.Order); err != nil {
		return fmt.Errorf("notify order %s: %w", msg.OrderID, err)
	}
	return nil
}

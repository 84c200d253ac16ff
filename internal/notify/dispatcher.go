package notify

import (
	"context"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/imrishuroy/orderdesk/internal/metrics"
	"github.com/imrishuroy/orderdesk/internal/orders"
)

const defaultTimeout = 30 * time.Second

// Dispatcher runs a Notifier in the background so the request that created
// the order never waits for, or fails because of, the notification.
type Dispatcher struct {
	notifier Notifier
	metrics  metrics.Recorder
	timeout  time.Duration
	log      *log.Helper
	wg       sync.WaitGroup
}

// NewDispatcher wraps n. A nil n disables notifications.
func NewDispatcher(n Notifier, m metrics.Recorder, logger log.Logger) *Dispatcher {
	if m == nil {
		m = metrics.Nop()
	}
	return &Dispatcher{
		notifier: n,
		metrics:  m,
		timeout:  defaultTimeout,
		log:      log.NewHelper(log.With(logger, "component", "notify")),
	}
}

// Dispatch returns immediately. The notification outlives ctx's cancellation
// but keeps its values (correlation id).
func (d *Dispatcher) Dispatch(ctx context.Context, o orders.Order) {
	if d.notifier == nil {
		return
	}
	o = o.Clone()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()

		if err := d.notifier.OrderCreated(ctx, o); err != nil {
			d.metrics.Incr(ctx, metrics.NotificationFailures)
			d.log.Errorw("msg", "order notification failed", "order_id", o.ID(), "err", err)
			return
		}
		d.log.Infow("msg", "order notification sent", "order_id", o.ID())
	}()
}

// Wait blocks until in-flight notifications finish.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Package metrics counts pipeline events in CloudWatch.
package metrics

import (
	"context"
	"sync"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/imrishuroy/orderdesk/internal/aws"
)

// Metric names.
const (
	OrdersCreated        = "OrdersCreated"
	AttachmentUploads    = "AttachmentUploads"
	UploadFailures       = "UploadFailures"
	VideoOrphaned        = "VideoOrphaned"
	NotificationFailures = "NotificationFailures"
)

const publishTimeout = 5 * time.Second

// Recorder counts named events. Implementations never fail the caller.
type Recorder interface {
	Incr(ctx context.Context, name string)
}

type nop struct{}

func (nop) Incr(context.Context, string) {}

// Nop discards every event.
func Nop() Recorder { return nop{} }

// CloudWatch publishes one Count datum per event without blocking the caller.
type CloudWatch struct {
	client    aws.CloudWatchAPI
	namespace string
	service   string
	log       *log.Helper
	wg        sync.WaitGroup
}

// NewCloudWatch returns a recorder writing to namespace with a Service
// dimension set to service.
func NewCloudWatch(client aws.CloudWatchAPI, namespace, service string, logger log.Logger) *CloudWatch {
	return &CloudWatch{
		client:    client,
		namespace: namespace,
		service:   service,
		log:       log.NewHelper(log.With(logger, "component", "metrics")),
	}
}

func (c *CloudWatch) Incr(ctx context.Context, name string) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace: sdkaws.String(c.namespace),
		MetricData: []cwtypes.MetricDatum{{
			MetricName: sdkaws.String(name),
			Unit:       cwtypes.StandardUnitCount,
			Value:      sdkaws.Float64(1),
			Timestamp:  sdkaws.Time(time.Now().UTC()),
			Dimensions: []cwtypes.Dimension{{
				Name:  sdkaws.String("Service"),
				Value: sdkaws.String(c.service),
			}},
		}},
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()
		if _, err := c.client.PutMetricData(ctx, input); err != nil {
			c.log.Warnw("msg", "put metric data failed", "metric", name, "err", err)
		}
	}()
}

// Wait blocks until every pending publish has finished.
func (c *CloudWatch) Wait() {
	c.wg.Wait()
}

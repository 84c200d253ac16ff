package metrics

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"

	"github.com/imrishuroy/orderdesk/internal/logging"
)

type fakeCloudWatch struct {
	mu     sync.Mutex
	inputs []*cloudwatch.PutMetricDataInput
	err    error
}

func (f *fakeCloudWatch) PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, params)
	return &cloudwatch.PutMetricDataOutput{}, f.err
}

func TestCloudWatch_Incr(t *testing.T) {
	fake := &fakeCloudWatch{}
	r := NewCloudWatch(fake, "OrderDesk", "orderdesk", logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	r.Incr(ctx, OrdersCreated)
	cancel() // a finished request must not abort the publish
	r.Wait()

	if len(fake.inputs) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(fake.inputs))
	}
	in := fake.inputs[0]
	if *in.Namespace != "OrderDesk" {
		t.Fatalf("namespace mismatch: %s", *in.Namespace)
	}
	d := in.MetricData[0]
	if *d.MetricName != OrdersCreated || *d.Value != 1 {
		t.Fatalf("unexpected datum: %+v", d)
	}
	if *d.Dimensions[0].Value != "orderdesk" {
		t.Fatalf("service dimension missing")
	}
}

func TestCloudWatch_FailureIsSwallowed(t *testing.T) {
	fake := &fakeCloudWatch{err: errors.New("throttled")}
	r := NewCloudWatch(fake, "OrderDesk", "orderdesk", logging.Discard())
	r.Incr(context.Background(), UploadFailures)
	r.Wait()
	if len(fake.inputs) != 1 {
		t.Fatalf("expected publish attempt")
	}
}

func TestNop(t *testing.T) {
	Nop().Incr(context.Background(), OrdersCreated)
}

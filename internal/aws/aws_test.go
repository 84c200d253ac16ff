package aws

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type fakeSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: awsString("msg-1")}, nil
}

func TestLoadAWSConfig_DefaultRegion(t *testing.T) {
	cfg, err := LoadAWSConfig(context.Background(), Settings{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Region != "us-east-1" {
		t.Fatalf("expected default region 'us-east-1', got %s", cfg.Region)
	}
	if cfg.BaseEndpoint != nil {
		t.Fatalf("expected no endpoint override, got %s", *cfg.BaseEndpoint)
	}
}

func TestLoadAWSConfig_WithEndpointOverride(t *testing.T) {
	cfg, err := LoadAWSConfig(context.Background(), Settings{
		Region:           "eu-west-1",
		EndpointOverride: "http://localhost:4566",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Region != "eu-west-1" {
		t.Fatalf("region mismatch, got %s", cfg.Region)
	}
	if cfg.BaseEndpoint == nil || *cfg.BaseEndpoint != "http://localhost:4566" {
		t.Fatalf("endpoint override not applied: %v", cfg.BaseEndpoint)
	}
}

func TestPublisher_Publish(t *testing.T) {
	fake := &fakeSQS{}
	p := NewPublisher(fake, "https://sqs.local/queue")

	id, err := p.Publish(context.Background(), []byte(`{"order_id":"TM-1"}`), map[string]string{
		"order_id":       "TM-1",
		"correlation_id": "",
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if id != "msg-1" {
		t.Fatalf("unexpected message id %q", id)
	}
	in := fake.inputs[0]
	if *in.QueueUrl != "https://sqs.local/queue" || *in.MessageBody != `{"order_id":"TM-1"}` {
		t.Fatalf("unexpected input: %+v", in)
	}
	if len(in.MessageAttributes) != 1 {
		t.Fatalf("expected empty attribute to be dropped, got %d attrs", len(in.MessageAttributes))
	}
	if v := in.MessageAttributes["order_id"].StringValue; v == nil || *v != "TM-1" {
		t.Fatalf("order_id attribute missing")
	}
}

func TestPublisher_PublishError(t *testing.T) {
	boom := errors.New("boom")
	p := NewPublisher(&fakeSQS{err: boom}, "q")
	if _, err := p.Publish(context.Background(), []byte("{}"), nil); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

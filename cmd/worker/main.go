package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/imrishuroy/orderdesk/internal/aws"
	"github.com/imrishuroy/orderdesk/internal/config"
	"github.com/imrishuroy/orderdesk/internal/logging"
	"github.com/imrishuroy/orderdesk/internal/notify"
)

const defaultLocalBody = `{"order_id":"local-order-1","correlation_id":"local-1","order":{"order_id":"local-order-1","name":"Local Test","driveFileId":"No File","videoFileId":"Pending"}}`

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.NewHelper(logging.New(os.Stderr, "worker")).Fatalw("msg", "load config", "err", err)
	}
	logger := logging.New(os.Stdout, cfg.ServiceName+"-worker")
	helper := log.NewHelper(logger)

	if !cfg.MailEnabled() {
		helper.Fatalw("msg", "NOTIFY_EMAIL_FROM and NOTIFY_EMAIL_TO are required")
	}

	clients, err := aws.NewAWSClients(context.Background(), aws.Settings{
		Region:           cfg.AWSRegion,
		EndpointOverride: cfg.EndpointOverride,
	})
	if err != nil {
		helper.Fatalw("msg", "failed to init aws clients", "err", err)
	}

	p := NewProcessor(notify.NewMailNotifier(clients.SES, cfg.NotifyEmailFrom, cfg.NotifyEmailTo), logger)

	// If RUN_LOCAL=true, simulate a single SQS event for local testing.
	if cfg.RunLocal {
		body := os.Getenv("LOCAL_SQS_BODY")
		if body == "" {
			body = defaultLocalBody
		}
		event := events.SQSEvent{
			Records: []events.SQSMessage{{MessageId: "local-1", Body: body}},
		}
		resp, err := p.Handle(context.Background(), event)
		if err != nil || len(resp.BatchItemFailures) > 0 {
			helper.Fatalw("msg", "local handler error", "err", err, "failures", len(resp.BatchItemFailures))
		}
		return
	}

	lambda.Start(p.Handle)
}

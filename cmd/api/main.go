// Command api serves the order desk HTTP API. It runs as a plain HTTP server
// unless RUN_LAMBDA=true. Orders are kept in process memory, so the Lambda
// deployment must use reserved concurrency 1 to keep a single store.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/imrishuroy/orderdesk/internal/attachments"
	"github.com/imrishuroy/orderdesk/internal/aws"
	"github.com/imrishuroy/orderdesk/internal/config"
	"github.com/imrishuroy/orderdesk/internal/handlers"
	"github.com/imrishuroy/orderdesk/internal/idempotency"
	"github.com/imrishuroy/orderdesk/internal/intake"
	"github.com/imrishuroy/orderdesk/internal/logging"
	"github.com/imrishuroy/orderdesk/internal/metrics"
	"github.com/imrishuroy/orderdesk/internal/notify"
	"github.com/imrishuroy/orderdesk/internal/orders"
)

const shutdownTimeout = 15 * time.Second

// drainer is anything holding background work that must finish before exit.
type drainer interface {
	Wait()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.NewHelper(logging.New(os.Stderr, "api")).Fatalw("msg", "load config", "err", err)
	}
	logger := logging.New(os.Stdout, cfg.ServiceName)
	helper := log.NewHelper(logger)

	clients, err := aws.NewAWSClients(context.Background(), aws.Settings{
		Region:           cfg.AWSRegion,
		EndpointOverride: cfg.EndpointOverride,
	})
	if err != nil {
		helper.Fatalw("msg", "failed to init aws clients", "err", err)
	}

	var recorder metrics.Recorder = metrics.Nop()
	var drain []drainer
	if cfg.MetricsNamespace != "" {
		cw := metrics.NewCloudWatch(clients.CloudWatch, cfg.MetricsNamespace, cfg.ServiceName, logger)
		recorder = cw
		drain = append(drain, cw)
	}

	dispatcher := notify.NewDispatcher(selectNotifier(cfg, clients, helper), recorder, logger)
	// notifications go first: their failures still count in metrics
	drain = append([]drainer{dispatcher}, drain...)

	store := orders.NewMemoryStore()
	uploader := attachments.NewS3Uploader(clients.S3, cfg.AttachmentsBucket, cfg.AttachmentsFolder)
	pipeline := intake.NewPipeline(store, uploader,
		intake.WithDispatcher(dispatcher),
		intake.WithMetrics(recorder),
		intake.WithLogger(logger),
	)

	hcfg := handlers.HandlerConfig{
		Intake:         pipeline,
		Store:          store,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		Logger:         logger,
	}
	if cfg.IdempotencyTable != "" {
		hcfg.Idempotency = idempotency.NewStore(clients.DynamoDB, cfg.IdempotencyTable, cfg.IdempotencyTTL)
	} else {
		helper.Infow("msg", "idempotency disabled", "reason", "IDEMPOTENCY_TABLE not set")
	}

	gin.SetMode(gin.ReleaseMode)
	r := handlers.NewRouter(hcfg)

	if !cfg.RunLambda {
		serveHTTP(r, ":"+cfg.Port, helper, drain)
		return
	}

	// Each Lambda instance holds its own order store; deploy with reserved
	// concurrency 1 or reads will miss orders created on another instance.
	helper.Warnw("msg", "serving through lambda", "note", "orders are per instance, reserved concurrency must be 1")
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		resp, err := adapter.ProxyWithContext(ctx, req)
		// a frozen Lambda would strand queued notifications and metrics
		for _, d := range drain {
			d.Wait()
		}
		return resp, err
	})
}

// selectNotifier prefers the queue, then direct email, else nothing.
func selectNotifier(cfg config.Config, clients *aws.AWSClients, helper *log.Helper) notify.Notifier {
	switch {
	case cfg.OrdersQueueURL != "":
		helper.Infow("msg", "notifications via queue", "queue_url", cfg.OrdersQueueURL)
		return notify.NewQueueNotifier(aws.NewPublisher(clients.SQS, cfg.OrdersQueueURL))
	case cfg.MailEnabled():
		helper.Infow("msg", "notifications via email", "to", cfg.NotifyEmailTo)
		return notify.NewMailNotifier(clients.SES, cfg.NotifyEmailFrom, cfg.NotifyEmailTo)
	default:
		helper.Warnw("msg", "notifications disabled", "reason", "neither ORDERS_QUEUE_URL nor NOTIFY_EMAIL_FROM/NOTIFY_EMAIL_TO set")
		return nil
	}
}

func serveHTTP(r *gin.Engine, addr string, helper *log.Helper, drain []drainer) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		helper.Infow("msg", "http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			helper.Fatalw("msg", "http server failed", "err", err)
		}
	case <-ctx.Done():
		helper.Infow("msg", "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			helper.Errorw("msg", "shutdown", "err", err)
		}
	}

	for _, d := range drain {
		d.Wait()
	}
}

// Package intake runs the order submission and video reconciliation steps:
// upload attachments first, then write the order store.
package intake

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/imrishuroy/orderdesk/internal/attachments"
	"github.com/imrishuroy/orderdesk/internal/metrics"
	"github.com/imrishuroy/orderdesk/internal/orders"
)

var (
	// ErrMalformedInput means the order fields are not a JSON object with a
	// string order_id.
	ErrMalformedInput = errors.New("malformed order data")
	// ErrNoVideo means the video step was called without a payload.
	ErrNoVideo = errors.New("no video received")
)

const defaultVideoMIME = "video/mp4"

// Dispatcher receives every stored order for out-of-band notification.
// It must not block.
type Dispatcher interface {
	Dispatch(ctx context.Context, o orders.Order)
}

// Pipeline wires the uploader, the store and the side channels together.
type Pipeline struct {
	store      orders.Store
	uploader   attachments.Uploader
	dispatcher Dispatcher
	metrics    metrics.Recorder
	log        *log.Helper
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithDispatcher sets the order-created notification channel.
func WithDispatcher(d Dispatcher) Option {
	return func(p *Pipeline) { p.dispatcher = d }
}

// WithMetrics sets the event counter.
func WithMetrics(m metrics.Recorder) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(p *Pipeline) { p.log = log.NewHelper(log.With(l, "component", "intake")) }
}

// NewPipeline builds a Pipeline around store and uploader.
func NewPipeline(store orders.Store, uploader attachments.Uploader, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:    store,
		uploader: uploader,
		metrics:  metrics.Nop(),
		log:      log.NewHelper(log.With(log.NewStdLogger(io.Discard), "component", "intake")),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Submit parses rawFields, uploads the identity proof when one is given and
// stores the composed order. If the upload fails nothing is stored.
func (p *Pipeline) Submit(ctx context.Context, rawFields []byte, idProof *attachments.File) (orders.Order, error) {
	order, err := parseFields(rawFields)
	if err != nil {
		return nil, err
	}
	orderID := order.ID()

	driveFileID := orders.NoFile
	if idProof != nil {
		name := attachments.TargetName(orderID, attachments.PurposeIDProof, idProof.Ext())
		driveFileID, err = p.upload(ctx, idProof.Content, idProof.MIMEType, name)
		if err != nil {
			p.log.Errorw("msg", "identity proof upload failed", "order_id", orderID, "code", attachments.ProviderCode(err), "err", err)
			return nil, err
		}
	}

	order[orders.FieldDriveFileID] = driveFileID
	order[orders.FieldVideoFileID] = orders.Pending

	if err := p.store.Insert(ctx, order); err != nil {
		return nil, fmt.Errorf("insert order %s: %w", orderID, err)
	}
	p.metrics.Incr(ctx, metrics.OrdersCreated)
	p.log.Infow("msg", "new order received", "order_id", orderID, "drive_file_id", driveFileID)

	if p.dispatcher != nil {
		p.dispatcher.Dispatch(ctx, order)
	}
	return order, nil
}

// AttachVideo uploads video for orderID and records the remote id on the
// order. The id is returned even when no such order exists; the object then
// stays in the bucket with nothing pointing at it.
func (p *Pipeline) AttachVideo(ctx context.Context, orderID string, video *attachments.File) (string, error) {
	if video == nil || len(video.Content) == 0 {
		return "", ErrNoVideo
	}

	mimeType := video.MIMEType
	if mimeType == "" {
		mimeType = defaultVideoMIME
	}
	name := attachments.TargetName(orderID, attachments.PurposeVideo, attachments.VideoExt)

	fileID, err := p.upload(ctx, video.Content, mimeType, name)
	if err != nil {
		p.log.Errorw("msg", "video upload failed", "order_id", orderID, "code", attachments.ProviderCode(err), "err", err)
		return "", err
	}

	_, err = p.store.UpdateField(ctx, orderID, orders.FieldVideoFileID, fileID)
	switch {
	case errors.Is(err, orders.ErrNotFound):
		p.metrics.Incr(ctx, metrics.VideoOrphaned)
		p.log.Warnw("msg", "video uploaded for unknown order", "order_id", orderID, "file_id", fileID)
	case err != nil:
		return "", fmt.Errorf("record video for order %s: %w", orderID, err)
	default:
		p.log.Infow("msg", "video linked", "order_id", orderID, "file_id", fileID)
	}
	return fileID, nil
}

func (p *Pipeline) upload(ctx context.Context, content []byte, mimeType, name string) (string, error) {
	id, err := p.uploader.Upload(ctx, content, mimeType, name)
	if err != nil {
		p.metrics.Incr(ctx, metrics.UploadFailures)
		if !errors.Is(err, attachments.ErrUploadFailed) {
			err = fmt.Errorf("%w: %w", attachments.ErrUploadFailed, err)
		}
		return "", err
	}
	p.metrics.Incr(ctx, metrics.AttachmentUploads)
	return id, nil
}

// parseFields decodes a JSON object keeping numbers as written.
func parseFields(raw []byte) (orders.Order, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedInput, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after object", ErrMalformedInput)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrMalformedInput)
	}

	order := orders.Order(fields)
	if order.ID() == "" {
		return nil, fmt.Errorf("%w: order_id must be a non-empty string", ErrMalformedInput)
	}
	return order, nil
}

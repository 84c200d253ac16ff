package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-kratos/kratos/v2/log"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/orderdesk/internal/attachments"
	"github.com/imrishuroy/orderdesk/internal/idempotency"
	"github.com/imrishuroy/orderdesk/internal/orders"
	"github.com/imrishuroy/orderdesk/internal/validation"
)

// Multipart field names used by the front-end.
const (
	formOrderData = "orderData"
	formIDProof   = "idProof"
	formVideo     = "video"
)

// Intake is the submission side of the order pipeline.
type Intake interface {
	Submit(ctx context.Context, rawFields []byte, idProof *attachments.File) (orders.Order, error)
	AttachVideo(ctx context.Context, orderID string, video *attachments.File) (string, error)
}

// IdempotencyStore remembers order submissions by Idempotency-Key.
type IdempotencyStore interface {
	Claim(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, key string) (*idempotency.Record, error)
	MarkDone(ctx context.Context, key, orderID, responseBody string, responseStatus int) error
	MarkFailed(ctx context.Context, key, note string) error
}

// HandlerConfig groups dependencies for the orders handler.
type HandlerConfig struct {
	Intake         Intake
	Store          orders.Store
	Idempotency    IdempotencyStore // optional
	MaxUploadBytes int64
	Logger         log.Logger
}

type ordersHandler struct {
	intake Intake
	store  orders.Store
	idemp  IdempotencyStore
	v      *validatorv10.Validate
	log    *log.Helper
}

// RegisterOrdersRoutes registers routes for order API.
func RegisterOrdersRoutes(r *gin.Engine, cfg HandlerConfig) {
	h := &ordersHandler{
		intake: cfg.Intake,
		store:  cfg.Store,
		idemp:  cfg.Idempotency,
		v:      validation.New(),
		log:    log.NewHelper(log.With(cfg.logger(), "component", "orders")),
	}

	api := r.Group("/api/orders")
	api.GET("", h.list)
	api.GET("/:id", h.get)
	api.POST("", h.create)
	api.POST("/video", h.attachVideo)
	api.PATCH("/:id", h.updateStatus)
	api.DELETE("/:id", h.delete)
}

func (h *ordersHandler) list(c *gin.Context) {
	all, err := h.store.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, all)
}

func (h *ordersHandler) get(c *gin.Context) {
	order, err := h.store.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *ordersHandler) create(c *gin.Context) {
	ctx := c.Request.Context()

	idempKey := c.GetHeader(HeaderIdempotencyKey)
	if idempKey == "" || h.idemp == nil {
		code, body, _ := h.submit(c)
		c.JSON(code, body)
		return
	}

	claimed, err := h.idemp.Claim(ctx, idempKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Idempotency check failed", "error": err.Error()})
		return
	}
	if !claimed {
		h.replay(c, idempKey)
		return
	}

	code, body, orderID := h.submit(c)
	payload, err := json.Marshal(body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal error", "error": err.Error()})
		return
	}

	if code == http.StatusCreated {
		if err := h.idemp.MarkDone(ctx, idempKey, orderID, string(payload), code); err != nil {
			// left IN_PROGRESS the key would answer 202 until it expires;
			// FAILED lets a retry through at the cost of a possible duplicate
			h.log.Warnw("msg", "mark idempotency done failed", "key", idempKey, "order_id", orderID, "err", err)
			note := fmt.Sprintf("order %s saved but response not recorded: %v", orderID, err)
			if err := h.idemp.MarkFailed(ctx, idempKey, note); err != nil {
				h.log.Errorw("msg", "idempotency key stuck in progress", "key", idempKey, "err", err)
			}
		}
	} else {
		note := fmt.Sprintf("status %d: %v", code, body["error"])
		if err := h.idemp.MarkFailed(ctx, idempKey, note); err != nil {
			h.log.Warnw("msg", "mark idempotency failed failed", "key", idempKey, "err", err)
		}
	}
	c.Data(code, "application/json; charset=utf-8", payload)
}

// submit runs the intake pipeline and returns the response to send. It does
// not write to c so that create can record the answer first.
func (h *ordersHandler) submit(c *gin.Context) (int, gin.H, string) {
	raw, err := orderFields(c)
	if err != nil {
		code, body := errorResponse(err)
		return code, body, ""
	}

	idProof, err := formFile(c, formIDProof)
	if isTooLarge(err) {
		code, body := errorResponse(err)
		return code, body, ""
	}
	if err != nil {
		return http.StatusBadRequest, gin.H{"message": "Invalid identity proof upload", "error": err.Error()}, ""
	}

	order, err := h.intake.Submit(c.Request.Context(), raw, idProof)
	if err != nil {
		code, body := errorResponse(err)
		return code, body, ""
	}
	return http.StatusCreated, gin.H{"message": "Order Saved", "order": order}, order.ID()
}

// replay answers a retried submission from its idempotency record.
func (h *ordersHandler) replay(c *gin.Context, key string) {
	rec, err := h.idemp.Get(c.Request.Context(), key)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Idempotency check failed", "error": err.Error()})
		return
	}
	if rec == nil {
		// the record expired between Claim and Get
		c.JSON(http.StatusConflict, gin.H{"message": "Idempotency record missing, retry the request"})
		return
	}

	switch rec.Status {
	case idempotency.StatusDone:
		if rec.ResponseBody != "" {
			c.Data(rec.ResponseStatus, "application/json; charset=utf-8", []byte(rec.ResponseBody))
			return
		}
		c.JSON(http.StatusOK, gin.H{"order_id": rec.OrderID})
	case idempotency.StatusInProgress:
		c.JSON(http.StatusAccepted, gin.H{"message": "request already in progress"})
	case idempotency.StatusFailed:
		c.JSON(http.StatusConflict, gin.H{"message": "previous attempt failed, retry the request", "error": rec.Note})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "unknown idempotency status"})
	}
}

func (h *ordersHandler) attachVideo(c *gin.Context) {
	video, err := formFile(c, formVideo)
	if isTooLarge(err) {
		writeError(c, err)
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid video upload", "error": err.Error()})
		return
	}
	if video == nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "No video received"})
		return
	}

	var form validation.VideoForm
	if err := c.ShouldBind(&form); err != nil || strings.TrimSpace(form.OrderID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "orderId is required"})
		return
	}

	fileID, err := h.intake.AttachVideo(c.Request.Context(), form.OrderID, video)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Video Uploaded", "fileId": fileID})
}

func (h *ordersHandler) updateStatus(c *gin.Context) {
	var req validation.StatusUpdateRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		// BindAndValidate already wrote a 400
		return
	}

	order, err := h.store.UpdateField(c.Request.Context(), c.Param("id"), orders.FieldStatus, req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	h.log.Infow("msg", "status updated", "order_id", order.ID(), "status", req.Status)
	c.JSON(http.StatusOK, gin.H{"message": "Status Updated", "order": order})
}

func (h *ordersHandler) delete(c *gin.Context) {
	id := c.Param("id")
	n, err := h.store.Delete(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	h.log.Infow("msg", "order deleted", "order_id", id, "removed", n)
	c.JSON(http.StatusOK, gin.H{"message": "Order Deleted"})
}

// orderFields returns the raw order JSON: the orderData form field of a
// multipart submission, or the whole body of an application/json one.
func orderFields(c *gin.Context) ([]byte, error) {
	if c.ContentType() == gin.MIMEJSON {
		raw, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		return raw, nil
	}
	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		// an oversized body only shows up as a parse error
		if _, err := c.MultipartForm(); isTooLarge(err) {
			return nil, err
		}
	}
	return []byte(c.PostForm(formOrderData)), nil
}

// formFile reads an optional multipart file fully into memory. A missing
// file, or a request that is not multipart at all, yields (nil, nil).
func formFile(c *gin.Context, field string) (*attachments.File, error) {
	if c.ContentType() != gin.MIMEMultipartPOSTForm {
		return nil, nil
	}
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return readFile(fh)
}

func readFile(fh *multipart.FileHeader) (*attachments.File, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	return &attachments.File{
		Name:     fh.Filename,
		MIMEType: fh.Header.Get("Content-Type"),
		Content:  content,
	}, nil
}

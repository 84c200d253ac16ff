package validation

// StatusUpdateRequest is the payload for PATCH /api/orders/:id
type StatusUpdateRequest struct {
	Status string `json:"status" validate:"required,max=64"` // free-form admin status, e.g. "Dispatched"
}

// VideoForm carries the non-file part of POST /api/orders/video.
type VideoForm struct {
	OrderID string `form:"orderId"`
}

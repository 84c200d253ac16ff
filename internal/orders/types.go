package orders

import "maps"

// Field names the service itself reads or writes. Everything else on an
// order is caller-supplied and passed through untouched.
const (
	FieldOrderID     = "order_id"
	FieldStatus      = "status"
	FieldDriveFileID = "driveFileId"
	FieldVideoFileID = "videoFileId"
)

// Sentinel attachment references.
const (
	NoFile  = "No File"
	Pending = "Pending"
)

// Order is one client submission: arbitrary business fields keyed by name,
// plus order_id and the two attachment references.
type Order map[string]any

// ID returns the order_id field, or "" when it is missing or not a string.
func (o Order) ID() string {
	id, _ := o[FieldOrderID].(string)
	return id
}

// Clone returns a shallow copy. Nested values are shared, but the service
// never mutates nested values in place.
func (o Order) Clone() Order {
	if o == nil {
		return nil
	}
	return maps.Clone(o)
}

package validation

import (
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator with custom struct-level validation registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// "required" accepts whitespace; a status of "   " is as empty as "".
	v.RegisterStructValidation(statusUpdateStructValidation, StatusUpdateRequest{})

	return v
}

func statusUpdateStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(StatusUpdateRequest)
	if req.Status != "" && strings.TrimSpace(req.Status) == "" {
		sl.ReportError(req.Status, "status", "Status", "not_blank", "")
	}
}

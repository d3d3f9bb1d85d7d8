package controllers

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/kendall-kelly/tailorly-api/models"
)

var registerOnce sync.Once

// RegisterValidators adds the enum tags used in request bindings:
// order_status, payment_type, payment_status, dispute_status, tracking_status.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("order_status", func(fl validator.FieldLevel) bool {
			return models.OrderStatus(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("payment_type", func(fl validator.FieldLevel) bool {
			return models.PaymentType(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("payment_status", func(fl validator.FieldLevel) bool {
			return models.PaymentStatus(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("dispute_status", func(fl validator.FieldLevel) bool {
			return models.DisputeStatus(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("tracking_status", func(fl validator.FieldLevel) bool {
			return models.TrackingStatus(fl.Field().String()).Valid()
		})
	})
}

func init() {
	RegisterValidators()
}

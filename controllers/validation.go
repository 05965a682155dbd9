package controllers

import (
	"reflect"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/yeremiapane/cafe-pos/models"
)

var registerOnce sync.Once

// RegisterValidators adds the domain tags to gin's validator. Safe to call
// more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		// decimal.Decimal is validated as a number so tags like gte=0 work.
		v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				f, _ := d.Float64()
				return f
			}
			return nil
		}, decimal.Decimal{})

		_ = v.RegisterValidation("order_status", func(fl validator.FieldLevel) bool {
			return models.OrderStatus(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("movement_type", func(fl validator.FieldLevel) bool {
			return models.MovementType(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("table_status", func(fl validator.FieldLevel) bool {
			return models.TableStatus(fl.Field().String()).Valid()
		})
	})
}

package handlers

import (
	"reflect"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/SscSPs/fx_quote_engine/internal/core/domain"
)

var registerValidatorsOnce sync.Once

// RegisterValidators adds the binding tags used by the request DTOs to gin's validator.
// Safe to call more than once.
func RegisterValidators() {
	registerValidatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		// decimal.Decimal is validated through its string form.
		v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
		_ = v.RegisterValidation("currencypair", validateCurrencyPair)
		_ = v.RegisterValidation("positivedecimal", validatePositiveDecimal)
		_ = v.RegisterValidation("orderstatus", validateOrderStatus)
	})
}

func decimalValue(field reflect.Value) any {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.String()
	}
	return nil
}

func validateCurrencyPair(fl validator.FieldLevel) bool {
	_, err := domain.ParseCurrencyPair(fl.Field().String())
	return err == nil
}

func validatePositiveDecimal(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	return err == nil && d.IsPositive()
}

func validateOrderStatus(fl validator.FieldLevel) bool {
	return domain.OrderStatus(fl.Field().String()).IsValid()
}

// Package validation configures the request validator shared by services and handlers.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/rentledger/payment-engine/internal/domain"
	"github.com/rentledger/payment-engine/internal/recurrence"
)

// New returns a validator that understands decimals and the domain enums.
//
// Registered tags:
//   - decimal_gt_zero: a decimal.Decimal strictly greater than zero
//   - frequency: a recurrence.Frequency
//   - entity_kind: a domain.EntityKind
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Decimals are validated through their string form.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	mustRegister(v, "decimal_gt_zero", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && d.IsPositive()
	})
	mustRegister(v, "frequency", func(fl validator.FieldLevel) bool {
		return recurrence.Frequency(fl.Field().String()).Valid()
	})
	mustRegister(v, "entity_kind", func(fl validator.FieldLevel) bool {
		return domain.EntityKind(fl.Field().String()).Valid()
	})

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %s: %v", tag, err))
	}
}

// Describe turns validator output into one caller-facing sentence.
func Describe(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, describeField(fe))
	}
	return strings.Join(parts, "; ")
}

func describeField(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "decimal_gt_zero":
		return field + " must be greater than zero"
	case "frequency":
		return fmt.Sprintf("%s must be one of %v", field, recurrence.Frequencies)
	case "entity_kind":
		return field + " is not a known entity kind"
	case "email":
		return field + " must be a valid email address"
	case "len":
		return fmt.Sprintf("%s must be %s characters long", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

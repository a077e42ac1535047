// Package validation checks request DTOs with validator/v10 and turns the
// first failure into a user-facing validation error.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"sunduqi-backend/internal/apperr"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// DateLayout is the business date format used everywhere in the API.
const DateLayout = "2006-01-02"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})
	// amounts are compared numerically
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// Struct validates s and returns an apperr validation error for the first failing field.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return apperr.Invalid(message(verrs[0]))
	}
	return apperr.Invalid("بيانات الطلب غير صالحة")
}

func message(e validator.FieldError) string {
	field := e.Field()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("الحقل %s مطلوب", field)
	case "gt":
		return fmt.Sprintf("يجب أن تكون قيمة %s أكبر من %s", field, e.Param())
	case "gte":
		return fmt.Sprintf("يجب أن تكون قيمة %s أكبر من أو تساوي %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("قيمة %s يجب أن تكون إحدى: %s", field, strings.ReplaceAll(e.Param(), " ", "|"))
	case "datetime":
		return fmt.Sprintf("صيغة %s غير صحيحة، يجب أن تكون YYYY-MM-DD", field)
	case "min":
		return fmt.Sprintf("الحقل %s قصير جداً (الحد الأدنى %s)", field, e.Param())
	case "max":
		return fmt.Sprintf("الحقل %s طويل جداً (الحد الأقصى %s)", field, e.Param())
	default:
		return fmt.Sprintf("قيمة %s غير صالحة", field)
	}
}

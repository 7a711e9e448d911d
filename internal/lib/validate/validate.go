package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	internalErrors "github.com/tumbleweedd/two_services_system/registration_service/internal/lib/errors"
)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())

	// report json names so errors point at the field the client sent
	val.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return val
}

// Struct validates s and returns the first failing field as *errors.ValidationError.
func Struct(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &internalErrors.ValidationError{Field: fieldName(fe), Reason: reason(fe)}
	}

	return fmt.Errorf("%w: %v", internalErrors.ErrValidation, err)
}

func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "len":
		return fmt.Sprintf("must be exactly %s characters long", fe.Param())
	case "number":
		return "must contain digits only"
	case "email":
		return "must be a valid email address"
	case "max":
		return fmt.Sprintf("must be at most %s long", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s long", fe.Param())
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}

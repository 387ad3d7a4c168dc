package services

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/iilkane/Legerity/common/errors"
)

var phonePattern = regexp.MustCompile(`^(\+[0-9]{1,3})?[0-9]{9,15}$`)

const phoneFormatMessage = "Phone number must be entered in the format: '+999999999'. Up to 15 digits allowed."

// NewValidator returns a validator that reports fields by their JSON names and
// understands the "phone" tag.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return v
}

// validationError converts the first failed rule into an invalid_input error.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperrors.InvalidInput("", err.Error())
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return apperrors.InvalidInput(fe.Field(), "This field is required")
	case "phone":
		return apperrors.InvalidInput(fe.Field(), phoneFormatMessage)
	default:
		return apperrors.InvalidInput(fe.Field(), "Invalid value")
	}
}

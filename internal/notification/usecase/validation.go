package usecase

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"runup-backend/internal/notification/domain"

	"github.com/go-playground/validator/v10"
)

// newValidator returns a validator that reports fields by their JSON names
// and understands the "clock" (HH:MM) tag.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		return domain.ValidClock(fl.Field().String())
	})
	return v
}

// validateStruct runs v on s and converts failures into a *domain.ValidationError
func validateStruct(v *validator.Validate, s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &domain.ValidationError{Details: []string{err.Error()}}
	}

	details := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, fieldMessage(fe))
	}
	return &domain.ValidationError{Details: details}
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Namespace()
	// drop the root struct name: "UpdateSettingsRequest.dailyReminder.time"
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	field = fmt.Sprintf("%q", field)

	kind := fe.Kind()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "clock":
		return field + " must be a time in HH:MM format"
	case "unique":
		return field + " must not contain duplicate values"
	case "min":
		if kind == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s items", field, fe.Param())
		}
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "max":
		switch kind {
		case reflect.Slice:
			return fmt.Sprintf("%s must contain less than or equal to %s items", field, fe.Param())
		case reflect.String:
			return fmt.Sprintf("%s length must be less than or equal to %s characters long", field, fe.Param())
		}
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	}
	return fmt.Sprintf("%s failed on the %q rule", field, fe.Tag())
}

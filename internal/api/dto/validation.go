package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/deskworks/service-desk/pkg/util/errorutil"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Report fields by their JSON names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Validate checks a request payload and returns a VALIDATION_FAILED error
// listing every offending field.
func Validate(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	fields := make(map[string]any, len(validationErrors))
	for _, fe := range validationErrors {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return apperrors.NewValidationError("validation failed", map[string]any{"fields": fields})
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters long", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must contain at most %s items", fe.Field(), fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must match %s", fe.Field(), fe.Param())
	case "required_with":
		return fmt.Sprintf("%s is required when %s is set", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

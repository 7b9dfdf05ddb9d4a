package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/thismakesmehappy/NewApiTest-sub000/pkg/errors"
)

var validate = validator.New()

// ValidateStruct validates a request body against its validate tags. Failures
// come back as a VALIDATION AppError with one detail entry per field.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return pkgerrors.NewValidationError(err.Error())
	}

	messages := make([]string, 0, len(fieldErrors))
	details := make(map[string]interface{}, len(fieldErrors))
	for _, e := range fieldErrors {
		msg := formatFieldError(e)
		messages = append(messages, msg)
		details[fieldName(e)] = msg
	}
	return pkgerrors.NewValidationError(strings.Join(messages, "; ")).WithDetails(details)
}

func fieldName(e validator.FieldError) string {
	name := e.Field()
	if name == "" {
		return name
	}
	return strings.ToLower(name[:1]) + name[1:]
}

// formatFieldError formats a single field validation error
func formatFieldError(e validator.FieldError) string {
	field := fieldName(e)

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "uuid", "uuid4":
		return fmt.Sprintf("%s must be a valid UUID", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

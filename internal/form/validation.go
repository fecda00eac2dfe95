package form

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var panPattern = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)

var (
	validatorOnce sync.Once
	validatorInst *validator.Validate
)

// getValidator returns the shared validator. Field errors are reported under the json
// name so they line up with the form field names.
func getValidator() *validator.Validate {
	validatorOnce.Do(func() {
		validatorInst = validator.New()
		validatorInst.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = validatorInst.RegisterValidation("pan", func(fl validator.FieldLevel) bool {
			return panPattern.MatchString(fl.Field().String())
		})
		_ = validatorInst.RegisterValidation("past_date", func(fl validator.FieldLevel) bool {
			d, err := time.Parse("2006-01-02", fl.Field().String())
			return err == nil && d.Before(time.Now())
		})
	})
	return validatorInst
}

// validateStruct maps validator failures to one message per field.
func validateStruct(model interface{}) map[string]string {
	out := make(map[string]string)
	err := getValidator().Struct(model)
	if err == nil {
		return out
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		out["_form"] = err.Error()
		return out
	}
	for _, fe := range validationErrors {
		if _, seen := out[fe.Field()]; !seen {
			out[fe.Field()] = formatValidationMessage(fe)
		}
	}
	return out
}

func formatValidationMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "field is required"
	case "max":
		return fmt.Sprintf("must not exceed %s characters", err.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s digits", err.Param())
	case "numeric":
		return "must be a number"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", err.Param())
	case "nefield":
		return "must differ from the primary value"
	case "pan":
		return "must be a valid PAN (e.g. ABCDE1234F)"
	case "past_date":
		return "must be a past date (YYYY-MM-DD)"
	default:
		return err.Error()
	}
}

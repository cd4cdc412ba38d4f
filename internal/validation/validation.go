package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"greenlens/internal/carbon"
)

var (
	validate       = newValidator()
	barcodePattern = regexp.MustCompile(`^[0-9]{8,14}$`)
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("barcode", func(fl validator.FieldLevel) bool {
		return IsBarcode(fl.Field().String())
	})
	_ = v.RegisterValidation("ecograde", func(fl validator.FieldLevel) bool {
		_, ok := carbon.ParseGrade(fl.Field().String())
		return ok
	})
	return v
}

// IsBarcode reports whether s is an EAN/UPC style barcode of 8 to 14 digits.
func IsBarcode(s string) bool {
	return barcodePattern.MatchString(s)
}

// ValidateStruct validates a struct using go-playground/validator
func ValidateStruct(s interface{}) error {
	if s == nil {
		return nil
	}

	// Check if it's a pointer to a struct
	val := reflect.ValueOf(s)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		return fmt.Errorf("validator: expected a struct, got %T", s)
	}

	err := validate.Struct(s)
	if err != nil {
		// Convert validation errors to a more user-friendly format
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			errMsgs := make([]string, 0, len(ve))
			for _, e := range ve {
				errMsgs = append(errMsgs, fmt.Sprintf("field '%s' failed validation: %s", e.Field(), e.Tag()))
			}
			return errors.New(strings.Join(errMsgs, "; "))
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	return nil
}

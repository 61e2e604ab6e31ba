package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidators registers custom validation functions
func RegisterCustomValidators(v *validator.Validate) error {
	return v.RegisterValidation("sheet_name", validateSheetName)
}

// validateSheetName rejects names that would break A1 range notation.
func validateSheetName(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if strings.TrimSpace(name) == "" {
		return false
	}
	return !strings.ContainsAny(name, "!'[]*?:/\\")
}

package config

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	ferrors "git.home.luguber.info/inful/typedstrings/internal/foundation/errors"
	"git.home.luguber.info/inful/typedstrings/internal/naming"
)

var validate = newValidator()

func newValidator() func(*Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	return func(cfg *Config) error {
		if err := v.Struct(cfg); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryValidation, describe(err)).Fatal().Build()
		}
		return validateCustomUnits(cfg.Custom)
	}
}

// describe turns validator errors into a single readable line.
func describe(err error) string {
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return "configuration validation failed"
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, fmt.Sprintf("%s fails %q", fe.Namespace(), fe.Tag()))
	}
	return "invalid configuration: " + strings.Join(parts, ", ")
}

func validateCustomUnits(units []CustomUnit) error {
	types := make(map[string]string, len(units))
	for _, u := range units {
		if u.Type != "" && naming.ToIdentifier(u.Type, "") != u.Type {
			return ferrors.ValidationError(fmt.Sprintf("custom unit %q: type %q is not a valid identifier", u.Label, u.Type)).Build()
		}
		key := strings.ToLower(u.Label)
		if other, exists := types[key]; exists {
			return ferrors.ValidationError(fmt.Sprintf("custom unit label %q declared twice (%s)", u.Label, other)).Build()
		}
		types[key] = u.Label
	}
	return nil
}

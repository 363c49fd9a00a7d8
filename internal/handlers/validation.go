package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fullservice-mx/api/internal/platform/config"
)

// RequestValidator validates inbound payloads against struct tags plus the
// shop's configurable rules.
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator builds a validator honouring the configured VIN length.
func NewRequestValidator(cfg config.ValidationConfig) (*RequestValidator, error) {
	vinLength := cfg.VINLength
	if vinLength <= 0 {
		vinLength = 17
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	err := validate.RegisterValidation("vinlen", func(fl validator.FieldLevel) bool {
		return len(strings.TrimSpace(fl.Field().String())) == vinLength
	})
	if err != nil {
		return nil, fmt.Errorf("request validator: %w", err)
	}
	return &RequestValidator{validate: validate}, nil
}

// Struct validates the payload and flattens validator output into a single
// client-facing message.
func (v *RequestValidator) Struct(payload any) error {
	if v == nil || v.validate == nil {
		return nil
	}
	err := v.validate.Struct(payload)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid fields: %s", strings.Join(fields, ", "))
}

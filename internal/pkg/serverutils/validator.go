package serverutils

import (
	"fmt"
	"strings"

	"tempnote-be/internal/entity"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// ValidateRequest checks struct tags and reports the first failing field.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		fe := errs[0]
		switch fe.Tag() {
		case "notblank", "required":
			return fmt.Errorf("%w: %s cannot be empty", entity.ErrValidation, strings.ToLower(fe.Field()))
		case "email":
			return fmt.Errorf("%w: %s must be a valid email", entity.ErrValidation, strings.ToLower(fe.Field()))
		case "min":
			return fmt.Errorf("%w: %s must be at least %s characters", entity.ErrValidation, strings.ToLower(fe.Field()), fe.Param())
		default:
			return fmt.Errorf("%w: %s failed %s", entity.ErrValidation, strings.ToLower(fe.Field()), fe.Tag())
		}
	}
	return fmt.Errorf("%w: %v", entity.ErrValidation, err)
}

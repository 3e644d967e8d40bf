package validation

import (
	"strings"

	"maintenance-desk/pkg/constants"

	"github.com/go-playground/validator/v10"
)

func registerRules(v *validator.Validate) error {
	if err := v.RegisterValidation("request_status", isRequestStatus); err != nil {
		return err
	}
	if err := v.RegisterValidation("user_role", isUserRole); err != nil {
		return err
	}
	if err := v.RegisterValidation("not_blank", isNotBlank); err != nil {
		return err
	}
	return nil
}

// isRequestStatus - значение из закрытого набора статусов
func isRequestStatus(fl validator.FieldLevel) bool {
	_, ok := constants.ParseStatus(fl.Field().String())
	return ok
}

func isUserRole(fl validator.FieldLevel) bool {
	return constants.Role(fl.Field().String()).Valid()
}

func isNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

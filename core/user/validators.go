package user

import (
	"fmt"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/elearn/core"
)

var (
	userRoleTag  = "userrole"
	userRoleText = "invalid role"

	eqFieldTag  = "eqfield"
	eqFieldText = "Passwords do not match."

	// password policy
	PasswordMinLen = 6
	pwdMinLenTag   = "pwdminlen"
	pwdMinLenText  = fmt.Sprintf("Password must be at least %d characters long.", PasswordMinLen)

	// bcrypt only hashes the first 72 bytes and rejects longer input
	PasswordMaxBytes = 72
	pwdMaxLenTag     = "pwdmaxlen"
	pwdMaxLenText    = fmt.Sprintf("Password must be at most %d bytes long.", PasswordMaxBytes)
)

// InitValidators registers the user validators and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(userRoleTag, userRoleValidation)
	core.RegisterCustomTranslation(validate, translator, userRoleTag, userRoleText)

	_ = validate.RegisterValidation(pwdMinLenTag, pwdMinLenValidation)
	core.RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)

	_ = validate.RegisterValidation(pwdMaxLenTag, pwdMaxLenValidation)
	core.RegisterCustomTranslation(validate, translator, pwdMaxLenTag, pwdMaxLenText)

	// eqfield is only used for password confirmations
	core.RegisterCustomTranslation(validate, translator, eqFieldTag, eqFieldText, true)
}

// Custom Validators

// userRoleValidation checks that the provided role is one of AllRoles
func userRoleValidation(fl validator.FieldLevel) bool {
	role := fl.Field().String()
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

func pwdMinLenValidation(fl validator.FieldLevel) bool {
	return len([]rune(fl.Field().String())) >= PasswordMinLen
}

func pwdMaxLenValidation(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= PasswordMaxBytes
}

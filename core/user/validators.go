package user

import (
	"fmt"
	"regexp"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/kazi/core"
)

var (
	usernameTag   = "username"
	usernameText  = "only letters, digits, dots, dashes and underscores are allowed"
	usernameRegex = regexp.MustCompile(`^[\w.-]+$`)

	userRoleTag  = "userrole"
	userRoleText = "invalid role"

	creatableRoleTag  = "creatablerole"
	creatableRoleText = fmt.Sprintf("role must be one of %s", joinRoles(CreatableRoles))

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to the username"
)

// InitValidators registers the user validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(usernameTag, usernameValidation)
	core.RegisterCustomTranslation(validate, translator, usernameTag, usernameText)

	_ = validate.RegisterValidation(userRoleTag, userRoleValidation)
	core.RegisterCustomTranslation(validate, translator, userRoleTag, userRoleText)

	_ = validate.RegisterValidation(creatableRoleTag, creatableRoleValidation)
	core.RegisterCustomTranslation(validate, translator, creatableRoleTag, creatableRoleText)

	validate.RegisterStructValidation(newUserStructValidation, NewUser{})
	core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)
}

func joinRoles(roles []Role) string {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, string(r))
	}
	return strings.Join(names, ", ")
}

// Custom Validators

func usernameValidation(fl validator.FieldLevel) bool {
	return usernameRegex.MatchString(fl.Field().String())
}

func roleFromField(fl validator.FieldLevel) (Role, bool) {
	switch v := fl.Field().Interface().(type) {
	case Role:
		return v, true
	case string:
		return Role(v), true
	}
	return "", false
}

func userRoleValidation(fl validator.FieldLevel) bool {
	role, ok := roleFromField(fl)
	return ok && role.IsValid()
}

func creatableRoleValidation(fl validator.FieldLevel) bool {
	role, ok := roleFromField(fl)
	return ok && role.IsCreatable()
}

// newUserStructValidation does NewUser's struct level validation
func newUserStructValidation(sl validator.StructLevel) {
	if nu, ok := sl.Current().Interface().(NewUser); ok {
		if nu.Password != "" && passwordTooSimilar(nu.Password, nu.Username) {
			sl.ReportError(nu.Password, "password", "Password", pwdAttrSimTag, "")
		}
	}
}

func passwordTooSimilar(pwd, uname string) bool {
	if uname == "" {
		return false
	}
	pwd, uname = strings.ToLower(pwd), strings.ToLower(uname)
	if pwd == uname {
		return true
	}
	m := difflib.NewMatcher(strings.Split(pwd, ""), strings.Split(uname, ""))
	return m.QuickRatio() >= pwdMaxSim && m.Ratio() >= pwdMaxSim
}

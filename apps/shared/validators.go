// Package shared holds the wiring common to the api & admin apps.
package shared

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/kazi/core"
	"github.com/trezcool/kazi/core/project"
	"github.com/trezcool/kazi/core/user"
)

// NewValidator returns a validator with the english translations & every custom validator registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	project.InitValidators(validate, translator)
	return validate, translator
}

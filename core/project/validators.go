package project

import (
	"fmt"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/kazi/core"
)

var (
	statusTag  = "projectstatus"
	statusText = fmt.Sprintf("status must be one of %s", joinStatuses(Statuses))

	pdfFileTag  = "pdffile"
	pdfFileText = "only PDF files are allowed"
)

// InitValidators registers the project validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(statusTag, statusValidation)
	core.RegisterCustomTranslation(validate, translator, statusTag, statusText)

	_ = validate.RegisterValidation(pdfFileTag, pdfFileValidation)
	core.RegisterCustomTranslation(validate, translator, pdfFileTag, pdfFileText)
}

func joinStatuses(statuses []Status) string {
	names := make([]string, 0, len(statuses))
	for _, s := range statuses {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}

// Custom Validators

func statusValidation(fl validator.FieldLevel) bool {
	switch v := fl.Field().Interface().(type) {
	case Status:
		return v.IsValid()
	case string:
		return Status(v).IsValid()
	}
	return false
}

func pdfFileValidation(fl validator.FieldLevel) bool {
	return strings.HasSuffix(strings.ToLower(fl.Field().String()), attachmentExt)
}

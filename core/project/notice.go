package project

import (
	"net/mail"

	"github.com/trezcool/kazi/core"
)

const evaluationNoticeTemplate = "evaluation_notice"

// NewEvaluationNotice builds the email telling a student their project was evaluated.
func NewEvaluationNotice(p Project, to mail.Address) *core.EmailMessage {
	return &core.EmailMessage{
		To:           []mail.Address{to},
		Subject:      "Your project has been evaluated",
		TemplateName: evaluationNoticeTemplate,
		TemplateData: p,
	}
}

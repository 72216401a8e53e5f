package emailsvc

import (
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"github.com/trezcool/kazi/core"
	"github.com/trezcool/kazi/core/project"
	"github.com/trezcool/kazi/fs"
	"github.com/trezcool/kazi/services/logger"
)

func TestConsoleServiceMock_evaluationNotice(t *testing.T) {
	conf := &core.Config{AppName: "Kazi", DefaultFromEmail: mail.Address{Name: "Kazi", Address: "noreply@kazi.test"}}
	logger := logsvc.NewRollbarLogger(zap.NewNop(), conf)
	logger.Enable(false)

	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, true, logger)
	ResetSentMessages()

	p := project.Project{
		ID:       7,
		Student:  "ada",
		Title:    "Bridge design",
		Status:   project.StatusCompleted,
		Marks:    null.IntFrom(88),
		Feedback: "Solid work",
	}
	notice := project.NewEvaluationNotice(p, mail.Address{Address: "ada@school.test"})
	skipped := &core.EmailMessage{Subject: "nobody", BodyStr: "no recipient"}

	svc := NewConsoleServiceMock(conf, logger)
	svc.SendMessages(notice, skipped)

	require.Len(t, SentMessages, 1)
	sent := SentMessages[0]
	assert.Equal(t, "ada@school.test", sent.To[0].Address)
	for _, want := range []string{"ada", "Bridge design", "Completed", "88/100", "Solid work"} {
		assert.True(t, strings.Contains(sent.TextContent, want), "text content missing %q:\n%s", want, sent.TextContent)
		assert.True(t, strings.Contains(sent.HTMLContent, want), "html content missing %q:\n%s", want, sent.HTMLContent)
	}
}

func TestEmailMessage_Render_unknownTemplate(t *testing.T) {
	msg := &core.EmailMessage{TemplateName: "does_not_exist"}
	assert.Error(t, msg.Render("Kazi"))
}

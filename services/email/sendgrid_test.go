package emailsvc

import (
	"errors"
	"net/http"
	"net/mail"
	"testing"

	"github.com/sendgrid/rest"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"github.com/trezcool/kazi/core"
	"github.com/trezcool/kazi/core/project"
	"github.com/trezcool/kazi/fs"
	"github.com/trezcool/kazi/services/logger"
)

type senderStub struct {
	res  *rest.Response
	err  error
	sent []*sgmail.SGMailV3
}

func (s *senderStub) Send(m *sgmail.SGMailV3) (*rest.Response, error) {
	s.sent = append(s.sent, m)
	return s.res, s.err
}

func newTestSendgridService(stub *senderStub) *sendgridService {
	conf := &core.Config{AppName: "Kazi", DefaultFromEmail: mail.Address{Name: "Kazi", Address: "noreply@kazi.test"}}
	logger := logsvc.NewRollbarLogger(zap.NewNop(), conf)
	logger.Enable(false)
	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, true, logger)
	return newSendgridService(stub, conf, logger)
}

func TestSendgridService_deliver_evaluationNotice(t *testing.T) {
	stub := &senderStub{res: &rest.Response{StatusCode: http.StatusAccepted}}
	svc := newTestSendgridService(stub)

	p := project.Project{ID: 7, Student: "ada", Title: "Bridge design", Status: project.StatusApproved, Marks: null.IntFrom(72)}
	svc.deliver(project.NewEvaluationNotice(p, mail.Address{Name: "ada", Address: "ada@school.test"}))

	require.Len(t, stub.sent, 1)
	m := stub.sent[0]
	assert.Equal(t, "noreply@kazi.test", m.From.Address)
	assert.Equal(t, []string{"Kazi", "evaluation_notice"}, m.Categories)

	require.Len(t, m.Personalizations, 1)
	pers := m.Personalizations[0]
	assert.Equal(t, "[Kazi] Your project has been evaluated", pers.Subject)
	require.Len(t, pers.To, 1)
	assert.Equal(t, "ada@school.test", pers.To[0].Address)
	assert.Empty(t, pers.CC)

	require.Len(t, m.Content, 2)
	assert.Equal(t, "text/plain", m.Content[0].Type)
	assert.Contains(t, m.Content[0].Value, "Bridge design")
	assert.Equal(t, "text/html", m.Content[1].Type)
	assert.Contains(t, m.Content[1].Value, "72/100")
}

func TestSendgridService_deliver_skipped(t *testing.T) {
	stub := &senderStub{res: &rest.Response{StatusCode: http.StatusAccepted}}
	svc := newTestSendgridService(stub)

	tests := []struct {
		name string
		msg  *core.EmailMessage
	}{
		{name: "no recipient", msg: &core.EmailMessage{Subject: "hi", BodyStr: "hello"}},
		{name: "no content", msg: &core.EmailMessage{To: []mail.Address{{Address: "ada@school.test"}}, Subject: "hi"}},
		{name: "unknown template", msg: &core.EmailMessage{To: []mail.Address{{Address: "ada@school.test"}}, TemplateName: "does_not_exist"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc.deliver(tt.msg)
			assert.Empty(t, stub.sent)
		})
	}
}

func TestSendgridService_send(t *testing.T) {
	tests := []struct {
		name    string
		stub    *senderStub
		wantErr bool
	}{
		{name: "accepted", stub: &senderStub{res: &rest.Response{StatusCode: http.StatusAccepted}}},
		{name: "rejected", stub: &senderStub{res: &rest.Response{StatusCode: http.StatusUnauthorized, Body: `{"errors":[]}`}}, wantErr: true},
		{name: "transport error", stub: &senderStub{err: errors.New("connection refused")}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestSendgridService(tt.stub)
			err := svc.send(svc.prepare(core.EmailMessage{To: []mail.Address{{Address: "ada@school.test"}}, Subject: "hi", TextContent: "hello"}))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Len(t, tt.stub.sent, 1)
		})
	}
}

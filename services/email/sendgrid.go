package emailsvc

import (
	"fmt"
	"net/http"
	"net/mail"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/trezcool/kazi/core"
)

// sgSender is the part of *sendgrid.Client used to deliver mails.
type sgSender interface {
	Send(email *sgmail.SGMailV3) (*rest.Response, error)
}

type sendgridService struct {
	client     sgSender
	appName    string
	from       *sgmail.Email
	subjPrefix string
	logger     core.Logger
}

var _ core.EmailService = (*sendgridService)(nil)

// NewSendgridService returns an email service delivering through the SendGrid v3 mail API.
// Each mail is tagged with the app name and its template name as SendGrid categories.
func NewSendgridService(conf *core.Config, logger core.Logger) core.EmailService {
	return newSendgridService(sendgrid.NewSendClient(conf.SendgridApiKey), conf, logger)
}

func newSendgridService(client sgSender, conf *core.Config, logger core.Logger) *sendgridService {
	return &sendgridService{
		client:     client,
		appName:    conf.AppName,
		from:       sgmail.NewEmail(conf.DefaultFromEmail.Name, conf.DefaultFromEmail.Address),
		subjPrefix: "[" + conf.AppName + "] ",
		logger:     logger,
	}
}

func (svc *sendgridService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		go svc.deliver(msg)
	}
}

// deliver renders msg and sends it. Messages without recipients or content are dropped.
func (svc *sendgridService) deliver(msg *core.EmailMessage) {
	if err := msg.Render(svc.appName); err != nil {
		svc.logger.Error(fmt.Sprintf("rendering email %q: %v", msg.TemplateName, err), err)
		return
	}
	if !msg.HasRecipients() || !(msg.HasContent() || msg.HasAttachments()) {
		return
	}
	if err := svc.send(svc.prepare(*msg)); err != nil {
		svc.logger.Error(fmt.Sprintf("sending email %q: %v", msg.TemplateName, err), err)
	}
}

func (svc *sendgridService) prepare(msg core.EmailMessage) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = svc.subjPrefix + msg.Subject
	p.AddTos(sgEmails(msg.To)...)
	p.AddCCs(sgEmails(msg.Cc)...)
	p.AddBCCs(sgEmails(msg.Bcc)...)

	m := sgmail.NewV3Mail()
	m.SetFrom(svc.from)
	m.AddPersonalizations(p)
	m.AddCategories(svc.appName)
	if msg.TemplateName != "" {
		m.AddCategories(msg.TemplateName)
	}

	m.AddContent(sgmail.NewContent("text/plain", msg.TextContent))
	if msg.HTMLContent != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLContent))
	}
	for _, at := range msg.Attachments {
		m.AddAttachment(&sgmail.Attachment{
			Content:     at.Content.String(),
			Type:        at.ContentType,
			Filename:    at.Filename,
			Disposition: "attachment",
		})
	}
	return m
}

func (svc *sendgridService) send(m *sgmail.SGMailV3) error {
	res, err := svc.client.Send(m)
	if err != nil {
		return errors.Wrap(err, "calling sendgrid")
	}
	if res.StatusCode >= http.StatusBadRequest {
		return errors.Errorf("sendgrid status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

func sgEmails(addrs []mail.Address) []*sgmail.Email {
	emails := make([]*sgmail.Email, 0, len(addrs))
	for _, a := range addrs {
		emails = append(emails, sgmail.NewEmail(a.Name, a.Address))
	}
	return emails
}

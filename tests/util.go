package testutil

import (
	"context"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/mock"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"github.com/trezcool/kazi/apps/shared"
	"github.com/trezcool/kazi/core"
	"github.com/trezcool/kazi/core/project"
	"github.com/trezcool/kazi/core/user"
	"github.com/trezcool/kazi/services/logger"
)

// NewValidator returns a validator with every app validator registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	return shared.NewValidator()
}

// NewLogger returns a silent logger with Rollbar disabled.
func NewLogger() *logsvc.RollbarLogger {
	l := logsvc.NewRollbarLogger(zap.NewNop(), &core.Config{Env: "TEST"})
	l.Enable(false)
	return l
}

func CreateUser(t *testing.T, repo user.Repository, uname, pwd string, role user.Role, createdAt ...time.Time) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Username:  uname,
		Role:      role,
		Email:     uname + "@test.cd",
		CreatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

// CreateProject inserts a project row directly, without an attachment in any store.
func CreateProject(t *testing.T, repo project.Repository, student, title string, status project.Status, marks null.Int) project.Project {
	p, err := repo.CreateProject(context.Background(), project.Project{
		Student:  student,
		Title:    title,
		PdfPath:  project.NewAttachmentKey(),
		PdfName:  title + ".pdf",
		Deadline: core.NewDate(time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)),
		Status:   status,
		Marks:    marks,
	})
	if err != nil {
		t.Fatalf("createProject() failed: %v", err)
	}
	return p
}

// PublisherMock is a project.EventPublisher recording published events.
type PublisherMock struct {
	mock.Mock
}

var _ project.EventPublisher = (*PublisherMock)(nil)

// NewPublisherMock returns a mock accepting any event.
func NewPublisherMock() *PublisherMock {
	m := new(PublisherMock)
	m.On("Publish", mock.Anything, mock.Anything).Return(nil)
	return m
}

func (m *PublisherMock) Publish(ctx context.Context, evt project.Event) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

// EventTypes returns the types of the published events in order.
func (m *PublisherMock) EventTypes() []string {
	types := make([]string, 0, len(m.Calls))
	for _, call := range m.Calls {
		if evt, ok := call.Arguments.Get(1).(project.Event); ok {
			types = append(types, evt.Type)
		}
	}
	return types
}

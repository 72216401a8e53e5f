package project

import (
	"context"
	"fmt"
	"io/fs"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/kazi/core"
)

var (
	// errors
	ErrNotFound           = errors.New("project not found")
	ErrAttachmentNotFound = errors.New("attachment not found")
	ErrMissingAttachment  = errors.New("a PDF attachment is required")
)

// Event types
const (
	EventSubmitted = "project.submitted"
	EventEvaluated = "project.evaluated"
)

type (
	Repository interface {
		// CreateProject inserts p and returns it with its ID.
		CreateProject(ctx context.Context, p Project) (Project, error)
		// QueryProjects returns all projects ordered by ID.
		QueryProjects(ctx context.Context) ([]Project, error)
		// QueryStudentProjects returns the student's projects ordered by ID.
		QueryStudentProjects(ctx context.Context, student string) ([]Project, error)
		GetProject(ctx context.Context, id int) (Project, error)
		// UpdateEvaluation sets status, marks & feedback in a single statement.
		// Returns ErrNotFound if no row was affected.
		UpdateEvaluation(ctx context.Context, id int, status Status, marks null.Int, feedback string) (Project, error)
	}

	// Event is a project lifecycle notification.
	Event struct {
		Type      string    `json:"type"`
		ProjectID int       `json:"project_id"`
		Student   string    `json:"student"`
		Status    Status    `json:"status"`
		Marks     null.Int  `json:"marks"`
		At        time.Time `json:"at"`
	}

	// EventPublisher is any broker project events can be published to.
	EventPublisher interface {
		Publish(ctx context.Context, evt Event) error
	}

	Service struct {
		repo     Repository
		files    core.FileStore
		events   EventPublisher
		validate *validator.Validate
		logger   core.Logger
	}
)

func NewEvent(typ string, p Project) Event {
	return Event{
		Type:      typ,
		ProjectID: p.ID,
		Student:   p.Student,
		Status:    p.Status,
		Marks:     p.Marks,
		At:        time.Now().UTC(),
	}
}

func NewService(
	repo Repository,
	files core.FileStore,
	events EventPublisher,
	validate *validator.Validate,
	logger core.Logger,
) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(files, "files"),
		vala.IsNotNil(events, "events"),
		vala.IsNotNil(validate, "validate"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	return &Service{
		repo:     repo,
		files:    files,
		events:   events,
		validate: validate,
		logger:   logger,
	}
}

// Submit stores the attachment and records a new project in the Submitted state.
func (svc *Service) Submit(ctx context.Context, student string, np NewProject) (Project, error) {
	if len(np.File) == 0 {
		return Project{}, ErrMissingAttachment
	}
	if student = core.CleanString(student); student == "" {
		return Project{}, core.NewValidationError(nil, core.FieldError{Field: "student", Error: "this field is required"})
	}
	if err := np.Validate(svc.validate); err != nil {
		return Project{}, err
	}

	key := NewAttachmentKey()
	if err := svc.files.Write(ctx, key, np.File); err != nil {
		return Project{}, errors.Wrap(err, "writing attachment")
	}

	p, err := svc.repo.CreateProject(ctx, Project{
		Student:     student,
		Title:       np.Title,
		Description: np.Description,
		PdfPath:     key,
		PdfName:     np.FileName,
		Deadline:    core.NewDate(np.Deadline),
		Status:      StatusSubmitted,
	})
	if err != nil {
		if dErr := svc.files.Delete(ctx, key); dErr != nil {
			svc.logger.Error(fmt.Sprintf("deleting orphan attachment %q: %v", key, dErr), dErr)
		}
		return Project{}, errors.Wrap(err, "creating project")
	}

	svc.publish(ctx, NewEvent(EventSubmitted, p))
	return p, nil
}

func (svc *Service) ListForStudent(ctx context.Context, student string) ([]Summary, error) {
	projects, err := svc.repo.QueryStudentProjects(ctx, core.CleanString(student))
	if err != nil {
		return nil, errors.Wrap(err, "querying student projects")
	}
	summaries := make([]Summary, 0, len(projects))
	for _, p := range projects {
		summaries = append(summaries, p.Summary())
	}
	return summaries, nil
}

func (svc *Service) ListAll(ctx context.Context) ([]Project, error) {
	projects, err := svc.repo.QueryProjects(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying projects")
	}
	if projects == nil {
		projects = []Project{}
	}
	return projects, nil
}

func (svc *Service) Get(ctx context.Context, id int) (Project, error) {
	return svc.repo.GetProject(ctx, id)
}

// GetAttachment returns the PDF attached to the project.
func (svc *Service) GetAttachment(ctx context.Context, id int) (Attachment, error) {
	p, err := svc.repo.GetProject(ctx, id)
	if err != nil {
		return Attachment{}, err
	}
	if p.PdfPath == "" {
		return Attachment{}, ErrAttachmentNotFound
	}

	found, err := svc.files.Exists(ctx, p.PdfPath)
	if err != nil {
		return Attachment{}, errors.Wrap(err, "checking attachment")
	}
	if !found {
		return Attachment{}, ErrAttachmentNotFound
	}

	content, err := svc.files.Read(ctx, p.PdfPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Attachment{}, ErrAttachmentNotFound
		}
		return Attachment{}, errors.Wrap(err, "reading attachment")
	}

	name := p.PdfName
	if name == "" {
		name = fmt.Sprintf("project-%d%s", p.ID, attachmentExt)
	}
	return Attachment{Filename: name, ContentType: attachmentContentType, Content: content}, nil
}

// Evaluate records a teacher's review. The store is untouched when ev is invalid.
func (svc *Service) Evaluate(ctx context.Context, id int, ev Evaluation) (Project, error) {
	if err := ev.Validate(svc.validate); err != nil {
		return Project{}, err
	}

	p, err := svc.repo.UpdateEvaluation(ctx, id, ev.Status, null.IntFrom(*ev.Marks), ev.Feedback)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Project{}, ErrNotFound
		}
		return Project{}, errors.Wrap(err, "updating evaluation")
	}

	svc.publish(ctx, NewEvent(EventEvaluated, p))
	return p, nil
}

// publish never fails the calling operation.
func (svc *Service) publish(ctx context.Context, evt Event) {
	if err := svc.events.Publish(ctx, evt); err != nil {
		svc.logger.Error(fmt.Sprintf("publishing %s event: %v", evt.Type, err), err)
	}
}

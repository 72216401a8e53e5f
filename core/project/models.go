package project

import (
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/kazi/core"
)

// Status is the review state of a Project.
type Status string

// Statuses
const (
	StatusSubmitted  Status = "Submitted"
	StatusApproved   Status = "Approved"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

var Statuses = []Status{StatusSubmitted, StatusApproved, StatusInProgress, StatusCompleted}

func (s Status) IsValid() bool {
	for _, st := range Statuses {
		if s == st {
			return true
		}
	}
	return false
}

const (
	attachmentDir         = "projects"
	attachmentExt         = ".pdf"
	attachmentContentType = "application/pdf"
)

// NewAttachmentKey generates a collision-free storage key for a PDF attachment.
func NewAttachmentKey() string {
	return path.Join(attachmentDir, uuid.NewString()+attachmentExt)
}

type Project struct {
	ID          int       `json:"id" db:"id"`
	Student     string    `json:"student" db:"student"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	PdfPath     string    `json:"-" db:"pdf_path"`
	PdfName     string    `json:"pdf_name" db:"pdf_name"`
	Deadline    core.Date `json:"deadline" db:"deadline"`
	Status      Status    `json:"status" db:"status"`
	Marks       null.Int  `json:"marks" db:"marks"`
	Feedback    string    `json:"feedback" db:"feedback"`
}

func (p Project) Summary() Summary {
	return Summary{
		ID:       p.ID,
		Title:    p.Title,
		Deadline: p.Deadline,
		Status:   p.Status,
		Marks:    p.Marks,
		Feedback: p.Feedback,
	}
}

// Summary is the student's view of one of their own projects.
type Summary struct {
	ID       int       `json:"id"`
	Title    string    `json:"title"`
	Deadline core.Date `json:"deadline"`
	Status   Status    `json:"status"`
	Marks    null.Int  `json:"marks"`
	Feedback string    `json:"feedback"`
}

// NewProject contains information needed to submit a new Project.
type NewProject struct {
	Title       string    `json:"title" validate:"required,notblank,max=255"`
	Description string    `json:"description"`
	Deadline    time.Time `json:"deadline" validate:"required"`
	FileName    string    `json:"file" validate:"required,pdffile"`
	File        []byte    `json:"-"`
}

func (np *NewProject) Validate(validate *validator.Validate) error {
	np.Title = core.CleanString(np.Title)
	np.Description = strings.TrimSpace(np.Description)
	np.FileName = path.Base(core.CleanString(strings.ReplaceAll(np.FileName, `\`, "/")))
	if np.FileName == "." || np.FileName == "/" {
		np.FileName = ""
	}
	return validate.Struct(np)
}

// Evaluation is a teacher's review of a Project.
type Evaluation struct {
	Status   Status `json:"status" validate:"required,projectstatus"`
	Marks    *int   `json:"marks" validate:"required,min=0,max=100"`
	Feedback string `json:"feedback"`
}

func (ev *Evaluation) Validate(validate *validator.Validate) error {
	ev.Status = Status(core.CleanString(string(ev.Status)))
	ev.Feedback = strings.TrimSpace(ev.Feedback)
	return validate.Struct(ev)
}

// Attachment is a downloadable project file.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

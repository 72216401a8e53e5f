package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/kazi/core"
	"github.com/trezcool/kazi/core/project"
)

const projectColumns = "id, student, title, description, pdf_path, pdf_name, deadline, status, marks, feedback"

type projectRepository struct {
	exec core.DBExecutor
}

var _ project.Repository = (*projectRepository)(nil) // interface compliance check

func NewProjectRepository(exec core.DBExecutor) *projectRepository {
	return &projectRepository{exec: exec}
}

// trapNoRowsErr maps psql "no rows" err to project.ErrNotFound
func (repo projectRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return project.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo projectRepository) CreateProject(ctx context.Context, p project.Project) (project.Project, error) {
	q := `INSERT INTO projects (student, title, description, pdf_path, pdf_name, deadline, status, marks, feedback)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`

	err := repo.exec.QueryRowxContext(
		ctx, q,
		p.Student, p.Title, p.Description, p.PdfPath, p.PdfName, p.Deadline, p.Status, p.Marks, p.Feedback,
	).Scan(&p.ID)
	if err != nil {
		return project.Project{}, errors.Wrap(err, "inserting project")
	}
	return p, nil
}

func (repo projectRepository) QueryProjects(ctx context.Context) ([]project.Project, error) {
	projects := make([]project.Project, 0)
	q := "SELECT " + projectColumns + " FROM projects ORDER BY id"
	if err := sqlx.SelectContext(ctx, repo.exec, &projects, q); err != nil {
		return nil, errors.Wrap(err, "selecting projects")
	}
	return projects, nil
}

func (repo projectRepository) QueryStudentProjects(ctx context.Context, student string) ([]project.Project, error) {
	projects := make([]project.Project, 0)
	q := "SELECT " + projectColumns + " FROM projects WHERE student = $1 ORDER BY id"
	if err := sqlx.SelectContext(ctx, repo.exec, &projects, q, student); err != nil {
		return nil, errors.Wrap(err, "selecting student projects")
	}
	return projects, nil
}

func (repo projectRepository) GetProject(ctx context.Context, id int) (project.Project, error) {
	var p project.Project
	q := "SELECT " + projectColumns + " FROM projects WHERE id = $1"
	if err := sqlx.GetContext(ctx, repo.exec, &p, q, id); err != nil {
		return project.Project{}, repo.trapNoRowsErr(err, "selecting project")
	}
	return p, nil
}

func (repo projectRepository) UpdateEvaluation(
	ctx context.Context,
	id int,
	status project.Status,
	marks null.Int,
	feedback string,
) (project.Project, error) {
	var p project.Project
	q := "UPDATE projects SET status = $2, marks = $3, feedback = $4 WHERE id = $1 RETURNING " + projectColumns
	if err := sqlx.GetContext(ctx, repo.exec, &p, q, id, status, marks, feedback); err != nil {
		return project.Project{}, repo.trapNoRowsErr(err, "updating project evaluation")
	}
	return p, nil
}

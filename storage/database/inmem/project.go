package inmemdb

import (
	"context"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/kazi/core/project"
)

type projectRepository struct {
	db *projectTable
}

var _ project.Repository = (*projectRepository)(nil)

func NewProjectRepository(db *DB) project.Repository {
	return &projectRepository{db: db.project}
}

func (repo *projectRepository) CreateProject(_ context.Context, p project.Project) (project.Project, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.seq++
	p.ID = repo.db.seq
	row := p
	repo.db.rows = append(repo.db.rows, &row)
	return p, nil
}

func (repo *projectRepository) filter(keep func(p *project.Project) bool) []project.Project {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	projects := make([]project.Project, 0, len(repo.db.rows))
	for _, p := range repo.db.rows {
		if keep(p) {
			projects = append(projects, *p)
		}
	}
	return projects
}

func (repo *projectRepository) QueryProjects(_ context.Context) ([]project.Project, error) {
	return repo.filter(func(*project.Project) bool { return true }), nil
}

func (repo *projectRepository) QueryStudentProjects(_ context.Context, student string) ([]project.Project, error) {
	return repo.filter(func(p *project.Project) bool { return p.Student == student }), nil
}

func (repo *projectRepository) GetProject(_ context.Context, id int) (project.Project, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, p := range repo.db.rows {
		if p.ID == id {
			return *p, nil
		}
	}
	return project.Project{}, project.ErrNotFound
}

func (repo *projectRepository) UpdateEvaluation(
	_ context.Context,
	id int,
	status project.Status,
	marks null.Int,
	feedback string,
) (project.Project, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, p := range repo.db.rows {
		if p.ID == id {
			p.Status = status
			p.Marks = marks
			p.Feedback = feedback
			return *p, nil
		}
	}
	return project.Project{}, project.ErrNotFound
}

package sqlxrepos_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/kazi/core"
	"github.com/trezcool/kazi/core/project"
	"github.com/trezcool/kazi/storage/database/sqlx"
	"github.com/trezcool/kazi/tests"
)

func TestProjectRepository_CreateProject(t *testing.T) {
	repo := sqlxrepos.NewProjectRepository(openTestDB(t))
	ctx := context.Background()

	deadline := core.NewDate(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))
	p, err := repo.CreateProject(ctx, project.Project{
		Student:     "ada",
		Title:       "Bridge design",
		Description: "A suspension bridge",
		PdfPath:     "projects/abc.pdf",
		PdfName:     "bridge.pdf",
		Deadline:    deadline,
		Status:      project.StatusSubmitted,
	})
	require.NoError(t, err)
	assert.NotZero(t, p.ID)

	got, err := repo.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-12-31", got.Deadline.String())
	assert.True(t, deadline.Equal(got.Deadline.Time))
	assert.False(t, got.Marks.Valid)
	assert.Equal(t, "projects/abc.pdf", got.PdfPath)
	assert.Equal(t, p, got)
}

func TestProjectRepository_GetProject_notFound(t *testing.T) {
	repo := sqlxrepos.NewProjectRepository(openTestDB(t))
	_, err := repo.GetProject(context.Background(), 404)
	assert.Equal(t, project.ErrNotFound, err)
}

func TestProjectRepository_Query(t *testing.T) {
	repo := sqlxrepos.NewProjectRepository(openTestDB(t))
	ctx := context.Background()

	p1 := testutil.CreateProject(t, repo, "ada", "Bridge", project.StatusSubmitted, null.Int{})
	p2 := testutil.CreateProject(t, repo, "alan", "Engine", project.StatusCompleted, null.IntFrom(91))
	p3 := testutil.CreateProject(t, repo, "ada", "Compiler", project.StatusApproved, null.IntFrom(0))

	tests := []struct {
		name    string
		student string
		want    []project.Project
	}{
		{name: "all", want: []project.Project{p1, p2, p3}},
		{name: "student with projects", student: "ada", want: []project.Project{p1, p3}},
		{name: "student without projects", student: "grace", want: []project.Project{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				got []project.Project
				err error
			)
			if tt.student == "" {
				got, err = repo.QueryProjects(ctx)
			} else {
				got, err = repo.QueryStudentProjects(ctx, tt.student)
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProjectRepository_UpdateEvaluation(t *testing.T) {
	repo := sqlxrepos.NewProjectRepository(openTestDB(t))
	ctx := context.Background()
	p := testutil.CreateProject(t, repo, "ada", "Bridge", project.StatusSubmitted, null.Int{})

	tests := []struct {
		name     string
		id       int
		status   project.Status
		marks    null.Int
		feedback string
		wantErr  error
	}{
		{name: "approve", id: p.ID, status: project.StatusApproved, marks: null.IntFrom(75), feedback: "Solid work"},
		{name: "zero marks", id: p.ID, status: project.StatusInProgress, marks: null.IntFrom(0), feedback: ""},
		{name: "back to submitted", id: p.ID, status: project.StatusSubmitted, marks: null.IntFrom(100), feedback: "Redo"},
		{name: "not found", id: p.ID + 100, status: project.StatusApproved, marks: null.IntFrom(50), wantErr: project.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.UpdateEvaluation(ctx, tt.id, tt.status, tt.marks, tt.feedback)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, tt.marks, got.Marks)
			assert.Equal(t, tt.feedback, got.Feedback)
			assert.Equal(t, p.Title, got.Title)

			stored, err := repo.GetProject(ctx, tt.id)
			require.NoError(t, err)
			assert.Equal(t, got, stored)
		})
	}
}

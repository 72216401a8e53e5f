// Package analytics aggregates projects for the admin dashboard.
package analytics

import (
	"context"
	"fmt"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/kazi/core/project"
)

const (
	minMarks = 0
	maxMarks = 100

	DefaultBinWidth = 10
)

type (
	// Bin counts the marks in [From, To].
	Bin struct {
		Label string `json:"label"`
		From  int    `json:"from"`
		To    int    `json:"to"`
		Count int    `json:"count"`
	}

	Report struct {
		Total              int                    `json:"total"`
		StatusDistribution map[project.Status]int `json:"status_distribution"`
		Marks              []int                  `json:"marks"`
		Bins               []Bin                  `json:"bins"`
		AverageMarks       null.Float64           `json:"average_marks"`
	}

	// ProjectLister is satisfied by project.Service.
	ProjectLister interface {
		ListAll(ctx context.Context) ([]project.Project, error)
	}

	Service struct {
		projects ProjectLister
	}
)

func NewService(projects ProjectLister) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(projects, "projects"),
	).CheckAndPanic()
	return &Service{projects: projects}
}

// Report aggregates every project.
func (svc *Service) Report(ctx context.Context) (Report, error) {
	projects, err := svc.projects.ListAll(ctx)
	if err != nil {
		return Report{}, errors.Wrap(err, "listing projects")
	}
	return NewReport(projects), nil
}

func NewReport(projects []project.Project) Report {
	marks := MarksHistogram(projects)
	rep := Report{
		Total:              len(projects),
		StatusDistribution: StatusDistribution(projects),
		Marks:              marks,
		Bins:               Bucket(marks, DefaultBinWidth),
	}
	if len(marks) > 0 {
		var sum int
		for _, m := range marks {
			sum += m
		}
		rep.AverageMarks = null.Float64From(float64(sum) / float64(len(marks)))
	}
	return rep
}

// StatusDistribution counts projects per status. Statuses with no project are omitted.
func StatusDistribution(projects []project.Project) map[project.Status]int {
	dist := make(map[project.Status]int)
	for _, p := range projects {
		dist[p.Status]++
	}
	return dist
}

// MarksHistogram returns the present marks in input order.
func MarksHistogram(projects []project.Project) []int {
	marks := make([]int, 0, len(projects))
	for _, p := range projects {
		if p.Marks.Valid {
			marks = append(marks, p.Marks.Int)
		}
	}
	return marks
}

// Bucket groups marks into bins of width covering [0, 100]; the last bin is closed on 100.
// eg. width 10: 0-9, 10-19, ..., 90-100.
func Bucket(marks []int, width int) []Bin {
	if width <= 0 {
		width = DefaultBinWidth
	}
	n := (maxMarks - minMarks) / width
	if n == 0 {
		n = 1
	}

	bins := make([]Bin, n)
	for i := range bins {
		from := minMarks + i*width
		to := from + width - 1
		if i == n-1 {
			to = maxMarks
		}
		bins[i] = Bin{Label: fmt.Sprintf("%d-%d", from, to), From: from, To: to}
	}

	for _, m := range marks {
		if m < minMarks || m > maxMarks {
			continue
		}
		i := (m - minMarks) / width
		if i >= n {
			i = n - 1
		}
		bins[i].Count++
	}
	return bins
}

// Package eventsvc holds the project event publishers.
package eventsvc

import (
	"context"

	"github.com/trezcool/kazi/core"
	"github.com/trezcool/kazi/core/project"
)

// LogPublisher writes events to the logger; used when no broker is configured.
type LogPublisher struct {
	logger core.Logger
}

var _ project.EventPublisher = (*LogPublisher)(nil)

func NewLogPublisher(logger core.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, evt project.Event) error {
	p.logger.Info(evt.Type, map[string]interface{}{
		"project_id": evt.ProjectID,
		"student":    evt.Student,
		"status":     evt.Status,
		"marks":      evt.Marks.Ptr(),
	})
	return nil
}

func (p *LogPublisher) Close() error { return nil }

package recorder

import (
	"time"

	"TokenChart/internal/model"
)

// ChartSnapshot is the persisted outcome of one scheduled chart refresh.
type ChartSnapshot struct {
	ID         string
	Asset      string
	Window     model.Window
	State      string
	Buckets    int
	Summary    model.Summary
	Error      string
	RecordedAt time.Time
}

// Recorder persists chart history for later analysis.
type Recorder interface {
	RecordSnapshot(snap *ChartSnapshot) error
	RecentSnapshots(asset string, window model.Window, limit int) ([]ChartSnapshot, error)
	Close() error
}

package recorder

import "TokenChart/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordSnapshot(_ *ChartSnapshot) error { return nil }
func (n *NoopRecorder) RecentSnapshots(_ string, _ model.Window, _ int) ([]ChartSnapshot, error) {
	return nil, nil
}
func (n *NoopRecorder) Close() error { return nil }

package webhook

import "time"

const (
	EventBatchCompleted = "batch.completed"
	EventBatchFailed    = "batch.failed"
)

// Event is a notification body. Name is sent in the event header.
type Event interface {
	Name() string
}

// ArchiveLocation is one place the run's archive was delivered to.
type ArchiveLocation struct {
	Emitter  string `json:"emitter"`
	Location string `json:"location"`
	URL      string `json:"url,omitempty"`
	Bytes    int    `json:"bytes"`
}

type BatchCompleted struct {
	RunID       string            `json:"run_id"`
	Files       int               `json:"files"`
	Skipped     int               `json:"skipped"`
	Format      string            `json:"format"`
	SourceBytes int64             `json:"source_bytes"`
	OutputBytes int64             `json:"output_bytes"`
	BytesSaved  int64             `json:"bytes_saved"`
	Archive     string            `json:"archive"`
	Locations   []ArchiveLocation `json:"locations"`
	CompletedAt time.Time         `json:"completed_at"`
}

func (BatchCompleted) Name() string { return EventBatchCompleted }

type BatchFailed struct {
	RunID    string    `json:"run_id"`
	Files    int       `json:"files"`
	Format   string    `json:"format"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failed_at"`
}

func (BatchFailed) Name() string { return EventBatchFailed }

package outbound

import "github.com/jonghyeuk/auto-mpeg/domain"

type ProgressEvent struct {
	JobID   string       `json:"job_id"`
	Stage   domain.Stage `json:"stage"`
	Message string       `json:"message"`
	Done    bool         `json:"done"`
}

// ProgressSink receives stage transitions as the orchestrator advances.
// Serve mode streams these to the client over SSE; the default sink logs.
type ProgressSink interface {
	Publish(event ProgressEvent)
}

package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskRenderWarmup re-exports active themes so the first public
	// request after an apply hits a warm cache.
	TaskRenderWarmup = "site:render_warmup"
)

// RenderWarmupPayload selects which tenants to warm. GroupID zero means
// every active group.
type RenderWarmupPayload struct {
	GroupID int64 `json:"group_id"`
}

// NewRenderWarmupTask constructs an Asynq task.
func NewRenderWarmupTask(payload RenderWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRenderWarmup, data), nil
}

package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/opinian/opinian/internal/site"
)

// GroupLister enumerates tenants eligible for warmup.
type GroupLister interface {
	ListActiveGroupIDs(ctx context.Context) ([]int64, error)
}

// NewRenderWarmupHandler builds the handler for TaskRenderWarmup. Metrics may
// be nil.
func NewRenderWarmupHandler(renderer *site.Renderer, groups GroupLister, metrics *Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track("render_warmup")
		var payload RenderWarmupPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return tracker.End(asynq.SkipRetry)
		}
		ids := []int64{payload.GroupID}
		if payload.GroupID == 0 {
			var err error
			ids, err = groups.ListActiveGroupIDs(ctx)
			if err != nil {
				return tracker.End(err)
			}
		}
		for _, id := range ids {
			if _, err := renderer.RenderPage(ctx, id); err != nil {
				// A tenant with a broken document should not block
				// the rest of the sweep.
				logger.Warn("render warmup failed", slog.Int64("group_id", id), slog.Any("error", err))
			}
		}
		return tracker.End(nil)
	}
}

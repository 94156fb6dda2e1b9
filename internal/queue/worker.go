package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

// Register wires every task handler into mux.
func (q *Queue) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskTypeTokenCheck, q.HandleTokenCheckTask)
	mux.HandleFunc(TaskTypePostAnalytics, q.HandlePostAnalyticsTask)
	mux.HandleFunc(TaskTypePageAnalytics, q.HandlePageAnalyticsTask)
}

func (q *Queue) HandleTokenCheckTask(ctx context.Context, task *asynq.Task) error {
	summary := q.tokens.CheckTokens(ctx)
	slog.Info("on-demand token check finished", "summary", summary)
	return nil
}

func (q *Queue) HandlePostAnalyticsTask(ctx context.Context, task *asynq.Task) error {
	var payload PostAnalyticsPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if payload.PostID == 0 {
		return fmt.Errorf("%w: post id is required", asynq.SkipRetry)
	}

	_, err := q.analytics.SyncPostAnalytics(ctx, payload.PostID)
	return err
}

func (q *Queue) HandlePageAnalyticsTask(ctx context.Context, task *asynq.Task) error {
	var payload PageAnalyticsPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if payload.PageID == 0 {
		return fmt.Errorf("%w: page id is required", asynq.SkipRetry)
	}

	_, err := q.analytics.SyncPageAnalytics(ctx, payload.PageID)
	return err
}

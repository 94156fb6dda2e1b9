package queue

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// Enqueuer is the part of asynq.Client used to submit tasks.
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

func EnqueueTokenCheck(client Enqueuer) (*asynq.TaskInfo, error) {
	task := asynq.NewTask(TaskTypeTokenCheck, nil)
	// One pending check at a time is enough.
	return enqueue(client, task, asynq.Unique(10*time.Minute), asynq.MaxRetry(0))
}

func EnqueuePostAnalytics(client Enqueuer, payload PostAnalyticsPayload) (*asynq.TaskInfo, error) {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return enqueue(client, asynq.NewTask(TaskTypePostAnalytics, taskPayload), asynq.MaxRetry(3))
}

func EnqueuePageAnalytics(client Enqueuer, payload PageAnalyticsPayload) (*asynq.TaskInfo, error) {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return enqueue(client, asynq.NewTask(TaskTypePageAnalytics, taskPayload), asynq.MaxRetry(3))
}

func enqueue(client Enqueuer, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	info, err := client.Enqueue(task, opts...)
	if err != nil {
		slog.Error("failed to enqueue task", "type", task.Type(), "error", err)
		return nil, err
	}

	slog.Info("task enqueued", "type", task.Type(), "id", info.ID)
	return info, nil
}

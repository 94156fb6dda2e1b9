package queue

import (
	job "github.com/maheshrc27/socialflow/internal/jobs"
	"github.com/maheshrc27/socialflow/internal/service"
)

type Queue struct {
	tokens    *job.TokenCheckJob
	analytics service.AnalyticsService
}

func NewQueue(tokens *job.TokenCheckJob, analytics service.AnalyticsService) *Queue {
	return &Queue{
		tokens:    tokens,
		analytics: analytics,
	}
}

const (
	TaskTypeTokenCheck    = "tokens:check"
	TaskTypePostAnalytics = "analytics:post"
	TaskTypePageAnalytics = "analytics:page"
)

type PostAnalyticsPayload struct {
	PostID int64 `json:"post_id"`
}

type PageAnalyticsPayload struct {
	PageID int64 `json:"page_id"`
}

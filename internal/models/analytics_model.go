package models

import (
	"encoding/json"
	"time"
)

type PostAnalytics struct {
	ID          int64           `db:"id" json:"id"`
	PostID      int64           `db:"post_id" json:"post_id"`
	FetchedAt   time.Time       `db:"fetched_at" json:"fetched_at"`
	Impressions int             `db:"impressions" json:"impressions"`
	Reach       int             `db:"reach" json:"reach"`
	Engagement  int             `db:"engagement" json:"engagement"`
	Reactions   int             `db:"reactions" json:"reactions"`
	Comments    int             `db:"comments" json:"comments"`
	Shares      int             `db:"shares" json:"shares"`
	Clicks      int             `db:"clicks" json:"clicks"`
	RawData     json.RawMessage `db:"raw_data" json:"raw_data,omitempty"`
}

type PageAnalyticsSnapshot struct {
	ID             int64     `db:"id" json:"id"`
	PageID         int64     `db:"page_id" json:"page_id"`
	Date           time.Time `db:"date" json:"date"`
	FollowersCount int       `db:"followers_count" json:"followers_count"`
	PageViews      int       `db:"page_views" json:"page_views"`
	PageReach      int       `db:"page_reach" json:"page_reach"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

package models

import "time"

type Post struct {
	ID           int64      `db:"id" json:"id"`
	UserID       int64      `db:"user_id" json:"user_id"`
	Content      string     `db:"content" json:"content"`
	Status       string     `db:"status" json:"status"` // draft, scheduled, published, failed
	ScheduledFor *time.Time `db:"scheduled_for" json:"scheduled_for,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

type Media struct {
	ID                int64     `db:"id" json:"id"`
	UserID            int64     `db:"user_id" json:"user_id"`
	Type              string    `db:"type" json:"type"` // image, video
	StorageKey        string    `db:"storage_key" json:"storage_key"`
	OriginalURL       string    `db:"original_url" json:"original_url"`
	FacebookFeedURL   string    `db:"facebook_feed_url" json:"facebook_feed_url,omitempty"`
	InstagramStoryURL string    `db:"instagram_story_url" json:"instagram_story_url,omitempty"`
	FileName          string    `db:"file_name" json:"file_name"`
	FileSize          int64     `db:"file_size" json:"file_size"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

type PostMedia struct {
	PostID       int64     `db:"post_id"`
	MediaID      int64     `db:"media_id"`
	DisplayOrder int       `db:"display_order"`
	CreatedAt    time.Time `db:"created_at"`
}

func (m *Media) IsVideo() bool {
	return m.Type == MediaTypeVideo
}

// FeedURL is the URL used for feed photos, preferring the feed-sized rendition.
func (m *Media) FeedURL() string {
	if m.FacebookFeedURL != "" {
		return m.FacebookFeedURL
	}
	return m.OriginalURL
}

// StoryURL is the URL used for story photos, preferring the vertical rendition.
func (m *Media) StoryURL() string {
	if m.InstagramStoryURL != "" {
		return m.InstagramStoryURL
	}
	return m.OriginalURL
}

const (
	PostStatusDraft     = "draft"
	PostStatusScheduled = "scheduled"
	PostStatusPublished = "published"
	PostStatusFailed    = "failed"
)

const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

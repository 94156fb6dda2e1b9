package models

import "time"

// ScheduledPost is one delivery unit: a post bound for one page in one content shape.
type ScheduledPost struct {
	ID             int64      `db:"id" json:"id"`
	PostID         int64      `db:"post_id" json:"post_id"`
	PageID         int64      `db:"page_id" json:"page_id"`
	PostType       string     `db:"post_type" json:"post_type"` // feed, story, reel
	ScheduledAt    time.Time  `db:"scheduled_at" json:"scheduled_at"`
	PublishedAt    *time.Time `db:"published_at" json:"published_at,omitempty"`
	ExternalPostID string     `db:"external_post_id" json:"external_post_id,omitempty"`
	Error          string     `db:"error" json:"error,omitempty"`
	Attempts       int        `db:"attempts" json:"attempts"`
	NextAttemptAt  *time.Time `db:"next_attempt_at" json:"next_attempt_at,omitempty"`
	FailedAt       *time.Time `db:"failed_at" json:"failed_at,omitempty"`
	ClaimedAt      *time.Time `db:"claimed_at" json:"-"`
	ClaimToken     string     `db:"claim_token" json:"-"`
	Progress       []string   `db:"progress" json:"progress,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

func (u *ScheduledPost) IsPending() bool {
	return u.PublishedAt == nil && u.FailedAt == nil
}

// Status is the derived lifecycle state shown to operators.
func (u *ScheduledPost) Status() string {
	switch {
	case u.PublishedAt != nil:
		return UnitStatusPublished
	case u.FailedAt != nil:
		return UnitStatusFailed
	case u.Error != "":
		return UnitStatusErrored
	default:
		return UnitStatusPending
	}
}

const (
	PostTypeFeed  = "feed"
	PostTypeStory = "story"
	PostTypeReel  = "reel"
	// PostTypeBoth only exists at composition time; it is split into feed and story units.
	PostTypeBoth = "both"
)

const (
	UnitStatusPending   = "pending"
	UnitStatusErrored   = "errored"
	UnitStatusPublished = "published"
	UnitStatusFailed    = "failed"
)

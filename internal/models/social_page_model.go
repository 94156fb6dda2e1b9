package models

import (
	"time"
)

type SocialPage struct {
	ID             int64      `db:"id" json:"id"`
	UserID         int64      `db:"user_id" json:"user_id"`
	Platform       string     `db:"platform" json:"platform"`
	PageID         string     `db:"page_id" json:"page_id"`
	PageName       string     `db:"page_name" json:"page_name"`
	AccessToken    string     `db:"access_token" json:"-"`
	TokenExpiresAt *time.Time `db:"token_expires_at" json:"token_expires_at,omitempty"`
	TokenStatus    string     `db:"token_status" json:"token_status"`
	LastTokenCheck *time.Time `db:"last_token_check" json:"last_token_check,omitempty"`
	FollowersCount int        `db:"followers_count" json:"followers_count"`
	IsActive       bool       `db:"is_active" json:"is_active"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

const (
	PlatformFacebook  = "facebook"
	PlatformInstagram = "instagram"
)

const (
	TokenStatusValid    = "valid"
	TokenStatusExpiring = "expiring"
	TokenStatusExpired  = "expired"
	TokenStatusError    = "error"
)

package transfer

type PostCreation struct {
	Content      string  `json:"content"`
	MediaIDs     []int64 `json:"media_ids"`
	PageIDs      []int64 `json:"page_ids"`
	PostType     string  `json:"post_type"`
	ScheduledFor string  `json:"scheduled_for"`
}

type PageCreation struct {
	Platform    string `json:"platform"`
	PageID      string `json:"page_id"`
	PageName    string `json:"page_name"`
	AccessToken string `json:"access_token"`
	// ExpiresIn is the token lifetime in seconds; 0 means it does not expire.
	ExpiresIn int `json:"expires_in"`
}

type AnalyticsSyncRequest struct {
	PostID int64 `json:"post_id"`
	PageID int64 `json:"page_id"`
}

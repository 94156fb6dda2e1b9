package models

import "time"

// PostingHistory records one publish attempt of a delivery unit.
type PostingHistory struct {
	ID           int64     `db:"id" json:"id"`
	UnitID       int64     `db:"unit_id" json:"unit_id"`
	PostID       int64     `db:"post_id" json:"post_id"`
	PageID       int64     `db:"page_id" json:"page_id"`
	Attempt      int       `db:"attempt" json:"attempt"`
	ExternalID   string    `db:"external_id" json:"external_id,omitempty"`
	ErrorMessage string    `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

func (h *PostingHistory) Succeeded() bool {
	return h.ErrorMessage == ""
}

package repository

import "errors"

var (
	ErrNotFound   = errors.New("record not found")
	ErrNotPending = errors.New("scheduled post is no longer pending")
	ErrClaimLost  = errors.New("scheduled post is not claimed by this worker")
)

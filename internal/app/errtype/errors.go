package errtype

import "errors"

var (
	// ErrNotFound represents the error for the cases when some entity is not found.
	ErrNotFound = errors.New("not found")
	// ErrBadInput represents the error for the cases when the user input is invalid.
	ErrBadInput = errors.New("bad input")
	// ErrUnauthorized represents the error for the cases when the authorization is required.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConfiguration represents the error for a missing or invalid configuration value.
	ErrConfiguration = errors.New("configuration error")
	// ErrSync represents the error for a failed clone, fetch, checkout or reset.
	ErrSync = errors.New("sync error")
	// ErrMergeConflict represents the error for a merge that can't be completed automatically.
	ErrMergeConflict = errors.New("merge conflict")
	// ErrPush represents the error for a rejected or unauthorized push.
	ErrPush = errors.New("push error")
	// ErrCleanup represents the error for a failed mirror removal.
	ErrCleanup = errors.New("cleanup error")
	// ErrQueueFull represents the error for the case when the job queue can't accept more jobs.
	ErrQueueFull = errors.New("queue is full")
)

package service

import "errors"

// Sentinel errors returned by the service.
var (
	ErrMissingIssueKey = errors.New("issue key is required")
)

package jira

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for the Jira client.
var (
	ErrInvalidRequest    = errors.New("invalid worklog request")
	ErrMissingInstance   = errors.New("jira instance is required")
	ErrTransport         = errors.New("jira request failed")
	ErrMalformedResponse = errors.New("malformed jira response")
	ErrJiraAPI           = errors.New("jira api error")
)

// APIError is returned when Jira answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("jira api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("jira api error: status %d: %s", e.StatusCode, e.Body)
}

// Is reports ErrJiraAPI as the kind of every APIError.
func (e *APIError) Is(target error) bool {
	return target == ErrJiraAPI
}

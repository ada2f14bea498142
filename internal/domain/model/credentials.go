// Package model contains domain models passed between layers.
package model

import "strings"

// Credentials identify the Jira user a request acts as. They are supplied per
// request and never stored.
type Credentials struct {
	Email    string
	APIToken string
	// Instance is the Jira host, e.g. "example.atlassian.net". A value with a
	// scheme ("http://host:port") is used as the base URL verbatim.
	Instance string
}

// Complete reports whether both email and API token are present.
func (c Credentials) Complete() bool {
	return strings.TrimSpace(c.Email) != "" && strings.TrimSpace(c.APIToken) != ""
}

// Resolve picks the identity a request acts as. Credentials are never mixed
// field by field: a request that names neither email nor token uses the
// whole fallback, instance included. Otherwise only the request's own values
// are used, and a blank instance becomes defaultInstance.
func (c Credentials) Resolve(fallback Credentials, defaultInstance string) Credentials {
	if strings.TrimSpace(c.Email) == "" && strings.TrimSpace(c.APIToken) == "" {
		return fallback
	}
	if strings.TrimSpace(c.Instance) == "" {
		c.Instance = defaultInstance
	}
	return c
}

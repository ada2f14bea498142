// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - All functions accept context.Context as the first parameter.
// - Validation errors wrap ErrInvalidConfig, loader errors wrap ErrLoadConfig.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okian/worklog/internal/domain/model"
)

// Default values.
const (
	DefaultJiraInstance   = "foundever.atlassian.net"
	DefaultAdjustEstimate = "new"
	DefaultNewEstimate    = "0m"
	DefaultMetricsNS      = "worklog"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// JiraInstance is used when a request does not name an instance.
	JiraInstance string `koanf:"jira_instance"`

	// JiraEmail and JiraAPIToken form the optional deployment-level fallback
	// identity. Leave empty to require credentials on every request.
	JiraEmail    string `koanf:"jira_email"`
	JiraAPIToken string `koanf:"jira_api_token"`

	// AdjustEstimate and NewEstimate are passed through to Jira on every worklog.
	AdjustEstimate string `koanf:"adjust_estimate"`
	NewEstimate    string `koanf:"new_estimate"`

	// SubmitConcurrency bounds concurrent Jira calls within one submission.
	// 1 processes events strictly one after another.
	SubmitConcurrency int `koanf:"submit_concurrency"`

	// JiraTimeoutMS is the outbound HTTP timeout; 0 disables it.
	JiraTimeoutMS int `koanf:"jira_timeout_ms"`

	// JiraRateLimit caps outbound Jira requests per second; 0 disables it.
	JiraRateLimit float64 `koanf:"jira_rate_limit"`
	JiraRateBurst int     `koanf:"jira_rate_burst"`

	// MetricsNamespace prefixes every Prometheus metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`

	// MetricsRefreshMS is how often system gauges are sampled.
	MetricsRefreshMS int `koanf:"metrics_refresh_ms"`
}

// New creates a Config populated with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":5000",
		JiraInstance:      DefaultJiraInstance,
		AdjustEstimate:    DefaultAdjustEstimate,
		NewEstimate:       DefaultNewEstimate,
		SubmitConcurrency: 1,
		JiraTimeoutMS:     0,
		JiraRateLimit:     0,
		JiraRateBurst:     1,
		MetricsNamespace:  DefaultMetricsNS,
		MetricsRefreshMS:  10000,
	}
}

// Validate checks field ranges and enumerations.
func (c *Config) Validate(_ context.Context) error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.JiraInstance) == "":
		return fmt.Errorf("%w: jira_instance must not be empty", ErrInvalidConfig)
	case c.SubmitConcurrency < 1:
		return fmt.Errorf("%w: submit_concurrency must be >= 1, got %d", ErrInvalidConfig, c.SubmitConcurrency)
	case c.JiraTimeoutMS < 0:
		return fmt.Errorf("%w: jira_timeout_ms must be >= 0, got %d", ErrInvalidConfig, c.JiraTimeoutMS)
	case c.JiraRateLimit < 0:
		return fmt.Errorf("%w: jira_rate_limit must be >= 0", ErrInvalidConfig)
	case c.JiraRateLimit > 0 && c.JiraRateBurst < 1:
		return fmt.Errorf("%w: jira_rate_burst must be >= 1 when rate limiting", ErrInvalidConfig)
	case strings.TrimSpace(c.MetricsNamespace) == "":
		return fmt.Errorf("%w: metrics_namespace must not be empty", ErrInvalidConfig)
	case c.MetricsRefreshMS < 1:
		return fmt.Errorf("%w: metrics_refresh_ms must be >= 1, got %d", ErrInvalidConfig, c.MetricsRefreshMS)
	}
	switch c.AdjustEstimate {
	case "new", "leave", "manual", "auto":
	default:
		return fmt.Errorf("%w: adjust_estimate must be one of new, leave, manual, auto; got %q", ErrInvalidConfig, c.AdjustEstimate)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json; got %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}

// FallbackCredentials returns the deployment-level identity. Email and token
// are empty unless configured.
func (c *Config) FallbackCredentials() model.Credentials {
	return model.Credentials{
		Email:    c.JiraEmail,
		APIToken: c.JiraAPIToken,
		Instance: c.JiraInstance,
	}
}

// JiraTimeout returns the outbound timeout as a duration.
func (c *Config) JiraTimeout() time.Duration {
	return time.Duration(c.JiraTimeoutMS) * time.Millisecond
}

// MetricsRefresh returns the system gauge sampling interval.
func (c *Config) MetricsRefresh() time.Duration {
	return time.Duration(c.MetricsRefreshMS) * time.Millisecond
}

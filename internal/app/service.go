// Package service turns calendar selections into Jira worklog entries and
// implements the dependencies required by the HTTP API.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/okian/worklog/internal/adapters/worker"
	"github.com/okian/worklog/internal/domain/model"
	"github.com/okian/worklog/pkg/logger"
	"github.com/okian/worklog/pkg/metrics"
)

// Messages surfaced to API callers.
const (
	MsgNoCredentials = "No valid credentials found"
	MsgMissingFields = "missing fields"
)

// Submission outcome labels for metrics.
const (
	outcomeProcessed     = "processed"
	outcomeNoCredentials = "no_credentials"
	outcomeRejected      = "rejected"
)

// WorklogClient is the subset of the Jira client the service needs.
type WorklogClient interface {
	LogWork(ctx context.Context, creds model.Credentials, req model.WorklogRequest) (json.RawMessage, error)
	Myself(ctx context.Context, creds model.Credentials) (int, error)
}

// Service implements work-log submission and credential validation.
type Service struct {
	client   WorklogClient
	pool     *worker.Pool
	fallback model.Credentials

	// Configuration
	defaultInstance string
	adjustEstimate  string
	newEstimate     string
	concurrency     int

	// Counters exposed through GetStats.
	submissions     atomic.Int64
	worklogsCreated atomic.Int64
	worklogsFailed  atomic.Int64
	validations     atomic.Int64

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithClient sets the Jira client used for all outbound calls.
func WithClient(c WorklogClient) Option {
	return func(s *Service) {
		if c != nil {
			s.client = c
		}
	}
}

// WithFallbackCredentials sets the deployment-level identity merged into
// requests that do not carry their own.
func WithFallbackCredentials(creds model.Credentials) Option {
	return func(s *Service) {
		s.fallback = creds
	}
}

// WithDefaultInstance sets the Jira instance used when neither the request
// nor the fallback names one.
func WithDefaultInstance(instance string) Option {
	return func(s *Service) {
		if strings.TrimSpace(instance) != "" {
			s.defaultInstance = instance
		}
	}
}

// WithEstimate sets the adjustEstimate/newEstimate values sent with every worklog.
func WithEstimate(adjust, newEstimate string) Option {
	return func(s *Service) {
		if adjust != "" {
			s.adjustEstimate = adjust
		}
		if newEstimate != "" {
			s.newEstimate = newEstimate
		}
	}
}

// WithConcurrency bounds concurrent Jira calls within one submission.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. WithClient is required for Submit and Validate.
func New(opts ...Option) *Service {
	s := &Service{
		defaultInstance: "foundever.atlassian.net",
		adjustEstimate:  "new",
		newEstimate:     "0m",
		concurrency:     1,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}
	if strings.TrimSpace(s.fallback.Instance) == "" {
		s.fallback.Instance = s.defaultInstance
	}
	s.pool = worker.NewPool(
		worker.WithConcurrency(s.concurrency),
		worker.WithName("submit-pool"),
		worker.WithLogger(s.logger),
	)
	return s
}

// HasEnvCredentials reports whether a complete fallback identity is configured.
func (s *Service) HasEnvCredentials() bool {
	return s.fallback.Complete()
}

// Submit logs every event against issueKey and reports a result per event in
// input order. A failing event never stops the others. The outcome's Success
// flag only says the batch was processed.
func (s *Service) Submit(ctx context.Context, issueKey string, events []model.CalendarEvent, creds model.Credentials) (model.SubmissionOutcome, error) {
	issueKey = strings.TrimSpace(issueKey)
	if issueKey == "" {
		metrics.RecordSubmission(outcomeRejected, len(events))
		return model.SubmissionOutcome{}, ErrMissingIssueKey
	}

	creds = creds.Resolve(s.fallback, s.defaultInstance)
	if !creds.Complete() {
		metrics.RecordSubmission(outcomeNoCredentials, len(events))
		s.logger.Warn(ctx, "submission without credentials", logger.String("issue", issueKey))
		return model.SubmissionOutcome{Success: false, Error: MsgNoCredentials}, nil
	}

	s.submissions.Add(1)
	s.logger.Info(ctx, "processing submission",
		logger.String("issue", issueKey),
		logger.Int("events", len(events)),
		logger.String("instance", creds.Instance),
		logger.String("email", creds.Email),
	)

	results := worker.Map(ctx, s.pool, events,
		func(ctx context.Context, e model.CalendarEvent) model.WorklogResult {
			return s.logEvent(ctx, issueKey, creds, e)
		},
		func(e model.CalendarEvent, err error) model.WorklogResult {
			return s.failed(ctx, model.WorklogResult{Start: e.Start, End: e.End}, err)
		},
	)

	metrics.RecordSubmission(outcomeProcessed, len(events))
	return model.SubmissionOutcome{Success: true, Results: results}, nil
}

// logEvent converts and submits a single event, capturing any failure in the result.
func (s *Service) logEvent(ctx context.Context, issueKey string, creds model.Credentials, e model.CalendarEvent) model.WorklogResult {
	result := model.WorklogResult{Start: e.Start, End: e.End}

	req, err := e.ToWorklogRequest(issueKey)
	if err != nil {
		return s.failed(ctx, result, err)
	}
	req.AdjustEstimate = s.adjustEstimate
	req.NewEstimate = s.newEstimate

	resp, err := s.client.LogWork(ctx, creds, req)
	if err != nil {
		return s.failed(ctx, result, err)
	}

	s.worklogsCreated.Add(1)
	metrics.RecordWorklog(true, req.TimeSpentMinutes)
	result.Success = true
	result.Response = resp
	return result
}

func (s *Service) failed(ctx context.Context, result model.WorklogResult, err error) model.WorklogResult {
	s.worklogsFailed.Add(1)
	metrics.RecordWorklog(false, 0)
	s.logger.Warn(ctx, "worklog failed",
		logger.String("start", result.Start),
		logger.String("end", result.End),
		logger.Error(err),
	)
	result.Success = false
	result.Error = err.Error()
	return result
}

// Validate checks that email and token authenticate against the instance.
// Each call performs a fresh round-trip.
func (s *Service) Validate(ctx context.Context, creds model.Credentials) model.ValidationResult {
	s.validations.Add(1)
	if strings.TrimSpace(creds.Email) == "" || strings.TrimSpace(creds.APIToken) == "" {
		metrics.RecordCredentialValidation(false)
		return model.ValidationResult{Valid: false, Error: MsgMissingFields}
	}
	if strings.TrimSpace(creds.Instance) == "" {
		creds.Instance = s.defaultInstance
	}

	status, err := s.client.Myself(ctx, creds)
	if err != nil {
		metrics.RecordCredentialValidation(false)
		return model.ValidationResult{Valid: false, Error: err.Error()}
	}
	if status != http.StatusOK {
		metrics.RecordCredentialValidation(false)
		s.logger.Info(ctx, "credential validation rejected",
			logger.String("email", creds.Email),
			logger.Int("status", status),
		)
		return model.ValidationResult{Valid: false, Error: fmt.Sprintf("Authentication failed: %d", status)}
	}
	metrics.RecordCredentialValidation(true)
	return model.ValidationResult{Valid: true}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"submissions":         s.submissions.Load(),
		"worklogsCreated":     s.worklogsCreated.Load(),
		"worklogsFailed":      s.worklogsFailed.Load(),
		"validations":         s.validations.Load(),
		"submitConcurrency":   s.concurrency,
		"hasEnvCredentials":   s.HasEnvCredentials(),
		"defaultJiraInstance": s.fallback.Instance,
	}
}

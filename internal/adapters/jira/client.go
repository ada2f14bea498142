// Package jira is a minimal client for the Jira worklog and current-user
// endpoints. Credentials are passed on every call.
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/worklog/internal/domain/model"
	"github.com/okian/worklog/pkg/logger"
	"github.com/okian/worklog/pkg/metrics"
)

// DatetimeFormat is the only "started" layout Jira accepts: millisecond
// precision and a numeric offset without a colon.
const DatetimeFormat = "2006-01-02T15:04:05.000-0700"

// Endpoint paths.
const (
	worklogPath = "/rest/internal/3/issue/%s/worklog"
	myselfPath  = "/rest/api/3/myself"
)

// Operation labels used for metrics and logs.
const (
	opLogWork = "log_work"
	opMyself  = "myself"
)

// Defaults passed through to Jira when a request leaves them blank.
const (
	defaultAdjustEstimate = "new"
	defaultNewEstimate    = "0m"
	defaultUserAgent      = "worklog-bridge"
	maxResponseBytes      = 1 << 20
)

// worklogPayload is the body of a worklog creation request.
type worklogPayload struct {
	TimeSpent string   `json:"timeSpent"`
	Started   string   `json:"started"`
	Comment   Document `json:"comment"`
}

// Client performs authenticated calls against a Jira instance.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	logger     logger.Logger
	now        func() time.Time
}

// NewClient creates a Jira client. Without options it uses an http.Client
// with no timeout and no rate limiting.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		userAgent:  defaultUserAgent,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Named("jira")
	}
	return c
}

// LogWork creates one worklog entry and returns Jira's response body as is.
// It never retries: a repeated call creates a duplicate entry.
func (c *Client) LogWork(ctx context.Context, creds model.Credentials, req model.WorklogRequest) (json.RawMessage, error) {
	issueKey := strings.TrimSpace(req.IssueKey)
	if issueKey == "" {
		return nil, fmt.Errorf("%w: issue key is required", ErrInvalidRequest)
	}
	if req.TimeSpentMinutes < 0 {
		return nil, fmt.Errorf("%w: time spent must not be negative, got %d", ErrInvalidRequest, req.TimeSpentMinutes)
	}
	base, err := baseURL(creds.Instance)
	if err != nil {
		return nil, err
	}

	started := req.Started
	if started.IsZero() {
		started = c.now()
	}
	body, err := json.Marshal(worklogPayload{
		TimeSpent: FormatMinutes(req.TimeSpentMinutes),
		Started:   started.Format(DatetimeFormat),
		Comment:   CommentDocument(req.Comment),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encode body: %w", ErrInvalidRequest, err)
	}

	q := url.Values{}
	q.Set("adjustEstimate", valueOr(req.AdjustEstimate, defaultAdjustEstimate))
	q.Set("newEstimate", valueOr(req.NewEstimate, defaultNewEstimate))
	u := base + fmt.Sprintf(worklogPath, url.PathEscape(issueKey)) + "?" + q.Encode()

	status, respBody, err := c.do(ctx, opLogWork, http.MethodPost, u, creds, body)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		c.logger.Warn(ctx, "worklog rejected by jira",
			logger.String("issue", issueKey),
			logger.Int("status", status),
		)
		return nil, &APIError{StatusCode: status, Body: string(respBody)}
	}
	if !json.Valid(respBody) {
		return nil, fmt.Errorf("%w: status %d with non-JSON body", ErrMalformedResponse, status)
	}

	c.logger.Info(ctx, "worklog created",
		logger.String("issue", issueKey),
		logger.Int("minutes", req.TimeSpentMinutes),
		logger.String("started", started.Format(DatetimeFormat)),
	)
	return json.RawMessage(respBody), nil
}

// Myself calls the current-user endpoint and returns the HTTP status. Only
// transport failures are returned as errors.
func (c *Client) Myself(ctx context.Context, creds model.Credentials) (int, error) {
	base, err := baseURL(creds.Instance)
	if err != nil {
		return 0, err
	}
	status, _, err := c.do(ctx, opMyself, http.MethodGet, base+myselfPath, creds, nil)
	return status, err
}

func (c *Client) do(ctx context.Context, op, method, u string, creds model.Credentials, body []byte) (int, []byte, error) {
	if c.limiter != nil {
		waitStart := time.Now()
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, nil, fmt.Errorf("%w: rate limiter: %w", ErrTransport, err)
		}
		metrics.RecordJiraRateLimitWait(float64(time.Since(waitStart).Milliseconds()))
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: build request: %w", ErrTransport, err)
	}
	req.SetBasicAuth(creds.Email, creds.APIToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug(ctx, "jira request",
		logger.String("operation", op),
		logger.String("method", method),
		logger.String("url", u),
		logger.String("email", creds.Email),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	latencyMs := float64(time.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordJiraRequest(op, "error", latencyMs)
		return 0, nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	metrics.RecordJiraRequest(op, strconv.Itoa(resp.StatusCode), latencyMs)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%w: read body: %w", ErrTransport, err)
	}
	return resp.StatusCode, respBody, nil
}

// FormatMinutes renders minutes in Jira's compact duration notation.
func FormatMinutes(minutes int) string {
	return strconv.Itoa(minutes) + "m"
}

// baseURL turns an instance host into a base URL. Values that already carry a
// scheme are used as given.
func baseURL(instance string) (string, error) {
	instance = strings.TrimSpace(instance)
	if instance == "" {
		return "", ErrMissingInstance
	}
	if strings.Contains(instance, "://") {
		return strings.TrimRight(instance, "/"), nil
	}
	return "https://" + strings.TrimRight(instance, "/"), nil
}

func valueOr(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

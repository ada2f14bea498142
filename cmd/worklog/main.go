// Command worklog logs a single worklog entry to Jira using the configured
// identity (JIRA_EMAIL, JIRA_API_TOKEN, JIRA_INSTANCE or WORKLOG_* settings).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/worklog/internal/adapters/jira"
	"github.com/okian/worklog/internal/config"
	"github.com/okian/worklog/internal/domain/model"
	"github.com/okian/worklog/pkg/logger"
)

// errUsage marks invalid command-line input.
var errUsage = errors.New("usage error")

// entry is one worklog described on the command line.
type entry struct {
	issue   string
	minutes int
	started time.Time
	comment string
}

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, nil); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// run parses args, logs the entry and prints Jira's response to out. A nil
// client means one is built from configuration.
func run(ctx context.Context, args []string, out io.Writer, client *jira.Client) error {
	e, err := parseArgs(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return err
	}
	creds := cfg.FallbackCredentials()
	if !creds.Complete() {
		return fmt.Errorf("%w: set JIRA_EMAIL and JIRA_API_TOKEN", errUsage)
	}

	if client == nil {
		client = jira.NewClient(
			jira.WithTimeout(cfg.JiraTimeout()),
			jira.WithUserAgent("worklog-cli/1.0"),
		)
	}

	resp, err := client.LogWork(ctx, creds, model.WorklogRequest{
		IssueKey:         e.issue,
		TimeSpentMinutes: e.minutes,
		Started:          e.started,
		Comment:          e.comment,
		AdjustEstimate:   cfg.AdjustEstimate,
		NewEstimate:      cfg.NewEstimate,
	})
	if err != nil {
		return fmt.Errorf("log work on %s: %w", e.issue, err)
	}
	_, err = fmt.Fprintln(out, string(resp))
	return err
}

func parseArgs(args []string) (entry, error) {
	fs := flag.NewFlagSet("worklog", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		issue   = fs.String("issue", "", "Jira issue key, e.g. AI-152")
		minutes = fs.Int("minutes", 0, "Time spent in minutes")
		started = fs.String("started", "", "Start time (ISO-8601); defaults to now")
		comment = fs.String("comment", "", "Worklog comment")
	)
	if err := fs.Parse(args); err != nil {
		return entry{}, fmt.Errorf("%w: %w", errUsage, err)
	}

	e := entry{issue: *issue, minutes: *minutes, comment: *comment}
	if e.issue == "" {
		return entry{}, fmt.Errorf("%w: -issue is required", errUsage)
	}
	if e.minutes <= 0 {
		return entry{}, fmt.Errorf("%w: -minutes must be positive", errUsage)
	}
	if *started != "" {
		t, err := model.ParseTimestamp(*started)
		if err != nil {
			return entry{}, fmt.Errorf("%w: -started: %w", errUsage, err)
		}
		e.started = t
	}
	return e, nil
}

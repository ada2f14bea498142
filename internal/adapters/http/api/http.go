// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/worklog/internal/domain/model"
)

// maxBodyBytes caps request bodies accepted by the JSON endpoints.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Submit logs every event against issueKey with the given credentials.
	Submit(ctx context.Context, issueKey string, events []model.CalendarEvent, creds model.Credentials) (model.SubmissionOutcome, error)

	// Validate checks the given credentials against Jira.
	Validate(ctx context.Context, creds model.Credentials) model.ValidationResult

	// HasEnvCredentials reports whether a fallback identity is configured.
	HasEnvCredentials() bool
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	credentialsHandler *CredentialsHandler
	worklogHandler     *WorklogHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		credentialsHandler: NewCredentialsHandler(deps),
		worklogHandler:     NewWorklogHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/check-credentials", MetricsMiddleware(Recover(s.credentialsHandler.HandleCheck), "check_credentials"))
	mux.HandleFunc("/api/validate-credentials", MetricsMiddleware(Recover(s.credentialsHandler.HandleValidate), "validate_credentials"))
	mux.HandleFunc("/api/log-work", MetricsMiddleware(Recover(s.worklogHandler.HandleLogWork), "log_work"))
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Success: false, Error: msg})
}

// decodeJSON reads a size-limited JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

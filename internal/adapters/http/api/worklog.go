package api

import (
	"errors"
	"net/http"

	service "github.com/okian/worklog/internal/app"
	"github.com/okian/worklog/internal/domain/model"
	"github.com/okian/worklog/pkg/logger"
)

// Credential headers sent by the calendar page.
const (
	HeaderJiraEmail    = "X-Jira-Email"
	HeaderJiraToken    = "X-Jira-Token"
	HeaderJiraInstance = "X-Jira-Instance"
)

// WorklogHandler serves batch work-log submissions.
type WorklogHandler struct {
	deps Dependencies
}

// NewWorklogHandler creates a new worklog handler.
func NewWorklogHandler(deps Dependencies) *WorklogHandler {
	return &WorklogHandler{deps: deps}
}

type logWorkRequest struct {
	IssueKey string                `json:"issueKey"`
	Events   []model.CalendarEvent `json:"events"`
}

// HandleLogWork handles POST /api/log-work.
func (h *WorklogHandler) HandleLogWork(w http.ResponseWriter, r *http.Request) {
	const op = "api.log_work"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	ctx := r.Context()

	var req logWorkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.Get().Warn(ctx, "undecodable log-work body", logger.String("op", op), logger.Error(err))
		writeError(w, http.StatusInternalServerError, WrapKind(op, ErrBadRequest, err))
		return
	}

	creds := model.Credentials{
		Email:    r.Header.Get(HeaderJiraEmail),
		APIToken: r.Header.Get(HeaderJiraToken),
		Instance: r.Header.Get(HeaderJiraInstance),
	}

	outcome, err := h.deps.Submit(ctx, req.IssueKey, req.Events, creds)
	switch {
	case errors.Is(err, service.ErrMissingIssueKey):
		writeError(w, http.StatusBadRequest, NewKind(op, ErrMissingIssueKey))
		return
	case err != nil:
		logger.Get().Error(ctx, "log-work failed", logger.String("op", op), logger.Error(err))
		writeError(w, http.StatusInternalServerError, WrapKind(op, ErrInternal, err))
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

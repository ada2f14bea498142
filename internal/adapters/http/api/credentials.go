package api

import (
	"net/http"

	"github.com/okian/worklog/internal/domain/model"
)

// CredentialsHandler serves the credential discovery and validation endpoints.
type CredentialsHandler struct {
	deps Dependencies
}

// NewCredentialsHandler creates a new credentials handler.
func NewCredentialsHandler(deps Dependencies) *CredentialsHandler {
	return &CredentialsHandler{deps: deps}
}

type checkResponse struct {
	HasEnvCredentials bool `json:"hasEnvCredentials"`
}

type validateRequest struct {
	Email    string `json:"email"`
	Token    string `json:"token"`
	Instance string `json:"instance"`
}

// HandleCheck handles GET /api/check-credentials.
func (h *CredentialsHandler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, checkResponse{HasEnvCredentials: h.deps.HasEnvCredentials()})
}

// HandleValidate handles POST /api/validate-credentials. The check result is
// always reported with 200; only an unreadable body is a 400.
func (h *CredentialsHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	const op = "api.validate_credentials"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req validateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, WrapKind(op, ErrBadRequest, err))
		return
	}
	res := h.deps.Validate(r.Context(), model.Credentials{
		Email:    req.Email,
		APIToken: req.Token,
		Instance: req.Instance,
	})
	writeJSON(w, http.StatusOK, res)
}

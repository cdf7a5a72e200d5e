package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sevigo/shiny-updates/internal/core"
)

// CredentialsRequest is the credentials modal form.
type CredentialsRequest struct {
	Hostname       string `json:"hostname"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	ConnectionType string `json:"connection_type"`
	PublicKey      string `json:"public_key"`
	PrivateKey     string `json:"private_key"`
}

// FocusResponse tells the client which control gets focus back.
type FocusResponse struct {
	ReturnFocus string `json:"return_focus,omitempty"`
}

// CredentialsHandler submits or cancels the credentials modal.
type CredentialsHandler struct {
	coord  Coordinator
	logger *slog.Logger
}

func NewCredentialsHandler(coord Coordinator, logger *slog.Logger) *CredentialsHandler {
	return &CredentialsHandler{coord: coord, logger: logger}
}

func (h *CredentialsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	creds := core.Credentials{
		Hostname:       req.Hostname,
		Username:       req.Username,
		Password:       req.Password,
		ConnectionType: core.ConnectionType(req.ConnectionType),
		PublicKey:      req.PublicKey,
		PrivateKey:     req.PrivateKey,
	}
	if err := creds.Validate(); err != nil {
		writeError(w, h.logger, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	origin, err := h.coord.SubmitCredentials(creds)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, FocusResponse{ReturnFocus: origin})
}

// Cancel closes the modal and discards every queued job.
func (h *CredentialsHandler) Cancel(w http.ResponseWriter, _ *http.Request) {
	origin, err := h.coord.CancelCredentials()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, FocusResponse{ReturnFocus: origin})
}

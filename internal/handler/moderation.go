package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/bupang/quest/internal/auth"
	"github.com/bupang/quest/internal/model"
	"github.com/bupang/quest/internal/service"
)

// ModerationHandler owns the admin endpoints: banning users and pinning
// content. The admin check itself happens in the service — these handlers
// only move identity and parameters across.
type ModerationHandler struct {
	moderation *service.ModerationService
	logger     *slog.Logger
}

// NewModerationHandler creates a ModerationHandler.
func NewModerationHandler(moderation *service.ModerationService, logger *slog.Logger) *ModerationHandler {
	return &ModerationHandler{moderation: moderation, logger: logger}
}

type banRequest struct {
	Days int `json:"days"`
}

type banResponse struct {
	BannedUntil time.Time `json:"bannedUntil"`
}

type pinResponse struct {
	Pinned bool `json:"pinned"`
}

// HandleBanUser bans a user for a number of days from now. Zero or negative
// days produce an already-expired ban, which is how an admin lifts one.
//
// HTTP: POST /api/users/{id}/ban (RequireAuth, admin enforced in service)
// BODY: {"days": 7}
func (h *ModerationHandler) HandleBanUser(w http.ResponseWriter, r *http.Request) {
	callerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	var req banRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	until, err := h.moderation.BanUser(r.Context(), callerID, r.PathValue("id"), req.Days)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, banResponse{BannedUntil: until})
}

// HandlePinQuestion toggles the pin on a question.
//
// HTTP: POST /api/questions/{id}/pin (RequireAuth, admin enforced in service)
func (h *ModerationHandler) HandlePinQuestion(w http.ResponseWriter, r *http.Request) {
	h.togglePin(w, r, model.KindQuestion)
}

// HandlePinAnswer toggles the pin on an answer.
//
// HTTP: POST /api/answers/{id}/pin (RequireAuth, admin enforced in service)
func (h *ModerationHandler) HandlePinAnswer(w http.ResponseWriter, r *http.Request) {
	h.togglePin(w, r, model.KindAnswer)
}

func (h *ModerationHandler) togglePin(w http.ResponseWriter, r *http.Request, kind model.DocKind) {
	callerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	pinned, err := h.moderation.TogglePin(r.Context(), callerID, kind, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pinResponse{Pinned: pinned})
}

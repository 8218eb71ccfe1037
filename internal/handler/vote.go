package handler

import (
	"log/slog"
	"net/http"

	"github.com/bupang/quest/internal/auth"
	"github.com/bupang/quest/internal/model"
	"github.com/bupang/quest/internal/service"
)

// VoteHandler owns the single voting endpoint.
type VoteHandler struct {
	votes  *service.VoteService
	logger *slog.Logger
}

// NewVoteHandler creates a VoteHandler.
func NewVoteHandler(votes *service.VoteService, logger *slog.Logger) *VoteHandler {
	return &VoteHandler{votes: votes, logger: logger}
}

type voteRequest struct {
	Kind      string `json:"kind" validate:"required,oneof=question answer"`
	ID        string `json:"id" validate:"required"`
	Direction string `json:"direction" validate:"required,oneof=up down"`
}

type voteResponse struct {
	Score int `json:"score"`
}

// HandleVote applies one press of a vote button and returns the document's
// new net score. Pressing the same direction twice removes the vote;
// pressing the other direction switches it.
//
// HTTP: POST /api/vote (RequireAuth)
// BODY: {"kind": "question"|"answer", "id": "...", "direction": "up"|"down"}
func (h *VoteHandler) HandleVote(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	var req voteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	direction := model.VoteUp
	if req.Direction == model.MyVoteDown {
		direction = model.VoteDown
	}

	score, err := h.votes.Vote(r.Context(), userID, model.DocKind(req.Kind), req.ID, direction)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, voteResponse{Score: score})
}

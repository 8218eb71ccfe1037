package handler

import (
	"log/slog"
	"net/http"

	"github.com/bupang/quest/internal/auth"
	"github.com/bupang/quest/internal/model"
	"github.com/bupang/quest/internal/service"
)

// BoardHandler owns the question and answer endpoints.
type BoardHandler struct {
	board      *service.BoardService
	moderation *service.ModerationService
	logger     *slog.Logger
}

// NewBoardHandler creates a BoardHandler.
func NewBoardHandler(board *service.BoardService, moderation *service.ModerationService, logger *slog.Logger) *BoardHandler {
	return &BoardHandler{board: board, moderation: moderation, logger: logger}
}

type askQuestionRequest struct {
	Title  string `json:"title" validate:"required,max=150"`
	Detail string `json:"detail" validate:"max=10000"`
}

type postAnswerRequest struct {
	Body string `json:"body" validate:"required,max=10000"`
}

// HandleListQuestions returns the board listing.
//
// HTTP: GET /api/questions (OptionalAuth)
//
// The route sits behind OptionalAuth: anonymous callers get the full list
// with every myVote set to "none", logged-in callers see their own votes.
func (h *BoardHandler) HandleListQuestions(w http.ResponseWriter, r *http.Request) {
	callerID, _ := auth.UserIDFromContext(r.Context())

	list, err := h.board.ListQuestions(r.Context(), callerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, list)
}

// HandleAskQuestion posts a new question for the logged-in user.
//
// HTTP: POST /api/questions (RequireAuth)
func (h *BoardHandler) HandleAskQuestion(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	var req askQuestionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	question, err := h.board.AskQuestion(r.Context(), userID, req.Title, req.Detail)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, question)
}

// HandleGetQuestion returns one question with its answers.
//
// HTTP: GET /api/questions/{id} (OptionalAuth)
func (h *BoardHandler) HandleGetQuestion(w http.ResponseWriter, r *http.Request) {
	callerID, _ := auth.UserIDFromContext(r.Context())

	detail, err := h.board.GetQuestion(r.Context(), r.PathValue("id"), callerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

// HandleDeleteQuestion removes a question with everything under it.
// Allowed for the question's owner and for admins.
//
// HTTP: DELETE /api/questions/{id} (RequireAuth)
func (h *BoardHandler) HandleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	h.deleteContent(w, r, model.KindQuestion)
}

// HandlePostAnswer posts an answer under a question.
//
// HTTP: POST /api/questions/{id}/answers (RequireAuth)
func (h *BoardHandler) HandlePostAnswer(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	var req postAnswerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	answer, err := h.board.PostAnswer(r.Context(), userID, r.PathValue("id"), req.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, answer)
}

// HandleDeleteAnswer removes a single answer, leaving its question alone.
//
// HTTP: DELETE /api/answers/{id} (RequireAuth)
func (h *BoardHandler) HandleDeleteAnswer(w http.ResponseWriter, r *http.Request) {
	h.deleteContent(w, r, model.KindAnswer)
}

// deleteContent is the shared implementation of both delete endpoints; only
// the kind differs, and the ownership rule lives in the service.
func (h *BoardHandler) deleteContent(w http.ResponseWriter, r *http.Request, kind model.DocKind) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	if err := h.moderation.DeleteContent(r.Context(), userID, kind, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/xid"

	"github.com/bupang/quest/internal/apperror"
	"github.com/bupang/quest/internal/auth"
	"github.com/bupang/quest/internal/service"
)

// maxAvatarBytes caps avatar uploads. 300KB is plenty for a profile picture
// and keeps a hostile client from filling the disk one "avatar" at a time.
const maxAvatarBytes = 300 * 1024

// ProfileHandler owns the profile surface: the authenticated edit and stats
// endpoints plus the public profile page.
type ProfileHandler struct {
	authSvc   *service.AuthService
	board     *service.BoardService
	uploadDir string
	logger    *slog.Logger
}

// NewProfileHandler creates a ProfileHandler. uploadDir is where avatar
// files land; it must exist before the server starts taking requests.
func NewProfileHandler(authSvc *service.AuthService, board *service.BoardService, uploadDir string, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		authSvc:   authSvc,
		board:     board,
		uploadDir: uploadDir,
		logger:    logger,
	}
}

// HandleUpdateProfile applies a profile edit for the logged-in user.
//
// HTTP: PUT /api/profile (RequireAuth)
// BODY: multipart/form-data with fields "username", "bio", and an optional
// file part "avatar" (png/jpeg/gif/webp, 300KB max).
//
// The body is multipart rather than JSON because of the file part. The
// whole request is capped with MaxBytesReader BEFORE parsing, so an
// oversized upload fails early instead of spooling to a temp file first.
func (h *ProfileHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	// Generous envelope: the avatar cap plus room for the text fields.
	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes+64*1024)
	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid or oversized multipart body (avatar limit is 300KB)",
		})
		return
	}

	avatarName, err := h.saveAvatar(r)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.authSvc.UpdateProfile(r.Context(), userID,
		r.FormValue("username"), r.FormValue("bio"), avatarName)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// allowed avatar extensions, keyed for the lookup in saveAvatar.
var avatarExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// saveAvatar stores an uploaded avatar file under a fresh random name and
// returns that name, or "" when the request carried no avatar part. The
// random name means user input never reaches the filesystem path.
func (h *ProfileHandler) saveAvatar(r *http.Request) (string, error) {
	file, header, err := r.FormFile("avatar")
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !avatarExtensions[ext] {
		return "", apperror.ValidationFailed("avatar", "avatar must be a png, jpg, gif, or webp image")
	}

	name := xid.New().String() + ext
	dst, err := os.Create(filepath.Join(h.uploadDir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(dst.Name())
		return "", err
	}

	h.logger.Info("avatar uploaded", slog.String("file", name))
	return name, nil
}

// HandleMyStats returns the logged-in user's dashboard counters. The service
// never errors here — broken counters degrade to zeroes.
//
// HTTP: GET /api/me/stats (RequireAuth)
func (h *ProfileHandler) HandleMyStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, h.board.UserStats(r.Context(), userID))
}

// HandlePublicProfile returns any user's public page.
//
// HTTP: GET /api/users/{id}
func (h *ProfileHandler) HandlePublicProfile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "user ID is required",
		})
		return
	}

	profile, err := h.board.PublicProfile(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/marketsbot/internal/domain"
)

// SessionLookup is the read side of the session service.
type SessionLookup interface {
	Validate(ctx context.Context, token string) (json.RawMessage, error)
	Status(ctx context.Context, token string) (json.RawMessage, error)
}

// SessionHandler proxies betting-session lookups for operators.
type SessionHandler struct {
	sessions SessionLookup
	logger   *slog.Logger
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(sessions SessionLookup, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, logger: logHandler(logger, "session")}
}

// GetStatus returns the session service's status for a token.
// GET /api/sessions/{token}
func (h *SessionHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "status", h.sessions.Status)
}

// Validate reports whether a token is still usable.
// GET /api/sessions/{token}/validate
func (h *SessionHandler) Validate(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "validate", h.sessions.Validate)
}

func (h *SessionHandler) serve(w http.ResponseWriter, r *http.Request, op string,
	fn func(context.Context, string) (json.RawMessage, error)) {
	token := pathParam(r, "token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}
	body, err := fn(r.Context(), token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "session lookup failed",
			slog.String("op", op),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "session service unavailable")
		return
	}
	writeJSON(w, http.StatusOK, body)
}

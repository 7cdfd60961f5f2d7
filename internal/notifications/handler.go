package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/agroconnect-tz/marketplace/internal/auth"
	"github.com/agroconnect-tz/marketplace/internal/domain"
)

type NotificationStore interface {
	ListByProfile(ctx context.Context, profileID string, limit int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, profileID, notificationID string) error
}

type Handler struct {
	store  NotificationStore
	logger *slog.Logger
}

func NewHandler(store NotificationStore, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "not logged in")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	notifications, err := h.store.ListByProfile(r.Context(), session.ProfileID, limit)
	if err != nil {
		h.logger.Error("failed to list notifications", "error", err, "profile_id", session.ProfileID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"notifications": notifications})
}

func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "not logged in")
		return
	}

	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing notification id")
		return
	}

	if err := h.store.MarkRead(r.Context(), session.ProfileID, id); err != nil {
		if errors.Is(err, ErrNotificationNotFound) {
			h.writeError(w, http.StatusNotFound, "notification not found")
			return
		}
		h.logger.Error("failed to mark notification read", "error", err, "notification_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

package reviews

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/agroconnect-tz/marketplace/internal/auth"
	"github.com/agroconnect-tz/marketplace/internal/domain"
)

type ReviewStore interface {
	Create(ctx context.Context, buyerID, orderID string, rating int, comment string) (*domain.Review, error)
	ListBySeller(ctx context.Context, sellerID string) ([]domain.Review, float64, error)
}

type Handler struct {
	store  ReviewStore
	logger *slog.Logger
}

func NewHandler(store ReviewStore, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

type createReviewRequest struct {
	OrderID string `json:"order_id"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "not logged in")
		return
	}
	if session.UserType != domain.UserTypeBuyer {
		h.writeError(w, http.StatusForbidden, "buyers only")
		return
	}

	var req createReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OrderID == "" {
		h.writeError(w, http.StatusBadRequest, "order_id is required")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		h.writeError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}

	review, err := h.store.Create(r.Context(), session.ProfileID, req.OrderID, req.Rating, req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOrderNotFound):
			h.writeError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, ErrOrderNotDelivered):
			h.writeError(w, http.StatusUnprocessableEntity, "only delivered orders can be reviewed")
		case errors.Is(err, ErrAlreadyReviewed):
			h.writeError(w, http.StatusConflict, "order already reviewed")
		default:
			h.logger.Error("failed to create review", "error", err, "order_id", req.OrderID)
			h.writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.writeJSON(w, http.StatusCreated, review)
}

func (h *Handler) HandleListBySeller(w http.ResponseWriter, r *http.Request) {
	sellerID := r.PathValue("sellerId")
	if sellerID == "" {
		h.writeError(w, http.StatusBadRequest, "missing seller id")
		return
	}

	reviews, average, err := h.store.ListBySeller(r.Context(), sellerID)
	if err != nil {
		h.logger.Error("failed to list reviews", "error", err, "seller_id", sellerID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"reviews":        reviews,
		"average_rating": average,
	})
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

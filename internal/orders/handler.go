package orders

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/agroconnect-tz/marketplace/internal/auth"
	"github.com/agroconnect-tz/marketplace/internal/domain"
)

// OrderStore is the persistence surface the handler needs; satisfied by
// OrderRepository and mocked in tests.
type OrderStore interface {
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]domain.Order, error)
	ListBySeller(ctx context.Context, sellerID string) ([]domain.Order, error)
	TransitionStatus(ctx context.Context, id string, target domain.OrderStatus) (*domain.Order, domain.OrderStatus, error)
	GetTracking(ctx context.Context, orderID string) (*domain.DeliveryTracking, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}

type Handler struct {
	store       OrderStore
	publisher   EventPublisher
	logger      *slog.Logger
	transitions metric.Int64Counter
}

func NewHandler(store OrderStore, publisher EventPublisher, logger *slog.Logger) (*Handler, error) {
	meter := otel.Meter("orders")
	transitions, err := meter.Int64Counter("orders.status_transitions",
		metric.WithDescription("Committed order status transitions"))
	if err != nil {
		return nil, err
	}

	return &Handler{
		store:       store,
		publisher:   publisher,
		logger:      logger,
		transitions: transitions,
	}, nil
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "not logged in")
		return
	}

	var (
		list []domain.Order
		err  error
	)
	if session.UserType == domain.UserTypeSeller {
		list, err = h.store.ListBySeller(r.Context(), session.ProfileID)
	} else {
		list, err = h.store.ListByBuyer(r.Context(), session.ProfileID)
	}
	if err != nil {
		h.logger.Error("failed to list orders", "error", err, "profile_id", session.ProfileID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, list)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	order, ok := h.loadVisibleOrder(w, r, id)
	if !ok {
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

type transitionRequest struct {
	Status domain.OrderStatus `json:"status"`
}

func (h *Handler) HandleTransition(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	session, ok := auth.SessionFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "not logged in")
		return
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !domain.IsValidStatus(req.Status) {
		h.writeError(w, http.StatusBadRequest, "unknown order status")
		return
	}

	order, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to load order", "error", err, "order_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if order == nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	// Sellers drive the forward lifecycle; buyers may only cancel their own
	// still-pending order.
	switch {
	case session.UserType == domain.UserTypeSeller && order.SellerID == session.ProfileID:
	case session.UserType == domain.UserTypeBuyer && order.BuyerID == session.ProfileID &&
		req.Status == domain.OrderStatusCancelled && order.Status == domain.OrderStatusPending:
	default:
		h.writeError(w, http.StatusForbidden, "not allowed to change this order")
		return
	}

	updated, previous, err := h.store.TransitionStatus(r.Context(), id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidTransition):
			h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, domain.ErrOrderNotFound):
			h.writeError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, domain.ErrStatusConflict):
			h.writeError(w, http.StatusConflict, "order was updated concurrently, refetch and retry")
		default:
			h.logger.Error("failed to transition order", "error", err, "order_id", id)
			h.writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.transitions.Add(r.Context(), 1,
		metric.WithAttributes(attribute.String("status", string(updated.Status))))

	if h.publisher != nil {
		event := domain.OrderStatusChangedEvent{
			OrderID:   updated.ID,
			BuyerID:   updated.BuyerID,
			SellerID:  updated.SellerID,
			OldStatus: previous,
			NewStatus: updated.Status,
			Timestamp: time.Now().UTC(),
		}
		if err := h.publisher.Publish(r.Context(), updated.ID, event); err != nil {
			h.logger.Error("failed to publish status change event", "error", err, "order_id", updated.ID)
		}
	}

	h.logger.Info("order status updated", "order_id", updated.ID, "from", previous, "to", updated.Status)
	h.writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) HandleGetTracking(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	if _, ok := h.loadVisibleOrder(w, r, id); !ok {
		return
	}

	tracking, err := h.store.GetTracking(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get tracking", "error", err, "order_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if tracking == nil {
		h.writeError(w, http.StatusNotFound, "no tracking for this order yet")
		return
	}

	h.writeJSON(w, http.StatusOK, tracking)
}

// loadVisibleOrder fetches the order and enforces that the caller is its
// buyer or seller. It writes the error response itself on failure.
func (h *Handler) loadVisibleOrder(w http.ResponseWriter, r *http.Request, id string) (*domain.Order, bool) {
	session, ok := auth.SessionFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "not logged in")
		return nil, false
	}

	order, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get order", "error", err, "order_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return nil, false
	}
	if order == nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return nil, false
	}
	if order.BuyerID != session.ProfileID && order.SellerID != session.ProfileID {
		h.writeError(w, http.StatusForbidden, "not your order")
		return nil, false
	}

	return order, true
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

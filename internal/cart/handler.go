package cart

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/agroconnect-tz/marketplace/internal/auth"
	"github.com/agroconnect-tz/marketplace/internal/domain"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireBuyer(w, r)
	if !ok {
		return
	}

	cart, err := h.service.Get(r.Context(), session.ProfileID)
	if err != nil {
		h.logger.Error("failed to load cart", "error", err, "buyer_id", session.ProfileID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, cart)
}

type addItemRequest struct {
	CropID   string `json:"crop_id"`
	Quantity int    `json:"quantity"`
}

func (h *Handler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireBuyer(w, r)
	if !ok {
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cart, err := h.service.Add(r.Context(), session.ProfileID, req.CropID, req.Quantity)
	if err != nil {
		h.writeCartError(w, err, session.ProfileID)
		return
	}

	h.writeJSON(w, http.StatusOK, cart)
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) HandleUpdateItem(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireBuyer(w, r)
	if !ok {
		return
	}

	cropID := r.PathValue("cropId")
	if cropID == "" {
		h.writeError(w, http.StatusBadRequest, "missing crop id")
		return
	}

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cart, err := h.service.UpdateQuantity(r.Context(), session.ProfileID, cropID, req.Quantity)
	if err != nil {
		h.writeCartError(w, err, session.ProfileID)
		return
	}

	h.writeJSON(w, http.StatusOK, cart)
}

func (h *Handler) HandleRemoveItem(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireBuyer(w, r)
	if !ok {
		return
	}

	cropID := r.PathValue("cropId")
	if cropID == "" {
		h.writeError(w, http.StatusBadRequest, "missing crop id")
		return
	}

	cart, err := h.service.Remove(r.Context(), session.ProfileID, cropID)
	if err != nil {
		h.writeCartError(w, err, session.ProfileID)
		return
	}

	h.writeJSON(w, http.StatusOK, cart)
}

type checkoutRequest struct {
	DeliveryAddress string  `json:"delivery_address"`
	DeliveryLat     float64 `json:"delivery_lat"`
	DeliveryLng     float64 `json:"delivery_lng"`
	Phone           string  `json:"phone"`
	Notes           string  `json:"notes"`
}

func (h *Handler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireBuyer(w, r)
	if !ok {
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.service.Checkout(r.Context(), session.ProfileID, CheckoutRequest{
		DeliveryAddress: req.DeliveryAddress,
		DeliveryLat:     req.DeliveryLat,
		DeliveryLng:     req.DeliveryLng,
		Phone:           req.Phone,
		Notes:           req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyCart):
			h.writeError(w, http.StatusBadRequest, "cart is empty")
		case errors.Is(err, ErrNoDeliveryLocation):
			h.writeError(w, http.StatusBadRequest, "delivery location is required")
		case errors.Is(err, ErrMixedSellers):
			h.writeError(w, http.StatusBadRequest, "cart holds crops from more than one seller")
		case errors.Is(err, domain.ErrInsufficientQuantity):
			h.writeError(w, http.StatusConflict, err.Error())
		default:
			h.logger.Error("checkout failed", "error", err, "buyer_id", session.ProfileID)
			h.writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) writeCartError(w http.ResponseWriter, err error, buyerID string) {
	switch {
	case errors.Is(err, domain.ErrInsufficientQuantity):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrCropNotFound):
		h.writeError(w, http.StatusNotFound, "crop not found")
	default:
		h.logger.Error("cart operation failed", "error", err, "buyer_id", buyerID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *Handler) requireBuyer(w http.ResponseWriter, r *http.Request) (*domain.Session, bool) {
	session, ok := auth.SessionFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "not logged in")
		return nil, false
	}
	if session.UserType != domain.UserTypeBuyer {
		h.writeError(w, http.StatusForbidden, "buyers only")
		return nil, false
	}
	return session, true
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

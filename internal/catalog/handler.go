package catalog

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/agroconnect-tz/marketplace/internal/auth"
	"github.com/agroconnect-tz/marketplace/internal/domain"
)

type Handler struct {
	repo   *CropRepository
	logger *slog.Logger
}

func NewHandler(repo *CropRepository, logger *slog.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var (
		crops []domain.Crop
		err   error
	)
	if q := query.Get("q"); q != "" {
		crops, err = h.repo.Search(r.Context(), q)
	} else {
		crops, err = h.repo.List(r.Context(), query.Get("category"))
	}
	if err != nil {
		h.logger.Error("failed to list crops", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, crops)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing crop id")
		return
	}

	crop, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get crop", "error", err, "crop_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if crop == nil {
		h.writeError(w, http.StatusNotFound, "crop not found")
		return
	}

	h.writeJSON(w, http.StatusOK, crop)
}

func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireSeller(w, r)
	if !ok {
		return
	}

	crops, err := h.repo.ListBySeller(r.Context(), session.ProfileID)
	if err != nil {
		h.logger.Error("failed to list seller crops", "error", err, "seller_id", session.ProfileID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, crops)
}

type cropRequest struct {
	Name              string `json:"name"`
	Category          string `json:"category"`
	Description       string `json:"description"`
	PricePerUnit      int64  `json:"price_per_unit"`
	Unit              string `json:"unit"`
	QuantityAvailable int    `json:"quantity_available"`
	Location          string `json:"location"`
}

func (req *cropRequest) validate() string {
	switch {
	case req.Name == "":
		return "name is required"
	case req.Unit == "":
		return "unit is required"
	case req.PricePerUnit <= 0:
		return "price_per_unit must be positive"
	case req.QuantityAvailable < 0:
		return "quantity_available cannot be negative"
	default:
		return ""
	}
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireSeller(w, r)
	if !ok {
		return
	}

	verified, err := h.repo.SellerVerified(r.Context(), session.ProfileID)
	if err != nil {
		h.logger.Error("failed to check verification", "error", err, "seller_id", session.ProfileID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !verified {
		h.writeError(w, http.StatusForbidden, "seller is not verified yet")
		return
	}

	var req cropRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		h.writeError(w, http.StatusBadRequest, msg)
		return
	}

	crop := &domain.Crop{
		SellerID:          session.ProfileID,
		Name:              req.Name,
		Category:          req.Category,
		Description:       req.Description,
		PricePerUnit:      req.PricePerUnit,
		Unit:              req.Unit,
		QuantityAvailable: req.QuantityAvailable,
		Location:          req.Location,
	}
	if err := h.repo.Create(r.Context(), crop); err != nil {
		h.logger.Error("failed to create crop", "error", err, "seller_id", session.ProfileID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("crop listed", "crop_id", crop.ID, "seller_id", session.ProfileID)
	h.writeJSON(w, http.StatusCreated, crop)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireSeller(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing crop id")
		return
	}

	var req cropRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		h.writeError(w, http.StatusBadRequest, msg)
		return
	}

	crop := &domain.Crop{
		ID:                id,
		SellerID:          session.ProfileID,
		Name:              req.Name,
		Category:          req.Category,
		Description:       req.Description,
		PricePerUnit:      req.PricePerUnit,
		Unit:              req.Unit,
		QuantityAvailable: req.QuantityAvailable,
		Location:          req.Location,
	}
	if err := h.repo.Update(r.Context(), crop); err != nil {
		if errors.Is(err, domain.ErrCropNotFound) {
			h.writeError(w, http.StatusNotFound, "crop not found")
			return
		}
		h.logger.Error("failed to update crop", "error", err, "crop_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	updated, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to reload crop", "error", err, "crop_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireSeller(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing crop id")
		return
	}

	if err := h.repo.Delete(r.Context(), id, session.ProfileID); err != nil {
		if errors.Is(err, domain.ErrCropNotFound) {
			h.writeError(w, http.StatusNotFound, "crop not found")
			return
		}
		h.logger.Error("failed to delete crop", "error", err, "crop_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("crop removed", "crop_id", id, "seller_id", session.ProfileID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) requireSeller(w http.ResponseWriter, r *http.Request) (*domain.Session, bool) {
	session, ok := auth.SessionFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "not logged in")
		return nil, false
	}
	if session.UserType != domain.UserTypeSeller {
		h.writeError(w, http.StatusForbidden, "sellers only")
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

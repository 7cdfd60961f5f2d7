package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/agroconnect-tz/marketplace/internal/domain"
)

type Handler struct {
	repo   *AuthRepository
	logger *slog.Logger
}

func NewHandler(repo *AuthRepository, logger *slog.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

type registerRequest struct {
	FullName            string          `json:"full_name"`
	Email               string          `json:"email"`
	Phone               string          `json:"phone"`
	Password            string          `json:"password"`
	UserType            domain.UserType `json:"user_type"`
	Location            string          `json:"location"`
	BusinessName        string          `json:"business_name,omitempty"`
	BusinessDescription string          `json:"business_description,omitempty"`
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" || req.FullName == "" {
		h.writeError(w, http.StatusBadRequest, "full_name, email and password are required")
		return
	}
	if req.UserType != domain.UserTypeBuyer && req.UserType != domain.UserTypeSeller {
		h.writeError(w, http.StatusBadRequest, "user_type must be buyer or seller")
		return
	}
	if req.UserType == domain.UserTypeSeller && req.BusinessName == "" {
		h.writeError(w, http.StatusBadRequest, "business_name is required for sellers")
		return
	}

	profile, err := h.repo.Register(r.Context(), Registration{
		FullName:            req.FullName,
		Email:               req.Email,
		Phone:               req.Phone,
		Password:            req.Password,
		UserType:            req.UserType,
		Location:            req.Location,
		BusinessName:        req.BusinessName,
		BusinessDescription: req.BusinessDescription,
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			h.writeError(w, http.StatusConflict, "email already registered")
			return
		}
		h.logger.Error("failed to register profile", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("profile registered", "profile_id", profile.ID, "user_type", profile.UserType)
	h.writeJSON(w, http.StatusCreated, profile)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.repo.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			h.writeError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		h.logger.Error("failed to log in", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("login", "profile_id", session.ProfileID)
	h.writeJSON(w, http.StatusOK, session)
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	session, ok := SessionFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "not logged in")
		return
	}

	if err := h.repo.Logout(r.Context(), session.Token); err != nil {
		h.logger.Error("failed to log out", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	session, ok := SessionFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "not logged in")
		return
	}

	profile, err := h.repo.GetProfile(r.Context(), session.ProfileID)
	if err != nil {
		h.logger.Error("failed to load profile", "error", err, "profile_id", session.ProfileID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if profile == nil {
		h.writeError(w, http.StatusNotFound, "profile not found")
		return
	}

	h.writeJSON(w, http.StatusOK, profile)
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

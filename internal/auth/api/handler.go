package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"ms-ordering/internal/auth"
	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
	"ms-ordering/internal/utils"
)

type Handler struct {
	AuthService *auth.AuthService
	Logger      *logger.Logger
}

func NewHandler(authService *auth.AuthService, log *logger.Logger) *Handler {
	return &Handler{AuthService: authService, Logger: log}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", "validation_error"))
		return
	}

	resp, err := h.AuthService.Login(utils.ClientIP(r), req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Login failed: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("login successful", resp))
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", "validation_error"))
		return
	}

	user, err := h.AuthService.Register(req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Register failed: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("user created successfully", user))
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFrom(r.Context())
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("unauthorized", "auth_error"))
		return
	}

	user, err := h.AuthService.GetMe(claims.UserID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("current user", user))
}

// Logout only acknowledges; token discard happens client-side, the token
// itself stays valid until expiry.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("logged out successfully", nil))
}

func (h *Handler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFrom(r.Context())
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("unauthorized", "auth_error"))
		return
	}

	var req models.PasswordUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", "validation_error"))
		return
	}

	if err := h.AuthService.UpdatePassword(claims.UserID, req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdatePassword failed: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("password updated successfully", nil))
}

func (h *Handler) UpdateEmail(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFrom(r.Context())
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("unauthorized", "auth_error"))
		return
	}

	var req models.EmailUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", "validation_error"))
		return
	}

	user, err := h.AuthService.UpdateEmail(claims.UserID, req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateEmail failed: %v", err))
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("email updated successfully", user))
}

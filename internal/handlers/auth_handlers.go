package handlers

import (
	"net/http"
	"taskManager/internal/handlers/dto"
	"taskManager/internal/logger"

	"go.uber.org/zap"
)

type AuthHandler struct {
	AuthService AuthService
}

func NewAuthHandler(authService AuthService) AuthHandler {
	return AuthHandler{
		AuthService: authService,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var request dto.RegisterRequest
	if !decodeJSON(w, r, &request) {
		return
	}
	request.Normalize()
	if !validateRequest(w, r, &request) {
		return
	}

	registered, token, err := h.AuthService.Register(r.Context(), request.Name, request.Email, request.Password)
	if err != nil {
		handleError(w, r, err, "register")
		return
	}

	logger.Info("HTTP_OUT: Пользователь зарегистрирован", zap.String("user_id", registered.UUID.String()))

	responseWithSuccess(w, http.StatusCreated,
		toPayload("message", "User registered successfully"),
		toPayload("token", token),
		toPayload("user", registered),
	)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var request dto.LoginRequest
	if !decodeJSON(w, r, &request) {
		return
	}
	request.Normalize()
	if !validateRequest(w, r, &request) {
		return
	}

	loggedIn, token, err := h.AuthService.Login(r.Context(), request.Email, request.Password)
	if err != nil {
		handleError(w, r, err, "login")
		return
	}

	responseWithSuccess(w, http.StatusOK,
		toPayload("message", "Login successful"),
		toPayload("token", token),
		toPayload("user", loggedIn),
	)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	found, err := h.AuthService.GetUser(r.Context(), id)
	if err != nil {
		handleError(w, r, err, "get_me")
		return
	}

	responseWithSuccess(w, http.StatusOK, toPayload("user", found))
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	var request dto.UpdateProfileRequest
	if !decodeJSON(w, r, &request) {
		return
	}
	request.Normalize()
	if !validateRequest(w, r, &request) {
		return
	}

	updated, err := h.AuthService.UpdateProfile(r.Context(), id, deref(request.Name), deref(request.Email))
	if err != nil {
		handleError(w, r, err, "update_profile")
		return
	}

	responseWithSuccess(w, http.StatusOK,
		toPayload("message", "Profile updated successfully"),
		toPayload("user", updated),
	)
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	var request dto.ChangePasswordRequest
	if !decodeJSON(w, r, &request) {
		return
	}
	if !validateRequest(w, r, &request) {
		return
	}

	if err := h.AuthService.ChangePassword(r.Context(), id, request.CurrentPassword, request.NewPassword); err != nil {
		handleError(w, r, err, "change_password")
		return
	}

	responseWithSuccess(w, http.StatusOK, toPayload("message", "Password changed successfully"))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/NuncEstBibendum/agrolink-api/internal/application/services"
	"github.com/NuncEstBibendum/agrolink-api/internal/auth"
	"github.com/NuncEstBibendum/agrolink-api/internal/domain"
)

type AuthHandler struct {
	svc services.AuthService
}

func NewAuthHandler(svc services.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type registerRequest struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	Password   string `json:"password"`
	Profession string `json:"profession"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Email == "" || req.Name == "" || req.Password == "" || req.Profession == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "email, name, password and profession are required"})
		return
	}
	bundle, err := h.svc.Register(req.Email, req.Name, req.Password, domain.Role(req.Profession))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, bundle)
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if !decodeBody(w, r, &req) {
		return
	}
	bundle, err := h.svc.SignIn(req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bundle)
}

type updatePasswordRequest struct {
	OldPassword        string `json:"oldPassword"`
	NewPassword        string `json:"newPassword"`
	ConfirmNewPassword string `json:"confirmNewPassword"`
}

func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}
	var req updatePasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.NewPassword != req.ConfirmNewPassword {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "passwords do not match"})
		return
	}
	bundle, err := h.svc.UpdatePassword(userID, req.OldPassword, req.NewPassword)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bundle)
}

func (h *AuthHandler) EmailFree(w http.ResponseWriter, r *http.Request) {
	userEmail := r.URL.Query().Get("email")
	if userEmail == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "email is required"})
		return
	}
	var exclude *uuid.UUID
	if idStr := r.URL.Query().Get("id"); idStr != "" {
		id, err := uuid.Parse(idStr)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id"})
			return
		}
		exclude = &id
	}
	free, err := h.svc.IsEmailFree(userEmail, exclude)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"emailFree": free})
}

type forgottenPasswordRequest struct {
	Email       string `json:"email"`
	RedirectURL string `json:"redirectURL"`
}

func (h *AuthHandler) ForgottenPassword(w http.ResponseWriter, r *http.Request) {
	var req forgottenPasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Email == "" || req.RedirectURL == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "email and redirectURL are required"})
		return
	}
	if err := h.svc.SendPasswordRecovery(r.Context(), req.Email, req.RedirectURL, time.Now()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

type updatePasswordByLinkRequest struct {
	ID       string `json:"id"`
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *AuthHandler) UpdatePasswordByLink(w http.ResponseWriter, r *http.Request) {
	var req updatePasswordByLinkRequest
	if !decodeBody(w, r, &req) {
		return
	}
	userID, err := uuid.Parse(req.ID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return
	}
	if err := h.svc.UpdatePasswordByLink(userID, req.Token, req.Password, time.Now()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

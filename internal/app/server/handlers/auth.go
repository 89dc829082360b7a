package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MZhann/AI-Legal-Assistant/internal/core/domain"
	"github.com/MZhann/AI-Legal-Assistant/internal/core/services"
	"github.com/MZhann/AI-Legal-Assistant/internal/platform/logger"
)

type AuthHandler struct {
	userSvc  *services.UserService
	tokenSvc *services.TokenService
}

func NewAuthHandler(u *services.UserService, t *services.TokenService) *AuthHandler {
	return &AuthHandler{userSvc: u, tokenSvc: t}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	var req struct {
		Email      string `json:"email"`
		Password   string `json:"password"`
		FirstName  string `json:"first_name"`
		LastName   string `json:"last_name"`
		FatherName string `json:"father_name"`
		Role       string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.Role == "" {
		req.Role = string(domain.RoleUser)
	}
	user, err := h.userSvc.Register(r.Context(), services.RegisterInput{
		Email:      req.Email,
		Password:   req.Password,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		FatherName: req.FatherName,
		Role:       domain.Role(req.Role),
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmailTaken):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, domain.ErrValidation):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			log.ErrorContext(r.Context(), "auth handler - register failed", "err", err)
			http.Error(w, "registration failed", http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":    user.ID,
		"email": user.Email,
		"role":  user.Role,
	})
	log.InfoContext(r.Context(), "auth handler - registered", "user_id", user.ID, "role", user.Role)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	user, err := h.userSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		log.ErrorContext(r.Context(), "auth handler - login failed", "err", err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}
	token, err := h.tokenSvc.GenerateToken(user.ID, user.Role)
	if err != nil {
		log.ErrorContext(r.Context(), "auth handler - generate token failed", "user_id", user.ID, "err", err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"token": token,
		"user": map[string]any{
			"id":         user.ID,
			"email":      user.Email,
			"first_name": user.FirstName,
			"last_name":  user.LastName,
			"role":       user.Role,
		},
	})
	log.InfoContext(r.Context(), "auth handler - login success", "user_id", user.ID)
}

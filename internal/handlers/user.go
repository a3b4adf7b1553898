package handlers

import (
	"encoding/json"
	"net/http"

	"campus-rides-backend/internal/models"
	"campus-rides-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// AuthResponse carries a user together with their issued token
type AuthResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// Register handles POST /api/v1/users
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, token, err := h.userService.Register(r.Context(), req)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Str("email", req.Email).Msg("Failed to register user")
		respondError(w, err.Error(), statusForError(err))
		return
	}

	log.Ctx(r.Context()).Info().Int64("user_id", user.ID).Msg("User registered")
	respondJSON(w, http.StatusCreated, AuthResponse{User: user, Token: token})
}

// LoginRequest represents the request body for a login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/v1/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, token, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		log.Ctx(r.Context()).Warn().Err(err).Str("email", req.Email).Msg("Login failed")
		// wrong email and wrong password look the same to the caller
		respondError(w, "wrong email or password", http.StatusUnauthorized)
		return
	}

	log.Ctx(r.Context()).Info().Int64("user_id", user.ID).Msg("User logged in")
	respondJSON(w, http.StatusOK, AuthResponse{User: user, Token: token})
}

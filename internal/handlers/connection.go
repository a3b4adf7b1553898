package handlers

import (
	"encoding/json"
	"net/http"

	"campus-rides-backend/internal/middleware"
	"campus-rides-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// ConnectionHandler handles acquaintance-edge HTTP requests
type ConnectionHandler struct {
	connectionService *services.ConnectionService
}

// NewConnectionHandler creates a new connection handler
func NewConnectionHandler(connectionService *services.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{connectionService: connectionService}
}

// ConnectRequest represents the request body for creating a connection
type ConnectRequest struct {
	UserID int64 `json:"user_id"`
}

// ConnectResponse reports whether a new edge was created
type ConnectResponse struct {
	Created bool `json:"created"`
}

// Connect handles POST /api/v1/connections
func (h *ConnectionHandler) Connect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req ConnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID < 1 {
		respondError(w, "user_id is required", http.StatusBadRequest)
		return
	}

	created, err := h.connectionService.Connect(ctx, userID, req.UserID)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Int64("user_id", userID).Int64("other_id", req.UserID).Msg("Failed to connect users")
		respondError(w, err.Error(), statusForError(err))
		return
	}

	if created {
		log.Ctx(ctx).Info().Int64("user_id", userID).Int64("other_id", req.UserID).Msg("Connection created")
	}
	respondJSON(w, http.StatusOK, ConnectResponse{Created: created})
}

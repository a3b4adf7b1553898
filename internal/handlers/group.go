package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"campus-rides-backend/internal/middleware"
	"campus-rides-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// GroupHandler handles trip-group HTTP requests
type GroupHandler struct {
	groupService *services.GroupService
}

// NewGroupHandler creates a new group handler
func NewGroupHandler(groupService *services.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

// parseSearchQuery builds a SearchQuery from URL query parameters
func parseSearchQuery(values url.Values) (services.SearchQuery, error) {
	query := services.SearchQuery{
		StartTerm: values.Get("start"),
		DestTerm:  values.Get("dest"),
		Scope:     services.ScopeWindow,
	}

	if raw := values.Get("min_capacity"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return query, &services.ValidationError{Field: "min_capacity", Msg: "must be a positive integer"}
		}
		query.MinCapacity = n
	}
	if raw := values.Get("min_seats_left"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return query, &services.ValidationError{Field: "min_seats_left", Msg: "must be a positive integer"}
		}
		query.MinSeatsLeft = n
	}
	if raw := values.Get("departure"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return query, &services.ValidationError{Field: "departure", Msg: "must be an RFC 3339 timestamp"}
		}
		query.Departure = &t
	}
	switch scope := values.Get("scope"); scope {
	case "", string(services.ScopeWindow):
	case string(services.ScopeDay):
		query.Scope = services.ScopeDay
	default:
		return query, &services.ValidationError{Field: "scope", Msg: "must be window or day"}
	}
	if raw := values.Get("window_mins"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return query, &services.ValidationError{Field: "window_mins", Msg: "must be a positive integer"}
		}
		query.WindowMinutes = n
	}
	return query, nil
}

// Search handles GET /api/v1/groups
func (h *GroupHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID := middleware.GetUserID(ctx)

	query, err := parseSearchQuery(r.URL.Query())
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	views, err := h.groupService.Search(ctx, query, viewerID)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Int64("viewer_id", viewerID).Msg("Search failed")
		respondError(w, "Failed to search groups", statusForError(err))
		return
	}
	respondJSON(w, http.StatusOK, views)
}

// Create handles POST /api/v1/groups
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var spec services.CreateGroupSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	view, denial, err := h.groupService.Create(ctx, spec, userID)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Int64("user_id", userID).Msg("Failed to create group")
		respondError(w, err.Error(), statusForError(err))
		return
	}
	if denial != nil {
		respondDenial(w, denial)
		return
	}

	log.Ctx(ctx).Info().Int64("user_id", userID).Int64("group_id", view.ID).Msg("Group created")
	respondJSON(w, http.StatusCreated, view)
}

// Get handles GET /api/v1/groups/{group_id}
func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	groupID, ok := pathID(w, r)
	if !ok {
		return
	}

	view, err := h.groupService.Present(ctx, groupID, middleware.GetUserID(ctx))
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Int64("group_id", groupID).Msg("Failed to present group")
		respondError(w, err.Error(), statusForError(err))
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Delete handles DELETE /api/v1/groups/{group_id}
func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	groupID, ok := pathID(w, r)
	if !ok {
		return
	}

	denial, err := h.groupService.Delete(ctx, groupID, userID)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Int64("group_id", groupID).Int64("user_id", userID).Msg("Failed to delete group")
		respondError(w, err.Error(), statusForError(err))
		return
	}
	if denial != nil {
		respondDenial(w, denial)
		return
	}

	log.Ctx(ctx).Info().Int64("group_id", groupID).Int64("user_id", userID).Msg("Group deleted")
	w.WriteHeader(http.StatusNoContent)
}

// Join handles POST /api/v1/groups/{group_id}/join
func (h *GroupHandler) Join(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	groupID, ok := pathID(w, r)
	if !ok {
		return
	}

	view, denial, err := h.groupService.Join(ctx, groupID, userID)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Int64("group_id", groupID).Int64("user_id", userID).Msg("Failed to join group")
		respondError(w, err.Error(), statusForError(err))
		return
	}
	if denial != nil {
		respondDenial(w, denial)
		return
	}

	log.Ctx(ctx).Info().Int64("group_id", groupID).Int64("user_id", userID).Msg("User joined group")
	respondJSON(w, http.StatusOK, view)
}

// Leave handles POST /api/v1/groups/{group_id}/leave
func (h *GroupHandler) Leave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	groupID, ok := pathID(w, r)
	if !ok {
		return
	}

	denial, err := h.groupService.Leave(ctx, groupID, userID)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Int64("group_id", groupID).Int64("user_id", userID).Msg("Failed to leave group")
		respondError(w, err.Error(), statusForError(err))
		return
	}
	if denial != nil {
		respondDenial(w, denial)
		return
	}

	log.Ctx(ctx).Info().Int64("group_id", groupID).Int64("user_id", userID).Msg("User left group")
	w.WriteHeader(http.StatusNoContent)
}

// MyRides handles GET /api/v1/rides/mine
func (h *GroupHandler) MyRides(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	rides, err := h.groupService.MyRides(ctx, userID)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Int64("user_id", userID).Msg("Failed to list rides")
		respondError(w, err.Error(), statusForError(err))
		return
	}
	respondJSON(w, http.StatusOK, rides)
}

// pathID parses the group_id URL parameter
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "group_id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		respondError(w, "group_id must be a positive integer", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

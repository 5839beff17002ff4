package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"subvault/internal/leaderboard"
	"subvault/internal/leaderboard/service"
)

type Handler struct {
	LeaderboardService *service.Service
}

func NewLeaderboardHandler(ls *service.Service) *Handler {
	return &Handler{LeaderboardService: ls}
}

// Top returns the plans ranked by subscriber count. ?limit= overrides the
// default of 5.
func (h *Handler) Top(w http.ResponseWriter, r *http.Request) {
	n := leaderboard.DefaultTopN
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			errorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		n = limit
	}

	stats, err := h.LeaderboardService.Top(r.Context(), n)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "failed to build leaderboard")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

func errorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

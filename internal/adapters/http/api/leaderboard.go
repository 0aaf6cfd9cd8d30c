package api

import "net/http"

// LeaderboardHandler serves the leaderboard derived from stored records.
type LeaderboardHandler struct {
	deps LeaderboardDependencies
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps LeaderboardDependencies) *LeaderboardHandler {
	return &LeaderboardHandler{deps: deps}
}

// HandleGetData handles GET /api/data requests. Any failure upstream is a
// 500 carrying the error text.
func (h *LeaderboardHandler) HandleGetData(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_data"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	board, err := h.deps.Leaderboard(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, WrapKind(op, ErrUpstream, err))
		return
	}
	writeJSON(w, http.StatusOK, board)
}

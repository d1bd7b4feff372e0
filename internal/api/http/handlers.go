package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/algo-arena/algoarena-server/internal/session"
	"github.com/algo-arena/algoarena-server/internal/store"
)

// HealthzHandler reports liveness and the number of active connections.
func HealthzHandler(registry *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"status":      "ok",
			"connections": registry.Len(),
		})
	}
}

// TopPlayersHandler serves the leaderboard read model: GET /players/top?n=10.
func TopPlayersHandler(players store.PlayerDirectory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := 10
		if v := r.URL.Query().Get("n"); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil || parsed < 1 || parsed > 100 {
				http.Error(w, "n must be 1..100", http.StatusBadRequest)
				return
			}
			n = parsed
		}
		ranks, err := players.TopPlayers(r.Context(), n)
		if err != nil {
			http.Error(w, "leaderboard unavailable", http.StatusInternalServerError)
			return
		}
		if ranks == nil {
			ranks = []store.PlayerRank{}
		}
		writeJSON(w, ranks)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

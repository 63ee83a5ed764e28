package server

import (
	"log/slog"
	"net/http"
	"time"
)

// ServerSummaryResponse is one row of the server directory.
type ServerSummaryResponse struct {
	ServerID      string    `json:"server_id"`
	ServerName    string    `json:"server_name"`
	Sessions      int       `json:"sessions"`
	ActivePlayers int       `json:"active_players"`
	FirstSeenAt   time.Time `json:"first_seen_at"`
	LastSeenAt    time.Time `json:"last_seen_at"`
}

func handleListServers(logger *slog.Logger, servers Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := servers.ListServers(r.Context())
		if err != nil {
			logger.Error("listing servers", "error", err)
			writeError(w, http.StatusInternalServerError, "listing servers failed")
			return
		}

		out := make([]ServerSummaryResponse, 0, len(rows))
		for _, sv := range rows {
			out = append(out, ServerSummaryResponse{
				ServerID:      sv.ServerID,
				ServerName:    sv.ServerName,
				Sessions:      sv.Sessions,
				ActivePlayers: sv.ActivePlayers,
				FirstSeenAt:   sv.FirstSeenAt,
				LastSeenAt:    sv.LastSeenAt,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

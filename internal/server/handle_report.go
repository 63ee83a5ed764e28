package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/openfrag/stattrack/internal/cache"
	"github.com/openfrag/stattrack/internal/metrics"
	"github.com/openfrag/stattrack/internal/rounds"
)

// RoundReportResponse is the reconstructed replay of one round.
type RoundReportResponse struct {
	ServerID        string             `json:"server_id"`
	ServerName      string             `json:"server_name"`
	MapName         string             `json:"map_name"`
	GameType        string             `json:"game_type"`
	StartedAt       time.Time          `json:"started_at"`
	EndedAt         time.Time          `json:"ended_at"`
	DurationMinutes int                `json:"duration_minutes"`
	Participants    int                `json:"participants"`
	Sessions        int                `json:"sessions"`
	Active          bool               `json:"active"`
	TeamLabels      []string           `json:"team_labels"`
	Snapshots       []SnapshotResponse `json:"snapshots"`
}

// SnapshotResponse is the leaderboard at one minute tick.
type SnapshotResponse struct {
	At      time.Time                  `json:"at"`
	Entries []LeaderboardEntryResponse `json:"entries"`
}

type LeaderboardEntryResponse struct {
	Rank       int    `json:"rank"`
	PlayerName string `json:"player_name"`
	Score      int    `json:"score"`
	Kills      int    `json:"kills"`
	Deaths     int    `json:"deaths"`
	Ping       int    `json:"ping"`
	Team       int    `json:"team"`
	TeamLabel  string `json:"team_label,omitempty"`
}

func handleRoundReport(logger *slog.Logger, svc RoundService, c *cache.Cache, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vals := r.URL.Query()
		at, err := parseTimeParam(vals, "at")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		ref := rounds.RoundRef{
			ServerID: vals.Get("server"),
			MapName:  vals.Get("map"),
			At:       at,
		}

		rep, hit := c.GetReport(r.Context(), ref)
		if hit {
			m.CacheHits.WithLabelValues("report").Inc()
		} else {
			m.CacheMisses.WithLabelValues("report").Inc()

			start := time.Now()
			rep, err = svc.RoundReport(r.Context(), ref)
			if err != nil {
				switch {
				case errors.Is(err, rounds.ErrInvalidQuery):
					writeError(w, http.StatusBadRequest, err.Error())
				case errors.Is(err, rounds.ErrRoundNotFound):
					writeError(w, http.StatusNotFound, err.Error())
				default:
					logger.Error("building round report", "error", err)
					writeError(w, http.StatusInternalServerError, "building report failed")
				}
				return
			}
			m.ReportsBuilt.Inc()
			m.ReportBuildSeconds.Observe(time.Since(start).Seconds())
			c.SetReport(r.Context(), ref, rep)
		}

		writeJSON(w, http.StatusOK, toRoundReport(rep))
	}
}

func toRoundReport(rep *rounds.RoundReport) RoundReportResponse {
	out := RoundReportResponse{
		ServerID:        rep.ServerID,
		ServerName:      rep.ServerName,
		MapName:         rep.MapName,
		GameType:        rep.GameType,
		StartedAt:       rep.StartedAt,
		EndedAt:         rep.EndedAt,
		DurationMinutes: rep.DurationMinutes,
		Participants:    rep.Participants,
		Sessions:        rep.Sessions,
		Active:          rep.Active,
		TeamLabels:      rep.TeamLabels,
		Snapshots:       make([]SnapshotResponse, 0, len(rep.Snapshots)),
	}
	if out.TeamLabels == nil {
		out.TeamLabels = []string{}
	}
	for _, snap := range rep.Snapshots {
		s := SnapshotResponse{
			At:      snap.At,
			Entries: make([]LeaderboardEntryResponse, 0, len(snap.Entries)),
		}
		for _, e := range snap.Entries {
			s.Entries = append(s.Entries, LeaderboardEntryResponse{
				Rank:       e.Rank,
				PlayerName: e.PlayerName,
				Score:      e.Score,
				Kills:      e.Kills,
				Deaths:     e.Deaths,
				Ping:       e.Ping,
				Team:       e.Team,
				TeamLabel:  e.TeamLabel,
			})
		}
		out.Snapshots = append(out.Snapshots, s)
	}
	return out
}

package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/openfrag/stattrack/internal/cache"
	"github.com/openfrag/stattrack/internal/metrics"
	"github.com/openfrag/stattrack/internal/rounds"
)

// RoundResponse is one inferred round in a listing.
type RoundResponse struct {
	ServerID        string    `json:"server_id"`
	ServerName      string    `json:"server_name"`
	MapName         string    `json:"map_name"`
	Sequence        int       `json:"sequence"`
	GameType        string    `json:"game_type"`
	StartedAt       time.Time `json:"started_at"`
	EndedAt         time.Time `json:"ended_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Participants    int       `json:"participants"`
	Sessions        int       `json:"sessions"`
	Active          bool      `json:"active"`
}

// RoundListResponse is a page of rounds plus the pre-pagination total.
type RoundListResponse struct {
	Rounds []RoundResponse `json:"rounds"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

func handleListRounds(logger *slog.Logger, svc RoundService, c *cache.Cache, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := parseListQuery(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		page, hit := c.GetRounds(r.Context(), q)
		if hit {
			m.CacheHits.WithLabelValues("rounds").Inc()
		} else {
			m.CacheMisses.WithLabelValues("rounds").Inc()

			page, err = svc.ListRounds(r.Context(), q)
			if err != nil {
				if errors.Is(err, rounds.ErrInvalidQuery) {
					writeError(w, http.StatusBadRequest, err.Error())
					return
				}
				logger.Error("listing rounds", "error", err)
				writeError(w, http.StatusInternalServerError, "listing rounds failed")
				return
			}
			m.RoundsComputed.Add(float64(len(page.Rounds)))
			c.SetRounds(r.Context(), q, page)
		}

		writeJSON(w, http.StatusOK, toRoundList(page))
	}
}

func toRoundList(page rounds.RoundPage) RoundListResponse {
	out := RoundListResponse{
		Rounds: make([]RoundResponse, 0, len(page.Rounds)),
		Total:  page.Total,
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	for _, rd := range page.Rounds {
		out.Rounds = append(out.Rounds, RoundResponse{
			ServerID:        rd.ServerID,
			ServerName:      rd.ServerName,
			MapName:         rd.MapName,
			Sequence:        rd.ID.Sequence,
			GameType:        rd.GameType,
			StartedAt:       rd.StartedAt,
			EndedAt:         rd.EndedAt,
			DurationMinutes: rd.DurationMinutes,
			Participants:    rd.Participants,
			Sessions:        rd.Sessions,
			Active:          rd.Active,
		})
	}
	return out
}

func parseListQuery(r *http.Request) (rounds.RoundQuery, error) {
	vals := r.URL.Query()

	q := rounds.RoundQuery{
		ServerID:    vals.Get("server"),
		MapName:     vals.Get("map"),
		GameType:    vals.Get("game_type"),
		MapContains: vals.Get("map_contains"),
		Sort:        rounds.RoundSort(vals.Get("sort")),
		Order:       rounds.SortOrder(vals.Get("order")),
	}

	var err error
	if q.From, err = parseTimeParam(vals, "from"); err != nil {
		return q, err
	}
	if q.To, err = parseTimeParam(vals, "to"); err != nil {
		return q, err
	}
	if q.Active, err = parseBoolParam(vals, "active"); err != nil {
		return q, err
	}
	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"min_duration", &q.MinDuration},
		{"max_duration", &q.MaxDuration},
		{"min_players", &q.MinPlayers},
		{"max_players", &q.MaxPlayers},
		{"limit", &q.Limit},
		{"offset", &q.Offset},
	} {
		if *p.dst, err = parseIntParam(vals, p.name); err != nil {
			return q, err
		}
	}
	return q, nil
}

func parseTimeParam(vals url.Values, name string) (time.Time, error) {
	raw := vals.Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be an RFC3339 timestamp", name)
	}
	return t, nil
}

func parseIntParam(vals url.Values, name string) (int, error) {
	raw := vals.Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}

func parseBoolParam(vals url.Values, name string) (*bool, error) {
	raw := vals.Get(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be true or false", name)
	}
	return &b, nil
}

package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/openfrag/stattrack/internal/rounds"
)

type seedPlayer struct {
	name       string
	joinMinute int
	rate       int // points per minute
	team       int
	label      string
}

type seedRound struct {
	serverID   string
	serverName string
	mapName    string
	gameType   string
	start      time.Time
	minutes    int
	active     bool
	players    []seedPlayer
}

// SeedDemo loads a small synthetic match history into an empty database so
// the API has rounds to show on first boot: three finished rounds on one
// server with a map rotation in between, plus a round still in progress on a
// second server. Idempotent: does nothing once any session exists.
func (s *Store) SeedDemo(ctx context.Context, logger *slog.Logger, now time.Time) error {
	count, err := s.CountSessions(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now = now.UTC().Truncate(time.Minute)
	demo := []seedRound{
		{
			serverID: "alpha", serverName: "Alpha Frag House",
			mapName: "q3dm7", gameType: "ffa",
			start: now.Add(-170 * time.Minute), minutes: 20,
			players: []seedPlayer{
				{name: "grunt", rate: 3},
				{name: "slash", rate: 2},
				{name: "keel", joinMinute: 4, rate: 4},
			},
		},
		{
			serverID: "alpha", serverName: "Alpha Frag House",
			mapName: "dm6", gameType: "tdm",
			start: now.Add(-145 * time.Minute), minutes: 25,
			players: []seedPlayer{
				{name: "grunt", rate: 2, team: 1, label: "RED"},
				{name: "slash", rate: 3, team: 2, label: "BLUE"},
				{name: "orbb", joinMinute: 2, rate: 2, team: 1, label: "RED"},
				{name: "mynx", joinMinute: 5, rate: 3, team: 2, label: "BLUE"},
			},
		},
		{
			serverID: "alpha", serverName: "Alpha Frag House",
			mapName: "q3dm7", gameType: "ffa",
			start: now.Add(-110 * time.Minute), minutes: 15,
			players: []seedPlayer{
				{name: "slash", rate: 3},
				{name: "keel", joinMinute: 1, rate: 2},
			},
		},
		{
			serverID: "beta", serverName: "Beta Arena EU",
			mapName: "dm4", gameType: "ffa",
			start: now.Add(-12 * time.Minute), minutes: 12, active: true,
			players: []seedPlayer{
				{name: "anarki", rate: 3},
				{name: "doom", rate: 2},
				{name: "hunter", joinMinute: 3, rate: 4},
			},
		},
	}

	var sessions, observations int
	for _, r := range demo {
		ids := make([]int64, len(r.players))
		for m := 0; m <= r.minutes; m++ {
			pollAt := r.start.Add(time.Duration(m) * time.Minute)
			for i, p := range r.players {
				if m < p.joinMinute {
					continue
				}
				elapsed := m - p.joinMinute
				score := p.rate * elapsed
				if m == p.joinMinute {
					id, err := s.StartSession(ctx, rounds.PlayerSession{
						PlayerName: p.name,
						ServerID:   r.serverID,
						ServerName: r.serverName,
						MapName:    r.mapName,
						GameType:   r.gameType,
						StartedAt:  pollAt,
						LastSeenAt: pollAt,
						Active:     true,
					})
					if err != nil {
						return err
					}
					ids[i] = id
					sessions++
				} else if err := s.TouchSession(ctx, ids[i], pollAt, score, score/2, elapsed/3); err != nil {
					return err
				}
				if _, err := s.AddObservation(ctx, rounds.Observation{
					SessionID:  ids[i],
					CapturedAt: pollAt,
					Score:      score,
					Kills:      score / 2,
					Deaths:     elapsed / 3,
					Ping:       20 + 5*i,
					Team:       p.team,
					TeamLabel:  p.label,
				}); err != nil {
					return err
				}
				observations++
			}
		}
		if !r.active {
			for _, id := range ids {
				if err := s.CloseSession(ctx, id); err != nil {
					return err
				}
			}
		}
	}

	logger.Info("demo telemetry seeded", "sessions", sessions, "observations", observations)
	return nil
}

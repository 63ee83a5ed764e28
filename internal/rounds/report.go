package rounds

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

// RoundReport reconstructs one round's replay timeline. The reference time
// does not need to be exact: any instant inside the round resolves to the
// same report, because the span is re-derived from the server's map-change
// neighbors. Inputs that land on no sessions return ErrRoundNotFound.
func (s *Service) RoundReport(ctx context.Context, ref RoundRef) (*RoundReport, error) {
	if err := ref.validate(); err != nil {
		return nil, err
	}
	at := ref.At.UTC()

	start, end, err := s.refineSpan(ctx, ref.ServerID, ref.MapName, at)
	if err != nil {
		return nil, err
	}

	sessions, err := s.store.ReadSessions(ctx, SessionFilter{
		ServerID:  ref.ServerID,
		MapName:   ref.MapName,
		StartedTo: end,
		SeenFrom:  start,
	})
	if err != nil {
		return nil, fmt.Errorf("reading round sessions: %w", err)
	}
	if len(sessions) == 0 {
		return nil, fmt.Errorf("%w: %s/%s around %s", ErrRoundNotFound,
			ref.ServerID, ref.MapName, at.Format(time.RFC3339))
	}

	ids := make([]int64, len(sessions))
	for i, sess := range sessions {
		ids[i] = sess.ID
	}
	// Observations just before the refined start can still satisfy the first
	// tick's staleness window, so the read starts one window early.
	observations, err := s.store.ReadObservations(ctx, ids, start.Add(-staleAfter), end)
	if err != nil {
		return nil, fmt.Errorf("reading observations: %w", err)
	}

	report := summarize(sessions, start, end)
	report.TeamLabels = teamLabels(observations)
	report.Snapshots = buildSnapshots(sessions, observations, start, end)
	return report, nil
}

// refineSpan widens a reference time into the round's real extent. The
// nearest different-map sessions on the server bracket the round: play on the
// previous map ends where this round can begin, and the next map's first
// session caps it. Without such a neighbor the span falls back to a fixed pad
// around the reference.
func (s *Service) refineSpan(ctx context.Context, serverID, mapName string, at time.Time) (time.Time, time.Time, error) {
	var before, after []PlayerSession
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		before, err = s.store.ReadSessions(gctx, SessionFilter{
			ServerID:   serverID,
			ExcludeMap: mapName,
			StartedTo:  at,
			Newest:     true,
			Limit:      1,
		})
		if err != nil {
			return fmt.Errorf("reading preceding map change: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		after, err = s.store.ReadSessions(gctx, SessionFilter{
			ServerID:    serverID,
			ExcludeMap:  mapName,
			StartedFrom: at,
			Limit:       1,
		})
		if err != nil {
			return fmt.Errorf("reading following map change: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return time.Time{}, time.Time{}, err
	}

	start := at.Add(-refinePad)
	if len(before) > 0 {
		start = before[0].LastSeenAt
	}
	end := at.Add(refinePad)
	if len(after) > 0 {
		end = after[0].StartedAt
	}
	return start, end, nil
}

// summarize folds the collected sessions into the report header. Unlike a
// listed Round, the span here is the refined one, so an in-progress round's
// end may sit ahead of the newest observation.
func summarize(sessions []PlayerSession, start, end time.Time) *RoundReport {
	newest := sessions[len(sessions)-1]
	active := false
	players := map[string]struct{}{}
	for _, sess := range sessions {
		if sess.Active {
			active = true
		}
		players[sess.PlayerName] = struct{}{}
	}
	return &RoundReport{
		ServerID:        newest.ServerID,
		ServerName:      newest.ServerName,
		MapName:         newest.MapName,
		GameType:        newest.GameType,
		StartedAt:       start,
		EndedAt:         end,
		DurationMinutes: int(end.Sub(start) / time.Minute),
		Participants:    len(players),
		Sessions:        len(sessions),
		Active:          active,
	}
}

func teamLabels(observations []Observation) []string {
	seen := map[string]struct{}{}
	for _, o := range observations {
		if o.TeamLabel != "" {
			seen[o.TeamLabel] = struct{}{}
		}
	}
	labels := make([]string, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// buildSnapshots walks minute ticks across the refined span and rebuilds the
// leaderboard at each one. Observations arrive ordered by capture time, so a
// single cursor and a rolling latest-per-player map cover every tick in one
// pass instead of rescanning per tick. A player appears at a tick only while
// their newest observation is within the staleness window; ticks where nobody
// qualifies produce no snapshot at all.
func buildSnapshots(sessions []PlayerSession, observations []Observation, start, end time.Time) []LeaderboardSnapshot {
	names := make(map[int64]string, len(sessions))
	for _, sess := range sessions {
		names[sess.ID] = sess.PlayerName
	}

	var (
		snapshots []LeaderboardSnapshot
		latest    = map[string]Observation{}
		cursor    int
	)
	for tick := start; !tick.After(end); tick = tick.Add(snapshotStep) {
		for cursor < len(observations) && !observations[cursor].CapturedAt.After(tick) {
			o := observations[cursor]
			if name, ok := names[o.SessionID]; ok {
				latest[name] = o
			}
			cursor++
		}

		entries := make([]LeaderboardEntry, 0, len(latest))
		for name, o := range latest {
			if tick.Sub(o.CapturedAt) > staleAfter {
				continue
			}
			entries = append(entries, LeaderboardEntry{
				PlayerName: name,
				Score:      o.Score,
				Kills:      o.Kills,
				Deaths:     o.Deaths,
				Ping:       o.Ping,
				Team:       o.Team,
				TeamLabel:  o.TeamLabel,
			})
		}
		if len(entries) == 0 {
			continue
		}

		sort.Slice(entries, func(i, j int) bool {
			if entries[i].Score != entries[j].Score {
				return entries[i].Score > entries[j].Score
			}
			return entries[i].PlayerName < entries[j].PlayerName
		})
		for i := range entries {
			entries[i].Rank = i + 1
		}
		snapshots = append(snapshots, LeaderboardSnapshot{At: tick, Entries: entries})
	}
	return snapshots
}

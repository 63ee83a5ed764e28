package rounds

import (
	"sort"
	"time"
)

// Strategy selects the boundary detection algorithm. A Service uses exactly
// one strategy for all of its calls; the two are never mixed.
type Strategy string

const (
	// StrategyGap starts a new round whenever the start-to-start gap between
	// consecutive sessions on the same server+map exceeds the idle threshold.
	// This is the default.
	StrategyGap Strategy = "gap"

	// StrategyBucket approximates rounds by coarse two-hour time buckets with
	// map-change boundaries. Kept for comparison against historical numbers;
	// it can merge back-to-back rounds that share a bucket and split rounds
	// that straddle a bucket edge.
	StrategyBucket Strategy = "bucket"
)

// Valid reports whether s names a known strategy.
func (s Strategy) Valid() bool {
	return s == StrategyGap || s == StrategyBucket
}

type partitionKey struct {
	serverID string
	mapName  string
}

// groupSessions splits sessions into round groups using the given strategy.
// Sessions must be ordered by start time ascending; both strategies walk the
// slice in that order.
func groupSessions(strategy Strategy, sessions []PlayerSession) [][]PlayerSession {
	if strategy == StrategyBucket {
		return groupByBucket(sessions)
	}
	return groupByGap(sessions)
}

// groupByGap partitions sessions by (server, map) and opens a new group
// whenever a session starts more than idleThreshold after the previous
// session in its partition. Sessions between rounds are rare because the
// collector only writes rows while players are present, so a quiet map is
// exactly a gap in start times.
func groupByGap(sessions []PlayerSession) [][]PlayerSession {
	var (
		groups [][]PlayerSession
		last   = map[partitionKey]time.Time{}
		open   = map[partitionKey]int{}
	)
	for _, s := range sessions {
		k := partitionKey{s.ServerID, s.MapName}
		prev, seen := last[k]
		if !seen || s.StartedAt.Sub(prev) > idleThreshold {
			open[k] = len(groups)
			groups = append(groups, nil)
		}
		groups[open[k]] = append(groups[open[k]], s)
		last[k] = s.StartedAt
	}
	return groups
}

// groupByBucket reproduces the legacy bucketing heuristic: sessions are
// pre-grouped by (server, map, game type, two-hour bucket of the start time),
// and within a pre-group a new round opens at every session that is the first
// for its server or that follows a session on a different map in the server's
// start-ordered stream.
func groupByBucket(sessions []PlayerSession) [][]PlayerSession {
	type bucketKey struct {
		serverID string
		mapName  string
		gameType string
		bucket   int64
	}
	// Boundary flags come from the per-server stream, which interleaves all
	// maps, so they are computed before the pre-grouping pass.
	boundary := make(map[int64]bool, len(sessions))
	lastMap := map[string]string{}
	for _, s := range sessions {
		m, seen := lastMap[s.ServerID]
		if !seen || m != s.MapName {
			boundary[s.ID] = true
		}
		lastMap[s.ServerID] = s.MapName
	}

	var (
		groups [][]PlayerSession
		open   = map[bucketKey]int{}
	)
	for _, s := range sessions {
		k := bucketKey{
			serverID: s.ServerID,
			mapName:  s.MapName,
			gameType: s.GameType,
			bucket:   s.StartedAt.Unix() / int64(bucketSize/time.Second),
		}
		idx, ok := open[k]
		if !ok || boundary[s.ID] {
			idx = len(groups)
			groups = append(groups, nil)
			open[k] = idx
		}
		groups[idx] = append(groups[idx], s)
	}
	return groups
}

// materializeGroups turns session groups into rounds and assigns each its
// identity: groups are ordered by start time within their (server, map)
// partition and numbered from one. Recomputing over the same rows therefore
// yields the same IDs regardless of strategy or query shape.
func materializeGroups(groups [][]PlayerSession, now time.Time) []Round {
	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i][0], groups[j][0]
		if a.ServerID != b.ServerID {
			return a.ServerID < b.ServerID
		}
		if a.MapName != b.MapName {
			return a.MapName < b.MapName
		}
		return a.StartedAt.Before(b.StartedAt)
	})

	rounds := make([]Round, 0, len(groups))
	seq := map[partitionKey]int{}
	for _, g := range groups {
		k := partitionKey{g[0].ServerID, g[0].MapName}
		seq[k]++
		rounds = append(rounds, materialize(g, seq[k], now))
	}
	return rounds
}

// materialize folds one session group into a Round. The group is in start
// order, so the first session carries the round start; the end is the latest
// last-seen, or now while anyone is still playing.
func materialize(group []PlayerSession, sequence int, now time.Time) Round {
	first := group[0]
	end := first.LastSeenAt
	active := false
	players := map[string]struct{}{}
	for _, s := range group {
		if s.LastSeenAt.After(end) {
			end = s.LastSeenAt
		}
		if s.Active {
			active = true
		}
		players[s.PlayerName] = struct{}{}
	}
	if active {
		end = now
	}
	if end.Before(first.StartedAt) {
		end = first.StartedAt
	}
	return Round{
		ID: RoundID{
			ServerID: first.ServerID,
			MapName:  first.MapName,
			Sequence: sequence,
		},
		ServerID:        first.ServerID,
		ServerName:      group[len(group)-1].ServerName,
		MapName:         first.MapName,
		GameType:        first.GameType,
		StartedAt:       first.StartedAt,
		EndedAt:         end,
		DurationMinutes: int(end.Sub(first.StartedAt) / time.Minute),
		Participants:    len(players),
		Sessions:        len(group),
		Active:          active,
	}
}

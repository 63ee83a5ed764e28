// Package rounds reconstructs discrete gameplay rounds and minute-by-minute
// replay timelines from the raw per-player polling records written by the
// ingestion collector. The game servers emit no "round started/ended" signal,
// so everything here is inferred: round boundaries from temporal gaps between
// sessions (or map changes between neighboring sessions), and replay state
// from staleness-filtered point-in-time observations.
//
// All computations are pure and read-only; nothing in this package persists
// its output. Time resolution is bounded by the collector's polling interval
// (tens of seconds).
package rounds

import (
	"fmt"
	"time"
)

const (
	// idleThreshold is the start-time gap between two sessions on the same
	// server+map beyond which they belong to different rounds.
	idleThreshold = 600 * time.Second

	// bucketSize is the coarse grouping window of the time-bucket strategy.
	bucketSize = 2 * time.Hour

	// snapshotStep is the replay tick interval.
	snapshotStep = time.Minute

	// staleAfter is how far behind a tick a player's newest observation may
	// lag before the player is considered gone at that tick.
	staleAfter = 60 * time.Second

	// refinePad bounds a refined round span when no neighboring map-change
	// session exists on the server.
	refinePad = 30 * time.Minute
)

// PlayerSession is one contiguous observed presence of a player on one
// server+map, as recorded by the ingestion collector. Rows are never mutated
// by this package.
type PlayerSession struct {
	ID         int64
	PlayerName string
	ServerID   string
	ServerName string
	MapName    string
	GameType   string
	StartedAt  time.Time
	LastSeenAt time.Time
	Active     bool
	Score      int
	Kills      int
	Deaths     int
}

// Observation is a single timestamped sample of a player's in-round state,
// keyed to the owning session.
type Observation struct {
	ID         int64
	SessionID  int64
	CapturedAt time.Time
	Score      int
	Kills      int
	Deaths     int
	Ping       int
	Team       int
	TeamLabel  string
}

// RoundID identifies a detected round. Sequence is the ordinal of the round
// within its (server, map) partition ordered by start time, counting from
// one, so the same physical round keeps the same identity across
// recomputations while concurrent rounds on other servers or maps can never
// collide. The string form is for display and logs only; it is never parsed
// back.
type RoundID struct {
	ServerID string
	MapName  string
	Sequence int
}

func (id RoundID) String() string {
	return fmt.Sprintf("%s/%s#%d", id.ServerID, id.MapName, id.Sequence)
}

// Round is a reconstructed gameplay round: one playthrough of one map on one
// server, derived by grouping sessions. Rounds are views computed on demand,
// not stored state.
type Round struct {
	ID              RoundID
	ServerID        string
	ServerName      string
	MapName         string
	GameType        string
	StartedAt       time.Time
	EndedAt         time.Time
	DurationMinutes int
	Participants    int
	Sessions        int
	Active          bool
}

// RoundRef locates one round for report reconstruction: the server, the map,
// and any timestamp that falls inside the round (a listed round's start time
// works).
type RoundRef struct {
	ServerID string
	MapName  string
	At       time.Time
}

// RoundReport is the on-demand replay reconstruction of a single round: the
// round's identity and refined time span, a summary of the member sessions,
// and one leaderboard snapshot per non-empty minute tick. It is built fresh
// per request and never persisted here.
type RoundReport struct {
	ServerID        string
	ServerName      string
	MapName         string
	GameType        string
	StartedAt       time.Time
	EndedAt         time.Time
	DurationMinutes int
	Participants    int
	Sessions        int
	Active          bool
	TeamLabels      []string
	Snapshots       []LeaderboardSnapshot
}

// LeaderboardSnapshot is the reconstructed leaderboard at one replay tick.
// Ticks with no qualifying players are dropped from the report entirely, so
// consecutive snapshots may be more than one step apart.
type LeaderboardSnapshot struct {
	At      time.Time
	Entries []LeaderboardEntry
}

// LeaderboardEntry is one ranked row within a snapshot.
type LeaderboardEntry struct {
	Rank       int
	PlayerName string
	Score      int
	Kills      int
	Deaths     int
	Ping       int
	Team       int
	TeamLabel  string
}

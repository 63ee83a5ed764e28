package rounds

import (
	"context"
	"time"
)

// Store supplies the raw session and observation rows the engine computes
// over. The SQL store in internal/store satisfies it; tests use an in-memory
// stand-in.
type Store interface {
	// ReadSessions returns sessions matching the filter, ordered by start
	// time ascending unless the filter says otherwise. That ordering is a
	// contract: grouping walks the slice sequentially.
	ReadSessions(ctx context.Context, f SessionFilter) ([]PlayerSession, error)

	// ReadObservations returns the observations of the given sessions
	// captured within [from, to], ordered by capture time ascending.
	ReadObservations(ctx context.Context, sessionIDs []int64, from, to time.Time) ([]Observation, error)
}

// SessionFilter narrows a session read. Zero values mean "no constraint".
type SessionFilter struct {
	ServerID   string
	MapName    string // exact map match
	ExcludeMap string // drop sessions on this map; used for neighbor lookups
	GameType   string

	// StartedFrom/StartedTo bound the session start time (inclusive).
	StartedFrom time.Time
	StartedTo   time.Time

	// SeenFrom keeps only sessions last seen at or after this instant.
	// Combined with StartedTo it selects sessions overlapping a span.
	SeenFrom time.Time

	Active      *bool
	PlayerNames []string

	// Newest flips the ordering to start time descending.
	Newest bool

	// Limit caps the row count; zero means unlimited.
	Limit int
}

package rounds

import (
	"fmt"
	"time"
)

// RoundSort names a sortable round field.
type RoundSort string

const (
	SortStartedAt RoundSort = "started_at"
	SortEndedAt   RoundSort = "ended_at"
	SortDuration  RoundSort = "duration"
	SortPlayers   RoundSort = "players"
	SortMap       RoundSort = "map"
	SortServer    RoundSort = "server"
)

// SortOrder is the sort direction.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// RoundQuery selects, orders and pages the round list. Server, map and game
// type are exact matches pushed down to the session read; everything else is
// applied to the materialized rounds, never to the underlying sessions, so
// filtering can't split or merge groups.
type RoundQuery struct {
	ServerID string
	MapName  string
	GameType string

	// From/To bound the session start times fed into grouping (inclusive).
	From time.Time
	To   time.Time

	// MapContains keeps rounds whose map name contains the substring,
	// case-insensitively.
	MapContains string

	Active *bool

	// Duration bounds in whole minutes; zero means unset.
	MinDuration int
	MaxDuration int

	// Participant count bounds; zero means unset.
	MinPlayers int
	MaxPlayers int

	Sort  RoundSort
	Order SortOrder

	Limit  int
	Offset int
}

// RoundPage is one page of the round list plus the pre-pagination total.
type RoundPage struct {
	Rounds []Round
	Total  int
	Limit  int
	Offset int
}

func (q RoundQuery) validate() error {
	switch q.Sort {
	case "", SortStartedAt, SortEndedAt, SortDuration, SortPlayers, SortMap, SortServer:
	default:
		return fmt.Errorf("%w: unknown sort field %q", ErrInvalidQuery, q.Sort)
	}
	switch q.Order {
	case "", OrderAsc, OrderDesc:
	default:
		return fmt.Errorf("%w: unknown sort order %q", ErrInvalidQuery, q.Order)
	}
	if q.Limit < 0 {
		return fmt.Errorf("%w: negative limit", ErrInvalidQuery)
	}
	if q.Offset < 0 {
		return fmt.Errorf("%w: negative offset", ErrInvalidQuery)
	}
	if q.MinDuration < 0 || q.MaxDuration < 0 {
		return fmt.Errorf("%w: negative duration bound", ErrInvalidQuery)
	}
	if q.MaxDuration > 0 && q.MinDuration > q.MaxDuration {
		return fmt.Errorf("%w: min_duration exceeds max_duration", ErrInvalidQuery)
	}
	if q.MinPlayers < 0 || q.MaxPlayers < 0 {
		return fmt.Errorf("%w: negative player bound", ErrInvalidQuery)
	}
	if q.MaxPlayers > 0 && q.MinPlayers > q.MaxPlayers {
		return fmt.Errorf("%w: min_players exceeds max_players", ErrInvalidQuery)
	}
	if !q.From.IsZero() && !q.To.IsZero() && q.From.After(q.To) {
		return fmt.Errorf("%w: from is after to", ErrInvalidQuery)
	}
	return nil
}

// sessionFilter derives the session read for this query. Only partition keys
// and the time range are pushed down; round-level filters stay in memory.
func (q RoundQuery) sessionFilter() SessionFilter {
	return SessionFilter{
		ServerID:    q.ServerID,
		MapName:     q.MapName,
		GameType:    q.GameType,
		StartedFrom: q.From,
		StartedTo:   q.To,
	}
}

func (q RoundQuery) effectiveLimit() int {
	switch {
	case q.Limit == 0:
		return defaultLimit
	case q.Limit > maxLimit:
		return maxLimit
	default:
		return q.Limit
	}
}

func (r RoundRef) validate() error {
	if r.ServerID == "" {
		return fmt.Errorf("%w: missing server id", ErrInvalidQuery)
	}
	if r.MapName == "" {
		return fmt.Errorf("%w: missing map name", ErrInvalidQuery)
	}
	if r.At.IsZero() {
		return fmt.Errorf("%w: missing reference time", ErrInvalidQuery)
	}
	return nil
}

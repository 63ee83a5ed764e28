package rounds

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/coder/quartz"
)

// Service is the round detection and replay reconstruction engine. It holds
// no state beyond its collaborators, so one instance serves concurrent
// requests; repeated calls over unchanged rows return identical results.
type Service struct {
	store    Store
	clock    quartz.Clock
	strategy Strategy
}

// Option adjusts a Service at construction.
type Option func(*Service)

// WithClock substitutes the wall clock. Tests pin it with quartz.NewMock.
func WithClock(c quartz.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithStrategy selects the boundary detection strategy. Unknown values fall
// back to gap detection.
func WithStrategy(st Strategy) Option {
	return func(s *Service) {
		if st.Valid() {
			s.strategy = st
		}
	}
}

// NewService builds an engine over the given row source.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		clock:    quartz.NewReal(),
		strategy: StrategyGap,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListRounds detects and materializes rounds for the query. Sessions are
// loaded once, grouped with the configured strategy, and only then filtered,
// sorted and paged; Total counts the filtered rounds before pagination.
func (s *Service) ListRounds(ctx context.Context, q RoundQuery) (RoundPage, error) {
	if err := q.validate(); err != nil {
		return RoundPage{}, err
	}

	sessions, err := s.store.ReadSessions(ctx, q.sessionFilter())
	if err != nil {
		return RoundPage{}, fmt.Errorf("reading sessions: %w", err)
	}

	now := s.clock.Now().UTC()
	rounds := materializeGroups(groupSessions(s.strategy, sessions), now)
	rounds = filterRounds(rounds, q)
	sortRounds(rounds, q.Sort, q.Order)

	limit, offset := q.effectiveLimit(), q.Offset
	page := RoundPage{
		Rounds: pageOf(rounds, limit, offset),
		Total:  len(rounds),
		Limit:  limit,
		Offset: offset,
	}
	return page, nil
}

// filterRounds applies the round-level criteria. These run strictly after
// grouping: dropping sessions first would change boundaries and participant
// counts.
func filterRounds(rounds []Round, q RoundQuery) []Round {
	out := rounds[:0]
	for _, r := range rounds {
		if q.Active != nil && r.Active != *q.Active {
			continue
		}
		if q.MinDuration > 0 && r.DurationMinutes < q.MinDuration {
			continue
		}
		if q.MaxDuration > 0 && r.DurationMinutes > q.MaxDuration {
			continue
		}
		if q.MinPlayers > 0 && r.Participants < q.MinPlayers {
			continue
		}
		if q.MaxPlayers > 0 && r.Participants > q.MaxPlayers {
			continue
		}
		if q.MapContains != "" && !strings.Contains(strings.ToLower(r.MapName), strings.ToLower(q.MapContains)) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// sortRounds orders rounds by the requested field, newest first by default.
// Ties fall back to the identity fields so output order is deterministic.
func sortRounds(rounds []Round, field RoundSort, order SortOrder) {
	if field == "" {
		field = SortStartedAt
	}
	if order == "" {
		order = OrderDesc
	}
	less := func(a, b Round) bool {
		switch field {
		case SortEndedAt:
			if !a.EndedAt.Equal(b.EndedAt) {
				return a.EndedAt.Before(b.EndedAt)
			}
		case SortDuration:
			if a.DurationMinutes != b.DurationMinutes {
				return a.DurationMinutes < b.DurationMinutes
			}
		case SortPlayers:
			if a.Participants != b.Participants {
				return a.Participants < b.Participants
			}
		case SortMap:
			if a.MapName != b.MapName {
				return a.MapName < b.MapName
			}
		case SortServer:
			if a.ServerID != b.ServerID {
				return a.ServerID < b.ServerID
			}
		default:
			if !a.StartedAt.Equal(b.StartedAt) {
				return a.StartedAt.Before(b.StartedAt)
			}
		}
		if !a.StartedAt.Equal(b.StartedAt) {
			return a.StartedAt.Before(b.StartedAt)
		}
		if a.ID.ServerID != b.ID.ServerID {
			return a.ID.ServerID < b.ID.ServerID
		}
		if a.ID.MapName != b.ID.MapName {
			return a.ID.MapName < b.ID.MapName
		}
		return a.ID.Sequence < b.ID.Sequence
	}
	sort.SliceStable(rounds, func(i, j int) bool {
		if order == OrderDesc {
			return less(rounds[j], rounds[i])
		}
		return less(rounds[i], rounds[j])
	})
}

func pageOf(rounds []Round, limit, offset int) []Round {
	if offset >= len(rounds) {
		return []Round{}
	}
	end := offset + limit
	if end > len(rounds) {
		end = len(rounds)
	}
	return rounds[offset:end]
}

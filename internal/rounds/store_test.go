package rounds

import (
	"context"
	"sort"
	"time"
)

// memStore is an in-memory Store with the same filter and ordering semantics
// as the SQL implementation in internal/store.
type memStore struct {
	sessions     []PlayerSession
	observations []Observation

	sessionErr error
	obsErr     error

	sessionReads int
	obsReads     int
}

func (m *memStore) ReadSessions(_ context.Context, f SessionFilter) ([]PlayerSession, error) {
	m.sessionReads++
	if m.sessionErr != nil {
		return nil, m.sessionErr
	}
	var out []PlayerSession
	for _, s := range m.sessions {
		if matchSession(f, s) {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if f.Newest {
			a, b = b, a
		}
		if !a.StartedAt.Equal(b.StartedAt) {
			return a.StartedAt.Before(b.StartedAt)
		}
		return a.ID < b.ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func matchSession(f SessionFilter, s PlayerSession) bool {
	if f.ServerID != "" && s.ServerID != f.ServerID {
		return false
	}
	if f.MapName != "" && s.MapName != f.MapName {
		return false
	}
	if f.ExcludeMap != "" && s.MapName == f.ExcludeMap {
		return false
	}
	if f.GameType != "" && s.GameType != f.GameType {
		return false
	}
	if !f.StartedFrom.IsZero() && s.StartedAt.Before(f.StartedFrom) {
		return false
	}
	if !f.StartedTo.IsZero() && s.StartedAt.After(f.StartedTo) {
		return false
	}
	if !f.SeenFrom.IsZero() && s.LastSeenAt.Before(f.SeenFrom) {
		return false
	}
	if f.Active != nil && s.Active != *f.Active {
		return false
	}
	if len(f.PlayerNames) > 0 {
		found := false
		for _, n := range f.PlayerNames {
			if n == s.PlayerName {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (m *memStore) ReadObservations(_ context.Context, sessionIDs []int64, from, to time.Time) ([]Observation, error) {
	m.obsReads++
	if m.obsErr != nil {
		return nil, m.obsErr
	}
	want := make(map[int64]struct{}, len(sessionIDs))
	for _, id := range sessionIDs {
		want[id] = struct{}{}
	}
	var out []Observation
	for _, o := range m.observations {
		if _, ok := want[o.SessionID]; !ok {
			continue
		}
		if !from.IsZero() && o.CapturedAt.Before(from) {
			continue
		}
		if !to.IsZero() && o.CapturedAt.After(to) {
			continue
		}
		out = append(out, o)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CapturedAt.Equal(out[j].CapturedAt) {
			return out[i].CapturedAt.Before(out[j].CapturedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

var day = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

func hm(h, m int) time.Time {
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func hms(h, m, s int) time.Time {
	return hm(h, m).Add(time.Duration(s) * time.Second)
}

func sess(id int64, player, serverID, mapName string, started, seen time.Time, active bool) PlayerSession {
	return PlayerSession{
		ID:         id,
		PlayerName: player,
		ServerID:   serverID,
		ServerName: "Server " + serverID,
		MapName:    mapName,
		GameType:   "ffa",
		StartedAt:  started,
		LastSeenAt: seen,
		Active:     active,
	}
}

func obsAt(id, sessionID int64, at time.Time, score int) Observation {
	return Observation{
		ID:         id,
		SessionID:  sessionID,
		CapturedAt: at,
		Score:      score,
		Kills:      score,
		Deaths:     1,
		Ping:       40,
	}
}

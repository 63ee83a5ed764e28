// Package store is the SQLite persistence layer: the collector appends
// session and observation rows through it, and the rounds engine reads them
// back through the rounds.Store interface.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openfrag/stattrack/internal/rounds"
)

var ErrNotFound = errors.New("not found")

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Timestamps are stored as RFC 3339 UTC text so lexicographic comparison in
// SQL matches chronological order. Every write goes through fmtTime to keep
// the format uniform.
func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func placeholders(n int) string {
	return "?" + strings.Repeat(", ?", n-1)
}

// ReadSessions returns sessions matching the filter ordered by start time
// (ascending unless f.Newest), with row id as the tie-break.
func (s *Store) ReadSessions(ctx context.Context, f rounds.SessionFilter) ([]rounds.PlayerSession, error) {
	query := `
		SELECT id, player_name, server_id, server_name, map_name, game_type,
			started_at, last_seen_at, active, score, kills, deaths
		FROM player_sessions`

	var (
		where []string
		args  []any
	)
	if f.ServerID != "" {
		where = append(where, "server_id = ?")
		args = append(args, f.ServerID)
	}
	if f.MapName != "" {
		where = append(where, "map_name = ?")
		args = append(args, f.MapName)
	}
	if f.ExcludeMap != "" {
		where = append(where, "map_name <> ?")
		args = append(args, f.ExcludeMap)
	}
	if f.GameType != "" {
		where = append(where, "game_type = ?")
		args = append(args, f.GameType)
	}
	if !f.StartedFrom.IsZero() {
		where = append(where, "started_at >= ?")
		args = append(args, fmtTime(f.StartedFrom))
	}
	if !f.StartedTo.IsZero() {
		where = append(where, "started_at <= ?")
		args = append(args, fmtTime(f.StartedTo))
	}
	if !f.SeenFrom.IsZero() {
		where = append(where, "last_seen_at >= ?")
		args = append(args, fmtTime(f.SeenFrom))
	}
	if f.Active != nil {
		where = append(where, "active = ?")
		if *f.Active {
			args = append(args, 1)
		} else {
			args = append(args, 0)
		}
	}
	if len(f.PlayerNames) > 0 {
		where = append(where, "player_name IN ("+placeholders(len(f.PlayerNames))+")")
		for _, n := range f.PlayerNames {
			args = append(args, n)
		}
	}
	if len(where) > 0 {
		query += "\n\t\tWHERE " + strings.Join(where, " AND ")
	}
	if f.Newest {
		query += "\n\t\tORDER BY started_at DESC, id DESC"
	} else {
		query += "\n\t\tORDER BY started_at, id"
	}
	if f.Limit > 0 {
		query += "\n\t\tLIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []rounds.PlayerSession
	for rows.Next() {
		var (
			sess          rounds.PlayerSession
			started, seen string
			active        int
		)
		if err := rows.Scan(&sess.ID, &sess.PlayerName, &sess.ServerID, &sess.ServerName,
			&sess.MapName, &sess.GameType, &started, &seen, &active,
			&sess.Score, &sess.Kills, &sess.Deaths); err != nil {
			return nil, err
		}
		if sess.StartedAt, err = parseTime(started); err != nil {
			return nil, fmt.Errorf("session %d started_at: %w", sess.ID, err)
		}
		if sess.LastSeenAt, err = parseTime(seen); err != nil {
			return nil, fmt.Errorf("session %d last_seen_at: %w", sess.ID, err)
		}
		sess.Active = active == 1
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// ReadObservations returns the observations of the given sessions captured
// within [from, to], ordered by capture time.
func (s *Store) ReadObservations(ctx context.Context, sessionIDs []int64, from, to time.Time) ([]rounds.Observation, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, session_id, captured_at, score, kills, deaths, ping, team, team_label
		FROM observations
		WHERE session_id IN (` + placeholders(len(sessionIDs)) + `)`
	args := make([]any, 0, len(sessionIDs)+2)
	for _, id := range sessionIDs {
		args = append(args, id)
	}
	if !from.IsZero() {
		query += " AND captured_at >= ?"
		args = append(args, fmtTime(from))
	}
	if !to.IsZero() {
		query += " AND captured_at <= ?"
		args = append(args, fmtTime(to))
	}
	query += "\n\t\tORDER BY captured_at, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var observations []rounds.Observation
	for rows.Next() {
		var (
			o        rounds.Observation
			captured string
		)
		if err := rows.Scan(&o.ID, &o.SessionID, &captured, &o.Score, &o.Kills,
			&o.Deaths, &o.Ping, &o.Team, &o.TeamLabel); err != nil {
			return nil, err
		}
		if o.CapturedAt, err = parseTime(captured); err != nil {
			return nil, fmt.Errorf("observation %d captured_at: %w", o.ID, err)
		}
		observations = append(observations, o)
	}
	return observations, rows.Err()
}

package store

import (
	"context"
	"time"

	"github.com/openfrag/stattrack/internal/rounds"
)

// StartSession records a player's arrival and returns the new session id.
// The collector calls this when a poll sees a name that was absent from the
// previous poll of the same server.
func (s *Store) StartSession(ctx context.Context, sess rounds.PlayerSession) (int64, error) {
	active := 0
	if sess.Active {
		active = 1
	}
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO player_sessions (player_name, server_id, server_name, map_name,
			game_type, started_at, last_seen_at, active, score, kills, deaths)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`, sess.PlayerName, sess.ServerID, sess.ServerName, sess.MapName, sess.GameType,
		fmtTime(sess.StartedAt), fmtTime(sess.LastSeenAt), active,
		sess.Score, sess.Kills, sess.Deaths).Scan(&id)
	return id, err
}

// TouchSession advances a live session to the latest poll.
func (s *Store) TouchSession(ctx context.Context, id int64, seenAt time.Time, score, kills, deaths int) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE player_sessions
		SET last_seen_at = ?, score = ?, kills = ?, deaths = ?
		WHERE id = ?
	`, fmtTime(seenAt), score, kills, deaths, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CloseSession marks a session over once its player drops out of a poll. The
// last-seen time keeps the final sighting; closing an already closed session
// is a no-op.
func (s *Store) CloseSession(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE player_sessions SET active = 0 WHERE id = ?
	`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddObservation appends one point-in-time sample for a session.
func (s *Store) AddObservation(ctx context.Context, o rounds.Observation) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO observations (session_id, captured_at, score, kills, deaths, ping, team, team_label)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`, o.SessionID, fmtTime(o.CapturedAt), o.Score, o.Kills, o.Deaths,
		o.Ping, o.Team, o.TeamLabel).Scan(&id)
	return id, err
}

// CountSessions reports the total number of session rows.
func (s *Store) CountSessions(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM player_sessions`).Scan(&count)
	return count, err
}

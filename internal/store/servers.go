package store

import (
	"context"
	"fmt"
	"time"
)

// ServerSummary is one tracked game server with its lifetime totals. The
// display name comes from the newest session because server operators rename
// them.
type ServerSummary struct {
	ServerID      string
	ServerName    string
	Sessions      int
	ActivePlayers int
	FirstSeenAt   time.Time
	LastSeenAt    time.Time
}

// ListServers aggregates every server that has ever been polled.
func (s *Store) ListServers(ctx context.Context) ([]ServerSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.server_id,
			(SELECT q.server_name FROM player_sessions q
				WHERE q.server_id = p.server_id
				ORDER BY q.started_at DESC, q.id DESC LIMIT 1),
			COUNT(*),
			SUM(p.active),
			MIN(p.started_at),
			MAX(p.last_seen_at)
		FROM player_sessions p
		GROUP BY p.server_id
		ORDER BY p.server_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var servers []ServerSummary
	for rows.Next() {
		var (
			sv          ServerSummary
			first, last string
		)
		if err := rows.Scan(&sv.ServerID, &sv.ServerName, &sv.Sessions,
			&sv.ActivePlayers, &first, &last); err != nil {
			return nil, err
		}
		if sv.FirstSeenAt, err = parseTime(first); err != nil {
			return nil, fmt.Errorf("server %s first_seen: %w", sv.ServerID, err)
		}
		if sv.LastSeenAt, err = parseTime(last); err != nil {
			return nil, fmt.Errorf("server %s last_seen: %w", sv.ServerID, err)
		}
		servers = append(servers, sv)
	}
	return servers, rows.Err()
}

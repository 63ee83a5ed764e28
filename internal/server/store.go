package server

import (
	"context"

	"github.com/openfrag/stattrack/internal/rounds"
	"github.com/openfrag/stattrack/internal/store"
)

// RoundService is the inference surface the handlers consume.
type RoundService interface {
	ListRounds(ctx context.Context, q rounds.RoundQuery) (rounds.RoundPage, error)
	RoundReport(ctx context.Context, ref rounds.RoundRef) (*rounds.RoundReport, error)
}

// Directory lists the game servers the collector has seen.
type Directory interface {
	ListServers(ctx context.Context) ([]store.ServerSummary, error)
}

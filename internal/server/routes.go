package server

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/swaggest/swgui/v5emb"

	"github.com/openfrag/stattrack/internal/cache"
	"github.com/openfrag/stattrack/internal/metrics"
)

func addRoutes(r chi.Router, logger *slog.Logger, db *sql.DB, rdb *redis.Client, servers Directory, svc RoundService, c *cache.Cache, m *metrics.Metrics) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("StatTrack API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, db, rdb))
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/servers", handleListServers(logger, servers))
		r.Get("/rounds", handleListRounds(logger, svc, c, m))
		r.Get("/rounds/report", handleRoundReport(logger, svc, c, m))
	})
}

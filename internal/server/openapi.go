package server

import (
	"encoding/json"
	"net/http"
	"time"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RoundListRequest documents the /api/rounds query parameters.
type RoundListRequest struct {
	Server      string    `query:"server" description:"Exact server id."`
	Map         string    `query:"map" description:"Exact map name."`
	GameType    string    `query:"game_type" description:"Exact game type."`
	MapContains string    `query:"map_contains" description:"Case-insensitive map name substring."`
	Active      *bool     `query:"active" description:"Only active (true) or finished (false) rounds."`
	From        time.Time `query:"from" description:"Earliest session start considered."`
	To          time.Time `query:"to" description:"Latest session start considered."`
	MinDuration int       `query:"min_duration" description:"Minimum round duration in minutes."`
	MaxDuration int       `query:"max_duration" description:"Maximum round duration in minutes."`
	MinPlayers  int       `query:"min_players" description:"Minimum distinct participants."`
	MaxPlayers  int       `query:"max_players" description:"Maximum distinct participants."`
	Sort        string    `query:"sort" enum:"started_at,ended_at,duration,players,map,server"`
	Order       string    `query:"order" enum:"asc,desc"`
	Limit       int       `query:"limit" description:"Page size, capped server-side."`
	Offset      int       `query:"offset" description:"Rows to skip."`
}

// RoundReportRequest documents the /api/rounds/report query parameters.
type RoundReportRequest struct {
	Server string    `query:"server" required:"true" description:"Server id."`
	Map    string    `query:"map" required:"true" description:"Map name."`
	At     time.Time `query:"at" required:"true" description:"Any instant within the round, e.g. its started_at."`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "StatTrack API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Round history and replay reconstruction for multiplayer game servers.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(map[string]HealthStatus{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(map[string]HealthStatus{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /metrics
	getMetrics, _ := r.NewOperationContext(http.MethodGet, "/metrics")
	getMetrics.SetSummary("Prometheus metrics")
	getMetrics.SetDescription("Scrape endpoint in the Prometheus text exposition format.")
	getMetrics.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getMetrics)

	// GET /api/servers
	listServers, _ := r.NewOperationContext(http.MethodGet, "/api/servers")
	listServers.SetSummary("List servers")
	listServers.SetDescription("Known game servers with session counts and activity span.")
	listServers.AddRespStructure([]ServerSummaryResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	listServers.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusInternalServerError))
	_ = r.AddOperation(listServers)

	// GET /api/rounds
	listRounds, _ := r.NewOperationContext(http.MethodGet, "/api/rounds")
	listRounds.SetSummary("List rounds")
	listRounds.SetDescription("Rounds inferred from player session telemetry, newest first by default.")
	listRounds.AddReqStructure(RoundListRequest{})
	listRounds.AddRespStructure(RoundListResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	listRounds.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(listRounds)

	// GET /api/rounds/report
	getReport, _ := r.NewOperationContext(http.MethodGet, "/api/rounds/report")
	getReport.SetSummary("Round replay report")
	getReport.SetDescription("Reconstructs one round around a reference time: refined bounds plus a minute-by-minute leaderboard timeline.")
	getReport.AddReqStructure(RoundReportRequest{})
	getReport.AddRespStructure(RoundReportResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getReport.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	getReport.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getReport)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

// Package cache is the optional Redis layer in front of the rounds engine.
// Detection is pure recomputation over immutable telemetry, so caching is
// safe: a finished round's report never changes, and a round list only
// drifts as new polls land. Every failure here degrades to a miss; the
// engine can always recompute.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/openfrag/stattrack/internal/rounds"
)

// listTTL keeps cached round lists short-lived: active rounds' end times
// track the clock, so a list may only lag a little.
const listTTL = 15 * time.Second

type Cache struct {
	rdb       *redis.Client
	reportTTL time.Duration
	logger    *slog.Logger
}

// New wraps an optional Redis client. A nil Cache or nil client is valid and
// behaves as a permanent miss.
func New(rdb *redis.Client, reportTTL time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{rdb: rdb, reportTTL: reportTTL, logger: logger}
}

func (c *Cache) GetRounds(ctx context.Context, q rounds.RoundQuery) (rounds.RoundPage, bool) {
	var page rounds.RoundPage
	if !c.get(ctx, roundsKey(q), &page) {
		return rounds.RoundPage{}, false
	}
	return page, true
}

func (c *Cache) SetRounds(ctx context.Context, q rounds.RoundQuery, page rounds.RoundPage) {
	c.set(ctx, roundsKey(q), page, listTTL)
}

func (c *Cache) GetReport(ctx context.Context, ref rounds.RoundRef) (*rounds.RoundReport, bool) {
	var rep rounds.RoundReport
	if !c.get(ctx, reportKey(ref), &rep) {
		return nil, false
	}
	return &rep, true
}

// SetReport caches finished rounds only: an in-progress report changes with
// every poll, and serving it stale would contradict the live round list.
func (c *Cache) SetReport(ctx context.Context, ref rounds.RoundRef, rep *rounds.RoundReport) {
	if rep.Active {
		return
	}
	c.set(ctx, reportKey(ref), rep, c.reportTTL)
}

func roundsKey(q rounds.RoundQuery) string {
	active := "any"
	if q.Active != nil {
		active = fmt.Sprint(*q.Active)
	}
	raw := fmt.Sprintf("%s|%s|%s|%d|%d|%s|%s|%d|%d|%d|%d|%s|%s|%d|%d",
		q.ServerID, q.MapName, q.GameType, q.From.Unix(), q.To.Unix(),
		q.MapContains, active, q.MinDuration, q.MaxDuration,
		q.MinPlayers, q.MaxPlayers, q.Sort, q.Order, q.Limit, q.Offset)
	sum := sha256.Sum256([]byte(raw))
	return "stattrack:rounds:" + hex.EncodeToString(sum[:8])
}

func reportKey(ref rounds.RoundRef) string {
	return fmt.Sprintf("stattrack:report:%s:%s:%d",
		ref.ServerID, ref.MapName, ref.At.UTC().Unix())
}

func (c *Cache) get(ctx context.Context, key string, dst any) bool {
	if c == nil || c.rdb == nil {
		return false
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Debug("cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.logger.Debug("cache entry corrupt", "key", key, "error", err)
		return false
	}
	return true
}

func (c *Cache) set(ctx context.Context, key string, v any, ttl time.Duration) {
	if c == nil || c.rdb == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.Debug("cache write failed", "key", key, "error", err)
	}
}

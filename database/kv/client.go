// Package kv adapts Redis as the hot incremental daily-aggregate store
// (§3, §4.F, §4.H). It exposes a pipelined batch-flush API and a
// scan-by-prefix read used by the promotion worker.
package kv

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ttl is how long a daily-aggregate key survives without a touch, per
// spec.md §3.
const ttl = 30 * 24 * time.Hour

// KeyPrefix is the namespace every daily-aggregate hash key lives under.
const KeyPrefix = "daily_agg:"

// Client wraps a redis.Client, matching the teacher's nil-guarded
// cache.RedisClient wrapper shape.
type Client struct {
	rdb *redis.Client
}

// NewClient connects to Redis at host:port. It pings once at construction;
// a failed ping is returned as an error rather than silently degrading, so
// startup failures are fatal per spec.md §7 taxonomy item 6.
func NewClient(host, port, password string) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("kv: connect: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// TradeDelta is one trade's contribution to a (symbol, date) daily
// aggregate, ready to fold into the KV hash.
type TradeDelta struct {
	Symbol     string
	Date       string // YYYY-MM-DD
	Volume     float64
	Amount     float64 // price * volume
	TradeTsISO string  // fixed-width ISO-8601, see spec.md §4.F ordering note
}

// key builds the daily_agg:{symbol}:{date} hash key for a delta.
func (d TradeDelta) key() string {
	return KeyPrefix + d.Symbol + ":" + d.Date
}

// FlushBatch applies every delta's {HINCRBYFLOAT total_volume/total_amount,
// HINCRBY trade_count, HSETNX first_trade_time, HSET last_trade_time,
// EXPIRE} sequence in one pipelined round-trip, per spec.md §4.F.
func (c *Client) FlushBatch(ctx context.Context, deltas []TradeDelta) error {
	if len(deltas) == 0 {
		return nil
	}

	pipe := c.rdb.Pipeline()
	for _, d := range deltas {
		key := d.key()
		pipe.HIncrByFloat(ctx, key, "total_volume", d.Volume)
		pipe.HIncrByFloat(ctx, key, "total_amount", d.Amount)
		pipe.HIncrBy(ctx, key, "trade_count", 1)
		pipe.HSetNX(ctx, key, "first_trade_time", d.TradeTsISO)
		pipe.HSet(ctx, key, "last_trade_time", d.TradeTsISO)
		pipe.Expire(ctx, key, ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("kv: flush batch: %w", err)
	}
	return nil
}

// DailyAggregate is the hash-field view of a single (symbol, date)
// hot aggregate, per spec.md §3.
type DailyAggregate struct {
	Symbol         string
	Date           string
	TotalVolume    float64
	TotalAmount    float64
	TradeCount     int64
	FirstTradeTime string
	LastTradeTime  string
}

// GetDailyAggregate reads one key's hash, returning ok=false if the key is
// absent or empty (a miss), per spec.md §4.F query path.
func (c *Client) GetDailyAggregate(ctx context.Context, symbol, date string) (agg DailyAggregate, ok bool, err error) {
	key := KeyPrefix + symbol + ":" + date
	vals, err := c.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return DailyAggregate{}, false, fmt.Errorf("kv: get %s: %w", key, err)
	}
	if len(vals) == 0 {
		return DailyAggregate{}, false, nil
	}

	agg = parseAggregate(symbol, date, vals)
	return agg, true, nil
}

// ScanDailyAggregates enumerates every daily_agg:* key, parsing symbol and
// date from the key and reading its hash. A key that fails to parse is
// logged here and skipped; the scan continues.
func (c *Client) ScanDailyAggregates(ctx context.Context, fn func(agg DailyAggregate) error) error {
	iter := c.rdb.Scan(ctx, 0, KeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		symbol, date, err := parseKey(key)
		if err != nil {
			log.Printf("⚠️  kv: skipping malformed daily-aggregate key %q: %v", key, err)
			continue
		}

		vals, err := c.rdb.HGetAll(ctx, key).Result()
		if err != nil || len(vals) == 0 {
			continue
		}

		agg := parseAggregate(symbol, date, vals)
		if err := fn(agg); err != nil {
			return err
		}
	}
	return iter.Err()
}

func parseKey(key string) (symbol, date string, err error) {
	rest := strings.TrimPrefix(key, KeyPrefix)
	idx := strings.LastIndex(rest, ":")
	if idx < 0 {
		return "", "", fmt.Errorf("kv: malformed key %q", key)
	}
	return rest[:idx], rest[idx+1:], nil
}

func parseAggregate(symbol, date string, vals map[string]string) DailyAggregate {
	agg := DailyAggregate{Symbol: symbol, Date: date}
	agg.TotalVolume, _ = strconv.ParseFloat(vals["total_volume"], 64)
	agg.TotalAmount, _ = strconv.ParseFloat(vals["total_amount"], 64)
	agg.TradeCount, _ = strconv.ParseInt(vals["trade_count"], 10, 64)
	agg.FirstTradeTime = vals["first_trade_time"]
	agg.LastTradeTime = vals["last_trade_time"]
	return agg
}

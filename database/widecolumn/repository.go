// Package widecolumn adapts a wide-column store (Cassandra/Scylla via
// gocql) for raw trades, 15-second running averages, daily aggregates, and
// news (§3, §4.H). It mirrors the teacher's manual schema-on-boot
// discipline (database/repository.go's CREATE TABLE IF NOT EXISTS) but
// targets CQL instead of Timescale/Postgres DDL.
package widecolumn

import (
	"fmt"
	"time"

	"github.com/gocql/gocql"
)

// Repository wraps a gocql session with prepared-statement-style queries
// for the hot paths: insert_trade, insert_average, upsert_daily_aggregate,
// insert_news.
type Repository struct {
	session *gocql.Session
}

// Connect opens a session against the given hosts/keyspace.
func Connect(hosts []string, keyspace, username, password string) (*Repository, error) {
	cluster := gocql.NewCluster(hosts...)
	cluster.Keyspace = keyspace
	cluster.Consistency = gocql.Quorum
	if username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{Username: username, Password: password}
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("widecolumn: connect: %w", err)
	}

	return &Repository{session: session}, nil
}

// Close shuts down the underlying session. Called on SIGINT per spec.md
// §4.F shutdown semantics.
func (r *Repository) Close() {
	r.session.Close()
}

// InitSchema creates the keyspace's tables if they don't already exist.
func (r *Repository) InitSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS trades (
			uuid uuid PRIMARY KEY,
			symbol text,
			trade_conditions text,
			price double,
			volume double,
			trade_timestamp timestamp,
			ingest_timestamp timestamp
		)`,
		`CREATE TABLE IF NOT EXISTS running_averages_15_sec (
			uuid uuid PRIMARY KEY,
			symbol text,
			price_volume_multiply double,
			ingest_timestamp timestamp
		)`,
		`CREATE TABLE IF NOT EXISTS daily_aggregates (
			symbol text,
			trade_date date,
			total_volume double,
			total_amount double,
			trade_count bigint,
			first_trade_time timestamp,
			last_trade_time timestamp,
			created_at timestamp,
			updated_at timestamp,
			PRIMARY KEY (symbol, trade_date)
		)`,
		`CREATE TABLE IF NOT EXISTS news (
			uuid uuid PRIMARY KEY,
			symbol text,
			category text,
			datetime timestamp,
			headline text,
			news_id text,
			image text,
			source text,
			summary text,
			url text,
			ingest_timestamp timestamp
		)`,
	}

	for _, stmt := range stmts {
		if err := r.session.Query(stmt).Exec(); err != nil {
			return fmt.Errorf("widecolumn: init schema: %w", err)
		}
	}
	return nil
}

// Trade is one persisted raw trade row.
type Trade struct {
	Symbol          string
	Conditions      []string
	Price           float64
	Volume          float64
	TradeTimestamp  time.Time
	IngestTimestamp time.Time
}

// InsertTrade inserts one trades row, rendering Conditions as the literal
// textual form per spec.md §3 (callers pass the already-rendered string via
// helpers.RenderConditions to keep the wire contract in one place).
func (r *Repository) InsertTrade(symbol, renderedConditions string, price, volume float64, tradeTimestamp, ingestTimestamp time.Time) error {
	q := r.session.Query(
		`INSERT INTO trades (uuid, symbol, trade_conditions, price, volume, trade_timestamp, ingest_timestamp) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		gocql.TimeUUID(), symbol, renderedConditions, price, volume, tradeTimestamp, ingestTimestamp,
	)
	if err := q.Exec(); err != nil {
		return fmt.Errorf("widecolumn: insert trade: %w", err)
	}
	return nil
}

// InsertRunningAverage inserts one running_averages_15_sec row.
func (r *Repository) InsertRunningAverage(symbol string, priceVolumeMultiply float64, ingestTimestamp time.Time) error {
	q := r.session.Query(
		`INSERT INTO running_averages_15_sec (uuid, symbol, price_volume_multiply, ingest_timestamp) VALUES (?, ?, ?, ?)`,
		gocql.TimeUUID(), symbol, priceVolumeMultiply, ingestTimestamp,
	)
	if err := q.Exec(); err != nil {
		return fmt.Errorf("widecolumn: insert running average: %w", err)
	}
	return nil
}

// DailyAggregate mirrors the daily_aggregates table row shape.
type DailyAggregate struct {
	Symbol         string
	TradeDate      time.Time
	TotalVolume    float64
	TotalAmount    float64
	TradeCount     int64
	FirstTradeTime time.Time
	LastTradeTime  time.Time
}

// UpsertDailyAggregate promotes one KV hot aggregate into the cold store,
// setting updated_at=now and created_at=now only on first insert, per
// spec.md §4.F promotion semantics.
func (r *Repository) UpsertDailyAggregate(agg DailyAggregate, now time.Time) error {
	existing, err := r.GetDailyAggregate(agg.Symbol, agg.TradeDate)
	if err != nil {
		return fmt.Errorf("widecolumn: upsert daily aggregate: read existing: %w", err)
	}

	createdAt := now
	if existing != nil {
		createdAt = existing.createdAt
	}

	q := r.session.Query(
		`INSERT INTO daily_aggregates (symbol, trade_date, total_volume, total_amount, trade_count, first_trade_time, last_trade_time, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		agg.Symbol, agg.TradeDate, agg.TotalVolume, agg.TotalAmount, agg.TradeCount, agg.FirstTradeTime, agg.LastTradeTime, createdAt, now,
	)
	if err := q.Exec(); err != nil {
		return fmt.Errorf("widecolumn: upsert daily aggregate: %w", err)
	}
	return nil
}

// DailyAggregateRow is a read of one daily_aggregates row. createdAt stays
// unexported — it's internal bookkeeping for UpsertDailyAggregate, not
// part of the query-path contract callers consume.
type DailyAggregateRow struct {
	DailyAggregate
	createdAt time.Time
}

// GetDailyAggregate reads one (symbol, date) row, returning nil if absent.
func (r *Repository) GetDailyAggregate(symbol string, tradeDate time.Time) (*DailyAggregateRow, error) {
	var row DailyAggregateRow
	row.Symbol = symbol
	row.TradeDate = tradeDate

	err := r.session.Query(
		`SELECT total_volume, total_amount, trade_count, first_trade_time, last_trade_time, created_at FROM daily_aggregates WHERE symbol = ? AND trade_date = ?`,
		symbol, tradeDate,
	).Scan(&row.TotalVolume, &row.TotalAmount, &row.TradeCount, &row.FirstTradeTime, &row.LastTradeTime, &row.createdAt)

	if err == gocql.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("widecolumn: get daily aggregate: %w", err)
	}
	return &row, nil
}

// News is one persisted news row.
type News struct {
	Symbol          string
	Category        string
	Datetime        time.Time
	Headline        string
	NewsID          string
	Image           string
	Source          string
	Summary         string
	URL             string
	IngestTimestamp time.Time
}

// InsertNews inserts one news row.
func (r *Repository) InsertNews(n News) error {
	q := r.session.Query(
		`INSERT INTO news (uuid, symbol, category, datetime, headline, news_id, image, source, summary, url, ingest_timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		gocql.TimeUUID(), n.Symbol, n.Category, n.Datetime, n.Headline, n.NewsID, n.Image, n.Source, n.Summary, n.URL, n.IngestTimestamp,
	)
	if err := q.Exec(); err != nil {
		return fmt.Errorf("widecolumn: insert news: %w", err)
	}
	return nil
}

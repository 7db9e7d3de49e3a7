// Package processor implements the stream processor (§4.F): a consumer
// loop that decodes binary trade envelopes, persists raw trades, maintains
// per-symbol 15-second running averages, and feeds a bounded work queue
// that a batch worker folds into the KV hot-aggregate store; a promotion
// worker periodically scans the KV store and upserts into the
// wide-column cold store.
package processor

import (
	"context"
	"fmt"
	"log"
	"time"

	"marketdata-pipeline/database/kv"
	"marketdata-pipeline/database/widecolumn"
	"marketdata-pipeline/helpers"
	"marketdata-pipeline/wire"
)

const (
	queueCapacity  = 10_000
	ringEmitPeriod = 5 * time.Second
)

// Consumer is the subset of logstream.Consumer the processor needs.
type Consumer interface {
	Next(ctx context.Context) ([]byte, error)
}

// WideColumnStore is the subset of widecolumn.Repository the processor
// needs, kept as an interface so the consumer loop and promotion worker
// don't depend on the gocql-backed concrete type directly.
type WideColumnStore interface {
	InsertTrade(symbol, renderedConditions string, price, volume float64, tradeTimestamp, ingestTimestamp time.Time) error
	InsertRunningAverage(symbol string, priceVolumeMultiply float64, ingestTimestamp time.Time) error
	UpsertDailyAggregate(agg widecolumn.DailyAggregate, now time.Time) error
	GetDailyAggregate(symbol string, tradeDate time.Time) (*widecolumn.DailyAggregateRow, error)
}

// pendingTrade is one trade event offered to the batch queue.
type pendingTrade struct {
	symbol   string
	price    float64
	volume   float64
	tradeTs  time.Time
	amount   float64
}

// Processor wires the consumer loop, batch worker, and promotion worker
// together. Construct with New, then call Run.
type Processor struct {
	consumer    Consumer
	kvClient    *kv.Client
	wideColumn  WideColumnStore
	batchSize   int
	batchInterval time.Duration
	promotionInterval time.Duration

	rings *ringRegistry
	queue chan pendingTrade

	lastRingEmit time.Time
}

// Config bundles the tunables read from the environment (§6).
type Config struct {
	BatchSize             int
	BatchInterval         time.Duration
	DailyPersistInterval  time.Duration
}

// New builds a Processor. cfg's zero values fall back to the spec's
// defaults (BATCH_SIZE=100, BATCH_INTERVAL=10s, DAILY_PERSIST_INTERVAL=300s).
func New(consumer Consumer, kvClient *kv.Client, wideColumn WideColumnStore, cfg Config) *Processor {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.BatchInterval <= 0 {
		cfg.BatchInterval = 10 * time.Second
	}
	if cfg.DailyPersistInterval <= 0 {
		cfg.DailyPersistInterval = 300 * time.Second
	}

	return &Processor{
		consumer:          consumer,
		kvClient:          kvClient,
		wideColumn:        wideColumn,
		batchSize:         cfg.BatchSize,
		batchInterval:     cfg.BatchInterval,
		promotionInterval: cfg.DailyPersistInterval,
		rings:             newRingRegistry(),
		queue:             make(chan pendingTrade, queueCapacity),
	}
}

// Run drives all three workers until ctx is cancelled (SIGINT), per
// spec.md §7 taxonomy item 6 / §4.F shutdown semantics. In-flight batches
// are discarded on shutdown — Run does not drain the queue before
// returning.
func (p *Processor) Run(ctx context.Context) error {
	go p.runBatchWorker(ctx)
	go p.runPromotionWorker(ctx)
	return p.runConsumerLoop(ctx)
}

func (p *Processor) runConsumerLoop(ctx context.Context) error {
	p.lastRingEmit = time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		raw, err := p.consumer.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Printf("⚠️  processor: consumer read failed: %v", err)
			continue
		}

		env, err := wire.Decode(raw)
		if err != nil {
			log.Printf("⚠️  processor: decode failed, dropping message: %v", err)
			continue
		}

		now := time.Now().UTC()
		for _, t := range env.Data {
			p.handleTrade(t, now)
		}

		p.maybeEmitRunningAverages(now)
	}
}

func (p *Processor) handleTrade(t wire.Trade, ingestTs time.Time) {
	tradeTs := time.UnixMilli(t.TradeTsMs).UTC()
	rendered := helpers.RenderConditions(t.Conditions)

	if err := p.wideColumn.InsertTrade(t.Symbol, rendered, t.Price, t.Volume, tradeTs, ingestTs); err != nil {
		log.Printf("⚠️  processor: insert trade failed for %s: %v", t.Symbol, err)
	}

	p.rings.add(t.Symbol, tick{price: t.Price, volume: t.Volume, ts: tradeTs}, ingestTs)

	pending := pendingTrade{
		symbol:  t.Symbol,
		price:   t.Price,
		volume:  t.Volume,
		tradeTs: tradeTs,
		amount:  t.Price * t.Volume,
	}
	select {
	case p.queue <- pending:
	default:
		log.Printf("⚠️  processor: batch queue full, dropping trade for %s", t.Symbol)
	}
}

// maybeEmitRunningAverages runs the 5-s cadence from the consumer loop, as
// spec.md §4.F requires ("driven from the consumer loop").
func (p *Processor) maybeEmitRunningAverages(now time.Time) {
	if now.Sub(p.lastRingEmit) < ringEmitPeriod {
		return
	}
	p.lastRingEmit = now

	p.rings.forEachNonEmpty(now, func(symbol string, mean float64) {
		if err := p.wideColumn.InsertRunningAverage(symbol, mean, now); err != nil {
			log.Printf("⚠️  processor: insert running average failed for %s: %v", symbol, err)
		}
	})
}

func (p *Processor) runBatchWorker(ctx context.Context) {
	var buf []pendingTrade
	lastFlush := time.Now()

	flush := func() {
		if len(buf) == 0 {
			return
		}
		deltas := make([]kv.TradeDelta, 0, len(buf))
		for _, t := range buf {
			deltas = append(deltas, kv.TradeDelta{
				Symbol:     t.symbol,
				Date:       t.tradeTs.Format("2006-01-02"),
				Volume:     t.volume,
				Amount:     t.amount,
				TradeTsISO: helpers.FormatTradeTimestamp(t.tradeTs),
			})
		}
		if err := p.kvClient.FlushBatch(ctx, deltas); err != nil {
			log.Printf("⚠️  processor: batch flush failed: %v", err)
		}
		buf = buf[:0]
		lastFlush = time.Now()
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-p.queue:
			buf = append(buf, t)
			if len(buf) >= p.batchSize {
				flush()
			}
		case <-ticker.C:
			if time.Since(lastFlush) >= p.batchInterval {
				flush()
			}
		}
	}
}

func (p *Processor) runPromotionWorker(ctx context.Context) {
	ticker := time.NewTicker(p.promotionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.promoteOnce(ctx)
		}
	}
}

func (p *Processor) promoteOnce(ctx context.Context) {
	now := time.Now().UTC()
	err := p.kvClient.ScanDailyAggregates(ctx, func(agg kv.DailyAggregate) error {
		tradeDate, parseErr := time.Parse("2006-01-02", agg.Date)
		if parseErr != nil {
			log.Printf("⚠️  processor: promotion: bad date %q for %s: %v", agg.Date, agg.Symbol, parseErr)
			return nil
		}
		firstTime, _ := helpers.ParseTradeTimestamp(agg.FirstTradeTime)
		lastTime, _ := helpers.ParseTradeTimestamp(agg.LastTradeTime)

		promoted := widecolumn.DailyAggregate{
			Symbol:         agg.Symbol,
			TradeDate:      tradeDate,
			TotalVolume:    agg.TotalVolume,
			TotalAmount:    agg.TotalAmount,
			TradeCount:     agg.TradeCount,
			FirstTradeTime: firstTime,
			LastTradeTime:  lastTime,
		}
		if err := p.wideColumn.UpsertDailyAggregate(promoted, now); err != nil {
			log.Printf("⚠️  processor: promotion: upsert failed for %s/%s: %v", agg.Symbol, agg.Date, err)
		}
		return nil
	})
	if err != nil {
		log.Printf("⚠️  processor: promotion scan failed: %v", err)
	}
}

// DailyAggregateResult is the query-path response: values plus a source
// tag, per spec.md §4.F query path.
type DailyAggregateResult struct {
	Symbol         string
	Date           string
	TotalVolume    float64
	TotalAmount    float64
	TradeCount     int64
	FirstTradeTime string
	LastTradeTime  string
	Source         string
}

// GetDailyAggregate reads KV first (source=redis); on miss, falls back to
// the wide-column store (source=cassandra); returns nil on both misses.
func (p *Processor) GetDailyAggregate(ctx context.Context, symbol, date string) (*DailyAggregateResult, error) {
	hot, ok, err := p.kvClient.GetDailyAggregate(ctx, symbol, date)
	if err != nil {
		return nil, fmt.Errorf("processor: query kv: %w", err)
	}
	if ok {
		return &DailyAggregateResult{
			Symbol:         symbol,
			Date:           date,
			TotalVolume:    hot.TotalVolume,
			TotalAmount:    hot.TotalAmount,
			TradeCount:     hot.TradeCount,
			FirstTradeTime: hot.FirstTradeTime,
			LastTradeTime:  hot.LastTradeTime,
			Source:         "redis",
		}, nil
	}

	tradeDate, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, fmt.Errorf("processor: query: bad date %q: %w", date, err)
	}

	cold, err := p.wideColumn.GetDailyAggregate(symbol, tradeDate)
	if err != nil {
		return nil, fmt.Errorf("processor: query wide-column: %w", err)
	}
	if cold == nil {
		return nil, nil
	}

	return &DailyAggregateResult{
		Symbol:         symbol,
		Date:           date,
		TotalVolume:    cold.TotalVolume,
		TotalAmount:    cold.TotalAmount,
		TradeCount:     cold.TradeCount,
		FirstTradeTime: helpers.FormatTradeTimestamp(cold.FirstTradeTime),
		LastTradeTime:  helpers.FormatTradeTimestamp(cold.LastTradeTime),
		Source:         "cassandra",
	}, nil
}

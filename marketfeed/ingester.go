package marketfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"marketdata-pipeline/database/widecolumn"
	"marketdata-pipeline/wire"
)

// reconnectDelay is how long the ingester waits after a closed or errored
// socket before re-establishing the connection, per spec.md §4.E.
const reconnectDelay = 5 * time.Second

// healthCheckInterval and staleAfter implement the supplemental WebSocket
// health monitor described in SPEC_FULL.md §5, adopted from the teacher's
// ConnectionManager.RunHealthMonitor.
const (
	healthCheckInterval = 60 * time.Second
	staleAfter          = 5 * time.Minute
)

// Publisher is the subset of the log producer the ingester needs. Kept as
// an interface here so tests can supply a fake without pulling in a real
// broker connection. Only the trades variant uses it.
type Publisher interface {
	Publish(ctx context.Context, value []byte) error
}

// NewsSink is where the news variant writes decoded news items. Unlike
// trades, news never goes through the log: the vendor's news frames are
// written straight to the wide-column store, mirroring the original
// news producer's direct-to-Cassandra design. Only the news variant
// uses it.
type NewsSink interface {
	InsertNews(n widecolumn.News) error
}

// TickerValidator resolves a ticker against the vendor's lookup endpoint.
// When configured, the ingester silently skips any ticker that doesn't
// resolve, per spec.md §4.E.
type TickerValidator interface {
	Exists(ticker string) bool
}

// Variant selects the subscribe frame type and throttle behavior.
type Variant int

const (
	// VariantTrades subscribes with {"type":"subscribe", ...} and applies
	// the latest-wins 1s throttle.
	VariantTrades Variant = iota
	// VariantNews subscribes with {"type":"subscribe-news", ...} and
	// applies no throttling: every news item is processed immediately.
	VariantNews
)

// Ingester owns the WebSocket lifecycle: connect, subscribe fan-out,
// throttle (trades variant only), reconnect-on-close, and publish to the
// log.
type Ingester struct {
	wsURL     string
	token     string
	tickers   []string
	validate  bool
	validator TickerValidator
	variant   Variant
	publisher Publisher
	newsSink  NewsSink

	throttle    *Throttle
	lastMsgTime time.Time
}

// NewIngester builds a trades-variant Ingester, publishing throttled
// trade envelopes to publisher. validator may be nil when validate is
// false.
func NewIngester(wsURL, token string, tickers []string, validate bool, validator TickerValidator, publisher Publisher) *Ingester {
	return &Ingester{
		wsURL:     wsURL,
		token:     token,
		tickers:   tickers,
		validate:  validate,
		validator: validator,
		variant:   VariantTrades,
		publisher: publisher,
		throttle:  NewThrottle(),
	}
}

// NewNewsIngester builds a news-variant Ingester, writing every news item
// straight to newsSink (no throttle, no log). validator may be nil when
// validate is false.
func NewNewsIngester(wsURL, token string, tickers []string, validate bool, validator TickerValidator, newsSink NewsSink) *Ingester {
	return &Ingester{
		wsURL:     wsURL,
		token:     token,
		tickers:   tickers,
		validate:  validate,
		validator: validator,
		variant:   VariantNews,
		newsSink:  newsSink,
		throttle:  NewThrottle(),
	}
}

// Start runs the outer reconnect loop until ctx is cancelled. Each
// iteration establishes one connection, runs it to completion (error or
// ctx cancellation), and — unless ctx is done — waits reconnectDelay before
// looping. This is a flat loop rather than recursion, per Design Note
// "Cyclic reconnect in on_close".
func (ing *Ingester) Start(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err := ing.runOnce(ctx); err != nil {
			log.Printf("marketfeed: connection ended: %v", err)
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

// runOnce connects, subscribes, and reads until the socket closes, errors,
// or ctx is cancelled.
func (ing *Ingester) runOnce(ctx context.Context) error {
	client, err := NewClient(ing.wsURL, ing.token)
	if err != nil {
		return err
	}
	if err := client.Connect(); err != nil {
		return err
	}
	defer client.Close()

	log.Printf("marketfeed: connected to %s", ing.wsURL)
	ing.lastMsgTime = time.Now()

	if err := ing.subscribeAll(client); err != nil {
		return err
	}

	done := make(chan struct{})
	defer close(done)

	if ing.variant == VariantTrades {
		go ing.throttle.Run(done, func(raw []byte) {
			ing.emitTrade(ctx, raw)
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			_ = client.Close()
		case <-done:
		}
	}()

	go ing.runHealthMonitor(ctx, client, done)

	for {
		data, err := client.ReadMessage()
		if err != nil {
			return fmt.Errorf("marketfeed: read: %w", err)
		}
		ing.lastMsgTime = time.Now()

		if ing.variant == VariantNews {
			ing.handleNewsFrame(data)
			continue
		}
		ing.throttle.Offer(data)
	}
}

// subscribeAll sends one subscribe frame per configured ticker, paced at
// minSubscribeIntervalMs apart, validating each ticker first when
// validation is enabled.
func (ing *Ingester) subscribeAll(client *Client) error {
	subType := "subscribe"
	if ing.variant == VariantNews {
		subType = "subscribe-news"
	}

	for i, ticker := range ing.tickers {
		if ing.validate && ing.validator != nil && !ing.validator.Exists(ticker) {
			log.Printf("marketfeed: skipping unknown ticker %s", ticker)
			continue
		}

		if err := client.WriteJSON(SubscribeFrame{Type: subType, Symbol: ticker}); err != nil {
			return fmt.Errorf("marketfeed: subscribe %s: %w", ticker, err)
		}

		if i < len(ing.tickers)-1 {
			time.Sleep(minSubscribeIntervalMs * time.Millisecond)
		}
	}
	return nil
}

// inboundEnvelope mirrors the vendor's trade JSON frame shape. Trade field
// letters match the wire schema's letters (§4.A/§6) so decoding is a
// direct field-for-field copy.
type inboundEnvelope struct {
	Type string         `json:"type"`
	Data []inboundTrade `json:"data"`
}

type inboundTrade struct {
	Conditions []string `json:"c"`
	Price      float64  `json:"p"`
	Symbol     string   `json:"s"`
	TradeTsMs  int64    `json:"t"`
	Volume     float64  `json:"v"`
}

// inboundNewsEnvelope mirrors the vendor's news JSON frame shape (§3),
// which shares nothing with the trade frame beyond the outer
// {"type","data"} wrapper.
type inboundNewsEnvelope struct {
	Type string             `json:"type"`
	Data []inboundNewsItem  `json:"data"`
}

type inboundNewsItem struct {
	Related    string `json:"related"`
	Category   string `json:"category"`
	DatetimeMs int64  `json:"datetime"`
	Headline   string `json:"headline"`
	ID         int64  `json:"id"`
	Image      string `json:"image"`
	Source     string `json:"source"`
	Summary    string `json:"summary"`
	URL        string `json:"url"`
}

// emitTrade decodes one throttled JSON frame, re-encodes it via the binary
// wire codec, and publishes it. JSON decode errors and publish errors are
// logged and the frame dropped, per spec.md §4.E failure semantics.
func (ing *Ingester) emitTrade(ctx context.Context, raw []byte) {
	var env inboundEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("marketfeed: decode frame: %v", err)
		return
	}

	out := wire.Envelope{Type: env.Type, Data: make([]wire.Trade, len(env.Data))}
	for i, t := range env.Data {
		out.Data[i] = wire.Trade{
			Symbol:     t.Symbol,
			Price:      t.Price,
			Volume:     t.Volume,
			Conditions: t.Conditions,
			TradeTsMs:  t.TradeTsMs,
		}
	}

	encoded, err := wire.Encode(out)
	if err != nil {
		log.Printf("marketfeed: encode envelope: %v", err)
		return
	}

	if err := ing.publisher.Publish(ctx, encoded); err != nil {
		log.Printf("marketfeed: publish: %v", err)
	}
}

// handleNewsFrame processes one unthrottled news frame, writing each item
// straight to the wide-column store — news never touches the log or the
// trade wire schema, per the original producer's direct-to-Cassandra
// design. Non-news types are discarded, per spec.md §4.E.
func (ing *Ingester) handleNewsFrame(raw []byte) {
	var env inboundNewsEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("marketfeed: decode news frame: %v", err)
		return
	}
	if env.Type != "news" {
		return
	}

	now := time.Now().UTC()
	for _, item := range env.Data {
		n := widecolumn.News{
			Symbol:          item.Related,
			Category:        item.Category,
			Datetime:        time.UnixMilli(item.DatetimeMs).UTC(),
			Headline:        item.Headline,
			NewsID:          fmt.Sprintf("%d", item.ID),
			Image:           item.Image,
			Source:          item.Source,
			Summary:         item.Summary,
			URL:             item.URL,
			IngestTimestamp: now,
		}
		if err := ing.newsSink.InsertNews(n); err != nil {
			log.Printf("marketfeed: insert news for %s: %v", item.Related, err)
		}
	}
}

// runHealthMonitor reconnects if no frame has arrived within staleAfter,
// even if the socket never raised an error. Supplement per SPEC_FULL.md §5.
func (ing *Ingester) runHealthMonitor(ctx context.Context, client *Client, done <-chan struct{}) {
	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			if time.Since(ing.lastMsgTime) > staleAfter {
				log.Printf("marketfeed: no message for %v, forcing reconnect", time.Since(ing.lastMsgTime).Round(time.Second))
				_ = client.Close()
				return
			}
		}
	}
}

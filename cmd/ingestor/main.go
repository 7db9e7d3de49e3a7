// Command ingestor runs the realtime WebSocket ingester: it connects to
// the vendor's trade feed, throttles frames to at most one per second
// across all symbols (latest frame wins), and publishes binary envelopes
// to the durable log.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"marketdata-pipeline/config"
	"marketdata-pipeline/logstream"
	"marketdata-pipeline/marketfeed"
)

func main() {
	cfg := config.LoadFromEnv()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	producer := logstream.NewProducer(cfg.Log.Brokers, cfg.Log.Topic)
	defer producer.Close()

	var validator marketfeed.TickerValidator
	if cfg.Realtime.ValidateTickers {
		validator = marketfeed.NewSymbolLookup(cfg.Realtime.LookupBaseURL, cfg.Realtime.TradesToken)
	}

	ingester := marketfeed.NewIngester(
		cfg.Realtime.WSURL,
		cfg.Realtime.TradesToken,
		cfg.Tickers,
		cfg.Realtime.ValidateTickers,
		validator,
		producer,
	)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-interrupt
		log.Println("🛑 shutdown signal received, stopping ingester...")
		cancel()
	}()

	if err := ingester.Start(ctx); err != nil {
		log.Fatalf("❌ ingestor: %v", err)
	}
}

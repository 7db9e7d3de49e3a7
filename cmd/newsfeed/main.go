// Command newsfeed runs the realtime news WebSocket ingester: it connects
// to the vendor's news feed with its own token and writes every item
// straight to the wide-column store, bypassing the durable log entirely —
// news never shares the trade topic, per the original producer's
// direct-to-Cassandra design.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"marketdata-pipeline/config"
	"marketdata-pipeline/database/widecolumn"
	"marketdata-pipeline/marketfeed"
)

func main() {
	cfg := config.LoadFromEnv()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wideColumn, err := widecolumn.Connect(cfg.WideColumn.Hosts, cfg.WideColumn.Keyspace, cfg.WideColumn.Username, cfg.WideColumn.Password)
	if err != nil {
		log.Fatalf("❌ newsfeed: connect wide-column store: %v", err)
	}
	defer wideColumn.Close()

	if err := wideColumn.InitSchema(); err != nil {
		log.Fatalf("❌ newsfeed: init wide-column schema: %v", err)
	}

	var validator marketfeed.TickerValidator
	if cfg.Realtime.ValidateTickers {
		validator = marketfeed.NewSymbolLookup(cfg.Realtime.LookupBaseURL, cfg.Realtime.NewsToken)
	}

	ingester := marketfeed.NewNewsIngester(
		cfg.Realtime.WSURL,
		cfg.Realtime.NewsToken,
		cfg.Tickers,
		cfg.Realtime.ValidateTickers,
		validator,
		wideColumn,
	)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-interrupt
		log.Println("🛑 shutdown signal received, stopping newsfeed...")
		cancel()
	}()

	if err := ingester.Start(ctx); err != nil {
		log.Fatalf("❌ newsfeed: %v", err)
	}
}

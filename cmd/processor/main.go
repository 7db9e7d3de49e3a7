// Command processor runs the stream processor: it consumes binary trade
// envelopes from the durable log, persists raw trades and running
// averages to the wide-column store, and maintains the KV hot
// daily-aggregate store with periodic promotion to the cold store.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketdata-pipeline/config"
	"marketdata-pipeline/database/kv"
	"marketdata-pipeline/database/widecolumn"
	"marketdata-pipeline/logstream"
	"marketdata-pipeline/processor"
)

func main() {
	cfg := config.LoadFromEnv()

	wideColumn, err := widecolumn.Connect(cfg.WideColumn.Hosts, cfg.WideColumn.Keyspace, cfg.WideColumn.Username, cfg.WideColumn.Password)
	if err != nil {
		log.Fatalf("❌ processor: connect wide-column store: %v", err)
	}
	defer wideColumn.Close()

	if err := wideColumn.InitSchema(); err != nil {
		log.Fatalf("❌ processor: init wide-column schema: %v", err)
	}

	kvClient, err := kv.NewClient(cfg.KV.Host, cfg.KV.Port, cfg.KV.Password)
	if err != nil {
		log.Fatalf("❌ processor: connect kv store: %v", err)
	}
	defer kvClient.Close()

	consumer := logstream.NewConsumer(cfg.Log.Brokers, cfg.Log.Topic, cfg.Log.ConsumerGroup)
	defer consumer.Close()

	proc := processor.New(consumer, kvClient, wideColumn, processor.Config{
		BatchSize:            cfg.Processor.BatchSize,
		BatchInterval:        time.Duration(cfg.Processor.BatchInterval) * time.Second,
		DailyPersistInterval: time.Duration(cfg.Processor.DailyPersistInterval) * time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-interrupt
		log.Println("🛑 shutdown signal received, stopping processor...")
		cancel()
	}()

	log.Println("✅ stream processor started")
	if err := proc.Run(ctx); err != nil {
		log.Fatalf("❌ processor: %v", err)
	}

	// Allow in-flight log reads to unwind before process exit.
	time.Sleep(100 * time.Millisecond)
}

// Package config loads process configuration once at startup into a plain
// struct that is then passed into every component by constructor. Nothing
// downstream reads os.Getenv directly.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds every environment-derived setting the four binaries need.
// Individual binaries only read the sub-structs relevant to them.
type Config struct {
	Tickers []string

	Realtime   RealtimeConfig
	Log        LogConfig
	Processor  ProcessorConfig
	Vendor     VendorConfig
	WideColumn WideColumnConfig
	KV         KVConfig
	Relational RelationalConfig
}

// RealtimeConfig configures the WebSocket ingester (§4.E).
type RealtimeConfig struct {
	TradesToken     string
	NewsToken       string
	ValidateTickers bool
	WSURL           string
	LookupBaseURL   string
}

// LogConfig configures the durable log producer/consumer (§4.C/D).
type LogConfig struct {
	Brokers       []string
	Topic         string
	ConsumerGroup string
}

// ProcessorConfig configures the stream processor (§4.F) batch and
// promotion cadence.
type ProcessorConfig struct {
	BatchSize            int
	BatchInterval        int // seconds
	DailyPersistInterval int // seconds
}

// VendorConfig configures the fundamentals HTTP client (§4.B/G).
type VendorConfig struct {
	APIKey  string
	BaseURL string
}

// WideColumnConfig configures the wide-column store connection.
type WideColumnConfig struct {
	Hosts    []string
	Keyspace string
	Username string
	Password string
}

// KVConfig configures the Redis hot-aggregate store.
type KVConfig struct {
	Host     string
	Port     string
	Password string
}

// RelationalConfig configures the Postgres fundamentals store.
type RelationalConfig struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

// LoadFromEnv loads configuration from an optional .env file followed by the
// process environment. No value is checked for presence: a variable that
// is unset reads as its default where one is given and as the empty
// string otherwise, and LoadFromEnv never fails.
func LoadFromEnv() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		Tickers: parseTickers(os.Getenv("STOCKS_TICKERS")),

		Realtime: RealtimeConfig{
			TradesToken:     os.Getenv("FINNHUB_API_TOKEN_TRADES"),
			NewsToken:       os.Getenv("FINNHUB_API_TOKEN_NEWS"),
			ValidateTickers: os.Getenv("FINNHUB_VALIDATE_TICKERS") == "1",
			WSURL:           getEnvOrDefault("FINNHUB_WS_URL", "wss://ws.finnhub.io"),
			LookupBaseURL:   getEnvOrDefault("FINNHUB_REST_URL", "https://finnhub.io"),
		},

		Log: LogConfig{
			Brokers:       []string{fmt.Sprintf("%s:%s", getEnvOrDefault("KAFKA_SERVER", "localhost"), getEnvOrDefault("KAFKA_PORT", "9092"))},
			Topic:         getEnvOrDefault("KAFKA_TOPIC_NAME", "market"),
			ConsumerGroup: "stream-processor-group",
		},

		Processor: ProcessorConfig{
			BatchSize:            getEnvInt("BATCH_SIZE", 100),
			BatchInterval:        getEnvInt("BATCH_INTERVAL", 10),
			DailyPersistInterval: getEnvInt("DAILY_PERSIST_INTERVAL", 300),
		},

		Vendor: VendorConfig{
			APIKey:  os.Getenv("ALPHA_VANTAGE_API_KEY"),
			BaseURL: getEnvOrDefault("ALPHA_VANTAGE_BASE_URL", "https://www.alphavantage.co"),
		},

		WideColumn: WideColumnConfig{
			Hosts:    []string{getEnvOrDefault("CASSANDRA_HOST", "localhost")},
			Keyspace: getEnvOrDefault("CASSANDRA_KEYSPACE", "market"),
			Username: os.Getenv("CASSANDRA_USERNAME"),
			Password: os.Getenv("CASSANDRA_PASSWORD"),
		},

		KV: KVConfig{
			Host:     getEnvOrDefault("REDIS_HOST", "localhost"),
			Port:     getEnvOrDefault("REDIS_PORT", "6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},

		Relational: RelationalConfig{
			Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
			Port:     getEnvOrDefault("POSTGRES_PORT", "5432"),
			Database: getEnvOrDefault("POSTGRES_DATABASE", "fundamentals"),
			User:     getEnvOrDefault("POSTGRES_USER", "postgres"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
		},
	}
}

// parseTickers splits a comma-separated ticker list, trimming whitespace
// and dropping empty entries. Entries are not otherwise validated: no
// input is rejected, and a JSON array is not recognised as such.
func parseTickers(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	tickers := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			tickers = append(tickers, p)
		}
	}
	return tickers
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

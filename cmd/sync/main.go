// Command sync runs one of the four named fundamentals sync jobs
// (daily-prices, daily-news, weekly, quarterly), selected by its single
// positional argument, and exits non-zero on error or any per-endpoint
// failure.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"marketdata-pipeline/config"
	"marketdata-pipeline/database/relational"
	"marketdata-pipeline/fundamentals"
	"marketdata-pipeline/vendorapi"
)

var rootCmd = &cobra.Command{
	Use:   "sync <sync-type>",
	Short: "Run one fundamentals sync job",
	Long:  "Runs one of daily-prices, daily-news, weekly, or quarterly and exits non-zero on failure.",
	Args:  cobra.ExactArgs(1),
	RunE:  runSync,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runSync(cmd *cobra.Command, args []string) error {
	syncType := args[0]

	cfg := config.LoadFromEnv()

	vendor := vendorapi.NewClient(cfg.Vendor.BaseURL, cfg.Vendor.APIKey)

	db, err := relational.Connect(cfg.Relational.Host, cfg.Relational.Port, cfg.Relational.Database, cfg.Relational.User, cfg.Relational.Password)
	if err != nil {
		return fmt.Errorf("sync: connect relational store: %w", err)
	}
	if err := relational.InitSchema(db); err != nil {
		return fmt.Errorf("sync: init relational schema: %w", err)
	}
	repo := relational.NewRepository(db)

	job, err := buildJob(syncType, cfg.Tickers, vendor, repo)
	if err != nil {
		return err
	}

	outcome := fundamentals.RunSync(job)

	encoded, _ := json.Marshal(outcome)
	fmt.Println(string(encoded))

	if outcome.Failed() {
		os.Exit(1)
	}
	return nil
}

func buildJob(syncType string, tickers []string, vendor *vendorapi.Client, repo *relational.Repository) (fundamentals.Job, error) {
	switch syncType {
	case "daily-prices":
		return &fundamentals.DailyPricesJob{Symbols: tickers, Outputsize: "compact", Vendor: vendor, Repo: repo}, nil
	case "daily-news":
		return &fundamentals.DailyNewsJob{Watchlist: tickers, Vendor: vendor, Repo: repo}, nil
	case "weekly":
		return &fundamentals.WeeklyJob{Watchlist: tickers, Vendor: vendor, Repo: repo}, nil
	case "quarterly":
		return &fundamentals.QuarterlyJob{Symbols: tickers, Vendor: vendor, Repo: repo}, nil
	default:
		return nil, fmt.Errorf("sync: unknown sync type %q (want daily-prices, daily-news, weekly, or quarterly)", syncType)
	}
}

package fundamentals

import (
	"errors"
	"testing"
	"time"

	"marketdata-pipeline/database/relational"
	"marketdata-pipeline/vendorapi"
)

// fakeVendor implements vendorClient with canned per-call responses so
// jobs can be tested without a real vendor API or rate limiter.
type fakeVendor struct {
	dailyPrices    map[string][]vendorapi.DailyPrice
	listings       []vendorapi.Listing
	overviews      map[string]*vendorapi.Overview
	statements     map[string][]vendorapi.FinancialReport
	news           []vendorapi.NewsItem
	failSymbols    map[string]bool
}

func (f *fakeVendor) TimeSeriesDaily(symbol, outputsize string) ([]vendorapi.DailyPrice, bool, error) {
	if f.failSymbols[symbol] {
		return nil, false, nil
	}
	return f.dailyPrices[symbol], true, nil
}

func (f *fakeVendor) ListingStatus(watchlist []string) ([]vendorapi.Listing, bool, error) {
	return f.listings, true, nil
}

func (f *fakeVendor) Overview(symbol string) (*vendorapi.Overview, bool, error) {
	if f.failSymbols[symbol] {
		return nil, false, nil
	}
	return f.overviews[symbol], true, nil
}

func (f *fakeVendor) FinancialStatement(function, symbol string) ([]vendorapi.FinancialReport, bool, error) {
	return f.statements[function+":"+symbol], true, nil
}

func (f *fakeVendor) NewsSentiment(tickers []string, timeFrom string, limit int) ([]vendorapi.NewsItem, bool, error) {
	return f.news, true, nil
}

// fakeRepo implements relationalRepo by recording upserted rows.
type fakeRepo struct {
	stocks           []relational.Stock
	overviews        []relational.CompanyOverview
	dailyPrices      []relational.DailyPrice
	incomeStatements []relational.IncomeStatement
	balanceSheets    []relational.BalanceSheet
	cashFlows        []relational.CashFlow
	newsArticles     []relational.NewsArticle
	newsStocks       []relational.NewsStock
	nextNewsID       int64
	failUpsert       bool
}

func (f *fakeRepo) UpsertStocks(rows []relational.Stock) error {
	if f.failUpsert {
		return errors.New("upsert failed")
	}
	f.stocks = append(f.stocks, rows...)
	return nil
}

func (f *fakeRepo) UpsertCompanyOverviews(rows []relational.CompanyOverview) error {
	f.overviews = append(f.overviews, rows...)
	return nil
}

func (f *fakeRepo) UpsertDailyPrices(rows []relational.DailyPrice) error {
	if f.failUpsert {
		return errors.New("upsert failed")
	}
	f.dailyPrices = append(f.dailyPrices, rows...)
	return nil
}

func (f *fakeRepo) UpsertIncomeStatements(rows []relational.IncomeStatement) error {
	f.incomeStatements = append(f.incomeStatements, rows...)
	return nil
}

func (f *fakeRepo) UpsertBalanceSheets(rows []relational.BalanceSheet) error {
	f.balanceSheets = append(f.balanceSheets, rows...)
	return nil
}

func (f *fakeRepo) UpsertCashFlows(rows []relational.CashFlow) error {
	f.cashFlows = append(f.cashFlows, rows...)
	return nil
}

func (f *fakeRepo) UpsertNewsArticles(rows []relational.NewsArticle) (map[string]int64, error) {
	f.newsArticles = append(f.newsArticles, rows...)
	idByURL := make(map[string]int64, len(rows))
	for _, row := range rows {
		f.nextNewsID++
		idByURL[row.URL] = f.nextNewsID
	}
	return idByURL, nil
}

func (f *fakeRepo) UpsertNewsStocks(rows []relational.NewsStock) error {
	f.newsStocks = append(f.newsStocks, rows...)
	return nil
}

func TestDailyPricesJobUpsertsPerSymbol(t *testing.T) {
	vendor := &fakeVendor{
		dailyPrices: map[string][]vendorapi.DailyPrice{
			"AAAA": {{Symbol: "AAAA", Date: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}},
			"BBBB": {{Symbol: "BBBB", Date: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}},
		},
	}
	repo := &fakeRepo{}
	job := &DailyPricesJob{Symbols: []string{"AAAA", "BBBB"}, Outputsize: "compact", Vendor: vendor, Repo: repo}

	result := job.Run()
	if result.SuccessCount != 2 || result.ErrorCount != 0 {
		t.Fatalf("result = %+v, want 2 successes 0 errors", result)
	}
	if len(repo.dailyPrices) != 2 {
		t.Fatalf("expected 2 upserted rows, got %d", len(repo.dailyPrices))
	}
}

func TestDailyPricesJobRecordsErrorOnNullResponse(t *testing.T) {
	vendor := &fakeVendor{failSymbols: map[string]bool{"AAAA": true}}
	repo := &fakeRepo{}
	job := &DailyPricesJob{Symbols: []string{"AAAA"}, Outputsize: "compact", Vendor: vendor, Repo: repo}

	result := job.Run()
	if result.ErrorCount != 1 {
		t.Fatalf("expected 1 error, got %+v", result)
	}
}

func TestWeeklyJobFiltersListingsAndPullsOverviews(t *testing.T) {
	vendor := &fakeVendor{
		listings: []vendorapi.Listing{{Symbol: "AAAA"}},
		overviews: map[string]*vendorapi.Overview{
			"AAAA": {Symbol: "AAAA", Name: "Alpha Inc"},
		},
	}
	repo := &fakeRepo{}
	job := &WeeklyJob{Watchlist: []string{"AAAA"}, Vendor: vendor, Repo: repo}

	result := job.Run()
	if result.ErrorCount != 0 {
		t.Fatalf("unexpected errors: %+v", result)
	}
	if len(repo.stocks) != 1 || len(repo.overviews) != 1 {
		t.Fatalf("expected 1 stock and 1 overview upserted, got %+v", repo)
	}
}

func TestDailyNewsJobLinksOnlyWatchlistTickers(t *testing.T) {
	vendor := &fakeVendor{
		news: []vendorapi.NewsItem{
			{
				URL: "https://example.com/a",
				Tickers: []vendorapi.NewsTickerSentiment{
					{Ticker: "AAAA"},
					{Ticker: "ZZZZ"}, // not in watchlist
				},
			},
		},
	}
	repo := &fakeRepo{}
	job := &DailyNewsJob{
		Watchlist: []string{"AAAA"},
		Vendor:    vendor,
		Repo:      repo,
		Now:       func() time.Time { return time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC) },
	}

	result := job.Run()
	if result.ErrorCount != 0 {
		t.Fatalf("unexpected errors: %+v", result)
	}
	if len(repo.newsStocks) != 1 || repo.newsStocks[0].Symbol != "AAAA" {
		t.Fatalf("expected only AAAA linked, got %+v", repo.newsStocks)
	}
}

func TestComputeTimeFromIsYesterdayNineAMEastern(t *testing.T) {
	job := &DailyNewsJob{Now: func() time.Time {
		return time.Date(2026, 7, 31, 15, 0, 0, 0, time.UTC)
	}}

	got, err := job.computeTimeFrom()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 2026-07-30 09:00 EDT (UTC-4) = 2026-07-30 13:00 UTC
	want := "20260730T1300"
	if got != want {
		t.Errorf("computeTimeFrom() = %s, want %s", got, want)
	}
}

func TestQuarterlyJobFlattensAnnualAndQuarterlyReports(t *testing.T) {
	vendor := &fakeVendor{
		statements: map[string][]vendorapi.FinancialReport{
			"INCOME_STATEMENT:AAAA": {
				{FiscalDateEnding: time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), IsQuarterly: false, Fields: map[string]*float64{}},
				{FiscalDateEnding: time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), IsQuarterly: true, Fields: map[string]*float64{}},
			},
		},
	}
	repo := &fakeRepo{}
	job := &QuarterlyJob{Symbols: []string{"AAAA"}, Vendor: vendor, Repo: repo}

	result := job.Run()
	if result.ErrorCount != 0 {
		t.Fatalf("unexpected errors: %+v", result)
	}
	if len(repo.incomeStatements) != 2 {
		t.Fatalf("expected 2 flattened income statement rows, got %d", len(repo.incomeStatements))
	}
}

func TestRunSyncFailsOnEndpointErrors(t *testing.T) {
	vendor := &fakeVendor{failSymbols: map[string]bool{"AAAA": true}}
	repo := &fakeRepo{}
	job := &DailyPricesJob{Symbols: []string{"AAAA"}, Outputsize: "compact", Vendor: vendor, Repo: repo}

	outcome := RunSync(job)
	if !outcome.Failed() {
		t.Error("expected outcome.Failed() to be true when error_count > 0")
	}
	if outcome.SyncType != "daily-prices" {
		t.Errorf("SyncType = %s, want daily-prices", outcome.SyncType)
	}
}
